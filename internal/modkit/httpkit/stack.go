package httpkit

import (
	"net/http"
	"strings"
	"time"

	"contractlens/internal/platform/net/middleware"
)

// DefaultRequestTimeout bounds a request when CORE_API_TIMEOUT is unset
const DefaultRequestTimeout = 30 * time.Second

// CommonStackTimeout is the middleware in front of /api/v1. The timeout skips LongRunning requests
func CommonStackTimeout(d time.Duration) []func(http.Handler) http.Handler {
	if d <= 0 {
		d = DefaultRequestTimeout
	}
	return middleware.Stack(middleware.StackOptions{Timeout: d, Untimed: LongRunning, Slow: 5 * time.Second})
}

// LongRunning matches the POSTs that review a contract or build a generation inline,
// those are bounded by the per unit model timeout and embedding batches instead
func LongRunning(r *http.Request) bool {
	if r.Method != http.MethodPost {
		return false
	}
	p := strings.TrimSuffix(r.URL.Path, "/")
	return strings.HasSuffix(p, "/reviews") || strings.HasSuffix(p, "/generations")
}
