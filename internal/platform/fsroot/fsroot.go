// Package fsroot confines user supplied paths to a configured directory
package fsroot

import (
	"path/filepath"
	"strings"

	perr "contractlens/internal/platform/errors"
)

// Resolve joins p onto root and rejects paths that leave it. An empty root disables path input
func Resolve(root, p string) (string, error) {
	p = strings.TrimSpace(p)
	if p == "" {
		return "", perr.InvalidArgf("path is required")
	}
	if root == "" {
		return "", perr.FailedPreconditionf("path input disabled")
	}
	if !filepath.IsLocal(p) {
		return "", perr.InvalidArgf("path %q must stay inside %s", p, root)
	}
	return filepath.Join(root, p), nil
}
