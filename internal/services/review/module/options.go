package module

import (
	"time"

	"contractlens/internal/core/analyze"
	"contractlens/internal/core/segment"
	"contractlens/internal/platform/config"
)

// Options holds configuration settings for the review module
type Options struct {
	Mode         string
	TopK         int
	DocumentRoot string
	ExportRoot   string
	KeepRuns     int
	Migrate      bool
	Stats        bool

	LLMTimeout time.Duration
	MaxTokens  int
}

// FromConfig extracts Options from the given config.Conf
func FromConfig(cfg config.Conf) Options {
	rv := cfg.Prefix("CORE_REVIEW_")
	llm := cfg.Prefix("CORE_LLM_")
	return Options{
		Mode:         rv.MayEnum("MODE", string(segment.ModeNumbered), string(segment.ModeNumbered), string(segment.ModeSentence)),
		TopK:         rv.MayInt("TOP_K", 4),
		DocumentRoot: rv.MayString("DOCUMENT_ROOT", ""),
		ExportRoot:   rv.MayString("EXPORT_ROOT", ""),
		KeepRuns:     rv.MayInt("KEEP_RUNS", 0),
		Migrate:      rv.MayBool("MIGRATE", false),
		Stats:        rv.MayBool("STATS", true),
		LLMTimeout:   llm.MayDuration("TIMEOUT", analyze.DefaultTimeout),
		MaxTokens:    llm.MayInt("MAX_TOKENS", analyze.DefaultMaxTokens),
	}
}
