package module

import "contractlens/internal/platform/config"

// Options holds configuration settings for the indexer module
type Options struct {
	SourceRoot string
}

// FromConfig extracts Options from the given config.Conf
func FromConfig(cfg config.Conf) Options {
	ix := cfg.Prefix("CORE_INDEX_")
	return Options{
		SourceRoot: ix.MayString("SOURCE_ROOT", ""),
	}
}
