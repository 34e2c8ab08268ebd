// Package version reports what build is serving
package version

import "runtime/debug"

// BuildInfo is served by /meta/version
type BuildInfo struct {
	Service string `json:"service"`
	Version string `json:"version"`
	Commit  string `json:"commit"`
	Date    string `json:"date"`
}

// set with -ldflags "-X contractlens/internal/core/version.version=v0.3.0 -X ...commit=... -X ...date=..."
var (
	version = "dev"
	commit  = ""
	date    = "unknown"
)

// Info returns the linked values, falling back to the VCS stamp go build records
func Info() BuildInfo {
	c := commit
	if c == "" {
		c = "none"
		if bi, ok := debug.ReadBuildInfo(); ok {
			for _, s := range bi.Settings {
				if s.Key == "vcs.revision" && s.Value != "" {
					c = s.Value
				}
			}
		}
	}
	return BuildInfo{Service: "contractlens-api", Version: version, Commit: c, Date: date}
}
