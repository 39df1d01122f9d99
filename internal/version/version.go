// Package version carries build metadata injected with -ldflags.
package version

import (
	"flag"
	"fmt"
	"runtime"
)

var (
	Version   = "develop"
	GitCommit = ""
	BuildDate = ""
)

type BuildInfo struct {
	Version   string `json:"version,omitempty"`
	GitCommit string `json:"gitCommit,omitempty"`
	BuildDate string `json:"buildDate,omitempty"`
	GoVersion string `json:"goVersion,omitempty"`
}

func Get() BuildInfo {
	v := BuildInfo{
		Version:   Version,
		GitCommit: GitCommit,
		BuildDate: BuildDate,
		GoVersion: runtime.Version(),
	}

	if flag.Lookup("test.v") != nil {
		v.GoVersion = ""
	}
	return v
}

// UserAgent identifies wapay in outgoing requests and report metadata.
func (b BuildInfo) UserAgent() string {
	if b.GitCommit == "" {
		return fmt.Sprintf("wapay/%s", b.Version)
	}
	commit := b.GitCommit
	if len(commit) > 7 {
		commit = commit[:7]
	}
	return fmt.Sprintf("wapay/%s (%s)", b.Version, commit)
}
