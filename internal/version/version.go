// Package version reports the build identity of vyconsole.
package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
	"time"
)

// Set at build time:
//
//	go build -ldflags="-X github.com/vyconsole/vyconsole/internal/version.Version=v0.3.0 \
//	                   -X github.com/vyconsole/vyconsole/internal/version.Commit=abc123"
//
// Unset values are filled from the module's VCS stamp, then from "dev".
var (
	Version = ""
	Commit  = ""
)

// BuildTime is the commit time recorded by the Go toolchain, if any.
var BuildTime time.Time

func init() {
	if Version == "" || Commit == "" {
		fromBuildInfo(debug.ReadBuildInfo())
	}
	if Version == "" {
		Version = "dev"
	}
	if Commit == "" {
		Commit = "unknown"
	}
}

func fromBuildInfo(info *debug.BuildInfo, ok bool) {
	if !ok {
		return
	}

	var revision string
	var dirty bool
	for _, s := range info.Settings {
		switch s.Key {
		case "vcs.revision":
			revision = s.Value
		case "vcs.modified":
			dirty = s.Value == "true"
		case "vcs.time":
			if t, err := time.Parse(time.RFC3339, s.Value); err == nil {
				BuildTime = t
			}
		}
	}

	if Version == "" && info.Main.Version != "" && info.Main.Version != "(devel)" {
		Version = info.Main.Version
	}
	if Version == "" && !BuildTime.IsZero() {
		Version = "dev-" + BuildTime.UTC().Format("20060102")
	}
	if Commit == "" && revision != "" {
		Commit = shortRevision(revision)
		if dirty {
			Commit += "-dirty"
		}
	}
}

func shortRevision(rev string) string {
	if len(rev) > 7 {
		return rev[:7]
	}
	return rev
}

// Info is the version report printed by "vyconsole version".
type Info struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildTime string `json:"build_time,omitempty"`
	GoVersion string `json:"go_version"`
	Platform  string `json:"platform"`
}

// Get returns the current build's Info.
func Get() Info {
	i := Info{
		Version:   Version,
		Commit:    Commit,
		GoVersion: runtime.Version(),
		Platform:  runtime.GOOS + "/" + runtime.GOARCH,
	}
	if !BuildTime.IsZero() {
		i.BuildTime = BuildTime.UTC().Format(time.RFC3339)
	}
	return i
}

// Full returns "version (commit: c)".
func Full() string {
	return fmt.Sprintf("%s (commit: %s)", Version, Commit)
}

// UserAgent is the User-Agent header sent to the router API.
func UserAgent() string {
	return fmt.Sprintf("vyconsole/%s (%s)", Version, runtime.GOOS)
}
