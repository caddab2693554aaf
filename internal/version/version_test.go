package version

import (
	"runtime/debug"
	"strings"
	"testing"
	"time"
)

func TestFromBuildInfo(t *testing.T) {
	Version, Commit, BuildTime = "", "", time.Time{}
	t.Cleanup(func() { Version, Commit, BuildTime = "dev", "unknown", time.Time{} })

	fromBuildInfo(&debug.BuildInfo{
		Main: debug.Module{Version: "(devel)"},
		Settings: []debug.BuildSetting{
			{Key: "vcs.revision", Value: "0123456789abcdef"},
			{Key: "vcs.modified", Value: "true"},
			{Key: "vcs.time", Value: "2026-03-01T12:00:00Z"},
		},
	}, true)

	if Commit != "0123456-dirty" {
		t.Errorf("Commit = %q", Commit)
	}
	if Version != "dev-20260301" {
		t.Errorf("Version = %q", Version)
	}
	if got := Get().BuildTime; got != "2026-03-01T12:00:00Z" {
		t.Errorf("BuildTime = %q", got)
	}
}

func TestFromBuildInfo_ModuleVersion(t *testing.T) {
	Version, Commit = "", ""
	t.Cleanup(func() { Version, Commit = "dev", "unknown" })

	fromBuildInfo(&debug.BuildInfo{Main: debug.Module{Version: "v0.3.0"}}, true)
	if Version != "v0.3.0" {
		t.Errorf("Version = %q", Version)
	}
	if Commit != "" {
		t.Errorf("Commit = %q, want empty without vcs stamp", Commit)
	}
}

func TestUserAgent(t *testing.T) {
	if ua := UserAgent(); !strings.HasPrefix(ua, "vyconsole/"+Version) {
		t.Errorf("UserAgent() = %q", ua)
	}
}
