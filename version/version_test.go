package version

import (
	"runtime/debug"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInfo_String(t *testing.T) {
	info := Info{CommitHash: "0123456789abcdef", BuildTime: "2026-01-01", Version: "v0.3.0"}
	assert.Equal(t, "0123456", info.Short())
	assert.Equal(t, "prompttask v0.3.0 (commit 0123456, built 2026-01-01)", info.String())

	info.Modified = true
	assert.Contains(t, info.String(), "commit 0123456-dirty")

	assert.Equal(t, "dev", Info{CommitHash: "dev"}.Short())
}

func TestInfo_WithBuildInfo(t *testing.T) {
	bi := &debug.BuildInfo{
		Main: debug.Module{Version: "v1.2.3"},
		Settings: []debug.BuildSetting{
			{Key: "vcs.revision", Value: "abcdef0123456"},
			{Key: "vcs.time", Value: "2026-10-01T12:00:00Z"},
			{Key: "vcs.modified", Value: "true"},
		},
	}

	got := Info{Version: "dev", CommitHash: "dev", BuildTime: "unknown"}.withBuildInfo(bi)
	assert.Equal(t, "v1.2.3", got.Version)
	assert.Equal(t, "abcdef0123456", got.CommitHash)
	assert.Equal(t, "2026-10-01T12:00:00Z", got.BuildTime)
	assert.True(t, got.Modified)

	// ldflags win over build info
	got = Info{Version: "v9.9.9", CommitHash: "feedface", BuildTime: "yesterday"}.withBuildInfo(bi)
	assert.Equal(t, "v9.9.9", got.Version)
	assert.Equal(t, "feedface", got.CommitHash)
	assert.Equal(t, "yesterday", got.BuildTime)

	// (devel) is not a version
	got = Info{Version: "dev"}.withBuildInfo(&debug.BuildInfo{Main: debug.Module{Version: "(devel)"}})
	assert.Equal(t, "dev", got.Version)
}

func TestUserAgent(t *testing.T) {
	assert.True(t, strings.HasPrefix(UserAgent(), "prompttask/"))
	assert.NotEmpty(t, Get().GoVersion)
}
