// Package version reports the deskpilot build version.
package version

import (
	_ "embed"
	"fmt"
	"runtime"
	"strings"
)

//go:embed VERSION
var versionContent string

// Commit is the source revision, set at build time with
// -ldflags "-X github.com/ShayCichocki/deskpilot/internal/version.Commit=<sha>".
var Commit = ""

// Get returns the current version, with whitespace trimmed
func Get() string {
	return strings.TrimSpace(versionContent)
}

// String returns the version line printed by "deskpilot version".
func String() string {
	v := Get()
	if Commit != "" {
		v += " (" + Commit + ")"
	}
	return fmt.Sprintf("deskpilot version %s %s/%s", v, runtime.GOOS, runtime.GOARCH)
}
