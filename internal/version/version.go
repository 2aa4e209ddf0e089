// Package version carries build information for the crew binary.
//
// Values are injected at build time via -ldflags, for example:
//
//	go build -ldflags "-X github.com/soyeahso/crew/internal/version.Commit=$(git rev-parse --short HEAD)"
package version

import (
	"fmt"
	"runtime"
)

// Set via -ldflags at build time.
var (
	// Version is the semantic version, set manually for releases.
	Version = "0.1.0-dev"

	// Commit is the short git SHA of the build.
	Commit = "unknown"

	// Date is the UTC timestamp of the build.
	Date = "unknown"
)

// Info returns a one-line version string for --version output.
func Info() string {
	return fmt.Sprintf("crew %s (%s, %s, %s)", Version, Commit, Date, runtime.Version())
}
