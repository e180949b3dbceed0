// Package version records build metadata injected at link time:
//
//	go build -ldflags "\
//	  -X github.com/aerolab/winddaq/internal/version.Version=$(git describe --tags) \
//	  -X github.com/aerolab/winddaq/internal/version.Commit=$(git rev-parse --short HEAD) \
//	  -X github.com/aerolab/winddaq/internal/version.BuildTime=$(date -u +%Y-%m-%dT%H:%M:%SZ)"
package version

import "fmt"

var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

// String formats the full build identity for startup logs.
func String() string {
	return fmt.Sprintf("%s (%s, built %s)", Version, Commit, BuildTime)
}
