// Package version holds cinesearch build metadata, injected at link time:
//
//	go build -ldflags "-X github.com/kailas-cloud/cinesearch/internal/version.Version=v1.2.0"
package version

//nolint:revive // Set via ldflags at build time.
var (
	Version = "dev"
	Commit  = "unknown"
	Date    = "unknown"
)
