// Package version holds build information, set with -ldflags
// "-X floorplan-georef/internal/version.Version=...".
package version

var (
	// Version is the release version
	Version = "0.1.0"

	// BuildTime is the UTC build time
	BuildTime = "unknown"

	// GitCommit is the source commit
	GitCommit = "unknown"
)
