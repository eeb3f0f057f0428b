// Package version holds the release-helper binary version information.
// It is a separate package with no dependencies so it can be imported
// from anywhere without cycles.
package version

var (
	// Version information - set via ldflags during build
	Version   = "dev"
	Commit    = "unknown"
	BuildDate = "unknown"
)

// IsDevBuild returns true if running a development build (not a release).
func IsDevBuild() bool {
	return Version == "dev"
}
