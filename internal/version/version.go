// Package version holds the build information stamped in with -ldflags.
package version

import "fmt"

var (
	// Version is the current application version
	Version = "dev"
	// GitSHA is the git commit SHA
	GitSHA = "unknown"
	// BuildTime is the build timestamp
	BuildTime = "unknown"
)

// String formats the build information for the given program name.
func String(program string) string {
	return fmt.Sprintf("%s %s (commit %s, built %s)", program, Version, GitSHA, BuildTime)
}
