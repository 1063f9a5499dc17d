// Package version provides build-time version information.
package version

import "fmt"

// These variables are set at build time using -ldflags
var (
	// Version is the semantic version
	Version = "0.3.0"

	// BuildTime is the UTC time when the binary was built
	BuildTime = "unknown"

	// GitCommit is the git commit hash
	GitCommit = "unknown"
)

// String returns a one-line version banner for the named program.
func String(program string) string {
	return fmt.Sprintf("%s v%s (built %s, commit %s)", program, Version, BuildTime, GitCommit)
}
