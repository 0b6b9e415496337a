// Package version carries build metadata.
package version

// Version is the application version, set at build time:
// go build -ldflags "-X git.home.luguber.info/inful/layoutstate/internal/version.Version=v0.3.0".
var Version = "unknown"

// Build metadata.
var (
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// String renders the version with its build metadata.
func String() string {
	return Version + " (" + GitCommit + ", built " + BuildTime + ")"
}
