// Package version holds build information injected with -ldflags.
package version

//nolint:gochecknoglobals // Set at link time.
var (
	version = "dev"
	commit  = "none"
)

// GetVersion returns the release version, or "dev" for local builds.
func GetVersion() string {
	return version
}

// GetCommit returns the git commit the binary was built from.
func GetCommit() string {
	return commit
}
