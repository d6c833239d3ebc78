package version

import "fmt"

// Build information. Populated at build time via -ldflags.
var (
	// Version is the semantic version of the build
	Version = "0.1.0"
	// Commit is the git commit of the build
	Commit = "dev"
)

// Info describes the build
type Info struct {
	Version string
	Commit  string
}

// Current returns the build info
func Current() Info {
	return Info{
		Version: Version,
		Commit:  Commit,
	}
}

// String returns the version in "version (commit)" form
func (v Info) String() string {
	return fmt.Sprintf("%s (%s)", v.Version, v.Commit)
}
