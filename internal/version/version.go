// Package version reports the build version of the tools
package version

import (
	"fmt"
	"runtime"
)

// Build and Commit are set at link time:
// -ldflags "-X github.com/effective-security/xpgp/internal/version.Build=..."
var (
	Build  = "v0.0.0"
	Commit = "dev"
)

// Info describes the build
type Info struct {
	Build   string `json:"build"`
	Commit  string `json:"commit"`
	Runtime string `json:"runtime"`
}

// Current returns the build info
func Current() Info {
	return Info{
		Build:   Build,
		Commit:  Commit,
		Runtime: runtime.Version(),
	}
}

// String returns the build version
func (i Info) String() string {
	return fmt.Sprintf("%s (%s, %s)", i.Build, i.Commit, i.Runtime)
}
