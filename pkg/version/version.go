// Package version reports the build identity of lanscan.
package version

import (
	"fmt"
	"runtime"
)

// These variables are set via ldflags during build
//
//nolint:gochecknoglobals // These are intentionally global for ldflags injection
var (
	version = "dev"
	buildID = "dev"
)

// Info is the build identity printed by `lanscan version`.
type Info struct {
	Version   string `json:"version"`
	BuildID   string `json:"build_id"`
	GoVersion string `json:"go_version"`
	Platform  string `json:"platform"`
}

// Get returns the build identity of the running binary.
func Get() Info {
	return Info{
		Version:   version,
		BuildID:   buildID,
		GoVersion: runtime.Version(),
		Platform:  runtime.GOOS + "/" + runtime.GOARCH,
	}
}

func (i Info) String() string {
	return fmt.Sprintf("lanscan %s (build: %s, %s %s)", i.Version, i.BuildID, i.GoVersion, i.Platform)
}

// GetFullVersion returns version with build ID
func GetFullVersion() string {
	return version + " (build: " + buildID + ")"
}
