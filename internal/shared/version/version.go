// Package version reports build metadata injected via -ldflags.
package version

import (
	"strings"

	"golang.org/x/mod/semver"
)

// Set with -ldflags "-X github.com/opensox/paygate/internal/shared/version.Version=v1.2.3 ...".
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

type Info struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildTime string `json:"build_time"`
	Release   bool   `json:"release"`
}

func Get() Info {
	v := Normalize(Version)
	return Info{
		Version:   Version,
		Commit:    Commit,
		BuildTime: BuildTime,
		Release:   semver.IsValid(v) && semver.Prerelease(v) == "",
	}
}

// Normalize ensures version string has "v" prefix for semver compatibility.
// Examples: "1.2.3" -> "v1.2.3", "v1.2.3" -> "v1.2.3"
func Normalize(version string) string {
	version = strings.TrimSpace(version)
	if version == "" {
		return ""
	}
	if !strings.HasPrefix(version, "v") {
		return "v" + version
	}
	return version
}
