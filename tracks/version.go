package tracks

import "github.com/blang/semver"

// Version is the current version of the tracks library and tools.
const Version = "1.2.0"

// VersionSemVer returns the library version in parsed form so tools can do
// semantic comparisons against it.
func VersionSemVer() semver.Version {
	return semver.MustParse(Version)
}
