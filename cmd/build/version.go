// Package build holds the version the binary was built with.
package build

import (
	"strings"

	"github.com/coreos/go-semver/semver"
)

// set at build time with
// -ldflags "-X github.com/ReamLabs/ream-sub002/cmd/build.semverString=v0.1.0 -X github.com/ReamLabs/ream-sub002/cmd/build.commit=<sha>"
var (
	semverString string
	commit       string
)

const undefined = "undefined"

// Version returns the semantic version of the build, or "undefined".
func Version() string {
	if semverString == "" {
		return undefined
	}
	return semverString
}

// Commit returns the commit the build was made from, or "undefined".
func Commit() string {
	if commit == "" {
		return undefined
	}
	return commit
}

// Semver parses Version. Development builds are not versioned, so an error
// is expected for them.
func Semver() (*semver.Version, error) {
	return semver.NewVersion(strings.TrimPrefix(Version(), "v"))
}

// UserAgent identifies the node to its peers.
func UserAgent() string {
	v, err := Semver()
	if err != nil {
		return "leannode/" + undefined
	}
	return "leannode/v" + v.String()
}
