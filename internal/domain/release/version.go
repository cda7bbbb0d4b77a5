package release

import (
	"errors"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/oshokin/gitea-spk/internal/spkerr"
)

// TagPrefix precedes the version number in Gitea release tags.
const TagPrefix = "v"

var (
	// versionPattern captures MAJOR.MINOR.PATCH and an optional release candidate suffix.
	versionPattern = regexp.MustCompile(`([0-9]+\.[0-9]+\.[0-9]+(-rc[0-9]+)?)`)

	errNoVersion = errors.New("could not determine version")
)

// Version identifies a Gitea release.
type Version struct {
	// Tag is the release tag, e.g. "v1.21.0-rc1".
	Tag string
	// Number is Tag without the leading "v", e.g. "1.21.0-rc1".
	Number string
	// Beta is set for release candidates.
	Beta bool
}

// ParseVersion extracts the version from a Gitea binary file name.
func ParseVersion(binary string) (Version, error) {
	match := versionPattern.FindStringSubmatch(filepath.Base(binary))
	if match == nil {
		return Version{}, spkerr.Newf(spkerr.KindParse, "parse version", "%w: %q", errNoVersion, binary)
	}

	return Version{
		Tag:    TagPrefix + match[1],
		Number: match[1],
		Beta:   match[2] != "",
	}, nil
}

// FromTag builds the Version of a published release tag. Tags fetched as
// "latest" are never release candidates, so Beta is always false.
func FromTag(tag string) Version {
	return Version{
		Tag:    tag,
		Number: strings.TrimPrefix(tag, TagPrefix),
	}
}

// BetaFlag renders Beta the way Synology INFO files expect it.
func (v Version) BetaFlag() string {
	if v.Beta {
		return "yes"
	}

	return "no"
}

// String returns the version number.
func (v Version) String() string {
	return v.Number
}
