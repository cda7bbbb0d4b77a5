package arch

import (
	"errors"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/oshokin/gitea-spk/internal/spkerr"
)

var (
	// hostArchPattern captures the arch from the uname line of a DiskStation,
	// e.g. "... GNU/Linux synology_geminilake_920+".
	hostArchPattern = regexp.MustCompile(`synology_(.*)_.*$`)

	// binaryPlatformPattern captures the platform from <name>-<ver>[-rcN]-<os>-<platform>.
	binaryPlatformPattern = regexp.MustCompile(`^.*?-.*?(?:-rc[0-9]+)?-.*?-(.*)$`)

	errNoHostArch       = errors.New("could not determine package arch from system info")
	errNoPlatformInName = errors.New("could not determine platform")
)

// PackageArchFromHost extracts the Synology package arch from system info
// as printed by "uname -a" on a DiskStation.
func PackageArchFromHost(systemInfo string) (string, error) {
	info := strings.TrimSpace(systemInfo)

	match := hostArchPattern.FindStringSubmatch(info)
	if match == nil {
		return "", spkerr.Newf(spkerr.KindResolution, "detect package arch",
			"%w: %q. Use --arch or --platform to choose the Synology package arch or Gitea platform",
			errNoHostArch, info)
	}

	return match[1], nil
}

// PlatformForBinaryName returns the platform encoded in a Gitea binary file
// name, e.g. "arm-7" for "gitea-1.21.0-rc1-linux-arm-7".
func PlatformForBinaryName(name string) (string, error) {
	base := filepath.Base(name)

	match := binaryPlatformPattern.FindStringSubmatch(base)
	if match == nil || match[1] == "" {
		return "", spkerr.Newf(spkerr.KindResolution, "resolve platform", "%w: %q", errNoPlatformInName, name)
	}

	return match[1], nil
}
