package arch

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/oshokin/gitea-spk/internal/spkerr"
)

// CommentPrefix starts a comment line in the descriptor.
const CommentPrefix = "#"

var (
	errEmptyMapping      = errors.New("descriptor declares no platforms")
	errMissingArchs      = errors.New("platform has no package archs")
	errDuplicatePlatform = errors.New("platform declared twice")
	errDuplicateArch     = errors.New("package arch declared under two platforms")
	errInvalidArch       = errors.New("invalid package arch")
	errUnknownArch       = errors.New("unknown package arch")
	errUnknownPlatform   = errors.New("unknown platform")
)

// platformArchs is one descriptor line.
type platformArchs struct {
	// platform is the Gitea platform name, e.g. "arm-7".
	platform string
	// archs holds the Synology package archs in descriptor order.
	archs []string
	// joined is archs separated by single spaces, the value written to INFO.
	joined string
}

// Mapping relates Gitea platforms to Synology package archs.
type Mapping struct {
	// entries keeps descriptor order, which decides ambiguous arch lookups.
	entries []platformArchs
	// byPlatform indexes entries by platform name.
	byPlatform map[string]int
	// shortestArch is the length of the shortest arch token.
	shortestArch int
}

// Parse reads a descriptor where every non-comment line is a platform name
// followed by its whitespace-separated package archs.
func Parse(r io.Reader) (*Mapping, error) {
	m := &Mapping{
		byPlatform: make(map[string]int),
	}

	seenArchs := make(map[string]string)
	scanner := bufio.NewScanner(r)
	lineNumber := 0

	for scanner.Scan() {
		lineNumber++

		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, CommentPrefix) {
			continue
		}

		fields := strings.Fields(line)
		platform, archs := fields[0], fields[1:]

		if len(archs) == 0 {
			return nil, descriptorError(lineNumber, platform, errMissingArchs)
		}

		if _, ok := m.byPlatform[platform]; ok {
			return nil, descriptorError(lineNumber, platform, errDuplicatePlatform)
		}

		for _, a := range archs {
			if owner, ok := seenArchs[a]; ok {
				return nil, descriptorError(lineNumber, a, fmt.Errorf("%w (%s)", errDuplicateArch, owner))
			}

			seenArchs[a] = platform

			if m.shortestArch == 0 || len(a) < m.shortestArch {
				m.shortestArch = len(a)
			}
		}

		m.byPlatform[platform] = len(m.entries)
		m.entries = append(m.entries, platformArchs{
			platform: platform,
			archs:    archs,
			joined:   strings.Join(archs, " "),
		})
	}

	if err := scanner.Err(); err != nil {
		return nil, spkerr.New(spkerr.KindConfiguration, "read arch descriptor", err)
	}

	if len(m.entries) == 0 {
		return nil, spkerr.New(spkerr.KindConfiguration, "read arch descriptor", errEmptyMapping)
	}

	return m, nil
}

// PlatformForArch returns the first platform, in descriptor order, whose arch
// list contains arch as a substring. A compound value such as the full list
// returned by ArchForPlatform therefore resolves as well.
func (m *Mapping) PlatformForArch(arch string) (string, error) {
	// Inputs shorter than every real arch would match inside longer tokens.
	if len(arch) < m.shortestArch {
		return "", spkerr.Newf(spkerr.KindValidation, "resolve platform",
			"%w %q. Valid archs are: %s", errInvalidArch, arch, strings.Join(m.ValidArchs(), ", "))
	}

	for _, e := range m.entries {
		if strings.Contains(e.joined, arch) {
			return e.platform, nil
		}
	}

	return "", spkerr.Newf(spkerr.KindResolution, "resolve platform",
		"%w %q. Valid archs are: %s", errUnknownArch, arch, strings.Join(m.ValidArchs(), ", "))
}

// ArchForPlatform returns the space-separated package archs of platform.
func (m *Mapping) ArchForPlatform(platform string) (string, error) {
	i, ok := m.byPlatform[platform]
	if !ok {
		return "", spkerr.Newf(spkerr.KindResolution, "resolve arch",
			"%w %q. Valid platforms are: %s", errUnknownPlatform, platform, strings.Join(m.ValidPlatforms(), ", "))
	}

	return m.entries[i].joined, nil
}

// ValidPlatforms returns the sorted platform names.
func (m *Mapping) ValidPlatforms() []string {
	platforms := make([]string, 0, len(m.entries))
	for _, e := range m.entries {
		platforms = append(platforms, e.platform)
	}

	slices.Sort(platforms)

	return platforms
}

// ValidArchs returns every package arch, sorted.
func (m *Mapping) ValidArchs() []string {
	var archs []string
	for _, e := range m.entries {
		archs = append(archs, e.archs...)
	}

	slices.Sort(archs)

	return archs
}

func descriptorError(line int, subject string, err error) error {
	return spkerr.Newf(spkerr.KindConfiguration, "read arch descriptor", "line %d: %q: %w", line, subject, err)
}
