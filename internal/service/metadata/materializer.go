package metadata

import (
	"context"
	"errors"
	"fmt"
	"os"
	"regexp"

	releasedomain "github.com/oshokin/gitea-spk/internal/domain/release"
	"github.com/oshokin/gitea-spk/internal/logger"
	"github.com/oshokin/gitea-spk/internal/spkerr"
	"github.com/oshokin/gitea-spk/internal/workspace"
)

// Fields substituted in the INFO file.
const (
	KeyVersion   = "version"
	KeyArch      = "arch"
	KeyBeta      = "beta"
	KeyChangelog = "changelog"
)

const metadataFileMode os.FileMode = 0o644

// fieldPatterns holds the compiled key="..." pattern of every substituted field.
var fieldPatterns = map[string]*regexp.Regexp{
	KeyVersion:   fieldPattern(KeyVersion),
	KeyArch:      fieldPattern(KeyArch),
	KeyBeta:      fieldPattern(KeyBeta),
	KeyChangelog: fieldPattern(KeyChangelog),
}

func fieldPattern(key string) *regexp.Regexp {
	return regexp.MustCompile(regexp.QuoteMeta(key) + `=".*?"`)
}

// Materializer writes INFO files into a workspace.
type Materializer struct {
	// layout locates INFO and INFO.in.
	layout workspace.Layout
}

// New creates a Materializer for the given workspace.
func New(layout workspace.Layout) *Materializer {
	return &Materializer{layout: layout}
}

// Write resets INFO from INFO.in and fills in the release fields.
// Keys missing from the template are left out with a warning.
func (m *Materializer) Write(ctx context.Context, version releasedomain.Version, arch, changelog string) error {
	template, err := os.ReadFile(m.layout.MetadataTemplate())
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return spkerr.New(spkerr.KindConfiguration, "write metadata", err)
		}

		return fmt.Errorf("read metadata template: %w", err)
	}

	contents := string(template)
	fields := []struct {
		key   string
		value string
	}{
		{KeyVersion, version.Number},
		{KeyArch, arch},
		{KeyBeta, version.BetaFlag()},
		{KeyChangelog, changelog},
	}

	for _, field := range fields {
		var found bool

		contents, found = Substitute(contents, field.key, field.value)
		if !found {
			logger.WarnKV(ctx, "Metadata template has no field", "key", field.key, "template", m.layout.MetadataTemplate())
		}
	}

	if err = os.WriteFile(m.layout.Metadata(), []byte(contents), metadataFileMode); err != nil {
		return fmt.Errorf("write metadata: %w", err)
	}

	logger.DebugKV(ctx, "Metadata written", "path", m.layout.Metadata(), "version", version.Number, "arch", arch)

	return nil
}

// Substitute replaces every key="..." occurrence in contents with key="value".
// It reports whether any occurrence was found.
func Substitute(contents, key, value string) (string, bool) {
	pattern, ok := fieldPatterns[key]
	if !ok {
		pattern = fieldPattern(key)
	}

	if !pattern.MatchString(contents) {
		return contents, false
	}

	return pattern.ReplaceAllLiteralString(contents, key+`="`+value+`"`), true
}
