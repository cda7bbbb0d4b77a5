package metadata

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	releasedomain "github.com/oshokin/gitea-spk/internal/domain/release"
	"github.com/oshokin/gitea-spk/internal/logger"
	"github.com/oshokin/gitea-spk/internal/spkerr"
	"github.com/oshokin/gitea-spk/internal/workspace"
)

const infoTemplate = `package="gitea"
version="0.0.0"
arch="noarch"
beta="no"
changelog=""
maintainer="someone"
`

// newWorkspace creates a workspace holding the given INFO.in.
func newWorkspace(t *testing.T, contents string) workspace.Layout {
	t.Helper()

	layout := workspace.New(t.TempDir())
	require.NoError(t, os.MkdirAll(layout.ProjectDir(), 0o755))
	require.NoError(t, os.WriteFile(layout.MetadataTemplate(), []byte(contents), 0o644))

	return layout
}

// TestSubstitute replaces every occurrence and reports misses.
func TestSubstitute(t *testing.T) {
	t.Parallel()

	got, ok := Substitute(`a="1" b="2" a="3"`, "a", "x")
	require.True(t, ok)
	require.Equal(t, `a="x" b="2" a="x"`, got)

	got, ok = Substitute(`b="2"`, "a", "x")
	require.False(t, ok)
	require.Equal(t, `b="2"`, got)

	got, ok = Substitute(`changelog=""`, "changelog", `$1 \n`)
	require.True(t, ok)
	require.Equal(t, `changelog="$1 \n"`, got)
}

// TestFieldPatterns covers every INFO field written by Write.
func TestFieldPatterns(t *testing.T) {
	t.Parallel()

	for _, key := range []string{KeyVersion, KeyArch, KeyBeta, KeyChangelog} {
		pattern, ok := fieldPatterns[key]
		require.True(t, ok, key)
		require.Equal(t, key+`="x"`, pattern.FindString(`a="1" `+key+`="x" b="2"`))
	}

	got, ok := Substitute(`maintainer="a"`, "maintainer", "b")
	require.True(t, ok)
	require.Equal(t, `maintainer="b"`, got)
}

// TestMaterializer_Write fills every field and leaves the template untouched.
func TestMaterializer_Write(t *testing.T) {
	t.Parallel()

	layout := newWorkspace(t, infoTemplate)
	version, err := releasedomain.ParseVersion("gitea-1.21.0-rc1-linux-amd64")
	require.NoError(t, err)

	err = New(layout).Write(context.Background(), version, "x86_64 bromolow", "* fixes")
	require.NoError(t, err)

	data, err := os.ReadFile(layout.Metadata())
	require.NoError(t, err)
	require.Equal(t, `package="gitea"
version="1.21.0-rc1"
arch="x86_64 bromolow"
beta="yes"
changelog="* fixes"
maintainer="someone"
`, string(data))

	data, err = os.ReadFile(layout.MetadataTemplate())
	require.NoError(t, err)
	require.Equal(t, infoTemplate, string(data))
}

// TestMaterializer_Write_ResetsFromTemplate overwrites values from a previous run.
func TestMaterializer_Write_ResetsFromTemplate(t *testing.T) {
	t.Parallel()

	layout := newWorkspace(t, infoTemplate)
	m := New(layout)

	require.NoError(t, m.Write(context.Background(), releasedomain.FromTag("v1.0.0"), "armv7", "old"))
	require.NoError(t, m.Write(context.Background(), releasedomain.FromTag("v1.0.1"), "armv7", ""))

	data, err := os.ReadFile(layout.Metadata())
	require.NoError(t, err)
	require.Contains(t, string(data), `version="1.0.1"`)
	require.Contains(t, string(data), `changelog=""`)
	require.Contains(t, string(data), `beta="no"`)
}

// TestMaterializer_Write_MissingKey logs a warning instead of failing.
func TestMaterializer_Write_MissingKey(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	ctx := logger.ToContext(context.Background(), logger.NewWithWriter(&buf, zapcore.DebugLevel))
	layout := newWorkspace(t, `version="0"`+"\n")

	require.NoError(t, New(layout).Write(ctx, releasedomain.FromTag("v1.2.3"), "armv7", ""))

	data, err := os.ReadFile(layout.Metadata())
	require.NoError(t, err)
	require.Equal(t, `version="1.2.3"`+"\n", string(data))
	require.Contains(t, buf.String(), "Metadata template has no field")
	require.Contains(t, buf.String(), "changelog")
}

// TestMaterializer_Write_NoTemplate reports a ConfigurationError.
func TestMaterializer_Write_NoTemplate(t *testing.T) {
	t.Parallel()

	layout := workspace.New(filepath.Join(t.TempDir(), "missing"))

	err := New(layout).Write(context.Background(), releasedomain.FromTag("v1.2.3"), "armv7", "")
	require.True(t, spkerr.Is(err, spkerr.KindConfiguration))
}
