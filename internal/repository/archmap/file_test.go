package archmap

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/oshokin/gitea-spk/internal/spkerr"
)

// TestFileRepository_NotFound verifies Load returns ErrNotFound for a missing descriptor.
func TestFileRepository_NotFound(t *testing.T) {
	t.Parallel()

	repo := NewFileRepository(filepath.Join(t.TempDir(), "arch.desc"))

	m, err := repo.Load(context.Background())
	require.ErrorIs(t, err, ErrNotFound)
	require.True(t, spkerr.Is(err, spkerr.KindConfiguration))
	require.Nil(t, m)
}

// TestFileRepository_Load parses a descriptor from disk.
func TestFileRepository_Load(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "arch.desc")
	require.NoError(t, os.WriteFile(path, []byte("# comment\namd64 x86_64 geminilake\narm64 rtd1296\n"), 0o600))

	repo := NewFileRepository(path)
	require.Equal(t, path, repo.Path())

	m, err := repo.Load(context.Background())
	require.NoError(t, err)
	require.Equal(t, []string{"amd64", "arm64"}, m.ValidPlatforms())
}

// TestFileRepository_Malformed surfaces parse errors with the descriptor path.
func TestFileRepository_Malformed(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "arch.desc")
	require.NoError(t, os.WriteFile(path, []byte("amd64\n"), 0o600))

	_, err := NewFileRepository(path).Load(context.Background())
	require.True(t, spkerr.Is(err, spkerr.KindConfiguration))
	require.Contains(t, err.Error(), path)
}
