package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/oshokin/gitea-spk/internal/config"
)

// TestConfigInit writes the defaults once and refuses to overwrite them.
func TestConfigInit(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "settings.yaml")

	cmd := newConfigCommand()
	cmd.SetArgs([]string{"init", path})
	require.NoError(t, cmd.Execute())

	cfg, err := config.Load(path)
	require.NoError(t, err)
	require.Equal(t, config.Default(), cfg)

	cmd = newConfigCommand()
	cmd.SetArgs([]string{"init", path})
	require.ErrorIs(t, cmd.Execute(), errSettingsExist)

	require.NoError(t, os.WriteFile(path, []byte("timeout: 5s\n"), 0o600))

	cmd = newConfigCommand()
	cmd.SetArgs([]string{"init", "--overwrite", path})
	require.NoError(t, cmd.Execute())

	cfg, err = config.Load(path)
	require.NoError(t, err)
	require.Equal(t, config.DefaultTimeout, cfg.Timeout)
}
