package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/oshokin/gitea-spk/internal/config"
	"github.com/oshokin/gitea-spk/internal/logger"
)

var errSettingsExist = errors.New("settings file already exists")

// newConfigCommand returns the "config" command group.
func newConfigCommand() *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Manage the settings file.",
		Args:  cobra.NoArgs,
	}

	var overwrite bool

	initCmd := &cobra.Command{
		Use:   "init [path]",
		Short: "Write a settings file with the default values.",
		Long: fmt.Sprintf(`Writes the default settings to path (default %s).

An existing file is kept unless --overwrite is given.`, config.DefaultConfigFilename),
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := config.DefaultConfigFilename
			if len(args) > 0 {
				path = args[0]
			}

			if _, err := os.Stat(path); err == nil && !overwrite {
				return fmt.Errorf("%s: %w", path, errSettingsExist)
			}

			if err := config.Save(path, config.Default()); err != nil {
				return err
			}

			logger.InfoKV(cmd.Context(), "Settings written", "path", path)

			return nil
		},
	}

	initCmd.Flags().BoolVar(&overwrite, "overwrite", false, "replace an existing settings file")
	configCmd.AddCommand(initCmd)

	return configCmd
}
