package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/oshokin/gitea-spk/internal/logger"
	"github.com/oshokin/gitea-spk/internal/service/packager"
	"github.com/oshokin/gitea-spk/internal/version"
)

var (
	// configPath to the configuration YAML file.
	configPath string
	// workspaceDir overrides the configured workspace.
	workspaceDir string
	// archName is the Synology package arch to build for.
	archName string
	// platform is the Gitea platform to build for.
	platform string
	// directory receives the packages.
	directory string
	// force rebuilds existing packages.
	force bool
	// logLevel is the minimum level of printed log entries.
	logLevel string

	// rootCmd represents the base command for building packages.
	rootCmd = &cobra.Command{
		Use:   "gitea-spk [binary...]",
		Short: "Build Synology packages from Gitea binaries.",
		Long: `Builds Synology .spk packages for Gitea.

Given local Gitea binaries, packages each of them for the platform encoded in
its file name. Without binaries, downloads the latest Gitea release for the
requested platform or arch. When neither is given, the arch of the Synology
box the command runs on is used.

The workspace must contain arch.desc and 2_create_project/INFO.in.`,
		Args:              cobra.ArbitraryArgs,
		SilenceUsage:      true,
		PersistentPreRunE: applyLogLevel,
		RunE: func(_ *cobra.Command, args []string) error {
			// Setup graceful shutdown handling.
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			options := &packager.Options{
				ConfigPath:   configPath,
				WorkspaceDir: workspaceDir,
				Binaries:     args,
				Arch:         archName,
				Platform:     platform,
				Directory:    directory,
				Force:        force,
			}

			return packager.Run(ctx, options)
		},
	}
)

// Execute runs the gitea-spk CLI and exits with non-zero status on error.
func Execute() {
	version.AttachCobraVersionCommand(rootCmd)
	rootCmd.AddCommand(newConfigCommand())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// applyLogLevel sets the global logger level from the --log-level flag.
func applyLogLevel(_ *cobra.Command, _ []string) error {
	level, ok := logger.ParseLogLevel(logLevel)
	if !ok {
		return fmt.Errorf("unknown log level %q", logLevel)
	}

	logger.SetLevel(level)

	return nil
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	// Setup command flags with consistent naming and descriptions.
	flags := rootCmd.Flags()
	flags.StringVarP(&archName, "arch", "a", "", "Synology package arch to build for (default: arch of this host)")
	flags.StringVarP(&platform, "platform", "p", "", "Gitea platform to build for, e.g. amd64 or arm-7")
	flags.StringVarP(&directory, "directory", "d", "", "directory receiving the packages (default: workspace)")
	flags.BoolVarP(&force, "force", "f", false, "rebuild packages that already exist")
	flags.StringVarP(&workspaceDir, "workspace", "w", "", "workspace holding arch.desc and the staging directories")

	rootCmd.MarkFlagsMutuallyExclusive("arch", "platform")

	persistent := rootCmd.PersistentFlags()
	persistent.StringVarP(&configPath, "config", "c", "", "path to configuration file")
	persistent.StringVar(&logLevel, "log-level", "info", "log level: debug, info, warn or error")
}
