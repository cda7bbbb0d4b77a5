package packager

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/oshokin/gitea-spk/internal/config"
	"github.com/oshokin/gitea-spk/internal/domain/arch"
	releasedomain "github.com/oshokin/gitea-spk/internal/domain/release"
	"github.com/oshokin/gitea-spk/internal/logger"
	"github.com/oshokin/gitea-spk/internal/repository/archmap"
	"github.com/oshokin/gitea-spk/internal/service/assembler"
	"github.com/oshokin/gitea-spk/internal/service/common"
	"github.com/oshokin/gitea-spk/internal/service/download"
	"github.com/oshokin/gitea-spk/internal/service/metadata"
	"github.com/oshokin/gitea-spk/internal/service/release"
	"github.com/oshokin/gitea-spk/internal/spkerr"
	"github.com/oshokin/gitea-spk/internal/workspace"
)

var (
	errArchAndPlatform = errors.New("arch and platform are mutually exclusive")
	errBinaryMissing   = errors.New("binary does not exist")
)

// Options contains inputs for the packager entry point.
type Options struct {
	// ConfigPath is an optional settings file. Empty uses gitea-spk.yaml when present.
	ConfigPath string
	// WorkspaceDir overrides the configured workspace directory.
	WorkspaceDir string
	// Binaries are local Gitea binaries to package. Empty means package the latest release.
	Binaries []string
	// Arch is the Synology package arch to build for. Defaults to the host arch.
	Arch string
	// Platform is the Gitea platform to build for.
	Platform string
	// Directory overrides the configured output directory.
	Directory string
	// Force rebuilds packages that already exist.
	Force bool
	// SystemInfo overrides the host query used to detect the arch.
	SystemInfo common.SystemInfoFunc
}

// packager holds everything a run needs once settings and the descriptor are loaded.
// It is unexported; callers should use Run.
type packager struct {
	// opts are the caller's inputs.
	opts *Options
	// cfg holds the effective settings.
	cfg *config.Config
	// mapping is the parsed arch descriptor.
	mapping *arch.Mapping
	// locator queries the releases API.
	locator *release.Locator
	// assembler builds the packages.
	assembler *assembler.Assembler
	// systemInfo queries the host.
	systemInfo common.SystemInfoFunc
}

// Run executes the packaging workflow.
func Run(ctx context.Context, opts *Options) error {
	// Set context with logger name for tracking.
	ctx = logger.WithName(ctx, "packager")

	if opts.Arch != "" && opts.Platform != "" {
		return spkerr.New(spkerr.KindValidation, "options", errArchAndPlatform)
	}

	cfg, err := loadConfig(opts)
	if err != nil {
		return err
	}

	layout := workspace.New(cfg.WorkspaceDir)
	marker := workspace.NewMarker(layout.Marker())

	if err = marker.Acquire(ctx); err != nil {
		return err
	}

	defer marker.Release(ctx)

	pkg, err := newPackager(ctx, opts, cfg, layout, archmap.NewFileRepository(layout.ArchDescriptor()))
	if err != nil {
		return err
	}

	if err = pkg.run(ctx); err != nil {
		logger.ErrorKV(ctx, "Packaging failed", "error", err)
		return err
	}

	logger.Info(ctx, "Packaging completed")

	return nil
}

// loadConfig reads the settings and applies the command line overrides.
func loadConfig(opts *Options) (*config.Config, error) {
	path := opts.ConfigPath
	if path == "" {
		if _, err := os.Stat(config.DefaultConfigFilename); err == nil {
			path = config.DefaultConfigFilename
		}
	}

	cfg, err := config.Load(path)
	if err != nil {
		return nil, spkerr.New(spkerr.KindConfiguration, "load settings", err)
	}

	if opts.WorkspaceDir != "" {
		cfg.WorkspaceDir = opts.WorkspaceDir
	}

	if opts.Directory != "" {
		cfg.OutputDir = opts.Directory
	}

	return cfg, nil
}

// newPackager loads the arch mapping and wires the services.
func newPackager(
	ctx context.Context,
	opts *Options,
	cfg *config.Config,
	layout workspace.Layout,
	mappings archmap.Repository,
) (*packager, error) {
	mapping, err := mappings.Load(ctx)
	if err != nil {
		return nil, err
	}

	client := common.NewClient(
		common.WithCallTimeout(cfg.Timeout),
		common.WithUserAgent(cfg.UserAgent),
	)

	downloader := download.New(
		client,
		download.WithChecksum(cfg.VerifyChecksum),
		download.WithCompression(cfg.CompressedDownload),
		download.WithProgress(cfg.Progress),
	)

	systemInfo := opts.SystemInfo
	if systemInfo == nil {
		systemInfo = common.DetectSystemInfo
	}

	return &packager{
		opts:       opts,
		cfg:        cfg,
		mapping:    mapping,
		locator:    release.NewLocator(client, cfg.ReleasesAPI),
		assembler:  assembler.New(layout, downloader, metadata.New(layout), cfg.DownloadURL),
		systemInfo: systemInfo,
	}, nil
}

// run dispatches on the packaging mode.
func (p *packager) run(ctx context.Context) error {
	switch {
	case len(p.opts.Binaries) > 0:
		return p.packageBinaries(ctx)
	case p.opts.Platform != "":
		return p.packagePlatform(ctx, p.opts.Platform)
	default:
		return p.packageArch(ctx)
	}
}

// packageBinaries packages each local binary under its own platform and version.
func (p *packager) packageBinaries(ctx context.Context) error {
	logger.Infof(ctx, "Packaging %d local binaries", len(p.opts.Binaries))

	for _, binary := range p.opts.Binaries {
		if _, err := os.Stat(binary); err != nil {
			return spkerr.Newf(spkerr.KindValidation, "binary", "%w: %s", errBinaryMissing, binary)
		}

		platform, err := arch.PlatformForBinaryName(binary)
		if err != nil {
			return err
		}

		archList, err := p.mapping.ArchForPlatform(platform)
		if err != nil {
			return err
		}

		version, err := releasedomain.ParseVersion(binary)
		if err != nil {
			return err
		}

		changelog, err := p.locator.Changelog(ctx, version)
		if err != nil {
			return err
		}

		err = p.create(ctx, &assembler.Request{
			Version:   version,
			Arch:      archList,
			Platform:  platform,
			Changelog: changelog,
			Binary:    binary,
		})
		if err != nil {
			return err
		}
	}

	return nil
}

// packagePlatform packages the latest release for platform.
func (p *packager) packagePlatform(ctx context.Context, platform string) error {
	archList, err := p.mapping.ArchForPlatform(platform)
	if err != nil {
		return err
	}

	version, changelog, err := p.locator.Latest(ctx)
	if err != nil {
		return err
	}

	return p.create(ctx, &assembler.Request{
		Version:   version,
		Arch:      archList,
		Platform:  platform,
		Changelog: changelog,
	})
}

// packageArch packages the latest release for the requested or detected arch.
func (p *packager) packageArch(ctx context.Context) error {
	archName := p.opts.Arch
	if archName == "" {
		detected, err := p.hostArch(ctx)
		if err != nil {
			return err
		}

		archName = detected
	}

	platform, err := p.mapping.PlatformForArch(archName)
	if err != nil {
		return err
	}

	logger.InfoKV(ctx, "Resolved platform", "arch", archName, "platform", platform)

	return p.packagePlatform(ctx, platform)
}

// hostArch reads the package arch of the Synology host this runs on.
func (p *packager) hostArch(ctx context.Context) (string, error) {
	info, err := p.systemInfo(ctx)
	if err != nil {
		return "", spkerr.New(spkerr.KindResolution, "host arch", err)
	}

	archName, err := arch.PackageArchFromHost(info)
	if err != nil {
		return "", err
	}

	logger.InfoKV(ctx, "Detected host arch", "arch", archName)

	return archName, nil
}

// create fills in the run-wide request fields and builds one package.
func (p *packager) create(ctx context.Context, req *assembler.Request) error {
	req.Force = p.opts.Force
	req.Directory = p.cfg.ResolvedOutputDir()

	result, err := p.assembler.Create(ctx, req)
	if err != nil {
		return fmt.Errorf("package %s for %s: %w", req.Version.Number, req.Platform, err)
	}

	logger.InfoKV(ctx, "Package "+result.Outcome.String(), "path", result.Path)

	return nil
}
