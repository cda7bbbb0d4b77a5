package assembler

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"

	"github.com/oshokin/gitea-spk/internal/archive"
	releasedomain "github.com/oshokin/gitea-spk/internal/domain/release"
	"github.com/oshokin/gitea-spk/internal/logger"
	"github.com/oshokin/gitea-spk/internal/spkerr"
	"github.com/oshokin/gitea-spk/internal/workspace"
)

const directoryMode os.FileMode = 0o755

var (
	errUnmappedPlatform = errors.New("no release file name for platform")
	errBinaryMissing    = errors.New("binary does not exist")
)

// fileNameSuffixes maps a platform to the OS and platform part of release file names.
var fileNameSuffixes = map[string]string{
	"amd64": "linux-amd64",
	"arm-5": "linux-arm-5",
	"arm-7": "linux-arm-7",
	"arm64": "linux-arm64",
}

// Outcome tells what Create did with the package.
type Outcome int

const (
	// OutcomeSkipped means the package already existed and was left alone.
	OutcomeSkipped Outcome = iota
	// OutcomeRebuilt means an existing package was replaced.
	OutcomeRebuilt
	// OutcomeCreated means a new package was written.
	OutcomeCreated
)

// String returns the string representation of Outcome.
func (o Outcome) String() string {
	switch o {
	case OutcomeSkipped:
		return "skipped"
	case OutcomeRebuilt:
		return "rebuilt"
	case OutcomeCreated:
		return "created"
	default:
		return "unknown"
	}
}

// Request describes one package to build.
type Request struct {
	// Version is the Gitea release being packaged.
	Version releasedomain.Version
	// Arch is the space-separated Synology arch list written to INFO.
	Arch string
	// Platform selects the release binary.
	Platform string
	// Changelog is written to INFO.
	Changelog string
	// Force rebuilds a package that already exists.
	Force bool
	// Directory receives the .spk file. Defaults to the workspace root.
	Directory string
	// Binary is a local binary to package. Empty means download the release.
	Binary string
}

// Result reports the outcome of Create.
type Result struct {
	// Outcome tells whether the package was skipped, rebuilt or created.
	Outcome Outcome
	// Path is the .spk file.
	Path string
}

// Fetcher downloads a release file unless it is already cached.
type Fetcher interface {
	Fetch(ctx context.Context, url, dest string) (bool, error)
}

// MetadataWriter renders the INFO file.
type MetadataWriter interface {
	Write(ctx context.Context, version releasedomain.Version, arch, changelog string) error
}

// Assembler builds packages in one workspace.
type Assembler struct {
	// layout locates the workspace directories.
	layout workspace.Layout
	// fetcher downloads release binaries.
	fetcher Fetcher
	// metadata renders INFO.
	metadata MetadataWriter
	// downloadURL is the base URL of release files.
	downloadURL string
}

// New creates an Assembler.
func New(layout workspace.Layout, fetcher Fetcher, metadata MetadataWriter, downloadURL string) *Assembler {
	return &Assembler{
		layout:      layout,
		fetcher:     fetcher,
		metadata:    metadata,
		downloadURL: downloadURL,
	}
}

// FileName returns the release file name of version for platform.
func FileName(version releasedomain.Version, platform string) (string, error) {
	suffix, ok := fileNameSuffixes[platform]
	if !ok {
		return "", spkerr.Newf(spkerr.KindConfiguration, "file name", "%w %q", errUnmappedPlatform, platform)
	}

	return fmt.Sprintf("gitea-%s-%s", version.Number, suffix), nil
}

// Create builds the package described by req.
func (a *Assembler) Create(ctx context.Context, req *Request) (*Result, error) {
	fileName, err := FileName(req.Version, req.Platform)
	if err != nil {
		return nil, err
	}

	directory := req.Directory
	if directory == "" {
		directory = a.layout.Root()
	}

	result := &Result{
		Outcome: OutcomeCreated,
		Path:    filepath.Join(directory, fileName+workspace.PackageExtension),
	}

	ctx = logger.WithKV(ctx, "package", result.Path)

	if _, err = os.Stat(result.Path); err == nil {
		if !req.Force {
			logger.Info(ctx, "Package already exists, skipping")

			result.Outcome = OutcomeSkipped

			return result, nil
		}

		result.Outcome = OutcomeRebuilt
	}

	logger.InfoKV(ctx, "Creating package", "version", req.Version.Number, "platform", req.Platform, "arch", req.Arch)

	binary, err := a.binary(ctx, req, fileName)
	if err != nil {
		return nil, err
	}

	if err = a.metadata.Write(ctx, req.Version, req.Arch, req.Changelog); err != nil {
		return nil, err
	}

	if err = a.linkBinary(binary); err != nil {
		return nil, err
	}

	if err = os.MkdirAll(directory, directoryMode); err != nil {
		return nil, fmt.Errorf("create output directory: %w", err)
	}

	if err = a.archive(ctx, result.Path); err != nil {
		return nil, err
	}

	logger.InfoKV(ctx, "Package ready", "outcome", result.Outcome)

	return result, nil
}

// binary returns the absolute path of the binary to package,
// downloading the release file when no local binary was given.
func (a *Assembler) binary(ctx context.Context, req *Request, fileName string) (string, error) {
	if req.Binary != "" {
		binary, err := filepath.Abs(req.Binary)
		if err != nil {
			return "", fmt.Errorf("resolve binary: %w", err)
		}

		if _, err = os.Stat(binary); err != nil {
			return "", spkerr.Newf(spkerr.KindValidation, "binary", "%w: %s", errBinaryMissing, req.Binary)
		}

		return binary, nil
	}

	url := fmt.Sprintf("%s/%s/%s", a.downloadURL, req.Version.Tag, fileName)
	dest := a.layout.CachedBinary(fileName)

	if _, err := a.fetcher.Fetch(ctx, url, dest); err != nil {
		return "", err
	}

	return dest, nil
}

// linkBinary points 1_create_package/gitea at binary.
func (a *Assembler) linkBinary(binary string) error {
	link := a.layout.BinaryLink()

	if err := os.MkdirAll(filepath.Dir(link), directoryMode); err != nil {
		return fmt.Errorf("create application directory: %w", err)
	}

	if err := os.Remove(link); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove previous link: %w", err)
	}

	if err := os.Symlink(binary, link); err != nil {
		return fmt.Errorf("link binary: %w", err)
	}

	return nil
}

// isPayloadBinary matches the binary link inside package.tgz.
func isPayloadBinary(name string) bool {
	return name == path.Join(workspace.AppName, workspace.AppName)
}

// archive writes package.tgz and then the .spk at packagePath.
func (a *Assembler) archive(ctx context.Context, packagePath string) error {
	intermediate := a.layout.IntermediateArchive()

	err := archive.WriteTarGz(ctx, intermediate, a.layout.PackageDir(), archive.Options{
		Dereference: true,
		Executable:  isPayloadBinary,
	})
	if err != nil {
		return fmt.Errorf("archive package payload: %w", err)
	}

	defer func() {
		if removeErr := os.Remove(intermediate); removeErr != nil && !errors.Is(removeErr, os.ErrNotExist) {
			logger.WarnKV(ctx, "Failed to remove intermediate archive", "path", intermediate, "error", removeErr)
		}
	}()

	err = archive.WriteTarGz(ctx, packagePath, a.layout.ProjectDir(), archive.Options{Exclude: workspace.IsTemplate})
	if err != nil {
		return fmt.Errorf("archive package: %w", err)
	}

	return nil
}
