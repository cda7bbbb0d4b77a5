package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the settings shared by every packaging run.
type Config struct {
	// WorkspaceDir contains arch.desc, the staging directories and the download cache.
	WorkspaceDir string `yaml:"workspace_dir"`
	// OutputDir is where .spk files are written. Defaults to WorkspaceDir.
	OutputDir string `yaml:"output_dir"`
	// ReleasesAPI is the GitHub releases API endpoint of the Gitea repository.
	ReleasesAPI string `yaml:"releases_api"`
	// DownloadURL is the base URL release binaries are downloaded from.
	DownloadURL string `yaml:"download_url"`
	// Timeout bounds each releases API call. Binary downloads are not bounded.
	Timeout time.Duration `yaml:"timeout"`
	// UserAgent is sent with every HTTP request.
	UserAgent string `yaml:"user_agent"`
	// VerifyChecksum enables verification against the published .sha256 file.
	VerifyChecksum bool `yaml:"verify_checksum"`
	// CompressedDownload fetches the .xz variant of the binary and decompresses it locally.
	CompressedDownload bool `yaml:"compressed_download"`
	// Progress shows a progress bar while downloading when stderr is a terminal.
	Progress bool `yaml:"progress"`
}

const (
	// DefaultConfigFilename is the filename written by "config init".
	DefaultConfigFilename = "gitea-spk.yaml"

	// DefaultWorkspaceDir is the workspace used when none is configured.
	DefaultWorkspaceDir = "."

	// DefaultReleasesAPI is the GitHub releases endpoint of go-gitea/gitea.
	DefaultReleasesAPI = "https://api.github.com/repos/go-gitea/gitea/releases"

	// DefaultDownloadURL is the base URL of Gitea release assets.
	DefaultDownloadURL = "https://github.com/go-gitea/gitea/releases/download"

	// DefaultTimeout is the default duration for releases API calls.
	DefaultTimeout = 30 * time.Second

	// DefaultFilePermissions is the default file permission for config files.
	DefaultFilePermissions = 0o600
)

var (
	// errConfigIsNotSet is returned when a nil configuration is provided.
	errConfigIsNotSet = errors.New("configuration is not set")
	// errInvalidURL is returned when an endpoint is not an absolute http(s) URL.
	errInvalidURL = errors.New("must be an absolute http or https URL")
)

// Default returns the settings used when no file is provided.
func Default() *Config {
	return &Config{
		WorkspaceDir:   DefaultWorkspaceDir,
		ReleasesAPI:    DefaultReleasesAPI,
		DownloadURL:    DefaultDownloadURL,
		Timeout:        DefaultTimeout,
		VerifyChecksum: true,
		Progress:       true,
	}
}

// Load reads configuration from the provided path and validates it.
// An empty path yields Default().
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, Validate(cfg)
	}

	contents, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("read settings: %w", err)
	}

	if err = yaml.Unmarshal(contents, cfg); err != nil {
		return nil, fmt.Errorf("unmarshal settings: %w", err)
	}

	if err = Validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Save writes cfg to the provided path.
func Save(path string, cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	if path == "" {
		path = DefaultConfigFilename
	}

	if err := Validate(cfg); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}

	if err = os.WriteFile(filepath.Clean(path), data, DefaultFilePermissions); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}

	return nil
}

// Validate fills defaults for unset fields and checks the endpoints.
func Validate(cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	if cfg.WorkspaceDir == "" {
		cfg.WorkspaceDir = DefaultWorkspaceDir
	}

	if cfg.ReleasesAPI == "" {
		cfg.ReleasesAPI = DefaultReleasesAPI
	}

	if cfg.DownloadURL == "" {
		cfg.DownloadURL = DefaultDownloadURL
	}

	// Set default timeout if not specified
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}

	cfg.ReleasesAPI = strings.TrimRight(cfg.ReleasesAPI, "/")
	cfg.DownloadURL = strings.TrimRight(cfg.DownloadURL, "/")

	if err := validateEndpoint(cfg.ReleasesAPI); err != nil {
		return fmt.Errorf("invalid releases API: %w", err)
	}

	if err := validateEndpoint(cfg.DownloadURL); err != nil {
		return fmt.Errorf("invalid download URL: %w", err)
	}

	return nil
}

// ResolvedOutputDir returns OutputDir, falling back to WorkspaceDir.
func (c *Config) ResolvedOutputDir() string {
	if c.OutputDir != "" {
		return c.OutputDir
	}

	return c.WorkspaceDir
}

func validateEndpoint(raw string) error {
	u, err := url.ParseRequestURI(raw)
	if err != nil {
		return err
	}

	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%q %w", raw, errInvalidURL)
	}

	return nil
}
