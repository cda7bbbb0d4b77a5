package download

import (
	"bufio"
	"context"
	"crypto"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	goupdate "github.com/doitdistributed/go-update"
	"github.com/ulikunitz/xz"

	"github.com/oshokin/gitea-spk/internal/logger"
	"github.com/oshokin/gitea-spk/internal/service/common"
	"github.com/oshokin/gitea-spk/internal/spkerr"

	// Ensure SHA256 available for checksum verification.
	_ "crypto/sha256"
)

const (
	// ChecksumSuffix is appended to a release URL to get its checksum file.
	ChecksumSuffix = ".sha256"
	// CompressedSuffix is appended to a release URL to get its xz variant.
	CompressedSuffix = ".xz"

	// DefaultFileMode is applied to every downloaded binary.
	DefaultFileMode os.FileMode = 0o755

	// DefaultChecksumFunction matches the checksum files published with releases.
	DefaultChecksumFunction crypto.Hash = crypto.SHA256

	// executeBits grants execution to owner, group and other.
	executeBits os.FileMode = 0o111
)

var (
	// ErrNotFound is returned when the release file does not exist upstream.
	ErrNotFound = errors.New("release file not found")

	errEmptyChecksum = errors.New("checksum file is empty")
)

// Downloader fetches release files over HTTP.
type Downloader struct {
	// client performs the requests.
	client *common.Client
	// verifyChecksum enables .sha256 verification.
	verifyChecksum bool
	// compressed requests the .xz variant of every file.
	compressed bool
	// progress shows a progress bar on terminals.
	progress bool
}

// Option configures a Downloader.
type Option func(*Downloader)

// WithChecksum toggles verification against the published .sha256 file.
func WithChecksum(enabled bool) Option {
	return func(d *Downloader) {
		d.verifyChecksum = enabled
	}
}

// WithCompression toggles downloading the .xz variant.
func WithCompression(enabled bool) Option {
	return func(d *Downloader) {
		d.compressed = enabled
	}
}

// WithProgress toggles the terminal progress bar.
func WithProgress(enabled bool) Option {
	return func(d *Downloader) {
		d.progress = enabled
	}
}

// New creates a Downloader. A nil client gets the default one.
func New(client *common.Client, opts ...Option) *Downloader {
	if client == nil {
		client = common.NewClient()
	}

	d := &Downloader{client: client}

	for _, opt := range opts {
		opt(d)
	}

	return d
}

// Fetch downloads url into dest unless dest already exists.
// It reports whether a transfer took place.
func (d *Downloader) Fetch(ctx context.Context, url, dest string) (bool, error) {
	if cached(ctx, dest) {
		logger.InfoKV(ctx, "Using cached binary", "path", dest)
		return false, nil
	}

	var (
		checksum []byte
		err      error
	)

	if d.verifyChecksum {
		checksum, err = d.fetchChecksum(ctx, url)
		if err != nil {
			return false, err
		}
	}

	source := url
	if d.compressed {
		source += CompressedSuffix
	}

	logger.InfoKV(ctx, "Downloading", "url", source, "path", dest)

	resp, err := d.client.Open(ctx, source)
	if err != nil {
		removePartial(ctx, dest)
		return false, classify(source, err)
	}

	defer func() {
		_ = resp.Body.Close()
	}()

	body, finish := d.progressReader(resp.Body, resp.ContentLength)
	defer finish()

	if d.compressed {
		body, err = xz.NewReader(body)
		if err != nil {
			return false, spkerr.New(spkerr.KindNetwork, "download", fmt.Errorf("open xz stream %s: %w", source, err))
		}
	}

	if err = apply(body, dest, checksum); err != nil {
		removePartial(ctx, dest)
		return false, spkerr.New(spkerr.KindNetwork, "download", fmt.Errorf("place %s: %w", dest, err))
	}

	if err = makeExecutable(dest); err != nil {
		return false, fmt.Errorf("make executable %s: %w", dest, err)
	}

	logger.InfoKV(ctx, "Download complete", "path", dest)

	return true, nil
}

// cached reports whether dest holds a previous download. An empty file is
// the placeholder of an interrupted transfer and is discarded.
func cached(ctx context.Context, dest string) bool {
	info, err := os.Stat(dest)
	if err != nil {
		return false
	}

	if info.Size() > 0 {
		return true
	}

	logger.WarnKV(ctx, "Discarding empty cached binary", "path", dest)
	removePartial(ctx, dest)

	return false
}

// fetchChecksum downloads the .sha256 companion of url.
// A missing checksum file yields nil so the transfer proceeds unverified.
func (d *Downloader) fetchChecksum(ctx context.Context, url string) ([]byte, error) {
	source := url + ChecksumSuffix

	resp, err := d.client.Open(ctx, source)
	if err != nil {
		if code, ok := common.StatusCode(err); ok && code == http.StatusNotFound {
			logger.WarnKV(ctx, "Checksum file not published, skipping verification", "url", source)
			return nil, nil
		}

		return nil, spkerr.New(spkerr.KindNetwork, "fetch checksum", err)
	}

	defer func() {
		_ = resp.Body.Close()
	}()

	checksum, err := ParseChecksum(resp.Body)
	if err != nil {
		return nil, spkerr.New(spkerr.KindParse, "fetch checksum", fmt.Errorf("%s: %w", source, err))
	}

	return checksum, nil
}

// ParseChecksum reads a sha256sum style line and decodes its digest.
func ParseChecksum(r io.Reader) ([]byte, error) {
	scanner := bufio.NewScanner(r)
	if !scanner.Scan() {
		if err := scanner.Err(); err != nil {
			return nil, err
		}

		return nil, errEmptyChecksum
	}

	fields := strings.Fields(scanner.Text())
	if len(fields) == 0 {
		return nil, errEmptyChecksum
	}

	checksum, err := hex.DecodeString(fields[0])
	if err != nil {
		return nil, fmt.Errorf("decode checksum: %w", err)
	}

	if len(checksum) != DefaultChecksumFunction.Size() {
		return nil, fmt.Errorf("checksum has %d bytes, want %d", len(checksum), DefaultChecksumFunction.Size())
	}

	return checksum, nil
}

// apply writes the stream to dest through go-update, which verifies the
// checksum before the file is swapped in.
func apply(body io.Reader, dest string, checksum []byte) error {
	// go-update renames the current target aside, so it must exist.
	placeholder, err := os.Create(dest)
	if err != nil {
		return err
	}

	if err = placeholder.Close(); err != nil {
		return err
	}

	options := goupdate.Options{
		TargetPath: dest,
		TargetMode: DefaultFileMode,
		Checksum:   checksum,
		Hash:       DefaultChecksumFunction,
	}

	return goupdate.Apply(body, options)
}

// makeExecutable adds execute permission for owner, group and other.
func makeExecutable(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}

	return os.Chmod(path, info.Mode().Perm()|executeBits)
}

// removePartial deletes whatever a failed transfer left at path.
func removePartial(ctx context.Context, path string) {
	err := os.Remove(path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		logger.WarnKV(ctx, "Failed to remove partial download", "path", path, "error", err)
	}
}

// classify maps a failed request onto the packaging error kinds.
func classify(url string, err error) error {
	if code, ok := common.StatusCode(err); ok && code == http.StatusNotFound {
		return spkerr.New(spkerr.KindDownload, "download", fmt.Errorf("%s: %w", url, ErrNotFound))
	}

	return spkerr.New(spkerr.KindNetwork, "download", err)
}
