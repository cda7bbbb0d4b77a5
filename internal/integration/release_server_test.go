package integration

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/ulikunitz/xz"
)

// defaultWorkspace is the workspace shipped with the repository.
const defaultWorkspace = "../../spk"

// releaseServer fakes the GitHub releases API and release downloads.
type releaseServer struct {
	// URL is the server base address.
	URL string
	// tag is returned as the latest release.
	tag string
	// binaries maps release file names to their contents.
	binaries map[string][]byte
	// downloads counts binary transfers.
	downloads atomic.Int32
}

// startReleaseServer serves tag as the latest release with the given binaries.
// Each binary is published xz compressed together with its checksum file.
func startReleaseServer(t *testing.T, tag string, binaries map[string][]byte) *releaseServer {
	t.Helper()

	rs := &releaseServer{
		tag:      tag,
		binaries: binaries,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/api/latest", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = fmt.Fprintf(w, `{"tag_name":%q,"body":"Release %s"}`, rs.tag, rs.tag)
	})
	mux.HandleFunc("/api/tags/", func(w http.ResponseWriter, r *http.Request) {
		tag := strings.TrimPrefix(r.URL.Path, "/api/tags/")
		_, _ = fmt.Fprintf(w, `{"tag_name":%q}`, tag)
	})
	mux.HandleFunc("/download/", rs.serveFile)

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	rs.URL = srv.URL

	return rs
}

func (rs *releaseServer) serveFile(w http.ResponseWriter, r *http.Request) {
	name := filepath.Base(r.URL.Path)

	switch {
	case strings.HasSuffix(name, ".sha256"):
		data, ok := rs.binaries[strings.TrimSuffix(name, ".sha256")]
		if !ok {
			http.NotFound(w, r)
			return
		}

		sum := sha256.Sum256(data)
		_, _ = fmt.Fprintf(w, "%s  %s\n", hex.EncodeToString(sum[:]), name)
	case strings.HasSuffix(name, ".xz"):
		data, ok := rs.binaries[strings.TrimSuffix(name, ".xz")]
		if !ok {
			http.NotFound(w, r)
			return
		}

		rs.downloads.Add(1)

		var buf bytes.Buffer

		xw, err := xz.NewWriter(&buf)
		if err == nil {
			_, err = xw.Write(data)
		}

		if err == nil {
			err = xw.Close()
		}

		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}

		_, _ = io.Copy(w, &buf)
	default:
		http.NotFound(w, r)
	}
}

// copyWorkspace copies the default workspace into a temporary directory.
func copyWorkspace(t *testing.T) string {
	t.Helper()

	dst := t.TempDir()

	err := filepath.WalkDir(defaultWorkspace, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		rel, err := filepath.Rel(defaultWorkspace, path)
		if err != nil {
			return err
		}

		target := filepath.Join(dst, rel)

		if d.IsDir() {
			return os.MkdirAll(target, 0o755)
		}

		info, err := d.Info()
		if err != nil {
			return err
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}

		return os.WriteFile(target, data, info.Mode().Perm())
	})
	require.NoError(t, err)

	return dst
}
