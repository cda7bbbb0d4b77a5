package archmap

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/oshokin/gitea-spk/internal/domain/arch"
	"github.com/oshokin/gitea-spk/internal/spkerr"
)

// Repository defines how the arch mapping is obtained.
type Repository interface {
	Load(ctx context.Context) (*arch.Mapping, error)
}

// FileRepository reads the arch mapping from a descriptor file on disk.
type FileRepository struct {
	// path is the filesystem location of the descriptor.
	path string
}

// ErrNotFound is returned when the descriptor file does not exist.
var ErrNotFound = errors.New("arch descriptor not found")

// NewFileRepository creates a repository that reads the descriptor at path.
func NewFileRepository(path string) *FileRepository {
	return &FileRepository{
		path: filepath.Clean(path),
	}
}

// Path returns the descriptor location.
func (r *FileRepository) Path() string {
	return r.path
}

// Load parses the descriptor.
func (r *FileRepository) Load(_ context.Context) (*arch.Mapping, error) {
	f, err := os.Open(r.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, spkerr.New(spkerr.KindConfiguration, "load arch mapping", fmt.Errorf("%s: %w", r.path, ErrNotFound))
		}

		return nil, spkerr.New(spkerr.KindConfiguration, "load arch mapping", fmt.Errorf("open %s: %w", r.path, err))
	}

	defer func() {
		_ = f.Close()
	}()

	m, err := arch.Parse(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", r.path, err)
	}

	return m, nil
}
