package workspace

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/mitchellh/go-ps"

	"github.com/oshokin/gitea-spk/internal/logger"
)

// ErrWorkspaceBusy indicates that another run holds the workspace marker.
var ErrWorkspaceBusy = errors.New("workspace is used by another gitea-spk run")

const markerFileMode os.FileMode = 0o644

// Marker is a PID file that keeps two runs from staging into the same workspace.
type Marker struct {
	// path is the marker file location.
	path string
	// processName is the executable name a live owner must have.
	processName string
	// held is set once Acquire succeeded.
	held bool
}

// MarkerOption configures a Marker.
type MarkerOption func(*Marker)

// WithProcessName overrides the executable name expected from a live owner.
// By default the name of the current process is used.
func WithProcessName(name string) MarkerOption {
	return func(m *Marker) {
		m.processName = name
	}
}

// NewMarker creates a marker at path.
func NewMarker(path string, opts ...MarkerOption) *Marker {
	m := &Marker{
		path: filepath.Clean(path),
	}

	for _, opt := range opts {
		opt(m)
	}

	return m
}

// Acquire writes the current PID to the marker. A marker left by a process
// that is no longer running, or whose PID now belongs to another program, is
// treated as stale and replaced.
func (m *Marker) Acquire(ctx context.Context) error {
	contents, err := os.ReadFile(m.path)

	switch {
	case err == nil:
		owner, parseErr := strconv.Atoi(strings.TrimSpace(string(contents)))
		if parseErr == nil && owner != os.Getpid() && m.isOwnerAlive(ctx, owner) {
			return fmt.Errorf("%w (pid %d, marker %s)", ErrWorkspaceBusy, owner, m.path)
		}

		logger.InfoKV(ctx, "Replacing stale workspace marker", "path", m.path)
	case errors.Is(err, os.ErrNotExist):
	default:
		return fmt.Errorf("read workspace marker: %w", err)
	}

	if err = os.WriteFile(m.path, []byte(strconv.Itoa(os.Getpid())+"\n"), markerFileMode); err != nil {
		return fmt.Errorf("write workspace marker: %w", err)
	}

	m.held = true

	return nil
}

// Release removes the marker if this process holds it.
func (m *Marker) Release(ctx context.Context) {
	if !m.held {
		return
	}

	if err := os.Remove(m.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		logger.WarnKV(ctx, "Unable to remove workspace marker", "path", m.path, "error", err)
	}

	m.held = false
}

// isOwnerAlive reports whether pid is a running process with the expected executable name.
func (m *Marker) isOwnerAlive(ctx context.Context, pid int) bool {
	process, err := ps.FindProcess(pid)
	if err != nil {
		logger.DebugKV(ctx, "Unable to inspect marker owner", "pid", pid, "error", err)
		return false
	}

	if process == nil {
		return false
	}

	return process.Executable() == m.expectedProcessName()
}

func (m *Marker) expectedProcessName() string {
	if m.processName != "" {
		return m.processName
	}

	if self, err := ps.FindProcess(os.Getpid()); err == nil && self != nil {
		m.processName = self.Executable()
	}

	return m.processName
}
