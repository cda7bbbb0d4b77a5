package archive

import (
	"archive/tar"
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"slices"

	"github.com/klauspost/compress/gzip"
)

const (
	archiveFileMode os.FileMode = 0o644

	// executeBits grants execution to owner, group and other.
	executeBits int64 = 0o111
)

// Options controls how a tree is archived.
type Options struct {
	// Dereference stores the target of every symbolic link instead of the link.
	Dereference bool
	// Exclude skips entries (and, for directories, their contents) for which it returns true.
	// It receives the slash-separated path relative to the archived directory.
	Exclude func(name string) bool
	// Executable marks regular files that are stored with execute permission
	// for owner, group and other whatever their mode on disk.
	Executable func(name string) bool
}

// tarWriter walks a tree into an open tar stream.
type tarWriter struct {
	// tw is the tar stream being written.
	tw *tar.Writer
	// opts holds the archiving options.
	opts Options
	// skip is the absolute path of the archive itself, never added to its own contents.
	skip string
}

// WriteTarGz archives the contents of srcDir into dst. The directory itself
// is not stored, only its children. dst is removed if archiving fails.
func WriteTarGz(ctx context.Context, dst, srcDir string, opts Options) (err error) {
	info, err := os.Stat(srcDir)
	if err != nil {
		return fmt.Errorf("stat %s: %w", srcDir, err)
	}

	if !info.IsDir() {
		return fmt.Errorf("archive %s: %w", srcDir, fs.ErrInvalid)
	}

	absDst, err := filepath.Abs(dst)
	if err != nil {
		return fmt.Errorf("resolve %s: %w", dst, err)
	}

	out, err := os.OpenFile(absDst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, archiveFileMode)
	if err != nil {
		return fmt.Errorf("create %s: %w", dst, err)
	}

	defer func() {
		if closeErr := out.Close(); err == nil && closeErr != nil {
			err = fmt.Errorf("close %s: %w", dst, closeErr)
		}

		if err != nil {
			_ = os.Remove(absDst)
		}
	}()

	gz := gzip.NewWriter(out)
	w := &tarWriter{
		tw:   tar.NewWriter(gz),
		opts: opts,
		skip: absDst,
	}

	if err = w.addChildren(ctx, srcDir, ""); err != nil {
		return err
	}

	if err = w.tw.Close(); err != nil {
		return fmt.Errorf("finish tar stream: %w", err)
	}

	if err = gz.Close(); err != nil {
		return fmt.Errorf("finish gzip stream: %w", err)
	}

	return nil
}

// addChildren adds the entries of dir under the archive prefix name.
func (w *tarWriter) addChildren(ctx context.Context, dir, name string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("read directory %s: %w", dir, err)
	}

	children := make([]string, 0, len(entries))
	for _, entry := range entries {
		children = append(children, entry.Name())
	}

	slices.Sort(children)

	for _, child := range children {
		if err = w.add(ctx, filepath.Join(dir, child), path.Join(name, child)); err != nil {
			return err
		}
	}

	return nil
}

// add writes a single file system object and, for directories, its contents.
func (w *tarWriter) add(ctx context.Context, fsPath, name string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if abs, err := filepath.Abs(fsPath); err == nil && abs == w.skip {
		return nil
	}

	if w.opts.Exclude != nil && w.opts.Exclude(name) {
		return nil
	}

	info, err := os.Lstat(fsPath)
	if err != nil {
		return fmt.Errorf("stat %s: %w", fsPath, err)
	}

	var link string

	if info.Mode()&os.ModeSymlink != 0 {
		if w.opts.Dereference {
			info, err = os.Stat(fsPath)
			if err != nil {
				return fmt.Errorf("dereference %s: %w", fsPath, err)
			}
		} else if link, err = os.Readlink(fsPath); err != nil {
			return fmt.Errorf("read link %s: %w", fsPath, err)
		}
	}

	header, err := tar.FileInfoHeader(info, link)
	if err != nil {
		return fmt.Errorf("header for %s: %w", fsPath, err)
	}

	header.Name = name
	if info.IsDir() {
		header.Name += "/"
	}

	if info.Mode().IsRegular() && w.opts.Executable != nil && w.opts.Executable(name) {
		header.Mode |= executeBits
	}

	if err = w.tw.WriteHeader(header); err != nil {
		return fmt.Errorf("write header %s: %w", name, err)
	}

	switch {
	case info.IsDir():
		return w.addChildren(ctx, fsPath, name)
	case info.Mode().IsRegular():
		return w.copyContents(fsPath, name)
	default:
		return nil
	}
}

func (w *tarWriter) copyContents(fsPath, name string) error {
	f, err := os.Open(fsPath)
	if err != nil {
		return fmt.Errorf("open %s: %w", fsPath, err)
	}

	defer func() {
		_ = f.Close()
	}()

	if _, err = io.Copy(w.tw, f); err != nil {
		return fmt.Errorf("write contents %s: %w", name, err)
	}

	return nil
}
