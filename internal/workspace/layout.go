package workspace

import (
	"path/filepath"
	"strings"
)

const (
	// ArchDescriptorName is the platform to package arch descriptor.
	ArchDescriptorName = "arch.desc"
	// PackageDirName holds the application payload archived into package.tgz.
	PackageDirName = "1_create_package"
	// ProjectDirName holds INFO and the other files archived into the .spk.
	ProjectDirName = "2_create_project"
	// AppName is both the application directory and the binary link name.
	AppName = "gitea"
	// MetadataName is the package metadata file.
	MetadataName = "INFO"
	// TemplateSuffix marks pristine templates that are never shipped.
	TemplateSuffix = ".in"
	// IntermediateArchiveName is the payload archive nested in the .spk.
	IntermediateArchiveName = "package.tgz"
	// PackageExtension is the Synology package file extension.
	PackageExtension = ".spk"
	// MarkerName is the marker file held while a run uses the workspace.
	MarkerName = ".gitea-spk.pid"
)

// Layout resolves workspace paths.
type Layout struct {
	// root is the absolute workspace directory.
	root string
}

// New returns the layout rooted at dir. Relative paths are made absolute so
// that symlinks created in the workspace stay valid.
func New(dir string) Layout {
	root, err := filepath.Abs(dir)
	if err != nil {
		root = filepath.Clean(dir)
	}

	return Layout{root: root}
}

// Root returns the workspace directory.
func (l Layout) Root() string {
	return l.root
}

// ArchDescriptor returns the path of arch.desc.
func (l Layout) ArchDescriptor() string {
	return filepath.Join(l.root, ArchDescriptorName)
}

// PackageDir returns the directory archived into package.tgz.
func (l Layout) PackageDir() string {
	return filepath.Join(l.root, PackageDirName)
}

// AppDir returns the application directory inside PackageDir.
func (l Layout) AppDir() string {
	return filepath.Join(l.PackageDir(), AppName)
}

// BinaryLink returns the symlink that points at the staged binary.
func (l Layout) BinaryLink() string {
	return filepath.Join(l.AppDir(), AppName)
}

// ProjectDir returns the directory archived into the .spk.
func (l Layout) ProjectDir() string {
	return filepath.Join(l.root, ProjectDirName)
}

// Metadata returns the INFO file.
func (l Layout) Metadata() string {
	return filepath.Join(l.ProjectDir(), MetadataName)
}

// MetadataTemplate returns the pristine INFO.in file.
func (l Layout) MetadataTemplate() string {
	return l.Metadata() + TemplateSuffix
}

// IntermediateArchive returns the package.tgz written into ProjectDir.
func (l Layout) IntermediateArchive() string {
	return filepath.Join(l.ProjectDir(), IntermediateArchiveName)
}

// CachedBinary returns where a downloaded release binary is kept.
func (l Layout) CachedBinary(fileName string) string {
	return filepath.Join(l.root, fileName)
}

// Marker returns the path of the run marker.
func (l Layout) Marker() string {
	return filepath.Join(l.root, MarkerName)
}

// IsTemplate reports whether name is a pristine template file.
func IsTemplate(name string) bool {
	return strings.HasSuffix(name, TemplateSuffix)
}
