// Package workspace describes the on-disk layout used to stage packages.
//
// A workspace holds the arch.desc descriptor, the download cache, the
// application directory whose symlink points at the binary being packaged
// (1_create_package) and the project directory with the INFO template
// (2_create_project). Marker guards a workspace against concurrent runs.
package workspace
