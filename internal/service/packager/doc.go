// Package packager is the entry point that turns Gitea releases into Synology
// packages.
//
// It loads the settings and the arch descriptor, holds the workspace marker,
// works out which binaries, versions and arch lists to package, and hands each
// package to the assembler. Three modes are supported: local binaries given on
// the command line, an explicit platform, and an arch that defaults to the one
// of the host.
package packager
