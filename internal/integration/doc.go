// Package integration holds end-to-end tests that run the packager against a
// fake GitHub release server and the default workspace shipped in spk/.
package integration
