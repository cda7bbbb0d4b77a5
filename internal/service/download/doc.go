// Package download fetches Gitea release binaries into the workspace cache.
//
// Transfers can be xz compressed and verified against the published .sha256
// file. The binary is placed atomically with go-update and made executable.
package download
