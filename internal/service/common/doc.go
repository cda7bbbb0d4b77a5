// Package common holds helpers shared by several services.
//
// It provides a small HTTP client wrapper with per-call timeouts and a
// User-Agent header for the GitHub endpoints, and the host system-info query
// used to detect the Synology package arch.
//
//nolint:revive,nolintlint // Package name "common" is intentional for shared helpers.
package common
