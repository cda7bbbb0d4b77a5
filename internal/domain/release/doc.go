// Package release contains the Gitea release version type.
//
// A Version is built either from a binary file name such as
// "gitea-1.21.0-rc1-linux-amd64" or from a release tag returned by the
// GitHub API.
package release
