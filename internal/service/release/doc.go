// Package release locates Gitea releases through the GitHub releases API.
package release
