// Package config defines the packaging settings and provides helpers to load,
// validate and save them in YAML format.
//
// The Config type holds the workspace location, the output directory, the
// GitHub endpoints used to locate and download Gitea releases, and the
// download behaviour switches. Every field has a default, so the settings
// file is optional.
package config
