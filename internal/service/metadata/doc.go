// Package metadata renders the Synology INFO file from its INFO.in template.
package metadata
