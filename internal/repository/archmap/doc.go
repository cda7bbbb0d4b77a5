// Package archmap loads the arch.desc descriptor that maps Gitea platforms to
// Synology package archs.
//
// The FileRepository reads the descriptor from the workspace and returns an
// arch.Mapping. Callers load it once per run and pass it on.
package archmap
