// Package assembler builds a single .spk package in a workspace.
//
// A package is assembled from the Gitea binary linked into 1_create_package,
// archived into 2_create_project/package.tgz, and the project directory
// archived into the final .spk. Existing packages are kept unless a rebuild
// is forced.
package assembler
