// Package archive writes gzip-compressed tar archives of a directory tree.
//
// Entries are stored relative to the archived directory, in lexical order.
// Symbolic links are either stored as links or replaced by the content they
// point to, and an exclusion predicate keeps files such as pristine
// templates out of the archive.
package archive
