// Package fileutil provides file operation utilities for directory and file
// management.
//
// EnsureDir creates directories recursively, CopyFile copies one file with
// its permission bits through a temp-file-then-rename, and CopyDir copies a
// whole tree. They are used to lay out server files in the target server
// location.
package fileutil
