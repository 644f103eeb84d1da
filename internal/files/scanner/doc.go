// Package scanner discovers Java source files for a scan.
//
// The scanner walks a directory tree through filesystem.FileSystemProvider,
// selects files with "**"-aware include and exclude globs, prunes excluded
// directories without descending into them, and returns the files sorted by
// relative path so that scan output is deterministic.
package scanner
