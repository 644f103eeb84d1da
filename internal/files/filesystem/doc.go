// Package filesystem provides filesystem abstraction interfaces and implementations.
//
// Key interfaces:
//   - FileSystemProvider: opens directories, reads and stats files
//   - Directory: a directory that can be walked in lexical order
//   - File: an entry met during a walk
//
// Implementations:
//   - OSFileSystem: production implementation using the OS filesystem
//   - MemoryFileSystem: in-memory implementation for tests
package filesystem
