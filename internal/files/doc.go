// Package files groups source discovery into sub-packages:
//   - filesystem: filesystem abstraction (OS and in-memory)
//   - scanner: Java source discovery with include/exclude patterns
//
// # Usage
//
//	import (
//	    "github.com/vvka-141/sqlscan/internal/files/filesystem"
//	    "github.com/vvka-141/sqlscan/internal/files/scanner"
//	)
//
//	fileScanner := scanner.NewScanner(scanner.Options{})
//	result, err := fileScanner.ScanDirectory("./src")
package files
