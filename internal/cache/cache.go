// Package cache keeps per-file extraction results between scans, keyed by
// path and validated by the raw content checksum.
package cache

import (
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/vvka-141/sqlscan/pkg/sqlscan"
)

type entry struct {
	checksum string
	result   sqlscan.FileResult
}

// Results is a bounded LRU of file results. One entry is kept per path, so
// an edited file replaces its stale result. Safe for concurrent use.
type Results struct {
	lru *lru.Cache[string, entry]
}

// New creates a cache holding up to size files. A size of zero or less
// returns nil; all methods treat a nil *Results as an always-empty cache.
func New(size int) (*Results, error) {
	if size <= 0 {
		return nil, nil
	}
	c, err := lru.New[string, entry](size)
	if err != nil {
		return nil, err
	}
	return &Results{lru: c}, nil
}

// Get returns the cached result for path when it was computed from content
// with the same checksum.
func (r *Results) Get(path, checksum string) (sqlscan.FileResult, bool) {
	if r == nil {
		return sqlscan.FileResult{}, false
	}
	e, ok := r.lru.Get(path)
	if !ok || e.checksum != checksum {
		return sqlscan.FileResult{}, false
	}
	return e.result, true
}

// Put stores the result computed from content with the given checksum.
func (r *Results) Put(path, checksum string, result sqlscan.FileResult) {
	if r == nil {
		return
	}
	r.lru.Add(path, entry{checksum: checksum, result: result})
}

// Invalidate drops the entry for path.
func (r *Results) Invalidate(path string) {
	if r == nil {
		return
	}
	r.lru.Remove(path)
}

// Len returns the number of cached files.
func (r *Results) Len() int {
	if r == nil {
		return 0
	}
	return r.lru.Len()
}
