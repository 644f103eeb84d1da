// Package merge coalesces candidates whose line ranges overlap or touch.
package merge

import (
	"sort"
	"strings"

	"github.com/vvka-141/sqlscan/pkg/sqlscan"
)

// Boundary separates constituent statements in a merged candidate's text.
const Boundary = "\n-- merged --\n"

// Ranges returns cands sorted by start line with overlapping or adjacent
// ranges merged. Ties keep detection order. Exact duplicates (same range and
// text) are dropped first. The input slice is not modified.
func Ranges(cands []sqlscan.Candidate) []sqlscan.Candidate {
	if len(cands) == 0 {
		return nil
	}

	sorted := Dedupe(cands)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].StartLine < sorted[j].StartLine
	})

	out := make([]sqlscan.Candidate, 0, len(sorted))
	cur := normalize(sorted[0])
	for _, next := range sorted[1:] {
		next = normalize(next)
		if !cur.Touches(next) {
			out = append(out, cur)
			cur = next
			continue
		}
		cur = join(cur, next)
	}
	return append(out, cur)
}

// Dedupe drops candidates identical in range and text to an earlier one.
func Dedupe(cands []sqlscan.Candidate) []sqlscan.Candidate {
	type key struct {
		start, end int
		text       string
	}
	seen := make(map[key]struct{}, len(cands))
	out := make([]sqlscan.Candidate, 0, len(cands))
	for _, c := range cands {
		k := key{c.StartLine, c.EndLine, c.Text}
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, c)
	}
	return out
}

func normalize(c sqlscan.Candidate) sqlscan.Candidate {
	if len(c.Statements) == 0 {
		c.Statements = []string{c.Text}
	} else {
		c.Statements = append([]string(nil), c.Statements...)
	}
	return c
}

// join keeps cur's origin and disposition.
func join(cur, next sqlscan.Candidate) sqlscan.Candidate {
	if next.EndLine > cur.EndLine {
		cur.EndLine = next.EndLine
	}
	cur.Statements = append(cur.Statements, next.Statements...)
	cur.Text = strings.Join(cur.Statements, Boundary)
	return cur
}
