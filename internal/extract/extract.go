// Package extract is the per-file extraction driver: lex, split into scopes,
// track each scope with fresh state, merge the file's candidates and render
// the source paragraphs they cover.
package extract

import (
	"context"
	"fmt"
	"strings"

	"github.com/vvka-141/sqlscan/internal/checksum"
	"github.com/vvka-141/sqlscan/internal/flow"
	"github.com/vvka-141/sqlscan/internal/heuristic"
	"github.com/vvka-141/sqlscan/internal/lexer"
	"github.com/vvka-141/sqlscan/internal/merge"
	"github.com/vvka-141/sqlscan/internal/rules"
	"github.com/vvka-141/sqlscan/pkg/sqlscan"
)

// Options configures an Extractor. Zero values select the defaults.
type Options struct {
	Rules        *rules.Table
	Classifier   *heuristic.Classifier
	PlainTypes   []string
	BuilderTypes []string
	Lexer        lexer.Lexer
	Checksum     checksum.Calculator
}

// Extractor implements sqlscan.Extractor. It holds only immutable
// configuration and is safe for concurrent use.
type Extractor struct {
	lexer    lexer.Lexer
	tracker  *flow.Tracker
	checksum checksum.Calculator
}

var _ sqlscan.Extractor = (*Extractor)(nil)

// New creates an Extractor from opts.
func New(opts Options) *Extractor {
	if opts.Lexer == nil {
		opts.Lexer = lexer.New()
	}
	if opts.Checksum == nil {
		opts.Checksum = checksum.New()
	}
	return &Extractor{
		lexer: opts.Lexer,
		tracker: flow.NewTracker(flow.Options{
			Rules:        opts.Rules,
			Classifier:   opts.Classifier,
			PlainTypes:   opts.PlainTypes,
			BuilderTypes: opts.BuilderTypes,
		}),
		checksum: opts.Checksum,
	}
}

// Extract analyzes the complete source of one file. Candidates come back
// merged and ordered by start line.
func (e *Extractor) Extract(ctx context.Context, path string, src []byte) (sqlscan.FileResult, error) {
	result := sqlscan.FileResult{
		Path:     path,
		Checksum: e.checksum.CalculateRaw(src),
	}

	tokens, err := e.lexer.Tokenize(string(src))
	if err != nil {
		return result, fmt.Errorf("%s: %w", path, err)
	}

	var cands []sqlscan.Candidate
	for _, scope := range flow.SplitScopes(lexer.Significant(tokens)) {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		cands = append(cands, e.tracker.Run(scope).Candidates...)
	}

	result.Candidates = merge.Ranges(cands)
	result.Paragraphs = e.paragraphs(src, result.Candidates)
	return result, nil
}

// paragraphs renders the source lines of each merged range. Ranges whose
// source text normalizes identically are reported once, with the statement
// lists combined.
func (e *Extractor) paragraphs(src []byte, cands []sqlscan.Candidate) []sqlscan.Paragraph {
	if len(cands) == 0 {
		return nil
	}

	lines := strings.Split(strings.ReplaceAll(string(src), "\r\n", "\n"), "\n")
	seen := make(map[string]int, len(cands))
	out := make([]sqlscan.Paragraph, 0, len(cands))

	for _, c := range cands {
		start := max(c.StartLine, 1)
		end := min(c.EndLine, len(lines))
		if start > end {
			continue
		}
		content := strings.Join(lines[start-1:end], "\n")

		key := e.checksum.CalculateNormalized([]byte(content))
		if idx, dup := seen[key]; dup {
			out[idx].Statements = appendUnique(out[idx].Statements, c.Statements...)
			continue
		}
		seen[key] = len(out)
		out = append(out, sqlscan.Paragraph{
			LineStart:  start,
			LineEnd:    end,
			Content:    content,
			Statements: appendUnique(nil, c.Statements...),
		})
	}
	return out
}

func appendUnique(dst []string, values ...string) []string {
	for _, v := range values {
		found := false
		for _, d := range dst {
			if d == v {
				found = true
				break
			}
		}
		if !found {
			dst = append(dst, v)
		}
	}
	return dst
}
