package flow

import (
	"strings"

	"github.com/vvka-141/sqlscan/internal/heuristic"
	"github.com/vvka-141/sqlscan/internal/lexer"
)

// expr is the evaluated form of a concatenation: terms joined by '+'.
// Evaluation has no side effects; commit walks the calls nested in opaque
// terms once the caller has decided what to do with the value.
type expr struct {
	frags []heuristic.Fragment
	start int // line of the first token
	end   int // line of the last token
	next  int // index of the terminator
	terms int

	direct     int            // string literal tokens used as terms
	firstName  string         // tracked variable inlined as the first term
	firstState *VariableState // its state at the time of evaluation
	walks      [][2]int
}

// singleLiteral reports whether the expression is exactly one string literal.
func (e expr) singleLiteral() bool {
	return e.terms == 1 && e.direct == 1 && len(e.frags) == 1
}

// evalExpr evaluates the concatenation starting at lo, stopping at the first
// depth-zero terminator or at hi.
func (r *run) evalExpr(lo, hi int) expr {
	e := expr{next: lo}
	if lo < hi {
		e.start = r.toks[lo].StartLine
	}

	i := lo
	for i < hi {
		end := r.termEnd(i, hi)
		if end == i {
			break
		}
		r.evalTerm(&e, i, end)
		e.terms++
		i = end
		if i < hi && isOp(r.toks[i], "+") {
			i++
			continue
		}
		break
	}

	e.next = i
	if i > lo {
		last := i - 1
		if isOp(r.toks[last], "+") && last > lo {
			last--
		}
		e.end = r.toks[last].EndLine
	} else {
		e.end = e.start
	}
	return e
}

// termEnd returns the index of the '+' or terminator that ends the term at i.
func (r *run) termEnd(i, hi int) int {
	depth := 0
	for j := i; j < hi; j++ {
		t := r.toks[j]
		switch {
		case isOpen(t):
			depth++
		case isClose(t):
			if depth == 0 {
				return j
			}
			depth--
		case depth > 0:
		case isOp(t, "+"):
			return j
		case isTerminator(t):
			return j
		}
	}
	return hi
}

func (r *run) evalTerm(e *expr, a, b int) {
	first := r.toks[a]

	switch {
	case b-a == 1 && first.Kind == lexer.StringLiteral:
		e.frags = append(e.frags, heuristic.Lit(first.Value(), first.StartLine))
		e.direct++
		return

	case first.Kind == lexer.StringLiteral && r.isStringMethodChain(a+1, b):
		e.frags = append(e.frags, heuristic.Lit(first.Value(), first.StartLine))
		e.direct++
		e.walks = append(e.walks, [2]int{a + 1, b})
		return

	case b-a == 1:
		if v, ok := literalValue(first); ok {
			e.frags = append(e.frags, heuristic.Lit(v, first.StartLine))
			return
		}

	case isPunct(first, "(") && r.matchForward(a, b) == b-1:
		sub := r.evalExpr(a+1, b-1)
		if sub.next == b-1 && sub.terms > 0 {
			if e.terms == 0 && sub.terms == 1 {
				e.firstName, e.firstState = sub.firstName, sub.firstState
			}
			e.frags = append(e.frags, sub.frags...)
			e.direct += sub.direct
			e.walks = append(e.walks, sub.walks...)
			return
		}
	}

	if name, ok := r.pathIn(a, b); ok {
		r.inline(e, name, name, first.StartLine)
		return
	}
	if name, ok := r.toStringCall(a, b); ok {
		r.inline(e, name, name+".toString()", first.StartLine)
		return
	}

	e.frags = append(e.frags, heuristic.Opaque(compact(r.toks[a:b]), first.StartLine))
	walkFrom := a
	if first.Kind == lexer.StringLiteral {
		walkFrom = a + 1
	}
	e.walks = append(e.walks, [2]int{walkFrom, b})
}

// inline copies a tracked variable's fragments, or adds a placeholder when
// the name is untracked or holds nothing yet.
func (r *run) inline(e *expr, name, ref string, line int) {
	st := r.vars[name]
	if st == nil || len(st.Fragments) == 0 {
		e.frags = append(e.frags, heuristic.Opaque(ref, line))
		return
	}
	if e.terms == 0 {
		e.firstName, e.firstState = name, st
	}
	e.frags = append(e.frags, st.Fragments...)
}

// pathIn reports whether [a,b) is exactly a dotted identifier path.
func (r *run) pathIn(a, b int) (string, bool) {
	path, end := r.pathAt(a, b)
	return path, path != "" && end == b
}

// pathAt reads Ident(.Ident)* starting at i.
func (r *run) pathAt(i, hi int) (string, int) {
	if i >= hi || !isIdent(r.toks[i]) || keywords[r.toks[i].Text] && r.toks[i].Text != "this" {
		return "", i
	}
	parts := []string{r.toks[i].Text}
	j := i + 1
	for j+1 < hi && isPunct(r.toks[j], ".") && isIdent(r.toks[j+1]) {
		parts = append(parts, r.toks[j+1].Text)
		j += 2
	}
	return strings.Join(parts, "."), j
}

// toStringCall matches PATH.toString() over exactly [a,b).
func (r *run) toStringCall(a, b int) (string, bool) {
	if b-a < 5 {
		return "", false
	}
	tail := r.toks[b-4 : b]
	if !isPunct(tail[0], ".") || tail[1].Text != "toString" || !isPunct(tail[2], "(") || !isPunct(tail[3], ")") {
		return "", false
	}
	return r.pathIn(a, b-4)
}

// isStringMethodChain matches (.method(...))+ over exactly [i,b) where every
// method returns text derived from its receiver.
func (r *run) isStringMethodChain(i, b int) bool {
	if i >= b {
		return false
	}
	for i < b {
		if i+2 >= b || !isPunct(r.toks[i], ".") || !stringMethods[r.toks[i+1].Text] || !isPunct(r.toks[i+2], "(") {
			return false
		}
		closeIdx := r.matchForward(i+2, b)
		if closeIdx >= b {
			return false
		}
		i = closeIdx + 1
	}
	return true
}

// matchForward returns the index of the bracket closing the one at open,
// or hi when it is not closed before hi.
func (r *run) matchForward(open, hi int) int {
	depth := 0
	for j := open; j < hi; j++ {
		switch {
		case isOpen(r.toks[j]):
			depth++
		case isClose(r.toks[j]):
			depth--
			if depth == 0 {
				return j
			}
		}
	}
	return hi
}

// matchBackward returns the index of the '(' matching the ')' at closeIdx,
// or -1 when it is not found at or after lo.
func (r *run) matchBackward(closeIdx, lo int) int {
	depth := 0
	for j := closeIdx; j >= lo; j-- {
		switch {
		case isClose(r.toks[j]):
			depth++
		case isOpen(r.toks[j]):
			depth--
			if depth == 0 {
				return j
			}
		}
	}
	return -1
}
