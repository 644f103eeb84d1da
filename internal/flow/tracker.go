package flow

import (
	"strings"

	"github.com/vvka-141/sqlscan/internal/heuristic"
	"github.com/vvka-141/sqlscan/internal/lexer"
	"github.com/vvka-141/sqlscan/internal/rules"
	"github.com/vvka-141/sqlscan/pkg/sqlscan"
)

// DefaultPlainTypes returns the type names tracked as plain strings.
func DefaultPlainTypes() []string {
	return []string{"String", "CharSequence"}
}

// DefaultBuilderTypes returns the type names tracked as builders.
func DefaultBuilderTypes() []string {
	return []string{"StringBuilder", "StringBuffer"}
}

// Options configures a Tracker. Zero values select the defaults.
type Options struct {
	Rules        *rules.Table
	Classifier   *heuristic.Classifier
	PlainTypes   []string
	BuilderTypes []string
}

// Tracker runs the per-scope flow analysis. It holds only immutable
// configuration and may be shared by concurrent workers.
type Tracker struct {
	rules      *rules.Table
	classifier *heuristic.Classifier
	types      map[string]VarKind
}

// NewTracker creates a Tracker from opts.
func NewTracker(opts Options) *Tracker {
	if opts.Rules == nil {
		opts.Rules = rules.Default()
	}
	if opts.Classifier == nil {
		opts.Classifier = heuristic.Default()
	}
	if len(opts.PlainTypes) == 0 {
		opts.PlainTypes = DefaultPlainTypes()
	}
	if len(opts.BuilderTypes) == 0 {
		opts.BuilderTypes = DefaultBuilderTypes()
	}

	t := &Tracker{
		rules:      opts.Rules,
		classifier: opts.Classifier,
		types:      make(map[string]VarKind, len(opts.PlainTypes)+len(opts.BuilderTypes)),
	}
	for _, name := range opts.PlainTypes {
		t.types[name] = Plain
	}
	for _, name := range opts.BuilderTypes {
		t.types[name] = Builder
	}
	return t
}

// Result is the outcome of tracking one scope.
type Result struct {
	Scope string

	// Variables holds the final state of every variable live at scope end.
	Variables map[string]*VariableState

	// Candidates are in detection order, not yet merged.
	Candidates []sqlscan.Candidate

	// Skipped counts constructs on tracked variables that were consumed
	// without effect (unsupported builder methods, += on a builder).
	Skipped int
}

// Run walks one scope in program order.
func (t *Tracker) Run(scope Scope) Result {
	r := &run{
		tracker: t,
		toks:    scope.Tokens,
		vars:    make(map[string]*VariableState),
		handles: make(map[string]bool),
	}
	r.walk(0, len(r.toks))
	r.finish()

	return Result{
		Scope:      scope.Name,
		Variables:  r.vars,
		Candidates: r.cands,
		Skipped:    r.skipped,
	}
}

// run is the mutable state of one scope walk.
type run struct {
	tracker *Tracker
	toks    []lexer.Token
	vars    map[string]*VariableState
	order   []string
	handles map[string]bool // variables wrapping an interactive input source
	cands   []sqlscan.Candidate
	skipped int
}

func (r *run) walk(lo, hi int) {
	for i := lo; i < hi; {
		next := r.step(i, lo, hi)
		if next <= i {
			next = i + 1
		}
		i = next
	}
}

func (r *run) step(i, lo, hi int) int {
	tok := r.toks[i]
	switch tok.Kind {
	case lexer.StringLiteral:
		return r.freeLiteral(i, hi)
	case lexer.Identifier:
	default:
		return i + 1
	}

	if i > lo && isPunct(r.toks[i-1], ".") {
		if r.isCallAt(i, hi) {
			return r.invoke(r.receiverPath(i, lo), tok.Text, i+1, hi)
		}
		return i + 1
	}

	if tok.Text == "new" {
		return r.construct(i, hi)
	}
	if d, ok := r.declaration(i, hi); ok {
		return r.declare(d, hi)
	}
	if next, ok := r.assignment(i, hi); ok {
		return next
	}
	if r.isCallAt(i, hi) {
		return r.invoke(r.receiverPath(i, lo), tok.Text, i+1, hi)
	}
	return i + 1
}

func (r *run) isCallAt(i, hi int) bool {
	return i+1 < hi && isPunct(r.toks[i+1], "(") && !notCall[r.toks[i].Text]
}

// receiverPath renders the chain before the method at i: "System.out",
// "this.jdbc", "conn.createStatement()".
func (r *run) receiverPath(i, lo int) string {
	var parts []string
	j := i - 1
	for j > lo && isPunct(r.toks[j], ".") {
		j--
		t := r.toks[j]
		if isIdent(t) {
			parts = append(parts, t.Text)
			j--
			continue
		}
		if isPunct(t, ")") {
			open := r.matchBackward(j, lo)
			if open > lo && isIdent(r.toks[open-1]) {
				parts = append(parts, r.toks[open-1].Text+"()")
				j = open - 2
				continue
			}
		}
		break
	}

	for a, b := 0, len(parts)-1; a < b; a, b = a+1, b-1 {
		parts[a], parts[b] = parts[b], parts[a]
	}
	return strings.Join(parts, ".")
}

// construct handles "new T(args)" as a call to T.
func (r *run) construct(i, hi int) int {
	name, j := r.pathAt(i+1, hi)
	if name == "" {
		return i + 1
	}
	if j < hi && isOp(r.toks[j], "<") {
		end, ok := r.skipGeneric(j, hi)
		if !ok {
			return i + 1
		}
		j = end
	}
	if j >= hi || !isPunct(r.toks[j], "(") {
		return i + 1
	}
	return r.invoke("", name[strings.LastIndex(name, ".")+1:], j, hi)
}

// invoke processes a call whose argument list opens at open and returns the
// index after the closing parenthesis.
func (r *run) invoke(receiver, method string, open, hi int) int {
	closeIdx := r.matchForward(open, hi)
	argsLo, argsHi := open+1, closeIdx

	if st := r.builderFor(receiver); st != nil {
		switch method {
		case "append":
			e := r.evalExpr(argsLo, argsHi)
			st.extend(e)
			r.commit(e)
			if e.next < argsHi {
				r.skipped++
			}
		case "toString", "length", "isEmpty", "charAt", "chars", "capacity":
		default:
			r.skipped++
			r.walk(argsLo, argsHi)
		}
		return closeIdx + 1
	}

	disp := r.tracker.rules.Classify(receiver, method)
	if root, _, _ := strings.Cut(receiver, "."); r.handles[root] {
		disp = rules.IgnoredInput
	}
	if disp.Ignored() {
		return closeIdx + 1
	}

	for _, arg := range r.splitArgs(argsLo, argsHi) {
		r.argument(arg[0], arg[1], disp)
	}
	return closeIdx + 1
}

// builderFor resolves a receiver to a tracked builder, looking through
// chained append calls ("sb.append()" is still sb).
func (r *run) builderFor(receiver string) *VariableState {
	for receiver != "" {
		if st := r.vars[receiver]; st != nil {
			if st.Kind == Builder {
				return st
			}
			return nil
		}
		trimmed := strings.TrimSuffix(receiver, ".append()")
		if trimmed == receiver {
			return nil
		}
		receiver = trimmed
	}
	return nil
}

func (r *run) splitArgs(lo, hi int) [][2]int {
	if lo >= hi {
		return nil
	}
	var args [][2]int
	depth := 0
	start := lo
	for j := lo; j < hi; j++ {
		t := r.toks[j]
		switch {
		case isOpen(t):
			depth++
		case isClose(t):
			depth--
		case depth == 0 && isPunct(t, ","):
			args = append(args, [2]int{start, j})
			start = j + 1
		}
	}
	return append(args, [2]int{start, hi})
}

// argument handles one call argument spanning [a,b).
func (r *run) argument(a, b int, disp rules.Disposition) {
	if a >= b {
		return
	}

	if disp == rules.ExecutionSink {
		if st := r.trackedArg(a, b); st != nil {
			r.finalize(st)
			return
		}
	}

	e := r.evalExpr(a, b)
	if e.next != b {
		r.walk(a, b)
		return
	}
	if e.direct > 0 {
		origin := sqlscan.OriginConcatenation
		if e.singleLiteral() {
			origin = sqlscan.OriginMethodArgument
		}
		r.emit(e.frags, e.start, e.end, origin, sqlscan.DispositionDetected)
	}
	r.commit(e)
}

// trackedArg matches NAME or NAME.toString() naming a tracked variable.
func (r *run) trackedArg(a, b int) *VariableState {
	if name, ok := r.pathIn(a, b); ok {
		return r.vars[name]
	}
	if name, ok := r.toStringCall(a, b); ok {
		return r.vars[name]
	}
	return nil
}

// freeLiteral classifies a literal expression used in place: a return
// value, a ternary branch, an array element.
func (r *run) freeLiteral(i, hi int) int {
	e := r.evalExpr(i, hi)
	if e.next <= i {
		return i + 1
	}
	origin := sqlscan.OriginConcatenation
	if e.singleLiteral() {
		origin = sqlscan.OriginLiteral
	}
	r.emit(e.frags, e.start, e.end, origin, sqlscan.DispositionDetected)
	r.commit(e)
	return e.next
}

// decl is a recognized "TYPE NAME" prefix.
type decl struct {
	typeName string
	tracked  bool
	kind     VarKind
	inferred bool // var
	nameIdx  int
	next     int
}

func (r *run) declaration(i, hi int) (decl, bool) {
	t := r.toks[i]
	if !isIdent(t) || notType[t.Text] {
		return decl{}, false
	}

	typeName := t.Text
	j := i + 1
	for j+1 < hi && isPunct(r.toks[j], ".") && isIdent(r.toks[j+1]) {
		typeName = r.toks[j+1].Text
		j += 2
	}

	plainShape := true
	if j < hi && isOp(r.toks[j], "<") {
		end, ok := r.skipGeneric(j, hi)
		if !ok {
			return decl{}, false
		}
		j = end
		plainShape = false
	}
	for j+1 < hi && isPunct(r.toks[j], "[") && isPunct(r.toks[j+1], "]") {
		j += 2
		plainShape = false
	}
	if j < hi && isPunct(r.toks[j], "...") {
		j++
		plainShape = false
	}

	if j >= hi || !isIdent(r.toks[j]) || keywords[r.toks[j].Text] {
		return decl{}, false
	}
	nameIdx := j
	j++
	if j < hi {
		n := r.toks[j]
		if !isOp(n, "=") && !isPunct(n, ";") && !isPunct(n, ",") && !isPunct(n, ")") && !isPunct(n, ":") {
			return decl{}, false
		}
	}

	kind, tracked := r.tracker.types[typeName]
	return decl{
		typeName: typeName,
		tracked:  tracked && plainShape,
		kind:     kind,
		inferred: typeName == "var" && plainShape,
		nameIdx:  nameIdx,
		next:     j,
	}, true
}

// skipGeneric returns the index after the type arguments opening at j.
func (r *run) skipGeneric(j, hi int) (int, bool) {
	depth := 0
	for k := j; k < hi; k++ {
		t := r.toks[k]
		if t.Kind == lexer.Operator && strings.Trim(t.Text, "<>") == "" {
			for _, c := range t.Text {
				if c == '<' {
					depth++
				} else {
					depth--
				}
			}
			if depth == 0 {
				return k + 1, true
			}
			if depth < 0 {
				return 0, false
			}
			continue
		}
		if isIdent(t) || isPunct(t, ",") || isPunct(t, ".") || isPunct(t, "?") ||
			isPunct(t, "[") || isPunct(t, "]") || isOp(t, "&") {
			continue
		}
		return 0, false
	}
	return 0, false
}

func (r *run) declare(d decl, hi int) int {
	name := r.toks[d.nameIdx].Text
	hasInit := d.next < hi && isOp(r.toks[d.next], "=")

	if !hasInit {
		if d.tracked {
			r.replace(name, &VariableState{Name: name, Kind: d.kind})
		} else {
			r.forget(name)
		}
		return d.next
	}

	rhs := d.next + 1
	if (d.tracked && d.kind == Builder) || d.inferred {
		if next, ok := r.builderConstruct(name, rhs, hi); ok {
			return next
		}
	}

	if !d.tracked && !d.inferred {
		r.forget(name)
		if r.opensInputSource(rhs, hi) {
			r.handles[name] = true
		}
		return rhs
	}

	e := r.evalExpr(rhs, hi)
	if d.inferred && e.direct == 0 && e.firstState == nil {
		r.forget(name)
		return rhs
	}

	kind := d.kind
	if d.inferred {
		kind = Plain
	}
	r.replace(name, newState(name, kind, e))
	r.commit(e)
	return e.next
}

// builderConstruct handles "new StringBuilder(ARGS)" (plus chained appends)
// assigned to name.
func (r *run) builderConstruct(name string, rhs, hi int) (int, bool) {
	if rhs >= hi || r.toks[rhs].Text != "new" {
		return 0, false
	}
	typePath, j := r.pathAt(rhs+1, hi)
	typeName := typePath[strings.LastIndex(typePath, ".")+1:]
	if kind, ok := r.tracker.types[typeName]; !ok || kind != Builder {
		return 0, false
	}
	if j >= hi || !isPunct(r.toks[j], "(") {
		return 0, false
	}

	closeIdx := r.matchForward(j, hi)
	st := &VariableState{
		Name:       name,
		Kind:       Builder,
		RangeStart: r.toks[rhs].StartLine,
		RangeEnd:   r.toks[min(closeIdx, hi-1)].EndLine,
		origin:     sqlscan.OriginBuilderAppend,
		dirty:      true,
	}

	// a lone numeric argument is the initial capacity
	if !(closeIdx-j == 2 && r.toks[j+1].Kind == lexer.Other) {
		e := r.evalExpr(j+1, closeIdx)
		st.Fragments = append(st.Fragments, e.frags...)
		r.commit(e)
	}
	r.replace(name, st)

	k := closeIdx + 1
	for k+2 < hi && isPunct(r.toks[k], ".") && r.toks[k+1].Text == "append" && isPunct(r.toks[k+2], "(") {
		end := r.matchForward(k+2, hi)
		e := r.evalExpr(k+3, end)
		st.extend(e)
		r.commit(e)
		k = end + 1
	}
	return k, true
}

// assignment handles "PATH = EXPR" and "PATH += EXPR".
func (r *run) assignment(i, hi int) (int, bool) {
	path, j := r.pathAt(i, hi)
	if path == "" || j >= hi {
		return 0, false
	}
	op := r.toks[j]
	if !isOp(op, "=") && !isOp(op, "+=") {
		return 0, false
	}
	rhs := j + 1
	st := r.vars[path]

	if isOp(op, "+=") {
		e := r.evalExpr(rhs, hi)
		switch {
		case st != nil && st.Kind == Plain:
			st.extend(e)
			st.origin = sqlscan.OriginConcatenation
		case st != nil:
			r.skipped++
		case e.direct > 0:
			ns := newState(path, Plain, e)
			ns.Fragments = append([]heuristic.Fragment{heuristic.Opaque(path, e.start)}, ns.Fragments...)
			ns.origin = sqlscan.OriginConcatenation
			r.replace(path, ns)
		}
		r.commit(e)
		return e.next, true
	}

	if st != nil && st.Kind == Builder {
		if next, ok := r.builderConstruct(path, rhs, hi); ok {
			return next, true
		}
	}

	e := r.evalExpr(rhs, hi)
	if st == nil && e.direct == 0 {
		if r.opensInputSource(rhs, hi) {
			r.handles[path] = true
		}
		return rhs, true
	}

	if st != nil && e.firstName == path {
		// sql = sql + ... keeps accumulating
		st.Fragments = st.Fragments[:0:0]
		st.extend(e)
		st.origin = sqlscan.OriginConcatenation
		r.commit(e)
		return e.next, true
	}

	kind := Plain
	if st != nil {
		kind = st.Kind
	}
	r.replace(path, newState(path, kind, e))
	r.commit(e)
	return e.next, true
}

// opensInputSource reports whether the initializer at rhs is "new T(...)"
// wrapping an ignored-input receiver or an existing input handle.
func (r *run) opensInputSource(rhs, hi int) bool {
	if rhs >= hi || r.toks[rhs].Text != "new" {
		return false
	}
	end := r.termEnd(rhs, hi)
	for k := rhs + 1; k < end; k++ {
		path, next := r.pathAt(k, end)
		if path == "" {
			continue
		}
		if r.tracker.rules.IsInputSource(path) || r.handles[path] {
			return true
		}
		k = next - 1
	}
	return false
}

// commit walks the calls nested in an evaluated expression's opaque terms.
func (r *run) commit(e expr) {
	for _, w := range e.walks {
		r.walk(w[0], w[1])
	}
}

func (r *run) replace(name string, st *VariableState) {
	if old := r.vars[name]; old != nil {
		r.finalizeIfDirty(old)
	} else {
		r.order = append(r.order, name)
	}
	delete(r.handles, name)
	r.vars[name] = st
}

func (r *run) forget(name string) {
	if old := r.vars[name]; old != nil {
		r.finalizeIfDirty(old)
		delete(r.vars, name)
	}
}

// finalize classifies the variable's current fragments, even when an earlier
// finalization already emitted them.
func (r *run) finalize(st *VariableState) {
	st.Finalized = true
	st.dirty = false
	r.emit(st.Fragments, st.RangeStart, st.RangeEnd, st.origin, sqlscan.DispositionAssigned)
}

func (r *run) finalizeIfDirty(st *VariableState) {
	if st.dirty || !st.Finalized {
		r.finalize(st)
	}
}

func (r *run) finish() {
	for _, name := range r.order {
		if st := r.vars[name]; st != nil {
			r.finalizeIfDirty(st)
		}
	}
}

func (r *run) emit(frags []heuristic.Fragment, start, end int, origin sqlscan.Origin, disp sqlscan.Disposition) {
	if len(frags) == 0 || !r.tracker.classifier.Accepts(frags) {
		return
	}
	if end < start {
		end = start
	}
	r.cands = append(r.cands, sqlscan.Candidate{
		Text:        heuristic.Render(frags),
		StartLine:   start,
		EndLine:     end,
		Origin:      origin,
		Disposition: disp,
	})
}
