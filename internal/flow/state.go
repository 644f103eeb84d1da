package flow

import (
	"github.com/vvka-141/sqlscan/internal/heuristic"
	"github.com/vvka-141/sqlscan/pkg/sqlscan"
)

// VarKind is the closed set of trackable variable kinds.
type VarKind int

const (
	Plain   VarKind = iota // String, CharSequence
	Builder                // StringBuilder, StringBuffer
)

func (k VarKind) String() string {
	if k == Builder {
		return "Builder"
	}
	return "Plain"
}

// VariableState is the accumulated value of one tracked local variable.
// RangeStart and RangeEnd are the source lines of the statements that
// contributed fragments.
type VariableState struct {
	Name       string
	Kind       VarKind
	Fragments  []heuristic.Fragment
	RangeStart int
	RangeEnd   int
	Finalized  bool

	origin sqlscan.Origin
	dirty  bool
}

// Origin reports how the fragments were assembled.
func (v *VariableState) Origin() sqlscan.Origin {
	return v.origin
}

func (v *VariableState) extend(e expr) {
	v.Fragments = append(v.Fragments, e.frags...)
	if e.terms == 0 {
		return
	}
	if v.RangeStart == 0 || e.start < v.RangeStart {
		v.RangeStart = e.start
	}
	if e.end > v.RangeEnd {
		v.RangeEnd = e.end
	}
	v.dirty = true
}

func newState(name string, kind VarKind, e expr) *VariableState {
	st := &VariableState{
		Name:       name,
		Kind:       kind,
		Fragments:  append([]heuristic.Fragment(nil), e.frags...),
		RangeStart: e.start,
		RangeEnd:   e.end,
		dirty:      true,
	}

	switch {
	case kind == Builder:
		st.origin = sqlscan.OriginBuilderAppend
	case e.terms == 1 && e.firstState != nil:
		st.origin = e.firstState.origin
	case e.terms == 1 && len(e.frags) == 1:
		st.origin = sqlscan.OriginLiteral
	default:
		st.origin = sqlscan.OriginConcatenation
	}
	return st
}
