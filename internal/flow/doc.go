// Package flow tracks how string values are assembled inside a method body.
//
// SplitScopes cuts a file's significant tokens into scopes: one per method,
// constructor or initializer body, plus one per class body for field
// declarations and member headers (annotations). A Tracker then walks one
// scope strictly in program order, keeping a VariableState per tracked local
// (plain strings and StringBuilder/StringBuffer) and emitting candidates when
// accumulated text is finalized: at an execution sink, on reassignment and at
// the end of the scope. Literals used in place (call arguments, return
// values) are classified where they appear.
//
// The tracker does not resolve values across scopes, and any construct it
// does not recognize is consumed without changing state.
package flow
