// Package lexer tokenizes Java source text for SQL extraction.
//
// The lexer is a single state machine with four mutually exclusive states
// (code, line comment, block comment, string). Comment markers inside a
// string and quotes inside a comment are inert. Every character of the input
// belongs to exactly one token, so concatenating the token texts reproduces
// the source, and every token carries 1-based start and end lines.
//
// Unterminated string literals, text blocks and block comments produce a
// *LexError that wraps sqlscan.ErrLex.
package lexer
