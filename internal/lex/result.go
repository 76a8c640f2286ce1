// Package lex implements a multi-lexer tokenization engine.
//
// A Tokenizer asks each of its lexers for the leftmost match in a text,
// resolves the candidates into one token with a Strategy, and a Machine
// drives tokenizers over a shrinking remainder while folding every token
// into a state transition.
//
// All offsets are code-point (rune) offsets, for every lexer kind.
package lex

import "fmt"

// ID tags the logical token kind a lexer produces.
type ID string

// Result is a single match found by a lexer.
type Result struct {
	Start int    // rune offset of the first matched rune
	End   int    // rune offset one past the last matched rune
	Text  string // matched text
	Lexer ID
}

// Len returns the match length in runes.
func (r Result) Len() int {
	return r.End - r.Start
}

// Empty reports whether the match is zero width.
func (r Result) Empty() bool {
	return r.End == r.Start
}

// String returns a compact debug representation.
func (r Result) String() string {
	return fmt.Sprintf("%s[%d:%d]%q", r.Lexer, r.Start, r.End, r.Text)
}

// Remainder returns the part of text after the result, text[r.End:] in runes.
// The result must have been produced from the same text.
func Remainder(r Result, text string) string {
	return text[byteOffset(text, r.End):]
}

// byteOffset converts a rune offset to a byte offset, clamping to len(text).
func byteOffset(text string, runes int) int {
	if runes <= 0 {
		return 0
	}
	n := 0
	for i := range text {
		if n == runes {
			return i
		}
		n++
	}
	return len(text)
}
