// Package textutil splits text into chunks and fields using the lex engine.
package textutil

import (
	"fmt"
	"strings"

	"github.com/zjrosen/lexkit/internal/lex"
)

// NewlineFormat returns the newline sequence used by text: "\r\n", "\n" or
// "\r", checked in that order. Returns "" when text has no line breaks.
func NewlineFormat(text string) string {
	switch {
	case strings.Contains(text, "\r\n"):
		return "\r\n"
	case strings.Contains(text, "\n"):
		return "\n"
	case strings.Contains(text, "\r"):
		return "\r"
	}
	return ""
}

var newlinePatterns = map[string]string{
	"\r\n": `\r\n`,
	"\n":   `\n`,
	"\r":   `\r`,
}

// Chunks splits text on runs of at least minNewlines newline sequences of the
// text's own newline format. Empty chunks are dropped.
func Chunks(text string, minNewlines int) []string {
	format := NewlineFormat(text)
	if format == "" {
		if text == "" {
			return nil
		}
		return []string{text}
	}
	if minNewlines < 1 {
		minNewlines = 1
	}

	pattern := fmt.Sprintf("(?:%s){%d,}", newlinePatterns[format], minNewlines)
	tok := lex.NewTokenizer().Add(lex.MustPatternLexer("newline", pattern))

	var chunks []string
	for {
		r, err := tok.Tokenize(text)
		if err != nil {
			break
		}
		if chunk := prefix(text, r.Start); chunk != "" {
			chunks = append(chunks, chunk)
		}
		text = lex.Remainder(r, text)
	}
	if text != "" {
		chunks = append(chunks, text)
	}
	return chunks
}

// Fields splits text on runs of whitespace. Like a regular-expression split,
// leading or trailing whitespace yields an empty first or last field.
func Fields(text string) []string {
	tok := lex.NewTokenizer().Add(lex.MustPatternLexer("space", `\s+`))

	var fields []string
	for {
		r, err := tok.Tokenize(text)
		if err != nil {
			break
		}
		fields = append(fields, prefix(text, r.Start))
		text = lex.Remainder(r, text)
	}
	return append(fields, text)
}

// LineCol returns the 1-based line and column of a rune offset in text.
// Lines end at "\n", "\r\n" or a lone "\r".
func LineCol(text string, offset int) (line, col int) {
	line, col = 1, 1
	n := 0
	for i, r := range text {
		if n == offset {
			break
		}
		if r == '\n' || (r == '\r' && !strings.HasPrefix(text[i+1:], "\n")) {
			line++
			col = 1
		} else {
			col++
		}
		n++
	}
	return line, col
}

// prefix returns the first n runes of text.
func prefix(text string, n int) string {
	i := 0
	for b := range text {
		if i == n {
			return text[:b]
		}
		i++
	}
	return text
}
