package lex

import (
	"testing"
	"time"

	"github.com/dlclark/regexp2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPatternLexer_Scan(t *testing.T) {
	tests := []struct {
		name    string
		pattern string
		input   string
		want    Result
		found   bool
	}{
		{
			name:    "leftmost occurrence",
			pattern: "struct",
			input:   "a struct b struct",
			want:    Result{Start: 2, End: 8, Text: "struct", Lexer: "kw"},
			found:   true,
		},
		{
			name:    "match at start",
			pattern: `[a-z]+`,
			input:   "foo bar",
			want:    Result{Start: 0, End: 3, Text: "foo", Lexer: "kw"},
			found:   true,
		},
		{
			name:    "no match",
			pattern: "template",
			input:   "struct Foo",
			found:   false,
		},
		{
			name:    "empty text",
			pattern: "x",
			input:   "",
			found:   false,
		},
		{
			name:    "rune offsets past multibyte text",
			pattern: "Foo",
			input:   "ñé Foo",
			want:    Result{Start: 3, End: 6, Text: "Foo", Lexer: "kw"},
			found:   true,
		},
		{
			name:    "invalid utf-8 kept byte for byte",
			pattern: `[^ab]`,
			input:   "a\xffb",
			want:    Result{Start: 1, End: 2, Text: "\xff", Lexer: "kw"},
			found:   true,
		},
		{
			name:    "multiline anchors",
			pattern: `^struct`,
			input:   "x\nstruct",
			want:    Result{Start: 2, End: 8, Text: "struct", Lexer: "kw"},
			found:   true,
		},
		{
			name:    "empty lookaround matches are skipped",
			pattern: `(?=c)|bb`,
			input:   "cbb",
			want:    Result{Start: 1, End: 3, Text: "bb", Lexer: "kw"},
			found:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := MustPatternLexer("kw", tt.pattern)
			got, ok := l.Scan(tt.input)
			require.Equal(t, tt.found, ok)
			if tt.found {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestNewPatternLexer_Errors(t *testing.T) {
	_, err := NewPatternLexer("", "x")
	require.ErrorIs(t, err, ErrEmptyID)

	_, err = NewPatternLexer("bad", "(")
	require.Error(t, err)
	require.Contains(t, err.Error(), `lexer "bad"`)

	_, err = NewPatternLexer("empty", "a*")
	require.ErrorIs(t, err, ErrZeroWidth)

	_, err = NewPatternLexerFromRegexp("nil", nil)
	require.Error(t, err)
}

func TestPatternLexer_Options(t *testing.T) {
	l, err := NewPatternLexer("kw", "STRUCT", WithFlags(regexp2.IgnoreCase), WithMatchTimeout(time.Second))
	require.NoError(t, err)
	require.Equal(t, ID("kw"), l.ID())
	require.Equal(t, "STRUCT", l.Pattern())

	got, ok := l.Scan("a struct")
	require.True(t, ok)
	require.Equal(t, "struct", got.Text)
}

func TestBalancedPairLexer_Scan(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  Result
		found bool
	}{
		{
			name:  "outer pair wins over inner",
			input: "a<b<c>d>e",
			want:  Result{Start: 1, End: 8, Text: "<b<c>d>", Lexer: "angle"},
			found: true,
		},
		{
			name:  "closer before opener ignored",
			input: "x>y<z>",
			want:  Result{Start: 3, End: 6, Text: "<z>", Lexer: "angle"},
			found: true,
		},
		{
			name:  "invalid utf-8 inside pair",
			input: "x<\xff>",
			want:  Result{Start: 1, End: 4, Text: "<\xff>", Lexer: "angle"},
			found: true,
		},
		{
			name:  "first of sibling pairs",
			input: "<a><b>",
			want:  Result{Start: 0, End: 3, Text: "<a>", Lexer: "angle"},
			found: true,
		},
		{
			name:  "unterminated",
			input: "<a<b>",
			found: false,
		},
		{
			name:  "no delimiters",
			input: "plain",
			found: false,
		},
		{
			name:  "empty text",
			input: "",
			found: false,
		},
		{
			name:  "multibyte content",
			input: "é<ü>",
			want:  Result{Start: 1, End: 4, Text: "<ü>", Lexer: "angle"},
			found: true,
		},
	}

	l := MustBalancedPairLexer("angle", '<', '>')
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := l.Scan(tt.input)
			require.Equal(t, tt.found, ok)
			if tt.found {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestBalancedPairLexer_ResetsBetweenScans(t *testing.T) {
	l := MustBalancedPairLexer("paren", '(', ')')

	_, ok := l.Scan("((")
	require.False(t, ok)

	got, ok := l.Scan("(x)")
	require.True(t, ok)
	require.Equal(t, "(x)", got.Text)
}

func TestNewBalancedPairLexer_Errors(t *testing.T) {
	_, err := NewBalancedPairLexer("q", '"', '"')
	require.ErrorIs(t, err, ErrSameDelimiters)

	_, err = NewBalancedPairLexer("", '(', ')')
	require.ErrorIs(t, err, ErrEmptyID)

	l, err := NewBalancedPairLexer("brace", '{', '}')
	require.NoError(t, err)
	open, closer := l.Delimiters()
	require.Equal(t, '{', open)
	require.Equal(t, '}', closer)
}

func TestRemainder(t *testing.T) {
	text := "ab¢de"
	require.Equal(t, "de", Remainder(Result{Start: 0, End: 3}, text))
	require.Equal(t, text, Remainder(Result{}, text))
	require.Equal(t, "", Remainder(Result{Start: 5, End: 5}, text))
	require.Equal(t, "", Remainder(Result{Start: 0, End: 42}, text))
}

func TestResult_Helpers(t *testing.T) {
	r := Result{Start: 2, End: 5, Text: "abc", Lexer: "id"}
	require.Equal(t, 3, r.Len())
	require.False(t, r.Empty())
	require.Equal(t, `id[2:5]"abc"`, r.String())
	require.True(t, Result{Start: 4, End: 4}.Empty())
}
