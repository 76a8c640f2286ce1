package lex

import (
	"errors"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/dlclark/regexp2"
)

var (
	// ErrEmptyID is returned when a lexer is built without an id.
	ErrEmptyID = errors.New("lexer id is empty")
	// ErrSameDelimiters is returned for a balanced-pair lexer whose open and close runes are equal.
	ErrSameDelimiters = errors.New("open and close delimiters must differ")
	// ErrZeroWidth is returned for a pattern that matches the empty string.
	ErrZeroWidth = errors.New("pattern matches the empty string")
)

// Lexer scans a text for one kind of token and reports its leftmost match.
//
// The set of lexer kinds is closed: PatternLexer and BalancedPairLexer.
// Scan never fails; a missing match is reported through the bool.
type Lexer interface {
	ID() ID
	Scan(text string) (Result, bool)

	sealed()
}

// PatternLexer matches a regular expression.
type PatternLexer struct {
	id ID
	re *regexp2.Regexp
}

// PatternOption configures a PatternLexer.
type PatternOption func(*patternOptions)

type patternOptions struct {
	flags   regexp2.RegexOptions
	timeout time.Duration
}

// WithFlags replaces the default regexp2.Multiline compile flags.
func WithFlags(flags regexp2.RegexOptions) PatternOption {
	return func(o *patternOptions) { o.flags = flags }
}

// WithMatchTimeout bounds the time a single match may take.
// A scan that times out reports no match.
func WithMatchTimeout(d time.Duration) PatternOption {
	return func(o *patternOptions) { o.timeout = d }
}

// NewPatternLexer compiles pattern into a lexer tagged with id.
func NewPatternLexer(id ID, pattern string, opts ...PatternOption) (*PatternLexer, error) {
	o := patternOptions{flags: regexp2.Multiline}
	for _, opt := range opts {
		opt(&o)
	}
	re, err := regexp2.Compile(pattern, o.flags)
	if err != nil {
		return nil, fmt.Errorf("lexer %q: compiling pattern: %w", id, err)
	}
	if o.timeout > 0 {
		re.MatchTimeout = o.timeout
	}
	return NewPatternLexerFromRegexp(id, re)
}

// NewPatternLexerFromRegexp wraps an already compiled pattern.
func NewPatternLexerFromRegexp(id ID, re *regexp2.Regexp) (*PatternLexer, error) {
	if id == "" {
		return nil, ErrEmptyID
	}
	if re == nil {
		return nil, fmt.Errorf("lexer %q: nil pattern", id)
	}
	// A pattern that can match nothing would stall the driver.
	if ok, err := re.MatchString(""); err == nil && ok {
		return nil, fmt.Errorf("lexer %q: %q: %w", id, re.String(), ErrZeroWidth)
	}
	return &PatternLexer{id: id, re: re}, nil
}

// MustPatternLexer is like NewPatternLexer but panics on error.
func MustPatternLexer(id ID, pattern string, opts ...PatternOption) *PatternLexer {
	l, err := NewPatternLexer(id, pattern, opts...)
	if err != nil {
		panic(err)
	}
	return l
}

// ID returns the lexer tag.
func (l *PatternLexer) ID() ID { return l.id }

// Pattern returns the source pattern.
func (l *PatternLexer) Pattern() string { return l.re.String() }

// Scan returns the leftmost non-empty match in text.
func (l *PatternLexer) Scan(text string) (Result, bool) {
	if text == "" {
		return Result{}, false
	}
	m, err := l.re.FindStringMatch(text)
	for err == nil && m != nil && m.Length == 0 {
		// lookarounds can still produce empty matches
		m, err = l.re.FindNextMatch(m)
	}
	if err != nil || m == nil {
		return Result{}, false
	}
	// Slice the input rather than m.String(): regexp2 decodes invalid
	// UTF-8 to U+FFFD, so its copy can differ from text.
	start, end := m.Index, m.Index+m.Length
	return Result{
		Start: start,
		End:   end,
		Text:  text[byteOffset(text, start):byteOffset(text, end)],
		Lexer: l.id,
	}, true
}

func (*PatternLexer) sealed() {}

// unopened is the depth of a balanced-pair scan before the first opener.
const unopened = -1

// BalancedPairLexer matches the first outermost balanced open/close pair.
type BalancedPairLexer struct {
	id    ID
	open  rune
	close rune
}

// NewBalancedPairLexer creates a lexer for the delimiter pair open/close.
func NewBalancedPairLexer(id ID, open, close rune) (*BalancedPairLexer, error) {
	if id == "" {
		return nil, ErrEmptyID
	}
	if open == close {
		return nil, fmt.Errorf("lexer %q: %q: %w", id, open, ErrSameDelimiters)
	}
	return &BalancedPairLexer{id: id, open: open, close: close}, nil
}

// MustBalancedPairLexer is like NewBalancedPairLexer but panics on error.
func MustBalancedPairLexer(id ID, open, close rune) *BalancedPairLexer {
	l, err := NewBalancedPairLexer(id, open, close)
	if err != nil {
		panic(err)
	}
	return l
}

// ID returns the lexer tag.
func (l *BalancedPairLexer) ID() ID { return l.id }

// Delimiters returns the open and close runes.
func (l *BalancedPairLexer) Delimiters() (open, close rune) { return l.open, l.close }

// Scan returns the span from the first opener to the closer that balances it.
// Closers before the first opener are ignored. An unterminated pair is no match.
func (l *BalancedPairLexer) Scan(text string) (Result, bool) {
	depth := unopened
	start, startByte := 0, 0
	pos := 0
	for i, r := range text {
		switch {
		case r == l.open && depth == unopened:
			depth = 1
			start, startByte = pos, i
		case r == l.open:
			depth++
		case r == l.close && depth >= 1:
			depth--
			if depth == 0 {
				end := i + utf8.RuneLen(r)
				return Result{
					Start: start,
					End:   pos + 1,
					Text:  text[startByte:end],
					Lexer: l.id,
				}, true
			}
		}
		pos++
	}
	return Result{}, false
}

func (*BalancedPairLexer) sealed() {}
