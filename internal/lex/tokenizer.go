package lex

// Tokenizer runs a set of lexers over the same text and resolves their
// matches into one token. A Tokenizer holds no text; once built it is safe
// for concurrent use.
type Tokenizer struct {
	lexers   []Lexer
	strategy Strategy
}

// TokenizerOption configures a Tokenizer.
type TokenizerOption func(*Tokenizer)

// WithStrategy replaces the default ClosestThenLongest strategy.
func WithStrategy(s Strategy) TokenizerOption {
	return func(t *Tokenizer) {
		if s != nil {
			t.strategy = s
		}
	}
}

// NewTokenizer creates an empty tokenizer.
func NewTokenizer(opts ...TokenizerOption) *Tokenizer {
	t := &Tokenizer{strategy: ClosestThenLongest{}}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Add appends lexers. It is meant for construction only and is not safe to
// call while the tokenizer is in use.
func (t *Tokenizer) Add(lexers ...Lexer) *Tokenizer {
	for _, l := range lexers {
		if l != nil {
			t.lexers = append(t.lexers, l)
		}
	}
	return t
}

// Lexers returns the lexers in insertion order.
func (t *Tokenizer) Lexers() []Lexer {
	return append([]Lexer(nil), t.lexers...)
}

// Tokenize returns the next token in text. It returns ErrExhausted when no
// lexer matches, or the strategy's error (usually *AmbiguityError).
func (t *Tokenizer) Tokenize(text string) (Result, error) {
	candidates := make([]Result, 0, len(t.lexers))
	for _, l := range t.lexers {
		if r, ok := l.Scan(text); ok {
			candidates = append(candidates, r)
		}
	}
	if len(candidates) == 0 {
		return Result{}, ErrExhausted
	}
	return t.strategy.Resolve(candidates)
}

// Remainder returns the text left after r. See the package-level Remainder.
func (t *Tokenizer) Remainder(r Result, text string) string {
	return Remainder(r, text)
}
