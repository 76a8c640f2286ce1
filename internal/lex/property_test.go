package lex

import (
	"errors"
	"strings"
	"testing"

	"pgregory.net/rapid"
)

// ============================================================================
// Property-Based Tests for tokenization invariants
// ============================================================================

func textOver(alphabet string) *rapid.Generator[string] {
	runes := []rune(alphabet)
	return rapid.Custom(func(t *rapid.T) string {
		n := rapid.IntRange(0, 40).Draw(t, "len")
		var sb strings.Builder
		for i := 0; i < n; i++ {
			sb.WriteRune(runes[rapid.IntRange(0, len(runes)-1).Draw(t, "rune")])
		}
		return sb.String()
	})
}

// TestProperty_ClosestThenLongest checks the winner against every lexer's own scan.
func TestProperty_ClosestThenLongest(t *testing.T) {
	lexers := []Lexer{
		MustPatternLexer("as", "a+"),
		MustPatternLexer("ab", "ab"),
		MustPatternLexer("bs", "b+c?"),
		MustBalancedPairLexer("angle", '<', '>'),
	}
	tok := NewTokenizer().Add(lexers...)

	rapid.Check(t, func(t *rapid.T) {
		text := textOver("abc<>é ").Draw(t, "text")

		var candidates []Result
		for _, l := range lexers {
			if r, ok := l.Scan(text); ok {
				candidates = append(candidates, r)
			}
		}

		got, err := tok.Tokenize(text)
		if len(candidates) == 0 {
			if !errors.Is(err, ErrExhausted) {
				t.Fatalf("expected ErrExhausted, got %v", err)
			}
			return
		}
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		for _, c := range candidates {
			// INVARIANT: nothing starts earlier than the winner
			if c.Start < got.Start {
				t.Fatalf("candidate %v starts before winner %v", c, got)
			}
			// INVARIANT: nothing at the same start is longer
			if c.Start == got.Start && c.Len() > got.Len() {
				t.Fatalf("candidate %v longer than winner %v", c, got)
			}
		}
	})
}

// TestProperty_EqualSpansAreAmbiguous checks that identical spans never resolve silently.
func TestProperty_EqualSpansAreAmbiguous(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		pattern := rapid.SampledFrom([]string{"a", "ab", "b+", "[ab]c"}).Draw(t, "pattern")
		tok := NewTokenizer().Add(
			MustPatternLexer("first", pattern),
			MustPatternLexer("second", pattern),
		)
		text := textOver("abc ").Draw(t, "text")

		_, err := tok.Tokenize(text)
		if errors.Is(err, ErrExhausted) {
			return
		}
		var amb *AmbiguityError
		if !errors.As(err, &amb) {
			t.Fatalf("expected ambiguity for %q in %q, got %v", pattern, text, err)
		}
		if len(amb.Tied) != 2 {
			t.Fatalf("expected 2 tied candidates, got %d", len(amb.Tied))
		}
	})
}

// TestProperty_RemainderConsumesStrictlyIncreasingPrefixes runs tokenize/remainder
// cycles and checks every cycle drops exactly the rune prefix up to End.
func TestProperty_RemainderConsumesStrictlyIncreasingPrefixes(t *testing.T) {
	tok := NewTokenizer().Add(
		MustPatternLexer("word", `[a-z]+`),
		MustPatternLexer("digits", `[0-9]+`),
		MustBalancedPairLexer("paren", '(', ')'),
	)

	rapid.Check(t, func(t *rapid.T) {
		text := textOver("ab19() ü").Draw(t, "text")
		remaining := text
		consumed := 0

		for {
			r, err := tok.Tokenize(remaining)
			if errors.Is(err, ErrExhausted) {
				break
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			runes := []rune(remaining)
			if string(runes[r.Start:r.End]) != r.Text {
				t.Fatalf("text %q does not match span [%d:%d] of %q", r.Text, r.Start, r.End, remaining)
			}

			next := Remainder(r, remaining)
			if next != string(runes[r.End:]) {
				t.Fatalf("remainder %q, want %q", next, string(runes[r.End:]))
			}
			if r.End <= 0 {
				t.Fatalf("no progress on %q", remaining)
			}
			consumed += r.End
			remaining = next
		}

		if !strings.HasSuffix(text, remaining) || consumed > len([]rune(text)) {
			t.Fatalf("consumed %d runes of %q, left %q", consumed, text, remaining)
		}
	})
}

// TestProperty_BalancedPairOutermost checks the span starts at the first opener
// and closes exactly when depth first returns to zero.
func TestProperty_BalancedPairOutermost(t *testing.T) {
	l := MustBalancedPairLexer("angle", '<', '>')

	rapid.Check(t, func(t *rapid.T) {
		text := textOver("<>xé").Draw(t, "text")
		runes := []rune(text)

		r, ok := l.Scan(text)
		first := strings.IndexRune(text, '<')
		if first < 0 {
			if ok {
				t.Fatalf("match %v without opener", r)
			}
			return
		}
		firstRune := len([]rune(text[:first]))

		depth := 0
		closeAt := -1
		for i := firstRune; i < len(runes); i++ {
			switch runes[i] {
			case '<':
				depth++
			case '>':
				depth--
			}
			if depth == 0 {
				closeAt = i
				break
			}
		}

		if closeAt < 0 {
			if ok {
				t.Fatalf("unterminated %q matched %v", text, r)
			}
			return
		}
		if !ok || r.Start != firstRune || r.End != closeAt+1 {
			t.Fatalf("got %v (ok=%v), want [%d:%d]", r, ok, firstRune, closeAt+1)
		}
		if r.Text != string(runes[r.Start:r.End]) {
			t.Fatalf("text %q, want %q", r.Text, string(runes[r.Start:r.End]))
		}
	})
}

// TestProperty_DriverNoiseNeverChangesState checks that with a catch-all lexer
// and no transitions, any input is consumed completely without leaving initial.
func TestProperty_DriverNoiseNeverChangesState(t *testing.T) {
	tok := NewTokenizer().Add(
		MustPatternLexer("any", `(?s).`),
		MustPatternLexer("word", `[a-z]{2,}`),
	)
	m := NewMachine(stateInitial, tok)

	rapid.Check(t, func(t *rapid.T) {
		text := textOver("ab \n%é").Draw(t, "text")

		consumed := 0
		final, err := m.Run(text, func(s Step[templateState]) {
			if s.To != stateInitial {
				t.Fatalf("state changed to %v", s.To)
			}
			consumed += s.Token.Len()
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if final != stateInitial {
			t.Fatalf("final state %v", final)
		}
		if consumed != len([]rune(text)) {
			t.Fatalf("consumed %d of %d runes", consumed, len([]rune(text)))
		}
	})
}
