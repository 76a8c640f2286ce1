package lex

import (
	"errors"
	"fmt"
	"strings"
)

// ErrExhausted reports that no lexer matched the text. It ends a Machine run
// normally and is not a failure of the input.
var ErrExhausted = errors.New("no lexer matched")

// AmbiguityError reports candidates that no tie-break rule could separate.
type AmbiguityError struct {
	Candidates []Result // every candidate passed to the strategy
	Tied       []Result // the indistinguishable survivors
}

func (e *AmbiguityError) Error() string {
	ids := make([]string, len(e.Tied))
	for i, r := range e.Tied {
		ids[i] = string(r.Lexer)
	}
	span := ""
	if len(e.Tied) > 0 {
		span = fmt.Sprintf(" at [%d:%d] %q", e.Tied[0].Start, e.Tied[0].End, e.Tied[0].Text)
	}
	return fmt.Sprintf("ambiguous match between lexers %s%s", strings.Join(ids, ", "), span)
}

// Strategy picks one winner among the candidates produced for a single text.
type Strategy interface {
	Resolve(candidates []Result) (Result, error)
}

// ClosestThenLongest prefers the smallest start offset, then the longest
// match at that offset. Equal spans from different lexers are ambiguous.
type ClosestThenLongest struct{}

// Resolve implements Strategy.
func (ClosestThenLongest) Resolve(candidates []Result) (Result, error) {
	if len(candidates) == 0 {
		return Result{}, ErrExhausted
	}

	minStart := candidates[0].Start
	for _, c := range candidates[1:] {
		minStart = min(minStart, c.Start)
	}
	closest := make([]Result, 0, len(candidates))
	maxLen := -1
	for _, c := range candidates {
		if c.Start == minStart {
			closest = append(closest, c)
			maxLen = max(maxLen, c.Len())
		}
	}

	longest := closest[:0]
	for _, c := range closest {
		if c.Len() == maxLen {
			longest = append(longest, c)
		}
	}

	if len(longest) > 1 {
		return Result{}, &AmbiguityError{
			Candidates: append([]Result(nil), candidates...),
			Tied:       append([]Result(nil), longest...),
		}
	}
	return longest[0], nil
}
