package report

import (
	"strings"
	"testing"

	"pgregory.net/rapid"

	"github.com/zjrosen/lexkit/internal/grammar"
)

func genReport() *rapid.Generator[grammar.Report] {
	return rapid.Custom(func(t *rapid.T) grammar.Report {
		texts := rapid.SliceOfN(rapid.StringMatching(`[A-Za-z_][A-Za-z0-9_]{0,6}`), 0, 12).Draw(t, "texts")
		rep := grammar.Report{}
		for i, text := range texts {
			rep.Captures = append(rep.Captures, grammar.Capture{Lexer: "identifier", Text: text, Line: i + 1, Column: 1})
		}
		return rep
	})
}

func TestDiff_SelfIsEmpty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		rep := genReport().Draw(t, "report")
		if d := Diff(rep, rep); d != "" {
			t.Fatalf("self diff not empty: %q", d)
		}
	})
}

func TestDiff_CountsBalance(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		prev := genReport().Draw(t, "prev")
		cur := genReport().Draw(t, "cur")

		var added, removed int
		for _, line := range strings.Split(Diff(prev, cur), "\n") {
			switch {
			case strings.HasPrefix(line, "+ "):
				added++
			case strings.HasPrefix(line, "- "):
				removed++
			}
		}
		// Every unchanged line is counted in both reports.
		if len(prev.Captures)-removed != len(cur.Captures)-added {
			t.Fatalf("unbalanced diff: prev=%d removed=%d cur=%d added=%d",
				len(prev.Captures), removed, len(cur.Captures), added)
		}
	})
}
