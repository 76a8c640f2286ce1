package report

import (
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"

	"github.com/zjrosen/lexkit/internal/grammar"
)

// Diff lists captures added ("+") and removed ("-") between two scans of
// the same file. Captures are compared by lexer and text only, so edits that
// shift positions do not show up. Returns "" when nothing changed.
func Diff(prev, cur grammar.Report) string {
	dmp := diffmatchpatch.New()
	a, b, lines := dmp.DiffLinesToChars(captureLines(prev), captureLines(cur))
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(a, b, false), lines)

	var out strings.Builder
	for _, d := range diffs {
		var mark string
		switch d.Type {
		case diffmatchpatch.DiffInsert:
			mark = "+ "
		case diffmatchpatch.DiffDelete:
			mark = "- "
		default:
			continue
		}
		for _, line := range strings.SplitAfter(d.Text, "\n") {
			if line == "" {
				continue
			}
			out.WriteString(mark)
			out.WriteString(line)
		}
	}
	return out.String()
}

func captureLines(rep grammar.Report) string {
	var b strings.Builder
	for _, c := range rep.Captures {
		b.WriteString(c.Lexer)
		b.WriteByte(' ')
		b.WriteString(quote(c.Text))
		b.WriteByte('\n')
	}
	return b.String()
}
