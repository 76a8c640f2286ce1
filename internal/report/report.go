// Package report prints grammar reports as aligned text or JSON and diffs
// successive scans of the same file.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/mattn/go-runewidth"

	"github.com/zjrosen/lexkit/internal/grammar"
)

// Format selects the output encoding.
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
)

// ParseFormat accepts "" as text.
func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case "", FormatText:
		return FormatText, nil
	case FormatJSON:
		return FormatJSON, nil
	}
	return "", fmt.Errorf("unknown output format %q", s)
}

// File is the report for one scanned file.
type File struct {
	Path   string         `json:"file"`
	Report grammar.Report `json:"report"`
	Err    string         `json:"error,omitempty"`
}

// Write prints files in the given format.
func Write(w io.Writer, format Format, files []File) error {
	if format == FormatJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(files)
	}
	for i, f := range files {
		if i > 0 {
			if _, err := io.WriteString(w, "\n"); err != nil {
				return err
			}
		}
		if _, err := io.WriteString(w, Text(f)); err != nil {
			return err
		}
	}
	return nil
}

// Text renders one file report as a header line and an aligned capture table.
func Text(f File) string {
	var b strings.Builder

	fmt.Fprintf(&b, "%s  %s  %d captures  %d steps  final=%s\n",
		f.Path, f.Report.Grammar, len(f.Report.Captures), f.Report.Steps, f.Report.Final)
	if f.Err != "" {
		fmt.Fprintf(&b, "  error: %s\n", f.Err)
	}
	if len(f.Report.Captures) == 0 {
		return b.String()
	}

	rows := make([][3]string, len(f.Report.Captures))
	var widths [3]int
	for i, c := range f.Report.Captures {
		rows[i] = [3]string{fmt.Sprintf("%d:%d", c.Line, c.Column), c.State, c.Lexer}
		for j, cell := range rows[i] {
			widths[j] = max(widths[j], runewidth.StringWidth(cell))
		}
	}
	for i, c := range f.Report.Captures {
		b.WriteString("  ")
		for j, cell := range rows[i] {
			b.WriteString(runewidth.FillRight(cell, widths[j]))
			b.WriteString("  ")
		}
		b.WriteString(quote(c.Text))
		b.WriteByte('\n')
	}
	return b.String()
}

// quote escapes control characters so each capture stays on one line.
func quote(s string) string {
	if !strings.ContainsAny(s, "\n\r\t") {
		return s
	}
	return strings.NewReplacer("\n", `\n`, "\r", `\r`, "\t", `\t`).Replace(s)
}
