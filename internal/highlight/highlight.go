// Package highlight renders scanned text with a color per lexer id.
package highlight

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/zjrosen/lexkit/internal/lex"
)

// Palette maps lexer ids to styles.
type Palette struct {
	styles map[lex.ID]lipgloss.Style
	noise  lex.ID
}

// NewPalette assigns a color to each id, cycling when there are more ids than colors.
// Tokens produced by the noise lexer are rendered dim.
func NewPalette(noise lex.ID, ids ...lex.ID) *Palette {
	p := &Palette{styles: make(map[lex.ID]lipgloss.Style, len(ids)), noise: noise}
	for i, id := range ids {
		p.styles[id] = lipgloss.NewStyle().Foreground(colors[i%len(colors)])
	}
	return p
}

// Bold marks ids as keywords.
func (p *Palette) Bold(ids ...lex.ID) *Palette {
	for _, id := range ids {
		p.styles[id] = p.Style(id).Inherit(KeywordStyle)
	}
	return p
}

// Style returns the style for id. Tabs are never converted.
func (p *Palette) Style(id lex.ID) lipgloss.Style {
	style := DefaultStyle
	if id == p.noise && id != "" {
		style = NoiseStyle
	} else if s, ok := p.styles[id]; ok {
		style = s
	}
	return style.TabWidth(lipgloss.NoTabConversion)
}

// Render writes text with each token styled. Tokens are in rune offsets,
// sorted and non-overlapping; overlapping tokens are skipped. Text between
// tokens is kept unstyled.
func (p *Palette) Render(text string, tokens []lex.Result) string {
	if text == "" {
		return ""
	}

	runes := []rune(text)
	var out strings.Builder
	last := 0
	for _, tok := range tokens {
		if tok.Start < last || tok.End > len(runes) || tok.Empty() {
			continue
		}
		if tok.Start > last {
			out.WriteString(string(runes[last:tok.Start]))
		}
		writeStyled(&out, p.Style(tok.Lexer), string(runes[tok.Start:tok.End]))
		last = tok.End
	}
	if last < len(runes) {
		out.WriteString(string(runes[last:]))
	}
	return out.String()
}

// writeStyled renders each line of s on its own. lipgloss pads multi-line
// blocks to a common width, which would change the text.
func writeStyled(out *strings.Builder, style lipgloss.Style, s string) {
	for i, line := range strings.Split(s, "\n") {
		if i > 0 {
			out.WriteByte('\n')
		}
		cr := strings.HasSuffix(line, "\r")
		line = strings.TrimSuffix(line, "\r")
		if line != "" {
			out.WriteString(style.Render(line))
		}
		if cr {
			out.WriteByte('\r')
		}
	}
}
