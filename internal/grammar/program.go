package grammar

import (
	"context"
	"fmt"

	"github.com/dlclark/regexp2"

	"github.com/zjrosen/lexkit/internal/cachemanager"
	"github.com/zjrosen/lexkit/internal/lex"
	"github.com/zjrosen/lexkit/internal/log"
	"github.com/zjrosen/lexkit/internal/textutil"
)

// Capture is a token reported by a capture rule.
type Capture struct {
	State  string `json:"state"`
	Lexer  string `json:"lexer"`
	Text   string `json:"text"`
	Offset int    `json:"offset"` // rune offset in the scanned text
	Line   int    `json:"line"`
	Column int    `json:"column"`
}

// Report is the outcome of running a program over one text.
type Report struct {
	Grammar  string    `json:"grammar"`
	Captures []Capture `json:"captures"`
	Steps    int       `json:"steps"`
	Final    string    `json:"final_state"`
}

// Texts returns the captured texts in order.
func (r Report) Texts() []string {
	out := make([]string, len(r.Captures))
	for i, c := range r.Captures {
		out[i] = c.Text
	}
	return out
}

// Program is a compiled grammar. It is safe for concurrent use.
type Program struct {
	name       string
	spec       *Spec
	machine    *lex.Machine[string]
	tokenizers map[string]*lex.Tokenizer
	captures   map[CaptureRule]bool
}

// Compile builds the tokenizers and state machine described by spec.
// Patterns go through cache when it is not nil.
func Compile(ctx context.Context, spec *Spec, cache *cachemanager.PatternCache) (*Program, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}

	p := &Program{
		name:       spec.Name,
		spec:       spec,
		tokenizers: make(map[string]*lex.Tokenizer, len(spec.Tokenizers)),
		captures:   make(map[CaptureRule]bool, len(spec.Captures)),
	}

	for _, name := range spec.TokenizerNames() {
		tok := lex.NewTokenizer()
		for _, ls := range spec.Tokenizers[name] {
			l, err := buildLexer(ctx, ls, cache)
			if err != nil {
				return nil, fmt.Errorf("tokenizer %s: %w", name, err)
			}
			tok.Add(l)
		}
		p.tokenizers[name] = tok
	}

	p.machine = lex.NewMachine(spec.Initial, p.tokenizers[spec.Default])
	for state, name := range spec.States {
		p.machine.Use(state, p.tokenizers[name])
	}

	transitions, err := spec.ParseTransitions()
	if err != nil {
		return nil, err
	}
	for _, t := range transitions {
		p.machine.On(t.From, lex.ID(t.Lexer), t.To)
	}

	rules, err := spec.ParseCaptures()
	if err != nil {
		return nil, err
	}
	for _, r := range rules {
		p.captures[r] = true
	}

	log.Debug(log.CatGrammar, "Compiled grammar", "name", spec.Name,
		"tokenizers", len(p.tokenizers), "transitions", len(transitions), "captures", len(rules))
	return p, nil
}

func buildLexer(ctx context.Context, ls LexerSpec, cache *cachemanager.PatternCache) (lex.Lexer, error) {
	if !ls.IsPattern() {
		opener, closer := []rune(ls.Open)[0], []rune(ls.Close)[0]
		return lex.NewBalancedPairLexer(lex.ID(ls.ID), opener, closer)
	}

	flags := regexp2.RegexOptions(regexp2.Multiline)
	if ls.IgnoreCase {
		flags |= regexp2.IgnoreCase
	}
	if cache == nil {
		return lex.NewPatternLexer(lex.ID(ls.ID), ls.Pattern, lex.WithFlags(flags))
	}
	re, err := cache.Compile(ctx, ls.Pattern, flags)
	if err != nil {
		return nil, fmt.Errorf("lexer %q: %w", ls.ID, err)
	}
	return lex.NewPatternLexerFromRegexp(lex.ID(ls.ID), re)
}

// Name returns the grammar name.
func (p *Program) Name() string {
	return p.name
}

// Spec returns the grammar the program was compiled from.
func (p *Program) Spec() *Spec {
	return p.spec
}

// Tokenizer returns a named tokenizer of the grammar.
func (p *Program) Tokenizer(name string) (*lex.Tokenizer, bool) {
	tok, ok := p.tokenizers[name]
	return tok, ok
}

// Machine exposes the underlying state machine.
func (p *Program) Machine() *lex.Machine[string] {
	return p.machine
}

// Run drives the grammar over text. On an ambiguity the report holds what
// was captured before the failure.
func (p *Program) Run(text string) (Report, error) {
	report := Report{Grammar: p.name, Captures: []Capture{}}

	final, err := p.machine.Run(text, func(s lex.Step[string]) {
		report.Steps++
		rule := CaptureRule{State: s.From, Lexer: string(s.Token.Lexer)}
		if !p.captures[rule] {
			return
		}
		line, col := textutil.LineCol(text, s.Offset)
		report.Captures = append(report.Captures, Capture{
			State:  s.From,
			Lexer:  rule.Lexer,
			Text:   s.Token.Text,
			Offset: s.Offset,
			Line:   line,
			Column: col,
		})
	})
	report.Final = final
	if err != nil {
		return report, fmt.Errorf("grammar %s: %w", p.name, err)
	}
	return report, nil
}
