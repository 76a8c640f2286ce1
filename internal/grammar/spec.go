// Package grammar loads YAML descriptions of tokenizers and state machines
// and compiles them into runnable programs over the lex engine.
package grammar

import (
	_ "embed"
	"fmt"
	"os"
	"sort"
	"unicode/utf8"

	"gopkg.in/yaml.v3"

	"github.com/zjrosen/lexkit/internal/log"
	"github.com/zjrosen/lexkit/internal/textutil"
)

//go:embed default.yaml
var defaultGrammar []byte

// LexerSpec describes one lexer: either a pattern or an open/close pair.
type LexerSpec struct {
	ID         string `yaml:"id"`
	Pattern    string `yaml:"pattern,omitempty"`
	Open       string `yaml:"open,omitempty"`
	Close      string `yaml:"close,omitempty"`
	IgnoreCase bool   `yaml:"ignore_case,omitempty"`
	Keyword    bool   `yaml:"keyword,omitempty"`
}

// IsPattern reports whether the lexer is a pattern lexer.
func (l LexerSpec) IsPattern() bool {
	return l.Pattern != ""
}

// Spec is the YAML form of a grammar.
type Spec struct {
	Name        string                 `yaml:"name"`
	Initial     string                 `yaml:"initial"`
	Default     string                 `yaml:"default"`
	Tokenizers  map[string][]LexerSpec `yaml:"tokenizers"`
	States      map[string]string      `yaml:"states,omitempty"`
	Transitions []string               `yaml:"transitions,omitempty"`
	Captures    []string               `yaml:"captures,omitempty"`
}

// Transition is a parsed "from lexer to" line.
type Transition struct {
	From, Lexer, To string
}

// CaptureRule is a parsed "state lexer" line.
type CaptureRule struct {
	State, Lexer string
}

// Default returns the built-in cpp-template grammar.
func Default() *Spec {
	spec, err := Parse(defaultGrammar)
	if err != nil {
		panic(fmt.Sprintf("built-in grammar: %v", err))
	}
	return spec
}

// Load reads and validates a grammar file.
func Load(path string) (*Spec, error) {
	data, err := os.ReadFile(path) //nolint:gosec // G304: grammar path comes from the user
	if err != nil {
		return nil, fmt.Errorf("reading grammar: %w", err)
	}
	spec, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("grammar %s: %w", path, err)
	}
	log.Debug(log.CatGrammar, "Loaded grammar", "path", path, "name", spec.Name)
	return spec, nil
}

// Parse decodes and validates a grammar document.
func Parse(data []byte) (*Spec, error) {
	var spec Spec
	if err := yaml.Unmarshal(data, &spec); err != nil {
		return nil, fmt.Errorf("parsing grammar: %w", err)
	}
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	return &spec, nil
}

// Marshal encodes the spec back to YAML.
func (s *Spec) Marshal() ([]byte, error) {
	return yaml.Marshal(s)
}

// Validate checks references and lexer definitions.
func (s *Spec) Validate() error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Initial == "" {
		return fmt.Errorf("initial state is required")
	}
	if len(s.Tokenizers) == 0 {
		return fmt.Errorf("at least one tokenizer is required")
	}
	if _, ok := s.Tokenizers[s.Default]; !ok {
		return fmt.Errorf("default tokenizer %q is not defined", s.Default)
	}

	for _, name := range s.TokenizerNames() {
		seen := make(map[string]bool)
		for i, l := range s.Tokenizers[name] {
			if err := l.validate(); err != nil {
				return fmt.Errorf("tokenizer %s: lexer %d: %w", name, i, err)
			}
			if seen[l.ID] {
				return fmt.Errorf("tokenizer %s: duplicate lexer id %q", name, l.ID)
			}
			seen[l.ID] = true
		}
	}

	for state, tok := range s.States {
		if _, ok := s.Tokenizers[tok]; !ok {
			return fmt.Errorf("state %s: tokenizer %q is not defined", state, tok)
		}
	}
	if _, err := s.ParseTransitions(); err != nil {
		return err
	}
	if _, err := s.ParseCaptures(); err != nil {
		return err
	}
	return nil
}

func (l LexerSpec) validate() error {
	if l.ID == "" {
		return fmt.Errorf("id is required")
	}
	pair := l.Open != "" || l.Close != ""
	switch {
	case l.IsPattern() && pair:
		return fmt.Errorf("%s: pattern and open/close are exclusive", l.ID)
	case !l.IsPattern() && !pair:
		return fmt.Errorf("%s: pattern or open/close is required", l.ID)
	case pair && (utf8.RuneCountInString(l.Open) != 1 || utf8.RuneCountInString(l.Close) != 1):
		return fmt.Errorf("%s: open and close must be single characters", l.ID)
	}
	return nil
}

// TokenizerNames returns the tokenizer names in sorted order.
func (s *Spec) TokenizerNames() []string {
	names := make([]string, 0, len(s.Tokenizers))
	for name := range s.Tokenizers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Keywords returns the ids of the lexers marked as keywords in tokenizer.
func (s *Spec) Keywords(tokenizer string) []string {
	var ids []string
	for _, l := range s.Tokenizers[tokenizer] {
		if l.Keyword {
			ids = append(ids, l.ID)
		}
	}
	return ids
}

// ParseTransitions splits every transition line into its three fields.
func (s *Spec) ParseTransitions() ([]Transition, error) {
	out := make([]Transition, 0, len(s.Transitions))
	for i, line := range s.Transitions {
		f := words(line)
		if len(f) != 3 {
			return nil, fmt.Errorf("transition %d: want \"from lexer to\", got %q", i, line)
		}
		out = append(out, Transition{From: f[0], Lexer: f[1], To: f[2]})
	}
	return out, nil
}

// ParseCaptures splits every capture line into state and lexer.
func (s *Spec) ParseCaptures() ([]CaptureRule, error) {
	out := make([]CaptureRule, 0, len(s.Captures))
	for i, line := range s.Captures {
		f := words(line)
		if len(f) != 2 {
			return nil, fmt.Errorf("capture %d: want \"state lexer\", got %q", i, line)
		}
		out = append(out, CaptureRule{State: f[0], Lexer: f[1]})
	}
	return out, nil
}

// words splits on whitespace, dropping the empty edge fields.
func words(line string) []string {
	var out []string
	for _, f := range textutil.Fields(line) {
		if f != "" {
			out = append(out, f)
		}
	}
	return out
}
