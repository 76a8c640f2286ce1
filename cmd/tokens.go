package cmd

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/x/ansi"
	"github.com/mattn/go-runewidth"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/zjrosen/lexkit/internal/highlight"
	"github.com/zjrosen/lexkit/internal/lex"
	"github.com/zjrosen/lexkit/internal/textutil"
)

// noiseID names the catch-all lexer used by the tokens command.
const noiseID lex.ID = "noise"

var tokensTokenizer string

var tokensCmd = &cobra.Command{
	Use:   "tokens [file]",
	Short: "Print every token one tokenizer of the grammar finds",
	Long: `Tokenize a file with one named tokenizer of the grammar. A catch-all
lexer picks up single characters no other lexer matches, so the whole
text is covered. Whitespace between tokens is skipped.

Examples:
  lexkit tokens --tokenizer preamble include/Callable.hpp
  lexkit tokens --color < include/Callable.hpp`,
	Args: cobra.MaximumNArgs(1),
	RunE: runTokens,
}

func init() {
	tokensCmd.Flags().StringVarP(&tokensTokenizer, "tokenizer", "t", "",
		"tokenizer name (default: the grammar's default tokenizer)")
	tokensCmd.Flags().String("grammar", "", "grammar file (default: built-in cpp-template grammar)")
	tokensCmd.Flags().Bool("color", false, "print the text with tokens highlighted")
	_ = viper.BindPFlag("output.color", tokensCmd.Flags().Lookup("color"))
	rootCmd.AddCommand(tokensCmd)
}

func runTokens(cmd *cobra.Command, args []string) error {
	path := ""
	if len(args) == 1 {
		path = args[0]
	}
	text, err := readInput(cmd, path)
	if err != nil {
		return err
	}

	grammarPath := cfg.Grammar
	if cmd.Flags().Changed("grammar") {
		grammarPath, _ = cmd.Flags().GetString("grammar")
	}
	program, err := loadProgram(commandContext(cmd), grammarPath)
	if err != nil {
		return err
	}

	spec := program.Spec()
	name := tokensTokenizer
	if name == "" {
		name = spec.Default
	}
	base, ok := program.Tokenizer(name)
	if !ok {
		return fmt.Errorf("grammar %s has no tokenizer %q (have %s)",
			program.Name(), name, strings.Join(spec.TokenizerNames(), ", "))
	}

	tokens, err := tokenize(base, text)
	if err != nil {
		return err
	}

	if cfg.Output.Color {
		palette := tokenPalette(base, spec.Keywords(name))
		_, err := io.WriteString(cmd.OutOrStdout(), palette.Render(text, tokens))
		return err
	}
	return writeTokens(cmd.OutOrStdout(), text, tokens)
}

// tokenPalette colors every lexer of base and bolds the keyword ids.
func tokenPalette(base *lex.Tokenizer, keywords []string) *highlight.Palette {
	ids := make([]lex.ID, 0, len(base.Lexers()))
	for _, l := range base.Lexers() {
		ids = append(ids, l.ID())
	}
	bold := make([]lex.ID, len(keywords))
	for i, k := range keywords {
		bold[i] = lex.ID(k)
	}
	return highlight.NewPalette(noiseID, ids...).Bold(bold...)
}

// tokenize runs base plus a catch-all over text and returns tokens in
// absolute rune offsets.
func tokenize(base *lex.Tokenizer, text string) ([]lex.Result, error) {
	tok := lex.NewTokenizer(lex.WithStrategy(preferNamed{noise: noiseID})).
		Add(base.Lexers()...).
		Add(lex.MustPatternLexer(noiseID, `\S`))

	var tokens []lex.Result
	_, err := lex.NewMachine("tokens", tok).Run(text, func(s lex.Step[string]) {
		t := s.Token
		t.Start, t.End = s.Offset, s.Offset+t.Len()
		tokens = append(tokens, t)
	})
	return tokens, err
}

// maxTokenWidth bounds each printed token; balanced spans can be long.
const maxTokenWidth = 100

func writeTokens(w io.Writer, text string, tokens []lex.Result) error {
	pos := make([]string, len(tokens))
	width := 0
	for i, t := range tokens {
		line, col := textutil.LineCol(text, t.Start)
		pos[i] = fmt.Sprintf("%d:%d", line, col)
		width = max(width, runewidth.StringWidth(pos[i]))
	}
	for i, t := range tokens {
		tok := ansi.Truncate(t.String(), maxTokenWidth, "…")
		if _, err := fmt.Fprintf(w, "%s  %s\n", runewidth.FillRight(pos[i], width), tok); err != nil {
			return err
		}
	}
	return nil
}

// preferNamed resolves like closest-then-longest, but a tie between the
// catch-all and exactly one named lexer goes to the named lexer.
type preferNamed struct {
	noise lex.ID
}

func (p preferNamed) Resolve(candidates []lex.Result) (lex.Result, error) {
	r, err := lex.ClosestThenLongest{}.Resolve(candidates)

	var amb *lex.AmbiguityError
	if !errors.As(err, &amb) {
		return r, err
	}
	var named []lex.Result
	for _, t := range amb.Tied {
		if t.Lexer != p.noise {
			named = append(named, t)
		}
	}
	if len(named) == 1 {
		return named[0], nil
	}
	return lex.Result{}, err
}
