package lex

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

type templateState int

const (
	stateInitial templateState = iota
	stateSeenTemplate
	stateSeenAngle
	stateExpectIdentifier
)

// newTemplateMachine recognizes `template<...> struct Name` and keeps the
// identifier lexer out of keyword context, where it would tie with keywords.
func newTemplateMachine() *Machine[templateState] {
	preamble := NewTokenizer().Add(
		MustPatternLexer("template", "template"),
		MustPatternLexer("struct", "struct"),
		MustBalancedPairLexer("angle", '<', '>'),
	)
	identifier := NewTokenizer().Add(
		MustPatternLexer("identifier", "[a-zA-Z0-9]+"),
	)

	return NewMachine(stateInitial, preamble).
		Use(stateExpectIdentifier, identifier).
		On(stateInitial, "template", stateSeenTemplate).
		On(stateSeenTemplate, "angle", stateSeenAngle).
		On(stateSeenAngle, "struct", stateExpectIdentifier).
		On(stateExpectIdentifier, "identifier", stateInitial)
}

func TestMachine_TemplateIdentifier(t *testing.T) {
	m := newTemplateMachine()

	var steps []Step[templateState]
	var identifiers []string
	final, err := m.Run("template<X> struct Foo", func(s Step[templateState]) {
		steps = append(steps, s)
		if s.From == stateExpectIdentifier && s.Token.Lexer == "identifier" {
			identifiers = append(identifiers, s.Token.Text)
		}
	})

	require.NoError(t, err)
	require.Equal(t, stateInitial, final)
	require.Equal(t, []string{"Foo"}, identifiers)

	require.Len(t, steps, 4)
	require.Equal(t, []int{0, 8, 12, 19}, []int{steps[0].Offset, steps[1].Offset, steps[2].Offset, steps[3].Offset})
	require.Equal(t, []templateState{stateSeenTemplate, stateSeenAngle, stateExpectIdentifier, stateInitial},
		[]templateState{steps[0].To, steps[1].To, steps[2].To, steps[3].To})
}

func TestMachine_ResetsOnUnexpectedToken(t *testing.T) {
	m := newTemplateMachine()

	var identifiers []string
	final, err := m.Run("template struct Bar template<T> struct Baz", func(s Step[templateState]) {
		if s.From == stateExpectIdentifier {
			identifiers = append(identifiers, s.Token.Text)
		}
	})

	require.NoError(t, err)
	require.Equal(t, stateInitial, final)
	require.Equal(t, []string{"Baz"}, identifiers)
}

func TestMachine_EndsMidPattern(t *testing.T) {
	m := newTemplateMachine()

	final, err := m.Run("template<X> struct", nil)
	require.NoError(t, err)
	require.Equal(t, stateExpectIdentifier, final)
}

func TestMachine_CatchAllConsumesNoise(t *testing.T) {
	tok := NewTokenizer().Add(
		MustPatternLexer("any", `(?s).`),
		MustPatternLexer("template", "template"),
	)
	m := NewMachine(stateInitial, tok).On(stateInitial, "template", stateSeenTemplate)

	var steps []Step[templateState]
	final, err := m.Run("%$ template", func(s Step[templateState]) {
		steps = append(steps, s)
	})

	require.NoError(t, err)
	require.Equal(t, stateSeenTemplate, final)
	require.Len(t, steps, 4)
	for _, s := range steps[:3] {
		require.Equal(t, ID("any"), s.Token.Lexer)
		require.Equal(t, stateInitial, s.From)
		require.Equal(t, stateInitial, s.To)
	}
	require.Equal(t, "template", steps[3].Token.Text)
	require.Equal(t, 3, steps[3].Offset)
}

func TestMachine_ExhaustedWithoutCatchAll(t *testing.T) {
	m := newTemplateMachine()

	visited := 0
	final, err := m.Run("%%% nothing here", func(Step[templateState]) { visited++ })
	require.NoError(t, err)
	require.Equal(t, stateInitial, final)
	require.Zero(t, visited)
}

func TestMachine_AmbiguityStopsRun(t *testing.T) {
	tok := NewTokenizer().Add(
		MustPatternLexer("word", `[a-z]+`),
		MustPatternLexer("template", "template"),
	)
	m := NewMachine(stateInitial, tok).On(stateInitial, "word", stateSeenTemplate)

	visited := 0
	final, err := m.Run("abc template", func(Step[templateState]) { visited++ })

	var amb *AmbiguityError
	require.True(t, errors.As(err, &amb))
	require.Equal(t, 1, visited)
	require.Equal(t, stateSeenTemplate, final)
}

type emptyAt struct{ atEnd bool }

func (s emptyAt) Resolve(candidates []Result) (Result, error) {
	r := candidates[0]
	if s.atEnd {
		return Result{Start: r.End, End: r.End, Lexer: "empty"}, nil
	}
	return Result{Start: r.Start, End: r.Start, Lexer: "empty"}, nil
}

func TestMachine_ZeroWidthMakesProgress(t *testing.T) {
	tok := NewTokenizer(WithStrategy(emptyAt{})).Add(MustPatternLexer("any", `(?s).`))
	m := NewMachine(stateInitial, tok)

	var offsets []int
	_, err := m.Run("aéc", func(s Step[templateState]) {
		offsets = append(offsets, s.Offset)
	})
	require.NoError(t, err)
	require.Equal(t, []int{0, 1, 2}, offsets)
}

func TestMachine_ZeroWidthAtEndStops(t *testing.T) {
	tok := NewTokenizer(WithStrategy(emptyAt{atEnd: true})).Add(MustPatternLexer("all", `(?s).+`))
	m := NewMachine(stateInitial, tok)

	visited := 0
	_, err := m.Run("abc", func(Step[templateState]) { visited++ })
	require.NoError(t, err)
	require.Equal(t, 1, visited)
}

func TestMachine_TransitionAndTokenizer(t *testing.T) {
	m := newTemplateMachine()

	require.Equal(t, stateInitial, m.Initial())
	require.Equal(t, stateSeenTemplate, m.Transition(stateInitial, "template"))
	require.Equal(t, stateInitial, m.Transition(stateSeenTemplate, "struct"))
	require.Equal(t, stateInitial, m.Transition(templateState(99), "template"))

	require.Len(t, m.Tokenizer(stateExpectIdentifier).Lexers(), 1)
	require.Len(t, m.Tokenizer(stateSeenAngle).Lexers(), 3)
}

func TestMachine_NilFallback(t *testing.T) {
	m := NewMachine[templateState](stateInitial, nil)

	final, err := m.Run("text", nil)
	require.NoError(t, err)
	require.Equal(t, stateInitial, final)
}
