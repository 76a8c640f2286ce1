package lex

import "errors"

// Step describes one token consumed by a Machine run.
type Step[S comparable] struct {
	From   S
	To     S
	Token  Result
	Offset int // rune offset of Token.Start in the text passed to Run
}

// Machine drives tokenizers over a text, switching the active tokenizer by
// state. Unmapped (state, lexer) pairs reset to the initial state, so tokens
// between meaningful ones are tolerated.
type Machine[S comparable] struct {
	initial     S
	fallback    *Tokenizer
	tokenizers  map[S]*Tokenizer
	transitions map[S]map[ID]S
}

// NewMachine creates a machine starting in initial. fallback tokenizes every
// state without a tokenizer of its own.
func NewMachine[S comparable](initial S, fallback *Tokenizer) *Machine[S] {
	return &Machine[S]{
		initial:     initial,
		fallback:    fallback,
		tokenizers:  make(map[S]*Tokenizer),
		transitions: make(map[S]map[ID]S),
	}
}

// Use selects tok as the tokenizer for state.
func (m *Machine[S]) Use(state S, tok *Tokenizer) *Machine[S] {
	m.tokenizers[state] = tok
	return m
}

// On maps a token of lexer id seen in state from to state to.
func (m *Machine[S]) On(from S, id ID, to S) *Machine[S] {
	row, ok := m.transitions[from]
	if !ok {
		row = make(map[ID]S)
		m.transitions[from] = row
	}
	row[id] = to
	return m
}

// Initial returns the initial state.
func (m *Machine[S]) Initial() S {
	return m.initial
}

// Transition returns the state following a token of lexer id in state.
func (m *Machine[S]) Transition(state S, id ID) S {
	if next, ok := m.transitions[state][id]; ok {
		return next
	}
	return m.initial
}

// Tokenizer returns the tokenizer active in state.
func (m *Machine[S]) Tokenizer(state S) *Tokenizer {
	if tok, ok := m.tokenizers[state]; ok {
		return tok
	}
	return m.fallback
}

// Run consumes text from the initial state and calls visit for every token.
// It stops when the text is used up or no lexer matches, returning the final
// state and a nil error. An ambiguity stops the run and is returned as is.
func (m *Machine[S]) Run(text string, visit func(Step[S])) (S, error) {
	state := m.initial
	consumed := 0

	for text != "" {
		tok := m.Tokenizer(state)
		if tok == nil {
			return state, nil
		}
		r, err := tok.Tokenize(text)
		if errors.Is(err, ErrExhausted) {
			return state, nil
		}
		if err != nil {
			return state, err
		}

		next := m.Transition(state, r.Lexer)
		if visit != nil {
			visit(Step[S]{From: state, To: next, Token: r, Offset: consumed + r.Start})
		}
		state = next

		advance := r.End
		if r.Empty() {
			if byteOffset(text, r.Start) == len(text) {
				return state, nil
			}
			// step over one rune so an empty match cannot repeat forever
			advance = r.Start + 1
		}
		text = text[byteOffset(text, advance):]
		consumed += advance
	}
	return state, nil
}
