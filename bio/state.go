package bio

import "strings"

// State is a compact integer character state. Definite states are
// 0..NumStates-1, larger values encode ambiguity, the unknown sentinel
// or polymorphism compounds.
type State uint32

// StateInvalid marks a character which could not be parsed. It is
// never merged with the unknown state.
const StateInvalid = ^State(0)

const (
	// UnknownDNA is the unknown state for nucleotide data. States 4..17
	// are IUPAC ambiguity codes (bitmask+3).
	UnknownDNA State = 18
	// UnknownProtein is the unknown state for amino acid data. States
	// 20, 21 and 22 are B, Z and J.
	UnknownProtein State = 23
)

const (
	// SymbolsProtein lists amino acids in state order, X last.
	SymbolsProtein = "ARNDCQEGHILKMFPSTWYVX"
	// SymbolsMorph lists morphological states in state order.
	SymbolsMorph = "0123456789ABCDEFGHIJKLMNOPQRSTUV"
)

// dnaMap is searched in order; T comes before U so that state 3 is
// printed as T.
var dnaMap = [...]struct {
	ch    byte
	state State
}{
	{'A', 0},
	{'C', 1},
	{'G', 2},
	{'T', 3},
	{'U', 3},
	{'R', 1 + 4 + 3},
	{'Y', 2 + 8 + 3},
	{'W', 1 + 8 + 3},
	{'S', 2 + 4 + 3},
	{'M', 1 + 2 + 3},
	{'K', 4 + 8 + 3},
	{'B', 2 + 4 + 8 + 3},
	{'H', 1 + 2 + 8 + 3},
	{'D', 1 + 4 + 8 + 3},
	{'V', 1 + 2 + 4 + 3},
}

// IsGapChar reports characters which always mean a missing state.
func IsGapChar(ch byte) bool {
	return ch == '?' || ch == '-' || ch == '.' || ch == '~'
}

// UnknownState returns the unknown sentinel for a sequence type.
func UnknownState(t SeqType, numStates int) State {
	switch t {
	case SeqDNA:
		return UnknownDNA
	case SeqProtein:
		return UnknownProtein
	}
	return State(numStates)
}

// Codec converts characters to states and back for the plain
// (non-codon, non-polymorphic) sequence types.
type Codec struct {
	Type      SeqType
	NumStates int
	Unknown   State
}

// NewCodec creates a codec with the unknown state of the type.
func NewCodec(t SeqType, numStates int) Codec {
	return Codec{Type: t, NumStates: numStates, Unknown: UnknownState(t, numStates)}
}

// ConvertState converts a character to a state. Gaps and missing data
// become the unknown state; unrecognized characters StateInvalid.
func (c Codec) ConvertState(ch byte) State {
	if IsGapChar(ch) {
		return c.Unknown
	}
	if ch >= 'a' && ch <= 'z' {
		ch -= 'a' - 'A'
	}
	switch c.Type {
	case SeqBinary:
		switch ch {
		case '0':
			return 0
		case '1':
			return 1
		}
		return StateInvalid
	case SeqDNA, SeqCodon:
		if ch == 'O' || ch == 'N' || ch == 'X' {
			return c.Unknown
		}
		for _, e := range dnaMap {
			if e.ch == ch {
				return e.state
			}
		}
		return StateInvalid
	case SeqProtein:
		switch ch {
		case 'B':
			return 20
		case 'Z':
			return 21
		case 'J':
			return 22
		case '*', 'U', 'O':
			// stop codon and the rare amino acids
			return c.Unknown
		}
		i := strings.IndexByte(SymbolsProtein, ch)
		if i < 0 {
			return StateInvalid
		}
		if i < 20 {
			return State(i)
		}
		return c.Unknown
	case SeqMorph:
		i := strings.IndexByte(SymbolsMorph, ch)
		if i < 0 || (c.NumStates > 0 && i >= c.NumStates) {
			return StateInvalid
		}
		return State(i)
	}
	return StateInvalid
}

// ConvertStateBack converts a state to a character: '-' for unknown,
// '?' for invalid or unprintable states.
func (c Codec) ConvertStateBack(s State) byte {
	if s == c.Unknown {
		return '-'
	}
	if s == StateInvalid {
		return '?'
	}
	switch c.Type {
	case SeqBinary:
		switch s {
		case 0:
			return '0'
		case 1:
			return '1'
		}
		return '?'
	case SeqDNA:
		for _, e := range dnaMap {
			if e.state == s {
				return e.ch
			}
		}
		return '?'
	case SeqProtein:
		switch {
		case s < 20:
			return SymbolsProtein[s]
		case s == 20:
			return 'B'
		case s == 21:
			return 'Z'
		case s == 22:
			return 'J'
		}
		return '-'
	case SeqMorph:
		if int(s) < len(SymbolsMorph) {
			return SymbolsMorph[s]
		}
		return '?'
	}
	return '*'
}
