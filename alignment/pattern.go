package alignment

import (
	"bitbucket.org/Davydov/alnpat/bio"
)

// Pattern is one alignment column together with the number of sites
// sharing it and per-column statistics.
type Pattern struct {
	States []bio.State
	Freq   int
	// NumChars is the number of distinct definite states.
	NumChars int
	// Const is set if all the non-gap entries are the same state.
	Const bool
	// Informative is set if at least two states are observed at
	// least twice (parsimony-informative).
	Informative bool
	// Invariant is set if some state is compatible with every
	// entry.
	Invariant bool
	// ConstChar is the shared state of a constant pattern.
	ConstChar bio.State
}

// NewPattern returns a pattern of n equal states.
func NewPattern(n int, s bio.State) Pattern {
	states := make([]bio.State, n)
	for i := range states {
		states[i] = s
	}
	return Pattern{States: states}
}

// Copy returns a pattern not sharing the state slice.
func (p *Pattern) Copy() Pattern {
	c := *p
	c.States = append([]bio.State(nil), p.States...)
	return c
}

// Hash returns a position-sensitive hash of the states.
func (p *Pattern) Hash() uint64 {
	return hashStates(p.States)
}

// Equal tests structural equality of two patterns.
func (p *Pattern) Equal(o *Pattern) bool {
	return equalStates(p.States, o.States)
}

// IsAllGaps tests whether every entry is unknown.
func (p *Pattern) IsAllGaps(unknown bio.State) bool {
	for _, s := range p.States {
		if s != unknown {
			return false
		}
	}
	return true
}

// GapChars returns the number of unknown entries.
func (p *Pattern) GapChars(unknown bio.State) int {
	n := 0
	for _, s := range p.States {
		if s == unknown {
			n++
		}
	}
	return n
}

// AmbiguousChars returns the number of entries which are not
// definite states.
func (p *Pattern) AmbiguousChars(numStates int) int {
	n := 0
	for _, s := range p.States {
		if int(s) >= numStates {
			n++
		}
	}
	return n
}

func adjustHash(h, v uint64) uint64 {
	return h ^ (v + 0x9e3779b9 + (h << 6) + (h >> 2))
}

func hashStates(states []bio.State) uint64 {
	var h uint64
	for _, s := range states {
		h = adjustHash(h, uint64(s))
	}
	return h
}

func equalStates(a, b []bio.State) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// ComputeConst sets the derived statistics of the pattern. It only
// reads the states, so calling it twice gives the same flags.
func (ss *StateSpace) ComputeConst(p *Pattern) {
	n := ss.NumStates
	counts := make([]int, n)
	common := newStateSet(n)
	common.fill(n)
	app := newStateSet(n)

	p.Const = true
	p.ConstChar = ss.Unknown
	for _, s := range p.States {
		if d := ss.ConvertPomoState(s); int(d) < n {
			counts[d]++
		}
		if s != ss.Unknown {
			if p.ConstChar == ss.Unknown {
				p.ConstChar = s
			} else if s != p.ConstChar {
				p.Const = false
			}
		}
		ss.appearanceSet(s, app)
		common.and(app)
	}

	p.NumChars = 0
	twice := 0
	for _, c := range counts {
		if c > 0 {
			p.NumChars++
		}
		if c >= 2 {
			twice++
		}
	}
	p.Informative = twice >= 2
	p.Invariant = !common.empty()
}
