package alignment

import (
	"fmt"
	"strconv"
	"strings"

	"bitbucket.org/Davydov/alnpat/bio"
	"bitbucket.org/Davydov/alnpat/codon"
)

// ambiguousProtein lists the amino acids compatible with B, Z and J
// as bit masks over protein states.
var ambiguousProtein = [...]int{4 + 8, 32 + 64, 512 + 1024}

// StateSpace describes how the states of an alignment are encoded.
// Derived alignments copy it from their source.
type StateSpace struct {
	Type      bio.SeqType
	NumStates int
	// Unknown is the state of gaps and fully ambiguous characters.
	Unknown bio.State
	// SequenceType is the user type specification, e.g. "CODON2".
	SequenceType string
	// Codon is set for codon data and for nucleotides translated
	// into amino acids.
	Codon *codon.Table
	// Pomo is set for polymorphism-aware data.
	Pomo *Pomo
}

// clone copies the state space. Codon tables are immutable and
// shared, PoMo compound states are copied.
func (ss StateSpace) clone() StateSpace {
	if ss.Pomo != nil {
		ss.Pomo = ss.Pomo.clone()
	}
	return ss
}

func (ss *StateSpace) codec() bio.Codec {
	return bio.Codec{Type: ss.Type, NumStates: ss.NumStates, Unknown: ss.Unknown}
}

// ConvertPomoState maps a compound PoMo state to the closest state of
// the virtual population. Other states are returned unchanged.
func (ss *StateSpace) ConvertPomoState(s bio.State) bio.State {
	if ss.Type != bio.SeqPomo || int(s) < ss.NumStates || s == ss.Unknown {
		return s
	}
	i := int(s) - ss.NumStates
	if ss.Pomo == nil || i >= len(ss.Pomo.Sampled) {
		return ss.Unknown
	}
	return ss.Pomo.convert(ss.Pomo.Sampled[i])
}

// Appearance returns the indicator vector of the definite states a
// state is compatible with.
func (ss *StateSpace) Appearance(s bio.State) []float64 {
	app := make([]float64, ss.NumStates)
	set := newStateSet(ss.NumStates)
	ss.appearanceSet(s, set)
	for i := range app {
		if set.has(i) {
			app[i] = 1
		}
	}
	return app
}

func (ss *StateSpace) appearanceSet(s bio.State, set stateSet) {
	n := ss.NumStates
	if s == ss.Unknown {
		set.fill(n)
		return
	}
	set.clear()
	if int(s) < n {
		set.add(int(s))
		return
	}
	switch ss.Type {
	case bio.SeqDNA:
		if s >= bio.UnknownDNA {
			return
		}
		bits := int(s) - (n - 1)
		for i := 0; i < n; i++ {
			if bits&(1<<uint(i)) != 0 {
				set.add(i)
			}
		}
	case bio.SeqProtein:
		if s > 22 {
			return
		}
		mask := ambiguousProtein[s-20]
		for i := 0; i < 11; i++ {
			if mask&(1<<uint(i)) != 0 {
				set.add(i)
			}
		}
	case bio.SeqPomo:
		if c := ss.ConvertPomoState(s); int(c) < n {
			set.add(int(c))
		}
	}
}

// StateString converts a state back to its textual representation.
func (ss *StateSpace) StateString(s bio.State) string {
	switch ss.Type {
	case bio.SeqPomo:
		return "POMO" + strconv.Itoa(int(s))
	case bio.SeqCodon:
		if s == ss.Unknown {
			return "---"
		}
		return ss.Codon.StateString(s)
	}
	return string(ss.codec().ConvertStateBack(s))
}

// sameStates reports why two state spaces cannot be combined, empty
// string if they can.
func (ss *StateSpace) sameStates(o *StateSpace) string {
	var b strings.Builder
	if ss.Type != o.Type {
		fmt.Fprintf(&b, "Sequence type (%v) disagrees\n", o.Type)
	}
	if ss.NumStates != o.NumStates {
		fmt.Fprintf(&b, "Number of states (%d) disagrees\n", o.NumStates)
	}
	if ss.Unknown != o.Unknown {
		fmt.Fprintf(&b, "Unknown state (%d) disagrees\n", o.Unknown)
	}
	return b.String()
}

// stateSet is a bit set over definite states.
type stateSet []uint64

func newStateSet(n int) stateSet {
	return make(stateSet, (n+63)/64)
}

func (b stateSet) add(i int) {
	b[i/64] |= 1 << uint(i%64)
}

func (b stateSet) has(i int) bool {
	return b[i/64]&(1<<uint(i%64)) != 0
}

func (b stateSet) clear() {
	for i := range b {
		b[i] = 0
	}
}

func (b stateSet) fill(n int) {
	b.clear()
	for i := 0; i < n; i++ {
		b.add(i)
	}
}

func (b stateSet) and(o stateSet) {
	for i := range b {
		b[i] &= o[i]
	}
}

func (b stateSet) empty() bool {
	for _, w := range b {
		if w != 0 {
			return false
		}
	}
	return true
}
