// Package codon maps nucleotide triplets to compact codon states for a
// given genetic code and computes codon frequencies.
package codon

import (
	"bytes"

	"bitbucket.org/Davydov/alnpat/bio"
)

// NCodon is the number of raw codons (including stop codons).
const NCodon = 64

// Table is the codon state space of one genetic code. Raw codons are
// numbered 0..63 (c1*16+c2*4+c3 with ACGT order); states number the
// non-stop codons in raw order.
type Table struct {
	Code *bio.GeneticCode
	// NT2AA means codons are translated into amino acid states.
	NT2AA bool
	// CodonTable maps a state to the raw codon.
	CodonTable []int
	// NonStop maps a raw codon to a state, bio.StateInvalid for stop
	// codons.
	NonStop []bio.State
	// NumStates is the number of non-stop codons, or the number of
	// distinct amino acids for NT2AA.
	NumStates int
	aaState   [256]bio.State
}

// New builds a codon table for the genetic code.
func New(code *bio.GeneticCode, nt2aa bool) *Table {
	t := &Table{
		Code:    code,
		NT2AA:   nt2aa,
		NonStop: make([]bio.State, NCodon),
	}
	proteins := make(map[byte]bool, 21)
	for c := 0; c < NCodon; c++ {
		aa := code.Table[c]
		if aa == '*' {
			t.NonStop[c] = bio.StateInvalid
			continue
		}
		proteins[aa] = true
		t.NonStop[c] = bio.State(len(t.CodonTable))
		t.CodonTable = append(t.CodonTable, c)
	}
	prot := bio.NewCodec(bio.SeqProtein, 20)
	for i := range t.aaState {
		t.aaState[i] = prot.ConvertState(byte(i))
	}
	if nt2aa {
		t.NumStates = len(proteins)
	} else {
		t.NumStates = len(t.CodonTable)
	}
	return t
}

// Raw returns the raw codon number for three definite nucleotide
// states.
func Raw(c1, c2, c3 bio.State) int {
	return int(c1)*16 + int(c2)*4 + int(c3)
}

// IsStop tests if a raw codon is a stop codon.
func (t *Table) IsStop(raw int) bool {
	return t.Code.Table[raw] == '*'
}

// State returns the alignment state of a raw non-stop codon: the codon
// state, or the amino acid state for NT2AA.
func (t *Table) State(raw int) bio.State {
	if t.NT2AA {
		return t.aaState[t.Code.Table[raw]]
	}
	return t.NonStop[raw]
}

// AminoAcid returns the amino acid letter of a codon state.
func (t *Table) AminoAcid(s bio.State) byte {
	return t.Code.Table[t.CodonTable[s]]
}

// AminoAcidState returns the protein state of a codon state.
func (t *Table) AminoAcidState(s bio.State) bio.State {
	return t.aaState[t.AminoAcid(s)]
}

// StateString returns the nucleotide triplet of a codon state, "???"
// if the state is not a codon.
func (t *Table) StateString(s bio.State) string {
	if int(s) >= len(t.CodonTable) {
		return "???"
	}
	return bio.CodonString(t.CodonTable[s])
}

func (t *Table) String() string {
	var b bytes.Buffer
	b.WriteString("<CodonTable ")
	b.WriteString(t.Code.String())
	for s, c := range t.CodonTable {
		if s%8 == 0 {
			b.WriteString("\n ")
		}
		b.WriteString(" " + bio.CodonString(c) + ":" + string(t.Code.Table[c]))
	}
	b.WriteString(">")
	return b.String()
}
