package bio

import (
	"errors"
	"fmt"
	"strings"
)

// SeqType is the kind of data stored in an alignment.
type SeqType int

const (
	SeqUnknown SeqType = iota
	SeqBinary
	SeqDNA
	SeqProtein
	SeqMorph
	SeqCodon
	SeqPomo
)

var seqTypeNames = map[SeqType]string{
	SeqUnknown: "UNKNOWN",
	SeqBinary:  "BIN",
	SeqDNA:     "DNA",
	SeqProtein: "AA",
	SeqMorph:   "MORPH",
	SeqCodon:   "CODON",
	SeqPomo:    "POMO",
}

func (t SeqType) String() string {
	if s, ok := seqTypeNames[t]; ok {
		return s
	}
	return "UNKNOWN"
}

// DefaultNumStates returns the number of definite states for the types
// where it does not depend on the data.
func DefaultNumStates(t SeqType) int {
	switch t {
	case SeqBinary:
		return 2
	case SeqDNA:
		return 4
	case SeqProtein:
		return 20
	}
	return 0
}

// TypeHint is a parsed user sequence type specification, e.g. "DNA",
// "CODON2" or "NT2AA".
type TypeHint struct {
	Type SeqType
	// Code is the genetic code id for CODON and NT2AA hints.
	Code string
	// NT2AA means translating nucleotides into amino acids.
	NT2AA bool
}

// ParseTypeHint parses a user sequence type specification. Empty
// string gives SeqUnknown, meaning "detect".
func ParseTypeHint(s string) (TypeHint, error) {
	u := strings.ToUpper(strings.TrimSpace(s))
	switch {
	case u == "":
		return TypeHint{Type: SeqUnknown}, nil
	case u == "BIN":
		return TypeHint{Type: SeqBinary}, nil
	case u == "DNA" || u == "NT":
		return TypeHint{Type: SeqDNA}, nil
	case u == "AA":
		return TypeHint{Type: SeqProtein}, nil
	case u == "MORPH":
		return TypeHint{Type: SeqMorph}, nil
	case strings.HasPrefix(u, "NT2AA"):
		return TypeHint{Type: SeqProtein, Code: u[5:], NT2AA: true}, nil
	case strings.HasPrefix(u, "CODON"):
		return TypeHint{Type: SeqCodon, Code: u[5:]}, nil
	}
	return TypeHint{}, fmt.Errorf("invalid sequence type %s", s)
}

// DetectSequenceType guesses data type from character classes. DNA is
// reported if more than 90% of the non-gap characters are ACGTU, then
// binary, protein and morphological data are tested the same way.
func DetectSequenceType(seqs []string) SeqType {
	var nuc, ungap, bin, alpha, digit int
	for _, seq := range seqs {
		for i := 0; i < len(seq); i++ {
			ch := seq[i]
			switch ch {
			case 'A', 'C', 'G', 'T', 'U':
				nuc++
				ungap++
				alpha++
				continue
			case '?', '-', '.':
				continue
			}
			if ch != 'N' && ch != 'X' && ch != '~' {
				ungap++
				if ch >= '0' && ch <= '9' {
					digit++
					if ch == '0' || ch == '1' {
						bin++
					}
				}
			}
			if (ch >= 'A' && ch <= 'Z') || (ch >= 'a' && ch <= 'z') {
				alpha++
			}
		}
	}
	if ungap == 0 {
		return SeqUnknown
	}
	u := float64(ungap)
	switch {
	case float64(nuc)/u > 0.9:
		return SeqDNA
	case float64(bin)/u > 0.9:
		return SeqBinary
	case float64(alpha)/u > 0.9:
		return SeqProtein
	case float64(alpha+digit)/u > 0.9:
		return SeqMorph
	}
	return SeqUnknown
}

// MorphStates returns the number of morphological states implied by
// the largest alphanumeric character.
func MorphStates(seqs []string) (int, error) {
	var max byte
	for _, seq := range seqs {
		for i := 0; i < len(seq); i++ {
			ch := seq[i]
			isAlnum := (ch >= '0' && ch <= '9') || (ch >= 'A' && ch <= 'Z') || (ch >= 'a' && ch <= 'z')
			if isAlnum && ch > max {
				max = ch
			}
		}
	}
	n := 0
	switch {
	case max >= '0' && max <= '9':
		n = int(max-'0') + 1
	case max >= 'A' && max <= 'V':
		n = int(max-'A') + 11
	}
	if n < 2 || n > 32 {
		return n, errors.New("invalid number of states")
	}
	return n, nil
}
