package alignment

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"bitbucket.org/Davydov/alnpat/bio"
)

// Sampling is the way PoMo states are derived from allele counts.
type Sampling int

const (
	// SamplingWeightedBinomial keeps observed counts as compound
	// states, weighted binomially by the model.
	SamplingWeightedBinomial Sampling = iota
	// SamplingWeightedHyper keeps compound states, weighted
	// hypergeometrically.
	SamplingWeightedHyper
	// SamplingSampled draws N individuals from the counts once.
	SamplingSampled
)

func (s Sampling) String() string {
	switch s {
	case SamplingWeightedBinomial:
		return "weighted binomial"
	case SamplingWeightedHyper:
		return "weighted hypergeometric"
	case SamplingSampled:
		return "sampled"
	}
	return "unknown"
}

// DefaultPomoN is the default virtual population size.
const DefaultPomoN = 9

// maxAlleleCount is the largest allele count which fits a compound
// state.
const maxAlleleCount = 16384

// Pomo holds the virtual population settings and the compound states
// of a polymorphism-aware alignment.
type Pomo struct {
	// N is the virtual population size.
	N        int
	Sampling Sampling
	// Sampled lists compound states. Alignment state NumStates+i
	// means Sampled[i]. Each entry packs two alleles with their
	// counts as id1|c1<<2 | (id2|c2<<2)<<16.
	Sampled []uint32
	index   map[uint32]int
}

// PomoNumStates returns the number of states for four nucleotides
// and a virtual population of size n.
func PomoNumStates(n int) int {
	return 4 + 6*(n-1)
}

func newPomo(n int, sampling Sampling) *Pomo {
	return &Pomo{N: n, Sampling: sampling, index: make(map[uint32]int)}
}

func (p *Pomo) clone() *Pomo {
	c := newPomo(p.N, p.Sampling)
	c.Sampled = append([]uint32(nil), p.Sampled...)
	for i, v := range c.Sampled {
		c.index[v] = i
	}
	return c
}

// compound returns the index of a compound state, registering a new
// one.
func (p *Pomo) compound(v uint32) int {
	if i, ok := p.index[v]; ok {
		return i
	}
	i := len(p.Sampled)
	p.index[v] = i
	p.Sampled = append(p.Sampled, v)
	return i
}

// polymorphicState returns the PoMo state of n1 copies of allele id1
// out of N, the rest being id2 (id1 < id2).
func (p *Pomo) polymorphicState(id1, id2, n1 int) bio.State {
	j := id1 + id2
	if id1 == 0 {
		j = id2 - 1
	}
	return bio.State(3 + j*(p.N-1) + n1)
}

// convert maps a compound state to the PoMo state with the nearest
// allele frequency. Ties prefer the first allele.
func (p *Pomo) convert(v uint32) bio.State {
	id1 := int(v & 3)
	id2 := int((v >> 16) & 3)
	v1 := int((v >> 2) & (maxAlleleCount - 1))
	v2 := int(v >> 18)
	m := v1 + v2
	pick := int(math.Round(float64(v1) * float64(p.N) / float64(m)))
	switch {
	case pick <= 0:
		return bio.State(id2)
	case pick >= p.N:
		return bio.State(id1)
	}
	return p.polymorphicState(id1, id2, pick)
}

// PomoOptions extracts the virtual population size (+N<n>) and the
// sampling method (+WB, +WH or +S) from a model name.
func PomoOptions(model string) (n int, sampling Sampling, err error) {
	n = DefaultPomoN
	if start := strings.Index(model, "+N"); start >= 0 {
		rest := model[start+2:]
		if end := strings.IndexByte(rest, '+'); end >= 0 {
			rest = rest[:end]
		}
		n, err = strconv.Atoi(rest)
		if err != nil {
			return 0, 0, fmt.Errorf("The virtual population size N is not clear: %s. Use, e.g., \"+N7\".", rest)
		}
		if (n != 10 && n != 2 && n%2 == 0) || n < 2 || n > 19 {
			return 0, 0, errors.New("Custom virtual population size of PoMo not 2, 10 or any other odd number between 3 and 19.")
		}
	}
	found := 0
	for _, o := range []struct {
		tag string
		s   Sampling
	}{{"+WB", SamplingWeightedBinomial}, {"+WH", SamplingWeightedHyper}, {"+S", SamplingSampled}} {
		if strings.Contains(model, o.tag) {
			sampling = o.s
			found++
		}
	}
	if found > 1 {
		return 0, 0, errors.New("Multiple sampling methods specified.")
	}
	return n, sampling, nil
}
