package alignment

import (
	"errors"
	"math"

	"github.com/gonum/matrix/mat64"

	"bitbucket.org/Davydov/alnpat/bio"
	"bitbucket.org/Davydov/alnpat/codon"
	"bitbucket.org/Davydov/alnpat/dist"
)

// MaxGeneticDist is returned for sequence pairs without overlapping
// characters or saturated differences.
const MaxGeneticDist = 9.0

// FreqType selects how codon frequencies are estimated.
type FreqType int

const (
	// FreqEmpirical counts codon states.
	FreqEmpirical FreqType = iota
	// FreqF1X4 uses pooled nucleotide frequencies.
	FreqF1X4
	// FreqF3X4 uses nucleotide frequencies per codon position.
	FreqF3X4
)

// CountStates returns frequency-weighted counts of every state up to
// and including the unknown state. PoMo compound states are mapped
// to PoMo states, anything above unknown is counted as unknown.
func (a *Alignment) CountStates() []int {
	u := int(a.Unknown)
	counts := make([]int, u+1)
	for q := range a.Patterns {
		p := &a.Patterns[q]
		for _, s := range p.States {
			c := int(a.ConvertPomoState(s))
			if c > u {
				c = u
			}
			counts[c] += p.Freq
		}
	}
	return counts
}

// rawStateFreq estimates state frequencies resolving ambiguous
// characters by EM over their appearance vectors.
func (a *Alignment) rawStateFreq() []float64 {
	n := a.NumStates
	counts := a.CountStates()
	app := make([][]float64, len(counts))
	for s, c := range counts {
		if c > 0 {
			app[s] = a.Appearance(bio.State(s))
		}
	}
	freq := make([]float64, n)
	for i := range freq {
		freq[i] = 1 / float64(n)
	}
	next := make([]float64, n)
	tmp := make([]float64, n)
	for k := 0; k < a.conf.EMIterations; k++ {
		for j := range next {
			next[j] = 0
		}
		for s, c := range counts {
			if c == 0 {
				continue
			}
			sum := 0.0
			for j := range tmp {
				tmp[j] = freq[j] * app[s][j]
				sum += tmp[j]
			}
			if sum == 0 {
				continue
			}
			for j := range next {
				next[j] += tmp[j] / sum * float64(c)
			}
		}
		sum := 0.0
		for _, f := range next {
			sum += f
		}
		if sum == 0 {
			break
		}
		for j := range freq {
			freq[j] = next[j] / sum
		}
	}
	return freq
}

// StateFreq returns state frequencies with ambiguous characters
// resolved, after NormalizeFreq.
func (a *Alignment) StateFreq() []float64 {
	return a.NormalizeFreq(a.rawStateFreq())
}

// NormalizeFreq raises frequencies below the minimum state frequency
// (except for PoMo) and gives the excess to the most frequent state
// so that the sum is 1. It does nothing with KeepZeroFreq. The slice
// is modified in place and returned.
func (a *Alignment) NormalizeFreq(freq []float64) []float64 {
	if a.conf.KeepZeroFreq {
		return freq
	}
	maxi := 0
	maxf, sum := 0.0, 0.0
	for i, f := range freq {
		if f < a.conf.MinStateFreq && a.Type != bio.SeqPomo {
			freq[i] = a.conf.MinStateFreq
		}
		if f > maxf {
			maxf = f
			maxi = i
		}
		sum += freq[i]
	}
	if len(freq) > 0 {
		freq[maxi] += 1 - sum
	}
	return freq
}

// EmpiricalFrequencies returns frequencies of definite states,
// ignoring ambiguous characters.
func (a *Alignment) EmpiricalFrequencies() []float64 {
	freq := make([]float64, a.NumStates)
	sum := 0.0
	for q := range a.Patterns {
		p := &a.Patterns[q]
		for _, s := range p.States {
			if int(s) < a.NumStates {
				freq[s] += float64(p.Freq)
				sum += float64(p.Freq)
			}
		}
	}
	if sum > 0 {
		for i := range freq {
			freq[i] /= sum
		}
	}
	return a.NormalizeFreq(freq)
}

// nucleotidePositions counts nucleotides at the three codon
// positions.
func (a *Alignment) nucleotidePositions() (pos [3][4]float64) {
	for q := range a.Patterns {
		p := &a.Patterns[q]
		f := float64(p.Freq)
		for _, s := range p.States {
			if s == a.Unknown || int(s) >= a.NumStates {
				continue
			}
			c := a.Codon.CodonTable[s]
			pos[0][c/16] += f
			pos[1][c%16/4] += f
			pos[2][c%4] += f
		}
	}
	return
}

// CodonFreq estimates codon frequencies of a codon alignment.
func (a *Alignment) CodonFreq(kind FreqType) ([]float64, error) {
	if a.Type != bio.SeqCodon {
		return nil, errors.New("codon frequencies require codon data")
	}
	var cf codon.Frequency
	switch kind {
	case FreqEmpirical:
		return a.EmpiricalFrequencies(), nil
	case FreqF1X4:
		pos := a.nucleotidePositions()
		var nt [4]float64
		for j := range pos {
			for i := range nt {
				nt[i] += pos[j][i]
			}
		}
		cf = codon.F1X4(a.Codon, nt)
	case FreqF3X4:
		cf = codon.F3X4(a.Codon, a.nucleotidePositions())
	default:
		return nil, errors.New("Unsupported codon frequency")
	}
	return a.NormalizeFreq(cf.Freq), nil
}

// DivergenceMatrix counts pairs of equal and different states
// observed in the same column. With normalize, rows of the pair
// matrix and the state frequencies sum to one.
func (a *Alignment) DivergenceMatrix(normalize bool) (*mat64.Dense, []float64) {
	n := a.NumStates
	pair := mat64.NewDense(n, n, nil)
	stateFreq := make([]float64, n)
	counts := make([]float64, n)
	for q := range a.Patterns {
		p := &a.Patterns[q]
		for i := range counts {
			counts[i] = 0
		}
		for _, s := range p.States {
			if int(s) < n {
				counts[s]++
			}
		}
		f := float64(p.Freq)
		for i, ni := range counts {
			if ni == 0 {
				continue
			}
			stateFreq[i] += ni * f
			pair.Set(i, i, pair.At(i, i)+ni*(ni-1)/2*f)
			for j := i + 1; j < n; j++ {
				pair.Set(i, j, pair.At(i, j)+ni*counts[j]*f)
			}
		}
	}
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			pair.Set(j, i, pair.At(i, j))
		}
	}
	if normalize {
		sum := 0.0
		for _, f := range stateFreq {
			sum += f
		}
		for i := range stateFreq {
			stateFreq[i] /= sum
		}
		for i := 0; i < n; i++ {
			row := pair.RawRowView(i)
			sum := 0.0
			for _, v := range row {
				sum += v
			}
			if sum == 0 {
				continue
			}
			for j := range row {
				row[j] /= sum
			}
		}
	}
	return pair, stateFreq
}

// ObsDistance returns the proportion of differing definite states
// between two sequences, counting invariant sites as identical.
func (a *Alignment) ObsDistance(i, j int) float64 {
	total := a.NSite() - a.NumVariantSites
	diff := 0
	for q := range a.Patterns {
		p := &a.Patterns[q]
		if p.Const {
			continue
		}
		s1 := a.ConvertPomoState(p.States[i])
		s2 := a.ConvertPomoState(p.States[j])
		if int(s1) < a.NumStates && int(s2) < a.NumStates {
			total += p.Freq
			if s1 != s2 {
				diff += p.Freq
			}
		}
	}
	if total == 0 {
		log.Debugf("No overlapping characters between %s and %s", a.Names[i], a.Names[j])
		return MaxGeneticDist
	}
	return float64(diff) / float64(total)
}

// JCDistance returns the Jukes-Cantor corrected distance.
func (a *Alignment) JCDistance(i, j int) float64 {
	return jc(a.ObsDistance(i, j), a.NumStates)
}

func jc(obs float64, numStates int) float64 {
	z := float64(numStates) / float64(numStates-1)
	x := 1 - z*obs
	if x <= 0 {
		return MaxGeneticDist
	}
	return -math.Log(x) / z
}

// DistanceMatrix returns pairwise observed or Jukes-Cantor
// distances.
func (a *Alignment) DistanceMatrix(correct bool) *mat64.Dense {
	n := a.NSeq()
	d := mat64.NewDense(n, n, nil)
	parallelFor(a.conf.Threads, n, func(lo, hi int) error {
		for i := lo; i < hi; i++ {
			for j := 0; j < n; j++ {
				if i == j {
					continue
				}
				v := a.ObsDistance(i, j)
				if correct {
					v = jc(v, a.NumStates)
				}
				d.Set(i, j, v)
			}
		}
		return nil
	})
	return d
}

// UnconstrainedLogL returns the log-likelihood of the alignment under
// the multinomial model with pattern probabilities equal to their
// observed frequencies.
func (a *Alignment) UnconstrainedLogL() float64 {
	ln := math.Log(float64(a.NSite()))
	logl := 0.0
	for q := range a.Patterns {
		f := float64(a.Patterns[q].Freq)
		logl += (math.Log(f) - ln) * f
	}
	return logl
}

// MultinomialProb returns the log-probability of the alignment under
// the multinomial distribution of pattern frequencies of ref.
func (a *Alignment) MultinomialProb(ref *Alignment) (float64, error) {
	n := a.NSite()
	if n != ref.NSite() {
		return 0, errors.New("alignments have different number of sites")
	}
	sumFac, sumProb := 0.0, 0.0
	for q := range a.Patterns {
		p := &a.Patterns[q]
		r, ok := ref.find(p.Hash(), p.States)
		if !ok {
			return 0, errors.New("Pattern in the current alignment is not found in the reference alignment!")
		}
		sumFac += dist.LnFactorial(p.Freq)
		sumProb += float64(p.Freq) * math.Log(float64(ref.Patterns[r].Freq)/float64(n))
	}
	return dist.LnFactorial(n) - sumFac + sumProb, nil
}
