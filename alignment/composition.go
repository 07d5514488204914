package alignment

import (
	"fmt"
	"io"

	"bitbucket.org/Davydov/alnpat/bio"
	"bitbucket.org/Davydov/alnpat/dist"
)

// SequenceInfo is the composition test result of one sequence.
type SequenceInfo struct {
	Name string
	// PercentGaps is the percentage of sites with gaps or
	// ambiguous characters.
	PercentGaps float64
	Chi2        float64
	PValue      float64
	Failed      bool
}

// CompositionResult summarizes the composition test.
type CompositionResult struct {
	Sequences []SequenceInfo
	// DF is the number of degrees of freedom of the test.
	DF int
	// NumProblem is the number of sequences with more gaps than the
	// gap threshold.
	NumProblem int
	NumFailed  int
	// PercentGaps is the percentage of gaps in the whole
	// alignment.
	PercentGaps float64
}

// countPerSequence returns frequency-weighted counts of definite
// states for every sequence.
func (a *Alignment) countPerSequence() [][]float64 {
	counts := make([][]float64, a.NSeq())
	parallelFor(a.conf.Threads, a.NSeq(), func(lo, hi int) error {
		for i := lo; i < hi; i++ {
			c := make([]float64, a.NumStates)
			for q := range a.Patterns {
				p := &a.Patterns[q]
				if s := a.ConvertPomoState(p.States[i]); int(s) < a.NumStates {
					c[s] += float64(p.Freq)
				}
			}
			counts[i] = c
		}
		return nil
	})
	return counts
}

// countProperChar returns the number of sites where a sequence has a
// definite (or PoMo compound) state.
func (a *Alignment) countProperChar(i int) int {
	limit := a.NumStates
	if a.Pomo != nil {
		limit += len(a.Pomo.Sampled)
	}
	n := 0
	for q := range a.Patterns {
		if int(a.Patterns[q].States[i]) < limit {
			n += a.Patterns[q].Freq
		}
	}
	return n
}

// Composition tests every sequence for deviation from the state
// frequencies of the whole alignment with a chi-squared test.
func (a *Alignment) Composition() *CompositionResult {
	freq := a.StateFreq()
	df := -1
	for _, f := range freq {
		if f > 0 {
			df++
		}
	}
	if a.Type == bio.SeqPomo {
		sum := 0.0
		for _, f := range freq {
			sum += f
		}
		for i := range freq {
			freq[i] /= sum
		}
		df = a.NumStates - 1
	}
	counts := a.countPerSequence()
	nsite := a.NSite()
	res := &CompositionResult{
		Sequences: make([]SequenceInfo, a.NSeq()),
		DF:        df,
	}
	gaps := make([]int, a.NSeq())
	parallelFor(a.conf.Threads, a.NSeq(), func(lo, hi int) error {
		for i := lo; i < hi; i++ {
			info := &res.Sequences[i]
			info.Name = a.Names[i]
			gaps[i] = nsite - a.countProperChar(i)
			if nsite > 0 {
				info.PercentGaps = float64(gaps[i]) / float64(nsite) * 100
			}
			sum := 0.0
			for _, c := range counts[i] {
				sum += c
			}
			chi2 := 0.0
			for j, f := range freq {
				if f <= 0 {
					continue
				}
				fs := 0.0
				if sum > 0 {
					fs = counts[i][j] / sum
				}
				chi2 += (f - fs) * (f - fs) / f
			}
			info.Chi2 = chi2 * sum
			info.PValue = dist.Chi2PValue(info.Chi2, float64(df))
			info.Failed = info.PValue < a.conf.CompositionAlpha
		}
		return nil
	})
	total := 0
	for i := range res.Sequences {
		total += gaps[i]
		if res.Sequences[i].PercentGaps > a.conf.GapThreshold*100 {
			res.NumProblem++
		}
		if res.Sequences[i].Failed {
			res.NumFailed++
		}
	}
	if nsite > 0 && a.NSeq() > 0 {
		res.PercentGaps = float64(total) / float64(nsite) / float64(a.NSeq()) * 100
	}
	return res
}

// CheckComposition runs the composition test and writes the report
// to w (if not nil).
func (a *Alignment) CheckComposition(w io.Writer) (*CompositionResult, error) {
	if a.Type == bio.SeqPomo {
		log.Notice("The composition test for PoMo only tests the proportion of fixed states!")
	}
	res := a.Composition()
	if res.NumProblem > 0 {
		log.Warningf("%d sequences contain more than %v%% gaps/ambiguity", res.NumProblem, a.conf.GapThreshold*100)
	}
	if w == nil {
		return res, nil
	}
	maxLen := 0
	for _, n := range a.Names {
		if len(n) > maxLen {
			maxLen = len(n)
		}
	}
	maxLen++
	if _, err := fmt.Fprintf(w, "%*s  Composition  p-value\n", maxLen+14, "Gap/Ambiguity"); err != nil {
		return res, err
	}
	for i, info := range res.Sequences {
		status := "passed"
		if info.Failed {
			status = "failed"
		}
		_, err := fmt.Fprintf(w, "%4d  %-*s %6.2f%%    %s %9.4g%%\n",
			i+1, maxLen, info.Name, info.PercentGaps, status, info.PValue*100)
		if err != nil {
			return res, err
		}
	}
	_, err := fmt.Fprintf(w, "**** %-*s %6.2f%%  %d sequences failed composition chi2 test (p-value<%v%%; df=%d)\n",
		maxLen+2, " TOTAL  ", res.PercentGaps, res.NumFailed, a.conf.CompositionAlpha*100, res.DF)
	return res, err
}
