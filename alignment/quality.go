package alignment

import (
	"fmt"
	"strings"

	"bitbucket.org/Davydov/alnpat/bio"
)

// SequenceHashes returns a hash of every sequence computed over the
// patterns (not the sites). Hashes are cached until the pattern
// table changes.
func (a *Alignment) SequenceHashes() []uint64 {
	if a.seqHashes != nil {
		return a.seqHashes
	}
	hashes := make([]uint64, a.NSeq())
	parallelFor(a.conf.Threads, len(hashes), func(lo, hi int) error {
		for i := lo; i < hi; i++ {
			var h uint64
			for q := range a.Patterns {
				h = adjustHash(h, uint64(a.Patterns[q].States[i]))
			}
			hashes[i] = h
		}
		return nil
	})
	a.seqHashes = hashes
	return hashes
}

func (a *Alignment) sameSequence(i, j int) bool {
	for q := range a.Patterns {
		if a.Patterns[q].States[i] != a.Patterns[q].States[j] {
			return false
		}
	}
	return true
}

// RemoveIdenticalSeq drops sequences identical to an earlier one.
// The sequence named notRemove is never dropped. With keepTwo one
// duplicate of each sequence is kept. At least three sequences are
// always retained. It returns the new alignment (the receiver if
// nothing was removed) and, for every removed sequence, its name and
// the name of the sequence it is identical to.
func (a *Alignment) RemoveIdenticalSeq(notRemove string, keepTwo bool) (b *Alignment, removed, targets []string) {
	n := a.NSeq()
	hashes := a.SequenceHashes()
	counts := make(map[uint64]int, n)
	for _, h := range hashes {
		counts[h]++
	}
	checked := make([]bool, n)
	isRemoved := make([]bool, n)
	for i := 0; i < n; i++ {
		if checked[i] || counts[hashes[i]] == 1 {
			continue
		}
		first := true
		for j := i + 1; j < n; j++ {
			if a.Names[j] == notRemove || isRemoved[j] || hashes[i] != hashes[j] || !a.sameSequence(i, j) {
				continue
			}
			if len(removed)+3 < n && (!keepTwo || !first) {
				removed = append(removed, a.Names[j])
				targets = append(targets, a.Names[i])
				isRemoved[j] = true
			} else {
				log.Noticef("%s is identical to %s but kept for subsequent analysis", a.Names[j], a.Names[i])
			}
			checked[j] = true
			first = false
		}
		checked[i] = true
	}
	if len(removed) == 0 {
		return a, nil, nil
	}
	if len(removed)+3 >= n {
		log.Warning("Your alignment contains too many identical sequences!")
	}
	keep := make([]int, 0, n-len(removed))
	for i := 0; i < n; i++ {
		if !isRemoved[i] {
			keep = append(keep, i)
		}
	}
	return a.ExtractSubAlignment(keep, 0), removed, targets
}

// CheckIdenticalSeq reports groups of identical sequences and
// returns the number of sequences identical to an earlier one.
func (a *Alignment) CheckIdenticalSeq() int {
	n := a.NSeq()
	hashes := a.SequenceHashes()
	checked := make([]bool, n)
	num := 0
	for i := 0; i < n; i++ {
		if checked[i] {
			continue
		}
		group := []string{a.Names[i]}
		for j := i + 1; j < n; j++ {
			if hashes[i] == hashes[j] && a.sameSequence(i, j) {
				group = append(group, a.Names[j])
				checked[j] = true
				num++
			}
		}
		checked[i] = true
		if len(group) > 1 {
			log.Warningf("Identical sequences %s", strings.Join(group, ", "))
		}
	}
	if num > 0 {
		log.Warning("Some identical sequences found that should be discarded before the analysis")
	}
	return num
}

// IsGapOnlySeq tests whether a sequence contains only unknown
// states.
func (a *Alignment) IsGapOnlySeq(i int) bool {
	for q := range a.Patterns {
		if a.Patterns[q].States[i] != a.Unknown {
			return false
		}
	}
	return true
}

// RemoveGappySeq drops sequences made only of gaps. If less than
// three sequences would remain, some gappy ones are kept. The
// receiver is returned if nothing is removed.
func (a *Alignment) RemoveGappySeq() *Alignment {
	n := a.NSeq()
	var keep []int
	for i := 0; i < n; i++ {
		if !a.IsGapOnlySeq(i) {
			keep = append(keep, i)
		}
	}
	if len(keep) == n {
		return a
	}
	if len(keep) < 3 && n >= 3 {
		for i := 0; i < n && len(keep) < 3; i++ {
			if a.IsGapOnlySeq(i) {
				keep = append(keep, i)
			}
		}
	}
	return a.ExtractSubAlignment(keep, 0)
}

// CheckGappySeq warns about gap-only sequences and returns their
// number.
func (a *Alignment) CheckGappySeq() int {
	wrong := 0
	for i := range a.Names {
		if a.IsGapOnlySeq(i) {
			log.Warningf("Sequence %s (%dth sequence in alignment) contains only gaps or missing data", a.Names[i], i+1)
			wrong++
		}
	}
	return wrong
}

// CheckAbsentStates reports states which never (or rarely) occur in
// the alignment and returns the number of absent states. msg names
// the data in the messages. It fails if at most one state is
// observed. Frequencies are taken from StateFreq, so unless
// KeepZeroFreq is set missing states are floored and reported as
// rare.
func (a *Alignment) CheckAbsentStates(msg string) (int, error) {
	if a.Type == bio.SeqPomo {
		return 0, nil
	}
	freq := a.StateFreq()
	var absent, rare []string
	for s, f := range freq {
		switch {
		case f == 0:
			absent = append(absent, a.StateString(bio.State(s)))
		case f <= a.conf.MinStateFreq:
			rare = append(rare, a.StateString(bio.State(s)))
		}
	}
	if len(absent) >= a.NumStates-1 {
		return len(absent), fmt.Errorf("Only one state is observed in %s", msg)
	}
	if len(absent) > 0 {
		log.Noticef("State(s) %s not present in %s and thus removed from Markov process to prevent numerical problems",
			strings.Join(absent, ", "), msg)
	}
	if len(rare) > 0 {
		log.Warningf("States(s) %s rarely appear in %s and may cause numerical problems", strings.Join(rare, ", "), msg)
	}
	return len(absent), nil
}
