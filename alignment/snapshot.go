package alignment

import (
	"errors"
	"fmt"
	"strconv"

	"bitbucket.org/Davydov/alnpat/bio"
	"bitbucket.org/Davydov/alnpat/codon"
)

// PomoSnapshot is the serializable part of Pomo.
type PomoSnapshot struct {
	N        int      `json:"n"`
	Sampling Sampling `json:"sampling"`
	Sampled  []uint32 `json:"sampled,omitempty"`
}

// Snapshot is a JSON-serializable copy of a pattern table. Pattern
// statistics and indices are recomputed on restore.
type Snapshot struct {
	Name         string        `json:"name,omitempty"`
	Type         bio.SeqType   `json:"type"`
	NumStates    int           `json:"num_states"`
	Unknown      bio.State     `json:"unknown"`
	SequenceType string        `json:"sequence_type,omitempty"`
	GeneticCode  int           `json:"genetic_code,omitempty"`
	NT2AA        bool          `json:"nt2aa,omitempty"`
	Pomo         *PomoSnapshot `json:"pomo,omitempty"`
	Names        []string      `json:"names"`
	Patterns     [][]bio.State `json:"patterns"`
	Freqs        []int         `json:"freqs"`
	SitePattern  []int         `json:"site_pattern"`
	NumGapsOnly  int           `json:"num_gaps_only,omitempty"`
}

// Snapshot returns a copy of the alignment suitable for persisting.
func (a *Alignment) Snapshot() *Snapshot {
	s := &Snapshot{
		Name:         a.Name,
		Type:         a.Type,
		NumStates:    a.NumStates,
		Unknown:      a.Unknown,
		SequenceType: a.SequenceType,
		Names:        append([]string(nil), a.Names...),
		Patterns:     make([][]bio.State, len(a.Patterns)),
		Freqs:        a.PatternFreq(),
		SitePattern:  append([]int(nil), a.SitePattern...),
		NumGapsOnly:  a.NumGapsOnly,
	}
	if a.Codon != nil {
		s.GeneticCode = a.Codon.Code.ID
		s.NT2AA = a.Codon.NT2AA
	}
	if a.Pomo != nil {
		s.Pomo = &PomoSnapshot{
			N:        a.Pomo.N,
			Sampling: a.Pomo.Sampling,
			Sampled:  append([]uint32(nil), a.Pomo.Sampled...),
		}
	}
	for i := range a.Patterns {
		s.Patterns[i] = append([]bio.State(nil), a.Patterns[i].States...)
	}
	return s
}

// FromSnapshot restores an alignment. The snapshot is checked for
// consistency since it usually comes from a file.
func FromSnapshot(s *Snapshot, conf *Config) (*Alignment, error) {
	if len(s.Patterns) != len(s.Freqs) {
		return nil, errors.New("snapshot: number of patterns and frequencies differ")
	}
	ss := StateSpace{
		Type:         s.Type,
		NumStates:    s.NumStates,
		Unknown:      s.Unknown,
		SequenceType: s.SequenceType,
	}
	if s.GeneticCode != 0 {
		gc, err := bio.GetGeneticCode(strconv.Itoa(s.GeneticCode))
		if err != nil {
			return nil, err
		}
		ss.Codon = codon.New(gc, s.NT2AA)
	}
	if s.Pomo != nil {
		p := newPomo(s.Pomo.N, s.Pomo.Sampling)
		for _, v := range s.Pomo.Sampled {
			p.compound(v)
		}
		ss.Pomo = p
	}
	a := newEmpty(ss, s.Name, s.Names, 0, conf)
	a.SitePattern = append([]int(nil), s.SitePattern...)
	a.Patterns = make([]Pattern, len(s.Patterns))
	sum := 0
	for i, states := range s.Patterns {
		if len(states) != a.NSeq() {
			return nil, fmt.Errorf("snapshot: pattern %d has %d states for %d sequences", i, len(states), a.NSeq())
		}
		a.Patterns[i] = Pattern{States: append([]bio.State(nil), states...), Freq: s.Freqs[i]}
		sum += s.Freqs[i]
	}
	if sum != a.NSite() {
		return nil, fmt.Errorf("snapshot: pattern frequencies sum to %d for %d sites", sum, a.NSite())
	}
	for site, q := range a.SitePattern {
		if q < 0 || q >= len(a.Patterns) {
			return nil, fmt.Errorf("snapshot: site %d refers to pattern %d", site+1, q)
		}
	}
	a.NumGapsOnly = s.NumGapsOnly
	a.UpdatePatterns(0)
	a.rebuildIndex()
	a.CountConstSite()
	return a, nil
}
