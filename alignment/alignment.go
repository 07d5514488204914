// Package alignment stores multiple sequence alignments as
// frequency-weighted tables of unique site patterns.
package alignment

import (
	"errors"
	"fmt"
	"sort"

	"github.com/op/go-logging"

	"bitbucket.org/Davydov/alnpat/bio"
)

var log = logging.MustGetLogger("alignment")

// parsBucket is the number of sites summed in one parsimony lower
// bound entry.
const parsBucket = 32

// ASCType selects the ascertainment bias correction for which
// unobserved constant patterns are generated.
type ASCType int

const (
	// ASCNone means no correction.
	ASCNone ASCType = iota
	// ASCVariant is the Lewis correction for variant sites.
	ASCVariant
	// ASCVariantMissing is the Holder correction for variant sites
	// with missing data.
	ASCVariantMissing
)

// Alignment is a deduplicated table of site patterns. Patterns are
// stored in the order their first site appears. Operations deriving
// new alignments never modify the receiver.
//
// Alignment is not safe for concurrent use.
type Alignment struct {
	StateSpace
	// Name is an optional alignment name, e.g. file name.
	Name  string
	Names []string
	// Patterns are unique columns, Freq sums to the number of
	// sites.
	Patterns []Pattern
	// SitePattern maps a site to its pattern.
	SitePattern []int

	NumConstSites       int
	NumInformativeSites int
	NumVariantSites     int
	NumInvariantSites   int
	NumParsimonySites   int
	FracConstSites      float64
	FracInvariantSites  float64
	// NumGapsOnly is the number of sites with only unknown states,
	// counted during construction.
	NumGapsOnly int

	// Ordered holds variant patterns sorted by decreasing number
	// of characters, see OrderPatternByNumChars.
	Ordered []Pattern
	// ParsLowerBound[i] is the parsimony lower bound of the
	// ordered sites starting from bucket i.
	ParsLowerBound []uint32

	index     map[uint64][]int
	seqHashes []uint64
	conf      *Config
}

// derive creates an empty alignment sharing state information with
// a and room for nsite sites.
func (a *Alignment) derive(names []string, nsite int) *Alignment {
	return newEmpty(a.StateSpace.clone(), a.Name, names, nsite, a.conf)
}

func newEmpty(ss StateSpace, name string, names []string, nsite int, conf *Config) *Alignment {
	b := &Alignment{
		StateSpace:  ss,
		Name:        name,
		Names:       append([]string(nil), names...),
		SitePattern: make([]int, nsite),
		index:       make(map[uint64][]int),
		conf:        conf.orDefault(),
	}
	for i := range b.SitePattern {
		b.SitePattern[i] = -1
	}
	return b
}

// NSeq returns the number of sequences.
func (a *Alignment) NSeq() int {
	return len(a.Names)
}

// NSite returns the number of sites.
func (a *Alignment) NSite() int {
	return len(a.SitePattern)
}

// NPattern returns the number of unique patterns.
func (a *Alignment) NPattern() int {
	return len(a.Patterns)
}

// Pattern returns the pattern of a site.
func (a *Alignment) Pattern(site int) *Pattern {
	return &a.Patterns[a.SitePattern[site]]
}

// SeqID returns the index of the named sequence or -1.
func (a *Alignment) SeqID(name string) int {
	for i, n := range a.Names {
		if n == name {
			return i
		}
	}
	return -1
}

// PatternFreq returns pattern frequencies.
func (a *Alignment) PatternFreq() []int {
	freq := make([]int, len(a.Patterns))
	for i := range a.Patterns {
		freq[i] = a.Patterns[i].Freq
	}
	return freq
}

// Config returns the configuration the alignment was built with.
func (a *Alignment) Config() *Config {
	return a.conf
}

// find returns the slot of a pattern equal to states.
func (a *Alignment) find(h uint64, states []bio.State) (int, bool) {
	for _, q := range a.index[h] {
		if equalStates(a.Patterns[q].States, states) {
			return q, true
		}
	}
	return -1, false
}

func (a *Alignment) setSite(site, slot int) {
	for site >= len(a.SitePattern) {
		a.SitePattern = append(a.SitePattern, -1)
	}
	a.SitePattern[site] = slot
}

// addPatternLazy merges pat into an equal pattern or appends it,
// returning the slot. The table takes ownership of pat.States.
func (a *Alignment) addPatternLazy(pat Pattern, site, freq int) (int, bool) {
	if a.conf.Verbose && pat.IsAllGaps(a.Unknown) {
		log.Debugf("Site %d contains only gaps or ambiguous characters", site)
	}
	a.seqHashes = nil
	h := pat.Hash()
	if q, ok := a.find(h, pat.States); ok {
		a.Patterns[q].Freq += freq
		a.setSite(site, q)
		return q, false
	}
	pat.Freq = freq
	a.Patterns = append(a.Patterns, pat)
	w := len(a.Patterns) - 1
	a.index[h] = append(a.index[h], w)
	a.setSite(site, w)
	return w, true
}

// AddPatternLazy adds freq copies of pat at site without computing
// pattern statistics. It returns true if a new pattern was stored.
// UpdatePatterns must be called after a batch of lazy insertions.
func (a *Alignment) AddPatternLazy(pat Pattern, site, freq int) bool {
	_, added := a.addPatternLazy(pat, site, freq)
	return added
}

// AddPattern adds freq copies of pat at site and computes the
// statistics of a new pattern. It returns true if a new pattern was
// stored.
func (a *Alignment) AddPattern(pat Pattern, site, freq int) bool {
	w, added := a.addPatternLazy(pat, site, freq)
	if added {
		a.ComputeConst(&a.Patterns[w])
	}
	return added
}

// UpdatePatterns computes statistics of the patterns added since
// the table had oldCount patterns.
func (a *Alignment) UpdatePatterns(oldCount int) {
	pats := a.Patterns[oldCount:]
	parallelFor(a.conf.Threads, len(pats), func(lo, hi int) error {
		for i := lo; i < hi; i++ {
			a.ComputeConst(&pats[i])
		}
		return nil
	})
}

// rebuildIndex recreates the pattern index from the stored patterns.
func (a *Alignment) rebuildIndex() {
	a.index = make(map[uint64][]int, len(a.Patterns))
	for i := range a.Patterns {
		h := a.Patterns[i].Hash()
		a.index[h] = append(a.index[h], i)
	}
}

// CountConstSite recomputes the frequency-weighted site counters.
func (a *Alignment) CountConstSite() {
	a.NumConstSites = 0
	a.NumInformativeSites = 0
	a.NumVariantSites = 0
	a.NumInvariantSites = 0
	for i := range a.Patterns {
		p := &a.Patterns[i]
		if p.Const {
			a.NumConstSites += p.Freq
		}
		if p.Informative {
			a.NumInformativeSites += p.Freq
		}
		if p.Invariant {
			a.NumInvariantSites += p.Freq
		} else {
			a.NumVariantSites += p.Freq
		}
	}
	a.FracConstSites, a.FracInvariantSites = 0, 0
	if n := a.NSite(); n > 0 {
		a.FracConstSites = float64(a.NumConstSites) / float64(n)
		a.FracInvariantSites = float64(a.NumInvariantSites) / float64(n)
	}
}

// OrderPatternByNumChars sorts variant (or only informative)
// patterns by decreasing number of characters and computes parsimony
// lower bounds for every bucket of parsBucket ordered sites.
func (a *Alignment) OrderPatternByNumChars(informativeOnly bool) {
	if informativeOnly {
		a.NumParsimonySites = a.NumInformativeSites
	} else {
		a.NumParsimonySites = a.NumVariantSites
	}

	order := make([]int, len(a.Patterns))
	keys := make([]int, len(a.Patterns))
	for i := range a.Patterns {
		order[i] = i
		keys[i] = -a.Patterns[i].NumChars
		if a.Patterns[i].Invariant || (informativeOnly && !a.Patterns[i].Informative) {
			keys[i] += 1024
		}
	}
	sort.SliceStable(order, func(i, j int) bool {
		return keys[order[i]] < keys[order[j]]
	})

	n := len(order)
	for i, q := range order {
		p := &a.Patterns[q]
		if p.Invariant || (informativeOnly && !p.Informative) {
			n = i
			break
		}
	}

	a.Ordered = make([]Pattern, n)
	total := 0
	for i := 0; i < n; i++ {
		a.Ordered[i] = a.Patterns[order[i]].Copy()
		total += a.Ordered[i].Freq
	}

	bound := make([]uint32, (total+parsBucket-1)/parsBucket+1)
	site, i := 0, 0
	var sum uint32
	for k := range a.Ordered {
		p := &a.Ordered[k]
		for j := p.Freq; j > 0; j-- {
			if site == parsBucket {
				sum += bound[i]
				i++
				site = 0
			}
			if p.NumChars > 1 {
				bound[i] += uint32(p.NumChars - 1)
			}
			site++
		}
	}
	sum += bound[i]
	for j := 0; j <= i; j++ {
		next := sum - bound[j]
		bound[j] = sum
		sum = next
	}
	a.ParsLowerBound = bound[:i+1]
}

// UngroupSitePattern returns an alignment with one pattern of
// frequency 1 per site, in site order. Equal sites are not merged.
func (a *Alignment) UngroupSitePattern() *Alignment {
	b := a.derive(a.Names, a.NSite())
	b.Patterns = make([]Pattern, a.NSite())
	for site := range a.SitePattern {
		b.Patterns[site] = a.Pattern(site).Copy()
		b.Patterns[site].Freq = 1
		b.SitePattern[site] = site
	}
	b.rebuildIndex()
	b.CountConstSite()
	return b
}

// RegroupSitePattern returns an alignment where sites are merged
// into patterns only within the same group. Patterns of group 0 come
// first, then group 1 and so on.
func (a *Alignment) RegroupSitePattern(groups int, siteGroup []int) (*Alignment, error) {
	if len(siteGroup) != a.NSite() {
		return nil, fmt.Errorf("site group vector has %d entries for %d sites", len(siteGroup), a.NSite())
	}
	b := a.derive(a.Names, a.NSite())
	count := 0
	for g := 0; g < groups; g++ {
		b.index = make(map[uint64][]int)
		for site, sg := range siteGroup {
			if sg == g {
				count++
				b.AddPattern(a.Pattern(site).Copy(), site, 1)
			}
		}
	}
	if count != a.NSite() {
		return nil, errors.New("some sites are not assigned to a group")
	}
	b.rebuildIndex()
	b.CountConstSite()
	return b, nil
}

// AddConstPatterns returns an alignment with freqs[s] extra constant
// sites of state s appended.
func (a *Alignment) AddConstPatterns(freqs []int) (*Alignment, error) {
	if len(freqs) != a.NumStates {
		return nil, fmt.Errorf("Const pattern frequency vector has different number of states: %v", freqs)
	}
	for _, f := range freqs {
		if f < 0 {
			return nil, errors.New("Const pattern frequency must be non-negative")
		}
	}
	b := a.Clone()
	site := b.NSite()
	old := b.NPattern()
	for s, f := range freqs {
		for j := 0; j < f; j++ {
			b.addPatternLazy(NewPattern(b.NSeq(), bio.State(s)), site, 1)
			site++
		}
	}
	b.UpdatePatterns(old)
	b.CountConstSite()
	return b, nil
}

// UnobservedConstPatterns returns constant patterns needed for an
// ascertainment bias correction. For ASCVariant these are the
// constant patterns missing from the alignment. For
// ASCVariantMissing every pattern is projected onto each state,
// keeping its gaps, and an all-gap pattern is added.
func (a *Alignment) UnobservedConstPatterns(kind ASCType) ([]Pattern, error) {
	var pats []Pattern
	switch kind {
	case ASCNone:
	case ASCVariant:
		for s := 0; s < a.NumStates; s++ {
			p := NewPattern(a.NSeq(), bio.State(s))
			if _, ok := a.find(p.Hash(), p.States); !ok {
				a.ComputeConst(&p)
				pats = append(pats, p)
			}
		}
	case ASCVariantMissing:
		for s := 0; s < a.NumStates; s++ {
			for i := range a.Patterns {
				p := Pattern{States: make([]bio.State, a.NSeq())}
				for j, st := range a.Patterns[i].States {
					if int(st) < a.NumStates {
						p.States[j] = bio.State(s)
					} else {
						p.States[j] = a.Unknown
					}
				}
				a.ComputeConst(&p)
				pats = append(pats, p)
			}
		}
		p := NewPattern(a.NSeq(), a.Unknown)
		a.ComputeConst(&p)
		pats = append(pats, p)
	default:
		return nil, fmt.Errorf("unsupported ascertainment bias correction %d", kind)
	}
	return pats, nil
}

// Clone returns a deep copy of the alignment.
func (a *Alignment) Clone() *Alignment {
	b := a.derive(a.Names, 0)
	b.SitePattern = append([]int(nil), a.SitePattern...)
	b.Patterns = make([]Pattern, len(a.Patterns))
	for i := range a.Patterns {
		b.Patterns[i] = a.Patterns[i].Copy()
	}
	b.rebuildIndex()
	b.NumGapsOnly = a.NumGapsOnly
	b.CountConstSite()
	return b
}

// CopyStateInfo makes the state space of a equal to the one of
// other.
func (a *Alignment) CopyStateInfo(other *Alignment) {
	a.StateSpace = other.StateSpace.clone()
}

// IsCompatible returns an error describing every difference which
// prevents combining the alignments site by site.
func (a *Alignment) IsCompatible(other *Alignment) error {
	why := a.sameStates(&other.StateSpace)
	if a.NSite() != other.NSite() {
		why += fmt.Sprintf("Number of sites (%d) disagrees\n", other.NSite())
	}
	if why != "" {
		return errors.New(why[:len(why)-1])
	}
	return nil
}

func (a *Alignment) String() string {
	return fmt.Sprintf("<Alignment %s: %d sequences, %d sites, %d patterns, %v>",
		a.Name, a.NSeq(), a.NSite(), a.NPattern(), a.Type)
}
