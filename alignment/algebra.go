package alignment

import (
	"errors"
	"fmt"
	"math/rand"
	"strconv"
	"strings"

	"bitbucket.org/Davydov/alnpat/bio"
	"bitbucket.org/Davydov/alnpat/codon"
)

// ExtractSubAlignment projects the alignment onto the sequences
// seqIDs (in the given order). Sites with less than minTrueChar
// non-gap entries are dropped.
func (a *Alignment) ExtractSubAlignment(seqIDs []int, minTrueChar int) *Alignment {
	names := make([]string, len(seqIDs))
	for i, id := range seqIDs {
		if id < 0 || id >= a.NSeq() {
			panic(fmt.Sprintf("sequence id %d out of range", id))
		}
		names[i] = a.Names[id]
	}
	b := a.derive(names, 0)
	removed := 0
	for site := range a.SitePattern {
		src := a.Pattern(site)
		pat := Pattern{States: make([]bio.State, len(seqIDs))}
		for i, id := range seqIDs {
			pat.States[i] = src.States[id]
		}
		if len(seqIDs)-pat.GapChars(a.Unknown) < minTrueChar {
			removed++
			continue
		}
		b.addPatternLazy(pat, site-removed, 1)
	}
	b.UpdatePatterns(0)
	b.CountConstSite()
	return b
}

// ExtractPatterns returns an alignment made of the listed patterns
// with their original frequencies. Sites are grouped by pattern.
func (a *Alignment) ExtractPatterns(ids []int) (*Alignment, error) {
	for _, id := range ids {
		if id < 0 || id >= a.NPattern() {
			return nil, fmt.Errorf("pattern id %d out of range", id)
		}
	}
	b := a.derive(a.Names, 0)
	site := 0
	for _, id := range ids {
		f := a.Patterns[id].Freq
		w, _ := b.addPatternLazy(a.Patterns[id].Copy(), site, f)
		for j := 0; j < f; j++ {
			b.setSite(site, w)
			site++
		}
	}
	b.UpdatePatterns(0)
	b.CountConstSite()
	return b, nil
}

// ExtractPatternFreqs returns an alignment where pattern i appears
// freq[i] times. Patterns with zero frequency are dropped.
func (a *Alignment) ExtractPatternFreqs(freq []int) (*Alignment, error) {
	if len(freq) > a.NPattern() {
		return nil, fmt.Errorf("%d pattern frequencies for %d patterns", len(freq), a.NPattern())
	}
	b := a.derive(a.Names, 0)
	site := 0
	for i, f := range freq {
		if f < 0 {
			return nil, fmt.Errorf("negative frequency of pattern %d", i)
		}
		if f == 0 {
			continue
		}
		w, _ := b.addPatternLazy(a.Patterns[i].Copy(), site, f)
		for j := 0; j < f; j++ {
			b.setSite(site, w)
			site++
		}
	}
	b.UpdatePatterns(0)
	b.CountConstSite()
	return b, nil
}

// FromPatternFreq is ExtractPatternFreqs for a frequency vector of
// every pattern, e.g. produced by BootstrapFreq.
func (a *Alignment) FromPatternFreq(freq []int) (*Alignment, error) {
	if len(freq) != a.NPattern() {
		return nil, fmt.Errorf("%d pattern frequencies for %d patterns", len(freq), a.NPattern())
	}
	return a.ExtractPatternFreqs(freq)
}

// ExtractSites returns an alignment made of the listed sites in the
// given order. Sites may repeat.
func (a *Alignment) ExtractSites(sites []int) (*Alignment, error) {
	b := a.derive(a.Names, len(sites))
	for i, site := range sites {
		if site < 0 || site >= a.NSite() {
			return nil, fmt.Errorf("site %d out of range", site+1)
		}
		b.addPatternLazy(a.Pattern(site).Copy(), i, 1)
	}
	b.UpdatePatterns(0)
	b.CountConstSite()
	return b, nil
}

// ExtractSitesSpec extracts sites given as a comma or space
// separated list of 1-based ranges "lower[-upper][\step]". Upper
// bound "." means the last site. For codon data positions are
// nucleotide positions.
func (a *Alignment) ExtractSitesSpec(spec string) (*Alignment, error) {
	sites, err := a.parseSiteSpec(spec)
	if err != nil {
		return nil, err
	}
	return a.ExtractSites(sites)
}

func (a *Alignment) parseSiteSpec(spec string) ([]int, error) {
	last := a.NSite()
	if a.Type == bio.SeqCodon {
		last *= 3
	}
	var sites []int
	nchars := 0
	str := spec
	for str != "" {
		lower, upper, step, rest, err := parseRange(str, last)
		if err != nil {
			return nil, err
		}
		str = rest
		lower--
		upper--
		if step < 1 {
			return nil, errors.New("Wrong step size")
		}
		nchars += (upper - lower + 1) / step
		if a.Type == bio.SeqCodon {
			lower /= 3
			upper /= 3
		}
		switch {
		case upper >= a.NSite():
			return nil, errors.New("Too large site ID")
		case lower < 0:
			return nil, errors.New("Negative site ID")
		case lower > upper:
			return nil, errors.New("Wrong range")
		}
		for i := lower; i <= upper; i += step {
			sites = append(sites, i)
		}
		if str != "" && (str[0] == ',' || str[0] == ' ') {
			str = str[1:]
		}
	}
	if a.Type == bio.SeqCodon && nchars%3 != 0 {
		return nil, fmt.Errorf("Range %s length is not multiple of 3 (necessary for codon data)", spec)
	}
	return sites, nil
}

// parseRange parses one "lower[-upper][\step]" range at the start of
// str and returns the rest.
func parseRange(str string, last int) (lower, upper, step int, rest string, err error) {
	step = 1
	lower, rest, err = parseLeadingInt(str)
	if err != nil {
		return
	}
	upper = lower
	rest = strings.TrimLeft(rest, " ")
	if !strings.HasPrefix(rest, "-") {
		return
	}
	rest = strings.TrimLeft(rest[1:], " ")
	if strings.HasPrefix(rest, ".") {
		upper = last
		rest = rest[1:]
	} else if upper, rest, err = parseLeadingInt(rest); err != nil {
		return
	}
	rest = strings.TrimLeft(rest, " ")
	if strings.HasPrefix(rest, "\\") {
		step, rest, err = parseLeadingInt(rest[1:])
	}
	return
}

func parseLeadingInt(str string) (int, string, error) {
	i := 0
	if i < len(str) && (str[i] == '-' || str[i] == '+') {
		i++
	}
	for i < len(str) && str[i] >= '0' && str[i] <= '9' {
		i++
	}
	v, err := strconv.Atoi(str[:i])
	if err != nil {
		return 0, str, fmt.Errorf("Expecting integer, but found \"%s\" instead", str)
	}
	return v, str[i:], nil
}

// Concatenate appends the sites of other alignments. Sequences are
// matched by name; sequences absent from a part get unknown states
// there. All the parts must share the state space.
func (a *Alignment) Concatenate(others ...*Alignment) (*Alignment, error) {
	parts := append([]*Alignment{a}, others...)
	names := append([]string(nil), a.Names...)
	seen := make(map[string]bool, len(names))
	for _, n := range names {
		seen[n] = true
	}
	for _, o := range others {
		if why := a.sameStates(&o.StateSpace); why != "" {
			return nil, fmt.Errorf("cannot concatenate %s: %s", o.Name, strings.TrimSpace(why))
		}
		for _, n := range o.Names {
			if !seen[n] {
				seen[n] = true
				names = append(names, n)
			}
		}
	}
	b := a.derive(names, 0)
	site := 0
	for _, p := range parts {
		idx := make([]int, len(names))
		for i, n := range names {
			idx[i] = p.SeqID(n)
		}
		for s := range p.SitePattern {
			src := p.Pattern(s)
			pat := Pattern{States: make([]bio.State, len(names))}
			for i, id := range idx {
				if id < 0 {
					pat.States[i] = b.Unknown
				} else {
					pat.States[i] = src.States[id]
				}
			}
			b.addPatternLazy(pat, site, 1)
			site++
		}
	}
	b.UpdatePatterns(0)
	b.CountConstSite()
	return b, nil
}

// GapMasked copies gaps of mask into the alignment: an entry becomes
// unknown wherever the sequence of the same name is unknown in mask.
func (a *Alignment) GapMasked(mask *Alignment) (*Alignment, error) {
	if mask.NSeq() != a.NSeq() {
		return nil, errors.New("Different number of sequences in masked alignment")
	}
	if mask.NSite() != a.NSite() {
		return nil, errors.New("Different number of sites in masked alignment")
	}
	nameMap := make([]int, a.NSeq())
	for i, n := range a.Names {
		id := mask.SeqID(n)
		if id < 0 {
			return nil, fmt.Errorf("Masked alignment does not contain taxon %s", n)
		}
		nameMap[i] = id
	}
	b := a.derive(a.Names, a.NSite())
	for site := range a.SitePattern {
		pat := a.Pattern(site).Copy()
		m := mask.Pattern(site)
		for i := range pat.States {
			if m.States[nameMap[i]] == mask.Unknown {
				pat.States[i] = a.Unknown
			}
		}
		b.addPatternLazy(pat, site, 1)
	}
	b.UpdatePatterns(0)
	b.CountConstSite()
	return b, nil
}

// Shuffle returns a copy with the order of sites permuted. Patterns
// and their frequencies stay the same.
func (a *Alignment) Shuffle(rng *rand.Rand) *Alignment {
	b := a.Clone()
	rng.Shuffle(len(b.SitePattern), func(i, j int) {
		b.SitePattern[i], b.SitePattern[j] = b.SitePattern[j], b.SitePattern[i]
	})
	return b
}

// ConvertCodonToAA translates codon data into amino acids.
func (a *Alignment) ConvertCodonToAA() (*Alignment, error) {
	if a.Type != bio.SeqCodon {
		return nil, errors.New("Cannot convert non-codon alignment into AA")
	}
	ss := StateSpace{
		Type:         bio.SeqProtein,
		NumStates:    20,
		Unknown:      bio.UnknownProtein,
		SequenceType: a.SequenceType,
	}
	b := newEmpty(ss, a.Name, a.Names, a.NSite(), a.conf)
	for site := range a.SitePattern {
		src := a.Pattern(site)
		pat := Pattern{States: make([]bio.State, a.NSeq())}
		for i, s := range src.States {
			if s == a.Unknown {
				pat.States[i] = b.Unknown
			} else {
				pat.States[i] = a.Codon.AminoAcidState(s)
			}
		}
		b.addPatternLazy(pat, site, 1)
	}
	b.UpdatePatterns(0)
	b.CountConstSite()
	return b, nil
}

// ConvertCodonToDNA expands every codon site into three nucleotide
// sites.
func (a *Alignment) ConvertCodonToDNA() (*Alignment, error) {
	if a.Type != bio.SeqCodon {
		return nil, errors.New("Cannot convert non-codon alignment into DNA")
	}
	ss := StateSpace{
		Type:         bio.SeqDNA,
		NumStates:    4,
		Unknown:      bio.UnknownDNA,
		SequenceType: a.SequenceType,
	}
	b := newEmpty(ss, a.Name, a.Names, 3*a.NSite(), a.conf)
	for site := range a.SitePattern {
		src := a.Pattern(site)
		var pats [3]Pattern
		for k := range pats {
			pats[k].States = make([]bio.State, a.NSeq())
		}
		for i, s := range src.States {
			if s == a.Unknown {
				for k := range pats {
					pats[k].States[i] = b.Unknown
				}
				continue
			}
			c := a.Codon.CodonTable[s]
			pats[0].States[i] = bio.State(c / 16)
			pats[1].States[i] = bio.State(c % 16 / 4)
			pats[2].States[i] = bio.State(c % 4)
		}
		for k := range pats {
			b.addPatternLazy(pats[k], 3*site+k, 1)
		}
	}
	b.UpdatePatterns(0)
	b.CountConstSite()
	return b, nil
}

// ConvertToCodonOrAA converts DNA into codons of the genetic code
// codeID, or translates it into amino acids if nt2aa is set. Stop
// codons are reported as errors.
func (a *Alignment) ConvertToCodonOrAA(codeID string, nt2aa bool) (*Alignment, error) {
	if a.Type != bio.SeqDNA {
		return nil, errors.New("Cannot convert non-DNA alignment into codon alignment")
	}
	if a.NSite()%3 != 0 {
		return nil, errors.New("Sequence length is not divisible by 3 when converting to codon sequences")
	}
	gc, err := bio.GetGeneticCode(codeID)
	if err != nil {
		return nil, err
	}
	t := codon.New(gc, nt2aa)
	ss := StateSpace{
		Type:         bio.SeqCodon,
		NumStates:    t.NumStates,
		SequenceType: a.SequenceType,
		Codon:        t,
	}
	if nt2aa {
		ss.Type = bio.SeqProtein
	}
	ss.Unknown = bio.UnknownState(ss.Type, ss.NumStates)
	b := newEmpty(ss, a.Name, a.Names, a.NSite()/3, a.conf)
	rep := &siteReport{max: a.conf.MaxErrorsPerSite}
	for site := 0; site < a.NSite(); site += 3 {
		p1, p2, p3 := a.Pattern(site), a.Pattern(site+1), a.Pattern(site+2)
		pat := Pattern{States: make([]bio.State, a.NSeq())}
		for i := range pat.States {
			s1, s2, s3 := p1.States[i], p2.States[i], p3.States[i]
			switch {
			case s1 < 4 && s2 < 4 && s3 < 4:
				raw := codon.Raw(s1, s2, s3)
				if t.IsStop(raw) {
					rep.errorf("Sequence %s has stop codon at site %d", a.Names[i], site+1)
					pat.States[i] = b.Unknown
				} else {
					pat.States[i] = t.State(raw)
				}
			default:
				if s1 != a.Unknown || s2 != a.Unknown || s3 != a.Unknown {
					log.Warningf("Sequence %s has ambiguous character at site %d", a.Names[i], site+1)
				}
				pat.States[i] = b.Unknown
			}
		}
		if rep.nErrors == 0 {
			b.addPatternLazy(pat, site/3, 1)
		}
	}
	if rep.nErrors > 0 {
		return nil, &FormatError{Messages: rep.errors}
	}
	b.UpdatePatterns(0)
	b.CountConstSite()
	return b, nil
}
