package alignment

import (
	"bitbucket.org/Davydov/alnpat/bio"
	"bitbucket.org/Davydov/alnpat/codon"
)

// New builds an alignment from sequence names and equally long
// sequences. hint is a user sequence type specification ("DNA",
// "AA", "BIN", "MORPH", "CODON<code>", "NT2AA<code>"), empty string
// means the type is detected.
//
// Problems with names and lengths are reported immediately. Invalid
// characters and stop codons are collected over all the sites and
// reported in a single *FormatError.
func New(names, seqs []string, hint string, conf *Config) (*Alignment, error) {
	conf = conf.orDefault()
	if len(names) != len(seqs) {
		return nil, formatErrorf("Different number of sequences than specified")
	}
	if len(seqs) < 3 {
		return nil, formatErrorf("There must be at least 3 sequences")
	}
	if err := checkNames(names, seqs); err != nil {
		return nil, err
	}
	ss, err := newStateSpace(seqs, hint)
	if err != nil {
		return nil, err
	}
	a := newEmpty(ss, "", names, 0, conf)
	if err := a.constructPatterns(seqs); err != nil {
		return nil, err
	}
	a.CountConstSite()
	return a, nil
}

func checkNames(names, seqs []string) error {
	var msgs []string
	seen := make(map[string]bool, len(names))
	for i, name := range names {
		if name == "" {
			msgs = append(msgs, formatErrorf("Sequence number %d has no names", i+1).Messages...)
		}
		if seen[name] {
			msgs = append(msgs, formatErrorf("The sequence name %s is duplicated", name).Messages...)
		}
		seen[name] = true
	}
	if len(msgs) > 0 {
		return &FormatError{Messages: msgs}
	}
	nsite := len(seqs[0])
	for i, seq := range seqs {
		if len(seq) == nsite {
			continue
		}
		what := "too many"
		if len(seq) < nsite {
			what = "not enough"
		}
		msgs = append(msgs, formatErrorf("Sequence %s contains %s characters (%d)", names[i], what, len(seq)).Messages...)
	}
	if len(msgs) > 0 {
		return &FormatError{Messages: msgs}
	}
	return nil
}

// newStateSpace detects the sequence type and applies the user
// specification.
func newStateSpace(seqs []string, hint string) (ss StateSpace, err error) {
	h, err := bio.ParseTypeHint(hint)
	if err != nil {
		return ss, &FormatError{Messages: []string{err.Error()}}
	}
	detected := bio.DetectSequenceType(seqs)
	ss = StateSpace{Type: detected, SequenceType: hint}
	switch detected {
	case bio.SeqBinary, bio.SeqDNA, bio.SeqProtein:
		ss.NumStates = bio.DefaultNumStates(detected)
		log.Infof("Alignment most likely contains %v sequences", detected)
	case bio.SeqMorph:
		n, err := bio.MorphStates(seqs)
		if err != nil {
			return ss, formatErrorf("Invalid number of states.")
		}
		ss.NumStates = n
		log.Infof("Alignment most likely contains %d-state morphological data", n)
	default:
		if h.Type == bio.SeqUnknown {
			return ss, formatErrorf("Unknown sequence type.")
		}
	}

	switch h.Type {
	case bio.SeqUnknown:
	case bio.SeqBinary, bio.SeqDNA:
		ss.NumStates = bio.DefaultNumStates(h.Type)
	case bio.SeqMorph:
		n, err := bio.MorphStates(seqs)
		if err != nil {
			return ss, formatErrorf("Invalid number of states")
		}
		ss.NumStates = n
	case bio.SeqCodon, bio.SeqProtein:
		ss.NumStates = bio.DefaultNumStates(bio.SeqProtein)
		if h.Type == bio.SeqProtein && !h.NT2AA {
			break
		}
		if detected != bio.SeqDNA {
			if h.NT2AA {
				log.Warning("Sequence type detected as non DNA!")
			} else {
				log.Warning("You want to use codon models but the sequences were not detected as DNA")
			}
		}
		gc, err := bio.GetGeneticCode(h.Code)
		if err != nil {
			return ss, &FormatError{Messages: []string{err.Error()}}
		}
		ss.Codon = codon.New(gc, h.NT2AA)
		ss.NumStates = ss.Codon.NumStates
		if h.NT2AA {
			log.Infof("Translating to amino-acid sequences with genetic code %d ...", gc.ID)
		} else {
			log.Infof("Converting to codon sequences with genetic code %d ...", gc.ID)
		}
	}
	if h.Type != bio.SeqUnknown {
		if h.Type != detected && detected != bio.SeqUnknown && ss.Codon == nil {
			log.Warningf("Your specified sequence type (%v) is different from the detected one (%v)", h.Type, detected)
		}
		ss.Type = h.Type
	}
	ss.Unknown = bio.UnknownState(ss.Type, ss.NumStates)
	return ss, nil
}

// constructPatterns converts sequences into patterns in two phases.
// Sites are transcribed in parallel, each with its own report, then
// patterns are merged sequentially in site order.
func (a *Alignment) constructPatterns(seqs []string) error {
	step := 1
	nt := a.codec()
	if a.Codon != nil {
		step = 3
		nt = bio.Codec{Type: bio.SeqCodon, NumStates: 4, Unknown: a.Unknown}
	}
	nsite := len(seqs[0])
	if nsite%step != 0 {
		return formatErrorf("Number of sites is not multiple of 3")
	}
	npat := nsite / step
	pats := make([]Pattern, npat)
	hashes := make([]uint64, npat)
	gaps := make([]bool, npat)
	reports := make([]siteReport, npat)

	parallelFor(a.conf.Threads, npat, func(lo, hi int) error {
		for r := lo; r < hi; r++ {
			site := r * step
			rep := &reports[r]
			rep.max = a.conf.MaxErrorsPerSite
			states := make([]bio.State, len(seqs))
			for i, seq := range seqs {
				s := nt.ConvertState(seq[site])
				if step == 3 {
					s = a.codonState(nt, a.Names[i], seq, site, s, rep)
				}
				if s == bio.StateInvalid {
					chars := seq[site : site+1]
					if step == 3 {
						chars = seq[site : site+3]
					}
					rep.errorf("Sequence %s has invalid character %s at site %d", a.Names[i], chars, site+1)
				}
				states[i] = s
			}
			pats[r] = Pattern{States: states}
			a.ComputeConst(&pats[r])
			hashes[r] = hashStates(states)
			if rep.nErrors == 0 {
				gaps[r] = pats[r].IsAllGaps(a.Unknown)
			}
		}
		return nil
	})

	var msgs []string
	a.Patterns = pats
	a.SitePattern = make([]int, npat)
	w := 0
	for r := range pats {
		rep := &reports[r]
		a.SitePattern[r] = -1
		for _, m := range rep.warnings {
			log.Warning(m)
		}
		if len(rep.errors) > 0 {
			msgs = append(msgs, rep.errors...)
			continue
		}
		if gaps[r] {
			a.NumGapsOnly++
		}
		if q, ok := a.find(hashes[r], pats[r].States); ok {
			pats[q].Freq++
			a.SitePattern[r] = q
			continue
		}
		if w < r {
			pats[w], pats[r] = pats[r], pats[w]
		}
		pats[w].Freq = 1
		a.index[hashes[r]] = append(a.index[hashes[r]], w)
		a.SitePattern[r] = w
		w++
	}
	a.Patterns = pats[:w]

	if a.NumGapsOnly > 0 {
		log.Warningf("%d sites contain only gaps or ambiguous characters.", a.NumGapsOnly)
	}
	if len(msgs) > 0 {
		return &FormatError{Messages: msgs}
	}
	return nil
}

// codonState combines three nucleotides starting at site into a
// codon (or amino acid) state.
func (a *Alignment) codonState(nt bio.Codec, name, seq string, site int, s1 bio.State, rep *siteReport) bio.State {
	s2 := nt.ConvertState(seq[site+1])
	s3 := nt.ConvertState(seq[site+2])
	switch {
	case s1 < 4 && s2 < 4 && s3 < 4:
		raw := codon.Raw(s1, s2, s3)
		if a.Codon.IsStop(raw) {
			rep.errorf("Sequence %s has stop codon %s at site %d", name, seq[site:site+3], site+1)
			return a.Unknown
		}
		return a.Codon.State(raw)
	case s1 == bio.StateInvalid || s2 == bio.StateInvalid || s3 == bio.StateInvalid:
		return bio.StateInvalid
	}
	if s1 != a.Unknown || s2 != a.Unknown || s3 != a.Unknown {
		rep.warningf("Sequence %s has ambiguous character %s at site %d", name, seq[site:site+3], site+1)
	}
	return a.Unknown
}
