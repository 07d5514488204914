package alignment

import (
	"bufio"
	"fmt"
	"io"
	"math/rand"
	"strconv"
	"strings"

	"bitbucket.org/Davydov/alnpat/bio"
)

// countsReader parses the counts file format line by line.
type countsReader struct {
	sc   *bufio.Scanner
	line string
	num  int
}

func (cr *countsReader) next() bool {
	if !cr.sc.Scan() {
		return false
	}
	cr.line = cr.sc.Text()
	cr.num++
	return true
}

// nextData returns the next line which is not a comment.
func (cr *countsReader) nextData() bool {
	for cr.next() {
		if !strings.HasPrefix(strings.TrimSpace(cr.line), "#") {
			return true
		}
	}
	return false
}

// ReadCounts reads allele counts of populations ("counts file") into
// a PoMo alignment. The virtual population size and the sampling
// method are taken from the model name, see PomoOptions. rng is used
// only by sampled (+S) data.
//
// The format is:
//
//	COUNTSFILE NPOP 2 NSITES 3
//	CHROM POS pop1 pop2
//	chr1 1 0,0,4,1 0,0,5,0
//
// with A,C,G,T counts per population.
func ReadCounts(r io.Reader, modelName string, rng *rand.Rand, conf *Config) (*Alignment, error) {
	n, sampling, err := PomoOptions(modelName)
	if err != nil {
		return nil, err
	}
	if sampling == SamplingSampled && rng == nil {
		return nil, fmt.Errorf("random sampling of counts requires a random number generator")
	}
	cr := &countsReader{sc: bufio.NewScanner(r)}
	cr.sc.Buffer(make([]byte, 0, 64*1024), 1<<30)

	if !cr.nextData() {
		return nil, formatErrorf("Counts-File identification line could not be read.")
	}
	var npop, nsites int
	if k, err := fmt.Sscanf(cr.line, "COUNTSFILE NPOP %d NSITES %d", &npop, &nsites); err != nil || k != 2 {
		return nil, formatErrorf("Counts-File identification line could not be read.")
	}
	log.Infof("Number of populations: %d", npop)
	log.Infof("Number of sites: %d", nsites)
	if nsites <= 0 {
		return nil, formatErrorf("Number of sites is 0.")
	}

	if !cr.nextData() {
		return nil, formatErrorf("Counts-File header line could not be read.")
	}
	header := strings.Fields(cr.line)
	for i, want := range []string{"Chrom", "Pos"} {
		if i >= len(header) || (header[i] != want && header[i] != strings.ToUpper(want)) {
			f := ""
			if i < len(header) {
				f = header[i]
			}
			return nil, formatErrorf("Unrecognized header field %s.", f)
		}
	}
	names := header[2:]
	if len(names) != npop {
		return nil, formatErrorf("Number of populations in headerline doesn't match NPOP.")
	}

	ss := StateSpace{
		Type:         bio.SeqPomo,
		NumStates:    PomoNumStates(n),
		SequenceType: modelName,
		Pomo:         newPomo(n, sampling),
	}
	var (
		rows          [][]bio.State
		fails         int
		nUnknownSites int
		nSamples      int
		nPopSites     int
	)
	for cr.nextData() {
		fields := strings.Fields(cr.line)
		if len(fields) == 0 {
			continue
		}
		if len(fields)-2 != npop {
			return nil, formatErrorf("Number of species does not match on line %d.", cr.num)
		}
		row := make([]bio.State, npop)
		ok := true
		unknown := false
		for i, field := range fields[2:] {
			values, err := parseCountField(field, cr.num)
			if err != nil {
				return nil, err
			}
			s, samples, good := ss.Pomo.state(values, ss.NumStates, rng)
			if samples > 0 {
				nSamples += samples
				nPopSites++
			}
			if s == bio.StateInvalid {
				unknown = true
			}
			ok = ok && good
			row[i] = s
		}
		if !ok {
			fails++
			log.Debugf("Pattern on line %d was not added.", cr.num)
			continue
		}
		if unknown {
			nUnknownSites++
		}
		rows = append(rows, row)
	}
	if err := cr.sc.Err(); err != nil {
		return nil, err
	}
	if len(rows)+fails != nsites {
		return nil, formatErrorf("Number of sites does not match NSITES.")
	}

	if sampling == SamplingSampled {
		ss.Unknown = bio.State(ss.NumStates)
	} else {
		ss.Unknown = bio.State(ss.NumStates + len(ss.Pomo.Sampled))
	}
	a := newEmpty(ss, "", names, 0, conf)
	for site, row := range rows {
		for i, s := range row {
			if s == bio.StateInvalid {
				row[i] = a.Unknown
			}
		}
		a.addPatternLazy(Pattern{States: row}, site, 1)
	}
	a.UpdatePatterns(0)
	a.CountConstSite()

	log.Infof("Normal sites: %d", len(rows)-nUnknownSites)
	log.Infof("Sites with unknown states: %d", nUnknownSites)
	log.Infof("Total sites read: %d", len(rows))
	log.Infof("Fails: %d", fails)
	if sampling != SamplingSampled {
		log.Infof("Compound states: %d", len(ss.Pomo.Sampled))
	}
	if nPopSites > 0 {
		avg := float64(nSamples) / float64(nPopSites)
		log.Infof("The average number of samples is %v", avg)
		if sampling == SamplingWeightedBinomial && avg*3 <= float64(n) {
			log.Warning("The virtual population size N is much larger than the average number of samples.")
			log.Warning("This setting together with /weighted binomial/ sampling may be numerically unstable.")
		}
	}
	return a, nil
}

func parseCountField(field string, line int) ([4]int, error) {
	var values [4]int
	parts := strings.Split(field, ",")
	if len(parts) != 4 {
		return values, formatErrorf("Number of bases does not match on line %d.", line)
	}
	for i, p := range parts {
		v, err := strconv.Atoi(p)
		if err != nil || v < 0 {
			return values, formatErrorf("Could not read value %s on line %d.", p, line)
		}
		values[i] = v
	}
	return values, nil
}

// state converts allele counts of one population into an alignment
// state. Populations without data get StateInvalid, which is replaced
// by the unknown state once it is known. samples is the number of
// individuals counted towards the average sample size. ok is false if
// the site cannot be represented.
func (p *Pomo) state(values [4]int, numStates int, rng *rand.Rand) (s bio.State, samples int, ok bool) {
	id1, id2, count := -1, -1, 0
	for i, v := range values {
		if v == 0 {
			continue
		}
		count++
		if id1 < 0 {
			id1 = i
		} else if id2 < 0 {
			id2 = i
		}
	}
	switch count {
	case 0:
		return bio.StateInvalid, 0, true
	case 1:
		v := values[id1]
		if p.Sampling == SamplingSampled {
			return bio.State(id1), v, true
		}
		i := p.compound(uint32(id1) | uint32(v)<<2)
		return bio.State(numStates + i), v, v < maxAlleleCount
	case 2:
		v1, v2 := values[id1], values[id2]
		if p.Sampling == SamplingSampled {
			return p.sample(id1, id2, v1, v2, rng), v1 + v2, true
		}
		c := (uint32(id1) | uint32(v1)<<2) | (uint32(id2)|uint32(v2)<<2)<<16
		i := p.compound(c)
		return bio.State(numStates + i), v1 + v2, v1 < maxAlleleCount && v2 < maxAlleleCount
	}
	return bio.StateInvalid, 0, false
}

// sample draws N individuals from two alleles with counts v1 and v2.
func (p *Pomo) sample(id1, id2, v1, v2 int, rng *rand.Rand) bio.State {
	n1 := 0
	for k := 0; k < p.N; k++ {
		if rng.Intn(v1+v2) < v1 {
			n1++
		}
	}
	switch n1 {
	case 0:
		return bio.State(id2)
	case p.N:
		return bio.State(id1)
	}
	return p.polymorphicState(id1, id2, n1)
}
