package alignment

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
	"strconv"
	"strings"
)

// parseIntList parses a comma separated list of integers.
func parseIntList(s string) ([]int, error) {
	var res []int
	for _, f := range strings.Split(s, ",") {
		f = strings.TrimSpace(f)
		if f == "" {
			continue
		}
		v, err := strconv.Atoi(f)
		if err != nil {
			return nil, fmt.Errorf("Expecting integer, but found \"%s\" instead", f)
		}
		if v < 0 {
			return nil, fmt.Errorf("negative length %d in bootstrap specification", v)
		}
		res = append(res, v)
	}
	return res, nil
}

// geneStarts returns the first site of each gene and checks that the
// genes fit the alignment.
func (a *Alignment) geneStarts(lengths []int) ([]int, error) {
	starts := make([]int, len(lengths))
	site := 0
	for i, l := range lengths {
		starts[i] = site
		site += l
	}
	if site > a.NSite() {
		return nil, errors.New("Sum of lengths exceeded alignment length")
	}
	return starts, nil
}

// resample draws sites with replacement according to spec and calls
// add for each drawn site.
//
// Empty spec resamples all the sites. "GENE,l1,l2,..." resamples
// whole genes of the given lengths, "GENESITE,l1,l2,..." resamples
// genes and then sites within each drawn gene. "l1,n1,l2,n2,..."
// draws n_i sites from the i-th block of length l_i.
func (a *Alignment) resample(rng *rand.Rand, spec string, add func(site int)) error {
	switch {
	case spec == "":
		n := a.NSite()
		if n == 0 {
			return nil
		}
		counts := make([]int, n)
		for i := 0; i < n; i++ {
			counts[rng.Intn(n)]++
		}
		for site, c := range counts {
			for ; c > 0; c-- {
				add(site)
			}
		}
	case strings.HasPrefix(spec, "GENESITE,"):
		lengths, err := parseIntList(spec[len("GENESITE,"):])
		if err != nil {
			return err
		}
		starts, err := a.geneStarts(lengths)
		if err != nil {
			return err
		}
		for range lengths {
			part := rng.Intn(len(lengths))
			for j := 0; j < lengths[part]; j++ {
				add(starts[part] + rng.Intn(lengths[part]))
			}
		}
	case strings.HasPrefix(spec, "GENE,"):
		lengths, err := parseIntList(spec[len("GENE,"):])
		if err != nil {
			return err
		}
		starts, err := a.geneStarts(lengths)
		if err != nil {
			return err
		}
		for range lengths {
			part := rng.Intn(len(lengths))
			for site := starts[part]; site < starts[part]+lengths[part]; site++ {
				add(site)
			}
		}
	default:
		vec, err := parseIntList(spec)
		if err != nil {
			return err
		}
		if len(vec)%2 != 0 {
			return errors.New("Bootstrap specification length is not divisible by 2")
		}
		begin := 0
		for part := 0; part < len(vec); part += 2 {
			l, n := vec[part], vec[part+1]
			if begin+l > a.NSite() {
				return errors.New("Sum of lengths exceeded alignment length")
			}
			if n > 0 && l == 0 {
				return fmt.Errorf("cannot draw %d sites from an empty block", n)
			}
			for j := 0; j < n; j++ {
				add(begin + rng.Intn(l))
			}
			begin += l
		}
	}
	return nil
}

// Bootstrap returns a bootstrap replicate of the alignment and the
// number of times each pattern of the receiver was drawn. See
// resample for the spec syntax.
func (a *Alignment) Bootstrap(rng *rand.Rand, spec string) (*Alignment, []int, error) {
	b := a.derive(a.Names, 0)
	freq := make([]int, a.NPattern())
	out := 0
	err := a.resample(rng, spec, func(site int) {
		q := a.SitePattern[site]
		freq[q]++
		b.addPatternLazy(a.Patterns[q].Copy(), out, 1)
		out++
	})
	if err != nil {
		return nil, nil, err
	}
	b.UpdatePatterns(0)
	b.CountConstSite()
	return b, freq, nil
}

// BootstrapFreq returns only the pattern frequencies of a bootstrap
// replicate. In addition to the Bootstrap specs it accepts
// "SCALE=x", drawing round(x*nsite) sites.
func (a *Alignment) BootstrapFreq(rng *rand.Rand, spec string) ([]int, error) {
	freq := make([]int, a.NPattern())
	if strings.HasPrefix(spec, "SCALE=") {
		scale, err := strconv.ParseFloat(spec[len("SCALE="):], 64)
		if err != nil || scale < 0 {
			return nil, fmt.Errorf("wrong bootstrap scale %s", spec[len("SCALE="):])
		}
		n := a.NSite()
		if n == 0 {
			return freq, nil
		}
		m := int(math.Round(scale * float64(n)))
		for i := 0; i < m; i++ {
			freq[a.SitePattern[rng.Intn(n)]]++
		}
		return freq, nil
	}
	err := a.resample(rng, spec, func(site int) {
		freq[a.SitePattern[site]]++
	})
	if err != nil {
		return nil, err
	}
	return freq, nil
}
