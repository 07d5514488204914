package alignment

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"bitbucket.org/Davydov/alnpat/bio"
)

// Sequences returns the textual sequences of the alignment, one per
// name.
func (a *Alignment) Sequences() []string {
	seqs := make([]string, a.NSeq())
	parallelFor(a.conf.Threads, len(seqs), func(lo, hi int) error {
		for i := lo; i < hi; i++ {
			var b strings.Builder
			for _, q := range a.SitePattern {
				b.WriteString(a.StateString(a.ConvertPomoState(a.Patterns[q].States[i])))
			}
			seqs[i] = b.String()
		}
		return nil
	})
	return seqs
}

func (a *Alignment) maxNameLen() int {
	m := 0
	for _, n := range a.Names {
		if len(n) > m {
			m = len(n)
		}
	}
	return m
}

// seqLength is the number of characters of each sequence.
func (a *Alignment) seqLength() int {
	if a.Type == bio.SeqCodon {
		return a.NSite() * 3
	}
	return a.NSite()
}

// WritePhylip writes the alignment in the sequential PHYLIP format.
func (a *Alignment) WritePhylip(w io.Writer) error {
	bw := bufio.NewWriter(w)
	width := a.maxNameLen()
	if width < 10 {
		width = 10
	}
	fmt.Fprintf(bw, "%d %d\n", a.NSeq(), a.seqLength())
	for i, s := range a.Sequences() {
		fmt.Fprintf(bw, "%-*s %s\n", width, a.Names[i], s)
	}
	return bw.Flush()
}

// WriteFasta writes the alignment in the FASTA format.
func (a *Alignment) WriteFasta(w io.Writer) error {
	bw := bufio.NewWriter(w)
	for i, s := range a.Sequences() {
		fmt.Fprintf(bw, ">%s\n%s\n", a.Names[i], s)
	}
	return bw.Flush()
}

// WriteNexus writes the alignment as a NEXUS data block. Only DNA,
// protein, binary and morphological data are supported.
func (a *Alignment) WriteNexus(w io.Writer) error {
	var datatype string
	switch a.Type {
	case bio.SeqDNA:
		datatype = "nucleotide"
	case bio.SeqProtein:
		datatype = "protein"
	case bio.SeqBinary, bio.SeqMorph:
		datatype = "standard"
	default:
		return errors.New("Unsupported datatype for NEXUS file")
	}
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "#nexus\nbegin data;\n  dimensions ntax=%d nchar=%d;\n", a.NSeq(), a.seqLength())
	fmt.Fprintf(bw, "  format datatype=%s missing=? gap=-;\n  matrix\n", datatype)
	width := a.maxNameLen()
	for i, s := range a.Sequences() {
		fmt.Fprintf(bw, "  %-*s %s\n", width, a.Names[i], s)
	}
	fmt.Fprint(bw, "  ;\nend;\n")
	return bw.Flush()
}

// siteType classifies a pattern: I informative, C constant, c
// invariant because of ambiguity, U uninformative and - gaps only.
func (a *Alignment) siteType(p *Pattern) byte {
	switch {
	case p.IsAllGaps(a.Unknown):
		return '-'
	case p.Informative:
		return 'I'
	case p.Const:
		return 'C'
	case p.Invariant:
		return 'c'
	}
	return 'U'
}

// SiteInfo returns the type letter of every site, see siteType.
func (a *Alignment) SiteInfo() string {
	b := make([]byte, a.NSite())
	for site := range a.SitePattern {
		b[site] = a.siteType(a.Pattern(site))
	}
	return string(b)
}

// WriteSiteInfo writes one line per site with the site number, the
// pattern id and the site type.
func (a *Alignment) WriteSiteInfo(w io.Writer) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintln(bw, "Site\tPattern\tInfo")
	for site, q := range a.SitePattern {
		fmt.Fprintf(bw, "%d\t%d\t%c\n", site+1, q+1, a.siteType(&a.Patterns[q]))
	}
	return bw.Flush()
}

// WriteSiteGaps writes the number of sites followed by the number of
// gaps and of ambiguous characters at every site.
func (a *Alignment) WriteSiteGaps(w io.Writer) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintln(bw, a.NSite())
	fmt.Fprint(bw, "Site_Gap  ")
	for site := range a.SitePattern {
		fmt.Fprintf(bw, " %d", a.Pattern(site).GapChars(a.Unknown))
	}
	fmt.Fprint(bw, "\nSite_Ambi ")
	for site := range a.SitePattern {
		fmt.Fprintf(bw, " %d", a.Pattern(site).AmbiguousChars(a.NumStates))
	}
	fmt.Fprintln(bw)
	return bw.Flush()
}
