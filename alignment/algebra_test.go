package alignment

import (
	"math/rand"
	"strings"
	"testing"
)

func TestExtractSubAlignment(tst *testing.T) {
	a := newTest(tst, names4, []string{"ACGT", "A-GT", "--GA", "AC-A"}, "DNA")
	b := a.ExtractSubAlignment([]int{2, 0, 1}, 0)
	if b.NSeq() != 3 || b.Names[0] != "c" || b.NSite() != 4 {
		tst.Fatal("Wrong sub-alignment:", b.Names, b.NSite())
	}
	if s := b.Sequences(); s[0] != "--GA" || s[1] != "ACGT" {
		tst.Error("Wrong sequences:", s)
	}
	// Site 2 has one true character among c and b.
	b = a.ExtractSubAlignment([]int{2, 1}, 2)
	if b.NSite() != 2 || sumFreq(b) != 2 {
		tst.Error("Expected 2 sites with at least 2 characters, got", b.NSite())
	}
}

func TestExtractPatterns(tst *testing.T) {
	a := newTest(tst, names4, seqs4, "")
	b, err := a.ExtractPatterns([]int{0, 4})
	if err != nil {
		tst.Fatal(err)
	}
	if b.NPattern() != 2 || b.NSite() != 3 {
		tst.Error("Wrong extracted patterns:", b)
	}
	if _, err := a.ExtractPatterns([]int{5}); err == nil {
		tst.Error("Expected error for a wrong pattern id")
	}
	b, err = a.ExtractPatternFreqs([]int{0, 3})
	if err != nil {
		tst.Fatal(err)
	}
	if b.NPattern() != 1 || b.NSite() != 3 {
		tst.Error("Wrong alignment from frequencies:", b)
	}
	if _, err := a.FromPatternFreq([]int{1}); err == nil {
		tst.Error("Expected error for a short frequency vector")
	}
}

func TestExtractSitesSpec(tst *testing.T) {
	a := newTest(tst, names4, seqs4, "")
	for _, c := range []struct {
		spec string
		seq  string
	}{
		{"1-3,5", "ACGA"},
		{"2-.\\2", "CTCT"},
		{"8 1", "TA"},
		{"4", "T"},
	} {
		b, err := a.ExtractSitesSpec(c.spec)
		if err != nil {
			tst.Error(c.spec, err)
			continue
		}
		if s := b.Sequences()[0]; s != c.seq {
			tst.Errorf("Spec %q: expected %s, got %s", c.spec, c.seq, s)
		}
	}
	for _, spec := range []string{"0-3", "5-9", "4-2", "1-3\\0", "x"} {
		if _, err := a.ExtractSitesSpec(spec); err == nil {
			tst.Error("Expected error for", spec)
		}
	}

	c := newTest(tst, []string{"a", "b", "c"}, []string{"ATGAAACCC", "ATGAAGCCC", "ATGAAACCG"}, "CODON1")
	b, err := c.ExtractSitesSpec("4-.")
	if err != nil {
		tst.Fatal(err)
	}
	if s := b.Sequences()[0]; s != "AAACCC" {
		tst.Error("Wrong codon extraction:", s)
	}
	if _, err := c.ExtractSitesSpec("1-4"); err == nil || !strings.Contains(err.Error(), "multiple of 3") {
		tst.Error("Expected codon length error, got", err)
	}
}

func TestConcatenate(tst *testing.T) {
	a := newTest(tst, []string{"a", "b", "c"}, []string{"ACGT", "ACGA", "ACTT"}, "DNA")
	b := newTest(tst, []string{"b", "c", "e"}, []string{"GG", "GC", "TT"}, "DNA")
	c, err := a.Concatenate(b)
	if err != nil {
		tst.Fatal(err)
	}
	if c.NSeq() != 4 || c.NSite() != 6 || sumFreq(c) != 6 {
		tst.Fatal("Wrong concatenation:", c)
	}
	want := []string{"ACGT--", "ACGAGG", "ACTTGC", "----TT"}
	for i, s := range c.Sequences() {
		if s != want[i] {
			tst.Errorf("Sequence %s: expected %s, got %s", c.Names[i], want[i], s)
		}
	}
	p := newTest(tst, []string{"a", "b", "c"}, []string{"ACDE", "ACDE", "ACDF"}, "AA")
	if _, err := a.Concatenate(p); err == nil {
		tst.Error("Expected error for different state spaces")
	}
}

func TestGapMasked(tst *testing.T) {
	a := newTest(tst, names4, []string{"ACGT", "ACGA", "ACGA", "ACGT"}, "DNA")
	mask := newTest(tst, []string{"d", "c", "b", "a"}, []string{"A-GT", "ACGT", "ACGT", "ACG-"}, "DNA")
	b, err := a.GapMasked(mask)
	if err != nil {
		tst.Fatal(err)
	}
	if s := b.Sequences(); s[0] != "ACG-" || s[3] != "A-GT" || s[1] != "ACGA" {
		tst.Error("Wrong masked sequences:", s)
	}
	short, _ := a.ExtractSites([]int{0})
	if _, err := short.GapMasked(mask); err == nil {
		tst.Error("Expected error for different number of sites")
	}
}

func TestShuffle(tst *testing.T) {
	a := newTest(tst, names4, seqs4, "")
	b := a.Shuffle(rand.New(rand.NewSource(2)))
	if b.NPattern() != a.NPattern() || b.NSite() != a.NSite() {
		tst.Fatal("Shuffle changed the patterns")
	}
	for i := range a.Patterns {
		if a.Patterns[i].Freq != b.Patterns[i].Freq {
			tst.Error("Shuffle changed frequency of pattern", i)
		}
	}
	counts := make([]int, b.NPattern())
	for _, q := range b.SitePattern {
		counts[q]++
	}
	for i, c := range counts {
		if c != b.Patterns[i].Freq {
			tst.Error("Site pattern map disagrees with frequencies")
		}
	}
}

func TestCompatible(tst *testing.T) {
	a := newTest(tst, names4, seqs4, "")
	if err := a.IsCompatible(a.Clone()); err != nil {
		tst.Error("Clone is not compatible:", err)
	}
	b, _ := a.ExtractSites([]int{1, 2})
	err := a.IsCompatible(b)
	if err == nil || !strings.Contains(err.Error(), "Number of sites") {
		tst.Error("Expected site number mismatch, got", err)
	}
}
