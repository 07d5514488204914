package alignment

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestWritePhylip(tst *testing.T) {
	a := newTest(tst, names4, seqs4, "")
	var b strings.Builder
	if err := a.WritePhylip(&b); err != nil {
		tst.Fatal(err)
	}
	lines := strings.Split(b.String(), "\n")
	if lines[0] != "4 8" {
		tst.Error("Wrong header:", lines[0])
	}
	if lines[2] != "b          ACGTACGA" {
		tst.Errorf("Wrong line: %q", lines[2])
	}

	c := newTest(tst, []string{"a", "b", "c"}, []string{"ATGAAA", "ATGAAG", "ATG---"}, "CODON1")
	b.Reset()
	if err := c.WritePhylip(&b); err != nil {
		tst.Fatal(err)
	}
	if !strings.HasPrefix(b.String(), "3 6\n") {
		tst.Error("Codon header must count nucleotides:", b.String())
	}
}

func TestWriteFastaNexus(tst *testing.T) {
	a := newTest(tst, names4, seqs4, "")
	var b strings.Builder
	if err := a.WriteFasta(&b); err != nil {
		tst.Fatal(err)
	}
	if !strings.HasPrefix(b.String(), ">a\nACGTACGT\n>b\n") {
		tst.Error("Wrong fasta:", b.String())
	}

	b.Reset()
	if err := a.WriteNexus(&b); err != nil {
		tst.Fatal(err)
	}
	out := b.String()
	for _, s := range []string{"#nexus", "dimensions ntax=4 nchar=8;", "datatype=nucleotide", "  c ACGAACGA\n", "end;"} {
		if !strings.Contains(out, s) {
			tst.Errorf("Expected %q in nexus output:\n%s", s, out)
		}
	}

	c := newTest(tst, []string{"a", "b", "c"}, []string{"ATGAAA", "ATGAAG", "ATG---"}, "CODON1")
	if err := c.WriteNexus(&b); err == nil {
		tst.Error("Codon data cannot be written as NEXUS")
	}
}

func TestSiteInfo(tst *testing.T) {
	a := newTest(tst, names4, seqs4, "")
	if s := a.SiteInfo(); s != "CCCUCCCI" {
		tst.Error("Wrong site info:", s)
	}
	g := newTest(tst, names4, []string{"A-RT", "A-GT", "A-GA", "C-GA"}, "DNA")
	if s := g.SiteInfo(); s != "U-cI" {
		tst.Error("Wrong site info:", s)
	}
	var b strings.Builder
	if err := a.WriteSiteInfo(&b); err != nil {
		tst.Fatal(err)
	}
	if !strings.Contains(b.String(), "8\t5\tI\n") {
		tst.Error("Wrong site info table:", b.String())
	}
}

func TestWriteSiteGaps(tst *testing.T) {
	a := newTest(tst, names4, []string{"ACGT", "A-RT", "A-GN", "A-GT"}, "DNA")
	var b strings.Builder
	if err := a.WriteSiteGaps(&b); err != nil {
		tst.Fatal(err)
	}
	want := "4\nSite_Gap   0 3 0 1\nSite_Ambi  0 3 1 1\n"
	if b.String() != want {
		tst.Errorf("Expected\n%s\ngot\n%s", want, b.String())
	}
}

func TestSnapshot(tst *testing.T) {
	for _, c := range []struct {
		seqs []string
		hint string
	}{
		{seqs4, ""},
		{[]string{"ATGAAA", "ATGAAG", "ATG---", "TTTAAA"}, "CODON2"},
	} {
		a := newTest(tst, names4, c.seqs, c.hint)
		data, err := json.Marshal(a.Snapshot())
		if err != nil {
			tst.Fatal(err)
		}
		var s Snapshot
		if err := json.Unmarshal(data, &s); err != nil {
			tst.Fatal(err)
		}
		b, err := FromSnapshot(&s, nil)
		if err != nil {
			tst.Fatal(err)
		}
		if b.NPattern() != a.NPattern() || b.NumInformativeSites != a.NumInformativeSites {
			tst.Error("Restored alignment differs:", b)
		}
		sa, sb := a.Sequences(), b.Sequences()
		for i := range sa {
			if sa[i] != sb[i] {
				tst.Errorf("Sequence %d differs: %s vs %s", i, sa[i], sb[i])
			}
		}
		if c.hint != "" && (b.Codon == nil || b.Codon.Code.ID != 2) {
			tst.Error("Codon table was not restored")
		}
		if _, ok := b.find(b.Patterns[0].Hash(), b.Patterns[0].States); !ok {
			tst.Error("Pattern index was not restored")
		}
	}

	a := newTest(tst, names4, seqs4, "")
	s := a.Snapshot()
	s.Freqs[0]++
	if _, err := FromSnapshot(s, nil); err == nil {
		tst.Error("Expected error for inconsistent frequencies")
	}
}
