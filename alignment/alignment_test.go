package alignment

import (
	"fmt"
	"math"
	"math/rand"
	"strings"
	"testing"

	"github.com/op/go-logging"

	"bitbucket.org/Davydov/alnpat/bio"
)

func init() {
	logging.SetLevel(logging.ERROR, "alignment")
}

var (
	names4 = []string{"a", "b", "c", "d"}
	seqs4  = []string{
		"ACGTACGT",
		"ACGTACGA",
		"ACGAACGA",
		"ACGTACGT",
	}
)

func newTest(tst *testing.T, names, seqs []string, hint string) *Alignment {
	a, err := New(names, seqs, hint, nil)
	if err != nil {
		tst.Fatal("Error building alignment:", err)
	}
	return a
}

func sumFreq(a *Alignment) int {
	sum := 0
	for _, f := range a.PatternFreq() {
		sum += f
	}
	return sum
}

func TestNewDedup(tst *testing.T) {
	a := newTest(tst, names4, seqs4, "")
	if a.Type != bio.SeqDNA || a.NumStates != 4 || a.Unknown != bio.UnknownDNA {
		tst.Error("Wrong state space:", a.Type, a.NumStates, a.Unknown)
	}
	if a.NSite() != 8 || a.NPattern() != 5 {
		tst.Errorf("Expected 8 sites and 5 patterns, got %d and %d", a.NSite(), a.NPattern())
	}
	if sumFreq(a) != a.NSite() {
		tst.Error("Pattern frequencies do not sum to the number of sites")
	}
	want := []int{0, 1, 2, 3, 0, 1, 2, 4}
	for i, q := range a.SitePattern {
		if q != want[i] {
			tst.Fatal("Wrong site patterns:", a.SitePattern)
		}
	}
	for i := range a.Patterns {
		for j := i + 1; j < len(a.Patterns); j++ {
			if a.Patterns[i].Equal(&a.Patterns[j]) {
				tst.Error("Duplicate patterns", i, j)
			}
		}
	}
	if a.NumConstSites != 6 || a.NumInvariantSites != 6 || a.NumVariantSites != 2 || a.NumInformativeSites != 1 {
		tst.Error("Wrong site counts:", a.NumConstSites, a.NumInvariantSites, a.NumVariantSites, a.NumInformativeSites)
	}
	if math.Abs(a.FracConstSites-0.75) > 1e-10 {
		tst.Error("Wrong fraction of constant sites:", a.FracConstSites)
	}
}

func TestNewSequential(tst *testing.T) {
	conf := DefaultConfig()
	conf.Threads = 1
	a, err := New(names4, seqs4, "", conf)
	if err != nil {
		tst.Fatal(err)
	}
	b := newTest(tst, names4, seqs4, "")
	for i := range a.SitePattern {
		if a.SitePattern[i] != b.SitePattern[i] {
			tst.Fatal("Parallel construction differs from sequential")
		}
	}
}

func TestNewErrors(tst *testing.T) {
	for _, c := range []struct {
		names, seqs []string
		msg         string
	}{
		{[]string{"a", "b"}, []string{"AC", "AC"}, "at least 3"},
		{[]string{"a", "b", "c"}, []string{"AC", "AC"}, "Different number"},
		{[]string{"a", "a", "c"}, []string{"AC", "AC", "AC"}, "duplicated"},
		{[]string{"a", "", "c"}, []string{"AC", "AC", "AC"}, "no names"},
		{[]string{"a", "b", "c"}, []string{"AC", "ACG", "AC"}, "too many characters"},
		{[]string{"a", "b", "c"}, []string{"ACGT", "ACGT", "AJGT"}, "invalid character J at site 2"},
	} {
		_, err := New(c.names, c.seqs, "DNA", nil)
		if err == nil {
			tst.Error("Expected error:", c.msg)
			continue
		}
		if _, ok := err.(*FormatError); !ok {
			tst.Errorf("Expected *FormatError, got %T", err)
		}
		if !strings.Contains(err.Error(), c.msg) {
			tst.Errorf("Expected %q in error, got %q", c.msg, err)
		}
	}
}

func TestNewManyErrors(tst *testing.T) {
	names := make([]string, 5)
	seqs := make([]string, 5)
	for i := range names {
		names[i] = fmt.Sprintf("s%d", i)
		seqs[i] = "ACJ"
	}
	conf := DefaultConfig()
	conf.MaxErrorsPerSite = 2
	_, err := New(names, seqs, "DNA", conf)
	if err == nil {
		tst.Fatal("Expected error")
	}
	msgs := err.(*FormatError).Messages
	if len(msgs) != 3 || msgs[2] != "...many more..." {
		tst.Error("Expected truncated messages, got", msgs)
	}
}

func TestCodon(tst *testing.T) {
	names := []string{"a", "b", "c"}
	_, err := New(names, []string{"ATGAAA", "ATGAAG", "ATGTAA"}, "CODON", nil)
	if err == nil || !strings.Contains(err.Error(), "Sequence c has stop codon TAA at site 4") {
		tst.Error("Expected stop codon error, got", err)
	}
	_, err = New(names, []string{"ATGAA", "ATGAG", "ATGTA"}, "CODON1", nil)
	if err == nil || !strings.Contains(err.Error(), "multiple of 3") {
		tst.Error("Expected length error, got", err)
	}

	a := newTest(tst, names, []string{"ATGAAA", "ATGAAG", "ATG---"}, "CODON1")
	if a.Type != bio.SeqCodon || a.NumStates != 61 || a.Unknown != 61 {
		tst.Error("Wrong codon state space:", a.Type, a.NumStates, a.Unknown)
	}
	if a.NSite() != 2 {
		tst.Error("Expected 2 codon sites, got", a.NSite())
	}
	if s := a.Sequences(); s[2] != "ATG---" {
		tst.Error("Wrong codon sequence:", s)
	}

	dna, err := a.ConvertCodonToDNA()
	if err != nil {
		tst.Fatal(err)
	}
	if dna.NSite() != 6 || dna.Sequences()[1] != "ATGAAG" {
		tst.Error("Wrong DNA conversion:", dna.Sequences())
	}
	aa, err := a.ConvertCodonToAA()
	if err != nil {
		tst.Fatal(err)
	}
	if s := aa.Sequences(); s[0] != "MK" || s[2] != "M-" {
		tst.Error("Wrong translation:", s)
	}

	back, err := dna.ConvertToCodonOrAA("1", false)
	if err != nil {
		tst.Fatal(err)
	}
	if back.NPattern() != a.NPattern() || back.Sequences()[0] != "ATGAAA" {
		tst.Error("Wrong codon conversion:", back.Sequences())
	}
}

func TestNT2AA(tst *testing.T) {
	a := newTest(tst, []string{"a", "b", "c"}, []string{"ATGAAA", "ATGAAG", "TTTAAA"}, "NT2AA")
	if a.Type != bio.SeqProtein || a.NSite() != 2 {
		tst.Fatal("Wrong translated alignment:", a)
	}
	if s := a.Sequences(); s[0] != "MK" || s[1] != "MK" || s[2] != "FK" {
		tst.Error("Wrong translation:", s)
	}
}

func TestComputeConstIdempotent(tst *testing.T) {
	a := newTest(tst, names4, []string{"ACRT", "AYGT", "A-GT", "ACGN"}, "DNA")
	for i := range a.Patterns {
		p := a.Patterns[i]
		a.ComputeConst(&p)
		q := p
		a.ComputeConst(&q)
		if p.Const != q.Const || p.Informative != q.Informative || p.Invariant != q.Invariant ||
			p.NumChars != q.NumChars || p.ConstChar != q.ConstChar {
			tst.Error("Flags changed on recomputation of pattern", i)
		}
	}
	// R (A or G) and G make the third column invariant but not
	// constant.
	p := a.Pattern(2)
	if p.Const || !p.Invariant {
		tst.Error("Expected invariant non-constant site:", *p)
	}
}

func TestUngroupRegroup(tst *testing.T) {
	a := newTest(tst, names4, seqs4, "")
	u := a.UngroupSitePattern()
	if u.NPattern() != a.NSite() || sumFreq(u) != a.NSite() {
		tst.Error("Wrong ungrouped alignment:", u)
	}
	r, err := u.RegroupSitePattern(2, []int{0, 0, 0, 0, 1, 1, 1, 1})
	if err != nil {
		tst.Fatal(err)
	}
	// AAAA, CCCC, GGGG appear in both halves.
	if r.NPattern() != 8 {
		tst.Error("Expected 8 grouped patterns, got", r.NPattern())
	}
	r, err = u.RegroupSitePattern(1, make([]int, a.NSite()))
	if err != nil {
		tst.Fatal(err)
	}
	if r.NPattern() != a.NPattern() {
		tst.Error("Regrouping in one group should merge all the patterns")
	}
	if _, err := u.RegroupSitePattern(1, []int{0}); err == nil {
		tst.Error("Expected error for a short group vector")
	}
}

func TestConstPatterns(tst *testing.T) {
	a := newTest(tst, names4, seqs4, "")
	b, err := a.AddConstPatterns([]int{1, 0, 0, 2})
	if err != nil {
		tst.Fatal(err)
	}
	if b.NSite() != 11 || b.NPattern() != 6 || a.NSite() != 8 {
		tst.Error("Wrong alignment after adding constant patterns:", b, a)
	}
	if _, err := a.AddConstPatterns([]int{1}); err == nil {
		tst.Error("Expected error for a wrong number of states")
	}

	pats, err := a.UnobservedConstPatterns(ASCVariant)
	if err != nil {
		tst.Fatal(err)
	}
	if len(pats) != 1 || pats[0].ConstChar != 3 {
		tst.Error("Expected missing TTTT pattern, got", pats)
	}
	pats, err = a.UnobservedConstPatterns(ASCVariantMissing)
	if err != nil {
		tst.Fatal(err)
	}
	if len(pats) != 4*a.NPattern()+1 || !pats[len(pats)-1].IsAllGaps(a.Unknown) {
		tst.Error("Wrong Holder correction patterns:", len(pats))
	}
}

func TestOrderPatternByNumChars(tst *testing.T) {
	a := newTest(tst, names4, seqs4, "")
	a.OrderPatternByNumChars(false)
	if len(a.Ordered) != 2 || a.NumParsimonySites != 2 {
		tst.Fatal("Expected 2 variant patterns, got", len(a.Ordered))
	}
	if len(a.ParsLowerBound) != 1 || a.ParsLowerBound[0] != 2 {
		tst.Error("Wrong parsimony lower bound:", a.ParsLowerBound)
	}
	a.OrderPatternByNumChars(true)
	if len(a.Ordered) != 1 || !a.Ordered[0].Informative {
		tst.Error("Expected only the informative pattern:", a.Ordered)
	}
}

func TestBootstrap(tst *testing.T) {
	a := newTest(tst, names4, seqs4, "")
	rng := rand.New(rand.NewSource(1))
	for _, spec := range []string{"", "GENE,4,4", "GENESITE,4,4", "4,4,4,4"} {
		b, freq, err := a.Bootstrap(rng, spec)
		if err != nil {
			tst.Fatal(spec, err)
		}
		total := 0
		for _, f := range freq {
			total += f
		}
		if b.NSite() != 8 || sumFreq(b) != 8 || total != 8 {
			tst.Errorf("Bootstrap %q does not conserve sites: %d %d %d", spec, b.NSite(), sumFreq(b), total)
		}
	}
	freq, err := a.BootstrapFreq(rng, "SCALE=2")
	if err != nil {
		tst.Fatal(err)
	}
	total := 0
	for _, f := range freq {
		total += f
	}
	if total != 16 {
		tst.Error("Expected 16 sites for SCALE=2, got", total)
	}
	if _, _, err := a.Bootstrap(rng, "4,4,4"); err == nil || !strings.Contains(err.Error(), "divisible by 2") {
		tst.Error("Expected odd specification error, got", err)
	}
	if _, _, err := a.Bootstrap(rng, "GENE,5,5"); err == nil || !strings.Contains(err.Error(), "exceeded") {
		tst.Error("Expected length error, got", err)
	}
	b, err := a.FromPatternFreq(freq)
	if err != nil {
		tst.Fatal(err)
	}
	if b.NSite() != 16 {
		tst.Error("Wrong number of sites from pattern frequencies:", b.NSite())
	}
}

func TestRemoveIdentical(tst *testing.T) {
	a := newTest(tst, []string{"a", "b", "c"}, []string{"ACGT", "ACGA", "ACGT"}, "")
	b, removed, _ := a.RemoveIdenticalSeq("", false)
	if b != a || len(removed) != 0 {
		tst.Error("Sequences must not be removed from 3 sequences")
	}

	a = newTest(tst, names4, seqs4, "")
	if a.CheckIdenticalSeq() != 1 {
		tst.Error("Expected one identical sequence")
	}
	b, removed, targets := a.RemoveIdenticalSeq("", false)
	if b.NSeq() != 3 || len(removed) != 1 || removed[0] != "d" || targets[0] != "a" {
		tst.Error("Wrong removal:", removed, targets)
	}
	if a.NSeq() != 4 {
		tst.Error("Receiver was modified")
	}
	b, removed, _ = a.RemoveIdenticalSeq("d", false)
	if len(removed) != 0 || b.NSeq() != 4 {
		tst.Error("Protected sequence was removed:", removed)
	}
	b, removed, _ = a.RemoveIdenticalSeq("", true)
	if len(removed) != 0 || b.NSeq() != 4 {
		tst.Error("keepTwo must keep the first duplicate:", removed)
	}
}

func TestSequenceHashCollision(tst *testing.T) {
	names := []string{"a", "b", "c", "d", "e"}
	a := newTest(tst, names, []string{"ACGT", "ACGA", "ACGT", "TTTT", "GGGG"}, "DNA")
	a.seqHashes = []uint64{7, 7, 7, 7, 7}
	if n := a.CheckIdenticalSeq(); n != 1 {
		tst.Error("Expected one identical sequence, got", n)
	}
	b, removed, targets := a.RemoveIdenticalSeq("", false)
	if len(removed) != 1 || removed[0] != "c" || targets[0] != "a" {
		tst.Fatal("Wrong removal with colliding hashes:", removed, targets)
	}
	if b.NSeq() != 4 || b.SeqID("b") < 0 || b.SeqID("d") < 0 || b.SeqID("e") < 0 {
		tst.Error("Wrong sequences kept:", b.Names)
	}
}

func TestPatternHashCollision(tst *testing.T) {
	names := []string{"a", "b", "c", "d", "e"}
	a := newTest(tst, names, []string{"ACGT", "ACGA", "ACGT", "TTTT", "GGGG"}, "DNA")
	if a.NPattern() != 4 {
		tst.Fatal("Expected 4 patterns, got", a.NPattern())
	}
	slots := make([]int, a.NPattern())
	for q := range slots {
		slots[q] = q
	}
	a.index = map[uint64][]int{0: slots}
	for q := range a.Patterns {
		if slot, ok := a.find(0, a.Patterns[q].States); !ok || slot != q {
			tst.Errorf("Pattern %d found at slot %d (%v)", q, slot, ok)
		}
	}
	other := NewPattern(a.NSeq(), 1)
	if slot, ok := a.find(0, other.States); ok {
		tst.Error("Absent pattern merged with slot", slot)
	}
}

func TestGappy(tst *testing.T) {
	a := newTest(tst, names4, []string{"ACGT", "----", "ACGA", "AC-A"}, "DNA")
	if a.CheckGappySeq() != 1 || !a.IsGapOnlySeq(1) {
		tst.Error("Expected one gap-only sequence")
	}
	b := a.RemoveGappySeq()
	if b.NSeq() != 3 || b.SeqID("b") >= 0 {
		tst.Error("Wrong sequences after removal:", b.Names)
	}
	if c := b.RemoveGappySeq(); c != b {
		tst.Error("Nothing to remove, expected the receiver")
	}
}

func TestAbsentStates(tst *testing.T) {
	conf := DefaultConfig()
	conf.KeepZeroFreq = true
	seqs := []string{"ACAC", "ACAC", "CAAC", "AACC"}
	a, err := New(names4, seqs, "DNA", conf)
	if err != nil {
		tst.Fatal(err)
	}
	n, err := a.CheckAbsentStates("alignment")
	if err != nil || n != 2 {
		tst.Error("Expected 2 absent states, got", n, err)
	}
	a, err = New(names4, []string{"AAAA", "AAAA", "AAAA", "AAAA"}, "DNA", conf)
	if err != nil {
		tst.Fatal(err)
	}
	if _, err := a.CheckAbsentStates("alignment"); err == nil {
		tst.Error("Expected error for a single observed state")
	}

	// Frequencies are raised to the minimum, so missing states
	// are only rare.
	a = newTest(tst, names4, seqs, "DNA")
	n, err = a.CheckAbsentStates("alignment")
	if err != nil || n != 0 {
		tst.Error("Expected no absent states with the frequency floor, got", n, err)
	}
	a = newTest(tst, names4, []string{"AAAA", "AAAA", "AAAA", "AAAA"}, "DNA")
	if _, err := a.CheckAbsentStates("alignment"); err != nil {
		tst.Error("Unexpected error with the frequency floor:", err)
	}
}

func TestStateFreq(tst *testing.T) {
	a := newTest(tst, names4, []string{"ACGT", "ACGR", "ACG-", "ACGT"}, "DNA")
	freq := a.StateFreq()
	sum := 0.0
	for _, f := range freq {
		sum += f
	}
	if math.Abs(sum-1) > 1e-10 {
		tst.Error("Frequencies do not sum to 1:", freq)
	}
	// R splits between A and G, so G gets more than C.
	if freq[2] <= freq[1] || freq[0] <= freq[1] {
		tst.Error("Wrong frequencies:", freq)
	}
	counts := a.CountStates()
	if len(counts) != int(a.Unknown)+1 || counts[a.Unknown] != 1 {
		tst.Error("Wrong state counts:", counts)
	}
	emp := a.EmpiricalFrequencies()
	if math.Abs(emp[1]-4.0/14) > 1e-3 {
		tst.Error("Wrong empirical frequency:", emp)
	}
}

func TestDistance(tst *testing.T) {
	a := newTest(tst, names4, seqs4, "")
	if d := a.ObsDistance(0, 3); d != 0 {
		tst.Error("Identical sequences have distance", d)
	}
	if d := a.ObsDistance(0, 1); math.Abs(d-0.125) > 1e-10 {
		tst.Error("Expected distance 0.125, got", d)
	}
	want := -0.75 * math.Log(1-4.0/3*0.125)
	if d := a.JCDistance(0, 1); math.Abs(d-want) > 1e-10 {
		tst.Error("Wrong JC distance:", d, want)
	}
	m := a.DistanceMatrix(true)
	if math.Abs(m.At(1, 0)-want) > 1e-10 || m.At(2, 2) != 0 {
		tst.Error("Wrong distance matrix")
	}
	if jc(0.8, 4) != MaxGeneticDist {
		tst.Error("Saturated distance must be", MaxGeneticDist)
	}
}

func TestDivergenceMatrix(tst *testing.T) {
	a := newTest(tst, names4, seqs4, "")
	pair, freq := a.DivergenceMatrix(false)
	// TTAT gives 3 A-T pairs, TAAT gives 4.
	if pair.At(0, 3) != 7 || pair.At(3, 0) != 7 {
		tst.Error("Wrong pair count:", pair.At(0, 3))
	}
	if freq[0] != 11 {
		tst.Error("Wrong A count:", freq[0])
	}
	pair, _ = a.DivergenceMatrix(true)
	sum := 0.0
	for j := 0; j < 4; j++ {
		sum += pair.At(0, j)
	}
	if math.Abs(sum-1) > 1e-10 {
		tst.Error("Normalized row does not sum to 1:", sum)
	}
}

func TestLogL(tst *testing.T) {
	a := newTest(tst, names4, seqs4, "")
	want := 3*2*math.Log(2.0/8) + 2*math.Log(1.0/8)
	if l := a.UnconstrainedLogL(); math.Abs(l-want) > 1e-10 {
		tst.Error("Wrong unconstrained logL:", l, want)
	}
	p, err := a.MultinomialProb(a)
	if err != nil {
		tst.Fatal(err)
	}
	if p >= 0 {
		tst.Error("Probability must be below one:", p)
	}
	b, _ := a.ExtractSites([]int{0, 1})
	if _, err := b.MultinomialProb(a); err == nil {
		tst.Error("Expected error for a different number of sites")
	}
}

func TestComposition(tst *testing.T) {
	a := newTest(tst, names4, []string{"ACGTACGT", "ACGTACGA", "-----CGA", "ACGTACGT"}, "DNA")
	var b strings.Builder
	res, err := a.CheckComposition(&b)
	if err != nil {
		tst.Fatal(err)
	}
	if len(res.Sequences) != 4 || res.NumProblem != 1 || res.DF != 3 {
		tst.Error("Wrong composition result:", res)
	}
	if math.Abs(res.Sequences[2].PercentGaps-62.5) > 1e-10 {
		tst.Error("Wrong gap percentage:", res.Sequences[2].PercentGaps)
	}
	for _, info := range res.Sequences {
		if info.PValue < 0 || info.PValue > 1 {
			tst.Error("Wrong p-value:", info)
		}
	}
	out := b.String()
	if !strings.Contains(out, "Gap/Ambiguity  Composition  p-value") || !strings.Contains(out, "TOTAL") {
		tst.Error("Wrong report:", out)
	}
	if strings.Count(out, "\n") != 6 {
		tst.Error("Expected 6 report lines:", out)
	}
}

func BenchmarkNew(b *testing.B) {
	rng := rand.New(rand.NewSource(1))
	const nseq, nsite = 50, 5000
	names := make([]string, nseq)
	seqs := make([]string, nseq)
	buf := make([]byte, nsite)
	for i := range seqs {
		names[i] = fmt.Sprintf("seq%d", i)
		for j := range buf {
			if j%3 == 0 || rng.Intn(10) == 0 {
				buf[j] = "ACGT"[rng.Intn(4)]
			} else {
				buf[j] = 'A'
			}
		}
		seqs[i] = string(buf)
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := New(names, seqs, "DNA", nil); err != nil {
			b.Fatal(err)
		}
	}
}
