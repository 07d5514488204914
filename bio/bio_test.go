package bio

import (
	"bytes"
	"testing"
)

const fasta1 = `>seq1
ACGTAC
GT
>seq2
acgtacgg
>seq3
ACG-ACNN
`

const phylip1 = `3 8
seq1 ACGTACGT
seq2 ACGTACGG
seq3 ACG-ACNN
`

func TestParseFasta(tst *testing.T) {
	seqs, err := ParseFasta(bytes.NewBufferString(fasta1))
	if err != nil {
		tst.Fatal("Error parsing fasta:", err)
	}
	if len(seqs) != 3 {
		tst.Fatal("Expected 3 sequences, got", len(seqs))
	}
	if seqs[0].Sequence != "ACGTACGT" || seqs[1].Sequence != "ACGTACGG" {
		tst.Error("Wrong sequences:", seqs)
	}
	if seqs.Names()[2] != "seq3" {
		tst.Error("Wrong name:", seqs.Names())
	}
}

func TestParseFastaNoPrefix(tst *testing.T) {
	_, err := ParseFasta(bytes.NewBufferString("ACGT\n>a\nACGT\n"))
	if err == nil {
		tst.Error("Expected error for a sequence w/o name")
	}
}

func TestParsePhylip(tst *testing.T) {
	seqs, err := Parse([]byte(phylip1))
	if err != nil {
		tst.Fatal("Error parsing phylip:", err)
	}
	fseqs, _ := Parse([]byte(fasta1))
	for i := range seqs {
		if seqs[i] != fseqs[i] {
			tst.Errorf("Sequence %d differs: %v vs %v", i, seqs[i], fseqs[i])
		}
	}
	_, err = ParsePhylip(bytes.NewBufferString("2 4\na ACGT\nb ACG\n"))
	if err == nil {
		tst.Error("Expected length error")
	}
}

func TestWrap(tst *testing.T) {
	if s := Wrap("ACGTA", 2); s != "AC\nGT\nA\n" {
		tst.Errorf("Wrong wrap: %q", s)
	}
	seq := Sequence{"a", "ACGT"}
	if seq.String() != ">a\nACGT\n" {
		tst.Errorf("Wrong fasta: %q", seq.String())
	}
}

func TestGeneticCodes(tst *testing.T) {
	for id, gc := range GeneticCodes {
		if len(gc.Table) != 64 {
			tst.Errorf("Table %d has %d codons", id, len(gc.Table))
		}
		if gc.ID != id {
			tst.Errorf("Table %d has id %d", id, gc.ID)
		}
	}
	for _, id := range []string{"7", "8", "17", "20", "26", "x"} {
		if _, err := GetGeneticCode(id); err == nil {
			tst.Error("Expected error for genetic code", id)
		}
	}
	gc, err := GetGeneticCode("")
	if err != nil || gc.ID != 1 {
		tst.Error("Empty id should give standard code")
	}
	if !gc.IsStopCodon("TGA") || gc.IsStopCodon("TGG") {
		tst.Error("Wrong stop codons")
	}
	mito := GeneticCodes[2]
	if mito.IsStopCodon("TGA") || !mito.IsStopCodon("AGA") {
		tst.Error("Wrong mitochondrial stop codons")
	}
}

func TestTranslate(tst *testing.T) {
	gc := GeneticCodes[1]
	p, err := gc.Translate("ATGGCCTTTTAA")
	if err != nil || p != "MAF" {
		tst.Error("Wrong translation:", p, err)
	}
	if _, err = gc.Translate("ATGTAATTT"); err == nil {
		tst.Error("Expected premature stop codon error")
	}
	if _, err = gc.Translate("ATGT"); err == nil {
		tst.Error("Expected length error")
	}
}

func TestCodonIndex(tst *testing.T) {
	for c := 0; c < 64; c++ {
		i, ok := CodonIndex(CodonString(c))
		if !ok || i != c {
			tst.Error("Codon round trip failed for", c)
		}
	}
	if i, _ := CodonIndex("UUU"); i != 63 {
		tst.Error("U should be read as T")
	}
	if _, ok := CodonIndex("ANA"); ok {
		tst.Error("Ambiguous codon accepted")
	}
}

func TestConvertState(tst *testing.T) {
	dna := NewCodec(SeqDNA, 4)
	if dna.ConvertState('R') != 8 || dna.ConvertState('y') != 13 {
		tst.Error("Wrong ambiguity codes")
	}
	if dna.ConvertState('-') != UnknownDNA || dna.ConvertState('N') != UnknownDNA {
		tst.Error("Gaps must be unknown")
	}
	if dna.ConvertState('Q') != StateInvalid {
		tst.Error("Q is not a nucleotide")
	}
	if dna.ConvertStateBack(3) != 'T' {
		tst.Error("State 3 must print as T")
	}

	prot := NewCodec(SeqProtein, 20)
	if prot.ConvertState('X') != UnknownProtein || prot.ConvertState('*') != UnknownProtein {
		tst.Error("X and stop must be unknown")
	}
	if prot.ConvertState('J') != 22 || prot.ConvertStateBack(21) != 'Z' {
		tst.Error("Wrong protein ambiguity")
	}
	if prot.ConvertStateBack(StateInvalid) != '?' {
		tst.Error("Invalid state must print as ?")
	}
}

func TestConvertStateRoundTrip(tst *testing.T) {
	codecs := map[string]Codec{
		"ACGTURYWSMKBHDVN-?": NewCodec(SeqDNA, 4),
		"ARNDCQEGHILKMFPSTWYVBZJX*": NewCodec(SeqProtein, 20),
		"01-":                       NewCodec(SeqBinary, 2),
		"0123456789ABCDEFGHIJKLMNOPQRSTUV-": NewCodec(SeqMorph, 32),
	}
	for chars, c := range codecs {
		for i := 0; i < len(chars); i++ {
			s := c.ConvertState(chars[i])
			if s == StateInvalid {
				tst.Errorf("%v: %c is invalid", c.Type, chars[i])
				continue
			}
			back := c.ConvertStateBack(s)
			if c.ConvertState(back) != s {
				tst.Errorf("%v: %c -> %d -> %c does not round trip", c.Type, chars[i], s, back)
			}
		}
	}
}

func TestDetectSequenceType(tst *testing.T) {
	cases := []struct {
		seqs []string
		t    SeqType
	}{
		{[]string{"ACGT-", "ACGTN"}, SeqDNA},
		{[]string{"0101", "1100"}, SeqBinary},
		{[]string{"MKLVW", "MKLAW"}, SeqProtein},
		{[]string{"012A", "3BC4"}, SeqMorph},
		{[]string{"----", "????"}, SeqUnknown},
		{[]string{"!!!!", "@@@@"}, SeqUnknown},
	}
	for _, c := range cases {
		if t := DetectSequenceType(c.seqs); t != c.t {
			tst.Errorf("%v: expected %v, got %v", c.seqs, c.t, t)
		}
	}
}

func TestMorphStates(tst *testing.T) {
	if n, err := MorphStates([]string{"0120", "1B0-"}); err != nil || n != 12 {
		tst.Error("Expected 12 states, got", n, err)
	}
	if _, err := MorphStates([]string{"000", "000"}); err == nil {
		tst.Error("Expected error for a single state")
	}
}

func TestParseTypeHint(tst *testing.T) {
	h, err := ParseTypeHint("codon2")
	if err != nil || h.Type != SeqCodon || h.Code != "2" {
		tst.Error("Wrong codon hint:", h, err)
	}
	h, err = ParseTypeHint("NT2AA")
	if err != nil || h.Type != SeqProtein || !h.NT2AA {
		tst.Error("Wrong nt2aa hint:", h, err)
	}
	if _, err = ParseTypeHint("RNA-ish"); err == nil {
		tst.Error("Expected error")
	}
}
