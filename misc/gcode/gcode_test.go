package main

import (
	"strings"
	"testing"

	"bitbucket.org/Davydov/alnpat/bio"
)

const gcPrt = `--**************************************************************************
--  This is the NCBI genetic code table
--**************************************************************************
Genetic-code-table ::= {
 {
  name "Standard" ,
  name "SGC0" ,
  id 1 ,
  ncbieaa  "FFLLSSSSYY**CC*WLLLLPPPPHHQQRRRRIIIMTTTTNNKKSSRRVVVVAAAADDEEGGGG",
  sncbieaa "---M------**--*----M---------------M----------------------------"
  -- Base1  TTTTTTTTTTTTTTTTCCCCCCCCCCCCCCCCAAAAAAAAAAAAAAAAGGGGGGGGGGGGGGGG
 },
 {
  name "Vertebrate Mitochondrial" ,
  name "SGC1" ,
  id 2 ,
  ncbieaa  "FFLLSSSSYY**CCWWLLLLPPPPHHQQRRRRIIMMTTTTNNKKSS**VVVVAAAADDEEGGGG",
  sncbieaa "----------**--------------------MMMM----------**---M------------"
 }
}
`

func TestParse(tst *testing.T) {
	codes, err := parse(strings.NewReader(gcPrt))
	if err != nil {
		tst.Fatal(err)
	}
	if len(codes) != 2 {
		tst.Fatal("Wrong number of codes:", len(codes))
	}
	for _, gc := range codes {
		want := bio.GeneticCodes[gc.id]
		if gc.name != want.Name {
			tst.Errorf("Wrong name %q, expected %q", gc.name, want.Name)
		}
		if gc.table != want.Table {
			tst.Errorf("Table %d is %s, expected %s", gc.id, gc.table, want.Table)
		}
	}
}

func TestParseErrors(tst *testing.T) {
	for _, s := range []string{
		"",
		"Genetic-code-table := {",
		"Genetic-code-table ::= { { id 1 }",
		`Genetic-code-table ::= { { name "x } }`,
		`Genetic-code-table ::= { { ncbieaa "FF" } }`,
		"Genetic-code-table ::= { } }",
	} {
		if _, err := parse(strings.NewReader(s)); err == nil {
			tst.Errorf("No error for %q", s)
		}
	}
}

func TestWrite(tst *testing.T) {
	var b strings.Builder
	write(&b, []geneticCode{{2, "Two", "B"}, {1, "One", "A"}})
	want := "var GeneticCodes = map[int]*GeneticCode{\n" +
		"\t1: {1, \"One\", \"A\"},\n" +
		"\t2: {2, \"Two\", \"B\"},\n}\n"
	if b.String() != want {
		tst.Errorf("Got:\n%s", b.String())
	}
}
