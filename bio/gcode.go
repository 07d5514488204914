package bio

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Nucleotides is the nucleotide alphabet in state order.
const Nucleotides = "ACGT"

// GeneticCode is a numbered NCBI translation table. Table holds one
// amino acid letter per codon, codons in AAA, AAC, ..., TTT order;
// stop codons are '*'.
type GeneticCode struct {
	ID    int
	Name  string
	Table string
}

// GeneticCodes holds all the available translation tables. Tables 7, 8
// and 17-20 do not exist in NCBI.
var GeneticCodes = map[int]*GeneticCode{
	1:  {1, "Standard", "KNKNTTTTRSRSIIMIQHQHPPPPRRRRLLLLEDEDAAAAGGGGVVVV*Y*YSSSS*CWCLFLF"},
	2:  {2, "Vertebrate Mitochondrial", "KNKNTTTT*S*SMIMIQHQHPPPPRRRRLLLLEDEDAAAAGGGGVVVV*Y*YSSSSWCWCLFLF"},
	3:  {3, "Yeast Mitochondrial", "KNKNTTTTRSRSMIMIQHQHPPPPRRRRTTTTEDEDAAAAGGGGVVVV*Y*YSSSSWCWCLFLF"},
	4:  {4, "Mold, Protozoan, and Coelenterate Mitochondrial", "KNKNTTTTRSRSIIMIQHQHPPPPRRRRLLLLEDEDAAAAGGGGVVVV*Y*YSSSSWCWCLFLF"},
	5:  {5, "Invertebrate Mitochondrial", "KNKNTTTTSSSSMIMIQHQHPPPPRRRRLLLLEDEDAAAAGGGGVVVV*Y*YSSSSWCWCLFLF"},
	6:  {6, "Ciliate, Dasycladacean and Hexamita Nuclear", "KNKNTTTTRSRSIIMIQHQHPPPPRRRRLLLLEDEDAAAAGGGGVVVVQYQYSSSS*CWCLFLF"},
	9:  {9, "Echinoderm and Flatworm Mitochondrial", "NNKNTTTTSSSSIIMIQHQHPPPPRRRRLLLLEDEDAAAAGGGGVVVV*Y*YSSSSWCWCLFLF"},
	10: {10, "Euplotid Nuclear", "KNKNTTTTRSRSIIMIQHQHPPPPRRRRLLLLEDEDAAAAGGGGVVVV*Y*YSSSSCCWCLFLF"},
	11: {11, "Bacterial, Archaeal and Plant Plastid", "KNKNTTTTRSRSIIMIQHQHPPPPRRRRLLLLEDEDAAAAGGGGVVVV*Y*YSSSS*CWCLFLF"},
	12: {12, "Alternative Yeast Nuclear", "KNKNTTTTRSRSIIMIQHQHPPPPRRRRLLSLEDEDAAAAGGGGVVVV*Y*YSSSS*CWCLFLF"},
	13: {13, "Ascidian Mitochondrial", "KNKNTTTTGSGSMIMIQHQHPPPPRRRRLLLLEDEDAAAAGGGGVVVV*Y*YSSSSWCWCLFLF"},
	14: {14, "Alternative Flatworm Mitochondrial", "NNKNTTTTSSSSIIMIQHQHPPPPRRRRLLLLEDEDAAAAGGGGVVVVYY*YSSSSWCWCLFLF"},
	15: {15, "Blepharisma Nuclear", "KNKNTTTTRSRSIIMIQHQHPPPPRRRRLLLLEDEDAAAAGGGGVVVV*YQYSSSS*CWCLFLF"},
	16: {16, "Chlorophycean Mitochondrial", "KNKNTTTTRSRSIIMIQHQHPPPPRRRRLLLLEDEDAAAAGGGGVVVV*YLYSSSS*CWCLFLF"},
	21: {21, "Trematode Mitochondrial", "NNKNTTTTSSSSMIMIQHQHPPPPRRRRLLLLEDEDAAAAGGGGVVVV*Y*YSSSSWCWCLFLF"},
	22: {22, "Scenedesmus obliquus Mitochondrial", "KNKNTTTTRSRSIIMIQHQHPPPPRRRRLLLLEDEDAAAAGGGGVVVV*YLY*SSS*CWCLFLF"},
	23: {23, "Thraustochytrium Mitochondrial", "KNKNTTTTRSRSIIMIQHQHPPPPRRRRLLLLEDEDAAAAGGGGVVVV*Y*YSSSS*CWC*FLF"},
	24: {24, "Pterobranchia Mitochondrial", "KNKNTTTTSSKSIIMIQHQHPPPPRRRRLLLLEDEDAAAAGGGGVVVV*Y*YSSSSWCWCLFLF"},
	25: {25, "Candidate Division SR1 and Gracilibacteria", "KNKNTTTTRSRSIIMIQHQHPPPPRRRRLLLLEDEDAAAAGGGGVVVV*Y*YSSSSGCWCLFLF"},
}

// GetGeneticCode returns a genetic code by its textual id. Empty id
// means the standard code.
func GetGeneticCode(id string) (*GeneticCode, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return GeneticCodes[1], nil
	}
	n, err := strconv.Atoi(id)
	if err != nil {
		return nil, fmt.Errorf("wrong genetic code %s", id)
	}
	gc, ok := GeneticCodes[n]
	if !ok {
		return nil, fmt.Errorf("wrong genetic code %s", id)
	}
	return gc, nil
}

// CodonIDs returns sorted ids of all available genetic codes.
func CodonIDs() []int {
	ids := make([]int, 0, len(GeneticCodes))
	for id := range GeneticCodes {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

// CodonIndex returns the raw codon number (0..63) for a three letter
// codon string. The second value is false if the codon contains
// anything but ACGTU.
func CodonIndex(codon string) (int, bool) {
	if len(codon) != 3 {
		return 0, false
	}
	c := 0
	for i := 0; i < 3; i++ {
		n := strings.IndexByte(Nucleotides, codon[i])
		if codon[i] == 'U' {
			n = 3
		}
		if n < 0 {
			return 0, false
		}
		c = c*4 + n
	}
	return c, true
}

// CodonString returns the three letters of a raw codon number.
func CodonString(c int) string {
	return string([]byte{Nucleotides[c/16], Nucleotides[(c%16)/4], Nucleotides[c%4]})
}

// AminoAcid returns the amino acid encoded by a raw codon number.
func (gc *GeneticCode) AminoAcid(c int) byte {
	return gc.Table[c]
}

// IsStopCodon tests if the string is a stop-codon (DNA alphabet,
// capital letters).
func (gc *GeneticCode) IsStopCodon(codon string) bool {
	c, ok := CodonIndex(codon)
	return ok && gc.Table[c] == '*'
}

// Translate translates nucleotide sequence string into the protein
// string. Error is returned is sequence is not divisible by three,
// non-terminal stop-codon is found or wrong codon is encountered.
func (gc *GeneticCode) Translate(nseq string) (string, error) {
	var b strings.Builder

	if len(nseq)%3 != 0 {
		return "", errors.New("sequence length doesn't divide by 3")
	}

	nseq = strings.ToUpper(nseq)

	for i := 0; i < len(nseq); i += 3 {
		c, ok := CodonIndex(nseq[i : i+3])
		if !ok {
			return b.String(), errors.New("unknown codon")
		}
		aa := gc.Table[c]
		if aa == '*' {
			if i+3 >= len(nseq) {
				// it's ok if this is the last codon
				break
			}
			return b.String(), errors.New("premature stop codon")
		}
		b.WriteByte(aa)
	}
	return b.String(), nil
}

func (gc *GeneticCode) String() string {
	return fmt.Sprintf("%d (%s)", gc.ID, gc.Name)
}
