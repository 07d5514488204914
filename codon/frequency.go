package codon

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"bitbucket.org/Davydov/alnpat/bio"
)

// Frequency is array (slice) of codon state frequencies.
type Frequency struct {
	Freq  []float64
	Table *Table
}

func (cf Frequency) String() string {
	var b strings.Builder
	b.WriteString("<CodonFrequency:")
	for i, f := range cf.Freq {
		fmt.Fprintf(&b, " %v: %v,", cf.Table.StateString(bio.State(i)), f)
	}
	s := b.String()
	return strings.TrimSuffix(s, ",") + ">"
}

// ReadFrequency reads codon frequencies from a reader. It should be
// just a list of numbers in a text format, one per non-stop codon.
func ReadFrequency(rd io.Reader, t *Table) (Frequency, error) {
	cf := Frequency{
		Freq:  make([]float64, len(t.CodonTable)),
		Table: t,
	}

	scanner := bufio.NewScanner(rd)
	scanner.Split(bufio.ScanWords)

	i := 0
	for scanner.Scan() {
		if i >= len(cf.Freq) {
			return cf, errors.New("too many frequencies in file")
		}
		f, err := strconv.ParseFloat(scanner.Text(), 64)
		if err != nil {
			return cf, err
		}
		cf.Freq[i] = f
		i++
	}
	if err := scanner.Err(); err != nil {
		return cf, err
	}
	if i < len(cf.Freq) {
		return cf, errors.New("not enough frequencies in file")
	}
	return cf, nil
}

// F0 returns array (slice) of equal codon frequencies.
func F0(t *Table) Frequency {
	n := len(t.CodonTable)
	cf := Frequency{
		Freq:  make([]float64, n),
		Table: t,
	}
	for i := range cf.Freq {
		cf.Freq[i] = 1 / float64(n)
	}
	return cf
}

// F1X4 computes codon frequencies from pooled nucleotide counts.
func F1X4(t *Table, nt [4]float64) Frequency {
	return F3X4(t, [3][4]float64{nt, nt, nt})
}

// F3X4 computes codon frequencies from per-codon-position nucleotide
// counts. Counts are normalized per position.
func F3X4(t *Table, pos [3][4]float64) (cf Frequency) {
	for j := 0; j < 3; j++ {
		sum := 0.0
		for i := 0; i < 4; i++ {
			sum += pos[j][i]
		}
		if sum == 0 {
			for i := 0; i < 4; i++ {
				pos[j][i] = 0.25
			}
			continue
		}
		for i := 0; i < 4; i++ {
			pos[j][i] /= sum
		}
	}

	cf = Frequency{
		Freq:  make([]float64, len(t.CodonTable)),
		Table: t,
	}

	sum := 0.0
	for s, c := range t.CodonTable {
		cf.Freq[s] = pos[0][c/16] * pos[1][(c%16)/4] * pos[2][c%4]
		sum += cf.Freq[s]
	}

	if sum > 0 {
		for s := range cf.Freq {
			cf.Freq[s] /= sum
		}
	}

	return
}
