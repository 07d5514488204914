// Package bio provides sequence containers, alignment readers, the
// genetic code tables and the character to state mapping used by the
// pattern engine.
package bio

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Sequence is a type which is intended for storing nucleotide or
// protein sequence with it's name.
type Sequence struct {
	Name     string
	Sequence string
}

// Sequences stores multiple sequences. E.g. a sequence alignment.
type Sequences []Sequence

// Names returns sequence names in the alignment order.
func (seqs Sequences) Names() []string {
	names := make([]string, len(seqs))
	for i, seq := range seqs {
		names[i] = seq.Name
	}
	return names
}

// Strings returns raw sequence strings in the alignment order.
func (seqs Sequences) Strings() []string {
	s := make([]string, len(seqs))
	for i, seq := range seqs {
		s[i] = seq.Sequence
	}
	return s
}

// ParseFasta parses FASTA sequences from a reader.
func ParseFasta(rd io.Reader) (seqs Sequences, err error) {
	seqs = make(Sequences, 0, 10)
	scanner := bufio.NewScanner(rd)
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<26)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if line[0] == '>' {
			seq := Sequence{Name: strings.TrimSpace(line[1:])}
			seqs = append(seqs, seq)
		} else {
			if len(seqs) == 0 {
				return nil, errors.New("sequence w/o prefix")
			}
			line = strings.ToUpper(strings.Replace(line, " ", "", -1))
			seqs[len(seqs)-1].Sequence += line
		}
	}
	return seqs, scanner.Err()
}

// ParsePhylip parses a sequential or interleaved PHYLIP alignment.
// Names are separated from the data by whitespace.
func ParsePhylip(rd io.Reader) (Sequences, error) {
	scanner := bufio.NewScanner(rd)
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<26)
	var nseq, nsite int
	header := false
	var seqs Sequences
	row := 0
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if !header {
			fields := strings.Fields(line)
			if len(fields) < 2 {
				return nil, errors.New("phylip header must contain number of sequences and sites")
			}
			var err error
			if nseq, err = strconv.Atoi(fields[0]); err != nil {
				return nil, fmt.Errorf("wrong number of sequences: %v", err)
			}
			if nsite, err = strconv.Atoi(fields[1]); err != nil {
				return nil, fmt.Errorf("wrong number of sites: %v", err)
			}
			if nseq <= 0 || nsite <= 0 {
				return nil, errors.New("number of sequences and sites must be positive")
			}
			seqs = make(Sequences, 0, nseq)
			header = true
			continue
		}
		if len(seqs) < nseq {
			fields := strings.Fields(line)
			seq := Sequence{Name: fields[0]}
			seq.Sequence = strings.ToUpper(strings.Join(fields[1:], ""))
			seqs = append(seqs, seq)
			continue
		}
		// interleaved block
		seqs[row].Sequence += strings.ToUpper(strings.Replace(line, " ", "", -1))
		row = (row + 1) % nseq
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if !header {
		return nil, errors.New("empty phylip file")
	}
	if len(seqs) != nseq {
		return nil, fmt.Errorf("expected %d sequences, found %d", nseq, len(seqs))
	}
	for _, seq := range seqs {
		if len(seq.Sequence) != nsite {
			return nil, fmt.Errorf("sequence %s has %d characters, expected %d", seq.Name, len(seq.Sequence), nsite)
		}
	}
	return seqs, nil
}

// Wrap inputs a string and wraps it so string length is n characters
// or less.
func Wrap(seq string, n int) string {
	var b strings.Builder
	for i := 0; i < len(seq); i += n {
		end := i + n
		if end > len(seq) {
			end = len(seq)
		}
		b.WriteString(seq[i:end])
		b.WriteByte('\n')
	}
	return b.String()
}

// String returns a sequence in FASTA format.
func (seq Sequence) String() string {
	return ">" + seq.Name + "\n" + Wrap(seq.Sequence, 80)
}

// String returns sequences in FASTA format.
func (seqs Sequences) String() string {
	var b strings.Builder
	for _, seq := range seqs {
		b.WriteString(seq.String())
	}
	s := b.String()
	if len(s) == 0 {
		return s
	}
	return s[:len(s)-1]
}
