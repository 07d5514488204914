package bio

import (
	"bytes"
	"errors"
	"os"

	mmap "github.com/edsrzf/mmap-go"
)

// ReadFile maps an alignment file into memory and parses it. FASTA is
// recognized by the leading '>', everything else is read as PHYLIP.
func ReadFile(fn string) (Sequences, error) {
	fp, err := os.Open(fn)
	if err != nil {
		return nil, err
	}
	defer fp.Close()

	st, err := fp.Stat()
	if err != nil {
		return nil, err
	}
	if st.Size() == 0 {
		return nil, errors.New("empty alignment file")
	}

	mm, err := mmap.Map(fp, mmap.RDONLY, 0)
	if err != nil {
		return nil, err
	}
	defer mm.Unmap()

	return Parse(mm)
}

// Parse parses an alignment held in memory.
func Parse(data []byte) (Sequences, error) {
	trimmed := bytes.TrimLeft(data, " \t\r\n")
	if len(trimmed) == 0 {
		return nil, errors.New("empty alignment")
	}
	if trimmed[0] == '>' {
		return ParseFasta(bytes.NewReader(trimmed))
	}
	return ParsePhylip(bytes.NewReader(trimmed))
}
