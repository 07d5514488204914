// gcode generates the GeneticCodes table of package bio from the NCBI
// genetic codes file in ASN.1 format.
//
// More information is available here:
// - https://www.ncbi.nlm.nih.gov/Taxonomy/Utils/wprintgc.cgi
// - ftp://ftp.ncbi.nih.gov/entrez/misc/data/gc.prt
package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"
	"unicode"
)

// ncbiOrder is the nucleotide order of NCBI translation tables.
const ncbiOrder = "TCAG"

// alnOrder is the nucleotide order of bio.GeneticCode tables.
const alnOrder = "ACGT"

type mode int

const (
	normal mode = iota
	table
	assign
	list
	element
	elementValue
	elementEnd
	listEnd
	end
)

type geneticCode struct {
	id    int
	name  string
	table string
}

// reorder converts an NCBI table (TTT, TTC, ..., GGG) into the
// AAA, AAC, ..., TTT codon order.
func reorder(ncbi string) (string, error) {
	if len(ncbi) != 64 {
		return "", fmt.Errorf("translation table has %d codons", len(ncbi))
	}
	res := make([]byte, 0, 64)
	for _, n1 := range alnOrder {
		for _, n2 := range alnOrder {
			for _, n3 := range alnOrder {
				i := strings.IndexRune(ncbiOrder, n1)*16 +
					strings.IndexRune(ncbiOrder, n2)*4 +
					strings.IndexRune(ncbiOrder, n3)
				res = append(res, ncbi[i])
			}
		}
	}
	return string(res), nil
}

func unquote(s string) (string, error) {
	if !strings.HasPrefix(s, "\"") || !strings.HasSuffix(s, "\"") {
		return "", errors.New("string is not quoted")
	}
	s = strings.Trim(s, "\"")
	return strings.Join(strings.Fields(s), " "), nil
}

func isWordByte(b byte) bool {
	r := rune(b)
	return r == '-' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

// split is a bufio.SplitFunc for ASN.1 tokens. Comments are returned
// as tokens starting with "--".
func split(data []byte, atEOF bool) (int, []byte, error) {
	skip := 0
	for skip < len(data) && unicode.IsSpace(rune(data[skip])) {
		skip++
	}
	data = data[skip:]
	if len(data) == 0 {
		return skip, nil, nil
	}

	need := func(n int) (bool, error) {
		if len(data) >= n {
			return true, nil
		}
		if atEOF {
			return false, errors.New("unexpected end of file")
		}
		return false, nil
	}

	switch data[0] {
	case '-':
		if ok, err := need(2); !ok {
			return skip, nil, err
		}
		if data[1] != '-' {
			return 0, nil, errors.New("unexpected character after '-'")
		}
		a, t, err := bufio.ScanLines(data, atEOF)
		if a == 0 {
			return skip, nil, err
		}
		return skip + a, t, err
	case ':':
		if ok, err := need(3); !ok {
			return skip, nil, err
		}
		if data[1] != ':' || data[2] != '=' {
			return 0, nil, errors.New("unexpected character after ':'")
		}
		return skip + 3, data[:3], nil
	case '"':
		if i := strings.IndexByte(string(data[1:]), '"'); i >= 0 {
			return skip + i + 2, data[:i+2], nil
		}
		if atEOF {
			return 0, nil, errors.New("unfinished string literal")
		}
		return skip, nil, nil
	case '{', '}', ',':
		return skip + 1, data[:1], nil
	}
	if !isWordByte(data[0]) {
		return 0, nil, fmt.Errorf("unknown token starting with %q", data[0])
	}
	i := 1
	for i < len(data) && isWordByte(data[i]) {
		i++
	}
	if i == len(data) && !atEOF {
		return skip, nil, nil
	}
	return skip + i, data[:i], nil
}

func expect(text, want string, next mode) (mode, error) {
	if text != want {
		return 0, fmt.Errorf("expecting '%s', got '%s'", want, text)
	}
	return next, nil
}

// parse reads all the genetic codes from an ASN.1 file.
func parse(rd io.Reader) (res []geneticCode, err error) {
	scanner := bufio.NewScanner(rd)
	scanner.Split(split)

	m := normal
	var gc geneticCode
	var key string

	for scanner.Scan() {
		text := scanner.Text()
		if strings.HasPrefix(text, "--") {
			continue
		}

		switch m {
		case normal:
			m, err = expect(text, "Genetic-code-table", table)
		case table:
			m, err = expect(text, "::=", assign)
		case assign:
			m, err = expect(text, "{", list)
		case list:
			switch text {
			case "{":
				gc = geneticCode{}
				m = element
			case "}":
				m = end
			default:
				err = errors.New("expecting '{' or '}'")
			}
		case element:
			key = text
			m = elementValue
		case elementValue:
			switch key {
			case "name":
				// the second name is the short one
				if gc.name == "" {
					gc.name, err = unquote(text)
				}
			case "id":
				gc.id, err = strconv.Atoi(text)
			case "ncbieaa":
				var aa string
				if aa, err = unquote(text); err == nil {
					gc.table, err = reorder(aa)
				}
			}
			m = elementEnd
		case elementEnd:
			switch text {
			case ",":
				m = element
			case "}":
				res = append(res, gc)
				m = listEnd
			default:
				err = errors.New("expecting ',' or '}'")
			}
		case listEnd:
			switch text {
			case ",":
				m = list
			case "}":
				m = end
			default:
				err = errors.New("expecting ',' or '}'")
			}
		case end:
			err = errors.New("unexpected symbols at the end of file")
		}
		if err != nil {
			return nil, err
		}
	}

	if err = scanner.Err(); err != nil {
		return nil, err
	}
	if m != end {
		return nil, errors.New("unexpected end of stream")
	}
	return
}

// write prints the genetic codes in the bio package format.
func write(w io.Writer, codes []geneticCode) {
	sort.Slice(codes, func(i, j int) bool { return codes[i].id < codes[j].id })
	fmt.Fprintln(w, "var GeneticCodes = map[int]*GeneticCode{")
	for _, gc := range codes {
		fmt.Fprintf(w, "\t%d: {%d, %q, %q},\n", gc.id, gc.id, gc.name, gc.table)
	}
	fmt.Fprintln(w, "}")
}

func main() {
	if len(os.Args) < 2 {
		fmt.Println("please specify a gc file in asn1 format")
		os.Exit(1)
	}
	f, err := os.Open(os.Args[1])
	if err != nil {
		fmt.Println(err)
		os.Exit(2)
	}
	defer f.Close()
	codes, err := parse(f)
	if err != nil {
		fmt.Println(err)
		os.Exit(3)
	}
	write(os.Stdout, codes)
}
