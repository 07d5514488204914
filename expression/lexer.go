package expression

import (
	"strconv"
	"strings"
)

type tokenKind int

const (
	tokNumber tokenKind = iota
	tokVariable
	tokFunction
	tokOperator
	tokOpen
	tokClose
)

type token struct {
	kind  tokenKind
	value float64
	// name of a variable or a function
	name string
	// sub is the text inside the parentheses of a subscripted
	// variable
	sub    string
	hasSub bool
	op     Kind
}

// lexer splits an expression into tokens, left to right.
type lexer struct {
	text string
	pos  int
}

func isLetter(ch byte) bool {
	return (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z')
}

func isDigit(ch byte) bool {
	return ch >= '0' && ch <= '9'
}

func (l *lexer) skipSpaces() {
	for l.pos < len(l.text) && (l.text[l.pos] == ' ' || l.text[l.pos] == '\t') {
		l.pos++
	}
}

func (l *lexer) peek(offset int) byte {
	if l.pos+offset < len(l.text) {
		return l.text[l.pos+offset]
	}
	return 0
}

// next returns the next token; ok is false at the end of the text.
func (l *lexer) next() (t token, ok bool, err error) {
	l.skipSpaces()
	if l.pos >= len(l.text) {
		return t, false, nil
	}
	ch := l.text[l.pos]
	switch {
	case isLetter(ch):
		return l.identifier()
	case isDigit(ch) || (ch == '.' && isDigit(l.peek(1))):
		return l.number()
	}

	t.kind = tokOperator
	switch ch {
	case '(':
		t.kind = tokOpen
	case ')':
		t.kind = tokClose
	case '^':
		t.op = Power
	case '*':
		t.op = Multiply
	case '/':
		t.op = Divide
	case '+':
		t.op = Add
	case '-':
		t.op = Subtract
	case '<':
		t.op = Less
	case '>':
		t.op = Greater
	case ':':
		t.op = List
	case '?':
		t.op = Select
	case '=':
		t.op = Assign
		if l.peek(1) == '=' {
			t.op = Equal
			l.pos++
		}
	case '!':
		if l.peek(1) != '=' {
			return t, false, errorf("unary not (!) operator not supported")
		}
		t.op = NotEqual
		l.pos++
	case '&':
		if l.peek(1) != '&' {
			return t, false, errorf("bitwise-and & operator not supported")
		}
		t.op = And
		l.pos++
	case '|':
		if l.peek(1) != '|' {
			return t, false, errorf("bitwise-or | operator not supported")
		}
		t.op = Or
		l.pos++
	default:
		return t, false, errorf("unrecognized character '%c' in expression", ch)
	}
	l.pos++
	return t, true, nil
}

func (l *lexer) identifier() (t token, ok bool, err error) {
	start := l.pos
	for l.pos++; l.pos < len(l.text); l.pos++ {
		ch := l.text[l.pos]
		if !isLetter(ch) && !isDigit(ch) && ch != '.' && ch != '_' {
			break
		}
	}
	t.name = l.text[start:l.pos]
	l.skipSpaces()
	if _, ok := functions[t.name]; ok {
		t.kind = tokFunction
		return t, true, nil
	}
	t.kind = tokVariable
	if l.peek(0) != '(' {
		return t, true, nil
	}
	end := strings.IndexByte(l.text[l.pos:], ')')
	if end < 0 {
		return t, false, errorf("subscript of %s does not end with right parenthesis", t.name)
	}
	t.sub = strings.TrimSpace(l.text[l.pos+1 : l.pos+end])
	t.hasSub = true
	l.pos += end + 1
	return t, true, nil
}

// number scans a decimal number with an optional exponent.
func (l *lexer) number() (t token, ok bool, err error) {
	start := l.pos
	for l.pos < len(l.text) && isDigit(l.text[l.pos]) {
		l.pos++
	}
	if l.peek(0) == '.' {
		l.pos++
		for l.pos < len(l.text) && isDigit(l.text[l.pos]) {
			l.pos++
		}
	}
	if ch := l.peek(0); ch == 'e' || ch == 'E' {
		i := 1
		if s := l.peek(1); s == '+' || s == '-' {
			i++
		}
		if isDigit(l.peek(i)) {
			l.pos += i
			for l.pos < len(l.text) && isDigit(l.text[l.pos]) {
				l.pos++
			}
		}
	}
	t.kind = tokNumber
	t.value, err = strconv.ParseFloat(l.text[start:l.pos], 64)
	if err != nil {
		return t, false, errorf("wrong number %s", l.text[start:l.pos])
	}
	return t, true, nil
}
