package expression

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Kind is the type of an expression node.
type Kind int

const (
	Constant Kind = iota
	Variable
	Function
	Power
	Multiply
	Divide
	Add
	Subtract
	Assign
	Less
	Greater
	Equal
	NotEqual
	And
	Or
	List
	Select
	// open parenthesis, only on the parser stack
	paren
)

var operators = map[Kind]struct {
	symbol     string
	precedence int
	right      bool
}{
	Power:    {"^", 12, true},
	Multiply: {"*", 11, false},
	Divide:   {"/", 11, false},
	Add:      {"+", 10, false},
	Subtract: {"-", 10, false},
	Assign:   {"=", 9, true},
	Less:     {"<", 8, false},
	Greater:  {">", 8, false},
	Equal:    {"==", 7, false},
	NotEqual: {"!=", 7, false},
	And:      {"&&", 6, false},
	Or:       {"||", 5, false},
	List:     {":", 4, false},
	Select:   {"?", 3, true},
}

var functions = map[string]func(float64) float64{
	"exp": math.Exp,
	"ln":  math.Log,
}

func (k Kind) String() string {
	switch k {
	case Constant:
		return "constant"
	case Variable:
		return "variable"
	case Function:
		return "function"
	}
	if o, ok := operators[k]; ok {
		return o.symbol
	}
	return "unknown"
}

// IsOperator tests for infix operators.
func (k Kind) IsOperator() bool {
	_, ok := operators[k]
	return ok
}

// IsBoolean tests for operators giving true (1) or false (0).
func (k Kind) IsBoolean() bool {
	return k >= Less && k <= Or
}

func (k Kind) precedence() int {
	return operators[k].precedence
}

// Node is an expression tree node. Children are owned by their
// parent; trees are never shared.
type Node struct {
	Kind Kind
	// Value of a constant.
	Value float64
	// Name of a variable (with a constant subscript, if any) or a
	// function.
	Name string
	// Index is the subscript expression of a variable subscripted
	// with an expression, e.g. freq(row+1).
	Index *Node
	// Args are the operand of a function, the two operands of an
	// operator or the entries of a list.
	Args []*Node
}

// VariableName returns the name of a variable node, evaluating the
// subscript if needed.
func (n *Node) VariableName(env Environment) (string, error) {
	if n.Kind != Variable {
		return "", errorf("Can only assign to variables")
	}
	if n.Index == nil {
		return n.Name, nil
	}
	idx, err := n.Index.Eval(env)
	if err != nil {
		return "", err
	}
	name := n.Name + "(" + strconv.Itoa(int(math.Floor(idx))) + ")"
	if !env.HasVariable(name) {
		return "", errorf("Could not evaluate variable %s", name)
	}
	return name, nil
}

func boolValue(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

// Eval computes the value of the tree.
func (n *Node) Eval(env Environment) (float64, error) {
	switch n.Kind {
	case Constant:
		return n.Value, nil
	case Variable:
		name, err := n.VariableName(env)
		if err != nil {
			return 0, err
		}
		return env.Value(name), nil
	case Function:
		v, err := n.Args[0].Eval(env)
		if err != nil {
			return 0, err
		}
		return functions[n.Name](v), nil
	case List:
		v := 0.0
		for _, a := range n.Args {
			var err error
			if v, err = a.Eval(env); err != nil {
				return 0, err
			}
		}
		return v, nil
	case Select:
		return n.selectValue(env)
	case Assign:
		name, err := n.Args[0].VariableName(env)
		if err != nil {
			return 0, err
		}
		v, err := n.Args[1].Eval(env)
		if err != nil {
			return 0, err
		}
		return v, env.Assign(name, v)
	}

	l, err := n.Args[0].Eval(env)
	if err != nil {
		return 0, err
	}
	switch n.Kind {
	case And:
		if l == 0 {
			return 0, nil
		}
	case Or:
		if l != 0 {
			return 1, nil
		}
	}
	r, err := n.Args[1].Eval(env)
	if err != nil {
		return 0, err
	}
	switch n.Kind {
	case Power:
		return math.Pow(l, r), nil
	case Multiply:
		return l * r, nil
	case Divide:
		return l / r, nil
	case Add:
		return l + r, nil
	case Subtract:
		return l - r, nil
	case Less:
		return boolValue(l < r), nil
	case Greater:
		return boolValue(l > r), nil
	case Equal:
		return boolValue(l == r), nil
	case NotEqual:
		return boolValue(l != r), nil
	case And, Or:
		return boolValue(r != 0), nil
	}
	panic(fmt.Sprintf("unexpected expression node %v", n.Kind))
}

// entry evaluates the index-th entry of a list node.
func (n *Node) entry(env Environment, index int) (float64, error) {
	if index < 0 {
		return 0, errorf("Cannot select list element with zero-based index %d.", index)
	}
	if index >= len(n.Args) {
		return 0, errorf("Cannot select list element with zero-based index %d from a list of %d entries.", index, len(n.Args))
	}
	return n.Args[index].Eval(env)
}

// selectValue evaluates "cond ? a : b" (first entry if cond is true)
// and "i ? a : b : ..." (zero-based i-th entry). Without a list on the
// right the right side is taken if the left side is true (non-zero).
func (n *Node) selectValue(env Environment) (float64, error) {
	lhs, rhs := n.Args[0], n.Args[1]
	cond, err := lhs.Eval(env)
	if err != nil {
		return 0, err
	}
	if lhs.Kind.IsBoolean() {
		if rhs.Kind == List {
			if cond != 0 {
				return rhs.entry(env, 0)
			}
			return rhs.entry(env, 1)
		}
		if cond == 0 {
			return 0, nil
		}
		return rhs.Eval(env)
	}
	if cond < 0 {
		return 0, errorf("Cannot select list element with zero-based index %v from a list.", cond)
	}
	if rhs.Kind == List {
		if float64(len(rhs.Args)) <= cond {
			return 0, errorf("Cannot select list element with zero-based index %v from a list of %d entries.", cond, len(rhs.Args))
		}
		return rhs.entry(env, int(math.Floor(cond)))
	}
	if cond == 0 {
		return 0, nil
	}
	return rhs.Eval(env)
}

// String returns the expression with every operation in parentheses.
func (n *Node) String() string {
	switch n.Kind {
	case Constant:
		return strconv.FormatFloat(n.Value, 'g', -1, 64)
	case Variable:
		if n.Index != nil {
			return n.Name + "(" + n.Index.String() + ")"
		}
		return n.Name
	case Function:
		return n.Name + "(" + n.Args[0].String() + ")"
	}
	parts := make([]string, len(n.Args))
	for i, a := range n.Args {
		parts[i] = a.String()
	}
	return "(" + strings.Join(parts, n.Kind.String()) + ")"
}
