package expression

import (
	"strconv"
)

// parser converts tokens into postfix order with the shunting-yard
// algorithm and then builds the tree from the postfix queue.
type parser struct {
	lex lexer
	env Environment
}

func (p *parser) variable(t token) (*Node, error) {
	n := &Node{Kind: Variable, Name: t.name}
	if t.hasSub {
		if t.sub == "" {
			return nil, errorf("empty subscript of %s", t.name)
		}
		if k, err := strconv.Atoi(t.sub); err == nil {
			n.Name += "(" + strconv.Itoa(k) + ")"
		} else {
			sub := &parser{lex: lexer{text: t.sub}, env: p.env}
			if n.Index, err = sub.parse(); err != nil {
				return nil, err
			}
			return n, nil
		}
	}
	if !p.env.HasVariable(n.Name) {
		return nil, errorf("Could not evaluate variable %s", n.Name)
	}
	return n, nil
}

func (p *parser) parse() (*Node, error) {
	var output, ops []*Node
	top := func() *Node {
		if len(ops) == 0 {
			return nil
		}
		return ops[len(ops)-1]
	}
	pop := func() *Node {
		n := ops[len(ops)-1]
		ops = ops[:len(ops)-1]
		return n
	}

	for {
		t, ok, err := p.lex.next()
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}
		switch t.kind {
		case tokNumber:
			output = append(output, &Node{Kind: Constant, Value: t.value})
		case tokVariable:
			n, err := p.variable(t)
			if err != nil {
				return nil, err
			}
			output = append(output, n)
		case tokFunction:
			ops = append(ops, &Node{Kind: Function, Name: t.name})
		case tokOperator:
			prec := t.op.precedence()
			right := operators[t.op].right
			// Equal precedence pops unless the operator is right
			// associative (^, = and ?), so 8-3-2 is 3.
			for o := top(); o != nil && o.Kind.IsOperator(); o = top() {
				if o.Kind.precedence() < prec || (o.Kind.precedence() == prec && right) {
					break
				}
				output = append(output, pop())
			}
			ops = append(ops, &Node{Kind: t.op})
		case tokOpen:
			ops = append(ops, &Node{Kind: paren})
		case tokClose:
			for o := top(); o != nil && o.Kind != paren; o = top() {
				output = append(output, pop())
			}
			if top() == nil {
				return nil, errorf("unbalanced right parenthesis")
			}
			pop()
			if o := top(); o != nil && o.Kind == Function {
				output = append(output, pop())
			}
		}
	}
	for len(ops) > 0 {
		o := pop()
		if o.Kind == paren {
			return nil, errorf("unbalanced left parenthesis")
		}
		output = append(output, o)
	}
	return build(output)
}

// build evaluates the postfix queue into a tree.
func build(output []*Node) (*Node, error) {
	var stack []*Node
	for _, n := range output {
		switch {
		case n.Kind == Function:
			if len(stack) < 1 {
				return nil, errorf("missing argument of %s", n.Name)
			}
			n.Args = []*Node{stack[len(stack)-1]}
			stack[len(stack)-1] = n
			continue
		case !n.Kind.IsOperator():
			stack = append(stack, n)
			continue
		}
		if len(stack) < 2 {
			return nil, errorf("missing operand of %v", n.Kind)
		}
		lhs, rhs := stack[len(stack)-2], stack[len(stack)-1]
		stack = stack[:len(stack)-2]
		switch n.Kind {
		case List:
			if lhs.Kind == List {
				lhs.Args = append(lhs.Args, rhs)
				n = lhs
			} else {
				n.Args = []*Node{lhs, rhs}
			}
		case Assign:
			if lhs.Kind != Variable {
				return nil, errorf("Can only assign to variables")
			}
			n.Args = []*Node{lhs, rhs}
		default:
			n.Args = []*Node{lhs, rhs}
		}
		stack = append(stack, n)
	}
	switch len(stack) {
	case 0:
		return nil, errorf("empty expression")
	case 1:
		return stack[0], nil
	}
	return nil, errorf("missing operator between operands")
}
