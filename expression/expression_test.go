package expression

import (
	"math"
	"strings"
	"testing"
)

func TestPrecedence(tst *testing.T) {
	env := Variables{}
	for _, c := range []struct {
		text string
		val  float64
	}{
		{"2+3*4", 14},
		{"(2+3)*4", 20},
		{"8-3-2", 3},
		{"8/4/2", 1},
		{"2^3^2", 512},
		{"2*3^2", 18},
		{"1+2<4", 1},
		{"1<2 == 2<1", 0},
		{"1==1 && 2==3 || 1", 1},
		{"exp(0) + ln(1)", 1},
		{"exp(ln(2)*3)", 8},
		{"1.5e1 + .5", 15.5},
		{"1:2:3", 3},
		{"  7  ", 7},
	} {
		v, err := Eval(c.text, env)
		if err != nil {
			tst.Errorf("%s: %v", c.text, err)
			continue
		}
		if math.Abs(v-c.val) > 1e-10 {
			tst.Errorf("%s: expected %v, got %v", c.text, c.val, v)
		}
	}
}

func TestTree(tst *testing.T) {
	env := Variables{"x": 1, "y": 2}
	for _, c := range []struct {
		text, tree string
	}{
		{"x+y*2", "(x+(y*2))"},
		{"x = y = 3", "(x=(y=3))"},
		{"x==1 ? 1 : 0", "((x==1)?(1:0))"},
		{"1:2:x", "(1:2:x)"},
		{"exp(x)^2", "(exp(x)^2)"},
	} {
		e, err := Parse(c.text, env)
		if err != nil {
			tst.Error(c.text, err)
			continue
		}
		if s := e.Root.String(); s != c.tree {
			tst.Errorf("%s: expected %s, got %s", c.text, c.tree, s)
		}
	}
}

func TestSelect(tst *testing.T) {
	env := Variables{"row": 0}
	e, err := Parse("row==0 ? 1 : 0", env)
	if err != nil {
		tst.Fatal(err)
	}
	if v, _ := e.Eval(); v != 1 {
		tst.Error("Expected 1 for row=0, got", v)
	}
	env["row"] = 5
	if v, _ := e.Eval(); v != 0 {
		tst.Error("Expected 0 for row=5, got", v)
	}

	for _, c := range []struct {
		text string
		val  float64
	}{
		{"row ? 10 : 20 : 30", 20},
		{"row-1 ? 10 : 20", 10},
		{"row>0 ? 7", 7},
		{"row<1 ? 7", 0},
		{"row ? 7", 7},
		{"1.5 ? 10 : 20", 20},
	} {
		env["row"] = 1
		v, err := Eval(c.text, env)
		if err != nil {
			tst.Errorf("%s: %v", c.text, err)
			continue
		}
		if v != c.val {
			tst.Errorf("%s: expected %v, got %v", c.text, c.val, v)
		}
	}

	for _, text := range []string{"row-2 ? 1 : 2", "row+1 ? 1 : 2"} {
		_, err := Eval(text, env)
		if _, ok := err.(*Error); !ok || !strings.Contains(err.Error(), "Cannot select list element") {
			tst.Errorf("%s: expected selection error, got %v", text, err)
		}
	}
}

func TestVariables(tst *testing.T) {
	env := Variables{"row": 1, "freq(1)": 0.1, "freq(2)": 0.2, "freq(3)": 0.3}
	_, err := Parse("foo*2", env)
	if err == nil || !strings.Contains(err.Error(), "Could not evaluate variable foo") {
		tst.Error("Expected unknown variable error at parse time, got", err)
	}

	e, err := Parse("freq(2) + freq(row+2)", env)
	if err != nil {
		tst.Fatal(err)
	}
	v, err := e.Eval()
	if err != nil || math.Abs(v-0.5) > 1e-10 {
		tst.Error("Expected 0.5, got", v, err)
	}
	env["row"] = 2
	if _, err := e.Eval(); err == nil || !strings.Contains(err.Error(), "freq(4)") {
		tst.Error("Expected error for freq(4), got", err)
	}

	// Variables are read when evaluating.
	env["row"] = 0
	e, _ = Parse("row*10", env)
	env["row"] = 3
	if v, _ := e.Eval(); v != 30 {
		tst.Error("Expected late binding, got", v)
	}
}

func TestAssign(tst *testing.T) {
	env := Variables{"a": 0, "b": 0}
	e, err := Parse("a = 2 * 3", env)
	if err != nil {
		tst.Fatal(err)
	}
	if !e.IsAssignment() {
		tst.Error("Expected assignment")
	}
	if name, err := e.Target(); err != nil || name != "a" {
		tst.Error("Wrong target:", name, err)
	}
	if v, err := e.Eval(); err != nil || v != 6 || env["a"] != 6 {
		tst.Error("Wrong assignment:", v, env["a"], err)
	}
	// Earlier entries of a list are evaluated first.
	if v, _ := Eval("a = 1 : b = a + 1 : a + b", env); v != 3 {
		tst.Error("Expected 3, got", v)
	}
	if _, err := Parse("1 = 2", env); err == nil {
		tst.Error("Expected error assigning to a constant")
	}
	e, _ = Parse("a + 1", env)
	if _, err := e.Target(); err == nil {
		tst.Error("Expected error for non-assignment")
	}
}

func TestErrors(tst *testing.T) {
	env := Variables{"x": 1}
	for _, c := range []struct {
		text, msg string
	}{
		{"!x", "unary not (!) operator not supported"},
		{"x & 1", "bitwise-and & operator not supported"},
		{"x | 1", "bitwise-or | operator not supported"},
		{"x $ 1", "unrecognized character '$' in expression"},
		{"1+", "missing operand"},
		{"-1", "missing operand"},
		{"", "empty expression"},
		{"(1+2", "unbalanced left"},
		{"1+2)", "unbalanced right"},
		{"1 2", "missing operator"},
		{"x(1", "does not end with right parenthesis"},
		{"x()", "empty subscript"},
		{"exp()", "missing argument"},
	} {
		_, err := Eval(c.text, env)
		if err == nil {
			tst.Errorf("%q: expected error", c.text)
			continue
		}
		e, ok := err.(*Error)
		if !ok {
			tst.Errorf("%q: expected *Error, got %T", c.text, err)
			continue
		}
		if !strings.Contains(e.Msg, c.msg) || e.Expr != c.text {
			tst.Errorf("%q: expected %q, got %v", c.text, c.msg, err)
		}
	}
}

func BenchmarkEval(b *testing.B) {
	env := Variables{"row": 0, "column": 0, "kappa": 2, "freq(1)": 0.25, "freq(2)": 0.25, "freq(3)": 0.25, "freq(4)": 0.25}
	e, err := Parse("row==column ? 0 : (row+column==3 || row+column==1 ? kappa : 1) * freq(column+1)", env)
	if err != nil {
		b.Fatal(err)
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		env["row"] = float64(i % 4)
		env["column"] = float64(i / 4 % 4)
		if _, err := e.Eval(); err != nil {
			b.Fatal(err)
		}
	}
}
