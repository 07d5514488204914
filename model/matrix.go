package model

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/gonum/matrix/mat64"

	"bitbucket.org/Davydov/alnpat/expression"
)

// indexVariables defines num_states, row and column used by matrix
// formulas.
func (info *Info) indexVariables() (row, column *Variable) {
	info.ForceAssign("num_states", float64(info.NumStates))
	return info.ForceAssign("row", 0), info.ForceAssign("column", 0)
}

// RateMatrix evaluates the instantaneous rate matrix Q. Blank cells
// off the diagonal are zero. A blank diagonal cell, and every diagonal
// cell of a matrix given by a formula, is minus the sum of the row.
func (info *Info) RateMatrix() (*mat64.Dense, error) {
	m := &info.Rates
	n := m.Rank
	if n <= 0 || m.Empty() {
		return nil, fmt.Errorf("model %s has no rate matrix", info.Name)
	}
	row, column := info.indexVariables()

	var formula *expression.Expression
	if len(m.Expressions) == 0 {
		var err error
		if formula, err = expression.Parse(m.Formula, info); err != nil {
			return nil, &Error{File: info.File, Msg: "rate matrix formula of model " + info.Name, Err: err}
		}
	}

	q := mat64.NewDense(n, n, nil)
	for i := 0; i < n; i++ {
		row.Value = float64(i)
		sum := 0.0
		blankDiag := true
		for j := 0; j < n; j++ {
			column.Value = float64(j)
			var v float64
			var err error
			blank := false
			switch {
			case formula != nil:
				v, err = formula.Eval()
				blank = i == j
			case i < len(m.Expressions) && j < len(m.Expressions[i]) && strings.TrimSpace(m.Expressions[i][j]) != "":
				v, err = expression.Eval(m.Expressions[i][j], info)
			default:
				blank = true
			}
			if err != nil {
				return nil, &Error{File: info.File, Msg: fmt.Sprintf("row %d, column %d of rate matrix of model %s", i+1, j+1, info.Name), Err: err}
			}
			if i == j {
				if !blank {
					q.Set(i, i, v)
					blankDiag = false
				}
				continue
			}
			if !blank {
				q.Set(i, j, v)
				sum += v
			}
		}
		if blankDiag {
			q.Set(i, i, -sum)
		}
	}
	return q, nil
}

// DumpRateMatrix writes the rate matrix expressions, or the formula
// value for every cell.
func (info *Info) DumpRateMatrix(w io.Writer) error {
	return info.DumpMatrix(w, "rate", &info.Rates)
}

// DumpMatrix writes a matrix of the model. Expressions are written as
// they are, cells joined by " : ". For a formula its value is written
// for every cell, or ERROR if it cannot be evaluated.
func (info *Info) DumpMatrix(w io.Writer, name string, m *Matrix) error {
	row, column := info.indexVariables()

	withFormula := ""
	var dump bytes.Buffer
	if len(m.Expressions) > 0 {
		for _, r := range m.Expressions {
			dump.WriteString(strings.Join(r, " : "))
			dump.WriteByte('\n')
		}
	} else {
		withFormula = " (with formula " + m.Formula + ")"
		for i := 0; i < m.Rank; i++ {
			row.Value = float64(i)
			sep := ""
			for j := 0; j < m.Rank; j++ {
				column.Value = float64(j)
				v, err := expression.Eval(m.Formula, info)
				if err != nil {
					fmt.Fprintf(&dump, "%s ERROR", sep)
				} else {
					fmt.Fprintf(&dump, "%s%.6g", sep, v)
				}
				sep = " : "
			}
			dump.WriteByte('\n')
		}
	}
	_, err := fmt.Fprintf(w, "%s matrix for %s%s is...\n%s", name, info.Name, withFormula, dump.Bytes())
	return err
}
