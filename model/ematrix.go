package model

import (
	"errors"
	"fmt"
	"math"

	"github.com/gonum/blas"
	"github.com/gonum/blas/blas64"
	"github.com/gonum/matrix/mat64"
)

// taylorTerms is enough for a scaled matrix with norm at most 1/2.
const taylorTerms = 18

// EMatrix computes transition probabilities P(t) = exp(Q*Scale*t).
type EMatrix struct {
	Q     *mat64.Dense
	Scale float64
}

// NewEMatrix creates a new EMatrix.
func NewEMatrix(Q *mat64.Dense, scale float64) *EMatrix {
	return &EMatrix{Q: Q, Scale: scale}
}

// Copy returns a copy sharing Q.
func (m *EMatrix) Copy() *EMatrix {
	return &EMatrix{Q: m.Q, Scale: m.Scale}
}

// Set replaces Q and the scale.
func (m *EMatrix) Set(Q *mat64.Dense, scale float64) {
	m.Q = Q
	m.Scale = scale
}

func identity(n int) *mat64.Dense {
	id := mat64.NewDense(n, n, nil)
	for i := 0; i < n; i++ {
		id.Set(i, i, 1)
	}
	return id
}

// normInf is the maximum absolute row sum.
func normInf(a *mat64.Dense) float64 {
	rows, cols := a.Dims()
	max := 0.0
	for i := 0; i < rows; i++ {
		s := 0.0
		for j := 0; j < cols; j++ {
			s += math.Abs(a.At(i, j))
		}
		max = math.Max(max, s)
	}
	return max
}

// mul sets c = alpha*a*b; c must not share storage with a or b.
func mul(alpha float64, a, b, c *mat64.Dense) {
	blas64.Gemm(blas.NoTrans, blas.NoTrans, alpha, a.RawMatrix(), b.RawMatrix(), 0, c.RawMatrix())
}

// Exp computes exp(Q*Scale*t) by scaling and squaring with a
// truncated Taylor series.
func (m *EMatrix) Exp(t float64) (*mat64.Dense, error) {
	rows, cols := m.Q.Dims()
	if cols != rows {
		return nil, errors.New("Q isn't a square matrix")
	}
	if t < 0 || math.IsInf(t, 0) || math.IsNaN(t) {
		return nil, fmt.Errorf("wrong branch length: %v", t)
	}
	n := rows

	a := mat64.NewDense(n, n, nil)
	a.Scale(m.Scale*t, m.Q)
	s := 0
	for norm := normInf(a); norm > 0.5; norm /= 2 {
		s++
	}
	if s > 0 {
		a.Scale(math.Ldexp(1, -s), a)
	}

	res := identity(n)
	term := identity(n)
	tmp := mat64.NewDense(n, n, nil)
	for k := 1; k <= taylorTerms; k++ {
		mul(1/float64(k), term, a, tmp)
		term, tmp = tmp, term
		res.Add(res, term)
	}
	for ; s > 0; s-- {
		mul(1, res, res, tmp)
		res, tmp = tmp, res
	}

	// Remove slightly negative values
	res.Apply(func(r, c int, v float64) float64 {
		return math.Max(0, v)
	}, res)
	return res, nil
}
