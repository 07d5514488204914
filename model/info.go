// Package model loads substitution models described in YAML files and
// builds their rate matrices from formulas.
package model

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/op/go-logging"
)

var log = logging.MustGetLogger("model")

// ParamType is a kind of model parameter.
type ParamType int

const (
	Other ParamType = iota
	Rate
	Frequency
	Weight
)

func parseParamType(s string) ParamType {
	switch s {
	case "rate":
		return Rate
	case "frequency":
		return Frequency
	case "weight":
		return Weight
	}
	return Other
}

func (t ParamType) String() string {
	switch t {
	case Rate:
		return "rate"
	case Frequency:
		return "frequency"
	case Weight:
		return "weight"
	}
	return "other"
}

// Range is an inclusive parameter range.
type Range struct {
	Lo, Hi float64
	Set    bool
}

// clamp moves v inside the range if the range is set.
func (r Range) clamp(v float64) float64 {
	if !r.Set {
		return v
	}
	if v < r.Lo {
		v = r.Lo
	}
	if v > r.Hi {
		v = r.Hi
	}
	return v
}

// FreqType says where equilibrium frequencies come from.
type FreqType int

const (
	FreqUnset FreqType = iota
	FreqEstimate
	FreqEmpirical
	FreqUniform
	FreqUserDefined
)

func (f FreqType) String() string {
	switch f {
	case FreqEstimate:
		return "estimate"
	case FreqEmpirical:
		return "empirical"
	case FreqUniform:
		return "uniform"
	case FreqUserDefined:
		return "user defined"
	}
	return "unset"
}

// Parameter is a declared model parameter. A subscripted parameter
// declares variables Name(Min) ... Name(Max).
type Parameter struct {
	Name        string
	Description string
	Subscripted bool
	Min, Max    int
	TypeName    string
	Type        ParamType
	Range       Range
	Value       float64
}

// Count is the number of variables the parameter declares.
func (p *Parameter) Count() int {
	if !p.Subscripted {
		return 1
	}
	return p.Max - p.Min + 1
}

// VariableName returns the name of the variable with subscript i.
func (p *Parameter) VariableName(i int) string {
	if !p.Subscripted {
		return p.Name
	}
	return p.Name + "(" + strconv.Itoa(i) + ")"
}

// Variables returns the names of all the variables declared by the
// parameter.
func (p *Parameter) Variables() []string {
	if !p.Subscripted {
		return []string{p.Name}
	}
	names := make([]string, 0, p.Count())
	for i := p.Min; i <= p.Max; i++ {
		names = append(names, p.VariableName(i))
	}
	return names
}

// Variable is a named value in the model environment.
type Variable struct {
	Type  ParamType
	Range Range
	Value float64
	Fixed bool
}

// Matrix is a matrix given either cell by cell or by a formula
// evaluated with row and column (zero-based) assigned.
type Matrix struct {
	Rank        int
	Expressions [][]string
	Formula     string
}

// Empty tests whether neither expressions nor formula are set.
func (m *Matrix) Empty() bool {
	return len(m.Expressions) == 0 && m.Formula == ""
}

func (m Matrix) clone() Matrix {
	exprs := make([][]string, len(m.Expressions))
	for i, row := range m.Expressions {
		exprs[i] = append([]string(nil), row...)
	}
	m.Expressions = exprs
	return m
}

// makeRectangular pads rows with blank cells up to n columns.
func makeRectangular(rows [][]string, n int) {
	for i := range rows {
		for len(rows[i]) < n {
			rows[i] = append(rows[i], "")
		}
	}
}

// Info is a substitution model read from a YAML file. It is also the
// variable environment of the formulas the model uses.
type Info struct {
	Name       string
	File       string
	Citation   string
	DOI        string
	DataType   string
	NumStates  int
	Reversible bool

	Parameters    []Parameter
	Rates         Matrix
	TipLikelihood Matrix
	FreqType      FreqType
	// FreqParameter is the name of the frequency parameter used with
	// FreqUserDefined.
	FreqParameter string
	// Properties holds recognized string properties, e.g. errormodel.
	Properties map[string]string

	// Mixture lists the models of a mixture.
	Mixture []*Info
	// Weight and Scale are the expressions given to a mixture member.
	Weight string
	Scale  string

	variables map[string]*Variable
}

func newInfo() *Info {
	return &Info{
		Properties: make(map[string]string),
		variables:  make(map[string]*Variable),
	}
}

// Clone returns a deep copy of the model.
func (info *Info) Clone() *Info {
	c := *info
	c.Parameters = append([]Parameter(nil), info.Parameters...)
	c.Rates = info.Rates.clone()
	c.TipLikelihood = info.TipLikelihood.clone()
	c.Properties = make(map[string]string, len(info.Properties))
	for k, v := range info.Properties {
		c.Properties[k] = v
	}
	c.Mixture = make([]*Info, len(info.Mixture))
	for i, m := range info.Mixture {
		c.Mixture[i] = m.Clone()
	}
	c.variables = make(map[string]*Variable, len(info.variables))
	for k, v := range info.variables {
		nv := *v
		c.variables[k] = &nv
	}
	return &c
}

// HasVariable tests whether the variable is defined.
func (info *Info) HasVariable(name string) bool {
	_, ok := info.variables[name]
	return ok
}

// Value returns the variable value, 0 if it is not defined.
func (info *Info) Value(name string) float64 {
	if v, ok := info.variables[name]; ok {
		return v.Value
	}
	return 0
}

// Variable returns the variable or nil.
func (info *Info) Variable(name string) *Variable {
	return info.variables[name]
}

// VariableNames returns sorted names of all the variables.
func (info *Info) VariableNames() []string {
	names := make([]string, 0, len(info.variables))
	for k := range info.variables {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// Assign sets the value of a defined variable.
func (info *Info) Assign(name string, value float64) error {
	v, ok := info.variables[name]
	if !ok {
		return fmt.Errorf("Could not assign to unrecognized variable %s of model %s", name, info.Name)
	}
	v.Value = value
	return nil
}

// ForceAssign sets the value of a variable, defining it if needed.
func (info *Info) ForceAssign(name string, value float64) *Variable {
	v, ok := info.variables[name]
	if !ok {
		v = &Variable{}
		info.variables[name] = v
	}
	v.Value = value
	return v
}

// Parameter returns the parameter with the given name or nil.
func (info *Info) Parameter(name string) *Parameter {
	for i := range info.Parameters {
		if info.Parameters[i].Name == name {
			return &info.Parameters[i]
		}
	}
	return nil
}

// IsFrequencyParameter tests for a parameter of type frequency.
func (info *Info) IsFrequencyParameter(name string) bool {
	p := info.Parameter(name)
	return p != nil && p.Type == Frequency
}

// addParameter declares (or redeclares) a parameter and sets all its
// variables to the parameter value.
func (info *Info) addParameter(p Parameter) {
	if old := info.Parameter(p.Name); old != nil {
		*old = p
	} else {
		info.Parameters = append(info.Parameters, p)
	}
	for _, name := range p.Variables() {
		info.variables[name] = &Variable{
			Type:  p.Type,
			Range: p.Range,
			Value: p.Value,
		}
	}
}

// Frequencies returns the equilibrium state frequencies. empirical is
// used (and required) for estimated and empirical frequencies.
func (info *Info) Frequencies(empirical []float64) ([]float64, error) {
	n := info.NumStates
	switch info.FreqType {
	case FreqEstimate, FreqEmpirical:
		if len(empirical) != n {
			return nil, fmt.Errorf("model %s needs %d empirical frequencies, got %d", info.Name, n, len(empirical))
		}
		return append([]float64(nil), empirical...), nil
	case FreqUserDefined:
		p := info.Parameter(info.FreqParameter)
		if p == nil {
			return nil, fmt.Errorf("frequency parameter %s of model %s not found", info.FreqParameter, info.Name)
		}
		if p.Count() != n {
			return nil, fmt.Errorf("frequency parameter %s of model %s has %d values, but the model has %d states", p.Name, info.Name, p.Count(), n)
		}
		freqs := make([]float64, 0, n)
		for _, name := range p.Variables() {
			freqs = append(freqs, info.Value(name))
		}
		return freqs, nil
	}
	freqs := make([]float64, n)
	for i := range freqs {
		freqs[i] = 1 / float64(n)
	}
	return freqs, nil
}
