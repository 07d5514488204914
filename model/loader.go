package model

import (
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/op/go-logging"
	"gopkg.in/yaml.v3"

	"bitbucket.org/Davydov/alnpat/expression"
)

// List holds models loaded from YAML files, by name.
type List struct {
	models map[string]*Info
	names  []string
}

// NewList creates an empty list.
func NewList() *List {
	return &List{models: make(map[string]*Info)}
}

// LoadFile reads models from a YAML file into a new list.
func LoadFile(path string) (*List, error) {
	l := NewList()
	if err := l.LoadFile(path); err != nil {
		return nil, err
	}
	return l, nil
}

// Has tests whether a model was loaded.
func (l *List) Has(name string) bool {
	_, ok := l.models[name]
	return ok
}

// Get returns a model by name.
func (l *List) Get(name string) (*Info, bool) {
	m, ok := l.models[name]
	return m, ok
}

// Names returns model names in the order they were loaded.
func (l *List) Names() []string {
	return append([]string(nil), l.names...)
}

func (l *List) add(info *Info) {
	if !l.Has(info.Name) {
		l.names = append(l.names, info.Name)
	}
	l.models[info.Name] = info
}

// LoadFile reads models from a YAML file. Models may be based on models
// loaded before.
func (l *List) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return l.Parse(data, path)
}

// Parse reads models from YAML data. The document is a list; every
// entry with a substitutionmodel key is a model.
func (l *List) Parse(data []byte, path string) error {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return &Error{File: path, Msg: "cannot parse model file", Err: err}
	}
	ld := &loader{file: path, list: l}
	root := resolve(&doc)
	if root == nil {
		return nil
	}
	if root.Kind != yaml.SequenceNode {
		return ld.errorf(root, "model file must contain a list of models")
	}
	for _, n := range root.Content {
		n = resolve(n)
		if n == nil {
			continue
		}
		if field(n, "substitutionmodel") == nil {
			log.Debugf("%s:%d: skipping entry without substitutionmodel", path, n.Line)
			continue
		}
		info, err := ld.substitutionModel(n, stringScalar(n, "substitutionmodel", ""), nil)
		if err != nil {
			return err
		}
		l.add(info)
		log.Infof("Loaded model %s from %s", info.Name, path)
	}
	return nil
}

// resolve skips document and alias nodes.
func resolve(n *yaml.Node) *yaml.Node {
	for n != nil {
		switch n.Kind {
		case yaml.DocumentNode:
			if len(n.Content) == 0 {
				return nil
			}
			n = n.Content[0]
		case yaml.AliasNode:
			n = n.Alias
		case 0:
			return nil
		default:
			return n
		}
	}
	return nil
}

// field returns the value of a mapping key or nil.
func field(n *yaml.Node, key string) *yaml.Node {
	if n == nil || n.Kind != yaml.MappingNode {
		return nil
	}
	for i := 0; i+1 < len(n.Content); i += 2 {
		if n.Content[i].Value == key {
			return resolve(n.Content[i+1])
		}
	}
	return nil
}

func isNull(n *yaml.Node) bool {
	return n.Kind == yaml.ScalarNode && n.ShortTag() == "!!null"
}

func stringScalar(n *yaml.Node, key, def string) string {
	f := field(n, key)
	if f == nil || f.Kind != yaml.ScalarNode || isNull(f) {
		return def
	}
	return f.Value
}

func booleanScalar(n *yaml.Node, key string, def bool) bool {
	switch strings.ToLower(stringScalar(n, key, "")) {
	case "":
		return def
	case "true", "yes", "t", "y", "1":
		return true
	}
	return false
}

// integerScalar reads the leading digits of a scalar.
func integerScalar(n *yaml.Node, key string, def int) int {
	s := stringScalar(n, key, "")
	i := 0
	for i < len(s) && s[i] >= '0' && s[i] <= '9' {
		i++
	}
	v, err := strconv.Atoi(s[:i])
	if err != nil {
		return def
	}
	return v
}

func toDouble(n *yaml.Node, def float64) float64 {
	if n.Kind != yaml.ScalarNode {
		return def
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(n.Value), 64)
	if err != nil {
		return def
	}
	return v
}

// parseSubscripts parses "a..b)" or "n)" (meaning 1..n).
func parseSubscripts(s string) (min, max int, err error) {
	end := strings.IndexByte(s, ')')
	if end < 0 {
		return 0, 0, fmt.Errorf("Subscript range does not end with right parenthesis")
	}
	inner := s[:end]
	min = 1
	if i := strings.Index(inner, ".."); i >= 0 {
		if min, err = strconv.Atoi(strings.TrimSpace(inner[:i])); err != nil {
			return 0, 0, fmt.Errorf("Could not parse subscript range (%s)", inner)
		}
		inner = inner[i+2:]
	}
	if max, err = strconv.Atoi(strings.TrimSpace(inner)); err != nil {
		return 0, 0, fmt.Errorf("Could not parse subscript range (%s)", s[:end])
	}
	if max < min {
		return 0, 0, fmt.Errorf("Subscript range (%s) is empty", s[:end])
	}
	return min, max, nil
}

type loader struct {
	file string
	list *List
}

func (ld *loader) errorf(n *yaml.Node, format string, args ...interface{}) *Error {
	e := &Error{File: ld.file, Msg: fmt.Sprintf(format, args...)}
	if n != nil {
		e.Line = n.Line
	}
	return e
}

// wrap reports an error in a formula.
func (ld *loader) wrap(n *yaml.Node, err error, format string, args ...interface{}) *Error {
	e := ld.errorf(n, format, args...)
	e.Err = err
	return e
}

func (ld *loader) substitutionModel(n *yaml.Node, name string, parent *Info) (*Info, error) {
	info := newInfo()
	super := stringScalar(n, "frommodel", "")
	if super != "" {
		base, ok := ld.list.Get(super)
		if !ok {
			return nil, ld.errorf(n, "Model %s specifies frommodel %s, but that model was not found.", name, super)
		}
		info = base.Clone()
		info.Mixture = nil
		info.Weight, info.Scale = "", ""
		log.Debugf("Model %s is based on model %s", name, super)
	}
	info.File = ld.file
	info.Name = name
	if name == "" {
		info.Name = super
	}
	info.Citation = stringScalar(n, "citation", info.Citation)
	info.DOI = stringScalar(n, "doi", info.DOI)
	info.Reversible = booleanScalar(n, "reversible", info.Reversible)
	info.DataType = stringScalar(n, "datatype", info.DataType)
	info.NumStates = integerScalar(n, "numStates", info.NumStates)
	if info.NumStates <= 0 {
		info.NumStates = 4
	}

	if params := field(n, "parameters"); params != nil {
		if params.Kind != yaml.SequenceNode {
			return nil, ld.errorf(params, "Parameters of model %s not a sequence", info.Name)
		}
		if err := ld.parameters(params, info); err != nil {
			return nil, err
		}
	}

	// Mixtures go first, constraints may set variables of the mixed
	// models.
	mixture := field(n, "mixture")
	if mixture != nil {
		if mixture.Kind != yaml.SequenceNode {
			return nil, ld.errorf(mixture, "Mixture of model %s not a sequence", info.Name)
		}
		log.Debugf("Processing mixture %s", info.Name)
		for _, child := range mixture.Content {
			child = resolve(child)
			ci, err := ld.substitutionModel(child, stringScalar(child, "substitutionmodel", ""), info)
			if err != nil {
				return nil, err
			}
			info.Mixture = append(info.Mixture, ci)
		}
	}

	if constraints := field(n, "constraints"); constraints != nil {
		if constraints.Kind != yaml.SequenceNode {
			return nil, ld.errorf(constraints, "Constraints for model %s not a sequence", info.Name)
		}
		if err := ld.constraints(constraints, info); err != nil {
			return nil, err
		}
	}

	rateMatrix := field(n, "rateMatrix")
	if rateMatrix == nil && mixture == nil && info.Rates.Empty() {
		return nil, ld.errorf(n, "Model %s does not specify a rateMatrix", info.Name)
	}
	if rateMatrix != nil {
		if err := ld.rateMatrix(rateMatrix, info); err != nil {
			return nil, err
		}
	}

	if sf := field(n, "stateFrequency"); sf != nil {
		if err := ld.stateFrequency(sf, info); err != nil {
			return nil, err
		}
	}

	for _, prop := range []string{"errormodel"} {
		if v := field(n, prop); v != nil && v.Kind == yaml.ScalarNode {
			info.Properties[prop] = v.Value
			log.Debugf("string property %s set to %s", prop, v.Value)
		}
	}

	weight := field(n, "weight")
	if weight != nil {
		if parent == nil {
			return nil, ld.errorf(weight, "Model %s is not part of a mixture model", info.Name)
		}
		info.Weight = weight.Value
	}
	if scale := field(n, "scale"); scale != nil {
		if parent == nil {
			return nil, ld.errorf(scale, "Model %s is not part of a mixture model", info.Name)
		}
		info.Scale = scale.Value
	}
	if parent != nil && weight == nil {
		return nil, ld.errorf(n, "No weight specified for model %s in mixture %s", info.Name, parent.Name)
	}
	return info, nil
}

func (ld *loader) parameters(params *yaml.Node, info *Info) error {
	for _, param := range params.Content {
		param = resolve(param)
		name := field(param, "name")
		if name == nil {
			continue
		}
		switch name.Kind {
		case yaml.ScalarNode:
			if err := ld.parameter(param, name.Value, info); err != nil {
				return err
			}
		case yaml.SequenceNode:
			for _, nn := range name.Content {
				nn = resolve(nn)
				if nn.Kind != yaml.ScalarNode {
					continue
				}
				if err := ld.parameter(param, nn.Value, info); err != nil {
					return err
				}
			}
		default:
			return ld.errorf(name, "Model parameter must have a name")
		}
	}
	return nil
}

func (ld *loader) parameter(param *yaml.Node, name string, info *Info) error {
	p := Parameter{Name: name}
	if br := strings.IndexByte(name, '('); br >= 0 {
		min, max, err := parseSubscripts(name[br+1:])
		if err != nil {
			return ld.errorf(param, "parameter %s of model %s: %v", name, info.Name, err)
		}
		p.Name = name[:br]
		p.Subscripted, p.Min, p.Max = true, min, max
	}

	p.TypeName = strings.ToLower(stringScalar(param, "type", ""))
	if p.TypeName == "matrix" {
		if p.Subscripted {
			return ld.errorf(param, "Matrix subscripts are implied by the matrix value itself, but %s parameter of model %s was explicitly subscripted (which is not supported).", p.Name, info.Name)
		}
		if field(param, "value") == nil && (field(param, "formula") == nil || field(param, "rank") == nil) {
			return ld.errorf(param, "%s matrix parameter's value must be defined in model %s.", p.Name, info.Name)
		}
		return ld.matrixParameter(param, p.Name, info)
	}

	overriding := false
	if old := info.Parameter(p.Name); old != nil {
		if old.Subscripted != p.Subscripted {
			return ld.errorf(param, "Cannot redefine subscripted parameter %s as unsubscripted (or vice versa)", p.Name)
		}
		if old.Min != p.Min || old.Max != p.Max {
			return ld.errorf(param, "Cannot redefine parameter %s subscript range", p.Name)
		}
		typeName := p.TypeName
		p = *old
		if typeName != "" {
			p.TypeName = typeName
		}
		overriding = true
	}
	p.Type = parseParamType(p.TypeName)

	dv := 0.0
	switch p.Type {
	case Rate:
		dv = 1
	case Frequency, Weight:
		dv = 1 / float64(p.Count())
	}
	r, err := ld.parseRange(param, p.Range)
	if err != nil {
		return err
	}
	p.Range = r
	if s := stringScalar(param, "initValue", ""); s != "" {
		v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			v = dv
		}
		p.Value = v
	} else if !overriding {
		p.Value = p.Range.clamp(dv)
	}
	p.Description = stringScalar(param, "description", p.Description)
	log.Debugf("Parsed parameter %s of type %s, with range %v to %v, and initial value %v",
		p.Name, p.Type, p.Range.Lo, p.Range.Hi, p.Value)
	info.addParameter(p)
	return nil
}

func (ld *loader) parseRange(param *yaml.Node, def Range) (Range, error) {
	n := field(param, "range")
	if n == nil {
		return def, nil
	}
	if n.Kind != yaml.SequenceNode {
		return def, ld.errorf(n, "Range must be a list of bounds (lower, upper)")
	}
	var r Range
	for i, b := range n.Content {
		switch i {
		case 0:
			r.Lo = toDouble(resolve(b), 0)
		case 1:
			r.Hi = toDouble(resolve(b), 0)
		default:
			return def, ld.errorf(n, "Range may only have two bounds (lower, upper)")
		}
	}
	r.Set = len(n.Content) > 0
	if len(n.Content) == 1 {
		r.Hi = r.Lo
	} else if r.Hi < r.Lo {
		return def, ld.errorf(n, "Range has lower bound (%v) greater than its upper bound (%v)", r.Lo, r.Hi)
	}
	return r, nil
}

// matrixRows reads a sequence of rows of cells; null cells are blank.
// Short rows are padded.
func (ld *loader) matrixRows(n *yaml.Node, context string) (rows [][]string, cols int, err error) {
	if n.Kind != yaml.SequenceNode {
		return nil, 0, ld.errorf(n, "%s was not a matrix", context)
	}
	for i, row := range n.Content {
		row = resolve(row)
		if row.Kind != yaml.SequenceNode {
			return nil, 0, ld.errorf(row, "Row %d of %s is not a sequence", i+1, context)
		}
		cells := make([]string, 0, len(row.Content))
		for _, c := range row.Content {
			c = resolve(c)
			switch {
			case isNull(c):
				cells = append(cells, "")
			case c.Kind != yaml.ScalarNode:
				return nil, 0, ld.errorf(c, "Column %d of row %d of %s is not a scalar", len(cells)+1, i+1, context)
			default:
				cells = append(cells, c.Value)
			}
		}
		rows = append(rows, cells)
		if len(cells) > cols {
			cols = len(cells)
		}
	}
	makeRectangular(rows, cols)
	return rows, cols, nil
}

func (ld *loader) matrixParameter(param *yaml.Node, name string, info *Info) error {
	var m Matrix
	if value := field(param, "value"); value != nil {
		rows, _, err := ld.matrixRows(value, fmt.Sprintf("%s matrix of model %s", name, info.Name))
		if err != nil {
			return err
		}
		m.Expressions = rows
		m.Rank = len(rows)
	}
	if rank := field(param, "rank"); rank != nil {
		if rank.Kind != yaml.ScalarNode {
			return ld.errorf(rank, "rank of %s matrix of model %s was not a scalar", name, info.Name)
		}
		info.ForceAssign("num_states", float64(info.NumStates))
		v, err := expression.Eval(rank.Value, info)
		if err != nil {
			return ld.wrap(rank, err, "rank of %s matrix of model %s", name, info.Name)
		}
		m.Rank = int(math.Floor(v))
		if m.Rank <= 0 {
			return ld.errorf(rank, "rank of %s matrix of model %s was invalid (%s)", name, info.Name, rank.Value)
		}
		log.Debugf("Rank of %s.%s was %s ... or %d", info.Name, name, rank.Value, m.Rank)
	}
	if formula := field(param, "formula"); formula != nil {
		if formula.Kind != yaml.ScalarNode {
			return ld.errorf(formula, "formula of %s matrix of model %s was not a scalar", name, info.Name)
		}
		m.Formula = formula.Value
	}

	lower := strings.ToLower(name)
	switch lower {
	case "ratematrix":
		info.Rates = m
	case "tiplikelihood":
		info.TipLikelihood = m
	default:
		return ld.errorf(param, "%s matrix parameter not recognized in %s model", name, info.Name)
	}
	ld.debugMatrix(info, lower, &m)
	return nil
}

func (ld *loader) rateMatrix(n *yaml.Node, info *Info) error {
	rows, cols, err := ld.matrixRows(n, "rate matrix for model "+info.Name)
	if err != nil {
		return err
	}
	if len(rows) != cols {
		return ld.errorf(n, "Rate matrix for model %s was not square: it had %d rows and %d columns.", info.Name, len(rows), cols)
	}
	info.Rates = Matrix{Rank: len(rows), Expressions: rows}
	ld.debugMatrix(info, "rate", &info.Rates)
	return nil
}

func (ld *loader) debugMatrix(info *Info, name string, m *Matrix) {
	if !log.IsEnabledFor(logging.DEBUG) {
		return
	}
	var b strings.Builder
	if err := info.DumpMatrix(&b, name, m); err == nil {
		log.Debug(b.String())
	}
}

func (ld *loader) constraints(constraints *yaml.Node, info *Info) error {
	for _, c := range constraints.Content {
		c = resolve(c)
		if c.Kind != yaml.ScalarNode {
			return ld.errorf(c, "Constraint setting for model %s was not a scalar.", info.Name)
		}
		e, err := expression.Parse(c.Value, info)
		if err != nil {
			return ld.wrap(c, err, "constraint of model %s", info.Name)
		}
		if !e.IsAssignment() {
			return ld.errorf(c, "Constraint setting for model %s was not an assignment: %s", info.Name, c.Value)
		}
		name, err := e.Target()
		if err != nil {
			return ld.wrap(c, err, "constraint of model %s", info.Name)
		}
		v, err := e.Eval()
		if err != nil {
			return ld.wrap(c, err, "constraint of model %s", info.Name)
		}
		info.Variable(name).Fixed = true
		log.Debugf("Assigned %s := %v", name, v)
	}
	return nil
}

func (ld *loader) stateFrequency(sf *yaml.Node, info *Info) error {
	if sf.Kind == yaml.SequenceNode {
		return ld.frequencies(sf, info)
	}
	if sf.Kind != yaml.ScalarNode {
		return ld.errorf(sf, "Model %s has unrecognized stateFrequency", info.Name)
	}
	switch strings.ToLower(sf.Value) {
	case "estimate":
		info.FreqType = FreqEstimate
	case "empirical":
		info.FreqType = FreqEmpirical
	case "uniform":
		info.FreqType = FreqUniform
	default:
		if !info.IsFrequencyParameter(sf.Value) {
			return ld.errorf(sf, "Model %s has unrecognized stateFrequency %s", info.Name, sf.Value)
		}
		info.FreqType = FreqUserDefined
		info.FreqParameter = sf.Value
	}
	return nil
}

// frequencies declares freq(1..num_states) and assigns the listed
// values.
func (ld *loader) frequencies(sf *yaml.Node, info *Info) error {
	p := Parameter{
		Name:        "freq",
		Subscripted: true,
		Min:         1,
		Max:         info.NumStates,
		TypeName:    "frequency",
		Type:        Frequency,
		Value:       1 / float64(info.NumStates),
	}
	info.addParameter(p)
	info.FreqType = FreqUserDefined
	info.FreqParameter = p.Name
	for i, f := range sf.Content {
		f = resolve(f)
		if f.Kind != yaml.ScalarNode {
			return ld.errorf(f, "Model %s has unrecognized frequency", info.Name)
		}
		if i >= p.Count() {
			return ld.errorf(f, "Too many frequencies specified for model %s", info.Name)
		}
		v, err := expression.Eval(f.Value, info)
		if err != nil {
			return ld.wrap(f, err, "frequency of model %s", info.Name)
		}
		name := p.VariableName(p.Min + i)
		if err := info.Assign(name, v); err != nil {
			return ld.wrap(f, err, "frequency of model %s", info.Name)
		}
		log.Debugf("Assigned frequency: %s := %v", name, v)
	}
	return nil
}
