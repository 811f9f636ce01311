package ddd

// Filter selects logical parts during a filtered traversal.
type Filter interface {
	Accept(lp *LogicalPart) bool
}

// Comparison is the match mode of a criterion.
type Comparison int

const (
	Matches    Comparison = iota // attribute present and equal
	NotMatches                   // attribute present and different
)

// Logic combines a criterion with the result of the criteria before it.
type Logic int

const (
	And Logic = iota
	Or
)

// Criterion is one attribute test. AsString selects string comparison of
// the first string value; otherwise the first double is compared.
type Criterion struct {
	Value      Value
	Comparison Comparison
	Logic      Logic
	AsString   bool
}

// SpecificsFilter accepts logical parts whose specifics satisfy its
// criteria. It has no state beyond its configuration and never mutates
// the parts it inspects.
type SpecificsFilter struct {
	criteria []Criterion
}

// NewSpecificsFilter returns a filter with no criteria; it accepts every part
// until SetCriteria is called.
func NewSpecificsFilter() *SpecificsFilter {
	return &SpecificsFilter{}
}

// SetCriteria appends a criterion. The logic of the first criterion is
// ignored.
func (f *SpecificsFilter) SetCriteria(v Value, cmp Comparison, logic Logic, asString bool) {
	f.criteria = append(f.criteria, Criterion{Value: v, Comparison: cmp, Logic: logic, AsString: asString})
}

// Criteria returns a copy of the configured criteria.
func (f *SpecificsFilter) Criteria() []Criterion {
	out := make([]Criterion, len(f.criteria))
	copy(out, f.criteria)
	return out
}

// Accept evaluates the criteria left to right.
func (f *SpecificsFilter) Accept(lp *LogicalPart) bool {
	if lp == nil {
		return false
	}
	if len(f.criteria) == 0 {
		return true
	}
	result := f.criteria[0].eval(lp.Specifics)
	for _, c := range f.criteria[1:] {
		switch c.Logic {
		case Or:
			result = result || c.eval(lp.Specifics)
		default:
			result = result && c.eval(lp.Specifics)
		}
	}
	return result
}

// eval is false whenever the attribute is absent, for either comparison.
func (c Criterion) eval(specs Specifics) bool {
	got, ok := specs.Fetch(c.Value.Name)
	if !ok {
		return false
	}
	equal := false
	if c.AsString {
		if len(c.Value.Strings) > 0 {
			for _, s := range got.Strings {
				if s == c.Value.Strings[0] {
					equal = true
					break
				}
			}
		}
	} else if len(c.Value.Doubles) > 0 {
		for _, d := range got.Doubles {
			if d == c.Value.Doubles[0] {
				equal = true
				break
			}
		}
	}
	if c.Comparison == NotMatches {
		return !equal
	}
	return equal
}
