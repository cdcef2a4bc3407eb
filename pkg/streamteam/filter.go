package streamteam

// PredicateKind selects how a FilterModule predicate compares a schema's
// applied value against its configured operand.
type PredicateKind int

const (
	PredicateEQ PredicateKind = iota
	PredicateNEQ
	PredicateIN
)

// Predicate is a single FilterModule condition: apply Schema to the
// element, then compare its canonical string form against Val (EQ/NEQ) or
// membership in Set (IN).
type Predicate struct {
	Kind   PredicateKind
	Schema Schema
	Val    string
	Set    map[string]struct{}
}

// EQ builds an equality predicate.
func EQ(schema Schema, val string) Predicate {
	return Predicate{Kind: PredicateEQ, Schema: schema, Val: val}
}

// NEQ builds an inequality predicate.
func NEQ(schema Schema, val string) Predicate {
	return Predicate{Kind: PredicateNEQ, Schema: schema, Val: val}
}

// IN builds a set-membership predicate.
func IN(schema Schema, values ...string) Predicate {
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		set[v] = struct{}{}
	}
	return Predicate{Kind: PredicateIN, Schema: schema, Set: set}
}

func (p Predicate) evaluate(e Element) (bool, error) {
	v, err := p.Schema.Apply(e)
	if err != nil {
		return false, err
	}
	s := v.String()
	switch p.Kind {
	case PredicateEQ:
		return s == p.Val, nil
	case PredicateNEQ:
		return s != p.Val, nil
	case PredicateIN:
		_, ok := p.Set[s]
		return ok, nil
	default:
		return false, NewElementError("Predicate.evaluate", e.StreamName(), e.Key(), errUnknownPredicateKind)
	}
}

var errUnknownPredicateKind = errUnknown("unknown predicate kind")

type errUnknown string

func (e errUnknown) Error() string { return string(e) }

// Combinator joins a FilterModule's predicates.
type Combinator int

const (
	CombinatorAND Combinator = iota
	CombinatorOR
)

// FilterModule gates traversal of the processor graph: it evaluates its
// predicates against the element, combines them with Combinator, and
// either re-emits the element unchanged or emits nothing.
type FilterModule struct {
	FilterName string
	Predicates []Predicate
	Combinator Combinator
}

func (f *FilterModule) Name() string { return f.FilterName }

// Process implements Processor.
func (f *FilterModule) Process(matchID string, e Element) ([]Element, error) {
	matched, err := f.Matches(e)
	if err != nil {
		return nil, err
	}
	if matched {
		return []Element{e}, nil
	}
	return nil, nil
}

// Matches evaluates the combinator over the predicates without re-emitting
// — useful where a detector wants to reuse filter logic inline.
func (f *FilterModule) Matches(e Element) (bool, error) {
	if len(f.Predicates) == 0 {
		return true, nil
	}
	switch f.Combinator {
	case CombinatorAND:
		for _, p := range f.Predicates {
			ok, err := p.evaluate(e)
			if err != nil {
				return false, err
			}
			if !ok {
				return false, nil
			}
		}
		return true, nil
	case CombinatorOR:
		for _, p := range f.Predicates {
			ok, err := p.evaluate(e)
			if err != nil {
				return false, err
			}
			if ok {
				return true, nil
			}
		}
		return false, nil
	default:
		return false, NewElementError("FilterModule.Matches", e.StreamName(), e.Key(), errUnknownPredicateKind)
	}
}
