package streamteam

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// ValueKind tags the dynamic type held in a Value returned by Schema.Apply.
type ValueKind int

const (
	ValueString ValueKind = iota
	ValueLong
	ValueDouble
	ValueBool
	ValueVector
)

// Value is the result of applying a Schema to an Element: exactly one of
// its typed fields is meaningful, selected by Kind.
type Value struct {
	Kind   ValueKind
	Str    string
	Long   int64
	Double float64
	Bool   bool
	Vector Vector3
}

// String renders v in the canonical textual form used by FilterModule
// predicate comparisons — the same flat-string idiom the rest of the
// configuration surface uses.
func (v Value) String() string {
	switch v.Kind {
	case ValueLong:
		return strconv.FormatInt(v.Long, 10)
	case ValueDouble:
		return strconv.FormatFloat(v.Double, 'g', -1, 64)
	case ValueBool:
		return strconv.FormatBool(v.Bool)
	case ValueVector:
		return fmt.Sprintf("%g,%g,%g", v.Vector.X, v.Vector.Y, v.Vector.Z)
	default:
		return v.Str
	}
}

// schemaKind tags the variant of a compiled Schema.
type schemaKind int

const (
	kindKey schemaKind = iota
	kindStreamName
	kindStatic
	kindFieldValue
	kindArrayValue
	kindArraySize
	kindPositionValue
	kindPhase
	kindNo
)

// Schema is a compiled field/array/position accessor for stream elements,
// parsed once at construction time from the textual forms documented in
// the configuration surface (e.g. "fieldValue{numPlayersNearerToGoal,
// true}"). Applying a Schema is a plain switch over its kind — no string
// rematching happens after construction.
type Schema struct {
	kind      schemaKind
	name      string
	index     int
	inPayload bool
	staticVal string
}

// Static is the process-wide constant schema that maps every element to a
// single fixed string, used e.g. for stores that key all elements of a
// stream to the shared inner-key "all".
var Static = Schema{kind: kindStatic, staticVal: "all"}

// KeySchema yields the element's match key.
var KeySchema = Schema{kind: kindKey}

// StreamNameSchema yields the element's stream name.
var StreamNameSchema = Schema{kind: kindStreamName}

// PhaseSchema yields the element's non-atomic phase, failing on atomic
// elements.
var PhaseSchema = Schema{kind: kindPhase}

// No is the deliberate "inapplicable" schema. Processors that need a
// manually supplied inner-key (rather than one derived from the element)
// configure No as their inner-key schema and then pass inner keys
// explicitly to the store. Calling Apply on No always fails.
var No = Schema{kind: kindNo}

var (
	staticPattern      = regexp.MustCompile(`^static\{(.*)\}$`)
	fieldValuePattern  = regexp.MustCompile(`^fieldValue\{\s*([^,]+?)\s*,\s*(true|false)\s*\}$`)
	arrayValuePattern  = regexp.MustCompile(`^arrayValue\{\s*([^,]+?)\s*,\s*(\d+)\s*,\s*(true|false)\s*\}$`)
	arraySizePattern   = regexp.MustCompile(`^arraySize\{\s*([^,]+?)\s*,\s*(true|false)\s*\}$`)
	positionValuePattern = regexp.MustCompile(`^positionValue\{\s*(\d+)\s*\}$`)
)

// ParseSchema compiles one of the textual schema forms documented in
// spec.md §4.1. Parse errors are reported once, at construction time —
// never while the worker is processing elements.
func ParseSchema(spec string) (Schema, error) {
	s := strings.TrimSpace(spec)
	switch s {
	case "key":
		return KeySchema, nil
	case "streamName":
		return StreamNameSchema, nil
	case "phase":
		return PhaseSchema, nil
	case "no":
		return No, nil
	}

	if m := staticPattern.FindStringSubmatch(s); m != nil {
		return Schema{kind: kindStatic, staticVal: m[1]}, nil
	}
	if m := fieldValuePattern.FindStringSubmatch(s); m != nil {
		return Schema{kind: kindFieldValue, name: m[1], inPayload: m[2] == "true"}, nil
	}
	if m := arrayValuePattern.FindStringSubmatch(s); m != nil {
		idx, err := strconv.Atoi(m[2])
		if err != nil {
			return Schema{}, fmt.Errorf("parse schema %q: bad array index: %w", spec, err)
		}
		return Schema{kind: kindArrayValue, name: m[1], index: idx, inPayload: m[3] == "true"}, nil
	}
	if m := arraySizePattern.FindStringSubmatch(s); m != nil {
		return Schema{kind: kindArraySize, name: m[1], inPayload: m[2] == "true"}, nil
	}
	if m := positionValuePattern.FindStringSubmatch(s); m != nil {
		idx, err := strconv.Atoi(m[1])
		if err != nil {
			return Schema{}, fmt.Errorf("parse schema %q: bad position index: %w", spec, err)
		}
		return Schema{kind: kindPositionValue, index: idx}, nil
	}

	return Schema{}, fmt.Errorf("parse schema %q: unrecognized form", spec)
}

// MustParseSchema is ParseSchema but panics on error; intended for
// compile-time-constant schema literals inside this package's own
// processor wiring, never for schemas sourced from configuration.
func MustParseSchema(spec string) Schema {
	s, err := ParseSchema(spec)
	if err != nil {
		panic(err)
	}
	return s
}

// Apply evaluates the schema against an element, returning a typed error
// (never panicking) on failure: an inapplicable schema ("no"), a phase
// query on an atomic element, or a missing/mistyped named field.
func (s Schema) Apply(e Element) (Value, error) {
	switch s.kind {
	case kindKey:
		return Value{Kind: ValueString, Str: e.Key()}, nil
	case kindStreamName:
		return Value{Kind: ValueString, Str: e.StreamName()}, nil
	case kindStatic:
		return Value{Kind: ValueString, Str: s.staticVal}, nil
	case kindPhase:
		phase, ok := e.Phase()
		if !ok {
			return Value{}, NewElementError("Schema.Apply", e.StreamName(), e.Key(),
				fmt.Errorf("phase schema applied to atomic element"))
		}
		return Value{Kind: ValueString, Str: string(phase)}, nil
	case kindPositionValue:
		positions := e.Positions()
		if s.index < 0 || s.index >= len(positions) {
			return Value{}, NewElementError("Schema.Apply", e.StreamName(), e.Key(),
				fmt.Errorf("positionValue index %d out of range (have %d)", s.index, len(positions)))
		}
		return Value{Kind: ValueVector, Vector: positions[s.index]}, nil
	case kindFieldValue:
		return s.applyFieldValue(e)
	case kindArrayValue:
		return s.applyArrayValue(e)
	case kindArraySize:
		return s.applyArraySize(e)
	case kindNo:
		return Value{}, NewElementError("Schema.Apply", e.StreamName(), e.Key(),
			fmt.Errorf("the \"no\" schema is never applicable"))
	default:
		return Value{}, NewElementError("Schema.Apply", e.StreamName(), e.Key(),
			fmt.Errorf("unknown schema kind %d", s.kind))
	}
}

func (s Schema) applyFieldValue(e Element) (Value, error) {
	if !s.inPayload {
		switch s.name {
		case "timestamp":
			return Value{Kind: ValueLong, Long: e.Timestamp()}, nil
		case "atomicity":
			return Value{Kind: ValueBool, Bool: e.IsAtomic()}, nil
		case "phase":
			phase, ok := e.Phase()
			if !ok {
				return Value{}, NewElementError("Schema.Apply", e.StreamName(), e.Key(),
					fmt.Errorf("header field %q unset on atomic element", s.name))
			}
			return Value{Kind: ValueString, Str: string(phase)}, nil
		default:
			return Value{}, NewElementError("Schema.Apply", e.StreamName(), e.Key(),
				fmt.Errorf("unknown header field %q", s.name))
		}
	}

	p := e.Payload()
	if v, ok := p.Bool(s.name); ok {
		return Value{Kind: ValueBool, Bool: v}, nil
	}
	if v, ok := p.Long(s.name); ok {
		return Value{Kind: ValueLong, Long: v}, nil
	}
	if v, ok := p.Double(s.name); ok {
		return Value{Kind: ValueDouble, Double: v}, nil
	}
	if v, ok := p.String(s.name); ok {
		return Value{Kind: ValueString, Str: v}, nil
	}
	if v, ok := p.Vector(s.name); ok {
		return Value{Kind: ValueVector, Vector: v}, nil
	}
	return Value{}, NewElementError("Schema.Apply", e.StreamName(), e.Key(),
		fmt.Errorf("payload field %q not set", s.name))
}

func (s Schema) applyArrayValue(e Element) (Value, error) {
	p := e.Payload()
	if arr, ok := p.LongArray(s.name); ok {
		if s.index < 0 || s.index >= len(arr) {
			return Value{}, NewElementError("Schema.Apply", e.StreamName(), e.Key(),
				fmt.Errorf("arrayValue %q index %d out of range (have %d)", s.name, s.index, len(arr)))
		}
		return Value{Kind: ValueLong, Long: arr[s.index]}, nil
	}
	if arr, ok := p.DoubleArray(s.name); ok {
		if s.index < 0 || s.index >= len(arr) {
			return Value{}, NewElementError("Schema.Apply", e.StreamName(), e.Key(),
				fmt.Errorf("arrayValue %q index %d out of range (have %d)", s.name, s.index, len(arr)))
		}
		return Value{Kind: ValueDouble, Double: arr[s.index]}, nil
	}
	if arr, ok := p.StringArray(s.name); ok {
		if s.index < 0 || s.index >= len(arr) {
			return Value{}, NewElementError("Schema.Apply", e.StreamName(), e.Key(),
				fmt.Errorf("arrayValue %q index %d out of range (have %d)", s.name, s.index, len(arr)))
		}
		return Value{Kind: ValueString, Str: arr[s.index]}, nil
	}
	if arr, ok := p.VectorArray(s.name); ok {
		if s.index < 0 || s.index >= len(arr) {
			return Value{}, NewElementError("Schema.Apply", e.StreamName(), e.Key(),
				fmt.Errorf("arrayValue %q index %d out of range (have %d)", s.name, s.index, len(arr)))
		}
		return Value{Kind: ValueVector, Vector: arr[s.index]}, nil
	}
	return Value{}, NewElementError("Schema.Apply", e.StreamName(), e.Key(),
		fmt.Errorf("array field %q not set", s.name))
}

func (s Schema) applyArraySize(e Element) (Value, error) {
	size, ok := e.Payload().ArraySize(s.name)
	if !ok {
		return Value{}, NewElementError("Schema.Apply", e.StreamName(), e.Key(),
			fmt.Errorf("array field %q not set", s.name))
	}
	return Value{Kind: ValueLong, Long: int64(size)}, nil
}
