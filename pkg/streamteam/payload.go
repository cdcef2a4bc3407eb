package streamteam

// Payload is the schema-defined map of named scalars, arrays, and vectors
// carried by a stream element. Its shape is fully determined by the
// element's stream name; callers read it through typed accessors rather
// than a generic map so a missing or mistyped key is a single, explicit
// "not found" signal instead of a silent zero value.
type Payload struct {
	bools   map[string]bool
	longs   map[string]int64
	doubles map[string]float64
	strings map[string]string
	vectors map[string]Vector3

	longArrays   map[string][]int64
	doubleArrays map[string][]float64
	stringArrays map[string][]string
	vectorArrays map[string][]Vector3
}

// PayloadBuilder accumulates named values for a single element before it is
// frozen into an immutable Payload.
type PayloadBuilder struct {
	p Payload
}

// NewPayloadBuilder starts an empty payload builder.
func NewPayloadBuilder() *PayloadBuilder {
	return &PayloadBuilder{}
}

func (b *PayloadBuilder) WithBool(name string, v bool) *PayloadBuilder {
	if b.p.bools == nil {
		b.p.bools = map[string]bool{}
	}
	b.p.bools[name] = v
	return b
}

func (b *PayloadBuilder) WithLong(name string, v int64) *PayloadBuilder {
	if b.p.longs == nil {
		b.p.longs = map[string]int64{}
	}
	b.p.longs[name] = v
	return b
}

func (b *PayloadBuilder) WithDouble(name string, v float64) *PayloadBuilder {
	if b.p.doubles == nil {
		b.p.doubles = map[string]float64{}
	}
	b.p.doubles[name] = v
	return b
}

func (b *PayloadBuilder) WithString(name string, v string) *PayloadBuilder {
	if b.p.strings == nil {
		b.p.strings = map[string]string{}
	}
	b.p.strings[name] = v
	return b
}

func (b *PayloadBuilder) WithVector(name string, v Vector3) *PayloadBuilder {
	if b.p.vectors == nil {
		b.p.vectors = map[string]Vector3{}
	}
	b.p.vectors[name] = v
	return b
}

func (b *PayloadBuilder) WithLongArray(name string, v []int64) *PayloadBuilder {
	if b.p.longArrays == nil {
		b.p.longArrays = map[string][]int64{}
	}
	b.p.longArrays[name] = v
	return b
}

func (b *PayloadBuilder) WithDoubleArray(name string, v []float64) *PayloadBuilder {
	if b.p.doubleArrays == nil {
		b.p.doubleArrays = map[string][]float64{}
	}
	b.p.doubleArrays[name] = v
	return b
}

func (b *PayloadBuilder) WithStringArray(name string, v []string) *PayloadBuilder {
	if b.p.stringArrays == nil {
		b.p.stringArrays = map[string][]string{}
	}
	b.p.stringArrays[name] = v
	return b
}

func (b *PayloadBuilder) WithVectorArray(name string, v []Vector3) *PayloadBuilder {
	if b.p.vectorArrays == nil {
		b.p.vectorArrays = map[string][]Vector3{}
	}
	b.p.vectorArrays[name] = v
	return b
}

// Build freezes the accumulated fields into a Payload.
func (b *PayloadBuilder) Build() Payload {
	return b.p
}

func (p Payload) Bool(name string) (bool, bool) {
	v, ok := p.bools[name]
	return v, ok
}

func (p Payload) Long(name string) (int64, bool) {
	v, ok := p.longs[name]
	return v, ok
}

func (p Payload) Double(name string) (float64, bool) {
	v, ok := p.doubles[name]
	return v, ok
}

func (p Payload) String(name string) (string, bool) {
	v, ok := p.strings[name]
	return v, ok
}

func (p Payload) Vector(name string) (Vector3, bool) {
	v, ok := p.vectors[name]
	return v, ok
}

func (p Payload) LongArray(name string) ([]int64, bool) {
	v, ok := p.longArrays[name]
	return v, ok
}

func (p Payload) DoubleArray(name string) ([]float64, bool) {
	v, ok := p.doubleArrays[name]
	return v, ok
}

func (p Payload) StringArray(name string) ([]string, bool) {
	v, ok := p.stringArrays[name]
	return v, ok
}

func (p Payload) VectorArray(name string) ([]Vector3, bool) {
	v, ok := p.vectorArrays[name]
	return v, ok
}

// ArraySize returns the size of the named array, whichever of the four
// array kinds it is stored as, and whether it was found at all.
func (p Payload) ArraySize(name string) (int, bool) {
	if v, ok := p.longArrays[name]; ok {
		return len(v), true
	}
	if v, ok := p.doubleArrays[name]; ok {
		return len(v), true
	}
	if v, ok := p.stringArrays[name]; ok {
		return len(v), true
	}
	if v, ok := p.vectorArrays[name]; ok {
		return len(v), true
	}
	return 0, false
}
