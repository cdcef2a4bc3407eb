package streamteam

// Category classifies a stream element by the role its stream plays in the
// engine's data flow.
type Category string

const (
	CategoryRaw        Category = "raw"
	CategoryState      Category = "state"
	CategoryEvent      Category = "event"
	CategoryStatistics Category = "statistics"
	CategoryInternal   Category = "internal"
)

// Phase identifies where in a non-atomic episode (duel, dribbling, set
// play, …) this element sits.
type Phase string

const (
	PhaseStart  Phase = "START"
	PhaseActive Phase = "ACTIVE"
	PhaseEnd    Phase = "END"
)

// Element is an immutable stream element: one positional sample or one
// derived game-analytics fact, keyed by match id. Construct one with
// NewElementBuilder; once built it is never mutated, so it may be fanned
// out to many processor-graph children without copying.
type Element struct {
	streamName string
	category   Category
	key        string
	timestamp  int64
	objectIDs  []string
	groupIDs   []string
	positions  []Vector3

	atomic          bool
	phase           Phase
	hasPhase        bool
	eventID         string
	counter         int64
	hasNonAtomicKey bool

	payload Payload
}

// ElementBuilder accumulates the fields of a single Element. Detectors and
// the field-object-state generator each expose a small typed factory
// function per stream name that wraps a builder; callers outside this
// package never construct payload maps by hand.
type ElementBuilder struct {
	e Element
}

// NewElementBuilder starts a builder for an atomic element on the given
// stream, category and match key.
func NewElementBuilder(streamName string, category Category, key string, timestamp int64) *ElementBuilder {
	return &ElementBuilder{e: Element{
		streamName: streamName,
		category:   category,
		key:        key,
		timestamp:  timestamp,
		atomic:     true,
	}}
}

func (b *ElementBuilder) WithObjectIDs(ids ...string) *ElementBuilder {
	b.e.objectIDs = ids
	return b
}

func (b *ElementBuilder) WithGroupIDs(ids ...string) *ElementBuilder {
	b.e.groupIDs = ids
	return b
}

func (b *ElementBuilder) WithPositions(positions ...Vector3) *ElementBuilder {
	b.e.positions = positions
	return b
}

// WithNonAtomic marks the element as part of a non-atomic episode: phase is
// one of START/ACTIVE/END, eventID identifies the episode and counter
// groups the START/ACTIVE*/END elements belonging to the same occurrence.
func (b *ElementBuilder) WithNonAtomic(phase Phase, eventID string, counter int64) *ElementBuilder {
	b.e.atomic = false
	b.e.phase = phase
	b.e.hasPhase = true
	b.e.eventID = eventID
	b.e.counter = counter
	b.e.hasNonAtomicKey = true
	return b
}

func (b *ElementBuilder) WithPayload(p Payload) *ElementBuilder {
	b.e.payload = p
	return b
}

// Build freezes the builder into an Element.
func (b *ElementBuilder) Build() Element {
	return b.e
}

func (e Element) StreamName() string   { return e.streamName }
func (e Element) Category() Category   { return e.category }
func (e Element) Key() string          { return e.key }
func (e Element) Timestamp() int64     { return e.timestamp }
func (e Element) ObjectIDs() []string  { return e.objectIDs }
func (e Element) GroupIDs() []string   { return e.groupIDs }
func (e Element) Positions() []Vector3 { return e.positions }
func (e Element) IsAtomic() bool       { return e.atomic }
func (e Element) Payload() Payload     { return e.payload }

// Phase returns the non-atomic phase and true, or ("", false) if the
// element is atomic.
func (e Element) Phase() (Phase, bool) {
	if !e.hasPhase {
		return "", false
	}
	return e.phase, true
}

// EventID returns the non-atomic episode identifier and true, or ("",
// false) if the element is atomic.
func (e Element) EventID() (string, bool) {
	if !e.hasNonAtomicKey {
		return "", false
	}
	return e.eventID, true
}

// Counter returns the non-atomic grouping counter and true, or (0, false)
// if the element is atomic.
func (e Element) Counter() (int64, bool) {
	if !e.hasNonAtomicKey {
		return 0, false
	}
	return e.counter, true
}

// ObjectID returns the sole object id carried by single-object elements
// (e.g. a field-object-state), or "" if there is none.
func (e Element) ObjectID() string {
	if len(e.objectIDs) == 0 {
		return ""
	}
	return e.objectIDs[0]
}

// GroupID returns the sole group id carried by single-group elements, or ""
// if there is none.
func (e Element) GroupID() string {
	if len(e.groupIDs) == 0 {
		return ""
	}
	return e.groupIDs[0]
}

// Position returns the sole position carried by single-position elements.
// The second return value is false if there is none.
func (e Element) Position() (Vector3, bool) {
	if len(e.positions) == 0 {
		return Vector3{}, false
	}
	return e.positions[0], true
}
