package streamteam

import "encoding/json"

// wireElement is the NDJSON-over-stdin/stdout wire shape cmd/worker reads
// raw samples from and writes derived elements to (spec.md §6's "a
// reference launcher... wires stdin/stdout"). It mirrors Element's fields
// one-to-one rather than nesting Payload's internal typed maps, keeping
// the format flat and easy to hand-author in a test fixture.
type wireElement struct {
	Stream    string     `json:"stream"`
	Category  string     `json:"category"`
	Key       string     `json:"key"`
	Timestamp int64      `json:"timestamp"`
	ObjectIDs []string   `json:"objectIds,omitempty"`
	GroupIDs  []string   `json:"groupIds,omitempty"`
	Positions []Vector3  `json:"positions,omitempty"`

	Phase   string `json:"phase,omitempty"`
	EventID string `json:"eventId,omitempty"`
	Counter int64  `json:"counter,omitempty"`

	Bools   map[string]bool    `json:"bools,omitempty"`
	Longs   map[string]int64   `json:"longs,omitempty"`
	Doubles map[string]float64 `json:"doubles,omitempty"`
	Strings map[string]string  `json:"strings,omitempty"`
	Vectors map[string]Vector3 `json:"vectors,omitempty"`

	LongArrays   map[string][]int64   `json:"longArrays,omitempty"`
	DoubleArrays map[string][]float64 `json:"doubleArrays,omitempty"`
	StringArrays map[string][]string  `json:"stringArrays,omitempty"`
	VectorArrays map[string][]Vector3 `json:"vectorArrays,omitempty"`
}

// EncodeElement renders e as one line of the worker's NDJSON wire format.
func EncodeElement(e Element) ([]byte, error) {
	w := wireElement{
		Stream:       e.streamName,
		Category:     string(e.category),
		Key:          e.key,
		Timestamp:    e.timestamp,
		ObjectIDs:    e.objectIDs,
		GroupIDs:     e.groupIDs,
		Positions:    e.positions,
		Bools:        e.payload.bools,
		Longs:        e.payload.longs,
		Doubles:      e.payload.doubles,
		Strings:      e.payload.strings,
		Vectors:      e.payload.vectors,
		LongArrays:   e.payload.longArrays,
		DoubleArrays: e.payload.doubleArrays,
		StringArrays: e.payload.stringArrays,
		VectorArrays: e.payload.vectorArrays,
	}
	if !e.atomic {
		phase, _ := e.Phase()
		eventID, _ := e.EventID()
		counter, _ := e.Counter()
		w.Phase = string(phase)
		w.EventID = eventID
		w.Counter = counter
	}
	return json.Marshal(w)
}

// DecodeElement parses one NDJSON line produced by EncodeElement, or
// hand-authored in the same shape by a test fixture or a local producer.
func DecodeElement(raw []byte) (Element, error) {
	var w wireElement
	if err := json.Unmarshal(raw, &w); err != nil {
		return Element{}, err
	}

	e := Element{
		streamName: w.Stream,
		category:   Category(w.Category),
		key:        w.Key,
		timestamp:  w.Timestamp,
		objectIDs:  w.ObjectIDs,
		groupIDs:   w.GroupIDs,
		positions:  w.Positions,
		atomic:     true,
		payload: Payload{
			bools:        w.Bools,
			longs:        w.Longs,
			doubles:      w.Doubles,
			strings:      w.Strings,
			vectors:      w.Vectors,
			longArrays:   w.LongArrays,
			doubleArrays: w.DoubleArrays,
			stringArrays: w.StringArrays,
			vectorArrays: w.VectorArrays,
		},
	}
	if w.Phase != "" || w.EventID != "" {
		e.atomic = false
		e.phase = Phase(w.Phase)
		e.hasPhase = true
		e.eventID = w.EventID
		e.counter = w.Counter
		e.hasNonAtomicKey = true
	}
	return e, nil
}
