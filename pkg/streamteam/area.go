package streamteam

// AreaRect is one configured axis-aligned rectangle §4.13 tests field
// objects against.
type AreaRect struct {
	AreaID string
	XMin   float64
	XMax   float64
	YMin   float64
	YMax   float64
}

func (r AreaRect) contains(pos Vector3) bool {
	return pos.X >= r.XMin && pos.X <= r.XMax && pos.Y >= r.YMin && pos.Y <= r.YMax
}

// AreaDetector implements spec.md §4.13: for each configured rectangle,
// track whether an object is currently inside it and emit an areaEvent on
// every in/out transition.
type AreaDetector struct {
	areas []AreaRect

	inArea SingleValueStore[bool]
}

// NewAreaDetector constructs the detector over a fixed set of rectangles.
func NewAreaDetector(areas []AreaRect, backend KVBackend) *AreaDetector {
	return &AreaDetector{
		areas:  areas,
		inArea: *NewSingleValueStore[bool]("area.inArea", No, backend),
	}
}

func (d *AreaDetector) Name() string { return "areaDetector" }

// Process implements Processor over the fieldObjectState stream.
func (d *AreaDetector) Process(matchID string, e Element) ([]Element, error) {
	pos, ok := e.Position()
	if !ok {
		return nil, NewElementError(d.Name(), e.StreamName(), e.Key(), errNoPosition)
	}
	objectID := e.ObjectID()
	ts := e.Timestamp()

	var out []Element
	for _, area := range d.areas {
		key := areaFlagKey(objectID, area.AreaID)
		was := d.inArea.GetOrZero(matchID, key)
		now := area.contains(pos)
		if now == was {
			continue
		}
		d.inArea.PutAt(matchID, key, now)
		out = append(out, d.buildAreaEvent(matchID, ts, objectID, area.AreaID, now, pos))
	}
	return out, nil
}

func (d *AreaDetector) buildAreaEvent(matchID string, ts int64, objectID, areaID string, inArea bool, pos Vector3) Element {
	payload := NewPayloadBuilder().
		WithString("areaId", areaID).
		WithBool("inArea", inArea).
		Build()
	return NewElementBuilder(StreamAreaEvent, CategoryEvent, matchID, ts).
		WithObjectIDs(objectID).
		WithPositions(pos).
		WithPayload(payload).
		Build()
}

func areaFlagKey(objectID, areaID string) string {
	return objectID + "|" + areaID
}
