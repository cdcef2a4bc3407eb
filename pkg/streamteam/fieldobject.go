package streamteam

import "fmt"

// MatchMeta carries the per-match configuration the field-object-state
// generator needs but that never arrives on the raw positional stream
// itself: the object/team rename encodings (spec.md §6), the unit-scaling
// factors that convert the tracking vendor's raw units to SI, and the
// match's axis-mirroring flags. A worker resolves this once per match
// (typically from a dedicated configuration/setup element or the
// per-worker property bag) and hands a MatchMetaProvider to the
// generator.
type MatchMeta struct {
	ObjectRenameEncoded string
	TeamRenameEncoded   string
	PositionScaleFactor float64
	VelocityScaleFactor float64
	MirroredX           bool
	MirroredY           bool
}

// MatchMetaProvider resolves a match's MatchMeta. NewFieldObjectStateGenerator
// falls back to DefaultMatchMeta when it is given a nil provider.
type MatchMetaProvider func(matchID string) MatchMeta

// DefaultMatchMeta is the identity configuration: no renames, no scaling,
// no mirroring.
var DefaultMatchMeta = MatchMeta{PositionScaleFactor: 1, VelocityScaleFactor: 1}

// FieldObjectStateGenerator implements §4.15: it turns raw positional
// samples into enriched fieldObjectState elements carrying a derived
// velocity, SI-unit scaling, axis mirroring, and renamed ids.
type FieldObjectStateGenerator struct {
	positions  *HistoryStore[Vector3]
	timestamps *HistoryStore[int64]
	renames    *RenameCache
	meta       MatchMetaProvider
}

// NewFieldObjectStateGenerator constructs the generator. backend is the
// state substrate's KV backend; meta resolves per-match configuration.
func NewFieldObjectStateGenerator(backend KVBackend, meta MatchMetaProvider) *FieldObjectStateGenerator {
	if meta == nil {
		meta = func(string) MatchMeta { return DefaultMatchMeta }
	}
	return &FieldObjectStateGenerator{
		positions:  NewHistoryStore[Vector3]("fieldObjectGen.positions", 2, No, backend),
		timestamps: NewHistoryStore[int64]("fieldObjectGen.timestamps", 2, No, backend),
		renames:    NewRenameCache(),
		meta:       meta,
	}
}

func (g *FieldObjectStateGenerator) Name() string { return "fieldObjectStateGenerator" }

// Process implements Processor.
func (g *FieldObjectStateGenerator) Process(matchID string, e Element) ([]Element, error) {
	objectID := e.ObjectID()
	if objectID == "" {
		return nil, NewElementError(g.Name(), e.StreamName(), e.Key(), fmt.Errorf("raw sample carries no object id"))
	}
	position, ok := e.Position()
	if !ok {
		return nil, NewElementError(g.Name(), e.StreamName(), e.Key(), fmt.Errorf("raw sample carries no position"))
	}
	ts := e.Timestamp()

	g.timestamps.AddAt(matchID, objectID, ts)
	g.positions.AddAt(matchID, objectID, position)

	velocity := Vector3{}
	tsList := g.timestamps.GetListAt(matchID, objectID)
	posList := g.positions.GetListAt(matchID, objectID)
	if len(tsList) >= 2 && len(posList) >= 2 {
		dtMillis := tsList[0] - tsList[1]
		if dtMillis > 0 {
			dtSeconds := float64(dtMillis) / 1000.0
			delta := posList[0].Sub(posList[1])
			velocity = delta.Scale(1.0 / dtSeconds)
		}
	}

	meta := g.meta(matchID)
	objectRename := g.renames.ObjectRenameFor(matchID, meta.ObjectRenameEncoded)
	teamRename := g.renames.TeamRenameFor(matchID, meta.TeamRenameEncoded)

	renamedObjectID := objectRename.Resolve(objectID)
	renamedGroupID := teamRename.Resolve(e.GroupID())

	posScale := meta.PositionScaleFactor
	if posScale == 0 {
		posScale = 1
	}
	velScale := meta.VelocityScaleFactor
	if velScale == 0 {
		velScale = 1
	}

	scaledPos := position.Scale(posScale)
	scaledVel := velocity.Scale(velScale)

	if meta.MirroredX {
		scaledPos.X = -scaledPos.X
		scaledVel.X = -scaledVel.X
	}
	if meta.MirroredY {
		scaledPos.Y = -scaledPos.Y
		scaledVel.Y = -scaledVel.Y
	}

	vAbs := scaledVel.Norm()

	payload := NewPayloadBuilder().
		WithVector("velocity", scaledVel).
		WithDouble("velocityAbs", vAbs).
		Build()

	out := NewElementBuilder(StreamFieldObjectState, CategoryState, matchID, ts).
		WithObjectIDs(renamedObjectID).
		WithGroupIDs(renamedGroupID).
		WithPositions(scaledPos).
		WithPayload(payload).
		Build()

	return []Element{out}, nil
}
