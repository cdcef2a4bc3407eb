package streamteam

import "fmt"

// PassSequenceConfig holds the §4.10 pass-combination thresholds.
type PassSequenceConfig struct {
	HistoryCapacity           int
	MaxTimeBetweenPasses      int64
}

// successfulPass is one entry of the per-team successful-pass history the
// pass-sequence detector walks.
type successfulPass struct {
	ts            int64
	team          string
	kickPlayer    string
	receivePlayer string
	kickPos       Vector3
	receivePos    Vector3
}

// PassSequenceDetector implements spec.md §4.10: it walks each team's
// recent successful-pass history backwards from the newest pass to find
// the longest unbroken chain, and reports pass sequences and the "ABA"
// double-pass special case.
type PassSequenceDetector struct {
	cfg PassSequenceConfig

	history   HistoryStore[successfulPass]
	lastBreak HistoryStore[int64] // interception/misplaced/clearance/out-of-field timestamps, per team

	numPassSequences      SingleValueStore[int64]
	sumPassSequenceLength SingleValueStore[int64]
	maxPassSequenceLength SingleValueStore[int64]
	numDoublePasses       SingleValueStore[int64]
	firstTsOfLastSequence SingleValueStore[int64]
}

// NewPassSequenceDetector constructs the detector.
func NewPassSequenceDetector(cfg PassSequenceConfig, backend KVBackend) *PassSequenceDetector {
	return &PassSequenceDetector{
		cfg: cfg,

		history:   *NewHistoryStore[successfulPass]("passSequence.history", cfg.HistoryCapacity, No, backend),
		lastBreak: *NewHistoryStore[int64]("passSequence.lastBreak", 1, No, backend),

		numPassSequences:      *NewSingleValueStore[int64]("passSequence.numPassSequences", No, backend),
		sumPassSequenceLength: *NewSingleValueStore[int64]("passSequence.sumPassSequenceLength", No, backend),
		maxPassSequenceLength: *NewSingleValueStore[int64]("passSequence.maxPassSequenceLength", No, backend),
		numDoublePasses:       *NewSingleValueStore[int64]("passSequence.numDoublePasses", No, backend),
		firstTsOfLastSequence: *NewSingleValueStore[int64]("passSequence.firstTsOfLastSequence", No, backend),
	}
}

func (d *PassSequenceDetector) Name() string { return "passSequenceDetector" }

// NoteBreak records a timestamp (interception, misplaced pass, clearance,
// or ball-out-of-field) that invalidates any pass chain crossing it.
// cmd/worker calls it for interception, misplaced-pass and clearance
// events; it does not call it when the ball leaves the field.
func (d *PassSequenceDetector) NoteBreak(matchID, team string, ts int64) {
	d.lastBreak.AddAt(matchID, team, ts)
}

// Process implements Processor over the successfulPassEvent stream.
func (d *PassSequenceDetector) Process(matchID string, e Element) ([]Element, error) {
	team := e.GroupID()
	objectIDs := e.ObjectIDs()
	if len(objectIDs) < 2 {
		return nil, NewElementError(d.Name(), e.StreamName(), e.Key(), fmt.Errorf("successful pass carries fewer than two object ids"))
	}
	positions := e.Positions()
	var kickPos, receivePos Vector3
	if len(positions) >= 1 {
		kickPos = positions[0]
	}
	if len(positions) >= 2 {
		receivePos = positions[1]
	}

	pass := successfulPass{
		ts:            e.Timestamp(),
		team:          team,
		kickPlayer:    objectIDs[0],
		receivePlayer: objectIDs[1],
		kickPos:       kickPos,
		receivePos:    receivePos,
	}
	d.history.AddAt(matchID, team, pass)

	sequence := d.walkSequence(matchID, team)
	if len(sequence) < 2 {
		return nil, nil
	}

	var out []Element
	out = append(out, d.buildSequenceEvent(matchID, sequence))

	newSequence := d.firstTsOfLastSequence.GetOrZero(matchID, team) != sequence[0].ts
	if newSequence {
		d.firstTsOfLastSequence.PutAt(matchID, team, sequence[0].ts)
	}

	participants := map[string]bool{team: true}
	for _, p := range sequence {
		participants[p.kickPlayer] = true
		participants[p.receivePlayer] = true
	}
	for participant := range participants {
		if newSequence {
			Increase(&d.numPassSequences, matchID, participant, 1)
		}
		Increase(&d.sumPassSequenceLength, matchID, participant, int64(len(sequence)))
		if int64(len(sequence)) > d.maxPassSequenceLength.GetOrZero(matchID, participant) {
			d.maxPassSequenceLength.PutAt(matchID, participant, int64(len(sequence)))
		}
	}

	if len(sequence) == 2 && sequence[1].kickPlayer == sequence[0].receivePlayer && sequence[1].receivePlayer == sequence[0].kickPlayer {
		Increase(&d.numDoublePasses, matchID, team, 1)
		Increase(&d.numDoublePasses, matchID, sequence[0].kickPlayer, 1)
		out = append(out, d.buildDoublePassEvent(matchID, sequence))
	}

	for participant := range participants {
		out = append(out, d.buildSequenceStatistics(matchID, participant))
	}

	return out, nil
}

// walkSequence walks the team's pass history newest-first, stopping at the
// first break, and returns the surviving prefix in chronological order.
func (d *PassSequenceDetector) walkSequence(matchID, team string) []successfulPass {
	passes := d.history.GetListAt(matchID, team)
	breaks := d.lastBreak.GetListAt(matchID, team)

	var latestBreak int64 = -1
	for _, b := range breaks {
		if b > latestBreak {
			latestBreak = b
		}
	}

	var chain []successfulPass
	for i, p := range passes {
		if i > 0 {
			prev := passes[i-1]
			gap := prev.ts - p.ts
			if gap > d.cfg.MaxTimeBetweenPasses {
				break
			}
			if p.receivePlayer != prev.kickPlayer {
				break
			}
		}
		if latestBreak > p.ts {
			break
		}
		chain = append(chain, p)
	}

	// reverse into chronological order
	for i, j := 0, len(chain)-1; i < j; i, j = i+1, j-1 {
		chain[i], chain[j] = chain[j], chain[i]
	}
	return chain
}

func (d *PassSequenceDetector) buildSequenceEvent(matchID string, sequence []successfulPass) Element {
	first, last := sequence[0], sequence[len(sequence)-1]
	payload := NewPayloadBuilder().
		WithLong("length", int64(len(sequence))).
		Build()
	return NewElementBuilder(StreamPassSequenceEvent, CategoryEvent, matchID, last.ts).
		WithGroupIDs(first.team).
		WithPositions(first.kickPos, last.receivePos).
		WithPayload(payload).
		Build()
}

func (d *PassSequenceDetector) buildDoublePassEvent(matchID string, sequence []successfulPass) Element {
	first := sequence[0]
	last := sequence[len(sequence)-1]
	return NewElementBuilder(StreamDoublePassEvent, CategoryEvent, matchID, last.ts).
		WithObjectIDs(first.kickPlayer, first.receivePlayer).
		WithGroupIDs(first.team).
		Build()
}

func (d *PassSequenceDetector) buildSequenceStatistics(matchID, participant string) Element {
	numSequences := d.numPassSequences.GetOrZero(matchID, participant)
	sumLength := d.sumPassSequenceLength.GetOrZero(matchID, participant)
	maxLength := d.maxPassSequenceLength.GetOrZero(matchID, participant)
	numDouble := d.numDoublePasses.GetOrZero(matchID, participant)

	payload := NewPayloadBuilder().
		WithLong("numPassSequences", numSequences).
		WithLong("sumPassSequenceLength", sumLength).
		WithLong("maxPassSequenceLength", maxLength).
		WithLong("numDoublePasses", numDouble).
		Build()
	return NewElementBuilder(StreamPassSequenceStatistics, CategoryStatistics, matchID, 0).
		WithObjectIDs(participant).
		WithPayload(payload).
		Build()
}
