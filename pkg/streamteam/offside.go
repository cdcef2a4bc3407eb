package streamteam

import "sort"

// OffsideDetector implements spec.md §4.12's offside-line computation:
// the second-deepest defender (behind the deepest, conventionally the
// goalkeeper) sets the line, adjusted forward to the possession holder's
// own position on a back pass.
type OffsideDetector struct {
	possession  *PossessionDuelDetector
	nullEmitted SingleValueStore[bool]
}

// NewOffsideDetector constructs the detector.
func NewOffsideDetector(possession *PossessionDuelDetector, backend KVBackend) *OffsideDetector {
	return &OffsideDetector{
		possession:  possession,
		nullEmitted: *NewSingleValueStore[bool]("offside.nullEmitted", Static, backend),
	}
}

func (d *OffsideDetector) Name() string { return "offsideDetector" }

// Process implements Processor over the player fieldObjectState stream.
func (d *OffsideDetector) Process(matchID string, e Element) ([]Element, error) {
	holder := d.possession.playerInPossession.GetOrZero(matchID, "all")
	ts := e.Timestamp()

	if holder == "" {
		if d.nullEmitted.GetOrZero(matchID, "all") {
			return nil, nil
		}
		d.nullEmitted.PutAt(matchID, "all", true)
		return []Element{d.buildOffsideLineState(matchID, ts, 0, nil)}, nil
	}

	if e.ObjectID() != holder {
		return nil, nil
	}
	d.nullEmitted.PutAt(matchID, "all", false)

	holderTeam, _ := d.possession.TeamOf(matchID, holder)
	leftTeam := d.possession.leftTeam.GetOrZero(matchID, "all")
	direction := 1.0
	if holderTeam != leftTeam {
		direction = -1.0
	}
	holderPos, ok := d.possession.PositionOf(matchID, holder)
	if !ok {
		return nil, nil
	}

	var adjustedXs []float64
	for _, id := range d.possession.RosterOf(matchID) {
		team, _ := d.possession.TeamOf(matchID, id)
		if team == "" || team == holderTeam {
			continue
		}
		pos, ok := d.possession.PositionOf(matchID, id)
		if !ok {
			continue
		}
		adjustedXs = append(adjustedXs, pos.X*direction)
	}
	if len(adjustedXs) == 0 {
		return nil, nil
	}

	sort.Sort(sort.Reverse(sort.Float64Slice(adjustedXs)))
	lineAdjusted := adjustedXs[0]
	if len(adjustedXs) >= 2 {
		lineAdjusted = adjustedXs[1]
	}

	holderAdjusted := holderPos.X * direction
	if lineAdjusted < holderAdjusted {
		lineAdjusted = holderAdjusted
	}

	var beyond []string
	for _, id := range d.possession.RosterOf(matchID) {
		if id == holder {
			continue
		}
		team, _ := d.possession.TeamOf(matchID, id)
		if team != holderTeam {
			continue
		}
		pos, ok := d.possession.PositionOf(matchID, id)
		if !ok {
			continue
		}
		if pos.X*direction > lineAdjusted {
			beyond = append(beyond, id)
		}
	}

	lineX := lineAdjusted * direction
	return []Element{d.buildOffsideLineState(matchID, ts, lineX, beyond)}, nil
}

func (d *OffsideDetector) buildOffsideLineState(matchID string, ts int64, lineX float64, beyond []string) Element {
	payload := NewPayloadBuilder().
		WithDouble("lineX", lineX).
		WithStringArray("playersBeyondLine", beyond).
		Build()
	return NewElementBuilder(StreamOffsideLineState, CategoryState, matchID, ts).
		WithPayload(payload).
		Build()
}
