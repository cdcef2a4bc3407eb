package streamteam

// TeamAreaPressingDetector implements spec.md §4.16: it tracks each team's
// occupied area (bounding rectangle and convex hull) and a defending team's
// pressing index, both derived from the roster state the possession
// detector already maintains. It must be wired downstream of
// PossessionDuelDetector.PlayerObserver so player positions are current.
type TeamAreaPressingDetector struct {
	ballID     string
	possession *PossessionDuelDetector

	ballPositions HistoryStore[Vector3]
	ballTs        HistoryStore[int64]
	ballVelocity  SingleValueStore[Vector3]

	playerVelocity SingleValueStore[Vector3]

	lastBoundingArea SingleValueStore[float64]
	lastHullArea     SingleValueStore[float64]

	pressingIndex SingleValueStore[float64]
}

// NewTeamAreaPressingDetector constructs the detector.
func NewTeamAreaPressingDetector(ballID string, possession *PossessionDuelDetector, backend KVBackend) *TeamAreaPressingDetector {
	return &TeamAreaPressingDetector{
		ballID:     ballID,
		possession: possession,

		ballPositions: *NewHistoryStore[Vector3]("teamArea.ballPositions", 2, Static, backend),
		ballTs:        *NewHistoryStore[int64]("teamArea.ballTs", 2, Static, backend),
		ballVelocity:  *NewSingleValueStore[Vector3]("teamArea.ballVelocity", Static, backend),

		playerVelocity: *NewSingleValueStore[Vector3]("teamArea.playerVelocity", No, backend),

		lastBoundingArea: *NewSingleValueStore[float64]("teamArea.lastBoundingArea", No, backend),
		lastHullArea:     *NewSingleValueStore[float64]("teamArea.lastHullArea", No, backend),

		pressingIndex: *NewSingleValueStore[float64]("teamArea.pressingIndex", No, backend),
	}
}

func (d *TeamAreaPressingDetector) Name() string { return "teamAreaPressingDetector" }

// Process implements Processor over the fieldObjectState stream (both the
// ball and every player).
func (d *TeamAreaPressingDetector) Process(matchID string, e Element) ([]Element, error) {
	pos, ok := e.Position()
	if !ok {
		return nil, NewElementError(d.Name(), e.StreamName(), e.Key(), errNoPosition)
	}

	if e.ObjectID() == d.ballID {
		d.updateBall(matchID, pos, e.Timestamp())
		return nil, nil
	}

	playerID := e.ObjectID()
	velocity, _ := e.Payload().Vector("velocity")
	d.playerVelocity.PutAt(matchID, playerID, velocity)

	team, ok := d.possession.TeamOf(matchID, playerID)
	if !ok {
		return nil, nil
	}

	out := d.emitTeamAreaIfChanged(matchID, team)

	holderTeam := d.possession.teamInPossession.GetOrZero(matchID, "all")
	if ballPos, ok := d.ballPositions.GetLatestAt(matchID, "all"); ok && holderTeam != "" && team != holderTeam {
		d.recomputePressing(matchID, team, ballPos)
	}

	return out, nil
}

func (d *TeamAreaPressingDetector) updateBall(matchID string, pos Vector3, ts int64) {
	d.ballPositions.AddAt(matchID, "all", pos)
	d.ballTs.AddAt(matchID, "all", ts)

	positions := d.ballPositions.GetListAt(matchID, "all")
	timestamps := d.ballTs.GetListAt(matchID, "all")
	if len(positions) < 2 || len(timestamps) < 2 {
		d.ballVelocity.PutAt(matchID, "all", Vector3{})
		return
	}
	dtMillis := timestamps[0] - timestamps[1]
	if dtMillis <= 0 {
		return
	}
	delta := positions[0].Sub(positions[1])
	d.ballVelocity.PutAt(matchID, "all", delta.Scale(1000.0/float64(dtMillis)))
}

func (d *TeamAreaPressingDetector) emitTeamAreaIfChanged(matchID, team string) []Element {
	var positions []Vector3
	for _, id := range d.possession.RosterOf(matchID) {
		t, ok := d.possession.TeamOf(matchID, id)
		if !ok || t != team {
			continue
		}
		pos, ok := d.possession.PositionOf(matchID, id)
		if !ok {
			continue
		}
		positions = append(positions, pos)
	}
	if len(positions) == 0 {
		return nil
	}

	boundingArea := BoundingRectangleAreaXY(positions)
	hullArea := ConvexHullAreaXY(positions)

	lastBounding := d.lastBoundingArea.GetOrZero(matchID, team)
	lastHull := d.lastHullArea.GetOrZero(matchID, team)
	if absDiff(boundingArea, lastBounding) <= 1e-5 && absDiff(hullArea, lastHull) <= 1e-5 {
		return nil
	}

	d.lastBoundingArea.PutAt(matchID, team, boundingArea)
	d.lastHullArea.PutAt(matchID, team, hullArea)

	payload := NewPayloadBuilder().
		WithDouble("boundingArea", boundingArea).
		WithDouble("hullArea", hullArea).
		Build()
	event := NewElementBuilder(StreamTeamAreaState, CategoryState, matchID, 0).
		WithGroupIDs(team).
		WithPayload(payload).
		Build()
	return []Element{event}
}

func (d *TeamAreaPressingDetector) recomputePressing(matchID, defendingTeam string, ballPos Vector3) {
	ballVelocity := d.ballVelocity.GetOrZero(matchID, "all")

	var total float64
	for _, id := range d.possession.RosterOf(matchID) {
		t, ok := d.possession.TeamOf(matchID, id)
		if !ok || t != defendingTeam {
			continue
		}
		pos, ok := d.possession.PositionOf(matchID, id)
		if !ok {
			continue
		}
		distance := pos.DistanceXY(ballPos)
		if distance <= 0 {
			continue
		}
		toBall := ballPos.Sub(pos)
		toPlayer := pos.Sub(ballPos)
		vb := ballVelocity.Project(toPlayer)
		vp := d.playerVelocity.GetOrZero(matchID, id).Project(toBall)
		contribution := (vp + vb) / distance
		if contribution > 0 {
			total += contribution
		}
	}
	d.pressingIndex.PutAt(matchID, defendingTeam, total)
}

func absDiff(a, b float64) float64 {
	d := a - b
	if d < 0 {
		return -d
	}
	return d
}
