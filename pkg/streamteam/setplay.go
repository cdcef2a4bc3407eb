package streamteam

// SetPlayConfig holds the supplemented set-play detector's thresholds.
type SetPlayConfig struct {
	BallID                 string
	MaxBallSpeedForRestart float64
	MinQuietMs             int64
}

// SetPlayDetector classifies a ball-out-of-bounds area-exit into a
// throw-in, corner kick or goal kick by which boundary area was exited and
// which team last touched the ball, plus penalties synthesized from an
// external penaltyAwardedEvent stream. A restart is confirmed only once
// the ball has settled, and ends on the next detected ball hit.
type SetPlayDetector struct {
	cfg        SetPlayConfig
	possession *PossessionDuelDetector

	pendingType   SingleValueStore[string]
	pendingTeam   SingleValueStore[string]
	pendingPos    SingleValueStore[Vector3]
	pendingSince  SingleValueStore[int64]

	activeType     SingleValueStore[string]
	activeTeam     SingleValueStore[string]
	activePos      SingleValueStore[Vector3]
	activeEventID  SingleValueStore[string]
	activeCounter  SingleValueStore[int64]

	numThrowIns   SingleValueStore[int64]
	numCornerKicks SingleValueStore[int64]
	numGoalKicks  SingleValueStore[int64]
	numPenalties  SingleValueStore[int64]
}

// NewSetPlayDetector constructs the detector.
func NewSetPlayDetector(cfg SetPlayConfig, possession *PossessionDuelDetector, backend KVBackend) *SetPlayDetector {
	return &SetPlayDetector{
		cfg:        cfg,
		possession: possession,

		pendingType:  *NewSingleValueStore[string]("setPlay.pendingType", Static, backend),
		pendingTeam:  *NewSingleValueStore[string]("setPlay.pendingTeam", Static, backend),
		pendingPos:   *NewSingleValueStore[Vector3]("setPlay.pendingPos", Static, backend),
		pendingSince: *NewSingleValueStore[int64]("setPlay.pendingSince", Static, backend),

		activeType:    *NewSingleValueStore[string]("setPlay.activeType", Static, backend),
		activeTeam:    *NewSingleValueStore[string]("setPlay.activeTeam", Static, backend),
		activePos:     *NewSingleValueStore[Vector3]("setPlay.activePos", Static, backend),
		activeEventID: *NewSingleValueStore[string]("setPlay.activeEventID", Static, backend),
		activeCounter: *NewSingleValueStore[int64]("setPlay.activeCounter", Static, backend),

		numThrowIns:    *NewSingleValueStore[int64]("setPlay.numThrowIns", No, backend),
		numCornerKicks: *NewSingleValueStore[int64]("setPlay.numCornerKicks", No, backend),
		numGoalKicks:   *NewSingleValueStore[int64]("setPlay.numGoalKicks", No, backend),
		numPenalties:   *NewSingleValueStore[int64]("setPlay.numPenalties", No, backend),
	}
}

func (d *SetPlayDetector) Name() string { return "setPlayDetector" }

// Process implements Processor over areaEvent, fieldObjectState,
// ballPossessionChangeEvent and the external penaltyAwardedEvent streams.
func (d *SetPlayDetector) Process(matchID string, e Element) ([]Element, error) {
	switch e.StreamName() {
	case StreamAreaEvent:
		return d.handleAreaEvent(matchID, e), nil
	case StreamFieldObjectState:
		return d.handleBallTick(matchID, e), nil
	case StreamBallPossessionChangeEvent:
		return d.handleHit(matchID, e), nil
	case StreamPenaltyAwardedEvent:
		return d.handlePenaltyAwarded(matchID, e), nil
	default:
		return nil, nil
	}
}

func (d *SetPlayDetector) handleAreaEvent(matchID string, e Element) []Element {
	if e.ObjectID() != d.cfg.BallID {
		return nil
	}
	inArea, _ := e.Payload().Bool("inArea")
	if !inArea {
		return nil
	}
	areaID, _ := e.Payload().String("areaId")
	pos, _ := e.Position()
	ts := e.Timestamp()

	lastTouchTeam := d.possession.teamInPossession.GetOrZero(matchID, "all")
	leftTeam := d.possession.leftTeam.GetOrZero(matchID, "all")

	switch areaID {
	case AreaLeftTouch, AreaRightTouch:
		nonTouchingTeam := d.otherTeamOf(matchID, lastTouchTeam)
		if nonTouchingTeam == "" {
			return nil
		}
		d.setPending(matchID, string(SetPlayThrowIn), nonTouchingTeam, pos, ts)
	case AreaSlightlyAboveLeftGoal, AreaSlightlyBelowLeftGoal:
		d.classifyGoalLineExit(matchID, leftTeam, lastTouchTeam, pos, ts)
	case AreaSlightlyAboveRightGoal, AreaSlightlyBelowRightGoal:
		rightTeam := d.otherTeamOf(matchID, leftTeam)
		d.classifyGoalLineExit(matchID, rightTeam, lastTouchTeam, pos, ts)
	default:
		return nil
	}
	return nil
}

func (d *SetPlayDetector) classifyGoalLineExit(matchID, defendingTeam, lastTouchTeam string, pos Vector3, ts int64) {
	if defendingTeam == "" {
		return
	}
	if lastTouchTeam == defendingTeam {
		d.setPending(matchID, string(SetPlayGoalKick), defendingTeam, pos, ts)
		return
	}
	attackingTeam := d.otherTeamOf(matchID, defendingTeam)
	if attackingTeam == "" {
		return
	}
	d.setPending(matchID, string(SetPlayCornerKick), attackingTeam, pos, ts)
}

func (d *SetPlayDetector) handlePenaltyAwarded(matchID string, e Element) []Element {
	team := e.GroupID()
	if team == "" {
		return nil
	}
	pos, _ := e.Position()
	d.setPending(matchID, string(SetPlayPenalty), team, pos, e.Timestamp())
	return nil
}

func (d *SetPlayDetector) setPending(matchID, setPlayType, team string, pos Vector3, ts int64) {
	d.pendingType.PutAt(matchID, "all", setPlayType)
	d.pendingTeam.PutAt(matchID, "all", team)
	d.pendingPos.PutAt(matchID, "all", pos)
	d.pendingSince.PutAt(matchID, "all", ts)
}

func (d *SetPlayDetector) handleBallTick(matchID string, e Element) []Element {
	if e.ObjectID() != d.cfg.BallID {
		return nil
	}
	pendingType := d.pendingType.GetOrZero(matchID, "all")
	if pendingType == "" {
		return nil
	}
	ts := e.Timestamp()
	since := d.pendingSince.GetOrZero(matchID, "all")
	if ts-since < d.cfg.MinQuietMs {
		return nil
	}
	vabsList := d.possession.ballVabs.GetListAt(matchID, "all")
	var vabs float64
	if len(vabsList) > 0 {
		vabs = vabsList[0]
	}
	if vabs > d.cfg.MaxBallSpeedForRestart {
		return nil
	}

	return []Element{d.startSetPlay(matchID, ts)}
}

func (d *SetPlayDetector) startSetPlay(matchID string, ts int64) Element {
	setPlayType := d.pendingType.GetOrZero(matchID, "all")
	team := d.pendingTeam.GetOrZero(matchID, "all")
	pos := d.pendingPos.GetOrZero(matchID, "all")

	d.pendingType.PutAt(matchID, "all", "")
	d.pendingTeam.PutAt(matchID, "all", "")

	id := NewSetPlayID()
	counter := Increase(&d.activeCounter, matchID, "all", 1)
	d.activeType.PutAt(matchID, "all", setPlayType)
	d.activeTeam.PutAt(matchID, "all", team)
	d.activePos.PutAt(matchID, "all", pos)
	d.activeEventID.PutAt(matchID, "all", id)

	switch SetPlayType(setPlayType) {
	case SetPlayThrowIn:
		Increase(&d.numThrowIns, matchID, team, 1)
	case SetPlayCornerKick:
		Increase(&d.numCornerKicks, matchID, team, 1)
	case SetPlayGoalKick:
		Increase(&d.numGoalKicks, matchID, team, 1)
	case SetPlayPenalty:
		Increase(&d.numPenalties, matchID, team, 1)
	}

	return d.buildSetPlayEvent(matchID, ts, PhaseStart, setPlayType, team, pos, id, counter)
}

func (d *SetPlayDetector) handleHit(matchID string, e Element) []Element {
	setPlayType := d.activeType.GetOrZero(matchID, "all")
	if setPlayType == "" {
		return nil
	}
	team := d.activeTeam.GetOrZero(matchID, "all")
	pos := d.activePos.GetOrZero(matchID, "all")
	id := d.activeEventID.GetOrZero(matchID, "all")
	counter := d.activeCounter.GetOrZero(matchID, "all")

	d.activeType.PutAt(matchID, "all", "")
	d.activeTeam.PutAt(matchID, "all", "")
	d.activeEventID.PutAt(matchID, "all", "")

	return []Element{d.buildSetPlayEvent(matchID, e.Timestamp(), PhaseEnd, setPlayType, team, pos, id, counter)}
}

func (d *SetPlayDetector) buildSetPlayEvent(matchID string, ts int64, phase Phase, setPlayType, team string, pos Vector3, id string, counter int64) Element {
	payload := NewPayloadBuilder().
		WithString("type", setPlayType).
		Build()
	return NewElementBuilder(StreamSetPlayEvent, CategoryEvent, matchID, ts).
		WithGroupIDs(team).
		WithPositions(pos).
		WithPayload(payload).
		WithNonAtomic(phase, id, counter).
		Build()
}

// otherTeamOf scans the roster for a team distinct from exclude.
func (d *SetPlayDetector) otherTeamOf(matchID, exclude string) string {
	for _, id := range d.possession.RosterOf(matchID) {
		team, ok := d.possession.TeamOf(matchID, id)
		if ok && team != "" && team != exclude {
			return team
		}
	}
	return ""
}
