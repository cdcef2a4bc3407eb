package streamteam

import "fmt"

// PossessionConfig holds the thresholds spec.md §4.7 names for ball-hit
// detection, possession-change proximity and duel-pair proximity.
type PossessionConfig struct {
	BallID string

	MaxVabsForVabsDiff    float64
	MinVabsDiff           float64
	MinMovingDirAngleDiff float64

	MaxBallPossessionChangeDist float64
	MaxDuelDist                 float64
}

// PossessionDuelDetector implements spec.md §4.7: it watches the ball's
// fieldObjectState stream for hits, tracks which player and team hold
// possession, and runs the two-nearest-player duel state machine. It also
// maintains the player position/team roster every other player-keyed
// detector in this package (kick, pass-and-shot, dribbling) shares through
// its PlayerObserver processor.
type PossessionDuelDetector struct {
	cfg PossessionConfig

	ballPositions HistoryStore[Vector3]
	ballVabs      HistoryStore[float64]
	ballInField   SingleValueStore[bool]
	fieldLength   SingleValueStore[float64]
	leftTeam      SingleValueStore[string]

	playerPosition SingleValueStore[Vector3]
	playerTeam     SingleValueStore[string]
	roster         SingleValueStore[[]string]

	playerInPossession SingleValueStore[string]
	teamInPossession   SingleValueStore[string]

	duelActive   SingleValueStore[bool]
	duelDefender SingleValueStore[string]
	duelAttacker SingleValueStore[string]
	duelEventID  SingleValueStore[string]
	duelCounter  SingleValueStore[int64]
}

// NewPossessionDuelDetector constructs the detector over backend, keying its
// own derived state independently of whatever raw/positional stores feed it.
func NewPossessionDuelDetector(cfg PossessionConfig, backend KVBackend) *PossessionDuelDetector {
	return &PossessionDuelDetector{
		cfg: cfg,

		ballPositions: *NewHistoryStore[Vector3]("possession.ballPositions", 3, Static, backend),
		ballVabs:      *NewHistoryStore[float64]("possession.ballVabs", 2, Static, backend),
		ballInField:   *NewSingleValueStore[bool]("possession.ballInField", Static, backend),
		fieldLength:   *NewSingleValueStore[float64]("possession.fieldLength", Static, backend),
		leftTeam:      *NewSingleValueStore[string]("possession.leftTeam", Static, backend),

		playerPosition: *NewSingleValueStore[Vector3]("possession.playerPosition", No, backend),
		playerTeam:     *NewSingleValueStore[string]("possession.playerTeam", No, backend),
		roster:         *NewSingleValueStore[[]string]("possession.roster", Static, backend),

		playerInPossession: *NewSingleValueStore[string]("possession.playerInPossession", Static, backend),
		teamInPossession:   *NewSingleValueStore[string]("possession.teamInPossession", Static, backend),

		duelActive:   *NewSingleValueStore[bool]("possession.duelActive", Static, backend),
		duelDefender: *NewSingleValueStore[string]("possession.duelDefender", Static, backend),
		duelAttacker: *NewSingleValueStore[string]("possession.duelAttacker", Static, backend),
		duelEventID:  *NewSingleValueStore[string]("possession.duelEventID", Static, backend),
		duelCounter:  *NewSingleValueStore[int64]("possession.duelCounter", Static, backend),
	}
}

func (d *PossessionDuelDetector) Name() string { return "possessionDuelDetector" }

// SetFieldLength and SetLeftTeam let the worker's configuration/kickoff
// wiring push match setup into this detector's own state, the same way the
// teacher's constructors accept already-resolved dependencies rather than
// reaching into global configuration.
func (d *PossessionDuelDetector) SetFieldLength(matchID string, length float64) {
	d.fieldLength.PutAt(matchID, "all", length)
}

func (d *PossessionDuelDetector) SetLeftTeam(matchID, teamID string) {
	d.leftTeam.PutAt(matchID, "all", teamID)
}

func (d *PossessionDuelDetector) SetBallInField(matchID string, inField bool) {
	d.ballInField.PutAt(matchID, "all", inField)
}

// PlayerObserver returns the processor the worker wires directly under the
// field-object-state generator, ahead of the ball/player split: it passes
// every element through and keeps this detector's player
// position/team/roster state current (ball elements are not recorded) so
// the packing calculation and the duel pair search always see the latest
// positions.
func (d *PossessionDuelDetector) PlayerObserver() Processor {
	return ProcessorFunc{FuncName: "possession.playerObserver", Fn: d.observePlayer}
}

func (d *PossessionDuelDetector) observePlayer(matchID string, e Element) ([]Element, error) {
	playerID := e.ObjectID()
	if playerID == "" || playerID == d.cfg.BallID {
		return []Element{e}, nil
	}
	pos, ok := e.Position()
	if !ok {
		return []Element{e}, nil
	}

	d.playerPosition.PutAt(matchID, playerID, pos)
	d.playerTeam.PutAt(matchID, playerID, e.GroupID())

	roster := d.roster.GetOrZero(matchID, "all")
	known := false
	for _, id := range roster {
		if id == playerID {
			known = true
			break
		}
	}
	if !known {
		roster = append(roster, playerID)
		d.roster.PutAt(matchID, "all", roster)
	}

	return []Element{e}, nil
}

// TeamOf, PositionOf and RosterOf implement PlayerLookup over this
// detector's roster/position state, so Packing can be computed from the
// same state this detector (and the kick/pass-and-shot detectors) maintain.
func (d *PossessionDuelDetector) TeamOf(matchID, playerID string) (string, bool) {
	team, ok := d.playerTeam.GetAt(matchID, playerID)
	return team, ok
}

func (d *PossessionDuelDetector) PositionOf(matchID, playerID string) (Vector3, bool) {
	return d.playerPosition.GetAt(matchID, playerID)
}

func (d *PossessionDuelDetector) RosterOf(matchID string) []string {
	return d.roster.GetOrZero(matchID, "all")
}

// Process implements Processor over the ball's fieldObjectState stream.
func (d *PossessionDuelDetector) Process(matchID string, e Element) ([]Element, error) {
	ts := e.Timestamp()
	ballPos, ok := e.Position()
	if !ok {
		return nil, NewElementError(d.Name(), e.StreamName(), e.Key(), fmt.Errorf("ball sample carries no position"))
	}
	vabs, _ := e.Payload().Double("velocityAbs")

	if !d.ballInField.GetOrZero(matchID, "all") {
		return d.resetOnBallOutOfField(matchID, ts), nil
	}

	d.ballPositions.AddAt(matchID, "all", ballPos)
	d.ballVabs.AddAt(matchID, "all", vabs)

	var out []Element

	hit, err := d.detectHit(matchID)
	if err != nil {
		return nil, err
	}
	if hit {
		if ev, changed := d.applyPossessionChange(matchID, ts, ballPos); changed {
			out = append(out, ev)
		}
	}

	if ev, ok := d.runDuelStateMachine(matchID, ts, ballPos); ok {
		out = append(out, ev)
	}

	return out, nil
}

func (d *PossessionDuelDetector) resetOnBallOutOfField(matchID string, ts int64) []Element {
	var out []Element

	d.playerInPossession.PutAt(matchID, "all", "")
	d.teamInPossession.PutAt(matchID, "all", "")
	out = append(out, d.buildPossessionChangeEvent(matchID, ts, "", "", Vector3{}, 0))

	if d.duelActive.GetOrZero(matchID, "all") {
		out = append(out, d.buildDuelEvent(matchID, ts, PhaseEnd))
		d.clearDuel(matchID)
	}

	return out
}

// detectHit implements step 1: a hit is either a sudden change in |v| that
// leaves it below MaxVabsForVabsDiff, or a sharp change in the ball's moving direction over
// its three most recent samples.
func (d *PossessionDuelDetector) detectHit(matchID string) (bool, error) {
	vabsList := d.ballVabs.GetListAt(matchID, "all")
	posList := d.ballPositions.GetListAt(matchID, "all")
	if len(vabsList) < 2 || len(posList) < 3 {
		return false, NewElementError(d.Name(), StreamFieldObjectState, matchID,
			fmt.Errorf("insufficient ball history for hit detection"))
	}

	newest, previous := vabsList[0], vabsList[1]
	if newest < d.cfg.MaxVabsForVabsDiff {
		diff := previous - newest
		if diff < 0 {
			diff = -diff
		}
		if diff > d.cfg.MinVabsDiff {
			return true, nil
		}
	}

	delta1 := posList[0].Sub(posList[1])
	delta2 := posList[1].Sub(posList[2])
	if delta1.Angle(delta2) > d.cfg.MinMovingDirAngleDiff {
		return true, nil
	}

	return false, nil
}

// applyPossessionChange implements step 2: it finds the nearest roster
// player to the ball within MaxBallPossessionChangeDist and, if different
// from the currently stored possession holder, updates the possession
// stores and returns a ballPossessionChangeEvent.
func (d *PossessionDuelDetector) applyPossessionChange(matchID string, ts int64, ballPos Vector3) (Element, bool) {
	nearest, team, dist, found := d.nearestPlayer(matchID, ballPos, func(string) bool { return true })
	if !found || dist > d.cfg.MaxBallPossessionChangeDist {
		return Element{}, false
	}

	current := d.playerInPossession.GetOrZero(matchID, "all")
	if current == nearest {
		return Element{}, false
	}

	d.playerInPossession.PutAt(matchID, "all", nearest)
	d.teamInPossession.PutAt(matchID, "all", team)

	leftTeam := d.leftTeam.GetOrZero(matchID, "all")
	fieldLength := d.fieldLength.GetOrZero(matchID, "all")
	packing := Packing(matchID, d, team, leftTeam, fieldLength, ballPos)

	return d.buildPossessionChangeEvent(matchID, ts, nearest, team, ballPos, packing), true
}

func (d *PossessionDuelDetector) buildPossessionChangeEvent(matchID string, ts int64, playerID, teamID string, ballPos Vector3, packing int) Element {
	payload := NewPayloadBuilder().
		WithString("playerId", playerID).
		WithString("teamId", teamID).
		WithLong("packing", int64(packing)).
		Build()

	return NewElementBuilder(StreamBallPossessionChangeEvent, CategoryEvent, matchID, ts).
		WithObjectIDs(playerID).
		WithGroupIDs(teamID).
		WithPositions(ballPos).
		WithPayload(payload).
		Build()
}

// runDuelStateMachine implements step 3.
func (d *PossessionDuelDetector) runDuelStateMachine(matchID string, ts int64, ballPos Vector3) (Element, bool) {
	holder := d.playerInPossession.GetOrZero(matchID, "all")
	if holder == "" {
		return Element{}, false
	}

	active := d.duelActive.GetOrZero(matchID, "all")
	defender := d.duelDefender.GetOrZero(matchID, "all")

	if active && defender != holder {
		ev := d.buildDuelEvent(matchID, ts, PhaseEnd)
		d.clearDuel(matchID)
		return ev, true
	}

	p1, p2, ok := d.twoNearestToBall(matchID, ballPos)
	if !ok {
		if active {
			ev := d.buildDuelEvent(matchID, ts, PhaseEnd)
			d.clearDuel(matchID)
			return ev, true
		}
		return Element{}, false
	}

	var attacker string
	switch {
	case p1 == holder:
		attacker = p2
	case p2 == holder:
		attacker = p1
	default:
		if active {
			ev := d.buildDuelEvent(matchID, ts, PhaseEnd)
			d.clearDuel(matchID)
			return ev, true
		}
		return Element{}, false
	}

	holderTeam, _ := d.TeamOf(matchID, holder)
	attackerTeam, _ := d.TeamOf(matchID, attacker)
	if attackerTeam == "" || attackerTeam == holderTeam {
		if active {
			ev := d.buildDuelEvent(matchID, ts, PhaseEnd)
			d.clearDuel(matchID)
			return ev, true
		}
		return Element{}, false
	}

	if !active {
		id := NewDuelID()
		d.duelActive.PutAt(matchID, "all", true)
		d.duelDefender.PutAt(matchID, "all", holder)
		d.duelAttacker.PutAt(matchID, "all", attacker)
		d.duelEventID.PutAt(matchID, "all", id)
		counter := Increase(&d.duelCounter, matchID, "all", 1)
		return d.buildDuelEventWith(matchID, ts, PhaseStart, holder, attacker, id, counter), true
	}

	storedAttacker := d.duelAttacker.GetOrZero(matchID, "all")
	if attacker == storedAttacker {
		id := d.duelEventID.GetOrZero(matchID, "all")
		counter := d.duelCounter.GetOrZero(matchID, "all")
		return d.buildDuelEventWith(matchID, ts, PhaseActive, holder, attacker, id, counter), true
	}

	ev := d.buildDuelEvent(matchID, ts, PhaseEnd)
	d.clearDuel(matchID)
	return ev, true
}

func (d *PossessionDuelDetector) buildDuelEvent(matchID string, ts int64, phase Phase) Element {
	defender := d.duelDefender.GetOrZero(matchID, "all")
	attacker := d.duelAttacker.GetOrZero(matchID, "all")
	id := d.duelEventID.GetOrZero(matchID, "all")
	counter := d.duelCounter.GetOrZero(matchID, "all")
	return d.buildDuelEventWith(matchID, ts, phase, defender, attacker, id, counter)
}

func (d *PossessionDuelDetector) buildDuelEventWith(matchID string, ts int64, phase Phase, defender, attacker, eventID string, counter int64) Element {
	defenderTeam, _ := d.TeamOf(matchID, defender)
	attackerTeam, _ := d.TeamOf(matchID, attacker)

	payload := NewPayloadBuilder().
		WithString("defenderId", defender).
		WithString("attackerId", attacker).
		Build()

	return NewElementBuilder(StreamDuelEvent, CategoryEvent, matchID, ts).
		WithObjectIDs(defender, attacker).
		WithGroupIDs(defenderTeam, attackerTeam).
		WithPayload(payload).
		WithNonAtomic(phase, eventID, counter).
		Build()
}

func (d *PossessionDuelDetector) clearDuel(matchID string) {
	d.duelActive.PutAt(matchID, "all", false)
	d.duelDefender.PutAt(matchID, "all", "")
	d.duelAttacker.PutAt(matchID, "all", "")
	d.duelEventID.PutAt(matchID, "all", "")
}

// nearestPlayer scans the roster for the closest player (XY plane) to pos
// satisfying filter, returning its id, team and distance.
func (d *PossessionDuelDetector) nearestPlayer(matchID string, pos Vector3, filter func(playerID string) bool) (playerID, teamID string, dist float64, found bool) {
	best := 0.0
	for _, id := range d.RosterOf(matchID) {
		if !filter(id) {
			continue
		}
		p, ok := d.PositionOf(matchID, id)
		if !ok {
			continue
		}
		dxy := pos.DistanceXY(p)
		if !found || dxy < best {
			found = true
			best = dxy
			playerID = id
			teamID, _ = d.TeamOf(matchID, id)
			dist = dxy
		}
	}
	return
}

// twoNearestToBall returns the two roster players (by id) nearest to the
// ball's position (XY plane), per spec.md's duel rule: the pair is found
// relative to the ball, not to whichever player currently holds it.
func (d *PossessionDuelDetector) twoNearestToBall(matchID string, ballPos Vector3) (first, second string, ok bool) {
	type cand struct {
		id   string
		dist float64
	}
	var best, secondBest cand
	best.dist, secondBest.dist = -1, -1

	for _, id := range d.RosterOf(matchID) {
		p, ok := d.PositionOf(matchID, id)
		if !ok {
			continue
		}
		dist := ballPos.DistanceXY(p)
		if best.dist < 0 || dist < best.dist {
			secondBest = best
			best = cand{id: id, dist: dist}
		} else if secondBest.dist < 0 || dist < secondBest.dist {
			secondBest = cand{id: id, dist: dist}
		}
	}

	if best.dist < 0 || secondBest.dist < 0 {
		return "", "", false
	}
	if secondBest.dist > d.cfg.MaxDuelDist {
		return "", "", false
	}
	return best.id, secondBest.id, true
}
