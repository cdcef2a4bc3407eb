package streamteam

// KickConfig holds the §4.8 kick-detection thresholds.
type KickConfig struct {
	MinKickDist     float64
	MaxBallbackDist float64
}

// KickDetector implements spec.md §4.8: it watches the ball↔possessor
// distance to flag a kick in progress, and remembers the kick's context
// (position, packing, zone, attacked-under-pressure) for the pass-and-shot
// classifier to consume exactly once.
type KickDetector struct {
	cfg        KickConfig
	possession *PossessionDuelDetector

	activeKick SingleValueStore[bool]

	kickPlayer             SingleValueStore[string]
	kickTeam               SingleValueStore[string]
	kickPos                SingleValueStore[Vector3]
	kickTs                 SingleValueStore[int64]
	kickNumPlayersNearGoal SingleValueStore[int64]
	kickZone               SingleValueStore[string]
	kickAttacked           SingleValueStore[bool]
	lastUsedKickTs         SingleValueStore[int64]
}

// NewKickDetector constructs the detector. possession supplies the
// possession-holder, roster and packing state §4.8 reads rather than
// derives on its own.
func NewKickDetector(cfg KickConfig, possession *PossessionDuelDetector, backend KVBackend) *KickDetector {
	return &KickDetector{
		cfg:        cfg,
		possession: possession,

		activeKick: *NewSingleValueStore[bool]("kick.active", Static, backend),

		kickPlayer:             *NewSingleValueStore[string]("kick.player", Static, backend),
		kickTeam:               *NewSingleValueStore[string]("kick.team", Static, backend),
		kickPos:                *NewSingleValueStore[Vector3]("kick.pos", Static, backend),
		kickTs:                 *NewSingleValueStore[int64]("kick.ts", Static, backend),
		kickNumPlayersNearGoal: *NewSingleValueStore[int64]("kick.numPlayersNearerToGoal", Static, backend),
		kickZone:               *NewSingleValueStore[string]("kick.zone", Static, backend),
		kickAttacked:           *NewSingleValueStore[bool]("kick.attacked", Static, backend),
		lastUsedKickTs:         *NewSingleValueStore[int64]("kick.lastUsedTs", Static, backend),
	}
}

func (k *KickDetector) Name() string { return "kickDetector" }

// LastKick returns the most recently flagged kick's stored context, if any
// kick has been flagged. It does not check consumption; callers use
// IsKickUnused for that.
func (k *KickDetector) LastKick(matchID string) (player, team string, pos Vector3, ts int64, numPlayersNearerToGoal int64, zone string, attacked bool, ok bool) {
	ts, ok = k.kickTs.GetAt(matchID, "all")
	if !ok {
		return
	}
	player = k.kickPlayer.GetOrZero(matchID, "all")
	team = k.kickTeam.GetOrZero(matchID, "all")
	pos = k.kickPos.GetOrZero(matchID, "all")
	numPlayersNearerToGoal = k.kickNumPlayersNearGoal.GetOrZero(matchID, "all")
	zone = k.kickZone.GetOrZero(matchID, "all")
	attacked = k.kickAttacked.GetOrZero(matchID, "all")
	return
}

// MarkKickConsumed records that the kick at ts has now fed a pass/shot
// classification, so it cannot be consumed a second time (§8 property 10).
func (k *KickDetector) MarkKickConsumed(matchID string, ts int64) {
	k.lastUsedKickTs.PutAt(matchID, "all", ts)
}

// IsKickUnused reports whether the kick at ts has not yet been consumed.
func (k *KickDetector) IsKickUnused(matchID string, ts int64) bool {
	last, ok := k.lastUsedKickTs.GetAt(matchID, "all")
	return !ok || last < ts
}

// Process implements Processor over the ball's fieldObjectState stream.
func (k *KickDetector) Process(matchID string, e Element) ([]Element, error) {
	holder := k.possession.playerInPossession.GetOrZero(matchID, "all")
	if holder == "" {
		return nil, nil
	}
	holderPos, ok := k.possession.PositionOf(matchID, holder)
	if !ok {
		return nil, nil
	}
	ballPos, ok := e.Position()
	if !ok {
		return nil, NewElementError(k.Name(), e.StreamName(), e.Key(), errNoPosition)
	}

	dist := ballPos.DistanceXY(holderPos)
	active := k.activeKick.GetOrZero(matchID, "all")

	var out []Element
	if dist > k.cfg.MinKickDist && !active {
		k.activeKick.PutAt(matchID, "all", true)

		holderTeam, _ := k.possession.TeamOf(matchID, holder)
		leftTeam := k.possession.leftTeam.GetOrZero(matchID, "all")
		fieldLength := k.possession.fieldLength.GetOrZero(matchID, "all")
		packing := Packing(matchID, k.possession, holderTeam, leftTeam, fieldLength, ballPos)
		zone := classifyZone(ballPos.X, fieldLength)
		attacked := k.isUnderPressure(matchID, holder)
		ts := e.Timestamp()

		k.kickPlayer.PutAt(matchID, "all", holder)
		k.kickTeam.PutAt(matchID, "all", holderTeam)
		k.kickPos.PutAt(matchID, "all", ballPos)
		k.kickTs.PutAt(matchID, "all", ts)
		k.kickNumPlayersNearGoal.PutAt(matchID, "all", int64(packing))
		k.kickZone.PutAt(matchID, "all", string(zone))
		k.kickAttacked.PutAt(matchID, "all", attacked)

		out = append(out, k.buildKickEvent(matchID, ts, holder, ballPos, packing, zone, attacked))
	}

	if dist < k.cfg.MaxBallbackDist {
		k.activeKick.PutAt(matchID, "all", false)
	}

	return out, nil
}

// isUnderPressure folds §4.8's duel-phase and under-pressure-phase check
// into a single condition over the duel detector's own active-duel state:
// a duel never remains stored in its END phase (clearing is atomic with
// emitting END), so "duel active and holder is a participant" already
// captures "duel phase is START or ACTIVE".
func (k *KickDetector) isUnderPressure(matchID, holder string) bool {
	if !k.possession.duelActive.GetOrZero(matchID, "all") {
		return false
	}
	defender := k.possession.duelDefender.GetOrZero(matchID, "all")
	attacker := k.possession.duelAttacker.GetOrZero(matchID, "all")
	return defender == holder || attacker == holder
}

func (k *KickDetector) buildKickEvent(matchID string, ts int64, player string, ballPos Vector3, packing int, zone Zone, attacked bool) Element {
	team, _ := k.possession.TeamOf(matchID, player)
	payload := NewPayloadBuilder().
		WithLong("numPlayersNearerToGoal", int64(packing)).
		WithBool("attacked", attacked).
		WithString("zone", string(zone)).
		Build()
	return NewElementBuilder(StreamKickEvent, CategoryEvent, matchID, ts).
		WithObjectIDs(player).
		WithGroupIDs(team).
		WithPositions(ballPos).
		WithPayload(payload).
		Build()
}

// classifyZone buckets an x coordinate into a third of the field, or
// outside if beyond the field's own length.
func classifyZone(x, fieldLength float64) Zone {
	half := fieldLength / 2
	if x < -half || x > half {
		return ZoneOutside
	}
	third := fieldLength / 6
	switch {
	case x < -third:
		return ZoneLeft
	case x > third:
		return ZoneRight
	default:
		return ZoneCenter
	}
}
