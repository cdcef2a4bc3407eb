package streamteam

// PassShotConfig holds the §4.9 pass-and-shot classification thresholds.
type PassShotConfig struct {
	BallID                  string
	MaxTime                 int64
	SidewardsAngleThreshold float64
	GoalHeight              float64
}

// PassShotClassifier implements spec.md §4.9: given a ball-possession
// change or a ball-area-entry as the "second event" of a kick, it
// classifies the kick into a successful pass, interception, clearance,
// goal, shot-off-target or misplaced pass, and maintains the running
// passStatistics/shotStatistics counters per player and per team.
type PassShotClassifier struct {
	cfg        PassShotConfig
	kick       *KickDetector
	possession *PossessionDuelDetector

	numSuccessfulPasses SingleValueStore[int64]
	numInterceptions    SingleValueStore[int64]
	numMisplacedPasses  SingleValueStore[int64]
	numClearances       SingleValueStore[int64]
	numGoals            SingleValueStore[int64]
	numShotsOffTarget   SingleValueStore[int64]
	numForward          SingleValueStore[int64]
	numBackward         SingleValueStore[int64]
	numLeftward         SingleValueStore[int64]
	numRightward        SingleValueStore[int64]
	packingSum          SingleValueStore[int64]
}

// NewPassShotClassifier constructs the classifier, sharing kick and
// possession state rather than duplicating it.
func NewPassShotClassifier(cfg PassShotConfig, kick *KickDetector, possession *PossessionDuelDetector, backend KVBackend) *PassShotClassifier {
	return &PassShotClassifier{
		cfg:        cfg,
		kick:       kick,
		possession: possession,

		numSuccessfulPasses: *NewSingleValueStore[int64]("passShot.numSuccessfulPasses", No, backend),
		numInterceptions:    *NewSingleValueStore[int64]("passShot.numInterceptions", No, backend),
		numMisplacedPasses:  *NewSingleValueStore[int64]("passShot.numMisplacedPasses", No, backend),
		numClearances:       *NewSingleValueStore[int64]("passShot.numClearances", No, backend),
		numGoals:            *NewSingleValueStore[int64]("passShot.numGoals", No, backend),
		numShotsOffTarget:   *NewSingleValueStore[int64]("passShot.numShotsOffTarget", No, backend),
		numForward:          *NewSingleValueStore[int64]("passShot.numForward", No, backend),
		numBackward:         *NewSingleValueStore[int64]("passShot.numBackward", No, backend),
		numLeftward:         *NewSingleValueStore[int64]("passShot.numLeftward", No, backend),
		numRightward:        *NewSingleValueStore[int64]("passShot.numRightward", No, backend),
		packingSum:          *NewSingleValueStore[int64]("passShot.packingSum", No, backend),
	}
}

func (c *PassShotClassifier) Name() string { return "passShotClassifier" }

// Process implements Processor over both ballPossessionChangeEvent and
// areaEvent streams; cmd/worker wires it as a child of both the possession
// detector and the area detector.
func (c *PassShotClassifier) Process(matchID string, e Element) ([]Element, error) {
	switch e.StreamName() {
	case StreamBallPossessionChangeEvent:
		return c.handlePossessionChange(matchID, e), nil
	case StreamAreaEvent:
		return c.handleAreaEntry(matchID, e), nil
	default:
		return nil, nil
	}
}

// kickContext bundles the unused-kick lookup + gap check shared by both
// second-event kinds.
type kickContext struct {
	player, team           string
	pos                    Vector3
	ts                     int64
	numPlayersNearerToGoal int64
	zone                   string
	attacked               bool
}

func (c *PassShotClassifier) pendingKick(matchID string, receiveTs int64) (kickContext, bool) {
	player, team, pos, ts, n, zone, attacked, ok := c.kick.LastKick(matchID)
	if !ok || !c.kick.IsKickUnused(matchID, ts) {
		return kickContext{}, false
	}
	if receiveTs-ts > c.cfg.MaxTime {
		return kickContext{}, false
	}
	return kickContext{player: player, team: team, pos: pos, ts: ts, numPlayersNearerToGoal: n, zone: zone, attacked: attacked}, true
}

func (c *PassShotClassifier) handlePossessionChange(matchID string, e Element) []Element {
	receivePlayer := e.ObjectID()
	if receivePlayer == "" {
		return nil
	}
	receiveTeam := e.GroupID()
	receivePos, _ := e.Position()
	receiveTs := e.Timestamp()

	kick, ok := c.pendingKick(matchID, receiveTs)
	if !ok {
		return nil
	}

	leftTeam := c.possession.leftTeam.GetOrZero(matchID, "all")
	fieldLength := c.possession.fieldLength.GetOrZero(matchID, "all")
	length, velocity, category := c.kinematics(kick, leftTeam, receivePos, receiveTs)

	var out Element
	if receiveTeam == kick.team {
		receivePacking := Packing(matchID, c.possession, receiveTeam, leftTeam, fieldLength, receivePos)
		packingDiff := kick.numPlayersNearerToGoal - int64(receivePacking)
		out = c.buildPassEvent(matchID, StreamSuccessfulPassEvent, receiveTs, kick, receivePlayer, receivePos, length, velocity, category, &packingDiff)
		c.updateStats(matchID, kick, &c.numSuccessfulPasses, category)
	} else {
		ownThird := ownThirdFor(kick.team, leftTeam)
		receiveZone := classifyZone(receivePos.X, fieldLength)
		if kick.attacked && kick.zone == string(ownThird) && Zone(kick.zone) != receiveZone {
			out = c.buildPassEvent(matchID, StreamClearanceEvent, receiveTs, kick, receivePlayer, receivePos, length, velocity, category, nil)
			c.updateStats(matchID, kick, &c.numClearances, category)
		} else {
			out = c.buildPassEvent(matchID, StreamInterceptionEvent, receiveTs, kick, receivePlayer, receivePos, length, velocity, category, nil)
			c.updateStats(matchID, kick, &c.numInterceptions, category)
		}
	}

	c.kick.MarkKickConsumed(matchID, kick.ts)
	return []Element{out}
}

func (c *PassShotClassifier) handleAreaEntry(matchID string, e Element) []Element {
	objectID := e.ObjectID()
	if objectID != "" && objectID != c.cfg.BallID {
		return nil
	}
	inArea, _ := e.Payload().Bool("inArea")
	if !inArea {
		return nil
	}
	areaID, _ := e.Payload().String("areaId")
	receivePos, _ := e.Position()
	receiveTs := e.Timestamp()

	kick, ok := c.pendingKick(matchID, receiveTs)
	if !ok {
		return nil
	}

	leftTeam := c.possession.leftTeam.GetOrZero(matchID, "all")
	length, velocity, category := c.kinematics(kick, leftTeam, receivePos, receiveTs)
	ownThird := ownThirdFor(kick.team, leftTeam)
	defenseThird := kick.zone == string(ownThird)

	var stream string
	switch areaID {
	case AreaLeftGoal, AreaRightGoal:
		if receivePos.Z < c.cfg.GoalHeight {
			stream = StreamGoalEvent
		} else if kick.attacked && defenseThird {
			stream = StreamClearanceEvent
		} else if areaID == string(ownGoalAreaFor(kick.team, leftTeam)) {
			stream = StreamMisplacedPassEvent
		} else {
			stream = StreamShotOffTargetEvent
		}
	case AreaSlightlyAboveLeftGoal, AreaSlightlyBelowLeftGoal, AreaSlightlyAboveRightGoal, AreaSlightlyBelowRightGoal:
		if kick.attacked && defenseThird {
			stream = StreamClearanceEvent
		} else if areaID == string(ownSlightlyGoalAreaFor(kick.team, leftTeam, areaID)) {
			stream = StreamMisplacedPassEvent
		} else {
			stream = StreamShotOffTargetEvent
		}
	default:
		if kick.attacked && defenseThird {
			stream = StreamClearanceEvent
		} else {
			stream = StreamMisplacedPassEvent
		}
	}

	out := c.buildPassEvent(matchID, stream, receiveTs, kick, "", receivePos, length, velocity, category, nil)
	switch stream {
	case StreamGoalEvent:
		c.updateStats(matchID, kick, &c.numGoals, category)
	case StreamShotOffTargetEvent:
		c.updateStats(matchID, kick, &c.numShotsOffTarget, category)
	case StreamClearanceEvent:
		c.updateStats(matchID, kick, &c.numClearances, category)
	case StreamMisplacedPassEvent:
		c.updateStats(matchID, kick, &c.numMisplacedPasses, category)
	}

	c.kick.MarkKickConsumed(matchID, kick.ts)
	return []Element{out}
}

func (c *PassShotClassifier) kinematics(kick kickContext, leftTeam string, receivePos Vector3, receiveTs int64) (length, velocity float64, category DirectionCategory) {
	length = receivePos.Distance(kick.pos)
	durationSeconds := float64(receiveTs-kick.ts) / 1000.0
	if durationSeconds > 0 {
		velocity = length / durationSeconds
	}
	direction := Vector3{X: 1}
	if kick.team != leftTeam {
		direction = Vector3{X: -1}
	}
	category = classifyDirection(direction, receivePos.Sub(kick.pos), c.cfg.SidewardsAngleThreshold)
	return
}

// classifyDirection buckets diff relative to the kicking team's playing
// direction into FORWARD/BACKWARD/LEFT/RIGHT.
func classifyDirection(direction, diff Vector3, sidewardsAngleThreshold float64) DirectionCategory {
	angle := direction.Angle(diff)
	if angle <= sidewardsAngleThreshold {
		return DirectionForward
	}
	if angle >= 3.14159265358979-sidewardsAngleThreshold {
		return DirectionBackward
	}
	cross := direction.X*diff.Y - direction.Y*diff.X
	if cross > 0 {
		return DirectionLeft
	}
	return DirectionRight
}

// ownThirdFor returns the zone a team defends: left team defends the left
// third, right team defends the right third.
func ownThirdFor(team, leftTeam string) Zone {
	if team == leftTeam {
		return ZoneLeft
	}
	return ZoneRight
}

// ownGoalAreaFor returns the goal area a team defends.
func ownGoalAreaFor(team, leftTeam string) string {
	if team == leftTeam {
		return AreaLeftGoal
	}
	return AreaRightGoal
}

// ownSlightlyGoalAreaFor returns the "slightly above/below own goal" area
// matching the side of goalAreaID (above stays above, below stays below).
func ownSlightlyGoalAreaFor(team, leftTeam, goalAreaID string) string {
	ownLeft := team == leftTeam
	above := goalAreaID == AreaSlightlyAboveLeftGoal || goalAreaID == AreaSlightlyAboveRightGoal
	switch {
	case ownLeft && above:
		return AreaSlightlyAboveLeftGoal
	case ownLeft && !above:
		return AreaSlightlyBelowLeftGoal
	case !ownLeft && above:
		return AreaSlightlyAboveRightGoal
	default:
		return AreaSlightlyBelowRightGoal
	}
}

func (c *PassShotClassifier) buildPassEvent(matchID, stream string, ts int64, kick kickContext, receivePlayer string, receivePos Vector3, length, velocity float64, category DirectionCategory, packingDiff *int64) Element {
	b := NewPayloadBuilder().
		WithDouble("length", length).
		WithDouble("velocity", velocity).
		WithString("direction", string(category))
	if packingDiff != nil {
		b = b.WithLong("packingDiff", *packingDiff)
	}
	objectIDs := []string{kick.player}
	if receivePlayer != "" {
		objectIDs = append(objectIDs, receivePlayer)
	}
	return NewElementBuilder(stream, CategoryEvent, matchID, ts).
		WithObjectIDs(objectIDs...).
		WithGroupIDs(kick.team).
		WithPositions(kick.pos, receivePos).
		WithPayload(b.Build()).
		Build()
}

func (c *PassShotClassifier) updateStats(matchID string, kick kickContext, counter *SingleValueStore[int64], category DirectionCategory) {
	Increase(counter, matchID, kick.player, 1)
	Increase(counter, matchID, kick.team, 1)

	var dirCounter *SingleValueStore[int64]
	switch category {
	case DirectionForward:
		dirCounter = &c.numForward
	case DirectionBackward:
		dirCounter = &c.numBackward
	case DirectionLeft:
		dirCounter = &c.numLeftward
	default:
		dirCounter = &c.numRightward
	}
	Increase(dirCounter, matchID, kick.player, 1)
	Increase(dirCounter, matchID, kick.team, 1)

	Increase(&c.packingSum, matchID, kick.player, int64(kick.numPlayersNearerToGoal))
	Increase(&c.packingSum, matchID, kick.team, int64(kick.numPlayersNearerToGoal))
}
