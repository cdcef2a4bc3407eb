package streamteam

import "fmt"

// DribblingConfig holds the §4.11 speed-level and dribbling thresholds.
type DribblingConfig struct {
	SpeedLevelThresholds  []float64
	DribblingSpeedThreshold float64
	DribblingTimeThreshold  int64
}

// DribblingSpeedDetector implements spec.md §4.11: it buckets each player's
// speed into a configured level, reports level transitions, and runs the
// dribbling state machine gated by ball possession.
type DribblingSpeedDetector struct {
	cfg        DribblingConfig
	possession *PossessionDuelDetector

	speedLevel           SingleValueStore[int64]
	lastSpeedChangeTs    SingleValueStore[int64]
	hasSpeedObservation  SingleValueStore[bool]
	timeAtLevel          SingleValueStore[int64] // keyed "<inner>:<level>"

	waitingSince      SingleValueStore[int64]
	dribbleActive     SingleValueStore[bool]
	dribbleEventID    SingleValueStore[string]
	dribbleCounter    SingleValueStore[int64]
	dribbleStartTs    SingleValueStore[int64]
	dribbleStartPos   SingleValueStore[Vector3]
	dribbleLength     SingleValueStore[float64]
	dribbleLastPos    SingleValueStore[Vector3]
	dribbleDribblerID SingleValueStore[string]

	numDribblings    SingleValueStore[int64]
	sumDribbleLength SingleValueStore[float64]
}

// NewDribblingSpeedDetector constructs the detector.
func NewDribblingSpeedDetector(cfg DribblingConfig, possession *PossessionDuelDetector, backend KVBackend) *DribblingSpeedDetector {
	return &DribblingSpeedDetector{
		cfg:        cfg,
		possession: possession,

		speedLevel:          *NewSingleValueStore[int64]("dribbling.speedLevel", No, backend),
		lastSpeedChangeTs:   *NewSingleValueStore[int64]("dribbling.lastSpeedChangeTs", No, backend),
		hasSpeedObservation: *NewSingleValueStore[bool]("dribbling.hasSpeedObservation", No, backend),
		timeAtLevel:         *NewSingleValueStore[int64]("dribbling.timeAtLevel", No, backend),

		waitingSince:    *NewSingleValueStore[int64]("dribbling.waitingSince", Static, backend),
		dribbleActive:   *NewSingleValueStore[bool]("dribbling.active", Static, backend),
		dribbleEventID:  *NewSingleValueStore[string]("dribbling.eventID", Static, backend),
		dribbleCounter:  *NewSingleValueStore[int64]("dribbling.counter", Static, backend),
		dribbleStartTs:  *NewSingleValueStore[int64]("dribbling.startTs", Static, backend),
		dribbleStartPos: *NewSingleValueStore[Vector3]("dribbling.startPos", Static, backend),
		dribbleLength:   *NewSingleValueStore[float64]("dribbling.length", Static, backend),
		dribbleLastPos:  *NewSingleValueStore[Vector3]("dribbling.lastPos", Static, backend),
		dribbleDribblerID: *NewSingleValueStore[string]("dribbling.dribblerID", Static, backend),

		numDribblings:    *NewSingleValueStore[int64]("dribbling.numDribblings", No, backend),
		sumDribbleLength: *NewSingleValueStore[float64]("dribbling.sumDribbleLength", No, backend),
	}
}

func (d *DribblingSpeedDetector) Name() string { return "dribblingSpeedDetector" }

func (d *DribblingSpeedDetector) levelOf(vabs float64) int64 {
	for i, threshold := range d.cfg.SpeedLevelThresholds {
		if vabs < threshold {
			return int64(i)
		}
	}
	return int64(len(d.cfg.SpeedLevelThresholds))
}

// Process implements Processor over the player fieldObjectState stream.
func (d *DribblingSpeedDetector) Process(matchID string, e Element) ([]Element, error) {
	playerID := e.ObjectID()
	if playerID == "" {
		return nil, NewElementError(d.Name(), e.StreamName(), e.Key(), fmt.Errorf("player sample carries no object id"))
	}
	teamID := e.GroupID()
	pos, ok := e.Position()
	if !ok {
		return nil, NewElementError(d.Name(), e.StreamName(), e.Key(), errNoPosition)
	}
	vabs, _ := e.Payload().Double("velocityAbs")
	ts := e.Timestamp()

	var out []Element
	out = append(out, d.processSpeedLevel(matchID, playerID, teamID, ts, vabs)...)
	out = append(out, d.processDribbling(matchID, playerID, teamID, ts, pos, vabs)...)
	return out, nil
}

func (d *DribblingSpeedDetector) processSpeedLevel(matchID, playerID, teamID string, ts int64, vabs float64) []Element {
	level := d.levelOf(vabs)
	previous := d.speedLevel.GetOrZero(matchID, playerID)
	hadObservation := d.hasSpeedObservation.GetOrZero(matchID, playerID)

	if !hadObservation {
		d.speedLevel.PutAt(matchID, playerID, level)
		d.lastSpeedChangeTs.PutAt(matchID, playerID, ts)
		d.hasSpeedObservation.PutAt(matchID, playerID, true)
		return nil
	}
	if level == previous {
		return nil
	}

	lastChangeTs := d.lastSpeedChangeTs.GetOrZero(matchID, playerID)
	elapsed := ts - lastChangeTs

	Increase(&d.timeAtLevel, matchID, speedLevelKey(playerID, previous), elapsed)
	Increase(&d.timeAtLevel, matchID, speedLevelKey(teamID, previous), elapsed)

	d.speedLevel.PutAt(matchID, playerID, level)
	d.lastSpeedChangeTs.PutAt(matchID, playerID, ts)

	changeEvent := NewElementBuilder(StreamSpeedLevelChangeEvent, CategoryEvent, matchID, ts).
		WithObjectIDs(playerID).
		WithGroupIDs(teamID).
		WithPayload(NewPayloadBuilder().WithLong("speedLevel", level).Build()).
		Build()

	playerStats := d.buildSpeedStatistics(matchID, playerID, ts)
	teamStats := d.buildSpeedStatistics(matchID, teamID, ts)
	return []Element{changeEvent, playerStats, teamStats}
}

func (d *DribblingSpeedDetector) buildSpeedStatistics(matchID, inner string, ts int64) Element {
	b := NewPayloadBuilder()
	for level := 0; level <= len(d.cfg.SpeedLevelThresholds); level++ {
		b = b.WithLong(fmt.Sprintf("timeAtLevel%d", level), d.timeAtLevel.GetOrZero(matchID, speedLevelKey(inner, int64(level))))
	}
	return NewElementBuilder(StreamSpeedLevelStatistics, CategoryStatistics, matchID, ts).
		WithObjectIDs(inner).
		WithPayload(b.Build()).
		Build()
}

func speedLevelKey(inner string, level int64) string {
	return fmt.Sprintf("%s:%d", inner, level)
}

func (d *DribblingSpeedDetector) processDribbling(matchID, playerID, teamID string, ts int64, pos Vector3, vabs float64) []Element {
	holder := d.possession.playerInPossession.GetOrZero(matchID, "all")
	active := d.dribbleActive.GetOrZero(matchID, "all")

	if active {
		currentDribbler := d.dribblerID(matchID)
		if currentDribbler != holder && currentDribbler == playerID {
			return d.endDribbling(matchID, currentDribbler, teamID, ts)
		}
	}

	if playerID != holder {
		return nil
	}

	if !active {
		if vabs >= d.cfg.DribblingSpeedThreshold {
			since := d.waitingSince.GetOrZero(matchID, "all")
			if since == 0 {
				d.waitingSince.PutAt(matchID, "all", ts)
				return nil
			}
			if ts-since > d.cfg.DribblingTimeThreshold {
				return d.startDribbling(matchID, playerID, teamID, ts, pos)
			}
			return nil
		}
		d.waitingSince.PutAt(matchID, "all", 0)
		return nil
	}

	if vabs < d.cfg.DribblingSpeedThreshold {
		return d.endDribbling(matchID, playerID, teamID, ts)
	}

	last := d.dribbleLastPos.GetOrZero(matchID, "all")
	segment := pos.DistanceXY(last)
	length := d.dribbleLength.GetOrZero(matchID, "all") + segment
	d.dribbleLength.PutAt(matchID, "all", length)
	d.dribbleLastPos.PutAt(matchID, "all", pos)

	startTs := d.dribbleStartTs.GetOrZero(matchID, "all")
	duration := ts - startTs
	eventID := d.dribbleEventID.GetOrZero(matchID, "all")
	counter := d.dribbleCounter.GetOrZero(matchID, "all")

	activeEvent := d.buildDribblingEvent(matchID, ts, playerID, teamID, PhaseActive, eventID, counter, length, duration)
	return []Element{activeEvent}
}

// dribblerID returns whose dribbling episode is active: since only one
// dribbling episode runs at a time per match, the detector stores the id of
// the player who started it in its own single-value store, alongside the
// episode's other context fields.
func (d *DribblingSpeedDetector) dribblerID(matchID string) string {
	v, _ := d.dribbleDribblerID.GetAt(matchID, "all")
	return v
}

func (d *DribblingSpeedDetector) startDribbling(matchID, playerID, teamID string, ts int64, pos Vector3) []Element {
	id := NewDribblingID()
	counter := Increase(&d.dribbleCounter, matchID, "all", 1)

	d.dribbleActive.PutAt(matchID, "all", true)
	d.dribbleEventID.PutAt(matchID, "all", id)
	d.dribbleStartTs.PutAt(matchID, "all", ts)
	d.dribbleStartPos.PutAt(matchID, "all", pos)
	d.dribbleLastPos.PutAt(matchID, "all", pos)
	d.dribbleLength.PutAt(matchID, "all", 0)
	d.dribbleDribblerID.PutAt(matchID, "all", playerID)
	d.waitingSince.PutAt(matchID, "all", 0)

	return []Element{d.buildDribblingEvent(matchID, ts, playerID, teamID, PhaseStart, id, counter, 0, 0)}
}

func (d *DribblingSpeedDetector) endDribbling(matchID, playerID, teamID string, ts int64) []Element {
	id := d.dribbleEventID.GetOrZero(matchID, "all")
	counter := d.dribbleCounter.GetOrZero(matchID, "all")
	length := d.dribbleLength.GetOrZero(matchID, "all")
	startTs := d.dribbleStartTs.GetOrZero(matchID, "all")
	duration := ts - startTs

	Increase(&d.numDribblings, matchID, playerID, 1)
	Increase(&d.numDribblings, matchID, teamID, 1)
	Increase(&d.sumDribbleLength, matchID, playerID, length)
	Increase(&d.sumDribbleLength, matchID, teamID, length)

	d.dribbleActive.PutAt(matchID, "all", false)
	d.dribbleEventID.PutAt(matchID, "all", "")
	d.dribbleDribblerID.PutAt(matchID, "all", "")

	end := d.buildDribblingEvent(matchID, ts, playerID, teamID, PhaseEnd, id, counter, length, duration)
	playerStats := d.buildDribblingStatistics(matchID, playerID, ts)
	teamStats := d.buildDribblingStatistics(matchID, teamID, ts)
	return []Element{end, playerStats, teamStats}
}

func (d *DribblingSpeedDetector) buildDribblingEvent(matchID string, ts int64, playerID, teamID string, phase Phase, eventID string, counter int64, length float64, duration int64) Element {
	payload := NewPayloadBuilder().
		WithDouble("length", length).
		WithLong("duration", duration).
		Build()
	return NewElementBuilder(StreamDribblingEvent, CategoryEvent, matchID, ts).
		WithObjectIDs(playerID).
		WithGroupIDs(teamID).
		WithPayload(payload).
		WithNonAtomic(phase, eventID, counter).
		Build()
}

func (d *DribblingSpeedDetector) buildDribblingStatistics(matchID, inner string, ts int64) Element {
	payload := NewPayloadBuilder().
		WithLong("numDribblings", d.numDribblings.GetOrZero(matchID, inner)).
		WithDouble("sumDribbleLength", d.sumDribbleLength.GetOrZero(matchID, inner)).
		Build()
	return NewElementBuilder(StreamDribblingStatistics, CategoryStatistics, matchID, ts).
		WithObjectIDs(inner).
		WithPayload(payload).
		Build()
}
