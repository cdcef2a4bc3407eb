package streamteam

// KickoffConfig holds the §4.12 kickoff-detection thresholds.
type KickoffConfig struct {
	BallID                  string
	MaxBallMidpointDist     float64
	MinPlayerMidlineDist    float64
	MinTimeBetweenKickoffs  int64
	TeamSize                int
}

// KickoffDetector implements spec.md §4.12's kickoff detection: a kickoff
// is only valid when the midcircle, left half and right half are each
// occupied by at most one team and the resulting counts don't exceed a
// full team's size.
type KickoffDetector struct {
	cfg        KickoffConfig
	possession *PossessionDuelDetector

	lastKickoffTs SingleValueStore[int64]
}

// NewKickoffDetector constructs the detector.
func NewKickoffDetector(cfg KickoffConfig, possession *PossessionDuelDetector, backend KVBackend) *KickoffDetector {
	return &KickoffDetector{
		cfg:        cfg,
		possession: possession,

		lastKickoffTs: *NewSingleValueStore[int64]("kickoff.lastTs", Static, backend),
	}
}

func (d *KickoffDetector) Name() string { return "kickoffDetector" }

// Process implements Processor over the ball's fieldObjectState stream.
func (d *KickoffDetector) Process(matchID string, e Element) ([]Element, error) {
	ballPos, ok := e.Position()
	if !ok {
		return nil, NewElementError(d.Name(), e.StreamName(), e.Key(), errNoPosition)
	}
	if ballPos.DistanceXY(Vector3{}) >= d.cfg.MaxBallMidpointDist {
		return nil, nil
	}

	ts := e.Timestamp()
	lastTs, seen := d.lastKickoffTs.GetAt(matchID, "all")
	if seen && ts >= lastTs && ts-lastTs < d.cfg.MinTimeBetweenKickoffs {
		return nil, nil
	}

	midcircle := map[string]int{}
	left := map[string]int{}
	right := map[string]int{}
	var nearestInMidcircle string
	nearestDist := -1.0

	for _, playerID := range d.possession.RosterOf(matchID) {
		pos, ok := d.possession.PositionOf(matchID, playerID)
		if !ok {
			continue
		}
		team, _ := d.possession.TeamOf(matchID, playerID)

		if pos.DistanceXY(Vector3{}) < d.cfg.MaxBallMidpointDist {
			midcircle[team]++
			dist := pos.DistanceXY(ballPos)
			if nearestDist < 0 || dist < nearestDist {
				nearestDist = dist
				nearestInMidcircle = playerID
			}
			continue
		}

		if pos.X < -d.cfg.MinPlayerMidlineDist {
			left[team]++
		} else if pos.X > d.cfg.MinPlayerMidlineDist {
			right[team]++
		}
	}

	if len(midcircle) == 0 || nearestInMidcircle == "" {
		return nil, nil
	}
	if !singleTeamWithinLimit(midcircle, d.cfg.TeamSize) ||
		!singleTeamWithinLimit(left, d.cfg.TeamSize) ||
		!singleTeamWithinLimit(right, d.cfg.TeamSize) {
		return nil, nil
	}

	leftTeam := onlyKey(left)
	rightTeam := onlyKey(right)
	if leftTeam == "" || rightTeam == "" {
		return nil, nil
	}

	d.lastKickoffTs.PutAt(matchID, "all", ts)
	d.possession.SetLeftTeam(matchID, leftTeam)

	payload := NewPayloadBuilder().
		WithString("leftTeamId", leftTeam).
		WithString("rightTeamId", rightTeam).
		Build()
	event := NewElementBuilder(StreamKickoffEvent, CategoryEvent, matchID, ts).
		WithObjectIDs(nearestInMidcircle).
		WithPositions(ballPos).
		WithPayload(payload).
		Build()
	return []Element{event}, nil
}

// singleTeamWithinLimit reports whether counts names at most one team and
// that team's count never exceeds teamSize.
func singleTeamWithinLimit(counts map[string]int, teamSize int) bool {
	if len(counts) > 1 {
		return false
	}
	for _, n := range counts {
		if n > teamSize {
			return false
		}
	}
	return true
}

// onlyKey returns the sole key of a single-entry map, or "" otherwise.
func onlyKey(m map[string]int) string {
	if len(m) != 1 {
		return ""
	}
	for k := range m {
		return k
	}
	return ""
}
