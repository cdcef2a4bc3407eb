package streamteam

// GoalPosition returns the attacking-goal position for teamID: a team
// attacks the +fieldLength/2 end if it is the left team, the -fieldLength/2
// end otherwise. Goals sit on the pitch centerline (y=0, z=0).
func GoalPosition(teamID, leftTeamID string, fieldLength float64) Vector3 {
	if teamID == leftTeamID {
		return Vector3{X: fieldLength / 2}
	}
	return Vector3{X: -fieldLength / 2}
}

// PlayerLookup resolves the team and position the packing calculation
// needs for an arbitrary player id. PossessionDuelDetector implements this
// over its own roster/position stores.
type PlayerLookup interface {
	TeamOf(matchID, playerID string) (string, bool)
	PositionOf(matchID, playerID string) (Vector3, bool)
	RosterOf(matchID string) []string
}

// Packing counts the opposing-team players strictly closer to
// possessionTeam's attacking goal than refPos — the reference point of a
// pass, kick or possession change.
func Packing(matchID string, lookup PlayerLookup, possessionTeam, leftTeamID string, fieldLength float64, refPos Vector3) int {
	goal := GoalPosition(possessionTeam, leftTeamID, fieldLength)
	refDist := refPos.Distance(goal)

	count := 0
	for _, id := range lookup.RosterOf(matchID) {
		team, ok := lookup.TeamOf(matchID, id)
		if !ok || team == possessionTeam {
			continue
		}
		pos, ok := lookup.PositionOf(matchID, id)
		if !ok {
			continue
		}
		if pos.Distance(goal) < refDist {
			count++
		}
	}
	return count
}
