package streamteam

// Stream names. An element's stream name fully determines its payload
// schema (spec.md §3); these constants are the single source of truth for
// that naming so detectors and their tests never repeat string literals
// that could drift apart.
const (
	StreamRawPosition    = "rawPosition"
	StreamFieldObjectState = "fieldObjectState"

	StreamBallPossessionChangeEvent = "ballPossessionChangeEvent"
	StreamDuelEvent                 = "duelEvent"

	StreamKickEvent           = "kickEvent"
	StreamSuccessfulPassEvent = "successfulPassEvent"
	StreamInterceptionEvent   = "interceptionEvent"
	StreamMisplacedPassEvent  = "misplacedPassEvent"
	StreamClearanceEvent      = "clearanceEvent"
	StreamGoalEvent           = "goalEvent"
	StreamShotOffTargetEvent  = "shotOffTargetEvent"
	StreamPassStatistics      = "passStatistics"
	StreamShotStatistics      = "shotStatistics"

	StreamPassSequenceEvent      = "passSequenceEvent"
	StreamDoublePassEvent        = "doublePassEvent"
	StreamPassSequenceStatistics = "passSequenceStatistics"

	StreamSpeedLevelChangeEvent = "speedLevelChangeEvent"
	StreamSpeedLevelStatistics  = "speedLevelStatistics"
	StreamDribblingEvent        = "dribblingEvent"
	StreamDribblingStatistics   = "dribblingStatistics"

	StreamKickoffEvent     = "kickoffEvent"
	StreamOffsideLineState = "offsideLineState"

	StreamAreaEvent = "areaEvent"

	StreamSetPlayEvent      = "setPlayEvent"
	StreamSetPlayStatistics = "setPlayStatistics"
	StreamPenaltyAwardedEvent = "penaltyAwardedEvent"

	StreamHeatmapStatistics = "heatmapStatistics"
	StreamInternalActiveKeys = "internalActiveKeys"

	StreamTeamAreaState = "teamAreaState"
)

// Non-atomic phase detail: area-entry/exit direction categories used by
// the area detector, and the goal-frame sub-areas the pass-and-shot
// classifier reasons about.
const (
	AreaLeftGoal    = "leftGoal"
	AreaRightGoal   = "rightGoal"
	AreaLeftTouch   = "leftTouch"
	AreaRightTouch  = "rightTouch"

	AreaSlightlyAboveLeftGoal  = "slightlyAboveLeftGoal"
	AreaSlightlyBelowLeftGoal  = "slightlyBelowLeftGoal"
	AreaSlightlyAboveRightGoal = "slightlyAboveRightGoal"
	AreaSlightlyBelowRightGoal = "slightlyBelowRightGoal"
)

// DirectionCategory classifies a pass/shot's angle relative to the
// kicking team's playing direction.
type DirectionCategory string

const (
	DirectionForward  DirectionCategory = "FORWARD"
	DirectionBackward DirectionCategory = "BACKWARD"
	DirectionLeft     DirectionCategory = "LEFT"
	DirectionRight    DirectionCategory = "RIGHT"
)

// Zone classifies the third of the field a kick was taken from.
type Zone string

const (
	ZoneLeft    Zone = "left"
	ZoneCenter  Zone = "center"
	ZoneRight   Zone = "right"
	ZoneOutside Zone = "outside"
)

// SetPlayType enumerates the restarts the set-play detector recognizes.
type SetPlayType string

const (
	SetPlayThrowIn    SetPlayType = "THROW_IN"
	SetPlayCornerKick SetPlayType = "CORNER_KICK"
	SetPlayGoalKick   SetPlayType = "GOAL_KICK"
	SetPlayPenalty    SetPlayType = "PENALTY"
)
