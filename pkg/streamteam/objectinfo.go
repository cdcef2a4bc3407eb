package streamteam

// ObjectInfo is a snapshot of a single tracked object (player or ball):
// identity, team membership, and optionally its current position and
// velocity.
type ObjectInfo struct {
	ObjectID      string
	GroupID       string
	Position      *Vector3
	Velocity      *Vector3
	VelocityAbs   *float64
	HasPosition   bool
	HasVelocity   bool
}

// GroupInfo is a snapshot of a team: just its identity, used where a
// detector aggregates at team granularity rather than player granularity.
type GroupInfo struct {
	GroupID string
}

// StatisticsItem is anything per-player or per-team statistics are keyed
// by: a player (via ObjectInfo) or a team (via GroupInfo). Both project to
// a single inner-key string used to address SingleValueStore/HistoryStore
// entries.
type StatisticsItem interface {
	InnerKey() string
}

// InnerKey implements StatisticsItem.
func (o ObjectInfo) InnerKey() string { return o.ObjectID }

// InnerKey implements StatisticsItem.
func (g GroupInfo) InnerKey() string { return g.GroupID }

// NewObjectInfo builds an ObjectInfo with position and velocity known.
func NewObjectInfo(objectID, groupID string, position, velocity Vector3) ObjectInfo {
	vAbs := velocity.Norm()
	return ObjectInfo{
		ObjectID:    objectID,
		GroupID:     groupID,
		Position:    &position,
		Velocity:    &velocity,
		VelocityAbs: &vAbs,
		HasPosition: true,
		HasVelocity: true,
	}
}

// NewBareObjectInfo builds an ObjectInfo with only identity known, for
// elements that carry no position (e.g. a statistics-only event).
func NewBareObjectInfo(objectID, groupID string) ObjectInfo {
	return ObjectInfo{ObjectID: objectID, GroupID: groupID}
}
