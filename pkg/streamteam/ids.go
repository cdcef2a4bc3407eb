package streamteam

import "go.jetify.com/typeid"

// newEpisodeID mints the event-identifier inner-key used to group a
// non-atomic episode's START/ACTIVE*/END elements (a duel, a dribbling run,
// a set-play restart). Mirrors the teacher's
// tag-based TypeID generation: a short, readable prefix plus a sortable
// UUID suffix, so episode ids are both unique and self-describing in logs.
func newEpisodeID(prefix string) string {
	tid, err := typeid.WithPrefix(prefix)
	if err != nil {
		// WithPrefix only fails on an invalid prefix; every call site here
		// passes one of a small set of compile-time-constant, valid
		// prefixes, so fall back to the generic "episode" prefix rather than
		// propagate a startup-only failure mode into element processing.
		tid, _ = typeid.WithPrefix("episode")
	}
	return tid.String()
}

// NewDuelID mints a fresh duel episode id.
func NewDuelID() string { return newEpisodeID("duel") }

// NewDribblingID mints a fresh dribbling episode id.
func NewDribblingID() string { return newEpisodeID("dribbling") }

// NewSetPlayID mints a fresh set-play episode id.
func NewSetPlayID() string { return newEpisodeID("setplay") }
