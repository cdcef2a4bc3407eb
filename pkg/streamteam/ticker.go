package streamteam

import "time"

// Ticker is the trivial WindowProcessor root a worker wires into a
// WindowProcessorGraph to drive periodic rollups (the heatmap sender):
// each tick emits one StreamInternalActiveKeys element carrying no
// payload, the signal the heatmap sender's Process method watches for.
type Ticker struct {
	TickerName string
}

// NewTicker constructs a named ticker root.
func NewTicker(name string) *Ticker {
	return &Ticker{TickerName: name}
}

func (t *Ticker) Name() string { return t.TickerName }

// Window implements WindowProcessor.
func (t *Ticker) Window(matchID string) ([]Element, error) {
	return []Element{
		NewElementBuilder(StreamInternalActiveKeys, CategoryState, matchID, time.Now().UnixMilli()).Build(),
	}, nil
}
