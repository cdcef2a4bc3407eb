package streamteam

import (
	"strconv"
	"strings"
)

// HeatmapConfig holds the §4.14 grid resolution and rollup intervals
// (seconds; 0 means full game).
type HeatmapConfig struct {
	NumXGridCells int
	NumYGridCells int
	Intervals     []int64
}

// HeatmapGrid is a sparse {x -> {y -> count}} occupancy map for one grid
// snapshot or diff, exported so a durable KVBackend's restore wiring can
// name it as the concrete type behind heatmap.lastSecond/history/fullGame.
type HeatmapGrid map[int]map[int]int64

type heatmapGrid = HeatmapGrid

func addToGrid(g heatmapGrid, x, y int, delta int64) {
	row, ok := g[x]
	if !ok {
		row = map[int]int64{}
		g[x] = row
	}
	row[y] += delta
}

func mergeGrid(dst, src heatmapGrid) heatmapGrid {
	if dst == nil {
		dst = heatmapGrid{}
	}
	for x, row := range src {
		for y, v := range row {
			addToGrid(dst, x, y, v)
		}
	}
	return dst
}

func sumGrid(g heatmapGrid) int64 {
	var total int64
	for _, row := range g {
		for _, v := range row {
			total += v
		}
	}
	return total
}

func flattenGrid(g heatmapGrid, numX, numY int) []int64 {
	cells := make([]int64, numX*numY)
	for x, row := range g {
		if x < 0 || x >= numX {
			continue
		}
		for y, v := range row {
			if y < 0 || y >= numY {
				continue
			}
			cells[x*numY+y] = v
		}
	}
	return cells
}

// encodeHeatmapCells run-length-compresses zero runs, e.g. "0x5;3;0x2;1":
// five empty cells, a cell holding 3, two empty cells, a cell holding 1.
func encodeHeatmapCells(cells []int64) string {
	var parts []string
	i := 0
	for i < len(cells) {
		if cells[i] == 0 {
			j := i
			for j < len(cells) && cells[j] == 0 {
				j++
			}
			parts = append(parts, "0x"+strconv.Itoa(j-i))
			i = j
			continue
		}
		parts = append(parts, strconv.FormatInt(cells[i], 10))
		i++
	}
	return strings.Join(parts, ";")
}

// HeatmapConstructor implements §4.14's construction half: it accumulates
// each player's and team's current-second grid occupancy from
// fieldObjectState elements.
type HeatmapConstructor struct {
	cfg HeatmapConfig

	fieldLength SingleValueStore[float64]
	fieldWidth  SingleValueStore[float64]

	lastSecond     SingleValueStore[heatmapGrid]
	lastPositionTs SingleValueStore[int64]

	knownPlayers SingleValueStore[[]string]
	knownTeams   SingleValueStore[[]string]
}

// NewHeatmapConstructor constructs the detector.
func NewHeatmapConstructor(cfg HeatmapConfig, backend KVBackend) *HeatmapConstructor {
	return &HeatmapConstructor{
		cfg: cfg,

		fieldLength: *NewSingleValueStore[float64]("heatmap.fieldLength", Static, backend),
		fieldWidth:  *NewSingleValueStore[float64]("heatmap.fieldWidth", Static, backend),

		lastSecond:     *NewSingleValueStore[heatmapGrid]("heatmap.lastSecond", No, backend),
		lastPositionTs: *NewSingleValueStore[int64]("heatmap.lastPositionTs", No, backend),

		knownPlayers: *NewSingleValueStore[[]string]("heatmap.knownPlayers", Static, backend),
		knownTeams:   *NewSingleValueStore[[]string]("heatmap.knownTeams", Static, backend),
	}
}

func (c *HeatmapConstructor) Name() string { return "heatmapConstructor" }

// SetFieldDimensions lets the worker's configuration/kickoff wiring push
// the match's pitch size in before any sample arrives.
func (c *HeatmapConstructor) SetFieldDimensions(matchID string, length, width float64) {
	c.fieldLength.PutAt(matchID, "all", length)
	c.fieldWidth.PutAt(matchID, "all", width)
}

// Process implements Processor over the player fieldObjectState stream.
func (c *HeatmapConstructor) Process(matchID string, e Element) ([]Element, error) {
	pos, ok := e.Position()
	if !ok {
		return nil, NewElementError(c.Name(), e.StreamName(), e.Key(), errNoPosition)
	}
	playerID := e.ObjectID()
	teamID := e.GroupID()
	ts := e.Timestamp()

	length := c.fieldLength.GetOrZero(matchID, "all")
	width := c.fieldWidth.GetOrZero(matchID, "all")
	if length <= 0 || width <= 0 {
		return nil, nil
	}

	cellX := int((pos.X + length/2) / length * float64(c.cfg.NumXGridCells))
	cellY := int((pos.Y + width/2) / width * float64(c.cfg.NumYGridCells))
	if cellX < 0 || cellX >= c.cfg.NumXGridCells || cellY < 0 || cellY >= c.cfg.NumYGridCells {
		return nil, nil
	}

	c.noteKey(matchID, &c.knownPlayers, playerID)
	if teamID != "" {
		c.noteKey(matchID, &c.knownTeams, teamID)
	}

	playerGrid := c.lastSecond.GetOrZero(matchID, playerID)
	if playerGrid == nil {
		playerGrid = heatmapGrid{}
	}
	addToGrid(playerGrid, cellX, cellY, 1)
	c.lastSecond.PutAt(matchID, playerID, playerGrid)
	c.lastPositionTs.PutAt(matchID, playerID, ts)

	if teamID != "" {
		teamGrid := c.lastSecond.GetOrZero(matchID, teamID)
		if teamGrid == nil {
			teamGrid = heatmapGrid{}
		}
		addToGrid(teamGrid, cellX, cellY, 1)
		c.lastSecond.PutAt(matchID, teamID, teamGrid)
		c.lastPositionTs.PutAt(matchID, teamID, ts)
	}

	return nil, nil
}

func (c *HeatmapConstructor) noteKey(matchID string, store *SingleValueStore[[]string], key string) {
	known := store.GetOrZero(matchID, "all")
	for _, k := range known {
		if k == key {
			return
		}
	}
	store.PutAt(matchID, "all", append(known, key))
}

// HeatmapSender implements §4.14's sender half: on each internalActiveKeys
// window tick it rolls the last second's construction into history and the
// full-game total, then emits one heatmapStatistics element per configured
// interval per tracked key.
type HeatmapSender struct {
	cfg HeatmapConfig

	lastSecond SingleValueStore[heatmapGrid]
	history    HistoryStore[heatmapGrid]
	fullGame   SingleValueStore[heatmapGrid]

	knownPlayers SingleValueStore[[]string]
	knownTeams   SingleValueStore[[]string]
}

// NewHeatmapSender constructs the sender, sharing the constructor's
// per-match state by using the same store names over the same backend.
func NewHeatmapSender(cfg HeatmapConfig, backend KVBackend) *HeatmapSender {
	capacity := 1
	for _, interval := range cfg.Intervals {
		if int(interval) > capacity {
			capacity = int(interval)
		}
	}
	return &HeatmapSender{
		cfg: cfg,

		lastSecond: *NewSingleValueStore[heatmapGrid]("heatmap.lastSecond", No, backend),
		history:    *NewHistoryStore[heatmapGrid]("heatmap.history", capacity, No, backend),
		fullGame:   *NewSingleValueStore[heatmapGrid]("heatmap.fullGame", No, backend),

		knownPlayers: *NewSingleValueStore[[]string]("heatmap.knownPlayers", Static, backend),
		knownTeams:   *NewSingleValueStore[[]string]("heatmap.knownTeams", Static, backend),
	}
}

func (s *HeatmapSender) Name() string { return "heatmapSender" }

// Process implements Processor over the internalActiveKeys stream.
func (s *HeatmapSender) Process(matchID string, e Element) ([]Element, error) {
	if e.StreamName() != StreamInternalActiveKeys {
		return nil, nil
	}
	ts := e.Timestamp()

	var out []Element
	for _, key := range s.knownPlayers.GetOrZero(matchID, "all") {
		out = append(out, s.roll(matchID, key, ts)...)
	}
	for _, key := range s.knownTeams.GetOrZero(matchID, "all") {
		out = append(out, s.roll(matchID, key, ts)...)
	}
	return out, nil
}

func (s *HeatmapSender) roll(matchID, key string, ts int64) []Element {
	diff := s.lastSecond.GetOrZero(matchID, key)
	if diff == nil {
		diff = heatmapGrid{}
	}
	s.history.AddAt(matchID, key, diff)
	s.fullGame.PutAt(matchID, key, mergeGrid(s.fullGame.GetOrZero(matchID, key), diff))
	s.lastSecond.PutAt(matchID, key, heatmapGrid{})

	var out []Element
	for _, interval := range s.cfg.Intervals {
		total := s.totalFor(matchID, key, interval)
		out = append(out, s.buildStatistics(matchID, key, ts, interval, total))
	}
	return out
}

func (s *HeatmapSender) totalFor(matchID, key string, interval int64) heatmapGrid {
	if interval == 0 {
		return s.fullGame.GetOrZero(matchID, key)
	}
	list := s.history.GetListAt(matchID, key)
	n := int(interval)
	if n > len(list) {
		n = len(list)
	}
	total := heatmapGrid{}
	for _, diff := range list[:n] {
		total = mergeGrid(total, diff)
	}
	return total
}

func (s *HeatmapSender) buildStatistics(matchID, key string, ts int64, interval int64, total heatmapGrid) Element {
	cells := flattenGrid(total, s.cfg.NumXGridCells, s.cfg.NumYGridCells)
	payload := NewPayloadBuilder().
		WithLong("numXGridCells", int64(s.cfg.NumXGridCells)).
		WithLong("numYGridCells", int64(s.cfg.NumYGridCells)).
		WithLong("interval", interval).
		WithLong("total", sumGrid(total)).
		WithString("cells", encodeHeatmapCells(cells)).
		Build()
	return NewElementBuilder(StreamHeatmapStatistics, CategoryStatistics, matchID, ts).
		WithObjectIDs(key).
		WithPayload(payload).
		Build()
}
