// Command worker is the reference launcher spec.md §6 asks for: it parses
// a global properties file (and an optional per-worker override), wires
// the full stream-team processor graph, exposes the admin/control gRPC
// surface, reads raw position samples as NDJSON on stdin, writes derived
// elements as NDJSON on stdout, and drains cleanly on SIGTERM/SIGINT.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log"
	"net"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"soccerstream/internal/config"
	"soccerstream/internal/mirror"
	"soccerstream/internal/transport"
	"soccerstream/pkg/streamteam"
)

func init() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
}

func main() {
	configPath := flag.String("config", "", "path to the global properties file (required)")
	workerConfigPath := flag.String("worker-config", "", "path to an optional per-worker override properties file")
	listenAddr := flag.String("listen", ":50051", "gRPC admin/control surface listen address")
	flag.Parse()

	if *configPath == "" {
		log.Fatal("worker: --config is required")
	}

	cfg, err := config.Load(*configPath, *workerConfigPath)
	if err != nil {
		log.Fatalf("worker: %v", err)
	}

	backend, closeBackend, err := buildBackend(cfg)
	if err != nil {
		log.Fatalf("worker: %v", err)
	}
	defer closeBackend()

	w, err := buildWorker(cfg, backend)
	if err != nil {
		log.Fatalf("worker: %v", err)
	}

	lis, err := net.Listen("tcp", *listenAddr)
	if err != nil {
		log.Fatalf("worker: listen on %s: %v", *listenAddr, err)
	}
	grpcSrv := transport.New(w)
	go func() {
		if err := grpcSrv.Serve(lis); err != nil {
			log.Printf("worker: grpc server stopped: %v", err)
		}
	}()
	log.Printf("worker: admin surface listening on %s", *listenAddr)

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGTERM, syscall.SIGINT)

	inputDone := make(chan struct{})
	go w.runStdinLoop(inputDone)

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

loop:
	for {
		select {
		case sig := <-stop:
			log.Printf("worker: received %v, draining", sig)
			break loop
		case <-inputDone:
			log.Print("worker: input closed, draining")
			break loop
		case <-ticker.C:
			for _, matchID := range w.matches.snapshot() {
				w.windowGraph.Tick(matchID)
			}
		}
	}

	grpcSrv.GracefulStop()
	log.Print("worker: shutdown complete")
}

// buildBackend resolves the worker's KVBackend: an in-memory backend by
// default, or the durable Postgres-backed mirror when mirror.postgresDSN
// is configured. It only connects and ensures the mirror's schema; each
// match's state is restored later, when setupMatch first sees that match.
func buildBackend(cfg *config.Config) (streamteam.KVBackend, func(), error) {
	dsn := cfg.GetString("mirror.postgresDSN", "")
	if dsn == "" {
		return streamteam.NewMemoryBackend(), func() {}, nil
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, nil, fmt.Errorf("worker: connect to mirror database: %w", err)
	}

	backend := mirror.New(pool)
	if err := backend.EnsureSchema(ctx); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("worker: ensure mirror schema: %w", err)
	}
	return backend, pool.Close, nil
}

// matchRegistry tracks which match ids have produced at least one
// element, so the window graph's once-a-second tick only visits matches
// actually in flight.
type matchRegistry struct {
	mu sync.Mutex
	ids map[string]struct{}
}

func newMatchRegistry() *matchRegistry {
	return &matchRegistry{ids: map[string]struct{}{}}
}

// note records matchID as seen and reports whether this is the first
// time, so the worker can run once-per-match setup (pitch dimensions,
// left/right team assignment) exactly once.
func (r *matchRegistry) note(matchID string) (isNew bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.ids[matchID]; ok {
		return false
	}
	r.ids[matchID] = struct{}{}
	return true
}

func (r *matchRegistry) snapshot() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.ids))
	for id := range r.ids {
		out = append(out, id)
	}
	return out
}

// worker bundles the wired processor graph plus whatever state the
// admin surface's DescribeMatchState RPC reads.
type worker struct {
	graph       *streamteam.Graph
	windowGraph *streamteam.WindowGraph
	matches     *matchRegistry
	possession  *streamteam.PossessionDuelDetector
	backend     streamteam.KVBackend

	fieldLength float64
	fieldWidth  float64
	leftTeam    string

	heatmapConstructor *streamteam.HeatmapConstructor
}

// setupMatch pushes the deployment's fixed pitch configuration into every
// detector that needs it resolved before its first element, the same
// "resolved once per match" contract fieldobject.go's MatchMetaProvider
// documents for renames/scaling. When the worker runs over the durable
// mirror it restores the match's prior state from the change log first,
// so a restart resumes rather than resets a match in flight.
func (w *worker) setupMatch(matchID string) {
	if durable, ok := w.backend.(*mirror.Backend); ok {
		if err := durable.Restore(context.Background(), matchID, mirrorDecoders()); err != nil {
			log.Printf("worker: restore match %s from mirror: %v", matchID, err)
		}
	}

	w.possession.SetFieldLength(matchID, w.fieldLength)
	w.possession.SetBallInField(matchID, true)
	if w.leftTeam != "" {
		w.possession.SetLeftTeam(matchID, w.leftTeam)
	}
	w.heatmapConstructor.SetFieldDimensions(matchID, w.fieldLength, w.fieldWidth)
}

// mirrorDecoders enumerates every store name this worker's detectors write,
// paired with the Decoder that reconstructs its concrete Go type from the
// mirror's JSON change log.
//
// passSequence.history is deliberately absent: its HistoryStore element
// type, successfulPass, has only unexported fields, so encoding/json can
// neither marshal nor unmarshal it and the pass-chain state it carries
// cannot be restored across a restart.
func mirrorDecoders() map[string]mirror.Decoder {
	return map[string]mirror.Decoder{
		"area.inArea": mirror.DecodeValue[bool](),

		"dribbling.speedLevel":          mirror.DecodeValue[int64](),
		"dribbling.lastSpeedChangeTs":   mirror.DecodeValue[int64](),
		"dribbling.hasSpeedObservation": mirror.DecodeValue[bool](),
		"dribbling.timeAtLevel":         mirror.DecodeValue[int64](),
		"dribbling.waitingSince":        mirror.DecodeValue[int64](),
		"dribbling.active":              mirror.DecodeValue[bool](),
		"dribbling.eventID":             mirror.DecodeValue[string](),
		"dribbling.counter":             mirror.DecodeValue[int64](),
		"dribbling.startTs":             mirror.DecodeValue[int64](),
		"dribbling.startPos":            mirror.DecodeValue[streamteam.Vector3](),
		"dribbling.length":              mirror.DecodeValue[float64](),
		"dribbling.lastPos":             mirror.DecodeValue[streamteam.Vector3](),
		"dribbling.dribblerID":          mirror.DecodeValue[string](),
		"dribbling.numDribblings":       mirror.DecodeValue[int64](),
		"dribbling.sumDribbleLength":    mirror.DecodeValue[float64](),

		"fieldObjectGen.positions":  mirror.DecodeValue[[]streamteam.Vector3](),
		"fieldObjectGen.timestamps": mirror.DecodeValue[[]int64](),

		"heatmap.fieldLength":     mirror.DecodeValue[float64](),
		"heatmap.fieldWidth":      mirror.DecodeValue[float64](),
		"heatmap.lastSecond":      mirror.DecodeValue[streamteam.HeatmapGrid](),
		"heatmap.lastPositionTs":  mirror.DecodeValue[int64](),
		"heatmap.knownPlayers":    mirror.DecodeValue[[]string](),
		"heatmap.knownTeams":      mirror.DecodeValue[[]string](),
		"heatmap.history":         mirror.DecodeValue[[]streamteam.HeatmapGrid](),
		"heatmap.fullGame":        mirror.DecodeValue[streamteam.HeatmapGrid](),

		"kick.active":                  mirror.DecodeValue[bool](),
		"kick.player":                  mirror.DecodeValue[string](),
		"kick.team":                    mirror.DecodeValue[string](),
		"kick.pos":                     mirror.DecodeValue[streamteam.Vector3](),
		"kick.ts":                      mirror.DecodeValue[int64](),
		"kick.numPlayersNearerToGoal":  mirror.DecodeValue[int64](),
		"kick.zone":                    mirror.DecodeValue[string](),
		"kick.attacked":                mirror.DecodeValue[bool](),
		"kick.lastUsedTs":              mirror.DecodeValue[int64](),

		"kickoff.lastTs": mirror.DecodeValue[int64](),

		"offside.nullEmitted": mirror.DecodeValue[bool](),

		"passSequence.lastBreak":                mirror.DecodeValue[[]int64](),
		"passSequence.numPassSequences":          mirror.DecodeValue[int64](),
		"passSequence.sumPassSequenceLength":     mirror.DecodeValue[int64](),
		"passSequence.maxPassSequenceLength":     mirror.DecodeValue[int64](),
		"passSequence.numDoublePasses":           mirror.DecodeValue[int64](),
		"passSequence.firstTsOfLastSequence":     mirror.DecodeValue[int64](),

		"passShot.numSuccessfulPasses": mirror.DecodeValue[int64](),
		"passShot.numInterceptions":    mirror.DecodeValue[int64](),
		"passShot.numMisplacedPasses":  mirror.DecodeValue[int64](),
		"passShot.numClearances":       mirror.DecodeValue[int64](),
		"passShot.numGoals":            mirror.DecodeValue[int64](),
		"passShot.numShotsOffTarget":   mirror.DecodeValue[int64](),
		"passShot.numForward":          mirror.DecodeValue[int64](),
		"passShot.numBackward":         mirror.DecodeValue[int64](),
		"passShot.numLeftward":         mirror.DecodeValue[int64](),
		"passShot.numRightward":        mirror.DecodeValue[int64](),
		"passShot.packingSum":          mirror.DecodeValue[int64](),

		"possession.ballPositions":     mirror.DecodeValue[[]streamteam.Vector3](),
		"possession.ballVabs":          mirror.DecodeValue[[]float64](),
		"possession.ballInField":       mirror.DecodeValue[bool](),
		"possession.fieldLength":       mirror.DecodeValue[float64](),
		"possession.leftTeam":          mirror.DecodeValue[string](),
		"possession.playerPosition":    mirror.DecodeValue[streamteam.Vector3](),
		"possession.playerTeam":        mirror.DecodeValue[string](),
		"possession.roster":            mirror.DecodeValue[[]string](),
		"possession.playerInPossession": mirror.DecodeValue[string](),
		"possession.teamInPossession":  mirror.DecodeValue[string](),
		"possession.duelActive":        mirror.DecodeValue[bool](),
		"possession.duelDefender":      mirror.DecodeValue[string](),
		"possession.duelAttacker":      mirror.DecodeValue[string](),
		"possession.duelEventID":       mirror.DecodeValue[string](),
		"possession.duelCounter":       mirror.DecodeValue[int64](),

		"setPlay.pendingType":  mirror.DecodeValue[string](),
		"setPlay.pendingTeam":  mirror.DecodeValue[string](),
		"setPlay.pendingPos":   mirror.DecodeValue[streamteam.Vector3](),
		"setPlay.pendingSince": mirror.DecodeValue[int64](),
		"setPlay.activeType":   mirror.DecodeValue[string](),
		"setPlay.activeTeam":   mirror.DecodeValue[string](),
		"setPlay.activePos":    mirror.DecodeValue[streamteam.Vector3](),
		"setPlay.activeEventID": mirror.DecodeValue[string](),
		"setPlay.activeCounter": mirror.DecodeValue[int64](),
		"setPlay.numThrowIns":    mirror.DecodeValue[int64](),
		"setPlay.numCornerKicks": mirror.DecodeValue[int64](),
		"setPlay.numGoalKicks":   mirror.DecodeValue[int64](),
		"setPlay.numPenalties":   mirror.DecodeValue[int64](),

		"teamArea.ballPositions":   mirror.DecodeValue[[]streamteam.Vector3](),
		"teamArea.ballTs":          mirror.DecodeValue[[]int64](),
		"teamArea.ballVelocity":    mirror.DecodeValue[streamteam.Vector3](),
		"teamArea.playerVelocity":  mirror.DecodeValue[streamteam.Vector3](),
		"teamArea.lastBoundingArea": mirror.DecodeValue[float64](),
		"teamArea.lastHullArea":    mirror.DecodeValue[float64](),
		"teamArea.pressingIndex":   mirror.DecodeValue[float64](),
	}
}

// DescribeMatchState implements transport.MatchStateProvider by reporting
// whichever possession state the worker's possession detector tracks for
// matchID.
func (w *worker) DescribeMatchState(matchID string) (map[string]any, bool) {
	roster := w.possession.RosterOf(matchID)
	if len(roster) == 0 {
		return nil, false
	}
	return map[string]any{
		"roster": roster,
	}, true
}

// runStdinLoop reads NDJSON raw-position samples from stdin until EOF or
// a decode error, feeding each into the processor graph.
func (w *worker) runStdinLoop(done chan<- struct{}) {
	defer close(done)
	scanner := bufio.NewScanner(os.Stdin)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		e, err := streamteam.DecodeElement(line)
		if err != nil {
			log.Printf("worker: dropping unparseable input line: %v", err)
			continue
		}
		if w.matches.note(e.Key()) {
			w.setupMatch(e.Key())
		}
		w.graph.Process(e.Key(), e)
	}
	if err := scanner.Err(); err != nil {
		log.Printf("worker: stdin read error: %v", err)
	}
}

func newStdoutSink(name string) streamteam.ProcessorFunc {
	var mu sync.Mutex
	writer := bufio.NewWriter(os.Stdout)
	return streamteam.ProcessorFunc{
		FuncName: name,
		Fn: func(_ string, e streamteam.Element) ([]streamteam.Element, error) {
			raw, err := streamteam.EncodeElement(e)
			if err != nil {
				return nil, err
			}
			mu.Lock()
			defer mu.Unlock()
			writer.Write(raw)
			writer.WriteByte('\n')
			writer.Flush()
			return nil, nil
		},
	}
}

func isBall(ballID string) streamteam.ProcessorFunc {
	return streamteam.ProcessorFunc{
		FuncName: "isBall",
		Fn: func(_ string, e streamteam.Element) ([]streamteam.Element, error) {
			if e.ObjectID() == ballID {
				return []streamteam.Element{e}, nil
			}
			return nil, nil
		},
	}
}

// passSequenceDispatch routes the pass-and-shot classifier's outputs to
// the pass-sequence detector: a successful pass extends a chain, while an
// interception, misplaced pass or clearance breaks it (spec.md's
// PassSequenceDetector.NoteBreak contract).
func passSequenceDispatch(passSequence *streamteam.PassSequenceDetector) streamteam.ProcessorFunc {
	return streamteam.ProcessorFunc{
		FuncName: "passSequenceDispatch",
		Fn: func(matchID string, e streamteam.Element) ([]streamteam.Element, error) {
			switch e.StreamName() {
			case streamteam.StreamSuccessfulPassEvent:
				return passSequence.Process(matchID, e)
			case streamteam.StreamInterceptionEvent, streamteam.StreamMisplacedPassEvent, streamteam.StreamClearanceEvent:
				passSequence.NoteBreak(matchID, e.GroupID(), e.Timestamp())
				return nil, nil
			default:
				return nil, nil
			}
		},
	}
}

func isPlayer(ballID string) streamteam.ProcessorFunc {
	return streamteam.ProcessorFunc{
		FuncName: "isPlayer",
		Fn: func(_ string, e streamteam.Element) ([]streamteam.Element, error) {
			if id := e.ObjectID(); id != "" && id != ballID {
				return []streamteam.Element{e}, nil
			}
			return nil, nil
		},
	}
}

// buildWorker reads cfg to size every detector's thresholds, constructs
// the full spec.md §4 detector set over backend, and wires them into the
// raw-position -> field-object-state -> detector-fanout processor graph
// plus a once-a-second window graph driving the heatmap rollup.
func buildWorker(cfg *config.Config, backend streamteam.KVBackend) (*worker, error) {
	ballID := cfg.GetString("match.ballId", "ball")
	fieldLength, err := cfg.GetFloat64("match.fieldLength", 105)
	if err != nil {
		return nil, err
	}
	fieldWidth, err := cfg.GetFloat64("match.fieldWidth", 68)
	if err != nil {
		return nil, err
	}
	goalHalfWidth, err := cfg.GetFloat64("match.goalHalfWidth", 3.66)
	if err != nil {
		return nil, err
	}
	sideBandDepth, err := cfg.GetFloat64("area.sideBandDepth", 2)
	if err != nil {
		return nil, err
	}
	goalBandDepth, err := cfg.GetFloat64("area.goalBandDepth", 1)
	if err != nil {
		return nil, err
	}

	fieldObjectGen := streamteam.NewFieldObjectStateGenerator(backend, nil)

	possessionCfg := streamteam.PossessionConfig{
		BallID:                      ballID,
		MaxVabsForVabsDiff:          mustFloat(cfg, "possession.maxVabsForVabsDiff", 2.0),
		MinVabsDiff:                 mustFloat(cfg, "possession.minVabsDiff", 0.5),
		MinMovingDirAngleDiff:       mustFloat(cfg, "possession.minMovingDirAngleDiff", 0.3),
		MaxBallPossessionChangeDist: mustFloat(cfg, "possession.maxBallPossessionChangeDist", 2.0),
		MaxDuelDist:                 mustFloat(cfg, "possession.maxDuelDist", 3.0),
	}
	possession := streamteam.NewPossessionDuelDetector(possessionCfg, backend)

	kickCfg := streamteam.KickConfig{
		MinKickDist:     mustFloat(cfg, "kick.minKickDist", 2.0),
		MaxBallbackDist: mustFloat(cfg, "kick.maxBallbackDist", 0.5),
	}
	kick := streamteam.NewKickDetector(kickCfg, possession, backend)

	passShotCfg := streamteam.PassShotConfig{
		BallID:                  ballID,
		MaxTime:                 mustInt64(cfg, "passShot.maxTime", 5000),
		SidewardsAngleThreshold: mustFloat(cfg, "passShot.sidewardsAngleThreshold", 0.5),
		GoalHeight:              mustFloat(cfg, "passShot.goalHeight", 2.44),
	}
	passShot := streamteam.NewPassShotClassifier(passShotCfg, kick, possession, backend)

	passSequenceCfg := streamteam.PassSequenceConfig{
		HistoryCapacity:      int(mustInt64(cfg, "passSequence.historyCapacity", 20)),
		MaxTimeBetweenPasses: mustInt64(cfg, "passSequence.maxTimeBetweenPasses", 8000),
	}
	passSequence := streamteam.NewPassSequenceDetector(passSequenceCfg, backend)

	speedThresholds, err := cfg.GetFloat64List("dribbling.speedLevelThresholds", []float64{2, 4, 6, 8})
	if err != nil {
		return nil, err
	}
	dribblingCfg := streamteam.DribblingConfig{
		SpeedLevelThresholds:    speedThresholds,
		DribblingSpeedThreshold: mustFloat(cfg, "dribbling.speedThreshold", 3.0),
		DribblingTimeThreshold:  mustInt64(cfg, "dribbling.timeThreshold", 1000),
	}
	dribbling := streamteam.NewDribblingSpeedDetector(dribblingCfg, possession, backend)

	kickoffCfg := streamteam.KickoffConfig{
		BallID:                 ballID,
		MaxBallMidpointDist:    mustFloat(cfg, "kickoff.maxBallMidpointDist", 1.0),
		MinPlayerMidlineDist:   mustFloat(cfg, "kickoff.minPlayerMidlineDist", 0.5),
		MinTimeBetweenKickoffs: mustInt64(cfg, "kickoff.minTimeBetweenKickoffs", 10000),
		TeamSize:               int(mustInt64(cfg, "kickoff.teamSize", 11)),
	}
	kickoff := streamteam.NewKickoffDetector(kickoffCfg, possession, backend)

	offside := streamteam.NewOffsideDetector(possession, backend)

	areas := []streamteam.AreaRect{
		{AreaID: streamteam.AreaLeftTouch, XMin: -fieldLength / 2, XMax: fieldLength / 2, YMin: -fieldWidth/2 - sideBandDepth, YMax: -fieldWidth / 2},
		{AreaID: streamteam.AreaRightTouch, XMin: -fieldLength / 2, XMax: fieldLength / 2, YMin: fieldWidth / 2, YMax: fieldWidth/2 + sideBandDepth},
		{AreaID: streamteam.AreaLeftGoal, XMin: -fieldLength/2 - goalBandDepth, XMax: -fieldLength / 2, YMin: -goalHalfWidth, YMax: goalHalfWidth},
		{AreaID: streamteam.AreaRightGoal, XMin: fieldLength / 2, XMax: fieldLength/2 + goalBandDepth, YMin: -goalHalfWidth, YMax: goalHalfWidth},
		{AreaID: streamteam.AreaSlightlyAboveLeftGoal, XMin: -fieldLength/2 - goalBandDepth, XMax: -fieldLength / 2, YMin: goalHalfWidth, YMax: goalHalfWidth + sideBandDepth},
		{AreaID: streamteam.AreaSlightlyBelowLeftGoal, XMin: -fieldLength/2 - goalBandDepth, XMax: -fieldLength / 2, YMin: -goalHalfWidth - sideBandDepth, YMax: -goalHalfWidth},
		{AreaID: streamteam.AreaSlightlyAboveRightGoal, XMin: fieldLength / 2, XMax: fieldLength/2 + goalBandDepth, YMin: goalHalfWidth, YMax: goalHalfWidth + sideBandDepth},
		{AreaID: streamteam.AreaSlightlyBelowRightGoal, XMin: fieldLength / 2, XMax: fieldLength/2 + goalBandDepth, YMin: -goalHalfWidth - sideBandDepth, YMax: -goalHalfWidth},
	}
	area := streamteam.NewAreaDetector(areas, backend)

	heatmapCfg := streamteam.HeatmapConfig{
		NumXGridCells: int(mustInt64(cfg, "heatmap.numXGridCells", 20)),
		NumYGridCells: int(mustInt64(cfg, "heatmap.numYGridCells", 14)),
		Intervals:     []int64{0, 300, 900},
	}
	heatmapConstructor := streamteam.NewHeatmapConstructor(heatmapCfg, backend)
	heatmapSender := streamteam.NewHeatmapSender(heatmapCfg, backend)

	teamArea := streamteam.NewTeamAreaPressingDetector(ballID, possession, backend)

	setPlayCfg := streamteam.SetPlayConfig{
		BallID:                 ballID,
		MaxBallSpeedForRestart: mustFloat(cfg, "setPlayDetection.maxBallSpeedForRestart", 3.0),
		MinQuietMs:             mustInt64(cfg, "setPlayDetection.minQuietMs", 1000),
	}
	setPlay := streamteam.NewSetPlayDetector(setPlayCfg, possession, backend)

	graph := streamteam.NewGraph()

	rawRoot := graph.AddRoot("rawPositionFilter", &streamteam.FilterModule{
		FilterName: "rawPositionFilter",
		Predicates: []streamteam.Predicate{streamteam.EQ(streamteam.StreamNameSchema, streamteam.StreamRawPosition)},
	})
	genNode := rawRoot.AddChild("fieldObjectStateGenerator", fieldObjectGen)
	genNode.Children = append(genNode.Children, &streamteam.Node{ID: "fieldObjectStateSink", Processor: newStdoutSink("fieldObjectStateSink")})

	observerNode := genNode.AddChild("possession.playerObserver", possession.PlayerObserver())

	ballBranch := observerNode.AddChild("isBall", isBall(ballID))
	possessionNode := ballBranch.AddChild("possessionDuelDetector", possession)
	possessionNode.Children = append(possessionNode.Children,
		&streamteam.Node{ID: "possessionSink", Processor: newStdoutSink("possessionSink")},
		&streamteam.Node{ID: "passShotFromPossession", Processor: passShot, Children: []*streamteam.Node{
			{ID: "passShotSink", Processor: newStdoutSink("passShotSink")},
			{ID: "passSequenceFromPassShot", Processor: passSequenceDispatch(passSequence), Children: []*streamteam.Node{
				{ID: "passSequenceSink", Processor: newStdoutSink("passSequenceSink")},
			}},
		}},
		&streamteam.Node{ID: "setPlayFromPossession", Processor: setPlay, Children: []*streamteam.Node{
			{ID: "setPlaySinkFromPossession", Processor: newStdoutSink("setPlaySinkFromPossession")},
		}},
	)
	ballBranch.AddChild("kickDetector", kick)
	ballBranch.AddChild("kickoffDetector", kickoff).Children = []*streamteam.Node{
		{ID: "kickoffSink", Processor: newStdoutSink("kickoffSink")},
	}
	ballBranch.AddChild("setPlayBallTick", setPlay)

	playerBranch := observerNode.AddChild("isPlayer", isPlayer(ballID))
	playerBranch.AddChild("dribblingSpeedDetector", dribbling).Children = []*streamteam.Node{
		{ID: "dribblingSink", Processor: newStdoutSink("dribblingSink")},
	}
	playerBranch.AddChild("offsideDetector", offside).Children = []*streamteam.Node{
		{ID: "offsideSink", Processor: newStdoutSink("offsideSink")},
	}
	playerBranch.AddChild("heatmapConstructor", heatmapConstructor)

	areaNode := observerNode.AddChild("areaDetector", area)
	areaNode.Children = append(areaNode.Children,
		&streamteam.Node{ID: "areaSink", Processor: newStdoutSink("areaSink")},
		&streamteam.Node{ID: "passShotFromArea", Processor: passShot, Children: []*streamteam.Node{
			{ID: "passShotSinkFromArea", Processor: newStdoutSink("passShotSinkFromArea")},
			{ID: "passSequenceFromPassShotArea", Processor: passSequenceDispatch(passSequence), Children: []*streamteam.Node{
				{ID: "passSequenceSinkFromArea", Processor: newStdoutSink("passSequenceSinkFromArea")},
			}},
		}},
		&streamteam.Node{ID: "setPlayFromArea", Processor: setPlay},
	)

	observerNode.AddChild("teamAreaPressingDetector", teamArea).Children = []*streamteam.Node{
		{ID: "teamAreaSink", Processor: newStdoutSink("teamAreaSink")},
	}

	penaltyRoot := graph.AddRoot("penaltyAwardedFilter", &streamteam.FilterModule{
		FilterName: "penaltyAwardedFilter",
		Predicates: []streamteam.Predicate{streamteam.EQ(streamteam.StreamNameSchema, streamteam.StreamPenaltyAwardedEvent)},
	})
	penaltyRoot.AddChild("setPlayFromPenalty", setPlay)

	windowGraph := streamteam.NewWindowGraph()
	tickerRoot := windowGraph.AddRoot("activeKeysTicker", streamteam.NewTicker("activeKeysTicker"))
	tickerRoot.AddChild("heatmapSender", heatmapSender).Children = []*streamteam.Node{
		{ID: "heatmapSink", Processor: newStdoutSink("heatmapSink")},
	}

	return &worker{
		graph:              graph,
		windowGraph:        windowGraph,
		matches:            newMatchRegistry(),
		possession:         possession,
		backend:            backend,
		fieldLength:        fieldLength,
		fieldWidth:         fieldWidth,
		leftTeam:           cfg.GetString("match.leftTeam", ""),
		heatmapConstructor: heatmapConstructor,
	}, nil
}

func mustFloat(cfg *config.Config, key string, def float64) float64 {
	v, err := cfg.GetFloat64(key, def)
	if err != nil {
		log.Printf("worker: invalid %s, falling back to default %v: %v", key, def, err)
		return def
	}
	return v
}

func mustInt64(cfg *config.Config, key string, def int64) int64 {
	v, err := cfg.GetInt64(key, def)
	if err != nil {
		log.Printf("worker: invalid %s, falling back to default %v: %v", key, def, err)
		return def
	}
	return v
}
