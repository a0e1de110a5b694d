package game

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/UnknownRpg/Sketch-Master-AI/canvas"
	"github.com/UnknownRpg/Sketch-Master-AI/commentary"
	"github.com/UnknownRpg/Sketch-Master-AI/domain"
)

type RoomPhase int

const (
	PHASE_PENDING RoomPhase = iota
	PHASE_CHOOSING_PROMPT
	PHASE_DRAWING
	PHASE_TURN_SUMMARY
	PHASE_LEADERBOARD
)

const (
	guesserPoints      = 10
	drawerPointsPerFan = 3
	promptChoicesCount = 3
)

// fallbackPrompts keeps a room playable when the prompts table is
// unreachable.
var fallbackPrompts = []string{
	"a cat riding a skateboard",
	"a lighthouse in a storm",
	"a robot watering plants",
}

type RoomConfigs struct {
	MaxPlayers             int
	RoundsCount            int
	ChoosingPromptDuration time.Duration
	DrawingDuration        time.Duration
	TurnSummaryDuration    time.Duration
	CommentaryInterval     time.Duration
	HistoryDepth           int
}

type roomDescription struct {
	id           string
	private      bool
	playersCount int
	maxPlayers   int
	started      bool
}

type roomJoinRequest struct {
	roomId  string
	player  *Player
	errChan chan error
}

func NewRoomJoinRequest(roomId string, player *Player) roomJoinRequest {
	return roomJoinRequest{roomId: roomId, player: player, errChan: make(chan error, 1)}
}

type Room struct {
	// Identity / metadata
	id      string
	private bool
	hostId  string
	configs RoomConfigs

	// Runtime state
	phase         RoomPhase
	round         int
	drawerIndex   int
	currentPrompt string
	promptChoices []string
	nextTick      time.Time
	lastBeat      time.Time

	// Players
	players   []*Player
	scores    map[string]int
	guessed   map[string]bool
	bannedIds map[string]bool

	// Current drawer's replicated canvas
	board   *replicaSurface
	session *canvas.Session

	// Collaborators
	commentator *commentary.Engine
	promptGen   PromptGenerator
	resultSaver ResultSaver
	lobby       Lobby

	// Communication
	inbox                 chan clientMessageEnvelope
	ticks                 chan time.Time
	pings                 chan struct{}
	playerRemovalRequests chan *Player
	joinRequests          chan roomJoinRequest
	done                  chan struct{}
}

func NewRoom(host *Player, private bool, configs RoomConfigs, promptGen PromptGenerator, commentator *commentary.Engine, resultSaver ResultSaver) *Room {
	room := &Room{
		hostId:                host.id,
		private:               private,
		configs:               configs,
		phase:                 PHASE_PENDING,
		players:               make([]*Player, 0, configs.MaxPlayers),
		scores:                make(map[string]int),
		guessed:               make(map[string]bool),
		bannedIds:             make(map[string]bool),
		commentator:           commentator,
		promptGen:             promptGen,
		resultSaver:           resultSaver,
		inbox:                 make(chan clientMessageEnvelope, 1024),
		ticks:                 make(chan time.Time, 24),
		pings:                 make(chan struct{}, 1),
		playerRemovalRequests: make(chan *Player, 64),
		joinRequests:          make(chan roomJoinRequest),
		done:                  make(chan struct{}),
	}
	room.players = append(room.players, host)
	room.scores[host.id] = 0
	host.SetRoom(room)
	return room
}

func (r *Room) SetId(id string) {
	r.id = id
}

func (r *Room) SetParentLobby(l Lobby) {
	r.lobby = l
}

func (r *Room) Description() roomDescription {
	return roomDescription{
		id:           r.id,
		private:      r.private,
		playersCount: len(r.players),
		maxPlayers:   r.configs.MaxPlayers,
		started:      r.phase != PHASE_PENDING,
	}
}

// Tick is called from the lobby actor; drops when the room is backed up.
func (r *Room) Tick(now time.Time) {
	select {
	case r.ticks <- now:
	default:
	}
}

// PingPlayers signals the room actor to ping, so the player slice is only
// ever touched from the room goroutine.
func (r *Room) PingPlayers() {
	select {
	case r.pings <- struct{}{}:
	default:
	}
}

func (r *Room) RequestJoin(jreq roomJoinRequest) {
	select {
	case r.joinRequests <- jreq:
	case <-r.done:
		jreq.errChan <- ErrRoomNotFound
	}
}

func (r *Room) RequestRemovePlayer(p *Player) {
	select {
	case r.playerRemovalRequests <- p:
	case <-r.done:
	}
}

// CloseAndRelease is called by the lobby after the room was removed from
// its table. Stops the game loop and closes every player connection.
func (r *Room) CloseAndRelease() {
	close(r.done)
	for _, p := range r.players {
		p.CloseAndRelease("room-closed")
	}
}

func (r *Room) GameLoop() {
	for {
		select {
		case <-r.done:
			return
		case env := <-r.inbox:
			r.handleEnvelope(env)
		case now := <-r.ticks:
			r.handleTick(now)
		case <-r.pings:
			for _, p := range r.players {
				p.RequestPing()
			}
		case p := <-r.playerRemovalRequests:
			r.handleRemoval(p)
		case jreq := <-r.joinRequests:
			r.handleJoinRequest(jreq)
		}
	}
}

// --- players ---

func (r *Room) handleJoinRequest(jreq roomJoinRequest) {
	p := jreq.player

	switch {
	case r.bannedIds[p.id]:
		jreq.errChan <- ErrBanned
		return
	case len(r.players) >= r.configs.MaxPlayers:
		jreq.errChan <- ErrRoomFull
		return
	}

	r.players = append(r.players, p)
	if _, known := r.scores[p.id]; !known {
		r.scores[p.id] = 0
	}
	p.SetRoom(r)
	jreq.errChan <- nil

	go p.ReadPump()
	go p.WritePump()

	r.broadcastExcept(makePlayerJoined(p.username), p)

	var snapshot canvas.Snapshot
	if r.session != nil {
		snapshot, _ = r.session.CurrentSnapshot()
	}
	p.Send(makeRoomSnapshot(r.id, r.phase, r.round, r.drawerName(), r.playerStates(), snapshot, r.nextTick))

	r.updateDescription()
}

func (r *Room) handleRemoval(p *Player) {
	idx := -1
	for i, other := range r.players {
		if other == p {
			idx = i
			break
		}
	}
	if idx == -1 {
		return
	}

	wasDrawer := r.isDrawer(p)
	r.players = append(r.players[:idx], r.players[idx+1:]...)
	if idx <= r.drawerIndex {
		// Keep the index on the same player. When the drawer themselves
		// leaves this parks the index one short, so advanceTurn hands the
		// pen to whoever slid into the slot instead of skipping them.
		r.drawerIndex--
	}
	p.CloseAndRelease("")

	if len(r.players) == 0 {
		r.lobby.RemoveRoom(r.id)
		return
	}

	if p.id == r.hostId {
		r.hostId = r.players[0].id
	}

	r.broadcast(makePlayerLeft(p.username))

	if wasDrawer && (r.phase == PHASE_DRAWING || r.phase == PHASE_CHOOSING_PROMPT) {
		// No drawer, no turn. The leaver still owns the turn's result.
		r.endTurn(time.Now(), p)
	}

	r.updateDescription()
}

// --- message dispatch ---

func (r *Room) handleEnvelope(env clientMessageEnvelope) {
	switch env.msg.Type {
	case MsgStartGame:
		r.handleStartGame(env.from)
	case MsgChoosePrompt:
		r.handleChoosePrompt(env.from, env.msg.Index)
	case MsgStrokeStart, MsgPointerMove, MsgStrokeEnd, MsgClear, MsgCanvasSnapshot:
		r.handleDrawing(env)
	case MsgUndo:
		r.handleUndo(env.from)
	case MsgRedo:
		r.handleRedo(env.from)
	case MsgGuess:
		r.handleGuess(env.from, env.msg.Text)
	case MsgChat:
		r.broadcastExcept(env.raw, env.from)
	}
}

func (r *Room) handleStartGame(from *Player) {
	if from.id != r.hostId || r.phase != PHASE_PENDING || len(r.players) < 2 {
		return
	}
	r.round = 1
	r.drawerIndex = 0
	r.startChoosing(time.Now())
	r.updateDescription()
}

func (r *Room) handleChoosePrompt(from *Player, index int) {
	if r.phase != PHASE_CHOOSING_PROMPT || !r.isDrawer(from) {
		return
	}
	if index < 0 || index >= len(r.promptChoices) {
		return
	}
	r.startDrawing(time.Now(), r.promptChoices[index])
}

// handleDrawing feeds the metrics tracker and relays the raw envelope to
// everyone else. The save-before-mutation ordering lives inside the
// session; the room only routes.
func (r *Room) handleDrawing(env clientMessageEnvelope) {
	if r.phase != PHASE_DRAWING || !r.isDrawer(env.from) || r.session == nil {
		return
	}

	switch env.msg.Type {
	case MsgStrokeStart:
		r.session.StrokeStart()
		strokesRelayed.Inc()
	case MsgPointerMove:
		r.session.PointerMove(env.msg.X, env.msg.Y)
	case MsgStrokeEnd:
		r.session.StrokeEnd()
	case MsgClear:
		r.session.Clear()
		r.board.Set(canvas.Snapshot(""))
	case MsgCanvasSnapshot:
		// Snapshot frames back the replica; they are not relayed since
		// guessers already replay the stroke stream.
		r.board.Set(canvas.Snapshot(env.msg.Snapshot))
		return
	}

	r.broadcastExcept(env.raw, env.from)
}

func (r *Room) handleUndo(from *Player) {
	if r.phase != PHASE_DRAWING || !r.isDrawer(from) || r.session == nil {
		return
	}
	if !r.session.Undo() {
		return
	}
	undoOperations.Inc()
	snapshot, _ := r.session.CurrentSnapshot()
	r.broadcast(makeCanvasRestore(snapshot))
}

func (r *Room) handleRedo(from *Player) {
	if r.phase != PHASE_DRAWING || !r.isDrawer(from) || r.session == nil {
		return
	}
	if !r.session.Redo() {
		return
	}
	undoOperations.Inc()
	snapshot, _ := r.session.CurrentSnapshot()
	r.broadcast(makeCanvasRestore(snapshot))
}

func (r *Room) handleGuess(from *Player, text string) {
	if r.phase != PHASE_DRAWING || r.isDrawer(from) || r.guessed[from.id] {
		return
	}

	if !guessMatches(text, r.currentPrompt) {
		// Wrong guesses double as chat.
		r.broadcast(marshalServerMessage(ServerMessage{Type: MsgChat, Username: from.username, Text: text}))
		return
	}

	r.guessed[from.id] = true
	r.scores[from.id] += guesserPoints
	if drawer := r.drawer(); drawer != nil {
		r.scores[drawer.id] += drawerPointsPerFan
	}
	r.broadcast(makeCorrectGuess(from.username, guesserPoints))

	if len(r.guessed) == len(r.players)-1 {
		r.endTurn(time.Now(), r.drawer())
	}
}

func guessMatches(guess, prompt string) bool {
	return strings.EqualFold(strings.TrimSpace(guess), strings.TrimSpace(prompt))
}

// --- phases ---

func (r *Room) handleTick(now time.Time) {
	if r.phase != PHASE_PENDING && !r.nextTick.After(now) {
		switch r.phase {
		case PHASE_CHOOSING_PROMPT:
			// Dithering drawers get the first choice.
			r.startDrawing(now, r.promptChoices[0])
		case PHASE_DRAWING:
			r.endTurn(now, r.drawer())
		case PHASE_TURN_SUMMARY:
			r.advanceTurn(now)
		case PHASE_LEADERBOARD:
			r.lobby.RemoveRoom(r.id)
		}
		return
	}

	if r.phase == PHASE_DRAWING && r.session != nil && now.Sub(r.lastBeat) >= r.configs.CommentaryInterval {
		r.commentaryBeat(now)
	}
}

// commentaryBeat is the 3-second cadence from the session driver: poll
// the metrics snapshot, derive scores, speak, award.
func (r *Room) commentaryBeat(now time.Time) {
	drawer := r.drawer()
	if drawer == nil {
		return
	}

	scores := r.session.Scores(r.timeRemainingPct(now))
	remark := r.commentator.Comment(drawer.username, scores)

	r.scores[drawer.id] += remark.Points
	r.broadcast(makeCommentary(remark.Text, remark.Points, scores))
	r.lastBeat = now
	commentaryBeats.Inc()
}

func (r *Room) timeRemainingPct(now time.Time) float64 {
	if r.configs.DrawingDuration <= 0 {
		return 0
	}
	remaining := r.nextTick.Sub(now)
	if remaining < 0 {
		remaining = 0
	}
	return remaining.Seconds() / r.configs.DrawingDuration.Seconds()
}

func (r *Room) startChoosing(now time.Time) {
	r.phase = PHASE_CHOOSING_PROMPT
	r.nextTick = now.Add(r.configs.ChoosingPromptDuration)
	r.session = nil
	r.board = nil

	r.promptChoices = r.promptGen.Generate(promptChoicesCount)
	if len(r.promptChoices) == 0 {
		r.promptChoices = fallbackPrompts
	}

	r.broadcast(makePhaseChange(r.phase, r.round, r.drawerName(), r.nextTick))
	if drawer := r.drawer(); drawer != nil {
		drawer.Send(makePromptChoices(r.promptChoices))
	}
}

func (r *Room) startDrawing(now time.Time, prompt string) {
	r.phase = PHASE_DRAWING
	r.currentPrompt = prompt
	r.nextTick = now.Add(r.configs.DrawingDuration)
	r.lastBeat = now
	r.guessed = make(map[string]bool)

	r.board = &replicaSurface{}
	r.session = canvas.NewSession(r.board, canvas.WithHistoryDepth(r.configs.HistoryDepth))

	r.broadcastExcept(makePhaseChange(r.phase, r.round, r.drawerName(), r.nextTick), r.drawer())
	if drawer := r.drawer(); drawer != nil {
		msg := ServerMessage{Type: MsgPhaseChange, Phase: r.phase, Round: r.round, Username: drawer.username, Prompt: prompt, NextTick: r.nextTick.UnixMilli()}
		drawer.Send(marshalServerMessage(msg))
	}
}

// endTurn closes the drawing turn for the given drawer, who may no longer
// be in the players slice when the turn ends on a disconnect.
func (r *Room) endTurn(now time.Time, drawer *Player) {
	if r.session != nil {
		r.persistResult(now, drawer)
	}

	r.phase = PHASE_TURN_SUMMARY
	r.nextTick = now.Add(r.configs.TurnSummaryDuration)
	r.broadcast(makeTurnSummary(r.currentPrompt, r.playerStates()))

	r.session = nil
	r.board = nil
}

func (r *Room) persistResult(now time.Time, drawer *Player) {
	if drawer == nil || r.resultSaver == nil {
		return
	}

	m := r.session.Metrics()
	scores := canvas.ComputeScores(m, r.timeRemainingPct(now))
	result := domain.RoundResult{
		RoomId:      r.id,
		Username:    drawer.username,
		Prompt:      r.currentPrompt,
		Points:      r.scores[drawer.id],
		StrokeCount: m.StrokeCount,
		AvgSpeed:    m.AverageSpeed,
		UndoCount:   m.UndoCount,
		Confidence:  scores.Confidence,
		Efficiency:  scores.Efficiency,
		Clarity:     scores.Clarity,
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := r.resultSaver.SaveRoundResult(ctx, result); err != nil {
			log.Error().Err(err).Str("room", result.RoomId).Msg("failed to persist round result")
		}
	}()
}

func (r *Room) advanceTurn(now time.Time) {
	r.drawerIndex++
	if r.drawerIndex >= len(r.players) {
		r.drawerIndex = 0
		r.round++
	}

	if r.round > r.configs.RoundsCount {
		r.phase = PHASE_LEADERBOARD
		r.nextTick = now.Add(r.configs.TurnSummaryDuration)
		r.broadcast(makeLeaderboard(r.playerStates()))
		return
	}

	r.startChoosing(now)
}

// --- helpers ---

func (r *Room) drawer() *Player {
	if r.drawerIndex < 0 || r.drawerIndex >= len(r.players) {
		return nil
	}
	return r.players[r.drawerIndex]
}

func (r *Room) drawerName() string {
	if d := r.drawer(); d != nil && r.phase != PHASE_PENDING {
		return d.username
	}
	return ""
}

func (r *Room) isDrawer(p *Player) bool {
	return r.drawer() == p
}

func (r *Room) playerStates() []PlayerState {
	states := make([]PlayerState, 0, len(r.players))
	for _, p := range r.players {
		states = append(states, PlayerState{
			Username: p.username,
			Score:    r.scores[p.id],
			Drawing:  r.isDrawer(p) && r.phase == PHASE_DRAWING,
		})
	}
	return states
}

func (r *Room) broadcast(data []byte) {
	for _, p := range r.players {
		p.Send(data)
	}
}

func (r *Room) broadcastExcept(data []byte, except *Player) {
	for _, p := range r.players {
		if p != except {
			p.Send(data)
		}
	}
}

func (r *Room) updateDescription() {
	if r.lobby != nil && !r.private {
		r.lobby.RequestUpdateDescription(r.Description())
	}
}
