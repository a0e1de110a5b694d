package game

import (
	"encoding/json"
	"time"

	"github.com/UnknownRpg/Sketch-Master-AI/canvas"
)

// Client -> server message types.
const (
	MsgStrokeStart    = "stroke_start"
	MsgPointerMove    = "pointer_move"
	MsgStrokeEnd      = "stroke_end"
	MsgClear          = "clear"
	MsgUndo           = "undo"
	MsgRedo           = "redo"
	MsgCanvasSnapshot = "canvas_snapshot"
	MsgGuess          = "guess"
	MsgChoosePrompt   = "choose_prompt"
	MsgStartGame      = "start_game"
	MsgChat           = "chat"
)

// Server -> client message types.
const (
	MsgRoomSnapshot  = "room_snapshot"
	MsgPlayerJoined  = "player_joined"
	MsgPlayerLeft    = "player_left"
	MsgPhaseChange   = "phase_change"
	MsgPromptChoices = "prompt_choices"
	MsgCanvasRestore = "canvas_restore"
	MsgCommentary    = "commentary"
	MsgCorrectGuess  = "correct_guess"
	MsgTurnSummary   = "turn_summary"
	MsgLeaderboard   = "leaderboard"
	MsgError         = "error"
)

// ClientMessage is the JSON envelope the browser sends. Only the fields
// relevant to the Type are populated.
type ClientMessage struct {
	Type     string  `json:"type"`
	X        float64 `json:"x,omitempty"`
	Y        float64 `json:"y,omitempty"`
	Snapshot string  `json:"snapshot,omitempty"`
	Text     string  `json:"text,omitempty"`
	Index    int     `json:"index,omitempty"`
}

type clientMessageEnvelope struct {
	msg  ClientMessage
	raw  []byte
	from *Player
}

type PlayerState struct {
	Username string `json:"username"`
	Score    int    `json:"score"`
	Drawing  bool   `json:"drawing,omitempty"`
}

// ServerMessage is the JSON envelope broadcast to clients.
type ServerMessage struct {
	Type            string `json:"type"`
	ServerTimestamp int64  `json:"server_ts"`

	Username string        `json:"username,omitempty"`
	Phase    RoomPhase     `json:"phase"`
	Round    int           `json:"round"`
	NextTick int64         `json:"next_tick,omitempty"`
	RoomId   string        `json:"room_id,omitempty"`
	Players  []PlayerState `json:"players,omitempty"`

	Prompt        string   `json:"prompt,omitempty"`
	PromptChoices []string `json:"prompt_choices,omitempty"`
	Snapshot      string   `json:"snapshot,omitempty"`

	X float64 `json:"x,omitempty"`
	Y float64 `json:"y,omitempty"`

	Remark string         `json:"remark,omitempty"`
	Points int            `json:"points,omitempty"`
	Scores *canvas.Scores `json:"scores,omitempty"`

	Text string `json:"text,omitempty"`
}

func marshalServerMessage(m ServerMessage) []byte {
	m.ServerTimestamp = time.Now().UnixMilli()
	data, err := json.Marshal(m)
	if err != nil {
		// Every field is marshalable; this cannot fail with our types.
		return nil
	}
	return data
}

func makePlayerJoined(username string) []byte {
	return marshalServerMessage(ServerMessage{Type: MsgPlayerJoined, Username: username})
}

func makePlayerLeft(username string) []byte {
	return marshalServerMessage(ServerMessage{Type: MsgPlayerLeft, Username: username})
}

func makePhaseChange(phase RoomPhase, round int, drawer string, nextTick time.Time) []byte {
	return marshalServerMessage(ServerMessage{
		Type:     MsgPhaseChange,
		Phase:    phase,
		Round:    round,
		Username: drawer,
		NextTick: nextTick.UnixMilli(),
	})
}

func makeRoomSnapshot(roomId string, phase RoomPhase, round int, drawer string, players []PlayerState, snapshot canvas.Snapshot, nextTick time.Time) []byte {
	return marshalServerMessage(ServerMessage{
		Type:     MsgRoomSnapshot,
		RoomId:   roomId,
		Phase:    phase,
		Round:    round,
		Username: drawer,
		Players:  players,
		Snapshot: string(snapshot),
		NextTick: nextTick.UnixMilli(),
	})
}

func makePromptChoices(choices []string) []byte {
	return marshalServerMessage(ServerMessage{Type: MsgPromptChoices, PromptChoices: choices})
}

func makeCanvasRestore(snapshot canvas.Snapshot) []byte {
	return marshalServerMessage(ServerMessage{Type: MsgCanvasRestore, Snapshot: string(snapshot)})
}

func makeCommentary(remark string, points int, scores canvas.Scores) []byte {
	return marshalServerMessage(ServerMessage{
		Type:   MsgCommentary,
		Remark: remark,
		Points: points,
		Scores: &scores,
	})
}

func makeCorrectGuess(username string, points int) []byte {
	return marshalServerMessage(ServerMessage{Type: MsgCorrectGuess, Username: username, Points: points})
}

func makeTurnSummary(prompt string, players []PlayerState) []byte {
	return marshalServerMessage(ServerMessage{Type: MsgTurnSummary, Prompt: prompt, Players: players})
}

func makeLeaderboard(players []PlayerState) []byte {
	return marshalServerMessage(ServerMessage{Type: MsgLeaderboard, Players: players})
}
