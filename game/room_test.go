package game

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/UnknownRpg/Sketch-Master-AI/commentary"
)

func testConfigs() RoomConfigs {
	return RoomConfigs{
		MaxPlayers:             4,
		RoundsCount:            2,
		ChoosingPromptDuration: 10 * time.Second,
		DrawingDuration:        80 * time.Second,
		TurnSummaryDuration:    6 * time.Second,
		CommentaryInterval:     3 * time.Second,
		HistoryDepth:           50,
	}
}

// buildRoom wires a room with a host plus the named guests, consuming the
// join traffic so every test starts with quiet channels.
func buildRoom(t *testing.T, saver ResultSaver, guestNames ...string) (*Room, []*Player) {
	t.Helper()

	host := newTestPlayer(t, "id-hana", "hana")
	gen := &fakePromptGen{prompts: []string{"cat", "boat", "tree"}}
	eng := commentary.New(commentary.WithRand(rand.New(rand.NewSource(7))))

	room := NewRoom(host, false, testConfigs(), gen, eng, saver)
	room.SetId("W4K3UP")

	players := []*Player{host}
	for _, name := range guestNames {
		g := newTestPlayer(t, fmt.Sprintf("id-%s", name), name)
		jreq := NewRoomJoinRequest(room.id, g)
		room.handleJoinRequest(jreq)
		require.NoError(t, <-jreq.errChan)
		require.Equal(t, MsgRoomSnapshot, receive(t, g, 1)[0].Type)
		for _, prev := range players {
			require.Equal(t, MsgPlayerJoined, receive(t, prev, 1)[0].Type)
		}
		players = append(players, g)
	}
	return room, players
}

func envelope(from *Player, msg ClientMessage) clientMessageEnvelope {
	raw, _ := json.Marshal(msg)
	return clientMessageEnvelope{msg: msg, raw: raw, from: from}
}

func assertNoMessage(t *testing.T, p *Player) {
	t.Helper()
	fs := p.socket.(*fakeSession)
	select {
	case data := <-p.inbox:
		t.Fatalf("unexpected message %s", data)
	case data := <-fs.writes:
		t.Fatalf("unexpected message %s", data)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestRoomJoin(t *testing.T) {
	t.Run("joiner gets the room snapshot", func(t *testing.T) {
		room, _ := buildRoom(t, nil)
		g := newTestPlayer(t, "id-goro", "goro")

		jreq := NewRoomJoinRequest(room.id, g)
		room.handleJoinRequest(jreq)
		require.NoError(t, <-jreq.errChan)

		msg := receive(t, g, 1)[0]
		assert.Equal(t, MsgRoomSnapshot, msg.Type)
		assert.Equal(t, "W4K3UP", msg.RoomId)
		assert.Equal(t, PHASE_PENDING, msg.Phase)
		assert.Len(t, msg.Players, 2)
	})

	t.Run("full room rejects the join", func(t *testing.T) {
		room, _ := buildRoom(t, nil, "goro", "mika", "rin")

		late := newTestPlayer(t, "id-late", "late")
		jreq := NewRoomJoinRequest(room.id, late)
		room.handleJoinRequest(jreq)

		assert.ErrorIs(t, <-jreq.errChan, ErrRoomFull)
	})

	t.Run("banned player is rejected", func(t *testing.T) {
		room, _ := buildRoom(t, nil)
		room.bannedIds["id-goro"] = true

		g := newTestPlayer(t, "id-goro", "goro")
		jreq := NewRoomJoinRequest(room.id, g)
		room.handleJoinRequest(jreq)

		assert.ErrorIs(t, <-jreq.errChan, ErrBanned)
	})
}

func TestStartGame(t *testing.T) {
	t.Run("only the host can start", func(t *testing.T) {
		room, players := buildRoom(t, nil, "goro")

		room.handleEnvelope(envelope(players[1], ClientMessage{Type: MsgStartGame}))

		assert.Equal(t, PHASE_PENDING, room.phase)
	})

	t.Run("needs at least two players", func(t *testing.T) {
		room, players := buildRoom(t, nil)

		room.handleEnvelope(envelope(players[0], ClientMessage{Type: MsgStartGame}))

		assert.Equal(t, PHASE_PENDING, room.phase)
	})

	t.Run("host start moves to choosing and offers prompts", func(t *testing.T) {
		room, players := buildRoom(t, nil, "goro")
		host, guest := players[0], players[1]

		room.handleEnvelope(envelope(host, ClientMessage{Type: MsgStartGame}))

		require.Equal(t, PHASE_CHOOSING_PROMPT, room.phase)
		assert.Equal(t, 1, room.round)

		hostMsgs := receive(t, host, 2)
		assert.Equal(t, MsgPhaseChange, hostMsgs[0].Type)
		require.Equal(t, MsgPromptChoices, hostMsgs[1].Type)
		assert.Equal(t, []string{"cat", "boat", "tree"}, hostMsgs[1].PromptChoices)

		guestMsgs := receive(t, guest, 1)
		assert.Equal(t, MsgPhaseChange, guestMsgs[0].Type)
		assert.Equal(t, PHASE_CHOOSING_PROMPT, guestMsgs[0].Phase)
		assert.Equal(t, "hana", guestMsgs[0].Username)
	})
}

func TestChoosePrompt(t *testing.T) {
	setup := func(t *testing.T) (*Room, *Player, *Player) {
		room, players := buildRoom(t, nil, "goro")
		room.round = 1
		room.startChoosing(time.Now())
		receive(t, players[0], 2)
		receive(t, players[1], 1)
		return room, players[0], players[1]
	}

	t.Run("guesser cannot choose", func(t *testing.T) {
		room, _, guest := setup(t)

		room.handleEnvelope(envelope(guest, ClientMessage{Type: MsgChoosePrompt, Index: 1}))

		assert.Equal(t, PHASE_CHOOSING_PROMPT, room.phase)
	})

	t.Run("out of range index is ignored", func(t *testing.T) {
		room, drawer, _ := setup(t)

		room.handleEnvelope(envelope(drawer, ClientMessage{Type: MsgChoosePrompt, Index: 7}))

		assert.Equal(t, PHASE_CHOOSING_PROMPT, room.phase)
	})

	t.Run("drawer choice starts drawing with the prompt", func(t *testing.T) {
		room, drawer, guest := setup(t)

		room.handleEnvelope(envelope(drawer, ClientMessage{Type: MsgChoosePrompt, Index: 1}))

		require.Equal(t, PHASE_DRAWING, room.phase)
		assert.Equal(t, "boat", room.currentPrompt)

		drawerMsg := receive(t, drawer, 1)[0]
		assert.Equal(t, MsgPhaseChange, drawerMsg.Type)
		assert.Equal(t, "boat", drawerMsg.Prompt)

		guestMsg := receive(t, guest, 1)[0]
		assert.Equal(t, MsgPhaseChange, guestMsg.Type)
		assert.Empty(t, guestMsg.Prompt, "guessers must not see the prompt")
	})
}

// drawingRoom gets a two player room into the drawing phase with host as
// drawer and all channels quiet.
func drawingRoom(t *testing.T, saver ResultSaver, guestNames ...string) (*Room, []*Player) {
	t.Helper()
	room, players := buildRoom(t, saver, guestNames...)
	room.round = 1
	room.startDrawing(time.Now(), "sail boat")
	for _, p := range players {
		receive(t, p, 1)
	}
	return room, players
}

func TestDrawingRelay(t *testing.T) {
	t.Run("drawer strokes are relayed to guessers only", func(t *testing.T) {
		room, players := drawingRoom(t, nil, "goro")
		drawer, guest := players[0], players[1]

		room.handleEnvelope(envelope(drawer, ClientMessage{Type: MsgStrokeStart}))
		room.handleEnvelope(envelope(drawer, ClientMessage{Type: MsgPointerMove, X: 12, Y: 30}))

		msgs := receive(t, guest, 2)
		assert.Equal(t, MsgStrokeStart, msgs[0].Type)
		assert.Equal(t, MsgPointerMove, msgs[1].Type)
		assert.Equal(t, 12.0, msgs[1].X)
		assert.Equal(t, 30.0, msgs[1].Y)

		assert.Equal(t, 1, room.session.Metrics().StrokeCount)
		assertNoMessage(t, drawer)
	})

	t.Run("guesser strokes are ignored", func(t *testing.T) {
		room, players := drawingRoom(t, nil, "goro")
		guest := players[1]

		room.handleEnvelope(envelope(guest, ClientMessage{Type: MsgStrokeStart}))

		assert.Equal(t, 0, room.session.Metrics().StrokeCount)
		assertNoMessage(t, players[0])
	})

	t.Run("snapshot frames back the board without relaying", func(t *testing.T) {
		room, players := drawingRoom(t, nil, "goro")
		drawer, guest := players[0], players[1]

		room.handleEnvelope(envelope(drawer, ClientMessage{Type: MsgCanvasSnapshot, Snapshot: "frame-1"}))

		snap, ok := room.session.CurrentSnapshot()
		require.True(t, ok)
		assert.Equal(t, "frame-1", string(snap))
		assertNoMessage(t, guest)
	})

	t.Run("clear wipes the board and relays", func(t *testing.T) {
		room, players := drawingRoom(t, nil, "goro")
		drawer, guest := players[0], players[1]

		room.handleEnvelope(envelope(drawer, ClientMessage{Type: MsgCanvasSnapshot, Snapshot: "frame-1"}))
		room.handleEnvelope(envelope(drawer, ClientMessage{Type: MsgClear}))

		snap, ok := room.session.CurrentSnapshot()
		require.True(t, ok)
		assert.Empty(t, string(snap))
		assert.Equal(t, 1, room.session.Metrics().ClearCount)
		assert.Equal(t, MsgClear, receive(t, guest, 1)[0].Type)
	})
}

func TestUndoRedo(t *testing.T) {
	room, players := drawingRoom(t, nil, "goro")
	drawer, guest := players[0], players[1]

	room.handleEnvelope(envelope(drawer, ClientMessage{Type: MsgCanvasSnapshot, Snapshot: "s0"}))
	room.handleEnvelope(envelope(drawer, ClientMessage{Type: MsgStrokeStart}))
	room.handleEnvelope(envelope(drawer, ClientMessage{Type: MsgStrokeEnd}))
	room.handleEnvelope(envelope(drawer, ClientMessage{Type: MsgCanvasSnapshot, Snapshot: "s1"}))
	receive(t, guest, 2)

	t.Run("guesser undo is ignored", func(t *testing.T) {
		room.handleEnvelope(envelope(guest, ClientMessage{Type: MsgUndo}))
		assertNoMessage(t, drawer)
	})

	t.Run("undo restores the pre-stroke frame for everyone", func(t *testing.T) {
		room.handleEnvelope(envelope(drawer, ClientMessage{Type: MsgUndo}))

		for _, p := range []*Player{drawer, guest} {
			msg := receive(t, p, 1)[0]
			assert.Equal(t, MsgCanvasRestore, msg.Type)
			assert.Equal(t, "s0", msg.Snapshot)
		}
		assert.Equal(t, 1, room.session.Metrics().UndoCount)
	})

	t.Run("redo brings the stroke back", func(t *testing.T) {
		room.handleEnvelope(envelope(drawer, ClientMessage{Type: MsgRedo}))

		msg := receive(t, guest, 1)[0]
		assert.Equal(t, MsgCanvasRestore, msg.Type)
		assert.Equal(t, "s1", msg.Snapshot)
		receive(t, drawer, 1)
	})

	t.Run("undo on empty history stays silent", func(t *testing.T) {
		room.handleEnvelope(envelope(drawer, ClientMessage{Type: MsgUndo}))
		receive(t, drawer, 1)
		receive(t, guest, 1)

		room.handleEnvelope(envelope(drawer, ClientMessage{Type: MsgUndo}))
		assertNoMessage(t, drawer)
		assertNoMessage(t, guest)
	})
}

func TestGuess(t *testing.T) {
	t.Run("drawer cannot guess", func(t *testing.T) {
		room, players := drawingRoom(t, nil, "goro")

		room.handleEnvelope(envelope(players[0], ClientMessage{Type: MsgGuess, Text: "sail boat"}))

		assert.Equal(t, 0, room.scores["id-hana"])
		assertNoMessage(t, players[1])
	})

	t.Run("wrong guess becomes chat", func(t *testing.T) {
		room, players := drawingRoom(t, nil, "goro")

		room.handleEnvelope(envelope(players[1], ClientMessage{Type: MsgGuess, Text: "submarine"}))

		msg := receive(t, players[0], 1)[0]
		assert.Equal(t, MsgChat, msg.Type)
		assert.Equal(t, "goro", msg.Username)
		assert.Equal(t, "submarine", msg.Text)
		assert.Equal(t, 0, room.scores["id-goro"])
	})

	t.Run("correct guess scores both sides", func(t *testing.T) {
		room, players := drawingRoom(t, nil, "goro", "mika")
		_, g1, g2 := players[0], players[1], players[2]

		room.handleEnvelope(envelope(g1, ClientMessage{Type: MsgGuess, Text: "  SAIL Boat "}))

		msg := receive(t, g2, 1)[0]
		assert.Equal(t, MsgCorrectGuess, msg.Type)
		assert.Equal(t, "goro", msg.Username)
		assert.Equal(t, guesserPoints, msg.Points)

		assert.Equal(t, guesserPoints, room.scores["id-goro"])
		assert.Equal(t, drawerPointsPerFan, room.scores["id-hana"])
		assert.Equal(t, PHASE_DRAWING, room.phase, "one guesser left, turn goes on")

		// Repeat guesses are silent.
		room.handleEnvelope(envelope(g1, ClientMessage{Type: MsgGuess, Text: "sail boat"}))
		assert.Equal(t, guesserPoints, room.scores["id-goro"])
	})

	t.Run("turn ends when everyone guessed and the result is persisted", func(t *testing.T) {
		saver := newRecordingResultSaver()
		room, players := drawingRoom(t, saver, "goro")
		drawer, guest := players[0], players[1]

		room.handleEnvelope(envelope(drawer, ClientMessage{Type: MsgStrokeStart}))
		room.handleEnvelope(envelope(drawer, ClientMessage{Type: MsgStrokeEnd}))
		receive(t, guest, 2)

		room.handleEnvelope(envelope(guest, ClientMessage{Type: MsgGuess, Text: "sail boat"}))

		require.Equal(t, PHASE_TURN_SUMMARY, room.phase)
		msgs := receive(t, guest, 2)
		assert.Equal(t, MsgCorrectGuess, msgs[0].Type)
		require.Equal(t, MsgTurnSummary, msgs[1].Type)
		assert.Equal(t, "sail boat", msgs[1].Prompt)

		select {
		case result := <-saver.saved:
			assert.Equal(t, "W4K3UP", result.RoomId)
			assert.Equal(t, "hana", result.Username)
			assert.Equal(t, "sail boat", result.Prompt)
			assert.Equal(t, 1, result.StrokeCount)
			assert.Equal(t, drawerPointsPerFan, result.Points)
		case <-time.After(2 * time.Second):
			t.Fatal("round result was never persisted")
		}
	})
}

func TestCommentaryBeat(t *testing.T) {
	room, players := buildRoom(t, nil, "goro")
	drawer, guest := players[0], players[1]
	room.round = 1

	start := time.Date(2026, 3, 14, 15, 0, 0, 0, time.UTC)
	room.startDrawing(start, "sail boat")
	receive(t, drawer, 1)
	receive(t, guest, 1)

	room.handleEnvelope(envelope(drawer, ClientMessage{Type: MsgStrokeStart}))
	room.handleEnvelope(envelope(drawer, ClientMessage{Type: MsgStrokeEnd}))
	receive(t, guest, 2)

	t.Run("no beat before the interval", func(t *testing.T) {
		room.handleTick(start.Add(2 * time.Second))
		assertNoMessage(t, guest)
	})

	t.Run("beat fires on the cadence and pays the drawer", func(t *testing.T) {
		room.handleTick(start.Add(3 * time.Second))

		msg := receive(t, guest, 1)[0]
		require.Equal(t, MsgCommentary, msg.Type)
		assert.NotEmpty(t, msg.Remark)
		assert.Contains(t, msg.Remark, "hana")
		require.NotNil(t, msg.Scores)
		assert.Equal(t, msg.Points, room.scores["id-hana"])
		assert.Equal(t, start.Add(3*time.Second), room.lastBeat)
		receive(t, drawer, 1)
	})

	t.Run("cadence resets after a beat", func(t *testing.T) {
		room.handleTick(start.Add(4 * time.Second))
		assertNoMessage(t, guest)
	})
}

func TestPhaseTimeouts(t *testing.T) {
	room, players := buildRoom(t, nil, "goro")
	host, guest := players[0], players[1]
	room.round = 1

	start := time.Date(2026, 3, 14, 15, 0, 0, 0, time.UTC)
	room.startChoosing(start)
	receive(t, host, 2)
	receive(t, guest, 1)

	// Dithering drawer: timeout picks the first prompt.
	chooseDeadline := start.Add(room.configs.ChoosingPromptDuration)
	room.handleTick(chooseDeadline)
	require.Equal(t, PHASE_DRAWING, room.phase)
	assert.Equal(t, "cat", room.currentPrompt)
	receive(t, host, 1)
	receive(t, guest, 1)

	// Nobody guesses: timeout ends the turn.
	drawDeadline := chooseDeadline.Add(room.configs.DrawingDuration)
	room.handleTick(drawDeadline)
	require.Equal(t, PHASE_TURN_SUMMARY, room.phase)
	receive(t, host, 1)
	receive(t, guest, 1)

	// Summary timeout hands the pen to the next player.
	summaryDeadline := drawDeadline.Add(room.configs.TurnSummaryDuration)
	room.handleTick(summaryDeadline)
	require.Equal(t, PHASE_CHOOSING_PROMPT, room.phase)
	assert.Equal(t, 1, room.round)
	assert.Equal(t, "goro", room.drawer().username)
	receive(t, host, 1)
	receive(t, guest, 2)

	// Jump to the last turn of the last round.
	room.round = room.configs.RoundsCount
	room.drawerIndex = len(room.players) - 1
	room.phase = PHASE_TURN_SUMMARY
	room.nextTick = summaryDeadline.Add(room.configs.TurnSummaryDuration)

	room.handleTick(room.nextTick)
	require.Equal(t, PHASE_LEADERBOARD, room.phase)
	assert.Equal(t, MsgLeaderboard, receive(t, host, 1)[0].Type)
	receive(t, guest, 1)

	// Leaderboard timeout retires the room.
	ml := &MockLobby{}
	ml.On("RemoveRoom", "W4K3UP").Return()
	room.SetParentLobby(ml)

	room.handleTick(room.nextTick)
	ml.AssertCalled(t, "RemoveRoom", "W4K3UP")
}

func TestPlayerRemoval(t *testing.T) {
	t.Run("drawer leaving ends the turn", func(t *testing.T) {
		room, players := drawingRoom(t, nil, "goro", "mika")
		host, g1, g2 := players[0], players[1], players[2]

		room.handleRemoval(host)

		require.Equal(t, PHASE_TURN_SUMMARY, room.phase)
		assert.Equal(t, "id-goro", room.hostId, "host role falls to the next player")

		msgs := receive(t, g1, 2)
		assert.Equal(t, MsgPlayerLeft, msgs[0].Type)
		assert.Equal(t, "hana", msgs[0].Username)
		assert.Equal(t, MsgTurnSummary, msgs[1].Type)
		receive(t, g2, 2)
	})

	t.Run("drawer index follows earlier removals", func(t *testing.T) {
		room, players := buildRoom(t, nil, "goro", "mika")
		room.round = 1
		room.drawerIndex = 1
		room.phase = PHASE_PENDING

		room.handleRemoval(players[0])

		assert.Equal(t, 0, room.drawerIndex)
		assert.Equal(t, "goro", room.drawer().username)
	})

	t.Run("last player leaving retires the room", func(t *testing.T) {
		room, players := buildRoom(t, nil)
		ml := &MockLobby{}
		ml.On("RemoveRoom", "W4K3UP").Return()
		room.SetParentLobby(ml)

		room.handleRemoval(players[0])

		ml.AssertCalled(t, "RemoveRoom", "W4K3UP")
	})

	t.Run("leaving drawer keeps their own result", func(t *testing.T) {
		saver := newRecordingResultSaver()
		room, players := drawingRoom(t, saver, "goro", "mika")
		host := players[0]

		room.handleEnvelope(envelope(host, ClientMessage{Type: MsgStrokeStart}))
		room.handleEnvelope(envelope(host, ClientMessage{Type: MsgStrokeEnd}))
		receive(t, players[1], 2)
		receive(t, players[2], 2)

		room.handleRemoval(host)

		select {
		case result := <-saver.saved:
			assert.Equal(t, "hana", result.Username)
			assert.Equal(t, 1, result.StrokeCount)
		case <-time.After(2 * time.Second):
			t.Fatal("round result was never persisted")
		}
	})

	t.Run("player inheriting the drawer slot still gets their turn", func(t *testing.T) {
		room, players := drawingRoom(t, nil, "goro", "mika")

		room.handleRemoval(players[0])
		require.Equal(t, PHASE_TURN_SUMMARY, room.phase)

		room.handleTick(room.nextTick)

		require.Equal(t, PHASE_CHOOSING_PROMPT, room.phase)
		assert.Equal(t, 1, room.round)
		assert.Equal(t, "goro", room.drawer().username)
	})

	t.Run("unknown player removal is a no-op", func(t *testing.T) {
		room, players := buildRoom(t, nil, "goro")
		stranger := newTestPlayer(t, "id-x", "x")

		room.handleRemoval(stranger)

		assert.Len(t, room.players, 2)
		assertNoMessage(t, players[0])
	})
}
