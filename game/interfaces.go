package game

import (
	"context"
	"time"

	"github.com/UnknownRpg/Sketch-Master-AI/domain"
)

// NetworkSession is the transport a player talks through. The production
// implementation wraps a gorilla websocket; tests use mocks.
type NetworkSession interface {
	Close(errCode string)
	Write(data []byte) error
	Read() ([]byte, error)
	Ping() error
}

type UserGetter interface {
	GetUserById(ctx context.Context, id string) (domain.User, error)
}

// PromptGenerator supplies random drawing prompts for the choosing phase.
type PromptGenerator interface {
	Generate(count int) []string
}

// ResultSaver persists a finished turn with its behavioral readings.
type ResultSaver interface {
	SaveRoundResult(ctx context.Context, r domain.RoundResult) error
}

// LeaderboardReader serves the all-time highest scoring turns.
type LeaderboardReader interface {
	TopResults(ctx context.Context, limit int) ([]domain.RoundResult, error)
}

type UniqueIdGenerator interface {
	Generate() string
	Dispose(id string)
}

// PeriodicTickerChannelCreator exists so tests can drive time by hand.
type PeriodicTickerChannelCreator interface {
	Create(duration time.Duration) <-chan time.Time
}

// Lobby is the part of the lobby a room is allowed to touch.
type Lobby interface {
	RequestUpdateDescription(desc roomDescription)
	RemoveRoom(roomId string)
}

// RoomHandle is what the lobby keeps per room.
type RoomHandle interface {
	SetId(id string)
	SetParentLobby(l Lobby)
	Description() roomDescription
	GameLoop()
	Tick(now time.Time)
	PingPlayers()
	RequestJoin(jreq roomJoinRequest)
	CloseAndRelease()
}
