package game

import (
	"context"
	"encoding/json"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/UnknownRpg/Sketch-Master-AI/domain"
)

// --- NetworkSession ---

// fakeSession blocks reads until closed (so read pumps stay parked) and
// records writes on a channel tests can drain alongside the player inbox.
type fakeSession struct {
	stop   chan struct{}
	writes chan []byte

	mu        sync.Mutex
	once      sync.Once
	closeCode string
}

func newFakeSession() *fakeSession {
	return &fakeSession{
		stop:   make(chan struct{}),
		writes: make(chan []byte, 256),
	}
}

func (f *fakeSession) Read() ([]byte, error) {
	<-f.stop
	return nil, net.ErrClosed
}

func (f *fakeSession) Write(data []byte) error {
	select {
	case f.writes <- data:
	default:
	}
	return nil
}

func (f *fakeSession) Ping() error { return nil }

func (f *fakeSession) Close(errCode string) {
	f.mu.Lock()
	f.closeCode = errCode
	f.mu.Unlock()
	f.once.Do(func() { close(f.stop) })
}

func newTestPlayer(t *testing.T, id, username string) *Player {
	t.Helper()
	fs := newFakeSession()
	t.Cleanup(func() { fs.Close("") })
	return NewPlayer(id, username, fs)
}

// receive collects the next want messages addressed to the player. Some
// players have a running write pump, so messages may sit either in the
// inbox or already on the fake socket; both are watched.
func receive(t *testing.T, p *Player, want int) []ServerMessage {
	t.Helper()
	fs := p.socket.(*fakeSession)
	deadline := time.After(2 * time.Second)

	msgs := make([]ServerMessage, 0, want)
	for len(msgs) < want {
		var data []byte
		select {
		case data = <-p.inbox:
		case data = <-fs.writes:
		case <-deadline:
			t.Fatalf("got %d of %d messages: %v", len(msgs), want, messageTypes(msgs))
		}

		var m ServerMessage
		if err := json.Unmarshal(data, &m); err != nil {
			t.Fatalf("undecodable server message %q: %v", data, err)
		}
		msgs = append(msgs, m)
	}
	return msgs
}

func messageTypes(msgs []ServerMessage) []string {
	types := make([]string, 0, len(msgs))
	for _, m := range msgs {
		types = append(types, m.Type)
	}
	return types
}

// --- PromptGenerator ---

type fakePromptGen struct {
	prompts []string
}

func (f *fakePromptGen) Generate(count int) []string {
	return f.prompts
}

// --- ResultSaver ---

type recordingResultSaver struct {
	saved chan domain.RoundResult
}

func newRecordingResultSaver() *recordingResultSaver {
	return &recordingResultSaver{saved: make(chan domain.RoundResult, 8)}
}

func (f *recordingResultSaver) SaveRoundResult(_ context.Context, r domain.RoundResult) error {
	f.saved <- r
	return nil
}

// endlessSession yields the same frame on every read; used to park a read
// pump against a full inbox.
type endlessSession struct {
	frame []byte
}

func (e *endlessSession) Read() ([]byte, error) { return e.frame, nil }

func (e *endlessSession) Write(data []byte) error { return nil }

func (e *endlessSession) Ping() error { return nil }

func (e *endlessSession) Close(errCode string) {}

// --- LeaderboardReader ---

type MockLeaderboardReader struct {
	mock.Mock
}

func (m *MockLeaderboardReader) TopResults(ctx context.Context, limit int) ([]domain.RoundResult, error) {
	args := m.Called(ctx, limit)
	return args.Get(0).([]domain.RoundResult), args.Error(1)
}

// --- Lobby ---

type MockLobby struct {
	mock.Mock
}

func (m *MockLobby) RequestUpdateDescription(desc roomDescription) {
	m.Called(desc)
}

func (m *MockLobby) RemoveRoom(roomId string) {
	m.Called(roomId)
}

// --- RoomHandle ---

type MockRoomHandle struct {
	mock.Mock
}

func (m *MockRoomHandle) SetId(id string) {
	m.Called(id)
}

func (m *MockRoomHandle) SetParentLobby(l Lobby) {
	m.Called(l)
}

func (m *MockRoomHandle) Description() roomDescription {
	args := m.Called()
	return args.Get(0).(roomDescription)
}

func (m *MockRoomHandle) GameLoop() {
	m.Called()
}

func (m *MockRoomHandle) Tick(now time.Time) {
	m.Called(now)
}

func (m *MockRoomHandle) PingPlayers() {
	m.Called()
}

func (m *MockRoomHandle) RequestJoin(jreq roomJoinRequest) {
	m.Called(jreq)
}

func (m *MockRoomHandle) CloseAndRelease() {
	m.Called()
}

// --- UniqueIdGenerator ---

type MockUniqueIdGenerator struct {
	mock.Mock
}

func (m *MockUniqueIdGenerator) Generate() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockUniqueIdGenerator) Dispose(id string) {
	m.Called(id)
}

// --- PeriodicTickerChannelCreator ---

type MockPeriodicTickerChannelCreator struct {
	mock.Mock
}

func (m *MockPeriodicTickerChannelCreator) Create(duration time.Duration) <-chan time.Time {
	args := m.Called(duration)
	return args.Get(0).(chan time.Time)
}

// --- UserGetter ---

type MockUserGetter struct {
	mock.Mock
}

func (m *MockUserGetter) GetUserById(ctx context.Context, id string) (domain.User, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(domain.User), args.Error(1)
}

// --- LobbyService ---

type MockLobbyService struct {
	mock.Mock
}

func (m *MockLobbyService) RequestAddAndRunRoom(ctx context.Context, r RoomHandle) {
	m.Called(ctx, r)
}

func (m *MockLobbyService) ForwardPlayerJoinRequestToRoom(ctx context.Context, jreq roomJoinRequest) {
	m.Called(ctx, jreq)
}

func (m *MockLobbyService) GetPublicGames(ctx context.Context) []RoomInfo {
	args := m.Called(ctx)
	return args.Get(0).([]RoomInfo)
}
