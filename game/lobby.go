package game

import (
	"context"
	"time"
)

// RoomInfo is the public listing entry for the games browser.
type RoomInfo struct {
	Id           string `json:"id"`
	PlayersCount int    `json:"playersCount"`
	MaxPlayers   int    `json:"maxPlayers"`
	Started      bool   `json:"started"`
}

type lobby struct {
	rooms                map[string]RoomHandle
	pubRoomsDescriptions map[string]roomDescription
	addAndRunRoomChan    chan RoomHandle
	removeRoomChan       chan string
	pubGamesReq          chan chan []RoomInfo
	roomDescUpdate       chan roomDescription
	roomJoinReqs         chan roomJoinRequest
	idGenerator          UniqueIdGenerator
	tickerCreator        PeriodicTickerChannelCreator
}

func NewLobby(idgen UniqueIdGenerator, tickerCreator PeriodicTickerChannelCreator) *lobby {
	return &lobby{
		rooms:                map[string]RoomHandle{},
		pubRoomsDescriptions: map[string]roomDescription{},
		addAndRunRoomChan:    make(chan RoomHandle, 32),
		removeRoomChan:       make(chan string, 32),
		pubGamesReq:          make(chan chan []RoomInfo, 256),
		roomDescUpdate:       make(chan roomDescription, 256),
		roomJoinReqs:         make(chan roomJoinRequest, 256),
		idGenerator:          idgen,
		tickerCreator:        tickerCreator,
	}
}

func (l *lobby) RequestUpdateDescription(desc roomDescription) {
	select {
	case l.roomDescUpdate <- desc:
	default:
	}
}

func (l *lobby) RequestAddAndRunRoom(ctx context.Context, r RoomHandle) {
	select {
	case l.addAndRunRoomChan <- r:
	case <-ctx.Done():
	}
}

func (l *lobby) ForwardPlayerJoinRequestToRoom(ctx context.Context, jreq roomJoinRequest) {
	select {
	case <-ctx.Done():
	case l.roomJoinReqs <- jreq:
	}
}

func (l *lobby) RemoveRoom(roomId string) {
	l.removeRoomChan <- roomId
}

func (l *lobby) GetPublicGames(ctx context.Context) []RoomInfo {
	respChan := make(chan []RoomInfo, 1)
	select {
	case l.pubGamesReq <- respChan:
		select {
		case resp := <-respChan:
			return resp
		case <-ctx.Done():
			return nil
		}
	case <-ctx.Done():
		return nil
	}
}

func (l *lobby) LobbyActor(started chan struct{}) {
	ticker := l.tickerCreator.Create(time.Second)
	pingTicker := l.tickerCreator.Create(time.Second * 30)

	close(started)

	for {
		select {
		case now := <-ticker:
			for _, r := range l.rooms {
				r.Tick(now)
			}
		case <-pingTicker:
			for _, r := range l.rooms {
				r.PingPlayers()
			}

		case room := <-l.addAndRunRoomChan:
			l.handleAddAndRunRoom(room)

		case roomId := <-l.removeRoomChan:
			l.handleRemoveRoom(roomId)

		case desc := <-l.roomDescUpdate:
			if _, live := l.rooms[desc.id]; live {
				l.pubRoomsDescriptions[desc.id] = desc
			}

		case pubGamesReq := <-l.pubGamesReq:
			l.handleGetPublicRoomsDescription(pubGamesReq)

		case joinReq := <-l.roomJoinReqs:
			l.handleJoinReq(joinReq)
		}
	}
}

func (l *lobby) handleAddAndRunRoom(r RoomHandle) {
	id := l.idGenerator.Generate()
	r.SetParentLobby(l)

	l.rooms[id] = r
	r.SetId(id)
	rDesc := r.Description()
	go r.GameLoop()
	roomsActive.Inc()
	if rDesc.private {
		return
	}
	l.pubRoomsDescriptions[id] = rDesc
}

func (l *lobby) handleRemoveRoom(toRemoveId string) {
	room, ok := l.rooms[toRemoveId]
	if !ok {
		return
	}
	delete(l.rooms, toRemoveId)
	delete(l.pubRoomsDescriptions, toRemoveId)
	room.CloseAndRelease()
	l.idGenerator.Dispose(toRemoveId)
	roomsActive.Dec()
}

func (l *lobby) handleGetPublicRoomsDescription(req chan []RoomInfo) {
	infos := make([]RoomInfo, 0, len(l.pubRoomsDescriptions))
	for _, desc := range l.pubRoomsDescriptions {
		infos = append(infos, RoomInfo{
			Id:           desc.id,
			PlayersCount: desc.playersCount,
			MaxPlayers:   desc.maxPlayers,
			Started:      desc.started,
		})
	}

	req <- infos
}

func (l *lobby) handleJoinReq(joinReq roomJoinRequest) {
	room, ok := l.rooms[joinReq.roomId]
	if !ok {
		joinReq.errChan <- ErrRoomNotFound
		return
	}
	room.RequestJoin(joinReq)
}
