package game

import (
	"encoding/json"

	"golang.org/x/time/rate"
)

type Player struct {
	id          string
	username    string
	rateLimiter *rate.Limiter
	socket      NetworkSession
	inbox       chan []byte
	pingChan    chan struct{}
	room        *Room
}

func NewPlayer(id, username string, socket NetworkSession) *Player {
	return &Player{
		id:       id,
		username: username,
		// Pointer traffic during a stroke is bursty; the limiter is there
		// to stop floods, not to throttle honest drawing.
		rateLimiter: rate.NewLimiter(120, 240),
		socket:      socket,
		inbox:       make(chan []byte, 256),
		pingChan:    make(chan struct{}, 1),
	}
}

func (p *Player) Id() string {
	return p.id
}

func (p *Player) Username() string {
	return p.username
}

func (p *Player) SetRoom(r *Room) {
	p.room = r
}

// Send queues data for the write pump, dropping on a full inbox so one
// slow client never stalls the room actor.
func (p *Player) Send(data []byte) {
	if data == nil {
		return
	}
	select {
	case p.inbox <- data:
	default:
	}
}

// RequestPing is non-blocking for the same reason as Send.
func (p *Player) RequestPing() {
	select {
	case p.pingChan <- struct{}{}:
	default:
	}
}

// ReadPump decodes client envelopes and forwards them to the room actor.
// It exits on the first socket error, which triggers removal, or when the
// room shuts down while the inbox is full.
func (p *Player) ReadPump() {
	room := p.room

loop:
	for {
		data, err := p.socket.Read()
		if err != nil {
			break
		}

		if !p.rateLimiter.Allow() {
			continue
		}

		var msg ClientMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			continue
		}

		select {
		case room.inbox <- clientMessageEnvelope{msg: msg, raw: data, from: p}:
		case <-room.done:
			break loop
		}
	}

	room.RequestRemovePlayer(p)
}

func (p *Player) WritePump() {
loop:
	for {
		select {
		case data, ok := <-p.inbox:
			if !ok {
				break loop
			}
			if err := p.socket.Write(data); err != nil {
				break loop
			}
		case _, ok := <-p.pingChan:
			if !ok {
				break loop
			}
			if err := p.socket.Ping(); err != nil {
				break loop
			}
		}
	}
}

// CloseAndRelease shuts the socket and both pump channels.
func (p *Player) CloseAndRelease(errCode string) {
	p.socket.Close(errCode)
	close(p.inbox)
	close(p.pingChan)
}
