package game

import (
	"math/rand"
	"strings"
	"sync"
)

const roomIdAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

const roomIdLength = 6

// Idgen hands out short join codes that stay unique until disposed.
type Idgen struct {
	ids    map[string]struct{}
	locker sync.Mutex
}

func NewIdGen() *Idgen {
	return &Idgen{ids: make(map[string]struct{})}
}

func (idgen *Idgen) Generate() string {
	idgen.locker.Lock()
	defer idgen.locker.Unlock()

	for {
		var sb strings.Builder
		for i := 0; i < roomIdLength; i++ {
			sb.WriteByte(roomIdAlphabet[rand.Intn(len(roomIdAlphabet))])
		}
		id := sb.String()
		if _, taken := idgen.ids[id]; !taken {
			idgen.ids[id] = struct{}{}
			return id
		}
	}
}

func (idgen *Idgen) Dispose(id string) {
	idgen.locker.Lock()
	defer idgen.locker.Unlock()
	delete(idgen.ids, id)
}
