package game

import "github.com/UnknownRpg/Sketch-Master-AI/canvas"

// replicaSurface is the server's copy of the drawer's canvas: the latest
// serialized blob the client reported. It backs the canvas.Session so
// undo history works server-side without the server ever rendering
// anything. Not ready until the drawer has sent a first frame.
type replicaSurface struct {
	blob  canvas.Snapshot
	ready bool
}

func (s *replicaSurface) Set(blob canvas.Snapshot) {
	s.blob = blob
	s.ready = true
}

func (s *replicaSurface) Serialize() (canvas.Snapshot, bool) {
	if !s.ready {
		return nil, false
	}
	return s.blob, true
}

func (s *replicaSurface) Restore(snap canvas.Snapshot) {
	s.blob = snap
}
