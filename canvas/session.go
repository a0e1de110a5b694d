package canvas

// Surface is the capability a drawing surface exposes to the session. The
// session never touches rendering; it only moves serialized snapshots in
// and out. Serialize reports ok=false while the surface is not ready
// (e.g. the drawer has not sent a frame yet), which turns every history
// operation into a no-op.
type Surface interface {
	Serialize() (Snapshot, bool)
	Restore(Snapshot)
}

// Session ties one surface to its metrics tracker and history stack for
// the duration of a drawing turn. All methods are synchronous and must be
// called from the goroutine that owns the surface.
type Session struct {
	surface Surface
	tracker *Tracker
	history *History
}

type SessionOption func(*Session)

// WithHistoryDepth overrides the default undo depth.
func WithHistoryDepth(max int) SessionOption {
	return func(s *Session) {
		s.history = NewHistory(max)
	}
}

// WithTracker replaces the tracker, so tests can inject a fake clock.
func WithTracker(t *Tracker) SessionOption {
	return func(s *Session) {
		s.tracker = t
	}
}

func NewSession(surface Surface, opts ...SessionOption) *Session {
	s := &Session{
		surface: surface,
		tracker: NewTracker(),
		history: NewHistory(MaxHistory),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// StrokeStart saves the pre-stroke state, then records the stroke. The
// save must complete before the mutation it guards, so the ordering here
// is load-bearing.
func (s *Session) StrokeStart() {
	if snap, ok := s.serialize(); ok {
		s.history.SaveState(snap)
	}
	s.tracker.StrokeStart()
}

func (s *Session) PointerMove(x, y float64) {
	s.tracker.PointerMove(x, y)
}

func (s *Session) StrokeEnd() {
	s.tracker.StrokeEnd()
}

// Clear saves the pre-clear state and counts the wipe. Actually blanking
// the surface is the caller's mutation, same as stroke rendering.
func (s *Session) Clear() {
	if snap, ok := s.serialize(); ok {
		s.history.SaveState(snap)
	}
	s.tracker.Clear()
}

// Undo restores the previous snapshot. Returns false (and changes
// nothing) when there is no history or no ready surface — disabled-button
// semantics, never an error.
func (s *Session) Undo() bool {
	cur, ok := s.serialize()
	if !ok {
		return false
	}
	prev, ok := s.history.Undo(cur)
	if !ok {
		return false
	}
	s.surface.Restore(prev)
	s.tracker.Undo()
	return true
}

// Redo re-applies the most recently undone snapshot.
func (s *Session) Redo() bool {
	cur, ok := s.serialize()
	if !ok {
		return false
	}
	next, ok := s.history.Redo(cur)
	if !ok {
		return false
	}
	s.surface.Restore(next)
	return true
}

// Metrics returns the current tracker reading.
func (s *Session) Metrics() Metrics {
	return s.tracker.Snapshot()
}

// Scores derives the normalized behavioral scores for the commentary
// engine. timeRemainingPct comes from the round countdown.
func (s *Session) Scores(timeRemainingPct float64) Scores {
	return ComputeScores(s.tracker.Snapshot(), timeRemainingPct)
}

// CurrentSnapshot exposes the surface state for relaying to late joiners.
// Returns an empty snapshot and false when the surface is not ready.
func (s *Session) CurrentSnapshot() (Snapshot, bool) {
	return s.serialize()
}

func (s *Session) CanUndo() bool { return s.history.CanUndo() }

func (s *Session) CanRedo() bool { return s.history.CanRedo() }

func (s *Session) serialize() (Snapshot, bool) {
	if s.surface == nil {
		return nil, false
	}
	return s.surface.Serialize()
}
