package canvas

import (
	"math"
	"time"
)

// Metrics is an immutable reading of a Tracker, taken with Snapshot().
type Metrics struct {
	StrokeCount       int
	AverageSpeed      float64
	HesitationSeconds float64
	TotalDrawingMs    float64
	ClearCount        int
	UndoCount         int
	Drawing           bool
	LastStrokeAt      time.Time
}

// Tracker accumulates per-stroke statistics for one drawing surface.
// It is owned by a single surface and is not safe for concurrent use;
// every call happens on the owning room's goroutine.
type Tracker struct {
	now func() time.Time

	strokeCount    int
	lastStrokeTime time.Time
	strokeStartedAt time.Time
	drawing        bool

	hesitationSeconds float64
	totalDrawing      time.Duration
	clearCount        int
	undoCount         int

	// averageSpeed is the (prev+dist)/2 recurrence over consecutive pointer
	// samples, not a true mean. Downstream score thresholds are tuned
	// against this exact recurrence.
	averageSpeed float64
	lastX, lastY float64
	hasLastPoint bool
}

type TrackerOption func(*Tracker)

// WithClock replaces the wall clock, for tests.
func WithClock(now func() time.Time) TrackerOption {
	return func(t *Tracker) {
		t.now = now
	}
}

func NewTracker(opts ...TrackerOption) *Tracker {
	t := &Tracker{now: time.Now}
	for _, opt := range opts {
		opt(t)
	}
	t.lastStrokeTime = t.now()
	return t
}

// StrokeStart records the beginning of a pointer-down-to-pointer-up gesture.
func (t *Tracker) StrokeStart() {
	t.strokeCount++
	t.strokeStartedAt = t.now()
	t.drawing = true
}

// PointerMove folds one pointer sample into the speed estimate. The first
// sample of a stroke only seeds the reference point.
func (t *Tracker) PointerMove(x, y float64) {
	if t.hasLastPoint {
		dist := math.Hypot(x-t.lastX, y-t.lastY)
		t.averageSpeed = (t.averageSpeed + dist) / 2
	}
	t.lastX, t.lastY = x, y
	t.hasLastPoint = true
}

// StrokeEnd closes the current stroke and accumulates its duration.
func (t *Tracker) StrokeEnd() {
	if !t.drawing {
		return
	}
	now := t.now()
	t.totalDrawing += now.Sub(t.strokeStartedAt)
	t.lastStrokeTime = now
	t.drawing = false
	t.hasLastPoint = false
}

func (t *Tracker) Clear() {
	t.clearCount++
}

func (t *Tracker) Undo() {
	t.undoCount++
}

// Snapshot returns a copy of the current counters. Hesitation is
// recomputed from the wall clock only between strokes; mid-stroke it keeps
// the value frozen at the last stroke boundary.
func (t *Tracker) Snapshot() Metrics {
	if !t.drawing {
		t.hesitationSeconds = t.now().Sub(t.lastStrokeTime).Seconds()
		if t.hesitationSeconds < 0 {
			t.hesitationSeconds = 0
		}
	}
	return Metrics{
		StrokeCount:       t.strokeCount,
		AverageSpeed:      t.averageSpeed,
		HesitationSeconds: t.hesitationSeconds,
		TotalDrawingMs:    float64(t.totalDrawing.Milliseconds()),
		ClearCount:        t.clearCount,
		UndoCount:         t.undoCount,
		Drawing:           t.drawing,
		LastStrokeAt:      t.lastStrokeTime,
	}
}
