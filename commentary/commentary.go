// Package commentary turns behavioral score readings into the remarks and
// point awards the voice layer speaks. The synthesis itself (TTS, AI SDK)
// lives client-side; this engine decides what gets said and what it is
// worth.
package commentary

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/UnknownRpg/Sketch-Master-AI/canvas"
)

// Remark is one commentary beat: a line to speak and the points it awards
// to the drawer.
type Remark struct {
	Text   string `json:"text"`
	Points int    `json:"points"`
}

type Engine struct {
	rng        *rand.Rand
	pointScale float64
}

type Option func(*Engine)

// WithRand injects the line-picking source, for deterministic tests.
func WithRand(rng *rand.Rand) Option {
	return func(e *Engine) {
		e.rng = rng
	}
}

// WithPointScale adjusts how generous the awards are.
func WithPointScale(scale float64) Option {
	return func(e *Engine) {
		if scale > 0 {
			e.pointScale = scale
		}
	}
}

func New(opts ...Option) *Engine {
	e := &Engine{
		rng:        rand.New(rand.NewSource(rand.Int63())),
		pointScale: 1,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

var (
	panicLines = []string{
		"%s is in full panic mode, the pen is a blur!",
		"Clock's almost out and %s is scribbling for dear life!",
		"This is not drawing anymore, %s, this is damage control!",
	}
	secondGuessLines = []string{
		"%s keeps hitting undo... commitment issues?",
		"That's another undo from %s. The canvas has trust issues now.",
		"%s is redrawing more than drawing at this point.",
	}
	confidentLines = []string{
		"%s is absolutely locked in, every stroke lands!",
		"Masterful pace from %s, not a hint of doubt.",
		"%s draws like they've rehearsed this exact prompt.",
	}
	stalledLines = []string{
		"%s has gone quiet... thinking, or lost?",
		"Long pause from %s. The canvas is getting cold.",
		"%s is staring at the canvas. The canvas stares back.",
	}
	steadyLines = []string{
		"Steady work from %s, shape is coming together.",
		"%s keeps a calm rhythm, stroke by stroke.",
		"Nothing flashy from %s, just honest sketching.",
	}
)

// Comment picks a remark for the current reading. Band order matters:
// panic beats everything, chronic undoing beats confidence.
func (e *Engine) Comment(player string, s canvas.Scores) Remark {
	var lines []string
	switch {
	case s.Panic:
		lines = panicLines
	case s.RedrawRate > 0.5:
		lines = secondGuessLines
	case s.Confidence >= 0.75:
		lines = confidentLines
	case s.Trend == canvas.TrendFalling:
		lines = stalledLines
	default:
		lines = steadyLines
	}

	line := lines[e.rng.Intn(len(lines))]

	return Remark{
		Text:   fmt.Sprintf(line, player),
		Points: e.award(s),
	}
}

// award converts clamped scores into a small integer payout per beat.
// Panic still pays a sympathy point so a frantic finish is never worth
// nothing.
func (e *Engine) award(s canvas.Scores) int {
	if s.Panic {
		return 1
	}
	raw := s.Confidence*3 + s.Clarity*2 + s.Efficiency
	pts := int(math.Round(raw * e.pointScale))
	if pts < 0 {
		pts = 0
	}
	return pts
}
