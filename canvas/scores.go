package canvas

// Trend describes the short-term direction of the player's drawing pace.
type Trend string

const (
	TrendRising  Trend = "rising"
	TrendFalling Trend = "falling"
	TrendStable  Trend = "stable"
)

// Scores are the normalized behavioral readings the commentary engine
// consumes. All fractional fields are clamped to [0, 1].
type Scores struct {
	Confidence float64 `json:"confidence"`
	Efficiency float64 `json:"efficiency"`
	Clarity    float64 `json:"clarity"`
	Panic      bool    `json:"panic"`
	RedrawRate float64 `json:"redraw_rate"`
	Trend      Trend   `json:"trend"`
}

// ComputeScores derives Scores from one metrics reading plus the fraction
// of round time remaining. Pure, no side effects. The constants are tuned
// game balance values; changing any of them changes observable commentary
// behavior.
func ComputeScores(m Metrics, timeRemainingPct float64) Scores {
	strokes := float64(m.StrokeCount)

	confidence := clamp01(strokes/40 + m.AverageSpeed/200 - m.HesitationSeconds/10)
	efficiency := clamp01(strokes / (m.TotalDrawingMs/1000 + 1) * 5)
	clarity := clamp01(strokes / 25)

	trend := TrendStable
	switch {
	case m.AverageSpeed > 60:
		trend = TrendRising
	case m.HesitationSeconds > 3:
		trend = TrendFalling
	}

	return Scores{
		Confidence: confidence,
		Efficiency: efficiency,
		Clarity:    clarity,
		Panic:      timeRemainingPct < 0.15 && m.AverageSpeed > 120,
		RedrawRate: float64(m.UndoCount) / (strokes + 1),
		Trend:      trend,
	}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
