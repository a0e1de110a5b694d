package game

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	roomsActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "sketchmaster_rooms_active",
		Help: "Number of rooms currently registered in the lobby.",
	})

	strokesRelayed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "sketchmaster_strokes_relayed_total",
		Help: "Stroke-start messages relayed to guessers.",
	})

	undoOperations = promauto.NewCounter(prometheus.CounterOpts{
		Name: "sketchmaster_undo_operations_total",
		Help: "Applied undo/redo operations across all rooms.",
	})

	commentaryBeats = promauto.NewCounter(prometheus.CounterOpts{
		Name: "sketchmaster_commentary_beats_total",
		Help: "Commentary remarks broadcast to rooms.",
	})
)
