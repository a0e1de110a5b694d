package domain

type User struct {
	Id           string
	Username     string
	PasswordHash string
}

// RoundResult is one player's outcome for one drawing turn, persisted at
// the end of the turn together with the final behavioral readings.
type RoundResult struct {
	RoomId      string  `json:"room_id"`
	Username    string  `json:"username"`
	Prompt      string  `json:"prompt"`
	Points      int     `json:"points"`
	StrokeCount int     `json:"stroke_count"`
	AvgSpeed    float64 `json:"avg_speed"`
	UndoCount   int     `json:"undo_count"`
	Confidence  float64 `json:"confidence"`
	Efficiency  float64 `json:"efficiency"`
	Clarity     float64 `json:"clarity"`
}
