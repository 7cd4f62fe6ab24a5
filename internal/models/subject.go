package models

// Subject levels.
const (
	LevelBeginner     = "Beginner"
	LevelIntermediate = "Intermediate"
	LevelAdvanced     = "Advanced"
)

// Subject is a teachable topic at a level. Copies embedded in profiles,
// sessions and resources are independent snapshots of the catalog entry.
type Subject struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Level       string  `json:"level"`
	TutorID     string  `json:"tutor_id,omitempty"`
	HourlyRate  float64 `json:"hourly_rate,omitempty"`
	Description string  `json:"description,omitempty"`
}

// Availability is a weekly time window, e.g. {"Monday", "09:00", "12:00"}.
type Availability struct {
	Day       string `json:"day"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
}
