package dto

import (
	"encoding/json"
	"time"
)

// AnalysisInfo represents metadata about a stored analysis for list views.
type AnalysisInfo struct {
	Name      string    `json:"name"`
	Date      time.Time `json:"date"`
	TimeOfDay time.Time `json:"timeOfDay"`
	Source    string    `json:"source"`
	Verdict   string    `json:"verdict"`
}

// MarshalJSON customizes JSON output for AnalysisInfo to format date and time-of-day.
func (a AnalysisInfo) MarshalJSON() ([]byte, error) {
	type Alias AnalysisInfo
	return json.Marshal(&struct {
		Date      string `json:"date"`
		TimeOfDay string `json:"timeOfDay"`
		Alias
	}{
		Date:      a.Date.Format("02-01-2006"),
		TimeOfDay: a.TimeOfDay.Format("15:04"),
		Alias:     (Alias)(a),
	})
}
