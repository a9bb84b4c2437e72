package models

import "time"

// Analysis represents one completed food-safety analysis record.
type Analysis struct {
	ID        int64     `json:"id"`
	Filename  string    `json:"filename"`
	Source    string    `json:"source"` // "upload" or "camera"
	Verdict   string    `json:"verdict"`
	Model     string    `json:"model"`
	Timestamp time.Time `json:"timestamp"`
	FilePath  string    `json:"filepath"`
	FileSize  int64     `json:"filesize"`
}

// AnalysisFilter contains filtering options for querying past analyses.
type AnalysisFilter struct {
	Source    string
	Search    string // Substring match against the verdict text
	StartDate time.Time
	EndDate   time.Time
	Limit     int
	Offset    int
}

// AnalysisStats contains statistics about stored analyses.
type AnalysisStats struct {
	TotalAnalyses  int            `json:"total_analyses"`
	TotalSizeBytes int64          `json:"total_size_bytes"`
	PerSource      map[string]int `json:"per_source"`
}
