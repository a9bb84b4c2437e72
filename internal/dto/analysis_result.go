package dto

import "time"

// AnalysisResult is the payload returned to the UI after a successful analysis.
type AnalysisResult struct {
	Verdict   string    `json:"verdict"`
	Filename  string    `json:"filename,omitempty"`
	Source    string    `json:"source"`
	Model     string    `json:"model"`
	Timestamp time.Time `json:"timestamp"`
}

// ErrorResponse is the payload returned for any failed analysis. Kind is one
// of "input", "config", "provider" or "transport"; Status and Body are only
// present for provider-side rejections.
type ErrorResponse struct {
	Error  string `json:"error"`
	Kind   string `json:"kind"`
	Status int    `json:"status,omitempty"`
	Body   string `json:"body,omitempty"`
}
