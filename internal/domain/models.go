package domain

import "time"

// Outcome is the result of fetching one endpoint once.
type Outcome struct {
	EndpointID string    `json:"endpoint_id"`
	URL        string    `json:"url"`
	StatusCode int       `json:"status_code,omitempty"`
	Bytes      int       `json:"bytes"`
	Digest     string    `json:"digest"`
	Summary    string    `json:"summary,omitempty"`
	Error      string    `json:"error,omitempty"`
	FetchedAt  time.Time `json:"fetched_at"`
	ElapsedMs  int64     `json:"elapsed_ms"`
}

// Failed reports whether the fetch or decode step failed.
func (o Outcome) Failed() bool { return o.Error != "" }

// Key identifies the outcome for change detection.
func (o Outcome) Key() string { return o.EndpointID + ":" + o.Digest }
