package client

import (
	"errors"
	"fmt"
	"net/http"
)

// LatestSnapshot is the identifier the collector resolves to its most
// recently captured snapshot.
const LatestSnapshot = "latest"

// SnapshotInfo describes one snapshot held by the collector.
type SnapshotInfo struct {
	ID         string `json:"id"`
	URL        string `json:"url"`
	CapturedAt int64  `json:"captured_at"` // Unix milliseconds
	UserAgent  string `json:"user_agent,omitempty"`
	Frames     int    `json:"frames"`
	Entries    int    `json:"entries"`
}

// APIError represents an error response from the collector.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("collector API error %d: %s", e.StatusCode, e.Message)
}

// IsNotFound reports whether err is a collector 404.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound
}

// errorResponse is the JSON structure for API errors.
type errorResponse struct {
	Error string `json:"error"`
}
