// Package tools contains MCP tool implementations for resource timing snapshots.
package tools

import (
	"math"

	"github.com/usestring/restiming-mcp/pkg/perf"
)

// MIME type constant.
const MimeJSON = "application/json"

// ResourceTiming is the tool-facing view of one resource entry. Times are
// milliseconds relative to the top-level time origin, rounded to 0.1ms.
type ResourceTiming struct {
	URL                   string  `json:"url"`
	InitiatorType         string  `json:"initiator_type,omitempty"`
	StartTime             float64 `json:"start_time"`
	Duration              float64 `json:"duration,omitempty"`
	FetchStart            float64 `json:"fetch_start,omitempty"`
	DomainLookupStart     float64 `json:"domain_lookup_start,omitempty"`
	DomainLookupEnd       float64 `json:"domain_lookup_end,omitempty"`
	ConnectStart          float64 `json:"connect_start,omitempty"`
	SecureConnectionStart float64 `json:"secure_connection_start,omitempty"`
	ConnectEnd            float64 `json:"connect_end,omitempty"`
	RequestStart          float64 `json:"request_start,omitempty"`
	ResponseStart         float64 `json:"response_start,omitempty"`
	ResponseEnd           float64 `json:"response_end,omitempty"`
	RedirectStart         float64 `json:"redirect_start,omitempty"`
	RedirectEnd           float64 `json:"redirect_end,omitempty"`
}

// ToResourceTiming converts a perf entry for tool output.
func ToResourceTiming(e perf.Entry) ResourceTiming {
	return ResourceTiming{
		URL:                   e.Name,
		InitiatorType:         e.InitiatorType,
		StartTime:             round1(e.StartTime),
		Duration:              round1(e.Duration),
		FetchStart:            round1(e.FetchStart),
		DomainLookupStart:     round1(e.DomainLookupStart),
		DomainLookupEnd:       round1(e.DomainLookupEnd),
		ConnectStart:          round1(e.ConnectStart),
		SecureConnectionStart: round1(e.SecureConnectionStart),
		ConnectEnd:            round1(e.ConnectEnd),
		RequestStart:          round1(e.RequestStart),
		ResponseStart:         round1(e.ResponseStart),
		ResponseEnd:           round1(e.ResponseEnd),
		RedirectStart:         round1(e.RedirectStart),
		RedirectEnd:           round1(e.RedirectEnd),
	}
}

func round1(v float64) float64 {
	return math.Round(perf.Number(v)*10) / 10
}

// clampLimit applies a default and an upper bound to a caller supplied limit.
func clampLimit(v, def, max int) int {
	if v <= 0 {
		v = def
	}
	if max > 0 && v > max {
		v = max
	}
	return v
}
