package restiming

import (
	"sort"

	"github.com/usestring/restiming-mcp/pkg/perf"
)

// Interval is the fetch window of one resource.
type Interval struct {
	FetchStart    float64 `json:"fetch_start"`
	ResponseStart float64 `json:"response_start,omitempty"`
	ResponseEnd   float64 `json:"response_end,omitempty"`
}

// End is responseStart when present, else responseEnd.
func (iv Interval) End() float64 {
	if iv.ResponseStart != 0 {
		return iv.ResponseStart
	}
	return iv.ResponseEnd
}

// IntervalsOf converts entries to intervals sorted by fetch start.
func IntervalsOf(entries []perf.Entry) []Interval {
	out := make([]Interval, len(entries))
	for i, e := range entries {
		out[i] = Interval{
			FetchStart:    perf.Number(e.FetchStart),
			ResponseStart: perf.Number(e.ResponseStart),
			ResponseEnd:   perf.Number(e.ResponseEnd),
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].FetchStart < out[j].FetchStart
	})
	return out
}

// UnionDuration returns the wall-clock time covered by intervals, counting
// overlapping time once. Intervals must be sorted by FetchStart.
func UnionDuration(intervals []Interval) float64 {
	var total float64
	for i, a := range intervals {
		aEnd := a.End()
		total += aEnd - a.FetchStart

		for _, b := range intervals[i+1:] {
			if b.FetchStart >= aEnd {
				// Sorted input: nothing later overlaps a either.
				break
			}
			total -= min(aEnd, b.End()) - b.FetchStart
		}
	}
	return total
}
