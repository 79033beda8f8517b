package restiming

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/usestring/restiming-mcp/pkg/perf"
)

// EntrySeparator joins multiple encoded timings recorded for the same URL.
const EntrySeparator = "|"

// initiatorCodes maps initiator types to their single-digit wire codes.
var initiatorCodes = map[string]int{
	perf.InitiatorOther:          0,
	perf.InitiatorImg:            1,
	perf.InitiatorLink:           2,
	perf.InitiatorScript:         3,
	perf.InitiatorCSS:            4,
	perf.InitiatorXMLHTTPRequest: 5,
	perf.InitiatorHTML:           6,
}

// initiatorNames is the inverse of initiatorCodes.
var initiatorNames = func() map[int]string {
	m := make(map[int]string, len(initiatorCodes))
	for name, code := range initiatorCodes {
		m[code] = name
	}
	return m
}()

// InitiatorCode returns the wire code for an initiator type. Unknown types
// map to the code for "other".
func InitiatorCode(initiatorType string) int {
	return initiatorCodes[initiatorType]
}

// InitiatorType returns the initiator type for a wire code.
func InitiatorType(code int) string {
	if name, ok := initiatorNames[code]; ok {
		return name
	}
	return perf.InitiatorOther
}

// jsRound rounds half up, the way browsers round timestamps.
func jsRound(v float64) int64 {
	return int64(math.Floor(perf.Number(v) + 0.5))
}

// TrimTiming returns t as whole milliseconds since start. A timestamp that
// rounds to zero is treated as absent and yields 0.
func TrimTiming(t, start float64) int64 {
	tMs := jsRound(t)
	if tMs == 0 {
		return 0
	}
	return tMs - jsRound(start)
}

// ToBase36 encodes n in base 36. Zero encodes as the empty string so runs
// of absent fields collapse into trailing commas that can be trimmed.
func ToBase36(n int64) string {
	if n == 0 {
		return ""
	}
	return strconv.FormatInt(n, 36)
}

// Encode compresses one entry into "<initiator code><base36 fields>".
//
// Fields are ordered from most to least likely to be present: start time,
// then responseEnd, responseStart, requestStart, connectEnd,
// secureConnectionStart, connectStart, domainLookupEnd, domainLookupStart,
// redirectEnd and redirectStart as deltas from the start time.
func Encode(e perf.Entry) string {
	fields := [...]int64{
		TrimTiming(e.StartTime, 0),
		TrimTiming(e.ResponseEnd, e.StartTime),
		TrimTiming(e.ResponseStart, e.StartTime),
		TrimTiming(e.RequestStart, e.StartTime),
		TrimTiming(e.ConnectEnd, e.StartTime),
		TrimTiming(e.SecureConnectionStart, e.StartTime),
		TrimTiming(e.ConnectStart, e.StartTime),
		TrimTiming(e.DomainLookupEnd, e.StartTime),
		TrimTiming(e.DomainLookupStart, e.StartTime),
		TrimTiming(e.RedirectEnd, e.StartTime),
		TrimTiming(e.RedirectStart, e.StartTime),
	}

	var sb strings.Builder
	sb.WriteString(strconv.Itoa(InitiatorCode(e.InitiatorType)))
	parts := make([]string, len(fields))
	for i, f := range fields {
		parts[i] = ToBase36(f)
	}
	sb.WriteString(strings.TrimRight(strings.Join(parts, ","), ","))
	return sb.String()
}

// Timing is a decoded resource timing record. Values are whole milliseconds
// relative to the root time origin; 0 means the field was absent.
type Timing struct {
	InitiatorType         string `json:"initiator_type"`
	StartTime             int64  `json:"start_time"`
	ResponseEnd           int64  `json:"response_end,omitempty"`
	ResponseStart         int64  `json:"response_start,omitempty"`
	RequestStart          int64  `json:"request_start,omitempty"`
	ConnectEnd            int64  `json:"connect_end,omitempty"`
	SecureConnectionStart int64  `json:"secure_connection_start,omitempty"`
	ConnectStart          int64  `json:"connect_start,omitempty"`
	DomainLookupEnd       int64  `json:"domain_lookup_end,omitempty"`
	DomainLookupStart     int64  `json:"domain_lookup_start,omitempty"`
	RedirectEnd           int64  `json:"redirect_end,omitempty"`
	RedirectStart         int64  `json:"redirect_start,omitempty"`
}

// ParseFields splits one encoded timing into its initiator code and raw
// field values (start time first, then deltas). Missing fields are 0.
func ParseFields(s string) (code int, fields []int64, err error) {
	if s == "" {
		return 0, nil, fmt.Errorf("empty timing")
	}
	code, err = strconv.Atoi(s[:1])
	if err != nil {
		return 0, nil, fmt.Errorf("invalid initiator code %q", s[:1])
	}

	rest := s[1:]
	if rest == "" {
		return code, nil, nil
	}
	raw := strings.Split(rest, ",")
	fields = make([]int64, len(raw))
	for i, r := range raw {
		if r == "" {
			continue
		}
		v, err := strconv.ParseInt(r, 36, 64)
		if err != nil {
			return 0, nil, fmt.Errorf("invalid field %d %q: %w", i, r, err)
		}
		fields[i] = v
	}
	return code, fields, nil
}

// DecodeTiming reverses Encode for a single timing.
func DecodeTiming(s string) (Timing, error) {
	code, fields, err := ParseFields(s)
	if err != nil {
		return Timing{}, err
	}

	field := func(i int) int64 {
		if i < len(fields) {
			return fields[i]
		}
		return 0
	}
	start := field(0)
	abs := func(i int) int64 {
		d := field(i)
		if d == 0 {
			return 0
		}
		return start + d
	}

	return Timing{
		InitiatorType:         InitiatorType(code),
		StartTime:             start,
		ResponseEnd:           abs(1),
		ResponseStart:         abs(2),
		RequestStart:          abs(3),
		ConnectEnd:            abs(4),
		SecureConnectionStart: abs(5),
		ConnectStart:          abs(6),
		DomainLookupEnd:       abs(7),
		DomainLookupStart:     abs(8),
		RedirectEnd:           abs(9),
		RedirectStart:         abs(10),
	}, nil
}

// DecodeTimings decodes a "|"-joined payload.
func DecodeTimings(payload string) ([]Timing, error) {
	parts := strings.Split(payload, EntrySeparator)
	out := make([]Timing, 0, len(parts))
	for _, p := range parts {
		t, err := DecodeTiming(p)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, nil
}
