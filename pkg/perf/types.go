package perf

import (
	"errors"
	"math"
)

// Entry types accepted by Context.EntriesByType.
const (
	TypeResource   = "resource"
	TypeNavigation = "navigation"
)

// Initiator types reported by hosts.
const (
	InitiatorOther          = "other"
	InitiatorImg            = "img"
	InitiatorLink           = "link"
	InitiatorScript         = "script"
	InitiatorCSS            = "css"
	InitiatorXMLHTTPRequest = "xmlhttprequest"
	InitiatorHTML           = "html"
)

var (
	// ErrSecurity is returned when a cross-origin context refuses access to its
	// performance buffer.
	ErrSecurity = errors.New("perf: cross-origin access denied")

	// ErrUnsupported is returned when a context has no performance API.
	ErrUnsupported = errors.New("perf: performance timeline not supported")
)

// Entry is one resource timing record. Timestamps are milliseconds relative
// to the time origin of the context that reported it; 0 means not available.
type Entry struct {
	Name                  string  `json:"name"`
	InitiatorType         string  `json:"initiatorType,omitempty"`
	StartTime             float64 `json:"startTime,omitempty"`
	Duration              float64 `json:"duration,omitempty"`
	RedirectStart         float64 `json:"redirectStart,omitempty"`
	RedirectEnd           float64 `json:"redirectEnd,omitempty"`
	FetchStart            float64 `json:"fetchStart,omitempty"`
	DomainLookupStart     float64 `json:"domainLookupStart,omitempty"`
	DomainLookupEnd       float64 `json:"domainLookupEnd,omitempty"`
	ConnectStart          float64 `json:"connectStart,omitempty"`
	SecureConnectionStart float64 `json:"secureConnectionStart,omitempty"`
	ConnectEnd            float64 `json:"connectEnd,omitempty"`
	RequestStart          float64 `json:"requestStart,omitempty"`
	ResponseStart         float64 `json:"responseStart,omitempty"`
	ResponseEnd           float64 `json:"responseEnd,omitempty"`
}

// Phases returns pointers to every phase timestamp (all but StartTime and
// Duration) so callers can rewrite them uniformly.
func (e *Entry) Phases() []*float64 {
	return []*float64{
		&e.RedirectStart,
		&e.RedirectEnd,
		&e.FetchStart,
		&e.DomainLookupStart,
		&e.DomainLookupEnd,
		&e.ConnectStart,
		&e.SecureConnectionStart,
		&e.ConnectEnd,
		&e.RequestStart,
		&e.ResponseStart,
		&e.ResponseEnd,
	}
}

// LegacyTiming is the epoch-based navigation timing object older hosts expose
// instead of a navigation entry. All values are Unix milliseconds.
type LegacyTiming struct {
	NavigationStart       float64 `json:"navigationStart"`
	RedirectStart         float64 `json:"redirectStart,omitempty"`
	RedirectEnd           float64 `json:"redirectEnd,omitempty"`
	FetchStart            float64 `json:"fetchStart,omitempty"`
	DomainLookupStart     float64 `json:"domainLookupStart,omitempty"`
	DomainLookupEnd       float64 `json:"domainLookupEnd,omitempty"`
	ConnectStart          float64 `json:"connectStart,omitempty"`
	SecureConnectionStart float64 `json:"secureConnectionStart,omitempty"`
	ConnectEnd            float64 `json:"connectEnd,omitempty"`
	RequestStart          float64 `json:"requestStart,omitempty"`
	ResponseStart         float64 `json:"responseStart,omitempty"`
	ResponseEnd           float64 `json:"responseEnd,omitempty"`
}

// Context is the capability a host exposes for one browsing context.
//
// Implementations return ErrSecurity for cross-origin contexts and
// ErrUnsupported when the context has no performance timeline. Returned
// slices are owned by the caller.
type Context interface {
	// URL is the document location of this context.
	URL() string
	// NavigationStart is the context's time origin in Unix milliseconds.
	NavigationStart() (float64, error)
	// SubContexts lists the nested browsing contexts in document order.
	SubContexts() ([]Context, error)
	// EntriesByType returns entries of the given type in start-time order.
	EntriesByType(typ string) ([]Entry, error)
	// EntriesByName returns resource entries whose name equals name.
	EntriesByName(name string) ([]Entry, error)
	// LegacyTiming returns the epoch navigation timing, or nil.
	LegacyTiming() (*LegacyTiming, error)
}

// Clearer is implemented by contexts whose resource buffer can be cleared.
type Clearer interface {
	ClearResourceTimings()
}

// Number returns v, or 0 when v is NaN or infinite.
func Number(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}
