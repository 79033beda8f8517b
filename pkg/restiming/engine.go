package restiming

import (
	"fmt"
	"log/slog"

	"github.com/usestring/restiming-mcp/pkg/perf"
)

// VarName is the beacon key the compressed trie is attached under.
const VarName = "restiming"

// Beacon is the outgoing key/value payload the engine contributes to.
type Beacon interface {
	AddVar(key, value string)
	RemoveVar(key string)
	SendBeacon()
}

// Options configures an Engine. The zero value is usable; see DefaultOptions.
type Options struct {
	// XSSBreakWords are two-group regexes split by XSSBreakDelim. Nil uses
	// DefaultXSSBreakWords; an empty non-nil slice disables breaking.
	XSSBreakWords []string
	// URLLimit truncates longer URLs before trie insertion. 0 uses DefaultURLLimit.
	URLLimit int
	// ClearOnBeacon clears the host resource buffer after each beacon.
	ClearOnBeacon bool
	// SelfURLs are the beacon and config endpoints excluded from collection.
	SelfURLs []string
	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

// DefaultOptions returns the engine defaults.
func DefaultOptions() Options {
	return Options{
		XSSBreakWords: DefaultXSSBreakWords,
		URLLimit:      DefaultURLLimit,
	}
}

// Engine collects and compresses resource timings for one page session.
// It is not safe for concurrent use; hosts drive it from lifecycle events.
type Engine struct {
	root          perf.Context
	beacon        Beacon
	rules         BreakRules
	urlLimit      int
	clearOnBeacon bool
	selfURLs      []string
	log           *slog.Logger

	supported     bool
	complete      bool
	sentNavBeacon bool
}

// New creates an engine reading from root and writing to beacon. A host
// without a performance timeline yields an engine that is complete at once
// and never contributes a payload.
func New(root perf.Context, beacon Beacon, opts Options) (*Engine, error) {
	words := opts.XSSBreakWords
	if words == nil {
		words = DefaultXSSBreakWords
	}
	rules, err := CompileBreakRules(words)
	if err != nil {
		return nil, fmt.Errorf("configuring break words: %w", err)
	}

	limit := opts.URLLimit
	if limit <= 0 {
		limit = DefaultURLLimit
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if beacon == nil {
		beacon = discardBeacon{}
	}

	e := &Engine{
		root:          root,
		beacon:        beacon,
		rules:         rules,
		urlLimit:      limit,
		clearOnBeacon: opts.ClearOnBeacon,
		selfURLs:      opts.SelfURLs,
		log:           logger.With(slog.String("component", "restiming")),
	}

	e.supported = hostSupported(root)
	if !e.supported {
		e.log.Info("host has no resource timing support")
		e.complete = true
	}
	return e, nil
}

func hostSupported(root perf.Context) bool {
	if root == nil {
		return false
	}
	_, err := root.EntriesByType(perf.TypeResource)
	return err == nil
}

// Supported reports whether the host exposes resource timing.
func (e *Engine) Supported() bool {
	return e.supported
}

// Complete reports whether the engine has finished contributing to the
// current page load.
func (e *Engine) Complete() bool {
	return e.complete
}

// FilteredResourceTiming walks the host and returns the entries that pass
// the given bounds. from and to are Unix milliseconds, 0 for no bound.
func (e *Engine) FilteredResourceTiming(from, to float64, initiatorTypes []string) []perf.Entry {
	if !e.supported {
		return nil
	}
	entries := Walk(e.root)
	if len(entries) == 0 {
		return nil
	}
	return Filter(entries, FilterOptions{
		From:            from,
		To:              to,
		NavigationStart: navigationStart(e.root),
		InitiatorTypes:  initiatorTypes,
		SelfURLs:        e.selfURLs,
	})
}

// CompressedResourceTiming returns the optimized trie of every entry in the
// given bounds. The trie is empty when nothing matched.
func (e *Engine) CompressedResourceTiming(from, to float64) *Node {
	return Compress(e.FilteredResourceTiming(from, to, nil), e.rules, e.urlLimit)
}

// UnionDuration returns the time covered by entries with overlaps counted once.
func (e *Engine) UnionDuration(entries []perf.Entry) float64 {
	return UnionDuration(IntervalsOf(entries))
}

// Compress encodes entries, keys them by cleaned URL and returns the
// optimized trie. Entries sharing a URL are joined with EntrySeparator in
// input order.
func Compress(entries []perf.Entry, rules BreakRules, urlLimit int) *Node {
	payloads := make(map[string]string, len(entries))
	for _, entry := range entries {
		data := Encode(entry)
		url := CleanupURL(entry.Name, urlLimit)
		if url == "" {
			continue
		}
		if prev, ok := payloads[url]; ok {
			payloads[url] = prev + EntrySeparator + data
		} else {
			payloads[url] = data
		}
	}
	return OptimizeTrie(Build(payloads, rules))
}

// PageReady handles the page-ready event.
func (e *Engine) PageReady() {
	e.done()
}

// BeforeUnload handles the pre-unload event.
func (e *Engine) BeforeUnload() {
	e.done()
}

// XHRLoad handles an XHR completion before page ready. The engine marks
// itself complete so it does not hold the beacon.
func (e *Engine) XHRLoad() {
	if e.complete {
		return
	}
	e.complete = true
	e.beacon.SendBeacon()
}

// done attaches the compressed trie and sends the navigation beacon once.
func (e *Engine) done() {
	if e.sentNavBeacon {
		return
	}

	e.beacon.RemoveVar(VarName)
	if e.supported {
		trie := e.CompressedResourceTiming(0, 0)
		data, err := trie.MarshalJSON()
		if err != nil {
			e.log.Warn("encoding resource timing trie failed", slog.String("error", err.Error()))
		} else {
			e.beacon.AddVar(VarName, string(data))
			e.log.Debug("attached resource timing", slog.Int("bytes", len(data)))
		}
	}

	e.complete = true
	e.sentNavBeacon = true
	e.beacon.SendBeacon()
}

// OnBeacon runs after a beacon is sent: it drops the attached trie and,
// when configured, clears the host's resource buffer.
func (e *Engine) OnBeacon(vars map[string]string) {
	if _, ok := vars[VarName]; ok {
		e.beacon.RemoveVar(VarName)
	}

	if !e.clearOnBeacon || e.root == nil {
		return
	}
	if c, ok := e.root.(perf.Clearer); ok {
		c.ClearResourceTimings()
		e.log.Debug("cleared host resource timings")
	}
}

type discardBeacon struct{}

func (discardBeacon) AddVar(string, string) {}
func (discardBeacon) RemoveVar(string)      {}
func (discardBeacon) SendBeacon()           {}
