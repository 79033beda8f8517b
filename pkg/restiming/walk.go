package restiming

import (
	"log/slog"

	"github.com/usestring/restiming-mcp/pkg/perf"
)

// MaxFrameDepth bounds how deep the walker descends into nested contexts.
// The root sits at depth 0; contexts at depth MaxFrameDepth or deeper are
// ignored.
const MaxFrameDepth = 10

// walkItem is one pending context on the walker's stack.
type walkItem struct {
	ctx      perf.Context
	offset   float64
	navStart float64 // last readable time origin on the path from root
	depth    int
	expanded bool
}

// Walk collects the resource entries of root and every nested context,
// re-based onto root's time origin. Sub-contexts are emitted before the
// context that contains them; the top-level document contributes one
// synthesized "html" entry.
//
// Contexts that refuse access are skipped without failing the walk.
func Walk(root perf.Context) []perf.Entry {
	if root == nil {
		return nil
	}

	var entries []perf.Entry
	stack := []*walkItem{{ctx: root, navStart: navigationStart(root)}}

	for len(stack) > 0 {
		item := stack[len(stack)-1]

		if item.expanded {
			stack = stack[:len(stack)-1]
			entries = append(entries, contextEntries(item.ctx, item.depth == 0, item.offset)...)
			continue
		}
		item.expanded = true

		if item.depth+1 >= MaxFrameDepth {
			continue
		}

		subs, err := item.ctx.SubContexts()
		if err != nil {
			slog.Debug("listing sub-contexts failed",
				slog.String("url", safeURL(item.ctx)),
				slog.String("error", err.Error()),
			)
			continue
		}

		// Push in reverse so the first child is visited first.
		for i := len(subs) - 1; i >= 0; i-- {
			sub := subs[i]
			if sub == nil {
				continue
			}
			next := &walkItem{
				ctx:      sub,
				offset:   item.offset,
				navStart: item.navStart,
				depth:    item.depth + 1,
			}
			// A sub-context that started later reads behind the root clock.
			if subStart := navigationStart(sub); subStart > item.navStart {
				next.offset += subStart - item.navStart
				next.navStart = subStart
			}
			stack = append(stack, next)
		}
	}

	return entries
}

// contextEntries snapshots one context's own entries.
func contextEntries(ctx perf.Context, isTop bool, offset float64) []perf.Entry {
	resources, err := ctx.EntriesByType(perf.TypeResource)
	if err != nil {
		slog.Debug("skipping inaccessible context",
			slog.String("url", safeURL(ctx)),
			slog.String("error", err.Error()),
		)
		return nil
	}

	out := make([]perf.Entry, 0, len(resources)+1)
	if isTop {
		if nav, ok := documentEntry(ctx); ok {
			out = append(out, nav)
		}
	}

	for _, r := range resources {
		out = append(out, shiftEntry(r, offset))
	}
	return out
}

// documentEntry synthesizes the entry describing the top-level document,
// preferring the navigation entry over the legacy timing object.
func documentEntry(ctx perf.Context) (perf.Entry, bool) {
	doc := perf.Entry{
		Name:          ctx.URL(),
		InitiatorType: perf.InitiatorHTML,
	}

	navs, err := ctx.EntriesByType(perf.TypeNavigation)
	if err == nil && len(navs) == 1 {
		n := navs[0]
		doc.Duration = perf.Number(n.Duration)
		doc.RedirectStart = perf.Number(n.RedirectStart)
		doc.RedirectEnd = perf.Number(n.RedirectEnd)
		doc.FetchStart = perf.Number(n.FetchStart)
		doc.DomainLookupStart = perf.Number(n.DomainLookupStart)
		doc.DomainLookupEnd = perf.Number(n.DomainLookupEnd)
		doc.ConnectStart = perf.Number(n.ConnectStart)
		doc.SecureConnectionStart = perf.Number(n.SecureConnectionStart)
		doc.ConnectEnd = perf.Number(n.ConnectEnd)
		doc.RequestStart = perf.Number(n.RequestStart)
		doc.ResponseStart = perf.Number(n.ResponseStart)
		doc.ResponseEnd = perf.Number(n.ResponseEnd)
		return doc, true
	}

	t, err := ctx.LegacyTiming()
	if err != nil || t == nil {
		return perf.Entry{}, false
	}

	rel := func(v float64) float64 {
		v = perf.Number(v)
		if v == 0 {
			return 0
		}
		return v - perf.Number(t.NavigationStart)
	}
	doc.RedirectStart = rel(t.RedirectStart)
	doc.RedirectEnd = rel(t.RedirectEnd)
	doc.FetchStart = rel(t.FetchStart)
	doc.DomainLookupStart = rel(t.DomainLookupStart)
	doc.DomainLookupEnd = rel(t.DomainLookupEnd)
	doc.ConnectStart = rel(t.ConnectStart)
	doc.SecureConnectionStart = rel(t.SecureConnectionStart)
	doc.ConnectEnd = rel(t.ConnectEnd)
	doc.RequestStart = rel(t.RequestStart)
	doc.ResponseStart = rel(t.ResponseStart)
	doc.ResponseEnd = rel(t.ResponseEnd)
	doc.Duration = doc.ResponseEnd
	return doc, true
}

// shiftEntry re-bases e by offset. Absent phases stay 0.
func shiftEntry(e perf.Entry, offset float64) perf.Entry {
	e.StartTime = perf.Number(e.StartTime) + offset
	e.Duration = perf.Number(e.Duration)
	for _, p := range e.Phases() {
		if v := perf.Number(*p); v != 0 {
			*p = v + offset
		} else {
			*p = 0
		}
	}
	return e
}

// navigationStart returns ctx's time origin, or 0 when it cannot be read.
func navigationStart(ctx perf.Context) float64 {
	start, err := ctx.NavigationStart()
	if err != nil {
		return 0
	}
	return perf.Number(start)
}

func safeURL(ctx perf.Context) string {
	if ctx == nil {
		return ""
	}
	return ctx.URL()
}
