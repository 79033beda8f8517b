package restiming

import (
	"slices"
	"strings"

	"github.com/RoaringBitmap/roaring/v2"

	"github.com/usestring/restiming-mcp/pkg/perf"
)

// AllInitiatorTypes disables initiator type filtering when passed alone.
const AllInitiatorTypes = "*"

// FilterOptions selects which entries survive filtering.
type FilterOptions struct {
	// From drops entries that started before this Unix millisecond time (0 = no bound).
	From float64
	// To stops at the first entry that started after this Unix millisecond time (0 = no bound).
	To float64
	// NavigationStart is the root time origin used to lift entry start times to Unix time.
	NavigationStart float64
	// InitiatorTypes keeps only the listed types; empty or ["*"] keeps all.
	InitiatorTypes []string
	// SelfURLs are the engine's own transport endpoints, matched as substrings.
	SelfURLs []string
}

// Select returns the positions of entries that pass the filter. Entries are
// expected in start-time order; selection stops at the first entry past To.
func Select(entries []perf.Entry, opts FilterOptions) *roaring.Bitmap {
	selected := roaring.New()
	wantTypes := initiatorFilter(opts.InitiatorTypes)

	for i, e := range entries {
		if strings.HasPrefix(e.Name, "about:") || strings.HasPrefix(e.Name, "javascript:") {
			continue
		}
		if isSelfURL(e.Name, opts.SelfURLs) {
			continue
		}

		started := opts.NavigationStart + e.StartTime
		if opts.From > 0 && started < opts.From {
			continue
		}
		if opts.To > 0 && started > opts.To {
			break
		}

		if wantTypes != nil {
			if e.InitiatorType == "" || !slices.Contains(wantTypes, e.InitiatorType) {
				continue
			}
		}

		selected.Add(uint32(i))
	}

	return selected
}

// Filter returns the entries that pass the filter, in their original order.
// Entries are copied, never modified.
func Filter(entries []perf.Entry, opts FilterOptions) []perf.Entry {
	selected := Select(entries, opts)
	out := make([]perf.Entry, 0, selected.GetCardinality())
	it := selected.Iterator()
	for it.HasNext() {
		out = append(out, entries[it.Next()])
	}
	return out
}

// initiatorFilter returns nil when no initiator filtering applies.
func initiatorFilter(types []string) []string {
	if len(types) == 0 {
		return nil
	}
	if len(types) == 1 && types[0] == AllInitiatorTypes {
		return nil
	}
	return types
}

func isSelfURL(name string, self []string) bool {
	for _, u := range self {
		if u != "" && strings.Contains(name, u) {
			return true
		}
	}
	return false
}
