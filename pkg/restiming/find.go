package restiming

import (
	"regexp"
	"strings"

	"github.com/usestring/restiming-mcp/pkg/perf"
)

// Slowest asks FindResource for the resource with the longest duration.
const Slowest = "slowest"

// MatchURLPattern reports whether url matches pattern, where "*" matches
// any run of characters and matching is case-insensitive. An empty pattern
// matches everything.
func MatchURLPattern(pattern, url string) bool {
	if pattern == "" {
		return true
	}
	return compileURLPattern(pattern).MatchString(url)
}

func compileURLPattern(pattern string) *regexp.Regexp {
	parts := strings.Split(pattern, "*")
	for i, p := range parts {
		parts[i] = regexp.QuoteMeta(p)
	}
	// Quoted parts joined by ".*" always compile.
	return regexp.MustCompile("(?i)^" + strings.Join(parts, ".*") + "$")
}

// FindResource looks up one resource entry by URL, searching root first and
// then its sub-contexts depth-first. url may be an exact name, a "*"
// pattern, or Slowest to pick the longest resource of the first context
// that has any. Entries are returned as the owning context reported them.
func FindResource(root perf.Context, url string) (perf.Entry, bool) {
	if root == nil || url == "" {
		return perf.Entry{}, false
	}

	type item struct {
		ctx   perf.Context
		depth int
	}
	stack := []item{{ctx: root}}

	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if e, ok := findInContext(cur.ctx, url); ok {
			return e, true
		}

		if cur.depth+1 >= MaxFrameDepth {
			continue
		}
		subs, err := cur.ctx.SubContexts()
		if err != nil {
			continue
		}
		for i := len(subs) - 1; i >= 0; i-- {
			if subs[i] != nil {
				stack = append(stack, item{ctx: subs[i], depth: cur.depth + 1})
			}
		}
	}
	return perf.Entry{}, false
}

func findInContext(ctx perf.Context, url string) (perf.Entry, bool) {
	if url != Slowest {
		exact, err := ctx.EntriesByName(url)
		if err != nil {
			return perf.Entry{}, false
		}
		if len(exact) > 0 {
			return exact[0], true
		}
	}

	resources, err := ctx.EntriesByType(perf.TypeResource)
	if err != nil {
		return perf.Entry{}, false
	}

	if url == Slowest {
		var best perf.Entry
		found := false
		for _, r := range resources {
			if !found || r.Duration > best.Duration {
				best, found = r, true
			}
		}
		return best, found
	}

	re := compileURLPattern(url)
	for _, r := range resources {
		if r.Name != "" && re.MatchString(r.Name) {
			return r, true
		}
	}
	return perf.Entry{}, false
}
