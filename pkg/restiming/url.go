package restiming

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

// XSSBreakDelim is inserted into break words. It cannot appear in a cleaned
// URL, so it is unambiguous when the trie is decoded.
const XSSBreakDelim = "\n"

// DefaultURLLimit is the maximum URL length kept before truncation.
const DefaultURLLimit = 1000

// DefaultXSSBreakWords split "href", "src" and "action" after their first
// letter. Each pattern must have two capture groups; the delimiter goes
// between them.
var DefaultXSSBreakWords = []string{
	`(?i)(h)(ref)`,
	`(?i)(s)(rc)`,
	`(?i)(a)(ction)`,
}

var urlControlChars = strings.NewReplacer("\r", "", "\n", "", "\t", "", EntrySeparator, "%7C")

// CleanupURL prepares a URL for use as a trie key. Control characters are
// removed and "|" is percent-encoded. URLs longer than limit characters keep
// their path with the query replaced by "?..." when the query starts within
// the limit, otherwise they are cut at limit-3 characters and suffixed with
// "...". Cuts always fall on a rune boundary.
func CleanupURL(url string, limit int) string {
	url = urlControlChars.Replace(url)
	if limit <= 0 || utf8.RuneCountInString(url) <= limit {
		return url
	}

	if q := strings.IndexByte(url, '?'); q != -1 && utf8.RuneCountInString(url[:q]) < limit {
		return url[:q] + "?..."
	}
	return url[:runeOffset(url, limit-3)] + "..."
}

// runeOffset returns the byte offset of the n-th rune of s, or len(s) when
// s has fewer runes.
func runeOffset(s string, n int) int {
	if n <= 0 {
		return 0
	}
	i := 0
	for off := range s {
		if i == n {
			return off
		}
		i++
	}
	return len(s)
}

// BreakRules is a compiled set of XSS break words.
type BreakRules []*regexp.Regexp

// CompileBreakRules compiles break word patterns. Every pattern needs at
// least two capture groups.
func CompileBreakRules(patterns []string) (BreakRules, error) {
	rules := make(BreakRules, 0, len(patterns))
	for _, p := range patterns {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("compiling break word %q: %w", p, err)
		}
		if re.NumSubexp() < 2 {
			return nil, fmt.Errorf("break word %q needs two capture groups", p)
		}
		rules = append(rules, re)
	}
	return rules, nil
}

// MustCompileBreakRules is like CompileBreakRules but panics on error.
func MustCompileBreakRules(patterns []string) BreakRules {
	rules, err := CompileBreakRules(patterns)
	if err != nil {
		panic(err)
	}
	return rules
}

// Apply inserts XSSBreakDelim between the two groups of every match.
func (r BreakRules) Apply(url string) string {
	for _, re := range r {
		url = re.ReplaceAllString(url, "${1}"+XSSBreakDelim+"${2}")
	}
	return url
}

// Unbreak removes every break delimiter from s.
func Unbreak(s string) string {
	return strings.ReplaceAll(s, XSSBreakDelim, "")
}
