package restiming

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/usestring/restiming-mcp/pkg/perf"
)

func sampleEntries() []perf.Entry {
	return []perf.Entry{
		{Name: "https://example.com/", InitiatorType: "html", StartTime: 0},
		{Name: "javascript:void(0)", InitiatorType: "other", StartTime: 5},
		{Name: "about:blank", InitiatorType: "other", StartTime: 6},
		{Name: "https://example.com/app.js", InitiatorType: "script", StartTime: 10},
		{Name: "https://example.com/logo.png", InitiatorType: "img", StartTime: 20},
		{Name: "https://beacon.example.com/b?v=1", InitiatorType: "img", StartTime: 30},
		{Name: "https://example.com/api", InitiatorType: "xmlhttprequest", StartTime: 40},
	}
}

func TestFilter(t *testing.T) {
	tests := []struct {
		name string
		opts FilterOptions
		want []string
	}{
		{
			name: "no bounds drops scheme urls",
			want: []string{
				"https://example.com/",
				"https://example.com/app.js",
				"https://example.com/logo.png",
				"https://beacon.example.com/b?v=1",
				"https://example.com/api",
			},
		},
		{
			name: "self urls excluded",
			opts: FilterOptions{SelfURLs: []string{"beacon.example.com/b", ""}},
			want: []string{
				"https://example.com/",
				"https://example.com/app.js",
				"https://example.com/logo.png",
				"https://example.com/api",
			},
		},
		{
			name: "from bound uses navigation start",
			opts: FilterOptions{NavigationStart: 1000, From: 1020},
			want: []string{
				"https://example.com/logo.png",
				"https://beacon.example.com/b?v=1",
				"https://example.com/api",
			},
		},
		{
			name: "to bound stops scanning",
			opts: FilterOptions{NavigationStart: 1000, To: 1015},
			want: []string{
				"https://example.com/",
				"https://example.com/app.js",
			},
		},
		{
			name: "initiator types",
			opts: FilterOptions{InitiatorTypes: []string{"img", "script"}},
			want: []string{
				"https://example.com/app.js",
				"https://example.com/logo.png",
				"https://beacon.example.com/b?v=1",
			},
		},
		{
			name: "wildcard initiator type keeps all",
			opts: FilterOptions{InitiatorTypes: []string{AllInitiatorTypes}},
			want: []string{
				"https://example.com/",
				"https://example.com/app.js",
				"https://example.com/logo.png",
				"https://beacon.example.com/b?v=1",
				"https://example.com/api",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, names(Filter(sampleEntries(), tt.opts)))
		})
	}
}

func TestFilter_JavascriptAlwaysDropped(t *testing.T) {
	entries := []perf.Entry{{Name: "javascript:alert(1)", InitiatorType: "script", StartTime: 10}}
	opts := FilterOptions{InitiatorTypes: []string{"script"}, From: 1, NavigationStart: 1000}
	assert.Empty(t, Filter(entries, opts))
}

func TestFilter_ToBreaksOnUnsortedInput(t *testing.T) {
	entries := []perf.Entry{
		{Name: "a", StartTime: 10},
		{Name: "b", StartTime: 500},
		{Name: "c", StartTime: 20},
	}
	assert.Equal(t, []string{"a"}, names(Filter(entries, FilterOptions{To: 100})))
}

func TestSelect_Positions(t *testing.T) {
	sel := Select(sampleEntries(), FilterOptions{InitiatorTypes: []string{"img"}})
	require.Equal(t, uint64(2), sel.GetCardinality())
	assert.Equal(t, []uint32{4, 5}, sel.ToArray())
}

func TestFilter_DoesNotModifyInput(t *testing.T) {
	entries := sampleEntries()
	out := Filter(entries, FilterOptions{})
	out[0].Name = "changed"
	assert.Equal(t, "https://example.com/", entries[0].Name)
}
