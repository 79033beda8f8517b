package perf

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleSnapshot = `{
  "url": "https://example.com/",
  "navigationStart": 1000,
  "navigation": {"name": "https://example.com/", "responseEnd": 120},
  "resources": [
    {"name": "https://example.com/a.js", "initiatorType": "script", "startTime": 10, "responseEnd": 40},
    {"name": "https://example.com/b.css", "initiatorType": "link", "startTime": 12, "responseEnd": 30}
  ],
  "frames": [
    {"url": "https://ads.example.net/", "crossOrigin": true,
     "frames": [{"url": "https://ads.example.net/inner", "navigationStart": 1300}]}
  ]
}`

func TestParseFrame(t *testing.T) {
	f, err := ParseFrame([]byte(sampleSnapshot))
	require.NoError(t, err)

	assert.Equal(t, "https://example.com/", f.URL())
	nav, err := f.NavigationStart()
	require.NoError(t, err)
	assert.Equal(t, 1000.0, nav)

	frames, entries := f.Stats()
	assert.Equal(t, 3, frames)
	assert.Equal(t, 2, entries)
}

func TestParseFrame_Invalid(t *testing.T) {
	_, err := ParseFrame([]byte(`{"url": 5}`))
	assert.Error(t, err)
}

func TestFrame_EntriesByType(t *testing.T) {
	f, err := ParseFrame([]byte(sampleSnapshot))
	require.NoError(t, err)

	res, err := f.EntriesByType(TypeResource)
	require.NoError(t, err)
	require.Len(t, res, 2)

	// Returned slice is a copy
	res[0].Name = "mutated"
	assert.Equal(t, "https://example.com/a.js", f.Resources[0].Name)

	nav, err := f.EntriesByType(TypeNavigation)
	require.NoError(t, err)
	require.Len(t, nav, 1)
	assert.Equal(t, 120.0, nav[0].ResponseEnd)

	other, err := f.EntriesByType("mark")
	require.NoError(t, err)
	assert.Empty(t, other)
}

func TestFrame_CrossOrigin(t *testing.T) {
	f, err := ParseFrame([]byte(sampleSnapshot))
	require.NoError(t, err)

	subs, err := f.SubContexts()
	require.NoError(t, err)
	require.Len(t, subs, 1)

	ads := subs[0]
	_, err = ads.EntriesByType(TypeResource)
	assert.ErrorIs(t, err, ErrSecurity)
	_, err = ads.NavigationStart()
	assert.ErrorIs(t, err, ErrSecurity)
	_, err = ads.EntriesByName("x")
	assert.ErrorIs(t, err, ErrSecurity)

	// Children of a cross-origin frame remain reachable
	inner, err := ads.SubContexts()
	require.NoError(t, err)
	require.Len(t, inner, 1)
	start, err := inner[0].NavigationStart()
	require.NoError(t, err)
	assert.Equal(t, 1300.0, start)
}

func TestFrame_Unsupported(t *testing.T) {
	f := &Frame{Location: "https://old.example/", Unsupported: true}
	_, err := f.EntriesByType(TypeResource)
	assert.ErrorIs(t, err, ErrUnsupported)
}

func TestFrame_NavigationStartFallsBackToLegacy(t *testing.T) {
	f := &Frame{Timing: &LegacyTiming{NavigationStart: 5000}}
	nav, err := f.NavigationStart()
	require.NoError(t, err)
	assert.Equal(t, 5000.0, nav)

	lt, err := f.LegacyTiming()
	require.NoError(t, err)
	lt.NavigationStart = 1
	assert.Equal(t, 5000.0, f.Timing.NavigationStart)
}

func TestFrame_EntriesByNameAndClear(t *testing.T) {
	f, err := ParseFrame([]byte(sampleSnapshot))
	require.NoError(t, err)

	got, err := f.EntriesByName("https://example.com/b.css")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "link", got[0].InitiatorType)

	f.ClearResourceTimings()
	got, err = f.EntriesByType(TypeResource)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestNumber(t *testing.T) {
	tests := []struct {
		name string
		in   float64
		want float64
	}{
		{"finite", 12.5, 12.5},
		{"zero", 0, 0},
		{"nan", math.NaN(), 0},
		{"inf", math.Inf(1), 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Number(tt.in))
		})
	}
}
