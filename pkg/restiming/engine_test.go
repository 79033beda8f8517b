package restiming

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/usestring/restiming-mcp/pkg/perf"
)

// EngineLifecycleTestSuite drives an engine through page lifecycle events.
type EngineLifecycleTestSuite struct {
	suite.Suite
	page   *perf.Frame
	beacon *MemoryBeacon
	engine *Engine
}

func (s *EngineLifecycleTestSuite) SetupTest() {
	s.page = &perf.Frame{
		Location: "https://example.com/",
		NavStart: 1000,
		Navigation: &perf.Entry{
			Name:          "https://example.com/",
			FetchStart:    1,
			ResponseStart: 40,
			ResponseEnd:   60,
		},
		Resources: []perf.Entry{
			{Name: "https://example.com/app.js", InitiatorType: "script", StartTime: 100, FetchStart: 100, ResponseEnd: 250, ResponseStart: 200, RequestStart: 180},
			{Name: "https://beacon.example.com/b?x=1", InitiatorType: "img", StartTime: 150},
			{Name: "javascript:void(0)", InitiatorType: "other", StartTime: 160},
			{Name: "https://example.com/late.png", InitiatorType: "img", StartTime: 900},
		},
		Frames: []*perf.Frame{{
			Location:  "https://example.com/frame",
			NavStart:  1200,
			Resources: []perf.Entry{{Name: "https://example.com/in-frame.png", InitiatorType: "img", StartTime: 50}},
		}},
	}
	s.beacon = NewMemoryBeacon()

	opts := DefaultOptions()
	opts.SelfURLs = []string{"https://beacon.example.com/b"}
	opts.ClearOnBeacon = true

	var err error
	s.engine, err = New(s.page, s.beacon, opts)
	s.Require().NoError(err)
}

func (s *EngineLifecycleTestSuite) attached() map[string]string {
	raw, ok := s.beacon.Var(VarName)
	s.Require().True(ok, "resource timing not attached")
	var trie Node
	s.Require().NoError(json.Unmarshal([]byte(raw), &trie))
	return Expand(&trie)
}

func (s *EngineLifecycleTestSuite) TestSupported() {
	s.True(s.engine.Supported())
	s.False(s.engine.Complete())
}

func (s *EngineLifecycleTestSuite) TestPageReadyAttachesTrie() {
	s.engine.PageReady()

	got := s.attached()
	s.Equal("32s,46,2s,28", got["https://example.com/app.js"])
	s.Equal("6,1o,14", got["https://example.com/"])
	s.Equal("16y", got["https://example.com/in-frame.png"])
	s.Contains(got, "https://example.com/late.png")
	s.NotContains(got, "https://beacon.example.com/b?x=1")
	s.NotContains(got, "javascript:void(0)")

	s.True(s.engine.Complete())
	s.Equal(1, s.beacon.Sent())
}

func (s *EngineLifecycleTestSuite) TestDoneRunsOnce() {
	s.engine.PageReady()
	s.engine.BeforeUnload()
	s.engine.PageReady()
	s.Equal(1, s.beacon.Sent())
}

func (s *EngineLifecycleTestSuite) TestStaleValueReplaced() {
	s.beacon.AddVar(VarName, "stale")
	s.engine.BeforeUnload()

	raw, ok := s.beacon.Var(VarName)
	s.Require().True(ok)
	s.NotEqual("stale", raw)
}

func (s *EngineLifecycleTestSuite) TestXHRLoadBeforePageReady() {
	s.engine.XHRLoad()
	s.True(s.engine.Complete())
	s.Equal(1, s.beacon.Sent())
	_, ok := s.beacon.Var(VarName)
	s.False(ok)

	s.engine.XHRLoad()
	s.Equal(1, s.beacon.Sent())

	// The navigation beacon still goes out once.
	s.engine.PageReady()
	s.Equal(2, s.beacon.Sent())
	_, ok = s.beacon.Var(VarName)
	s.True(ok)
}

func (s *EngineLifecycleTestSuite) TestOnBeaconClears() {
	s.engine.PageReady()
	s.engine.OnBeacon(s.beacon.Vars())

	_, ok := s.beacon.Var(VarName)
	s.False(ok)
	s.Nil(s.page.Resources)
}

func (s *EngineLifecycleTestSuite) TestFilteredResourceTimingBounds() {
	// Unix bounds: root origin is 1000.
	got := s.engine.FilteredResourceTiming(1050, 0, nil)
	s.Equal([]string{
		"https://example.com/in-frame.png",
		"https://example.com/app.js",
		"https://example.com/late.png",
	}, names(got))

	// Walk order is sub-frames first, so the bound stops at the first late entry.
	got = s.engine.FilteredResourceTiming(0, 1300, nil)
	s.Equal([]string{
		"https://example.com/in-frame.png",
		"https://example.com/",
		"https://example.com/app.js",
	}, names(got))

	got = s.engine.FilteredResourceTiming(0, 0, []string{"img"})
	s.Equal([]string{"https://example.com/in-frame.png", "https://example.com/late.png"}, names(got))
}

func (s *EngineLifecycleTestSuite) TestUnionDuration() {
	entries := s.engine.FilteredResourceTiming(0, 0, []string{"html", "script"})
	s.Equal(139.0, s.engine.UnionDuration(entries))
}

func TestEngineLifecycleTestSuite(t *testing.T) {
	suite.Run(t, new(EngineLifecycleTestSuite))
}

func TestNew_UnsupportedHost(t *testing.T) {
	beacon := NewMemoryBeacon()
	e, err := New(&perf.Frame{Location: "https://old.example/", Unsupported: true}, beacon, DefaultOptions())
	require.NoError(t, err)

	assert.False(t, e.Supported())
	assert.True(t, e.Complete())
	assert.Nil(t, e.FilteredResourceTiming(0, 0, nil))

	e.PageReady()
	_, ok := beacon.Var(VarName)
	assert.False(t, ok)
	assert.Equal(t, 1, beacon.Sent())
}

func TestNew_NilRoot(t *testing.T) {
	e, err := New(nil, nil, Options{})
	require.NoError(t, err)
	assert.False(t, e.Supported())
	e.PageReady()
	e.OnBeacon(nil)
}

func TestNew_InvalidBreakWords(t *testing.T) {
	_, err := New(&perf.Frame{}, nil, Options{XSSBreakWords: []string{"(x)"}})
	assert.Error(t, err)
}

func TestEngine_EmptyPageAttachesEmptyTrie(t *testing.T) {
	beacon := NewMemoryBeacon()
	e, err := New(&perf.Frame{Location: "about:blank"}, beacon, DefaultOptions())
	require.NoError(t, err)

	e.PageReady()
	raw, ok := beacon.Var(VarName)
	require.True(t, ok)
	assert.Equal(t, "{}", raw)
}
