package loader

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/usestring/restiming-mcp/internal/cache"
)

const pageDoc = `{
  "url": "https://example.com/",
  "navigationStart": 1000,
  "resources": [
    {"name": "https://example.com/app.js", "initiatorType": "script", "startTime": 100, "responseEnd": 250}
  ],
  "frames": [
    {"url": "https://example.com/f", "navigationStart": 1200,
     "resources": [{"name": "https://example.com/f.png", "initiatorType": "img", "startTime": 5}]}
  ]
}`

type fakeFetcher struct {
	docs  map[string]string
	calls atomic.Int32
	delay time.Duration
}

func (f *fakeFetcher) GetSnapshotRaw(ctx context.Context, id string) ([]byte, error) {
	f.calls.Add(1)
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	doc, ok := f.docs[id]
	if !ok {
		return nil, errors.New("snapshot not found")
	}
	return []byte(doc), nil
}

func newLoader(t *testing.T, fetcher SnapshotFetcher, cfg Config) *Loader {
	t.Helper()
	c, err := cache.NewSnapshotCache(8)
	require.NoError(t, err)
	l, err := New(fetcher, c, cfg)
	require.NoError(t, err)
	return l
}

func TestLoad_Inline(t *testing.T) {
	l := newLoader(t, nil, Config{})

	snap, err := l.Load(context.Background(), Inline(pageDoc))
	require.NoError(t, err)
	assert.Len(t, snap.ID, 16)
	assert.Equal(t, "inline", snap.Source)
	assert.Equal(t, 2, snap.Frames)
	assert.Equal(t, 2, snap.Entries)
	assert.Equal(t, "https://example.com/", snap.Frame.Location)

	cached, ok := l.Cache().Get(snap.ID)
	require.True(t, ok)
	assert.Same(t, snap, cached)
}

func TestLoad_SameContentSameID(t *testing.T) {
	l := newLoader(t, nil, Config{})

	a, err := l.Load(context.Background(), Inline(pageDoc))
	require.NoError(t, err)

	compact := `{"url":"https://example.com/","navigationStart":1000,"resources":[{"name":"https://example.com/app.js","initiatorType":"script","startTime":100,"responseEnd":250}],"frames":[{"url":"https://example.com/f","navigationStart":1200,"resources":[{"name":"https://example.com/f.png","initiatorType":"img","startTime":5}]}]}`
	b, err := l.Load(context.Background(), Inline(compact))
	require.NoError(t, err)

	assert.Equal(t, a.ID, b.ID)
	assert.Same(t, a, b)
	assert.Equal(t, 1, l.Cache().Len())
}

func TestLoad_ReloadBecomesLatest(t *testing.T) {
	l := newLoader(t, nil, Config{})

	a, err := l.Load(context.Background(), Inline(pageDoc))
	require.NoError(t, err)
	other := `{"url": "https://other.example/"}`
	b, err := l.Load(context.Background(), Inline(other))
	require.NoError(t, err)

	latest, ok := l.Cache().Latest()
	require.True(t, ok)
	assert.Equal(t, b.ID, latest.ID)

	_, err = l.Load(context.Background(), Inline(pageDoc))
	require.NoError(t, err)
	latest, _ = l.Cache().Latest()
	assert.Equal(t, a.ID, latest.ID)
}

func TestLoad_File(t *testing.T) {
	l := newLoader(t, nil, Config{})
	path := filepath.Join(t.TempDir(), "page.json")
	require.NoError(t, os.WriteFile(path, []byte(pageDoc), 0o644))

	snap, err := l.Load(context.Background(), File(path))
	require.NoError(t, err)
	assert.Equal(t, "file:"+path, snap.Source)

	_, err = l.Load(context.Background(), File(filepath.Join(t.TempDir(), "missing.json")))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoad_Collector(t *testing.T) {
	fetcher := &fakeFetcher{docs: map[string]string{"s1": pageDoc}}
	l := newLoader(t, fetcher, Config{Timeout: time.Second})

	snap, err := l.Load(context.Background(), Collector("s1"))
	require.NoError(t, err)
	assert.Equal(t, "collector:s1", snap.Source)

	_, err = l.Load(context.Background(), Collector("nope"))
	assert.ErrorContains(t, err, "snapshot not found")
}

func TestLoad_NoCollector(t *testing.T) {
	l := newLoader(t, nil, Config{})
	_, err := l.Load(context.Background(), Collector("s1"))
	assert.ErrorIs(t, err, ErrUnknownSource)

	_, err = l.Load(context.Background(), Source{Kind: "ftp", Value: "x"})
	assert.ErrorIs(t, err, ErrUnknownSource)
}

func TestLoad_Timeout(t *testing.T) {
	fetcher := &fakeFetcher{docs: map[string]string{"slow": pageDoc}, delay: time.Second}
	l := newLoader(t, fetcher, Config{Timeout: 20 * time.Millisecond})

	_, err := l.Load(context.Background(), Collector("slow"))
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestLoad_Invalid(t *testing.T) {
	l := newLoader(t, nil, Config{})

	tests := []struct {
		name string
		doc  string
	}{
		{"not json", `{"url":`},
		{"missing url", `{"resources": []}`},
		{"bad entry", `{"url": "x", "resources": [{"startTime": 1}]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := l.Load(context.Background(), Inline(tt.doc))
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidSnapshot)

			var vErr *ValidationError
			require.ErrorAs(t, err, &vErr)
			assert.NotEmpty(t, vErr.Errors)
		})
	}
	assert.Zero(t, l.Cache().Len())
}

func TestLoadMany(t *testing.T) {
	fetcher := &fakeFetcher{docs: map[string]string{"s1": pageDoc}}
	l := newLoader(t, fetcher, Config{Workers: 2})

	sources := []Source{
		Collector("s1"),
		Inline(`{"url": "https://other.example/"}`),
		Collector("missing"),
		Collector("s1"),
	}
	results := l.LoadMany(context.Background(), sources)
	require.Len(t, results, 4)

	for i, r := range results {
		assert.Equal(t, sources[i], r.Source)
	}
	require.NoError(t, results[0].Err)
	require.NoError(t, results[1].Err)
	assert.Error(t, results[2].Err)
	assert.Nil(t, results[2].Snapshot)
	require.NoError(t, results[3].Err)
	assert.Equal(t, results[0].Snapshot.ID, results[3].Snapshot.ID)
	assert.NotEqual(t, results[0].Snapshot.ID, results[1].Snapshot.ID)
	assert.Equal(t, 2, l.Cache().Len())
}

func TestSource_String(t *testing.T) {
	assert.Equal(t, "inline", Inline(pageDoc).String())
	assert.Equal(t, "file:/tmp/a.json", File("/tmp/a.json").String())
	assert.Equal(t, "collector:latest", Collector("latest").String())
	assert.NotEqual(t, Inline("a").flightKey(), Inline("b").flightKey())
}

func TestContentID(t *testing.T) {
	a, err := ContentID([]byte(`{"url": "x"}`))
	require.NoError(t, err)
	b, err := ContentID([]byte("{\n  \"url\":\"x\"\n}"))
	require.NoError(t, err)
	assert.Equal(t, a, b)

	_, err = ContentID([]byte(`{`))
	assert.Error(t, err)
}

func TestNew_NilCache(t *testing.T) {
	_, err := New(nil, nil, Config{})
	assert.Error(t, err)
}
