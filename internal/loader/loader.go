// Package loader reads page snapshots from inline JSON, files or a
// collector, validates them and keeps them in the snapshot cache.
package loader

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/usestring/restiming-mcp/internal/cache"
	"github.com/usestring/restiming-mcp/internal/schema"
	"github.com/usestring/restiming-mcp/pkg/perf"
)

// MaxSnapshotBytes bounds the size of a snapshot document.
const MaxSnapshotBytes = 32 << 20

// SourceKind says where a snapshot document comes from.
type SourceKind string

const (
	SourceInline    SourceKind = "inline"
	SourceFile      SourceKind = "file"
	SourceCollector SourceKind = "collector"
)

// Source identifies one snapshot document.
type Source struct {
	Kind  SourceKind
	Value string // JSON text, file path or collector snapshot id
}

// Inline returns a source for a JSON document held in memory.
func Inline(doc string) Source { return Source{Kind: SourceInline, Value: doc} }

// File returns a source for a JSON document on disk.
func File(path string) Source { return Source{Kind: SourceFile, Value: path} }

// Collector returns a source for a snapshot held by the collector.
func Collector(id string) Source { return Source{Kind: SourceCollector, Value: id} }

// String describes the source without echoing inline documents.
func (s Source) String() string {
	if s.Kind == SourceInline {
		return string(SourceInline)
	}
	return string(s.Kind) + ":" + s.Value
}

// flightKey identifies concurrent loads of the same source.
func (s Source) flightKey() string {
	if s.Kind == SourceInline {
		sum := sha256.Sum256([]byte(s.Value))
		return "inline:" + hex.EncodeToString(sum[:])
	}
	return s.String()
}

var (
	// ErrInvalidSnapshot is returned when a document is not a valid snapshot.
	ErrInvalidSnapshot = errors.New("invalid snapshot")

	// ErrUnknownSource is returned for a source kind the loader cannot read.
	ErrUnknownSource = errors.New("unknown snapshot source")
)

// ValidationError lists the schema violations of a rejected document.
type ValidationError struct {
	Source string
	Errors []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s: %s", ErrInvalidSnapshot, e.Source, strings.Join(e.Errors, "; "))
}

// Is makes errors.Is(err, ErrInvalidSnapshot) match.
func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidSnapshot
}

// SnapshotFetcher fetches snapshot documents from a collector.
type SnapshotFetcher interface {
	GetSnapshotRaw(ctx context.Context, id string) ([]byte, error)
}

// Config controls load concurrency and deadlines.
type Config struct {
	Timeout time.Duration // per load; 0 disables the deadline
	Workers int           // LoadMany concurrency; <= 0 means 1
}

// Loader loads snapshots into a cache.
type Loader struct {
	fetcher   SnapshotFetcher
	cache     *cache.SnapshotCache
	validator *schema.Validator
	cfg       Config
	group     singleflight.Group
}

// New creates a loader. fetcher may be nil when no collector is configured.
func New(fetcher SnapshotFetcher, snapshots *cache.SnapshotCache, cfg Config) (*Loader, error) {
	if snapshots == nil {
		return nil, errors.New("loader: nil snapshot cache")
	}
	v, err := schema.FrameValidator()
	if err != nil {
		return nil, fmt.Errorf("loader: %w", err)
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	return &Loader{fetcher: fetcher, cache: snapshots, validator: v, cfg: cfg}, nil
}

// Cache returns the snapshot cache the loader writes to.
func (l *Loader) Cache() *cache.SnapshotCache {
	return l.cache
}

// Load reads, validates and caches one snapshot. Concurrent loads of the
// same source share one read. A document already cached under the same
// content id is returned from the cache.
func (l *Loader) Load(ctx context.Context, src Source) (*cache.Snapshot, error) {
	if l.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, l.cfg.Timeout)
		defer cancel()
	}

	v, err, shared := l.group.Do(src.flightKey(), func() (any, error) {
		return l.load(ctx, src)
	})
	if err != nil {
		return nil, err
	}
	if shared {
		slog.Debug("snapshot load shared", slog.String("source", src.String()))
	}
	return v.(*cache.Snapshot), nil
}

func (l *Loader) load(ctx context.Context, src Source) (*cache.Snapshot, error) {
	start := time.Now()

	raw, err := l.read(ctx, src)
	if err != nil {
		return nil, err
	}

	if result := l.validator.Validate(raw); !result.Valid {
		return nil, &ValidationError{Source: src.String(), Errors: result.Errors}
	}

	id, err := ContentID(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidSnapshot, src, err)
	}
	if cached, ok := l.cache.Get(id); ok {
		l.cache.MarkLoaded(id)
		return cached, nil
	}

	frame, err := perf.ParseFrame(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidSnapshot, src, err)
	}

	frames, entries := frame.Stats()
	snap := &cache.Snapshot{
		ID:       id,
		Source:   src.String(),
		Frame:    frame,
		Raw:      raw,
		LoadedAt: time.Now(),
		Frames:   frames,
		Entries:  entries,
	}
	l.cache.Put(snap)

	slog.Debug("snapshot loaded",
		slog.String("id", id),
		slog.String("source", snap.Source),
		slog.Int("frames", frames),
		slog.Int("entries", entries),
		slog.Int64("duration_ms", time.Since(start).Milliseconds()),
	)
	return snap, nil
}

func (l *Loader) read(ctx context.Context, src Source) ([]byte, error) {
	switch src.Kind {
	case SourceInline:
		if len(src.Value) > MaxSnapshotBytes {
			return nil, fmt.Errorf("%w: inline document exceeds %d bytes", ErrInvalidSnapshot, MaxSnapshotBytes)
		}
		return []byte(src.Value), nil

	case SourceFile:
		info, err := os.Stat(src.Value)
		if err != nil {
			return nil, fmt.Errorf("reading snapshot file: %w", err)
		}
		if info.Size() > MaxSnapshotBytes {
			return nil, fmt.Errorf("%w: %s exceeds %d bytes", ErrInvalidSnapshot, src.Value, MaxSnapshotBytes)
		}
		data, err := os.ReadFile(src.Value)
		if err != nil {
			return nil, fmt.Errorf("reading snapshot file: %w", err)
		}
		return data, nil

	case SourceCollector:
		if l.fetcher == nil {
			return nil, fmt.Errorf("%w: no collector configured", ErrUnknownSource)
		}
		return l.fetcher.GetSnapshotRaw(ctx, src.Value)

	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownSource, src.Kind)
	}
}

// Result is the outcome of loading one source in a batch.
type Result struct {
	Source   Source
	Snapshot *cache.Snapshot
	Err      error
}

// LoadMany loads sources concurrently using the configured number of
// workers. A failing source does not stop the batch; its error is reported
// in its Result. Results are in source order.
func (l *Loader) LoadMany(ctx context.Context, sources []Source) []Result {
	results := make([]Result, len(sources))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(l.cfg.Workers)

	for i, src := range sources {
		g.Go(func() error {
			snap, err := l.Load(ctx, src)
			if err != nil {
				slog.Debug("failed to load snapshot",
					slog.String("source", src.String()),
					slog.String("error", err.Error()),
				)
			}
			results[i] = Result{Source: src, Snapshot: snap, Err: err}
			return nil
		})
	}

	// Workers never return errors.
	_ = g.Wait()
	return results
}

// ContentID derives a stable identifier from a JSON document, ignoring
// insignificant whitespace.
func ContentID(raw []byte) (string, error) {
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return "", err
	}
	sum := sha256.Sum256(buf.Bytes())
	return hex.EncodeToString(sum[:8]), nil
}
