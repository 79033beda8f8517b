package tools

import (
	"context"

	"github.com/usestring/restiming-mcp/internal/cache"
	"github.com/usestring/restiming-mcp/internal/config"
	"github.com/usestring/restiming-mcp/internal/loader"
	"github.com/usestring/restiming-mcp/internal/query"
	"github.com/usestring/restiming-mcp/pkg/client"
	"github.com/usestring/restiming-mcp/pkg/restiming"
)

// Deps contains all dependencies needed by tool handlers.
type Deps struct {
	Client *client.Client // nil when no collector is configured
	Loader *loader.Loader
	Cache  *cache.SnapshotCache
	Config *config.Config
	Query  *query.Engine
}

// Snapshot resolves a snapshot by ID. An empty ID selects the most recently
// loaded snapshot. IDs that are not cached are fetched from the collector
// when one is configured.
func (d *Deps) Snapshot(ctx context.Context, id string) (*cache.Snapshot, error) {
	if id == "" {
		snap, ok := d.Cache.Latest()
		if !ok {
			return nil, ErrInvalidInput("no snapshots loaded; call restiming_snapshot_load first")
		}
		return snap, nil
	}

	if snap, ok := d.Cache.Get(id); ok {
		return snap, nil
	}
	if d.Client == nil {
		return nil, ErrNotFound("snapshot", id)
	}

	snap, err := d.Loader.Load(ctx, loader.Collector(id))
	if err != nil {
		return nil, WrapLoadError(err)
	}
	return snap, nil
}

// Engine builds a restiming engine over a snapshot. Each call gets its own
// engine; engines are not shared between requests.
func (d *Deps) Engine(snap *cache.Snapshot, beacon restiming.Beacon) (*restiming.Engine, error) {
	opts := d.Config.EngineOptions()
	// Tool calls never clear the cached snapshot.
	opts.ClearOnBeacon = false
	e, err := restiming.New(snap.Frame, beacon, opts)
	if err != nil {
		return nil, ErrInvalidInput(err.Error())
	}
	return e, nil
}

// BreakRules compiles the configured XSS break words.
func (d *Deps) BreakRules() (restiming.BreakRules, error) {
	rules, err := restiming.CompileBreakRules(d.Config.EngineOptions().XSSBreakWords)
	if err != nil {
		return nil, ErrInvalidInput(err.Error())
	}
	return rules, nil
}
