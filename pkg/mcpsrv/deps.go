package mcpsrv

import (
	"github.com/usestring/restiming-mcp/internal/cache"
	"github.com/usestring/restiming-mcp/internal/config"
	"github.com/usestring/restiming-mcp/internal/loader"
	"github.com/usestring/restiming-mcp/internal/query"
	"github.com/usestring/restiming-mcp/pkg/client"
)

// Deps contains all dependencies available to custom tools.
// This gives custom tools access to the same infrastructure as builtin tools.
type Deps struct {
	Client *client.Client // nil when the server runs without a collector
	Loader *loader.Loader
	Cache  *cache.SnapshotCache
	Config *config.Config
	Query  *query.Engine
}
