package restiming

import (
	"maps"
	"sync"
)

// MemoryBeacon is an in-memory Beacon that records what an engine attached
// and how many beacons it sent. It is safe for concurrent use.
type MemoryBeacon struct {
	mu   sync.Mutex
	vars map[string]string
	sent int
}

// NewMemoryBeacon returns an empty MemoryBeacon.
func NewMemoryBeacon() *MemoryBeacon {
	return &MemoryBeacon{vars: make(map[string]string)}
}

// AddVar implements Beacon.
func (b *MemoryBeacon) AddVar(key, value string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.vars[key] = value
}

// RemoveVar implements Beacon.
func (b *MemoryBeacon) RemoveVar(key string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.vars, key)
}

// SendBeacon implements Beacon.
func (b *MemoryBeacon) SendBeacon() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.sent++
}

// Var returns the value attached under key.
func (b *MemoryBeacon) Var(key string) (string, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	v, ok := b.vars[key]
	return v, ok
}

// Vars returns a copy of every attached variable.
func (b *MemoryBeacon) Vars() map[string]string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return maps.Clone(b.vars)
}

// Sent returns the number of beacons sent.
func (b *MemoryBeacon) Sent() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.sent
}
