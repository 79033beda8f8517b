// Package perf models the host side of resource timing collection: the
// per-context performance buffers a page exposes, and a JSON snapshot of a
// frame tree that implements the same capability interface.
//
// The engine in package restiming only ever reads through [Context], so a live
// browser bridge, a recorded snapshot and a test fixture are interchangeable.
package perf
