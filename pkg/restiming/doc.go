// Package restiming collects resource timing entries across a frame tree and
// compresses them into the trie attached to telemetry beacons.
//
// The pipeline is Walk, Filter, Encode, Build and Optimize; Compress runs
// the last three. Engine ties the pipeline to page lifecycle events and a
// Beacon. UnionDuration is an independent helper over the same entries.
//
// The textual trie maps URL prefixes to either a nested object or a payload
// string. A payload is "|"-joined encoded timings, each an initiator code
// followed by comma-separated base-36 offsets from the start time.
package restiming
