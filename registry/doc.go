// Package registry owns module identity for an embedded script host.
//
// Every compiled module gets a dense ModuleID in creation order; names
// map to ids through two independent partitions (script and JSON,
// following import assertions), with alias entries for redirected
// specifiers. The registry also carries the JSON module adapter, the
// synchronous resolution callback used by the engine during linking,
// and the snapshot codec that round-trips the whole identity state
// through a portable msgpack payload.
//
// A registry belongs to the single goroutine driving its engine's
// event loop. Concurrent loads interleave on that goroutine; nothing
// here is safe for use across goroutines, deliberately.
package registry
