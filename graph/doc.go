// Package graph turns one root specifier into a fully registered
// dependency graph.
//
// A Load is a recursive, deduplicating traversal written as an explicit
// worklist state machine: resolve the root, then fetch, compile and
// register each not-yet-registered module, feeding its import requests
// back into the worklist. Registration happens immediately after a
// successful compile, which is what bounds the traversal to distinct
// (name, type) pairs instead of import edges. Fetches are the only
// suspension points; everything that touches the registry runs on the
// goroutine calling Poll.
//
// The Tracker layers import() bookkeeping on top: LoadID-to-promise
// correlation, the preparing/pending sets the host polls each event
// loop turn, and de-duplication of concurrent imports of the same
// module.
package graph
