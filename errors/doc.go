// Package errors provides structured error types for the script host.
//
// Every error carries a Phase (where in module processing it happened)
// and a Kind (what went wrong), so callers can match on the pair with
// errors.Is instead of string comparison. Engine diagnostics and parser
// errors are carried verbatim as the Cause and stay reachable through
// Unwrap for user-visible reporting.
//
// The taxonomy is closed: resolution, fetch, compile, assertion,
// duplicate_main, internal, parse, cycle, invalid_data and not_found
// cover every failure the registry and graph loader can produce.
// Internal errors indicate registry/engine desynchronization and are
// not recoverable.
package errors
