// Package loader defines the pluggable source-fetch/resolve collaborator
// of the script host and ships three reference implementations: Noop
// (refuses everything), Static (in-memory table) and FS (directory tree
// with optional YAML import maps).
//
// The registry and graph loader only ever see canonical module names
// produced by Resolve; how those names map onto storage is entirely the
// loader's business.
package loader
