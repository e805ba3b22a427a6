package engine

import "context"

// Handle is an opaque, engine-owned reference to a compiled module.
// The registry stores handles positionally and compares them with ==,
// so every implementation must hand back comparable values (pointers
// work well).
type Handle any

// StaticRequest is one import edge as reported by the engine after
// compilation: the specifier text exactly as written in the source,
// plus the raw import-assertion map. Validation and routing of the
// assertions is the registry's job.
type StaticRequest struct {
	Specifier  string
	Assertions map[string]string
}

// EvaluationSteps runs when a synthetic module is evaluated. It installs
// exports on the handle and returns the (already settled) evaluation
// result required by the module protocol.
type EvaluationSteps func(h Handle) (any, error)

// Engine performs lexical compilation of module source into opaque
// handles and exposes each handle's static import requests. The host
// never inspects compiled state beyond what this interface returns.
type Engine interface {
	// Compile turns source into a compiled-module handle plus the
	// ordered list of its static import requests. The returned error is
	// the engine's own diagnostic, carried verbatim by callers.
	Compile(ctx context.Context, name string, source []byte) (Handle, []StaticRequest, error)

	// Evaluate runs a compiled module and returns its evaluation result.
	Evaluate(ctx context.Context, h Handle) (any, error)

	// NewSyntheticModule creates a module with the given export names
	// whose body is the steps callback instead of compiled source.
	NewSyntheticModule(name string, exports []string, steps EvaluationSteps) (Handle, error)

	// SetSyntheticExport installs a value on a declared export of a
	// synthetic module handle.
	SetSyntheticExport(h Handle, export string, value any) error
}
