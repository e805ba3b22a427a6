package loader

import (
	"context"

	"github.com/wippyai/script-host/errors"
)

// ResolutionKind tells the loader why a specifier is being resolved.
type ResolutionKind int

const (
	// KindImport is a static import statement.
	KindImport ResolutionKind = iota
	// KindDynamicImport is an import() call.
	KindDynamicImport
	// KindMain is the main entry module of a host.
	KindMain
)

func (k ResolutionKind) String() string {
	switch k {
	case KindImport:
		return "import"
	case KindDynamicImport:
		return "dynamic-import"
	case KindMain:
		return "main"
	default:
		return "unknown"
	}
}

// Loader resolves specifiers into canonical module names and fetches
// module source. Implementations own all I/O; the registry and graph
// loader never touch the network or filesystem directly.
//
// Resolve must be cheap and synchronous; it is called from engine
// linking callbacks. Fetch may block on I/O and honors ctx.
type Loader interface {
	Resolve(specifier, referrer string, kind ResolutionKind) (string, error)
	Fetch(ctx context.Context, name string) ([]byte, error)
}

// Noop is a Loader that refuses all loads. It is the registry default,
// for hosts that only inject precompiled modules.
type Noop struct{}

func (Noop) Resolve(specifier, referrer string, kind ResolutionKind) (string, error) {
	return "", errors.New(errors.PhaseResolve, errors.KindResolution).
		Specifier(specifier).
		Referrer(referrer).
		Detail("module loading is not supported").
		Build()
}

func (Noop) Fetch(ctx context.Context, name string) ([]byte, error) {
	return nil, errors.Fetch(name, nil)
}
