package loader

import (
	"context"

	"github.com/wippyai/script-host/errors"
)

// Static serves module source from an in-memory table. Specifiers are
// their own canonical names. Useful for bootstrap modules and tests.
type Static struct {
	sources map[string][]byte
}

// NewStatic creates a Static loader over the given sources. The map is
// not copied; callers must not mutate it afterwards.
func NewStatic(sources map[string][]byte) *Static {
	if sources == nil {
		sources = make(map[string][]byte)
	}
	return &Static{sources: sources}
}

// Add installs or replaces a module source.
func (s *Static) Add(name string, source []byte) {
	s.sources[name] = source
}

func (s *Static) Resolve(specifier, referrer string, kind ResolutionKind) (string, error) {
	if _, ok := s.sources[specifier]; !ok {
		return "", errors.New(errors.PhaseResolve, errors.KindResolution).
			Specifier(specifier).
			Referrer(referrer).
			Detail("unknown static module").
			Build()
	}
	return specifier, nil
}

func (s *Static) Fetch(ctx context.Context, name string) ([]byte, error) {
	src, ok := s.sources[name]
	if !ok {
		return nil, errors.Fetch(name, nil)
	}
	out := make([]byte, len(src))
	copy(out, src)
	return out, nil
}
