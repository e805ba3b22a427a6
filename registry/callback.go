package registry

import (
	"github.com/wippyai/script-host/engine"
	"github.com/wippyai/script-host/errors"
	"github.com/wippyai/script-host/loader"
)

// ResolveCallback is invoked synchronously by the engine while linking
// a graph that was already fully expanded. It re-resolves the specifier
// and looks the result up in the registry.
//
// Every module reachable at link time must already have been registered
// during expansion, so failure here is an internal-consistency error:
// the host must treat it as fatal rather than degrade silently.
func (r *Registry) ResolveCallback(specifier, referrer string, assertions map[string]string) (engine.Handle, error) {
	name, err := r.loader.Resolve(specifier, referrer, loader.KindImport)
	if err != nil {
		return nil, errors.Internal(
			"module %q (referrer %q) should already have been resolved: %v",
			specifier, referrer, err)
	}

	at := assertedTypeFrom(assertions)
	id, ok, resolveErr := r.Resolve(name, at)
	if resolveErr != nil {
		return nil, errors.Internal(
			"alias state for %q broke during linking: %v", name, resolveErr)
	}
	if !ok {
		return nil, errors.Internal(
			"module %q (%s) reached link time without being registered", name, at)
	}

	handle, ok := r.Handle(id)
	if !ok {
		return nil, errors.Internal(
			"module %q resolved to id %d with no compiled handle", name, id)
	}
	return handle, nil
}
