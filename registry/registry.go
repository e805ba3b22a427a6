package registry

import (
	"context"

	"go.uber.org/zap"

	"github.com/wippyai/script-host/engine"
	"github.com/wippyai/script-host/errors"
	"github.com/wippyai/script-host/loader"
)

// Registry owns module identity for one engine instance: the id, name
// and alias mappings, per-module metadata, and the compiled-handle
// list. It is exclusively owned by the single goroutine that runs the
// engine's event loop; in-flight loads share it logically, never across
// goroutines, so no locking is used or wanted.
type Registry struct {
	handles      []engine.Handle
	info         []ModuleInfo
	byNameScript map[string]symbolicModule
	byNameJSON   map[string]symbolicModule
	nextLoadID   LoadID

	loader loader.Loader
	engine engine.Engine

	// Forwards parsed JSON values from NewJSONModule to the synthetic
	// evaluation steps. Drained on evaluation.
	jsonValues map[engine.Handle]any
}

// New creates an empty registry bound to the given loader and engine.
// A nil loader falls back to loader.Noop.
func New(l loader.Loader, e engine.Engine) *Registry {
	if l == nil {
		l = loader.Noop{}
	}
	return &Registry{
		byNameScript: make(map[string]symbolicModule),
		byNameJSON:   make(map[string]symbolicModule),
		nextLoadID:   1,
		loader:       l,
		engine:       e,
		jsonValues:   make(map[engine.Handle]any),
	}
}

// Loader returns the loader this registry resolves and fetches through.
func (r *Registry) Loader() loader.Loader {
	return r.loader
}

// Engine returns the engine this registry compiles with.
func (r *Registry) Engine() engine.Engine {
	return r.engine
}

// NextLoadID allocates the next load identifier.
func (r *Registry) NextLoadID() LoadID {
	id := r.nextLoadID
	r.nextLoadID++
	return id
}

// Len reports the number of registered modules.
func (r *Registry) Len() int {
	return len(r.handles)
}

// Clear discards all state, re-initializing the registry as if freshly
// constructed with the same loader and engine. Any in-flight loads
// referencing the registry are abandoned.
func (r *Registry) Clear() {
	*r = *New(r.loader, r.engine)
}

func (r *Registry) byName(at AssertedType) map[string]symbolicModule {
	if at == AssertedJSON {
		return r.byNameJSON
	}
	return r.byNameScript
}

// RegisterConcrete assigns the next ModuleID to a compiled handle and
// stores its metadata, binding name to the new id in the partition for
// the module's type. Registering a second main module fails with an
// error naming both modules.
func (r *Registry) RegisterConcrete(name string, mt ModuleType, h engine.Handle, main bool, requests []ModuleRequest) (ModuleID, error) {
	if main {
		for i := range r.info {
			if r.info[i].Main {
				return 0, errors.DuplicateMain(name, r.info[i].Name)
			}
		}
	}

	id := ModuleID(len(r.handles))
	r.byName(mt.Asserted())[name] = modEntry{id: id}
	r.handles = append(r.handles, h)
	r.info = append(r.info, ModuleInfo{
		ID:       id,
		Main:     main,
		Name:     name,
		Type:     mt,
		Requests: requests,
	})

	Logger().Debug("module registered",
		zap.Int("id", int(id)),
		zap.String("name", name),
		zap.Stringer("type", mt),
		zap.Bool("main", main),
		zap.Int("requests", len(requests)))

	return id, nil
}

// Inject registers a precompiled module supplied by the host, bypassing
// the loader and the engine compile step. Used for bootstrap and
// builtin modules.
func (r *Registry) Inject(name string, mt ModuleType, h engine.Handle) ModuleID {
	id, _ := r.RegisterConcrete(name, mt, h, false, nil)
	return id
}

// NewScriptModule compiles source through the engine and registers the
// result. The engine's static requests are validated and recorded in
// source order with their raw specifier text; resolution happens later,
// during graph expansion. Compile diagnostics are carried verbatim.
func (r *Registry) NewScriptModule(ctx context.Context, name string, source []byte, main bool) (ModuleID, error) {
	handle, staticRequests, err := r.engine.Compile(ctx, name, source)
	if err != nil {
		return 0, errors.Compile(name, err)
	}

	requests := make([]ModuleRequest, 0, len(staticRequests))
	for _, req := range staticRequests {
		if err := validateAssertions(req.Specifier, req.Assertions); err != nil {
			return 0, err
		}
		requests = append(requests, ModuleRequest{
			Specifier:    req.Specifier,
			AssertedType: assertedTypeFrom(req.Assertions),
		})
	}

	return r.RegisterConcrete(name, ModuleTypeScript, handle, main, requests)
}

// Alias binds name to target under the given asserted type, so that
// resolving name continues at target. The caller must guarantee
// name != target; a trivially self-referential entry is a programming
// error, not a runtime condition.
func (r *Registry) Alias(name string, at AssertedType, target string) {
	if name == target {
		panic("registry: alias target must differ from name")
	}
	r.byName(at)[name] = aliasEntry{target: target}
}

// IsAlias reports whether name is currently bound as an alias.
func (r *Registry) IsAlias(name string, at AssertedType) bool {
	_, ok := r.byName(at)[name].(aliasEntry)
	return ok
}

// Resolve follows the alias chain from name until a concrete module is
// found. The second result is false when the chain exhausts on an
// absent key. A chain that revisits a name fails with a cycle error
// instead of looping.
func (r *Registry) Resolve(name string, at AssertedType) (ModuleID, bool, error) {
	m := r.byName(at)
	entry, ok := m[name]
	if !ok {
		return 0, false, nil
	}

	visited := map[string]bool{name: true}
	chain := []string{name}
	for {
		switch e := entry.(type) {
		case modEntry:
			return e.id, true, nil
		case aliasEntry:
			if visited[e.target] {
				return 0, false, errors.Cycle(name, append(chain, e.target))
			}
			visited[e.target] = true
			chain = append(chain, e.target)
			entry, ok = m[e.target]
			if !ok {
				return 0, false, nil
			}
		}
	}
}

// IsRegistered reports whether name resolves to a concrete module whose
// stored type matches the asserted type exactly. A module registered
// under one asserted type is never mistaken for another.
func (r *Registry) IsRegistered(name string, at AssertedType) bool {
	id, ok, err := r.Resolve(name, at)
	if err != nil || !ok {
		return false
	}
	return r.info[id].Type.Asserted() == at
}

// Handle returns the compiled handle for an id.
func (r *Registry) Handle(id ModuleID) (engine.Handle, bool) {
	if int(id) < 0 || int(id) >= len(r.handles) {
		return nil, false
	}
	return r.handles[id], true
}

// HandleByName returns the compiled handle for a name, trying the
// script partition first and the JSON partition second.
func (r *Registry) HandleByName(name string) (engine.Handle, bool) {
	id, ok, err := r.Resolve(name, AssertedScript)
	if err != nil {
		return nil, false
	}
	if !ok {
		id, ok, err = r.Resolve(name, AssertedJSON)
		if err != nil || !ok {
			return nil, false
		}
	}
	return r.Handle(id)
}

// Info returns the metadata for an id.
func (r *Registry) Info(id ModuleID) (ModuleInfo, bool) {
	if int(id) < 0 || int(id) >= len(r.info) {
		return ModuleInfo{}, false
	}
	return r.info[id], true
}

// InfoByHandle returns the metadata for a compiled handle.
func (r *Registry) InfoByHandle(h engine.Handle) (ModuleInfo, bool) {
	for i := range r.handles {
		if r.handles[i] == h {
			return r.info[i], true
		}
	}
	return ModuleInfo{}, false
}

// Modules returns a copy of every module's metadata in id order.
func (r *Registry) Modules() []ModuleInfo {
	return append([]ModuleInfo(nil), r.info...)
}

// Aliases returns the alias entries of one partition as a name-to-target map.
func (r *Registry) Aliases(at AssertedType) map[string]string {
	out := make(map[string]string)
	for name, entry := range r.byName(at) {
		if a, ok := entry.(aliasEntry); ok {
			out[name] = a.target
		}
	}
	return out
}

// Requests returns the ordered import requests recorded for an id.
func (r *Registry) Requests(id ModuleID) ([]ModuleRequest, bool) {
	info, ok := r.Info(id)
	if !ok {
		return nil, false
	}
	return info.Requests, true
}
