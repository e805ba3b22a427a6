package engine

import (
	"context"

	"github.com/tetratelabs/wazero"

	"github.com/wippyai/script-host/errors"
)

// Wazero implements Engine over the wazero runtime for hosts whose
// script modules are core WebAssembly binaries. Static requests are
// derived from the module's imports: each distinct imported module
// name, in first-use order, becomes one request.
type Wazero struct {
	runtime wazero.Runtime
}

// Config holds configuration for engine creation
type Config struct {
	// MemoryLimitPages sets the maximum memory per instance in pages
	// (64KB each). 0 means the wazero default.
	MemoryLimitPages uint32
}

// NewWazero creates a wazero-based engine with default configuration.
func NewWazero(ctx context.Context) (*Wazero, error) {
	return NewWazeroWithConfig(ctx, nil)
}

// NewWazeroWithConfig creates a wazero-based engine with custom configuration.
func NewWazeroWithConfig(ctx context.Context, cfg *Config) (*Wazero, error) {
	runtimeCfg := wazero.NewRuntimeConfig()
	if cfg != nil && cfg.MemoryLimitPages > 0 {
		runtimeCfg = runtimeCfg.WithMemoryLimitPages(cfg.MemoryLimitPages)
	}
	return &Wazero{
		runtime: wazero.NewRuntimeWithConfig(ctx, runtimeCfg),
	}, nil
}

// Runtime returns the underlying wazero runtime, for hosts that need to
// register host modules before evaluation.
func (e *Wazero) Runtime() wazero.Runtime {
	return e.runtime
}

// Close releases all compiled modules and instances.
func (e *Wazero) Close(ctx context.Context) error {
	return e.runtime.Close(ctx)
}

// wazeroHandle pairs a compiled module with its canonical name. Pointer
// identity gives the registry the comparability it needs.
type wazeroHandle struct {
	name     string
	compiled wazero.CompiledModule
}

// Compiled exposes the wazero compiled module behind a handle returned
// by this engine.
func (e *Wazero) Compiled(h Handle) (wazero.CompiledModule, bool) {
	wh, ok := h.(*wazeroHandle)
	if !ok {
		return nil, false
	}
	return wh.compiled, true
}

func (e *Wazero) Compile(ctx context.Context, name string, source []byte) (Handle, []StaticRequest, error) {
	compiled, err := e.runtime.CompileModule(ctx, source)
	if err != nil {
		// wazero's validation error is the diagnostic; hand it back as-is.
		return nil, nil, err
	}

	var requests []StaticRequest
	seen := make(map[string]bool)
	for _, fn := range compiled.ImportedFunctions() {
		moduleName, _, isImport := fn.Import()
		if isImport && !seen[moduleName] {
			seen[moduleName] = true
			requests = append(requests, StaticRequest{Specifier: moduleName})
		}
	}
	for _, mem := range compiled.ImportedMemories() {
		moduleName, _, isImport := mem.Import()
		if isImport && !seen[moduleName] {
			seen[moduleName] = true
			requests = append(requests, StaticRequest{Specifier: moduleName})
		}
	}

	return &wazeroHandle{name: name, compiled: compiled}, requests, nil
}

func (e *Wazero) Evaluate(ctx context.Context, h Handle) (any, error) {
	switch m := h.(type) {
	case *SyntheticModule:
		return m.Evaluate()
	case *wazeroHandle:
		instance, err := e.runtime.InstantiateModule(ctx, m.compiled,
			wazero.NewModuleConfig().WithName(m.name))
		if err != nil {
			return nil, err
		}
		return instance, nil
	default:
		return nil, errors.Internal("evaluate: handle %T does not belong to this engine", h)
	}
}

func (e *Wazero) NewSyntheticModule(name string, exports []string, steps EvaluationSteps) (Handle, error) {
	return NewSynthetic(name, exports, steps), nil
}

func (e *Wazero) SetSyntheticExport(h Handle, export string, value any) error {
	m, ok := h.(*SyntheticModule)
	if !ok {
		return errors.Internal("set synthetic export: handle %T is not synthetic", h)
	}
	return m.SetExport(export, value)
}
