package registry

import (
	"encoding/json"

	"github.com/wippyai/script-host/engine"
	"github.com/wippyai/script-host/errors"
)

// jsonDefaultExport is the single export a JSON module exposes.
const jsonDefaultExport = "default"

// NewJSONModule parses source as JSON text and registers a synthetic
// module exposing the parsed value as its default export. A parse
// failure yields a parse error carrying the parser's diagnostic. The
// value is held aside until the engine runs the module's evaluation
// steps.
func (r *Registry) NewJSONModule(name string, source []byte) (ModuleID, error) {
	var value any
	if err := json.Unmarshal(StripBOM(source), &value); err != nil {
		return 0, errors.Parse(name, err)
	}

	handle, err := r.engine.NewSyntheticModule(name, []string{jsonDefaultExport}, r.jsonEvaluationSteps)
	if err != nil {
		return 0, errors.Compile(name, err)
	}
	r.jsonValues[handle] = value

	// main=false with no requests cannot collide with an existing main.
	id, _ := r.RegisterConcrete(name, ModuleTypeJSON, handle, false, nil)
	return id, nil
}

// jsonEvaluationSteps is invoked by the engine when a JSON module is
// evaluated: it removes the stored value, installs it as the default
// export, and returns it as the already-settled evaluation result (the
// module protocol needs an awaitable result even though no
// asynchronous work occurs here).
func (r *Registry) jsonEvaluationSteps(h engine.Handle) (any, error) {
	value, ok := r.jsonValues[h]
	if !ok {
		return nil, errors.Internal("json module value missing at evaluation")
	}
	delete(r.jsonValues, h)

	if err := r.engine.SetSyntheticExport(h, jsonDefaultExport, value); err != nil {
		return nil, err
	}
	return value, nil
}
