package engine

import (
	"github.com/wippyai/script-host/errors"
)

// SyntheticModule is a host-constructed module whose exports are
// installed by an EvaluationSteps callback rather than compiled from
// source. Engines can reuse it directly; the wazero engine does.
type SyntheticModule struct {
	name        string
	exportNames []string
	exports     map[string]any
	steps       EvaluationSteps
	evaluated   bool
	result      any
}

// NewSynthetic creates a synthetic module with the declared exports.
func NewSynthetic(name string, exports []string, steps EvaluationSteps) *SyntheticModule {
	return &SyntheticModule{
		name:        name,
		exportNames: append([]string(nil), exports...),
		exports:     make(map[string]any, len(exports)),
		steps:       steps,
	}
}

// Name returns the module's canonical name.
func (m *SyntheticModule) Name() string {
	return m.name
}

// SetExport installs a value on a declared export. Undeclared names
// are rejected.
func (m *SyntheticModule) SetExport(name string, value any) error {
	for _, n := range m.exportNames {
		if n == name {
			m.exports[name] = value
			return nil
		}
	}
	return errors.NotFound(errors.PhaseEvaluate, "synthetic export", name)
}

// Export reads a previously installed export value.
func (m *SyntheticModule) Export(name string) (any, bool) {
	v, ok := m.exports[name]
	return v, ok
}

// Evaluate runs the steps callback once and caches the settled result.
func (m *SyntheticModule) Evaluate() (any, error) {
	if m.evaluated {
		return m.result, nil
	}
	result, err := m.steps(m)
	if err != nil {
		return nil, err
	}
	m.evaluated = true
	m.result = result
	return result, nil
}
