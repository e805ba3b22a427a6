package loader

import (
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/wippyai/script-host/errors"
)

// ImportMap rewrites bare specifiers before filesystem resolution.
// Maps are declared in YAML:
//
//	imports:
//	  std/: vendor/std/
//	  config: config/app.json
//
// The longest matching prefix wins. A key ending in "/" rewrites the
// prefix; any other key must match the whole specifier.
type ImportMap struct {
	Imports map[string]string `yaml:"imports"`

	// prefix keys sorted longest-first, built lazily
	ordered []string
}

// ParseImportMap decodes an import map from YAML text.
func ParseImportMap(data []byte) (*ImportMap, error) {
	var m ImportMap
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, errors.Wrap(errors.PhaseResolve, errors.KindInvalidData, err, "parse import map")
	}
	m.buildIndex()
	return &m, nil
}

// LoadImportMap reads and decodes an import map file.
func LoadImportMap(path string) (*ImportMap, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(errors.PhaseResolve, errors.KindInvalidData, err, "read import map")
	}
	return ParseImportMap(data)
}

func (m *ImportMap) buildIndex() {
	m.ordered = make([]string, 0, len(m.Imports))
	for k := range m.Imports {
		m.ordered = append(m.ordered, k)
	}
	sort.Slice(m.ordered, func(i, j int) bool {
		if len(m.ordered[i]) != len(m.ordered[j]) {
			return len(m.ordered[i]) > len(m.ordered[j])
		}
		return m.ordered[i] < m.ordered[j]
	})
}

// Rewrite applies the map to a specifier. The second result reports
// whether any entry matched.
func (m *ImportMap) Rewrite(specifier string) (string, bool) {
	if m == nil {
		return specifier, false
	}
	if m.ordered == nil {
		m.buildIndex()
	}
	for _, key := range m.ordered {
		target := m.Imports[key]
		if strings.HasSuffix(key, "/") {
			if strings.HasPrefix(specifier, key) {
				return target + specifier[len(key):], true
			}
			continue
		}
		if specifier == key {
			return target, true
		}
	}
	return specifier, false
}
