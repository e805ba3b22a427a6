package registry

import (
	"fmt"

	"github.com/wippyai/script-host/errors"
)

// validateAssertions checks an import-assertion map produced by the
// engine. Only `type: "json"` is supported; any other entry is an
// assertion error. Parsing of assertion syntax itself is the engine's
// job.
func validateAssertions(specifier string, assertions map[string]string) error {
	for key, value := range assertions {
		if key != "type" || value != "json" {
			return errors.Assertion(specifier,
				fmt.Sprintf("invalid import assertion %s: %q", key, value))
		}
	}
	return nil
}

// assertedTypeFrom derives the asserted module type from a validated
// assertion map.
func assertedTypeFrom(assertions map[string]string) AssertedType {
	if assertions["type"] == "json" {
		return AssertedJSON
	}
	return AssertedScript
}
