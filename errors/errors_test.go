package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
	"testing"
)

func TestError_Format(t *testing.T) {
	tests := []struct {
		name string
		err  *Error
		want []string
	}{
		{
			name: "phase and kind only",
			err:  &Error{Phase: PhaseSnapshot, Kind: KindInvalidData},
			want: []string{"[snapshot]", "invalid_data"},
		},
		{
			name: "specifier and referrer",
			err:  Resolution("./a.js", "file:///main.js", nil),
			want: []string{"[resolve]", "resolution", `"./a.js"`, `from "file:///main.js"`},
		},
		{
			name: "detail after specifier",
			err:  Assertion("./data.json", `unsupported type "wasm"`),
			want: []string{"[compile]", "assertion", `"./data.json"`, `unsupported type "wasm"`},
		},
		{
			name: "cause appended",
			err:  Fetch("file:///a.js", fmt.Errorf("no such file")),
			want: []string{"[fetch]", "caused by: no such file"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.err.Error()
			for _, want := range tt.want {
				if !strings.Contains(got, want) {
					t.Errorf("Error() = %q, missing %q", got, want)
				}
			}
		})
	}
}

func TestError_Is(t *testing.T) {
	err := DuplicateMain("file:///b.js", "file:///a.js")

	if !stderrors.Is(err, &Error{Phase: PhaseRegister, Kind: KindDuplicateMain}) {
		t.Error("expected match on phase+kind")
	}
	if stderrors.Is(err, &Error{Phase: PhaseRegister, Kind: KindInternal}) {
		t.Error("unexpected match on different kind")
	}
}

func TestError_Unwrap(t *testing.T) {
	diag := fmt.Errorf("unexpected token at line 3")
	err := Compile("file:///bad.js", diag)

	if !stderrors.Is(err, diag) {
		t.Error("diagnostic not reachable through Unwrap")
	}
}

func TestDuplicateMain_NamesBothModules(t *testing.T) {
	err := DuplicateMain("file:///second.js", "file:///first.js")
	msg := err.Error()

	if !strings.Contains(msg, "file:///second.js") {
		t.Errorf("message %q does not name the attempted module", msg)
	}
	if !strings.Contains(msg, "file:///first.js") {
		t.Errorf("message %q does not name the existing main module", msg)
	}
}

func TestCycle_ReportsChain(t *testing.T) {
	err := Cycle("a", []string{"a", "b", "a"})
	if !strings.Contains(err.Error(), "a -> b -> a") {
		t.Errorf("chain missing from %q", err.Error())
	}
}

func TestBuilder(t *testing.T) {
	err := New(PhaseFetch, KindFetch).
		Specifier("file:///x.js").
		Detail("timed out after %ds", 30).
		Cause(fmt.Errorf("deadline exceeded")).
		Build()

	if err.Phase != PhaseFetch || err.Kind != KindFetch {
		t.Fatalf("unexpected phase/kind: %v/%v", err.Phase, err.Kind)
	}
	if err.Detail != "timed out after 30s" {
		t.Errorf("Detail = %q", err.Detail)
	}
	if err.Cause == nil {
		t.Error("cause not set")
	}
}
