package engine

import (
	"context"
	"testing"
)

// emptyModule is the smallest valid core wasm binary: magic + version.
var emptyModule = []byte{0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00}

// importingModule declares `(import "env" "f" (func))`,
// `(import "host" "g" (func))` and `(import "env" "h" (func))`.
var importingModule = []byte{
	0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00,
	// type section: one () -> () func type
	0x01, 0x04, 0x01, 0x60, 0x00, 0x00,
	// import section
	0x02, 0x1a, 0x03,
	0x03, 'e', 'n', 'v', 0x01, 'f', 0x00, 0x00,
	0x04, 'h', 'o', 's', 't', 0x01, 'g', 0x00, 0x00,
	0x03, 'e', 'n', 'v', 0x01, 'h', 0x00, 0x00,
}

func newWazero(t *testing.T) *Wazero {
	t.Helper()
	ctx := context.Background()
	e, err := NewWazero(ctx)
	if err != nil {
		t.Fatalf("create engine: %v", err)
	}
	t.Cleanup(func() { e.Close(ctx) })
	return e
}

func TestWazero_CompileEmptyModule(t *testing.T) {
	e := newWazero(t)

	h, requests, err := e.Compile(context.Background(), "empty", emptyModule)
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	if h == nil {
		t.Fatal("nil handle")
	}
	if len(requests) != 0 {
		t.Errorf("empty module has %d requests", len(requests))
	}
	if _, ok := e.Compiled(h); !ok {
		t.Error("Compiled() does not recognize its own handle")
	}
}

func TestWazero_RequestsFromImports(t *testing.T) {
	e := newWazero(t)

	_, requests, err := e.Compile(context.Background(), "importer", importingModule)
	if err != nil {
		t.Fatalf("compile: %v", err)
	}

	// Distinct imported module names, first-use order.
	want := []string{"env", "host"}
	if len(requests) != len(want) {
		t.Fatalf("got %d requests, want %d", len(requests), len(want))
	}
	for i, w := range want {
		if requests[i].Specifier != w {
			t.Errorf("request %d = %q, want %q", i, requests[i].Specifier, w)
		}
	}
}

func TestWazero_CompileDiagnostic(t *testing.T) {
	e := newWazero(t)

	_, _, err := e.Compile(context.Background(), "garbage", []byte("not wasm"))
	if err == nil {
		t.Fatal("expected compile diagnostic")
	}
}

func TestWazero_EvaluateInstantiates(t *testing.T) {
	e := newWazero(t)
	ctx := context.Background()

	h, _, err := e.Compile(ctx, "empty", emptyModule)
	if err != nil {
		t.Fatal(err)
	}
	result, err := e.Evaluate(ctx, h)
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if result == nil {
		t.Error("no instance returned")
	}
}

func TestWazero_EvaluateMissingImportsFails(t *testing.T) {
	e := newWazero(t)
	ctx := context.Background()

	h, _, err := e.Compile(ctx, "importer", importingModule)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := e.Evaluate(ctx, h); err == nil {
		t.Error("instantiation succeeded without the imported modules")
	}
}

func TestWazero_ForeignHandle(t *testing.T) {
	e := newWazero(t)

	if _, err := e.Evaluate(context.Background(), "not a handle"); err == nil {
		t.Error("foreign handle accepted")
	}
	if err := e.SetSyntheticExport("not a handle", "default", 1); err == nil {
		t.Error("foreign handle accepted for synthetic export")
	}
}

func TestSyntheticModule_Lifecycle(t *testing.T) {
	e := newWazero(t)

	steps := func(h Handle) (any, error) {
		if err := e.SetSyntheticExport(h, "default", 42); err != nil {
			return nil, err
		}
		return 42, nil
	}

	h, err := e.NewSyntheticModule("synthetic:answer", []string{"default"}, steps)
	if err != nil {
		t.Fatal(err)
	}

	result, err := e.Evaluate(context.Background(), h)
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if result != 42 {
		t.Errorf("result = %v, want 42", result)
	}

	m := h.(*SyntheticModule)
	if got, ok := m.Export("default"); !ok || got != 42 {
		t.Errorf("Export(default) = %v, %v", got, ok)
	}

	// Evaluation is idempotent once settled.
	again, err := e.Evaluate(context.Background(), h)
	if err != nil || again != 42 {
		t.Errorf("second evaluate = %v, %v", again, err)
	}
}

func TestSyntheticModule_UndeclaredExport(t *testing.T) {
	m := NewSynthetic("s", []string{"default"}, nil)
	if err := m.SetExport("other", 1); err == nil {
		t.Error("undeclared export accepted")
	}
}
