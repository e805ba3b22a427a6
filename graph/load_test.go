package graph

import (
	"context"
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/wippyai/script-host/engine"
	"github.com/wippyai/script-host/errors"
	"github.com/wippyai/script-host/loader"
	"github.com/wippyai/script-host/registry"
)

// fakeLoader treats specifiers as canonical names and counts fetches.
type fakeLoader struct {
	sources    map[string][]byte
	resolveErr map[string]error
	fetchErr   map[string]error
	fetchCount map[string]int
}

func newFakeLoader() *fakeLoader {
	return &fakeLoader{
		sources:    make(map[string][]byte),
		resolveErr: make(map[string]error),
		fetchErr:   make(map[string]error),
		fetchCount: make(map[string]int),
	}
}

func (l *fakeLoader) Resolve(specifier, referrer string, kind loader.ResolutionKind) (string, error) {
	if err, ok := l.resolveErr[specifier]; ok {
		return "", err
	}
	return specifier, nil
}

func (l *fakeLoader) Fetch(ctx context.Context, name string) ([]byte, error) {
	l.fetchCount[name]++
	if err, ok := l.fetchErr[name]; ok {
		return nil, err
	}
	src, ok := l.sources[name]
	if !ok {
		return nil, fmt.Errorf("no source for %s", name)
	}
	return src, nil
}

// fakeHandle is a comparable stand-in for a compiled module.
type fakeHandle struct {
	name string
}

// fakeEngine fabricates handles and reads static requests from a table.
type fakeEngine struct {
	requests   map[string][]engine.StaticRequest
	lastSource map[string][]byte
	compiles   []string
}

func newFakeEngine() *fakeEngine {
	return &fakeEngine{
		requests:   make(map[string][]engine.StaticRequest),
		lastSource: make(map[string][]byte),
	}
}

func (e *fakeEngine) Compile(ctx context.Context, name string, source []byte) (engine.Handle, []engine.StaticRequest, error) {
	e.compiles = append(e.compiles, name)
	e.lastSource[name] = source
	return &fakeHandle{name: name}, e.requests[name], nil
}

func (e *fakeEngine) Evaluate(ctx context.Context, h engine.Handle) (any, error) {
	if m, ok := h.(*engine.SyntheticModule); ok {
		return m.Evaluate()
	}
	return nil, nil
}

func (e *fakeEngine) NewSyntheticModule(name string, exports []string, steps engine.EvaluationSteps) (engine.Handle, error) {
	return engine.NewSynthetic(name, exports, steps), nil
}

func (e *fakeEngine) SetSyntheticExport(h engine.Handle, export string, value any) error {
	m, ok := h.(*engine.SyntheticModule)
	if !ok {
		return fmt.Errorf("not synthetic: %T", h)
	}
	return m.SetExport(export, value)
}

func imports(specifiers ...string) []engine.StaticRequest {
	reqs := make([]engine.StaticRequest, 0, len(specifiers))
	for _, s := range specifiers {
		reqs = append(reqs, engine.StaticRequest{Specifier: s})
	}
	return reqs
}

func newTestWorld() (*registry.Registry, *fakeLoader, *fakeEngine) {
	ld := newFakeLoader()
	eng := newFakeEngine()
	return registry.New(ld, eng), ld, eng
}

func TestLoadMain_ThreeModuleChain(t *testing.T) {
	reg, ld, eng := newTestWorld()
	ld.sources["main.js"] = []byte("main")
	ld.sources["a.js"] = []byte("a")
	ld.sources["b.js"] = []byte("b")
	eng.requests["main.js"] = imports("a.js")
	eng.requests["a.js"] = imports("b.js")

	rootID, err := LoadMain(context.Background(), reg, "main.js")
	if err != nil {
		t.Fatalf("LoadMain: %v", err)
	}
	if rootID != 0 {
		t.Errorf("root id = %d, want 0", rootID)
	}
	if reg.Len() != 3 {
		t.Fatalf("registered %d modules, want 3", reg.Len())
	}

	for name, wantMain := range map[string]bool{"main.js": true, "a.js": false, "b.js": false} {
		id, ok, _ := reg.Resolve(name, registry.AssertedScript)
		if !ok {
			t.Fatalf("%s not registered", name)
		}
		info, _ := reg.Info(id)
		if info.Main != wantMain {
			t.Errorf("%s main = %v, want %v", name, info.Main, wantMain)
		}
		if got := ld.fetchCount[name]; got != 1 {
			t.Errorf("%s fetched %d times, want 1", name, got)
		}
	}
}

func TestLoad_DiamondImportsFetchOnce(t *testing.T) {
	reg, ld, eng := newTestWorld()
	ld.sources["main.js"] = []byte("main")
	ld.sources["a.js"] = []byte("a")
	ld.sources["b.js"] = []byte("b")
	ld.sources["shared.js"] = []byte("shared")
	eng.requests["main.js"] = imports("a.js", "b.js")
	eng.requests["a.js"] = imports("shared.js")
	eng.requests["b.js"] = imports("shared.js")

	if _, err := LoadMain(context.Background(), reg, "main.js"); err != nil {
		t.Fatalf("LoadMain: %v", err)
	}

	if got := ld.fetchCount["shared.js"]; got != 1 {
		t.Errorf("shared.js fetched %d times, want 1", got)
	}
	if reg.Len() != 4 {
		t.Errorf("registered %d modules, want 4", reg.Len())
	}
}

func TestLoad_RootResolutionFailure(t *testing.T) {
	reg, ld, _ := newTestWorld()
	ld.resolveErr["nope.js"] = fmt.Errorf("cannot resolve")

	l := NewLoad(reg, ModeSide, "nope.js", "", registry.AssertedScript)
	_, err := l.Await(context.Background())
	if err == nil {
		t.Fatal("expected resolution error")
	}
	if l.State() != StateFailed {
		t.Errorf("state = %v, want failed", l.State())
	}
	if reg.Len() != 0 {
		t.Error("failed resolution registered modules")
	}
}

func TestLoad_FailureKeepsEarlierModules(t *testing.T) {
	reg, ld, eng := newTestWorld()
	ld.sources["main.js"] = []byte("main")
	ld.sources["a.js"] = []byte("a")
	ld.fetchErr["broken.js"] = fmt.Errorf("connection reset")
	eng.requests["main.js"] = imports("a.js")
	eng.requests["a.js"] = imports("broken.js")

	_, err := LoadMain(context.Background(), reg, "main.js")
	if err == nil {
		t.Fatal("expected fetch failure")
	}

	// No rollback: modules compiled before the failing one stay.
	if !reg.IsRegistered("main.js", registry.AssertedScript) {
		t.Error("main.js rolled back")
	}
	if !reg.IsRegistered("a.js", registry.AssertedScript) {
		t.Error("a.js rolled back")
	}
	if reg.IsRegistered("broken.js", registry.AssertedScript) {
		t.Error("broken.js registered despite failing")
	}
}

func TestLoad_BOMStrippedBeforeCompile(t *testing.T) {
	reg, ld, eng := newTestWorld()
	ld.sources["main.js"] = append([]byte{0xef, 0xbb, 0xbf}, []byte("export {}")...)

	if _, err := LoadMain(context.Background(), reg, "main.js"); err != nil {
		t.Fatalf("LoadMain: %v", err)
	}
	if got := string(eng.lastSource["main.js"]); got != "export {}" {
		t.Errorf("engine saw %q, want BOM stripped", got)
	}
}

func TestLoadSide_NoMainFlag(t *testing.T) {
	reg, ld, _ := newTestWorld()
	ld.sources["side.js"] = []byte("side")

	id, err := LoadSide(context.Background(), reg, "side.js")
	if err != nil {
		t.Fatalf("LoadSide: %v", err)
	}
	info, _ := reg.Info(id)
	if info.Main {
		t.Error("side load set the main flag")
	}

	// The main slot stays free for a later main load.
	ld.sources["main.js"] = []byte("main")
	if _, err := LoadMain(context.Background(), reg, "main.js"); err != nil {
		t.Fatalf("LoadMain after side: %v", err)
	}
}

func TestLoadMain_SecondMainFails(t *testing.T) {
	reg, ld, _ := newTestWorld()
	ld.sources["one.js"] = []byte("one")
	ld.sources["two.js"] = []byte("two")

	if _, err := LoadMain(context.Background(), reg, "one.js"); err != nil {
		t.Fatal(err)
	}
	_, err := LoadMain(context.Background(), reg, "two.js")
	if !stderrors.Is(err, &errors.Error{Phase: errors.PhaseRegister, Kind: errors.KindDuplicateMain}) {
		t.Fatalf("wrong error: %v", err)
	}
}

func TestLoad_JSONRequest(t *testing.T) {
	reg, ld, eng := newTestWorld()
	ld.sources["main.js"] = []byte("main")
	ld.sources["cfg.json"] = []byte(`{"port":8080}`)
	eng.requests["main.js"] = []engine.StaticRequest{
		{Specifier: "cfg.json", Assertions: map[string]string{"type": "json"}},
	}

	if _, err := LoadMain(context.Background(), reg, "main.js"); err != nil {
		t.Fatalf("LoadMain: %v", err)
	}

	id, ok, _ := reg.Resolve("cfg.json", registry.AssertedJSON)
	if !ok {
		t.Fatal("json module not registered")
	}
	info, _ := reg.Info(id)
	if info.Type != registry.ModuleTypeJSON {
		t.Errorf("type = %v, want json", info.Type)
	}
	// The json module never went through the script engine compile.
	for _, name := range eng.compiles {
		if name == "cfg.json" {
			t.Error("json module was script-compiled")
		}
	}
}

func TestLoad_AlreadyRegisteredRootCompletes(t *testing.T) {
	reg, ld, _ := newTestWorld()
	ld.sources["lib.js"] = []byte("lib")

	first, err := LoadSide(context.Background(), reg, "lib.js")
	if err != nil {
		t.Fatal(err)
	}

	second, err := LoadSide(context.Background(), reg, "lib.js")
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if second != first {
		t.Errorf("reload returned id %d, want %d", second, first)
	}
	if got := ld.fetchCount["lib.js"]; got != 1 {
		t.Errorf("lib.js fetched %d times, want 1", got)
	}
}

func TestLoad_CyclicImportsTerminate(t *testing.T) {
	reg, ld, eng := newTestWorld()
	ld.sources["a.js"] = []byte("a")
	ld.sources["b.js"] = []byte("b")
	eng.requests["a.js"] = imports("b.js")
	eng.requests["b.js"] = imports("a.js")

	if _, err := LoadSide(context.Background(), reg, "a.js"); err != nil {
		t.Fatalf("cyclic graph: %v", err)
	}
	if reg.Len() != 2 {
		t.Errorf("registered %d modules, want 2", reg.Len())
	}
	if ld.fetchCount["a.js"] != 1 || ld.fetchCount["b.js"] != 1 {
		t.Errorf("cycle refetched: a=%d b=%d", ld.fetchCount["a.js"], ld.fetchCount["b.js"])
	}
}

func TestLoad_StateProgression(t *testing.T) {
	reg, ld, _ := newTestWorld()
	ld.sources["m.js"] = []byte("m")

	l := NewLoad(reg, ModeSide, "m.js", "", registry.AssertedScript)
	if l.State() != StateCreated {
		t.Fatalf("initial state = %v", l.State())
	}
	if _, err := l.Await(context.Background()); err != nil {
		t.Fatal(err)
	}
	if l.State() != StateComplete {
		t.Errorf("final state = %v, want complete", l.State())
	}
	if id, ok := l.RootID(); !ok || id != 0 {
		t.Errorf("RootID() = %v, %v", id, ok)
	}
}
