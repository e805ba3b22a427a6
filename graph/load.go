package graph

import (
	"context"

	"go.uber.org/zap"

	"github.com/wippyai/script-host/loader"
	"github.com/wippyai/script-host/registry"
)

// Mode selects what kind of top-level operation a load serves.
type Mode int

const (
	// ModeMain loads the host's main entry module; its root is
	// registered with the main flag set.
	ModeMain Mode = iota
	// ModeSide loads an additional module graph without touching the
	// main flag.
	ModeSide
	// ModeDynamicImport serves an import() call.
	ModeDynamicImport
)

func (m Mode) String() string {
	switch m {
	case ModeMain:
		return "main"
	case ModeSide:
		return "side"
	case ModeDynamicImport:
		return "dynamic-import"
	default:
		return "unknown"
	}
}

// State is the phase a load is in. Loads only move forward.
type State int

const (
	StateCreated State = iota
	StateResolvingRoot
	StateExpanding
	StateComplete
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateCreated:
		return "created"
	case StateResolvingRoot:
		return "resolving-root"
	case StateExpanding:
		return "expanding"
	case StateComplete:
		return "complete"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

type workItem struct {
	name string
	at   registry.AssertedType
}

type fetchResult struct {
	data []byte
	err  error
}

// fetchOp is the single suspension point of a load: one in-flight
// source fetch. The I/O runs on its own goroutine; the result is
// consumed, and the registry touched, only from Poll.
type fetchOp struct {
	item   workItem
	ch     chan fetchResult
	result *fetchResult
}

// Load is one recursive module-graph load, modeled as an explicit
// state machine over a worklist rather than a call stack, so that the
// traversal is resumable (and abandonable) as a value. A load is
// driven by Poll from the goroutine that owns the registry.
type Load struct {
	id        registry.LoadID
	mode      Mode
	specifier string
	referrer  string
	asserted  registry.AssertedType
	reg       *registry.Registry

	state     State
	root      string
	rootID    registry.ModuleID
	haveRoot  bool
	worklist  []workItem
	enqueued  map[workItem]bool
	fetch     *fetchOp
	err       error
}

// NewLoad creates a load task for the given root. For ModeMain and
// ModeSide the referrer is empty and the asserted type is script.
func NewLoad(reg *registry.Registry, mode Mode, specifier, referrer string, at registry.AssertedType) *Load {
	return newLoadWithID(reg, reg.NextLoadID(), mode, specifier, referrer, at)
}

func newLoadWithID(reg *registry.Registry, id registry.LoadID, mode Mode, specifier, referrer string, at registry.AssertedType) *Load {
	return &Load{
		id:        id,
		mode:      mode,
		specifier: specifier,
		referrer:  referrer,
		asserted:  at,
		reg:       reg,
		state:     StateCreated,
		enqueued:  make(map[workItem]bool),
	}
}

// ID returns the load's identifier.
func (l *Load) ID() registry.LoadID {
	return l.id
}

// Mode returns the load's mode.
func (l *Load) Mode() Mode {
	return l.mode
}

// State returns the load's current phase.
func (l *Load) State() State {
	return l.state
}

// RootID returns the root module's id once the load is complete.
func (l *Load) RootID() (registry.ModuleID, bool) {
	return l.rootID, l.haveRoot && l.state == StateComplete
}

// Err returns the error that failed the load, if any.
func (l *Load) Err() error {
	return l.err
}

func (l *Load) resolutionKind() loader.ResolutionKind {
	switch l.mode {
	case ModeMain:
		return loader.KindMain
	case ModeDynamicImport:
		return loader.KindDynamicImport
	default:
		return loader.KindImport
	}
}

// requestKind is the kind used for the requests discovered inside the
// graph. A dynamic-import load carries its kind into every request it
// resolves, not just the root.
func (l *Load) requestKind() loader.ResolutionKind {
	if l.mode == ModeDynamicImport {
		return loader.KindDynamicImport
	}
	return loader.KindImport
}

func (l *Load) fail(err error) (bool, error) {
	l.state = StateFailed
	l.err = err
	l.fetch = nil
	Logger().Debug("load failed",
		zap.Int64("load_id", int64(l.id)),
		zap.String("root", l.specifier),
		zap.Error(err))
	return true, err
}

// Poll advances the load as far as it can without blocking and reports
// whether it has finished. Partially registered modules stay registered
// on failure: they are independently valid compiled state.
func (l *Load) Poll(ctx context.Context) (bool, error) {
	for {
		switch l.state {
		case StateCreated:
			l.state = StateResolvingRoot

		case StateResolvingRoot:
			name, err := l.reg.Loader().Resolve(l.specifier, l.referrer, l.resolutionKind())
			if err != nil {
				return l.fail(err)
			}
			l.root = name
			l.state = StateExpanding
			l.push(workItem{name: name, at: l.asserted})

		case StateExpanding:
			if l.fetch != nil {
				ready, done, err := l.step(ctx)
				if !ready {
					return false, nil
				}
				if done {
					return done, err
				}
				continue
			}
			if len(l.worklist) > 0 {
				item := l.worklist[0]
				l.worklist = l.worklist[1:]
				if l.reg.IsRegistered(item.name, item.at) {
					l.noteRoot(item)
					continue
				}
				l.startFetch(ctx, item)
				continue
			}
			l.state = StateComplete
			Logger().Debug("load complete",
				zap.Int64("load_id", int64(l.id)),
				zap.String("root", l.root),
				zap.Stringer("mode", l.mode))

		case StateComplete:
			return true, nil

		case StateFailed:
			return true, l.err
		}
	}
}

// Await drives the load to completion, blocking on fetches, and
// returns the root module id. The synchronous entry points LoadMain
// and LoadSide are built on it.
func (l *Load) Await(ctx context.Context) (registry.ModuleID, error) {
	for {
		done, err := l.Poll(ctx)
		if err != nil {
			return 0, err
		}
		if done {
			return l.rootID, nil
		}
		if l.fetch != nil && l.fetch.result == nil {
			select {
			case res := <-l.fetch.ch:
				l.fetch.result = &res
			case <-ctx.Done():
				return 0, ctx.Err()
			}
		}
	}
}

func (l *Load) push(item workItem) {
	if l.enqueued[item] {
		return
	}
	l.enqueued[item] = true
	l.worklist = append(l.worklist, item)
}

// noteRoot records the root module's id when the root turns out to be
// registered already (or just got registered).
func (l *Load) noteRoot(item workItem) {
	if l.haveRoot || item.name != l.root || item.at != l.asserted {
		return
	}
	if id, ok, err := l.reg.Resolve(item.name, item.at); err == nil && ok {
		l.rootID = id
		l.haveRoot = true
	}
}

func (l *Load) startFetch(ctx context.Context, item workItem) {
	op := &fetchOp{item: item, ch: make(chan fetchResult, 1)}
	l.fetch = op
	ld := l.reg.Loader()
	go func() {
		data, err := ld.Fetch(ctx, item.name)
		op.ch <- fetchResult{data: data, err: err}
	}()
}

// step consumes a finished fetch: compile, register, recurse into the
// module's requests. ready is false while the fetch is still in flight.
func (l *Load) step(ctx context.Context) (ready, done bool, err error) {
	op := l.fetch
	if op.result == nil {
		select {
		case res := <-op.ch:
			op.result = &res
		default:
			return false, false, nil
		}
	}
	l.fetch = nil
	item := op.item

	if op.result.err != nil {
		done, err = l.fail(op.result.err)
		return true, done, err
	}

	source := registry.StripBOM(op.result.data)
	var id registry.ModuleID
	if item.at == registry.AssertedJSON {
		id, err = l.reg.NewJSONModule(item.name, source)
	} else {
		main := l.mode == ModeMain && item.name == l.root
		id, err = l.reg.NewScriptModule(ctx, item.name, source, main)
	}
	if err != nil {
		done, err = l.fail(err)
		return true, done, err
	}

	if !l.haveRoot && item.name == l.root && item.at == l.asserted {
		l.rootID = id
		l.haveRoot = true
	}

	requests, _ := l.reg.Requests(id)
	for _, req := range requests {
		name, rerr := l.reg.Loader().Resolve(req.Specifier, item.name, l.requestKind())
		if rerr != nil {
			done, err = l.fail(rerr)
			return true, done, err
		}
		if !l.reg.IsRegistered(name, req.AssertedType) {
			l.push(workItem{name: name, at: req.AssertedType})
		}
	}

	return true, false, nil
}

// LoadMain loads the main entry module and its transitive dependencies,
// registering the root with the main flag set.
func LoadMain(ctx context.Context, reg *registry.Registry, specifier string) (registry.ModuleID, error) {
	return NewLoad(reg, ModeMain, specifier, "", registry.AssertedScript).Await(ctx)
}

// LoadSide loads an additional module graph without claiming the main
// slot.
func LoadSide(ctx context.Context, reg *registry.Registry, specifier string) (registry.ModuleID, error) {
	return NewLoad(reg, ModeSide, specifier, "", registry.AssertedScript).Await(ctx)
}
