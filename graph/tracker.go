package graph

import (
	"context"

	"go.uber.org/zap"

	"github.com/wippyai/script-host/loader"
	"github.com/wippyai/script-host/registry"
)

type inflightKey struct {
	name string
	at   registry.AssertedType
}

// Tracker manages concurrently in-flight import() operations for one
// registry. Each operation gets a LoadID correlated to a caller-visible
// promise; load tasks move through a preparing set (expansion in
// progress) and a pending set (expanded, awaiting settlement), both
// polled once per event-loop turn.
//
// Two dynamic imports of the same not-yet-registered module share one
// load task: the later caller's promise attaches to the in-flight
// task's completion instead of starting a second fetch/compile.
type Tracker struct {
	reg       *registry.Registry
	promises  map[registry.LoadID]*Promise
	preparing []*Load
	pending   []*Load
	inflight  map[inflightKey]*Load
	keys      map[*Load]inflightKey
	waiters   map[*Load][]registry.LoadID
}

// NewTracker creates a tracker over the given registry.
func NewTracker(reg *registry.Registry) *Tracker {
	return &Tracker{
		reg:      reg,
		promises: make(map[registry.LoadID]*Promise),
		inflight: make(map[inflightKey]*Load),
		keys:     make(map[*Load]inflightKey),
		waiters:  make(map[*Load][]registry.LoadID),
	}
}

// Start begins a dynamic import. The specifier is resolved immediately
// and synchronously: an already-registered target settles the promise
// right away with no fetch and no re-compile, and a resolution failure
// rejects it right away. Only a genuinely new module dispatches (or
// joins) a load task.
func (t *Tracker) Start(specifier, referrer string, at registry.AssertedType, p *Promise) registry.LoadID {
	id := t.reg.NextLoadID()
	t.promises[id] = p

	name, err := t.reg.Loader().Resolve(specifier, referrer, loader.KindDynamicImport)
	if err != nil {
		t.settle(id, 0, err)
		return id
	}

	if t.reg.IsRegistered(name, at) {
		mid, _, _ := t.reg.Resolve(name, at)
		t.settle(id, mid, nil)
		return id
	}

	key := inflightKey{name: name, at: at}
	if existing, ok := t.inflight[key]; ok {
		t.waiters[existing] = append(t.waiters[existing], id)
		Logger().Debug("dynamic import joined in-flight load",
			zap.Int64("load_id", int64(id)),
			zap.Int64("joined", int64(existing.ID())),
			zap.String("name", name))
		return id
	}

	load := newLoadWithID(t.reg, id, ModeDynamicImport, specifier, referrer, at)
	t.inflight[key] = load
	t.keys[load] = key
	t.preparing = append(t.preparing, load)
	Logger().Debug("dynamic import dispatched",
		zap.Int64("load_id", int64(id)),
		zap.String("specifier", specifier),
		zap.String("referrer", referrer))
	return id
}

// Poll advances every preparing load one turn, moves finished loads to
// the pending set, and settles pending loads against their promises.
// Call it from the host's event loop while HasPending reports true.
func (t *Tracker) Poll(ctx context.Context) {
	still := t.preparing[:0]
	for _, l := range t.preparing {
		done, _ := l.Poll(ctx)
		if done {
			t.pending = append(t.pending, l)
		} else {
			still = append(still, l)
		}
	}
	t.preparing = still

	if len(t.pending) == 0 {
		return
	}
	settled := t.pending
	t.pending = nil
	for _, l := range settled {
		t.finish(l)
	}
}

// finish drops the load from the in-flight index by the exact key it
// was dispatched under. The key is recorded at dispatch because the
// load's own view of its root name is not trustworthy after a failure
// (the load may have died before root resolution), and a stale index
// entry would strand every later waiter on a dead load.
func (t *Tracker) finish(l *Load) {
	delete(t.inflight, t.keys[l])
	delete(t.keys, l)

	ids := append([]registry.LoadID{l.ID()}, t.waiters[l]...)
	delete(t.waiters, l)

	rootID, _ := l.RootID()
	for _, id := range ids {
		t.settle(id, rootID, l.Err())
	}
}

func (t *Tracker) settle(id registry.LoadID, mid registry.ModuleID, err error) {
	p, ok := t.promises[id]
	delete(t.promises, id)
	if !ok || p == nil {
		return
	}
	if err != nil {
		p.Reject(err)
		return
	}
	p.Fulfill(mid)
}

// HasPending reports whether any dynamic import is still in flight.
// Hosts keep their event loop running while it returns true.
func (t *Tracker) HasPending() bool {
	return len(t.preparing) > 0 || len(t.pending) > 0
}

// Clear drops every in-flight task and tracked promise without
// settling them. Use together with Registry.Clear when tearing down an
// engine instance.
func (t *Tracker) Clear() {
	t.promises = make(map[registry.LoadID]*Promise)
	t.preparing = nil
	t.pending = nil
	t.inflight = make(map[inflightKey]*Load)
	t.keys = make(map[*Load]inflightKey)
	t.waiters = make(map[*Load][]registry.LoadID)
}
