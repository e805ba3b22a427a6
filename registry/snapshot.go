package registry

import (
	"fmt"
	"sort"

	"github.com/vmihailenco/msgpack/v5"
	"go.uber.org/zap"

	"github.com/wippyai/script-host/engine"
	"github.com/wippyai/script-host/errors"
)

// Snapshot payload layout. The payload deliberately excludes compiled
// handles: those are engine-specific binary state and must be captured
// by the engine's own snapshot mechanism. RestoreSnapshot reattaches
// them positionally.

type snapshotRequest struct {
	Specifier    string `msgpack:"specifier"`
	AssertedType uint8  `msgpack:"asserted_type"`
}

type snapshotModule struct {
	ID       int               `msgpack:"id"`
	Main     bool              `msgpack:"main"`
	Name     string            `msgpack:"name"`
	Type     uint8             `msgpack:"type"`
	Requests []snapshotRequest `msgpack:"requests"`
}

type snapshotEntry struct {
	Name         string `msgpack:"name"`
	AssertedType uint8  `msgpack:"asserted_type"`
	IsAlias      bool   `msgpack:"is_alias"`
	Alias        string `msgpack:"alias,omitempty"`
	ModuleID     int    `msgpack:"module_id,omitempty"`
}

type snapshotData struct {
	NextLoadID int64            `msgpack:"next_load_id"`
	Modules    []snapshotModule `msgpack:"modules"`
	ByName     []snapshotEntry  `msgpack:"by_name"`
}

// EncodeSnapshot serializes the registry's identity state into a
// portable payload: the next-load-id counter, the module info sequence,
// and every (name, entry) pair of both asserted-type partitions.
// Entries within a partition are ordered by name so equal registries
// encode to equal payloads.
func (r *Registry) EncodeSnapshot() ([]byte, error) {
	data := snapshotData{
		NextLoadID: int64(r.nextLoadID),
		Modules:    make([]snapshotModule, 0, len(r.info)),
	}

	for _, info := range r.info {
		m := snapshotModule{
			ID:       int(info.ID),
			Main:     info.Main,
			Name:     info.Name,
			Type:     uint8(info.Type),
			Requests: make([]snapshotRequest, 0, len(info.Requests)),
		}
		for _, req := range info.Requests {
			m.Requests = append(m.Requests, snapshotRequest{
				Specifier:    req.Specifier,
				AssertedType: uint8(req.AssertedType),
			})
		}
		data.Modules = append(data.Modules, m)
	}

	for _, at := range []AssertedType{AssertedScript, AssertedJSON} {
		data.ByName = append(data.ByName, collectEntries(r.byName(at), at)...)
	}

	payload, err := msgpack.Marshal(&data)
	if err != nil {
		return nil, errors.Wrap(errors.PhaseSnapshot, errors.KindInvalidData, err, "encode registry state")
	}

	Logger().Debug("snapshot encoded",
		zap.Int("modules", len(data.Modules)),
		zap.Int("entries", len(data.ByName)),
		zap.Int("bytes", len(payload)))

	return payload, nil
}

func collectEntries(m map[string]symbolicModule, at AssertedType) []snapshotEntry {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)

	entries := make([]snapshotEntry, 0, len(names))
	for _, name := range names {
		e := snapshotEntry{Name: name, AssertedType: uint8(at)}
		switch sym := m[name].(type) {
		case aliasEntry:
			e.IsAlias = true
			e.Alias = sym.target
		case modEntry:
			e.ModuleID = int(sym.id)
		}
		entries = append(entries, e)
	}
	return entries
}

// RestoreSnapshot reconstructs registry state from a payload produced
// by EncodeSnapshot. handles must be the compiled-module handles
// recovered by the engine's own restore step, in the same order the
// modules were registered: handles[i] is attached to module info i.
// Both by-name partitions are cleared before repopulation.
func (r *Registry) RestoreSnapshot(payload []byte, handles []engine.Handle) error {
	var data snapshotData
	if err := msgpack.Unmarshal(payload, &data); err != nil {
		return errors.Wrap(errors.PhaseSnapshot, errors.KindInvalidData, err, "decode registry state")
	}

	if len(handles) != len(data.Modules) {
		return errors.InvalidData(errors.PhaseSnapshot, fmt.Sprintf(
			"handle list has %d entries for %d modules", len(handles), len(data.Modules)))
	}

	info := make([]ModuleInfo, 0, len(data.Modules)+16)
	for i, m := range data.Modules {
		if m.ID != i {
			return errors.InvalidData(errors.PhaseSnapshot, fmt.Sprintf(
				"module id %d at position %d", m.ID, i))
		}
		mt, err := moduleTypeFromWire(m.Type)
		if err != nil {
			return err
		}
		requests := make([]ModuleRequest, 0, len(m.Requests))
		for _, req := range m.Requests {
			at, err := assertedTypeFromWire(req.AssertedType)
			if err != nil {
				return err
			}
			requests = append(requests, ModuleRequest{
				Specifier:    req.Specifier,
				AssertedType: at,
			})
		}
		info = append(info, ModuleInfo{
			ID:       ModuleID(m.ID),
			Main:     m.Main,
			Name:     m.Name,
			Type:     mt,
			Requests: requests,
		})
	}

	byNameScript := make(map[string]symbolicModule)
	byNameJSON := make(map[string]symbolicModule)
	for _, e := range data.ByName {
		at, err := assertedTypeFromWire(e.AssertedType)
		if err != nil {
			return err
		}
		m := byNameScript
		if at == AssertedJSON {
			m = byNameJSON
		}
		if e.IsAlias {
			m[e.Name] = aliasEntry{target: e.Alias}
		} else {
			if e.ModuleID < 0 || e.ModuleID >= len(info) {
				return errors.InvalidData(errors.PhaseSnapshot, fmt.Sprintf(
					"entry %q references unknown module id %d", e.Name, e.ModuleID))
			}
			m[e.Name] = modEntry{id: ModuleID(e.ModuleID)}
		}
	}

	r.nextLoadID = LoadID(data.NextLoadID)
	r.info = info
	r.byNameScript = byNameScript
	r.byNameJSON = byNameJSON
	r.handles = append([]engine.Handle(nil), handles...)

	Logger().Debug("snapshot restored",
		zap.Int("modules", len(info)),
		zap.Int64("next_load_id", data.NextLoadID))

	return nil
}

func moduleTypeFromWire(v uint8) (ModuleType, error) {
	switch v {
	case uint8(ModuleTypeScript):
		return ModuleTypeScript, nil
	case uint8(ModuleTypeJSON):
		return ModuleTypeJSON, nil
	default:
		return 0, errors.InvalidData(errors.PhaseSnapshot, fmt.Sprintf("unknown module type %d", v))
	}
}

func assertedTypeFromWire(v uint8) (AssertedType, error) {
	switch v {
	case uint8(AssertedScript):
		return AssertedScript, nil
	case uint8(AssertedJSON):
		return AssertedJSON, nil
	default:
		return 0, errors.InvalidData(errors.PhaseSnapshot, fmt.Sprintf("unknown asserted type %d", v))
	}
}
