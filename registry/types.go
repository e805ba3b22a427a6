package registry

// ModuleID is a dense, zero-based identifier assigned in creation order.
// IDs are stable for the lifetime of a registry and are never reused;
// the only way to discard one is to clear the whole registry.
type ModuleID int

// LoadID identifies one top-level load or one dynamic-import operation.
// The counter starts at 1 and survives snapshots.
type LoadID int64

// ModuleType is the kind of a compiled module.
type ModuleType int

const (
	ModuleTypeScript ModuleType = iota
	ModuleTypeJSON
)

func (t ModuleType) String() string {
	switch t {
	case ModuleTypeScript:
		return "script"
	case ModuleTypeJSON:
		return "json"
	default:
		return "unknown"
	}
}

// Asserted returns the assertion partition this module type registers
// under.
func (t ModuleType) Asserted() AssertedType {
	if t == ModuleTypeJSON {
		return AssertedJSON
	}
	return AssertedScript
}

// AssertedType is the module kind derived from import-assertion syntax.
// It partitions module identity: the same name may independently denote
// a script module and a JSON module.
type AssertedType int

const (
	AssertedScript AssertedType = iota
	AssertedJSON
)

func (t AssertedType) String() string {
	switch t {
	case AssertedScript:
		return "script"
	case AssertedJSON:
		return "json"
	default:
		return "unknown"
	}
}

// ModuleRequest is one edge in the dependency graph: the specifier
// exactly as written by the importing module, plus the asserted type.
// Order follows source import order.
type ModuleRequest struct {
	Specifier    string
	AssertedType AssertedType
}

// ModuleInfo is the registry's metadata for one compiled module. The
// info list is index-aligned with the compiled-handle list.
type ModuleInfo struct {
	ID       ModuleID
	Main     bool
	Name     string
	Type     ModuleType
	Requests []ModuleRequest
}

// symbolicModule is a closed tagged union: a name either aliases
// another name in the same partition or denotes a compiled module.
// Exhaustive type switches over it keep resolution logic total.
type symbolicModule interface {
	isSymbolicModule()
}

// aliasEntry redirects a name to another name under the same asserted
// type, typically because a resolved specifier differs from the form it
// was requested under.
type aliasEntry struct {
	target string
}

// modEntry binds a name to a compiled module id.
type modEntry struct {
	id ModuleID
}

func (aliasEntry) isSymbolicModule() {}
func (modEntry) isSymbolicModule()   {}
