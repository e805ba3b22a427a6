// Package scripthost provides the module system for an embedded
// scripting-engine host: a registry of compiled modules, a recursive
// graph loader, dynamic-import tracking, and snapshot support.
//
// # Architecture Overview
//
// The library is organized into several packages with distinct responsibilities:
//
//	script-host/
//	├── registry/        Module registry: ids, names, aliases, JSON modules, snapshots
//	├── graph/           Recursive graph loader and dynamic-import tracker
//	├── engine/          Engine abstraction, wazero adapter, synthetic modules
//	├── loader/          Resolution and fetching: filesystem, static, import maps
//	└── errors/          Structured error types for debugging
//
// # Quick Start
//
// Load a module graph from a directory and walk it:
//
//	eng, err := engine.NewWazero(ctx)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer eng.Close(ctx)
//
//	reg := registry.New(loader.NewFS("./modules"), eng)
//
//	rootID, err := graph.LoadMain(ctx, reg, "app.wasm")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	info, _ := reg.Info(rootID)
//	for _, req := range info.Requests {
//	    fmt.Println(req.Specifier)
//	}
//
// # Module Identity
//
// Modules are identified three ways:
//
//   - ModuleID: a dense integer assigned in creation order, never reused
//   - Name: the fully resolved specifier, unique per asserted type
//   - Handle: the engine's compiled artifact, position-aligned with ids
//
// Names are partitioned by asserted type, so "data.json" imported as a
// JSON module and as a script module are two independent registrations.
// Aliases redirect one name to another within a partition; resolution
// follows alias chains and reports cycles instead of looping.
//
// # Dynamic Imports
//
// The graph.Tracker manages dynamic imports for an event loop. Each
// import gets a Promise settled when its subgraph finishes loading;
// concurrent imports of the same target share one underlying load.
//
// # Thread Safety
//
// Registry and Tracker are confined to a single goroutine, matching an
// event-loop host. Only module fetching runs concurrently, internal to
// a load. Promise is safe to observe from other goroutines.
package scripthost
