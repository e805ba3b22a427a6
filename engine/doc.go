// Package engine defines the compilation collaborator of the script
// host: an Engine turns raw module source into opaque compiled handles
// and reports each module's static import requests.
//
// The package ships a wazero-backed engine for hosts whose modules are
// core WebAssembly binaries, plus a SyntheticModule primitive used by
// the registry's JSON module adapter. Other engines only need to
// implement the four-method Engine interface and return comparable
// handles.
package engine
