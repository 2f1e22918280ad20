// Package engine provides the low-level WebAssembly execution layer for
// extension guests.
//
// This package wraps wazero to run a single extension binary inside its own
// runtime, with WASI preview1 available and a host module exposing logging
// and host capability calls to the guest.
//
// # Architecture
//
// The engine package provides two main types:
//
//	Engine   - Owns a wazero runtime configured for one extension
//	Instance - A running guest with the extension export surface
//
// # Instantiation Flow
//
//  1. New() builds the runtime, instantiates WASI and the host module
//  2. Engine.Instantiate() compiles the binary and verifies guest exports
//  3. Instance methods drive the guest: metadata, construction, commands
//
// # Guest ABI
//
// Strings cross the boundary as packed u64 values: the upper 32 bits hold a
// pointer into guest linear memory, the lower 32 bits the byte length. The
// host writes arguments by calling the guest's allocate export and copying
// into the returned region. The guest exports:
//
//	allocate(size) -> ptr      reserve size bytes in linear memory
//	get_metadata() -> packed   extension metadata as JSON
//	new(ptr, len) -> packed    construct an instance from config JSON
//	update(handle, ptr, len) -> packed   process one command
//	view(handle) -> packed     optional state snapshot
//
// Calls returning packed values use a JSON result envelope: {"ok": ...} on
// success, {"err": "message"} on guest-reported failure.
//
// # Host Module
//
// The host instantiates a module named "extension_host" before the guest.
// It always exports log_message, which routes guest log lines into the
// host logger, plus one export per registered host function. Host function
// calls take a packed request string and return a packed response string.
//
// # Thread Safety
//
// Engine is safe for concurrent use. Instance is NOT thread-safe; callers
// must serialize access, which the extension package's session does.
package engine
