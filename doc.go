// Package exthost hosts sandboxed WASM extensions behind a typed
// command/response protocol.
//
// An extension is a wasm binary exporting a small JSON-speaking surface:
// identity metadata, a constructor, and an update function that turns one
// command into one response. The host runs each extension in its own wazero
// runtime, feeds it commands strictly in submission order, and publishes
// responses on a stream. A registry multiplexes many extensions behind a
// single merged event stream.
//
// # Architecture Overview
//
// The module is organized into packages with distinct responsibilities:
//
//	extension-host/      Root package, module documentation
//	├── protocol/        Command and Response tagged-union wire codec
//	├── frame/           Columnar normalization of tool result payloads
//	├── engine/          Low-level wazero integration and the guest ABI
//	├── extension/       Loader, session lifecycle, serial command loop
//	├── registry/        Many sessions, one merged event stream
//	├── hostfunc/        Host capabilities callable from guests (HTTP egress)
//	├── manifest/        Extension descriptor and discovery contract
//	└── errors/          Structured error taxonomy
//
// # Quick Start
//
// Load and talk to an extension:
//
//	ext, err := extension.Load("weather", `{"region":"eu"}`, "./weather.wasm")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	session, err := ext.Start(ctx)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer session.Close()
//
//	session.Send(protocol.ListTools("c1"))
//	for resp := range session.Responses() {
//	    fmt.Println(resp.Type) // Metadata, then ToolList
//	}
//
// # Ordering
//
// Each session processes commands one at a time in arrival order, and
// responses come back in the same order. Correlation ids exist for callers
// juggling several outstanding commands, but within one session the FIFO
// guarantee already pairs each response with its command.
//
// # Failure Model
//
// A failing command never kills its session. Guest-reported failures,
// VM faults, and codec errors all surface as Error responses carrying the
// triggering command's correlation id; the loop moves on to the next
// command. Sessions end only when closed or when their binary fails to
// load in the first place.
package exthost
