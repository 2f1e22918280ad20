// Package extension provides extension loading and the per-extension
// session loop.
//
// An Extension pairs an id with the raw wasm bytes and a config JSON
// string. Starting an extension instantiates it in its own engine, reads
// its metadata, runs its constructor, and spawns a loop that feeds queued
// commands to the guest one at a time.
//
// # Session Lifecycle
//
//	ext, _ := extension.Load("weather", `{"region":"eu"}`, "./weather.wasm")
//	session, err := ext.Start(ctx)
//	if err != nil {
//	    // load or instantiation failure, no session exists
//	}
//
//	for resp := range session.Responses() {
//	    // first the Metadata response, then one response per command
//	}
//
// Commands are enqueued with Send and never block the caller. The loop
// processes them strictly in order: a slow ExecuteTool delays every
// command behind it. Close stops intake; the loop drains what was already
// queued, releases the guest, and closes Responses.
//
// Every failure inside the loop surfaces as an Error response on the
// response stream rather than killing the session. Guest-reported
// failures keep their message verbatim; VM faults are prefixed with
// "runtime error:".
package extension
