// Package hostfunc defines the named capabilities a guest may call back into
// the host, independent of any WASM runtime.
//
// Each capability is a ByteHandler: JSON request bytes in, JSON response
// bytes out. The engine exports every registered handler to the guest under
// its name; the guest marshals a request, calls the import, and unmarshals
// the response. Handler failures are carried inside the response JSON so a
// misbehaving host call can never trap the guest.
//
// A Registry is immutable once built, which keeps dispatch lock-free while
// guest calls are in flight.
package hostfunc
