// Package protocol defines the command/response vocabulary exchanged between
// the host and extension guests.
//
// Commands and responses cross the sandbox boundary as self-describing tagged
// JSON: an envelope whose "type" field names the variant and whose "payload"
// field carries the variant's data. The encoding is versioned by convention:
// unknown variants and malformed payloads decode to a protocol error, which
// sessions recover as an in-band Error response rather than terminating.
//
// A correlation id is a caller-supplied token echoed back in the matching
// response. Responses within one session are strictly FIFO, so correlation
// ids exist for callers that pipeline several commands before responses
// return, not for reordering detection. The empty string means "absent" and
// is omitted from the wire form.
package protocol
