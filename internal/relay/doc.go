// Package relay is the routing engine at the core of the server.
//
// # Dispatch
//
// Inbound envelopes arrive as {"event": name, "data": payload} frames.
// Dispatch decodes the payload for the named event and runs the matching
// handler. Any handler failure resolves to exactly one targeted error
// event on the issuing session; nothing a client sends can crash the
// process or disturb another connection.
//
// # Identity
//
// The sender of every persisted or forwarded event is the username from
// the session's verified token claims. The wire payloads carry no sender
// field, and the register-user payload's username is ignored, so a client
// cannot impersonate another user regardless of what it sends.
//
// # Ownership
//
// Edits and deletes require the stored record's sender to match the
// session's username. A missing record reports the same authorization
// failure as a foreign one, so probing for message existence is not
// possible. Read-check-write sequences on one message id are serialized
// through a per-id lock, so concurrent edit and delete attempts cannot
// interleave between the ownership check and the mutation.
//
// # Fan-out
//
// Outbound events go to the issuing session and, when the counterparty
// is online, to its registered session. Delivery is a non-blocking
// enqueue; an offline counterparty is never an error.
package relay
