// Package presence tracks which users are currently reachable.
//
// The Registry maps a username to at most one live session. Registration
// is last-wins: a second connection for the same username displaces the
// first, which keeps routing unambiguous without multi-device fan-out.
// Unregistration only removes an exact session match, so a displaced
// connection that disconnects later cannot knock the newer session
// offline.
//
// All operations are non-blocking map accesses under a read-write mutex;
// Lookup never suspends the caller.
package presence
