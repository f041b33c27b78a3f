// Package ws carries chat traffic over websocket connections.
//
// The Handler verifies the bearer token, taken from the Authorization
// header or the token query parameter, before upgrading; a rejected
// request never reaches the relay or the presence registry.
//
// Each connection runs two goroutines in the usual gorilla arrangement:
// a read pump that decodes inbound envelopes and dispatches them to the
// relay, and a write pump that drains the buffered send channel and
// sends keepalive pings. Client.Deliver never blocks; when the buffer is
// full the event is dropped and logged.
package ws
