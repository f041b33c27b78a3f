// Package httpapi serves the REST surface around the chat relay.
//
// Public endpoints handle registration and login; passwords are bcrypt
// hashed and logins mint the HS256 bearer tokens the websocket handshake
// verifies. Authenticated endpoints cover contact management,
// conversation history, and token validation. Admin endpoints, gated on
// the token's admin claim, expose user listing, user deletion with
// message cascade, per-user message audit, and the online-users
// snapshot.
//
// All error responses use the {"message": ...} JSON shape.
package httpapi
