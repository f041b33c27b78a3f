// Package auth provides token authentication for the relay.
//
// # Tokens
//
// Users authenticate with JWT bearer tokens signed with HS256 using the
// configured jwt_secret. A verified token yields Claims:
//
//   - UserID: the user's stable identifier ("sub" claim)
//   - Username: routing identity for presence and message authorship
//   - Admin: grants access to the admin endpoints
//
// Expiry ("exp") is enforced by the JWT library against the wall clock at
// verification time.
//
// # Context Plumbing
//
// Verified claims travel through request handling via context:
//
//	ctx = auth.WithClaims(ctx, claims)
//	claims := auth.FromContext(ctx)
//
// The HTTP middleware and the websocket handshake both use this pattern, so
// handlers never care which transport authenticated the caller.
package auth
