// Package store provides persistent storage for the relay using SQLite.
//
// # Architecture
//
// The store package uses an interface-driven architecture with specialized
// interfaces:
//
//   - MessageStore: Message persistence and conversation history
//   - UserStore: User accounts, contacts, and admin listings
//   - Store: Composition of both plus lifecycle management
//
// SQLiteStore implements all interfaces in a single struct, allowing easy
// composition while maintaining clear interface boundaries. MockStore is an
// in-memory implementation for tests, with injectable failures.
//
// # Data Models
//
//   - Message: A relayed chat message between two usernames
//   - User: An account with credentials, contact list, and admin flag
//
// # Storage Details
//
// Timestamps are stored as RFC 3339 strings with nanosecond precision in UTC,
// so lexicographic index order matches chronological order. The database runs
// in WAL mode with foreign keys enabled; deleting a user removes the account,
// its contacts, and every message the user sent or received in one
// transaction.
package store
