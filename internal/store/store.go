// ABOUTME: Store interface and data types for relay persistence
// ABOUTME: Defines User, Message structs and the Store interface for database operations

package store

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a requested entity does not exist
var ErrNotFound = errors.New("not found")

// ErrDuplicateUser is returned when a username or email is already taken
var ErrDuplicateUser = errors.New("username or email already exists")

// ErrDuplicateContact is returned when adding a contact that already exists
var ErrDuplicateContact = errors.New("contact already exists")

// User represents a registered account
type User struct {
	ID           string
	Username     string
	Email        string
	PasswordHash string
	Contacts     []string
	Admin        bool
	CreatedAt    time.Time
}

// Message represents a single direct message in the durable log.
// ID is assigned before insert and immutable afterwards; From and To never
// change after creation. Edits replace Text and refresh Timestamp.
type Message struct {
	ID        string    `json:"id"`
	From      string    `json:"from"`
	To        string    `json:"to"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

// MessageStore is the narrow contract the routing engine needs from the
// durable log. All calls may suspend on I/O and must be treated as fallible.
type MessageStore interface {
	SaveMessage(ctx context.Context, msg *Message) error
	GetMessage(ctx context.Context, id string) (*Message, error)
	UpdateMessageText(ctx context.Context, id, text string, timestamp time.Time) error
	DeleteMessage(ctx context.Context, id string) error
	ListConversation(ctx context.Context, userA, userB string) ([]*Message, error)
	ListMessagesForUser(ctx context.Context, username string) ([]*Message, error)
}

// UserStore provides account persistence for the HTTP surface
type UserStore interface {
	CreateUser(ctx context.Context, user *User) error
	GetUserByID(ctx context.Context, id string) (*User, error)
	GetUserByEmail(ctx context.Context, email string) (*User, error)
	GetUserByUsername(ctx context.Context, username string) (*User, error)
	ListUsers(ctx context.Context) ([]*User, error)

	// DeleteUser removes the account and cascade-deletes every message the
	// user sent or received, in a single transaction.
	DeleteUser(ctx context.Context, id string) error

	AddContact(ctx context.Context, userID, contact string) error
	RemoveContact(ctx context.Context, userID, contact string) error
	ListContacts(ctx context.Context, userID string) ([]string, error)
}

// Store combines message and user persistence
type Store interface {
	MessageStore
	UserStore

	// Close releases any resources held by the store
	Close() error
}
