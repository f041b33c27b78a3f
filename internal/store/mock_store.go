// ABOUTME: Mock Store implementation for testing
// ABOUTME: Allows tests to run without SQLite and inject storage failures

package store

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MockStore is an in-memory Store implementation for testing.
// FailWith, when non-nil, is returned from every message mutation so tests
// can exercise storage-failure paths.
type MockStore struct {
	mu       sync.RWMutex
	messages map[string]*Message // keyed by message ID
	users    map[string]*User    // keyed by user ID

	FailWith error
}

// NewMockStore creates a new MockStore.
func NewMockStore() *MockStore {
	return &MockStore{
		messages: make(map[string]*Message),
		users:    make(map[string]*User),
	}
}

// SaveMessage stores a message.
func (m *MockStore) SaveMessage(ctx context.Context, msg *Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.FailWith != nil {
		return m.FailWith
	}

	// Make a copy to avoid external modification
	c := *msg
	m.messages[c.ID] = &c
	return nil
}

// GetMessage retrieves a message by ID.
func (m *MockStore) GetMessage(ctx context.Context, id string) (*Message, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.FailWith != nil {
		return nil, m.FailWith
	}

	msg, ok := m.messages[id]
	if !ok {
		return nil, ErrNotFound
	}

	// Return a copy
	result := *msg
	return &result, nil
}

// UpdateMessageText replaces text and timestamp of a stored message.
func (m *MockStore) UpdateMessageText(ctx context.Context, id, text string, timestamp time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.FailWith != nil {
		return m.FailWith
	}

	msg, ok := m.messages[id]
	if !ok {
		return ErrNotFound
	}

	msg.Text = text
	msg.Timestamp = timestamp
	return nil
}

// DeleteMessage removes a message.
func (m *MockStore) DeleteMessage(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.FailWith != nil {
		return m.FailWith
	}

	if _, ok := m.messages[id]; !ok {
		return ErrNotFound
	}

	delete(m.messages, id)
	return nil
}

// ListConversation returns messages between two users, ascending by timestamp.
func (m *MockStore) ListConversation(ctx context.Context, userA, userB string) ([]*Message, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []*Message
	for _, msg := range m.messages {
		if (msg.From == userA && msg.To == userB) || (msg.From == userB && msg.To == userA) {
			c := *msg
			result = append(result, &c)
		}
	}

	sortMessages(result)
	return result, nil
}

// ListMessagesForUser returns every message involving a user, ascending by timestamp.
func (m *MockStore) ListMessagesForUser(ctx context.Context, username string) ([]*Message, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []*Message
	for _, msg := range m.messages {
		if msg.From == username || msg.To == username {
			c := *msg
			result = append(result, &c)
		}
	}

	sortMessages(result)
	return result, nil
}

func sortMessages(msgs []*Message) {
	sort.Slice(msgs, func(i, j int) bool {
		return msgs[i].Timestamp.Before(msgs[j].Timestamp)
	})
}

// MessageCount returns the number of stored messages.
func (m *MockStore) MessageCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.messages)
}

// CreateUser stores a user account.
func (m *MockStore) CreateUser(ctx context.Context, user *User) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, u := range m.users {
		if u.Username == user.Username || u.Email == user.Email {
			return ErrDuplicateUser
		}
	}

	c := *user
	m.users[c.ID] = &c
	return nil
}

// GetUserByID retrieves a user by ID.
func (m *MockStore) GetUserByID(ctx context.Context, id string) (*User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	user, ok := m.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	result := *user
	return &result, nil
}

// GetUserByEmail retrieves a user by email.
func (m *MockStore) GetUserByEmail(ctx context.Context, email string) (*User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, user := range m.users {
		if user.Email == email {
			result := *user
			return &result, nil
		}
	}
	return nil, ErrNotFound
}

// GetUserByUsername retrieves a user by username.
func (m *MockStore) GetUserByUsername(ctx context.Context, username string) (*User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, user := range m.users {
		if user.Username == username {
			result := *user
			return &result, nil
		}
	}
	return nil, ErrNotFound
}

// ListUsers returns all users sorted by username.
func (m *MockStore) ListUsers(ctx context.Context) ([]*User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []*User
	for _, user := range m.users {
		c := *user
		result = append(result, &c)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Username < result[j].Username
	})
	return result, nil
}

// DeleteUser removes a user and every message they sent or received.
func (m *MockStore) DeleteUser(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	user, ok := m.users[id]
	if !ok {
		return ErrNotFound
	}

	for msgID, msg := range m.messages {
		if msg.From == user.Username || msg.To == user.Username {
			delete(m.messages, msgID)
		}
	}

	delete(m.users, id)
	return nil
}

// AddContact adds a contact to a user's contact list.
func (m *MockStore) AddContact(ctx context.Context, userID, contact string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	user, ok := m.users[userID]
	if !ok {
		return ErrNotFound
	}

	for _, c := range user.Contacts {
		if c == contact {
			return ErrDuplicateContact
		}
	}

	user.Contacts = append(user.Contacts, contact)
	sort.Strings(user.Contacts)
	return nil
}

// RemoveContact removes a contact from a user's contact list.
func (m *MockStore) RemoveContact(ctx context.Context, userID, contact string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	user, ok := m.users[userID]
	if !ok {
		return ErrNotFound
	}

	for i, c := range user.Contacts {
		if c == contact {
			user.Contacts = append(user.Contacts[:i], user.Contacts[i+1:]...)
			return nil
		}
	}
	return ErrNotFound
}

// ListContacts returns a user's contact list.
func (m *MockStore) ListContacts(ctx context.Context, userID string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	user, ok := m.users[userID]
	if !ok {
		return nil, ErrNotFound
	}

	result := make([]string, len(user.Contacts))
	copy(result, user.Contacts)
	return result, nil
}

// Close is a no-op for the mock.
func (m *MockStore) Close() error {
	return nil
}

// Ensure MockStore implements Store interface
var _ Store = (*MockStore)(nil)
