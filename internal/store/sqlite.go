// ABOUTME: SQLite implementation of the Store interface using modernc.org/sqlite
// ABOUTME: Provides user/message persistence with automatic schema creation

package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// timeLayout preserves sub-second precision so conversation ordering is
// stable even for messages saved within the same second.
const timeLayout = time.RFC3339Nano

// SQLiteStore implements the Store interface using SQLite
type SQLiteStore struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewSQLiteStore creates a new SQLite store at the given path.
// The schema is automatically created if it doesn't exist.
// Parent directories are created if needed.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	logger := slog.Default().With("component", "store")

	// Ensure parent directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating database directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// Enable WAL mode for better concurrent performance
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}

	// Enable foreign keys
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	s := &SQLiteStore{
		db:     db,
		logger: logger,
	}

	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	logger.Info("SQLite store initialized", "path", path)
	return s, nil
}

// createSchema creates the database tables if they don't exist
func (s *SQLiteStore) createSchema() error {
	schema := `
		CREATE TABLE IF NOT EXISTS users (
			id            TEXT PRIMARY KEY,
			username      TEXT NOT NULL UNIQUE,
			email         TEXT NOT NULL UNIQUE,
			password_hash TEXT NOT NULL,
			is_admin      INTEGER NOT NULL DEFAULT 0,
			created_at    TEXT NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_users_username ON users(username);
		CREATE INDEX IF NOT EXISTS idx_users_email ON users(email);

		CREATE TABLE IF NOT EXISTS contacts (
			user_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			contact TEXT NOT NULL,

			PRIMARY KEY (user_id, contact)
		);

		CREATE TABLE IF NOT EXISTS messages (
			id        TEXT PRIMARY KEY,
			from_user TEXT NOT NULL,
			to_user   TEXT NOT NULL,
			text      TEXT NOT NULL,
			timestamp TEXT NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_messages_pair
			ON messages(from_user, to_user, timestamp);

		CREATE INDEX IF NOT EXISTS idx_messages_to
			ON messages(to_user, timestamp);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Close closes the database connection
func (s *SQLiteStore) Close() error {
	s.logger.Info("closing SQLite store")
	return s.db.Close()
}

// isConstraintViolation checks if the error is a SQLite UNIQUE constraint violation
func isConstraintViolation(err error) bool {
	if err == nil {
		return false
	}
	errStr := err.Error()
	return strings.Contains(errStr, "UNIQUE constraint failed") ||
		strings.Contains(errStr, "constraint failed")
}

// SaveMessage inserts a message into the durable log.
// The message ID must already be assigned by the caller.
func (s *SQLiteStore) SaveMessage(ctx context.Context, msg *Message) error {
	query := `
		INSERT INTO messages (id, from_user, to_user, text, timestamp)
		VALUES (?, ?, ?, ?, ?)
	`

	_, err := s.db.ExecContext(ctx, query,
		msg.ID,
		msg.From,
		msg.To,
		msg.Text,
		msg.Timestamp.UTC().Format(timeLayout),
	)
	if err != nil {
		return fmt.Errorf("inserting message: %w", err)
	}

	s.logger.Debug("saved message", "id", msg.ID, "from", msg.From, "to", msg.To)
	return nil
}

// GetMessage retrieves a message by ID.
// Returns ErrNotFound if the message doesn't exist.
func (s *SQLiteStore) GetMessage(ctx context.Context, id string) (*Message, error) {
	query := `
		SELECT id, from_user, to_user, text, timestamp
		FROM messages
		WHERE id = ?
	`

	var msg Message
	var timestampStr string

	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&msg.ID,
		&msg.From,
		&msg.To,
		&msg.Text,
		&timestampStr,
	)

	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying message: %w", err)
	}

	msg.Timestamp, err = time.Parse(timeLayout, timestampStr)
	if err != nil {
		return nil, fmt.Errorf("parsing timestamp: %w", err)
	}

	return &msg, nil
}

// UpdateMessageText replaces the text and timestamp of a message.
// From, To, and ID are never touched. Returns ErrNotFound on zero rows.
func (s *SQLiteStore) UpdateMessageText(ctx context.Context, id, text string, timestamp time.Time) error {
	query := `
		UPDATE messages
		SET text = ?, timestamp = ?
		WHERE id = ?
	`

	result, err := s.db.ExecContext(ctx, query, text, timestamp.UTC().Format(timeLayout), id)
	if err != nil {
		return fmt.Errorf("updating message: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("getting rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return ErrNotFound
	}

	s.logger.Debug("updated message", "id", id)
	return nil
}

// DeleteMessage removes a message from the log.
// Returns ErrNotFound if the message doesn't exist.
func (s *SQLiteStore) DeleteMessage(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM messages WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting message: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("getting rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return ErrNotFound
	}

	s.logger.Debug("deleted message", "id", id)
	return nil
}

// ListConversation returns all messages exchanged between two users in both
// directions, ordered by timestamp ascending.
func (s *SQLiteStore) ListConversation(ctx context.Context, userA, userB string) ([]*Message, error) {
	query := `
		SELECT id, from_user, to_user, text, timestamp
		FROM messages
		WHERE (from_user = ? AND to_user = ?) OR (from_user = ? AND to_user = ?)
		ORDER BY timestamp ASC
	`

	rows, err := s.db.QueryContext(ctx, query, userA, userB, userB, userA)
	if err != nil {
		return nil, fmt.Errorf("querying conversation: %w", err)
	}
	defer rows.Close()

	return scanMessages(rows)
}

// ListMessagesForUser returns every message sent or received by a user,
// ordered by timestamp ascending.
func (s *SQLiteStore) ListMessagesForUser(ctx context.Context, username string) ([]*Message, error) {
	query := `
		SELECT id, from_user, to_user, text, timestamp
		FROM messages
		WHERE from_user = ? OR to_user = ?
		ORDER BY timestamp ASC
	`

	rows, err := s.db.QueryContext(ctx, query, username, username)
	if err != nil {
		return nil, fmt.Errorf("querying user messages: %w", err)
	}
	defer rows.Close()

	return scanMessages(rows)
}

// scanMessages reads message rows into a slice
func scanMessages(rows *sql.Rows) ([]*Message, error) {
	var messages []*Message
	for rows.Next() {
		var msg Message
		var timestampStr string

		if err := rows.Scan(&msg.ID, &msg.From, &msg.To, &msg.Text, &timestampStr); err != nil {
			return nil, fmt.Errorf("scanning message row: %w", err)
		}

		var err error
		msg.Timestamp, err = time.Parse(timeLayout, timestampStr)
		if err != nil {
			return nil, fmt.Errorf("parsing message timestamp: %w", err)
		}

		messages = append(messages, &msg)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating message rows: %w", err)
	}

	return messages, nil
}

// CreateUser inserts a new user account.
// Returns ErrDuplicateUser if the username or email is already taken.
func (s *SQLiteStore) CreateUser(ctx context.Context, user *User) error {
	query := `
		INSERT INTO users (id, username, email, password_hash, is_admin, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	_, err := s.db.ExecContext(ctx, query,
		user.ID,
		user.Username,
		user.Email,
		user.PasswordHash,
		boolToInt(user.Admin),
		user.CreatedAt.UTC().Format(timeLayout),
	)
	if err != nil {
		if isConstraintViolation(err) {
			return ErrDuplicateUser
		}
		return fmt.Errorf("inserting user: %w", err)
	}

	s.logger.Debug("created user", "id", user.ID, "username", user.Username)
	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// GetUserByID retrieves a user by ID.
// Returns ErrNotFound if the user doesn't exist.
func (s *SQLiteStore) GetUserByID(ctx context.Context, id string) (*User, error) {
	return s.getUser(ctx, `WHERE id = ?`, id)
}

// GetUserByEmail retrieves a user by email.
func (s *SQLiteStore) GetUserByEmail(ctx context.Context, email string) (*User, error) {
	return s.getUser(ctx, `WHERE email = ?`, email)
}

// GetUserByUsername retrieves a user by username.
func (s *SQLiteStore) GetUserByUsername(ctx context.Context, username string) (*User, error) {
	return s.getUser(ctx, `WHERE username = ?`, username)
}

func (s *SQLiteStore) getUser(ctx context.Context, where string, arg any) (*User, error) {
	query := `
		SELECT id, username, email, password_hash, is_admin, created_at
		FROM users ` + where

	var user User
	var isAdmin int
	var createdAtStr string

	err := s.db.QueryRowContext(ctx, query, arg).Scan(
		&user.ID,
		&user.Username,
		&user.Email,
		&user.PasswordHash,
		&isAdmin,
		&createdAtStr,
	)

	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying user: %w", err)
	}

	user.Admin = isAdmin != 0
	user.CreatedAt, err = time.Parse(timeLayout, createdAtStr)
	if err != nil {
		return nil, fmt.Errorf("parsing created_at: %w", err)
	}

	user.Contacts, err = s.ListContacts(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	return &user, nil
}

// ListUsers returns all user accounts ordered by username.
// Contact lists are not populated; callers that need them fetch individually.
func (s *SQLiteStore) ListUsers(ctx context.Context) ([]*User, error) {
	query := `
		SELECT id, username, email, password_hash, is_admin, created_at
		FROM users
		ORDER BY username
	`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("querying users: %w", err)
	}
	defer rows.Close()

	var users []*User
	for rows.Next() {
		var user User
		var isAdmin int
		var createdAtStr string

		if err := rows.Scan(&user.ID, &user.Username, &user.Email, &user.PasswordHash, &isAdmin, &createdAtStr); err != nil {
			return nil, fmt.Errorf("scanning user row: %w", err)
		}

		user.Admin = isAdmin != 0
		user.CreatedAt, err = time.Parse(timeLayout, createdAtStr)
		if err != nil {
			return nil, fmt.Errorf("parsing created_at: %w", err)
		}

		users = append(users, &user)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating user rows: %w", err)
	}

	return users, nil
}

// DeleteUser removes a user account and cascade-deletes every message the
// user sent or received. The whole operation runs in one transaction so a
// failure leaves both tables untouched.
func (s *SQLiteStore) DeleteUser(ctx context.Context, id string) error {
	user, err := s.GetUserByID(ctx, id)
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM messages WHERE from_user = ? OR to_user = ?`,
		user.Username, user.Username,
	); err != nil {
		return fmt.Errorf("deleting user messages: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, id); err != nil {
		return fmt.Errorf("deleting user: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing user delete: %w", err)
	}

	s.logger.Info("deleted user", "id", id, "username", user.Username)
	return nil
}

// AddContact adds a contact to a user's contact list.
// Returns ErrDuplicateContact if the contact is already present.
func (s *SQLiteStore) AddContact(ctx context.Context, userID, contact string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO contacts (user_id, contact) VALUES (?, ?)`,
		userID, contact,
	)
	if err != nil {
		if isConstraintViolation(err) {
			return ErrDuplicateContact
		}
		return fmt.Errorf("inserting contact: %w", err)
	}

	s.logger.Debug("added contact", "user_id", userID, "contact", contact)
	return nil
}

// RemoveContact removes a contact from a user's contact list.
// Returns ErrNotFound if the contact isn't present.
func (s *SQLiteStore) RemoveContact(ctx context.Context, userID, contact string) error {
	result, err := s.db.ExecContext(ctx,
		`DELETE FROM contacts WHERE user_id = ? AND contact = ?`,
		userID, contact,
	)
	if err != nil {
		return fmt.Errorf("deleting contact: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("getting rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}

// ListContacts returns a user's contacts ordered alphabetically.
func (s *SQLiteStore) ListContacts(ctx context.Context, userID string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT contact FROM contacts WHERE user_id = ? ORDER BY contact`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("querying contacts: %w", err)
	}
	defer rows.Close()

	var contacts []string
	for rows.Next() {
		var c string
		if err := rows.Scan(&c); err != nil {
			return nil, fmt.Errorf("scanning contact row: %w", err)
		}
		contacts = append(contacts, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating contact rows: %w", err)
	}

	return contacts, nil
}

// Ensure SQLiteStore implements Store interface
var _ Store = (*SQLiteStore)(nil)
