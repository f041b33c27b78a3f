// ABOUTME: Routing engine for chat events: dispatch, persistence, and fan-out
// ABOUTME: Enforces sender identity, ownership checks, and per-message serialization

package relay

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/chatsapp/relay/internal/auth"
	"github.com/chatsapp/relay/internal/store"
)

// Session is a live authenticated connection. Implementations must be
// pointer types so registry exact-match comparison works.
type Session interface {
	// Deliver enqueues an outbound event without blocking. Events are
	// dropped when the session's send buffer is full.
	Deliver(event Event)
	// Claims returns the verified token claims for this connection.
	Claims() *auth.Claims
}

// Presence tracks which username is reachable through which session.
type Presence interface {
	Register(username string, sess Session)
	Unregister(username string, sess Session)
	Lookup(username string) (Session, bool)
}

// Relay routes inbound chat events to the store and to online sessions.
// All sender identity comes from the session's verified claims; payload
// fields claiming a different sender are ignored.
type Relay struct {
	store    store.MessageStore
	presence Presence
	logger   *slog.Logger

	locksMu sync.Mutex
	locks   map[string]*idLock
}

type idLock struct {
	mu   sync.Mutex
	refs int
}

// New creates a Relay. Pass nil logger for default.
func New(messages store.MessageStore, presence Presence, logger *slog.Logger) *Relay {
	if logger == nil {
		logger = slog.Default()
	}
	return &Relay{
		store:    messages,
		presence: presence,
		logger:   logger.With("component", "relay"),
		locks:    make(map[string]*idLock),
	}
}

// lockID serializes read-check-write sequences on a single message id.
// The returned func releases the lock and drops the entry once idle.
func (r *Relay) lockID(id string) func() {
	r.locksMu.Lock()
	l, ok := r.locks[id]
	if !ok {
		l = &idLock{}
		r.locks[id] = l
	}
	l.refs++
	r.locksMu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		r.locksMu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(r.locks, id)
		}
		r.locksMu.Unlock()
	}
}

// Dispatch decodes an inbound envelope and invokes the matching handler.
// Operation failures resolve to a single error event on the issuing
// session; nothing here ever propagates a panic or kills the connection.
func (r *Relay) Dispatch(ctx context.Context, sess Session, name string, data json.RawMessage) {
	err := r.dispatch(ctx, sess, name, data)
	if err == nil {
		return
	}

	var storageErr *StorageError
	if errors.As(err, &storageErr) {
		r.logger.Error("storage failure",
			"event", name,
			"user", sess.Claims().Username,
			"error", err)
	} else {
		r.logger.Warn("event rejected",
			"event", name,
			"user", sess.Claims().Username,
			"reason", err)
	}
	sess.Deliver(ErrorEvent(clientMessage(err)))
}

func (r *Relay) dispatch(ctx context.Context, sess Session, name string, data json.RawMessage) error {
	switch name {
	case EventRegisterUser:
		// Payload ignored; the binding always uses the verified identity.
		r.HandleRegister(sess)
		return nil
	case EventSendMessage:
		var p SendPayload
		if err := json.Unmarshal(data, &p); err != nil {
			return &ValidationError{Reason: "malformed send-message payload"}
		}
		return r.HandleSend(ctx, sess, p.To, p.Text)
	case EventEditMessage:
		var p EditPayload
		if err := json.Unmarshal(data, &p); err != nil {
			return &ValidationError{Reason: "malformed edit-message payload"}
		}
		return r.HandleEdit(ctx, sess, p.ID, p.Text)
	case EventDeleteMessage:
		var p DeletePayload
		if err := json.Unmarshal(data, &p); err != nil {
			return &ValidationError{Reason: "malformed delete-message payload"}
		}
		return r.HandleDelete(ctx, sess, p.ID)
	case EventTyping:
		var p TypingPayload
		if err := json.Unmarshal(data, &p); err != nil {
			return &ValidationError{Reason: "malformed typing payload"}
		}
		return r.HandleTyping(sess, p.To)
	default:
		return &ValidationError{Reason: "unknown event: " + name}
	}
}

// HandleRegister binds the session's authenticated username into the
// presence registry. Re-registration displaces any prior session.
func (r *Relay) HandleRegister(sess Session) {
	username := sess.Claims().Username
	r.presence.Register(username, sess)
	r.logger.Info("user registered", "user", username)
}

// HandleSend validates, persists, and fans out a new message. The stored
// sender is always the session's username. An offline recipient is not an
// error; the message is persisted and the echo still goes to the sender.
func (r *Relay) HandleSend(ctx context.Context, sess Session, to, text string) error {
	from := sess.Claims().Username
	if to == "" {
		return &ValidationError{Reason: "recipient is required"}
	}
	if text == "" {
		return &ValidationError{Reason: "message text is required"}
	}

	msg := &store.Message{
		ID:        uuid.New().String(),
		From:      from,
		To:        to,
		Text:      text,
		Timestamp: time.Now().UTC(),
	}
	if err := r.store.SaveMessage(ctx, msg); err != nil {
		return &StorageError{Op: "save", Err: err}
	}

	r.logger.Debug("message relayed", "id", msg.ID, "from", from, "to", to)

	ev := MessageReceived(msg)
	sess.Deliver(ev)
	if peer, ok := r.presence.Lookup(to); ok && peer != sess {
		peer.Deliver(ev)
	}
	return nil
}

// HandleEdit replaces the text of a message owned by the session's user
// and fans out the canonical stored record. A missing record and a
// foreign record both fail authorization, indistinguishably.
func (r *Relay) HandleEdit(ctx context.Context, sess Session, id, text string) error {
	username := sess.Claims().Username
	if id == "" {
		return &ValidationError{Reason: "message id is required"}
	}
	if text == "" {
		return &ValidationError{Reason: "message text is required"}
	}

	unlock := r.lockID(id)
	defer unlock()

	rec, err := r.store.GetMessage(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return &AuthorizationError{Reason: "cannot edit this message"}
		}
		return &StorageError{Op: "get", Err: err}
	}
	if rec.From != username {
		return &AuthorizationError{Reason: "cannot edit this message"}
	}

	if err := r.store.UpdateMessageText(ctx, id, text, time.Now().UTC()); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return &AuthorizationError{Reason: "cannot edit this message"}
		}
		return &StorageError{Op: "update", Err: err}
	}

	updated, err := r.store.GetMessage(ctx, id)
	if err != nil {
		return &StorageError{Op: "get", Err: err}
	}

	r.logger.Debug("message edited", "id", id, "from", username)

	ev := MessageUpdated(updated)
	sess.Deliver(ev)
	if peer, ok := r.presence.Lookup(rec.To); ok && peer != sess {
		peer.Deliver(ev)
	}
	return nil
}

// HandleDelete removes a message owned by the session's user and fans
// out the deletion to both conversation parties.
func (r *Relay) HandleDelete(ctx context.Context, sess Session, id string) error {
	username := sess.Claims().Username
	if id == "" {
		return &ValidationError{Reason: "message id is required"}
	}

	unlock := r.lockID(id)
	defer unlock()

	rec, err := r.store.GetMessage(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return &AuthorizationError{Reason: "cannot delete this message"}
		}
		return &StorageError{Op: "get", Err: err}
	}
	if rec.From != username {
		return &AuthorizationError{Reason: "cannot delete this message"}
	}

	if err := r.store.DeleteMessage(ctx, id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return &AuthorizationError{Reason: "cannot delete this message"}
		}
		return &StorageError{Op: "delete", Err: err}
	}

	r.logger.Debug("message deleted", "id", id, "from", username)

	ev := MessageDeleted(id)
	sess.Deliver(ev)
	if peer, ok := r.presence.Lookup(rec.To); ok && peer != sess {
		peer.Deliver(ev)
	}
	return nil
}

// HandleTyping forwards a typing indicator to the recipient if online.
// Nothing is persisted and an offline recipient is a silent no-op.
func (r *Relay) HandleTyping(sess Session, to string) error {
	if to == "" {
		return &ValidationError{Reason: "recipient is required"}
	}
	from := sess.Claims().Username
	if peer, ok := r.presence.Lookup(to); ok && peer != sess {
		peer.Deliver(Typing(from))
	}
	return nil
}

// HandleDisconnect removes the session from the registry. The exact-match
// rule means a displaced connection's late disconnect cannot evict the
// session that displaced it.
func (r *Relay) HandleDisconnect(sess Session) {
	username := sess.Claims().Username
	r.presence.Unregister(username, sess)
	r.logger.Info("user disconnected", "user", username)
}
