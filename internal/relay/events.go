// ABOUTME: Wire event envelope and constructors for outbound relay events
// ABOUTME: Defines inbound/outbound event names and their JSON payload shapes

package relay

import "github.com/chatsapp/relay/internal/store"

// Inbound event names accepted over the websocket.
const (
	EventRegisterUser  = "register-user"
	EventSendMessage   = "send-message"
	EventEditMessage   = "edit-message"
	EventDeleteMessage = "delete-message"
	EventTyping        = "typing"
)

// Outbound event names delivered to sessions.
const (
	EventMessageReceived = "message-received"
	EventMessageUpdated  = "message-updated"
	EventMessageDeleted  = "message-deleted"
	EventError           = "error"
)

// Event is the wire envelope for both directions: a name plus a
// name-specific payload, serialized as {"event": ..., "data": ...}.
type Event struct {
	Name string `json:"event"`
	Data any    `json:"data,omitempty"`
}

// SendPayload is the inbound payload for send-message.
type SendPayload struct {
	To   string `json:"to"`
	Text string `json:"text"`
}

// EditPayload is the inbound payload for edit-message.
type EditPayload struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

// DeletePayload is the inbound payload for delete-message.
type DeletePayload struct {
	ID string `json:"id"`
}

// RegisterPayload is the inbound payload for register-user. The username
// field is accepted for wire compatibility but ignored; the registry binds
// the username from the session's verified token.
type RegisterPayload struct {
	Username string `json:"username"`
}

// TypingPayload is used in both directions: inbound it names the
// recipient, outbound it names the sender.
type TypingPayload struct {
	To   string `json:"to,omitempty"`
	From string `json:"from,omitempty"`
}

// DeletedPayload is the outbound payload for message-deleted.
type DeletedPayload struct {
	ID string `json:"id"`
}

// ErrorPayload is the outbound payload for error events.
type ErrorPayload struct {
	Message string `json:"message"`
}

// MessageReceived builds the outbound event for a newly persisted message.
func MessageReceived(msg *store.Message) Event {
	return Event{Name: EventMessageReceived, Data: msg}
}

// MessageUpdated builds the outbound event for an edited message. The
// payload carries the canonical stored record, not the caller's input.
func MessageUpdated(msg *store.Message) Event {
	return Event{Name: EventMessageUpdated, Data: msg}
}

// MessageDeleted builds the outbound event announcing a deletion.
func MessageDeleted(id string) Event {
	return Event{Name: EventMessageDeleted, Data: DeletedPayload{ID: id}}
}

// Typing builds the outbound typing indicator naming the sender.
func Typing(from string) Event {
	return Event{Name: EventTyping, Data: TypingPayload{From: from}}
}

// ErrorEvent builds a targeted error event for the issuing session.
func ErrorEvent(message string) Event {
	return Event{Name: EventError, Data: ErrorPayload{Message: message}}
}
