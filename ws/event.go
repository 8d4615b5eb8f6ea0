package ws

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/mqy/minisocial/api"
)

// Envelope types on the wire.
const (
	TypePing          = "ping"
	TypePong          = "pong"
	TypeChatMessage   = "chat_message"
	TypeNewMessage    = "new_message"
	TypeNewAttachment = "new_attachment"
	TypeError         = "error"
)

type EventKind int

const (
	EventPing EventKind = iota + 1
	EventNewMessage
	EventNewAttachment
	EventError
)

func (k EventKind) String() string {
	switch k {
	case EventPing:
		return "ping"
	case EventNewMessage:
		return "new_message"
	case EventNewAttachment:
		return "new_attachment"
	case EventError:
		return "error"
	}
	return fmt.Sprintf("EventKind(%d)", int(k))
}

// Event is what the channel delivers to its consumer. Message is set for
// EventNewMessage, and for EventNewAttachment it is a reference that only
// carries the ID. Text is the error for EventError and the frame type
// ("ping" or "pong") for EventPing.
type Event struct {
	Kind    EventKind
	Message *api.Message
	Text    string
}

// envelope is the JSON frame shape `{type, ...}`.
type envelope struct {
	Type       string          `json:"type"`
	Message    json.RawMessage `json:"message,omitempty"`
	ReceiverID int64           `json:"receiver_id,omitempty"`
}

// wireMessage is a message as pushed on the channel.
type wireMessage struct {
	ID             int64     `json:"id"`
	SenderID       int64     `json:"sender_id"`
	SenderUsername string    `json:"sender_username,omitempty"`
	ReceiverID     int64     `json:"receiver_id"`
	Content        string    `json:"content"`
	Timestamp      time.Time `json:"timestamp"`
}

func (w *wireMessage) toMessage() *api.Message {
	return &api.Message{
		ID:             w.ID,
		Sender:         w.SenderID,
		SenderUsername: w.SenderUsername,
		Receiver:       w.ReceiverID,
		Content:        w.Content,
		Timestamp:      w.Timestamp,
	}
}

// DecodeEvent parses an inbound frame. ok is false for frames of unknown
// type, which the channel ignores.
func DecodeEvent(data []byte) (ev Event, ok bool, err error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return Event{}, false, fmt.Errorf("ws: bad frame: %v", err)
	}

	switch env.Type {
	case TypePing, TypePong:
		return Event{Kind: EventPing, Text: env.Type}, true, nil

	case TypeNewMessage, TypeChatMessage:
		var m wireMessage
		if err := json.Unmarshal(env.Message, &m); err != nil {
			return Event{}, false, fmt.Errorf("ws: bad %s message: %v", env.Type, err)
		}
		if m.ID == 0 {
			return Event{}, false, fmt.Errorf("ws: %s without message id", env.Type)
		}
		return Event{Kind: EventNewMessage, Message: m.toMessage()}, true, nil

	case TypeNewAttachment:
		var ref struct {
			ID int64 `json:"id"`
		}
		if err := json.Unmarshal(env.Message, &ref); err != nil || ref.ID == 0 {
			return Event{}, false, fmt.Errorf("ws: bad new_attachment reference: %s", env.Message)
		}
		return Event{Kind: EventNewAttachment, Message: &api.Message{ID: ref.ID}}, true, nil

	case TypeError:
		var text string
		if err := json.Unmarshal(env.Message, &text); err != nil || text == "" {
			text = "Unknown channel error"
		}
		return Event{Kind: EventError, Text: text}, true, nil
	}

	return Event{}, false, nil
}

func encodeFrame(env *envelope) []byte {
	out, _ := json.Marshal(env)
	return out
}

func pingFrame() []byte {
	return encodeFrame(&envelope{Type: TypePing})
}

func pongFrame() []byte {
	return encodeFrame(&envelope{Type: TypePong})
}

func chatFrame(receiverID int64, content string) []byte {
	text, _ := json.Marshal(content)
	return encodeFrame(&envelope{
		Type:       TypeChatMessage,
		ReceiverID: receiverID,
		Message:    text,
	})
}
