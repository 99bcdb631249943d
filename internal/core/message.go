package core

import (
	"github.com/google/uuid"

	"github.com/singiamtel/PS-cord/internal/proto"
)

// HighlightMemo caches a message's highlight decision for one identity
// epoch of the highlight engine.
type HighlightMemo struct {
	Known bool
	Value bool
	Epoch uint64
}

// Message is the domain model for a line in a room's log.
type Message struct {
	ID        string
	Timestamp int64
	// User keeps the author's rank prefix; empty for server output.
	User    string
	Content string
	Type    proto.MessageType
	// Name identifies an updatable UHTML block.
	Name      string
	Highlight HighlightMemo
}

func newMessage(ts int64, user, content string, typ proto.MessageType, name string) *Message {
	return &Message{
		ID:        uuid.NewString(),
		Timestamp: ts,
		User:      user,
		Content:   content,
		Type:      typ,
		Name:      name,
	}
}

// Highlighted reports the cached highlight decision.
func (m Message) Highlighted() bool {
	return m.Highlight.Known && m.Highlight.Value
}

// highlightable reports whether a message type can trigger a highlight.
func highlightable(t proto.MessageType) bool {
	switch t {
	case proto.TypeChat, proto.TypeRoleplay, proto.TypeAnnounce:
		return true
	default:
		return false
	}
}
