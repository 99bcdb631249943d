package core

import "github.com/singiamtel/PS-cord/internal/settings"

// EventKind is a notification the engine emits to observers.
type EventKind int

const (
	// EventRoomAdded announces a new room.
	EventRoomAdded EventKind = iota
	// EventRoomUpdated reports a change of a room's flags or counters.
	EventRoomUpdated
	// EventRoomRemoved announces a destroyed room.
	EventRoomRemoved
	// EventMessageAppended carries a new or in-place updated message.
	EventMessageAppended
	// EventUsersChanged reports a roster change.
	EventUsersChanged
	// EventLoginSucceeded reports the confirmed local identity.
	EventLoginSucceeded
	// EventError carries a user-facing protocol error.
	EventError
	// EventNotification marks a message worth notifying.
	EventNotification
	// EventRoomAutoselect asks the UI to focus a room.
	EventRoomAutoselect
	// EventThemeChanged reports a new theme preference.
	EventThemeChanged
	// EventConnectionClosed is emitted once when the transport is gone.
	EventConnectionClosed
)

func (k EventKind) String() string {
	switch k {
	case EventRoomAdded:
		return "room_added"
	case EventRoomUpdated:
		return "room_updated"
	case EventRoomRemoved:
		return "room_removed"
	case EventMessageAppended:
		return "message_appended"
	case EventUsersChanged:
		return "users_changed"
	case EventLoginSucceeded:
		return "login_succeeded"
	case EventError:
		return "error"
	case EventNotification:
		return "notification"
	case EventRoomAutoselect:
		return "room_autoselect"
	case EventThemeChanged:
		return "theme_changed"
	case EventConnectionClosed:
		return "connection_closed"
	default:
		return "unknown"
	}
}

// Notification is the payload of EventNotification.
type Notification struct {
	User     string
	Text     string
	Room     string
	RoomType RoomType
}

// Event describes what happened in the engine. Only the fields relevant to
// Kind are set.
type Event struct {
	Kind EventKind
	Room string
	// Info is a snapshot for room added/updated events.
	Info *RoomInfo
	// Message is a copy of the appended message.
	Message *Message
	// Updated is true when Message replaced an existing UHTML block.
	Updated      bool
	Users        []User
	Username     string
	Error        *CoreError
	Notification *Notification
	Theme        settings.Theme
	// Err is the close cause for EventConnectionClosed, if any.
	Err error
}
