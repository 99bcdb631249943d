package core

import (
	"slices"
	"time"
)

// RoomType is the kind of conversation a room holds.
type RoomType string

const (
	RoomPermanent RoomType = "permanent"
	RoomChat      RoomType = "chat"
	RoomPM        RoomType = "pm"
	RoomBattle    RoomType = "battle"
)

// Room owns a message log, a user roster and the read counters. Rooms are
// not safe for concurrent use; the engine serializes access.
type Room struct {
	ID   string
	Name string
	Type RoomType
	// Connected is true when the server announced the room.
	Connected bool
	// Open is true while the room is visible.
	Open         bool
	Unread       int
	Mentions     int
	LastSelected time.Time

	messages []*Message
	users    []User
}

// RoomInfo is a read-only snapshot of a room.
type RoomInfo struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Type         RoomType  `json:"type"`
	Connected    bool      `json:"connected"`
	Open         bool      `json:"open"`
	Unread       int       `json:"unread"`
	Mentions     int       `json:"mentions"`
	LastSelected time.Time `json:"lastSelected"`
	Users        int       `json:"users"`
}

// AddOptions describes the local context of an appended message.
type AddOptions struct {
	Selected    bool
	SelfSent    bool
	Highlighted bool
}

// NewRoom constructs an empty room.
func NewRoom(id, name string, typ RoomType) *Room {
	if name == "" {
		name = id
	}
	return &Room{ID: id, Name: name, Type: typ}
}

// Info returns a snapshot of the room.
func (r *Room) Info() RoomInfo {
	return RoomInfo{
		ID:           r.ID,
		Name:         r.Name,
		Type:         r.Type,
		Connected:    r.Connected,
		Open:         r.Open,
		Unread:       r.Unread,
		Mentions:     r.Mentions,
		LastSelected: r.LastSelected,
		Users:        len(r.users),
	}
}

// AddMessage appends m and updates the counters. It reports whether the
// message is worth a notification.
func (r *Room) AddMessage(m *Message, opts AddOptions) bool {
	r.messages = append(r.messages, m)
	if opts.SelfSent || opts.Selected {
		return false
	}
	r.Unread++
	if opts.Highlighted || r.Type == RoomPM {
		r.Mentions++
		return true
	}
	return false
}

// AddUHTML replaces the block with the same name in place, or appends m.
// It reports whether an existing block was replaced.
func (r *Room) AddUHTML(m *Message) bool {
	if m.Name != "" {
		if i := r.blockIndex(m.Name); i >= 0 {
			r.messages[i] = m
			return true
		}
	}
	r.messages = append(r.messages, m)
	return false
}

// ChangeUHTML replaces the content of an existing block. An unknown block
// leaves the log unchanged.
func (r *Room) ChangeUHTML(name, content string) (*Message, bool) {
	i := r.blockIndex(name)
	if i < 0 {
		return nil, false
	}
	updated := *r.messages[i]
	updated.Content = content
	r.messages[i] = &updated
	return &updated, true
}

func (r *Room) blockIndex(name string) int {
	return slices.IndexFunc(r.messages, func(m *Message) bool { return m.Name == name })
}

// Messages returns a copy of the log.
func (r *Room) Messages() []Message {
	out := make([]Message, len(r.messages))
	for i, m := range r.messages {
		out[i] = *m
	}
	return out
}

// Len is the number of messages in the log.
func (r *Room) Len() int {
	return len(r.messages)
}

// EachMessage calls fn for every message in log order.
func (r *Room) EachMessage(fn func(*Message)) {
	for _, m := range r.messages {
		fn(m)
	}
}

// AddUsers inserts users; a known id is updated in place.
func (r *Room) AddUsers(users []User) {
	for _, u := range users {
		if i := r.userIndex(u.ID); i >= 0 {
			r.users[i] = u
			continue
		}
		r.users = append(r.users, u)
	}
}

// RemoveUser deletes a user by id. Returns true if removed.
func (r *Room) RemoveUser(id string) bool {
	i := r.userIndex(id)
	if i < 0 {
		return false
	}
	r.users = slices.Delete(r.users, i, i+1)
	return true
}

// RenameUser replaces the user with oldID, keeping its roster position.
// An unknown oldID adds the user instead.
func (r *Room) RenameUser(oldID string, u User) bool {
	i := r.userIndex(oldID)
	if i < 0 {
		r.AddUsers([]User{u})
		return false
	}
	if j := r.userIndex(u.ID); j >= 0 && j != i {
		r.users = slices.Delete(r.users, j, j+1)
		if j < i {
			i--
		}
	}
	r.users[i] = u
	return true
}

// Users returns a copy of the roster.
func (r *Room) Users() []User {
	return slices.Clone(r.users)
}

// HasUser reports whether the roster contains id.
func (r *Room) HasUser(id string) bool {
	return r.userIndex(id) >= 0
}

func (r *Room) userIndex(id string) int {
	return slices.IndexFunc(r.users, func(u User) bool { return u.ID == id })
}

// Select clears the counters and stamps the selection time.
func (r *Room) Select(now time.Time) {
	r.Unread = 0
	r.Mentions = 0
	r.LastSelected = now
}
