package proto

import (
	"encoding/json"
	"fmt"
	"strings"
)

const (
	// QueryUserDetails is the queryresponse sub-kind for /cmd userdetails.
	QueryUserDetails = "userdetails"
	// QueryRooms is the queryresponse sub-kind for /cmd rooms.
	QueryRooms = "rooms"

	NoInitNameRequired = "namerequired"
	NoInitNonexistent  = "nonexistent"
	NoInitJoinFailed   = "joinfailed"
)

// UserDetails is the /cmd userdetails response.
type UserDetails struct {
	UserID string `json:"userid"`
	Name   string `json:"name"`
	Avatar any    `json:"avatar,omitempty"`
	Group  string `json:"group,omitempty"`
	Status string `json:"status,omitempty"`
	// Rooms maps rank-prefixed room ids to per-room flags; false when hidden.
	Rooms json.RawMessage `json:"rooms,omitempty"`
	Raw   json.RawMessage `json:"-"`
}

// RoomInfo is one chat room in a /cmd rooms response.
type RoomInfo struct {
	Title     string `json:"title"`
	Desc      string `json:"desc"`
	UserCount int    `json:"userCount"`
	Section   string `json:"section,omitempty"`
	Privacy   string `json:"privacy,omitempty"`
}

// RoomList is the /cmd rooms response.
type RoomList struct {
	Chat          []RoomInfo      `json:"chat"`
	SectionTitles []string        `json:"sectionTitles,omitempty"`
	UserCount     int             `json:"userCount"`
	BattleCount   int             `json:"battleCount"`
	Raw           json.RawMessage `json:"-"`
}

// ParseUserDetails decodes a userdetails payload.
func ParseUserDetails(payload string) (UserDetails, error) {
	var d UserDetails
	if err := json.Unmarshal([]byte(payload), &d); err != nil {
		return UserDetails{}, fmt.Errorf("parse userdetails: %w", err)
	}
	d.Raw = json.RawMessage(payload)
	return d, nil
}

// ParseRoomList decodes a rooms payload.
func ParseRoomList(payload string) (RoomList, error) {
	var r RoomList
	if err := json.Unmarshal([]byte(payload), &r); err != nil {
		return RoomList{}, fmt.Errorf("parse rooms: %w", err)
	}
	r.Raw = json.RawMessage(payload)
	return r, nil
}

// FormatRoom builds a room-scoped outbound line.
func FormatRoom(roomID, text string) string {
	return roomID + CommandMarker + text
}

// FormatGlobal builds a global outbound line.
func FormatGlobal(text string) string {
	return CommandMarker + text
}

// FormatPM builds an outbound private message.
func FormatPM(name, text string) string {
	return FormatGlobal("/pm " + name + ", " + text)
}

// LoginCommand builds the /trn command that presents a login assertion.
func LoginCommand(name, assertion string) string {
	return "/trn " + name + ",0," + assertion
}

// AssertionUser returns the user field of a login assertion.
func AssertionUser(assertion string) string {
	parts := strings.Split(assertion, ",")
	if len(parts) < 2 {
		return ""
	}
	return parts[1]
}
