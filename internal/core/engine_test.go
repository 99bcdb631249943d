package core

import (
	"errors"
	"reflect"
	"testing"

	"github.com/singiamtel/PS-cord/internal/proto"
	"github.com/singiamtel/PS-cord/internal/settings"
)

func TestPermanentRooms(t *testing.T) {
	e := newTestEngine(t, nil)

	rooms := e.Rooms()
	if len(rooms) != 1 || rooms[0].ID != HomeRoom || rooms[0].Type != RoomPermanent {
		t.Fatalf("only home should be open initially: %+v", rooms)
	}
	if info, ok := e.Room(SettingsRoom); !ok || info.Open || info.Connected {
		t.Fatalf("settings room must exist closed: %+v", info)
	}

	e.OpenSettings()
	if rooms := e.Rooms(); len(rooms) != 2 || rooms[1].ID != SettingsRoom {
		t.Fatalf("settings room not opened: %+v", rooms)
	}
}

func TestSendFormatting(t *testing.T) {
	e := newTestEngine(t, func(s *settings.Settings) { s.UpdateIdentity("Bob", "") })
	e.HandleFrame(lobbyInit)
	e.HandleFrame("|pm| Alice| Bob|hey")

	e.Send("hello", "lobby")
	e.Send("hi there", "pm-alice")
	e.Send("/cmd rooms", "")
	e.SendGlobal("/away")
	e.Send("lost", "ghost")

	want := []string{
		"lobby|hello",
		"|/pm Alice, hi there",
		"|/cmd rooms",
		"|/away",
		"lost",
	}
	if got := e.tr.Sent(); !reflect.DeepEqual(got, want) {
		t.Fatalf("sent = %q, want %q", got, want)
	}
}

func TestJoinAutoselectsRoom(t *testing.T) {
	e := newTestEngine(t, nil)

	if err := e.Join("  "); !errors.Is(err, ErrBadRequest) {
		t.Fatalf("expected bad request, got %v", err)
	}
	if err := e.Join("lobby"); err != nil {
		t.Fatalf("join: %v", err)
	}
	if got := e.tr.Sent(); len(got) != 1 || got[0] != "|/join lobby" {
		t.Fatalf("sent = %v", got)
	}

	e.HandleFrame(lobbyInit)
	ev := mustEvent(t, e.events, EventRoomAutoselect)
	if ev.Room != "lobby" {
		t.Fatalf("unexpected autoselect: %+v", ev)
	}

	e.HandleFrame(">lobby\n|deinit")
	e.HandleFrame(lobbyInit)
	noEvent(t, e.events, EventRoomAutoselect)
}

func TestTypedJoinSetsAutoselect(t *testing.T) {
	e := newTestEngine(t, nil)

	e.Send("/join Tech Code", "")
	e.HandleFrame(">techcode\n|init|chat\n|:|1")
	ev := mustEvent(t, e.events, EventRoomAutoselect)
	if ev.Room != "techcode" {
		t.Fatalf("unexpected autoselect: %+v", ev)
	}
}

func TestLeave(t *testing.T) {
	e := newTestEngine(t, nil)
	e.HandleFrame(lobbyInit)
	pm := e.CreatePM("Alice")

	err := e.Leave("ghost")
	if !errors.Is(err, ErrRoomNotFound) {
		t.Fatalf("expected room not found, got %v", err)
	}
	ev := mustEvent(t, e.events, EventError)
	if ev.Error.Code != ErrCodeRoomNotFound {
		t.Fatalf("unexpected error event: %+v", ev.Error)
	}

	if err := e.Leave("lobby"); err != nil {
		t.Fatalf("leave lobby: %v", err)
	}
	if got := e.tr.Sent(); len(got) != 1 || got[0] != "|/leave lobby" {
		t.Fatalf("connected room must be left on the server: %v", got)
	}
	if _, ok := e.Room("lobby"); !ok {
		t.Fatalf("connected room stays until the server deinits it")
	}

	if err := e.Leave(pm); err != nil {
		t.Fatalf("leave pm: %v", err)
	}
	if _, ok := e.Room(pm); ok {
		t.Fatalf("local room must be removed immediately")
	}
}

func TestCreatePM(t *testing.T) {
	e := newTestEngine(t, nil)

	id := e.CreatePM("Alice")
	if id != "pm-alice" {
		t.Fatalf("id = %q", id)
	}
	ev := mustEvent(t, e.events, EventRoomAutoselect)
	if ev.Room != "pm-alice" {
		t.Fatalf("unexpected autoselect: %+v", ev)
	}

	e.CreatePM("alice")
	count := 0
	for _, r := range e.Rooms() {
		if r.Type == RoomPM {
			count++
		}
	}
	if count != 1 {
		t.Fatalf("pm room must not be duplicated")
	}
}

func TestSelectRoomClearsCounters(t *testing.T) {
	e := newTestEngine(t, nil)
	e.HandleFrame(lobbyInit)

	e.HandleFrame("|c|+Bob|one\n|c|+Bob|two")
	if info, _ := e.Room("lobby"); info.Unread != 2 || info.Mentions != 0 {
		t.Fatalf("unexpected counters: %+v", info)
	}

	if err := e.SelectRoom("lobby"); err != nil {
		t.Fatalf("select: %v", err)
	}
	info, _ := e.Room("lobby")
	if info.Unread != 0 || info.LastSelected.Unix() != 1700000000 {
		t.Fatalf("select must clear counters: %+v", info)
	}

	e.HandleFrame("|c|+Bob|three")
	if info, _ := e.Room("lobby"); info.Unread != 0 {
		t.Fatalf("messages in the selected room are read: %+v", info)
	}

	saved := e.settings.Rooms()
	if len(saved) != 1 || saved[0].LastReadTime.Unix() != 1700000000 {
		t.Fatalf("selection not persisted: %+v", saved)
	}
}

func TestHighlightNotifies(t *testing.T) {
	e := newTestEngine(t, func(s *settings.Settings) {
		s.UpdateIdentity("Bob", "")
		s.SetHighlightWords("lobby", []string{"tea"})
	})
	e.HandleFrame(lobbyInit)

	e.HandleFrame("|c|@Alice|anyone for tea?")
	ev := mustEvent(t, e.events, EventNotification)
	if ev.Notification.Text != "anyone for tea?" || ev.Notification.RoomType != RoomChat {
		t.Fatalf("unexpected notification: %+v", ev.Notification)
	}

	e.HandleFrame("|c|+Bob|tea for me")
	e.HandleFrame("|c|@Alice|/log tea was served")
	noEvent(t, e.events, EventNotification)

	n := e.Notifications()
	for _, r := range n {
		if r.Room == "lobby" && (r.Mentions != 1 || r.Unread != 2) {
			t.Fatalf("unexpected lobby counters: %+v", r)
		}
	}
}

func TestHighlightCommand(t *testing.T) {
	e := newTestEngine(t, nil)
	e.HandleFrame(lobbyInit)
	if err := e.SelectRoom("lobby"); err != nil {
		t.Fatalf("select: %v", err)
	}

	tests := []struct {
		cmd  string
		want string
	}{
		{"/highlight add pizza tea", `Added "pizza tea" to highlight list`},
		{"/hl list", "Current highlight list: pizza, tea"},
		{"/hl roomlist", "Your highlight list is empty"},
		{"/hl roomadd cake", `Added "cake" to highlight list`},
		{"/hl delete tea", `Deleted "tea" from highlight list`},
		{"/hl list", "Current highlight list: pizza"},
		{"/hl roomclear", "Cleared highlight list"},
		{"/hl roomlist", "Your highlight list is empty"},
	}
	for _, tt := range tests {
		e.Send(tt.cmd, "lobby")
		msg := lastMessage(t, e.Engine, "lobby")
		if msg.Type != proto.TypeLog || msg.Content != tt.want {
			t.Fatalf("%s: got %q, want %q", tt.cmd, msg.Content, tt.want)
		}
	}

	if sent := e.tr.Sent(); len(sent) != 0 {
		t.Fatalf("highlight commands must not be sent: %v", sent)
	}
	if got := e.HighlightWords("global"); !reflect.DeepEqual(got, []string{"pizza"}) {
		t.Fatalf("global words = %v", got)
	}

	e.HandleFrame("|c|@Alice|pizza party")
	if !lastMessage(t, e.Engine, "lobby").Highlighted() {
		t.Fatalf("word added by command must highlight")
	}
}

func TestHighlightWordOperations(t *testing.T) {
	e := newTestEngine(t, nil)
	e.HandleFrame(lobbyInit)

	e.AddHighlightWord("lobby", "cake")
	e.HandleFrame("|c|@Alice|cake!")
	if !lastMessage(t, e.Engine, "lobby").Highlighted() {
		t.Fatalf("expected highlight")
	}

	if !e.RemoveHighlightWord("lobby", "cake") {
		t.Fatalf("word should have been removed")
	}
	e.HandleFrame("|c|@Alice|cake again")
	if lastMessage(t, e.Engine, "lobby").Highlighted() {
		t.Fatalf("removed word must not highlight")
	}

	e.SetHighlightWords("lobby", []string{"pie", "pie"})
	if got := e.HighlightWords("lobby"); !reflect.DeepEqual(got, []string{"pie"}) {
		t.Fatalf("words = %v", got)
	}
	e.ClearHighlightWords("lobby")
	if got := e.HighlightWords("lobby"); len(got) != 0 {
		t.Fatalf("words = %v", got)
	}
}

func TestAutojoin(t *testing.T) {
	tests := []struct {
		name       string
		rooms      []string
		useDefault bool
		want       []string
	}{
		{"rooms", []string{"home", "techcode", "settings", "help"}, false, []string{"|/autojoin techcode,help"}},
		{"only permanent", []string{"home", "settings"}, false, nil},
		{"defaults", []string{"home"}, true, []string{"|/join lobby", "|/join help"}},
		{"rooms beat defaults", []string{"techcode"}, true, []string{"|/autojoin techcode"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newTestEngine(t, nil)
			e.Autojoin(tt.rooms, tt.useDefault)
			if got := e.tr.Sent(); !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("sent = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRestoreRooms(t *testing.T) {
	e := newTestEngine(t, func(s *settings.Settings) {
		s.SetRooms([]settings.SerializedRoom{
			{ID: "techcode", Open: true},
			{ID: "lobby", Open: false},
			{ID: "help", Open: true},
		})
	})

	e.RestoreRooms()
	if got := e.tr.Sent(); !reflect.DeepEqual(got, []string{"|/autojoin techcode,help"}) {
		t.Fatalf("sent = %v", got)
	}
}

func TestReorderPersistsOrder(t *testing.T) {
	e := newTestEngine(t, nil)
	e.HandleFrame(lobbyInit)
	e.HandleFrame(">help\n|init|chat\n|:|1")
	e.HandleFrame(">techcode\n|init|chat\n|:|1")

	e.Reorder([]string{"techcode", "lobby"})

	var ids []string
	for _, r := range e.Rooms() {
		ids = append(ids, r.ID)
	}
	if want := []string{"techcode", "lobby", "home", "help"}; !reflect.DeepEqual(ids, want) {
		t.Fatalf("order = %v, want %v", ids, want)
	}

	var saved []string
	for _, r := range e.settings.Rooms() {
		saved = append(saved, r.ID)
	}
	if want := []string{"techcode", "lobby", "help"}; !reflect.DeepEqual(saved, want) {
		t.Fatalf("saved = %v, want %v", saved, want)
	}
}

func TestSetTheme(t *testing.T) {
	e := newTestEngine(t, nil)

	e.SetTheme(settings.ThemeLight)
	ev := mustEvent(t, e.events, EventThemeChanged)
	if ev.Theme != settings.ThemeLight || e.settings.Theme() != settings.ThemeLight {
		t.Fatalf("theme not applied: %+v", ev)
	}
}
