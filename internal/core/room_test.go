package core

import (
	"reflect"
	"testing"
	"time"

	"github.com/singiamtel/PS-cord/internal/proto"
)

func TestRoomCounters(t *testing.T) {
	tests := []struct {
		name         string
		typ          RoomType
		opts         AddOptions
		wantNotify   bool
		wantUnread   int
		wantMentions int
	}{
		{"plain", RoomChat, AddOptions{}, false, 1, 0},
		{"highlighted", RoomChat, AddOptions{Highlighted: true}, true, 1, 1},
		{"pm", RoomPM, AddOptions{}, true, 1, 1},
		{"selected", RoomChat, AddOptions{Selected: true, Highlighted: true}, false, 0, 0},
		{"self", RoomPM, AddOptions{SelfSent: true}, false, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewRoom("r", "", tt.typ)
			notify := r.AddMessage(newMessage(1, "+Bob", "hi", proto.TypeChat, ""), tt.opts)
			if notify != tt.wantNotify || r.Unread != tt.wantUnread || r.Mentions != tt.wantMentions {
				t.Fatalf("notify=%v unread=%d mentions=%d", notify, r.Unread, r.Mentions)
			}
			if r.Len() != 1 {
				t.Fatalf("message not appended")
			}
		})
	}
}

func TestRoomSelect(t *testing.T) {
	r := NewRoom("lobby", "Lobby", RoomChat)
	r.AddMessage(newMessage(1, "a", "x", proto.TypeChat, ""), AddOptions{Highlighted: true})

	now := time.Unix(1690000000, 0)
	r.Select(now)
	if r.Unread != 0 || r.Mentions != 0 || !r.LastSelected.Equal(now) {
		t.Fatalf("unexpected state after select: %+v", r.Info())
	}
}

func TestRoomUHTML(t *testing.T) {
	r := NewRoom("lobby", "", RoomChat)
	r.AddMessage(newMessage(1, "a", "first", proto.TypeChat, ""), AddOptions{})
	if r.AddUHTML(newMessage(2, "", "v1", proto.TypeRaw, "box")) {
		t.Fatalf("new block must be appended")
	}
	r.AddMessage(newMessage(3, "a", "last", proto.TypeChat, ""), AddOptions{})

	if !r.AddUHTML(newMessage(4, "", "v2", proto.TypeRaw, "box")) {
		t.Fatalf("known block must be replaced")
	}
	if m, ok := r.ChangeUHTML("box", "v3"); !ok || m.Content != "v3" {
		t.Fatalf("change failed: %+v", m)
	}
	if _, ok := r.ChangeUHTML("missing", "v4"); ok {
		t.Fatalf("unknown block must not change")
	}

	var contents []string
	for _, m := range r.Messages() {
		contents = append(contents, m.Content)
	}
	if want := []string{"first", "v3", "last"}; !reflect.DeepEqual(contents, want) {
		t.Fatalf("log = %v, want %v", contents, want)
	}
}

func TestRoomRoster(t *testing.T) {
	r := NewRoom("lobby", "", RoomChat)
	r.AddUsers([]User{{Name: "+Bob", ID: "bob"}, {Name: " Carol", ID: "carol"}, {Name: "@Dan", ID: "dan"}})
	r.AddUsers([]User{{Name: "%Bob", ID: "bob", Status: "away"}})

	if users := r.Users(); len(users) != 3 || users[0].Name != "%Bob" || users[0].Status != "away" {
		t.Fatalf("rejoin must update in place: %+v", users)
	}

	if !r.RenameUser("carol", User{Name: " Caroline", ID: "caroline"}) {
		t.Fatalf("rename failed")
	}
	if users := r.Users(); users[1].ID != "caroline" {
		t.Fatalf("rename must keep position: %+v", users)
	}

	if !r.RenameUser("dan", User{Name: "+Bob", ID: "bob"}) {
		t.Fatalf("rename onto existing id failed")
	}
	if users := r.Users(); len(users) != 2 || users[1].Name != "+Bob" {
		t.Fatalf("rename must not duplicate ids: %+v", users)
	}

	if !r.RemoveUser("bob") || r.RemoveUser("bob") {
		t.Fatalf("remove must succeed once")
	}
	if r.HasUser("bob") || !r.HasUser("caroline") {
		t.Fatalf("unexpected roster: %+v", r.Users())
	}
}

func TestRoomsOrder(t *testing.T) {
	rs := NewRooms()
	for _, id := range []string{"a", "b", "c", "d"} {
		r := NewRoom(id, "", RoomChat)
		r.Open = id != "c"
		rs.Add(r)
	}

	ids := func(rooms []*Room) []string {
		out := make([]string, 0, len(rooms))
		for _, r := range rooms {
			out = append(out, r.ID)
		}
		return out
	}

	for range 3 {
		if got := ids(rs.Open()); !reflect.DeepEqual(got, []string{"a", "b", "d"}) {
			t.Fatalf("open = %v", got)
		}
	}

	rs.Reorder([]string{"d", "ghost", "b", "d"})
	if got := ids(rs.All()); !reflect.DeepEqual(got, []string{"d", "b", "a", "c"}) {
		t.Fatalf("all = %v", got)
	}

	rs.Add(NewRoom("b", "B", RoomChat))
	if got := ids(rs.All()); !reflect.DeepEqual(got, []string{"d", "b", "a", "c"}) {
		t.Fatalf("replacing a room must keep its position: %v", got)
	}

	if !rs.Delete("b") || rs.Delete("b") {
		t.Fatalf("delete must succeed once")
	}
	if rs.Len() != 3 || rs.Get("b") != nil {
		t.Fatalf("room not deleted")
	}
}

func TestUserRank(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"+Bob", "+"},
		{" Carl", " "},
		{"★Ash", "★"},
		{"☆Misty", "☆"},
		{"‽Locked", "‽"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := (User{Name: tt.name}).Rank(); got != tt.want {
				t.Fatalf("Rank() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestMessageHighlightedByValue(t *testing.T) {
	msgs := []Message{
		{Highlight: HighlightMemo{Known: true, Value: true}},
		{Highlight: HighlightMemo{Known: false, Value: true}},
	}
	if !msgs[0].Highlighted() || msgs[1].Highlighted() {
		t.Fatalf("unexpected highlight flags")
	}
}
