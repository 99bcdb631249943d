package settings

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/singiamtel/PS-cord/internal/store/memory"
)

func TestLoadMissingUsesDefaults(t *testing.T) {
	s := Load(memory.New(), nil)

	require.Equal(t, "", s.Username())
	require.Equal(t, ThemeDark, s.Theme())
	require.Equal(t, ChatStyleNormal, s.ChatStyle())
	require.Empty(t, s.Rooms())
	require.Empty(t, s.AllHighlightWords())
}

func TestLoadCorruptDiscardsBlob(t *testing.T) {
	blob := memory.New()
	ctx := context.Background()
	require.NoError(t, blob.Set(ctx, KeySettings, "{not json"))

	s := Load(blob, nil)
	require.Equal(t, ThemeDark, s.Theme())

	_, ok, err := blob.Get(ctx, KeySettings)
	require.NoError(t, err)
	require.False(t, ok, "corrupt settings must be removed")
}

func TestRoundTrip(t *testing.T) {
	blob := memory.New()
	read := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	s := Load(blob, nil)
	s.UpdateIdentity("Bob", "lucas")
	s.SetRooms([]SerializedRoom{
		{ID: "techcode", LastReadTime: read, Open: true},
		{ID: "lobby", LastReadTime: read, Open: false},
		{ID: "help", Open: true},
	})
	s.SetHighlightWords("lobby", []string{"pizza", "tea", "pizza"})
	s.SetHighlightWords("global", []string{"tournament"})
	s.SetTheme(ThemeLight)
	s.SetStatus("busy")

	r := Load(blob, nil)
	require.Equal(t, "Bob", r.Username())
	require.Equal(t, "lucas", r.Avatar())
	require.Equal(t, "busy", r.Status())
	require.Equal(t, ThemeLight, r.Theme())
	require.Equal(t, []string{"pizza", "tea"}, r.HighlightWords("lobby"))
	require.Equal(t, []string{"tournament"}, r.HighlightWords("global"))

	rooms := r.Rooms()
	require.Len(t, rooms, 3)
	require.Equal(t, "techcode", rooms[0].ID)
	require.True(t, rooms[0].Open)
	require.True(t, rooms[0].LastReadTime.Equal(read))
	require.Equal(t, "lobby", rooms[1].ID)
	require.False(t, rooms[1].Open)
	require.Equal(t, "help", rooms[2].ID)
	require.Equal(t, []string{"techcode", "help"}, r.OpenRooms())
}

func TestHighlightWordEditing(t *testing.T) {
	s := Load(memory.New(), nil)

	s.AddHighlightWord("lobby", "a")
	s.AddHighlightWord("lobby", "b")
	s.AddHighlightWord("lobby", "a")
	require.Equal(t, []string{"a", "b"}, s.HighlightWords("lobby"))

	require.True(t, s.RemoveHighlightWord("lobby", "a"))
	require.False(t, s.RemoveHighlightWord("lobby", "zzz"))
	require.False(t, s.RemoveHighlightWord("nowhere", "a"))
	require.Equal(t, []string{"b"}, s.HighlightWords("lobby"))

	s.ClearHighlightWords("lobby")
	require.Empty(t, s.HighlightWords("lobby"))
}

func TestRemoveRoomMarksClosed(t *testing.T) {
	s := Load(memory.New(), nil)
	s.SetRooms([]SerializedRoom{{ID: "lobby", Open: true}})

	s.RemoveRoom("lobby")
	s.RemoveRoom("ghost")

	rooms := s.Rooms()
	require.Len(t, rooms, 1)
	require.False(t, rooms[0].Open)
}

func TestTokenStorage(t *testing.T) {
	blob := memory.New()
	s := Load(blob, nil)

	require.Equal(t, "", s.Token())
	s.SetToken("tok-1")
	require.Equal(t, "tok-1", s.Token())

	require.NoError(t, blob.Set(context.Background(), KeyToken, "undefined"))
	require.Equal(t, "", s.Token(), "the literal undefined marker is not a token")

	s.SetToken("")
	_, ok, _ := blob.Get(context.Background(), KeyToken)
	require.False(t, ok)
}
