// Package settings persists the serializable projection of the client state:
// identity, highlight words, preferences and the list of open rooms.
package settings

import (
	"context"
	"encoding/json"
	"slices"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/singiamtel/PS-cord/internal/store"
)

const (
	// KeySettings is the blob key holding the JSON settings document.
	KeySettings = "settings"
	// KeyToken is the blob key holding the long-lived login token.
	KeyToken = "ps-token"

	storeTimeout = 5 * time.Second
)

// Theme is the UI colour scheme preference.
type Theme string

const (
	ThemeDark  Theme = "dark"
	ThemeLight Theme = "light"
)

// ChatStyle is the chat density preference.
type ChatStyle string

const (
	ChatStyleNormal  ChatStyle = "normal"
	ChatStyleCompact ChatStyle = "compact"
)

// UserDefined holds preferences set by the user.
type UserDefined struct {
	HighlightWords map[string][]string `json:"highlightWords"`
	Theme          Theme               `json:"theme"`
	ChatStyle      ChatStyle           `json:"chatStyle"`
	Avatar         string              `json:"avatar"`
}

// SerializedRoom is the persisted view of a room.
type SerializedRoom struct {
	ID           string    `json:"ID"`
	LastReadTime time.Time `json:"lastReadTime"`
	Open         bool      `json:"open"`
}

type document struct {
	Rooms               []SerializedRoom `json:"rooms"`
	Username            string           `json:"username"`
	Status              string           `json:"status,omitempty"`
	UserDefinedSettings *UserDefined     `json:"userDefinedSettings"`
}

// Settings is a synchronous view over a BlobStore. Writes are persisted
// immediately; storage failures are logged, never returned.
type Settings struct {
	mu       sync.Mutex
	blob     store.BlobStore
	log      *zerolog.Logger
	rooms    []SerializedRoom
	username string
	status   string
	user     UserDefined
}

func defaults() UserDefined {
	return UserDefined{
		HighlightWords: make(map[string][]string),
		Theme:          ThemeDark,
		ChatStyle:      ChatStyleNormal,
	}
}

// Load restores settings from blob. A missing document yields defaults; a
// corrupt one is discarded and defaults are used.
func Load(blob store.BlobStore, logger *zerolog.Logger) *Settings {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	s := &Settings{blob: blob, log: logger, user: defaults()}

	ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
	defer cancel()

	raw, ok, err := blob.Get(ctx, KeySettings)
	if err != nil {
		logger.Warn().Err(err).Msg("read settings, using defaults")
		return s
	}
	if !ok || raw == "" {
		return s
	}

	var doc document
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		logger.Warn().Err(err).Msg("corrupted settings, removing")
		if delErr := blob.Delete(ctx, KeySettings); delErr != nil {
			logger.Warn().Err(delErr).Msg("remove corrupted settings")
		}
		return s
	}

	s.rooms = doc.Rooms
	s.username = doc.Username
	s.status = doc.Status
	if doc.UserDefinedSettings != nil {
		s.user = *doc.UserDefinedSettings
	}
	if s.user.HighlightWords == nil {
		s.user.HighlightWords = make(map[string][]string)
	}
	if s.user.Theme != ThemeLight {
		s.user.Theme = ThemeDark
	}
	if s.user.ChatStyle != ChatStyleCompact {
		s.user.ChatStyle = ChatStyleNormal
	}
	return s
}

// save must be called with s.mu held.
func (s *Settings) save() {
	doc := document{
		Rooms:               s.rooms,
		Username:            s.username,
		Status:              s.status,
		UserDefinedSettings: &s.user,
	}
	data, err := json.Marshal(doc)
	if err != nil {
		s.log.Error().Err(err).Msg("marshal settings")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
	defer cancel()
	if err := s.blob.Set(ctx, KeySettings, string(data)); err != nil {
		s.log.Warn().Err(err).Msg("write settings")
	}
}

// Username returns the last known local username.
func (s *Settings) Username() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.username
}

// SetUsername changes the username without persisting it.
func (s *Settings) SetUsername(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.username = name
}

// UpdateIdentity persists a confirmed identity.
func (s *Settings) UpdateIdentity(name, avatar string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.username = name
	s.user.Avatar = avatar
	s.save()
}

// Avatar returns the last known avatar.
func (s *Settings) Avatar() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.user.Avatar
}

// Status returns the status restored on login.
func (s *Settings) Status() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// SetStatus stores the status reported for the local user.
func (s *Settings) SetStatus(status string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status == status {
		return
	}
	s.status = status
	s.save()
}

// Theme returns the colour scheme.
func (s *Settings) Theme() Theme {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.user.Theme
}

// SetTheme stores the colour scheme.
func (s *Settings) SetTheme(theme Theme) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.user.Theme = theme
	s.save()
}

// ChatStyle returns the chat density preference.
func (s *Settings) ChatStyle() ChatStyle {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.user.ChatStyle
}

// SetChatStyle stores the chat density preference.
func (s *Settings) SetChatStyle(style ChatStyle) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.user.ChatStyle = style
	s.save()
}

// HighlightWords returns the words of a scope.
func (s *Settings) HighlightWords(scope string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.user.HighlightWords[scope])
}

// AllHighlightWords returns every scope's words.
func (s *Settings) AllHighlightWords() map[string][]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string][]string, len(s.user.HighlightWords))
	for scope, words := range s.user.HighlightWords {
		out[scope] = slices.Clone(words)
	}
	return out
}

// SetHighlightWords replaces the words of a scope, dropping duplicates.
func (s *Settings) SetHighlightWords(scope string, words []string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.user.HighlightWords[scope] = dedupe(words)
	s.save()
	return slices.Clone(s.user.HighlightWords[scope])
}

// AddHighlightWord appends a word to a scope.
func (s *Settings) AddHighlightWord(scope, word string) []string {
	s.mu.Lock()
	words := append(slices.Clone(s.user.HighlightWords[scope]), word)
	s.mu.Unlock()
	return s.SetHighlightWords(scope, words)
}

// RemoveHighlightWord deletes a word from a scope. It reports whether the
// word was present.
func (s *Settings) RemoveHighlightWord(scope, word string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	words, ok := s.user.HighlightWords[scope]
	if !ok {
		s.log.Warn().Str("scope", scope).Msg("remove highlight word: scope not found")
		return false
	}
	i := slices.Index(words, word)
	if i < 0 {
		s.log.Warn().Str("scope", scope).Str("word", word).Msg("remove highlight word: word not found")
		return false
	}
	s.user.HighlightWords[scope] = slices.Delete(slices.Clone(words), i, i+1)
	s.save()
	return true
}

// ClearHighlightWords empties a scope.
func (s *Settings) ClearHighlightWords(scope string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.user.HighlightWords[scope]; !ok {
		s.log.Warn().Str("scope", scope).Msg("clear highlight words: scope not found")
		return
	}
	s.user.HighlightWords[scope] = []string{}
	s.save()
}

// Rooms returns the persisted rooms in their saved order.
func (s *Settings) Rooms() []SerializedRoom {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.rooms)
}

// OpenRooms returns the ids of persisted rooms that were open.
func (s *Settings) OpenRooms() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]string, 0, len(s.rooms))
	for _, r := range s.rooms {
		if r.Open {
			ids = append(ids, r.ID)
		}
	}
	return ids
}

// SetRooms replaces the persisted room list, keeping the given order.
func (s *Settings) SetRooms(rooms []SerializedRoom) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rooms = slices.Clone(rooms)
	s.save()
}

// RemoveRoom marks a persisted room as closed.
func (s *Settings) RemoveRoom(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := slices.IndexFunc(s.rooms, func(r SerializedRoom) bool { return r.ID == id })
	if i < 0 {
		return
	}
	s.rooms[i].Open = false
	s.save()
}

// Token returns the stored long-lived login token.
func (s *Settings) Token() string {
	ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
	defer cancel()

	tok, ok, err := s.blob.Get(ctx, KeyToken)
	if err != nil {
		s.log.Warn().Err(err).Msg("read token")
		return ""
	}
	if !ok || tok == "undefined" {
		return ""
	}
	return tok
}

// SetToken stores the long-lived login token; an empty token removes it.
func (s *Settings) SetToken(token string) {
	ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
	defer cancel()

	var err error
	if token == "" {
		err = s.blob.Delete(ctx, KeyToken)
	} else {
		err = s.blob.Set(ctx, KeyToken, token)
	}
	if err != nil {
		s.log.Warn().Err(err).Msg("write token")
	}
}

func dedupe(words []string) []string {
	seen := make(map[string]struct{}, len(words))
	out := make([]string, 0, len(words))
	for _, w := range words {
		if _, ok := seen[w]; ok {
			continue
		}
		seen[w] = struct{}{}
		out = append(out, w)
	}
	return out
}
