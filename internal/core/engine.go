package core

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/singiamtel/PS-cord/internal/highlight"
	"github.com/singiamtel/PS-cord/internal/proto"
	"github.com/singiamtel/PS-cord/internal/settings"
	"github.com/singiamtel/PS-cord/internal/transport"
)

const (
	// HomeRoom and SettingsRoom exist client-side only.
	HomeRoom     = "home"
	SettingsRoom = "settings"

	defaultRetryDelay = time.Second
	taskBuffer        = 64
)

// Transport is the duplex connection the engine speaks through.
type Transport interface {
	Send(line string)
	Signals() <-chan transport.Signal
}

// Options configures an Engine.
type Options struct {
	Transport  Transport
	Settings   *settings.Settings
	Highlights *highlight.Engine
	Logger     *zerolog.Logger
	// RetryDelay is the wait before the one retry of a message delivered
	// to a room that does not exist yet.
	RetryDelay time.Duration
	// DefaultRooms are joined when there is nothing to restore.
	DefaultRooms []string
}

// RoomNotification is the unread state of one room.
type RoomNotification struct {
	Room     string `json:"room"`
	Mentions int    `json:"mentions"`
	Unread   int    `json:"unread"`
}

// Engine owns the connection state, the rooms and the decoder. Frames are
// decoded one at a time under mu; callbacks run after mu is released.
type Engine struct {
	mu sync.Mutex

	tr           Transport
	settings     *settings.Settings
	hl           *highlight.Engine
	bus          *Bus
	log          *zerolog.Logger
	retryDelay   time.Duration
	defaultRooms []string
	now          func() time.Time

	rooms      *Rooms
	selected   string
	autoSelect string
	challenge  string
	open       bool

	joinAfterLogin []string
	userCallback   func(proto.UserDetails)
	roomsCallback  func(proto.RoomList)
	roomsCache     *proto.RoomList

	onOpen []func()
	after  []func()

	tasks chan func()
	done  chan struct{}
}

// NewEngine builds an engine with the client-side permanent rooms and the
// highlight engine seeded from settings.
func NewEngine(opts Options) *Engine {
	logger := opts.Logger
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	hl := opts.Highlights
	if hl == nil {
		hl = highlight.New(logger)
	}
	delay := opts.RetryDelay
	if delay <= 0 {
		delay = defaultRetryDelay
	}

	e := &Engine{
		tr:           opts.Transport,
		settings:     opts.Settings,
		hl:           hl,
		bus:          NewBus(logger),
		log:          logger,
		retryDelay:   delay,
		defaultRooms: append([]string(nil), opts.DefaultRooms...),
		now:          time.Now,
		rooms:        NewRooms(),
		tasks:        make(chan func(), taskBuffer),
		done:         make(chan struct{}),
	}

	for scope, words := range e.settings.AllHighlightWords() {
		hl.SetWords(scope, words)
	}
	hl.SetUsername(e.settings.Username())

	home := NewRoom(HomeRoom, "Home", RoomPermanent)
	home.Open = true
	e.rooms.Add(home)
	e.rooms.Add(NewRoom(SettingsRoom, "Settings", RoomPermanent))
	return e
}

// Events returns the engine's event bus.
func (e *Engine) Events() *Bus {
	return e.bus
}

// OnOpen registers fn to run each time the transport opens.
func (e *Engine) OnOpen(fn func()) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.onOpen = append(e.onOpen, fn)
}

// Run consumes transport signals and engine tasks in order until the
// connection closes or ctx is cancelled.
func (e *Engine) Run(ctx context.Context) error {
	defer close(e.done)
	signals := e.tr.Signals()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case task := <-e.tasks:
			e.do(task)
		case s, ok := <-signals:
			if !ok {
				e.closed(nil)
				return nil
			}
			switch s.Kind {
			case transport.SignalOpen:
				e.opened()
			case transport.SignalMessage:
				e.HandleFrame(s.Data)
			case transport.SignalError:
				e.log.Warn().Err(s.Err).Msg("transport error")
			case transport.SignalClose:
				e.closed(s.Err)
				return nil
			}
		}
	}
}

func (e *Engine) opened() {
	e.mu.Lock()
	e.open = true
	hooks := append([]func(){}, e.onOpen...)
	e.mu.Unlock()

	e.log.Info().Msg("connection open")
	for _, fn := range hooks {
		fn()
	}
}

func (e *Engine) closed(err error) {
	e.mu.Lock()
	e.open = false
	e.challenge = ""
	e.mu.Unlock()

	e.log.Info().Err(err).Msg("connection closed")
	e.bus.Publish(&Event{Kind: EventConnectionClosed, Err: err})
}

// do runs fn under the engine lock, then the callbacks fn queued.
func (e *Engine) do(fn func()) {
	e.mu.Lock()
	fn()
	after := e.after
	e.after = nil
	e.mu.Unlock()

	for _, cb := range after {
		cb()
	}
}

// deferCall queues cb to run once the lock is released. Must hold e.mu.
func (e *Engine) deferCall(cb func()) {
	e.after = append(e.after, cb)
}

// schedule posts fn back into the Run loop after d.
func (e *Engine) schedule(d time.Duration, fn func()) {
	time.AfterFunc(d, func() {
		select {
		case e.tasks <- fn:
		case <-e.done:
		}
	})
}

func (e *Engine) publish(ev *Event) {
	e.bus.Publish(ev)
}

func (e *Engine) roomEvent(kind EventKind, r *Room) {
	info := r.Info()
	e.publish(&Event{Kind: kind, Room: r.ID, Info: &info})
}

// Challenge returns the challenge of the current connection, if delivered.
func (e *Engine) Challenge() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.challenge
}

// Username returns the local username.
func (e *Engine) Username() string {
	return e.settings.Username()
}

// Connected reports whether the transport is open.
func (e *Engine) Connected() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.open
}

// Rooms returns snapshots of the open rooms in order.
func (e *Engine) Rooms() []RoomInfo {
	e.mu.Lock()
	defer e.mu.Unlock()
	open := e.rooms.Open()
	out := make([]RoomInfo, 0, len(open))
	for _, r := range open {
		out = append(out, r.Info())
	}
	return out
}

// Room returns a snapshot of one room.
func (e *Engine) Room(id string) (RoomInfo, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	r := e.rooms.Get(id)
	if r == nil {
		return RoomInfo{}, false
	}
	return r.Info(), true
}

// Messages returns a copy of a room's log.
func (e *Engine) Messages(id string) ([]Message, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	r := e.rooms.Get(id)
	if r == nil {
		return nil, false
	}
	return r.Messages(), true
}

// Users returns a copy of a room's roster.
func (e *Engine) Users(id string) ([]User, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	r := e.rooms.Get(id)
	if r == nil {
		return nil, false
	}
	return r.Users(), true
}

// Notifications returns the counters of every room.
func (e *Engine) Notifications() []RoomNotification {
	e.mu.Lock()
	defer e.mu.Unlock()
	all := e.rooms.All()
	out := make([]RoomNotification, 0, len(all))
	for _, r := range all {
		out = append(out, RoomNotification{Room: r.ID, Mentions: r.Mentions, Unread: r.Unread})
	}
	return out
}

// Send sends text to a room, or globally when roomID is empty. Client-side
// commands are handled locally and never sent.
func (e *Engine) Send(text, roomID string) {
	e.do(func() { e.send(text, roomID, false) })
}

// SendGlobal sends a line without a room scope.
func (e *Engine) SendGlobal(text string) {
	e.do(func() { e.send(text, "", false) })
}

// send must be called with e.mu held. Internal lines do not set the
// autoselect room on /join.
func (e *Engine) send(text, roomID string, internal bool) {
	line := text
	switch {
	case roomID == "":
		line = proto.FormatGlobal(text)
	default:
		r := e.rooms.Get(roomID)
		switch {
		case r == nil:
			e.log.Warn().Str("room", roomID).Msg("sending message to unknown room")
		case r.Type == RoomPM:
			line = proto.FormatPM(r.Name, text)
		default:
			line = proto.FormatRoom(r.ID, text)
		}
	}

	if e.handleClientCommand(text, internal) {
		return
	}
	e.log.Debug().Str("line", line).Msg("send")
	e.tr.Send(line)
}

// Join asks the server to join a room and selects it once initialized.
func (e *Engine) Join(room string) error {
	if strings.TrimSpace(room) == "" {
		return fmt.Errorf("join: %w", ErrBadRequest)
	}
	e.do(func() {
		e.send("/join "+room, "", true)
		e.autoSelect = room
	})
	return nil
}

// Leave leaves a connected room or drops a local one.
func (e *Engine) Leave(roomID string) error {
	var err error
	e.do(func() {
		r := e.rooms.Get(roomID)
		if r == nil {
			e.log.Warn().Str("room", roomID).Msg("leave unknown room")
			e.publish(&Event{
				Kind:  EventError,
				Room:  roomID,
				Error: coreError(ErrCodeRoomNotFound, "Trying to leave non-existent room "+roomID),
			})
			err = fmt.Errorf("leave %s: %w", roomID, ErrRoomNotFound)
			return
		}
		if r.Connected {
			e.send("/leave "+roomID, "", true)
			return
		}
		e.removeRoom(roomID)
	})
	return err
}

// CreatePM opens a private message room with user and asks the UI to focus it.
func (e *Engine) CreatePM(user string) string {
	id := pmRoomID(user)
	e.do(func() {
		e.createPM(user)
		e.autoSelect = ""
		e.publish(&Event{Kind: EventRoomAutoselect, Room: id})
	})
	return id
}

func pmRoomID(user string) string {
	return "pm-" + proto.ToID(user)
}

// createPM must be called with e.mu held.
func (e *Engine) createPM(user string) *Room {
	id := pmRoomID(user)
	if r := e.rooms.Get(id); r != nil {
		return r
	}
	r := NewRoom(id, user, RoomPM)
	r.Open = true
	e.addRoom(r)
	return r
}

// SelectRoom marks a room as the one being read.
func (e *Engine) SelectRoom(roomID string) error {
	var err error
	e.do(func() {
		e.selected = roomID
		r := e.rooms.Get(roomID)
		if r == nil {
			err = fmt.Errorf("select %s: %w", roomID, ErrRoomNotFound)
			return
		}
		r.Select(e.now())
		e.roomEvent(EventRoomUpdated, r)
		e.persistRooms()
	})
	return err
}

// Selected returns the selected room id.
func (e *Engine) Selected() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.selected
}

// OpenRoom makes a known room visible.
func (e *Engine) OpenRoom(roomID string) error {
	var err error
	e.do(func() {
		r := e.rooms.Get(roomID)
		if r == nil {
			e.log.Warn().Str("room", roomID).Msg("open unknown room")
			err = fmt.Errorf("open %s: %w", roomID, ErrRoomNotFound)
			return
		}
		r.Open = true
		e.roomEvent(EventRoomUpdated, r)
		e.persistRooms()
	})
	return err
}

// OpenSettings shows the client-side settings room.
func (e *Engine) OpenSettings() {
	_ = e.OpenRoom(SettingsRoom)
}

// Reorder applies an externally chosen room order.
func (e *Engine) Reorder(ids []string) {
	e.do(func() {
		e.rooms.Reorder(ids)
		e.persistRooms()
	})
}

// Autojoin joins rooms in one request, skipping the permanent rooms. With
// useDefault and nothing left to join, the default rooms are joined instead.
func (e *Engine) Autojoin(rooms []string, useDefault bool) {
	e.do(func() { e.autojoin(rooms, useDefault) })
}

func (e *Engine) autojoin(rooms []string, useDefault bool) {
	filtered := make([]string, 0, len(rooms))
	for _, id := range rooms {
		if id == HomeRoom || id == SettingsRoom || id == "" {
			continue
		}
		filtered = append(filtered, id)
	}
	if useDefault && len(filtered) == 0 {
		for _, id := range e.defaultRooms {
			e.send("/join "+id, "", true)
		}
		return
	}
	if len(filtered) == 0 {
		return
	}
	e.send("/autojoin "+strings.Join(filtered, ","), "", true)
}

// RestoreRooms rejoins the rooms that were open in the last session.
func (e *Engine) RestoreRooms() {
	e.Autojoin(e.settings.OpenRooms(), true)
}

// SetTheme stores the theme and announces it.
func (e *Engine) SetTheme(theme settings.Theme) {
	e.settings.SetTheme(theme)
	e.publish(&Event{Kind: EventThemeChanged, Theme: theme})
}

// HighlightWords returns the words of a scope.
func (e *Engine) HighlightWords(scope string) []string {
	return e.settings.HighlightWords(scope)
}

// SetHighlightWords replaces the words of a scope.
func (e *Engine) SetHighlightWords(scope string, words []string) {
	e.hl.SetWords(scope, e.settings.SetHighlightWords(scope, words))
}

// AddHighlightWord appends a word to a scope.
func (e *Engine) AddHighlightWord(scope, word string) {
	e.hl.SetWords(scope, e.settings.AddHighlightWord(scope, word))
}

// RemoveHighlightWord deletes a word from a scope.
func (e *Engine) RemoveHighlightWord(scope, word string) bool {
	ok := e.settings.RemoveHighlightWord(scope, word)
	e.hl.SetWords(scope, e.settings.HighlightWords(scope))
	return ok
}

// ClearHighlightWords empties a scope.
func (e *Engine) ClearHighlightWords(scope string) {
	e.settings.ClearHighlightWords(scope)
	e.hl.SetWords(scope, nil)
}

// QueryUser requests a user's details. Only the most recent callback is
// kept; every request is sent.
func (e *Engine) QueryUser(name string, cb func(proto.UserDetails)) {
	e.do(func() { e.queryUser(name, cb) })
}

func (e *Engine) queryUser(name string, cb func(proto.UserDetails)) {
	e.send("/cmd userdetails "+name, "", true)
	e.userCallback = cb
}

// QueryRooms requests the public room list. A cached list is served
// without a request.
func (e *Engine) QueryRooms(cb func(proto.RoomList)) {
	e.do(func() {
		if e.roomsCache != nil {
			cached := *e.roomsCache
			e.deferCall(func() { cb(cached) })
			return
		}
		e.send("/cmd rooms", "", true)
		e.roomsCallback = cb
	})
}

// addRoom must be called with e.mu held.
func (e *Engine) addRoom(r *Room) {
	e.rooms.Add(r)
	e.roomEvent(EventRoomAdded, r)
	if r.Type == RoomChat {
		e.persistRooms()
	}
}

// removeRoom must be called with e.mu held.
func (e *Engine) removeRoom(id string) {
	if !e.rooms.Delete(id) {
		e.log.Warn().Str("room", id).Msg("remove unknown room")
		return
	}
	if e.selected == id {
		e.selected = ""
	}
	e.settings.RemoveRoom(id)
	e.publish(&Event{Kind: EventRoomRemoved, Room: id})
}

// persistRooms stores the chat rooms in their current order.
func (e *Engine) persistRooms() {
	var out []settings.SerializedRoom
	for _, r := range e.rooms.All() {
		if r.Type != RoomChat {
			continue
		}
		out = append(out, settings.SerializedRoom{ID: r.ID, LastReadTime: r.LastSelected, Open: r.Open})
	}
	e.settings.SetRooms(out)
}

// highlightOf returns the memoized highlight decision for m, recomputing it
// when forced or when the identity epoch moved.
func (e *Engine) highlightOf(roomID string, m *Message, force bool) bool {
	epoch := e.hl.Epoch()
	if !force && m.Highlight.Known && m.Highlight.Epoch == epoch {
		return m.Highlight.Value
	}
	value := highlightable(m.Type) && e.hl.IsHighlight(roomID, m.User, m.Content)
	m.Highlight = HighlightMemo{Known: true, Value: value, Epoch: epoch}
	return value
}

func (e *Engine) rehighlightAll() {
	for _, r := range e.rooms.All() {
		r.EachMessage(func(m *Message) {
			e.highlightOf(r.ID, m, true)
		})
	}
}

// addMessage must be called with e.mu held. A missing room gets one retry.
func (e *Engine) addMessage(roomID string, m *Message, retry bool) {
	r := e.rooms.Get(roomID)
	if r == nil {
		if retry {
			e.schedule(e.retryDelay, func() { e.addMessage(roomID, m, false) })
			e.log.Debug().Str("room", roomID).Msg("message for unknown room, retrying")
			return
		}
		e.log.Warn().Str("room", roomID).Str("content", m.Content).Msg("message for unknown room dropped")
		return
	}

	username := proto.ToID(e.settings.Username())
	self := username != "" && proto.ToID(m.User) == username
	hl := e.highlightOf(roomID, m, false)

	if m.Name != "" {
		updated := r.AddUHTML(m)
		cp := *m
		e.publish(&Event{Kind: EventMessageAppended, Room: roomID, Message: &cp, Updated: updated})
		return
	}

	notify := r.AddMessage(m, AddOptions{Selected: e.selected == roomID, SelfSent: self, Highlighted: hl})
	cp := *m
	e.publish(&Event{Kind: EventMessageAppended, Room: roomID, Message: &cp})
	if notify {
		e.publish(&Event{
			Kind: EventNotification,
			Room: roomID,
			Notification: &Notification{
				User:     m.User,
				Text:     m.Content,
				Room:     roomID,
				RoomType: r.Type,
			},
		})
	}
}

// logToSelected appends a local log line to the selected room.
func (e *Engine) logToSelected(text string) {
	e.addMessage(e.selected, newMessage(e.now().Unix(), "", text, proto.TypeLog, ""), false)
}
