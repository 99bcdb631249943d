package core

import (
	"strings"

	"github.com/singiamtel/PS-cord/internal/proto"
)

// HandleFrame decodes one raw frame. Frames must be handed in arrival order.
func (e *Engine) HandleFrame(raw string) {
	e.do(func() { e.decodeFrame(raw) })
}

func (e *Engine) decodeFrame(raw string) {
	f := proto.SplitFrame(raw)
	if f.HasChallenge {
		e.challenge = f.Challenge
		e.log.Debug().Msg("challenge received")
		return
	}
	if len(f.Lines) == 0 {
		return
	}

	lines := f.Lines
	i := 0
	if first := proto.ParseLine(lines[0]); first.Cmd == proto.CmdInit {
		if first.Arg(0) != "" {
			i = 1 + e.decodeInit(f.RoomID, first, lines[1:])
		} else {
			e.log.Warn().Str("room", f.RoomID).Msg("init without room type, not entering init mode")
		}
	}
	for ; i < len(lines); i++ {
		if lines[i] == "" {
			continue
		}
		e.decodeLine(f.RoomID, proto.ParseLine(lines[i]))
	}
}

// decodeInit consumes an init block up to and including its message-start
// marker and returns the number of lines consumed.
func (e *Engine) decodeInit(roomID string, init proto.Line, lines []string) int {
	typ := RoomType(init.Arg(0))
	switch typ {
	case RoomChat, RoomBattle:
	default:
		e.log.Error().Str("room", roomID).Str("type", string(typ)).Msg("unknown room type")
	}

	var (
		title string
		users []User
	)
	for i, raw := range lines {
		if raw == "" {
			continue
		}
		l := proto.ParseLine(raw)
		switch l.Cmd {
		case proto.CmdTitle:
			title = l.Rest(0)
		case proto.CmdUsers:
			users = usersFromTokens(proto.ParseUsers(l.Arg(0)))
		case proto.CmdTimestamp:
			e.initRoom(roomID, title, typ, users)
			return i + 1
		default:
			e.decodeLine(roomID, l)
		}
	}

	e.log.Warn().Str("room", roomID).Msg("init block without message start, discarded")
	return len(lines)
}

func (e *Engine) initRoom(roomID, title string, typ RoomType, users []User) {
	r := e.rooms.Get(roomID)
	if r == nil {
		r = NewRoom(roomID, title, typ)
		r.Connected = true
		r.Open = true
		e.addRoom(r)
	} else {
		if title != "" {
			r.Name = title
		}
		r.Type = typ
		r.Connected = true
		r.Open = true
		e.roomEvent(EventRoomUpdated, r)
		e.persistRooms()
	}

	r.AddUsers(users)
	e.publish(&Event{Kind: EventUsersChanged, Room: roomID, Users: r.Users()})

	if e.autoSelect != "" && proto.ToID(e.autoSelect) == roomID {
		e.autoSelect = ""
		e.publish(&Event{Kind: EventRoomAutoselect, Room: roomID})
	}
}

func (e *Engine) decodeLine(roomID string, l proto.Line) {
	now := e.now()

	switch l.Cmd {
	case proto.CmdNotice:
		e.addMessage(roomID, newMessage(now.Unix(), "", l.Raw, proto.TypeSimple, ""), true)

	case proto.CmdChat, proto.CmdChatTimestamped:
		if e.rooms.Get(roomID) == nil {
			e.log.Warn().Str("room", roomID).Str("cmd", l.Token).Msg("chat for unknown room dropped")
			return
		}
		c := proto.ParseChat(l, now)
		e.deliverChat(roomID, c)

	case proto.CmdPM:
		c := proto.ParsePM(l, now)
		self := proto.ToID(e.settings.Username())
		other := c.User
		if proto.ToID(c.User) == self {
			other = c.Receiver
		}
		// An update only edits an existing block; it never opens a room.
		if c.Content.Type != proto.TypeUHTMLUpdate {
			e.createPM(strings.TrimSpace(other))
		}
		e.deliverChat(pmRoomID(other), c)

	case proto.CmdJoin:
		r := e.trackedRoom(roomID, l)
		if r == nil {
			return
		}
		r.AddUsers([]User{userFromToken(proto.ParseUserToken(l.Arg(0)))})
		e.publish(&Event{Kind: EventUsersChanged, Room: roomID, Users: r.Users()})

	case proto.CmdLeave:
		r := e.trackedRoom(roomID, l)
		if r == nil {
			return
		}
		r.RemoveUser(proto.ToID(l.Arg(0)))
		e.publish(&Event{Kind: EventUsersChanged, Room: roomID, Users: r.Users()})

	case proto.CmdRename:
		r := e.trackedRoom(roomID, l)
		if r == nil {
			return
		}
		r.RenameUser(proto.ToID(l.Arg(1)), userFromToken(proto.ParseUserToken(l.Arg(0))))
		e.publish(&Event{Kind: EventUsersChanged, Room: roomID, Users: r.Users()})

	case proto.CmdQueryResponse:
		e.queryResponse(l)

	case proto.CmdNoInit:
		e.noInit(roomID, l)

	case proto.CmdUpdateUser:
		e.updateUser(proto.ParseUpdateUser(l))

	case proto.CmdDeinit:
		e.removeRoom(roomID)

	case proto.CmdRaw:
		e.addMessage(roomID, newMessage(now.Unix(), "", l.Rest(0), proto.TypeRaw, ""), true)

	case proto.CmdHTML, proto.CmdUHTML:
		if e.trackedRoom(roomID, l) == nil {
			return
		}
		name, content := "", l.Rest(0)
		if l.Cmd == proto.CmdUHTML {
			name, content = l.Arg(0), l.Rest(1)
		}
		e.addMessage(roomID, newMessage(now.Unix(), "", content, proto.TypeRaw, name), false)

	case proto.CmdError:
		e.addMessage(roomID, newMessage(now.Unix(), "", l.Rest(0), proto.TypeError, ""), true)

	case proto.CmdInit, proto.CmdTitle, proto.CmdUsers, proto.CmdTimestamp:
		e.log.Debug().Str("room", roomID).Str("cmd", l.Cmd.String()).Msg("init marker outside init block ignored")

	case proto.CmdUnknown:
		e.log.Debug().Str("room", roomID).Str("cmd", l.Token).Str("line", truncate(l.Raw, 100)).Msg("unknown command")
	}
}

// deliverChat appends a decoded chat payload, applying UHTML updates in place.
func (e *Engine) deliverChat(roomID string, c proto.Chat) {
	if c.Content.Type == proto.TypeUHTMLUpdate {
		r := e.rooms.Get(roomID)
		if r == nil {
			e.log.Warn().Str("room", roomID).Msg("uhtml update for unknown room")
			return
		}
		m, ok := r.ChangeUHTML(c.Content.Name, c.Content.Text)
		if !ok {
			e.log.Warn().Str("room", roomID).Str("name", c.Content.Name).Msg("uhtml update for unknown block")
			return
		}
		cp := *m
		e.publish(&Event{Kind: EventMessageAppended, Room: roomID, Message: &cp, Updated: true})
		return
	}
	e.addMessage(roomID, newMessage(c.Timestamp, c.User, c.Content.Text, c.Content.Type, c.Content.Name), true)
}

func (e *Engine) trackedRoom(roomID string, l proto.Line) *Room {
	r := e.rooms.Get(roomID)
	if r == nil {
		e.log.Warn().Str("room", roomID).Str("cmd", l.Token).Msg("command for untracked room")
	}
	return r
}

func (e *Engine) queryResponse(l proto.Line) {
	payload := l.Rest(1)
	switch l.Arg(0) {
	case proto.QueryUserDetails:
		d, err := proto.ParseUserDetails(payload)
		if err != nil {
			e.log.Error().Err(err).Msg("userdetails response")
			return
		}
		if d.UserID == proto.ToID(e.settings.Username()) && d.Status != "" {
			e.settings.SetStatus(d.Status)
		}
		if cb := e.userCallback; cb != nil {
			e.userCallback = nil
			e.deferCall(func() { cb(d) })
		} else {
			e.log.Debug().Str("user", d.UserID).Msg("userdetails nobody asked for")
		}

	case proto.QueryRooms:
		list, err := proto.ParseRoomList(payload)
		if err != nil {
			e.log.Error().Err(err).Msg("rooms response")
			return
		}
		e.roomsCache = &list
		if cb := e.roomsCallback; cb != nil {
			e.roomsCallback = nil
			e.deferCall(func() { cb(list) })
		}

	default:
		e.log.Warn().Str("kind", l.Arg(0)).Msg("unknown queryresponse")
	}
}

func (e *Engine) noInit(roomID string, l proto.Line) {
	switch l.Arg(0) {
	case proto.NoInitNameRequired:
		e.joinAfterLogin = append(e.joinAfterLogin, roomID)
	case proto.NoInitNonexistent:
		e.publish(&Event{Kind: EventError, Room: roomID, Error: coreError(ErrCodeRoomNonexistent, l.Rest(1))})
	case proto.NoInitJoinFailed:
		e.publish(&Event{Kind: EventError, Room: roomID, Error: coreError(ErrCodeJoinFailed, l.Rest(1))})
	default:
		e.log.Warn().Str("room", roomID).Str("kind", l.Arg(0)).Msg("unknown noinit")
	}
}

func (e *Engine) updateUser(id proto.Identity) {
	if id.Name == "" || id.IsGuest() {
		return
	}

	e.autojoin(e.joinAfterLogin, false)
	e.joinAfterLogin = nil

	e.settings.UpdateIdentity(id.Name, id.Avatar)
	e.hl.SetUsername(id.Name)
	e.rehighlightAll()

	name := id.Name
	e.queryUser(name, func(proto.UserDetails) {
		e.publish(&Event{Kind: EventLoginSucceeded, Username: name})
	})
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
