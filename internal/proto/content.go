package proto

import (
	"strconv"
	"strings"
	"time"
)

// MessageType tells a UI layer how a message should be presented.
type MessageType string

const (
	TypeChat        MessageType = "chat"
	TypeSimple      MessageType = "simple"
	TypeError       MessageType = "error"
	TypeChallenge   MessageType = "challenge"
	TypeLog         MessageType = "log"
	TypeRoleplay    MessageType = "roleplay"
	TypeAnnounce    MessageType = "announce"
	TypeRaw         MessageType = "raw"
	TypeBoxedHTML   MessageType = "boxedHTML"
	TypeRawHTML     MessageType = "rawHTML"
	TypeUHTMLUpdate MessageType = "uhtml-update"
)

// Content is a chat payload after slash-command classification.
type Content struct {
	Type MessageType
	Text string
	// Name is the UHTML block name for /uhtml and /uhtmlchange payloads.
	Name string
}

// contentMarkers maps the leading slash-command of a chat payload to its type.
var contentMarkers = map[string]MessageType{
	"/raw":         TypeRaw,
	"/html":        TypeRawHTML,
	"/uhtml":       TypeRaw,
	"/uhtmlchange": TypeUHTMLUpdate,
	"/error":       TypeError,
	"/text":        TypeLog,
	"/log":         TypeLog,
	"/me":          TypeRoleplay,
	"/announce":    TypeAnnounce,
	"/challenge":   TypeChallenge,
}

// ClassifyContent strips a recognised slash-command from a chat payload.
func ClassifyContent(content string) Content {
	if !strings.HasPrefix(content, "/") {
		return Content{Type: TypeChat, Text: content}
	}
	marker, rest, _ := strings.Cut(content, " ")
	typ, ok := contentMarkers[marker]
	if !ok {
		return Content{Type: TypeChat, Text: content}
	}

	switch marker {
	case "/uhtml", "/uhtmlchange":
		name, html, _ := strings.Cut(rest, ",")
		return Content{Type: typ, Text: html, Name: strings.TrimSpace(name)}
	default:
		return Content{Type: typ, Text: rest}
	}
}

// Chat is a decoded chat or private message line.
type Chat struct {
	Timestamp int64
	User      string
	// Receiver is only set for private messages.
	Receiver string
	Content  Content
}

// ParseChat decodes the arguments of a |c| or |c:| line.
func ParseChat(l Line, now time.Time) Chat {
	if l.Cmd == CmdChatTimestamped {
		ts, err := strconv.ParseInt(l.Arg(0), 10, 64)
		if err != nil {
			ts = now.Unix()
		}
		return Chat{
			Timestamp: ts,
			User:      l.Arg(1),
			Content:   ClassifyContent(l.Rest(2)),
		}
	}
	return Chat{
		Timestamp: now.Unix(),
		User:      l.Arg(0),
		Content:   ClassifyContent(l.Rest(1)),
	}
}

// ParsePM decodes the arguments of a |pm| line.
func ParsePM(l Line, now time.Time) Chat {
	return Chat{
		Timestamp: now.Unix(),
		User:      l.Arg(0),
		Receiver:  l.Arg(1),
		Content:   ClassifyContent(l.Rest(2)),
	}
}
