package proto

// Command is the closed set of line commands the decoder understands.
type Command int

const (
	// CmdUnknown is any command token the client does not recognise.
	CmdUnknown Command = iota
	// CmdNotice is a bare server notice without a leading command marker.
	CmdNotice
	// CmdInit opens a room initialization block.
	CmdInit
	// CmdTitle carries the room title inside an init block.
	CmdTitle
	// CmdUsers carries the room roster inside an init block.
	CmdUsers
	// CmdTimestamp marks the start of the message log (|:| or |t:|).
	CmdTimestamp
	// CmdChat is a chat line without an explicit timestamp.
	CmdChat
	// CmdChatTimestamped is a chat line with a server timestamp.
	CmdChatTimestamped
	// CmdPM is a private message.
	CmdPM
	// CmdJoin reports a user joining the room.
	CmdJoin
	// CmdLeave reports a user leaving the room.
	CmdLeave
	// CmdRename reports a user changing name.
	CmdRename
	// CmdQueryResponse answers a /cmd query.
	CmdQueryResponse
	// CmdNoInit reports a failed room join.
	CmdNoInit
	// CmdUpdateUser reports the local identity.
	CmdUpdateUser
	// CmdDeinit destroys a room.
	CmdDeinit
	// CmdRaw is raw html content.
	CmdRaw
	// CmdHTML is an html box.
	CmdHTML
	// CmdUHTML is a named, updatable html block.
	CmdUHTML
	// CmdError is an error shown in the room.
	CmdError
)

var commandTokens = map[string]Command{
	"init":          CmdInit,
	"title":         CmdTitle,
	"users":         CmdUsers,
	":":             CmdTimestamp,
	"t:":            CmdTimestamp,
	"c":             CmdChat,
	"chat":          CmdChat,
	"c:":            CmdChatTimestamped,
	"pm":            CmdPM,
	"J":             CmdJoin,
	"j":             CmdJoin,
	"join":          CmdJoin,
	"L":             CmdLeave,
	"l":             CmdLeave,
	"leave":         CmdLeave,
	"N":             CmdRename,
	"n":             CmdRename,
	"name":          CmdRename,
	"queryresponse": CmdQueryResponse,
	"noinit":        CmdNoInit,
	"updateuser":    CmdUpdateUser,
	"deinit":        CmdDeinit,
	"raw":           CmdRaw,
	"html":          CmdHTML,
	"uhtml":         CmdUHTML,
	"error":         CmdError,
}

// LookupCommand maps a command token to its Command.
func LookupCommand(token string) Command {
	if cmd, ok := commandTokens[token]; ok {
		return cmd
	}
	return CmdUnknown
}

func (c Command) String() string {
	switch c {
	case CmdNotice:
		return "notice"
	case CmdInit:
		return "init"
	case CmdTitle:
		return "title"
	case CmdUsers:
		return "users"
	case CmdTimestamp:
		return "timestamp"
	case CmdChat:
		return "c"
	case CmdChatTimestamped:
		return "c:"
	case CmdPM:
		return "pm"
	case CmdJoin:
		return "join"
	case CmdLeave:
		return "leave"
	case CmdRename:
		return "rename"
	case CmdQueryResponse:
		return "queryresponse"
	case CmdNoInit:
		return "noinit"
	case CmdUpdateUser:
		return "updateuser"
	case CmdDeinit:
		return "deinit"
	case CmdRaw:
		return "raw"
	case CmdHTML:
		return "html"
	case CmdUHTML:
		return "uhtml"
	case CmdError:
		return "error"
	default:
		return "unknown"
	}
}
