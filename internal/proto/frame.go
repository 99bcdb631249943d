package proto

import "strings"

const (
	// ChallengePrefix opens the frame that delivers the login challenge.
	ChallengePrefix = "|challstr|"
	// RoomMarker prefixes the first line of a room-scoped batch.
	RoomMarker = ">"
	// LobbyRoom receives every batch that carries no room marker.
	LobbyRoom = "lobby"
	// CommandMarker separates the fields of a command line.
	CommandMarker = "|"
)

// Frame is one raw transport message split into its room scope and lines.
type Frame struct {
	// Challenge is set when the frame delivered a login challenge; Lines is empty then.
	Challenge    string
	HasChallenge bool
	RoomID       string
	Lines        []string
}

// SplitFrame splits a raw frame into its room id and the lines to decode.
func SplitFrame(raw string) Frame {
	if strings.HasPrefix(raw, ChallengePrefix) {
		return Frame{
			Challenge:    strings.TrimRight(raw[len(ChallengePrefix):], "\r\n"),
			HasChallenge: true,
		}
	}

	lines := strings.Split(raw, "\n")
	if !strings.HasPrefix(lines[0], RoomMarker) {
		return Frame{RoomID: LobbyRoom, Lines: lines}
	}
	return Frame{
		RoomID: strings.TrimSpace(lines[0][len(RoomMarker):]),
		Lines:  lines[1:],
	}
}

// Line is a single classified protocol line.
type Line struct {
	Raw   string
	Token string
	Cmd   Command
	Args  []string
}

// ParseLine classifies a line by its leading command token.
func ParseLine(s string) Line {
	s = strings.TrimRight(s, "\r")
	if !strings.HasPrefix(s, CommandMarker) {
		return Line{Raw: s, Cmd: CmdNotice}
	}
	parts := strings.Split(s[len(CommandMarker):], CommandMarker)
	return Line{
		Raw:   s,
		Token: parts[0],
		Cmd:   LookupCommand(parts[0]),
		Args:  parts[1:],
	}
}

// Arg returns the i-th argument or an empty string.
func (l Line) Arg(i int) string {
	if i < 0 || i >= len(l.Args) {
		return ""
	}
	return l.Args[i]
}

// Rest re-joins the arguments from index i with the field separator.
func (l Line) Rest(i int) string {
	if i >= len(l.Args) {
		return ""
	}
	return strings.Join(l.Args[i:], CommandMarker)
}

// ToID reduces a name to its canonical lowercase alphanumeric id.
func ToID(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r >= 'A' && r <= 'Z':
			b.WriteRune(r + ('a' - 'A'))
		}
	}
	return b.String()
}
