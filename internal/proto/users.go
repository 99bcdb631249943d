package proto

import (
	"strconv"
	"strings"
	"unicode/utf8"
)

// UserToken is one entry of a roster or join line.
type UserToken struct {
	// Name keeps the one-symbol rank prefix.
	Name   string
	ID     string
	Status string
}

// ParseUserToken splits "<rank><name>[@<status>]" into its parts.
func ParseUserToken(token string) UserToken {
	if token == "" {
		return UserToken{}
	}
	_, size := utf8.DecodeRuneInString(token)
	rank, rest := token[:size], token[size:]
	name, status, _ := strings.Cut(rest, "@")
	full := rank + name
	return UserToken{Name: full, ID: ToID(full), Status: status}
}

// ParseUsers decodes the comma-joined roster field of a |users| line.
// The leading token is the server's user count and is dropped when it is
// empty or numeric.
func ParseUsers(field string) []UserToken {
	if field == "" {
		return nil
	}
	tokens := strings.Split(field, ",")
	if lead := tokens[0]; lead == "" || isCount(lead) {
		tokens = tokens[1:]
	}

	users := make([]UserToken, 0, len(tokens))
	for _, tok := range tokens {
		u := ParseUserToken(tok)
		if u.ID == "" {
			continue
		}
		users = append(users, u)
	}
	return users
}

func isCount(s string) bool {
	_, err := strconv.Atoi(s)
	return err == nil
}

// Identity is the payload of an |updateuser| line.
type Identity struct {
	Name   string
	Named  bool
	Avatar string
	// Settings is the raw server-side settings JSON, if sent.
	Settings string
}

// ParseUpdateUser decodes |updateuser|NAME|NAMED|AVATAR|SETTINGS.
func ParseUpdateUser(l Line) Identity {
	name := strings.TrimSpace(l.Arg(0))
	if i := strings.Index(name, "@"); i > 0 {
		name = name[:i]
	}
	return Identity{
		Name:     name,
		Named:    l.Arg(1) == "1",
		Avatar:   l.Arg(2),
		Settings: l.Rest(3),
	}
}

// IsGuest reports whether the name is a server-assigned guest placeholder,
// i.e. its id is "guest" followed only by digits.
func (id Identity) IsGuest() bool {
	digits, ok := strings.CutPrefix(ToID(id.Name), "guest")
	if !ok || digits == "" {
		return false
	}
	_, err := strconv.ParseUint(digits, 10, 64)
	return err == nil
}
