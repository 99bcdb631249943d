package core

import (
	"unicode/utf8"

	"github.com/singiamtel/PS-cord/internal/proto"
)

// User is a roster entry. Name keeps the one-symbol rank prefix.
type User struct {
	Name   string
	ID     string
	Status string
}

// Rank returns the rank prefix of the user's name.
func (u User) Rank() string {
	_, size := utf8.DecodeRuneInString(u.Name)
	return u.Name[:size]
}

func userFromToken(t proto.UserToken) User {
	return User{Name: t.Name, ID: t.ID, Status: t.Status}
}

func usersFromTokens(tokens []proto.UserToken) []User {
	users := make([]User, 0, len(tokens))
	for _, t := range tokens {
		users = append(users, userFromToken(t))
	}
	return users
}
