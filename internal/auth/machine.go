// Package auth logs the connection in, trying each credential source in
// order until one is accepted.
package auth

import (
	"context"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/singiamtel/PS-cord/internal/proto"
)

// State is a step of the login state machine.
type State int

const (
	StateWaitingForChallenge State = iota
	StateResolvingCredential
	StateAuthenticated
	StateFailed
	StateAnonymous
)

func (s State) String() string {
	switch s {
	case StateWaitingForChallenge:
		return "waiting_for_challenge"
	case StateResolvingCredential:
		return "resolving_credential"
	case StateAuthenticated:
		return "authenticated"
	case StateFailed:
		return "failed"
	case StateAnonymous:
		return "anonymous"
	default:
		return "unknown"
	}
}

const defaultPoll = 100 * time.Millisecond

// Session is the connection the assertion is presented on.
type Session interface {
	Challenge() string
	Username() string
	SendGlobal(text string)
}

// TokenStore keeps the long-lived OAuth token.
type TokenStore interface {
	Token() string
	SetToken(token string)
}

// CredentialServer exchanges tokens for assertions.
type CredentialServer interface {
	AssertionFromToken(ctx context.Context, challenge, token string) (string, error)
	RefreshToken(ctx context.Context, token string) (string, error)
}

// Options configures a Machine.
type Options struct {
	Session Session
	Tokens  TokenStore
	Server  CredentialServer
	// Assertion and Token come from the launch context, e.g. an OAuth redirect.
	Assertion string
	Token     string
	// AuthorizeURL is the interactive OAuth authorization endpoint.
	AuthorizeURL string
	ClientID     string
	PollInterval time.Duration
	Logger       *zerolog.Logger
}

// Machine runs the login strategies for one connection.
type Machine struct {
	opts Options
	log  *zerolog.Logger

	mu    sync.Mutex
	state State
}

// NewMachine builds a machine in the waiting state.
func NewMachine(opts Options) *Machine {
	logger := opts.Logger
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = defaultPoll
	}
	return &Machine{opts: opts, log: logger, state: StateWaitingForChallenge}
}

// State returns the current state.
func (m *Machine) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

func (m *Machine) setState(s State) {
	m.mu.Lock()
	m.state = s
	m.mu.Unlock()
	m.log.Debug().Str("state", s.String()).Msg("login state")
}

// Reset returns the machine to the waiting state for a new connection.
func (m *Machine) Reset() {
	m.setState(StateWaitingForChallenge)
}

// Run waits for the challenge and tries each strategy in turn. It returns
// the final state; a cancelled ctx leaves the machine waiting.
func (m *Machine) Run(ctx context.Context) State {
	challenge, err := m.waitChallenge(ctx)
	if err != nil {
		return m.State()
	}
	m.setState(StateResolvingCredential)

	strategies := []struct {
		name string
		fn   func(context.Context, string) error
	}{
		{"context", m.fromContext},
		{"token", m.fromToken},
		{"refresh", m.fromRefresh},
	}
	for _, s := range strategies {
		err := s.fn(ctx, challenge)
		if err == nil {
			m.log.Info().Str("strategy", s.name).Msg("login assertion sent")
			m.setState(StateAuthenticated)
			return StateAuthenticated
		}
		m.log.Debug().Err(err).Str("strategy", s.name).Msg("login strategy failed")
		m.setState(StateFailed)
		if ctx.Err() != nil {
			return StateFailed
		}
	}

	m.log.Info().Msg("no usable credential, staying anonymous")
	m.setState(StateAnonymous)
	return StateAnonymous
}

func (m *Machine) waitChallenge(ctx context.Context) (string, error) {
	if c := m.opts.Session.Challenge(); c != "" {
		return c, nil
	}
	ticker := time.NewTicker(m.opts.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-ticker.C:
			if c := m.opts.Session.Challenge(); c != "" {
				return c, nil
			}
		}
	}
}

func (m *Machine) fromContext(_ context.Context, _ string) error {
	if err := m.present(m.opts.Assertion); err != nil {
		return err
	}
	if m.opts.Token != "" {
		m.opts.Tokens.SetToken(m.opts.Token)
	}
	return nil
}

func (m *Machine) fromToken(ctx context.Context, challenge string) error {
	token := m.opts.Tokens.Token()
	if token == "" {
		return ErrNoToken
	}
	assertion, err := m.opts.Server.AssertionFromToken(ctx, challenge, token)
	if err != nil {
		return err
	}
	return m.present(assertion)
}

func (m *Machine) fromRefresh(ctx context.Context, challenge string) error {
	token := m.opts.Tokens.Token()
	if token == "" {
		return ErrNoToken
	}
	refreshed, err := m.opts.Server.RefreshToken(ctx, token)
	if err != nil {
		return err
	}
	m.opts.Tokens.SetToken(refreshed)

	assertion, err := m.opts.Server.AssertionFromToken(ctx, challenge, refreshed)
	if err != nil {
		return err
	}
	return m.present(assertion)
}

// present sends the assertion under the stored name when it belongs to the
// same user, otherwise under the assertion's own user.
func (m *Machine) present(assertion string) error {
	if assertion == "" || assertion == "undefined" {
		return ErrBadAssertion
	}
	name := m.opts.Session.Username()
	if user := proto.AssertionUser(assertion); proto.ToID(name) != proto.ToID(user) {
		name = user
	}
	m.opts.Session.SendGlobal(proto.LoginCommand(name, assertion))
	return nil
}

// Submit feeds the result of an interactive login into the send path.
func (m *Machine) Submit(assertion, token string) error {
	if err := m.present(assertion); err != nil {
		return err
	}
	if token != "" {
		m.opts.Tokens.SetToken(token)
	}
	m.setState(StateAuthenticated)
	return nil
}

// AuthorizeURL builds the interactive OAuth URL for the current challenge.
func (m *Machine) AuthorizeURL(redirect string) (string, error) {
	challenge := m.opts.Session.Challenge()
	if challenge == "" {
		return "", fmt.Errorf("authorize url: %w", ErrNoChallenge)
	}
	u, err := url.Parse(m.opts.AuthorizeURL)
	if err != nil {
		return "", fmt.Errorf("parse authorize url: %w", err)
	}
	q := u.Query()
	q.Set("redirect_uri", redirect)
	q.Set("client_id", m.opts.ClientID)
	q.Set("challenge", challenge)
	u.RawQuery = q.Encode()
	return u.String(), nil
}
