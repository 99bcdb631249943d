package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

var (
	// ErrRejected is returned when the login server refuses a credential.
	ErrRejected = errors.New("credential rejected")
	// ErrNoToken is returned when no stored token is available.
	ErrNoToken = errors.New("no token")
	// ErrNoChallenge is returned when the connection has no challenge yet.
	ErrNoChallenge = errors.New("no challenge")
	// ErrBadAssertion is returned for an empty or placeholder assertion.
	ErrBadAssertion = errors.New("invalid assertion")
)

const maxResponseBytes = 64 << 10

// Credentials talks to the login server's OAuth API.
type Credentials struct {
	baseURL    string
	clientID   string
	httpClient *http.Client
}

// NewCredentials creates a client for the login server at baseURL.
func NewCredentials(baseURL, clientID string, timeout time.Duration) *Credentials {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}
	return &Credentials{
		baseURL:  baseURL,
		clientID: clientID,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// AssertionFromToken exchanges a token for a login assertion.
func (c *Credentials) AssertionFromToken(ctx context.Context, challenge, token string) (string, error) {
	params := url.Values{}
	params.Set("challenge", challenge)
	params.Set("token", token)
	params.Set("client_id", c.clientID)

	assertion, err := c.get(ctx, "oauth/api/getassertion?"+params.Encode())
	if err != nil {
		return "", fmt.Errorf("auth.AssertionFromToken: %w", err)
	}
	return assertion, nil
}

// RefreshToken exchanges a token for a new one.
func (c *Credentials) RefreshToken(ctx context.Context, token string) (string, error) {
	params := url.Values{}
	params.Set("token", token)
	params.Set("client_id", c.clientID)

	refreshed, err := c.get(ctx, "oauth/api/refreshtoken?"+params.Encode())
	if err != nil {
		return "", fmt.Errorf("auth.RefreshToken: %w", err)
	}
	return refreshed, nil
}

func (c *Credentials) get(ctx context.Context, path string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode >= 400 {
		return "", fmt.Errorf("%w: status %d", ErrRejected, resp.StatusCode)
	}
	return ParseResponse(string(body))
}

// ParseResponse decodes a login server body. The server prefixes JSON with
// one sentinel character; a leading ';' means failure and a body that is not
// JSON is the value itself.
func ParseResponse(body string) (string, error) {
	if body == "" {
		return "", fmt.Errorf("%w: empty response", ErrRejected)
	}
	if body[0] == ';' {
		return "", fmt.Errorf("%w: %s", ErrRejected, body)
	}

	var payload struct {
		Success json.RawMessage `json:"success"`
	}
	if err := json.Unmarshal([]byte(body[1:]), &payload); err != nil {
		return body, nil
	}
	switch s := strings.TrimSpace(string(payload.Success)); {
	case s == "false":
		return "", fmt.Errorf("%w: unsuccessful", ErrRejected)
	case strings.HasPrefix(s, `"`):
		var value string
		if err := json.Unmarshal(payload.Success, &value); err == nil && value != "" {
			return value, nil
		}
	}
	return body, nil
}
