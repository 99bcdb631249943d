package config

import "time"

// Config holds client configuration values.
type Config struct {
	ServerURL      string `mapstructure:"server_url" yaml:"server_url"`
	LoginServerURL string `mapstructure:"login_server_url" yaml:"login_server_url"`
	AuthorizeURL   string `mapstructure:"authorize_url" yaml:"authorize_url"`
	ClientID       string `mapstructure:"client_id" yaml:"client_id"`
	AutoLogin      bool   `mapstructure:"auto_login" yaml:"auto_login"`
	// Assertion and Token seed the first login strategy, e.g. after an
	// out-of-band OAuth flow.
	Assertion string `mapstructure:"assertion" yaml:"assertion,omitempty"`
	Token     string `mapstructure:"token" yaml:"token,omitempty"`

	DatabasePath string `mapstructure:"database_path" yaml:"database_path"`
	LogLevel     string `mapstructure:"log_level" yaml:"log_level"`

	ControlAddr       string        `mapstructure:"control_addr" yaml:"control_addr"`
	ReadHeaderTimeout time.Duration `mapstructure:"read_header_timeout" yaml:"read_header_timeout"`
	ShutdownTimeout   time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`

	RetryDelay    time.Duration `mapstructure:"retry_delay" yaml:"retry_delay"`
	ChallengePoll time.Duration `mapstructure:"challenge_poll" yaml:"challenge_poll"`
	SendInterval  time.Duration `mapstructure:"send_interval" yaml:"send_interval"`
	SendBurst     int           `mapstructure:"send_burst" yaml:"send_burst"`
	DefaultRooms  []string      `mapstructure:"default_rooms" yaml:"default_rooms"`
}

// Default returns configuration with reasonable starter defaults.
func Default() Config {
	return Config{
		ServerURL:         "wss://sim3.psim.us/showdown/websocket",
		LoginServerURL:    "https://play.pokemonshowdown.com/api/",
		AuthorizeURL:      "https://play.pokemonshowdown.com/api/oauth/authorize",
		AutoLogin:         true,
		DatabasePath:      "pscord.db",
		LogLevel:          "info",
		ControlAddr:       "127.0.0.1:8080",
		ReadHeaderTimeout: 5 * time.Second,
		ShutdownTimeout:   5 * time.Second,
		RetryDelay:        time.Second,
		ChallengePoll:     100 * time.Millisecond,
		SendInterval:      100 * time.Millisecond,
		SendBurst:         5,
		DefaultRooms:      []string{"lobby", "help", "overused"},
	}
}

// UpdateFrom overwrites non-zero values from other config into receiver.
func (c *Config) UpdateFrom(other Config) {
	if other.ServerURL != "" {
		c.ServerURL = other.ServerURL
	}
	if other.LoginServerURL != "" {
		c.LoginServerURL = other.LoginServerURL
	}
	if other.AuthorizeURL != "" {
		c.AuthorizeURL = other.AuthorizeURL
	}
	if other.ClientID != "" {
		c.ClientID = other.ClientID
	}
	if other.Assertion != "" {
		c.Assertion = other.Assertion
	}
	if other.Token != "" {
		c.Token = other.Token
	}
	if other.DatabasePath != "" {
		c.DatabasePath = other.DatabasePath
	}
	if other.LogLevel != "" {
		c.LogLevel = other.LogLevel
	}
	if other.ControlAddr != "" {
		c.ControlAddr = other.ControlAddr
	}
	if other.ReadHeaderTimeout != 0 {
		c.ReadHeaderTimeout = other.ReadHeaderTimeout
	}
	if other.ShutdownTimeout != 0 {
		c.ShutdownTimeout = other.ShutdownTimeout
	}
	if other.RetryDelay != 0 {
		c.RetryDelay = other.RetryDelay
	}
	if other.ChallengePoll != 0 {
		c.ChallengePoll = other.ChallengePoll
	}
	if other.SendInterval != 0 {
		c.SendInterval = other.SendInterval
	}
	if other.SendBurst != 0 {
		c.SendBurst = other.SendBurst
	}
	if len(other.DefaultRooms) > 0 {
		c.DefaultRooms = append([]string(nil), other.DefaultRooms...)
	}
}
