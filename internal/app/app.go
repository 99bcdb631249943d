package app

import (
	"context"
	"errors"
	"fmt"
	stdhttp "net/http"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/singiamtel/PS-cord/internal/auth"
	"github.com/singiamtel/PS-cord/internal/config"
	"github.com/singiamtel/PS-cord/internal/core"
	"github.com/singiamtel/PS-cord/internal/highlight"
	"github.com/singiamtel/PS-cord/internal/settings"
	"github.com/singiamtel/PS-cord/internal/store"
	"github.com/singiamtel/PS-cord/internal/store/sqlite"
	transporthttp "github.com/singiamtel/PS-cord/internal/transport/http"
	"github.com/singiamtel/PS-cord/internal/transport/ws"
)

// App wires together the connection, the engine, login and the control API.
type App struct {
	cfg     config.Config
	store   store.BlobStore
	client  *ws.Client
	engine  *core.Engine
	machine *auth.Machine
	server  *stdhttp.Server
	log     *zerolog.Logger
}

// New constructs the application with provided configuration.
func New(cfg config.Config, logger *zerolog.Logger) (*App, error) {
	st, err := sqlite.New(cfg.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("init store: %w", err)
	}
	logger.Info().Str("db_path", cfg.DatabasePath).Msg("database initialized")

	s := settings.Load(st, logger)
	client := ws.New(ws.Options{
		URL:          cfg.ServerURL,
		SendInterval: cfg.SendInterval,
		SendBurst:    cfg.SendBurst,
		Logger:       logger,
	})
	engine := core.NewEngine(core.Options{
		Transport:    client,
		Settings:     s,
		Highlights:   highlight.New(logger),
		Logger:       logger,
		RetryDelay:   cfg.RetryDelay,
		DefaultRooms: cfg.DefaultRooms,
	})
	machine := auth.NewMachine(auth.Options{
		Session:      engine,
		Tokens:       s,
		Server:       auth.NewCredentials(cfg.LoginServerURL, cfg.ClientID, 0),
		Assertion:    cfg.Assertion,
		Token:        cfg.Token,
		AuthorizeURL: cfg.AuthorizeURL,
		ClientID:     cfg.ClientID,
		PollInterval: cfg.ChallengePoll,
		Logger:       logger,
	})

	a := &App{
		cfg:     cfg,
		store:   st,
		client:  client,
		engine:  engine,
		machine: machine,
		log:     logger,
	}
	if cfg.ControlAddr != "" {
		a.server = transporthttp.NewServer(engine, machine, cfg, logger)
	}
	return a, nil
}

// Run connects and blocks until the connection closes, the control server
// fails or ctx is cancelled.
func (a *App) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup
	a.engine.OnOpen(func() {
		a.engine.RestoreRooms()
		a.machine.Reset()
		if !a.cfg.AutoLogin {
			return
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			st := a.machine.Run(ctx)
			a.log.Info().Str("state", st.String()).Msg("login finished")
		}()
	})

	events, unsubscribe := a.engine.Events().Subscribe(0)
	wg.Add(1)
	go func() {
		defer wg.Done()
		a.logEvents(events)
	}()

	clientErr := make(chan error, 1)
	go func() { clientErr <- a.client.Run(ctx) }()

	engineErr := make(chan error, 1)
	go func() { engineErr <- a.engine.Run(ctx) }()

	serverErr := make(chan error, 1)
	if a.server != nil {
		go func() {
			a.log.Info().Str("addr", a.server.Addr).Msg("control api listening")
			if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, stdhttp.ErrServerClosed) {
				serverErr <- err
				return
			}
			serverErr <- nil
		}()
	}

	var runErr error
	engineDone := false
	select {
	case err := <-engineErr:
		engineDone = true
		if err != nil && !errors.Is(err, context.Canceled) {
			runErr = err
		}
	case err := <-serverErr:
		runErr = err
	case <-ctx.Done():
	}

	cancel()
	if !engineDone {
		<-engineErr
	}
	if err := a.shutdownServer(); err != nil && runErr == nil {
		runErr = err
	}
	if err := <-clientErr; err != nil {
		a.log.Warn().Err(err).Msg("connection ended with error")
	}
	unsubscribe()
	wg.Wait()
	a.cleanup()
	return runErr
}

func (a *App) shutdownServer() error {
	if a.server == nil {
		return nil
	}
	timeout := a.cfg.ShutdownTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	a.log.Info().Msg("shutting down control api")
	return a.server.Shutdown(shutdownCtx)
}

func (a *App) logEvents(events <-chan *core.Event) {
	for ev := range events {
		switch ev.Kind {
		case core.EventNotification:
			n := ev.Notification
			a.log.Info().Str("room", n.Room).Str("user", n.User).Str("text", n.Text).Msg("mention")
		case core.EventError:
			a.log.Warn().Str("room", ev.Room).Str("code", ev.Error.Code).Msg(ev.Error.Message)
		case core.EventLoginSucceeded:
			a.log.Info().Str("user", ev.Username).Msg("logged in")
		case core.EventConnectionClosed:
			a.log.Info().Err(ev.Err).Msg("disconnected")
		}
	}
}

// cleanup closes database and other resources.
func (a *App) cleanup() {
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			a.log.Warn().Err(err).Msg("failed to close store")
		} else {
			a.log.Info().Msg("store closed")
		}
	}
}
