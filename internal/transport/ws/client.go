// Package ws adapts a coder/websocket connection to the transport signals
// consumed by the protocol engine.
package ws

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/coder/websocket"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/singiamtel/PS-cord/internal/transport"
)

const (
	// readLimit allows the large init frames battle and chat rooms send.
	readLimit = 16 << 20

	signalBuffer = 256
)

// Options configures a Client.
type Options struct {
	URL string
	// SendInterval spaces outbound lines; zero disables throttling.
	SendInterval time.Duration
	// SendBurst is the number of lines allowed back to back.
	SendBurst int
	Logger    *zerolog.Logger
}

// Client is a single websocket session. Send is safe to call before the
// connection is open; lines are flushed in order once it is.
type Client struct {
	url     string
	outbox  *transport.Outbox
	signals chan transport.Signal
	limiter *rate.Limiter
	log     *zerolog.Logger
}

// New builds a client; call Run to connect.
func New(opts Options) *Client {
	logger := opts.Logger
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}

	var limiter *rate.Limiter
	if opts.SendInterval > 0 {
		burst := opts.SendBurst
		if burst <= 0 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Every(opts.SendInterval), burst)
	}

	return &Client{
		url:     opts.URL,
		outbox:  transport.NewOutbox(),
		signals: make(chan transport.Signal, signalBuffer),
		limiter: limiter,
		log:     logger,
	}
}

// Signals delivers open, message, error and close signals in order.
func (c *Client) Signals() <-chan transport.Signal {
	return c.signals
}

// Send queues a line for the writer.
func (c *Client) Send(line string) {
	c.outbox.Push(line)
}

// Run dials the server and pumps frames until the connection ends or ctx is
// cancelled. Run may be called once: the signals channel is closed before it
// returns, after a close signal if the buffer had room for it.
func (c *Client) Run(ctx context.Context) error {
	conn, _, err := websocket.Dial(ctx, c.url, nil)
	if err != nil {
		err = fmt.Errorf("dial %s: %w", c.url, err)
		c.emitFinal(transport.Signal{Kind: transport.SignalError, Err: err})
		c.finish(err)
		return err
	}
	conn.SetReadLimit(readLimit)
	defer conn.Close(websocket.StatusInternalError, "internal error")

	parent := ctx
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	c.log.Info().Str("url", c.url).Msg("connected")
	if !c.emit(ctx, transport.Signal{Kind: transport.SignalOpen}) {
		c.finish(nil)
		return nil
	}
	c.outbox.Open()

	errCh := make(chan error, 2)
	go func() {
		errCh <- c.readLoop(ctx, conn)
	}()
	go func() {
		errCh <- c.writeLoop(ctx, conn)
	}()

	err = <-errCh
	cancel()
	<-errCh
	c.outbox.Close()

	status := websocket.StatusNormalClosure
	reason := "closing"
	if parent.Err() != nil || errors.Is(err, context.Canceled) || errors.Is(err, io.EOF) {
		err = nil
	}
	if s := websocket.CloseStatus(err); s == websocket.StatusNormalClosure || s == websocket.StatusGoingAway {
		err = nil
	}
	if err != nil {
		status = websocket.StatusInternalError
		reason = err.Error()
		c.log.Warn().Err(err).Msg("ws connection closed with error")
	}
	conn.Close(status, reason)

	c.finish(err)
	return err
}

func (c *Client) readLoop(ctx context.Context, conn *websocket.Conn) error {
	for {
		typ, data, err := conn.Read(ctx)
		if err != nil {
			return err
		}
		if typ != websocket.MessageText {
			c.log.Debug().Int("type", int(typ)).Msg("ignoring non-text frame")
			continue
		}
		c.log.Debug().Str("frame", preview(data)).Msg("<<")
		if !c.emit(ctx, transport.Signal{Kind: transport.SignalMessage, Data: string(data)}) {
			return ctx.Err()
		}
	}
}

func (c *Client) writeLoop(ctx context.Context, conn *websocket.Conn) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-c.outbox.Ready():
			lines := c.outbox.Drain()
			for i, line := range lines {
				if err := c.write(ctx, conn, line); err != nil {
					c.outbox.PushFront(lines[i:])
					return err
				}
			}
		}
	}
}

func (c *Client) write(ctx context.Context, conn *websocket.Conn, line string) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}
	}
	c.log.Debug().Str("line", line).Msg(">>")
	if err := conn.Write(ctx, websocket.MessageText, []byte(line)); err != nil {
		c.log.Error().Err(err).Msg("write ws line")
		return err
	}
	return nil
}

// emit blocks so frames are never dropped; it gives up only on cancellation.
func (c *Client) emit(ctx context.Context, s transport.Signal) bool {
	select {
	case c.signals <- s:
		return true
	case <-ctx.Done():
		return false
	}
}

func (c *Client) emitFinal(s transport.Signal) {
	select {
	case c.signals <- s:
	default:
		c.log.Warn().Str("signal", s.Kind.String()).Msg("signal buffer full, dropping")
	}
}

// finish emits the close signal and closes the channel so a consumer that
// missed the signal still sees the end of the stream.
func (c *Client) finish(err error) {
	c.emitFinal(transport.Signal{Kind: transport.SignalClose, Err: err})
	close(c.signals)
}

func preview(data []byte) string {
	const max = 200
	if len(data) <= max {
		return string(data)
	}
	return string(data[:max]) + "..."
}
