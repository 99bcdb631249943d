package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/singiamtel/PS-cord/internal/log"
	"github.com/singiamtel/PS-cord/internal/proto"
	"github.com/singiamtel/PS-cord/internal/transport"
	"github.com/singiamtel/PS-cord/internal/transport/ws"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "ws_smoke: %v\n", err)
		os.Exit(1)
	}
}

// run connects, optionally joins a room and prints every decoded line until
// the timeout or the server closes the connection.
func run() error {
	addr := flag.String("addr", "wss://sim3.psim.us/showdown/websocket", "WebSocket address")
	room := flag.String("room", "", "room to join once connected")
	timeout := flag.Duration("timeout", 10*time.Second, "total timeout for the run")
	level := flag.String("log-level", "warn", "log level")
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	client := ws.New(ws.Options{URL: *addr, Logger: log.New(*level)})
	if *room != "" {
		client.Send(proto.FormatGlobal("/join " + *room))
	}

	errCh := make(chan error, 1)
	go func() { errCh <- client.Run(ctx) }()

	for {
		select {
		case err := <-errCh:
			return err
		case s, ok := <-client.Signals():
			if !ok {
				return <-errCh
			}
			switch s.Kind {
			case transport.SignalOpen:
				fmt.Println("connected")
			case transport.SignalMessage:
				printFrame(s.Data)
			case transport.SignalError:
				fmt.Printf("error: %v\n", s.Err)
			case transport.SignalClose:
				fmt.Println("closed")
				return <-errCh
			}
		}
	}
}

func printFrame(raw string) {
	frame := proto.SplitFrame(raw)
	if frame.HasChallenge {
		fmt.Printf("challenge: %d bytes\n", len(frame.Challenge))
		return
	}
	for _, l := range frame.Lines {
		if l == "" {
			continue
		}
		line := proto.ParseLine(l)
		fmt.Printf("[%s] %s %q\n", frame.RoomID, line.Cmd, line.Args)
	}
}
