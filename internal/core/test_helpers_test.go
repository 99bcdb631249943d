package core

import (
	"sync"
	"testing"
	"time"

	"github.com/singiamtel/PS-cord/internal/settings"
	"github.com/singiamtel/PS-cord/internal/store/memory"
	"github.com/singiamtel/PS-cord/internal/transport"
)

type fakeTransport struct {
	mu      sync.Mutex
	sent    []string
	signals chan transport.Signal
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{signals: make(chan transport.Signal, 16)}
}

func (f *fakeTransport) Send(line string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, line)
}

func (f *fakeTransport) Signals() <-chan transport.Signal {
	return f.signals
}

func (f *fakeTransport) Sent() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.sent...)
}

type testEngine struct {
	*Engine
	tr       *fakeTransport
	settings *settings.Settings
	events   <-chan *Event
}

func newTestEngine(t *testing.T, setup func(*settings.Settings)) *testEngine {
	t.Helper()

	s := settings.Load(memory.New(), nil)
	if setup != nil {
		setup(s)
	}
	tr := newFakeTransport()
	e := NewEngine(Options{
		Transport:    tr,
		Settings:     s,
		RetryDelay:   20 * time.Millisecond,
		DefaultRooms: []string{"lobby", "help"},
	})
	e.now = func() time.Time { return time.Unix(1700000000, 0) }

	events, cancel := e.Events().Subscribe(256)
	t.Cleanup(cancel)
	return &testEngine{Engine: e, tr: tr, settings: s, events: events}
}

const lobbyInit = ">lobby\n|init|chat\n|title|Lobby\n|users|,+Bob,@Alice\n|:|1690000000"

func mustEvent(t *testing.T, ch <-chan *Event, kind EventKind) *Event {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		select {
		case ev := <-ch:
			if ev == nil {
				continue
			}
			if ev.Kind == kind {
				return ev
			}
		default:
			time.Sleep(10 * time.Millisecond)
		}
	}
	t.Fatalf("expected event kind %v not received", kind)
	return nil
}

func noEvent(t *testing.T, ch <-chan *Event, kind EventKind) {
	t.Helper()

	for {
		select {
		case ev := <-ch:
			if ev != nil && ev.Kind == kind {
				t.Fatalf("unexpected event %v: %+v", kind, ev)
			}
		default:
			return
		}
	}
}

func lastMessage(t *testing.T, e *Engine, room string) Message {
	t.Helper()

	msgs, ok := e.Messages(room)
	if !ok {
		t.Fatalf("room %q not found", room)
	}
	if len(msgs) == 0 {
		t.Fatalf("room %q has no messages", room)
	}
	return msgs[len(msgs)-1]
}
