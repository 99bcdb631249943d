// Package transport defines the duplex channel signals shared by the
// concrete connection adapters, and the outbound queue they flush.
package transport

import "sync"

// SignalKind is the type of a connection signal.
type SignalKind int

const (
	// SignalOpen is emitted once the connection is usable.
	SignalOpen SignalKind = iota
	// SignalMessage carries one inbound frame.
	SignalMessage
	// SignalError reports a non-terminal connection error.
	SignalError
	// SignalClose is emitted once when the connection is gone.
	SignalClose
)

func (k SignalKind) String() string {
	switch k {
	case SignalOpen:
		return "open"
	case SignalMessage:
		return "message"
	case SignalError:
		return "error"
	case SignalClose:
		return "close"
	default:
		return "unknown"
	}
}

// Signal is one event observed on the connection.
type Signal struct {
	Kind SignalKind
	Data string
	Err  error
}

// Outbox queues outbound lines until the connection is open and hands them
// to a single writer in FIFO order.
type Outbox struct {
	mu     sync.Mutex
	queue  []string
	open   bool
	notify chan struct{}
}

// NewOutbox creates a closed, empty outbox.
func NewOutbox() *Outbox {
	return &Outbox{notify: make(chan struct{}, 1)}
}

// Push enqueues a line. It never blocks.
func (o *Outbox) Push(line string) {
	o.mu.Lock()
	o.queue = append(o.queue, line)
	open := o.open
	o.mu.Unlock()

	if open {
		o.wake()
	}
}

// PushFront puts lines back at the head of the queue, keeping their order.
func (o *Outbox) PushFront(lines []string) {
	if len(lines) == 0 {
		return
	}
	o.mu.Lock()
	o.queue = append(append([]string(nil), lines...), o.queue...)
	o.mu.Unlock()
}

// Open marks the connection usable and wakes the writer if lines are queued.
func (o *Outbox) Open() {
	o.mu.Lock()
	o.open = true
	pending := len(o.queue) > 0
	o.mu.Unlock()

	if pending {
		o.wake()
	}
}

// Close marks the connection unusable. Queued lines are kept.
func (o *Outbox) Close() {
	o.mu.Lock()
	o.open = false
	o.mu.Unlock()
}

// IsOpen reports whether the connection is usable.
func (o *Outbox) IsOpen() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.open
}

// Ready fires when queued lines may be drained.
func (o *Outbox) Ready() <-chan struct{} {
	return o.notify
}

// Drain takes every queued line while open. It returns nil when closed.
func (o *Outbox) Drain() []string {
	o.mu.Lock()
	defer o.mu.Unlock()
	if !o.open || len(o.queue) == 0 {
		return nil
	}
	lines := o.queue
	o.queue = nil
	return lines
}

// Len returns the number of queued lines.
func (o *Outbox) Len() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.queue)
}

func (o *Outbox) wake() {
	select {
	case o.notify <- struct{}{}:
	default:
	}
}
