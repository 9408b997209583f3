package ipc

import (
	"errors"
	"fmt"
	"sync"
	"time"
)

// ErrUnknownWindow is returned when a message targets a window that is not registered.
var ErrUnknownWindow = errors.New("unknown window")

// ErrUnsupportedVersion is returned for messages stamped with a foreign schema version.
var ErrUnsupportedVersion = errors.New("unsupported message version")

// Listener receives messages delivered to one window.
type Listener func(Message)

// Sender is the send side of the channel handed to window controllers.
type Sender interface {
	Send(msg Message) (Message, error)
}

// Bus routes messages between registered windows. Each window owns a bounded
// mailbox for polling readers and an optional listener for push delivery.
//
// Listeners run outside the bus lock after the message is stored, so a sender
// must not hold a lock its recipient's listener needs. Each window sees one
// listener call at a time, in sequence order. A sender that finds the window
// already delivering queues its message for the goroutine that is; otherwise
// the listener runs on the sender's goroutine before Send returns.
type Bus struct {
	mu          sync.Mutex
	nextSeq     int64
	maxMessages int
	boxes       map[WindowID]*mailbox
	listeners   map[WindowID]Listener
	queued      map[WindowID][]Message
	delivering  map[WindowID]bool
}

// NewBus creates a bus whose mailboxes keep at most maxMessages each.
func NewBus(maxMessages int) *Bus {
	return &Bus{
		maxMessages: maxMessages,
		boxes:       make(map[WindowID]*mailbox),
		listeners:   make(map[WindowID]Listener),
		queued:      make(map[WindowID][]Message),
		delivering:  make(map[WindowID]bool),
	}
}

// Register creates the window's mailbox and replaces its listener. A nil
// listener leaves the window poll-only.
func (b *Bus) Register(id WindowID, listener Listener) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.boxes[id]; !ok {
		b.boxes[id] = newMailbox(b.maxMessages)
	}
	if listener == nil {
		delete(b.listeners, id)
		return
	}
	b.listeners[id] = listener
}

// Unregister drops the window's mailbox; later sends to it fail.
func (b *Bus) Unregister(id WindowID) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.boxes, id)
	delete(b.listeners, id)
	delete(b.queued, id)
}

// Registered reports whether id currently has a mailbox.
func (b *Bus) Registered(id WindowID) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, ok := b.boxes[id]
	return ok
}

// Send stamps sequence, timestamp, and version, stores the message in the
// recipient's mailbox, and hands it to its listener. Delivery is at most once.
func (b *Bus) Send(msg Message) (Message, error) {
	if msg.Version == 0 {
		msg.Version = Version
	}
	if msg.Version != Version {
		return msg, fmt.Errorf("%w: %d", ErrUnsupportedVersion, msg.Version)
	}

	b.mu.Lock()
	box, ok := b.boxes[msg.To]
	if !ok {
		b.mu.Unlock()
		return msg, fmt.Errorf("%w: %s (%s)", ErrUnknownWindow, msg.To, msg.Kind)
	}
	b.nextSeq++
	msg.Seq = b.nextSeq
	if msg.Timestamp.IsZero() {
		msg.Timestamp = time.Now().UTC()
	}
	box.append(msg)
	if _, ok := b.listeners[msg.To]; !ok {
		b.mu.Unlock()
		return msg, nil
	}
	b.queued[msg.To] = append(b.queued[msg.To], msg)
	if b.delivering[msg.To] {
		b.mu.Unlock()
		return msg, nil
	}
	b.delivering[msg.To] = true
	b.mu.Unlock()

	b.drain(msg.To)
	return msg, nil
}

// drain hands queued messages to id's listener until the queue is empty. Only
// the goroutine that set delivering[id] runs it.
func (b *Bus) drain(id WindowID) {
	for {
		b.mu.Lock()
		queue := b.queued[id]
		listener, ok := b.listeners[id]
		if len(queue) == 0 || !ok {
			delete(b.queued, id)
			delete(b.delivering, id)
			b.mu.Unlock()
			return
		}
		next := queue[0]
		b.queued[id] = queue[1:]
		b.mu.Unlock()

		listener(next)
	}
}

// Since returns the window's messages with sequence strictly greater than seq.
func (b *Bus) Since(id WindowID, seq int64) []Message {
	b.mu.Lock()
	box, ok := b.boxes[id]
	b.mu.Unlock()
	if !ok {
		return nil
	}
	return box.since(seq)
}
