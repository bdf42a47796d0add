package communication

import "sync"

// Mailbox is an unbounded FIFO of messages from one context to the other.
// Send never blocks, so a busy receiver cannot stall the sender.
//
// The receiver polls with TryReceive or Drain and can wait for new messages
// with Wait in a select.
type Mailbox struct {
	mu       sync.Mutex
	messages []Message
	closed   bool
	signal   chan struct{} // Signals message availability (buffered, size 1)
}

func NewMailbox() *Mailbox {
	return &Mailbox{
		messages: make([]Message, 0, 16),
		signal:   make(chan struct{}, 1),
	}
}

// Send appends msg to the back of the mailbox.
func (m *Mailbox) Send(msg Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrClosed
	}
	m.messages = append(m.messages, msg)

	// Non-blocking: a buffer of 1 coalesces signals
	select {
	case m.signal <- struct{}{}:
	default:
	}
	return nil
}

// TryReceive removes and returns the front message without blocking.
func (m *Mailbox) TryReceive() (Message, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.messages) == 0 {
		return Message{}, false
	}
	msg := m.messages[0]
	if len(m.messages) == 1 {
		m.messages = m.messages[:0]
	} else {
		m.messages = m.messages[1:]
	}
	return msg, true
}

// Drain hands every message queued at the time of the call to handle, in
// order, and returns how many there were. Messages sent while draining wait
// for the next call.
func (m *Mailbox) Drain(handle func(Message)) int {
	m.mu.Lock()
	batch := m.messages
	m.messages = make([]Message, 0, cap(batch))
	m.mu.Unlock()

	for _, msg := range batch {
		handle(msg)
	}
	return len(batch)
}

// Wait returns a channel that signals when messages may be available. The
// channel is closed by Close.
func (m *Mailbox) Wait() <-chan struct{} {
	return m.signal
}

func (m *Mailbox) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.messages)
}

// Close stops further sends and wakes any waiter. Queued messages can still
// be received.
func (m *Mailbox) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return
	}
	m.closed = true
	close(m.signal)
}
