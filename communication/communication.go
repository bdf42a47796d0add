// Package communication is the message contract between the interactive
// context and the search worker.
//
// Each direction has its own Mailbox. Messages from one sender arrive in the
// order they were sent; nothing orders messages across the two directions.
// No message expects a reply.
package communication

import "errors"

var ErrClosed = errors.New("mailbox closed")

// Sender delivers messages to the other context.
type Sender interface {
	Send(msg Message) error
}

// Receiver is the consuming end of a mailbox.
type Receiver interface {
	TryReceive() (Message, bool)
	Drain(handle func(Message)) int
	Wait() <-chan struct{}
}
