// Package mailbox provides the FIFO queue connecting message
// producers to the single consumer loop.
package mailbox

import (
	"errors"

	"github.com/Workiva/go-datastructures/queue"

	"ha-bridge/internal/domain"
)

// ErrEmpty is returned by Dequeue when no message is waiting.
var ErrEmpty = errors.New("mailbox is empty")

// Mailbox is an unbounded multi-producer, single-consumer FIFO.
// Enqueue is safe for concurrent producers; Dequeue must only be
// called from the one consumer goroutine. Messages come out in strict
// enqueue order, there is no priority and no capacity bound.
type Mailbox struct {
	q *queue.Queue
}

func New() *Mailbox {
	return &Mailbox{q: queue.New(16)}
}

// Enqueue appends a message. It never blocks on capacity and only
// fails once the mailbox has been disposed.
func (m *Mailbox) Enqueue(msg domain.Message) error {
	if err := m.q.Put(msg); err != nil {
		return domain.ErrMailboxClosed
	}
	return nil
}

// Dequeue removes and returns the head message without waiting.
// Returns ErrEmpty when nothing is queued. Single-consumer: a non-zero
// Len seen here cannot be drained by anyone else, so the Get below
// never blocks.
func (m *Mailbox) Dequeue() (domain.Message, error) {
	if m.q.Len() == 0 {
		if m.q.Disposed() {
			return nil, domain.ErrMailboxClosed
		}
		return nil, ErrEmpty
	}

	items, err := m.q.Get(1)
	if err != nil {
		return nil, domain.ErrMailboxClosed
	}
	msg, ok := items[0].(domain.Message)
	if !ok {
		return nil, errors.New("mailbox held a non-message item")
	}
	return msg, nil
}

// Len reports the number of queued messages.
func (m *Mailbox) Len() int64 {
	return m.q.Len()
}

// IsEmpty reports whether the mailbox currently holds no messages.
func (m *Mailbox) IsEmpty() bool {
	return m.q.Empty()
}

// Dispose closes the mailbox. Pending messages are discarded and any
// later Enqueue fails with ErrMailboxClosed.
func (m *Mailbox) Dispose() {
	m.q.Dispose()
}
