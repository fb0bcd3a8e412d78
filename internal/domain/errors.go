package domain

import "errors"

// ErrMailboxClosed is returned by mailbox operations after the mailbox
// has been disposed.
var ErrMailboxClosed = errors.New("mailbox is closed")
