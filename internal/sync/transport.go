package sync

import (
	"context"
	"errors"
)

// ErrClosed is returned by a transport after Close.
var ErrClosed = errors.New("transport closed")

// Transport carries envelopes between one participant and its peers. Send
// must not wait for peers to process the message. Receive blocks until a
// message from another participant arrives; a participant never receives
// its own messages.
type Transport interface {
	Send(ctx context.Context, e Envelope) error
	Receive(ctx context.Context) (Envelope, error)
	Close() error
}
