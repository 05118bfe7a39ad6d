package sync

import (
	"context"
	"fmt"
	"log/slog"
	gosync "sync"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

const (
	busTopic     = "starwake.game"
	metaKeyFrom  = "from"
	metaKeyKind  = "kind"
	inboxBacklog = 256
)

// WatermillBus is an in-process message bus for participants sharing one
// process: hot-seat play, tests and the relay's fan-in.
type WatermillBus struct {
	pubsub *gochannel.GoChannel
}

// NewWatermillBus creates a bus on watermill's GoChannel. Publishing blocks
// until every subscriber has acknowledged, which keeps messages in order.
func NewWatermillBus() *WatermillBus {
	return &WatermillBus{
		pubsub: gochannel.NewGoChannel(
			gochannel.Config{BlockPublishUntilSubscriberAck: true},
			watermill.NewStdLogger(false, false),
		),
	}
}

// Join subscribes a participant and returns its transport.
func (b *WatermillBus) Join(ctx context.Context, peerID string) (Transport, error) {
	ctx, cancel := context.WithCancel(ctx)
	messages, err := b.pubsub.Subscribe(ctx, busTopic)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("subscribe %s: %w", peerID, err)
	}
	t := &busTransport{
		bus:    b,
		peerID: peerID,
		inbox:  make(chan Envelope, inboxBacklog),
		done:   make(chan struct{}),
		cancel: cancel,
	}
	go t.pump(messages)
	return t, nil
}

// Close shuts the bus down and ends every subscription.
func (b *WatermillBus) Close() error {
	return b.pubsub.Close()
}

type busTransport struct {
	bus    *WatermillBus
	peerID string
	inbox  chan Envelope
	done   chan struct{}
	cancel context.CancelFunc
	once   gosync.Once
}

// pump acknowledges every message straight away so publishers never wait on
// a slow consumer, and drops the participant's own messages.
func (t *busTransport) pump(messages <-chan *message.Message) {
	defer close(t.inbox)
	for msg := range messages {
		msg.Ack()
		if msg.Metadata.Get(metaKeyFrom) == t.peerID {
			continue
		}
		env, err := Decode(msg.Payload)
		if err != nil {
			slog.Warn("dropping bus message", "msg_id", msg.UUID, "error", err)
			continue
		}
		select {
		case t.inbox <- env:
		case <-t.done:
			return
		}
	}
}

func (t *busTransport) Send(_ context.Context, e Envelope) error {
	select {
	case <-t.done:
		return ErrClosed
	default:
	}
	payload, err := Encode(e)
	if err != nil {
		return err
	}
	msg := message.NewMessage(e.ID, payload)
	msg.Metadata.Set(metaKeyFrom, t.peerID)
	msg.Metadata.Set(metaKeyKind, string(e.Kind))
	if err := t.bus.pubsub.Publish(busTopic, msg); err != nil {
		return fmt.Errorf("publish: %w", err)
	}
	return nil
}

func (t *busTransport) Receive(ctx context.Context) (Envelope, error) {
	select {
	case env, ok := <-t.inbox:
		if !ok {
			return Envelope{}, ErrClosed
		}
		return env, nil
	case <-t.done:
		return Envelope{}, ErrClosed
	case <-ctx.Done():
		return Envelope{}, ctx.Err()
	}
}

func (t *busTransport) Close() error {
	t.once.Do(func() {
		close(t.done)
		t.cancel()
	})
	return nil
}
