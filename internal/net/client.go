package net

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/url"

	"github.com/coder/websocket"

	starsync "github.com/peterkuimelis/starwake/internal/sync"
)

// maxFrameSize bounds one websocket frame; full snapshots are the largest.
const maxFrameSize = 4 << 20

// Client is a participant's connection to the relay. It implements
// sync.Transport.
type Client struct {
	conn   *websocket.Conn
	peerID string
	log    *slog.Logger
}

// Dial connects to the relay at rawURL and joins the room for gameID.
func Dial(ctx context.Context, rawURL, gameID, peerID string) (*Client, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("relay url: %w", err)
	}
	q := u.Query()
	q.Set("game", gameID)
	q.Set("peer", peerID)
	u.RawQuery = q.Encode()

	conn, _, err := websocket.Dial(ctx, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("connect %s: %w", u.Host, err)
	}
	conn.SetReadLimit(maxFrameSize)
	return &Client{
		conn:   conn,
		peerID: peerID,
		log:    slog.Default().With("peer", peerID, "game", gameID),
	}, nil
}

func (c *Client) Send(ctx context.Context, e starsync.Envelope) error {
	data, err := starsync.Encode(e)
	if err != nil {
		return err
	}
	if err := c.conn.Write(ctx, websocket.MessageText, data); err != nil {
		if closed(err) {
			return starsync.ErrClosed
		}
		return fmt.Errorf("write: %w", err)
	}
	return nil
}

// Receive returns the next valid envelope. Malformed frames are logged and
// skipped.
func (c *Client) Receive(ctx context.Context) (starsync.Envelope, error) {
	for {
		_, data, err := c.conn.Read(ctx)
		if err != nil {
			if closed(err) {
				return starsync.Envelope{}, starsync.ErrClosed
			}
			return starsync.Envelope{}, fmt.Errorf("read: %w", err)
		}
		env, err := starsync.Decode(data)
		if err != nil {
			c.log.Warn("dropping relay frame", "error", err)
			continue
		}
		if env.From == c.peerID {
			continue
		}
		return env, nil
	}
}

func (c *Client) Close() error {
	err := c.conn.Close(websocket.StatusNormalClosure, "")
	if err != nil && !closed(err) {
		return err
	}
	return nil
}

func closed(err error) bool {
	if errors.Is(err, net.ErrClosed) {
		return true
	}
	switch websocket.CloseStatus(err) {
	case websocket.StatusNormalClosure, websocket.StatusGoingAway:
		return true
	}
	return false
}
