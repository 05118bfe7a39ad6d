package net

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/peterkuimelis/starwake/internal/store"
	starsync "github.com/peterkuimelis/starwake/internal/sync"
)

const (
	writeWait   = 10 * time.Second
	pongWait    = 60 * time.Second
	pingPeriod  = pongWait * 9 / 10
	sendBacklog = 256
)

// Checkpoints persists the latest full snapshot per game.
type Checkpoints interface {
	Save(ctx context.Context, cp store.Checkpoint) error
	Latest(ctx context.Context, gameID string) (store.Checkpoint, error)
}

// Hub relays frames between the participants of each game room. It never
// interprets game state; it only keeps the latest snapshot frame so a
// participant joining late starts from the host's checkpoint.
type Hub struct {
	rooms      map[string]map[*peer]bool
	broadcast  chan frame
	register   chan *peer
	unregister chan *peer
	sizes      chan sizeQuery
	done       chan struct{}

	checkpoints Checkpoints
	log         *slog.Logger
}

type sizeQuery struct {
	game  string
	reply chan int
}

type frame struct {
	from *peer
	data []byte
}

// peer is one websocket connection in a room.
type peer struct {
	hub  *Hub
	conn *websocket.Conn
	game string
	id   string
	send chan []byte
}

// NewHub creates a hub. checkpoints may be nil.
func NewHub(checkpoints Checkpoints, logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		rooms:       make(map[string]map[*peer]bool),
		broadcast:   make(chan frame),
		register:    make(chan *peer),
		unregister:  make(chan *peer),
		sizes:       make(chan sizeQuery),
		done:        make(chan struct{}),
		checkpoints: checkpoints,
		log:         logger,
	}
}

// Run is the hub's event loop. It returns when ctx ends, closing every
// connection's send queue.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			for _, room := range h.rooms {
				for p := range room {
					close(p.send)
				}
			}
			h.rooms = nil
			return

		case p := <-h.register:
			room := h.rooms[p.game]
			if room == nil {
				room = make(map[*peer]bool)
				h.rooms[p.game] = room
			}
			h.replay(ctx, p)
			room[p] = true
			h.log.Info("peer joined", "game", p.game, "peer", p.id, "room_size", len(room))

		case p := <-h.unregister:
			h.remove(p)

		case q := <-h.sizes:
			q.reply <- len(h.rooms[q.game])

		case f := <-h.broadcast:
			for p := range h.rooms[f.from.game] {
				if p == f.from {
					continue
				}
				select {
				case p.send <- f.data:
				default:
					// A full queue means the reader stalled; drop it.
					h.log.Warn("dropping slow peer", "game", p.game, "peer", p.id)
					h.remove(p)
				}
			}
		}
	}
}

// Peers returns the number of connections in a game's room, or 0 once the
// hub has stopped.
func (h *Hub) Peers(gameID string) int {
	q := sizeQuery{game: gameID, reply: make(chan int, 1)}
	select {
	case h.sizes <- q:
		return <-q.reply
	case <-h.done:
		return 0
	}
}

// replay queues the game's latest checkpoint ahead of anything broadcast
// after p joins.
func (h *Hub) replay(ctx context.Context, p *peer) {
	if h.checkpoints == nil {
		return
	}
	cp, err := h.checkpoints.Latest(ctx, p.game)
	switch {
	case err == nil:
		p.send <- cp.Payload
		h.log.Debug("replaying checkpoint", "game", p.game, "peer", p.id, "turn", cp.Turn)
	case !errors.Is(err, store.ErrNotFound):
		h.log.Warn("load checkpoint", "game", p.game, "error", err)
	}
}

func (h *Hub) remove(p *peer) {
	room, ok := h.rooms[p.game]
	if !ok || !room[p] {
		return
	}
	delete(room, p)
	close(p.send)
	if len(room) == 0 {
		delete(h.rooms, p.game)
	}
	h.log.Info("peer left", "game", p.game, "peer", p.id)
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// ServeWS upgrades a request to a websocket and joins the room named by the
// game query parameter.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	gameID := r.URL.Query().Get("game")
	peerID := r.URL.Query().Get("peer")
	if gameID == "" || peerID == "" {
		http.Error(w, "game and peer are required", http.StatusBadRequest)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("websocket upgrade", "error", err)
		return
	}
	p := &peer{hub: h, conn: conn, game: gameID, id: peerID, send: make(chan []byte, sendBacklog)}

	select {
	case h.register <- p:
	case <-h.done:
		_ = conn.Close()
		return
	}
	go p.writePump()
	go p.readPump()
}

// Handler returns the relay's HTTP routes.
func (h *Hub) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /ws", h.ServeWS)
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	return mux
}

// readPump forwards frames from the connection to the hub, saving every
// full snapshot on the way.
func (p *peer) readPump() {
	defer func() {
		select {
		case p.hub.unregister <- p:
		case <-p.hub.done:
		}
		_ = p.conn.Close()
	}()
	p.conn.SetReadLimit(maxFrameSize)
	_ = p.conn.SetReadDeadline(time.Now().Add(pongWait))
	p.conn.SetPongHandler(func(string) error {
		return p.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := p.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				p.hub.log.Warn("websocket read", "game", p.game, "peer", p.id, "error", err)
			}
			return
		}
		env, err := starsync.Decode(data)
		if err != nil {
			p.hub.log.Warn("dropping frame", "game", p.game, "peer", p.id, "error", err)
			continue
		}
		if env.Kind == starsync.KindSnapshot {
			p.hub.checkpoint(p, env, data)
		}
		select {
		case p.hub.broadcast <- frame{from: p, data: data}:
		case <-p.hub.done:
			return
		}
	}
}

func (h *Hub) checkpoint(p *peer, env starsync.Envelope, data []byte) {
	if h.checkpoints == nil {
		return
	}
	cp := store.Checkpoint{
		GameID:  p.game,
		Hash:    env.Hash,
		Payload: data,
		SavedBy: env.From,
		Turn:    env.State.Turn,
	}
	ctx, cancel := context.WithTimeout(context.Background(), writeWait)
	defer cancel()
	if err := h.checkpoints.Save(ctx, cp); err != nil {
		h.log.Warn("save checkpoint", "game", p.game, "error", err)
	}
}

// writePump drains the send queue to the connection and keeps it alive
// with pings.
func (p *peer) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = p.conn.Close()
	}()
	for {
		select {
		case data, ok := <-p.send:
			_ = p.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = p.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := p.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-ticker.C:
			_ = p.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := p.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// Serve runs the relay on addr until ctx ends.
func Serve(ctx context.Context, addr string, hub *Hub) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}
	defer ln.Close()

	go hub.Run(ctx)
	srv := &http.Server{Handler: hub.Handler(), ReadHeaderTimeout: writeWait}
	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(ln) }()
	hub.log.Info("relay listening", "addr", ln.Addr().String())

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve: %w", err)
	case <-ctx.Done():
		shutdown, cancel := context.WithTimeout(context.Background(), writeWait)
		defer cancel()
		return srv.Shutdown(shutdown)
	}
}
