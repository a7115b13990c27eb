// Pairmatch Memory Game
//
// A teacher opens a room and projects its QR code; students join from their
// own devices and take turns flipping two cards at a time, looking for the
// two halves of a word pair (a term and its translation, a question and its
// answer, ...). A match scores and keeps the turn; a miss passes it on.
//
// Features:
// - One WebSocket endpoint ($prefix/ws); every frame names its room
// - First joiner of a room becomes its host (teacher)
// - Host can set a room PIN, the turn length, start, pause, resume and reshuffle
// - Turn deadlines are enforced server side by a periodic sweep
// - Full-room snapshots after every change; clients never merge deltas
// - Random 6-char room IDs via crypto/rand, with server-side collision check
// - Rooms are torn down when empty or idle past the session timeout
// - Unresponsive connections are dropped after the player timeout (ping/pong)
// - QR code per room, backed by go-qrcode

package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"html"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/Seednode/pairmatch/games/memory"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/julienschmidt/httprouter"
	"github.com/skip2/go-qrcode"
)

const (
	maxFrameSize   = 64 * 1024
	sendBufferSize = 32
	writeWait      = 10 * time.Second
)

type Client struct {
	conn   *websocket.Conn
	send   chan any
	connID string

	closeOnce sync.Once
}

// close ends the write pump. Safe to call more than once.
func (c *Client) close() {
	c.closeOnce.Do(func() { close(c.send) })
}

// gateway delivers engine output to connected clients. It is only used
// from the engine's event loop, so it needs no lock.
type gateway struct {
	cfg     *Config
	clients map[string]*Client
}

func newGateway(cfg *Config) *gateway {
	return &gateway{
		cfg:     cfg,
		clients: make(map[string]*Client),
	}
}

func (g *gateway) Broadcast(room *memory.Room, msg any) {
	for _, p := range room.Players {
		if c, ok := g.clients[p.ID]; ok {
			g.deliver(c, msg)
		}
	}
}

func (g *gateway) Send(connID string, msg any) {
	if c, ok := g.clients[connID]; ok {
		g.deliver(c, msg)
	}
}

// deliver never blocks the loop; a client that cannot keep up is dropped
// and cleaned up when its read pump notices the closed connection.
func (g *gateway) deliver(c *Client, msg any) {
	select {
	case c.send <- msg:
	default:
		logf(g.cfg, "GAMES: Dropping slow client %s", c.connID)
		g.drop(c)
	}
}

func (g *gateway) register(c *Client) {
	g.clients[c.connID] = c
}

func (g *gateway) drop(c *Client) {
	if g.clients[c.connID] != c {
		return
	}

	delete(g.clients, c.connID)
	c.close()
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

func serveWS(cfg *Config, loop *memory.Loop, gw *gateway) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logf(cfg, "ERROR: Upgrade from %s failed: %v", realIP(r), err)
			return
		}

		client := &Client{
			conn:   conn,
			send:   make(chan any, sendBufferSize),
			connID: uuid.NewString(),
		}

		if err := loop.Do(func(*memory.Engine) { gw.register(client) }); err != nil {
			_ = conn.Close()
			return
		}

		logf(cfg, "SERVE: Connection %s opened from %s", client.connID, realIP(r))

		go client.writePump(cfg.playerTimeout / 2)
		client.readPump(cfg, loop, gw)
	}
}

// release removes the client from its rooms and the gateway. Once the loop
// has stopped nobody else touches the gateway, so the send channel is
// closed directly.
func (c *Client) release(loop *memory.Loop, gw *gateway) {
	err := loop.Do(func(e *memory.Engine) {
		e.Disconnect(c.connID)
		gw.drop(c)
	})
	if err != nil {
		c.close()
	}
}

// readPump forwards frames to the loop. With a player timeout set, a peer
// that neither sends a frame nor answers a ping within it is dropped.
func (c *Client) readPump(cfg *Config, loop *memory.Loop, gw *gateway) {
	defer func() {
		c.release(loop, gw)
		_ = c.conn.Close()
		logf(cfg, "SERVE: Connection %s closed", c.connID)
	}()

	c.conn.SetReadLimit(maxFrameSize)

	alive := func() {
		if cfg.playerTimeout > 0 {
			_ = c.conn.SetReadDeadline(time.Now().Add(cfg.playerTimeout))
		}
	}
	alive()
	c.conn.SetPongHandler(func(string) error {
		alive()
		return nil
	})

	for {
		_, frame, err := c.conn.ReadMessage()
		if err != nil {
			return
		}
		alive()

		if err := loop.Do(func(e *memory.Engine) { e.Handle(c.connID, frame) }); err != nil {
			return
		}
	}
}

func (c *Client) writePump(pingEvery time.Duration) {
	defer c.conn.Close()

	var ping <-chan time.Time
	if pingEvery > 0 {
		ticker := time.NewTicker(pingEvery)
		defer ticker.Stop()
		ping = ticker.C
	}

	for {
		select {
		case msg, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := c.conn.WriteJSON(msg); err != nil {
				return
			}

		case <-ping:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func requestScheme(r *http.Request) string {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
		scheme = proto
	}

	return scheme
}

// QR handler: generates a PNG QR code pointing at the room page.
func qrHandler(cfg *Config, path string) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		roomID := memory.SanitizeRoomID(ps.ByName("roomid"))
		if roomID == "" {
			http.Error(w, "missing room id", http.StatusBadRequest)
			return
		}

		url := requestScheme(r) + "://" + r.Host + cfg.prefix + path + "/" + roomID

		const qrSize = 320 // readable from the back of a classroom
		png, err := qrcode.Encode(url, qrcode.Medium, qrSize)
		if err != nil {
			http.Error(w, "qr generation failed", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "image/png")
		securityHeaders(cfg, w)

		written, err := w.Write(png)
		if err != nil {
			logf(cfg, "ERROR: QR code for %s to %s: %v", roomID, realIP(r), err)
			return
		}

		logf(cfg, "SERVE: QR code for %s (%s) to %s", roomID, humanReadableSize(int64(written)), realIP(r))
	}
}

// serveRoomPage tells a visitor how to reach the room's socket.
func serveRoomPage(cfg *Config, path string) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		roomID := memory.SanitizeRoomID(ps.ByName("roomid"))
		if roomID == "" {
			http.Error(w, "missing room id", http.StatusBadRequest)
			return
		}

		wsScheme := "ws"
		if requestScheme(r) == "https" {
			wsScheme = "wss"
		}

		body := fmt.Sprintf(`<h1>Room %s</h1><p>Connect to <code>%s://%s%s/ws</code> and send <code>room:join</code>.</p><img src="%s%s/%s/qr" alt="QR code for room %s" width="320" height="320">`,
			roomID, wsScheme, html.EscapeString(r.Host), cfg.prefix, cfg.prefix, path, roomID, roomID)

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		securityHeaders(cfg, w)
		_, _ = w.Write([]byte(newPage("Room "+roomID, body)))
	}
}

// serveState returns the room:update payload of a room as JSON.
func serveState(cfg *Config, loop *memory.Loop) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		var (
			state    memory.RoomUpdate
			stateErr error
		)

		err := loop.Call(r.Context(), func(e *memory.Engine) {
			state, stateErr = e.State(ps.ByName("roomid"))
		})

		switch {
		case err != nil:
			http.Error(w, "game engine unavailable", http.StatusServiceUnavailable)
			return
		case errors.Is(stateErr, memory.ErrRoomNotFound):
			http.Error(w, "room not found", http.StatusNotFound)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Cache-Control", "no-store")
		securityHeaders(cfg, w)

		if err := json.NewEncoder(w).Encode(state); err != nil {
			logf(cfg, "ERROR: Encoding state for %s: %v", state.RoomID, err)
		}
	}
}

// redirectNewRoom handles GET $path by minting a new room id and
// redirecting to $path/:roomid.
func redirectNewRoom(cfg *Config, path string, rooms *memory.Registry) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		roomID := rooms.NewRoomID()
		logf(cfg, "GAMES: Minted room %s%s/%s", cfg.prefix, path, roomID)
		http.Redirect(w, r, cfg.prefix+path+"/"+roomID, http.StatusTemporaryRedirect)
	}
}

// registerMemoryGame sets up routes so that:
//   - $prefix/ws                → WebSocket for every room
//   - $path                     → redirects to a new random room
//   - $path/:roomid             → room page
//   - $path/:roomid/qr          → PNG QR code for the room page
//   - $path/:roomid/state       → current room snapshot as JSON
func registerMemoryGame(cfg *Config, path string, mux *httprouter.Router, loop *memory.Loop, engine *memory.Engine, gw *gateway) {
	path = "/" + strings.Trim(path, "/")

	mux.GET(cfg.prefix+"/ws", serveWS(cfg, loop, gw))

	mux.GET(cfg.prefix+path, redirectNewRoom(cfg, path, engine.Rooms()))
	mux.GET(cfg.prefix+path+"/:roomid", serveRoomPage(cfg, path))
	mux.GET(cfg.prefix+path+"/:roomid/qr", qrHandler(cfg, path))
	mux.GET(cfg.prefix+path+"/:roomid/state", serveState(cfg, loop))
}
