package main

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"coinwatch/internal/search"
)

const (
	wsWriteTimeout = 10 * time.Second
	wsPongTimeout  = 60 * time.Second
	wsPingPeriod   = wsPongTimeout * 9 / 10
	wsMaxMessage   = 4 << 10
)

// wsConn serializes writes to a websocket connection.
type wsConn struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (w *wsConn) writeJSON(v any) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	_ = w.conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
	return w.conn.WriteJSON(v)
}

func (w *wsConn) ping() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(wsWriteTimeout))
}

func (s *server) upgrade(c *gin.Context) (*wsConn, bool) {
	conn, err := s.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.log.WithError(err).Debug("websocket upgrade failed")
		return nil, false
	}
	conn.SetReadLimit(wsMaxMessage)
	_ = conn.SetReadDeadline(time.Now().Add(wsPongTimeout))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(wsPongTimeout))
	})
	return &wsConn{conn: conn}, true
}

// readLoop hands every text message to fn until the peer goes away, then
// cancels the connection context.
func readLoop(conn *websocket.Conn, cancel context.CancelFunc, fn func([]byte)) {
	defer cancel()
	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			return
		}
		_ = conn.SetReadDeadline(time.Now().Add(wsPongTimeout))
		if fn != nil {
			fn(msg)
		}
	}
}

// handleWatchListings keeps a listings page polled for as long as the client
// stays connected and pushes every refreshed entry.
func (s *server) handleWatchListings(c *gin.Context) {
	var q listingsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		badRequest(c, err.Error())
		return
	}
	ws, ok := s.upgrade(c)
	if !ok {
		return
	}
	defer ws.conn.Close()

	watch := s.svc.WatchListings(q.Currency, q.Page, q.PerPage)
	defer watch.Close()
	log := s.log.WithFields(logrus.Fields{"key": watch.Key, "subscription": watch.ID})
	log.Debug("listings stream attached")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go readLoop(ws.conn, cancel, nil)

	ping := time.NewTicker(wsPingPeriod)
	defer ping.Stop()

	push := func() bool {
		e, ok := watch.Current()
		if !ok || !e.Loaded {
			return true
		}
		if err := ws.writeJSON(entryEnvelope(e, e.Err, time.Now())); err != nil {
			log.WithError(err).Debug("listings stream write failed")
			return false
		}
		return true
	}

	if !push() {
		return
	}
	for {
		select {
		case <-ctx.Done():
			log.Debug("listings stream detached")
			return
		case _, open := <-watch.C:
			if !open || !push() {
				return
			}
		case <-ping.C:
			if err := ws.ping(); err != nil {
				return
			}
		}
	}
}

// searchMessage is a client event on the search stream.
type searchMessage struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
	Key  string `json:"key,omitempty"`
}

// handleSearchSession runs a debounced search box over the connection. Every
// state change is pushed as a snapshot.
func (s *server) handleSearchSession(c *gin.Context) {
	ws, ok := s.upgrade(c)
	if !ok {
		return
	}
	defer ws.conn.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	log := s.log.WithField("stream", "search")

	session := search.NewSession(ctx, s.svc,
		search.WithDelay(s.debounce),
		search.WithLimit(s.searchLimit),
		search.WithLogger(log),
		search.WithOnChange(func(st search.State) {
			if err := ws.writeJSON(st); err != nil {
				log.WithError(err).Debug("search stream write failed")
				cancel()
			}
		}),
	)
	defer session.Close()

	if err := ws.writeJSON(session.State()); err != nil {
		return
	}

	go readLoop(ws.conn, cancel, func(raw []byte) {
		var msg searchMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			_ = ws.writeJSON(gin.H{"error": "invalid message"})
			return
		}
		switch msg.Type {
		case "input":
			session.Input(msg.Text)
		case "key":
			session.Key(search.Key(msg.Key))
		case "focus":
			session.Focus()
		case "blur":
			session.Blur()
		default:
			_ = ws.writeJSON(gin.H{"error": "unknown message type " + msg.Type})
		}
	})

	ping := time.NewTicker(wsPingPeriod)
	defer ping.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ping.C:
			if err := ws.ping(); err != nil {
				return
			}
		}
	}
}

func newUpgrader() websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 4096,
		CheckOrigin:     func(*http.Request) bool { return true },
	}
}
