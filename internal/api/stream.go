package api

import (
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/talgya/sarakt/internal/engine"
)

const (
	maxStreamConns = 16
	streamCatchUp  = 50
	streamBuffer   = 256
	pingInterval   = 15 * time.Second
	writeWait      = 5 * time.Second
)

// hub fans universe events out to websocket subscribers. publish runs under
// the engine lock, so it never blocks: slow subscribers lose events.
type hub struct {
	mu   sync.Mutex
	next int
	subs map[int]chan engine.Event

	conns atomic.Int32
}

func newHub() *hub {
	return &hub{subs: make(map[int]chan engine.Event)}
}

func (h *hub) subscribe() (int, <-chan engine.Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.next++
	ch := make(chan engine.Event, streamBuffer)
	h.subs[h.next] = ch
	return h.next, ch
}

func (h *hub) unsubscribe(id int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if ch, ok := h.subs[id]; ok {
		delete(h.subs, id)
		close(ch)
	}
}

func (h *hub) publish(e engine.Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, ch := range h.subs {
		select {
		case ch <- e:
		default:
		}
	}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 16 * 1024,
	// Origin policy is enforced by the CORS layer for browsers.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// handleStream upgrades to a websocket and pushes events as JSON messages.
// Recent events (or those after ?since=) are sent first as catch-up.
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	if n := s.hub.conns.Add(1); n > maxStreamConns {
		s.hub.conns.Add(-1)
		writeError(w, http.StatusServiceUnavailable, "too many stream connections")
		return
	}
	defer s.hub.conns.Add(-1)

	since := uint64(queryInt(r, "since", 0, 0, 1<<31-1))

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	// Subscribe before reading the backlog so nothing falls in between.
	id, ch := s.hub.subscribe()
	defer s.hub.unsubscribe(id)

	var backlog []engine.Event
	s.Engine.Exec(func(u *engine.Universe) error {
		if since > 0 {
			backlog = u.EventsSince(since)
		} else {
			backlog = u.Events(streamCatchUp)
		}
		return nil
	})

	var last uint64
	send := func(e engine.Event) error {
		if e.Seq <= last {
			return nil
		}
		last = e.Seq
		conn.SetWriteDeadline(time.Now().Add(writeWait))
		return conn.WriteJSON(e)
	}
	for _, e := range backlog {
		if err := send(e); err != nil {
			return
		}
	}

	s.log.Info("stream client connected", "sub_id", id, "backlog", len(backlog))

	// Reader: discards client messages and notices disconnects.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ping := time.NewTicker(pingInterval)
	defer ping.Stop()

	for {
		select {
		case e, ok := <-ch:
			if !ok {
				return
			}
			if err := send(e); err != nil {
				return
			}
		case <-ping.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		case <-closed:
			s.log.Info("stream client disconnected", "sub_id", id)
			return
		case <-r.Context().Done():
			return
		}
	}
}
