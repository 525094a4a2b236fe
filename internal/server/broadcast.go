package server

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

const (
	clientSendBuffer = 16
	writeTimeout     = 10 * time.Second
)

type client struct {
	conn *websocket.Conn
	b    *Broadcaster
	send chan []byte
}

func (c *client) writePump() {
	defer func() { _ = c.conn.Close() }()
	for msg := range c.send {
		_ = c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			c.b.RemoveClient(c)
			return
		}
	}
}

// Broadcaster pushes status messages to every connected /ws client. Bursts of
// changes are collapsed into one message per throttle window.
type Broadcaster struct {
	mu      sync.RWMutex
	clients map[*client]bool

	snapshot func() Message
	throttle time.Duration
	logger   zerolog.Logger

	flushMu    sync.Mutex
	flushTimer *time.Timer
	stopped    bool

	ticker   *time.Ticker
	done     chan struct{}
	stopOnce sync.Once
}

// NewBroadcaster returns a Broadcaster that calls snapshot to build each
// message. A positive snapshotInterval also pushes a full message on that
// period so idle clients stay current.
func NewBroadcaster(snapshot func() Message, throttle, snapshotInterval time.Duration, logger zerolog.Logger) *Broadcaster {
	b := &Broadcaster{
		clients:  make(map[*client]bool),
		snapshot: snapshot,
		throttle: throttle,
		logger:   logger,
		done:     make(chan struct{}),
	}
	if snapshotInterval > 0 {
		b.ticker = time.NewTicker(snapshotInterval)
		go b.snapshotLoop()
	}
	return b
}

// AddClient registers conn and sends it the current snapshot.
func (b *Broadcaster) AddClient(conn *websocket.Conn) *client {
	c := &client{
		conn: conn,
		b:    b,
		send: make(chan []byte, clientSendBuffer),
	}

	if data, err := json.Marshal(b.snapshot()); err == nil {
		c.send <- data
	}

	b.mu.Lock()
	select {
	case <-b.done:
		// Stopped: deliver the snapshot, then hang up.
		close(c.send)
	default:
		b.clients[c] = true
	}
	b.mu.Unlock()

	go c.writePump()
	return c
}

// RemoveClient unregisters c and closes its send queue.
func (b *Broadcaster) RemoveClient(c *client) {
	b.mu.Lock()
	if _, ok := b.clients[c]; ok {
		delete(b.clients, c)
		close(c.send)
	}
	b.mu.Unlock()
}

// Queue schedules a broadcast at the end of the current throttle window.
func (b *Broadcaster) Queue() {
	b.flushMu.Lock()
	defer b.flushMu.Unlock()

	if b.stopped || b.flushTimer != nil {
		return
	}
	b.flushTimer = time.AfterFunc(b.throttle, b.flush)
}

// ClientCount returns the number of connected clients.
func (b *Broadcaster) ClientCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.clients)
}

// Stop halts background work and disconnects every client.
func (b *Broadcaster) Stop() {
	b.stopOnce.Do(func() {
		b.flushMu.Lock()
		b.stopped = true
		if b.flushTimer != nil {
			b.flushTimer.Stop()
			b.flushTimer = nil
		}
		b.flushMu.Unlock()

		if b.ticker != nil {
			b.ticker.Stop()
		}
		close(b.done)

		b.mu.Lock()
		for c := range b.clients {
			delete(b.clients, c)
			close(c.send)
		}
		b.mu.Unlock()
	})
}

func (b *Broadcaster) flush() {
	b.flushMu.Lock()
	b.flushTimer = nil
	stopped := b.stopped
	b.flushMu.Unlock()

	if stopped {
		return
	}
	b.broadcast(b.snapshot())
}

func (b *Broadcaster) snapshotLoop() {
	for {
		select {
		case <-b.done:
			return
		case <-b.ticker.C:
			b.broadcast(b.snapshot())
		}
	}
}

func (b *Broadcaster) broadcast(msg Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		b.logger.Error().Err(err).Msg("broadcast marshal failed")
		return
	}

	b.mu.RLock()
	clients := make([]*client, 0, len(b.clients))
	for c := range b.clients {
		clients = append(clients, c)
	}
	b.mu.RUnlock()

	for _, c := range clients {
		b.deliver(c, data)
	}
}

func (b *Broadcaster) deliver(c *client, data []byte) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if !b.clients[c] {
		return
	}
	select {
	case c.send <- data:
	default:
		// Removal needs the write lock; hand it off.
		go func() {
			b.logger.Debug().Msg("ws client too slow, disconnecting")
			b.RemoveClient(c)
		}()
	}
}
