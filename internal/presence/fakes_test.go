package presence

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
)

// fakeSession records every payload it is asked to send.
type fakeSession struct {
	mu       sync.Mutex
	sent     []Payload
	sendErr  error
	closed   atomic.Int32
	handlers Handlers
}

func (s *fakeSession) SetActivity(_ context.Context, p Payload) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sendErr != nil {
		return s.sendErr
	}
	s.sent = append(s.sent, p)
	return nil
}

func (s *fakeSession) Close() error {
	s.closed.Add(1)
	return nil
}

func (s *fakeSession) payloads() []Payload {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Payload(nil), s.sent...)
}

// fakeDialer hands out fakeSessions. When autoReady is set the session
// signals Ready from a goroutine right after Dial returns.
type fakeDialer struct {
	mu        sync.Mutex
	dials     int
	dialErr   error
	autoReady bool
	sessions  []*fakeSession
	block     chan struct{}
}

func (d *fakeDialer) Dial(ctx context.Context, _ string, h Handlers) (Session, error) {
	if d.block != nil {
		select {
		case <-d.block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	d.mu.Lock()
	d.dials++
	if d.dialErr != nil {
		err := d.dialErr
		d.mu.Unlock()
		return nil, err
	}
	sess := &fakeSession{handlers: h}
	d.sessions = append(d.sessions, sess)
	ready := d.autoReady
	d.mu.Unlock()

	if ready {
		go h.Ready()
	}
	return sess, nil
}

func (d *fakeDialer) dialCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.dials
}

func (d *fakeDialer) last() *fakeSession {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.sessions) == 0 {
		return nil
	}
	return d.sessions[len(d.sessions)-1]
}

var errBoom = errors.New("boom")
