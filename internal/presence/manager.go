package presence

import (
	"context"
	"errors"
	"slices"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/rs/zerolog"
)

// Handlers receive the service's asynchronous lifecycle signals.
type Handlers struct {
	Ready        func()
	Disconnected func(error)
}

// Session is one live connection to the presence service.
type Session interface {
	SetActivity(ctx context.Context, p Payload) error
	Close() error
}

// Dialer opens sessions. Dial returns once the handshake is sent; readiness
// arrives later through Handlers.Ready.
type Dialer interface {
	Dial(ctx context.Context, clientID string, h Handlers) (Session, error)
}

// ManagerOptions tune connection handling.
type ManagerOptions struct {
	ClientID     string
	Timeout      time.Duration
	ReconnectMin time.Duration
	ReconnectMax time.Duration
	Logger       zerolog.Logger
}

const (
	defaultConnectTimeout = 10 * time.Second
	defaultReconnectMin   = 5 * time.Second
	defaultReconnectMax   = 2 * time.Minute
)

var errLostBeforeReady = errors.New("connection lost during handshake")

// Manager owns the single connection to the presence service.
type Manager struct {
	dialer Dialer
	opts   ManagerOptions
	logger zerolog.Logger

	mu        sync.Mutex
	state     ConnectionState
	session   Session
	gen       uint64
	lost      chan struct{}
	cancel    context.CancelFunc
	observers []func(ConnectionState)
}

// NewManager returns a Manager in the Disconnected state.
func NewManager(dialer Dialer, opts ManagerOptions) *Manager {
	if opts.Timeout <= 0 {
		opts.Timeout = defaultConnectTimeout
	}
	if opts.ReconnectMin <= 0 {
		opts.ReconnectMin = defaultReconnectMin
	}
	if opts.ReconnectMax < opts.ReconnectMin {
		opts.ReconnectMax = max(defaultReconnectMax, opts.ReconnectMin)
	}
	return &Manager{
		dialer: dialer,
		opts:   opts,
		logger: opts.Logger,
	}
}

// State returns the current connection state.
func (m *Manager) State() ConnectionState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// OnStateChange registers fn to be called after every transition.
func (m *Manager) OnStateChange(fn func(ConnectionState)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.observers = append(m.observers, fn)
}

// Connect performs one connection attempt. It is a no-op while another
// attempt is in flight or the connection is already Ready.
func (m *Manager) Connect(ctx context.Context) error {
	m.mu.Lock()
	if m.state != Disconnected {
		m.mu.Unlock()
		return nil
	}
	m.gen++
	gen := m.gen
	m.state = Connecting
	attemptCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	m.cancel = cancel
	m.mu.Unlock()
	m.notify(Connecting)
	m.logger.Info().Msg("connecting to presence service")

	ready := make(chan struct{})
	failed := make(chan error, 1)
	var readyOnce sync.Once
	handlers := Handlers{
		Ready: func() { readyOnce.Do(func() { close(ready) }) },
		Disconnected: func(err error) {
			m.handleDisconnect(gen, err)
			select {
			case failed <- err:
			default:
			}
		},
	}

	sess, err := m.dialer.Dial(attemptCtx, m.opts.ClientID, handlers)
	if err != nil {
		m.abandon(gen)
		lerr := &LoginError{Err: err}
		m.logger.Warn().Err(lerr).Msg("presence login failed")
		return lerr
	}

	timer := time.NewTimer(m.opts.Timeout)
	defer timer.Stop()

	select {
	case <-ready:
	case err := <-failed:
		m.abandon(gen)
		_ = sess.Close()
		lerr := &LoginError{Err: err}
		m.logger.Warn().Err(lerr).Msg("presence handshake failed")
		return lerr
	case <-timer.C:
		m.abandon(gen)
		_ = sess.Close()
		m.logger.Warn().Dur("timeout", m.opts.Timeout).Msg("presence service never became ready")
		return ErrConnectionTimeout
	case <-attemptCtx.Done():
		m.abandon(gen)
		_ = sess.Close()
		return attemptCtx.Err()
	}

	m.mu.Lock()
	if err := attemptCtx.Err(); err != nil && m.gen == gen {
		m.state = Disconnected
		m.mu.Unlock()
		m.notify(Disconnected)
		_ = sess.Close()
		return err
	}
	if m.gen != gen || m.state != Connecting {
		m.mu.Unlock()
		_ = sess.Close()
		return &LoginError{Err: errLostBeforeReady}
	}
	m.session = sess
	m.lost = make(chan struct{})
	m.state = Ready
	m.mu.Unlock()
	m.notify(Ready)
	m.logger.Info().Msg("presence service ready")

	m.Send(ctx, IdlePayload())
	return nil
}

// Send transmits p when Ready. Otherwise, and on transport failure, it only
// logs: presence is best effort and never blocks playback.
func (m *Manager) Send(ctx context.Context, p Payload) {
	m.mu.Lock()
	sess, state := m.session, m.state
	m.mu.Unlock()

	if state != Ready || sess == nil {
		m.logger.Debug().Str("state", state.String()).Str("details", p.Details).Msg("not ready, skipping presence update")
		return
	}
	if err := sess.SetActivity(ctx, p); err != nil {
		m.logger.Warn().Err(&TransportError{Err: err}).Str("details", p.Details).Msg("presence update dropped")
		return
	}
	m.logger.Debug().
		Str("details", p.Details).
		Str("state", p.State).
		Bool("timestamps", p.HasTimestamps()).
		Msg("presence updated")
}

// Close drops the live connection, if any, and returns to Disconnected.
// An attempt still in flight is cancelled and reports Disconnected itself
// once it unwinds, so no second handshake can start alongside it.
func (m *Manager) Close() error {
	m.mu.Lock()
	if m.state == Connecting {
		if m.cancel != nil {
			m.cancel()
		}
		m.mu.Unlock()
		return nil
	}
	sess := m.session
	prev := m.state
	m.gen++
	m.state = Disconnected
	m.session = nil
	if m.lost != nil {
		close(m.lost)
		m.lost = nil
	}
	m.mu.Unlock()

	if prev != Disconnected {
		m.notify(Disconnected)
	}
	if sess != nil {
		return sess.Close()
	}
	return nil
}

// Run keeps the connection alive until ctx is cancelled, retrying failed
// attempts with exponential backoff.
func (m *Manager) Run(ctx context.Context) {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = m.opts.ReconnectMin
	bo.MaxInterval = m.opts.ReconnectMax
	bo.Reset()

	defer func() { _ = m.Close() }()
	for {
		if err := m.Connect(ctx); err != nil {
			if ctx.Err() != nil {
				return
			}
			wait := bo.NextBackOff()
			m.logger.Debug().Err(err).Dur("retry_in", wait).Msg("presence reconnect scheduled")
			if !sleepCtx(ctx, wait) {
				return
			}
			continue
		}

		lost := m.lostSignal()
		if lost == nil {
			// Another caller's attempt is still in flight.
			if !sleepCtx(ctx, m.opts.ReconnectMin) {
				return
			}
			continue
		}
		bo.Reset()
		select {
		case <-ctx.Done():
			return
		case <-lost:
		}
	}
}

func (m *Manager) lostSignal() <-chan struct{} {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != Ready || m.lost == nil {
		return nil
	}
	return m.lost
}

// abandon returns a failed attempt to Disconnected unless it was superseded.
func (m *Manager) abandon(gen uint64) {
	m.mu.Lock()
	if m.gen != gen || m.state == Disconnected {
		m.mu.Unlock()
		return
	}
	m.state = Disconnected
	m.session = nil
	m.mu.Unlock()
	m.notify(Disconnected)
}

func (m *Manager) handleDisconnect(gen uint64, cause error) {
	m.mu.Lock()
	if m.gen != gen || m.state == Disconnected {
		m.mu.Unlock()
		return
	}
	m.state = Disconnected
	m.session = nil
	if m.lost != nil {
		close(m.lost)
		m.lost = nil
	}
	m.mu.Unlock()

	m.logger.Warn().Err(cause).Msg("presence service disconnected")
	m.notify(Disconnected)
}

func (m *Manager) notify(state ConnectionState) {
	m.mu.Lock()
	observers := slices.Clone(m.observers)
	m.mu.Unlock()
	for _, fn := range observers {
		fn(state)
	}
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
