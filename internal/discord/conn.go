package discord

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

var (
	// ErrClosed is returned by writes after the connection has shut down.
	ErrClosed = errors.New("discord: connection closed")
	// ErrNotRunning means no IPC endpoint accepted the dial.
	ErrNotRunning = errors.New("discord: no ipc endpoint found, is the client running?")
)

const defaultWriteTimeout = 5 * time.Second

// Options configure a Conn. OnReady and OnDisconnect run on the read goroutine.
type Options struct {
	OnReady      func(User)
	OnDisconnect func(error)
	Logger       zerolog.Logger
	// Dial overrides IPC endpoint discovery.
	Dial func(ctx context.Context) (net.Conn, error)
	// PID is reported with each activity; defaults to os.Getpid().
	PID int
}

// Conn is one IPC session with the chat client.
type Conn struct {
	conn   net.Conn
	opts   Options
	logger zerolog.Logger

	writeMu   sync.Mutex
	readyOnce sync.Once
	closeOnce sync.Once
	done      chan struct{}
	cause     error
}

// Dial opens the IPC endpoint and sends the handshake. Readiness is reported
// asynchronously through Options.OnReady.
func Dial(ctx context.Context, clientID string, opts Options) (*Conn, error) {
	clientID = strings.TrimSpace(clientID)
	if clientID == "" {
		return nil, fmt.Errorf("discord: client id required")
	}
	dial := opts.Dial
	if dial == nil {
		dial = dialEndpoint
	}
	if opts.PID == 0 {
		opts.PID = os.Getpid()
	}

	nc, err := dial(ctx)
	if err != nil {
		return nil, fmt.Errorf("dial ipc: %w", err)
	}

	c := &Conn{
		conn:   nc,
		opts:   opts,
		logger: opts.Logger,
		done:   make(chan struct{}),
	}
	if err := c.write(ctx, OpHandshake, handshake{Version: 1, ClientID: clientID}); err != nil {
		_ = nc.Close()
		return nil, fmt.Errorf("handshake: %w", err)
	}

	go c.readLoop()
	return c, nil
}

// SetActivity replaces the displayed activity. A nil activity clears it.
func (c *Conn) SetActivity(ctx context.Context, activity *Activity) error {
	if activity != nil && len(activity.Buttons) > MaxButtons {
		trimmed := *activity
		trimmed.Buttons = trimmed.Buttons[:MaxButtons]
		activity = &trimmed
	}
	cmd := command{
		Cmd:   "SET_ACTIVITY",
		Args:  setActivityArgs{PID: c.opts.PID, Activity: activity},
		Nonce: uuid.NewString(),
	}
	return c.write(ctx, OpFrame, cmd)
}

// Done is closed once the connection has shut down for any reason.
func (c *Conn) Done() <-chan struct{} {
	return c.done
}

// Err reports why the connection shut down, or nil while it is open.
func (c *Conn) Err() error {
	select {
	case <-c.done:
		return c.cause
	default:
		return nil
	}
}

// Close shuts the connection down. OnDisconnect fires with ErrClosed.
func (c *Conn) Close() error {
	c.shutdown(ErrClosed)
	return nil
}

func (c *Conn) write(ctx context.Context, op Opcode, payload any) error {
	select {
	case <-c.done:
		return ErrClosed
	default:
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	deadline := time.Now().Add(defaultWriteTimeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	_ = c.conn.SetWriteDeadline(deadline)
	if err := writeFrame(c.conn, op, payload); err != nil {
		return err
	}
	return nil
}

func (c *Conn) readLoop() {
	for {
		op, body, err := readFrame(c.conn)
		if err != nil {
			c.shutdown(fmt.Errorf("read frame: %w", err))
			return
		}
		switch op {
		case OpFrame:
			c.handleEvent(body)
		case OpPing:
			c.writeMu.Lock()
			_ = c.conn.SetWriteDeadline(time.Now().Add(defaultWriteTimeout))
			err := writeRaw(c.conn, OpPong, body)
			c.writeMu.Unlock()
			if err != nil {
				c.shutdown(fmt.Errorf("pong: %w", err))
				return
			}
		case OpClose:
			var reason errorData
			_ = json.Unmarshal(body, &reason)
			c.shutdown(fmt.Errorf("closed by client: code=%d %s", reason.Code, reason.Message))
			return
		case OpPong:
		default:
			c.logger.Debug().Uint32("op", uint32(op)).Msg("ignoring unknown opcode")
		}
	}
}

func (c *Conn) handleEvent(body []byte) {
	var evt event
	if err := json.Unmarshal(body, &evt); err != nil {
		c.logger.Warn().Err(err).Msg("undecodable ipc frame")
		return
	}
	switch {
	case evt.Cmd == "DISPATCH" && evt.Evt == "READY":
		var data readyData
		_ = json.Unmarshal(evt.Data, &data)
		c.readyOnce.Do(func() {
			c.logger.Debug().Str("user", data.User.Username).Msg("ipc ready")
			if c.opts.OnReady != nil {
				c.opts.OnReady(data.User)
			}
		})
	case evt.Evt == "ERROR":
		var data errorData
		_ = json.Unmarshal(evt.Data, &data)
		c.logger.Warn().
			Str("cmd", evt.Cmd).
			Int("code", data.Code).
			Str("nonce", evt.Nonce).
			Msg(data.Message)
	}
}

func (c *Conn) shutdown(cause error) {
	c.closeOnce.Do(func() {
		c.cause = cause
		close(c.done)
		_ = c.conn.Close()
		if c.opts.OnDisconnect != nil {
			c.opts.OnDisconnect(cause)
		}
	})
}
