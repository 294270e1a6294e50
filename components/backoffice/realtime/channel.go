package realtime

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	backoffice "github.com/goliatone/go-backoffice/components/backoffice"
)

// CloseAuthRequired is the application close code the push server uses to
// reject unauthenticated connections. It must never trigger a reconnect.
const CloseAuthRequired = 4001

// closeCodeUnknown marks closures where no close frame was received (network
// drop, dial failure). Treated as abnormal.
const closeCodeUnknown = -1

// Conn is the subset of *websocket.Conn a channel drives.
type Conn interface {
	ReadMessage() (messageType int, p []byte, err error)
	WriteJSON(v any) error
	WriteMessage(messageType int, data []byte) error
	Close() error
}

// Dialer opens websocket connections; swap it in tests.
type Dialer interface {
	DialContext(ctx context.Context, url string) (Conn, error)
}

type gorillaDialer struct {
	dialer *websocket.Dialer
	header http.Header
}

func (g gorillaDialer) DialContext(ctx context.Context, url string) (Conn, error) {
	conn, resp, err := g.dialer.DialContext(ctx, url, g.header)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	if err != nil {
		return nil, err
	}
	return conn, nil
}

// DefaultDialer wraps gorilla's default dialer with optional headers.
func DefaultDialer(header http.Header) Dialer {
	return gorillaDialer{dialer: websocket.DefaultDialer, header: header}
}

// Options configures a Channel. URL and Handler are required.
type Options struct {
	URL     string
	Dialer  Dialer
	Handler func(ctx context.Context, raw []byte)
	// OnOpen fires after a successful dial, before the read loop starts.
	OnOpen func()
	// OnClose fires with the close code once the read loop exits. Dial
	// failures and network drops report closeCodeUnknown semantics via a
	// negative code.
	OnClose func(code int)
	// ReconnectOn decides, per close code, whether the retry policy applies.
	// Nil reconnects on anything but a normal closure.
	ReconnectOn func(code int) bool
	Retry       RetryPolicy
	// KeepAlive sends the application ping frame at this interval while the
	// socket is open. Zero disables it.
	KeepAlive time.Duration
	Clock     backoffice.Clock
	Telemetry backoffice.Telemetry
}

// Channel owns one logical websocket connection: explicit connect/close/send
// operations, an internal state field, and serialized reconnects — a new
// attempt is only ever scheduled from the close path, so at most one retry
// timer is outstanding.
type Channel struct {
	opts Options

	mu         sync.Mutex
	conn       Conn
	state      backoffice.ConnectionState
	attempts   int
	closing    bool
	retryTimer backoffice.Timer
	kaTimer    backoffice.Timer
	ctx        context.Context
}

// NewChannel validates options and builds a disconnected channel.
func NewChannel(opts Options) (*Channel, error) {
	if opts.URL == "" {
		return nil, errors.New("realtime: channel url is required")
	}
	if opts.Handler == nil {
		return nil, errors.New("realtime: message handler is required")
	}
	if opts.Dialer == nil {
		opts.Dialer = DefaultDialer(nil)
	}
	opts.Clock = normalizeClock(opts.Clock)
	opts.Telemetry = normalizeTelemetry(opts.Telemetry)
	return &Channel{opts: opts, state: backoffice.StateDisconnected}, nil
}

// Connect dials the endpoint and starts the read loop. A dial failure leaves
// the channel in the error state and is returned to the caller; whether it
// also schedules a retry follows the same policy as a closure.
func (c *Channel) Connect(ctx context.Context) error {
	c.mu.Lock()
	if c.conn != nil {
		c.mu.Unlock()
		return nil
	}
	c.closing = false
	c.state = backoffice.StateConnecting
	c.ctx = ctx
	c.mu.Unlock()

	conn, err := c.opts.Dialer.DialContext(ctx, c.opts.URL)
	if err != nil {
		c.mu.Lock()
		c.state = backoffice.StateError
		c.mu.Unlock()
		c.opts.Telemetry.Record(ctx, "realtime.channel.dial_error", map[string]any{
			"url":   c.opts.URL,
			"error": err.Error(),
		})
		c.maybeScheduleReconnect(closeCodeUnknown)
		return err
	}

	c.mu.Lock()
	c.conn = conn
	c.state = backoffice.StateConnected
	c.attempts = 0
	c.mu.Unlock()

	if c.opts.OnOpen != nil {
		c.opts.OnOpen()
	}
	c.scheduleKeepAlive()
	go c.readLoop(ctx, conn)
	return nil
}

// Send writes a JSON frame; it fails when the channel is not connected.
func (c *Channel) Send(v any) error {
	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()
	if conn == nil {
		return errors.New("realtime: channel is not connected")
	}
	return conn.WriteJSON(v)
}

// Close performs an application-initiated normal closure; no reconnect is
// scheduled.
func (c *Channel) Close() error {
	c.mu.Lock()
	c.closing = true
	if c.retryTimer != nil {
		c.retryTimer.Stop()
		c.retryTimer = nil
	}
	if c.kaTimer != nil {
		c.kaTimer.Stop()
		c.kaTimer = nil
	}
	conn := c.conn
	c.mu.Unlock()
	if conn == nil {
		return nil
	}
	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	_ = conn.WriteMessage(websocket.CloseMessage, msg)
	return conn.Close()
}

// State returns the channel connectivity.
func (c *Channel) State() backoffice.ConnectionState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Channel) readLoop(ctx context.Context, conn Conn) {
	code := closeCodeUnknown
	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			var closeErr *websocket.CloseError
			if errors.As(err, &closeErr) {
				code = closeErr.Code
			}
			break
		}
		// strictly in delivery order; no buffering or coalescing
		c.opts.Handler(ctx, raw)
	}
	c.onClosed(ctx, conn, code)
}

func (c *Channel) onClosed(ctx context.Context, conn Conn, code int) {
	_ = conn.Close()
	c.mu.Lock()
	if c.conn != conn {
		c.mu.Unlock()
		return
	}
	c.conn = nil
	c.state = backoffice.StateDisconnected
	closing := c.closing
	if c.kaTimer != nil {
		c.kaTimer.Stop()
		c.kaTimer = nil
	}
	c.mu.Unlock()

	c.opts.Telemetry.Record(ctx, "realtime.channel.closed", map[string]any{
		"url":  c.opts.URL,
		"code": code,
	})
	if c.opts.OnClose != nil {
		c.opts.OnClose(code)
	}
	if closing {
		return
	}
	c.maybeScheduleReconnect(code)
}

func (c *Channel) maybeScheduleReconnect(code int) {
	reconnect := c.opts.ReconnectOn
	if reconnect == nil {
		reconnect = func(code int) bool { return code != websocket.CloseNormalClosure }
	}
	if !reconnect(code) {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closing || c.retryTimer != nil {
		return
	}
	delay, ok := c.opts.Retry.NextDelay(c.attempts)
	if !ok {
		return
	}
	c.attempts++
	ctx := c.ctx
	c.retryTimer = c.opts.Clock.AfterFunc(delay, func() {
		c.mu.Lock()
		c.retryTimer = nil
		closing := c.closing
		c.mu.Unlock()
		if closing {
			return
		}
		_ = c.Connect(ctx)
	})
}

func (c *Channel) scheduleKeepAlive() {
	if c.opts.KeepAlive <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == nil || c.closing {
		return
	}
	c.kaTimer = c.opts.Clock.AfterFunc(c.opts.KeepAlive, func() {
		if err := c.Send(backoffice.NewPing(c.opts.Clock)); err != nil {
			c.opts.Telemetry.Record(context.Background(), "realtime.channel.ping_error", map[string]any{
				"url":   c.opts.URL,
				"error": err.Error(),
			})
		}
		c.scheduleKeepAlive()
	})
}

func normalizeClock(c backoffice.Clock) backoffice.Clock {
	if c == nil {
		return backoffice.SystemClock()
	}
	return c
}

type noopTelemetry struct{}

func (noopTelemetry) Record(context.Context, string, map[string]any) {}

func normalizeTelemetry(t backoffice.Telemetry) backoffice.Telemetry {
	if t == nil {
		return noopTelemetry{}
	}
	return t
}
