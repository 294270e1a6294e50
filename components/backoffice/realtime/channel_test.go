package realtime

import (
	"context"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	backoffice "github.com/goliatone/go-backoffice/components/backoffice"
)

type readResult struct {
	data []byte
	err  error
}

type fakeConn struct {
	mu     sync.Mutex
	frames chan readResult
	json   []any
	writes []int
	closed bool
}

func newFakeConn() *fakeConn {
	return &fakeConn{frames: make(chan readResult, 16)}
}

func (c *fakeConn) push(data string)   { c.frames <- readResult{data: []byte(data)} }
func (c *fakeConn) fail(err error)     { c.frames <- readResult{err: err} }
func (c *fakeConn) closeWith(code int) { c.fail(&websocket.CloseError{Code: code}) }

func (c *fakeConn) ReadMessage() (int, []byte, error) {
	r := <-c.frames
	if r.err != nil {
		return 0, nil, r.err
	}
	return websocket.TextMessage, r.data, nil
}

func (c *fakeConn) WriteJSON(v any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return io.ErrClosedPipe
	}
	c.json = append(c.json, v)
	return nil
}

func (c *fakeConn) WriteMessage(messageType int, _ []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.writes = append(c.writes, messageType)
	return nil
}

func (c *fakeConn) Close() error {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
	return nil
}

func (c *fakeConn) pings() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, v := range c.json {
		if p, ok := v.(backoffice.Ping); ok && p.Type == "ping" {
			n++
		}
	}
	return n
}

func (c *fakeConn) wroteClose() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, mt := range c.writes {
		if mt == websocket.CloseMessage {
			return true
		}
	}
	return false
}

type dialResult struct {
	conn *fakeConn
	err  error
}

type fakeDialer struct {
	mu      sync.Mutex
	scripts []dialResult
	dials   int
}

func (d *fakeDialer) script(results ...dialResult) {
	d.mu.Lock()
	d.scripts = append(d.scripts, results...)
	d.mu.Unlock()
}

func (d *fakeDialer) DialContext(context.Context, string) (Conn, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.dials++
	if len(d.scripts) == 0 {
		return newFakeConn(), nil
	}
	r := d.scripts[0]
	d.scripts = d.scripts[1:]
	if r.err != nil {
		return nil, r.err
	}
	return r.conn, nil
}

func (d *fakeDialer) dialCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.dials
}

func waitClose(t *testing.T, closed chan int) int {
	t.Helper()
	select {
	case code := <-closed:
		return code
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for close")
		return 0
	}
}

// waitFor polls a condition; the close path schedules its reconnect timer
// just after the OnClose callback, so assertions poll rather than race it.
func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("condition not reached in time")
}

// settle gives the close path time to finish before negative assertions.
func settle() { time.Sleep(50 * time.Millisecond) }

func TestChannelDeliversFramesInOrder(t *testing.T) {
	conn := newFakeConn()
	dialer := &fakeDialer{}
	dialer.script(dialResult{conn: conn})

	frames := make(chan string, 8)
	opened := false
	closed := make(chan int, 1)

	ch, err := NewChannel(Options{
		URL:     "ws://admin.local/ws/dashboard/",
		Dialer:  dialer,
		Handler: func(_ context.Context, raw []byte) { frames <- string(raw) },
		OnOpen:  func() { opened = true },
		OnClose: func(code int) { closed <- code },
		Clock:   newFakeClock(),
	})
	if err != nil {
		t.Fatalf("new channel: %v", err)
	}
	if err := ch.Connect(context.Background()); err != nil {
		t.Fatalf("connect: %v", err)
	}
	if !opened {
		t.Fatalf("expected OnOpen before read loop")
	}
	if ch.State() != backoffice.StateConnected {
		t.Fatalf("expected connected state, got %v", ch.State())
	}

	conn.push(`{"type":"stats_update"}`)
	conn.push(`{"type":"new_order"}`)
	for _, want := range []string{`{"type":"stats_update"}`, `{"type":"new_order"}`} {
		select {
		case got := <-frames:
			if got != want {
				t.Fatalf("out of order: expected %s, got %s", want, got)
			}
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out waiting for frame %s", want)
		}
	}

	conn.closeWith(websocket.CloseNormalClosure)
	if code := waitClose(t, closed); code != websocket.CloseNormalClosure {
		t.Fatalf("expected normal close code, got %d", code)
	}
	if ch.State() != backoffice.StateDisconnected {
		t.Fatalf("expected disconnected state, got %v", ch.State())
	}
}

func TestChannelAuthCloseNeverReconnects(t *testing.T) {
	conn := newFakeConn()
	dialer := &fakeDialer{}
	dialer.script(dialResult{conn: conn})
	clock := newFakeClock()
	closed := make(chan int, 1)

	ch, err := NewChannel(Options{
		URL:     "ws://admin.local/ws/dashboard/",
		Dialer:  dialer,
		Handler: func(context.Context, []byte) {},
		OnClose: func(code int) { closed <- code },
		ReconnectOn: func(code int) bool {
			return code != websocket.CloseNormalClosure && code != CloseAuthRequired
		},
		Retry: FixedRetry(5 * time.Second),
		Clock: clock,
	})
	if err != nil {
		t.Fatalf("new channel: %v", err)
	}
	if err := ch.Connect(context.Background()); err != nil {
		t.Fatalf("connect: %v", err)
	}

	conn.closeWith(CloseAuthRequired)
	if code := waitClose(t, closed); code != CloseAuthRequired {
		t.Fatalf("expected auth close code, got %d", code)
	}
	settle()
	if clock.pending() != 0 {
		t.Fatalf("auth rejection must not schedule a reconnect")
	}
	clock.Advance(time.Minute)
	if dialer.dialCount() != 1 {
		t.Fatalf("expected no redial, got %d", dialer.dialCount())
	}
}

func TestChannelAbnormalCloseReconnectsAfterDelay(t *testing.T) {
	first := newFakeConn()
	second := newFakeConn()
	dialer := &fakeDialer{}
	dialer.script(dialResult{conn: first}, dialResult{conn: second})
	clock := newFakeClock()
	closed := make(chan int, 2)

	ch, err := NewChannel(Options{
		URL:     "ws://admin.local/ws/dashboard/",
		Dialer:  dialer,
		Handler: func(context.Context, []byte) {},
		OnClose: func(code int) { closed <- code },
		Retry:   FixedRetry(5 * time.Second),
		Clock:   clock,
	})
	if err != nil {
		t.Fatalf("new channel: %v", err)
	}
	if err := ch.Connect(context.Background()); err != nil {
		t.Fatalf("connect: %v", err)
	}

	first.closeWith(websocket.CloseAbnormalClosure)
	waitClose(t, closed)
	waitFor(t, func() bool { return clock.pending() == 1 })

	clock.Advance(4 * time.Second)
	if dialer.dialCount() != 1 {
		t.Fatalf("redialed before the delay elapsed")
	}
	clock.Advance(time.Second)
	if dialer.dialCount() != 2 {
		t.Fatalf("expected redial after 5s, got %d dials", dialer.dialCount())
	}
	if ch.State() != backoffice.StateConnected {
		t.Fatalf("expected connected after redial, got %v", ch.State())
	}
}

func TestChannelNormalCloseStopsByDefault(t *testing.T) {
	conn := newFakeConn()
	dialer := &fakeDialer{}
	dialer.script(dialResult{conn: conn})
	clock := newFakeClock()
	closed := make(chan int, 1)

	ch, err := NewChannel(Options{
		URL:     "ws://admin.local/ws/dashboard/",
		Dialer:  dialer,
		Handler: func(context.Context, []byte) {},
		OnClose: func(code int) { closed <- code },
		Retry:   FixedRetry(5 * time.Second),
		Clock:   clock,
	})
	if err != nil {
		t.Fatalf("new channel: %v", err)
	}
	_ = ch.Connect(context.Background())

	conn.closeWith(websocket.CloseNormalClosure)
	waitClose(t, closed)
	settle()
	if clock.pending() != 0 {
		t.Fatalf("default policy must not reconnect on normal closure")
	}
}

func TestChannelUnconditionalPolicyReconnectsOnNormalClose(t *testing.T) {
	conn := newFakeConn()
	dialer := &fakeDialer{}
	dialer.script(dialResult{conn: conn})
	clock := newFakeClock()
	closed := make(chan int, 1)

	ch, err := NewChannel(Options{
		URL:         "ws://admin.local/ws/order/42/",
		Dialer:      dialer,
		Handler:     func(context.Context, []byte) {},
		OnClose:     func(code int) { closed <- code },
		ReconnectOn: func(int) bool { return true },
		Retry:       FixedRetry(3 * time.Second),
		Clock:       clock,
	})
	if err != nil {
		t.Fatalf("new channel: %v", err)
	}
	_ = ch.Connect(context.Background())

	conn.closeWith(websocket.CloseNormalClosure)
	waitClose(t, closed)
	waitFor(t, func() bool { return clock.pending() == 1 })
	clock.Advance(3 * time.Second)
	if dialer.dialCount() != 2 {
		t.Fatalf("expected redial after 3s, got %d", dialer.dialCount())
	}
}

func TestChannelDialFailureFollowsRetryPolicy(t *testing.T) {
	conn := newFakeConn()
	dialer := &fakeDialer{}
	dialer.script(dialResult{err: io.ErrUnexpectedEOF}, dialResult{conn: conn})
	clock := newFakeClock()

	ch, err := NewChannel(Options{
		URL:     "ws://admin.local/ws/dashboard/",
		Dialer:  dialer,
		Handler: func(context.Context, []byte) {},
		Retry:   FixedRetry(5 * time.Second),
		Clock:   clock,
	})
	if err != nil {
		t.Fatalf("new channel: %v", err)
	}
	if err := ch.Connect(context.Background()); err == nil {
		t.Fatalf("expected dial error surfaced")
	}
	if ch.State() != backoffice.StateError {
		t.Fatalf("expected error state, got %v", ch.State())
	}
	if clock.pending() != 1 {
		t.Fatalf("dial failure must schedule a retry")
	}
	clock.Advance(5 * time.Second)
	if dialer.dialCount() != 2 || ch.State() != backoffice.StateConnected {
		t.Fatalf("expected successful redial, dials=%d state=%v", dialer.dialCount(), ch.State())
	}
}

func TestChannelKeepAlivePings(t *testing.T) {
	conn := newFakeConn()
	dialer := &fakeDialer{}
	dialer.script(dialResult{conn: conn})
	clock := newFakeClock()

	ch, err := NewChannel(Options{
		URL:       "ws://admin.local/ws/dashboard/",
		Dialer:    dialer,
		Handler:   func(context.Context, []byte) {},
		KeepAlive: 30 * time.Second,
		Clock:     clock,
	})
	if err != nil {
		t.Fatalf("new channel: %v", err)
	}
	_ = ch.Connect(context.Background())

	clock.Advance(30 * time.Second)
	if conn.pings() != 1 {
		t.Fatalf("expected one ping after 30s, got %d", conn.pings())
	}
	clock.Advance(30 * time.Second)
	if conn.pings() != 2 {
		t.Fatalf("expected keep-alive to reschedule, got %d pings", conn.pings())
	}
}

func TestChannelCloseIsFinal(t *testing.T) {
	conn := newFakeConn()
	dialer := &fakeDialer{}
	dialer.script(dialResult{conn: conn})
	clock := newFakeClock()
	closed := make(chan int, 1)

	ch, err := NewChannel(Options{
		URL:         "ws://admin.local/ws/order/42/",
		Dialer:      dialer,
		Handler:     func(context.Context, []byte) {},
		OnClose:     func(code int) { closed <- code },
		ReconnectOn: func(int) bool { return true },
		Retry:       FixedRetry(3 * time.Second),
		Clock:       clock,
	})
	if err != nil {
		t.Fatalf("new channel: %v", err)
	}
	_ = ch.Connect(context.Background())

	if err := ch.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if !conn.wroteClose() {
		t.Fatalf("expected a close frame on shutdown")
	}
	conn.fail(io.ErrClosedPipe)
	waitClose(t, closed)
	settle()
	if clock.pending() != 0 {
		t.Fatalf("application close must not schedule reconnects")
	}
	clock.Advance(time.Minute)
	if dialer.dialCount() != 1 {
		t.Fatalf("expected no redial after Close, got %d", dialer.dialCount())
	}
}

func TestChannelSendRequiresConnection(t *testing.T) {
	ch, err := NewChannel(Options{
		URL:     "ws://admin.local/ws/dashboard/",
		Dialer:  &fakeDialer{},
		Handler: func(context.Context, []byte) {},
	})
	if err != nil {
		t.Fatalf("new channel: %v", err)
	}
	if err := ch.Send(backoffice.Ping{Type: "ping"}); err == nil {
		t.Fatalf("expected send to fail while disconnected")
	}
}
