package backoffice

import (
	"context"
	"sync"
	"testing"
)

type recordingRefresher struct {
	mu    sync.Mutex
	calls []string
}

func (r *recordingRefresher) Refresh(_ context.Context, highlightOrderID string) error {
	r.mu.Lock()
	r.calls = append(r.calls, highlightOrderID)
	r.mu.Unlock()
	return nil
}

type stubChart struct{ stale int }

func (c *stubChart) MarkStale() { c.stale++ }

type stubTelemetry struct {
	mu     sync.Mutex
	events []string
}

func (s *stubTelemetry) Record(_ context.Context, event string, _ map[string]any) {
	s.mu.Lock()
	s.events = append(s.events, event)
	s.mu.Unlock()
}

func (s *stubTelemetry) has(event string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range s.events {
		if e == event {
			return true
		}
	}
	return false
}

func newTestPage(clock Clock) *Page {
	return &Page{
		Stats:  NewStatsPanel(clock, 0),
		Orders: NewOrdersTable(RecentOrdersCap, clock),
		Count:  &CountBadge{},
	}
}

func TestDispatchNewOrder(t *testing.T) {
	clock := newFakeClock()
	page := newTestPage(clock)
	chart := &stubChart{}
	notices := NewNoticeCenter(clock)
	events, cancel := notices.Subscribe()
	defer cancel()

	d := NewDispatcher(DispatcherOptions{Page: page, Notices: notices, Chart: chart})
	d.Handle(context.Background(), []byte(`{
		"type": "new_order",
		"order": {"id": 501, "user_name": "Omar", "grand_total": 99.9, "payment_status": "PAID", "fulfillment_status": "PENDING"}
	}`))

	if page.Stats.Value("orders") != "1" {
		t.Fatalf("expected orders counter bumped, got %q", page.Stats.Value("orders"))
	}
	row, ok := page.Orders.Row("501")
	if !ok {
		t.Fatalf("expected row inserted")
	}
	if row.Total != "99.90" {
		t.Fatalf("unexpected total %q", row.Total)
	}
	if !page.Orders.Highlighted("501") {
		t.Fatalf("expected fresh row highlighted")
	}
	if chart.stale != 1 {
		t.Fatalf("expected chart invalidated once, got %d", chart.stale)
	}
	select {
	case notice := <-events:
		if notice.Level != NoticeInfo {
			t.Fatalf("unexpected notice level %q", notice.Level)
		}
	default:
		t.Fatalf("expected a notice for the new order")
	}
}

func TestDispatchDuplicateNewOrderKeepsRow(t *testing.T) {
	clock := newFakeClock()
	page := newTestPage(clock)
	d := NewDispatcher(DispatcherOptions{Page: page})
	frame := []byte(`{"type": "new_order", "order": {"id": "7", "grand_total": 10}}`)

	d.Handle(context.Background(), frame)
	d.Handle(context.Background(), frame)

	if page.Orders.Len() != 1 {
		t.Fatalf("expected one row, got %d", page.Orders.Len())
	}
}

func TestDispatchStatusChangePatchesRow(t *testing.T) {
	clock := newFakeClock()
	page := newTestPage(clock)
	refresher := &recordingRefresher{}
	d := NewDispatcher(DispatcherOptions{Page: page, Refresher: refresher})
	page.Orders.Prepend(OrderRow{ID: "33"})

	d.Handle(context.Background(), []byte(`{
		"type": "order_status_changed",
		"order": {"id": 33, "payment_status": "PAID"}
	}`))

	row, _ := page.Orders.Row("33")
	if row.Payment.Label != "paid" {
		t.Fatalf("expected payment badge patched, got %#v", row.Payment)
	}
	if len(refresher.calls) != 0 {
		t.Fatalf("patch landed, refresh should not run: %v", refresher.calls)
	}
}

func TestDispatchStatusChangeFallsBackToRefresh(t *testing.T) {
	clock := newFakeClock()
	page := newTestPage(clock)
	refresher := &recordingRefresher{}
	d := NewDispatcher(DispatcherOptions{Page: page, Refresher: refresher})

	// Row absent: exactly one refresh, carrying the order id.
	d.Handle(context.Background(), []byte(`{
		"type": "order_status_changed",
		"order": {"id": "404", "payment_status": "PAID"}
	}`))

	if len(refresher.calls) != 1 || refresher.calls[0] != "404" {
		t.Fatalf("expected one refresh with highlight id, got %v", refresher.calls)
	}
}

func TestDispatchStatsUpdate(t *testing.T) {
	clock := newFakeClock()
	page := newTestPage(clock)
	d := NewDispatcher(DispatcherOptions{Page: page})

	d.Handle(context.Background(), []byte(`{
		"type": "stats_update",
		"stats": {"orders": 12, "revenue": 345.67}
	}`))

	if got := page.Stats.Value("orders"); got != "12" {
		t.Fatalf("whole values should render as integers, got %q", got)
	}
	if got := page.Stats.Value("revenue"); got != "345.67" {
		t.Fatalf("unexpected revenue text %q", got)
	}
	if !page.Stats.Highlighted("orders") {
		t.Fatalf("expected stat flash")
	}
}

func TestDispatchUnknownTypeIsDropped(t *testing.T) {
	telemetry := &stubTelemetry{}
	d := NewDispatcher(DispatcherOptions{Telemetry: telemetry})

	d.Handle(context.Background(), []byte(`{"type": "totally_new"}`))
	if !telemetry.has("backoffice.feed.unknown_type") {
		t.Fatalf("expected unknown type recorded, got %v", telemetry.events)
	}

	d.Handle(context.Background(), []byte(`not json`))
	if !telemetry.has("backoffice.feed.decode_error") {
		t.Fatalf("expected decode error recorded, got %v", telemetry.events)
	}
}

func TestDispatchListUpdateNewOrderAlwaysRefreshes(t *testing.T) {
	clock := newFakeClock()
	page := newTestPage(clock)
	refresher := &recordingRefresher{}
	d := NewDispatcher(DispatcherOptions{Page: page, Refresher: refresher})

	// The orders list honors filters and pagination, so a new order never
	// patches in place.
	d.DispatchListUpdate(context.Background(), Message{
		Type:  MessageNewOrder,
		Order: &OrderSummary{ID: "900"},
	})
	if len(refresher.calls) != 1 || refresher.calls[0] != "900" {
		t.Fatalf("expected refresh for new order, got %v", refresher.calls)
	}
	if page.Orders.Len() != 0 {
		t.Fatalf("list mode must not prepend rows")
	}

	page.Orders.Prepend(OrderRow{ID: "900"})
	d.DispatchListUpdate(context.Background(), Message{
		Type:  MessageOrderStatusChanged,
		Order: &OrderSummary{ID: "900", PaymentStatus: "REFUNDED"},
	})
	if len(refresher.calls) != 1 {
		t.Fatalf("status patch landed, no extra refresh expected: %v", refresher.calls)
	}
}
