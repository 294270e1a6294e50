package backoffice

import (
	"context"
	"fmt"
	"time"
)

// Refresher is the coarse fallback path: re-fetch the page and swap the table
// body wholesale. highlightOrderID, when non-empty, flags that row after the
// swap.
type Refresher interface {
	Refresh(ctx context.Context, highlightOrderID string) error
}

// ChartInvalidator lets the dispatcher nudge the orders chart when a new
// order lands.
type ChartInvalidator interface {
	MarkStale()
}

// NoopRefresher satisfies Refresher for pages without a table to refresh.
type NoopRefresher struct{}

// Refresh does nothing.
func (NoopRefresher) Refresh(context.Context, string) error { return nil }

// Dispatcher routes decoded feed messages into page patches. Patches are
// attempted incrementally; an order-status patch that cannot land routes to
// the Refresher exactly once.
type Dispatcher struct {
	page      *Page
	refresher Refresher
	notices   *NoticeCenter
	chart     ChartInvalidator
	telemetry Telemetry
}

// DispatcherOptions configures a Dispatcher. Page is required; everything
// else degrades to a no-op.
type DispatcherOptions struct {
	Page      *Page
	Refresher Refresher
	Notices   *NoticeCenter
	Chart     ChartInvalidator
	Telemetry Telemetry
}

// NewDispatcher wires the dispatcher with safe defaults.
func NewDispatcher(opts DispatcherOptions) *Dispatcher {
	if opts.Page == nil {
		opts.Page = &Page{}
	}
	if opts.Refresher == nil {
		opts.Refresher = NoopRefresher{}
	}
	return &Dispatcher{
		page:      opts.Page,
		refresher: opts.Refresher,
		notices:   opts.Notices,
		chart:     opts.Chart,
		telemetry: normalizeTelemetry(opts.Telemetry),
	}
}

// Handle decodes a raw frame and dispatches it with the dashboard contract.
// Malformed payloads are recorded and dropped; Handle never panics.
func (d *Dispatcher) Handle(ctx context.Context, raw []byte) {
	msg, err := DecodeMessage(raw)
	if err != nil {
		d.telemetry.Record(ctx, "backoffice.feed.decode_error", map[string]any{
			"error": err.Error(),
		})
		return
	}
	d.Dispatch(ctx, msg)
}

// Dispatch applies one dashboard-feed message to the page.
func (d *Dispatcher) Dispatch(ctx context.Context, msg Message) {
	switch msg.Type {
	case MessageConnectionEstablished:
		d.telemetry.Record(ctx, "backoffice.feed.established", nil)
	case MessageNewOrder:
		if msg.Order == nil || msg.Order.ID == "" {
			return
		}
		d.applyNewOrder(msg)
	case MessageOrderStatusChanged:
		if msg.Order == nil || msg.Order.ID == "" {
			return
		}
		d.applyStatusChange(ctx, msg.Order)
		d.notify(NoticeInfo, msg.Text, "order updated")
	case MessageStatsUpdate:
		d.applyStats(msg.Stats)
	case MessagePong:
		// keep-alive acknowledgment
	default:
		d.telemetry.Record(ctx, "backoffice.feed.unknown_type", map[string]any{
			"type": string(msg.Type),
		})
	}
}

// DispatchListUpdate applies one message with the orders-list contract: only
// order events are handled, and a new order always routes through the refresh
// path so active filters and pagination stay honored.
func (d *Dispatcher) DispatchListUpdate(ctx context.Context, msg Message) {
	switch msg.Type {
	case MessageOrderStatusChanged:
		if msg.Order == nil || msg.Order.ID == "" {
			return
		}
		d.applyStatusChange(ctx, msg.Order)
	case MessageNewOrder:
		if msg.Order == nil || msg.Order.ID == "" {
			return
		}
		d.refresh(ctx, msg.Order.ID.String())
	}
}

func (d *Dispatcher) applyNewOrder(msg Message) {
	order := msg.Order
	if d.page.Stats != nil {
		d.page.Stats.Increment("orders")
	}
	if d.page.Orders != nil {
		payment, _ := ParsePaymentStatus(order.Payment())
		fulfillment, _ := ParseFulfillmentStatus(order.Fulfillment())
		row := OrderRow{
			ID:          order.ID.String(),
			Customer:    order.UserName,
			Store:       order.StoreName,
			Total:       fmt.Sprintf("%.2f", order.Amount()),
			Payment:     payment.Badge(),
			Fulfillment: fulfillment.Badge(),
			Created:     order.CreatedAt,
		}
		if d.page.Orders.Prepend(row) {
			d.page.Orders.Highlight(row.ID, 800*time.Millisecond)
		}
	}
	if d.chart != nil {
		d.chart.MarkStale()
	}
	d.notify(NoticeInfo, msg.Text, "new order received")
}

// applyStatusChange attempts the targeted badge patch and falls back to a
// single full refresh when the row is missing or nothing applied.
func (d *Dispatcher) applyStatusChange(ctx context.Context, order *OrderSummary) {
	id := order.ID.String()
	applied := false
	if d.page.Orders != nil {
		total := ""
		if order.Amount() != 0 {
			total = fmt.Sprintf("%.2f", order.Amount())
		}
		applied = d.page.Orders.UpdateStatus(id, order.Payment(), order.Fulfillment(), total)
	}
	if !applied {
		d.refresh(ctx, id)
	}
}

func (d *Dispatcher) applyStats(stats map[string]float64) {
	if d.page.Stats == nil {
		return
	}
	for key, value := range stats {
		text := fmt.Sprintf("%v", value)
		if value == float64(int64(value)) {
			text = fmt.Sprintf("%d", int64(value))
		}
		d.page.Stats.Set(key, text)
	}
}

func (d *Dispatcher) refresh(ctx context.Context, highlightID string) {
	if err := d.refresher.Refresh(ctx, highlightID); err != nil {
		d.telemetry.Record(ctx, "backoffice.refresh.error", map[string]any{
			"order_id": highlightID,
			"error":    err.Error(),
		})
	}
}

func (d *Dispatcher) notify(level NoticeLevel, text, fallback string) {
	if d.notices == nil {
		return
	}
	if text == "" {
		text = fallback
	}
	d.notices.Publish(level, text)
}
