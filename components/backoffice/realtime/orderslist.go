package realtime

import (
	"context"
	"errors"

	backoffice "github.com/goliatone/go-backoffice/components/backoffice"
)

// OrdersListFeedOptions wires the orders list page channel.
type OrdersListFeedOptions struct {
	PageURL    string
	Dispatcher *backoffice.Dispatcher
	Dialer     Dialer
	Clock      backoffice.Clock
	Telemetry  backoffice.Telemetry
}

// OrdersListFeed is the fire-and-forget channel the orders list page opens
// on the dashboard endpoint: it dispatches only order events and never
// reconnects.
type OrdersListFeed struct {
	channel *Channel
}

// NewOrdersListFeed builds the feed without connecting.
func NewOrdersListFeed(opts OrdersListFeedOptions) (*OrdersListFeed, error) {
	if opts.Dispatcher == nil {
		return nil, errors.New("realtime: orders list feed requires a dispatcher")
	}
	wsURL, err := DashboardEndpoint(opts.PageURL)
	if err != nil {
		return nil, err
	}
	telemetry := normalizeTelemetry(opts.Telemetry)
	channel, err := NewChannel(Options{
		URL:    wsURL,
		Dialer: opts.Dialer,
		Handler: func(ctx context.Context, raw []byte) {
			msg, err := backoffice.DecodeMessage(raw)
			if err != nil {
				telemetry.Record(ctx, "realtime.orders_list.decode_error", map[string]any{
					"error": err.Error(),
				})
				return
			}
			opts.Dispatcher.DispatchListUpdate(ctx, msg)
		},
		ReconnectOn: func(int) bool { return false },
		Clock:       opts.Clock,
		Telemetry:   opts.Telemetry,
	})
	if err != nil {
		return nil, err
	}
	return &OrdersListFeed{channel: channel}, nil
}

// Connect opens the channel.
func (f *OrdersListFeed) Connect(ctx context.Context) error {
	return f.channel.Connect(ctx)
}

// Close performs a normal closure.
func (f *OrdersListFeed) Close() error { return f.channel.Close() }
