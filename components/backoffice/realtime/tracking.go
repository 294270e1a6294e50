package realtime

import (
	"context"
	"errors"
	"time"

	backoffice "github.com/goliatone/go-backoffice/components/backoffice"
	"github.com/goliatone/go-backoffice/pkg/tracking"
)

const trackingRetryDelay = 3 * time.Second

// TrackingFeedOptions wires the per-order driver location channel to a map
// view.
type TrackingFeedOptions struct {
	PageURL   string
	OrderID   string
	Map       *tracking.MapView
	Dialer    Dialer
	Clock     backoffice.Clock
	Telemetry backoffice.Telemetry
}

// TrackingFeed follows one order's driver location stream. It reconnects
// unconditionally after a fixed 3s delay on any closure.
type TrackingFeed struct {
	channel *Channel
	view    *tracking.MapView
}

// NewTrackingFeed builds the feed without connecting.
func NewTrackingFeed(opts TrackingFeedOptions) (*TrackingFeed, error) {
	if opts.OrderID == "" {
		return nil, errors.New("realtime: tracking feed requires an order id")
	}
	if opts.Map == nil {
		return nil, errors.New("realtime: tracking feed requires a map view")
	}
	wsURL, err := OrderEndpoint(opts.PageURL, opts.OrderID)
	if err != nil {
		return nil, err
	}
	feed := &TrackingFeed{view: opts.Map}
	channel, err := NewChannel(Options{
		URL:    wsURL,
		Dialer: opts.Dialer,
		Handler: func(_ context.Context, raw []byte) {
			if fix, ok := tracking.DecodeFix(raw); ok {
				feed.view.Apply(fix)
			}
		},
		OnOpen: func() {
			feed.view.SetStatus("connected, waiting for location updates")
		},
		OnClose: func(int) {
			feed.view.SetStatus("disconnected, retrying shortly")
		},
		ReconnectOn: func(int) bool { return true },
		Retry:       FixedRetry(trackingRetryDelay),
		Clock:       opts.Clock,
		Telemetry:   opts.Telemetry,
	})
	if err != nil {
		return nil, err
	}
	feed.channel = channel
	return feed, nil
}

// Connect opens the channel; dial failures also schedule the retry.
func (f *TrackingFeed) Connect(ctx context.Context) error {
	return f.channel.Connect(ctx)
}

// Close performs a normal closure and stops retrying.
func (f *TrackingFeed) Close() error { return f.channel.Close() }

// State returns the channel connectivity.
func (f *TrackingFeed) State() backoffice.ConnectionState { return f.channel.State() }
