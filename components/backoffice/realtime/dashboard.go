package realtime

import (
	"context"
	"errors"
	"time"

	"github.com/gorilla/websocket"

	backoffice "github.com/goliatone/go-backoffice/components/backoffice"
)

const (
	dashboardRetryDelay = 5 * time.Second
	keepAliveInterval   = 30 * time.Second
)

// DashboardFeedOptions wires the dashboard-wide channel to the page's
// dispatcher, notices, and connection indicator.
type DashboardFeedOptions struct {
	// PageURL is the current page address; the ws endpoint and scheme are
	// derived from it.
	PageURL    string
	Dispatcher *backoffice.Dispatcher
	Notices    *backoffice.NoticeCenter
	Indicator  *backoffice.Indicator
	Dialer     Dialer
	Clock      backoffice.Clock
	Telemetry  backoffice.Telemetry
}

// DashboardFeed is the stats/new-order/status-change channel opened on the
// dashboard page. It reconnects after a fixed 5s delay on any abnormal
// closure except the authentication rejection, and pings every 30s.
type DashboardFeed struct {
	channel *Channel
	notices *backoffice.NoticeCenter
}

// NewDashboardFeed builds the feed without connecting.
func NewDashboardFeed(opts DashboardFeedOptions) (*DashboardFeed, error) {
	if opts.Dispatcher == nil {
		return nil, errors.New("realtime: dashboard feed requires a dispatcher")
	}
	wsURL, err := DashboardEndpoint(opts.PageURL)
	if err != nil {
		return nil, err
	}
	feed := &DashboardFeed{notices: opts.Notices}
	channel, err := NewChannel(Options{
		URL:     wsURL,
		Dialer:  opts.Dialer,
		Handler: opts.Dispatcher.Handle,
		OnOpen: func() {
			if opts.Indicator != nil {
				opts.Indicator.SetState(backoffice.StateConnected)
			}
			feed.notify(backoffice.NoticeSuccess, "live updates connected")
		},
		OnClose: func(code int) {
			if opts.Indicator != nil {
				opts.Indicator.SetState(backoffice.StateDisconnected)
			}
			if code == CloseAuthRequired {
				feed.notify(backoffice.NoticeWarning, "sign in to receive live updates")
				return
			}
			feed.notify(backoffice.NoticeWarning, "live updates disconnected")
		},
		ReconnectOn: func(code int) bool {
			return code != websocket.CloseNormalClosure && code != CloseAuthRequired
		},
		Retry:     FixedRetry(dashboardRetryDelay),
		KeepAlive: keepAliveInterval,
		Clock:     opts.Clock,
		Telemetry: opts.Telemetry,
	})
	if err != nil {
		return nil, err
	}
	feed.channel = channel
	return feed, nil
}

// Connect opens the channel. A dial failure is surfaced as a notice and
// returned; it never blocks the rest of page initialization.
func (f *DashboardFeed) Connect(ctx context.Context) error {
	if err := f.channel.Connect(ctx); err != nil {
		f.notify(backoffice.NoticeDanger, "failed to open live updates")
		return err
	}
	return nil
}

// Close performs a normal closure.
func (f *DashboardFeed) Close() error { return f.channel.Close() }

// State returns the channel connectivity.
func (f *DashboardFeed) State() backoffice.ConnectionState { return f.channel.State() }

func (f *DashboardFeed) notify(level backoffice.NoticeLevel, msg string) {
	if f.notices != nil {
		f.notices.Publish(level, msg)
	}
}
