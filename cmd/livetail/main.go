// Command livetail follows a back-office realtime feed from the terminal:
// the dashboard channel's order and stats events, or a single order's
// driver location stream.
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	"github.com/joho/godotenv"

	backoffice "github.com/goliatone/go-backoffice/components/backoffice"
	"github.com/goliatone/go-backoffice/components/backoffice/realtime"
	"github.com/goliatone/go-backoffice/pkg/tracking"
)

type cli struct {
	Tail  tailCmd  `cmd:"" help:"Follow the dashboard feed and print order and stats events."`
	Track trackCmd `cmd:"" help:"Follow one order's driver location stream."`
}

type tailCmd struct {
	URL string `env:"BACKOFFICE_URL" required:"" help:"Back-office base URL (http or https); the ws endpoint is derived from it."`
}

type trackCmd struct {
	URL     string `env:"BACKOFFICE_URL" required:"" help:"Back-office base URL (http or https)."`
	OrderID string `arg:"" help:"Order identifier to track."`
}

func main() {
	// Load .env before kong reads env-tagged flags; a missing file is fine.
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("livetail: skipping .env: %v", err)
	}
	ctx := kong.Parse(&cli{},
		kong.Description("Terminal tail for back-office realtime feeds."),
		kong.UsageOnError(),
	)
	err := ctx.Run(context.Background())
	ctx.FatalIfErrorf(err)
}

type logTelemetry struct{}

func (logTelemetry) Record(_ context.Context, event string, payload map[string]any) {
	log.Printf("%s %v", event, payload)
}

func (cmd *tailCmd) Run(parent context.Context) error {
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	clock := backoffice.SystemClock()
	page := &backoffice.Page{
		Stats:  backoffice.NewStatsPanel(clock, 0),
		Orders: backoffice.NewOrdersTable(backoffice.RecentOrdersCap, clock),
		Count:  &backoffice.CountBadge{},
	}
	notices := backoffice.NewNoticeCenter(clock)
	indicator := backoffice.NewIndicator()
	indicator.OnChange(func(state backoffice.ConnectionState) {
		log.Printf("connection: %s", state)
	})

	dispatcher := backoffice.NewDispatcher(backoffice.DispatcherOptions{
		Page:      page,
		Refresher: backoffice.NoopRefresher{},
		Notices:   notices,
		Telemetry: logTelemetry{},
	})

	feed, err := realtime.NewDashboardFeed(realtime.DashboardFeedOptions{
		PageURL:    cmd.URL,
		Dispatcher: dispatcher,
		Notices:    notices,
		Indicator:  indicator,
		Clock:      clock,
		Telemetry:  logTelemetry{},
	})
	if err != nil {
		return fmt.Errorf("livetail: %w", err)
	}

	events, cancel := notices.Subscribe()
	defer cancel()
	go func() {
		for notice := range events {
			log.Printf("[%s] %s", notice.Level, notice.Message)
		}
	}()

	if err := feed.Connect(ctx); err != nil {
		return fmt.Errorf("livetail: connect: %w", err)
	}
	defer feed.Close()

	<-ctx.Done()
	if errors.Is(ctx.Err(), context.Canceled) {
		return nil
	}
	return ctx.Err()
}

func (cmd *trackCmd) Run(parent context.Context) error {
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	view := tracking.NewMapView()
	feed, err := realtime.NewTrackingFeed(realtime.TrackingFeedOptions{
		PageURL:   cmd.URL,
		OrderID:   cmd.OrderID,
		Map:       view,
		Telemetry: logTelemetry{},
	})
	if err != nil {
		return fmt.Errorf("livetail: %w", err)
	}
	if err := feed.Connect(ctx); err != nil {
		return fmt.Errorf("livetail: connect: %w", err)
	}
	defer feed.Close()

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	var last tracking.Marker
	var seen bool
	lastStatus := ""
	for {
		select {
		case <-ctx.Done():
			if errors.Is(ctx.Err(), context.Canceled) {
				return nil
			}
			return ctx.Err()
		case <-ticker.C:
			if status := view.Status(); status != lastStatus {
				lastStatus = status
				log.Printf("status: %s", status)
			}
			marker, ok := view.Marker()
			if !ok || (seen && marker == last) {
				continue
			}
			last, seen = marker, true
			log.Printf("driver at %.6f,%.6f heading %.0f", marker.Position.Lat, marker.Position.Lng, marker.Rotation)
		}
	}
}
