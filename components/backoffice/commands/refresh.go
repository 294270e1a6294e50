package commands

import (
	"context"
	"errors"

	gocommand "github.com/goliatone/go-command"
)

// RefreshTableInput requests a full orders-table refresh, optionally
// highlighting one row afterwards.
type RefreshTableInput struct {
	HighlightOrderID string `json:"highlight_order_id,omitempty"`
}

type tableRefresher interface {
	Refresh(ctx context.Context, highlightOrderID string) error
}

// RefreshTableCommand re-fetches the orders list and swaps the table body.
type RefreshTableCommand struct {
	refresher tableRefresher
	telemetry Telemetry
}

// NewRefreshTableCommand creates the command.
func NewRefreshTableCommand(refresher tableRefresher, telemetry Telemetry) *RefreshTableCommand {
	return &RefreshTableCommand{refresher: refresher, telemetry: normalizeTelemetry(telemetry)}
}

var _ gocommand.Commander[RefreshTableInput] = (*RefreshTableCommand)(nil)

// Execute runs the refresh and records the outcome.
func (c *RefreshTableCommand) Execute(ctx context.Context, msg RefreshTableInput) error {
	if c.refresher == nil {
		return errors.New("refresh command requires refresher")
	}
	if err := c.refresher.Refresh(ctx, msg.HighlightOrderID); err != nil {
		return err
	}
	c.telemetry.Record(ctx, "backoffice.table.refresh", map[string]any{
		"highlight_order_id": msg.HighlightOrderID,
	})
	return nil
}
