package commands

import (
	"context"
	"errors"

	backoffice "github.com/goliatone/go-backoffice/components/backoffice"
	gocommand "github.com/goliatone/go-command"
)

// ApplyMessageInput carries one decoded feed message into the page model.
type ApplyMessageInput struct {
	Message backoffice.Message `json:"message"`
}

type messageDispatcher interface {
	Dispatch(ctx context.Context, msg backoffice.Message)
}

// ApplyMessageCommand routes a realtime message through the dispatcher.
type ApplyMessageCommand struct {
	dispatcher messageDispatcher
	telemetry  Telemetry
}

// NewApplyMessageCommand creates the command.
func NewApplyMessageCommand(dispatcher messageDispatcher, telemetry Telemetry) *ApplyMessageCommand {
	return &ApplyMessageCommand{dispatcher: dispatcher, telemetry: normalizeTelemetry(telemetry)}
}

var _ gocommand.Commander[ApplyMessageInput] = (*ApplyMessageCommand)(nil)

// Execute dispatches the message and records its type.
func (c *ApplyMessageCommand) Execute(ctx context.Context, msg ApplyMessageInput) error {
	if c.dispatcher == nil {
		return errors.New("apply command requires dispatcher")
	}
	c.dispatcher.Dispatch(ctx, msg.Message)
	c.telemetry.Record(ctx, "backoffice.feed.apply", map[string]any{
		"type": string(msg.Message.Type),
	})
	return nil
}
