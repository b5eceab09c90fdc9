package pushnotification

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/cmdwarden/cmdwarden/internal/eventbus"
)

// Dispatcher listens for command_ask events and pushes an approval
// prompt to every subscribed browser.
type Dispatcher struct {
	eventBus *eventbus.Bus
	sender   *Sender
}

func NewDispatcher(eventBus *eventbus.Bus, sender *Sender) *Dispatcher {
	return &Dispatcher{
		eventBus: eventBus,
		sender:   sender,
	}
}

func (d *Dispatcher) Start(ctx context.Context) {
	subID, ch := d.eventBus.Subscribe(256)
	defer d.eventBus.Unsubscribe(subID)

	slog.Info("push notification dispatcher started")
	for {
		select {
		case <-ctx.Done():
			slog.Info("push notification dispatcher stopped")
			return
		case event, ok := <-ch:
			if !ok {
				return
			}
			if event.Type == eventbus.EventTypeCommandAsk {
				d.handleCommandAsk(ctx, event)
			}
		}
	}
}

func (d *Dispatcher) handleCommandAsk(ctx context.Context, event *eventbus.Event) {
	body := event.Payload
	if body == "" {
		body = "A command is waiting for your decision."
	}
	d.sender.SendToAll(ctx, &NotificationPayload{
		Title: "Approval Required",
		Body:  body,
		URL:   fmt.Sprintf("/approvals/%s", event.ResourceID),
		Tag:   event.ResourceID,
	})
}
