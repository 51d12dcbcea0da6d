package workers

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	contractsv1 "resupply/contracts/gen/events/v1"
	application "resupply/contexts/exchange-core/transfer-workflow/application"
	"resupply/contexts/exchange-core/transfer-workflow/ports"
)

const defaultNotificationGroup = "transfer-notifications-cg"

// TransferNotificationConsumer forwards transfer lifecycle events to the
// notification collaborator. Delivery is fire-and-forget: a send failure
// is logged and the event is considered handled, so notification outages
// never stall the bus.
type TransferNotificationConsumer struct {
	Subscriber    ports.EventSubscriber
	Sender        ports.NotificationSender
	ConsumerGroup string
	Logger        *slog.Logger
}

type transferEventPayload struct {
	RequestID          string `json:"request_id"`
	MaterialID         string `json:"material_id"`
	FromOrganizationID string `json:"from_organization_id"`
	ToOrganizationID   string `json:"to_organization_id"`
	Quantity           string `json:"quantity"`
	Unit               string `json:"unit"`
	Status             string `json:"status"`
}

func (c TransferNotificationConsumer) Start(ctx context.Context) error {
	group := c.ConsumerGroup
	if group == "" {
		group = defaultNotificationGroup
	}
	for _, topic := range contractsv1.TransferLifecycleTopics() {
		if err := c.Subscriber.Subscribe(ctx, topic, group, c.HandleEvent); err != nil {
			return err
		}
	}
	return nil
}

func (c TransferNotificationConsumer) HandleEvent(ctx context.Context, event ports.EventEnvelope) error {
	logger := application.ResolveLogger(c.Logger)

	var payload transferEventPayload
	if err := json.Unmarshal(event.Data, &payload); err != nil {
		return fmt.Errorf("decode transfer event payload: %w", err)
	}
	if payload.RequestID == "" {
		return fmt.Errorf("transfer event missing request_id")
	}

	err := c.Sender.SendTransferNotification(ctx, ports.TransferNotification{
		EventID:            event.EventID,
		EventType:          event.EventType,
		RequestID:          payload.RequestID,
		MaterialID:         payload.MaterialID,
		FromOrganizationID: payload.FromOrganizationID,
		ToOrganizationID:   payload.ToOrganizationID,
		Quantity:           payload.Quantity,
		Unit:               payload.Unit,
		Status:             payload.Status,
	})
	if err != nil {
		logger.Warn("transfer notification send failed",
			"event", "transfer_notification_send_failed",
			"module", "exchange-core/transfer-workflow",
			"layer", "worker",
			"event_id", event.EventID,
			"event_type", event.EventType,
			"request_id", payload.RequestID,
			"error", err.Error(),
		)
		return nil
	}

	logger.Info("transfer notification dispatched",
		"event", "transfer_notification_dispatched",
		"module", "exchange-core/transfer-workflow",
		"layer", "worker",
		"event_id", event.EventID,
		"event_type", event.EventType,
		"request_id", payload.RequestID,
	)
	return nil
}
