package notify

import (
	"context"
	"log/slog"

	"resupply/contexts/exchange-core/transfer-workflow/ports"
)

// LogSender is the notification channel used while no external delivery
// provider is configured. It records the outbound notification in the
// structured log so operators can trace what would have been sent.
type LogSender struct {
	Logger *slog.Logger
}

func (s LogSender) SendTransferNotification(_ context.Context, notification ports.TransferNotification) error {
	logger := s.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.Info("transfer notification",
		"event", "transfer_notification",
		"module", "exchange-core/transfer-workflow",
		"layer", "adapter",
		"event_id", notification.EventID,
		"event_type", notification.EventType,
		"request_id", notification.RequestID,
		"material_id", notification.MaterialID,
		"from_organization_id", notification.FromOrganizationID,
		"to_organization_id", notification.ToOrganizationID,
		"quantity", notification.Quantity,
		"unit", notification.Unit,
		"status", notification.Status,
	)
	return nil
}
