package services

import (
	"context"

	"github.com/taneryldrm/bugless-crm-sub000/internal/events"
	"github.com/taneryldrm/bugless-crm-sub000/internal/log"
)

// notifier publishes events after a command already succeeded. Delivery
// problems are logged and never reach the caller.
type notifier struct {
	publisher events.Publisher
	logger    *log.Logger
}

func (n notifier) publish(ctx context.Context, e events.Event) {
	if n.publisher == nil {
		return
	}
	if err := n.publisher.Publish(ctx, e); err != nil {
		n.logger.WarnContext(ctx, "Failed to publish event",
			log.FieldOperation, log.OpPublish,
			log.FieldEventType, e.Type,
			log.FieldTransactionID, e.TransactionID,
			log.FieldError, err)
	}
}
