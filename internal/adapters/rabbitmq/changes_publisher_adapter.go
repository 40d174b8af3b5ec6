package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"huizenzoeker/internal/constants"
	"huizenzoeker/internal/contextkeys"
	"huizenzoeker/internal/core/domain"
	"huizenzoeker/internal/core/port"
	"huizenzoeker/pkg/rabbitmq/rabbitmq_producer"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
)

// ChangesPublisherAdapter публикует итоги обработки пакетов для
// downstream-потребителей (нотификаторы, витрины).
type ChangesPublisherAdapter struct {
	producer   *rabbitmq_producer.Publisher
	routingKey string
}

// NewChangesPublisherAdapter создает новый экземпляр
func NewChangesPublisherAdapter(producer *rabbitmq_producer.Publisher, routingKey string) (*ChangesPublisherAdapter, error) {
	if producer == nil {
		return nil, fmt.Errorf("producer cannot be nil")
	}
	if routingKey == "" {
		return nil, fmt.Errorf("routingKey cannot be empty")
	}

	return &ChangesPublisherAdapter{
		producer:   producer,
		routingKey: routingKey,
	}, nil
}

// PublishBatchResult отправляет событие ListingChangesEvent
func (a *ChangesPublisherAdapter) PublishBatchResult(ctx context.Context, result domain.BatchResult) error {
	logger := contextkeys.LoggerFromContext(ctx)
	adapterLogger := logger.WithFields(port.Fields{
		"component":   "ChangesPublisherAdapter",
		"routing_key": a.routingKey,
		"source":      result.Source,
	})

	eventJSON, err := json.Marshal(toListingChangesEventDTO(result))
	if err != nil {
		adapterLogger.Error("Failed to marshal changes event to JSON", err, nil)
		return fmt.Errorf("failed to marshal changes event for source %s: %w", result.Source, err)
	}

	msg := amqp.Publishing{
		ContentType:  "application/json",
		Body:         eventJSON,
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now(),
		MessageId:    uuid.New().String(),
		Headers: amqp.Table{
			"event-type":    constants.EventTypeListingChanges,
			"event-version": constants.EventVersionV1,
		},
	}

	traceID := contextkeys.TraceIDFromContext(ctx)
	if traceID != "" {
		msg.Headers["x-trace-id"] = traceID
	}

	publishCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := a.producer.Publish(publishCtx, a.routingKey, msg); err != nil {
		adapterLogger.Error("Failed to publish changes event", err, nil)
		return err
	}

	adapterLogger.Info("Successfully published changes event", port.Fields{
		"new":     len(result.New),
		"updated": len(result.Updated),
		"removed": len(result.Removed),
	})
	return nil
}
