package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"huizenzoeker/internal/constants"
	"huizenzoeker/internal/contextkeys"
	"huizenzoeker/internal/contracts"
	"huizenzoeker/internal/core/port"
	"huizenzoeker/internal/core/port/usecases_port"
	"huizenzoeker/pkg/rabbitmq/rabbitmq_common"
	"huizenzoeker/pkg/rabbitmq/rabbitmq_consumer"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
)

// SnapshotConsumerAdapter - входящий адаптер, который слушает очередь
// с пакетами снимков и вызывает use case обработки изменений.
// Одно сообщение несет полный пакет одного источника.
type SnapshotConsumerAdapter struct {
	consumer *rabbitmq_consumer.BatchConsumer
	useCase  usecases_port.ProcessSnapshotBatchUseCase
	logger   port.LoggerPort
}

// NewSnapshotConsumerAdapter создает новый адаптер
func NewSnapshotConsumerAdapter(
	consumerCfg rabbitmq_consumer.ConsumerConfig,
	useCase usecases_port.ProcessSnapshotBatchUseCase,
	logger port.LoggerPort,
	connManager *rabbitmq_common.ConnectionManager,
) (*SnapshotConsumerAdapter, error) {
	adapter := &SnapshotConsumerAdapter{
		useCase: useCase,
		logger:  logger,
	}

	pkgLogger := logger.WithFields(port.Fields{"component": "rabbitmq_batch_consumer", "consumer_tag": consumerCfg.ConsumerTag})
	consumerCfg.Logger = NewPkgLoggerBridge(pkgLogger)

	consumer, err := rabbitmq_consumer.NewBatchConsumer(consumerCfg, adapter.batchMessageHandler, 10, 5*time.Second, connManager)
	if err != nil {
		return nil, fmt.Errorf("failed to create RabbitMQ consumer for listing snapshots: %w", err)
	}
	adapter.consumer = consumer

	return adapter, nil
}

// batchMessageHandler разбирает пачку сообщений, каждое из которых -
// отдельное событие с пакетом снимков.
func (a *SnapshotConsumerAdapter) batchMessageHandler(deliveries []amqp.Delivery) error {
	if len(deliveries) == 0 {
		return nil
	}

	traceID, _ := deliveries[0].Headers["x-trace-id"].(string)
	if traceID == "" {
		traceID = uuid.New().String()
	}

	batchLogger := a.logger.WithFields(port.Fields{
		"trace_id":     traceID,
		"batch_id":     uuid.New().String(),
		"batch_size":   len(deliveries),
		"adapter_name": "SnapshotConsumerAdapter",
	})

	ctx := context.Background()
	ctx = contextkeys.ContextWithLogger(ctx, batchLogger)
	ctx = contextkeys.ContextWithTraceID(ctx, traceID)

	batchLogger.Info("Received batch of snapshot events to process.", nil)

	for _, d := range deliveries {
		event, err := a.unmarshalEvent(d, batchLogger)
		if err != nil {
			// Плохое сообщение возвращает всю пачку в очередь,
			// после исчерпания ретраев оно попадет в DLX
			return err
		}

		if _, err := a.useCase.Execute(ctx, event.Source, event.Snapshots); err != nil {
			batchLogger.Error("Snapshot batch processing failed, batch will be requeued.", err, port.Fields{"source": event.Source})
			return err
		}
	}

	batchLogger.Info("Batch processed successfully.", nil)
	return nil
}

// unmarshalEvent проверяет сообщение по схеме и разбирает его в DTO
func (a *SnapshotConsumerAdapter) unmarshalEvent(d amqp.Delivery, parentLogger port.LoggerPort) (*SnapshotBatchEventDTO, error) {
	msgLogger := parentLogger.WithFields(port.Fields{
		"message_id":        d.MessageId,
		"original_trace_id": d.Headers["x-trace-id"],
	})

	eventType, _ := d.Headers["event-type"].(string)
	eventVersion, _ := d.Headers["event-version"].(string)
	if err := contracts.ValidateEvent(eventType, eventVersion, d.Body); err != nil {
		msgLogger.Error("Message failed schema validation. Rejecting.", err, nil)
		return nil, err
	}

	var dto SnapshotBatchEventDTO
	if err := json.Unmarshal(d.Body, &dto); err != nil {
		msgLogger.Error("Failed to unmarshal snapshot batch event.", err, nil)
		return nil, fmt.Errorf("failed to unmarshal %s: %w", constants.EventTypeListingSnapshotBatch, err)
	}

	return &dto, nil
}

// Start запускает потребление
func (a *SnapshotConsumerAdapter) Start(ctx context.Context) error {
	return a.consumer.StartConsuming(ctx)
}

// Close корректно останавливает потребителя
func (a *SnapshotConsumerAdapter) Close() error {
	return a.consumer.Close()
}
