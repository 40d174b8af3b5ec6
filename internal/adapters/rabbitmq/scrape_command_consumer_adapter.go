package rabbitmq

import (
	"context"
	"fmt"

	"huizenzoeker/internal/contextkeys"
	"huizenzoeker/internal/core/port"
	"huizenzoeker/internal/core/port/usecases_port"
	"huizenzoeker/pkg/rabbitmq/rabbitmq_common"
	"huizenzoeker/pkg/rabbitmq/rabbitmq_consumer"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
)

// ScrapeCommandConsumerAdapter слушает очередь команд и запускает
// внеочередной цикл опроса сайтов. Тело сообщения не используется,
// сам факт сообщения - команда.
type ScrapeCommandConsumerAdapter struct {
	consumer *rabbitmq_consumer.DistributingConsumer
	useCase  usecases_port.RunScrapeJobUseCase
	logger   port.LoggerPort
}

// NewScrapeCommandConsumerAdapter создает новый адаптер
func NewScrapeCommandConsumerAdapter(
	consumerCfg rabbitmq_consumer.ConsumerConfig,
	useCase usecases_port.RunScrapeJobUseCase,
	logger port.LoggerPort,
	connManager *rabbitmq_common.ConnectionManager,
) (*ScrapeCommandConsumerAdapter, error) {
	adapter := &ScrapeCommandConsumerAdapter{
		useCase: useCase,
		logger:  logger,
	}

	pkgLogger := logger.WithFields(port.Fields{"component": "rabbitmq_command_consumer", "consumer_tag": consumerCfg.ConsumerTag})
	consumerCfg.Logger = NewPkgLoggerBridge(pkgLogger)

	consumer, err := rabbitmq_consumer.NewDistributingConsumer(consumerCfg, adapter.messageHandler, connManager)
	if err != nil {
		return nil, fmt.Errorf("failed to create RabbitMQ consumer for scrape commands: %w", err)
	}
	adapter.consumer = consumer

	return adapter, nil
}

func (a *ScrapeCommandConsumerAdapter) messageHandler(d amqp.Delivery) error {
	traceID, _ := d.Headers["x-trace-id"].(string)
	if traceID == "" {
		traceID = uuid.New().String()
	}

	cmdLogger := a.logger.WithFields(port.Fields{
		"trace_id":     traceID,
		"adapter_name": "ScrapeCommandConsumerAdapter",
		"message_id":   d.MessageId,
	})

	ctx := context.Background()
	ctx = contextkeys.ContextWithLogger(ctx, cmdLogger)
	ctx = contextkeys.ContextWithTraceID(ctx, traceID)

	cmdLogger.Info("Received scrape command.", nil)

	if _, err := a.useCase.Execute(ctx); err != nil {
		cmdLogger.Error("Scrape job failed.", err, nil)
		return err
	}

	cmdLogger.Info("Scrape command processed.", nil)
	return nil
}

// Start запускает потребление
func (a *ScrapeCommandConsumerAdapter) Start(ctx context.Context) error {
	return a.consumer.StartConsuming(ctx)
}

// Close корректно останавливает потребителя
func (a *ScrapeCommandConsumerAdapter) Close() error {
	return a.consumer.Close()
}
