package internal

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/fluent/fluent-logger-golang/fluent"
	"github.com/jackc/pgx/v5/pgxpool"

	logger_adapter "huizenzoeker/internal/adapters/logger"
	postgres_adapter "huizenzoeker/internal/adapters/postgres"
	rabbitmq_adapter "huizenzoeker/internal/adapters/rabbitmq"
	"huizenzoeker/internal/adapters/memstore"
	"huizenzoeker/internal/adapters/rest"
	"huizenzoeker/internal/adapters/scheduler"
	"huizenzoeker/internal/adapters/scrapers"
	"huizenzoeker/internal/adapters/telegram"
	"huizenzoeker/internal/configs"
	"huizenzoeker/internal/constants"
	"huizenzoeker/internal/core/domain"
	"huizenzoeker/internal/core/port"
	"huizenzoeker/internal/core/usecase"

	fluentlogger "huizenzoeker/pkg/fluent_logger"
	"huizenzoeker/pkg/postgres"
	"huizenzoeker/pkg/rabbitmq/rabbitmq_common"
	"huizenzoeker/pkg/rabbitmq/rabbitmq_consumer"
	"huizenzoeker/pkg/rabbitmq/rabbitmq_producer"
)

// App – структура приложения
type App struct {
	config       *configs.AppConfig
	dbPool       *pgxpool.Pool
	apiServer    *rest.Server
	scheduler    *scheduler.SchedulerAdapter
	fluentClient *fluent.Fluent
	logger       port.LoggerPort

	snapshotEventsListener      port.EventListenerPort
	scrapeCommandEventsListener port.EventListenerPort
	changesProducer             *rabbitmq_producer.Publisher
}

// NewApp создает новый экземпляр приложения.
// Это "Composition Root", где все зависимости создаются и связываются.
func NewApp() (*App, error) {
	appConfig, err := configs.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("error loading application configuration: %w", err)
	}

	// --- 1. ИНИЦИАЛИЗАЦИЯ ЛОГГЕРОВ ---
	var activeLoggers []port.LoggerPort

	slogCfg := logger_adapter.SlogConfig{
		Level:    parseLogLevel(appConfig.StdoutLogger.Level),
		IsJSON:   false, // текстовый формат
		UseColor: true,
	}
	stdoutLogger := logger_adapter.NewSlogAdapter(slogCfg)
	activeLoggers = append(activeLoggers, stdoutLogger)

	var fluentClient *fluent.Fluent
	if appConfig.FluentBit.Enabled {
		fluentClient, err = fluentlogger.NewClient(fluentlogger.Config{
			Host:      appConfig.FluentBit.Host,
			Port:      appConfig.FluentBit.Port,
			TagPrefix: appConfig.AppName,
		})
		if err != nil {
			stdoutLogger.Error("Failed to create fluentbit client", err, nil)
			return nil, fmt.Errorf("failed to create fluentbit client: %w", err)
		}

		fluentAdapter, err := logger_adapter.NewFluentLoggerAdapter(fluentClient, parseLogLevel(appConfig.FluentBit.Level))
		if err != nil {
			stdoutLogger.Error("Failed to create fluentbit adapter", err, nil)
			fluentClient.Close()
			return nil, err
		}
		activeLoggers = append(activeLoggers, fluentAdapter)
	}

	multiLogger, err := logger_adapter.NewMultiloggerAdapter(activeLoggers...)
	if err != nil {
		return nil, fmt.Errorf("failed to create multi-logger: %w", err)
	}

	// --- 2. БАЗОВЫЙ ЛОГГЕР ПРИЛОЖЕНИЯ ---
	baseLogger := multiLogger.WithFields(port.Fields{
		"service_name": appConfig.AppName,
	})

	appLogger := baseLogger.WithFields(port.Fields{"component": "app"})
	appLogger.Info("Logger system initialized", port.Fields{
		"active_loggers": len(activeLoggers), "fluent_enabled": appConfig.FluentBit.Enabled,
	})

	// --- 3. ХРАНИЛИЩЕ ---
	var listingStore port.ListingStorePort
	var dbPool *pgxpool.Pool

	switch appConfig.StoreDriver {
	case "postgres":
		dbPool, err = postgres.NewClient(context.Background(), postgres.Config{
			DatabaseURL: appConfig.Database.URL,
			MaxConns:    int32(appConfig.Database.MaxConns),
			ConnTimeout: time.Duration(appConfig.Database.ConnTimeout) * time.Second,
		})
		if err != nil {
			appLogger.Error("Failed to connect to PostgreSQL", err, nil)
			return nil, fmt.Errorf("failed to connect to PostgreSQL: %w", err)
		}
		appLogger.Info("Successfully connected to PostgreSQL pool!", nil)

		if err := postgres_adapter.EnsureSchema(context.Background(), dbPool); err != nil {
			appLogger.Error("Failed to ensure database schema", err, nil)
			dbPool.Close()
			return nil, fmt.Errorf("failed to ensure database schema: %w", err)
		}

		listingStore, err = postgres_adapter.NewListingStoreAdapter(dbPool)
		if err != nil {
			appLogger.Error("Failed to create postgres listing store adapter", err, nil)
			dbPool.Close()
			return nil, fmt.Errorf("failed to create postgres listing store adapter: %w", err)
		}
	case "memory":
		listingStore = memstore.NewListingStoreAdapter()
		appLogger.Warn("Using in-memory listing store, data will not survive a restart", nil)
	}
	appLogger.Info("Listing store initialized.", port.Fields{"driver": appConfig.StoreDriver})

	cleanupOnError := func() {
		if dbPool != nil {
			dbPool.Close()
		}
	}

	// --- 4. ИСХОДЯЩИЕ АДАПТЕРЫ ---
	var notifier port.ChangeNotifierPort
	telegramNotifier := telegram.NewNotifierAdapter(appConfig.Telegram.Token, appConfig.Telegram.ChatID, baseLogger)
	if telegramNotifier.Enabled() {
		notifier = telegramNotifier
		appLogger.Info("Telegram notifier initialized.", nil)
	} else {
		appLogger.Info("Telegram notifier is not configured, notifications disabled.", nil)
	}

	var publisher port.ResultPublisherPort
	var changesProducer *rabbitmq_producer.Publisher
	var connManager *rabbitmq_common.ConnectionManager

	if appConfig.RabbitMQ.Enabled {
		connManagerLogger := baseLogger.WithFields(port.Fields{"component": "rabbitmq_conn_manager"})
		connManager, err = rabbitmq_common.GetManager(appConfig.RabbitMQ.URL, rabbitmq_adapter.NewPkgLoggerBridge(connManagerLogger))
		if err != nil {
			appLogger.Error("Failed to create connection manager", err, nil)
			cleanupOnError()
			return nil, fmt.Errorf("failed to create connection manager: %w", err)
		}
		appLogger.Info("RabbitMQ Connection Manager initialized.", nil)

		producerLogger := baseLogger.WithFields(port.Fields{"component": "rabbitmq_producer"})
		producerCfg := rabbitmq_producer.PublisherConfig{
			Config:                   rabbitmq_common.Config{URL: appConfig.RabbitMQ.URL},
			ExchangeName:             constants.EventsExchange,
			ExchangeType:             constants.EventsExchangeType,
			DurableExchange:          true,
			DeclareExchangeIfMissing: true,

			Logger: rabbitmq_adapter.NewPkgLoggerBridge(producerLogger),
		}
		changesProducer, err = rabbitmq_producer.NewPublisher(producerCfg, connManager)
		if err != nil {
			appLogger.Error("Failed to create changes producer", err, nil)
			cleanupOnError()
			return nil, fmt.Errorf("failed to create changes producer: %w", err)
		}
		appLogger.Info("RabbitMQ Changes Producer initialized.", nil)

		publisher, err = rabbitmq_adapter.NewChangesPublisherAdapter(changesProducer, constants.RoutingKeyListingChanges)
		if err != nil {
			appLogger.Error("Failed to create changes publisher adapter", err, nil)
			cleanupOnError()
			return nil, err
		}
	}

	// --- 5. USE CASES ---
	processSnapshotBatchUseCase := usecase.NewProcessSnapshotBatchUseCase(listingStore, notifier, publisher)
	queryListingsUseCase := usecase.NewQueryListingsUseCase(listingStore)
	getListingDetailsUseCase := usecase.NewGetListingDetailsUseCase(listingStore)
	getRecentChangesUseCase := usecase.NewGetRecentChangesUseCase(listingStore)
	getSourceStatsUseCase := usecase.NewGetSourceStatsUseCase(listingStore)

	scrapeSites := appConfig.Scrape.Sites
	if len(scrapeSites) == 0 {
		scrapeSites = scrapers.KnownSites()
	}
	siteScrapers, unknownSites, err := scrapers.BuildScrapers(scrapeSites)
	if err != nil {
		appLogger.Error("Failed to build site scrapers", err, nil)
		cleanupOnError()
		return nil, fmt.Errorf("failed to build site scrapers: %w", err)
	}
	if len(unknownSites) > 0 {
		appLogger.Warn("Unknown scrape sites in configuration, skipping", port.Fields{"sites": strings.Join(unknownSites, ", ")})
	}

	scraperPorts := make([]port.ScraperPort, 0, len(siteScrapers))
	for _, s := range siteScrapers {
		scraperPorts = append(scraperPorts, s)
	}

	scrapeCriteria := domain.Criteria{
		MinPrice:      appConfig.Scrape.MinPrice,
		MaxPrice:      appConfig.Scrape.MaxPrice,
		MinArea:       appConfig.Scrape.MinArea,
		Cities:        appConfig.Scrape.Cities,
		PropertyTypes: appConfig.Scrape.PropertyTypes,
	}
	runScrapeJobUseCase := usecase.NewRunScrapeJobUseCase(scraperPorts, processSnapshotBatchUseCase, scrapeCriteria)

	appLogger.Info("All use cases initialized.", nil)

	// --- 6. ВХОДЯЩИЕ АДАПТЕРЫ ---
	var snapshotListener port.EventListenerPort
	var scrapeCommandListener port.EventListenerPort

	if appConfig.RabbitMQ.Enabled {
		snapshotConsumerCfg := rabbitmq_consumer.ConsumerConfig{
			Config:              rabbitmq_common.Config{URL: appConfig.RabbitMQ.URL},
			QueueName:           constants.QueueListingSnapshots,
			DurableQueue:        true,
			ExchangeNameForBind: constants.EventsExchange,
			RoutingKeyForBind:   constants.RoutingKeyListingSnapshots,
			PrefetchCount:       10,
			ConsumerTag:         "listing-snapshot-consumer",
			DeclareQueue:        true,

			EnableRetryMechanism: true,
			RetryExchange:        constants.RetryExchange,
			RetryQueue:           constants.RetryQueue,
			RetryTTL:             10000, // 10 секунд в миллисекундах

			FinalDLXExchange:   constants.FinalDLXExchange,
			FinalDLQ:           constants.FinalDLQ,
			FinalDLQRoutingKey: constants.FinalDLQRoutingKey,

			MaxRetries: 3,
		}
		snapshotListener, err = rabbitmq_adapter.NewSnapshotConsumerAdapter(snapshotConsumerCfg, processSnapshotBatchUseCase, baseLogger, connManager)
		if err != nil {
			appLogger.Error("Failed to create snapshot events listener", err, nil)
			cleanupOnError()
			return nil, err
		}
		appLogger.Info("Snapshot Events Listener initialized.", nil)

		scrapeCommandConsumerCfg := rabbitmq_consumer.ConsumerConfig{
			Config:              rabbitmq_common.Config{URL: appConfig.RabbitMQ.URL},
			QueueName:           constants.QueueScrapeCommands,
			DurableQueue:        true,
			ExchangeNameForBind: constants.EventsExchange,
			RoutingKeyForBind:   constants.RoutingKeyScrapeCommands,
			PrefetchCount:       1,
			ConsumerTag:         "scrape-command-consumer",
			DeclareQueue:        true,
		}
		scrapeCommandListener, err = rabbitmq_adapter.NewScrapeCommandConsumerAdapter(scrapeCommandConsumerCfg, runScrapeJobUseCase, baseLogger, connManager)
		if err != nil {
			appLogger.Error("Failed to create scrape command listener", err, nil)
			cleanupOnError()
			return nil, err
		}
		appLogger.Info("Scrape Command Listener initialized.", nil)
	}

	// REST API Server
	apiHandlers := rest.NewListingHandlers(queryListingsUseCase, getListingDetailsUseCase, getRecentChangesUseCase, getSourceStatsUseCase)
	apiServer := rest.NewServer(appConfig.Rest.PORT, apiHandlers, baseLogger)
	appLogger.Info("REST API server configured.", nil)

	// Планировщик периодического обхода
	jobScheduler := scheduler.NewSchedulerAdapter(appConfig.Scrape.Schedule, runScrapeJobUseCase, baseLogger)

	// 7. Собираем приложение
	application := &App{
		config:    appConfig,
		dbPool:    dbPool,
		apiServer: apiServer,
		scheduler: jobScheduler,

		snapshotEventsListener:      snapshotListener,
		scrapeCommandEventsListener: scrapeCommandListener,
		changesProducer:             changesProducer,

		fluentClient: fluentClient,
		logger:       appLogger,
	}

	return application, nil
}

// Run запускает все компоненты приложения и управляет их жизненным циклом.
func (a *App) Run() error {
	// Единый контекст приложения для graceful shutdown
	appCtx, cancelApp := context.WithCancel(context.Background())

	var wg sync.WaitGroup

	defer func() {
		a.logger.Info("Shutdown sequence initiated...", nil)

		if a.scheduler != nil {
			a.scheduler.Stop()
		}

		a.logger.Info("Waiting for background processes to finish...", nil)
		wg.Wait()
		a.logger.Info("All background processes finished.", nil)

		if a.apiServer != nil {
			if err := a.apiServer.Stop(context.Background()); err != nil {
				a.logger.Error("Error during API server shutdown", err, nil)
			}
		}

		if a.snapshotEventsListener != nil {
			if err := a.snapshotEventsListener.Close(); err != nil {
				a.logger.Error("Error closing snapshot events listener", err, nil)
			}
		}

		if a.scrapeCommandEventsListener != nil {
			if err := a.scrapeCommandEventsListener.Close(); err != nil {
				a.logger.Error("Error closing scrape command listener", err, nil)
			}
		}

		if a.changesProducer != nil {
			if err := a.changesProducer.Close(); err != nil {
				a.logger.Error("Error closing changes producer", err, nil)
			}
		}

		if a.dbPool != nil {
			a.dbPool.Close()
			a.logger.Info("PostgreSQL pool closed.", nil)
		}

		a.logger.Info("Application shut down gracefully.", nil)

		if a.fluentClient != nil {
			if err := a.fluentClient.Close(); err != nil {
				// Логируем в stdout, так как fluent может быть уже недоступен
				fmt.Printf("ERROR: Error closing fluent client: %v\n", err)
			}
		}
	}()

	a.logger.Info("Application is starting...", nil)

	errorsCh := make(chan error, 1)

	// Функция-хелпер для запуска слушателей
	startListener := func(name string, listener port.EventListenerPort) {
		defer wg.Done()
		listenerLogger := a.logger.WithFields(port.Fields{"listener_name": name})
		listenerLogger.Info("Starting listener...", nil)

		if err := listener.Start(appCtx); err != nil {
			listenerLogger.Error("Listener stopped with an unexpected error", err, nil)
			errorsCh <- fmt.Errorf("%s error: %w", name, err)
		} else {
			listenerLogger.Info("Listener stopped gracefully due to context cancellation.", nil)
		}
	}

	if a.snapshotEventsListener != nil {
		wg.Add(1)
		go startListener("Snapshot Events Listener", a.snapshotEventsListener)
	}
	if a.scrapeCommandEventsListener != nil {
		wg.Add(1)
		go startListener("Scrape Command Listener", a.scrapeCommandEventsListener)
	}

	if err := a.scheduler.Start(); err != nil {
		a.logger.Error("Failed to start scheduler", err, nil)
		cancelApp()
		return fmt.Errorf("failed to start scheduler: %w", err)
	}

	go func() {
		a.logger.Info("Starting HTTP server...", port.Fields{"port": a.config.Rest.PORT})
		if err := a.apiServer.Start(); err != nil && err != http.ErrServerClosed {
			errorsCh <- fmt.Errorf("failed to start HTTP server: %w", err)
		}
	}()

	// Ожидание сигнала на завершение или ошибки от одного из компонентов
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	a.logger.Info("Application running. Waiting for signals or server error...", nil)
	select {
	case receivedSignal := <-quit:
		a.logger.Warn("Received OS signal, shutting down...", port.Fields{"signal": receivedSignal.String()})
	case err := <-errorsCh:
		a.logger.Error("A critical component failed, shutting down", err, nil)
	case <-appCtx.Done():
		a.logger.Warn("Context was cancelled unexpectedly, shutting down...", nil)
	}

	// Инициируем graceful shutdown, отменяя главный контекст
	cancelApp()

	return nil
}

func parseLogLevel(levelStr string) slog.Level {
	switch strings.ToLower(levelStr) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		log.Printf("Warning: Unknown log level '%s'. Defaulting to 'info'.", levelStr)
		return slog.LevelInfo
	}
}
