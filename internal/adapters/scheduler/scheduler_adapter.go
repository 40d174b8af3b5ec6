package scheduler

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"

	"huizenzoeker/internal/contextkeys"
	"huizenzoeker/internal/core/port"
	"huizenzoeker/internal/core/port/usecases_port"
)

// SchedulerAdapter запускает обход источников по cron-расписанию.
type SchedulerAdapter struct {
	cron       *cron.Cron
	schedule   string
	runScrape  usecases_port.RunScrapeJobUseCase
	baseLogger port.LoggerPort
}

func NewSchedulerAdapter(schedule string, runScrape usecases_port.RunScrapeJobUseCase, baseLogger port.LoggerPort) *SchedulerAdapter {
	return &SchedulerAdapter{
		cron:       cron.New(),
		schedule:   schedule,
		runScrape:  runScrape,
		baseLogger: baseLogger,
	}
}

// Start регистрирует задачу и запускает планировщик.
// Каждый запуск получает собственный trace_id.
func (s *SchedulerAdapter) Start() error {
	_, err := s.cron.AddFunc(s.schedule, func() {
		traceID := uuid.New().String()
		logger := s.baseLogger.WithFields(port.Fields{"trace_id": traceID})

		ctx := context.Background()
		ctx = contextkeys.ContextWithLogger(ctx, logger)
		ctx = contextkeys.ContextWithTraceID(ctx, traceID)

		logger.Info("Scheduled scrape job started", nil)
		start := time.Now()

		results, err := s.runScrape.Execute(ctx)
		if err != nil {
			logger.Error("Scheduled scrape job failed", err, nil)
			return
		}

		logger.Info("Scheduled scrape job finished", port.Fields{
			"sources":     len(results),
			"duration_ms": time.Since(start).Milliseconds(),
		})
	})
	if err != nil {
		return err
	}

	s.cron.Start()
	s.baseLogger.Info("Scheduler started", port.Fields{"schedule": s.schedule})
	return nil
}

// Stop останавливает планировщик и ждёт завершения текущего запуска.
func (s *SchedulerAdapter) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.baseLogger.Info("Scheduler stopped", nil)
}
