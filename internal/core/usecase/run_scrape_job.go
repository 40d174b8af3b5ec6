package usecase

import (
	"context"

	"huizenzoeker/internal/contextkeys"
	"huizenzoeker/internal/core/domain"
	"huizenzoeker/internal/core/port"
	"huizenzoeker/internal/core/port/usecases_port"
)

// RunScrapeJobUseCase - один полный цикл: опросить все сайты, сузить снимки
// критериями и прогнать каждый пакет через обработку изменений.
type RunScrapeJobUseCase struct {
	scrapers  []port.ScraperPort
	processor usecases_port.ProcessSnapshotBatchUseCase
	criteria  domain.Criteria
}

func NewRunScrapeJobUseCase(
	scrapers []port.ScraperPort,
	processor usecases_port.ProcessSnapshotBatchUseCase,
	criteria domain.Criteria,
) *RunScrapeJobUseCase {
	return &RunScrapeJobUseCase{
		scrapers:  scrapers,
		processor: processor,
		criteria:  criteria,
	}
}

// Execute опрашивает источники последовательно. Ошибка одного сайта не
// прерывает остальные; упавший сайт пропускается целиком, без зачистки.
func (uc *RunScrapeJobUseCase) Execute(ctx context.Context) ([]domain.BatchResult, error) {
	logger := contextkeys.LoggerFromContext(ctx)
	ucLogger := logger.WithFields(port.Fields{"use_case": "RunScrapeJob", "scraper_count": len(uc.scrapers)})

	ucLogger.Info("Use case started: scrape job", nil)

	results := make([]domain.BatchResult, 0, len(uc.scrapers))
	for _, scraper := range uc.scrapers {
		scraperLogger := ucLogger.WithFields(port.Fields{"source": scraper.Name()})

		snapshots, err := scraper.FetchBatch(ctx, uc.criteria)
		if err != nil {
			scraperLogger.Error("Scraper failed, skipping source this run", err, nil)
			continue
		}

		filtered := domain.FilterSnapshots(snapshots, uc.criteria)
		scraperLogger.Info("Scraper returned snapshots", port.Fields{
			"fetched":  len(snapshots),
			"filtered": len(filtered),
		})

		result, err := uc.processor.Execute(ctx, scraper.Name(), filtered)
		if err != nil {
			scraperLogger.Error("Batch processing failed", err, nil)
			continue
		}
		results = append(results, *result)
	}

	ucLogger.Info("Use case finished: scrape job", port.Fields{"batch_count": len(results)})
	return results, nil
}
