package usecase

import (
	"context"
	"fmt"

	"huizenzoeker/internal/contextkeys"
	"huizenzoeker/internal/core/domain"
	"huizenzoeker/internal/core/port"
)

// ProcessSnapshotBatchUseCase инкапсулирует обработку одного пакета снимков
// от источника: upsert каждого снимка, затем деактивация пропавших записей.
type ProcessSnapshotBatchUseCase struct {
	store     port.ListingStorePort
	notifier  port.ChangeNotifierPort
	publisher port.ResultPublisherPort
}

// NewProcessSnapshotBatchUseCase создает новый экземпляр use case.
// notifier и publisher могут быть nil, тогда итог никуда не рассылается.
func NewProcessSnapshotBatchUseCase(
	store port.ListingStorePort,
	notifier port.ChangeNotifierPort,
	publisher port.ResultPublisherPort,
) *ProcessSnapshotBatchUseCase {
	return &ProcessSnapshotBatchUseCase{
		store:     store,
		notifier:  notifier,
		publisher: publisher,
	}
}

// Execute прогоняет пакет через хранилище и возвращает итог {new, updated, removed}.
// Ошибки отдельных снимков не прерывают пакет и попадают в result.Failed.
// В seen-идентификаторы входят только успешно сохранённые снимки.
func (uc *ProcessSnapshotBatchUseCase) Execute(ctx context.Context, source string, snapshots []domain.Snapshot) (*domain.BatchResult, error) {
	logger := contextkeys.LoggerFromContext(ctx)
	ucLogger := logger.WithFields(port.Fields{
		"use_case":       "ProcessSnapshotBatch",
		"source":         source,
		"snapshot_count": len(snapshots),
	})

	ucLogger.Info("Use case started: processing snapshot batch", nil)

	result := &domain.BatchResult{Source: source}
	seenIDs := make([]string, 0, len(snapshots))

	for _, snapshot := range snapshots {
		snapshot.Source = source

		if err := snapshot.Validate(); err != nil {
			ucLogger.Warn("Skipping malformed snapshot", port.Fields{"id": snapshot.ID, "reason": err.Error()})
			result.Failed = append(result.Failed, domain.SnapshotFailure{ID: snapshot.ID, Reason: err.Error()})
			continue
		}

		upsert, err := uc.store.Upsert(ctx, snapshot)
		if err != nil {
			ucLogger.Error("Storage returned an error during upsert", err, port.Fields{"id": snapshot.ID})
			result.Failed = append(result.Failed, domain.SnapshotFailure{ID: snapshot.ID, Reason: err.Error()})
			continue
		}

		seenIDs = append(seenIDs, snapshot.ID)

		if upsert.Status == domain.UpsertUnchanged {
			continue
		}

		// Снимок уже сохранён и учтён в seenIDs. Сбой чтения портит только
		// отчёт по этой записи, остальной пакет продолжается.
		listing, err := uc.store.Get(ctx, snapshot.ID)
		if err != nil {
			ucLogger.Error("Storage returned an error during readback", err, port.Fields{"id": snapshot.ID})
			result.Failed = append(result.Failed, domain.SnapshotFailure{ID: snapshot.ID, Reason: err.Error()})
			continue
		}

		switch upsert.Status {
		case domain.UpsertCreated:
			result.New = append(result.New, listing)
		case domain.UpsertUpdated:
			result.Updated = append(result.Updated, domain.UpdatedListing{Listing: listing, Diffs: upsert.Diffs})
		}
	}

	removedIDs, err := uc.store.DeactivateMissing(ctx, seenIDs, source)
	if err != nil {
		ucLogger.Error("Storage returned an error during deactivation sweep", err, nil)
		return nil, fmt.Errorf("failed to deactivate missing listings for source %s: %w", source, err)
	}

	if len(removedIDs) > 0 {
		removed, err := uc.store.GetMany(ctx, removedIDs)
		if err != nil {
			return nil, fmt.Errorf("failed to load deactivated listings: %w", err)
		}
		result.Removed = removed
	}

	ucLogger.Info("Use case finished: batch processed", port.Fields{
		"new":     len(result.New),
		"updated": len(result.Updated),
		"removed": len(result.Removed),
		"failed":  len(result.Failed),
	})

	uc.fanOut(ctx, ucLogger, result)

	return result, nil
}

// fanOut рассылает непустой итог в сконфигурированные каналы.
// Ошибки рассылки только логируются, пакет к этому моменту уже сохранён.
func (uc *ProcessSnapshotBatchUseCase) fanOut(ctx context.Context, logger port.LoggerPort, result *domain.BatchResult) {
	if result.Empty() {
		return
	}

	if uc.notifier != nil {
		if err := uc.notifier.Notify(ctx, *result); err != nil {
			logger.Error("Failed to send change notification", err, nil)
		}
	}

	if uc.publisher != nil {
		if err := uc.publisher.PublishBatchResult(ctx, *result); err != nil {
			logger.Error("Failed to publish batch result", err, nil)
		}
	}
}
