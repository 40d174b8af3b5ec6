package constants

// Имена очередей
const (
	QueueListingSnapshots = "listing_snapshots"
	QueueScrapeCommands   = "scrape_commands"
)

// Ключи маршрутизации
const (
	RoutingKeyListingSnapshots = "listings.snapshots.ingest"
	RoutingKeyScrapeCommands   = "listings.scrape.run"

	RoutingKeyListingChanges = "notify.listings.changes"
)

// Обменники
const (
	EventsExchange     = "listing_events"
	EventsExchangeType = "direct"
)

const (
	FinalDLXExchange   = "listing_snapshots_final_dlx"
	FinalDLQ           = "listing_snapshots_final_dlq"
	FinalDLQRoutingKey = "listings.dlq.key"

	RetryExchange = "listing_snapshots_retry"
	RetryQueue    = "listing_snapshots_retry_wait"
)

// Имена событий из схем
const (
	EventTypeListingSnapshotBatch = "ListingSnapshotBatchEvent"
	EventTypeListingChanges       = "ListingChangesEvent"
	EventVersionV1                = "1.0.0"
)
