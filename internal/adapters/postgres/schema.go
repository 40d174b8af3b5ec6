package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// schemaSQL создает таблицы при старте сервиса. seq задаёт порядок вставки,
// история append-only и не имеет UPDATE/DELETE путей в коде.
const schemaSQL = `
CREATE TABLE IF NOT EXISTS listings (
    id            TEXT PRIMARY KEY,
    source        TEXT NOT NULL,
    url           TEXT NOT NULL DEFAULT '',
    address       TEXT NOT NULL DEFAULT '',
    city          TEXT NOT NULL DEFAULT '',
    property_type TEXT NOT NULL DEFAULT '',
    price         BIGINT NOT NULL,
    area          INT,
    rooms         INT,
    extra         JSONB NOT NULL DEFAULT '{}'::jsonb,
    first_seen    TIMESTAMPTZ NOT NULL,
    last_seen     TIMESTAMPTZ NOT NULL,
    last_updated  TIMESTAMPTZ NOT NULL,
    active        BOOLEAN NOT NULL DEFAULT TRUE,
    seq           BIGSERIAL
);

CREATE INDEX IF NOT EXISTS idx_listings_source_active ON listings (source, active);
CREATE INDEX IF NOT EXISTS idx_listings_city ON listings (lower(city));

CREATE TABLE IF NOT EXISTS listing_history (
    id          BIGSERIAL PRIMARY KEY,
    listing_id  TEXT NOT NULL REFERENCES listings(id),
    source      TEXT NOT NULL,
    change_kind TEXT NOT NULL,
    field       TEXT NOT NULL DEFAULT '',
    old_value   TEXT NOT NULL DEFAULT '',
    new_value   TEXT NOT NULL DEFAULT '',
    created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_history_listing_time ON listing_history (listing_id, created_at DESC);
CREATE INDEX IF NOT EXISTS idx_history_time ON listing_history (created_at DESC);
`

// EnsureSchema применяет схему идемпотентно.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("failed to ensure schema: %w", err)
	}
	return nil
}
