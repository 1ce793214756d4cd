package postgres

import (
	"context"
	"fmt"
)

const latestSchema = `
CREATE TABLE IF NOT EXISTS pattern (
	id BIGSERIAL PRIMARY KEY,
	uid TEXT NOT NULL UNIQUE,
	text TEXT NOT NULL,
	scenario_id TEXT NOT NULL,
	difficulty_level INTEGER NOT NULL DEFAULT 1,
	conversation_turn INTEGER NOT NULL DEFAULT 0,
	category TEXT NOT NULL DEFAULT '',
	keywords TEXT NOT NULL DEFAULT '',
	usage_count BIGINT NOT NULL DEFAULT 0,
	last_used_ts BIGINT NOT NULL DEFAULT 0,
	average_similarity DOUBLE PRECISION NOT NULL DEFAULT 0,
	created_ts BIGINT NOT NULL,
	updated_ts BIGINT NOT NULL,
	UNIQUE(scenario_id, difficulty_level, text)
);

CREATE INDEX IF NOT EXISTS idx_pattern_scenario
	ON pattern (scenario_id, difficulty_level, usage_count);

CREATE TABLE IF NOT EXISTS cached_response (
	id BIGSERIAL PRIMARY KEY,
	uid TEXT NOT NULL UNIQUE,
	pattern_id BIGINT NOT NULL REFERENCES pattern (id) ON DELETE CASCADE,
	response_text TEXT NOT NULL,
	variation INTEGER NOT NULL DEFAULT 1,
	complexity_score INTEGER NOT NULL DEFAULT 1,
	usage_count BIGINT NOT NULL DEFAULT 0,
	last_used_ts BIGINT NOT NULL DEFAULT 0,
	is_verified BOOLEAN NOT NULL DEFAULT FALSE,
	generated_by_llm BOOLEAN NOT NULL DEFAULT FALSE,
	created_ts BIGINT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_cached_response_pattern
	ON cached_response (pattern_id, usage_count);

CREATE TABLE IF NOT EXISTS cache_analytics (
	id BIGSERIAL PRIMARY KEY,
	date TEXT NOT NULL,
	user_id TEXT NOT NULL DEFAULT '',
	scenario_id TEXT NOT NULL DEFAULT '',
	cache_hits BIGINT NOT NULL DEFAULT 0,
	cache_misses BIGINT NOT NULL DEFAULT 0,
	external_calls BIGINT NOT NULL DEFAULT 0,
	average_similarity_score DOUBLE PRECISION NOT NULL DEFAULT 0,
	average_response_time_ms DOUBLE PRECISION NOT NULL DEFAULT 0,
	tokens_saved BIGINT NOT NULL DEFAULT 0,
	estimated_cost_saved DOUBLE PRECISION NOT NULL DEFAULT 0,
	created_ts BIGINT NOT NULL,
	UNIQUE(date, user_id, scenario_id)
);

CREATE INDEX IF NOT EXISTS idx_cache_analytics_date
	ON cache_analytics (date);
`

func (d *DB) Migrate(ctx context.Context) error {
	if _, err := d.db.ExecContext(ctx, latestSchema); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return nil
}
