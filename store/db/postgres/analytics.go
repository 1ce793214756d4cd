package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/hrygo/kaiwa/store"
)

func (d *DB) GetAnalyticsRecord(ctx context.Context, find *store.FindAnalyticsRecord) (*store.AnalyticsRecord, error) {
	list, err := d.ListAnalyticsRecords(ctx, find)
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, nil
	}
	return list[0], nil
}

func (d *DB) UpsertAnalyticsRecord(ctx context.Context, upsert *store.AnalyticsRecord) (*store.AnalyticsRecord, error) {
	if upsert.CreatedTs == 0 {
		upsert.CreatedTs = time.Now().Unix()
	}

	fields := []string{
		"date", "user_id", "scenario_id", "cache_hits", "cache_misses",
		"external_calls", "average_similarity_score", "average_response_time_ms",
		"tokens_saved", "estimated_cost_saved", "created_ts",
	}
	args := []any{
		upsert.Date, upsert.UserID, upsert.ScenarioID, upsert.CacheHits, upsert.CacheMisses,
		upsert.ExternalCalls, upsert.AverageSimilarityScore, upsert.AverageResponseTimeMs,
		upsert.TokensSaved, upsert.EstimatedCostSaved, upsert.CreatedTs,
	}

	// Counter arithmetic happens in the aggregator; the conflict branch
	// just overwrites with the caller's values.
	stmt := `INSERT INTO cache_analytics (` + strings.Join(fields, ", ") + `)
		VALUES (` + placeholders(len(args)) + `)
		ON CONFLICT (date, user_id, scenario_id) DO UPDATE SET
			cache_hits = EXCLUDED.cache_hits,
			cache_misses = EXCLUDED.cache_misses,
			external_calls = EXCLUDED.external_calls,
			average_similarity_score = EXCLUDED.average_similarity_score,
			average_response_time_ms = EXCLUDED.average_response_time_ms,
			tokens_saved = EXCLUDED.tokens_saved,
			estimated_cost_saved = EXCLUDED.estimated_cost_saved
		RETURNING id`
	if err := d.db.QueryRowContext(ctx, stmt, args...).Scan(&upsert.ID); err != nil {
		return nil, fmt.Errorf("failed to upsert analytics record: %w", err)
	}

	return upsert, nil
}

func (d *DB) ListAnalyticsRecords(ctx context.Context, find *store.FindAnalyticsRecord) ([]*store.AnalyticsRecord, error) {
	where, args := []string{"1 = 1"}, []any{}

	if find.UserID != nil {
		where, args = append(where, "user_id = "+placeholder(len(args)+1)), append(args, *find.UserID)
	}
	if find.ScenarioID != nil {
		where, args = append(where, "scenario_id = "+placeholder(len(args)+1)), append(args, *find.ScenarioID)
	}
	if find.Date != nil {
		where, args = append(where, "date = "+placeholder(len(args)+1)), append(args, *find.Date)
	}
	if find.SinceDate != nil {
		// Dates are YYYY-MM-DD, so string comparison orders correctly.
		where, args = append(where, "date >= "+placeholder(len(args)+1)), append(args, *find.SinceDate)
	}

	query := `
		SELECT
			id, date, user_id, scenario_id, cache_hits, cache_misses,
			external_calls, average_similarity_score, average_response_time_ms,
			tokens_saved, estimated_cost_saved, created_ts
		FROM cache_analytics
		WHERE ` + strings.Join(where, " AND ") + `
		ORDER BY date DESC, id ASC`

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list analytics records: %w", err)
	}
	defer rows.Close()

	list := make([]*store.AnalyticsRecord, 0)
	for rows.Next() {
		r := &store.AnalyticsRecord{}
		if err := rows.Scan(
			&r.ID,
			&r.Date,
			&r.UserID,
			&r.ScenarioID,
			&r.CacheHits,
			&r.CacheMisses,
			&r.ExternalCalls,
			&r.AverageSimilarityScore,
			&r.AverageResponseTimeMs,
			&r.TokensSaved,
			&r.EstimatedCostSaved,
			&r.CreatedTs,
		); err != nil {
			return nil, fmt.Errorf("failed to scan analytics record: %w", err)
		}
		list = append(list, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate analytics records: %w", err)
	}

	return list, nil
}
