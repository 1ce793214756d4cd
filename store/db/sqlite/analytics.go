package sqlite

import (
	"context"
	"strings"
	"time"

	"github.com/pkg/errors"

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

	// Counter arithmetic happens in the aggregator; the conflict branch
	// just overwrites with the caller's values.
	stmt := `
		INSERT INTO cache_analytics (
			date, user_id, scenario_id, cache_hits, cache_misses,
			external_calls, average_similarity_score, average_response_time_ms,
			tokens_saved, estimated_cost_saved, created_ts
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(date, user_id, scenario_id) DO UPDATE SET
			cache_hits = excluded.cache_hits,
			cache_misses = excluded.cache_misses,
			external_calls = excluded.external_calls,
			average_similarity_score = excluded.average_similarity_score,
			average_response_time_ms = excluded.average_response_time_ms,
			tokens_saved = excluded.tokens_saved,
			estimated_cost_saved = excluded.estimated_cost_saved
		RETURNING id`
	if err := d.db.QueryRowContext(ctx, stmt,
		upsert.Date,
		upsert.UserID,
		upsert.ScenarioID,
		upsert.CacheHits,
		upsert.CacheMisses,
		upsert.ExternalCalls,
		upsert.AverageSimilarityScore,
		upsert.AverageResponseTimeMs,
		upsert.TokensSaved,
		upsert.EstimatedCostSaved,
		upsert.CreatedTs,
	).Scan(&upsert.ID); err != nil {
		return nil, errors.Wrap(err, "failed to upsert analytics record")
	}

	return upsert, nil
}

func (d *DB) ListAnalyticsRecords(ctx context.Context, find *store.FindAnalyticsRecord) ([]*store.AnalyticsRecord, error) {
	where, args := []string{"1 = 1"}, []any{}

	if find.UserID != nil {
		where, args = append(where, "user_id = ?"), append(args, *find.UserID)
	}
	if find.ScenarioID != nil {
		where, args = append(where, "scenario_id = ?"), append(args, *find.ScenarioID)
	}
	if find.Date != nil {
		where, args = append(where, "date = ?"), append(args, *find.Date)
	}
	if find.SinceDate != nil {
		// Dates are YYYY-MM-DD, so string comparison orders correctly.
		where, args = append(where, "date >= ?"), append(args, *find.SinceDate)
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
		return nil, errors.Wrap(err, "failed to list analytics records")
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
			return nil, errors.Wrap(err, "failed to scan analytics record")
		}
		list = append(list, r)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to iterate analytics records")
	}

	return list, nil
}
