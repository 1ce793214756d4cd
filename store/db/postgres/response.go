package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/hrygo/kaiwa/store"
)

func (d *DB) CreateCachedResponse(ctx context.Context, create *store.CachedResponse) (*store.CachedResponse, error) {
	if create.CreatedTs == 0 {
		create.CreatedTs = time.Now().Unix()
	}

	fields := []string{
		"uid", "pattern_id", "response_text", "variation", "complexity_score",
		"usage_count", "last_used_ts", "is_verified", "generated_by_llm", "created_ts",
	}
	args := []any{
		create.UID, create.PatternID, create.ResponseText, create.Variation, create.ComplexityScore,
		create.UsageCount, create.LastUsedTs, create.IsVerified, create.GeneratedByLLM, create.CreatedTs,
	}

	stmt := `INSERT INTO cached_response (` + strings.Join(fields, ", ") + `)
		VALUES (` + placeholders(len(args)) + `)
		RETURNING id`
	if err := d.db.QueryRowContext(ctx, stmt, args...).Scan(&create.ID); err != nil {
		return nil, fmt.Errorf("failed to create cached response: %w", err)
	}

	return create, nil
}

func (d *DB) ListCachedResponses(ctx context.Context, find *store.FindCachedResponse) ([]*store.CachedResponse, error) {
	where, args := []string{"1 = 1"}, []any{}

	if find.ID != nil {
		where, args = append(where, "id = "+placeholder(len(args)+1)), append(args, *find.ID)
	}
	if find.PatternID != nil {
		where, args = append(where, "pattern_id = "+placeholder(len(args)+1)), append(args, *find.PatternID)
	}

	query := `
		SELECT
			id, uid, pattern_id, response_text, variation, complexity_score,
			usage_count, last_used_ts, is_verified, generated_by_llm, created_ts
		FROM cached_response
		WHERE ` + strings.Join(where, " AND ") + `
		ORDER BY id ASC`
	if find.Limit != nil {
		query += " LIMIT " + placeholder(len(args)+1)
		args = append(args, *find.Limit)
	}

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list cached responses: %w", err)
	}
	defer rows.Close()

	list := make([]*store.CachedResponse, 0)
	for rows.Next() {
		r := &store.CachedResponse{}
		if err := rows.Scan(
			&r.ID,
			&r.UID,
			&r.PatternID,
			&r.ResponseText,
			&r.Variation,
			&r.ComplexityScore,
			&r.UsageCount,
			&r.LastUsedTs,
			&r.IsVerified,
			&r.GeneratedByLLM,
			&r.CreatedTs,
		); err != nil {
			return nil, fmt.Errorf("failed to scan cached response: %w", err)
		}
		list = append(list, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate cached responses: %w", err)
	}

	return list, nil
}

func (d *DB) PickLeastUsedResponse(ctx context.Context, patternID int64) (*store.CachedResponse, error) {
	query := `
		SELECT
			id, uid, pattern_id, response_text, variation, complexity_score,
			usage_count, last_used_ts, is_verified, generated_by_llm, created_ts
		FROM cached_response
		WHERE pattern_id = $1
		ORDER BY usage_count ASC, created_ts ASC, id ASC
		LIMIT 1`

	r := &store.CachedResponse{}
	err := d.db.QueryRowContext(ctx, query, patternID).Scan(
		&r.ID,
		&r.UID,
		&r.PatternID,
		&r.ResponseText,
		&r.Variation,
		&r.ComplexityScore,
		&r.UsageCount,
		&r.LastUsedTs,
		&r.IsVerified,
		&r.GeneratedByLLM,
		&r.CreatedTs,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to pick least used response: %w", err)
	}
	return r, nil
}

func (d *DB) RecordResponseUse(ctx context.Context, id int64) error {
	stmt := `
		UPDATE cached_response
		SET usage_count = usage_count + 1, last_used_ts = $1
		WHERE id = $2`
	if _, err := d.db.ExecContext(ctx, stmt, time.Now().Unix(), id); err != nil {
		return fmt.Errorf("failed to record response use: %w", err)
	}
	return nil
}
