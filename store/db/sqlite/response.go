package sqlite

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/hrygo/kaiwa/store"
)

func (d *DB) CreateCachedResponse(ctx context.Context, create *store.CachedResponse) (*store.CachedResponse, error) {
	if create.CreatedTs == 0 {
		create.CreatedTs = time.Now().Unix()
	}

	stmt := `
		INSERT INTO cached_response (
			uid, pattern_id, response_text, variation, complexity_score,
			usage_count, last_used_ts, is_verified, generated_by_llm, created_ts
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING id`
	if err := d.db.QueryRowContext(ctx, stmt,
		create.UID,
		create.PatternID,
		create.ResponseText,
		create.Variation,
		create.ComplexityScore,
		create.UsageCount,
		create.LastUsedTs,
		create.IsVerified,
		create.GeneratedByLLM,
		create.CreatedTs,
	).Scan(&create.ID); err != nil {
		return nil, errors.Wrap(err, "failed to create cached response")
	}

	return create, nil
}

func (d *DB) ListCachedResponses(ctx context.Context, find *store.FindCachedResponse) ([]*store.CachedResponse, error) {
	where, args := []string{"1 = 1"}, []any{}

	if find.ID != nil {
		where, args = append(where, "id = ?"), append(args, *find.ID)
	}
	if find.PatternID != nil {
		where, args = append(where, "pattern_id = ?"), append(args, *find.PatternID)
	}

	query := `
		SELECT
			id, uid, pattern_id, response_text, variation, complexity_score,
			usage_count, last_used_ts, is_verified, generated_by_llm, created_ts
		FROM cached_response
		WHERE ` + strings.Join(where, " AND ") + `
		ORDER BY id ASC`
	if find.Limit != nil {
		query += " LIMIT ?"
		args = append(args, *find.Limit)
	}

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list cached responses")
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
			return nil, errors.Wrap(err, "failed to scan cached response")
		}
		list = append(list, r)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to iterate cached responses")
	}

	return list, nil
}

func (d *DB) PickLeastUsedResponse(ctx context.Context, patternID int64) (*store.CachedResponse, error) {
	query := `
		SELECT
			id, uid, pattern_id, response_text, variation, complexity_score,
			usage_count, last_used_ts, is_verified, generated_by_llm, created_ts
		FROM cached_response
		WHERE pattern_id = ?
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
		return nil, errors.Wrap(err, "failed to pick least used response")
	}
	return r, nil
}

func (d *DB) RecordResponseUse(ctx context.Context, id int64) error {
	stmt := `
		UPDATE cached_response
		SET usage_count = usage_count + 1, last_used_ts = ?
		WHERE id = ?`
	if _, err := d.db.ExecContext(ctx, stmt, time.Now().Unix(), id); err != nil {
		return errors.Wrap(err, "failed to record response use")
	}
	return nil
}
