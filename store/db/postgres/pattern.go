package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/hrygo/kaiwa/store"
)

func (d *DB) CreatePattern(ctx context.Context, create *store.Pattern) (*store.Pattern, error) {
	now := time.Now().Unix()
	if create.CreatedTs == 0 {
		create.CreatedTs = now
	}
	if create.UpdatedTs == 0 {
		create.UpdatedTs = now
	}

	fields := []string{
		"uid", "text", "scenario_id", "difficulty_level", "conversation_turn",
		"category", "keywords", "usage_count", "last_used_ts",
		"average_similarity", "created_ts", "updated_ts",
	}
	args := []any{
		create.UID, create.Text, create.ScenarioID, create.DifficultyLevel, create.ConversationTurn,
		create.Category, create.KeywordsJoined(), create.UsageCount, create.LastUsedTs,
		create.AverageSimilarity, create.CreatedTs, create.UpdatedTs,
	}

	stmt := `INSERT INTO pattern (` + strings.Join(fields, ", ") + `)
		VALUES (` + placeholders(len(args)) + `)
		RETURNING id`
	if err := d.db.QueryRowContext(ctx, stmt, args...).Scan(&create.ID); err != nil {
		return nil, fmt.Errorf("failed to create pattern: %w", err)
	}

	return create, nil
}

func (d *DB) ListPatterns(ctx context.Context, find *store.FindPattern) ([]*store.Pattern, error) {
	where, args := []string{"1 = 1"}, []any{}

	if find.ID != nil {
		where, args = append(where, "id = "+placeholder(len(args)+1)), append(args, *find.ID)
	}
	if find.UID != nil {
		where, args = append(where, "uid = "+placeholder(len(args)+1)), append(args, *find.UID)
	}
	if find.ScenarioID != nil {
		where, args = append(where, "scenario_id = "+placeholder(len(args)+1)), append(args, *find.ScenarioID)
	}
	if find.Text != nil {
		where, args = append(where, "text = "+placeholder(len(args)+1)), append(args, *find.Text)
	}
	if find.DifficultyLevel != nil {
		where, args = append(where, "difficulty_level = "+placeholder(len(args)+1)), append(args, *find.DifficultyLevel)
	}
	if find.ConversationTurn != nil {
		// 0 is the wildcard turn: such rows match every request.
		where, args = append(where, "conversation_turn IN (0, "+placeholder(len(args)+1)+")"), append(args, *find.ConversationTurn)
	}
	if find.Category != nil {
		where, args = append(where, "category = "+placeholder(len(args)+1)), append(args, *find.Category)
	}

	query := `
		SELECT
			id, uid, text, scenario_id, difficulty_level, conversation_turn,
			category, keywords, usage_count, last_used_ts,
			average_similarity, created_ts, updated_ts
		FROM pattern
		WHERE ` + strings.Join(where, " AND ")
	if find.OrderByUsage {
		query += " ORDER BY usage_count DESC, id ASC"
	} else {
		query += " ORDER BY id ASC"
	}
	if find.Limit != nil {
		query += " LIMIT " + placeholder(len(args)+1)
		args = append(args, *find.Limit)
	}

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list patterns: %w", err)
	}
	defer rows.Close()

	list := make([]*store.Pattern, 0)
	for rows.Next() {
		p := &store.Pattern{}
		var keywords string
		if err := rows.Scan(
			&p.ID,
			&p.UID,
			&p.Text,
			&p.ScenarioID,
			&p.DifficultyLevel,
			&p.ConversationTurn,
			&p.Category,
			&keywords,
			&p.UsageCount,
			&p.LastUsedTs,
			&p.AverageSimilarity,
			&p.CreatedTs,
			&p.UpdatedTs,
		); err != nil {
			return nil, fmt.Errorf("failed to scan pattern: %w", err)
		}
		p.Keywords = store.SplitKeywords(keywords)
		list = append(list, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate patterns: %w", err)
	}

	return list, nil
}

func (d *DB) GetPattern(ctx context.Context, find *store.FindPattern) (*store.Pattern, error) {
	limit := 1
	f := *find
	f.Limit = &limit
	list, err := d.ListPatterns(ctx, &f)
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, nil
	}
	return list[0], nil
}

func (d *DB) RecordPatternHit(ctx context.Context, id int64, similarity float64) error {
	now := time.Now().Unix()
	stmt := `
		UPDATE pattern
		SET
			usage_count = usage_count + 1,
			average_similarity = (average_similarity * usage_count + $1) / (usage_count + 1),
			last_used_ts = $2,
			updated_ts = $3
		WHERE id = $4`
	result, err := d.db.ExecContext(ctx, stmt, similarity, now, now, id)
	if err != nil {
		return fmt.Errorf("failed to record pattern hit: %w", err)
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("pattern %d not found", id)
	}
	return nil
}

func (d *DB) DeletePatterns(ctx context.Context, delete *store.DeletePattern) error {
	where, args := []string{"1 = 1"}, []any{}
	if delete.ID != nil {
		where, args = append(where, "id = "+placeholder(len(args)+1)), append(args, *delete.ID)
	}
	if delete.ScenarioID != nil {
		where, args = append(where, "scenario_id = "+placeholder(len(args)+1)), append(args, *delete.ScenarioID)
	}
	if len(args) == 0 {
		return fmt.Errorf("refusing to delete all patterns without a filter")
	}

	stmt := `DELETE FROM pattern WHERE ` + strings.Join(where, " AND ")
	if _, err := d.db.ExecContext(ctx, stmt, args...); err != nil {
		return fmt.Errorf("failed to delete patterns: %w", err)
	}
	return nil
}
