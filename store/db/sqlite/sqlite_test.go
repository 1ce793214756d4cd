package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hrygo/kaiwa/internal/profile"
	"github.com/hrygo/kaiwa/store"
)

func newTestDriver(t *testing.T) store.Driver {
	t.Helper()
	driver, err := NewDB(&profile.Profile{
		Driver: "sqlite",
		DSN:    filepath.Join(t.TempDir(), "kaiwa_test.db"),
	})
	require.NoError(t, err)
	require.NoError(t, driver.Migrate(context.Background()))
	t.Cleanup(func() { _ = driver.Close() })
	return driver
}

func createPattern(t *testing.T, driver store.Driver, p *store.Pattern) *store.Pattern {
	t.Helper()
	if p.UID == "" {
		p.UID = p.Text + "-uid"
	}
	created, err := driver.CreatePattern(context.Background(), p)
	require.NoError(t, err)
	require.NotZero(t, created.ID)
	return created
}

func TestPatternCRUD(t *testing.T) {
	ctx := context.Background()
	driver := newTestDriver(t)

	created := createPattern(t, driver, &store.Pattern{
		Text:             "こんにちは",
		ScenarioID:       "greeting",
		DifficultyLevel:  1,
		ConversationTurn: 1,
		Category:         "seed",
		Keywords:         []string{"こんにちは"},
		UsageCount:       1,
	})

	got, err := driver.GetPattern(ctx, &store.FindPattern{ID: &created.ID})
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "こんにちは", got.Text)
	assert.Equal(t, []string{"こんにちは"}, got.Keywords)
	assert.NotZero(t, got.CreatedTs)

	missingUID := "no-such-uid"
	got, err = driver.GetPattern(ctx, &store.FindPattern{UID: &missingUID})
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestPatternUniqueExemplar(t *testing.T) {
	ctx := context.Background()
	driver := newTestDriver(t)

	createPattern(t, driver, &store.Pattern{
		Text: "はじめまして", ScenarioID: "greeting", DifficultyLevel: 1, UID: "a",
	})
	_, err := driver.CreatePattern(ctx, &store.Pattern{
		Text: "はじめまして", ScenarioID: "greeting", DifficultyLevel: 1, UID: "b",
	})
	assert.Error(t, err)

	// Same text at a different difficulty is a distinct row.
	createPattern(t, driver, &store.Pattern{
		Text: "はじめまして", ScenarioID: "greeting", DifficultyLevel: 2, UID: "c",
	})
}

func TestListPatternsWildcardTurn(t *testing.T) {
	ctx := context.Background()
	driver := newTestDriver(t)

	createPattern(t, driver, &store.Pattern{Text: "a", ScenarioID: "s", DifficultyLevel: 1, ConversationTurn: 0})
	createPattern(t, driver, &store.Pattern{Text: "b", ScenarioID: "s", DifficultyLevel: 1, ConversationTurn: 2})
	createPattern(t, driver, &store.Pattern{Text: "c", ScenarioID: "s", DifficultyLevel: 1, ConversationTurn: 3})

	scenario, difficulty, turn := "s", 1, 2
	list, err := driver.ListPatterns(ctx, &store.FindPattern{
		ScenarioID:       &scenario,
		DifficultyLevel:  &difficulty,
		ConversationTurn: &turn,
	})
	require.NoError(t, err)
	require.Len(t, list, 2)
	// Turn-0 rows are wildcards and always match.
	assert.Equal(t, "a", list[0].Text)
	assert.Equal(t, "b", list[1].Text)
}

func TestRecordPatternHitRunningMean(t *testing.T) {
	ctx := context.Background()
	driver := newTestDriver(t)

	created := createPattern(t, driver, &store.Pattern{Text: "x", ScenarioID: "s", DifficultyLevel: 1})

	require.NoError(t, driver.RecordPatternHit(ctx, created.ID, 0.8))
	require.NoError(t, driver.RecordPatternHit(ctx, created.ID, 1.0))

	got, err := driver.GetPattern(ctx, &store.FindPattern{ID: &created.ID})
	require.NoError(t, err)
	assert.Equal(t, int64(2), got.UsageCount)
	assert.InDelta(t, 0.9, got.AverageSimilarity, 1e-9)
	assert.NotZero(t, got.LastUsedTs)

	assert.Error(t, driver.RecordPatternHit(ctx, 99999, 0.5))
}

func TestDeletePatternCascadesResponses(t *testing.T) {
	ctx := context.Background()
	driver := newTestDriver(t)

	created := createPattern(t, driver, &store.Pattern{Text: "x", ScenarioID: "s", DifficultyLevel: 1})
	_, err := driver.CreateCachedResponse(ctx, &store.CachedResponse{
		UID: "r1", PatternID: created.ID, ResponseText: "はい", Variation: 1,
	})
	require.NoError(t, err)

	require.NoError(t, driver.DeletePatterns(ctx, &store.DeletePattern{ID: &created.ID}))

	responses, err := driver.ListCachedResponses(ctx, &store.FindCachedResponse{PatternID: &created.ID})
	require.NoError(t, err)
	assert.Empty(t, responses)
}

func TestPickLeastUsedResponse(t *testing.T) {
	ctx := context.Background()
	driver := newTestDriver(t)

	created := createPattern(t, driver, &store.Pattern{Text: "x", ScenarioID: "s", DifficultyLevel: 1})

	none, err := driver.PickLeastUsedResponse(ctx, created.ID)
	require.NoError(t, err)
	assert.Nil(t, none)

	first, err := driver.CreateCachedResponse(ctx, &store.CachedResponse{
		UID: "r1", PatternID: created.ID, ResponseText: "一つ目", Variation: 1, CreatedTs: 100,
	})
	require.NoError(t, err)
	_, err = driver.CreateCachedResponse(ctx, &store.CachedResponse{
		UID: "r2", PatternID: created.ID, ResponseText: "二つ目", Variation: 2, CreatedTs: 200,
	})
	require.NoError(t, err)

	// Equal usage: the older row wins.
	picked, err := driver.PickLeastUsedResponse(ctx, created.ID)
	require.NoError(t, err)
	require.NotNil(t, picked)
	assert.Equal(t, "一つ目", picked.ResponseText)

	require.NoError(t, driver.RecordResponseUse(ctx, first.ID))

	picked, err = driver.PickLeastUsedResponse(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "二つ目", picked.ResponseText)
}

func TestAnalyticsUpsert(t *testing.T) {
	ctx := context.Background()
	driver := newTestDriver(t)

	record := &store.AnalyticsRecord{
		Date: "2026-08-30", UserID: "u1", ScenarioID: "s1",
		CacheHits: 1, CacheMisses: 2, ExternalCalls: 2,
		AverageSimilarityScore: 0.9, AverageResponseTimeMs: 120,
		TokensSaved: 10, EstimatedCostSaved: 0.02,
	}
	first, err := driver.UpsertAnalyticsRecord(ctx, record)
	require.NoError(t, err)
	require.NotZero(t, first.ID)

	record.CacheHits = 5
	second, err := driver.UpsertAnalyticsRecord(ctx, record)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	got, err := driver.GetAnalyticsRecord(ctx, &store.FindAnalyticsRecord{
		UserID: &record.UserID, ScenarioID: &record.ScenarioID, Date: &record.Date,
	})
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, int64(5), got.CacheHits)
}

func TestAnalyticsListSinceDate(t *testing.T) {
	ctx := context.Background()
	driver := newTestDriver(t)

	for _, date := range []string{"2026-08-25", "2026-08-28", "2026-08-30"} {
		_, err := driver.UpsertAnalyticsRecord(ctx, &store.AnalyticsRecord{
			Date: date, UserID: "u1", ScenarioID: "s1", CacheHits: 1,
		})
		require.NoError(t, err)
	}

	since := "2026-08-28"
	list, err := driver.ListAnalyticsRecords(ctx, &store.FindAnalyticsRecord{SinceDate: &since})
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "2026-08-30", list[0].Date)
	assert.Equal(t, "2026-08-28", list[1].Date)
}
