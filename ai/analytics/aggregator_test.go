package analytics

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hrygo/kaiwa/store"
)

// memStore keeps analytics rows in a map keyed by (date, user, scenario).
type memStore struct {
	rows map[string]*store.AnalyticsRecord
}

func newMemStore() *memStore {
	return &memStore{rows: make(map[string]*store.AnalyticsRecord)}
}

func key(date, userID, scenarioID string) string {
	return date + "|" + userID + "|" + scenarioID
}

func (m *memStore) GetAnalyticsRecord(_ context.Context, find *store.FindAnalyticsRecord) (*store.AnalyticsRecord, error) {
	row, ok := m.rows[key(*find.Date, *find.UserID, *find.ScenarioID)]
	if !ok {
		return nil, nil
	}
	clone := *row
	return &clone, nil
}

func (m *memStore) UpsertAnalyticsRecord(_ context.Context, upsert *store.AnalyticsRecord) (*store.AnalyticsRecord, error) {
	clone := *upsert
	m.rows[key(upsert.Date, upsert.UserID, upsert.ScenarioID)] = &clone
	return upsert, nil
}

func (m *memStore) ListAnalyticsRecords(_ context.Context, find *store.FindAnalyticsRecord) ([]*store.AnalyticsRecord, error) {
	var out []*store.AnalyticsRecord
	for _, row := range m.rows {
		if find.UserID != nil && row.UserID != *find.UserID {
			continue
		}
		if find.ScenarioID != nil && row.ScenarioID != *find.ScenarioID {
			continue
		}
		if find.SinceDate != nil && row.Date < *find.SinceDate {
			continue
		}
		clone := *row
		out = append(out, &clone)
	}
	return out, nil
}

func fixedClock(day string) func() time.Time {
	t, _ := time.Parse("2006-01-02", day)
	return func() time.Time { return t }
}

func TestIncrementalMean(t *testing.T) {
	tests := []struct {
		name     string
		old      float64
		n        int64
		v        float64
		expected float64
	}{
		{"first value", 0, 0, 0.8, 0.8},
		{"negative n treated as first", 0.5, -1, 0.8, 0.8},
		{"second value", 0.8, 1, 0.6, 0.7},
		{"third value", 0.7, 2, 1.0, 0.8},
		{"large n stable", 0.5, 1000, 0.5, 0.5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, incrementalMean(tt.old, tt.n, tt.v), 1e-9)
		})
	}
}

func TestEstimateTokens(t *testing.T) {
	assert.Equal(t, int64(0), EstimateTokens(""))
	// Five kana: one token each.
	assert.Equal(t, int64(5), EstimateTokens("こんにちは"))
	// Eight ASCII characters: two tokens.
	assert.Equal(t, int64(2), EstimateTokens("passport"))
	// Mixed: two katakana plus four ASCII.
	assert.Equal(t, int64(3), EstimateTokens("ビザvisa"))
}

func TestRecordHitAndMissCounters(t *testing.T) {
	ctx := context.Background()
	ms := newMemStore()
	agg := New(ms, Config{Clock: fixedClock("2026-08-31")}, nil)

	require.NoError(t, agg.RecordHit(ctx, "u1", "s1", 0.9, 120, "こんにちは"))
	require.NoError(t, agg.RecordHit(ctx, "u1", "s1", 0.7, 80, "はい"))
	require.NoError(t, agg.RecordMiss(ctx, "u1", "s1", 400))

	row := ms.rows[key("2026-08-31", "u1", "s1")]
	require.NotNil(t, row)

	assert.Equal(t, int64(2), row.CacheHits)
	assert.Equal(t, int64(1), row.CacheMisses)
	assert.Equal(t, int64(1), row.ExternalCalls)

	// Similarity averages over hits only: (0.9 + 0.7) / 2.
	assert.InDelta(t, 0.8, row.AverageSimilarityScore, 1e-9)
	// Latency averages over all requests: (120 + 80 + 400) / 3.
	assert.InDelta(t, 200, row.AverageResponseTimeMs, 1e-9)
	// Two hits saved 5 + 2 tokens.
	assert.Equal(t, int64(7), row.TokensSaved)
}

// cacheHits + cacheMisses must equal the number of recorded calls.
func TestAnalyticsConservation(t *testing.T) {
	ctx := context.Background()
	ms := newMemStore()
	agg := New(ms, Config{Clock: fixedClock("2026-08-31")}, nil)

	const calls = 25
	for i := 0; i < calls; i++ {
		if i%3 == 0 {
			require.NoError(t, agg.RecordMiss(ctx, "u1", "s1", 300))
		} else {
			require.NoError(t, agg.RecordHit(ctx, "u1", "s1", 0.85, 50, "やあ"))
		}
	}

	row := ms.rows[key("2026-08-31", "u1", "s1")]
	require.NotNil(t, row)
	assert.Equal(t, int64(calls), row.CacheHits+row.CacheMisses)
}

func TestGetStatsAggregatesTrailingDays(t *testing.T) {
	ctx := context.Background()
	ms := newMemStore()

	seed := func(day string, hits, misses int, sim float64) {
		agg := New(ms, Config{Clock: fixedClock(day)}, nil)
		for i := 0; i < hits; i++ {
			require.NoError(t, agg.RecordHit(ctx, "u1", "s1", sim, 100, "どうぞ"))
		}
		for i := 0; i < misses; i++ {
			require.NoError(t, agg.RecordMiss(ctx, "u1", "s1", 100))
		}
	}
	seed("2026-08-30", 3, 1, 0.9)
	seed("2026-08-31", 1, 1, 0.7)
	seed("2026-08-01", 10, 10, 0.5) // outside the window

	agg := New(ms, Config{Clock: fixedClock("2026-08-31")}, nil)
	stats, err := agg.GetStats(ctx, "u1", nil, 7)
	require.NoError(t, err)

	assert.Equal(t, int64(6), stats.TotalRequests)
	assert.Equal(t, int64(4), stats.Hits)
	assert.Equal(t, int64(2), stats.Misses)
	assert.InDelta(t, 4.0/6.0, stats.HitRate, 1e-9)
	// Hit-weighted similarity: (0.9*3 + 0.7*1) / 4.
	assert.InDelta(t, 0.85, stats.AvgSimilarity, 1e-9)
	assert.InDelta(t, 100, stats.AvgResponseTimeMs, 1e-9)
}

func TestGetStatsScenarioFilter(t *testing.T) {
	ctx := context.Background()
	ms := newMemStore()
	agg := New(ms, Config{Clock: fixedClock("2026-08-31")}, nil)

	require.NoError(t, agg.RecordHit(ctx, "u1", "restaurant", 0.9, 100, "はい"))
	require.NoError(t, agg.RecordMiss(ctx, "u1", "station", 100))

	scenario := "restaurant"
	stats, err := agg.GetStats(ctx, "u1", &scenario, 7)
	require.NoError(t, err)

	assert.Equal(t, int64(1), stats.TotalRequests)
	assert.Equal(t, int64(1), stats.Hits)
	assert.Equal(t, int64(0), stats.Misses)
}
