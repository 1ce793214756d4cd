package store

import "context"

// AnalyticsRecord is one row of cache statistics per
// (date, user, scenario), day granularity.
// AnalyticsRecord 表示按 (日期, 用户, 场景) 聚合的缓存统计行。
type AnalyticsRecord struct {
	ID int64

	// Date is the day bucket in YYYY-MM-DD form.
	Date       string
	UserID     string
	ScenarioID string

	CacheHits     int64
	CacheMisses   int64
	ExternalCalls int64

	// AverageSimilarityScore is the running mean over hits only.
	AverageSimilarityScore float64
	// AverageResponseTimeMs is the running mean over all requests,
	// hits and misses.
	AverageResponseTimeMs float64

	TokensSaved        int64
	EstimatedCostSaved float64

	CreatedTs int64
}

// FindAnalyticsRecord is the filter for analytics queries.
type FindAnalyticsRecord struct {
	UserID     *string
	ScenarioID *string
	Date       *string
	// SinceDate keeps rows with date >= SinceDate (inclusive).
	SinceDate *string
}

func (s *Store) GetAnalyticsRecord(ctx context.Context, find *FindAnalyticsRecord) (*AnalyticsRecord, error) {
	return s.driver.GetAnalyticsRecord(ctx, find)
}

// UpsertAnalyticsRecord inserts the row or overwrites the counters of
// an existing (date, user, scenario) row. Counter arithmetic happens
// in the aggregator before the write; the driver only persists.
func (s *Store) UpsertAnalyticsRecord(ctx context.Context, upsert *AnalyticsRecord) (*AnalyticsRecord, error) {
	return s.driver.UpsertAnalyticsRecord(ctx, upsert)
}

func (s *Store) ListAnalyticsRecords(ctx context.Context, find *FindAnalyticsRecord) ([]*AnalyticsRecord, error) {
	return s.driver.ListAnalyticsRecords(ctx, find)
}
