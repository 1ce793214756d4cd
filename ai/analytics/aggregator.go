// Package analytics maintains per (user, scenario, day) cache
// statistics: hit/miss counters, running averages and saved-cost
// estimates.
package analytics

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/hrygo/kaiwa/store"
)

// RecordStore is the slice of the store the aggregator needs.
type RecordStore interface {
	// GetAnalyticsRecord returns the row or (nil, nil) when absent.
	GetAnalyticsRecord(ctx context.Context, find *store.FindAnalyticsRecord) (*store.AnalyticsRecord, error)
	UpsertAnalyticsRecord(ctx context.Context, upsert *store.AnalyticsRecord) (*store.AnalyticsRecord, error)
	ListAnalyticsRecords(ctx context.Context, find *store.FindAnalyticsRecord) ([]*store.AnalyticsRecord, error)
}

// Config configures the aggregator.
type Config struct {
	// CostPerKTokensUSD converts saved tokens into an estimated cost
	// saving. Default 0.002 USD per 1K tokens.
	CostPerKTokensUSD float64

	// Clock is injectable for tests; defaults to time.Now.
	Clock func() time.Time
}

// Aggregator performs read-modify-write upserts of analytics rows.
// Counter updates race under extreme concurrency; the persistence
// layer serializes conflicting row writes and the small drift is an
// accepted tradeoff, not a correctness requirement.
type Aggregator struct {
	records RecordStore
	cfg     Config
	logger  *slog.Logger
}

// New creates an analytics aggregator.
func New(records RecordStore, cfg Config, logger *slog.Logger) *Aggregator {
	if cfg.CostPerKTokensUSD <= 0 {
		cfg.CostPerKTokensUSD = 0.002
	}
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Aggregator{records: records, cfg: cfg, logger: logger}
}

// RecordHit folds one cache hit into the day row. The similarity mean
// runs over hits only; the latency mean runs over all requests.
// responseText feeds the saved-tokens estimate.
func (a *Aggregator) RecordHit(ctx context.Context, userID, scenarioID string, similarity float64, latencyMs int64, responseText string) error {
	record, err := a.loadOrInit(ctx, userID, scenarioID)
	if err != nil {
		return err
	}

	saved := EstimateTokens(responseText)

	record.AverageResponseTimeMs = incrementalMean(record.AverageResponseTimeMs, record.CacheHits+record.CacheMisses, float64(latencyMs))
	record.AverageSimilarityScore = incrementalMean(record.AverageSimilarityScore, record.CacheHits, similarity)
	record.CacheHits++
	record.TokensSaved += saved
	record.EstimatedCostSaved += float64(saved) / 1000 * a.cfg.CostPerKTokensUSD

	_, err = a.records.UpsertAnalyticsRecord(ctx, record)
	if err != nil {
		return fmt.Errorf("upsert analytics hit: %w", err)
	}
	return nil
}

// RecordMiss folds one cache miss into the day row. A miss implies an
// external generation call (attempted or failed), so external_calls
// advances with it.
func (a *Aggregator) RecordMiss(ctx context.Context, userID, scenarioID string, latencyMs int64) error {
	record, err := a.loadOrInit(ctx, userID, scenarioID)
	if err != nil {
		return err
	}

	record.AverageResponseTimeMs = incrementalMean(record.AverageResponseTimeMs, record.CacheHits+record.CacheMisses, float64(latencyMs))
	record.CacheMisses++
	record.ExternalCalls++

	_, err = a.records.UpsertAnalyticsRecord(ctx, record)
	if err != nil {
		return fmt.Errorf("upsert analytics miss: %w", err)
	}
	return nil
}

// Stats is the aggregated view over a trailing window of day rows.
type Stats struct {
	TotalRequests      int64   `json:"total_requests"`
	Hits               int64   `json:"hits"`
	Misses             int64   `json:"misses"`
	HitRate            float64 `json:"hit_rate"`
	TokensSaved        int64   `json:"tokens_saved"`
	EstimatedCostSaved float64 `json:"estimated_cost_saved"`
	AvgResponseTimeMs  float64 `json:"avg_response_time_ms"`
	AvgSimilarity      float64 `json:"avg_similarity"`
}

// GetStats aggregates the trailing days of rows for the user,
// optionally narrowed to one scenario. days <= 0 defaults to 7.
func (a *Aggregator) GetStats(ctx context.Context, userID string, scenarioID *string, days int) (*Stats, error) {
	if days <= 0 {
		days = 7
	}
	since := a.cfg.Clock().AddDate(0, 0, -(days - 1)).Format(dateLayout)

	records, err := a.records.ListAnalyticsRecords(ctx, &store.FindAnalyticsRecord{
		UserID:     &userID,
		ScenarioID: scenarioID,
		SinceDate:  &since,
	})
	if err != nil {
		return nil, fmt.Errorf("list analytics records: %w", err)
	}

	stats := &Stats{}
	var similarityWeighted, latencyWeighted float64
	for _, record := range records {
		total := record.CacheHits + record.CacheMisses
		stats.Hits += record.CacheHits
		stats.Misses += record.CacheMisses
		stats.TokensSaved += record.TokensSaved
		stats.EstimatedCostSaved += record.EstimatedCostSaved
		similarityWeighted += record.AverageSimilarityScore * float64(record.CacheHits)
		latencyWeighted += record.AverageResponseTimeMs * float64(total)
	}
	stats.TotalRequests = stats.Hits + stats.Misses
	if stats.TotalRequests > 0 {
		stats.HitRate = float64(stats.Hits) / float64(stats.TotalRequests)
		stats.AvgResponseTimeMs = latencyWeighted / float64(stats.TotalRequests)
	}
	if stats.Hits > 0 {
		stats.AvgSimilarity = similarityWeighted / float64(stats.Hits)
	}
	return stats, nil
}

const dateLayout = "2006-01-02"

func (a *Aggregator) loadOrInit(ctx context.Context, userID, scenarioID string) (*store.AnalyticsRecord, error) {
	date := a.cfg.Clock().Format(dateLayout)
	record, err := a.records.GetAnalyticsRecord(ctx, &store.FindAnalyticsRecord{
		UserID:     &userID,
		ScenarioID: &scenarioID,
		Date:       &date,
	})
	if err != nil {
		return nil, fmt.Errorf("get analytics record: %w", err)
	}
	if record == nil {
		record = &store.AnalyticsRecord{
			Date:       date,
			UserID:     userID,
			ScenarioID: scenarioID,
		}
	}
	return record, nil
}

// incrementalMean folds one more value into a running mean without
// recomputing from history: (old*n + v) / (n+1). The caller chooses n:
// hits for similarity, hits+misses for latency. That asymmetry is easy
// to get off-by-one, so this stays a single tested function.
func incrementalMean(old float64, n int64, v float64) float64 {
	if n <= 0 {
		return v
	}
	return (old*float64(n) + v) / float64(n+1)
}

// EstimateTokens approximates the token count of a reply: CJK scripts
// run about one token per character, Latin text about four characters
// per token.
func EstimateTokens(text string) int64 {
	var cjk, other int64
	for _, r := range text {
		if r >= 0x2E80 {
			cjk++
		} else {
			other++
		}
	}
	return cjk + (other+3)/4
}
