package store

import "context"

// Driver is an interface for database drivers.
type Driver interface {
	Migrate(ctx context.Context) error
	Close() error

	// Pattern model.
	CreatePattern(ctx context.Context, create *Pattern) (*Pattern, error)
	GetPattern(ctx context.Context, find *FindPattern) (*Pattern, error)
	ListPatterns(ctx context.Context, find *FindPattern) ([]*Pattern, error)
	RecordPatternHit(ctx context.Context, id int64, similarity float64) error
	DeletePatterns(ctx context.Context, delete *DeletePattern) error

	// CachedResponse model.
	CreateCachedResponse(ctx context.Context, create *CachedResponse) (*CachedResponse, error)
	ListCachedResponses(ctx context.Context, find *FindCachedResponse) ([]*CachedResponse, error)
	// PickLeastUsedResponse returns the least-used response for the
	// pattern, ties broken by created_ts then id. Nil when none exist.
	PickLeastUsedResponse(ctx context.Context, patternID int64) (*CachedResponse, error)
	RecordResponseUse(ctx context.Context, id int64) error

	// AnalyticsRecord model.
	GetAnalyticsRecord(ctx context.Context, find *FindAnalyticsRecord) (*AnalyticsRecord, error)
	UpsertAnalyticsRecord(ctx context.Context, upsert *AnalyticsRecord) (*AnalyticsRecord, error)
	ListAnalyticsRecords(ctx context.Context, find *FindAnalyticsRecord) ([]*AnalyticsRecord, error)
}
