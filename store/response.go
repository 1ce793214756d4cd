package store

import (
	"context"

	"github.com/lithammer/shortuuid/v4"
)

// CachedResponse is one reply text owned by exactly one pattern.
// Deleting the pattern cascades to its responses.
type CachedResponse struct {
	ID        int64
	UID       string
	PatternID int64

	ResponseText string
	// Variation is the ordinal among sibling responses of one pattern.
	Variation int
	// ComplexityScore is a coarse length/difficulty bucket (1-5).
	ComplexityScore int

	UsageCount int64
	LastUsedTs int64

	IsVerified bool
	// GeneratedByLLM records provenance: true for responses written by
	// the external generator, false for curated seeds.
	GeneratedByLLM bool

	CreatedTs int64
}

// FindCachedResponse is the filter for response queries.
type FindCachedResponse struct {
	ID        *int64
	PatternID *int64
	Limit     *int
}

func (s *Store) CreateCachedResponse(ctx context.Context, create *CachedResponse) (*CachedResponse, error) {
	if create.UID == "" {
		create.UID = shortuuid.New()
	}
	return s.driver.CreateCachedResponse(ctx, create)
}

func (s *Store) ListCachedResponses(ctx context.Context, find *FindCachedResponse) ([]*CachedResponse, error) {
	return s.driver.ListCachedResponses(ctx, find)
}

// PickResponseForVariety selects the least-used response for the
// pattern and bumps its usage counter, so consecutive hits on the same
// pattern rotate through the cached variations instead of repeating
// one verbatim. Ties on usage break on created_ts, then id, which
// keeps the selection deterministic.
// Returns (nil, nil) when the pattern owns no responses.
func (s *Store) PickResponseForVariety(ctx context.Context, patternID int64) (*CachedResponse, error) {
	response, err := s.driver.PickLeastUsedResponse(ctx, patternID)
	if err != nil {
		return nil, err
	}
	if response == nil {
		return nil, nil
	}
	if err := s.driver.RecordResponseUse(ctx, response.ID); err != nil {
		return nil, err
	}
	response.UsageCount++
	return response, nil
}
