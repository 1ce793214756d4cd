package store

import (
	"context"
	"strings"

	"github.com/lithammer/shortuuid/v4"
)

// Pattern represents a previously observed input exemplar for one
// (scenario, difficulty, turn) context.
// Pattern 表示某个场景上下文中已观察到的输入样本。
type Pattern struct {
	ID  int64
	UID string

	// Text is the exemplar as the user typed it. Normalization happens
	// at comparison time; the stored text stays presentable.
	Text             string
	ScenarioID       string
	DifficultyLevel  int
	ConversationTurn int // 0 matches any turn
	Category         string
	Keywords         []string

	UsageCount        int64
	LastUsedTs        int64
	AverageSimilarity float64

	CreatedTs int64
	UpdatedTs int64
}

// CategoryLearned marks patterns created by the learning path on a
// cache miss, as opposed to pre-seeded ones.
const CategoryLearned = "learned"

// KeywordsJoined returns the keyword list in its storage form.
func (p *Pattern) KeywordsJoined() string {
	return strings.Join(p.Keywords, ",")
}

// SplitKeywords parses the comma-joined storage form back into a list.
func SplitKeywords(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	keywords := make([]string, 0, len(parts))
	for _, part := range parts {
		if part = strings.TrimSpace(part); part != "" {
			keywords = append(keywords, part)
		}
	}
	return keywords
}

// FindPattern is the filter for pattern queries.
type FindPattern struct {
	ID         *int64
	UID        *string
	ScenarioID *string
	// Text filters on the exact stored exemplar, used together with
	// ScenarioID and DifficultyLevel to check for an existing row
	// before learning.
	Text            *string
	DifficultyLevel *int
	// ConversationTurn matches rows with this exact turn or the
	// wildcard turn 0.
	ConversationTurn *int
	Category         *string

	// OrderByUsage orders results by usage_count descending.
	OrderByUsage bool
	Limit        *int
}

// DeletePattern removes patterns in bulk. Cached responses cascade.
type DeletePattern struct {
	ID         *int64
	ScenarioID *string
}

func (s *Store) CreatePattern(ctx context.Context, create *Pattern) (*Pattern, error) {
	if create.UID == "" {
		create.UID = shortuuid.New()
	}
	return s.driver.CreatePattern(ctx, create)
}

func (s *Store) GetPattern(ctx context.Context, find *FindPattern) (*Pattern, error) {
	return s.driver.GetPattern(ctx, find)
}

func (s *Store) ListPatterns(ctx context.Context, find *FindPattern) ([]*Pattern, error) {
	return s.driver.ListPatterns(ctx, find)
}

// RecordPatternHit bumps the usage counter and folds similarity into
// the running mean for the pattern.
func (s *Store) RecordPatternHit(ctx context.Context, id int64, similarity float64) error {
	return s.driver.RecordPatternHit(ctx, id, similarity)
}

func (s *Store) DeletePatterns(ctx context.Context, delete *DeletePattern) error {
	return s.driver.DeletePatterns(ctx, delete)
}

// TopCandidates returns the bounded candidate list for matching:
// patterns in the given scenario and difficulty whose conversation
// turn is the requested one or the wildcard 0, most used first.
func (s *Store) TopCandidates(ctx context.Context, scenarioID string, difficulty, turn, limit int) ([]*Pattern, error) {
	return s.driver.ListPatterns(ctx, &FindPattern{
		ScenarioID:       &scenarioID,
		DifficultyLevel:  &difficulty,
		ConversationTurn: &turn,
		OrderByUsage:     true,
		Limit:            &limit,
	})
}
