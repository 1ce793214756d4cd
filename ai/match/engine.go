package match

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/hrygo/kaiwa/store"
)

// PatternSource provides the bounded candidate fetch for matching.
// This is a local interface so the engine does not depend on a
// concrete store implementation.
type PatternSource interface {
	// TopCandidates returns patterns for the scenario/difficulty whose
	// conversation turn is the requested one or the wildcard 0,
	// ordered by usage descending, at most limit rows.
	TopCandidates(ctx context.Context, scenarioID string, difficulty, turn, limit int) ([]*store.Pattern, error)
}

// Match is a successful engine result: the best pattern and its score.
type Match struct {
	Pattern *store.Pattern
	Score   float64
}

// Engine finds the best cached pattern for a new input using two-stage
// filtering: a cheap substring/token-overlap pre-filter over the
// candidate set, then the full scorer only on the survivors.
type Engine struct {
	source    PatternSource
	scorer    *Scorer
	tokenizer *Tokenizer
	cfg       Config
	logger    *slog.Logger
}

// NewEngine creates a match engine. Zero config fields fall back to
// defaults; a nil logger falls back to slog.Default().
func NewEngine(source PatternSource, cfg Config, logger *slog.Logger) *Engine {
	cfg = cfg.withDefaults()
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		source:    source,
		scorer:    NewScorer(cfg),
		tokenizer: NewTokenizer(cfg.Particles),
		cfg:       cfg,
		logger:    logger,
	}
}

// Find returns the best match at or above threshold, or nil on a miss.
// A threshold outside [0,1] is a caller contract violation.
func (e *Engine) Find(ctx context.Context, input, scenarioID string, difficulty, turn int, threshold float64) (*Match, error) {
	if threshold < 0 || threshold > 1 {
		return nil, fmt.Errorf("match threshold %v outside [0,1]", threshold)
	}

	candidates, err := e.source.TopCandidates(ctx, scenarioID, difficulty, turn, e.cfg.CandidateLimit)
	if err != nil {
		return nil, fmt.Errorf("fetch candidates: %w", err)
	}
	if len(candidates) == 0 {
		return nil, nil
	}

	// Normalize and tokenize the input once for the whole candidate set.
	normalized := Normalize(input)
	inputTokens := e.tokenizer.Tokens(normalized)

	var best *store.Pattern
	var bestScore float64
	survivors := 0

	for _, candidate := range candidates {
		candNorm := Normalize(candidate.Text)

		// Stage 1: cheap filter on substring containment or token
		// overlap; keeps the O(n*m) scorer off unrelated candidates.
		if !e.prefilter(normalized, inputTokens, candNorm) {
			continue
		}
		survivors++

		// Stage 2: full scoring with keyword boost.
		score := e.scorer.Score(input, candidate.Text, candidate.Keywords)
		if score > bestScore {
			bestScore = score
			best = candidate
		}
	}

	e.logger.Debug("match engine pass",
		"scenario_id", scenarioID,
		"candidates", len(candidates),
		"survivors", survivors,
		"best_score", bestScore,
		"threshold", threshold)

	if best == nil || bestScore < threshold {
		return nil, nil
	}
	return &Match{Pattern: best, Score: bestScore}, nil
}

func (e *Engine) prefilter(inputNorm string, inputTokens map[string]struct{}, candNorm string) bool {
	if inputNorm == "" || candNorm == "" {
		return inputNorm == candNorm
	}
	if strings.Contains(inputNorm, candNorm) || strings.Contains(candNorm, inputNorm) {
		return true
	}
	return jaccard(inputTokens, e.tokenizer.Tokens(candNorm)) > e.cfg.PrefilterOverlap
}
