// Package cache implements the approximate-match response cache that
// fronts the external text-generation service. On a hit a previously
// generated reply is reused; on a miss the generator is called and the
// new exchange is absorbed into the cache so similar utterances hit
// next time.
package cache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/hrygo/kaiwa/ai/core/llm"
	"github.com/hrygo/kaiwa/ai/internal/strutil"
	"github.com/hrygo/kaiwa/ai/match"
	"github.com/hrygo/kaiwa/ai/observability/metrics"
	"github.com/hrygo/kaiwa/store"
)

// ErrBlankInput rejects empty or whitespace-only input before any
// matching work begins.
var ErrBlankInput = errors.New("blank input text")

// Matcher finds the best cached pattern for an input.
// *match.Engine satisfies this.
type Matcher interface {
	Find(ctx context.Context, input, scenarioID string, difficulty, turn int, threshold float64) (*match.Match, error)
}

// Catalog is the slice of the store the orchestrator needs.
type Catalog interface {
	// GetPattern returns the pattern or (nil, nil) when absent.
	GetPattern(ctx context.Context, find *store.FindPattern) (*store.Pattern, error)
	CreatePattern(ctx context.Context, create *store.Pattern) (*store.Pattern, error)
	RecordPatternHit(ctx context.Context, id int64, similarity float64) error
	CreateCachedResponse(ctx context.Context, create *store.CachedResponse) (*store.CachedResponse, error)
	ListCachedResponses(ctx context.Context, find *store.FindCachedResponse) ([]*store.CachedResponse, error)
	// PickResponseForVariety returns (nil, nil) when the pattern owns
	// no responses.
	PickResponseForVariety(ctx context.Context, patternID int64) (*store.CachedResponse, error)
}

// Recorder receives per-request analytics events.
type Recorder interface {
	RecordHit(ctx context.Context, userID, scenarioID string, similarity float64, latencyMs int64, responseText string) error
	RecordMiss(ctx context.Context, userID, scenarioID string, latencyMs int64) error
}

// Request carries one getResponse call.
type Request struct {
	Input        string
	ScenarioID   string
	Difficulty   int
	Turn         int
	UserID       string
	History      []llm.Turn
	SystemPrompt string

	// Threshold is the minimum similarity for a hit. Zero picks the
	// orchestrator default (or the adaptive per-turn policy when
	// enabled).
	Threshold float64

	// EnableLearning absorbs generated replies into the cache on a
	// miss.
	EnableLearning bool
}

// Config configures the orchestrator.
type Config struct {
	// DefaultThreshold applies when Request.Threshold is zero.
	// Default 0.8.
	DefaultThreshold float64

	// AdaptiveThreshold derives the threshold from the conversation
	// turn instead of DefaultThreshold: early turns are templated, so
	// a lower bar pays off.
	AdaptiveThreshold bool
}

// Orchestrator drives one request through
// CHECK_CACHE -> {HIT | MISS -> CALL_EXTERNAL -> LEARN}. It holds no
// state between calls; all durable state lives behind Catalog and
// Recorder.
type Orchestrator struct {
	matcher   Matcher
	catalog   Catalog
	generator llm.Service
	recorder  Recorder
	extractor KeywordExtractor
	exporter  *metrics.Exporter // nil disables metrics
	cfg       Config
	logger    *slog.Logger
}

// New creates a cache orchestrator. extractor may be nil (defaults to
// ParticleStopExtractor), exporter may be nil, logger may be nil.
func New(matcher Matcher, catalog Catalog, generator llm.Service, recorder Recorder, extractor KeywordExtractor, exporter *metrics.Exporter, cfg Config, logger *slog.Logger) *Orchestrator {
	if cfg.DefaultThreshold <= 0 || cfg.DefaultThreshold > 1 {
		cfg.DefaultThreshold = 0.8
	}
	if extractor == nil {
		extractor = NewParticleStopExtractor(nil, 0)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{
		matcher:   matcher,
		catalog:   catalog,
		generator: generator,
		recorder:  recorder,
		extractor: extractor,
		exporter:  exporter,
		cfg:       cfg,
		logger:    logger,
	}
}

// GetResponse resolves one user utterance from the cache or the
// external generator. Analytics recording always happens after the
// hit/miss decision is finalized, so counts and served results never
// diverge within a call.
func (o *Orchestrator) GetResponse(ctx context.Context, req Request) Result {
	started := time.Now()

	if strings.TrimSpace(req.Input) == "" {
		return errorResult(ErrBlankInput)
	}

	threshold := req.Threshold
	if threshold == 0 {
		if o.cfg.AdaptiveThreshold {
			threshold = match.ThresholdForTurn(req.Turn)
		} else {
			threshold = o.cfg.DefaultThreshold
		}
	}

	logger := o.logger.With(
		"request_id", uuid.NewString(),
		"user_id", req.UserID,
		"scenario_id", req.ScenarioID,
		"turn", req.Turn,
		"input", strutil.Truncate(req.Input, 48),
	)

	matchStart := time.Now()
	m, err := o.matcher.Find(ctx, req.Input, req.ScenarioID, req.Difficulty, req.Turn, threshold)
	o.exporter.ObserveMatchLatency(time.Since(matchStart).Seconds())
	if err != nil {
		// A broken cache read cannot safely decide hit or miss.
		o.exporter.RecordError(req.ScenarioID, "cache_check")
		logger.Error("cache check failed", "error", err)
		return errorResult(fmt.Errorf("cache check: %w", err))
	}

	if m != nil {
		result, served := o.serveHit(ctx, logger, req, m, started)
		if served {
			return result
		}
		// Pattern exists but owns no responses yet; generate.
	}

	return o.serveMiss(ctx, logger, req, started)
}

func (o *Orchestrator) serveHit(ctx context.Context, logger *slog.Logger, req Request, m *match.Match, started time.Time) (Result, bool) {
	response, err := o.catalog.PickResponseForVariety(ctx, m.Pattern.ID)
	if err != nil {
		o.exporter.RecordError(req.ScenarioID, "response_pick")
		logger.Error("response selection failed", "pattern_id", m.Pattern.ID, "error", err)
		return errorResult(fmt.Errorf("pick cached response: %w", err)), true
	}
	if response == nil {
		return Result{}, false
	}

	// Counter bumps are best-effort: the reply is already decided.
	if err := o.catalog.RecordPatternHit(ctx, m.Pattern.ID, m.Score); err != nil {
		logger.Warn("pattern counter update failed", "pattern_id", m.Pattern.ID, "error", err)
	}

	latencyMs := time.Since(started).Milliseconds()
	if err := o.recorder.RecordHit(ctx, req.UserID, req.ScenarioID, m.Score, latencyMs, response.ResponseText); err != nil {
		logger.Warn("analytics hit recording failed", "error", err)
	}
	o.exporter.RecordHit(req.ScenarioID, m.Score)

	logger.Debug("cache hit",
		"pattern_id", m.Pattern.ID,
		"response_id", response.ID,
		"similarity", m.Score,
		"latency_ms", latencyMs)

	return hitResult(response.ResponseText, m.Pattern, response, m.Score), true
}

func (o *Orchestrator) serveMiss(ctx context.Context, logger *slog.Logger, req Request, started time.Time) Result {
	genStart := time.Now()
	text, stats, err := o.generator.Generate(ctx, req.Input, req.History, req.SystemPrompt)
	o.exporter.ObserveGenerationLatency(time.Since(genStart).Seconds())

	latencyMs := time.Since(started).Milliseconds()
	if err != nil {
		// The miss still counts: cost/latency tracking stays accurate
		// even when the generator fails.
		if rerr := o.recorder.RecordMiss(ctx, req.UserID, req.ScenarioID, latencyMs); rerr != nil {
			logger.Warn("analytics miss recording failed", "error", rerr)
		}
		o.exporter.RecordError(req.ScenarioID, "generation")
		logger.Error("generation failed", "error", err)
		return errorResult(fmt.Errorf("generate reply: %w", err))
	}

	if req.EnableLearning && strings.TrimSpace(text) != "" {
		o.learn(ctx, logger, req, text)
	}

	if err := o.recorder.RecordMiss(ctx, req.UserID, req.ScenarioID, latencyMs); err != nil {
		logger.Warn("analytics miss recording failed", "error", err)
	}
	o.exporter.RecordMiss(req.ScenarioID)

	var generatedTokens int
	if stats != nil {
		generatedTokens = stats.TotalTokens
	}
	logger.Debug("cache miss",
		"latency_ms", latencyMs,
		"generated_tokens", generatedTokens)

	return missResult(text)
}

// learn absorbs a generated exchange into the cache. Failures here are
// reported but never fail the request: the reply has already been
// produced, the cache simply does not grow for this exemplar.
func (o *Orchestrator) learn(ctx context.Context, logger *slog.Logger, req Request, text string) {
	existing, err := o.catalog.GetPattern(ctx, &store.FindPattern{
		ScenarioID:      &req.ScenarioID,
		DifficultyLevel: &req.Difficulty,
		Text:            &req.Input,
	})
	if err != nil {
		logger.Warn("learning lookup failed", "error", err)
		return
	}

	var patternID int64
	if existing != nil {
		// Same exemplar seen before: bump the existing row instead of
		// duplicating it.
		if err := o.catalog.RecordPatternHit(ctx, existing.ID, 1.0); err != nil {
			logger.Warn("pattern counter update failed", "pattern_id", existing.ID, "error", err)
		}
		patternID = existing.ID
	} else {
		created, err := o.catalog.CreatePattern(ctx, &store.Pattern{
			Text:             req.Input,
			ScenarioID:       req.ScenarioID,
			DifficultyLevel:  req.Difficulty,
			ConversationTurn: req.Turn,
			Category:         store.CategoryLearned,
			Keywords:         o.extractor.Extract(req.Input),
			UsageCount:       1,
		})
		if err != nil {
			// A concurrent learner may have won the unique
			// (scenario, difficulty, text) race; either way the cache
			// keeps a single row.
			logger.Warn("pattern learning failed", "error", err)
			return
		}
		patternID = created.ID
	}

	variation := 1
	siblings, err := o.catalog.ListCachedResponses(ctx, &store.FindCachedResponse{PatternID: &patternID})
	if err != nil {
		logger.Warn("sibling count lookup failed", "pattern_id", patternID, "error", err)
	} else {
		variation = len(siblings) + 1
	}

	if _, err := o.catalog.CreateCachedResponse(ctx, &store.CachedResponse{
		PatternID:       patternID,
		ResponseText:    text,
		Variation:       variation,
		ComplexityScore: complexityBucket(text),
		GeneratedByLLM:  true,
	}); err != nil {
		logger.Warn("response caching failed", "pattern_id", patternID, "error", err)
		return
	}

	logger.Debug("learned new exchange", "pattern_id", patternID, "variation", variation)
}

// complexityBucket assigns a coarse 1-5 difficulty bucket by reply
// length in runes.
func complexityBucket(text string) int {
	n := len([]rune(text))
	switch {
	case n <= 10:
		return 1
	case n <= 20:
		return 2
	case n <= 40:
		return 3
	case n <= 80:
		return 4
	default:
		return 5
	}
}
