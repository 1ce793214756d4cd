// Package preload fills the cache with curated scenario seed files so
// common utterances hit from the first session instead of warming up
// through misses.
package preload

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"sync/atomic"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	"github.com/hrygo/kaiwa/store"
)

// ScenarioSeed is one seed file: a scenario at one difficulty with its
// exemplar patterns and curated responses.
type ScenarioSeed struct {
	ScenarioID      string        `yaml:"scenario_id"`
	DifficultyLevel int           `yaml:"difficulty_level"`
	Patterns        []PatternSeed `yaml:"patterns"`
}

// PatternSeed is one exemplar with its response variations.
type PatternSeed struct {
	Text             string         `yaml:"text"`
	ConversationTurn int            `yaml:"conversation_turn"`
	Category         string         `yaml:"category"`
	Keywords         []string       `yaml:"keywords"`
	Responses        []ResponseSeed `yaml:"responses"`
}

// ResponseSeed is one curated reply text.
type ResponseSeed struct {
	Text     string `yaml:"text"`
	Verified bool   `yaml:"verified"`
}

// Store is the slice of the pattern store the seeder writes through.
type Store interface {
	GetPattern(ctx context.Context, find *store.FindPattern) (*store.Pattern, error)
	CreatePattern(ctx context.Context, create *store.Pattern) (*store.Pattern, error)
	CreateCachedResponse(ctx context.Context, create *store.CachedResponse) (*store.CachedResponse, error)
}

// Summary counts what one seeding run did.
type Summary struct {
	Files            int
	PatternsCreated  int64
	PatternsSkipped  int64
	ResponsesCreated int64
}

// Seeder loads scenario seed files into the store.
type Seeder struct {
	store       Store
	concurrency int
	logger      *slog.Logger
}

// NewSeeder creates a seeder. concurrency <= 0 defaults to 4.
func NewSeeder(st Store, concurrency int, logger *slog.Logger) *Seeder {
	if concurrency <= 0 {
		concurrency = 4
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Seeder{store: st, concurrency: concurrency, logger: logger}
}

// SeedDir loads every *.yaml / *.yml file under dir, one goroutine per
// file. Seeding is idempotent: exemplars already present are skipped,
// so re-running after editing a seed file only adds the new rows.
func (s *Seeder) SeedDir(ctx context.Context, dir string) (*Summary, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read seed dir %s", dir)
	}

	var files []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		switch filepath.Ext(entry.Name()) {
		case ".yaml", ".yml":
			files = append(files, filepath.Join(dir, entry.Name()))
		}
	}

	summary := &Summary{Files: len(files)}
	var created, skipped, responses atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for _, file := range files {
		file := file
		g.Go(func() error {
			fileSummary, err := s.SeedFile(gctx, file)
			if err != nil {
				return err
			}
			created.Add(fileSummary.PatternsCreated)
			skipped.Add(fileSummary.PatternsSkipped)
			responses.Add(fileSummary.ResponsesCreated)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	summary.PatternsCreated = created.Load()
	summary.PatternsSkipped = skipped.Load()
	summary.ResponsesCreated = responses.Load()

	s.logger.Info("seeding finished",
		"files", summary.Files,
		"patterns_created", summary.PatternsCreated,
		"patterns_skipped", summary.PatternsSkipped,
		"responses_created", summary.ResponsesCreated)
	return summary, nil
}

// SeedFile loads a single seed file.
func (s *Seeder) SeedFile(ctx context.Context, path string) (*Summary, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read seed file %s", path)
	}

	seed := &ScenarioSeed{}
	if err := yaml.Unmarshal(data, seed); err != nil {
		return nil, errors.Wrapf(err, "failed to parse seed file %s", path)
	}
	if seed.ScenarioID == "" {
		return nil, errors.Errorf("seed file %s missing scenario_id", path)
	}
	if seed.DifficultyLevel <= 0 {
		seed.DifficultyLevel = 1
	}

	return s.SeedScenario(ctx, seed)
}

// SeedScenario writes one scenario's patterns and responses.
func (s *Seeder) SeedScenario(ctx context.Context, seed *ScenarioSeed) (*Summary, error) {
	summary := &Summary{Files: 1}

	for _, p := range seed.Patterns {
		if p.Text == "" {
			continue
		}

		existing, err := s.store.GetPattern(ctx, &store.FindPattern{
			ScenarioID:      &seed.ScenarioID,
			DifficultyLevel: &seed.DifficultyLevel,
			Text:            &p.Text,
		})
		if err != nil {
			return nil, errors.Wrap(err, "failed to check existing pattern")
		}
		if existing != nil {
			summary.PatternsSkipped++
			continue
		}

		created, err := s.store.CreatePattern(ctx, &store.Pattern{
			Text:             p.Text,
			ScenarioID:       seed.ScenarioID,
			DifficultyLevel:  seed.DifficultyLevel,
			ConversationTurn: p.ConversationTurn,
			Category:         p.Category,
			Keywords:         p.Keywords,
		})
		if err != nil {
			return nil, errors.Wrapf(err, "failed to seed pattern %q", p.Text)
		}
		summary.PatternsCreated++

		for i, r := range p.Responses {
			if r.Text == "" {
				continue
			}
			if _, err := s.store.CreateCachedResponse(ctx, &store.CachedResponse{
				PatternID:       created.ID,
				ResponseText:    r.Text,
				Variation:       i + 1,
				ComplexityScore: seed.DifficultyLevel,
				IsVerified:      r.Verified,
			}); err != nil {
				return nil, errors.Wrapf(err, "failed to seed response for %q", p.Text)
			}
			summary.ResponsesCreated++
		}
	}

	return summary, nil
}
