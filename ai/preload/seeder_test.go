package preload

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hrygo/kaiwa/store"
)

type memSeedStore struct {
	mu        sync.Mutex
	patterns  []*store.Pattern
	responses []*store.CachedResponse
	nextID    int64
}

func (m *memSeedStore) GetPattern(_ context.Context, find *store.FindPattern) (*store.Pattern, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.patterns {
		if find.ScenarioID != nil && p.ScenarioID != *find.ScenarioID {
			continue
		}
		if find.DifficultyLevel != nil && p.DifficultyLevel != *find.DifficultyLevel {
			continue
		}
		if find.Text != nil && p.Text != *find.Text {
			continue
		}
		return p, nil
	}
	return nil, nil
}

func (m *memSeedStore) CreatePattern(_ context.Context, create *store.Pattern) (*store.Pattern, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	create.ID = m.nextID
	m.patterns = append(m.patterns, create)
	return create, nil
}

func (m *memSeedStore) CreateCachedResponse(_ context.Context, create *store.CachedResponse) (*store.CachedResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	create.ID = m.nextID
	m.responses = append(m.responses, create)
	return create, nil
}

const restaurantSeed = `
scenario_id: restaurant-order
difficulty_level: 2
patterns:
  - text: おすすめは何ですか
    conversation_turn: 1
    category: question
    keywords: [おすすめ]
    responses:
      - text: 本日のおすすめはラーメンです
        verified: true
      - text: 天ぷらが人気です
  - text: お会計をお願いします
    conversation_turn: 0
    category: request
    responses:
      - text: かしこまりました、少々お待ちください
        verified: true
`

func writeSeedFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func TestSeedDir(t *testing.T) {
	dir := t.TempDir()
	writeSeedFile(t, dir, "restaurant.yaml", restaurantSeed)
	writeSeedFile(t, dir, "notes.txt", "ignored")

	st := &memSeedStore{}
	seeder := NewSeeder(st, 2, nil)

	summary, err := seeder.SeedDir(context.Background(), dir)
	require.NoError(t, err)

	assert.Equal(t, 1, summary.Files)
	assert.Equal(t, int64(2), summary.PatternsCreated)
	assert.Equal(t, int64(0), summary.PatternsSkipped)
	assert.Equal(t, int64(3), summary.ResponsesCreated)

	require.Len(t, st.patterns, 2)
	assert.Equal(t, "restaurant-order", st.patterns[0].ScenarioID)
	assert.Equal(t, 2, st.patterns[0].DifficultyLevel)
	assert.Equal(t, []string{"おすすめ"}, st.patterns[0].Keywords)

	require.Len(t, st.responses, 3)
	assert.Equal(t, 1, st.responses[0].Variation)
	assert.True(t, st.responses[0].IsVerified)
	assert.Equal(t, 2, st.responses[1].Variation)
	assert.False(t, st.responses[1].IsVerified)
}

func TestSeedDirIdempotent(t *testing.T) {
	dir := t.TempDir()
	writeSeedFile(t, dir, "restaurant.yaml", restaurantSeed)

	st := &memSeedStore{}
	seeder := NewSeeder(st, 0, nil)

	_, err := seeder.SeedDir(context.Background(), dir)
	require.NoError(t, err)

	summary, err := seeder.SeedDir(context.Background(), dir)
	require.NoError(t, err)

	assert.Equal(t, int64(0), summary.PatternsCreated)
	assert.Equal(t, int64(2), summary.PatternsSkipped)
	assert.Equal(t, int64(0), summary.ResponsesCreated)
	assert.Len(t, st.patterns, 2)
	assert.Len(t, st.responses, 3)
}

func TestSeedFileValidation(t *testing.T) {
	dir := t.TempDir()
	writeSeedFile(t, dir, "broken.yaml", "patterns:\n  - text: x\n")

	seeder := NewSeeder(&memSeedStore{}, 0, nil)
	_, err := seeder.SeedFile(context.Background(), filepath.Join(dir, "broken.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "scenario_id")
}

func TestSeedFileMissing(t *testing.T) {
	seeder := NewSeeder(&memSeedStore{}, 0, nil)
	_, err := seeder.SeedFile(context.Background(), "/no/such/file.yaml")
	require.Error(t, err)
}
