package scenario

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeScenario(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func TestLoadRegistry(t *testing.T) {
	base := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(base, "scenarios"), 0o755))

	writeScenario(t, filepath.Join(base, "scenarios"), "airport.yaml", `
id: airport-immigration
title: 入国審査
system_prompt: あなたは空港の入国審査官です。
default_difficulty: 2
max_turns: 10
`)
	writeScenario(t, filepath.Join(base, "scenarios"), "free.yaml", `
id: free-talk
title: フリートーク
system_prompt: 自由に会話してください。
disable_learning: true
`)

	registry, err := LoadRegistry(base)
	require.NoError(t, err)

	airport, ok := registry.Get("airport-immigration")
	require.True(t, ok)
	assert.Equal(t, "入国審査", airport.Title)
	assert.Equal(t, 2, airport.DefaultDifficulty)
	assert.False(t, airport.DisableLearning)

	free, ok := registry.Get("free-talk")
	require.True(t, ok)
	assert.True(t, free.DisableLearning)
	// Unset difficulty falls back to 1.
	assert.Equal(t, 1, free.DefaultDifficulty)

	_, ok = registry.Get("missing")
	assert.False(t, ok)

	list := registry.List()
	require.Len(t, list, 2)
	assert.Equal(t, "airport-immigration", list[0].ID)
	assert.Equal(t, "free-talk", list[1].ID)
}

func TestLoadRegistryMissingID(t *testing.T) {
	base := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(base, "scenarios"), 0o755))
	writeScenario(t, filepath.Join(base, "scenarios"), "bad.yaml", "title: no id\n")

	_, err := LoadRegistry(base)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing id")
}

func TestLoadRegistryDuplicateID(t *testing.T) {
	base := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(base, "scenarios"), 0o755))
	writeScenario(t, filepath.Join(base, "scenarios"), "a.yaml", "id: dup\n")
	writeScenario(t, filepath.Join(base, "scenarios"), "b.yaml", "id: dup\n")

	_, err := LoadRegistry(base)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate scenario id")
}
