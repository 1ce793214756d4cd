// Package scenario holds the conversation-practice scenario catalog.
// Each scenario is a YAML file defining the role-play setting and the
// system prompt handed to the generator on a cache miss.
package scenario

import (
	"sort"

	"github.com/pkg/errors"

	"github.com/hrygo/kaiwa/ai/configloader"
)

// Scenario is one role-play setting, e.g. airport immigration or
// ordering at a restaurant.
type Scenario struct {
	ID    string `yaml:"id"`
	Title string `yaml:"title"`

	// SystemPrompt primes the generator with the role and register it
	// should answer in.
	SystemPrompt string `yaml:"system_prompt"`

	// DefaultDifficulty applies when the caller does not pick one.
	DefaultDifficulty int `yaml:"default_difficulty"`

	// MaxTurns bounds one practice session. 0 means unbounded.
	MaxTurns int `yaml:"max_turns"`

	// DisableLearning keeps generated replies out of the cache for
	// this scenario, e.g. free-talk settings where inputs rarely recur.
	DisableLearning bool `yaml:"disable_learning"`
}

// Registry is the loaded scenario catalog, keyed by scenario ID.
type Registry struct {
	scenarios map[string]*Scenario
}

// LoadRegistry reads every scenario YAML under <baseDir>/scenarios.
func LoadRegistry(baseDir string) (*Registry, error) {
	loader := configloader.NewLoader(baseDir)
	loaded, err := loader.LoadDir("scenarios", func(string) (any, error) {
		return &Scenario{}, nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to load scenario catalog")
	}

	registry := &Registry{scenarios: make(map[string]*Scenario, len(loaded))}
	for path, target := range loaded {
		sc := target.(*Scenario)
		if sc.ID == "" {
			return nil, errors.Errorf("scenario file %s missing id", path)
		}
		if _, dup := registry.scenarios[sc.ID]; dup {
			return nil, errors.Errorf("duplicate scenario id %q in %s", sc.ID, path)
		}
		if sc.DefaultDifficulty <= 0 {
			sc.DefaultDifficulty = 1
		}
		registry.scenarios[sc.ID] = sc
	}

	return registry, nil
}

// Get returns the scenario for id.
func (r *Registry) Get(id string) (*Scenario, bool) {
	sc, ok := r.scenarios[id]
	return sc, ok
}

// List returns all scenarios ordered by ID.
func (r *Registry) List() []*Scenario {
	list := make([]*Scenario, 0, len(r.scenarios))
	for _, sc := range r.scenarios {
		list = append(list, sc)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].ID < list[j].ID })
	return list
}
