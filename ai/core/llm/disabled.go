package llm

import (
	"context"

	"github.com/pkg/errors"
)

// ErrDisabled is returned by the disabled generator. The cache can
// still serve hits from seeded patterns without a configured provider.
var ErrDisabled = errors.New("generation service not configured")

type disabled struct{}

// NewDisabled returns a Service that fails every generation call.
func NewDisabled() Service {
	return disabled{}
}

func (disabled) Generate(context.Context, string, []Turn, string) (string, *CallStats, error) {
	return "", nil, ErrDisabled
}

func (disabled) Warmup(context.Context) {}
