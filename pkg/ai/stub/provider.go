package stub

import (
	"context"

	"career-counselor-be/pkg/ai"
)

const greeting = "Hello! I'm your AI assistant (stubbed)."

// StubProvider echoes the last user turn. It exists for offline development
// and deterministic tests; no network involved.
type StubProvider struct{}

var _ ai.Provider = &StubProvider{}

func NewStubProvider() *StubProvider {
	return &StubProvider{}
}

func (s *StubProvider) Complete(ctx context.Context, history []ai.Message, opts ...ai.Option) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	for i := len(history) - 1; i >= 0; i-- {
		if history[i].Role == ai.RoleUser {
			return "Echo: " + history[i].Content, nil
		}
	}
	return greeting, nil
}
