package completion

import (
	"context"
	"strings"

	"career-counselor-be/internal/pkg/logger"
	"career-counselor-be/pkg/ai"
)

// User-facing fallbacks. Provider failures never propagate past this
// adapter; the conversation keeps working with a placeholder reply.
const (
	fallbackRateLimited = "AI is busy (rate limit). Please try again in a moment."
	fallbackTimeout     = "AI took too long to respond. Try again."
	fallbackGeneric     = "Failed to fetch AI response. Please retry."
)

// Result carries the generated text plus whether it is a masked failure.
// Degraded lets callers and monitoring distinguish a real completion from a
// placeholder without changing what the end user sees.
type Result struct {
	Text     string
	Degraded bool
}

type Adapter struct {
	provider ai.Provider
	log      logger.ILogger
}

func NewAdapter(provider ai.Provider, log logger.ILogger) *Adapter {
	return &Adapter{
		provider: provider,
		log:      log,
	}
}

// Generate forwards the transcript to the provider. It never returns a
// provider error: rate-limit and timeout failures map to distinct
// human-readable messages, everything else is logged and masked.
func (a *Adapter) Generate(ctx context.Context, history []ai.Message, opts ...ai.Option) Result {
	text, err := a.provider.Complete(ctx, history, opts...)
	if err == nil {
		return Result{Text: text}
	}

	msg := err.Error()
	switch {
	case strings.Contains(msg, "429") || strings.Contains(strings.ToLower(msg), "rate limit"):
		return Result{Text: fallbackRateLimited, Degraded: true}
	case strings.Contains(strings.ToLower(msg), "timeout") || strings.Contains(msg, "deadline exceeded"):
		return Result{Text: fallbackTimeout, Degraded: true}
	default:
		a.log.Error("completion", "provider call failed", map[string]interface{}{"error": msg})
		return Result{Text: fallbackGeneric, Degraded: true}
	}
}

// Summarize asks the provider for a short session title (at most five
// words). Unlike Generate, failures surface to the caller so auto-titling
// can simply be skipped.
func (a *Adapter) Summarize(ctx context.Context, history []ai.Message) (string, error) {
	prompt := ai.Message{
		Role: ai.RoleUser,
		Content: "Summarize this conversation as a session title of at most " +
			"five words. Reply with the title only, no quotes.",
	}
	title, err := a.provider.Complete(ctx, append(history, prompt), ai.WithMaxTokens(16))
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(strings.Trim(strings.TrimSpace(title), `"`)), nil
}
