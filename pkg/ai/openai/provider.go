package openai

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"career-counselor-be/pkg/ai"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

// systemPreamble frames every conversation sent to the live provider.
const systemPreamble = "You are a career counselor who provides supportive, " +
	"thoughtful, and empathetic advice. Also, you are a world-class expert " +
	"in resume writing and job searching."

type OpenAIProvider struct {
	llm       llms.Model
	modelName string
}

var _ ai.Provider = &OpenAIProvider{}

func NewOpenAIProvider(apiKey, baseURL, modelName string) (*OpenAIProvider, error) {
	opts := []openai.Option{
		openai.WithModel(modelName),
		openai.WithToken(apiKey),
		openai.WithHTTPClient(&http.Client{Timeout: 120 * time.Second}),
	}
	if baseURL != "" {
		opts = append(opts, openai.WithBaseURL(baseURL))
	}

	llm, err := openai.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("create openai client: %w", err)
	}

	return &OpenAIProvider{
		llm:       llm,
		modelName: modelName,
	}, nil
}

func (p *OpenAIProvider) Complete(ctx context.Context, history []ai.Message, opts ...ai.Option) (string, error) {
	options := &ai.Options{
		Temperature: 0.7,
	}
	for _, opt := range opts {
		opt(options)
	}

	content := make([]llms.MessageContent, 0, len(history)+1)
	content = append(content, llms.TextParts(llms.ChatMessageTypeSystem, systemPreamble))
	for _, msg := range history {
		content = append(content, llms.TextParts(mapRole(msg.Role), msg.Content))
	}

	callOpts := []llms.CallOption{
		llms.WithTemperature(options.Temperature),
	}
	if options.Model != "" {
		callOpts = append(callOpts, llms.WithModel(options.Model))
	}
	if options.MaxTokens > 0 {
		callOpts = append(callOpts, llms.WithMaxTokens(options.MaxTokens))
	}

	resp, err := p.llm.GenerateContent(ctx, content, callOpts...)
	if err != nil {
		return "", fmt.Errorf("openai request failed: %w", err)
	}

	if len(resp.Choices) == 0 || resp.Choices[0].Content == "" {
		return "(no output)", nil
	}
	return resp.Choices[0].Content, nil
}

func mapRole(role string) llms.ChatMessageType {
	switch role {
	case ai.RoleAssistant:
		return llms.ChatMessageTypeAI
	case ai.RoleSystem:
		return llms.ChatMessageTypeSystem
	default:
		return llms.ChatMessageTypeHuman
	}
}
