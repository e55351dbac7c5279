package factory

import (
	"fmt"

	"career-counselor-be/pkg/ai"
	"career-counselor-be/pkg/ai/openai"
	"career-counselor-be/pkg/ai/stub"
)

func NewProvider(mode, apiKey, baseURL, modelName string) (ai.Provider, error) {
	switch mode {
	case "stub":
		return stub.NewStubProvider(), nil
	case "live":
		return openai.NewOpenAIProvider(apiKey, baseURL, modelName)
	default:
		return nil, fmt.Errorf("unsupported AI mode: %s", mode)
	}
}
