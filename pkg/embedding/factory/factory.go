package factory

import (
	"fmt"

	"ai-mentor-be/pkg/embedding"
	"ai-mentor-be/pkg/embedding/jina"
)

// NewEmbeddingProvider selects an embedding backend by name. The base URL
// only applies to ollama; the API key only to the hosted providers.
func NewEmbeddingProvider(providerType string, modelName string, baseURL string, apiKey string) (embedding.EmbeddingProvider, error) {
	switch providerType {
	case "ollama":
		return embedding.NewOllamaProvider(baseURL, modelName), nil
	case "gemini":
		return embedding.NewGeminiProvider(apiKey, modelName), nil
	case "openai":
		return embedding.NewOpenAIProvider(apiKey, modelName), nil
	case "jina":
		return jina.NewJinaProvider(apiKey), nil
	default:
		return nil, fmt.Errorf("unknown embedding provider: %s", providerType)
	}
}
