package jina

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"ai-mentor-be/pkg/embedding"
	"ai-mentor-be/pkg/llm"
)

const (
	requestTimeout = 30 * time.Second
	maxAttempts    = 3
	retryBaseDelay = 500 * time.Millisecond
)

type JinaProvider struct {
	apiKey  string
	baseURL string
	model   string
	client  *http.Client
}

type embeddingRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type embeddingResponse struct {
	Data []struct {
		Object    string    `json:"object"`
		Index     int       `json:"index"`
		Embedding []float32 `json:"embedding"`
	} `json:"data"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

func NewJinaProvider(apiKey string) embedding.EmbeddingProvider {
	return &JinaProvider{
		apiKey:  apiKey,
		baseURL: "https://api.jina.ai/v1/embeddings",
		model:   "jina-embeddings-v2-base-en",
		client:  &http.Client{Timeout: requestTimeout},
	}
}

func (p *JinaProvider) Generate(ctx context.Context, text string, taskType string) (*embedding.EmbeddingResponse, error) {
	// Jina takes an array of inputs. We wrap single text.
	reqBody := embeddingRequest{
		Model: p.model,
		Input: []string{text},
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	var apiResp embeddingResponse
	err = llm.DoWithRetry(ctx, maxAttempts, retryBaseDelay, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL, bytes.NewBuffer(jsonData))
		if err != nil {
			return fmt.Errorf("failed to create request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", p.apiKey))

		resp, err := p.client.Do(req)
		if err != nil {
			return llm.Transient(err)
		}
		defer resp.Body.Close()

		bodyBytes, err := io.ReadAll(resp.Body)
		if err != nil {
			return llm.Transient(err)
		}

		if resp.StatusCode != http.StatusOK {
			err := fmt.Errorf("jina embedding error, code %d, body %s", resp.StatusCode, string(bodyBytes))
			if llm.IsTransientStatus(resp.StatusCode) {
				return llm.Transient(err)
			}
			return err
		}

		return json.Unmarshal(bodyBytes, &apiResp)
	})
	if err != nil {
		return nil, err
	}

	if apiResp.Error != nil {
		return nil, fmt.Errorf("jina embedding error: %s", apiResp.Error.Message)
	}
	if len(apiResp.Data) == 0 {
		return nil, fmt.Errorf("jina embedding returned no data")
	}

	return &embedding.EmbeddingResponse{
		Embedding: embedding.EmbeddingResponseEmbedding{
			Values: embedding.NormalizeVector(apiResp.Data[0].Embedding),
		},
	}, nil
}
