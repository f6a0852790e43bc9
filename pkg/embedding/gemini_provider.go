package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"ai-mentor-be/pkg/llm"
)

const (
	requestTimeout = 30 * time.Second
	maxAttempts    = 3
	retryBaseDelay = 500 * time.Millisecond
)

type geminiEmbeddingRequest struct {
	Model   string `json:"model"`
	Content struct {
		Parts []struct {
			Text string `json:"text"`
		} `json:"parts"`
	} `json:"content"`
	TaskType string `json:"task_type,omitempty"`
}

type GeminiProvider struct {
	apiKey string
	model  string
	client *http.Client
}

func NewGeminiProvider(apiKey string, model string) EmbeddingProvider {
	if model == "" {
		model = "text-embedding-004"
	}
	return &GeminiProvider{
		apiKey: apiKey,
		model:  model,
		client: &http.Client{Timeout: requestTimeout},
	}
}

func (p *GeminiProvider) Generate(ctx context.Context, text string, taskType string) (*EmbeddingResponse, error) {
	geminiReq := geminiEmbeddingRequest{
		Model:    p.model,
		TaskType: taskType,
	}
	geminiReq.Content.Parts = []struct {
		Text string `json:"text"`
	}{{Text: text}}

	geminiReqJson, err := json.Marshal(geminiReq)
	if err != nil {
		return nil, err
	}

	endpoint := fmt.Sprintf(
		"https://generativelanguage.googleapis.com/v1/models/%s:embedContent",
		p.model,
	)

	var resEmbedding EmbeddingResponse
	err = llm.DoWithRetry(ctx, maxAttempts, retryBaseDelay, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewBuffer(geminiReqJson))
		if err != nil {
			return err
		}
		req.Header.Set("x-goog-api-key", p.apiKey)
		req.Header.Set("Content-Type", "application/json")

		res, err := p.client.Do(req)
		if err != nil {
			return llm.Transient(err)
		}
		defer res.Body.Close()

		resByte, err := io.ReadAll(res.Body)
		if err != nil {
			return llm.Transient(err)
		}

		if res.StatusCode != http.StatusOK {
			err := fmt.Errorf("error from gemini response, code %d, body %s", res.StatusCode, string(resByte))
			if llm.IsTransientStatus(res.StatusCode) {
				return llm.Transient(err)
			}
			return err
		}

		return json.Unmarshal(resByte, &resEmbedding)
	})
	if err != nil {
		return nil, err
	}

	resEmbedding.Embedding.Values = NormalizeVector(resEmbedding.Embedding.Values)
	return &resEmbedding, nil
}
