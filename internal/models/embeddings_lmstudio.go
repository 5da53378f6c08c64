package models

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

var _ Embedder = (*LMStudioEmbedder)(nil)

// LMStudioEmbedder generates embeddings through LM Studio's
// OpenAI-compatible /v1/embeddings endpoint.
type LMStudioEmbedder struct {
	baseURL string
	model   string
	client  *http.Client
}

// NewLMStudioEmbedder creates a new LM Studio embedding client.
func NewLMStudioEmbedder(baseURL, model string) *LMStudioEmbedder {
	return &LMStudioEmbedder{baseURL: baseURL, model: model, client: newHTTPClient()}
}

// openAIEmbedRequest is the request format for the OpenAI-compatible
// /v1/embeddings endpoint.
type openAIEmbedRequest struct {
	Input string `json:"input"`
	Model string `json:"model"`
}

// openAIEmbedResponse is the response format from the OpenAI-compatible
// /v1/embeddings endpoint.
type openAIEmbedResponse struct {
	Data []struct {
		Embedding []float32 `json:"embedding"`
		Index     int       `json:"index"`
	} `json:"data"`
	Model string `json:"model"`
}

// Embed generates an embedding for a single text string.
func (c *LMStudioEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if text == "" {
		return nil, fmt.Errorf("text cannot be empty")
	}

	req := openAIEmbedRequest{Input: text, Model: c.model}

	var resp openAIEmbedResponse
	if err := postJSON(ctx, c.client, c.baseURL+"/v1/embeddings", req, &resp); err != nil {
		return nil, fmt.Errorf("lmstudio embed: %w", err)
	}

	if len(resp.Data) == 0 {
		return nil, fmt.Errorf("no embeddings returned")
	}

	return resp.Data[0].Embedding, nil
}

// Health checks if the LM Studio service is available with a model
// loaded. LM Studio may accept any model name, so an exact match is not
// required.
func (c *LMStudioEmbedder) Health() error {
	resp, err := c.client.Get(c.baseURL + "/v1/models")
	if err != nil {
		return fmt.Errorf("lmstudio not available: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("lmstudio returned status %d", resp.StatusCode)
	}

	var modelsResp struct {
		Data []struct {
			ID string `json:"id"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&modelsResp); err != nil {
		return fmt.Errorf("decode models response: %w", err)
	}

	if len(modelsResp.Data) == 0 {
		return fmt.Errorf("no models loaded in lmstudio")
	}
	return nil
}
