package models

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

var _ Embedder = (*OllamaEmbedder)(nil)

// OllamaEmbedder generates embeddings through Ollama's /api/embed
// endpoint.
type OllamaEmbedder struct {
	baseURL string
	model   string
	client  *http.Client
}

// NewOllamaEmbedder creates a new Ollama embedding client.
func NewOllamaEmbedder(baseURL, model string) *OllamaEmbedder {
	return &OllamaEmbedder{baseURL: baseURL, model: model, client: newHTTPClient()}
}

// embedRequest is the request format for Ollama's /api/embed endpoint.
type embedRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

// embedResponse is the response format from Ollama's /api/embed endpoint.
type embedResponse struct {
	Model      string      `json:"model"`
	Embeddings [][]float32 `json:"embeddings"`
}

// Embed generates an embedding for a single text string.
func (c *OllamaEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if text == "" {
		return nil, fmt.Errorf("text cannot be empty")
	}

	req := embedRequest{
		Model: c.model,
		Input: []string{text},
	}

	var resp embedResponse
	if err := postJSON(ctx, c.client, c.baseURL+"/api/embed", req, &resp); err != nil {
		return nil, fmt.Errorf("ollama embed: %w", err)
	}

	if len(resp.Embeddings) == 0 {
		return nil, fmt.Errorf("no embeddings returned")
	}

	return resp.Embeddings[0], nil
}

// Health checks if the Ollama service is available and the model is
// loaded.
func (c *OllamaEmbedder) Health() error {
	resp, err := c.client.Get(c.baseURL + "/api/tags")
	if err != nil {
		return fmt.Errorf("ollama not available: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("ollama returned status %d", resp.StatusCode)
	}

	var tagsResp struct {
		Models []struct {
			Name string `json:"name"`
		} `json:"models"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&tagsResp); err != nil {
		return fmt.Errorf("decode tags response: %w", err)
	}

	// Compare base names without the :tag suffix.
	wanted := stripModelTag(c.model)
	for _, model := range tagsResp.Models {
		if stripModelTag(model.Name) == wanted {
			return nil
		}
	}

	return fmt.Errorf("model %s not found (run: ollama pull %s)", c.model, c.model)
}

// stripModelTag removes the tag suffix from a model name
// (e.g. "model:latest" -> "model").
func stripModelTag(name string) string {
	if idx := strings.IndexByte(name, ':'); idx >= 0 {
		return name[:idx]
	}
	return name
}
