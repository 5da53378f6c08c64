package models

import (
	"context"
	"fmt"
	"net/http"
	"strings"
)

const summaryPrompt = "Summarize the following document in two or three sentences, in the document's own language. Output only the summary.\n\n"

// Summarizer reduces extracted text to a short summary via Ollama's
// generate API.
type Summarizer struct {
	baseURL string
	model   string
	client  *http.Client
}

// NewSummarizer creates a summarizer client.
func NewSummarizer(baseURL, model string) *Summarizer {
	return &Summarizer{baseURL: baseURL, model: model, client: newHTTPClient()}
}

type generateRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	Stream bool   `json:"stream"`
}

type generateResponse struct {
	Response string `json:"response"`
}

// Summarize returns a short summary of text. Input too short to
// summarize degenerates to the input itself rather than an error.
func (s *Summarizer) Summarize(ctx context.Context, text string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return text, nil
	}

	req := generateRequest{
		Model:  s.model,
		Prompt: summaryPrompt + text,
		Stream: false,
	}

	var resp generateResponse
	if err := postJSON(ctx, s.client, s.baseURL+"/api/generate", req, &resp); err != nil {
		return "", fmt.Errorf("summarize: %w", err)
	}

	summary := strings.TrimSpace(resp.Response)
	if summary == "" {
		// Degenerate summarization on very short input.
		return text, nil
	}
	return summary, nil
}
