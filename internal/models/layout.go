package models

import (
	"context"
	"fmt"
	"net/http"
)

// LayoutClient calls the layout-aware token classification model, which
// assigns a field role to each (text, position) token pair.
type LayoutClient struct {
	baseURL string
	client  *http.Client
}

// NewLayoutClient creates a layout token classifier client against the
// vision inference service.
func NewLayoutClient(baseURL string) *LayoutClient {
	return &LayoutClient{baseURL: baseURL, client: newHTTPClient()}
}

type layoutRequest struct {
	Tokens []OCRToken `json:"tokens"`
}

type layoutResponse struct {
	Roles []string `json:"roles"`
}

// ClassifyTokens returns one field role per input token, in order. A
// role count that doesn't match the token count is a model error.
func (c *LayoutClient) ClassifyTokens(ctx context.Context, tokens []OCRToken) ([]string, error) {
	if len(tokens) == 0 {
		return nil, nil
	}

	req := layoutRequest{Tokens: tokens}

	var resp layoutResponse
	if err := postJSON(ctx, c.client, c.baseURL+"/layout", req, &resp); err != nil {
		return nil, fmt.Errorf("layout: %w", err)
	}
	if len(resp.Roles) != len(tokens) {
		return nil, fmt.Errorf("layout: got %d roles for %d tokens", len(resp.Roles), len(tokens))
	}
	return resp.Roles, nil
}
