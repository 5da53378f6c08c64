package models

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
)

// Classifier calls the document image classification model. It returns
// one label from the model's closed label set; mapping labels onto
// extraction strategies happens in the router, not here.
type Classifier struct {
	baseURL string
	client  *http.Client
}

// NewClassifier creates a classifier client against the vision inference
// service.
func NewClassifier(baseURL string) *Classifier {
	return &Classifier{baseURL: baseURL, client: newHTTPClient()}
}

type classifyRequest struct {
	Image string `json:"image"` // base64 encoded
}

type classifyResponse struct {
	Label string  `json:"label"`
	Score float64 `json:"score"`
}

// Classify returns the model's label for a conditioned image.
func (c *Classifier) Classify(ctx context.Context, image []byte) (string, error) {
	req := classifyRequest{Image: base64.StdEncoding.EncodeToString(image)}

	var resp classifyResponse
	if err := postJSON(ctx, c.client, c.baseURL+"/classify", req, &resp); err != nil {
		return "", fmt.Errorf("classify: %w", err)
	}
	if resp.Label == "" {
		return "", fmt.Errorf("classify: empty label from model")
	}
	return resp.Label, nil
}
