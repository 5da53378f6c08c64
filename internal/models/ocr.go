package models

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
)

// OCRClient calls the general OCR model.
type OCRClient struct {
	baseURL string
	client  *http.Client
}

// NewOCRClient creates an OCR client against the vision inference
// service.
func NewOCRClient(baseURL string) *OCRClient {
	return &OCRClient{baseURL: baseURL, client: newHTTPClient()}
}

// OCRToken is one recognized token with its bounding box
// (x0, y0, x1, y1 in pixel coordinates).
type OCRToken struct {
	Text string `json:"text"`
	Box  [4]int `json:"box"`
}

// OCRResult holds the recognized text and, when the service provides
// them, per-token positions in reading order.
type OCRResult struct {
	Text   string     `json:"text"`
	Tokens []OCRToken `json:"tokens"`
}

type ocrRequest struct {
	Image string `json:"image"`
}

// Recognize runs OCR over a conditioned image. An unreadable page comes
// back as empty text, not an error.
func (c *OCRClient) Recognize(ctx context.Context, image []byte) (*OCRResult, error) {
	req := ocrRequest{Image: base64.StdEncoding.EncodeToString(image)}

	var resp OCRResult
	if err := postJSON(ctx, c.client, c.baseURL+"/ocr", req, &resp); err != nil {
		return nil, fmt.Errorf("ocr: %w", err)
	}
	return &resp, nil
}
