package models

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
)

// ReceiptClient calls the receipt structuring model, a sequence
// generator tuned for receipts that emits line-item fields plus a
// linearized text rendering.
type ReceiptClient struct {
	baseURL string
	client  *http.Client
}

// NewReceiptClient creates a receipt structurer client against the
// vision inference service.
func NewReceiptClient(baseURL string) *ReceiptClient {
	return &ReceiptClient{baseURL: baseURL, client: newHTTPClient()}
}

// ReceiptResult holds the structured fields (e.g. "total", "date",
// line items) and the linearized receipt text.
type ReceiptResult struct {
	Fields map[string]string `json:"fields"`
	Text   string            `json:"text"`
}

type receiptRequest struct {
	Image string `json:"image"`
}

// Structure extracts fields and text from a conditioned receipt image.
func (c *ReceiptClient) Structure(ctx context.Context, image []byte) (*ReceiptResult, error) {
	req := receiptRequest{Image: base64.StdEncoding.EncodeToString(image)}

	var resp ReceiptResult
	if err := postJSON(ctx, c.client, c.baseURL+"/receipt", req, &resp); err != nil {
		return nil, fmt.Errorf("receipt: %w", err)
	}
	if resp.Fields == nil {
		resp.Fields = map[string]string{}
	}
	return &resp, nil
}
