// Package extract selects and runs the type-specific extraction strategy
// for a classified document image.
package extract

import (
	"context"
	"fmt"
	"strings"

	"github.com/SierraJY/personal-archving/internal/models"
	"github.com/SierraJY/personal-archving/internal/storage"
)

// Result is what every strategy produces: the full extracted text, and
// structured fields when the strategy recognizes any. Content is always
// set, possibly to the empty string, so the enrichment stages never have
// to special-case a missing text.
type Result struct {
	Content string
	Fields  map[string]string
}

// Strategy extracts content from a conditioned document image.
type Strategy interface {
	Extract(ctx context.Context, image []byte) (*Result, error)
}

// RouteLabel maps a classifier label onto a document type. The classifier
// vocabulary is broader than the strategy set (letter, memo, news article,
// ...); everything without a specialized strategy is handled as a general
// text page.
func RouteLabel(label string) storage.DocType {
	switch strings.ToLower(strings.TrimSpace(label)) {
	case "receipt", "invoice", "budget":
		return storage.DocReceipt
	case "form", "questionnaire":
		return storage.DocForm
	default:
		return storage.DocGeneral
	}
}

// ForType returns the strategy for a document type. The switch is
// exhaustive over the closed DocType set.
func ForType(t storage.DocType, reg *models.Registry) (Strategy, error) {
	switch t {
	case storage.DocGeneral:
		return &GeneralStrategy{OCR: reg.OCR}, nil
	case storage.DocReceipt:
		return &ReceiptStrategy{Receipt: reg.Receipt}, nil
	case storage.DocForm:
		return &FormStrategy{OCR: reg.OCR, Layout: reg.Layout}, nil
	default:
		return nil, fmt.Errorf("no extraction strategy for document type %q", t)
	}
}

// GeneralStrategy runs plain OCR. General pages have no structured
// fields.
type GeneralStrategy struct {
	OCR *models.OCRClient
}

func (s *GeneralStrategy) Extract(ctx context.Context, image []byte) (*Result, error) {
	res, err := s.OCR.Recognize(ctx, image)
	if err != nil {
		return nil, fmt.Errorf("general extraction: %w", err)
	}
	return &Result{Content: res.Text, Fields: map[string]string{}}, nil
}

// ReceiptStrategy runs the receipt structuring model, which produces
// line-item fields and a linearized text rendering in one pass.
type ReceiptStrategy struct {
	Receipt *models.ReceiptClient
}

func (s *ReceiptStrategy) Extract(ctx context.Context, image []byte) (*Result, error) {
	res, err := s.Receipt.Structure(ctx, image)
	if err != nil {
		return nil, fmt.Errorf("receipt extraction: %w", err)
	}
	return &Result{Content: res.Text, Fields: res.Fields}, nil
}

// FormStrategy runs OCR for tokens and positions, classifies each token's
// field role with the layout model, and aggregates same-role tokens into
// structured fields. Content is the recognized tokens in reading order.
type FormStrategy struct {
	OCR    *models.OCRClient
	Layout *models.LayoutClient
}

func (s *FormStrategy) Extract(ctx context.Context, image []byte) (*Result, error) {
	ocrRes, err := s.OCR.Recognize(ctx, image)
	if err != nil {
		return nil, fmt.Errorf("form ocr: %w", err)
	}

	if len(ocrRes.Tokens) == 0 {
		// Nothing to classify; fall back to whatever text OCR gave us.
		return &Result{Content: ocrRes.Text, Fields: map[string]string{}}, nil
	}

	roles, err := s.Layout.ClassifyTokens(ctx, ocrRes.Tokens)
	if err != nil {
		return nil, fmt.Errorf("form layout: %w", err)
	}

	fields := map[string]string{}
	words := make([]string, 0, len(ocrRes.Tokens))
	for i, tok := range ocrRes.Tokens {
		words = append(words, tok.Text)

		role := roles[i]
		if role == "" || role == "other" {
			continue
		}
		if existing, ok := fields[role]; ok {
			fields[role] = existing + " " + tok.Text
		} else {
			fields[role] = tok.Text
		}
	}

	return &Result{Content: strings.Join(words, " "), Fields: fields}, nil
}
