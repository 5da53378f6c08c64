package models

import "github.com/SierraJY/personal-archving/internal/config"

// Registry aggregates the external model clients. It is built once at
// startup and passed into whatever needs a model; components never reach
// for ambient state.
type Registry struct {
	Classifier *Classifier
	OCR        *OCRClient
	Receipt    *ReceiptClient
	Layout     *LayoutClient
	Summarizer *Summarizer
	Embedder   Embedder
}

// NewRegistry wires every model client from configuration.
func NewRegistry(cfg config.ModelsConfig) (*Registry, error) {
	embedURL := cfg.OllamaURL
	if cfg.EmbedProvider == "lmstudio" {
		embedURL = cfg.LMStudioURL
	}
	embedder, err := NewEmbedder(cfg.EmbedProvider, embedURL, cfg.EmbedModel)
	if err != nil {
		return nil, err
	}

	return &Registry{
		Classifier: NewClassifier(cfg.VisionURL),
		OCR:        NewOCRClient(cfg.VisionURL),
		Receipt:    NewReceiptClient(cfg.VisionURL),
		Layout:     NewLayoutClient(cfg.VisionURL),
		Summarizer: NewSummarizer(cfg.OllamaURL, cfg.SummaryModel),
		Embedder:   embedder,
	}, nil
}
