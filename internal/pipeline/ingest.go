// Package pipeline orchestrates document ingestion: condition the image,
// classify it, run the type-specific extraction strategy, enrich the
// result with keywords, a summary, and an embedding, and persist the
// assembled document.
package pipeline

import (
	"context"
	"fmt"
	"log"
	"sync"

	"github.com/SierraJY/personal-archving/internal/extract"
	"github.com/SierraJY/personal-archving/internal/imageproc"
	"github.com/SierraJY/personal-archving/internal/keyword"
	"github.com/SierraJY/personal-archving/internal/models"
	"github.com/SierraJY/personal-archving/internal/storage"
)

// Pipeline runs ingestion. One ingestion runs to completion before the
// next; the pipeline itself holds no mutable state between runs.
type Pipeline struct {
	reg      *models.Registry
	keywords *keyword.Extractor
	db       *storage.DB
}

// New creates a pipeline over the given model registry, keyword
// extractor, and store.
func New(reg *models.Registry, keywords *keyword.Extractor, db *storage.DB) *Pipeline {
	return &Pipeline{reg: reg, keywords: keywords, db: db}
}

// Ingest runs the full pipeline for one uploaded image and persists the
// resulting document. The returned document carries its assigned ID.
func (p *Pipeline) Ingest(ctx context.Context, filename string, raw []byte) (*storage.Document, error) {
	doc, err := p.Assemble(ctx, filename, raw)
	if err != nil {
		return nil, err
	}
	if err := p.Save(doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// Assemble runs every stage up to, but not including, persistence. Used
// directly when the caller wants to review the record before saving.
func (p *Pipeline) Assemble(ctx context.Context, filename string, raw []byte) (*storage.Document, error) {
	conditioned, err := imageproc.Condition(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}
	encoded, err := imageproc.EncodePNG(conditioned)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}

	label, err := p.reg.Classifier.Classify(ctx, encoded)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrClassification, err)
	}
	docType := extract.RouteLabel(label)

	strategy, err := extract.ForType(docType, p.reg)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrClassification, err)
	}

	result, err := strategy.Extract(ctx, encoded)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrExtraction, err)
	}

	doc := &storage.Document{
		Filename:       filename,
		DocType:        docType,
		Content:        result.Content,
		StructuredData: result.Fields,
		ImageData:      raw,
	}

	p.enrich(ctx, doc)
	return doc, nil
}

// Save persists an assembled document.
func (p *Pipeline) Save(doc *storage.Document) error {
	if err := p.db.Insert(doc); err != nil {
		return fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	return nil
}

// enrich computes keywords, summary, and embedding concurrently; each
// consumes only the content text and writes a distinct document field.
// An individual failure degrades the document instead of aborting the
// run.
func (p *Pipeline) enrich(ctx context.Context, doc *storage.Document) {
	var wg sync.WaitGroup
	wg.Add(3)

	go func() {
		defer wg.Done()
		keywords, err := p.keywords.Extract(doc.Content)
		if err != nil {
			log.Printf("Warning: %v: keywords for %s: %v", ErrEnrichment, doc.Filename, err)
			return
		}
		doc.Keywords = keywords
	}()

	go func() {
		defer wg.Done()
		summary, err := p.reg.Summarizer.Summarize(ctx, doc.Content)
		if err != nil {
			log.Printf("Warning: %v: summary for %s: %v", ErrEnrichment, doc.Filename, err)
			return
		}
		doc.Summary = summary
	}()

	go func() {
		defer wg.Done()
		embedding, err := p.reg.Embedder.Embed(ctx, doc.Content)
		if err != nil {
			log.Printf("Warning: %v: embedding for %s: %v", ErrEnrichment, doc.Filename, err)
			return
		}
		doc.Embedding = embedding
	}()

	wg.Wait()
}
