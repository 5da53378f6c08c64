// Package search answers keyword and vector-similarity queries over the
// persisted corpus.
package search

import (
	"context"
	"fmt"
	"sort"

	"github.com/SierraJY/personal-archving/internal/models"
	"github.com/SierraJY/personal-archving/internal/storage"
)

// Engine is the retrieval engine. Keyword mode scans the store directly;
// similarity mode embeds the query with the same model used at ingestion
// and ranks by cosine similarity.
type Engine struct {
	db       *storage.DB
	embedder models.Embedder
}

// New creates a retrieval engine.
func New(db *storage.DB, embedder models.Embedder) *Engine {
	return &Engine{db: db, embedder: embedder}
}

// SearchKeyword returns every document whose keywords, summary, or
// doc_type contains the query as a substring, in storage order. No match
// yields an empty result, not an error.
func (e *Engine) SearchKeyword(query string) ([]*storage.Document, error) {
	docs, err := e.db.SearchKeyword(query)
	if err != nil {
		return nil, fmt.Errorf("keyword search: %w", err)
	}
	return docs, nil
}

// SearchSimilarity embeds the query and returns documents ranked by
// descending cosine similarity. Documents without an embedding cannot be
// compared and are excluded; they stay reachable through keyword search
// and ListAll.
func (e *Engine) SearchSimilarity(ctx context.Context, query string) ([]*storage.Document, error) {
	queryEmbedding, err := e.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	docs, err := e.db.List()
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}

	type scoredDoc struct {
		doc   *storage.Document
		score float32
	}

	scores := make([]scoredDoc, 0, len(docs))
	for _, doc := range docs {
		if doc.Embedding == nil {
			continue
		}
		score := models.CosineSimilarity(queryEmbedding, doc.Embedding)
		scores = append(scores, scoredDoc{doc: doc, score: score})
	}

	sort.SliceStable(scores, func(i, j int) bool {
		return scores[i].score > scores[j].score
	})

	results := make([]*storage.Document, 0, len(scores))
	for _, s := range scores {
		results = append(results, s.doc)
	}
	return results, nil
}

// ListAll returns every stored document in insertion order.
func (e *Engine) ListAll() ([]*storage.Document, error) {
	docs, err := e.db.List()
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	return docs, nil
}
