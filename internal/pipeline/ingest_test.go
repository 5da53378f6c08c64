package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SierraJY/personal-archving/internal/keyword"
	"github.com/SierraJY/personal-archving/internal/models"
	"github.com/SierraJY/personal-archving/internal/storage"
)

func testImage(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 32, 32))
	for y := 0; y < 32; y++ {
		for x := 0; x < 32; x++ {
			v := uint8(180 + (x+y)%40)
			img.Set(x, y, color.RGBA{R: v, G: v, B: v, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

// fixture wires a pipeline against stub vision and LLM services.
type fixture struct {
	vision *http.ServeMux
	llm    *http.ServeMux
	db     *storage.DB
	p      *Pipeline
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{vision: http.NewServeMux(), llm: http.NewServeMux()}

	visionSrv := httptest.NewServer(f.vision)
	t.Cleanup(visionSrv.Close)
	llmSrv := httptest.NewServer(f.llm)
	t.Cleanup(llmSrv.Close)

	db, err := storage.Open(filepath.Join(t.TempDir(), "archive.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	f.db = db

	reg := &models.Registry{
		Classifier: models.NewClassifier(visionSrv.URL),
		OCR:        models.NewOCRClient(visionSrv.URL),
		Receipt:    models.NewReceiptClient(visionSrv.URL),
		Layout:     models.NewLayoutClient(visionSrv.URL),
		Summarizer: models.NewSummarizer(llmSrv.URL, "test-summarizer"),
		Embedder:   models.NewOllamaEmbedder(llmSrv.URL, "test-embed"),
	}

	extractor := keyword.NewExtractor(nil, keyword.NewStemAnalyzer())
	f.p = New(reg, extractor, db)
	return f
}

func (f *fixture) classifyAs(label string) {
	f.vision.HandleFunc("/classify", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"label": label, "score": 0.97})
	})
}

func (f *fixture) summarizeAs(summary string) {
	f.llm.HandleFunc("/api/generate", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"response": summary})
	})
}

func (f *fixture) embedAs(vec []float32) {
	f.llm.HandleFunc("/api/embed", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"embeddings": [][]float32{vec}})
	})
}

func TestIngestReceiptScenario(t *testing.T) {
	f := newFixture(t)
	f.classifyAs("receipt")
	f.vision.HandleFunc("/receipt", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(models.ReceiptResult{
			Fields: map[string]string{"total": "4,500", "store": "starbucks"},
			Text:   "starbucks americano total 4,500",
		})
	})
	f.summarizeAs("coffee receipt from starbucks")
	f.embedAs([]float32{0.5, 0.25, -0.1})

	doc, err := f.p.Ingest(context.Background(), "receipt.jpg", testImage(t))
	require.NoError(t, err)

	assert.Equal(t, storage.DocReceipt, doc.DocType)
	assert.NotEmpty(t, doc.StructuredData["total"])
	assert.Equal(t, "coffee receipt from starbucks", doc.Summary)
	assert.Equal(t, []float32{0.5, 0.25, -0.1}, doc.Embedding)
	assert.NotEmpty(t, doc.Keywords)
	assert.NotZero(t, doc.ID)

	stored, err := f.db.Get(doc.ID)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, storage.DocReceipt, stored.DocType)
	assert.Equal(t, doc.Keywords, stored.Keywords)
}

func TestIngestGeneralDocument(t *testing.T) {
	f := newFixture(t)
	f.classifyAs("letter")
	f.vision.HandleFunc("/ocr", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(models.OCRResult{Text: "meeting notes about project planning"})
	})
	f.summarizeAs("notes about planning")
	f.embedAs([]float32{1, 0, 0})

	doc, err := f.p.Ingest(context.Background(), "notes.png", testImage(t))
	require.NoError(t, err)

	assert.Equal(t, storage.DocGeneral, doc.DocType)
	assert.Empty(t, doc.StructuredData)
	assert.Equal(t, "meeting notes about project planning", doc.Content)
}

func TestIngestInvalidImage(t *testing.T) {
	f := newFixture(t)

	_, err := f.p.Ingest(context.Background(), "junk.bin", []byte("not an image"))
	assert.ErrorIs(t, err, ErrInvalidImage)

	count, _ := f.db.Count()
	assert.Zero(t, count, "failed ingestion must not store a document")
}

func TestIngestClassificationFailure(t *testing.T) {
	f := newFixture(t)
	f.vision.HandleFunc("/classify", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model unavailable", http.StatusInternalServerError)
	})

	_, err := f.p.Ingest(context.Background(), "doc.png", testImage(t))
	assert.ErrorIs(t, err, ErrClassification)

	count, _ := f.db.Count()
	assert.Zero(t, count)
}

func TestIngestExtractionFailure(t *testing.T) {
	f := newFixture(t)
	f.classifyAs("letter")
	f.vision.HandleFunc("/ocr", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "ocr crashed", http.StatusInternalServerError)
	})

	_, err := f.p.Ingest(context.Background(), "doc.png", testImage(t))
	assert.ErrorIs(t, err, ErrExtraction)

	count, _ := f.db.Count()
	assert.Zero(t, count)
}

func TestIngestDegradedEnrichment(t *testing.T) {
	f := newFixture(t)
	f.classifyAs("letter")
	f.vision.HandleFunc("/ocr", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(models.OCRResult{Text: "quarterly budget review document"})
	})
	f.llm.HandleFunc("/api/generate", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "summarizer down", http.StatusInternalServerError)
	})
	f.llm.HandleFunc("/api/embed", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "embedder down", http.StatusInternalServerError)
	})

	doc, err := f.p.Ingest(context.Background(), "doc.png", testImage(t))
	require.NoError(t, err, "enrichment failures must not abort the ingestion")

	assert.Empty(t, doc.Summary)
	assert.Nil(t, doc.Embedding)
	assert.NotEmpty(t, doc.Keywords, "keyword extraction is independent of the failed models")

	stored, err := f.db.Get(doc.ID)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Nil(t, stored.Embedding)
}

func TestIngestBlankPage(t *testing.T) {
	f := newFixture(t)
	f.classifyAs("letter")
	f.vision.HandleFunc("/ocr", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(models.OCRResult{Text: ""})
	})
	// Summarize short-circuits on empty input; embedding an empty string
	// fails client-side. Neither endpoint should be hit for the content.

	doc, err := f.p.Ingest(context.Background(), "blank.png", testImage(t))
	require.NoError(t, err)

	assert.Empty(t, doc.Content)
	assert.Empty(t, doc.Keywords)
	assert.Empty(t, doc.Summary)
	assert.Nil(t, doc.Embedding)
}

func TestIngestDeterministicEnrichment(t *testing.T) {
	f := newFixture(t)
	f.classifyAs("letter")
	f.vision.HandleFunc("/ocr", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(models.OCRResult{Text: "project report for project alpha"})
	})
	f.summarizeAs("a project report")
	f.embedAs([]float32{0.3, 0.3, 0.3})

	raw := testImage(t)
	first, err := f.p.Ingest(context.Background(), "a.png", raw)
	require.NoError(t, err)
	second, err := f.p.Ingest(context.Background(), "b.png", raw)
	require.NoError(t, err)

	assert.Equal(t, first.Keywords, second.Keywords)
	assert.Equal(t, first.Embedding, second.Embedding)
}
