package storage

import "time"

// DocType labels the extraction strategy a document went through.
// The set is closed: adding a type means adding a strategy.
type DocType string

const (
	DocGeneral DocType = "general"
	DocReceipt DocType = "receipt"
	DocForm    DocType = "form"
)

// Valid reports whether t is one of the supported document types.
func (t DocType) Valid() bool {
	switch t {
	case DocGeneral, DocReceipt, DocForm:
		return true
	}
	return false
}

// Document is the unit of storage and retrieval. A document is assembled
// once by the ingestion pipeline and never updated after insert.
type Document struct {
	ID       int64
	Filename string
	DocType  DocType
	Content  string
	Summary  string

	// Keywords is ordered by descending importance. The order is part of
	// the record's meaning and survives the JSON round-trip through the
	// keywords column.
	Keywords []string

	// StructuredData maps extracted field names to values, e.g.
	// "total" -> "4,500". Empty for general documents.
	StructuredData map[string]string

	UploadDate time.Time
	ImageData  []byte

	// Embedding is nil when embedding generation failed at ingestion.
	// When present it has the same dimensionality as every other stored
	// embedding, which similarity search relies on.
	Embedding []float32
}
