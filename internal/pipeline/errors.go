package pipeline

import "errors"

// Ingestion error kinds. Callers discriminate with errors.Is; every
// failure is wrapped with the failing stage and underlying cause.
var (
	// ErrInvalidImage: the upload could not be read as an image. Fatal,
	// no document is produced.
	ErrInvalidImage = errors.New("invalid image format")

	// ErrClassification: the document classifier failed, so no
	// extraction strategy can be chosen. Fatal.
	ErrClassification = errors.New("classification failed")

	// ErrExtraction: the selected strategy's model failed. Fatal for
	// this run; previously stored documents are untouched.
	ErrExtraction = errors.New("extraction failed")

	// ErrEnrichment: keyword extraction, summarization, or embedding
	// failed. Non-fatal: the run proceeds with the field left empty.
	ErrEnrichment = errors.New("enrichment failed")

	// ErrPersistence: the store errored. Fatal to the operation and
	// never retried here.
	ErrPersistence = errors.New("persistence failed")
)
