package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// DB wraps SQLite database operations for the document corpus.
//
// The column formats (keywords as a JSON array, structured_data as a JSON
// object, embedding as a JSON float array) match the existing archive.db
// corpus, so typed values are serialized only at this boundary.
type DB struct {
	db *sql.DB
}

// Open opens or creates a SQLite database at path.
func Open(path string) (*DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// WAL gives single-writer/multiple-reader behavior; a scan racing an
	// insert sees either a committed row or none at all.
	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		return nil, fmt.Errorf("enable WAL: %w", err)
	}

	storage := &DB{db: db}

	if err := storage.initSchema(); err != nil {
		return nil, fmt.Errorf("init schema: %w", err)
	}

	return storage, nil
}

// NewFromConn wraps an existing connection. Used by tests to inject a
// mocked or in-memory database.
func NewFromConn(db *sql.DB) *DB {
	return &DB{db: db}
}

// Close closes the database.
func (d *DB) Close() error {
	return d.db.Close()
}

// initSchema creates tables if they don't exist.
func (d *DB) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS documents (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		filename TEXT NOT NULL,
		doc_type TEXT NOT NULL,
		content TEXT NOT NULL,
		summary TEXT NOT NULL,
		keywords TEXT NOT NULL,
		structured_data TEXT NOT NULL,
		upload_date TIMESTAMP NOT NULL,
		image_data BLOB NOT NULL,
		embedding TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_doc_type ON documents(doc_type);
	CREATE INDEX IF NOT EXISTS idx_upload_date ON documents(upload_date);
	`

	_, err := d.db.Exec(schema)
	return err
}

// Insert stores a new document and assigns its ID and upload date.
// Documents are append-only: there is no update or delete.
func (d *DB) Insert(doc *Document) error {
	keywords := doc.Keywords
	if keywords == nil {
		keywords = []string{}
	}
	keywordsJSON, err := json.Marshal(keywords)
	if err != nil {
		return fmt.Errorf("marshal keywords: %w", err)
	}

	fields := doc.StructuredData
	if fields == nil {
		fields = map[string]string{}
	}
	fieldsJSON, err := json.Marshal(fields)
	if err != nil {
		return fmt.Errorf("marshal structured data: %w", err)
	}

	var embeddingJSON sql.NullString
	if doc.Embedding != nil {
		data, err := json.Marshal(doc.Embedding)
		if err != nil {
			return fmt.Errorf("marshal embedding: %w", err)
		}
		embeddingJSON = sql.NullString{String: string(data), Valid: true}
	}

	if doc.UploadDate.IsZero() {
		doc.UploadDate = time.Now()
	}

	res, err := d.db.Exec(`
	INSERT INTO documents (
		filename, doc_type, content, summary, keywords,
		structured_data, upload_date, image_data, embedding
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		doc.Filename, string(doc.DocType), doc.Content, doc.Summary,
		string(keywordsJSON), string(fieldsJSON), doc.UploadDate,
		doc.ImageData, embeddingJSON,
	)
	if err != nil {
		return fmt.Errorf("insert document: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("last insert id: %w", err)
	}
	doc.ID = id

	return nil
}

const selectColumns = `
	SELECT id, filename, doc_type, content, summary, keywords,
	       structured_data, upload_date, image_data, embedding
	FROM documents
`

// Get retrieves a document by ID. Returns nil without error when the
// document does not exist.
func (d *DB) Get(id int64) (*Document, error) {
	row := d.db.QueryRow(selectColumns+" WHERE id = ?", id)

	doc, err := scanDocument(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return doc, nil
}

// List retrieves all documents in insertion order.
func (d *DB) List() ([]*Document, error) {
	return d.queryDocuments(selectColumns + " ORDER BY id")
}

// SearchKeyword returns every document whose keywords, summary, or
// doc_type contains the query as a substring. The match is case-sensitive
// and applied identically to all three columns. No ranking: results come
// back in insertion order.
func (d *DB) SearchKeyword(query string) ([]*Document, error) {
	return d.queryDocuments(selectColumns+`
	WHERE instr(keywords, ?) > 0
	   OR instr(summary, ?) > 0
	   OR instr(doc_type, ?) > 0
	ORDER BY id`, query, query, query)
}

// Count returns the total number of documents.
func (d *DB) Count() (int, error) {
	var count int
	err := d.db.QueryRow("SELECT COUNT(*) FROM documents").Scan(&count)
	return count, err
}

func (d *DB) queryDocuments(query string, args ...any) ([]*Document, error) {
	rows, err := d.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var docs []*Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}

	return docs, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDocument(row rowScanner) (*Document, error) {
	doc := &Document{}
	var docType, keywordsJSON, fieldsJSON string
	var embeddingJSON sql.NullString

	err := row.Scan(
		&doc.ID, &doc.Filename, &docType, &doc.Content, &doc.Summary,
		&keywordsJSON, &fieldsJSON, &doc.UploadDate, &doc.ImageData,
		&embeddingJSON,
	)
	if err != nil {
		return nil, err
	}

	doc.DocType = DocType(docType)

	if err := json.Unmarshal([]byte(keywordsJSON), &doc.Keywords); err != nil {
		return nil, fmt.Errorf("unmarshal keywords for %d: %w", doc.ID, err)
	}
	if err := json.Unmarshal([]byte(fieldsJSON), &doc.StructuredData); err != nil {
		return nil, fmt.Errorf("unmarshal structured data for %d: %w", doc.ID, err)
	}
	if embeddingJSON.Valid {
		if err := json.Unmarshal([]byte(embeddingJSON.String), &doc.Embedding); err != nil {
			return nil, fmt.Errorf("unmarshal embedding for %d: %w", doc.ID, err)
		}
	}

	return doc, nil
}
