// Package config reads runtime settings from environment variables. A
// .env file is auto-loaded via godotenv; real environment variables take
// precedence.
package config

import (
	"os"
	"path/filepath"

	_ "github.com/joho/godotenv/autoload"
)

// ModelsConfig holds endpoints and model names for the external
// recognition and language models.
type ModelsConfig struct {
	// VisionURL is the inference service hosting the document
	// classifier, OCR, receipt structurer, and layout token classifier.
	VisionURL string

	// OllamaURL serves embeddings and summaries.
	OllamaURL    string
	EmbedModel   string
	SummaryModel string

	// EmbedProvider selects the embedding backend: "ollama" or
	// "lmstudio".
	EmbedProvider string
	LMStudioURL   string
}

// Config is the application configuration, populated from the
// environment.
type Config struct {
	DataDir string
	DBPath  string
	Models  ModelsConfig
}

// Load reads configuration from environment variables, applying defaults
// for everything that can sensibly have one.
func Load() *Config {
	dataDir := getEnv("ARCHIVE_DATA_DIR", "./data")
	return &Config{
		DataDir: dataDir,
		DBPath:  getEnv("ARCHIVE_DB_PATH", filepath.Join(dataDir, "archive.db")),
		Models: ModelsConfig{
			VisionURL:     getEnv("ARCHIVE_VISION_URL", "http://localhost:8601"),
			OllamaURL:     getEnv("ARCHIVE_OLLAMA_URL", "http://localhost:11434"),
			EmbedModel:    getEnv("ARCHIVE_EMBED_MODEL", "nomic-embed-text"),
			SummaryModel:  getEnv("ARCHIVE_SUMMARY_MODEL", "llama3.2"),
			EmbedProvider: getEnv("ARCHIVE_EMBED_PROVIDER", "ollama"),
			LMStudioURL:   getEnv("ARCHIVE_LMSTUDIO_URL", "http://localhost:1234"),
		},
	}
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
