package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/SierraJY/personal-archving/internal/config"
	"github.com/SierraJY/personal-archving/internal/keyword"
	"github.com/SierraJY/personal-archving/internal/models"
	"github.com/SierraJY/personal-archving/internal/pipeline"
	"github.com/SierraJY/personal-archving/internal/search"
	"github.com/SierraJY/personal-archving/internal/storage"
)

func main() {
	// Parse global flags
	globalFlags := flag.NewFlagSet("global", flag.ExitOnError)
	dataDirFlag := globalFlags.String("data-dir", "", "Directory for the archive database (overrides ARCHIVE_DATA_DIR)")

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	// Find where the command starts (skip global flags)
	commandIdx := 1
	for i := 1; i < len(os.Args); i++ {
		if !strings.HasPrefix(os.Args[i], "-") {
			commandIdx = i
			break
		}
	}
	if commandIdx > 1 {
		globalFlags.Parse(os.Args[1:commandIdx])
	}

	cfg := config.Load()
	if *dataDirFlag != "" {
		cfg.DataDir = *dataDirFlag
		cfg.DBPath = filepath.Join(cfg.DataDir, "archive.db")
	}

	command := os.Args[commandIdx]

	switch command {
	case "ingest":
		ingestFlags := flag.NewFlagSet("ingest", flag.ExitOnError)
		dryRun := ingestFlags.Bool("dry-run", false, "Run the pipeline but don't persist the document")
		name := ingestFlags.String("name", "", "Stored filename (defaults to the file's base name)")

		ingestFlags.Parse(os.Args[commandIdx+1:])

		if ingestFlags.NArg() < 1 {
			fmt.Println("Error: image file required")
			fmt.Println("Usage: archive [--data-dir=<dir>] ingest [flags] <image-file>")
			os.Exit(1)
		}

		runIngest(cfg, ingestFlags.Arg(0), *name, *dryRun)
	case "search":
		searchFlags := flag.NewFlagSet("search", flag.ExitOnError)
		semantic := searchFlags.Bool("semantic", false, "Use vector similarity search instead of keyword match")

		searchFlags.Parse(os.Args[commandIdx+1:])

		if searchFlags.NArg() < 1 {
			fmt.Println("Error: search query required")
			fmt.Println("Usage: archive [--data-dir=<dir>] search [flags] <query>")
			os.Exit(1)
		}

		query := strings.Join(searchFlags.Args(), " ")
		runSearch(cfg, query, *semantic)
	case "list":
		runList(cfg)
	case "get-doc":
		if len(os.Args) < commandIdx+2 {
			fmt.Println("Error: document ID required")
			fmt.Println("Usage: archive [--data-dir=<dir>] get-doc <document-id>")
			os.Exit(1)
		}
		runGetDoc(cfg, os.Args[commandIdx+1])
	case "stats":
		runStats(cfg)
	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("Archive - scanned document ingestion and retrieval")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  archive [global-flags] <command> [flags]")
	fmt.Println()
	fmt.Println("Global Flags:")
	fmt.Println("  --data-dir=<dir>  Directory for the archive database (default: ./data)")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  ingest [flags] <image>   Classify, extract, enrich, and store a document image")
	fmt.Println("  search [flags] <query>   Search stored documents")
	fmt.Println("  list                     List all stored documents")
	fmt.Println("  get-doc <id>             Print a document's extracted content")
	fmt.Println("  stats                    Show corpus statistics")
	fmt.Println()
	fmt.Println("Ingest Flags:")
	fmt.Println("  -dry-run          Run the pipeline and show the result without saving")
	fmt.Println("  -name=<name>      Filename to store (default: the file's base name)")
	fmt.Println()
	fmt.Println("Search Flags:")
	fmt.Println("  -semantic         Rank by embedding similarity (requires embedding model)")
	fmt.Println()
	fmt.Println("Examples:")
	fmt.Println("  archive ingest scan.jpg")
	fmt.Println("  archive ingest -dry-run receipt.png")
	fmt.Println("  archive search 커피 영수증")
	fmt.Println("  archive search -semantic \"coffee receipt from march\"")
	fmt.Println("  archive list")
}

func runIngest(cfg *config.Config, path, name string, dryRun bool) {
	raw, err := os.ReadFile(path)
	if err != nil {
		log.Fatalf("Error reading image: %v", err)
	}
	if name == "" {
		name = filepath.Base(path)
	}

	if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
		log.Fatalf("Error creating data directory: %v", err)
	}

	db, err := storage.Open(cfg.DBPath)
	if err != nil {
		log.Fatalf("Error opening database: %v", err)
	}
	defer db.Close()

	reg, err := models.NewRegistry(cfg.Models)
	if err != nil {
		log.Fatalf("Error building model registry: %v", err)
	}

	p := pipeline.New(reg, newKeywordExtractor(), db)

	ctx := context.Background()
	doc, err := p.Assemble(ctx, name, raw)
	if err != nil {
		log.Fatalf("Error ingesting %s: %v", name, err)
	}

	fmt.Println()
	fmt.Println("=== Document ===")
	fmt.Printf("Filename:  %s\n", doc.Filename)
	fmt.Printf("Type:      %s\n", doc.DocType)
	fmt.Printf("Summary:   %s\n", doc.Summary)
	fmt.Printf("Keywords:  %s\n", strings.Join(doc.Keywords, ", "))
	if len(doc.StructuredData) > 0 {
		fmt.Println("Fields:")
		for key, value := range doc.StructuredData {
			fmt.Printf("  %s: %s\n", key, value)
		}
	}
	if doc.Embedding == nil {
		fmt.Println("Note: embedding generation failed; this document won't appear in similarity search")
	}

	if dryRun {
		fmt.Println()
		fmt.Println("Dry run: document not saved")
		return
	}

	if err := p.Save(doc); err != nil {
		log.Fatalf("Error saving document: %v", err)
	}

	fmt.Println()
	fmt.Printf("Saved document %d\n", doc.ID)
}

func runSearch(cfg *config.Config, query string, semantic bool) {
	db, err := storage.Open(cfg.DBPath)
	if err != nil {
		log.Fatalf("Error opening database: %v", err)
	}
	defer db.Close()

	embedder := newEmbedder(cfg)
	engine := search.New(db, embedder)

	var results []*storage.Document
	if semantic {
		if err := embedder.Health(); err != nil {
			log.Fatalf("Error: similarity search requires the embedding model: %v", err)
		}
		results, err = engine.SearchSimilarity(context.Background(), query)
	} else {
		results, err = engine.SearchKeyword(query)
	}
	if err != nil {
		log.Fatalf("Error searching: %v", err)
	}

	if len(results) == 0 {
		fmt.Println("No results found")
		return
	}

	printDocumentTable(results)
}

func runList(cfg *config.Config) {
	db, err := storage.Open(cfg.DBPath)
	if err != nil {
		log.Fatalf("Error opening database: %v", err)
	}
	defer db.Close()

	engine := search.New(db, nil)
	docs, err := engine.ListAll()
	if err != nil {
		log.Fatalf("Error listing documents: %v", err)
	}

	if len(docs) == 0 {
		fmt.Println("No documents stored")
		return
	}

	printDocumentTable(docs)
}

func runGetDoc(cfg *config.Config, idStr string) {
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		log.Fatalf("Error: invalid document ID %q", idStr)
	}

	db, err := storage.Open(cfg.DBPath)
	if err != nil {
		log.Fatalf("Error opening database: %v", err)
	}
	defer db.Close()

	doc, err := db.Get(id)
	if err != nil {
		log.Fatalf("Error retrieving document: %v", err)
	}
	if doc == nil {
		fmt.Printf("Document not found: %s\n", idStr)
		os.Exit(1)
	}

	fmt.Println(doc.Content)
}

func runStats(cfg *config.Config) {
	db, err := storage.Open(cfg.DBPath)
	if err != nil {
		log.Fatalf("Error opening database: %v", err)
	}
	defer db.Close()

	count, err := db.Count()
	if err != nil {
		log.Fatalf("Error counting documents: %v", err)
	}

	docs, err := db.List()
	if err != nil {
		log.Fatalf("Error listing documents: %v", err)
	}
	embedded := 0
	byType := map[storage.DocType]int{}
	for _, doc := range docs {
		if doc.Embedding != nil {
			embedded++
		}
		byType[doc.DocType]++
	}

	fmt.Println("=== Archive Statistics ===")
	fmt.Printf("Documents:       %d\n", count)
	fmt.Printf("With embedding:  %d\n", embedded)
	for _, t := range []storage.DocType{storage.DocGeneral, storage.DocReceipt, storage.DocForm} {
		fmt.Printf("  %-8s %d\n", t+":", byType[t])
	}
}

func printDocumentTable(docs []*storage.Document) {
	rows := [][]string{}
	for _, doc := range docs {
		rows = append(rows, []string{
			strconv.FormatInt(doc.ID, 10),
			doc.Filename,
			string(doc.DocType),
			truncate(doc.Summary, 48),
			truncate(strings.Join(doc.Keywords, ", "), 36),
			doc.UploadDate.Format("2006-01-02"),
		})
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("99"))).
		Headers("ID", "Filename", "Type", "Summary", "Keywords", "Uploaded").
		Rows(rows...)

	fmt.Println(t)
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n-1]) + "…"
}

func newKeywordExtractor() *keyword.Extractor {
	primary, err := keyword.NewKagomeAnalyzer()
	if err != nil {
		log.Printf("Warning: morphological analyzer unavailable (%v), using stemming fallback", err)
		return keyword.NewExtractor(nil, keyword.NewStemAnalyzer())
	}
	return keyword.NewExtractor(primary, keyword.NewStemAnalyzer())
}

func newEmbedder(cfg *config.Config) models.Embedder {
	embedURL := cfg.Models.OllamaURL
	if cfg.Models.EmbedProvider == "lmstudio" {
		embedURL = cfg.Models.LMStudioURL
	}
	embedder, err := models.NewEmbedder(cfg.Models.EmbedProvider, embedURL, cfg.Models.EmbedModel)
	if err != nil {
		log.Fatalf("Error: %v", err)
	}
	return embedder
}
