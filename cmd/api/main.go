package main

import (
	"context"
	"log"
	"log/slog"
	nethttp "net/http"
	"os"

	"advisory-ai/internal/advisory"
	"advisory-ai/internal/agent"
	"advisory-ai/internal/config"
	"advisory-ai/internal/http"
	"advisory-ai/internal/indexer"
	"advisory-ai/internal/llm"
	"advisory-ai/internal/rag"
	"advisory-ai/internal/router"
	"advisory-ai/internal/storage"
	"advisory-ai/internal/vectorstore"
	"advisory-ai/internal/vulndb"
)

func main() {
	// Load configuration first (needed for log level)
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Configure structured logging with configurable level and format
	opts := &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}
	var handler slog.Handler
	if cfg.LogFormat == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	logger := slog.New(handler)
	slog.SetDefault(logger)
	slog.Debug("Logging configured", "level", cfg.LogLevel.String(), "format", cfg.LogFormat)

	// Initialize database
	db, err := storage.New(cfg.DBPath)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer func() {
		_ = db.Close()
	}()

	if err := storage.Migrate(db); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}
	slog.Info("Database initialized", "path", cfg.DBPath)

	advisoryRepo := storage.NewAdvisoryRepo(db)
	chunkRepo := storage.NewChunkRepo(db)

	ctx := context.Background()

	// Initialize Qdrant vector store
	vectorStore, err := vectorstore.NewQdrantStore(cfg.QdrantURL)
	if err != nil {
		log.Fatalf("Failed to create Qdrant client: %v", err)
	}

	// Ensure collection exists with correct vector size
	if err := vectorStore.EnsureCollection(ctx, cfg.QdrantCollection, cfg.QdrantVectorSize); err != nil {
		log.Fatalf("Failed to ensure Qdrant collection: %v", err)
	}
	slog.Info("Qdrant collection ready", "collection", cfg.QdrantCollection, "vector_size", cfg.QdrantVectorSize)

	// Validate embedding client vector size (fail-fast)
	embedder := llm.NewEmbeddingsClient(cfg.EmbeddingBaseURL, cfg.LLMAPIKey, cfg.EmbeddingModelName, cfg.QdrantVectorSize)
	testEmbeddings, err := embedder.EmbedTexts(ctx, []string{"test"})
	if err != nil {
		log.Fatalf("Failed to validate embedding client: %v", err)
	}
	if len(testEmbeddings) == 0 || len(testEmbeddings[0]) != cfg.QdrantVectorSize {
		log.Fatalf("Embedding vector size mismatch: expected %d, got %d", cfg.QdrantVectorSize, len(testEmbeddings[0]))
	}
	slog.Info("Embedding client validated", "vector_size", cfg.QdrantVectorSize)

	// Load and validate the advisory corpus
	corpus, err := advisory.LoadDir(ctx, cfg.AdvisoriesDir, advisory.LoadOptions{
		SkipInvalid: true,
		Logger:      logger,
	})
	if err != nil {
		log.Fatalf("Failed to load advisories: %v", err)
	}
	slog.Info("Advisory corpus loaded", "dir", cfg.AdvisoriesDir, "advisories", corpus.Len())

	// Load the vulnerability database from CSV files
	vulnStore, err := vulndb.NewStore(cfg.CSVDir)
	if err != nil {
		log.Fatalf("Failed to load vulnerability database: %v", err)
	}
	defer func() {
		_ = vulnStore.Close()
	}()
	slog.Info("Vulnerability database loaded", "dir", cfg.CSVDir)

	// Create LLM client (external service layer)
	llmClient := llm.NewClient(cfg.LLMBaseURL, cfg.LLMAPIKey, cfg.LLMModelName)

	// Create indexing pipeline
	summarizer := llm.NewCodeSummarizer(llmClient)
	indexerPipeline := indexer.NewPipeline(
		corpus,
		advisoryRepo,
		chunkRepo,
		summarizer,
		embedder,
		vectorStore,
		cfg.QdrantCollection,
	)

	// Create RAG engine over the advisory corpus
	ragEngine := rag.NewEngine(
		embedder,
		vectorStore,
		cfg.QdrantCollection,
		corpus,
		llmClient,
	)
	slog.Info("RAG engine initialized")

	// Create the query agent: router plus handlers for each route
	queryRouter := router.New(llmClient, corpus)
	structuredRAG := agent.NewStructuredRAG(llmClient, vulnStore)
	synthesizer := agent.NewSynthesizer(llmClient)
	queryAgent := agent.New(queryRouter, ragEngine, structuredRAG, synthesizer)
	slog.Info("Query agent initialized")

	// Create router with dependencies
	deps := &http.Deps{
		Processor:     queryAgent,
		StatsProvider: indexerPipeline,
		VectorStore:   vectorStore,
		Collection:    cfg.QdrantCollection,
	}
	apiRouter := http.NewRouter(deps)

	// Start indexing in background after router is ready
	go func() {
		indexCtx := context.Background()
		slog.Info("Starting background indexing of advisories")
		if err := indexerPipeline.IndexAll(indexCtx); err != nil {
			slog.Error("Indexing completed with errors", "error", err)
		} else {
			slog.Info("Indexing completed successfully")
		}
	}()

	// Start API server
	addr := ":" + cfg.APIPort
	slog.Info("Starting API server", "addr", addr)
	slog.Debug("LLM configuration", "base_url", cfg.LLMBaseURL, "model", cfg.LLMModelName)
	if err := nethttp.ListenAndServe(addr, apiRouter); err != nil {
		log.Fatalf("API server failed to start: %v", err)
	}
}
