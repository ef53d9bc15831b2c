package main

import (
	"log"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/joonaskit/Summa/config"
	"github.com/joonaskit/Summa/db"
	"github.com/joonaskit/Summa/handlers"
	"github.com/joonaskit/Summa/logging"
	"github.com/joonaskit/Summa/server"
	"github.com/joonaskit/Summa/services/file_service"
	"github.com/joonaskit/Summa/services/github_service"
	"github.com/joonaskit/Summa/services/hedgedoc_service"
	"github.com/joonaskit/Summa/services/llm_service"
	"github.com/joonaskit/Summa/services/metadata_service"
	"github.com/joonaskit/Summa/services/rag_service"
	"github.com/urfave/negroni"
)

// durableCollection names the shared knowledge-base collection in the
// durable vector index.
const durableCollection = "knowledge_base"

func main() {
	cfg := config.Load()

	logger, err := initLogger(cfg.LogDir)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}

	pool, err := db.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer pool.Close()

	// Shared building blocks
	extractor := rag_service.NewDocumentExtractor(logger)
	chunker := rag_service.NewChunker(cfg.ChunkSize, cfg.ChunkOverlap)
	embedder := rag_service.NewEmbeddingClient(cfg.LLMBaseURL, cfg.LLMAPIKey, cfg.EmbeddingModel, logger)
	chatService := llm_service.NewOpenAIService(cfg.LLMBaseURL, cfg.LLMAPIKey, cfg.ChatModel, logger)

	// One durable and one ephemeral index for the process lifetime, selected
	// per call through the inmemory flag. Both use the same embedder so the
	// dimension invariant holds per index.
	durableIndex := rag_service.NewPgVectorIndex(pool, embedder, durableCollection, logger)
	ephemeralIndex := rag_service.NewMemoryIndex(embedder)

	metadata := metadata_service.New(pool, logger)
	files, err := file_service.NewLocalFileService(cfg.DataDir, metadata, extractor, logger)
	if err != nil {
		log.Fatalf("Failed to initialize file service: %v", err)
	}

	composer := rag_service.NewAnswerComposer(chatService)
	ragService := rag_service.NewRagService(durableIndex, ephemeralIndex, chunker, extractor, composer, files, logger)

	h := server.Handlers{
		Rag:     handlers.NewRagHandler(ragService, logger),
		Files:   handlers.NewFilesHandler(files, logger),
		Summary: handlers.NewSummaryHandler(chatService, cfg.ChatModel, files, metadata, logger),
		Tags:    handlers.NewTagsHandler(metadata, logger),
		Integrations: handlers.NewIntegrationsHandler(
			hedgedoc_service.NewHedgeDocService(logger),
			github_service.NewGitHubService(logger),
			files,
			logger),
		LLM: handlers.NewLLMHandler(chatService, logger),
	}

	r := server.SetupRoutes(h)
	n := setupNegroni(r)

	if cfg.Environment == "production" {
		server.ServeProduction(n, cfg.Domains, cfg.CertCacheDir)
	} else {
		srv := &http.Server{
			Addr:        ":" + cfg.HTTPPort,
			Handler:     n,
			IdleTimeout: time.Minute,
			ReadTimeout: 5 * time.Second,
			// Summary and answer streams can run for a while on local models.
			WriteTimeout: 2 * time.Minute,
		}
		logger.Info("Starting server",
			slog.String("port", cfg.HTTPPort),
			slog.String("environment", cfg.Environment))
		server.ServeDevelopment(srv)
	}
}

func initLogger(logDir string) (*slog.Logger, error) {
	handler, err := logging.NewDailyFileHandler(logDir, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	})
	if err != nil {
		return nil, err
	}
	return slog.New(handler), nil
}

func setupNegroni(r *mux.Router) *negroni.Negroni {
	n := negroni.New()

	// Add middleware here
	n.Use(negroni.NewRecovery())
	n.Use(negroni.NewLogger())

	n.UseHandler(r)
	return n
}
