package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getmedsage/medsage/internal/api"
	"github.com/getmedsage/medsage/internal/auth"
	"github.com/getmedsage/medsage/internal/config"
	"github.com/getmedsage/medsage/internal/database"
	"github.com/getmedsage/medsage/internal/intervention"
	"github.com/getmedsage/medsage/internal/knowledge"
	"github.com/getmedsage/medsage/internal/llm"
	"github.com/getmedsage/medsage/internal/logger"
	"github.com/getmedsage/medsage/internal/report"
	"github.com/getmedsage/medsage/internal/workflow"
)

// Version info set by goreleaser
var version = "dev"

func main() {
	configPath := flag.String("config", config.DefaultConfigFile, "Path to YAML config file")
	migrateOnly := flag.Bool("migrate", false, "Run database migrations and exit")
	flag.Parse()

	cfg, err := config.LoadFrom(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	appLog := logger.New(cfg.Logging.Service, cfg.Logging.Level)

	var store database.Store
	if cfg.Database.URL != "" {
		log.Println("Running database migrations...")
		if err := database.Migrate(cfg.Database.URL); err != nil {
			log.Fatalf("Failed to run migrations: %v", err)
		}
		log.Println("Migrations complete")
		if *migrateOnly {
			return
		}

		db, err := database.New(context.Background(), cfg.Database.URL)
		if err != nil {
			log.Fatalf("Failed to connect to database: %v", err)
		}
		defer db.Close()
		store = db
	} else {
		if *migrateOnly {
			log.Fatal("DATABASE_URL is required to run migrations")
		}
		log.Println("DATABASE_URL not set, using in-memory store")
		store = database.NewMemoryStore()
	}

	llmClient, err := llm.NewClient(llm.Config{
		APIKey:            cfg.Gemini.APIKey,
		Model:             cfg.Gemini.Model,
		EmbeddingModel:    cfg.Gemini.EmbeddingModel,
		Temperature:       cfg.Gemini.Temperature,
		MaxOutputTokens:   cfg.Gemini.MaxOutputTokens,
		Timeout:           cfg.Gemini.Timeout,
		RequestsPerSecond: cfg.Gemini.RequestsPerSecond,
		Burst:             cfg.Gemini.Burst,
	}, appLog)
	if err != nil {
		log.Fatalf("Failed to create LLM client: %v", err)
	}

	kb := knowledge.Load(cfg.Knowledge.Path, appLog)

	manager := intervention.NewManager(appLog)
	gateway := intervention.NewGateway(manager, store, cfg.Intervention.ConfidenceThreshold, appLog)

	var verifier *auth.Verifier
	if cfg.Auth.Domain != "" {
		verifier, err = auth.NewVerifier(auth.Config{
			Domain:   cfg.Auth.Domain,
			Audience: cfg.Auth.Audience,
		})
		if err != nil {
			log.Fatalf("Failed to create auth verifier: %v", err)
		}
		log.Println("Bearer authentication enabled")
	} else {
		log.Println("Auth domain not set, API runs unauthenticated")
	}

	server := api.NewServer(api.Config{
		Store:         store,
		Orchestrator:  workflow.New(llmClient, kb, appLog),
		Embedder:      llmClient,
		KB:            kb,
		Gateway:       gateway,
		Interventions: manager,
		Reviews:       intervention.NewReviewHandler(appLog),
		Approvals:     intervention.NewApprovalManager(appLog),
		Reports:       &report.Generator{FontPath: cfg.Report.FontPath},
		Verifier:      verifier,
		CORSOrigin:    cfg.Server.CORSOrigin,
		Version:       version,
		Model:         llmClient.Model(),
		Logger:        appLog,
	})

	httpServer := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: server,
		// WriteTimeout stays 0: assessment runs stream for minutes and must
		// not be cut mid-pipeline.
		ReadTimeout: 15 * time.Second,
		IdleTimeout: 60 * time.Second,
	}

	go func() {
		log.Printf("MedSage API listening on port %s", cfg.Server.Port)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}
	log.Println("Server exited")
}
