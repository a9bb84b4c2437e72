package app

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"

	"foodanalyzer/internal/config"
	"foodanalyzer/internal/logger"
	"foodanalyzer/internal/repository/sqlite"
	"foodanalyzer/internal/routes"
	"foodanalyzer/internal/services"
	"foodanalyzer/internal/services/storage"
	"foodanalyzer/internal/services/vision"
	"foodanalyzer/internal/services/websocket"
)

type App struct {
	config     *config.Config
	logger     *logger.Logger
	db         *sqlite.DB
	hubService *websocket.HubService
	manager    *services.Manager
}

func NewApp() (*App, error) {
	cfg := config.Load()
	log := logger.NewLogger(cfg)

	if err := os.MkdirAll(filepath.Dir(cfg.DatabasePath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sqlite.New(cfg.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	repo := sqlite.NewAnalysisRepository(db)
	store := storage.NewPhotoStore(cfg.PhotosDir, cfg.MaxPhotosSize)
	hub := websocket.NewHubService(log)
	client := vision.NewClient(cfg, nil, log)

	manager := services.NewManager(client, store, repo, hub, cfg.Model, log)

	return &App{
		config:     cfg,
		logger:     log,
		db:         db,
		hubService: hub,
		manager:    manager,
	}, nil
}

func (a *App) Run() error {
	defer a.db.Close()

	// Start feed hub
	go a.hubService.Run()

	router := routes.SetupRoutes(a.manager, a.config, a.logger)

	fmt.Printf("🍎 Food Safety Analyzer\n")
	fmt.Printf("📍 URL: http://localhost:%d\n", a.config.Port)
	fmt.Printf("📁 Photos: %s\n", a.config.PhotosDir)
	fmt.Printf("🤖 Model: %s\n", a.config.Model)
	if a.config.APIKey == "" {
		fmt.Printf("⚠️  OPENROUTER_API_KEY is not set - analyses will fail until it is\n")
	}

	return http.ListenAndServe(fmt.Sprintf(":%d", a.config.Port), router)
}
