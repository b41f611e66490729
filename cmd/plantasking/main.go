package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/vbonduro/plantasking/internal/analysis"
	"github.com/vbonduro/plantasking/internal/config"
	"github.com/vbonduro/plantasking/internal/conversation"
	"github.com/vbonduro/plantasking/internal/db"
	"github.com/vbonduro/plantasking/internal/logging"
	"github.com/vbonduro/plantasking/internal/persona"
	"github.com/vbonduro/plantasking/internal/photostore"
	boltphotos "github.com/vbonduro/plantasking/internal/photostore/bolt"
	"github.com/vbonduro/plantasking/internal/photostore/local"
	"github.com/vbonduro/plantasking/internal/service"
	"github.com/vbonduro/plantasking/internal/store"
	"github.com/vbonduro/plantasking/internal/vision"
	claudevision "github.com/vbonduro/plantasking/internal/vision/claude"
	geminivision "github.com/vbonduro/plantasking/internal/vision/gemini"
	ollamavision "github.com/vbonduro/plantasking/internal/vision/ollama"
	openaivision "github.com/vbonduro/plantasking/internal/vision/openai"
	"github.com/vbonduro/plantasking/internal/web"
)

func main() {
	cfg := config.Load()

	logger, cleanup, err := logging.New(cfg.LogLevel, cfg.LogFile)
	if err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}
	defer cleanup()

	if err := run(cfg, logger); err != nil {
		logger.Error("fatal", "error", err)
		cleanup()
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	database, err := db.Open(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer func() {
		if err := database.Close(); err != nil {
			logger.Error("failed to close database", "error", err)
		}
	}()

	gen, err := newGenerator(ctx, cfg, logger)
	if err != nil {
		return err
	}
	client := vision.NewClient(gen)

	personas := persona.Default()
	if cfg.PersonaFile != "" {
		personas, err = persona.Load(cfg.PersonaFile)
		if err != nil {
			return fmt.Errorf("load personas: %w", err)
		}
		logger.Info("loaded persona catalog", "path", cfg.PersonaFile)
	}

	photoStg, closePhotos, err := newPhotoStore(cfg, logger)
	if err != nil {
		return fmt.Errorf("initialize photo store: %w", err)
	}
	defer closePhotos()

	broadcaster := web.NewBroadcaster(logger)
	conversations := conversation.NewManager(client, cfg.AITimeout, logger, broadcaster.Publish)
	defer conversations.CloseAll()

	svc := service.NewPlantService(
		store.NewPlantStore(database),
		store.NewAnalysisStore(database),
		analysis.New(client, cfg.AITimeout, logger),
		photoStg,
		personas,
		conversations,
		logger,
	)
	server := web.NewServer(svc, conversations, broadcaster, cfg.AllowedOrigin, logger)

	if err := server.ListenAndServe(ctx, cfg.ListenAddr); err != nil {
		return fmt.Errorf("server: %w", err)
	}
	return nil
}

func newGenerator(ctx context.Context, cfg *config.Config, logger *slog.Logger) (vision.Generator, error) {
	switch cfg.AIBackend {
	case "gemini":
		if cfg.GeminiAPIKey == "" {
			return nil, fmt.Errorf("GEMINI_API_KEY is required when AI_BACKEND=gemini")
		}
		logger.Info("using Gemini backend", "model", cfg.GeminiModel)
		return geminivision.NewGeminiGenerator(ctx, cfg.GeminiAPIKey, cfg.GeminiModel, cfg.GeminiBaseURL)
	case "claude":
		if cfg.ClaudeAPIKey == "" {
			return nil, fmt.Errorf("CLAUDE_API_KEY is required when AI_BACKEND=claude")
		}
		logger.Info("using Claude backend", "model", cfg.ClaudeModel)
		return claudevision.NewClaudeGenerator(cfg.ClaudeAPIKey, cfg.ClaudeModel), nil
	case "openai":
		if cfg.OpenAIAPIKey == "" {
			return nil, fmt.Errorf("OPENAI_API_KEY is required when AI_BACKEND=openai")
		}
		logger.Info("using OpenAI backend", "model", cfg.OpenAIModel)
		return openaivision.NewOpenAIGenerator(cfg.OpenAIAPIKey, cfg.OpenAIModel), nil
	case "ollama":
		logger.Info("using Ollama backend", "host", cfg.OllamaHost, "model", cfg.OllamaModel)
		return ollamavision.NewOllamaGenerator(cfg.OllamaHost, cfg.OllamaModel)
	default:
		return nil, fmt.Errorf("unknown AI_BACKEND %q", cfg.AIBackend)
	}
}

func newPhotoStore(cfg *config.Config, logger *slog.Logger) (photostore.PhotoStore, func(), error) {
	switch cfg.PhotoBackend {
	case "bolt":
		s, err := boltphotos.NewBoltPhotoStore(cfg.PhotoBoltPath)
		if err != nil {
			return nil, nil, err
		}
		logger.Info("using bolt photo store", "path", cfg.PhotoBoltPath)
		return s, func() {
			if err := s.Close(); err != nil {
				logger.Error("failed to close photo store", "error", err)
			}
		}, nil
	case "local":
		s, err := local.NewLocalPhotoStore(cfg.PhotoPath, logger)
		if err != nil {
			return nil, nil, err
		}
		logger.Info("using local photo store", "path", cfg.PhotoPath)
		return s, func() {}, nil
	default:
		return nil, nil, fmt.Errorf("unknown PHOTO_BACKEND %q", cfg.PhotoBackend)
	}
}
