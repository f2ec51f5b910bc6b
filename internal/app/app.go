package app

import (
	"fmt"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/scholia/internal/common"
	"github.com/ternarybob/scholia/internal/handlers"
	"github.com/ternarybob/scholia/internal/interfaces"
	"github.com/ternarybob/scholia/internal/services/ask"
	"github.com/ternarybob/scholia/internal/services/documents"
	"github.com/ternarybob/scholia/internal/services/embeddings"
	"github.com/ternarybob/scholia/internal/services/events"
	"github.com/ternarybob/scholia/internal/services/export"
	"github.com/ternarybob/scholia/internal/services/extract"
	"github.com/ternarybob/scholia/internal/services/llm"
	"github.com/ternarybob/scholia/internal/services/retrieval"
	"github.com/ternarybob/scholia/internal/services/router"
	"github.com/ternarybob/scholia/internal/storage/badger"
)

// App holds all application components and dependencies. Providers and
// storage are constructed once at startup and injected; nothing in the
// retrieval path is a process-wide singleton.
type App struct {
	Config         *common.Config
	Logger         arbor.ILogger
	StorageManager interfaces.StorageManager

	EventService     interfaces.EventService
	LLMService       interfaces.LLMService
	EmbeddingService interfaces.EmbeddingService
	Coordinator      *embeddings.CoordinatorService

	RouterService    *router.Service
	RetrievalService *retrieval.Service
	AskService       interfaces.AskService
	DocumentService  interfaces.DocumentService
	ExportService    *export.Service

	// HTTP handlers
	APIHandler      *handlers.APIHandler
	AskHandler      *handlers.AskHandler
	DocumentHandler *handlers.DocumentHandler
	WSHandler       *handlers.WebSocketHandler
}

// New creates and wires the application
func New(cfg *common.Config, logger arbor.ILogger) (*App, error) {
	a := &App{
		Config: cfg,
		Logger: logger,
	}

	manager, err := badger.NewManager(&cfg.Storage.Badger, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}
	a.StorageManager = manager

	a.EventService = events.NewService(logger)

	llmService, err := llm.NewLLMService(cfg, logger)
	if err != nil {
		manager.Close()
		return nil, fmt.Errorf("failed to initialize LLM service: %w", err)
	}
	a.LLMService = llmService

	a.EmbeddingService = embeddings.NewService(
		llmService,
		cfg.LLM.EmbedModelName,
		cfg.LLM.EmbedDimension,
		logger,
	)

	a.Coordinator = embeddings.NewCoordinatorService(
		a.EmbeddingService,
		manager.DocumentStorage(),
		a.EventService,
		&cfg.Embeddings,
		logger,
	)
	if err := a.Coordinator.Start(); err != nil {
		a.Close()
		return nil, fmt.Errorf("failed to start embedding coordinator: %w", err)
	}

	a.RouterService = router.NewService(logger)
	a.RetrievalService = retrieval.NewService(manager.DocumentStorage(), logger)

	a.AskService = ask.NewService(
		a.RouterService,
		a.RetrievalService,
		a.EmbeddingService,
		llmService,
		a.EventService,
		&cfg.Ask,
		logger,
	)

	transcriber, err := transcriberFor(llmService)
	if err != nil {
		a.Close()
		return nil, err
	}

	a.DocumentService = documents.NewService(
		manager.DocumentStorage(),
		a.EmbeddingService,
		extract.NewPDFExtractor(logger),
		transcriber,
		a.EventService,
		logger,
	)

	a.ExportService = export.NewService(logger)

	a.APIHandler = handlers.NewAPIHandler(logger)
	a.AskHandler = handlers.NewAskHandler(a.AskService, logger)
	a.DocumentHandler = handlers.NewDocumentHandler(a.DocumentService, a.ExportService, a.AskHandler, logger)
	a.WSHandler = handlers.NewWebSocketHandler(a.EventService, logger)

	logger.Info().
		Str("provider", cfg.LLM.Provider).
		Str("badger_path", cfg.Storage.Badger.Path).
		Msg("Application initialized")

	return a, nil
}

// transcriberFor extracts the transcription capability from the LLM
// service. Both providers carry one; the Claude service delegates to
// its Gemini fallback.
func transcriberFor(llmService interfaces.LLMService) (interfaces.Transcriber, error) {
	t, ok := llmService.(interfaces.Transcriber)
	if !ok {
		return nil, fmt.Errorf("LLM service %T does not support transcription", llmService)
	}
	return t, nil
}

// Close shuts down all components in reverse dependency order
func (a *App) Close() error {
	if a.Coordinator != nil {
		a.Coordinator.Stop()
	}
	if a.EventService != nil {
		a.EventService.Close()
	}
	if a.LLMService != nil {
		if err := a.LLMService.Close(); err != nil {
			a.Logger.Warn().Err(err).Msg("Failed to close LLM service")
		}
	}
	if a.StorageManager != nil {
		if err := a.StorageManager.Close(); err != nil {
			return fmt.Errorf("failed to close storage: %w", err)
		}
	}

	a.Logger.Info().Msg("Application closed")
	return nil
}
