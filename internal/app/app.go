// Package app assembles the conversion pipeline from configuration. Both
// binaries build through here so the HTTP server and the CLI run the same
// stack.
package app

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"contractinvoice/internal/assembler"
	"contractinvoice/internal/config"
	"contractinvoice/internal/extraction"
	"contractinvoice/internal/llm"
	"contractinvoice/internal/port"
	"contractinvoice/internal/prompt"
	"contractinvoice/internal/render"
	"contractinvoice/internal/service"
	"contractinvoice/internal/storage"
	"contractinvoice/internal/storage/local"
	s3storage "contractinvoice/internal/storage/s3"
	"contractinvoice/internal/textextract"

	// Model providers register themselves with the llm registry.
	_ "contractinvoice/internal/llm/claude"
	_ "contractinvoice/internal/llm/gemini"
	_ "contractinvoice/internal/llm/ollama"
	_ "contractinvoice/internal/llm/openai"
)

// Pipeline is a fully wired conversion stack.
type Pipeline struct {
	Backend  port.ModelBackend
	Store    port.ArtifactStore
	Renderer *render.Renderer
	Service  service.ConversionService
}

// NewStore opens the artifact store selected by cfg.Backend.
func NewStore(ctx context.Context, cfg *config.StorageConfig, log *zap.Logger) (port.ArtifactStore, error) {
	dirs := storage.DirsFromConfig(cfg)
	switch cfg.Backend {
	case "", "local":
		return local.New(cfg.Root, dirs, log)
	case "s3":
		return s3storage.New(ctx, &cfg.S3, dirs, log)
	default:
		return nil, fmt.Errorf("unknown storage backend: %s", cfg.Backend)
	}
}

// NewRenderer builds the PDF renderer with the configured body font.
func NewRenderer(cfg *config.RenderConfig) *render.Renderer {
	return render.New(render.DefaultLayout().WithBodyFont(cfg.FontFamily, cfg.FontSize))
}

// Build wires the model backend, the extraction orchestrator, the assembler,
// the renderer, the text extractors and the artifact store into a
// ConversionService.
func Build(ctx context.Context, cfg *config.Config, log *zap.Logger) (*Pipeline, error) {
	if log == nil {
		log = zap.NewNop()
	}

	backend, err := llm.NewBackend(&cfg.LLM)
	if err != nil {
		return nil, fmt.Errorf("failed to create model backend: %w", err)
	}

	catalog := prompt.Default()
	orch, err := extraction.New(backend, catalog, extraction.Config{
		Model:          cfg.LLM.Model,
		MaxConcurrency: cfg.LLM.MaxConcurrency,
	}, log)
	if err != nil {
		return nil, fmt.Errorf("failed to create orchestrator: %w", err)
	}

	var cleaner assembler.Cleaner = assembler.DiacriticCleaner{}
	if cfg.Assembler.StripCodeFences {
		cleaner = assembler.Chain(assembler.CodeFenceCleaner{}, assembler.DiacriticCleaner{})
	}
	asm, err := assembler.New(catalog, cleaner, log)
	if err != nil {
		return nil, fmt.Errorf("failed to create assembler: %w", err)
	}

	store, err := NewStore(ctx, &cfg.Storage, log)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	text := textextract.New(textextract.Config{
		Tesseract:   cfg.OCR.Binary,
		Language:    cfg.OCR.Language,
		TessdataDir: cfg.OCR.TessdataDir,
	}, log)

	renderer := NewRenderer(&cfg.Render)

	svc := service.NewConversionService(store, text, orch, asm, renderer, service.Config{
		MaxUploadBytes: cfg.Server.MaxUploadMB << 20,
	}, log)

	log.Info("pipeline ready",
		zap.String("provider", backend.Name()),
		zap.String("model", cfg.LLM.Model),
		zap.String("storage", cfg.Storage.Backend),
	)

	return &Pipeline{
		Backend:  backend,
		Store:    store,
		Renderer: renderer,
		Service:  svc,
	}, nil
}
