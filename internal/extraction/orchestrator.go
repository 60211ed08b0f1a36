// Package extraction drives the two-stage prompt sequence: one free-text
// primary call, then one JSON call per invoice category against its result.
package extraction

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"contractinvoice/internal/domain"
	"contractinvoice/internal/logger"
	"contractinvoice/internal/port"
	"contractinvoice/internal/prompt"
)

const stagePrimary = "primary"

// Config is the per-orchestrator model configuration.
type Config struct {
	// Model is sent with every call. Required.
	Model string
	// MaxConcurrency bounds in-flight secondary calls. Values <= 0 or above
	// the number of categories run all seven at once.
	MaxConcurrency int
}

// Orchestrator runs the extraction prompts against one model backend.
type Orchestrator struct {
	backend port.ModelBackend
	catalog *prompt.Catalog
	cfg     Config
	logger  *zap.Logger
}

// New creates an Orchestrator. A nil catalog uses prompt.Default().
func New(backend port.ModelBackend, catalog *prompt.Catalog, cfg Config, log *zap.Logger) (*Orchestrator, error) {
	if backend == nil {
		return nil, errors.New("extraction: model backend is required")
	}
	if strings.TrimSpace(cfg.Model) == "" {
		return nil, errors.New("extraction: model name is required")
	}
	if catalog == nil {
		catalog = prompt.Default()
	}
	return &Orchestrator{
		backend: backend,
		catalog: catalog,
		cfg:     cfg,
		logger:  logger.OrNop(log).Named("extraction"),
	}, nil
}

// Model returns the configured model name.
func (o *Orchestrator) Model() string {
	return o.cfg.Model
}

// RunPrimary sends the primary prompt plus the contract text in free-text
// mode and returns the completion verbatim.
func (o *Orchestrator) RunPrimary(ctx context.Context, req domain.ExtractionRequest) (domain.PrimaryResult, error) {
	if strings.TrimSpace(req.RawText) == "" {
		return "", domain.ErrEmptyDocument
	}
	out, err := o.call(ctx, stagePrimary, o.catalog.BuildPrimary(req.RawText), domain.OutputFreeText)
	if err != nil {
		return "", err
	}
	return domain.PrimaryResult(out), nil
}

// RunSecondary sends one category's prompt plus the primary result in JSON
// mode. The completion is returned unvalidated.
func (o *Orchestrator) RunSecondary(ctx context.Context, category domain.Category, primary domain.PrimaryResult) (domain.Fragment, error) {
	text, err := o.catalog.BuildSecondary(category, primary)
	if err != nil {
		return domain.Fragment{}, err
	}
	out, err := o.call(ctx, string(category), text, domain.OutputJSON)
	if err != nil {
		return domain.Fragment{}, err
	}
	return domain.Fragment{Category: category, Text: out}, nil
}

// RunAll runs the primary prompt, then all seven secondary prompts
// concurrently against its result. Calls already started always run to
// completion; once one fails, calls not yet started are skipped and the
// first failure is returned.
func (o *Orchestrator) RunAll(ctx context.Context, req domain.ExtractionRequest) (*domain.ExtractionResult, error) {
	runID := uuid.New().String()
	log := o.logger.With(zap.String("run_id", runID), zap.String("model", o.cfg.Model))
	start := time.Now()

	primary, err := o.RunPrimary(ctx, req)
	if err != nil {
		log.Error("extraction.primary.failed", zap.Error(err))
		return nil, err
	}
	log.Info("extraction.primary.done",
		zap.Int("input_chars", len(req.RawText)),
		zap.Int("output_chars", len(primary)),
		zap.Duration("elapsed", time.Since(start)),
	)

	categories := domain.AllCategories()
	result := &domain.ExtractionResult{
		Primary:   primary,
		Fragments: make(map[domain.Category]domain.Fragment, len(categories)),
	}

	var (
		mu     sync.Mutex
		failed atomic.Bool
		g      errgroup.Group
	)
	g.SetLimit(o.concurrency(len(categories)))
	for _, cat := range categories {
		g.Go(func() error {
			if failed.Load() {
				return nil
			}
			frag, err := o.RunSecondary(ctx, cat, primary)
			if err != nil {
				failed.Store(true)
				return err
			}
			mu.Lock()
			result.Fragments[cat] = frag
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		log.Error("extraction.secondary.failed", zap.Error(err))
		return nil, err
	}

	log.Info("extraction.done",
		zap.Int("fragments", len(result.Fragments)),
		zap.Duration("elapsed", time.Since(start)),
	)
	return result, nil
}

func (o *Orchestrator) concurrency(n int) int {
	if o.cfg.MaxConcurrency <= 0 || o.cfg.MaxConcurrency > n {
		return n
	}
	return o.cfg.MaxConcurrency
}

func (o *Orchestrator) call(ctx context.Context, stage, text string, mode domain.OutputMode) (string, error) {
	start := time.Now()
	out, err := o.backend.Chat(ctx, port.ChatRequest{Model: o.cfg.Model, Prompt: text, Mode: mode})
	if err != nil {
		return "", &domain.ModelCallError{
			Provider: o.backend.Name(),
			Model:    o.cfg.Model,
			Stage:    stage,
			Err:      fmt.Errorf("chat: %w", err),
		}
	}
	o.logger.Debug("extraction.call.done",
		zap.String("stage", stage),
		zap.String("mode", string(mode)),
		zap.Int("prompt_chars", len(text)),
		zap.Int("reply_chars", len(out)),
		zap.Duration("elapsed", time.Since(start)),
	)
	return out, nil
}
