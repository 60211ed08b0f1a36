// Package textextract turns uploaded contracts into plain text. Each
// supported extension has its own extractor; Registry dispatches on the
// extension of the path it is given.
package textextract

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"contractinvoice/internal/domain"
)

// ExtractFunc reads the file at path and returns its text.
type ExtractFunc func(ctx context.Context, path string) (string, error)

// Config configures the OCR runner used for images.
type Config struct {
	Tesseract   string // binary name or absolute path; defaults to "tesseract"
	Language    string // defaults to "eng"
	TessdataDir string
}

// Registry implements port.TextExtractor over a table of per-type extractors.
type Registry struct {
	byType    map[domain.FileType]ExtractFunc
	overrides map[domain.FileType]ExtractFunc
	runner    Runner
	log       *zap.Logger
}

// Option configures a Registry.
type Option func(*Registry)

// WithRunner replaces the command runner used for OCR.
func WithRunner(r Runner) Option {
	return func(reg *Registry) { reg.runner = r }
}

// WithExtractor overrides the extractor for one file type.
func WithExtractor(t domain.FileType, fn ExtractFunc) Option {
	return func(reg *Registry) { reg.overrides[t] = fn }
}

// New builds a Registry with an extractor for every allowed extension.
func New(cfg Config, log *zap.Logger, opts ...Option) *Registry {
	if log == nil {
		log = zap.NewNop()
	}
	if cfg.Tesseract == "" {
		cfg.Tesseract = "tesseract"
	}
	if cfg.Language == "" {
		cfg.Language = "eng"
	}
	reg := &Registry{
		overrides: map[domain.FileType]ExtractFunc{},
		runner:    execRunner{log: log},
		log:       log,
	}
	for _, opt := range opts {
		opt(reg)
	}
	reg.byType = map[domain.FileType]ExtractFunc{
		domain.FileTypePDF:   extractPDF,
		domain.FileTypeDOCX:  extractDOCX,
		domain.FileTypeXLSX:  extractXLSX,
		domain.FileTypeXLS:   extractXLS,
		domain.FileTypeImage: ocr{cfg: cfg, runner: reg.runner}.extract,
	}
	for t, fn := range reg.overrides {
		reg.byType[t] = fn
	}
	return reg
}

// Extract dispatches on the extension of path.
func (r *Registry) Extract(ctx context.Context, path string) (string, error) {
	t, err := domain.FileTypeOf(path)
	if err != nil {
		return "", err
	}
	fn, ok := r.byType[t]
	if !ok {
		return "", fmt.Errorf("%w: %s", domain.ErrUnsupportedFileType, t)
	}

	start := time.Now()
	text, err := fn(ctx, path)
	if err != nil {
		r.log.Warn("textextract.failed",
			zap.String("path", path),
			zap.String("type", string(t)),
			zap.Error(err),
		)
		return "", fmt.Errorf("extracting %s text: %w", t, err)
	}
	r.log.Debug("textextract.done",
		zap.String("path", path),
		zap.String("type", string(t)),
		zap.Int("chars", len(text)),
		zap.Duration("duration", time.Since(start)),
	)
	return text, nil
}
