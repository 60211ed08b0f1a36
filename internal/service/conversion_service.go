package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"contractinvoice/internal/domain"
	"contractinvoice/internal/port"
	"contractinvoice/internal/render"
	"contractinvoice/internal/storage"
)

// maxNameAttempts bounds the _2, _3, ... suffixes tried for one invoice filename.
const maxNameAttempts = 100

// ConvertInput is the DTO for a contract upload.
type ConvertInput struct {
	Filename string
	Body     []byte
}

// ConvertTextInput is the DTO for plain-mode rendering of raw text.
type ConvertTextInput struct {
	Text     string
	Basename string
}

// ConvertOutput names the artifacts a conversion produced.
type ConvertOutput struct {
	InvoiceFile string
	TextFile    string
	RecordFile  string
	Pages       int
	// Warnings carries assembly problems; the invoice was still rendered.
	Warnings   []string
	Incomplete []domain.Category
}

// ConversionService defines the contract-to-invoice flow.
type ConversionService interface {
	Convert(ctx context.Context, input ConvertInput) (*ConvertOutput, error)
	ConvertText(ctx context.Context, input ConvertTextInput) (*ConvertOutput, error)
	Download(ctx context.Context, area domain.Area, filename string) ([]byte, error)
	Record(ctx context.Context, filename string) (*domain.InvoiceRecord, error)
}

// Config holds service limits.
type Config struct {
	MaxUploadBytes int64 // 0 disables the check
}

type conversionService struct {
	store     port.ArtifactStore
	text      port.TextExtractor
	extractor port.InvoiceExtractor
	assembler port.RecordAssembler
	renderer  port.InvoiceRenderer
	cfg       Config
	logger    *zap.Logger
}

// NewConversionService creates a new ConversionService implementation.
func NewConversionService(
	store port.ArtifactStore,
	text port.TextExtractor,
	extractor port.InvoiceExtractor,
	assembler port.RecordAssembler,
	renderer port.InvoiceRenderer,
	cfg Config,
	logger *zap.Logger,
) ConversionService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &conversionService{
		store:     store,
		text:      text,
		extractor: extractor,
		assembler: assembler,
		renderer:  renderer,
		cfg:       cfg,
		logger:    logger,
	}
}

// uploadName strips any client-side directories from an uploaded filename.
func uploadName(name string) (string, error) {
	name = filepath.Base(strings.ReplaceAll(strings.TrimSpace(name), "\\", "/"))
	if err := storage.ValidateName(name); err != nil {
		return "", err
	}
	return name, nil
}

func (s *conversionService) Convert(ctx context.Context, input ConvertInput) (*ConvertOutput, error) {
	name, err := uploadName(input.Filename)
	if err != nil {
		return nil, err
	}
	fileType, err := domain.FileTypeOf(name)
	if err != nil {
		return nil, err
	}
	if s.cfg.MaxUploadBytes > 0 && int64(len(input.Body)) > s.cfg.MaxUploadBytes {
		return nil, domain.ErrFileTooLarge
	}

	log := s.logger.With(zap.String("conversion_id", uuid.New().String()), zap.String("upload", name))
	start := time.Now()
	log.Info("conversion.started", zap.String("type", string(fileType)), zap.Int("bytes", len(input.Body)))

	if err := s.store.Put(ctx, domain.AreaUploads, name, input.Body); err != nil {
		return nil, fmt.Errorf("storing upload: %w", err)
	}

	raw, err := s.extractText(ctx, name)
	if err != nil {
		log.Error("conversion.extract_text.failed", zap.Error(err))
		return nil, err
	}

	base := render.Basename(name)
	out := &ConvertOutput{TextFile: base + ".txt"}
	if err := s.store.Put(ctx, domain.AreaText, out.TextFile, []byte(raw)); err != nil {
		return nil, fmt.Errorf("storing extracted text: %w", err)
	}

	result, err := s.extractor.RunAll(ctx, domain.ExtractionRequest{RawText: raw})
	if err != nil {
		log.Error("conversion.extraction.failed", zap.Error(err))
		return nil, err
	}

	record, err := s.assembler.Assemble(result)
	var asmErr *domain.AssemblyError
	switch {
	case errors.As(err, &asmErr):
		for _, f := range asmErr.Failures {
			out.Warnings = append(out.Warnings, f.Error())
		}
		out.Incomplete = asmErr.Categories()
		log.Warn("conversion.assembly.partial", zap.Strings("warnings", out.Warnings))
	case err != nil:
		return nil, fmt.Errorf("assembling record: %w", err)
	}

	rendered, err := s.renderer.RenderFromStructuredRecord(record, base)
	if err != nil {
		return nil, err
	}
	out.Pages = rendered.Pages
	if out.InvoiceFile, err = s.createUnique(ctx, domain.AreaInvoices, rendered.Filename, rendered.Bytes); err != nil {
		return nil, err
	}

	recordJSON, err := encodeRecord(record)
	if err != nil {
		return nil, err
	}
	out.RecordFile = recordName(out.InvoiceFile)
	if err := s.store.Put(ctx, domain.AreaInvoices, out.RecordFile, recordJSON); err != nil {
		return nil, fmt.Errorf("storing record: %w", err)
	}

	log.Info("conversion.done",
		zap.String("invoice", out.InvoiceFile),
		zap.Int("pages", out.Pages),
		zap.Int("incomplete_sections", len(out.Incomplete)),
		zap.Duration("elapsed", time.Since(start)),
	)
	return out, nil
}

func (s *conversionService) extractText(ctx context.Context, name string) (string, error) {
	path, cleanup, err := s.store.LocalPath(ctx, domain.AreaUploads, name)
	if err != nil {
		return "", fmt.Errorf("staging upload: %w", err)
	}
	defer cleanup()
	return s.text.Extract(ctx, path)
}

func (s *conversionService) ConvertText(ctx context.Context, input ConvertTextInput) (*ConvertOutput, error) {
	if strings.TrimSpace(input.Text) == "" {
		return nil, domain.ErrEmptyDocument
	}
	base := render.Basename(input.Basename)
	if base == "" || base == "." {
		base = "text"
	}
	if err := storage.ValidateName(base); err != nil {
		return nil, err
	}

	rendered, err := s.renderer.RenderFromPlainText(input.Text, base)
	if err != nil {
		return nil, err
	}
	name, err := s.createUnique(ctx, domain.AreaInvoices, rendered.Filename, rendered.Bytes)
	if err != nil {
		return nil, err
	}
	s.logger.Info("conversion.text.done", zap.String("invoice", name), zap.Int("pages", rendered.Pages))
	return &ConvertOutput{InvoiceFile: name, Pages: rendered.Pages}, nil
}

// createUnique stores data under name, or name_2, name_3, ... if taken.
func (s *conversionService) createUnique(ctx context.Context, area domain.Area, name string, data []byte) (string, error) {
	ext := filepath.Ext(name)
	stem := strings.TrimSuffix(name, ext)
	candidate := name
	for i := 2; i <= maxNameAttempts+1; i++ {
		err := s.store.Create(ctx, area, candidate, data)
		if err == nil {
			return candidate, nil
		}
		if !errors.Is(err, domain.ErrArtifactExists) {
			return "", fmt.Errorf("storing %s: %w", candidate, err)
		}
		candidate = fmt.Sprintf("%s_%d%s", stem, i, ext)
	}
	return "", fmt.Errorf("%w: no free name for %s", domain.ErrArtifactExists, name)
}

func (s *conversionService) Download(ctx context.Context, area domain.Area, filename string) ([]byte, error) {
	if err := storage.ValidateName(filename); err != nil {
		return nil, err
	}
	return s.store.Open(ctx, area, filename)
}

// Record loads the stored record for an invoice; filename may name the PDF or the JSON.
func (s *conversionService) Record(ctx context.Context, filename string) (*domain.InvoiceRecord, error) {
	if err := storage.ValidateName(filename); err != nil {
		return nil, err
	}
	data, err := s.store.Open(ctx, domain.AreaInvoices, recordName(filename))
	if err != nil {
		return nil, err
	}
	var record domain.InvoiceRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, fmt.Errorf("decoding record %s: %w", filename, err)
	}
	return &record, nil
}

// recordName maps invoice_1_a.pdf to invoice_1_a.json.
func recordName(invoice string) string {
	return strings.TrimSuffix(invoice, filepath.Ext(invoice)) + ".json"
}

func encodeRecord(record *domain.InvoiceRecord) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(record); err != nil {
		return nil, fmt.Errorf("encoding record: %w", err)
	}
	return buf.Bytes(), nil
}
