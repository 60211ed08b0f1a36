package port

import (
	"context"

	"contractinvoice/internal/domain"
)

// InvoiceExtractor runs the primary prompt and every secondary prompt for one document.
type InvoiceExtractor interface {
	RunAll(ctx context.Context, req domain.ExtractionRequest) (*domain.ExtractionResult, error)
}

// RecordAssembler merges extraction fragments into an invoice record. It may
// return a usable record together with a *domain.AssemblyError.
type RecordAssembler interface {
	Assemble(result *domain.ExtractionResult) (*domain.InvoiceRecord, error)
}

// InvoiceRenderer lays out invoices as PDF.
type InvoiceRenderer interface {
	RenderFromStructuredRecord(record *domain.InvoiceRecord, basename string) (*domain.RenderedInvoice, error)
	RenderFromPlainText(text, basename string) (*domain.RenderedInvoice, error)
}
