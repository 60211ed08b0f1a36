package port

import (
	"context"

	"contractinvoice/internal/domain"
)

// ChatRequest is a single synchronous completion request.
type ChatRequest struct {
	Model  string
	Prompt string
	Mode   domain.OutputMode
}

// ModelBackend abstracts the language-model backend. Implementations return the
// completion text verbatim; JSON mode is a request, not a guarantee.
type ModelBackend interface {
	Chat(ctx context.Context, req ChatRequest) (string, error)
	Name() string
}
