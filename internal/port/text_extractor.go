package port

import "context"

// TextExtractor turns a file on local disk into plain text.
type TextExtractor interface {
	Extract(ctx context.Context, path string) (string, error)
}
