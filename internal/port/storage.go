package port

import (
	"context"

	"contractinvoice/internal/domain"
)

// ArtifactStore keeps pipeline artifacts addressed by area and filename.
type ArtifactStore interface {
	// Create writes a new artifact and fails with domain.ErrArtifactExists
	// instead of replacing an existing one. Readers never see partial content.
	Create(ctx context.Context, area domain.Area, name string, data []byte) error
	// Put writes an artifact, replacing any previous content.
	Put(ctx context.Context, area domain.Area, name string, data []byte) error
	// Open returns the artifact content or domain.ErrArtifactNotFound.
	Open(ctx context.Context, area domain.Area, name string) ([]byte, error)
	// LocalPath returns a path on local disk holding the artifact, and a cleanup func.
	LocalPath(ctx context.Context, area domain.Area, name string) (string, func(), error)
}
