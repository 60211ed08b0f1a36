// Package local stores artifacts on the local filesystem, one directory per area.
package local

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"contractinvoice/internal/domain"
	"contractinvoice/internal/storage"
)

// Store implements port.ArtifactStore on a directory tree.
type Store struct {
	root string
	dirs storage.Dirs
	log  *zap.Logger
}

// New creates the area directories under root.
func New(root string, dirs storage.Dirs, log *zap.Logger) (*Store, error) {
	if log == nil {
		log = zap.NewNop()
	}
	s := &Store{root: root, dirs: dirs, log: log}
	for area := range dirs {
		dir, err := s.dir(area)
		if err != nil {
			return nil, err
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating %s dir: %w", area, err)
		}
	}
	return s, nil
}

func (s *Store) dir(area domain.Area) (string, error) {
	d, err := s.dirs.Dir(area)
	if err != nil {
		return "", err
	}
	return filepath.Join(s.root, d), nil
}

func (s *Store) path(area domain.Area, name string) (string, error) {
	if err := storage.ValidateName(name); err != nil {
		return "", err
	}
	dir, err := s.dir(area)
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, name), nil
}

// writeTemp writes data to a temp file next to the final path and returns its name.
func writeTemp(dir string, data []byte) (string, error) {
	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return "", err
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", err
	}
	return tmp.Name(), nil
}

// Create links a fully written temp file into place. os.Link fails if the
// target exists, so an existing artifact is never replaced or half-written.
func (s *Store) Create(ctx context.Context, area domain.Area, name string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	target, err := s.path(area, name)
	if err != nil {
		return err
	}
	tmp, err := writeTemp(filepath.Dir(target), data)
	if err != nil {
		return fmt.Errorf("writing %s/%s: %w", area, name, err)
	}
	defer os.Remove(tmp)

	if err := os.Link(tmp, target); err != nil {
		if errors.Is(err, fs.ErrExist) {
			return fmt.Errorf("%w: %s/%s", domain.ErrArtifactExists, area, name)
		}
		return fmt.Errorf("linking %s/%s: %w", area, name, err)
	}
	s.log.Debug("storage.local.created", zap.String("area", string(area)), zap.String("name", name), zap.Int("bytes", len(data)))
	return nil
}

// Put renames a temp file over the target.
func (s *Store) Put(ctx context.Context, area domain.Area, name string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	target, err := s.path(area, name)
	if err != nil {
		return err
	}
	tmp, err := writeTemp(filepath.Dir(target), data)
	if err != nil {
		return fmt.Errorf("writing %s/%s: %w", area, name, err)
	}
	if err := os.Rename(tmp, target); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("renaming %s/%s: %w", area, name, err)
	}
	return nil
}

// Open reads a whole artifact.
func (s *Store) Open(ctx context.Context, area domain.Area, name string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	p, err := s.path(area, name)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(p)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s/%s", domain.ErrArtifactNotFound, area, name)
		}
		return nil, fmt.Errorf("reading %s/%s: %w", area, name, err)
	}
	return data, nil
}

// LocalPath returns the artifact's own path; cleanup is a no-op.
func (s *Store) LocalPath(ctx context.Context, area domain.Area, name string) (string, func(), error) {
	if err := ctx.Err(); err != nil {
		return "", nil, err
	}
	p, err := s.path(area, name)
	if err != nil {
		return "", nil, err
	}
	if _, err := os.Stat(p); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", nil, fmt.Errorf("%w: %s/%s", domain.ErrArtifactNotFound, area, name)
		}
		return "", nil, err
	}
	return p, func() {}, nil
}
