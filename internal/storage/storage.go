// Package storage holds what the artifact store backends share: the mapping
// from areas to directories and filename validation.
package storage

import (
	"fmt"
	"strings"

	"contractinvoice/internal/config"
	"contractinvoice/internal/domain"
)

// Dirs maps every area to its directory (or key prefix) under the store root.
type Dirs map[domain.Area]string

// DirsFromConfig reads the per-area directory names.
func DirsFromConfig(cfg *config.StorageConfig) Dirs {
	return Dirs{
		domain.AreaUploads:  cfg.UploadsDir,
		domain.AreaText:     cfg.TextDir,
		domain.AreaInvoices: cfg.InvoicesDir,
	}
}

// Dir returns the directory for area.
func (d Dirs) Dir(area domain.Area) (string, error) {
	dir, ok := d[area]
	if !ok || dir == "" {
		return "", fmt.Errorf("unknown storage area %q", area)
	}
	return dir, nil
}

// ValidateName rejects names that could escape their area.
func ValidateName(name string) error {
	switch {
	case name == "", name == ".", name == "..":
		return fmt.Errorf("%w: %q", domain.ErrInvalidFilename, name)
	case strings.ContainsAny(name, "/\\\x00"):
		return fmt.Errorf("%w: %q", domain.ErrInvalidFilename, name)
	case strings.HasPrefix(name, ".tmp-"):
		return fmt.Errorf("%w: %q", domain.ErrInvalidFilename, name)
	}
	return nil
}
