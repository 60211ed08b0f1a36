package textextract

import (
	"context"
	"fmt"
	"strings"
)

type ocr struct {
	cfg    Config
	runner Runner
}

// extract runs `tesseract <file> stdout -l <lang>`.
func (o ocr) extract(ctx context.Context, path string) (string, error) {
	args := []string{path, "stdout", "-l", o.cfg.Language}
	if o.cfg.TessdataDir != "" {
		args = append(args, "--tessdata-dir", o.cfg.TessdataDir)
	}
	out, errb, err := o.runner.Run(ctx, o.cfg.Tesseract, args...)
	if err != nil {
		if msg := strings.TrimSpace(string(errb)); msg != "" {
			return "", fmt.Errorf("tesseract: %w: %s", err, truncate(msg, 512))
		}
		return "", fmt.Errorf("tesseract: %w", err)
	}
	return string(out), nil
}
