// Command convert runs one contract through the conversion pipeline without
// the HTTP server.
// Usage: go run ./cmd/convert [-plain] [-csv out.csv] <file>
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"contractinvoice/internal/app"
	"contractinvoice/internal/config"
	"contractinvoice/internal/csvexport"
	"contractinvoice/internal/logger"
	"contractinvoice/internal/service"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		log.Fatal(err)
	}
}

func run(args []string) error {
	fs := flag.NewFlagSet("convert", flag.ContinueOnError)
	plain := fs.Bool("plain", false, "render the file's text verbatim instead of extracting a structured invoice")
	csvPath := fs.String("csv", "", "also export the structured record as CSV to this path")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return errors.New("usage: convert [-plain] [-csv out.csv] <file>")
	}
	if *plain && *csvPath != "" {
		return errors.New("-csv requires a structured conversion")
	}
	path := fs.Arg(0)

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if err := logger.Init(cfg.Log.Level, cfg.Log.Format); err != nil {
		return fmt.Errorf("initializing logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()
	zl := logger.Get()

	ctx := context.Background()
	pipeline, err := app.Build(ctx, cfg, zl)
	if err != nil {
		return err
	}

	body, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}

	var out *service.ConvertOutput
	if *plain {
		base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		out, err = pipeline.Service.ConvertText(ctx, service.ConvertTextInput{Text: string(body), Basename: base})
	} else {
		out, err = pipeline.Service.Convert(ctx, service.ConvertInput{Filename: filepath.Base(path), Body: body})
	}
	if err != nil {
		return fmt.Errorf("converting %s: %w", path, err)
	}

	for _, w := range out.Warnings {
		zl.Warn("incomplete record", zap.String("detail", w))
	}
	fmt.Printf("invoice: %s (%d pages)\n", out.InvoiceFile, out.Pages)
	if out.TextFile != "" {
		fmt.Printf("text:    %s\n", out.TextFile)
	}
	if out.RecordFile != "" {
		fmt.Printf("record:  %s\n", out.RecordFile)
	}

	if *csvPath != "" {
		if err := exportCSV(ctx, pipeline.Service, out.InvoiceFile, *csvPath); err != nil {
			return err
		}
		fmt.Printf("csv:     %s\n", *csvPath)
	}
	return nil
}

func exportCSV(ctx context.Context, svc service.ConversionService, invoiceFile, dst string) error {
	record, err := svc.Record(ctx, invoiceFile)
	if err != nil {
		return fmt.Errorf("loading record: %w", err)
	}

	f, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("creating %s: %w", dst, err)
	}
	defer func() { _ = f.Close() }()

	if _, err := f.Write(csvexport.BOM); err != nil {
		return fmt.Errorf("writing %s: %w", dst, err)
	}
	w := csvexport.NewWriter(f)
	if err := w.WriteHeader(); err != nil {
		return fmt.Errorf("writing %s: %w", dst, err)
	}
	if err := w.WriteRecord(record); err != nil {
		return fmt.Errorf("writing %s: %w", dst, err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("writing %s: %w", dst, err)
	}
	return f.Close()
}
