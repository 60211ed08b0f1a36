// Package assembler turns the seven category fragments into one InvoiceRecord.
package assembler

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"go.uber.org/zap"

	"contractinvoice/internal/domain"
	"contractinvoice/internal/logger"
	"contractinvoice/internal/prompt"
)

var errFragmentMissing = errors.New("fragment missing from extraction result")

// Assembler parses fragments and merges them into the canonical record.
type Assembler struct {
	catalog *prompt.Catalog
	cleaner Cleaner
	schemas map[domain.Category]*jsonschema.Schema
	logger  *zap.Logger
}

// New compiles the per-category schemas from the catalog. A nil catalog uses
// prompt.Default(); a nil cleaner uses DiacriticCleaner.
func New(catalog *prompt.Catalog, cleaner Cleaner, log *zap.Logger) (*Assembler, error) {
	if catalog == nil {
		catalog = prompt.Default()
	}
	if cleaner == nil {
		cleaner = DiacriticCleaner{}
	}
	a := &Assembler{
		catalog: catalog,
		cleaner: cleaner,
		schemas: make(map[domain.Category]*jsonschema.Schema),
		logger:  logger.OrNop(log).Named("assembler"),
	}
	for _, cat := range domain.AllCategories() {
		p, err := catalog.Secondary(cat)
		if err != nil {
			return nil, err
		}
		schema, err := compileSchema(string(cat), p.JSONSchema())
		if err != nil {
			return nil, fmt.Errorf("schema for %s: %w", cat, err)
		}
		a.schemas[cat] = schema
	}
	return a, nil
}

func compileSchema(name string, schemaMap map[string]any) (*jsonschema.Schema, error) {
	b, err := json.Marshal(schemaMap)
	if err != nil {
		return nil, fmt.Errorf("marshal schema: %w", err)
	}
	url := name + ".schema.json"
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(url, bytes.NewReader(b)); err != nil {
		return nil, fmt.Errorf("add schema: %w", err)
	}
	return compiler.Compile(url)
}

// Clean runs the configured cleaner.
func (a *Assembler) Clean(text string) string {
	return a.cleaner.Clean(text)
}

// ParseFragment cleans and decodes one fragment. The result is keyed by the
// category and holds every documented field, with domain.NotAvailable for
// leaves the model left out. Failures are *domain.FragmentParseError.
func (a *Assembler) ParseFragment(category domain.Category, text string) (map[string]any, error) {
	p, err := a.catalog.Secondary(category)
	if err != nil {
		return nil, &domain.FragmentParseError{Category: category, Raw: text, Err: err}
	}

	cleaned := a.cleaner.Clean(text)
	dec := json.NewDecoder(bytes.NewReader([]byte(cleaned)))
	dec.UseNumber()
	var decoded any
	if err := dec.Decode(&decoded); err != nil {
		return nil, &domain.FragmentParseError{Category: category, Raw: text, Err: err}
	}
	if dec.More() {
		return nil, &domain.FragmentParseError{Category: category, Raw: text, Err: errors.New("trailing data after JSON value")}
	}
	if err := a.schemas[category].Validate(decoded); err != nil {
		return nil, &domain.FragmentParseError{Category: category, Raw: text, Err: fmt.Errorf("json does not match schema: %w", err)}
	}

	root := decoded.(map[string]any)
	section := sectionOf(p, root)
	if _, isObject := section.(map[string]any); category == domain.CategoryAdditionalInformation && !isObject && section != nil {
		// the record keeps additional information as a plain map
		section = map[string]any{"details": section}
	}
	return map[string]any{string(category): fillField(p.Section, section)}, nil
}

// sectionOf locates the section inside the reply, tolerating replies that
// are wrapped when they should not be and the other way round.
func sectionOf(p prompt.SecondaryPrompt, root map[string]any) any {
	key := p.Section.Key
	inner, wrapped := root[key]
	switch {
	case p.Wrapped && wrapped:
		return inner
	case p.Wrapped && p.Section.List:
		// a lone line item instead of {"service_details": [...]}
		if _, ok := root[p.Section.Children[0].Key]; ok {
			return []any{root}
		}
		return nil
	case p.Wrapped:
		return root
	case wrapped && len(root) == 1:
		return inner
	default:
		return root
	}
}

// Assemble parses every fragment and merges them into one record. Fragments
// that fail are replaced by sentinel-filled sections, listed in
// record.Incomplete, and reported through a *domain.AssemblyError returned
// alongside the record.
func (a *Assembler) Assemble(result *domain.ExtractionResult) (*domain.InvoiceRecord, error) {
	merged := make(map[string]any, len(domain.AllCategories()))
	var failures []*domain.FragmentParseError

	for _, cat := range domain.AllCategories() {
		p, err := a.catalog.Secondary(cat)
		if err != nil {
			return nil, err
		}

		frag, ok := result.Fragments[cat]
		var section map[string]any
		if !ok {
			err = &domain.FragmentParseError{Category: cat, Err: errFragmentMissing}
		} else {
			section, err = a.ParseFragment(cat, frag.Text)
		}
		if err != nil {
			var fpe *domain.FragmentParseError
			if !errors.As(err, &fpe) {
				fpe = &domain.FragmentParseError{Category: cat, Raw: frag.Text, Err: err}
			}
			failures = append(failures, fpe)
			a.logger.Warn("assembler.fragment.invalid",
				zap.String("category", string(cat)),
				zap.Int("raw_chars", len(frag.Text)),
				zap.Error(fpe.Err),
			)
			merged[string(cat)] = defaultSection(p)
			continue
		}
		merged[string(cat)] = section[string(cat)]
	}

	record, err := decodeRecord(merged)
	if err != nil {
		return nil, fmt.Errorf("decoding merged record: %w", err)
	}
	if len(failures) == 0 {
		return record, nil
	}
	for _, f := range failures {
		record.Incomplete = append(record.Incomplete, f.Category)
	}
	return record, &domain.AssemblyError{Failures: failures}
}

func decodeRecord(merged map[string]any) (*domain.InvoiceRecord, error) {
	b, err := marshalNoEscape(merged)
	if err != nil {
		return nil, err
	}
	var record domain.InvoiceRecord
	if err := json.Unmarshal(b, &record); err != nil {
		return nil, err
	}
	return &record, nil
}

func marshalNoEscape(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}
