package assembler

import (
	"contractinvoice/internal/domain"
	"contractinvoice/internal/prompt"
)

// fillObject rebuilds obj key by key from the documented fields. Nested
// objects are never passed through wholesale: a missing child becomes an
// object of sentinels. Undocumented keys are carried over unchanged.
func fillObject(fields []prompt.FieldSpec, obj map[string]any) map[string]any {
	out := make(map[string]any, len(fields)+len(obj))
	for k, v := range obj {
		out[k] = v
	}
	for _, f := range fields {
		out[f.Key] = fillField(f, obj[f.Key])
	}
	return out
}

func fillField(f prompt.FieldSpec, v any) any {
	switch {
	case f.List:
		return fillList(f.Children, v)
	case f.IsObject():
		m, ok := v.(map[string]any)
		if !ok && v != nil {
			// "taxes": "19% VAT included" is kept as the model wrote it
			return v
		}
		return fillObject(f.Children, m)
	default:
		if v == nil {
			return domain.NotAvailable
		}
		return v
	}
}

// fillList keeps the order of the supplied items. Items that are not objects
// are kept as they are; anything but an array yields [].
func fillList(fields []prompt.FieldSpec, v any) []any {
	items, ok := v.([]any)
	if !ok {
		return []any{}
	}
	out := make([]any, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		m, ok := item.(map[string]any)
		if !ok {
			out = append(out, item)
			continue
		}
		out = append(out, fillObject(fields, m))
	}
	return out
}

// defaultSection is the content used for a category whose fragment failed.
func defaultSection(p prompt.SecondaryPrompt) any {
	return fillField(p.Section, nil)
}
