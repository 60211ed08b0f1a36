package prompt

import (
	"strconv"
	"strings"
)

// FieldSpec documents one key of a secondary prompt's JSON reply. A spec with
// Children is an object; with List set it is an array of such objects.
type FieldSpec struct {
	Key         string
	Description string
	Children    []FieldSpec
	List        bool
}

// IsObject reports whether the field holds a nested object (or a list of them).
func (f FieldSpec) IsObject() bool {
	return len(f.Children) > 0
}

func leaf(key, description string) FieldSpec {
	return FieldSpec{Key: key, Description: description}
}

func object(key string, children ...FieldSpec) FieldSpec {
	return FieldSpec{Key: key, Children: children}
}

func list(key string, children ...FieldSpec) FieldSpec {
	return FieldSpec{Key: key, Children: children, List: true}
}

// renderShape writes the example JSON document shown to the model.
func renderShape(fields []FieldSpec) string {
	var b strings.Builder
	b.WriteString("{\n")
	writeFields(&b, fields, 1)
	b.WriteString("}")
	return b.String()
}

func writeFields(b *strings.Builder, fields []FieldSpec, depth int) {
	pad := strings.Repeat("  ", depth)
	for i, f := range fields {
		b.WriteString(pad)
		b.WriteString(strconv.Quote(f.Key))
		b.WriteString(": ")
		switch {
		case f.List:
			b.WriteString("[\n")
			b.WriteString(pad + "  {\n")
			writeFields(b, f.Children, depth+2)
			b.WriteString(pad + "  }\n")
			b.WriteString(pad + "]")
		case f.IsObject():
			b.WriteString("{\n")
			writeFields(b, f.Children, depth+1)
			b.WriteString(pad + "}")
		default:
			b.WriteString(strconv.Quote(f.Description))
		}
		if i < len(fields)-1 {
			b.WriteString(",")
		}
		b.WriteString("\n")
	}
}

// jsonSchema describes the reply: a JSON object. Properties are annotations
// only, a missing or mistyped leaf is defaulted downstream instead of rejected.
func jsonSchema(title string, fields []FieldSpec) map[string]any {
	return map[string]any{
		"$schema":              "https://json-schema.org/draft/2020-12/schema",
		"title":                title,
		"type":                 "object",
		"additionalProperties": true,
		"properties":           schemaProperties(fields),
	}
}

func schemaProperties(fields []FieldSpec) map[string]any {
	props := make(map[string]any, len(fields))
	for _, f := range fields {
		switch {
		case f.List:
			props[f.Key] = map[string]any{
				"description": "list of " + f.Key,
				"items":       map[string]any{"properties": schemaProperties(f.Children)},
			}
		case f.IsObject():
			props[f.Key] = map[string]any{"properties": schemaProperties(f.Children)}
		default:
			props[f.Key] = map[string]any{"description": f.Description}
		}
	}
	return props
}
