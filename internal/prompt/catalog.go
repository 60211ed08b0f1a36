// Package prompt holds the fixed extraction prompts: one primary prompt that
// reorganises a contract into categories, and seven secondary prompts that
// each turn the primary result into one JSON section of the invoice.
package prompt

import (
	"fmt"

	"contractinvoice/internal/domain"
)

// Catalog is immutable once built.
type Catalog struct {
	primary   string
	secondary map[domain.Category]SecondaryPrompt
}

var defaultCatalog = newCatalog()

// Default returns the shared catalog.
func Default() *Catalog {
	return defaultCatalog
}

func newCatalog() *Catalog {
	c := &Catalog{
		primary:   primaryTemplate,
		secondary: make(map[domain.Category]SecondaryPrompt, len(domain.AllCategories())),
	}
	for _, p := range secondaryPrompts() {
		c.secondary[p.Category] = p
	}
	return c
}

// Primary returns the parameterless primary template.
func (c *Catalog) Primary() string {
	return c.primary
}

// Secondary returns the prompt for one category.
func (c *Catalog) Secondary(category domain.Category) (SecondaryPrompt, error) {
	p, ok := c.secondary[category]
	if !ok {
		return SecondaryPrompt{}, fmt.Errorf("no prompt for category %q", category)
	}
	return p, nil
}

// BuildPrimary appends the raw contract text to the primary template.
func (c *Catalog) BuildPrimary(rawText string) string {
	return fmt.Sprintf("%s\n\nContract Data:\n%s\n", c.primary, rawText)
}

// BuildSecondary appends the primary result to a category's template.
func (c *Catalog) BuildSecondary(category domain.Category, primary domain.PrimaryResult) (string, error) {
	p, err := c.Secondary(category)
	if err != nil {
		return "", err
	}
	return p.Template() + "\n" + string(primary), nil
}
