// Package categorization assigns a spending category to a free-text
// transaction description. Classification runs structural override rules
// first, then a keyword scan over an ordered taxonomy, and falls back to a
// default label. It never fails.
package categorization

import (
	"regexp"
	"strings"
)

type compiledOverride struct {
	category string
	patterns []*regexp.Regexp
}

// Classifier is immutable after construction and safe for concurrent use.
type Classifier struct {
	overrides  []compiledOverride
	engine     *Engine
	categories []string
	fallback   string
}

// NewClassifier compiles a validated taxonomy.
func NewClassifier(t *Taxonomy) (*Classifier, error) {
	if err := t.Validate(); err != nil {
		return nil, err
	}

	c := &Classifier{
		engine:   NewEngine(t.Categories),
		fallback: t.Default,
	}
	for _, o := range t.Overrides {
		co := compiledOverride{category: o.Category}
		for _, p := range o.Patterns {
			co.patterns = append(co.patterns, regexp.MustCompile(p))
		}
		c.overrides = append(c.overrides, co)
	}
	for _, cat := range t.Categories {
		c.categories = append(c.categories, cat.Name)
	}
	return c, nil
}

// NewDefaultClassifier builds a classifier from the embedded taxonomy.
func NewDefaultClassifier() (*Classifier, error) {
	t, err := DefaultTaxonomy()
	if err != nil {
		return nil, err
	}
	return NewClassifier(t)
}

// Classify returns exactly one category label for description.
func (c *Classifier) Classify(description string) string {
	lowered := strings.ToLower(description)

	for _, o := range c.overrides {
		for _, re := range o.patterns {
			if re.MatchString(lowered) {
				return o.category
			}
		}
	}

	if rank, ok := c.engine.Match(lowered); ok {
		return c.categories[rank]
	}
	return c.fallback
}

// Default returns the label used when nothing matches.
func (c *Classifier) Default() string {
	return c.fallback
}
