package categorization

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

// Reserved category labels.
const (
	CategoryTransfer = "transfer"
	CategoryIncome   = "income"
	CategoryDefault  = "miscellaneous expenses"
)

var (
	ErrInvalidTaxonomy = errors.New("invalid taxonomy")
)

//go:embed taxonomy.yaml
var defaultTaxonomy []byte

// Override maps structural markers in a description to a category ahead of
// the keyword scan. Patterns are regular expressions over the lower-cased
// description.
type Override struct {
	Category string   `yaml:"category"`
	Patterns []string `yaml:"patterns"`
}

// Category is a named keyword set.
type Category struct {
	Name     string   `yaml:"name"`
	Keywords []string `yaml:"keywords"`
}

// Taxonomy is the ordered rule set the classifier is built from.
type Taxonomy struct {
	Version    int        `yaml:"version"`
	Default    string     `yaml:"default"`
	Overrides  []Override `yaml:"overrides"`
	Categories []Category `yaml:"categories"`
}

// DefaultTaxonomy returns the taxonomy compiled into the binary.
func DefaultTaxonomy() (*Taxonomy, error) {
	return ParseTaxonomy(defaultTaxonomy)
}

// LoadTaxonomy reads a taxonomy file. An empty path yields the default.
func LoadTaxonomy(path string) (*Taxonomy, error) {
	if path == "" {
		return DefaultTaxonomy()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read taxonomy: %w", err)
	}
	return ParseTaxonomy(data)
}

// ParseTaxonomy decodes and validates a YAML taxonomy document.
func ParseTaxonomy(data []byte) (*Taxonomy, error) {
	var t Taxonomy
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidTaxonomy, err)
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return &t, nil
}

// Validate checks that labels are present and unique and that every override
// pattern compiles. A missing default falls back to CategoryDefault.
func (t *Taxonomy) Validate() error {
	if strings.TrimSpace(t.Default) == "" {
		t.Default = CategoryDefault
	}

	for i, o := range t.Overrides {
		if strings.TrimSpace(o.Category) == "" {
			return fmt.Errorf("%w: override %d has no category", ErrInvalidTaxonomy, i)
		}
		for _, p := range o.Patterns {
			if _, err := regexp.Compile(p); err != nil {
				return fmt.Errorf("%w: override %q pattern %q: %v", ErrInvalidTaxonomy, o.Category, p, err)
			}
		}
	}

	seen := make(map[string]bool, len(t.Categories))
	for i, c := range t.Categories {
		name := strings.TrimSpace(c.Name)
		if name == "" {
			return fmt.Errorf("%w: category %d has no name", ErrInvalidTaxonomy, i)
		}
		if seen[name] {
			return fmt.Errorf("%w: duplicate category %q", ErrInvalidTaxonomy, name)
		}
		seen[name] = true
	}
	return nil
}

// Labels lists every label the taxonomy can produce, default included.
func (t *Taxonomy) Labels() []string {
	seen := make(map[string]bool)
	var out []string
	add := func(s string) {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	for _, o := range t.Overrides {
		add(o.Category)
	}
	for _, c := range t.Categories {
		add(c.Name)
	}
	add(t.Default)
	return out
}
