// Package catalog holds the static category -> subject -> keyword table that
// interview questions are drawn from.
package catalog

import (
	_ "embed"
	"math/rand/v2"
	"os"
	"strings"
	"sync"

	contextutils "devopsquiz/internal/utils"

	"github.com/xeipuuv/gojsonschema"
	"gopkg.in/yaml.v3"
)

//go:embed topics.yaml
var defaultTopics []byte

//go:embed schema.json
var catalogSchema []byte

// Subject is the second level of the table; each subject owns its keywords
type Subject struct {
	Name     string   `json:"name" yaml:"name"`
	Keywords []string `json:"keywords" yaml:"keywords"`
}

// Category is the top level of the table
type Category struct {
	Name     string    `json:"name" yaml:"name"`
	Subjects []Subject `json:"subjects" yaml:"subjects"`
}

// Catalog is an immutable topic table. It is safe for concurrent use.
type Catalog struct {
	Topics []Category `json:"categories" yaml:"categories"`

	mu  sync.Mutex
	rng *rand.Rand
}

// Option configures a Catalog
type Option func(*Catalog)

// WithRand replaces the random source used by RandomKeyword
func WithRand(r *rand.Rand) Option {
	return func(c *Catalog) {
		c.rng = r
	}
}

// Default returns the embedded DevOps topic table
func Default(opts ...Option) (*Catalog, error) {
	return Parse(defaultTopics, opts...)
}

// Load reads a topic table from path, or returns the embedded table when path is empty
func Load(path string, opts ...Option) (*Catalog, error) {
	if strings.TrimSpace(path) == "" {
		return Default(opts...)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, contextutils.WrapErrorf(contextutils.ErrInvalidInput, "failed to read catalog %s: %w", path, err)
	}
	return Parse(data, opts...)
}

// Parse validates a YAML topic table against the catalog schema and builds a Catalog
func Parse(data []byte, opts ...Option) (*Catalog, error) {
	var doc interface{}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, contextutils.WrapErrorf(contextutils.ErrInvalidInput, "failed to parse catalog: %w", err)
	}
	if err := validateDocument(doc); err != nil {
		return nil, err
	}

	c := &Catalog{}
	if err := yaml.Unmarshal(data, c); err != nil {
		return nil, contextutils.WrapErrorf(contextutils.ErrInvalidInput, "failed to decode catalog: %w", err)
	}
	if err := c.checkUniqueNames(); err != nil {
		return nil, err
	}

	for _, opt := range opts {
		opt(c)
	}
	if c.rng == nil {
		c.rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return c, nil
}

func validateDocument(doc interface{}) error {
	result, err := gojsonschema.Validate(
		gojsonschema.NewBytesLoader(catalogSchema),
		gojsonschema.NewGoLoader(doc),
	)
	if err != nil {
		return contextutils.WrapErrorf(contextutils.ErrInvalidInput, "failed to validate catalog: %w", err)
	}
	if !result.Valid() {
		problems := make([]string, 0, len(result.Errors()))
		for _, e := range result.Errors() {
			problems = append(problems, e.String())
		}
		return contextutils.NewAppError(contextutils.ErrorCodeValidationFailed, contextutils.SeverityError,
			"catalog does not match schema", strings.Join(problems, "; "))
	}
	return nil
}

func (c *Catalog) checkUniqueNames() error {
	categories := make(map[string]bool, len(c.Topics))
	for _, cat := range c.Topics {
		if categories[cat.Name] {
			return contextutils.NewAppError(contextutils.ErrorCodeValidationFailed, contextutils.SeverityError,
				"duplicate category", cat.Name)
		}
		categories[cat.Name] = true

		subjects := make(map[string]bool, len(cat.Subjects))
		for _, sub := range cat.Subjects {
			if subjects[sub.Name] {
				return contextutils.NewAppError(contextutils.ErrorCodeValidationFailed, contextutils.SeverityError,
					"duplicate subject", cat.Name+"/"+sub.Name)
			}
			subjects[sub.Name] = true
		}
	}
	return nil
}

// Categories returns the category names in table order
func (c *Catalog) Categories() []string {
	names := make([]string, 0, len(c.Topics))
	for _, cat := range c.Topics {
		names = append(names, cat.Name)
	}
	return names
}

// HasCategory reports whether category is in the table
func (c *Catalog) HasCategory(category string) bool {
	return c.category(category) != nil
}

// HasSubject reports whether subject belongs to category
func (c *Catalog) HasSubject(category, subject string) bool {
	return c.subject(category, subject) != nil
}

// Subjects returns the subject names of category in table order
func (c *Catalog) Subjects(category string) ([]string, error) {
	cat := c.category(category)
	if cat == nil {
		return nil, contextutils.WrapErrorf(contextutils.ErrNotFound, "unknown category %q", category)
	}
	names := make([]string, 0, len(cat.Subjects))
	for _, sub := range cat.Subjects {
		names = append(names, sub.Name)
	}
	return names, nil
}

// Keywords returns a copy of the keywords of category/subject
func (c *Catalog) Keywords(category, subject string) ([]string, error) {
	sub := c.subject(category, subject)
	if sub == nil {
		return nil, contextutils.WrapErrorf(contextutils.ErrNotFound, "unknown subject %q in category %q", subject, category)
	}
	return append([]string(nil), sub.Keywords...), nil
}

// RandomKeyword picks one keyword of category/subject uniformly at random
func (c *Catalog) RandomKeyword(category, subject string) (string, error) {
	sub := c.subject(category, subject)
	if sub == nil {
		return "", contextutils.WrapErrorf(contextutils.ErrNotFound, "unknown subject %q in category %q", subject, category)
	}

	c.mu.Lock()
	i := c.rng.IntN(len(sub.Keywords))
	c.mu.Unlock()

	return sub.Keywords[i], nil
}

func (c *Catalog) category(name string) *Category {
	for i := range c.Topics {
		if c.Topics[i].Name == name {
			return &c.Topics[i]
		}
	}
	return nil
}

func (c *Catalog) subject(category, name string) *Subject {
	cat := c.category(category)
	if cat == nil {
		return nil
	}
	for i := range cat.Subjects {
		if cat.Subjects[i].Name == name {
			return &cat.Subjects[i]
		}
	}
	return nil
}
