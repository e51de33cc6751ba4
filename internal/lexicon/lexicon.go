// Package lexicon holds the immutable keyword sets, diet tables and canned
// copy that drive intent classification and reply rendering.
package lexicon

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

//go:embed default.yaml
var defaultYAML []byte

var validate = validator.New()

// Lexicon is loaded once at start-up and shared read-only.
type Lexicon struct {
	StopWords               []string            `yaml:"stop_words" validate:"required,min=1"`
	MeaninglessWords        []string            `yaml:"meaningless_words" validate:"required,min=1"`
	Greetings               []GreetingBucket    `yaml:"greetings" validate:"required,min=1,dive"`
	Keywords                Keywords            `yaml:"keywords" validate:"required"`
	Topics                  map[string][]string `yaml:"topics"`
	Diet                    Diet                `yaml:"diet" validate:"required"`
	GeneralHealthCategories []string            `yaml:"general_health_categories" validate:"required,min=1"`
	Benefits                Benefits            `yaml:"benefits" validate:"required"`
	Thresholds              Thresholds          `yaml:"thresholds" validate:"required"`
	Limits                  Limits              `yaml:"limits" validate:"required"`
}

// GreetingBucket groups greeting phrases for one time of day. Buckets are
// checked in file order.
type GreetingBucket struct {
	Bucket  string   `yaml:"bucket" validate:"required"`
	Phrases []string `yaml:"phrases" validate:"required,min=1"`
	Reply   string   `yaml:"reply" validate:"required"`
}

// Keywords are the per-intent keyword sets.
type Keywords struct {
	Cart          []string `yaml:"cart" validate:"required,min=1"`
	Wishlist      []string `yaml:"wishlist" validate:"required,min=1"`
	Offer         []string `yaml:"offer" validate:"required,min=1"`
	HealthBenefit []string `yaml:"health_benefit" validate:"required,min=1"`
	Availability  []string `yaml:"availability" validate:"required,min=1"`
	GeneralHealth []string `yaml:"general_health" validate:"required,min=1"`
	Price         []string `yaml:"price" validate:"required,min=1"`
	Image         []string `yaml:"image" validate:"required,min=1"`
	Payment       []string `yaml:"payment" validate:"required,min=1"`
	Tracking      []string `yaml:"tracking" validate:"required,min=1"`
	Order         []string `yaml:"order" validate:"required,min=1"`
	Store         []string `yaml:"store" validate:"required,min=1"`
}

// Diet holds the diet-type vocabulary and the per-type category allow-lists.
type Diet struct {
	Morning    []string            `yaml:"morning" validate:"required,min=1"`
	Noon       []string            `yaml:"noon" validate:"required,min=1"`
	Evening    []string            `yaml:"evening" validate:"required,min=1"`
	Night      []string            `yaml:"night" validate:"required,min=1"`
	Kids       []string            `yaml:"kids" validate:"required,min=1"`
	Gym        []string            `yaml:"gym" validate:"required,min=1"`
	WeightLoss []string            `yaml:"weight_loss" validate:"required,min=1"`
	General    []string            `yaml:"general" validate:"required,min=1"`
	Categories map[string][]string `yaml:"categories" validate:"required,min=1"`
	Intros     map[string]string   `yaml:"intros" validate:"required,min=1"`
}

// Benefits are canned health-benefit sentences used when the completion
// service has nothing to say.
type Benefits struct {
	Default    string            `yaml:"default" validate:"required"`
	Products   map[string]string `yaml:"products"`
	Categories map[string]string `yaml:"categories"`
}

// Thresholds are the fuzzy-match cut-offs per call site.
type Thresholds struct {
	CatalogTerm       float64 `yaml:"catalog_term" validate:"gt=0,lte=1"`
	Title             float64 `yaml:"title" validate:"gt=0,lte=1"`
	CategoryHeuristic float64 `yaml:"category_heuristic" validate:"gt=0,lte=1"`
}

// Limits cap the number of products listed per reply section.
type Limits struct {
	Related       int `yaml:"related" validate:"gt=0"`
	Offers        int `yaml:"offers" validate:"gt=0"`
	Diet          int `yaml:"diet" validate:"gt=0"`
	GeneralHealth int `yaml:"general_health" validate:"gt=0"`
}

// Default returns the embedded lexicon.
func Default() (*Lexicon, error) {
	return Parse(defaultYAML)
}

// MustDefault is Default for composition roots and tests.
func MustDefault() *Lexicon {
	lex, err := Default()
	if err != nil {
		panic(err)
	}
	return lex
}

// Load reads a lexicon file. An empty path returns the embedded default.
func Load(path string) (*Lexicon, error) {
	if path == "" {
		return Default()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read lexicon: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates a YAML lexicon.
func Parse(data []byte) (*Lexicon, error) {
	var lex Lexicon
	if err := yaml.Unmarshal(data, &lex); err != nil {
		return nil, fmt.Errorf("parse lexicon: %w", err)
	}
	// go-playground/validator/v10: every keyword set must be present.
	if err := validate.Struct(&lex); err != nil {
		return nil, fmt.Errorf("validate lexicon: %w", err)
	}
	for diet := range lex.Diet.Categories {
		if _, ok := lex.Diet.Intros[diet]; !ok {
			return nil, fmt.Errorf("validate lexicon: diet type %q has no intro", diet)
		}
	}
	return &lex, nil
}

// GreetingReply returns the canned reply for bucket, falling back to the
// last (general) bucket.
func (l *Lexicon) GreetingReply(bucket string) string {
	for _, g := range l.Greetings {
		if g.Bucket == bucket {
			return g.Reply
		}
	}
	return l.Greetings[len(l.Greetings)-1].Reply
}

// Benefit returns the canned benefit for a product title or its category.
func (l *Lexicon) Benefit(title, category string) string {
	t := strings.ToLower(strings.TrimSpace(title))
	if b, ok := l.Benefits.Products[t]; ok {
		return b
	}
	c := strings.ToLower(strings.TrimSpace(category))
	if b, ok := l.Benefits.Categories[c]; ok {
		return b
	}
	if b, ok := l.Benefits.Categories[strings.TrimSuffix(c, "s")]; ok {
		return b
	}
	return l.Benefits.Default
}
