package extract

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/jimezsa/upjobs/internal/models"
	"gopkg.in/yaml.v3"
)

const (
	FieldTitle           = "title"
	FieldURL             = "url"
	FieldPosted          = "posted"
	FieldBudgetType      = "budget_type"
	FieldBudgetAmount    = "budget_amount"
	FieldExperienceLevel = "experience_level"
	FieldDuration        = "duration"
	FieldDescription     = "description"
	FieldSkills          = "skills"
)

// fieldOrder is the order fields are read in. A fallback_from reference
// must point at a field earlier in this list.
var fieldOrder = []string{
	FieldTitle,
	FieldURL,
	FieldPosted,
	FieldBudgetType,
	FieldBudgetAmount,
	FieldExperienceLevel,
	FieldDuration,
	FieldDescription,
	FieldSkills,
}

// Rule locates one field inside a listing element.
type Rule struct {
	Selector string `yaml:"selector"`
	// Attr reads an attribute instead of the element text.
	Attr string `yaml:"attr,omitempty"`
	// Multi collects the text of every match, in document order.
	Multi bool `yaml:"multi,omitempty"`
	// Required fields abort the listing instead of falling back.
	Required bool   `yaml:"required,omitempty"`
	Fallback string `yaml:"fallback,omitempty"`
	// FallbackFrom substitutes the raw value already read for another field.
	FallbackFrom string `yaml:"fallback_from,omitempty"`
}

// Rules is the full extraction table for one site layout.
type Rules struct {
	BaseURL string          `yaml:"base_url"`
	Listing string          `yaml:"listing"`
	Fields  map[string]Rule `yaml:"fields"`
}

func DefaultRules() Rules {
	return Rules{
		BaseURL: "https://www.upwork.com",
		Listing: `article[data-test="JobTile"]`,
		Fields: map[string]Rule{
			FieldTitle: {
				Selector: "h2.job-tile-title a",
				Required: true,
			},
			FieldURL: {
				Selector: "h2.job-tile-title a",
				Attr:     "href",
				Required: true,
			},
			FieldPosted: {
				Selector: `small[data-test="job-pubilshed-date"] span:last-child`,
				Fallback: models.NotAvailable,
			},
			FieldBudgetType: {
				Selector: `li[data-test="job-type-label"] strong`,
				Fallback: models.NotAvailable,
			},
			FieldBudgetAmount: {
				Selector:     `li[data-test="is-fixed-price"] strong:last-child`,
				FallbackFrom: FieldBudgetType,
			},
			FieldExperienceLevel: {
				Selector: `li[data-test="experience-level"] strong`,
				Fallback: models.NotAvailable,
			},
			FieldDuration: {
				Selector: `li[data-test="duration-label"] strong:last-child`,
				Fallback: models.NotAvailable,
			},
			FieldDescription: {
				Selector: `div[data-test="UpCLineClamp JobDescription"] .air3-line-clamp p.mb-0.text-body-sm`,
				Fallback: models.NotAvailable,
			},
			FieldSkills: {
				Selector: `div[data-test="TokenClamp JobAttrs"] .air3-token-wrap span`,
				Multi:    true,
			},
		},
	}
}

// LoadRules reads a YAML rule file on top of DefaultRules, so a file only
// needs the fields whose locators changed.
func LoadRules(path string) (Rules, error) {
	rules := DefaultRules()
	if strings.TrimSpace(path) == "" {
		return rules, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return rules, fmt.Errorf("read rules %q: %w", path, err)
	}
	var overlay rulesFile
	if err := yaml.Unmarshal(data, &overlay); err != nil {
		return rules, fmt.Errorf("parse rules %q: %w", path, err)
	}
	overlay.applyTo(&rules)
	if err := rules.Validate(); err != nil {
		return rules, fmt.Errorf("invalid rules %q: %w", path, err)
	}
	return rules, nil
}

// rulesFile mirrors Rules with optional values, so keys absent from a
// rules file keep their defaults.
type rulesFile struct {
	BaseURL *string             `yaml:"base_url"`
	Listing *string             `yaml:"listing"`
	Fields  map[string]ruleFile `yaml:"fields"`
}

type ruleFile struct {
	Selector     *string `yaml:"selector"`
	Attr         *string `yaml:"attr"`
	Multi        *bool   `yaml:"multi"`
	Required     *bool   `yaml:"required"`
	Fallback     *string `yaml:"fallback"`
	FallbackFrom *string `yaml:"fallback_from"`
}

func (f rulesFile) applyTo(rules *Rules) {
	if f.BaseURL != nil {
		rules.BaseURL = *f.BaseURL
	}
	if f.Listing != nil {
		rules.Listing = *f.Listing
	}
	for name, override := range f.Fields {
		rules.Fields[name] = override.applyTo(rules.Fields[name])
	}
}

func (f ruleFile) applyTo(rule Rule) Rule {
	if f.Selector != nil {
		rule.Selector = *f.Selector
	}
	if f.Attr != nil {
		rule.Attr = *f.Attr
	}
	if f.Multi != nil {
		rule.Multi = *f.Multi
	}
	if f.Required != nil {
		rule.Required = *f.Required
	}
	if f.Fallback != nil {
		rule.Fallback = *f.Fallback
	}
	if f.FallbackFrom != nil {
		rule.FallbackFrom = *f.FallbackFrom
	}
	return rule
}

// LoadRulesAllowMissing behaves like LoadRules but treats a missing file as
// "use the defaults".
func LoadRulesAllowMissing(path string) (Rules, error) {
	rules, err := LoadRules(path)
	if err != nil && errors.Is(err, os.ErrNotExist) {
		return DefaultRules(), nil
	}
	return rules, err
}

func (r Rules) Validate() error {
	if strings.TrimSpace(r.Listing) == "" {
		return errors.New("listing selector is required")
	}

	position := make(map[string]int, len(fieldOrder))
	for idx, field := range fieldOrder {
		position[field] = idx
	}

	for name := range r.Fields {
		if _, ok := position[name]; !ok {
			return fmt.Errorf("unknown field %q", name)
		}
	}

	for idx, field := range fieldOrder {
		rule, ok := r.Fields[field]
		if !ok {
			return fmt.Errorf("missing rule for field %q", field)
		}
		if strings.TrimSpace(rule.Selector) == "" {
			return fmt.Errorf("field %q: selector is required", field)
		}
		if rule.FallbackFrom == "" {
			continue
		}
		from, ok := position[rule.FallbackFrom]
		if !ok || from >= idx {
			return fmt.Errorf("field %q: fallback_from %q must name an earlier field", field, rule.FallbackFrom)
		}
		if r.Fields[rule.FallbackFrom].Multi {
			return fmt.Errorf("field %q: fallback_from %q is a list field", field, rule.FallbackFrom)
		}
	}

	if !r.Fields[FieldSkills].Multi {
		return fmt.Errorf("field %q must be multi", FieldSkills)
	}
	return nil
}

// Dump writes the rules as YAML.
func (r Rules) Dump(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(r); err != nil {
		return err
	}
	return enc.Close()
}
