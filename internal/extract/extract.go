package extract

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/jimezsa/upjobs/internal/models"
	"golang.org/x/text/unicode/norm"
)

var ErrRequiredField = errors.New("required field not found")

// ListingError reports a listing element that could not be turned into a record.
type ListingError struct {
	Index int
	Err   error
}

func (e *ListingError) Error() string {
	return fmt.Sprintf("listing %d: %v", e.Index, e.Err)
}

func (e *ListingError) Unwrap() error {
	return e.Err
}

type Extractor struct {
	rules Rules
}

func New(rules Rules) (*Extractor, error) {
	if err := rules.Validate(); err != nil {
		return nil, err
	}
	return &Extractor{rules: rules}, nil
}

func (e *Extractor) Rules() Rules {
	return e.rules
}

// ListingSelector is the selector matching one listing element.
func (e *Extractor) ListingSelector() string {
	return e.rules.Listing
}

// Listings returns the listing elements under root in document order.
func (e *Extractor) Listings(root *goquery.Selection) *goquery.Selection {
	return root.Find(e.rules.Listing)
}

// Extract builds the record for one listing element. Only a missing
// required field is an error; any other lookup failure substitutes the
// field's fallback.
func (e *Extractor) Extract(card *goquery.Selection, page int) (models.JobRecord, error) {
	raw := make(map[string]string, len(fieldOrder))
	for _, field := range fieldOrder {
		rule := e.rules.Fields[field]
		if rule.Multi {
			continue
		}
		value, ok := e.lookup(card, rule)
		if !ok {
			if rule.Required {
				return models.JobRecord{}, fmt.Errorf("%w: %s", ErrRequiredField, field)
			}
			value = rule.Fallback
			if rule.FallbackFrom != "" {
				value = raw[rule.FallbackFrom]
			}
		}
		raw[field] = value
	}

	return models.JobRecord{
		Title:  raw[FieldTitle],
		URL:    raw[FieldURL],
		Posted: raw[FieldPosted],
		Budget: models.Budget{
			Type:   models.ClassifyBudget(raw[FieldBudgetType]),
			Amount: raw[FieldBudgetAmount],
		},
		ExperienceLevel: raw[FieldExperienceLevel],
		Duration:        raw[FieldDuration],
		Description:     raw[FieldDescription],
		Skills:          e.lookupAll(card, e.rules.Fields[FieldSkills]),
		PageNumber:      page,
	}, nil
}

// ExtractAll extracts every listing under root. Listings that fail are
// reported and skipped; the rest keep their document order.
func (e *Extractor) ExtractAll(root *goquery.Selection, page int) ([]models.JobRecord, []*ListingError) {
	var (
		records  []models.JobRecord
		failures []*ListingError
	)
	e.Listings(root).Each(func(idx int, card *goquery.Selection) {
		record, err := e.extractSafe(card, page)
		if err != nil {
			failures = append(failures, &ListingError{Index: idx, Err: err})
			return
		}
		records = append(records, record)
	})
	return records, failures
}

func (e *Extractor) extractSafe(card *goquery.Selection, page int) (record models.JobRecord, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("extract panic: %v", r)
		}
	}()
	return e.Extract(card, page)
}

func (e *Extractor) lookup(card *goquery.Selection, rule Rule) (string, bool) {
	match := card.Find(rule.Selector).First()
	if match.Length() == 0 {
		return "", false
	}

	var value string
	if rule.Attr != "" {
		attr, ok := match.Attr(rule.Attr)
		if !ok {
			return "", false
		}
		value = strings.TrimSpace(attr)
		if rule.Attr == "href" {
			value = absoluteURL(e.rules.BaseURL, value)
		}
	} else {
		value = cleanText(match.Text())
	}
	return value, value != ""
}

func (e *Extractor) lookupAll(card *goquery.Selection, rule Rule) []string {
	values := []string{}
	card.Find(rule.Selector).Each(func(_ int, s *goquery.Selection) {
		if text := cleanText(s.Text()); text != "" {
			values = append(values, text)
		}
	})
	return values
}

// cleanText normalises DOM text. goquery has already decoded entities, so
// the text is not unescaped again.
func cleanText(value string) string {
	value = norm.NFC.String(value)
	return strings.Join(strings.Fields(value), " ")
}

func absoluteURL(base string, href string) string {
	if href == "" {
		return ""
	}
	if strings.HasPrefix(href, "http://") || strings.HasPrefix(href, "https://") {
		return href
	}
	if strings.HasPrefix(href, "//") {
		return "https:" + href
	}
	baseURL, err := url.Parse(base)
	if err != nil || base == "" {
		return href
	}
	ref, err := url.Parse(href)
	if err != nil {
		return href
	}
	return baseURL.ResolveReference(ref).String()
}
