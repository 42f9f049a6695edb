package extract

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jimezsa/upjobs/internal/models"
)

func TestDefaultRulesValid(t *testing.T) {
	if err := DefaultRules().Validate(); err != nil {
		t.Fatalf("DefaultRules().Validate() error = %v", err)
	}
}

func TestValidateRejectsBadTables(t *testing.T) {
	cases := map[string]func(r *Rules){
		"unknown field": func(r *Rules) {
			r.Fields["salary"] = Rule{Selector: "span"}
		},
		"empty selector": func(r *Rules) {
			rule := r.Fields[FieldPosted]
			rule.Selector = " "
			r.Fields[FieldPosted] = rule
		},
		"missing field": func(r *Rules) {
			delete(r.Fields, FieldDuration)
		},
		"forward fallback": func(r *Rules) {
			rule := r.Fields[FieldPosted]
			rule.FallbackFrom = FieldDescription
			r.Fields[FieldPosted] = rule
		},
		"skills not multi": func(r *Rules) {
			rule := r.Fields[FieldSkills]
			rule.Multi = false
			r.Fields[FieldSkills] = rule
		},
		"no listing": func(r *Rules) {
			r.Listing = ""
		},
	}

	for name, mutate := range cases {
		rules := DefaultRules()
		mutate(&rules)
		if err := rules.Validate(); err == nil {
			t.Fatalf("%s: Validate() error = nil, want error", name)
		}
	}
}

func TestLoadRulesOverridesOnlyGivenFields(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "rules.yaml")
	data := `
listing: "div.job-card"
fields:
  posted:
    selector: "time.posted"
    fallback: "unknown"
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	rules, err := LoadRules(path)
	if err != nil {
		t.Fatalf("LoadRules() error = %v", err)
	}
	if rules.Listing != "div.job-card" {
		t.Fatalf("Listing = %q", rules.Listing)
	}
	if got := rules.Fields[FieldPosted]; got.Selector != "time.posted" || got.Fallback != "unknown" {
		t.Fatalf("unexpected posted rule: %+v", got)
	}
	if got := rules.Fields[FieldTitle]; got.Selector != DefaultRules().Fields[FieldTitle].Selector {
		t.Fatalf("title rule should keep default, got %+v", got)
	}
}

func TestLoadRulesSelectorOverrideKeepsFlags(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.yaml")
	data := `
fields:
  description:
    selector: div.desc
  title:
    selector: "h3 a"
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	rules, err := LoadRules(path)
	if err != nil {
		t.Fatalf("LoadRules() error = %v", err)
	}
	if got := rules.Fields[FieldDescription]; got.Selector != "div.desc" || got.Fallback != models.NotAvailable {
		t.Fatalf("description rule = %+v, want new selector and N/A fallback", got)
	}
	if got := rules.Fields[FieldTitle]; got.Selector != "h3 a" || !got.Required {
		t.Fatalf("title rule = %+v, want new selector and still required", got)
	}

	ex, err := New(rules)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	card := mustDoc(t, `<article data-test="JobTile"><h3><a href="/jobs/~1"></a></h3></article>`).Find("article")
	if _, err := ex.Extract(card, 1); !errors.Is(err, ErrRequiredField) {
		t.Fatalf("Extract() error = %v, want ErrRequiredField", err)
	}

	card = mustDoc(t, `<article data-test="JobTile"><h3><a href="/jobs/~1">Title</a></h3><h2 class="job-tile-title"><a href="/jobs/~1">x</a></h2></article>`).Find("article")
	record, err := ex.Extract(card, 1)
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if record.Title != "Title" || record.Description != models.NotAvailable {
		t.Fatalf("Extract() = %+v, want title and N/A description", record)
	}
}

func TestLoadRulesUnknownFieldRejected(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.yaml")
	if err := os.WriteFile(path, []byte("fields:\n  salary:\n    selector: span\n"), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	if _, err := LoadRules(path); err == nil {
		t.Fatalf("LoadRules() error = nil, want unknown field error")
	}
}

func TestLoadRulesAllowMissing(t *testing.T) {
	rules, err := LoadRulesAllowMissing(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("LoadRulesAllowMissing() error = %v", err)
	}
	if rules.Listing != DefaultRules().Listing {
		t.Fatalf("expected default rules, got listing %q", rules.Listing)
	}
}

func TestDumpThenLoad(t *testing.T) {
	var buf bytes.Buffer
	if err := DefaultRules().Dump(&buf); err != nil {
		t.Fatalf("Dump() error = %v", err)
	}
	if !strings.Contains(buf.String(), "fallback_from: budget_type") {
		t.Fatalf("dump missing budget fallback:\n%s", buf.String())
	}

	path := filepath.Join(t.TempDir(), "rules.yaml")
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	if _, err := LoadRules(path); err != nil {
		t.Fatalf("LoadRules(dumped) error = %v", err)
	}
}
