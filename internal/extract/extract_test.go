package extract

import (
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/jimezsa/upjobs/internal/models"
)

const fullTile = `
<article data-test="JobTile">
  <h2 class="job-tile-title"><a href="/jobs/~01abc">  ML Engineer for   NLP pipeline </a></h2>
  <small data-test="job-pubilshed-date"><span>Posted</span><span>5 hours ago</span></small>
  <ul>
    <li data-test="job-type-label"><strong>Hourly: $40-$80</strong></li>
    <li data-test="is-fixed-price"><strong>Est. budget:</strong><strong>$500</strong></li>
    <li data-test="experience-level"><strong>Expert</strong></li>
    <li data-test="duration-label"><strong>Est. time:</strong><strong>1 to 3 months</strong></li>
  </ul>
  <div data-test="UpCLineClamp JobDescription">
    <div class="air3-line-clamp"><p class="mb-0 text-body-sm">Build a café &amp; résumé parser.</p></div>
  </div>
  <div data-test="TokenClamp JobAttrs">
    <div class="air3-token-wrap"><span>NLP</span></div>
    <div class="air3-token-wrap"><span>Python</span></div>
  </div>
</article>`

func TestExtractFullListing(t *testing.T) {
	ex := mustExtractor(t)
	card := mustDoc(t, fullTile).Find("article").First()

	got, err := ex.Extract(card, 3)
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}

	want := models.JobRecord{
		Title:           "ML Engineer for NLP pipeline",
		URL:             "https://www.upwork.com/jobs/~01abc",
		Posted:          "5 hours ago",
		Budget:          models.Budget{Type: models.BudgetHourly, Amount: "$500"},
		ExperienceLevel: "Expert",
		Duration:        "1 to 3 months",
		Description:     "Build a café & résumé parser.",
		Skills:          []string{"NLP", "Python"},
		PageNumber:      3,
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Extract() = %+v\nwant %+v", got, want)
	}
}

func TestExtractFallbacks(t *testing.T) {
	ex := mustExtractor(t)
	html := `
<article data-test="JobTile">
  <h2 class="job-tile-title"><a href="https://www.upwork.com/jobs/~02">Data labeling</a></h2>
  <ul><li data-test="job-type-label"><strong>Fixed price</strong></li></ul>
</article>`
	card := mustDoc(t, html).Find("article").First()

	got, err := ex.Extract(card, 1)
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if got.Posted != models.NotAvailable || got.ExperienceLevel != models.NotAvailable || got.Duration != models.NotAvailable {
		t.Fatalf("expected N/A sentinels, got %+v", got)
	}
	if got.Description != models.NotAvailable {
		t.Fatalf("Description = %q, want %q", got.Description, models.NotAvailable)
	}
	if got.Budget.Type != models.BudgetFixed {
		t.Fatalf("Budget.Type = %q, want %q", got.Budget.Type, models.BudgetFixed)
	}
	if got.Budget.Amount != "Fixed price" {
		t.Fatalf("Budget.Amount should fall back to the raw label, got %q", got.Budget.Amount)
	}
	if got.Skills == nil || len(got.Skills) != 0 {
		t.Fatalf("Skills = %#v, want empty non-nil slice", got.Skills)
	}
}

func TestExtractMissingBudgetLabel(t *testing.T) {
	ex := mustExtractor(t)
	html := `<article data-test="JobTile"><h2 class="job-tile-title"><a href="/jobs/~03">Bot</a></h2></article>`
	card := mustDoc(t, html).Find("article").First()

	got, err := ex.Extract(card, 2)
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if got.Budget.Type != models.BudgetUnknown || got.Budget.Amount != models.NotAvailable {
		t.Fatalf("unexpected budget: %+v", got.Budget)
	}
}

func TestExtractDescriptionFailureLeavesOtherFields(t *testing.T) {
	ex := mustExtractor(t)
	withoutDescription := strings.Replace(fullTile, `class="mb-0 text-body-sm"`, `class="other"`, 1)

	full, err := ex.Extract(mustDoc(t, fullTile).Find("article").First(), 1)
	if err != nil {
		t.Fatalf("Extract(full) error = %v", err)
	}
	degraded, err := ex.Extract(mustDoc(t, withoutDescription).Find("article").First(), 1)
	if err != nil {
		t.Fatalf("Extract(degraded) error = %v", err)
	}

	if degraded.Description != models.NotAvailable {
		t.Fatalf("Description = %q, want %q", degraded.Description, models.NotAvailable)
	}
	full.Description = models.NotAvailable
	if !reflect.DeepEqual(full, degraded) {
		t.Fatalf("other fields changed:\n got %+v\nwant %+v", degraded, full)
	}
}

func TestExtractRequiresTitle(t *testing.T) {
	ex := mustExtractor(t)
	card := mustDoc(t, `<article data-test="JobTile"><p>layout changed</p></article>`).Find("article").First()

	_, err := ex.Extract(card, 1)
	if !errors.Is(err, ErrRequiredField) {
		t.Fatalf("Extract() error = %v, want ErrRequiredField", err)
	}
}

func TestExtractAllKeepsOrderAndSkipsBroken(t *testing.T) {
	ex := mustExtractor(t)
	html := `
<section>
  <article data-test="JobTile"><h2 class="job-tile-title"><a href="/jobs/1">First</a></h2></article>
  <article data-test="JobTile"><div>broken</div></article>
  <article data-test="JobTile"><h2 class="job-tile-title"><a href="/jobs/3">Third</a></h2></article>
</section>`
	doc := mustDoc(t, html)

	records, failures := ex.ExtractAll(doc.Selection, 4)
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	if records[0].Title != "First" || records[1].Title != "Third" {
		t.Fatalf("unexpected order: %q, %q", records[0].Title, records[1].Title)
	}
	for _, record := range records {
		if record.PageNumber != 4 {
			t.Fatalf("PageNumber = %d, want 4", record.PageNumber)
		}
	}
	if len(failures) != 1 || failures[0].Index != 1 {
		t.Fatalf("unexpected failures: %+v", failures)
	}
	if !errors.Is(failures[0], ErrRequiredField) {
		t.Fatalf("failure should wrap ErrRequiredField: %v", failures[0])
	}
}

func TestExtractAllNoListings(t *testing.T) {
	ex := mustExtractor(t)
	records, failures := ex.ExtractAll(mustDoc(t, `<div>No results</div>`).Selection, 1)
	if len(records) != 0 || len(failures) != 0 {
		t.Fatalf("expected nothing, got %d records and %d failures", len(records), len(failures))
	}
}

func TestExtractKeepsLiteralMarkupInText(t *testing.T) {
	ex := mustExtractor(t)
	html := `
<article data-test="JobTile">
  <h2 class="job-tile-title"><a href="/jobs/~02">Fix &lt;div&gt; layout</a></h2>
  <div data-test="UpCLineClamp JobDescription">
    <div class="air3-line-clamp"><p class="mb-0 text-body-sm">Use &amp;lt;div&amp;gt; tags &amp;amp; CSS</p></div>
  </div>
</article>`
	record, err := ex.Extract(mustDoc(t, html).Find("article").First(), 1)
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if record.Title != "Fix <div> layout" {
		t.Fatalf("Title = %q", record.Title)
	}
	if record.Description != "Use &lt;div&gt; tags &amp; CSS" {
		t.Fatalf("Description = %q, want entities left as written on the page", record.Description)
	}
}

func TestCleanText(t *testing.T) {
	cases := map[string]string{
		"  a \n\t b  ":              "a b",
		"Use &lt;div&gt; &amp; CSS": "Use &lt;div&gt; &amp; CSS",
		"cafe\u0301":                "caf\u00e9",
	}
	for in, want := range cases {
		if got := cleanText(in); got != want {
			t.Fatalf("cleanText(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestAbsoluteURL(t *testing.T) {
	base := "https://www.upwork.com"
	cases := []struct {
		href string
		want string
	}{
		{"/jobs/~01", "https://www.upwork.com/jobs/~01"},
		{"https://other.com/a", "https://other.com/a"},
		{"//cdn.example.com/asset", "https://cdn.example.com/asset"},
		{"", ""},
	}

	for _, tc := range cases {
		if got := absoluteURL(base, tc.href); got != tc.want {
			t.Fatalf("absoluteURL(%q) = %q, want %q", tc.href, got, tc.want)
		}
	}
}

func mustExtractor(t *testing.T) *Extractor {
	t.Helper()
	ex, err := New(DefaultRules())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return ex
}

func mustDoc(t *testing.T, html string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		t.Fatalf("failed to parse document: %v", err)
	}
	return doc
}
