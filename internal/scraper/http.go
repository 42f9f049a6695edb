package scraper

import (
	"context"
	"fmt"
	"time"

	"github.com/PuerkitoBio/goquery"
	fhttp "github.com/bogdanfinn/fhttp"
	"github.com/jimezsa/upjobs/internal/network"
)

// HTTPSource fetches search pages without a browser. It only sees
// server-rendered markup, so it suits mirrors and saved result pages
// better than the live site.
type HTTPSource struct {
	fetch   func(ctx context.Context, target string) (*goquery.Document, error)
	current string
	doc     *goquery.Document
	stale   bool
}

func NewHTTPSource(client *network.Client) *HTTPSource {
	return &HTTPSource{
		fetch: func(ctx context.Context, target string) (*goquery.Document, error) {
			return fetchDocument(ctx, client, target, nil)
		},
	}
}

func (s *HTTPSource) Name() string {
	return SourceHTTP
}

func (s *HTTPSource) Navigate(ctx context.Context, target string) error {
	s.current = target
	s.doc = nil
	doc, err := s.fetch(ctx, target)
	if err != nil {
		return fmt.Errorf("http source: %w", err)
	}
	s.doc = doc
	s.stale = false
	return nil
}

// WaitListings checks the fetched document once; there is nothing to wait
// for in static markup.
func (s *HTTPSource) WaitListings(_ context.Context, selector string, _ time.Duration) error {
	if s.doc != nil && s.doc.Find(selector).Length() > 0 {
		return nil
	}
	s.stale = true
	return ErrListingsTimeout
}

// Snapshot returns the fetched document, fetching it again when the last
// WaitListings found nothing.
func (s *HTTPSource) Snapshot(ctx context.Context) (*goquery.Document, error) {
	if s.current == "" {
		return nil, fmt.Errorf("http source: no page loaded")
	}
	if s.doc == nil || s.stale {
		if err := s.Navigate(ctx, s.current); err != nil {
			return nil, err
		}
	}
	return s.doc, nil
}

func (s *HTTPSource) Close() error {
	s.doc = nil
	return nil
}

func fetchDocument(ctx context.Context, client *network.Client, target string, headers map[string]string) (*goquery.Document, error) {
	req, err := fhttp.NewRequestWithContext(ctx, fhttp.MethodGet, target, nil)
	if err != nil {
		return nil, err
	}

	applyHeaders(req, headers)
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("%w: http %d", network.ErrRequestFailed, resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, err
	}
	return doc, nil
}

func applyHeaders(req *fhttp.Request, headers map[string]string) {
	if headers == nil {
		headers = map[string]string{}
	}
	if _, ok := headers["accept"]; !ok {
		headers["accept"] = "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8"
	}
	if _, ok := headers["accept-language"]; !ok {
		headers["accept-language"] = "en-US,en;q=0.9"
	}
	for key, value := range headers {
		req.Header.Set(key, value)
	}
}
