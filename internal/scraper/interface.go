package scraper

import (
	"context"
	"errors"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// ErrListingsTimeout means the listing elements did not appear on the
// current page in time. It is either the end of the results or a challenge
// page; the caller decides which.
var ErrListingsTimeout = errors.New("listings did not load")

// Source is a page session positioned on one search results page at a time.
type Source interface {
	Name() string
	Navigate(ctx context.Context, target string) error
	WaitListings(ctx context.Context, selector string, timeout time.Duration) error
	// Snapshot returns the current DOM of the page.
	Snapshot(ctx context.Context) (*goquery.Document, error)
	Close() error
}
