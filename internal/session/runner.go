// Package session runs the page-by-page scrape with a checkpoint after
// every page.
package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jimezsa/upjobs/internal/extract"
	"github.com/jimezsa/upjobs/internal/models"
	"github.com/jimezsa/upjobs/internal/scraper"
	"github.com/jimezsa/upjobs/internal/seen"
	"github.com/jimezsa/upjobs/internal/store"
	"github.com/rs/zerolog"
)

const DefaultWaitTimeout = 10 * time.Second

type Options struct {
	SearchURL   string
	Query       string
	StorePath   string
	WaitTimeout time.Duration
	// Dedupe drops extracted records whose URL is already in the collection.
	Dedupe bool
}

type Runner struct {
	Source    scraper.Source
	Extractor *extract.Extractor
	Waiter    Waiter
	Pacer     *Pacer
	Logger    zerolog.Logger
	Options   Options

	// OnRecord is called for every record kept from a page.
	OnRecord func(record models.JobRecord)
	// OnCheckpoint is called after each successful write with the
	// collection size.
	OnCheckpoint func(page int, total int)

	state State
}

type Result struct {
	Records      []models.JobRecord
	Loaded       int
	Added        int
	PagesScraped int
	StopReason   StopReason
}

func New(src scraper.Source, ex *extract.Extractor, waiter Waiter, opts Options) *Runner {
	return &Runner{
		Source:    src,
		Extractor: ex,
		Waiter:    waiter,
		Pacer:     DefaultPacer(),
		Logger:    zerolog.Nop(),
		Options:   opts,
	}
}

func (r *Runner) State() State {
	return r.state
}

// Run scrapes up to pages result pages. Records already on disk are kept
// and the new ones appended; the file is rewritten after each page, so an
// interrupted run loses at most the page in flight.
func (r *Runner) Run(ctx context.Context, pages int) (Result, error) {
	if pages < 1 {
		return Result{}, fmt.Errorf("pages must be >= 1, got %d", pages)
	}
	if r.Source == nil || r.Extractor == nil {
		return Result{}, errors.New("session needs a source and an extractor")
	}
	if r.Options.StorePath == "" {
		return Result{}, errors.New("session needs a store path")
	}
	if r.Options.WaitTimeout <= 0 {
		r.Options.WaitTimeout = DefaultWaitTimeout
	}

	r.transition(StateInit)
	r.transition(StateLoadingCheckpoint)
	collection, err := store.LoadAllowMissing(r.Options.StorePath)
	if err != nil {
		return Result{}, fmt.Errorf("load checkpoint: %w", err)
	}
	result := Result{Records: collection, Loaded: len(collection)}
	r.Logger.Info().Int("count", result.Loaded).Str("path", r.Options.StorePath).Msg("loaded existing jobs")

	for page := 1; page <= pages; page++ {
		if err := ctx.Err(); err != nil {
			return r.finish(result, StopCanceled), err
		}
		if page > 1 {
			if err := r.Pacer.BetweenPages(ctx); err != nil {
				return r.finish(result, StopCanceled), err
			}
		}

		records, stop, err := r.scrapePage(ctx, page)
		if err != nil {
			if ctx.Err() != nil {
				return r.finish(result, StopCanceled), ctx.Err()
			}
			return r.finish(result, StopFailed), err
		}
		if stop != "" {
			return r.finish(result, stop), nil
		}

		if r.Options.Dedupe {
			unseen, stats := seen.Diff(records, result.Records)
			if dropped := len(records) - len(unseen); dropped > 0 {
				r.Logger.Info().Int("page", page).Int("dropped", dropped).Int("invalid", stats.InvalidNew).Msg("dropped already collected jobs")
			}
			records = unseen
		}

		for _, record := range records {
			if r.OnRecord != nil {
				r.OnRecord(record)
			}
		}

		r.transition(StateCheckpointing)
		result.Records = append(result.Records, records...)
		if err := store.Save(r.Options.StorePath, result.Records); err != nil {
			result.Records = result.Records[:len(result.Records)-len(records)]
			return r.finish(result, StopFailed), fmt.Errorf("checkpoint page %d: %w", page, err)
		}
		result.Added += len(records)
		result.PagesScraped++
		if r.OnCheckpoint != nil {
			r.OnCheckpoint(page, len(result.Records))
		}
		r.Logger.Debug().Int("page", page).Int("total", len(result.Records)).Msg("checkpoint written")
	}

	return r.finish(result, StopCompleted), nil
}

// scrapePage loads one results page and extracts its listings. A non-empty
// stop reason ends the run without touching the checkpoint.
func (r *Runner) scrapePage(ctx context.Context, page int) ([]models.JobRecord, StopReason, error) {
	r.transition(StateScrapingPage)
	target, err := scraper.BuildSearchURL(r.Options.SearchURL, r.Options.Query, page)
	if err != nil {
		return nil, "", err
	}
	r.Logger.Info().Int("page", page).Str("url", target).Msg("scraping page")

	loadErr := r.load(ctx, target)
	if loadErr == nil {
		records, err := r.extract(ctx, page)
		if err != nil {
			return nil, "", err
		}
		if len(records) == 0 {
			r.Logger.Info().Int("page", page).Msg("no jobs found on page, stopping")
			return nil, StopEmptyPage, nil
		}
		return records, "", nil
	}
	if ctx.Err() != nil {
		return nil, "", ctx.Err()
	}

	for attempt := 1; ; attempt++ {
		r.Logger.Warn().Err(loadErr).Int("page", page).Msg("listings unavailable")
		r.transition(StateAwaitingIntervention)
		if r.Waiter == nil {
			return nil, StopInterventionExhausted, nil
		}
		if err := r.Waiter.Await(ctx, page, attempt); err != nil {
			if errors.Is(err, ErrInterventionExhausted) {
				r.Logger.Warn().Err(err).Int("page", page).Msg("giving up on page")
				return nil, StopInterventionExhausted, nil
			}
			return nil, "", err
		}

		r.transition(StateScrapingPage)
		if isNavigation(loadErr) {
			if loadErr = r.load(ctx, target); loadErr != nil {
				if ctx.Err() != nil {
					return nil, "", ctx.Err()
				}
				continue
			}
		}
		records, err := r.extract(ctx, page)
		if err != nil {
			return nil, "", err
		}
		if len(records) > 0 {
			return records, "", nil
		}
		loadErr = fmt.Errorf("%w on re-check", scraper.ErrListingsTimeout)
	}
}

type navigationError struct {
	err error
}

func (e *navigationError) Error() string { return e.err.Error() }
func (e *navigationError) Unwrap() error { return e.err }

func isNavigation(err error) bool {
	var nav *navigationError
	return errors.As(err, &nav)
}

func (r *Runner) load(ctx context.Context, target string) error {
	if err := r.Source.Navigate(ctx, target); err != nil {
		return &navigationError{err: err}
	}
	if err := r.Pacer.Settle(ctx); err != nil {
		return err
	}
	return r.Source.WaitListings(ctx, r.Extractor.ListingSelector(), r.Options.WaitTimeout)
}

// extract snapshots the page and pulls every listing from it. A failed
// snapshot counts as an empty page.
func (r *Runner) extract(ctx context.Context, page int) ([]models.JobRecord, error) {
	doc, err := r.Source.Snapshot(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		r.Logger.Warn().Err(err).Int("page", page).Msg("snapshot failed")
		return nil, nil
	}

	records, failures := r.Extractor.ExtractAll(doc.Selection, page)
	for _, failure := range failures {
		r.Logger.Warn().Err(failure.Err).Int("page", page).Int("listing", failure.Index).Msg("skipping listing")
	}
	r.Logger.Debug().Int("page", page).Int("records", len(records)).Int("failed", len(failures)).Msg("page extracted")
	return records, nil
}

func (r *Runner) transition(next State) {
	r.Logger.Debug().Str("from", r.state.String()).Str("to", next.String()).Msg("state")
	r.state = next
}

func (r *Runner) finish(result Result, reason StopReason) Result {
	r.transition(StateDone)
	result.StopReason = reason
	r.Logger.Info().
		Int("pages", result.PagesScraped).
		Int("added", result.Added).
		Int("total", len(result.Records)).
		Str("reason", string(reason)).
		Msg("scrape finished")
	return result
}
