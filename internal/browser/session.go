// Package browser drives a Chromium-family browser through Playwright.
package browser

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/jimezsa/upjobs/internal/scraper"
	"github.com/playwright-community/playwright-go"
	"github.com/rs/zerolog"
)

type Options struct {
	// ExecutablePath selects a browser binary (Brave, Chrome); empty uses
	// Playwright's bundled Chromium.
	ExecutablePath string
	// UserDataDir launches a persistent context on an existing profile.
	UserDataDir      string
	ProfileDirectory string
	Headless         bool
	CookiesPath      string
	ScreenshotDir    string

	NavigationTimeout time.Duration
	// ScrollSteps is how many small scrolls follow the listings appearing.
	ScrollSteps int

	Logger zerolog.Logger
}

// Session owns the Playwright driver, the browser context and its page.
// It implements scraper.Source.
type Session struct {
	pw      *playwright.Playwright
	browser playwright.Browser
	context playwright.BrowserContext
	page    playwright.Page

	opts        Options
	rng         *rand.Rand
	screenshots *Screenshotter
	logger      zerolog.Logger
}

var _ scraper.Source = (*Session)(nil)

func Launch(opts Options) (*Session, error) {
	if opts.NavigationTimeout <= 0 {
		opts.NavigationTimeout = 30 * time.Second
	}

	pw, err := playwright.Run()
	if err != nil {
		return nil, fmt.Errorf("start playwright: %w", err)
	}

	s := &Session{
		pw:          pw,
		opts:        opts,
		rng:         rand.New(rand.NewSource(time.Now().UnixNano())),
		screenshots: NewScreenshotter(opts.ScreenshotDir, opts.Logger),
		logger:      opts.Logger,
	}

	if err := s.open(); err != nil {
		_ = s.Close()
		return nil, err
	}
	return s, nil
}

func (s *Session) open() error {
	args := launchArgs(s.opts)
	ignored := []string{"--enable-automation"}

	var err error
	if s.opts.UserDataDir != "" {
		s.context, err = s.pw.Chromium.LaunchPersistentContext(s.opts.UserDataDir, playwright.BrowserTypeLaunchPersistentContextOptions{
			ExecutablePath:    optionalString(s.opts.ExecutablePath),
			Headless:          playwright.Bool(s.opts.Headless),
			Args:              args,
			IgnoreDefaultArgs: ignored,
		})
		if err != nil {
			return fmt.Errorf("launch browser with profile %q: %w", s.opts.UserDataDir, err)
		}
	} else {
		s.browser, err = s.pw.Chromium.Launch(playwright.BrowserTypeLaunchOptions{
			ExecutablePath:    optionalString(s.opts.ExecutablePath),
			Headless:          playwright.Bool(s.opts.Headless),
			Args:              args,
			IgnoreDefaultArgs: ignored,
		})
		if err != nil {
			return fmt.Errorf("launch browser: %w", err)
		}
		s.context, err = s.browser.NewContext()
		if err != nil {
			return fmt.Errorf("create browser context: %w", err)
		}
	}

	cookies, err := LoadCookies(s.opts.CookiesPath)
	if err != nil {
		return err
	}
	if len(cookies) > 0 {
		if err := s.context.AddCookies(cookies); err != nil {
			return fmt.Errorf("add cookies: %w", err)
		}
		s.logger.Info().Int("count", len(cookies)).Msg("cookies loaded")
	}

	if pages := s.context.Pages(); len(pages) > 0 {
		s.page = pages[0]
	} else {
		s.page, err = s.context.NewPage()
		if err != nil {
			return fmt.Errorf("open page: %w", err)
		}
	}
	return nil
}

func launchArgs(opts Options) []string {
	args := []string{"--disable-blink-features=AutomationControlled"}
	if opts.UserDataDir != "" && opts.ProfileDirectory != "" {
		args = append(args, "--profile-directory="+opts.ProfileDirectory)
	}
	return args
}

func optionalString(value string) *string {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	return playwright.String(value)
}

func (s *Session) Name() string {
	return scraper.SourceBrowser
}

func (s *Session) Navigate(_ context.Context, target string) error {
	s.logger.Debug().Str("url", target).Msg("navigate")
	if _, err := s.page.Goto(target, playwright.PageGotoOptions{
		WaitUntil: playwright.WaitUntilStateDomcontentloaded,
		Timeout:   playwright.Float(float64(s.opts.NavigationTimeout.Milliseconds())),
	}); err != nil {
		return fmt.Errorf("navigate %s: %w", target, err)
	}
	return nil
}

// WaitListings waits for the first listing to attach, then skims the page
// so lazily rendered tiles fill in before the snapshot.
func (s *Session) WaitListings(ctx context.Context, selector string, timeout time.Duration) error {
	err := s.page.Locator(selector).First().WaitFor(playwright.LocatorWaitForOptions{
		State:   playwright.WaitForSelectorStateAttached,
		Timeout: playwright.Float(float64(timeout.Milliseconds())),
	})
	if err == nil {
		if err := readPage(ctx, s.page, s.rng, s.opts.ScrollSteps); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			s.logger.Debug().Err(err).Msg("scroll failed")
		}
		return nil
	}
	if !errors.Is(err, playwright.ErrTimeout) {
		return fmt.Errorf("wait for listings: %w", err)
	}

	title, _ := s.page.Title()
	s.logger.Warn().Str("title", title).Str("url", s.page.URL()).Msg("listings not found")
	_, _ = s.screenshots.Capture(s.page, "listings-timeout")
	return fmt.Errorf("%w after %s", scraper.ErrListingsTimeout, timeout)
}

func (s *Session) Snapshot(_ context.Context) (*goquery.Document, error) {
	content, err := s.page.Content()
	if err != nil {
		return nil, fmt.Errorf("read page content: %w", err)
	}
	return goquery.NewDocumentFromReader(strings.NewReader(content))
}

// Page exposes the underlying page, mainly for tests.
func (s *Session) Page() playwright.Page {
	return s.page
}

func (s *Session) Close() error {
	var errs []error
	if s.context != nil {
		if err := s.context.Close(); err != nil {
			errs = append(errs, err)
		}
		s.context = nil
	}
	if s.browser != nil {
		if err := s.browser.Close(); err != nil {
			errs = append(errs, err)
		}
		s.browser = nil
	}
	if s.pw != nil {
		if err := s.pw.Stop(); err != nil {
			errs = append(errs, err)
		}
		s.pw = nil
	}
	return errors.Join(errs...)
}
