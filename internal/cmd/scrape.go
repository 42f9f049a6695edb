package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/cheggaaa/pb/v3"
	"github.com/dustin/go-humanize"
	"github.com/jimezsa/upjobs/internal/browser"
	"github.com/jimezsa/upjobs/internal/config"
	"github.com/jimezsa/upjobs/internal/extract"
	"github.com/jimezsa/upjobs/internal/models"
	"github.com/jimezsa/upjobs/internal/network"
	"github.com/jimezsa/upjobs/internal/scraper"
	"github.com/jimezsa/upjobs/internal/session"
)

type ScrapeCmd struct {
	Jobs           int    `arg:"" optional:"" help:"Number of jobs to collect; pages = ceil(N / page size)." default:"50"`
	Query          string `help:"Search query."`
	Store          string `help:"Path to the JSON store; new jobs are appended."`
	Source         string `help:"Page source: browser or http." enum:",browser,http" default:""`
	PageSize       int    `help:"Listings per results page."`
	Headless       bool   `help:"Run the browser without a window."`
	NonInteractive bool   `help:"Retry with backoff instead of prompting when listings do not load."`
	MaxRetries     int    `help:"Retries per page in non-interactive mode."`
	Dedupe         bool   `help:"Skip listings whose URL is already in the store."`
	Rules          string `help:"Path to a YAML extraction rules file."`
	Proxies        string `help:"Comma-separated proxy URLs (http source)." env:"UPJOBS_PROXIES"`
}

// scrapeSettings is the flag and config merge for one run.
type scrapeSettings struct {
	Query       string
	StorePath   string
	Source      string
	PageSize    int
	Pages       int
	Interactive bool
	MaxRetries  int
	RulesPath   string
	RulesStrict bool
}

func (s *ScrapeCmd) settings(cfg config.Config) (scrapeSettings, error) {
	if s.Jobs < 1 {
		return scrapeSettings{}, fmt.Errorf("number of jobs must be >= 1, got %d", s.Jobs)
	}
	source, err := scraper.NormalizeSource(firstNonEmpty(s.Source, cfg.Source))
	if err != nil {
		return scrapeSettings{}, err
	}

	out := scrapeSettings{
		Query:       firstNonEmpty(s.Query, cfg.Query),
		StorePath:   firstNonEmpty(s.Store, cfg.StorePath),
		Source:      source,
		PageSize:    defaultInt(s.PageSize, cfg.PageSize),
		Interactive: cfg.Interactive && !s.NonInteractive,
		MaxRetries:  defaultInt(s.MaxRetries, cfg.MaxRetries),
		RulesPath:   s.Rules,
		RulesStrict: strings.TrimSpace(s.Rules) != "",
	}
	if strings.TrimSpace(out.StorePath) == "" {
		return scrapeSettings{}, errors.New("store path is empty")
	}
	if out.RulesPath == "" {
		if out.RulesPath, err = cfg.ResolveRulesPath(); err != nil {
			return scrapeSettings{}, err
		}
	}
	out.Pages = models.SearchParams{Query: out.Query, Target: s.Jobs, PageSize: out.PageSize}.Pages()
	return out, nil
}

func (s *ScrapeCmd) Run(ctx *Context) error {
	cfg := ctx.Config
	settings, err := s.settings(cfg)
	if err != nil {
		return err
	}

	rules, err := loadRules(settings.RulesPath, settings.RulesStrict)
	if err != nil {
		return err
	}
	extractor, err := extract.New(rules)
	if err != nil {
		return err
	}

	source, err := s.openSource(ctx, settings)
	if err != nil {
		return fmt.Errorf("start %s session: %w", settings.Source, err)
	}
	defer func() {
		if settings.Interactive && settings.Source == scraper.SourceBrowser {
			_ = ctx.UI.WaitForEnter(context.Background(), ctx.In, "Press Enter to close the browser...")
		}
		if err := source.Close(); err != nil {
			ctx.Logger.Warn().Err(err).Msg("close session")
		}
	}()

	runCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var waiter session.Waiter
	if settings.Interactive {
		waiter = session.NewPromptWaiter(ctx.UI, ctx.In)
	} else {
		waiter = session.NewBackoffWaiter(config.Seconds(cfg.RetryBackoff), settings.MaxRetries, ctx.Logger)
	}

	runner := session.New(source, extractor, waiter, session.Options{
		SearchURL:   cfg.SearchURL,
		Query:       settings.Query,
		StorePath:   settings.StorePath,
		WaitTimeout: config.Seconds(cfg.WaitTimeout),
		Dedupe:      s.Dedupe,
	})
	runner.Logger = ctx.Logger
	runner.Pacer = session.NewPacer(
		config.Seconds(cfg.PageDelayMin), config.Seconds(cfg.PageDelayMax),
		config.Seconds(cfg.SettleDelayMin), config.Seconds(cfg.SettleDelayMax),
	)

	var bar *pb.ProgressBar
	if !settings.Interactive && !ctx.JSONOutput && isTTY(ctx.Err) {
		bar = pb.New(settings.Pages)
		bar.SetWriter(ctx.Err)
		bar.Start()
	}

	var added []models.JobRecord
	runner.OnRecord = func(record models.JobRecord) {
		added = append(added, record)
		if bar == nil && !ctx.JSONOutput {
			ctx.UI.Infof("%s", formatExtracted(record))
		}
	}
	runner.OnCheckpoint = func(_ int, total int) {
		if bar != nil {
			bar.Increment()
			return
		}
		if !ctx.JSONOutput {
			ctx.UI.Successf("Progress saved! Total jobs so far: %s", humanize.Comma(int64(total)))
		}
	}

	ctx.UI.Infof("Scraping up to %d page(s) for %q into %s", settings.Pages, settings.Query, settings.StorePath)
	result, runErr := runner.Run(runCtx, settings.Pages)
	if bar != nil {
		bar.Finish()
	}

	if err := printScrapeResult(ctx, result, added); err != nil {
		return err
	}
	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		return runErr
	}
	if errors.Is(runErr, context.Canceled) {
		ctx.UI.Warnf("Interrupted; %s job(s) saved to %s", humanize.Comma(int64(len(result.Records))), settings.StorePath)
	}
	return nil
}

func (s *ScrapeCmd) openSource(ctx *Context, settings scrapeSettings) (scraper.Source, error) {
	cfg := ctx.Config
	switch settings.Source {
	case scraper.SourceHTTP:
		proxies, err := config.LoadProxies(s.Proxies)
		if err != nil {
			return nil, err
		}
		var rotator *network.Rotator
		if len(proxies) > 0 {
			if rotator, err = network.NewRotator(proxies, 10*time.Minute); err != nil {
				return nil, err
			}
		}
		client, err := network.NewClient(rotator, network.ClientOptions{Timeout: 30 * time.Second})
		if err != nil {
			return nil, err
		}
		return scraper.NewHTTPSource(client), nil
	default:
		cookies := cfg.Browser.CookiesPath
		if cookies == "" && ctx.ConfigDir != "" {
			cookies = filepath.Join(ctx.ConfigDir, config.CookiesFileName)
		}
		return browser.Launch(browser.Options{
			ExecutablePath:    cfg.Browser.ExecutablePath,
			UserDataDir:       cfg.Browser.UserDataDir,
			ProfileDirectory:  cfg.Browser.ProfileDirectory,
			Headless:          cfg.Browser.Headless || s.Headless,
			CookiesPath:       cookies,
			ScreenshotDir:     cfg.Browser.ScreenshotDir,
			NavigationTimeout: 60 * time.Second,
			ScrollSteps:       cfg.Browser.ScrollSteps,
			Logger:            ctx.Logger,
		})
	}
}

func loadRules(path string, strict bool) (extract.Rules, error) {
	if strict {
		return extract.LoadRules(path)
	}
	return extract.LoadRulesAllowMissing(path)
}

func formatExtracted(record models.JobRecord) string {
	return fmt.Sprintf("Extracted job: %s - Budget: %s %s", record.Title, record.Budget.Type, record.Budget.Amount)
}

type scrapeSummary struct {
	Loaded       int    `json:"loaded"`
	Added        int    `json:"added"`
	Total        int    `json:"total"`
	PagesScraped int    `json:"pages_scraped"`
	StopReason   string `json:"stop_reason"`
}

func printScrapeResult(ctx *Context, result session.Result, added []models.JobRecord) error {
	summary := scrapeSummary{
		Loaded:       result.Loaded,
		Added:        result.Added,
		Total:        len(result.Records),
		PagesScraped: result.PagesScraped,
		StopReason:   string(result.StopReason),
	}
	if ctx.JSONOutput {
		enc := json.NewEncoder(ctx.Out)
		enc.SetIndent("", "  ")
		return enc.Encode(summary)
	}

	records := added
	if len(records) == 0 {
		records = result.Records
	}
	if len(records) > 0 {
		sample, err := marshalSample(records[0])
		if err != nil {
			return err
		}
		fmt.Fprintf(ctx.Out, "\nSample job:\n%s\n", sample)
	}
	fmt.Fprintf(ctx.Out, "\nTotal jobs scraped: %s (new: %s, pages: %d, stopped: %s)\n",
		humanize.Comma(int64(summary.Total)),
		humanize.Comma(int64(summary.Added)),
		summary.PagesScraped,
		summary.StopReason,
	)
	return nil
}

func marshalSample(record models.JobRecord) (string, error) {
	if record.Skills == nil {
		record.Skills = []string{}
	}
	var buf strings.Builder
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(record); err != nil {
		return "", err
	}
	return strings.TrimRight(buf.String(), "\n"), nil
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if strings.TrimSpace(value) != "" {
			return value
		}
	}
	return ""
}

func defaultInt(value, fallback int) int {
	if value == 0 {
		return fallback
	}
	return value
}
