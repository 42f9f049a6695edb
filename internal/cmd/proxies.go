package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/jimezsa/upjobs/internal/config"
	"github.com/jimezsa/upjobs/internal/network"
	"github.com/jimezsa/upjobs/internal/scraper"
)

type ProxiesCmd struct {
	Check ProxyCheckCmd `cmd:"" help:"Load the search page through each proxy and count listings."`
}

type ProxyCheckCmd struct {
	Proxies string `help:"Comma-separated proxy URLs; defaults to UPJOBS_PROXIES or proxies.txt."`
	Target  string `help:"Search URL to load; defaults to search_url from config."`
	Timeout int    `help:"Timeout in seconds." default:"15"`
}

type ProxyCheckResult struct {
	Proxy     string `json:"proxy"`
	Status    string `json:"status"`
	Listings  int    `json:"listings"`
	LatencyMS int64  `json:"latency_ms"`
	Error     string `json:"error,omitempty"`
}

// pageLoader opens one page through a single proxy.
type pageLoader func(ctx context.Context, proxy string, target string) (scraper.Source, error)

func (p *ProxyCheckCmd) Run(ctx *Context) error {
	proxies, err := config.LoadProxies(p.Proxies)
	if err != nil {
		return err
	}
	if len(proxies) == 0 {
		return fmt.Errorf("no proxies configured")
	}

	target, err := scraper.BuildSearchURL(firstNonEmpty(p.Target, ctx.Config.SearchURL), ctx.Config.Query, 1)
	if err != nil {
		return err
	}
	rules, err := effectiveRules(ctx, "")
	if err != nil {
		return err
	}

	timeout := time.Duration(p.Timeout) * time.Second
	results := checkProxies(proxies, target, rules.Listing, timeout, httpLoader(timeout))
	return writeProxyResults(ctx, results)
}

func httpLoader(timeout time.Duration) pageLoader {
	return func(ctx context.Context, proxy string, target string) (scraper.Source, error) {
		rotator, err := network.NewRotator([]string{proxy}, 5*time.Minute)
		if err != nil {
			return nil, err
		}
		client, err := network.NewClient(rotator, network.ClientOptions{Timeout: timeout})
		if err != nil {
			return nil, err
		}
		source := scraper.NewHTTPSource(client)
		if err := source.Navigate(ctx, target); err != nil {
			return nil, err
		}
		return source, nil
	}
}

func checkProxies(proxies []string, target string, listing string, timeout time.Duration, load pageLoader) []ProxyCheckResult {
	results := make([]ProxyCheckResult, 0, len(proxies))
	for _, proxy := range proxies {
		results = append(results, checkProxy(proxy, target, listing, timeout, load))
	}
	return results
}

func checkProxy(proxy string, target string, listing string, timeout time.Duration, load pageLoader) ProxyCheckResult {
	result := ProxyCheckResult{Proxy: proxy}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	start := time.Now()
	source, err := load(ctx, proxy, target)
	result.LatencyMS = time.Since(start).Milliseconds()
	if err != nil {
		result.Status = "error"
		if errors.Is(err, network.ErrRequestFailed) {
			result.Status = "blocked"
		}
		result.Error = err.Error()
		return result
	}
	defer source.Close()

	if err := source.WaitListings(ctx, listing, timeout); err != nil {
		result.Status = "no listings"
		return result
	}
	doc, err := source.Snapshot(ctx)
	if err != nil {
		result.Status = "error"
		result.Error = err.Error()
		return result
	}
	result.Status = "ok"
	result.Listings = doc.Find(listing).Length()
	return result
}

func writeProxyResults(ctx *Context, results []ProxyCheckResult) error {
	if ctx.JSONOutput {
		enc := json.NewEncoder(ctx.Out)
		enc.SetIndent("", "  ")
		return enc.Encode(results)
	}

	if ctx.PlainText {
		for _, res := range results {
			line := []string{res.Proxy, res.Status, strconv.Itoa(res.Listings), strconv.FormatInt(res.LatencyMS, 10), res.Error}
			fmt.Fprintln(ctx.Out, strings.Join(line, "\t"))
		}
		return nil
	}

	tw := tabwriter.NewWriter(ctx.Out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "proxy\tstatus\tlistings\tlatency_ms\terror")
	for _, res := range results {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%s\n", res.Proxy, res.Status, res.Listings, res.LatencyMS, res.Error)
	}
	return tw.Flush()
}
