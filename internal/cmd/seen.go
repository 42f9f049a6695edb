package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/jimezsa/upjobs/internal/seen"
	"github.com/jimezsa/upjobs/internal/store"
)

// SeenCmd compares scraped listing files. Two listings are the same job when
// their URL keys match: host without "www." and path without a trailing
// slash, with scheme, query string and fragment ignored. Listings without a
// usable URL are skipped and counted as invalid.
type SeenCmd struct {
	Diff   SeenDiffCmd   `cmd:"" help:"Write listings from --new whose URL is not in --seen."`
	Update SeenUpdateCmd `cmd:"" help:"Append listings from --input to the --seen history, keyed by URL."`
}

type SeenDiffCmd struct {
	New   string `name:"new" required:"" help:"Listings file from a fresh scrape."`
	Seen  string `name:"seen" required:"" help:"Listings already handled. A missing file counts as empty."`
	Out   string `name:"out" required:"" help:"Where to write the listings not in --seen."`
	Stats bool   `name:"stats" help:"Print listing counts after the comparison."`
}

type SeenUpdateCmd struct {
	Seen  string `name:"seen" required:"" help:"Listings history to extend. A missing file counts as empty."`
	Input string `name:"input" required:"" help:"Listings file to merge into the history."`
	Out   string `name:"out" required:"" help:"Where to write the merged history. May equal --seen."`
	Stats bool   `name:"stats" help:"Print listing counts after the merge."`
}

func (c *SeenDiffCmd) Run(ctx *Context) error {
	fresh, err := store.Load(c.New)
	if err != nil {
		return fmt.Errorf("read --new: %w", err)
	}
	history, err := store.LoadAllowMissing(c.Seen)
	if err != nil {
		return fmt.Errorf("read --seen: %w", err)
	}

	unseen, stats := seen.Diff(fresh, history)
	if err := store.Save(c.Out, unseen); err != nil {
		return fmt.Errorf("write --out: %w", err)
	}
	if !c.Stats {
		return nil
	}
	return writeStats(ctx.Out,
		"total_new", stats.TotalNew,
		"total_seen", stats.TotalSeen,
		"invalid_skipped", stats.InvalidSkipped(),
		"unseen_emitted", stats.Unseen,
	)
}

func (c *SeenUpdateCmd) Run(ctx *Context) error {
	history, err := store.LoadAllowMissing(c.Seen)
	if err != nil {
		return fmt.Errorf("read --seen: %w", err)
	}
	input, err := store.Load(c.Input)
	if err != nil {
		return fmt.Errorf("read --input: %w", err)
	}

	merged, stats := seen.Merge(history, input)
	if err := store.Save(c.Out, merged); err != nil {
		return fmt.Errorf("write --out: %w", err)
	}
	if !c.Stats {
		return nil
	}
	return writeStats(ctx.Out,
		"total_seen", stats.TotalSeen,
		"total_input", stats.TotalInput,
		"invalid_skipped", stats.InvalidSkipped(),
		"added", stats.Added,
		"total_out", stats.TotalOut,
	)
}

// writeStats prints name/count pairs as one key=value line.
func writeStats(w io.Writer, pairs ...any) error {
	fields := make([]string, 0, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		fields = append(fields, fmt.Sprintf("%v=%v", pairs[i], pairs[i+1]))
	}
	_, err := fmt.Fprintln(w, strings.Join(fields, " "))
	return err
}
