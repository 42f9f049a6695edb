package cmd

import (
	"fmt"
	"os"

	"github.com/PuerkitoBio/goquery"
	"github.com/jimezsa/upjobs/internal/extract"
	"github.com/jimezsa/upjobs/internal/store"
)

type RulesCmd struct {
	Dump RulesDumpCmd `cmd:"" help:"Print the effective extraction rules as YAML."`
	Test RulesTestCmd `cmd:"" help:"Extract listings from a saved results page."`
}

type RulesDumpCmd struct {
	Rules string `help:"Path to a YAML rules file to merge over the defaults."`
}

type RulesTestCmd struct {
	HTML  string `arg:"" help:"Saved search results HTML file."`
	Page  int    `help:"Page number to stamp on records." default:"1"`
	Rules string `help:"Path to a YAML rules file to merge over the defaults."`
}

func (c *RulesDumpCmd) Run(ctx *Context) error {
	rules, err := effectiveRules(ctx, c.Rules)
	if err != nil {
		return err
	}
	return rules.Dump(ctx.Out)
}

func (c *RulesTestCmd) Run(ctx *Context) error {
	rules, err := effectiveRules(ctx, c.Rules)
	if err != nil {
		return err
	}
	extractor, err := extract.New(rules)
	if err != nil {
		return err
	}

	file, err := os.Open(c.HTML)
	if err != nil {
		return err
	}
	defer file.Close()
	doc, err := goquery.NewDocumentFromReader(file)
	if err != nil {
		return fmt.Errorf("parse %s: %w", c.HTML, err)
	}

	records, failures := extractor.ExtractAll(doc.Selection, c.Page)
	for _, failure := range failures {
		ctx.UI.Warnf("listing %d: %v", failure.Index, failure.Err)
	}
	data, err := store.Encode(records)
	if err != nil {
		return err
	}
	if _, err := ctx.Out.Write(data); err != nil {
		return err
	}
	_, err = fmt.Fprintf(ctx.Err, "%d listing(s) extracted, %d skipped\n", len(records), len(failures))
	return err
}

func effectiveRules(ctx *Context, flagPath string) (extract.Rules, error) {
	if flagPath != "" {
		return extract.LoadRules(flagPath)
	}
	path, err := ctx.Config.ResolveRulesPath()
	if err != nil {
		return extract.Rules{}, err
	}
	return extract.LoadRulesAllowMissing(path)
}
