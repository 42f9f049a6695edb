package cmd

import (
	"io"

	"github.com/alecthomas/kong"
	"github.com/muesli/termenv"
)

type CLI struct {
	Color   string `help:"Color output: auto, always, never." enum:"auto,always,never" default:"auto"`
	JSON    bool   `help:"JSON output to stdout; disables colors."`
	Plain   bool   `help:"TSV output to stdout; disables colors."`
	Verbose bool   `help:"Enable debug logging."`

	VersionFlag kong.VersionFlag `help:"Print version."`

	Version VersionCmd `cmd:"" help:"Print version."`
	Config  ConfigCmd  `cmd:"" help:"Manage configuration."`
	Scrape  ScrapeCmd  `cmd:"" help:"Scrape job listings into the JSON store."`
	Export  ExportCmd  `cmd:"" help:"Flatten the JSON store to CSV, TSV, JSON, Markdown or a table."`
	Rules   RulesCmd   `cmd:"" help:"Inspect extraction rules."`
	Seen    SeenCmd    `cmd:"" help:"Seen jobs utilities."`
	Proxies ProxiesCmd `cmd:"" help:"Proxy utilities."`
}

func NewCLI() *CLI {
	return &CLI{}
}

func isTTY(out io.Writer) bool {
	output := termenv.NewOutput(out)
	return output.ColorProfile() != termenv.Ascii
}
