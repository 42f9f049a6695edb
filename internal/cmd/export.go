package cmd

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/jimezsa/upjobs/internal/export"
	"github.com/jimezsa/upjobs/internal/models"
	"github.com/jimezsa/upjobs/internal/storage"
	"github.com/jimezsa/upjobs/internal/store"
)

type ExportCmd struct {
	In            string `name:"in" help:"Path to the JSON store."`
	Output        string `name:"output" short:"o" help:"Output file; '-' writes to stdout."`
	Format        string `help:"Output format: csv, tsv, json, md, table." enum:",csv,tsv,json,md,table" default:""`
	Links         string `help:"Table link display: short or full." enum:"short,full" default:"full"`
	SupabaseTable string `name:"supabase-table" help:"Also insert the flat rows into this Supabase table."`
}

func (c *ExportCmd) Run(ctx *Context) error {
	inPath := firstNonEmpty(c.In, ctx.Config.StorePath)
	records, err := store.Load(inPath)
	if err != nil {
		return fmt.Errorf("read --in: %w", err)
	}

	outputPath := firstNonEmpty(c.Output, ctx.Config.ExportPath)
	if outputPath == "-" {
		outputPath = ""
	}
	format, err := resolveFormat(ctx, c.Format, outputPath)
	if err != nil {
		return err
	}

	writer := ctx.Out
	var file *os.File
	if outputPath != "" {
		file, err = os.Create(outputPath)
		if err != nil {
			return err
		}
		defer file.Close()
		writer = file
	}

	if err := writeExport(ctx, writer, records, format, c.Links); err != nil {
		return err
	}
	if file != nil {
		if err := file.Close(); err != nil {
			return err
		}
		ctx.UI.Successf("Exported %s job(s) to %s", humanize.Comma(int64(len(records))), outputPath)
	}

	if strings.TrimSpace(c.SupabaseTable) != "" {
		sink, err := storage.NewSupabaseSink(ctx.Config.SupabaseURL, ctx.Config.SupabaseKey, c.SupabaseTable)
		if err != nil {
			return err
		}
		if err := saveToSink(ctx, sink, records); err != nil {
			return err
		}
	}
	return nil
}

func writeExport(ctx *Context, w io.Writer, records []models.JobRecord, format export.Format, links string) error {
	colorEnabled := ctx.UI != nil && ctx.UI.ColorEnabled
	linkStyle := export.LinkStyleShort
	if strings.EqualFold(links, string(export.LinkStyleFull)) {
		linkStyle = export.LinkStyleFull
	}
	return export.WriteRecords(w, records, format, export.WriteOptions{
		ColorEnabled: colorEnabled,
		Hyperlinks:   colorEnabled && isTTY(w),
		LinkStyle:    linkStyle,
	})
}

func saveToSink(ctx *Context, sink storage.Sink, records []models.JobRecord) error {
	rows := export.FlattenAll(records)
	if err := sink.SaveRows(rows); err != nil {
		return err
	}
	ctx.Logger.Info().Str("sink", sink.Name()).Int("rows", len(rows)).Msg("rows saved")
	ctx.UI.Successf("Saved %s row(s) to %s", humanize.Comma(int64(len(rows))), sink.Name())
	return nil
}

// resolveFormat picks the output format: an explicit --format wins. A file
// takes its format from the extension (CSV when unknown); the global
// --json/--plain flags only apply to stdout, then a table for terminals
// and CSV otherwise.
func resolveFormat(ctx *Context, flagValue string, outputPath string) (export.Format, error) {
	if strings.TrimSpace(flagValue) != "" {
		return export.ParseFormat(flagValue)
	}
	if outputPath != "" {
		return formatForPath(outputPath), nil
	}
	if ctx.JSONOutput {
		return export.FormatJSON, nil
	}
	if ctx.PlainText {
		return export.FormatTSV, nil
	}
	if isTTY(ctx.Out) {
		return export.FormatTable, nil
	}
	return export.FormatCSV, nil
}

func formatForPath(path string) export.Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return export.FormatJSON
	case ".tsv", ".tab":
		return export.FormatTSV
	case ".md", ".markdown":
		return export.FormatMarkdown
	default:
		return export.FormatCSV
	}
}
