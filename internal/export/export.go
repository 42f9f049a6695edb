package export

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"strings"
	"text/tabwriter"

	"github.com/jimezsa/upjobs/internal/models"
	"github.com/jimezsa/upjobs/internal/ui"
	"github.com/muesli/termenv"
)

type Format string

const (
	FormatTable    Format = "table"
	FormatCSV      Format = "csv"
	FormatJSON     Format = "json"
	FormatMarkdown Format = "md"
	FormatTSV      Format = "tsv"
)

type WriteOptions struct {
	ColorEnabled bool
	Hyperlinks   bool
	LinkStyle    LinkStyle
}

type LinkStyle string

const (
	LinkStyleShort LinkStyle = "short"
	LinkStyleFull  LinkStyle = "full"
)

func ParseFormat(value string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "csv", "":
		return FormatCSV, nil
	case "json":
		return FormatJSON, nil
	case "md", "markdown":
		return FormatMarkdown, nil
	case "tsv":
		return FormatTSV, nil
	case "table":
		return FormatTable, nil
	default:
		return "", fmt.Errorf("unknown format: %s", value)
	}
}

// WriteRecords flattens records and writes them in the given format.
func WriteRecords(w io.Writer, records []models.JobRecord, format Format, opts WriteOptions) error {
	rows := FlattenAll(records)
	switch format {
	case FormatJSON:
		return writeJSON(w, rows)
	case FormatCSV:
		return writeQuoted(w, rows, ',')
	case FormatTSV:
		return writeQuoted(w, rows, '\t')
	case FormatMarkdown:
		return writeMarkdown(w, rows)
	default:
		return writeTable(w, rows, opts)
	}
}

func writeJSON(w io.Writer, rows []FlatRow) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	return enc.Encode(rows)
}

// writeQuoted writes a header and one line per row with every field
// enclosed in double quotes and embedded quotes doubled.
func writeQuoted(w io.Writer, rows []FlatRow, delim rune) error {
	bw := bufio.NewWriter(w)
	if err := writeQuotedLine(bw, Columns, delim); err != nil {
		return err
	}
	for _, row := range rows {
		if err := writeQuotedLine(bw, row.Values(), delim); err != nil {
			return err
		}
	}
	return bw.Flush()
}

func writeQuotedLine(w *bufio.Writer, fields []string, delim rune) error {
	for i, field := range fields {
		if i > 0 {
			if _, err := w.WriteRune(delim); err != nil {
				return err
			}
		}
		if err := w.WriteByte('"'); err != nil {
			return err
		}
		if _, err := w.WriteString(strings.ReplaceAll(field, `"`, `""`)); err != nil {
			return err
		}
		if err := w.WriteByte('"'); err != nil {
			return err
		}
	}
	return w.WriteByte('\n')
}

func writeTable(w io.Writer, rows []FlatRow, opts WriteOptions) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(tableHeader(), "\t"))
	output := termenv.NewOutput(w)
	for _, row := range rows {
		fmt.Fprintln(tw, strings.Join(tableRow(row, output, opts), "\t"))
	}
	return tw.Flush()
}

func writeMarkdown(w io.Writer, rows []FlatRow) error {
	if len(rows) == 0 {
		_, err := fmt.Fprintln(w, "No results.")
		return err
	}
	for _, row := range rows {
		urlLine := "  URL: -"
		if link := safe(row.URL); link != "" {
			urlLine = fmt.Sprintf("  URL: [Open listing](<%s>)", link)
		}
		lines := []string{
			fmt.Sprintf("- **%s** (%s %s)", safe(row.Title), safe(row.BudgetType), safe(row.BudgetAmount)),
			fmt.Sprintf("  Posted: %s", safe(row.Posted)),
			fmt.Sprintf("  Level: %s", safe(row.ExperienceLevel)),
			fmt.Sprintf("  Duration: %s", safe(row.Duration)),
			urlLine,
		}
		if row.Skills != "" {
			lines = append(lines, fmt.Sprintf("  Skills: %s", safe(row.Skills)))
		}
		if row.Description != "" && row.Description != models.NotAvailable {
			lines = append(lines, fmt.Sprintf("  Summary: %s", truncate(safe(row.Description), 240)))
		}
		lines = append(lines, fmt.Sprintf("  Page: %s", row.PageNumber))
		for _, line := range lines {
			if _, err := fmt.Fprintln(w, line); err != nil {
				return err
			}
		}
	}
	return nil
}

func safe(value string) string {
	return strings.TrimSpace(value)
}

func truncate(value string, max int) string {
	runes := []rune(value)
	if max <= 0 || len(runes) <= max {
		return value
	}
	return strings.TrimSpace(string(runes[:max])) + "..."
}

func tableHeader() []string {
	return []string{
		"page",
		"title",
		"budget",
		"posted",
		"url",
	}
}

func tableRow(row FlatRow, output *termenv.Output, opts WriteOptions) []string {
	link := safe(row.URL)
	displayURL := "-"
	if link != "" {
		displayURL = link
		if opts.LinkStyle == LinkStyleShort && opts.Hyperlinks {
			displayURL = shortURLLabel(link)
		}
		displayURL = ui.ColorizeLink(output, opts.ColorEnabled, displayURL)
		if opts.Hyperlinks {
			displayURL = hyperlink(link, displayURL)
		}
	}
	return []string{
		row.PageNumber,
		truncate(safe(row.Title), 60),
		strings.TrimSpace(row.BudgetType + " " + row.BudgetAmount),
		safe(row.Posted),
		displayURL,
	}
}

func hyperlink(url string, text string) string {
	const esc = "\x1b"
	return esc + "]8;;" + url + esc + "\\" + text + esc + "]8;;" + esc + "\\"
}

func shortURLLabel(raw string) string {
	const maxLen = 60
	label := strings.TrimSpace(raw)
	if parsed, err := url.Parse(raw); err == nil {
		host := strings.TrimPrefix(parsed.Host, "www.")
		if host != "" {
			label = host + parsed.Path
		}
	}
	label = strings.TrimSpace(label)
	if label == "" {
		label = raw
	}
	if len(label) > maxLen {
		label = label[:maxLen-3] + "..."
	}
	return label
}
