package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strconv"
	"time"

	"github.com/david/artify/internal/config"
	"github.com/david/artify/internal/export"
	"github.com/david/artify/internal/ingest"
	"github.com/david/artify/internal/models"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout); err != nil {
		log.Fatal(err)
	}
}

func run(ctx context.Context, args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("convocatorias", flag.ContinueOnError)
	registryFile := fs.String("registry", "", "Source registry YAML (defaults to SOURCES_FILE or the embedded registry)")
	listSources := fs.Bool("list-sources", false, "Print the source registry and exit")
	pageURL := fs.String("url", "", "Assemble a single page instead of running a search")

	var p ingest.SearchParams
	fs.StringVar(&p.Sources, "sources", "", "Comma-separated source ids or groups (default: every enabled source)")
	fs.StringVar(&p.Query, "q", "", "Free-text query")
	fs.StringVar(&p.Types, "type", "", "Comma-separated types: grant, prize, residency, open_call, exhibition, other")
	fs.StringVar(&p.Scopes, "scope", "", "Comma-separated scopes: domestic, foreign, unknown")
	fs.StringVar(&p.From, "from", "", "Earliest deadline, YYYY-MM-DD")
	fs.StringVar(&p.To, "to", "", "Latest deadline, YYYY-MM-DD")
	fs.StringVar(&p.Sort, "sort", "deadline", "Sort key: deadline, title or difficulty")
	freeOnly := fs.Bool("free", false, "Only calls without a participation fee")
	excludeUndated := fs.Bool("exclude-undated", false, "Drop calls without a deadline")
	openOnly := fs.Bool("open", false, "Drop calls that are already closed")

	csvPath := fs.String("csv", "", "Also write the results as CSV to this path")
	icsPath := fs.String("ics", "", "Also write deadlines as an iCalendar file to this path")
	xlsxPath := fs.String("xlsx", "", "Also write the results as an Excel workbook to this path")
	if err := fs.Parse(args); err != nil {
		return err
	}
	p.FreeOnly = strconv.FormatBool(*freeOnly)
	p.ExcludeUndated = strconv.FormatBool(*excludeUndated)
	p.OpenOnly = strconv.FormatBool(*openOnly)

	cfg := config.Load()
	if *registryFile != "" {
		cfg.SourcesFile = *registryFile
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	registry, err := ingest.LoadRegistry(cfg.SourcesFile)
	if err != nil {
		return err
	}
	if *listSources {
		renderSources(stdout, registry.Sources)
		return nil
	}

	req, err := p.Request()
	if err != nil {
		return err
	}

	fetcher, err := ingest.NewFetcher(cfg.Fetcher, ingest.FetchOptions{
		Timeout:      cfg.FetchTimeout,
		MaxBodyBytes: cfg.MaxBodyBytes,
	}, 0)
	if err != nil {
		return err
	}
	pipeline := ingest.NewPipeline(registry, fetcher, ingest.PipelineOptions{
		Concurrency:  cfg.Concurrency,
		FetchTimeout: cfg.FetchTimeout,
		BatchTimeout: cfg.BatchTimeout,
	})

	if *pageURL != "" {
		opp, err := pipeline.AssembleURL(ctx, *pageURL)
		if err != nil {
			return err
		}
		renderDetail(stdout, opp)
		return nil
	}

	result := pipeline.Search(ctx, req)
	renderResults(stdout, result)

	if err := writeFile(*csvPath, func(w io.Writer) error { return export.WriteCSV(w, result.Opportunities) }); err != nil {
		return err
	}
	if err := writeFile(*icsPath, func(w io.Writer) error { return export.WriteICS(w, result.Opportunities, time.Now()) }); err != nil {
		return err
	}
	return writeFile(*xlsxPath, func(w io.Writer) error { return export.WriteXLSX(w, result.Opportunities) })
}

func renderResults(w io.Writer, res ingest.SearchResult) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Title", "Type", "Deadline", "Location", "Prize", "Fee", "Difficulty"})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, WidthMax: 60},
		{Number: 4, WidthMax: 24},
		{Number: 7, Align: text.AlignRight},
	})
	for _, o := range res.Opportunities {
		deadline := models.DateString(o.Deadline)
		if deadline == "" {
			deadline = models.NotFound
		}
		if o.OverlapCount > 0 {
			deadline += " *"
		}
		t.AppendRow(table.Row{o.Title, o.Type, deadline, o.Location, o.Prize, o.Fee.String(), o.Difficulty})
	}
	t.AppendFooter(table.Row{fmt.Sprintf("%d/%d", len(res.Opportunities), res.Total), "", "", "", "", "", fmt.Sprintf("%dms", res.ElapsedMS)})
	t.Render()

	if res.Notice != "" {
		fmt.Fprintln(w, res.Notice)
	}
	if res.Partial {
		fmt.Fprintln(w, "Search budget exhausted; results are partial.")
	}
	for _, name := range res.Unavailable {
		fmt.Fprintf(w, "Unavailable: %s\n", name)
	}
}

func renderDetail(w io.Writer, o models.Opportunity) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.SetColumnConfigs([]table.ColumnConfig{{Number: 2, WidthMax: 80}})
	t.AppendRows([]table.Row{
		{"Title", o.Title},
		{"URL", o.URL},
		{"Type", o.Type},
		{"Status", o.Status},
		{"Location", o.Location},
		{"Scope", o.Scope},
		{"Opens", models.DateString(o.OpenAt)},
		{"Deadline", models.DateString(o.Deadline)},
		{"Prize", o.Prize},
		{"Slots", o.Slots},
		{"Fee", o.Fee.String()},
		{"Difficulty", o.Difficulty},
		{"Summary", o.Summary},
	})
	t.Render()
}

func renderSources(w io.Writer, sources []ingest.SourceConfig) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"ID", "Name", "Group", "Strategy", "Enabled", "URL"})
	for _, s := range sources {
		t.AppendRow(table.Row{s.ID, s.Name, s.Group, s.Strategy, s.Enabled, s.URL})
	}
	t.Render()
}

func writeFile(path string, write func(io.Writer) error) error {
	if path == "" {
		return nil
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := write(f); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}
	log.Printf("Wrote %s", path)
	return nil
}
