package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/ziadkadry99/ripview/internal/benchmark"
	"github.com/ziadkadry99/ripview/internal/docset"
	"github.com/ziadkadry99/ripview/internal/extract"
	"github.com/ziadkadry99/ripview/internal/progress"
	"github.com/ziadkadry99/ripview/internal/viewer"
)

var (
	benchPages  int
	benchOut    string
	benchMaxMiB int64
)

var benchCmd = &cobra.Command{
	Use:   "bench [dir]",
	Short: "Benchmark extraction libraries across a directory of PDFs",
	Long: `Finds every PDF under dir (default: the working directory) that matches the
configured include patterns, runs the library comparison on the first pages of
each, and writes one HTML summary per page.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runBench,
}

func init() {
	benchCmd.Flags().IntVar(&benchPages, "pages", 1, "pages to benchmark per document")
	benchCmd.Flags().StringVarP(&benchOut, "out", "o", filepath.Join(".ripview", "bench"), "directory for HTML summaries")
	benchCmd.Flags().Int64Var(&benchMaxMiB, "max-size", 0, "skip PDFs larger than this many MiB (0 = no limit)")
	rootCmd.AddCommand(benchCmd)
}

type benchRow struct {
	doc   string
	page  int
	chart *benchmark.Chart
	err   string
}

func runBench(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	// Batch runs trigger every benchmark explicitly.
	cfg.Benchmark.AutoRun = false

	root := "."
	if len(args) == 1 {
		root = args[0]
	}
	docs, err := docset.Find(docset.Options{
		Root:    root,
		Include: cfg.Include,
		Exclude: cfg.Exclude,
		MaxSize: benchMaxMiB << 20,
	})
	if err != nil {
		return err
	}
	if len(docs) == 0 {
		fmt.Println("No PDFs found.")
		return nil
	}
	if verbose {
		fmt.Fprintf(os.Stderr, "Found %d PDFs under %s\n", len(docs), root)
	}
	if err := os.MkdirAll(benchOut, 0755); err != nil {
		return fmt.Errorf("creating %s: %w", benchOut, err)
	}

	store, closeHistory, err := openHistory(cfg)
	if err != nil {
		return err
	}
	defer closeHistory()

	app, err := newAppFromConfig(cfg, store)
	if err != nil {
		return err
	}

	reporter := progress.NewReporter("Benchmarking")
	reporter.Start(len(docs))
	var rows []benchRow
	for i, d := range docs {
		reporter.Update(i, d.RelPath)
		docRows, err := benchDocument(ctx, app, d)
		if err != nil {
			rows = append(rows, benchRow{doc: d.RelPath, err: extract.UserMessage(err)})
			if extract.IsTransport(err) {
				reporter.Finish()
				return err
			}
			continue
		}
		rows = append(rows, docRows...)
	}
	reporter.Update(len(docs), "")
	reporter.Finish()

	printBenchRows(rows, cfg.Benchmark.Reference)
	fmt.Printf("\nSummaries written to %s\n", benchOut)
	return nil
}

func benchDocument(ctx context.Context, app *viewer.App, d docset.Document) ([]benchRow, error) {
	f, err := os.Open(d.Path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", d.Path, err)
	}
	err = app.Open(ctx, filepath.Base(d.Path), f)
	f.Close()
	if err != nil {
		return nil, err
	}

	pages := app.Session.Document().PageCount
	if benchPages > 0 && benchPages < pages {
		pages = benchPages
	}
	var rows []benchRow
	for n := 1; n <= pages; n++ {
		if n > 1 {
			if err := app.Goto(ctx, n); err != nil {
				return rows, err
			}
		}
		row := benchRow{doc: d.RelPath, page: n}
		chart, err := app.Bench.Run(ctx, n)
		if err != nil {
			row.err = extract.UserMessage(err)
		}
		row.chart = chart
		rows = append(rows, row)

		if err := writeBenchSummary(app, d, n); err != nil {
			return rows, err
		}
	}
	return rows, nil
}

func writeBenchSummary(app *viewer.App, d docset.Document, page int) error {
	slug := strings.NewReplacer("/", "_", " ", "_").Replace(strings.TrimSuffix(d.RelPath, filepath.Ext(d.RelPath)))
	path := filepath.Join(benchOut, fmt.Sprintf("%s-p%d.html", slug, page))
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	if err := app.Report.Render(f, app.Summary()); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// printBenchRows prints one line per document page with the reference
// library's speedup over each other library, by operation.
func printBenchRows(rows []benchRow, reference string) {
	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "DOCUMENT\tPAGE\tOPERATION\t%s SPEEDUP\n", strings.ToUpper(reference))
	for _, r := range rows {
		if r.err != "" {
			fmt.Fprintf(tw, "%s\t%d\t-\terror: %s\n", r.doc, r.page, r.err)
			continue
		}
		if r.chart == nil {
			continue
		}
		for _, g := range r.chart.Groups {
			var parts []string
			for _, b := range g.Bars {
				if b.Speedup > 1 {
					parts = append(parts, fmt.Sprintf("%dx vs %s", b.Speedup, b.Library))
				}
			}
			if len(parts) == 0 {
				parts = append(parts, "-")
			}
			fmt.Fprintf(tw, "%s\t%d\t%s\t%s\n", r.doc, r.page, g.Operation, strings.Join(parts, ", "))
		}
	}
	tw.Flush()
}
