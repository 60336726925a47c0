package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/ziadkadry99/ripview/internal/history"
)

var (
	historyDoc   string
	historyPage  int
	historyLimit int
	historyPrune time.Duration
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recorded benchmark runs",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		store, closeHistory, err := openHistory(cfg)
		if err != nil {
			return err
		}
		defer closeHistory()
		if store == nil {
			return errors.New("history is disabled: set history_db in " + cfgFile)
		}
		ctx := context.Background()

		if historyPrune > 0 {
			n, err := store.DeleteBefore(ctx, time.Now().Add(-historyPrune))
			if err != nil {
				return err
			}
			fmt.Printf("Removed %d runs older than %s\n", n, historyPrune)
			return nil
		}

		runs, err := store.Query(ctx, history.QueryFilter{
			Document: historyDoc,
			Page:     historyPage,
			Limit:    historyLimit,
		})
		if err != nil {
			return err
		}
		if len(runs) == 0 {
			fmt.Println("No benchmark runs recorded.")
			return nil
		}

		tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "RECORDED\tDOCUMENT\tPAGE\tOPERATION\tTIMINGS (ms)")
		for _, run := range runs {
			for _, g := range run.Chart().Groups {
				var parts []string
				for _, b := range g.Bars {
					parts = append(parts, fmt.Sprintf("%s=%.2f", b.Library, b.MS))
				}
				fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%s\n",
					run.RecordedAt.Local().Format(time.DateTime), run.Document, run.Page,
					g.Operation, strings.Join(parts, " "))
			}
		}
		return tw.Flush()
	},
}

func init() {
	historyCmd.Flags().StringVar(&historyDoc, "document", "", "only runs for this document name")
	historyCmd.Flags().IntVar(&historyPage, "page", 0, "only runs for this page")
	historyCmd.Flags().IntVar(&historyLimit, "limit", 20, "maximum runs to show")
	historyCmd.Flags().DurationVar(&historyPrune, "prune", 0, "delete runs older than this instead of listing")
	rootCmd.AddCommand(historyCmd)
}
