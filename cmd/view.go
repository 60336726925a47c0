package cmd

import (
	"context"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/ziadkadry99/ripview/internal/terminal"
)

var viewCmd = &cobra.Command{
	Use:   "view [file.pdf]",
	Short: "Explore a PDF interactively in the terminal",
	Args:  cobra.MaximumNArgs(1),
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

		app, err := newAppFromConfig(cfg, store)
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		tv := terminal.New(app, os.Stdout)
		if len(args) == 1 {
			if err := tv.Execute(ctx, "open "+args[0]); err != nil {
				return err
			}
		}
		return tv.Run(ctx)
	},
}

func init() {
	rootCmd.AddCommand(viewCmd)
}
