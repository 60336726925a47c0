package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ziadkadry99/ripview/internal/config"
)

var (
	cfgFile    string
	verbose    bool
	serviceURL string
)

var rootCmd = &cobra.Command{
	Use:   "ripview",
	Short: "Inspect what a PDF extraction service sees on each page",
	Long: `ripview uploads a PDF to a running extraction service and overlays the
geometry it extracts (characters, words, lines, rectangles, edges, tables
and search matches) on top of each page. It can serve a browser viewer,
run an interactive terminal viewer, render pages to PNG or SVG, and
benchmark extraction libraries against each other.`,
	SilenceUsage: true,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", config.FileName, "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().StringVar(&serviceURL, "service", "", "extraction service URL (overrides config)")
}

func exitOnError(err error) {
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
