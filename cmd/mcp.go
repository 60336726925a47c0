package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	mcpserver "github.com/ziadkadry99/ripview/internal/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start an MCP server so AI agents can inspect PDFs",
	Long:  `Starts a Model Context Protocol (MCP) server on stdio exposing tools to open PDFs, navigate pages, read extracted layers, search and benchmark.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		// Auto-run would race with explicit benchmark_page calls.
		cfg.Benchmark.AutoRun = false

		store, closeHistory, err := openHistory(cfg)
		if err != nil {
			return err
		}
		defer closeHistory()

		app, err := newAppFromConfig(cfg, store)
		if err != nil {
			return err
		}

		mcpserver.Version = Version
		fmt.Fprintf(os.Stderr, "ripview MCP server started on stdio (service=%s)\n", cfg.ServiceURL)
		return mcpserver.NewServer(app).Serve()
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}
