package cmd

import (
	"github.com/spf13/cobra"

	"github.com/ziadkadry99/ripview/internal/config"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a ripview configuration with an interactive wizard",
	Long:  `Runs an interactive wizard that checks the extraction service and writes a .ripview.yml file.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		_, err := config.RunWizard(cfgFile)
		return err
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
