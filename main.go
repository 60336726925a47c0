package main

import (
	"os"

	"github.com/joho/godotenv"

	"github.com/ziadkadry99/ripview/cmd"
)

func main() {
	// A .env file is optional; RIPVIEW_* overrides may also come from the shell.
	_ = godotenv.Load()

	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
