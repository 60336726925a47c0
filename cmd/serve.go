package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/ziadkadry99/ripview/internal/extract"
	"github.com/ziadkadry99/ripview/internal/server"
)

var (
	servePort int
	serveOpen string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the viewer HTTP server",
	Long:  `Starts the ripview HTTP API and websocket event stream in front of the extraction service.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("port") {
			cfg.Port = servePort
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

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		if serveOpen != "" {
			f, err := os.Open(serveOpen)
			if err != nil {
				return fmt.Errorf("opening %s: %w", serveOpen, err)
			}
			err = app.Open(ctx, filepath.Base(serveOpen), f)
			f.Close()
			if err != nil {
				return errors.New(extract.UserMessage(err))
			}
		}

		srv := server.New(server.Config{
			Port:     cfg.Port,
			AllowAll: cfg.AllowAllOrigins,
			History:  store,
		}, app)

		// Graceful shutdown.
		go func() {
			<-ctx.Done()
			fmt.Fprintln(os.Stderr, "\nShutting down server...")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			srv.Shutdown(shutdownCtx)
		}()

		fmt.Fprintf(os.Stderr, "ripview %s starting on port %d\n", Version, cfg.Port)
		fmt.Fprintf(os.Stderr, "  Extraction service: %s\n", cfg.ServiceURL)
		fmt.Fprintf(os.Stderr, "  Default layers: %v\n", cfg.DefaultLayers)
		if store != nil {
			fmt.Fprintf(os.Stderr, "  History: %s\n", cfg.HistoryDB)
		}

		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	},
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 8420, "port to listen on")
	serveCmd.Flags().StringVar(&serveOpen, "open", "", "PDF to upload before serving")
	rootCmd.AddCommand(serveCmd)
}
