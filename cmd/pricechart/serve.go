package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/raykavin/pricechart/pkg/plot"
	"github.com/spf13/cobra"
)

// Serve command flags
var (
	serveHost  string
	servePort  int
	serveDebug bool
)

func buildServeCmd() *cobra.Command {
	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve interactive charts of the imported symbols",
		RunE:  runServe,
	}

	// Add flags
	serveCmd.Flags().StringVar(&serveHost, "host", "", "Listen host (default from config)")
	serveCmd.Flags().IntVar(&servePort, "port", 0, "Listen port (default from config)")
	serveCmd.Flags().BoolVar(&serveDebug, "debug", false, "Serve the page script unminified")

	return serveCmd
}

func runServe(cmd *cobra.Command, _ []string) error {
	if serveHost != "" {
		cfg.Server.Host = serveHost
	}
	if servePort != 0 {
		cfg.Server.Port = servePort
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	store, err := openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	options := []plot.Option{
		plot.WithChartDefaults(cfg.Chart),
		plot.WithWidth(cfg.Server.Width),
	}
	if serveDebug {
		options = append(options, plot.WithDebug())
	}

	server, err := plot.NewServer(log, store, options...)
	if err != nil {
		return fmt.Errorf("failed to create chart server: %w", err)
	}

	ctx, stop := signal.NotifyContext(contextOf(cmd), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return server.Start(ctx, cfg.Address())
}

func contextOf(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
