package main

import (
	"fmt"
	"os"

	"github.com/raykavin/pricechart/pkg/core"
	"github.com/raykavin/pricechart/pkg/feed"
	"github.com/raykavin/pricechart/pkg/render"
	"github.com/raykavin/pricechart/pkg/viewport"
	"github.com/spf13/cobra"
)

// Render command flags
var (
	renderChart      chartFlags
	renderPrimary    string
	renderPrediction string
	renderSymbol     string
	renderWidth      int
	renderOutput     string
	renderHover      string
)

func buildRenderCmd() *cobra.Command {
	renderCmd := &cobra.Command{
		Use:   "render",
		Short: "Render a chart to a PNG file",
		RunE:  runRender,
	}

	// Add flags
	renderChart.register(renderCmd)
	renderCmd.Flags().StringVarP(&renderPrimary, "primary", "p", "", "Primary price file (CSV or JSON)")
	renderCmd.Flags().StringVar(&renderPrediction, "prediction", "", "Prediction file (CSV or JSON)")
	renderCmd.Flags().StringVarP(&renderSymbol, "symbol", "s", "", "Symbol shown as watermark (default from file name)")
	renderCmd.Flags().IntVarP(&renderWidth, "width", "w", 960, "Chart width in pixels")
	renderCmd.Flags().StringVarP(&renderOutput, "output", "o", "chart.png", "Output PNG file")
	renderCmd.Flags().StringVar(&renderHover, "hover", "", "Print the legend at this date (e.g. 2024-01-02)")

	// Required flags
	renderCmd.MarkFlagRequired("primary")

	return renderCmd
}

func runRender(_ *cobra.Command, _ []string) error {
	chart, err := renderChart.resolve()
	if err != nil {
		return err
	}

	symbol := renderSymbol
	if symbol == "" {
		symbol = symbolOf(renderPrimary)
	}

	batch, err := feed.Load(feed.Source{
		Symbol:     symbol,
		Primary:    renderPrimary,
		Prediction: renderPrediction,
	})
	if err != nil {
		return err
	}

	var surface *render.Surface
	controller := viewport.NewController(log, render.Factory(&surface), viewport.NewWindow(renderWidth))
	defer controller.Close()

	err = controller.Render(viewport.Input{
		Primary:    feed.Window(batch, chart.TimeRange).Primary,
		Prediction: batch.Prediction,
	}, chart)
	if err != nil {
		return err
	}

	if controller.State() != viewport.StateReady || surface == nil {
		log.Warnf("No chart data for %s", batch.Symbol)
		return nil
	}

	if renderHover != "" {
		at, err := core.ParseDate(renderHover)
		if err != nil {
			return fmt.Errorf("invalid hover date: %w", err)
		}

		surface.PointerAtTime(at)
		if snapshot := controller.Legend(); snapshot != nil {
			fmt.Println(snapshot.String())
		} else {
			fmt.Printf("%s: no data\n", core.FormatDate(at))
		}
		surface.PointerLeave()
	}

	file, err := os.Create(renderOutput)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer file.Close()

	if err := surface.WritePNG(file); err != nil {
		return err
	}

	log.WithFields(map[string]any{
		"symbol": batch.Symbol,
		"kind":   chart.ChartKind.String(),
		"range":  string(chart.TimeRange),
		"file":   renderOutput,
	}).Info("chart rendered")

	return nil
}
