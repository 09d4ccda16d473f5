package main

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"github.com/aybabtme/uniplot/histogram"
	"github.com/olekukonko/tablewriter"
	"github.com/raykavin/pricechart/pkg/core"
	"github.com/raykavin/pricechart/pkg/feed"
	"github.com/raykavin/pricechart/pkg/metric"
	"github.com/raykavin/pricechart/pkg/normalize"
	"github.com/raykavin/pricechart/pkg/render"
	"github.com/raykavin/pricechart/pkg/viewport"
	"github.com/raykavin/pricechart/pkg/volume"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
)

const bootstrapRounds = 10000

// Inspect command flags
var (
	inspectChart      chartFlags
	inspectPrimary    string
	inspectPrediction string
	inspectSymbol     string
	inspectBins       int
)

func buildInspectCmd() *cobra.Command {
	inspectCmd := &cobra.Command{
		Use:   "inspect",
		Short: "Print the normalized series, volume colors and surface commands",
		RunE:  runInspect,
	}

	// Add flags
	inspectChart.register(inspectCmd)
	inspectCmd.Flags().StringVarP(&inspectPrimary, "primary", "p", "", "Primary price file (CSV or JSON)")
	inspectCmd.Flags().StringVar(&inspectPrediction, "prediction", "", "Prediction file (CSV or JSON)")
	inspectCmd.Flags().StringVarP(&inspectSymbol, "symbol", "s", "", "Symbol (default from file name)")
	inspectCmd.Flags().IntVar(&inspectBins, "bins", 10, "Volume histogram bins")

	// Required flags
	inspectCmd.MarkFlagRequired("primary")

	return inspectCmd
}

func runInspect(_ *cobra.Command, _ []string) error {
	chart, err := inspectChart.resolve()
	if err != nil {
		return err
	}

	symbol := inspectSymbol
	if symbol == "" {
		symbol = symbolOf(inspectPrimary)
	}

	batch, err := feed.Load(feed.Source{
		Symbol:     symbol,
		Primary:    inspectPrimary,
		Prediction: inspectPrediction,
	})
	if err != nil {
		return err
	}
	batch = feed.Window(batch, chart.TimeRange)

	normalizer := normalize.New(log)
	primary, primaryStats := normalizer.Primary(batch.Primary, chart.ChartKind)
	prediction, predictionStats := normalizer.Prediction(batch.Prediction)

	fmt.Printf("%s · %s · %s\n\n", batch.Symbol, chart.ChartKind, chart.TimeRange)
	fmt.Println(seriesTable(primary, chart.ChartKind))
	fmt.Printf("primary:    %d read, %d malformed, %d duplicates, %d kept\n",
		primaryStats.Input, primaryStats.Malformed, primaryStats.Duplicates, primaryStats.Output)
	fmt.Printf("prediction: %d read, %d malformed, %d duplicates, %d kept\n",
		predictionStats.Input, predictionStats.Malformed, predictionStats.Duplicates, predictionStats.Output)
	if batch.Trend != "" {
		fmt.Printf("trend:      %s\n", batch.Trend)
	}

	if returns := metric.Returns(primary); len(returns) > 1 {
		interval := metric.Bootstrap(returns, metric.Mean, bootstrapRounds, 0.95)
		change, _ := metric.Change(primary)

		fmt.Println()
		fmt.Println("------ DAILY RETURN (95%) -------")
		fmt.Printf("MEAN:   %.2f%% (%.2f%% ~ %.2f%%)\n", interval.Mean*100, interval.Lower*100, interval.Upper*100)
		fmt.Printf("CHANGE: %.2f%%\n", change*100)
	}

	volumes := lo.Filter(volume.Volumes(primary), func(v float64, _ int) bool { return v > 0 })
	if len(volumes) > 0 {
		fmt.Println()
		fmt.Println("------ VOLUME -------")
		hist := histogram.Hist(inspectBins, volumes)
		if err := histogram.Fprint(os.Stdout, hist, histogram.Linear(40)); err != nil {
			return err
		}
	}

	if !prediction.IsEmpty() {
		fmt.Println()
		fmt.Println("------ PREDICTION -------")
		fmt.Println(seriesTable(prediction, core.Line))
	}

	// Dry run of the surface commands the chart would issue
	var surfaces []*render.Recorder
	controller := viewport.NewController(log, render.RecorderFactory(&surfaces), viewport.NewWindow(cfg.Server.Width))
	defer controller.Close()

	err = controller.Render(viewport.Input{
		Primary:    batch.Primary,
		Prediction: batch.Prediction,
	}, chart)
	if err != nil {
		return err
	}

	fmt.Println()
	fmt.Println("------ SURFACE -------")
	if len(surfaces) == 0 {
		fmt.Println("no surface (nothing to chart)")
		return nil
	}
	fmt.Println(strings.Join(surfaces[0].Commands, "\n"))

	return nil
}

func seriesTable(series core.Series, kind core.ChartKind) string {
	buffer := bytes.NewBuffer(nil)
	table := tablewriter.NewWriter(buffer)
	table.SetAlignment(tablewriter.ALIGN_RIGHT)

	tags := volume.Tags(series)

	if kind == core.Candlestick {
		table.SetHeader([]string{"Date", "Open", "High", "Low", "Close", "Volume", "Bar"})
	} else {
		table.SetHeader([]string{"Date", "Value", "Volume", "Bar"})
	}

	for i, p := range series.Points {
		vol := "-"
		if p.Has(core.FieldVolume) {
			vol = core.FormatVolume(p.Volume)
		}

		if kind == core.Candlestick {
			table.Append([]string{
				core.FormatDate(p.Time),
				fmt.Sprintf("%.2f", p.Open),
				fmt.Sprintf("%.2f", p.High),
				fmt.Sprintf("%.2f", p.Low),
				fmt.Sprintf("%.2f", p.Close),
				vol,
				tags[i].String(),
			})
			continue
		}

		table.Append([]string{
			core.FormatDate(p.Time),
			fmt.Sprintf("%.2f", p.Price()),
			vol,
			tags[i].String(),
		})
	}

	table.Render()
	return buffer.String()
}
