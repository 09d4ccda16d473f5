package coordinator

import "github.com/raykavin/pricechart/pkg/core"

const (
	colorUp         = "#00C805"
	colorDown       = "#FF3B30"
	colorLine       = "#0066FF"
	colorPrediction = "#FF9500"
	colorPriceLine  = "#2962FF"

	minPrecision = 2
	maxPrecision = 8
)

// SurfaceOptions returns the theme-aware construction options
func SurfaceOptions(cfg core.ChartConfiguration, width int) core.SurfaceOptions {
	opts := core.SurfaceOptions{
		Width:     width,
		Height:    cfg.HeightPx,
		Theme:     cfg.Theme,
		Watermark: "DSE",
	}

	switch cfg.Theme {
	case core.Light:
		opts.Background = "#FFFFFF"
		opts.TextColor = "#4B5563"
		opts.GridColor = "#F3F4F6"
		opts.BorderColor = "#E5E7EB"
	default:
		opts.Background = "#131722"
		opts.TextColor = "#D1D5DB"
		opts.GridColor = "#1F2937"
		opts.BorderColor = "#2A2E39"
	}

	return opts
}

func primaryStyle(kind core.ChartKind, precision int) core.SeriesStyle {
	switch kind {
	case core.Candlestick:
		return core.SeriesStyle{
			UpColor:   colorUp,
			DownColor: colorDown,
			Precision: precision,
		}
	case core.Line:
		return core.SeriesStyle{
			Color:     colorLine,
			LineWidth: 2.5,
			Precision: precision,
		}
	case core.Area:
		return core.SeriesStyle{
			Color:       colorLine,
			TopColor:    "rgba(0, 102, 255, 0.3)",
			BottomColor: "rgba(0, 102, 255, 0.05)",
			LineWidth:   2.5,
			Precision:   precision,
		}
	default:
		return core.SeriesStyle{}
	}
}

func predictionStyle(precision int) core.SeriesStyle {
	return core.SeriesStyle{
		Color:     colorPrediction,
		LineWidth: 2,
		Dashed:    true,
		Title:     "Predicted",
		Precision: precision,
	}
}

// pricePrecision is the widest decimal count among the series prices,
// at least two places and capped against float noise
func pricePrecision(series core.Series) int {
	digits := minPrecision
	for _, p := range series.Points {
		for _, v := range []float64{p.Open, p.High, p.Low, p.Close, p.Value} {
			digits = max(digits, core.NumDecPlaces(v))
		}
	}
	return min(digits, maxPrecision)
}
