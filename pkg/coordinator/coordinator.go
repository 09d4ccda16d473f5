package coordinator

import (
	"fmt"

	"github.com/raykavin/pricechart/pkg/core"
	"github.com/raykavin/pricechart/pkg/logger"
	"github.com/raykavin/pricechart/pkg/volume"
)

// Input is the normalized data of one render cycle
type Input struct {
	Primary    core.Series
	Prediction core.Series

	// RawHasVolume reports whether the first raw record, before any
	// filtering, carried a volume field
	RawHasVolume bool
}

// RenderPlan lists every command a surface receives for one render cycle
type RenderPlan struct {
	Config     core.ChartConfiguration
	Primary    core.SeriesSpec
	Prediction *core.SeriesSpec
	Volume     []core.VolumeBar
	PriceLine  core.PriceLine
}

// HasPrediction reports whether a prediction series is assigned
func (p RenderPlan) HasPrediction() bool { return p.Prediction != nil }

// HasVolume reports whether the volume overlay is assigned
func (p RenderPlan) HasVolume() bool { return p.Volume != nil }

// Coordinator decides which overlays apply and drives the surface
type Coordinator struct {
	log logger.Logger
}

// New creates a coordinator
func New(log logger.Logger) *Coordinator {
	return &Coordinator{log: log}
}

// VolumeEligible reports whether the volume overlay applies. Only candlestick
// charts show it and only when the raw batch carries volume.
func VolumeEligible(kind core.ChartKind, rawHasVolume bool) bool {
	switch kind {
	case core.Candlestick:
		return rawHasVolume
	case core.Line, core.Area:
		return false
	default:
		return false
	}
}

// LastPrice returns the value annotated by the last-value price line
func LastPrice(kind core.ChartKind, primary core.Series) (float64, bool) {
	last, ok := primary.Last(0)
	if !ok {
		return 0, false
	}

	switch kind {
	case core.Candlestick:
		return last.Close, true
	case core.Line, core.Area:
		return last.Value, true
	default:
		return 0, false
	}
}

// Build prepares the render plan for a configuration
func (c *Coordinator) Build(in Input, cfg core.ChartConfiguration) (RenderPlan, error) {
	if err := cfg.Validate(); err != nil {
		return RenderPlan{}, err
	}

	if in.Primary.IsEmpty() {
		return RenderPlan{}, core.ErrEmptySeries
	}

	required := cfg.ChartKind.RequiredFields()
	for _, p := range in.Primary.Points {
		if !p.Has(required) {
			return RenderPlan{}, fmt.Errorf("%w: %s series point at %s lacks required fields",
				core.ErrInvalidConfig, cfg.ChartKind, core.FormatDate(p.Time))
		}
	}

	price, _ := LastPrice(cfg.ChartKind, in.Primary)

	plan := RenderPlan{
		Config: cfg,
		Primary: core.SeriesSpec{
			Kind:   core.SeriesPrimary,
			Chart:  cfg.ChartKind,
			Style:  primaryStyle(cfg.ChartKind, pricePrecision(in.Primary)),
			Points: in.Primary.Points,
		},
		PriceLine: core.PriceLine{
			Price:            price,
			Color:            colorPriceLine,
			LineWidth:        2,
			Dashed:           true,
			AxisLabelVisible: true,
			Title:            "Last",
		},
	}

	if !in.Prediction.IsEmpty() {
		plan.Prediction = &core.SeriesSpec{
			Kind:   core.SeriesPrediction,
			Chart:  core.Line,
			Style:  predictionStyle(pricePrecision(in.Prediction)),
			Points: in.Prediction.Points,
		}
	}

	if VolumeEligible(cfg.ChartKind, in.RawHasVolume) {
		plan.Volume = volume.Colorize(in.Primary, volume.Volumes(in.Primary), cfg.Theme)
	}

	c.log.WithFields(map[string]any{
		"kind":       cfg.ChartKind.String(),
		"points":     in.Primary.Length(),
		"prediction": in.Prediction.Length(),
		"volume":     plan.HasVolume(),
	}).Debug("render plan built")

	return plan, nil
}

// Apply assigns every active series, the price line, and fits the content once
func (c *Coordinator) Apply(plan RenderPlan, surface core.Surface) error {
	if err := surface.SetSeries(plan.Primary); err != nil {
		return fmt.Errorf("assign primary series: %w", err)
	}

	if plan.Prediction != nil {
		if err := surface.SetSeries(*plan.Prediction); err != nil {
			return fmt.Errorf("assign prediction series: %w", err)
		}
	}

	if plan.Volume != nil {
		if err := surface.SetVolume(plan.Volume); err != nil {
			return fmt.Errorf("assign volume overlay: %w", err)
		}
	}

	if err := surface.CreatePriceLine(plan.PriceLine); err != nil {
		return fmt.Errorf("create price line: %w", err)
	}

	// Same call with or without a prediction so predicted ranges stay visible
	surface.FitContent()

	return nil
}
