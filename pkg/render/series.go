package render

import (
	"github.com/raykavin/pricechart/pkg/core"
	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

// candleSeries draws OHLC glyphs, go-chart has no candlestick series
type candleSeries struct {
	name   string
	points []core.TimePoint
	up     drawing.Color
	down   drawing.Color
}

func (cs candleSeries) GetName() string { return cs.name }
func (cs candleSeries) GetYAxis() chart.YAxisType { return chart.YAxisPrimary }
func (cs candleSeries) GetStyle() chart.Style { return chart.Style{} }
func (cs candleSeries) Len() int { return len(cs.points) }
func (cs candleSeries) Validate() error { return nil }
func (cs candleSeries) GetValues(i int) (float64, float64) {
	return chart.TimeToFloat64(cs.points[i].GetTime()), cs.points[i].Close
}

// GetBoundedValues lets go-chart range the axis over the wicks
func (cs candleSeries) GetBoundedValues(i int) (float64, float64, float64) {
	p := cs.points[i]
	return chart.TimeToFloat64(p.GetTime()), p.Low, p.High
}

func (cs candleSeries) Render(r chart.Renderer, box chart.Box, xrange, yrange chart.Range, _ chart.Style) {
	if len(cs.points) == 0 {
		return
	}

	half := box.Width() / (len(cs.points) * 3)
	if half < 1 {
		half = 1
	}

	for _, p := range cs.points {
		x := box.Left + xrange.Translate(chart.TimeToFloat64(p.GetTime()))
		y := func(v float64) int { return box.Bottom - yrange.Translate(v) }

		color := cs.up
		if p.Close < p.Open {
			color = cs.down
		}

		r.SetStrokeColor(color)
		r.SetFillColor(color)
		r.SetStrokeWidth(1)

		r.MoveTo(x, y(p.High))
		r.LineTo(x, y(p.Low))
		r.Stroke()

		top, bottom := y(p.Open), y(p.Close)
		if top > bottom {
			top, bottom = bottom, top
		}
		if bottom == top {
			bottom++
		}

		r.MoveTo(x-half, top)
		r.LineTo(x+half, top)
		r.LineTo(x+half, bottom)
		r.LineTo(x-half, bottom)
		r.LineTo(x-half, top)
		r.Close()
		r.FillStroke()
	}
}

// histogramSeries draws the volume overlay, each bar in its own color
type histogramSeries struct {
	bars []core.VolumeBar
}

func (hs histogramSeries) GetName() string { return "Volume" }
func (hs histogramSeries) GetYAxis() chart.YAxisType { return chart.YAxisSecondary }
func (hs histogramSeries) GetStyle() chart.Style { return chart.Style{} }
func (hs histogramSeries) Len() int { return len(hs.bars) }
func (hs histogramSeries) Validate() error { return nil }
func (hs histogramSeries) GetValues(i int) (float64, float64) {
	return chart.TimeToFloat64(core.TimePoint{Time: hs.bars[i].Time}.GetTime()), hs.bars[i].Value
}

func (hs histogramSeries) Render(r chart.Renderer, box chart.Box, xrange, yrange chart.Range, _ chart.Style) {
	if len(hs.bars) == 0 {
		return
	}

	half := box.Width() / (len(hs.bars) * 3)
	if half < 1 {
		half = 1
	}

	for _, bar := range hs.bars {
		x := box.Left + xrange.Translate(chart.TimeToFloat64(core.TimePoint{Time: bar.Time}.GetTime()))
		top := box.Bottom - yrange.Translate(bar.Value)

		color := parseColor(bar.Color)
		r.SetFillColor(color)
		r.SetStrokeColor(color)
		r.SetStrokeWidth(1)

		r.MoveTo(x-half, top)
		r.LineTo(x+half, top)
		r.LineTo(x+half, box.Bottom)
		r.LineTo(x-half, box.Bottom)
		r.LineTo(x-half, top)
		r.Close()
		r.FillStroke()
	}
}
