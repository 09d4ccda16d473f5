package render

import (
	"bytes"
	"fmt"
	"io"
	"math"
	"sync"

	"github.com/raykavin/pricechart/pkg/core"
	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
	"golang.org/x/exp/slices"
	"gonum.org/v1/gonum/floats"
)

const (
	padTop    = 16
	padLeft   = 16
	padRight  = 12
	padBottom = 40

	// width reserved for the price axis labels on the right
	axisGutter = 64

	// volume bars take the lower quarter of the plot
	volumeHeadroom = 4.0

	maxTicks = 6
)

// Surface renders the chart into a PNG image with go-chart
type Surface struct {
	mu sync.Mutex

	opts       core.SurfaceOptions
	series     map[core.SeriesKind]core.SeriesSpec
	volume     []core.VolumeBar
	priceLines []core.PriceLine
	fitted     *bounds
	removed    bool

	handlers map[int]func(core.CrosshairEvent)
	nextID   int
}

type bounds struct {
	minX, maxX float64
	minY, maxY float64
	maxVolume  float64
	times      []int64
}

// NewSurface creates a PNG surface, width and height must be positive
func NewSurface(opts core.SurfaceOptions) (*Surface, error) {
	if opts.Width <= 0 || opts.Height <= 0 {
		return nil, fmt.Errorf("invalid surface size %dx%d", opts.Width, opts.Height)
	}

	return &Surface{
		opts:     opts,
		series:   make(map[core.SeriesKind]core.SeriesSpec),
		handlers: make(map[int]func(core.CrosshairEvent)),
	}, nil
}

// Factory adapts NewSurface to core.SurfaceFactory and keeps the last surface built
func Factory(last **Surface) core.SurfaceFactory {
	return func(opts core.SurfaceOptions) (core.Surface, error) {
		s, err := NewSurface(opts)
		if err != nil {
			return nil, err
		}
		if last != nil {
			*last = s
		}
		return s, nil
	}
}

// SetSeries implements core.Surface
func (s *Surface) SetSeries(spec core.SeriesSpec) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.removed {
		return core.ErrSurfaceRemoved
	}
	s.series[spec.Kind] = spec
	return nil
}

// SetVolume implements core.Surface
func (s *Surface) SetVolume(bars []core.VolumeBar) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.removed {
		return core.ErrSurfaceRemoved
	}
	s.volume = bars
	return nil
}

// CreatePriceLine implements core.Surface
func (s *Surface) CreatePriceLine(line core.PriceLine) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.removed {
		return core.ErrSurfaceRemoved
	}
	s.priceLines = append(s.priceLines, line)
	return nil
}

// FitContent freezes the visible range to everything assigned so far
func (s *Surface) FitContent() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.removed {
		return
	}
	s.fitted = s.computeBounds()
}

// SubscribeCrosshairMove implements core.Surface
func (s *Surface) SubscribeCrosshairMove(handler func(core.CrosshairEvent)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextID
	s.nextID++
	s.handlers[id] = handler

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			delete(s.handlers, id)
		})
	}
}

// ApplyWidth implements core.Surface
func (s *Surface) ApplyWidth(width int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if width > 0 {
		s.opts.Width = width
	}
}

// Remove implements core.Surface
func (s *Surface) Remove() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.removed = true
	s.series = map[core.SeriesKind]core.SeriesSpec{}
	s.volume = nil
	s.priceLines = nil
	s.fitted = nil
	s.handlers = map[int]func(core.CrosshairEvent){}
}

// Removed reports whether the surface was released
func (s *Surface) Removed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.removed
}

// Width returns the current surface width
func (s *Surface) Width() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.opts.Width
}

// PointerAtX resolves a horizontal pixel to the nearest plotted time and
// notifies the crosshair subscribers. Pixels outside the plot area report
// a pointer that left the chart.
func (s *Surface) PointerAtX(x int) {
	s.mu.Lock()
	ev := s.resolve(x)
	handlers := s.subscribers()
	s.mu.Unlock()

	for _, h := range handlers {
		h(ev)
	}
}

// PointerAtTime notifies the subscribers of a pointer resting on t
func (s *Surface) PointerAtTime(t int64) {
	s.emit(core.PointerAt(t))
}

// PointerLeave notifies the subscribers that the pointer left the chart
func (s *Surface) PointerLeave() {
	s.emit(core.PointerLeft())
}

func (s *Surface) emit(ev core.CrosshairEvent) {
	s.mu.Lock()
	handlers := s.subscribers()
	s.mu.Unlock()

	for _, h := range handlers {
		h(ev)
	}
}

func (s *Surface) subscribers() []func(core.CrosshairEvent) {
	handlers := make([]func(core.CrosshairEvent), 0, len(s.handlers))
	for _, h := range s.handlers {
		handlers = append(handlers, h)
	}
	return handlers
}

func (s *Surface) resolve(x int) core.CrosshairEvent {
	b := s.fitted
	if b == nil {
		b = s.computeBounds()
	}
	if b == nil || len(b.times) == 0 {
		return core.PointerLeft()
	}

	left, right := padLeft, s.opts.Width-padRight-axisGutter
	if x < left || x > right || right <= left {
		return core.PointerLeft()
	}

	if len(b.times) == 1 {
		return core.PointerAt(b.times[0])
	}

	ratio := float64(x-left) / float64(right-left)
	target := b.minX + ratio*(b.maxX-b.minX)

	idx, _ := slices.BinarySearch(b.times, int64(math.Round(target)))
	switch {
	case idx == 0:
	case idx >= len(b.times):
		idx = len(b.times) - 1
	default:
		if target-float64(b.times[idx-1]) < float64(b.times[idx])-target {
			idx--
		}
	}

	return core.PointerAt(b.times[idx])
}

// computeBounds collects the data extents of everything assigned
func (s *Surface) computeBounds() *bounds {
	var xs, ys, volumes []float64
	var times []int64

	for _, spec := range s.series {
		for _, p := range spec.Points {
			times = append(times, p.Time)
			xs = append(xs, float64(p.Time))
			switch {
			case p.Has(core.FieldHigh | core.FieldLow):
				ys = append(ys, p.High, p.Low)
			default:
				ys = append(ys, p.Price())
			}
		}
	}
	if len(xs) == 0 {
		return nil
	}

	for _, line := range s.priceLines {
		ys = append(ys, line.Price)
	}
	for _, bar := range s.volume {
		volumes = append(volumes, bar.Value)
	}

	slices.Sort(times)
	times = slices.Compact(times)

	b := &bounds{
		minX:  floats.Min(xs),
		maxX:  floats.Max(xs),
		minY:  floats.Min(ys),
		maxY:  floats.Max(ys),
		times: times,
	}
	if len(volumes) > 0 {
		b.maxVolume = floats.Max(volumes)
	}

	if b.maxX <= b.minX {
		b.maxX = b.minX + 86400
	}
	if b.maxY <= b.minY {
		b.maxY = b.minY + 1
	}
	margin := (b.maxY - b.minY) * 0.1
	b.minY -= margin
	b.maxY += margin

	return b
}

// WritePNG renders the current content
func (s *Surface) WritePNG(w io.Writer) error {
	s.mu.Lock()
	ch, err := s.build()
	s.mu.Unlock()
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	if err := ch.Render(chart.PNG, &buf); err != nil {
		return fmt.Errorf("render chart: %w", err)
	}

	_, err = w.Write(buf.Bytes())
	return err
}

func (s *Surface) build() (chart.Chart, error) {
	if s.removed {
		return chart.Chart{}, core.ErrSurfaceRemoved
	}

	b := s.fitted
	if b == nil {
		b = s.computeBounds()
	}
	if b == nil {
		return chart.Chart{}, core.ErrEmptySeries
	}

	text := parseColor(s.opts.TextColor)
	grid := parseColor(s.opts.GridColor)
	axisStyle := chart.Style{FontColor: text, StrokeColor: grid}

	ch := chart.Chart{
		Width:  s.opts.Width,
		Height: s.opts.Height,
		Background: chart.Style{
			FillColor: parseColor(s.opts.Background),
			Padding:   chart.Box{Top: padTop, Left: padLeft, Right: padRight, Bottom: padBottom},
		},
		Canvas: chart.Style{FillColor: parseColor(s.opts.Background)},
		XAxis: chart.XAxis{
			Style: axisStyle,
			Range: &chart.ContinuousRange{Min: toChartX(b.minX), Max: toChartX(b.maxX)},
			Ticks: timeTicks(b.times),
		},
		YAxis: chart.YAxis{
			Style:          axisStyle,
			Range:          &chart.ContinuousRange{Min: b.minY, Max: b.maxY},
			GridMajorStyle: chart.Style{StrokeColor: grid, StrokeWidth: 1},
		},
	}

	if len(s.volume) > 0 && b.maxVolume > 0 {
		ch.YAxisSecondary = chart.YAxis{
			Style: chart.Style{Hidden: true},
			Range: &chart.ContinuousRange{Min: 0, Max: b.maxVolume * volumeHeadroom},
		}
		ch.Series = append(ch.Series, histogramSeries{bars: s.volume})
	}

	if spec, ok := s.series[core.SeriesPrimary]; ok {
		ch.Series = append(ch.Series, primarySeries(spec))
	}
	if spec, ok := s.series[core.SeriesPrediction]; ok {
		ch.Series = append(ch.Series, lineSeries(spec))
	}

	for _, line := range s.priceLines {
		ch.Series = append(ch.Series, priceLineSeries(line, b))
	}

	ch.Elements = []chart.Renderable{chart.Legend(&ch, chart.Style{FontColor: text, FillColor: parseColor(s.opts.Background)})}
	if s.opts.Watermark != "" {
		ch.Elements = append(ch.Elements, watermark(s.opts.Watermark, grid))
	}

	return ch, nil
}

func primarySeries(spec core.SeriesSpec) chart.Series {
	if spec.Chart == core.Candlestick {
		return candleSeries{
			name:   "Price",
			points: spec.Points,
			up:     parseColor(spec.Style.UpColor),
			down:   parseColor(spec.Style.DownColor),
		}
	}

	series := lineSeries(spec)
	if spec.Chart == core.Area {
		series.Style.FillColor = parseColor(spec.Style.TopColor)
	}
	series.Name = "Price"
	return series
}

func lineSeries(spec core.SeriesSpec) chart.ContinuousSeries {
	xs := make([]float64, 0, len(spec.Points))
	ys := make([]float64, 0, len(spec.Points))
	for _, p := range spec.Points {
		xs = append(xs, toChartX(float64(p.Time)))
		ys = append(ys, p.Price())
	}

	width := spec.Style.LineWidth
	if width <= 0 {
		width = 2
	}

	style := chart.Style{
		StrokeColor: parseColor(spec.Style.Color),
		StrokeWidth: width,
	}
	if spec.Style.Dashed {
		style.StrokeDashArray = []float64{6, 4}
	}

	name := spec.Style.Title
	if name == "" {
		name = spec.Kind.String()
	}

	return chart.ContinuousSeries{Name: name, XValues: xs, YValues: ys, Style: style}
}

func priceLineSeries(line core.PriceLine, b *bounds) chart.ContinuousSeries {
	style := chart.Style{
		StrokeColor: parseColor(line.Color),
		StrokeWidth: float64(line.LineWidth),
	}
	if line.Dashed {
		style.StrokeDashArray = []float64{4, 4}
	}

	name := line.Title
	if line.AxisLabelVisible {
		name = fmt.Sprintf("%s %.2f", line.Title, line.Price)
	}

	return chart.ContinuousSeries{
		Name:    name,
		XValues: []float64{toChartX(b.minX), toChartX(b.maxX)},
		YValues: []float64{line.Price, line.Price},
		Style:   style,
	}
}

func watermark(label string, color drawing.Color) chart.Renderable {
	return func(r chart.Renderer, box chart.Box, defaults chart.Style) {
		if font := defaults.GetFont(); font != nil {
			r.SetFont(font)
		}
		r.SetFontColor(color)
		r.SetFontSize(48)
		size := r.MeasureText(label)
		r.Text(label, box.Left+(box.Width()-size.Width())/2, box.Top+(box.Height()+size.Height())/2)
	}
}

// toChartX converts epoch seconds to the go-chart time scale
func toChartX(seconds float64) float64 {
	return chart.TimeToFloat64(core.TimePoint{Time: int64(seconds)}.GetTime())
}

// timeTicks spreads at most maxTicks day labels over the plotted times
func timeTicks(times []int64) []chart.Tick {
	if len(times) == 0 {
		return nil
	}

	step := 1
	if len(times) > maxTicks {
		step = int(math.Ceil(float64(len(times)) / maxTicks))
	}

	ticks := make([]chart.Tick, 0, maxTicks+1)
	for i := 0; i < len(times); i += step {
		ticks = append(ticks, chart.Tick{Value: toChartX(float64(times[i])), Label: core.FormatDate(times[i])})
	}

	if len(ticks) < 2 {
		next := times[0] + 86400
		ticks = append(ticks, chart.Tick{Value: toChartX(float64(next)), Label: core.FormatDate(next)})
	}
	return ticks
}
