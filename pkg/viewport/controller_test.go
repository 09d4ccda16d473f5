package viewport

import (
	"errors"
	"math"
	"testing"

	"github.com/raykavin/pricechart/pkg/core"
	"github.com/raykavin/pricechart/pkg/logger/zerolog"
	"github.com/raykavin/pricechart/pkg/render"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func vol(v float64) *core.Number {
	n := core.Number(v)
	return &n
}

func records() []core.RawRecord {
	return []core.RawRecord{
		{Date: "2024-01-01", Open: 9, High: 11, Low: 8, Close: 10, Volume: vol(100)},
		{Date: "2024-01-02", Open: 10, High: 10, Low: 8, Close: 9, Volume: vol(120)},
		{Date: "2024-01-03", Open: 9, High: 12, Low: 9, Close: 11, Volume: vol(90)},
	}
}

func day(date string) int64 {
	t, err := core.ParseDate(date)
	if err != nil {
		panic(err)
	}
	return t
}

func config(kind core.ChartKind) core.ChartConfiguration {
	cfg := core.DefaultChartConfiguration()
	cfg.ChartKind = kind
	return cfg
}

type fixture struct {
	window   *Window
	created  []*render.Recorder
	legends  []*core.LegendSnapshot
	ctrl     *Controller
	factory  core.SurfaceFactory
	observed []observation
}

// observation captures the world at the moment a new surface is constructed
type observation struct {
	listeners  int
	allRemoved bool
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{window: NewWindow(800)}
	f.factory = func(opts core.SurfaceOptions) (core.Surface, error) {
		allRemoved := true
		for _, r := range f.created {
			if r.Removed != 1 {
				allRemoved = false
			}
		}
		f.observed = append(f.observed, observation{listeners: f.window.Listeners(), allRemoved: allRemoved})

		r := render.NewRecorder(opts)
		f.created = append(f.created, r)
		return r, nil
	}

	f.ctrl = NewController(zerolog.Nop(), func(opts core.SurfaceOptions) (core.Surface, error) {
		return f.factory(opts)
	}, f.window, WithLegendListener(func(s *core.LegendSnapshot) {
		f.legends = append(f.legends, s)
	}))

	return f
}

func TestController_Ready(t *testing.T) {
	f := newFixture(t)

	require.NoError(t, f.ctrl.Render(Input{Primary: records()}, config(core.Candlestick)))

	assert.Equal(t, StateReady, f.ctrl.State())
	assert.Equal(t, uint64(1), f.ctrl.Generation())
	require.Len(t, f.created, 1)

	surface := f.created[0]
	assert.Equal(t, 800, surface.Options.Width)
	assert.Equal(t, 500, surface.Options.Height)
	assert.Equal(t, 1, surface.Fits)
	assert.Len(t, surface.Volume, 3)
	assert.Equal(t, 1, surface.Subscribers())
	assert.Equal(t, 1, f.window.Listeners())

	plan, ok := f.ctrl.Plan()
	require.True(t, ok)
	assert.Equal(t, 11.0, plan.PriceLine.Price)
}

func TestController_SwitchChartKindDisposesBeforeRebuild(t *testing.T) {
	f := newFixture(t)

	require.NoError(t, f.ctrl.Render(Input{Primary: records()}, config(core.Candlestick)))
	f.created[0].Move(core.PointerAt(day("2024-01-02")))

	candle := f.ctrl.Legend()
	require.NotNil(t, candle)
	assert.NotNil(t, candle.Open)
	assert.Nil(t, candle.Value)

	require.NoError(t, f.ctrl.Render(Input{Primary: records()}, config(core.Line)))

	require.Len(t, f.observed, 2)
	assert.Equal(t, 0, f.observed[1].listeners)
	assert.True(t, f.observed[1].allRemoved)

	old := f.created[0]
	assert.Equal(t, 1, old.Removed)
	assert.Zero(t, old.Subscribers())
	assert.Equal(t, 1, f.window.Listeners())

	// rebuild forces the legend back to idle
	assert.Nil(t, f.ctrl.Legend())
	assert.Nil(t, f.legends[len(f.legends)-1])

	f.created[1].Move(core.PointerAt(day("2024-01-02")))
	line := f.ctrl.Legend()
	require.NotNil(t, line)
	assert.Nil(t, line.Open)
	require.NotNil(t, line.Value)
	assert.Equal(t, 9.0, *line.Value)
	assert.Equal(t, 120.0, *line.Volume)

	// line kind never carries the volume overlay
	assert.Nil(t, f.created[1].Volume)
}

func TestController_EmptyInput(t *testing.T) {
	f := newFixture(t)

	require.NoError(t, f.ctrl.Render(Input{}, config(core.Candlestick)))
	assert.Equal(t, StateEmpty, f.ctrl.State())
	assert.NoError(t, f.ctrl.Err())
	assert.Empty(t, f.created)

	// only malformed records behaves the same
	nan := core.Number(math.NaN())
	require.NoError(t, f.ctrl.Render(Input{Primary: []core.RawRecord{{Date: "2024-01-01", Open: nan, High: nan, Low: nan, Close: nan}}}, config(core.Candlestick)))
	assert.Equal(t, StateEmpty, f.ctrl.State())
	assert.Empty(t, f.created)
}

func TestController_ConstructionError(t *testing.T) {
	f := newFixture(t)
	f.factory = func(core.SurfaceOptions) (core.Surface, error) {
		return nil, errors.New("canvas unavailable")
	}

	err := f.ctrl.Render(Input{Primary: records()}, config(core.Candlestick))
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrConstruction)
	assert.Contains(t, err.Error(), "canvas unavailable")
	assert.Equal(t, StateError, f.ctrl.State())
	assert.Equal(t, err, f.ctrl.Err())
	assert.Zero(t, f.window.Listeners())
	assert.Nil(t, f.ctrl.Surface())
}

type failingVolume struct {
	*render.Recorder
}

func (failingVolume) SetVolume([]core.VolumeBar) error {
	return errors.New("histogram rejected")
}

func TestController_PartialConstructionIsReleased(t *testing.T) {
	f := newFixture(t)
	var partial *render.Recorder
	f.factory = func(opts core.SurfaceOptions) (core.Surface, error) {
		partial = render.NewRecorder(opts)
		return failingVolume{partial}, nil
	}

	err := f.ctrl.Render(Input{Primary: records()}, config(core.Candlestick))
	assert.ErrorIs(t, err, core.ErrConstruction)
	assert.Equal(t, StateError, f.ctrl.State())
	assert.Equal(t, 1, partial.Removed)
	assert.Zero(t, partial.Subscribers())
	assert.Zero(t, f.window.Listeners())
}

func TestController_PanicDuringConstruction(t *testing.T) {
	f := newFixture(t)
	f.factory = func(core.SurfaceOptions) (core.Surface, error) {
		panic("library exploded")
	}

	err := f.ctrl.Render(Input{Primary: records()}, config(core.Candlestick))
	assert.ErrorIs(t, err, core.ErrConstruction)
	assert.Contains(t, err.Error(), "library exploded")
	assert.Equal(t, StateError, f.ctrl.State())
}

func TestController_RecoversFromError(t *testing.T) {
	f := newFixture(t)
	good := f.factory
	f.factory = func(core.SurfaceOptions) (core.Surface, error) {
		return nil, errors.New("boom")
	}

	require.Error(t, f.ctrl.Render(Input{Primary: records()}, config(core.Candlestick)))
	f.factory = good

	require.NoError(t, f.ctrl.Render(Input{Primary: records()}, config(core.Candlestick)))
	assert.Equal(t, StateReady, f.ctrl.State())
	assert.NoError(t, f.ctrl.Err())
}

func TestController_InvalidConfig(t *testing.T) {
	f := newFixture(t)
	cfg := config(core.Line)
	cfg.HeightPx = -1

	err := f.ctrl.Render(Input{Primary: records()}, cfg)
	assert.ErrorIs(t, err, core.ErrInvalidConfig)
	assert.Equal(t, StateError, f.ctrl.State())
	assert.Empty(t, f.created)
}

func TestController_ResizeAppliesWidthOnly(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.ctrl.Render(Input{Primary: records()}, config(core.Area)))

	surface := f.created[0]
	before := len(surface.Commands)

	f.window.Resize(1024)

	assert.Equal(t, 1024, surface.Width)
	assert.Equal(t, []string{"width 1024"}, surface.Commands[before:])
	assert.Equal(t, 500, surface.Options.Height)
}

func TestController_CloseReleasesEverythingOnce(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.ctrl.Render(Input{Primary: records()}, config(core.Candlestick)))
	surface := f.created[0]

	f.ctrl.Close()
	f.ctrl.Close()

	assert.Equal(t, 1, surface.Removed)
	assert.Zero(t, surface.Subscribers())
	assert.Zero(t, f.window.Listeners())
	assert.Equal(t, StateEmpty, f.ctrl.State())

	f.window.Resize(300)
	assert.Equal(t, 800, surface.Width)
}

// leakySurface ignores unsubscribe so stale callbacks keep firing
type leakySurface struct {
	*render.Recorder
}

func (l leakySurface) SubscribeCrosshairMove(handler func(core.CrosshairEvent)) func() {
	l.Recorder.SubscribeCrosshairMove(handler)
	return func() {}
}

func TestController_StaleGenerationCallbacksAreIgnored(t *testing.T) {
	f := newFixture(t)
	var leaky []*render.Recorder
	f.factory = func(opts core.SurfaceOptions) (core.Surface, error) {
		r := render.NewRecorder(opts)
		leaky = append(leaky, r)
		return leakySurface{r}, nil
	}

	require.NoError(t, f.ctrl.Render(Input{Primary: records()}, config(core.Candlestick)))
	require.NoError(t, f.ctrl.Render(Input{Primary: records()}, config(core.Line)))

	leaky[0].Move(core.PointerAt(day("2024-01-01")))
	assert.Nil(t, f.ctrl.Legend())

	leaky[1].Move(core.PointerAt(day("2024-01-01")))
	require.NotNil(t, f.ctrl.Legend())
	assert.Equal(t, 10.0, *f.ctrl.Legend().Value)
}

func TestController_PredictionOnlyHover(t *testing.T) {
	f := newFixture(t)
	input := Input{
		Primary:    records(),
		Prediction: []core.PredictionRecord{{Date: "2024-01-04", Value: 11.5}, {Date: "2024-01-05", Value: 11.8}},
	}

	require.NoError(t, f.ctrl.Render(input, config(core.Candlestick)))
	f.created[0].Move(core.PointerAt(day("2024-01-05")))

	snap := f.ctrl.Legend()
	require.NotNil(t, snap)
	assert.False(t, snap.HasPrimary())
	assert.Nil(t, snap.Volume)
	assert.Equal(t, 11.8, *snap.PredictionValue)

	f.created[0].Move(core.PointerAt(day("2024-02-01")))
	assert.Nil(t, f.ctrl.Legend())
}
