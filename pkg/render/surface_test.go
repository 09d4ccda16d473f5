package render

import (
	"bytes"
	"image/png"
	"testing"

	"github.com/raykavin/pricechart/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

const day = int64(86400)

func options() core.SurfaceOptions {
	return core.SurfaceOptions{
		Width:      640,
		Height:     360,
		Background: "#131722",
		TextColor:  "#d1d4dc",
		GridColor:  "#2a2e39",
		Watermark:  "DSE",
	}
}

func candles() []core.TimePoint {
	return []core.TimePoint{
		core.NewCandlePoint(0, 9, 11, 8, 10).WithVolume(100),
		core.NewCandlePoint(day, 10, 10, 8, 9).WithVolume(120),
		core.NewCandlePoint(2*day, 9, 12, 9, 11).WithVolume(90),
	}
}

func TestNewSurface_InvalidSize(t *testing.T) {
	_, err := NewSurface(core.SurfaceOptions{Width: 0, Height: 100})
	require.Error(t, err)

	_, err = NewSurface(core.SurfaceOptions{Width: 100, Height: -1})
	require.Error(t, err)
}

func TestSurface_FitContent(t *testing.T) {
	s, err := NewSurface(options())
	require.NoError(t, err)

	require.NoError(t, s.SetSeries(core.SeriesSpec{Kind: core.SeriesPrimary, Chart: core.Candlestick, Points: candles()}))
	require.NoError(t, s.SetVolume([]core.VolumeBar{{Time: 0, Value: 100}, {Time: day, Value: 120}}))
	s.FitContent()

	require.NotNil(t, s.fitted)
	assert.Equal(t, 0.0, s.fitted.minX)
	assert.Equal(t, float64(2*day), s.fitted.maxX)
	assert.Equal(t, 120.0, s.fitted.maxVolume)
	assert.Less(t, s.fitted.minY, 8.0)
	assert.Greater(t, s.fitted.maxY, 12.0)
	assert.Equal(t, []int64{0, day, 2 * day}, s.fitted.times)

	// content assigned after the fit does not move the range
	require.NoError(t, s.SetSeries(core.SeriesSpec{Kind: core.SeriesPrediction, Chart: core.Line, Points: []core.TimePoint{core.NewValuePoint(5*day, 20)}}))
	assert.Equal(t, float64(2*day), s.fitted.maxX)
}

func TestSurface_PointerAtX(t *testing.T) {
	s, err := NewSurface(options())
	require.NoError(t, err)
	require.NoError(t, s.SetSeries(core.SeriesSpec{Kind: core.SeriesPrimary, Chart: core.Candlestick, Points: candles()}))
	s.FitContent()

	var events []core.CrosshairEvent
	unsubscribe := s.SubscribeCrosshairMove(func(ev core.CrosshairEvent) {
		events = append(events, ev)
	})

	left, right := padLeft, options().Width-padRight-axisGutter

	s.PointerAtX(left)
	s.PointerAtX(right)
	s.PointerAtX((left + right) / 2)
	s.PointerAtX(left + (right-left)/4 - 1)
	s.PointerAtX(2)
	s.PointerAtX(options().Width - 2)

	require.Len(t, events, 6)
	assert.Equal(t, core.PointerAt(0), events[0])
	assert.Equal(t, core.PointerAt(2*day), events[1])
	assert.Equal(t, core.PointerAt(day), events[2])
	assert.Equal(t, core.PointerAt(0), events[3])
	assert.Equal(t, core.PointerLeft(), events[4])
	assert.Equal(t, core.PointerLeft(), events[5])

	unsubscribe()
	unsubscribe()
	s.PointerAtTime(day)
	assert.Len(t, events, 6)
}

func TestSurface_PointerOnEmptySurface(t *testing.T) {
	s, err := NewSurface(options())
	require.NoError(t, err)

	var got []core.CrosshairEvent
	s.SubscribeCrosshairMove(func(ev core.CrosshairEvent) { got = append(got, ev) })

	s.PointerAtX(100)
	s.PointerLeave()

	assert.Equal(t, []core.CrosshairEvent{core.PointerLeft(), core.PointerLeft()}, got)
}

func TestSurface_Remove(t *testing.T) {
	s, err := NewSurface(options())
	require.NoError(t, err)
	require.NoError(t, s.SetSeries(core.SeriesSpec{Kind: core.SeriesPrimary, Chart: core.Line, Points: candles()}))

	called := false
	s.SubscribeCrosshairMove(func(core.CrosshairEvent) { called = true })

	s.Remove()
	s.Remove()

	assert.True(t, s.Removed())
	assert.ErrorIs(t, s.SetSeries(core.SeriesSpec{}), core.ErrSurfaceRemoved)
	assert.ErrorIs(t, s.SetVolume(nil), core.ErrSurfaceRemoved)
	assert.ErrorIs(t, s.CreatePriceLine(core.PriceLine{}), core.ErrSurfaceRemoved)
	assert.ErrorIs(t, s.WritePNG(&bytes.Buffer{}), core.ErrSurfaceRemoved)

	s.PointerAtTime(0)
	assert.False(t, called)
}

func TestSurface_ApplyWidth(t *testing.T) {
	s, err := NewSurface(options())
	require.NoError(t, err)

	s.ApplyWidth(1024)
	assert.Equal(t, 1024, s.Width())

	s.ApplyWidth(0)
	assert.Equal(t, 1024, s.Width())
}

func TestSurface_WritePNG(t *testing.T) {
	for _, kind := range []core.ChartKind{core.Candlestick, core.Line, core.Area} {
		t.Run(kind.String(), func(t *testing.T) {
			s, err := NewSurface(options())
			require.NoError(t, err)

			points := candles()
			require.NoError(t, s.SetSeries(core.SeriesSpec{
				Kind:   core.SeriesPrimary,
				Chart:  kind,
				Style:  core.SeriesStyle{Color: "#2962FF", UpColor: "#26a69a", DownColor: "#ef5350", TopColor: "rgba(41, 98, 255, 0.3)"},
				Points: points,
			}))
			require.NoError(t, s.SetSeries(core.SeriesSpec{
				Kind:   core.SeriesPrediction,
				Chart:  core.Line,
				Style:  core.SeriesStyle{Color: "#FF9800", Dashed: true, Title: "Predicted"},
				Points: []core.TimePoint{core.NewValuePoint(3*day, 11.5), core.NewValuePoint(4*day, 11.8)},
			}))
			require.NoError(t, s.SetVolume([]core.VolumeBar{
				{Time: 0, Value: 100, Color: "#00C80555"},
				{Time: day, Value: 120, Color: "#FF3B3055"},
				{Time: 2 * day, Value: 90, Color: "#00C80555"},
			}))
			require.NoError(t, s.CreatePriceLine(core.PriceLine{Price: 11, Color: "#2962FF", LineWidth: 2, Dashed: true, AxisLabelVisible: true, Title: "Last"}))
			s.FitContent()

			var buf bytes.Buffer
			require.NoError(t, s.WritePNG(&buf))

			img, err := png.Decode(&buf)
			require.NoError(t, err)
			assert.Equal(t, 640, img.Bounds().Dx())
			assert.Equal(t, 360, img.Bounds().Dy())
		})
	}
}

func TestSurface_WritePNGWithoutContent(t *testing.T) {
	s, err := NewSurface(options())
	require.NoError(t, err)

	assert.ErrorIs(t, s.WritePNG(&bytes.Buffer{}), core.ErrEmptySeries)
}

func TestParseColor(t *testing.T) {
	assert.Equal(t, drawing.Color{R: 0x29, G: 0x62, B: 0xFF, A: 255}, parseColor("#2962FF"))
	assert.Equal(t, drawing.Color{R: 0x00, G: 0xC8, B: 0x05, A: 0x55}, parseColor("#00C80555"))
	assert.Equal(t, drawing.Color{R: 0xff, G: 0xff, B: 0xff, A: 255}, parseColor("#fff"))
	assert.Equal(t, drawing.Color{R: 41, G: 98, B: 255, A: 127}, parseColor("rgba(41, 98, 255, 0.5)"))
	assert.Equal(t, drawing.Color{R: 1, G: 2, B: 3, A: 255}, parseColor("rgb(1,2,3)"))
	assert.Equal(t, drawing.ColorTransparent, parseColor("nope!"))
}
