package volume

import (
	"testing"

	"github.com/raykavin/pricechart/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func candles(closes ...float64) core.Series {
	points := make([]core.TimePoint, len(closes))
	for i, c := range closes {
		points[i] = core.NewCandlePoint(int64(i+1)*86400, c, c, c, c).WithVolume(float64(100 * (i + 1)))
	}
	return core.NewSeries(core.SeriesPrimary, points)
}

func TestColorize_Direction(t *testing.T) {
	bars := Colorize(candles(10, 9, 11), Volumes(candles(10, 9, 11)), core.Dark)

	require.Len(t, bars, 3)
	assert.Equal(t, []core.ColorTag{core.ColorUp, core.ColorDown, core.ColorUp},
		[]core.ColorTag{bars[0].Tag, bars[1].Tag, bars[2].Tag})
	assert.Equal(t, []float64{100, 200, 300}, []float64{bars[0].Value, bars[1].Value, bars[2].Value})
	assert.Equal(t, int64(86400), bars[0].Time)
}

func TestColorize_FirstBarAlwaysUp(t *testing.T) {
	for _, closes := range [][]float64{{5}, {5, 1}, {0, 0}} {
		bars := Colorize(candles(closes...), nil, core.Light)
		assert.Equal(t, core.ColorUp, bars[0].Tag)
	}
}

func TestColorize_TiesCountAsUp(t *testing.T) {
	tags := Tags(candles(7, 7, 6, 6))
	assert.Equal(t, []core.ColorTag{core.ColorUp, core.ColorUp, core.ColorDown, core.ColorUp}, tags)
}

func TestColorize_ValueSeries(t *testing.T) {
	series := core.NewSeries(core.SeriesPrimary, []core.TimePoint{
		core.NewValuePoint(1, 3),
		core.NewValuePoint(2, 2),
		core.NewValuePoint(3, 4),
	})

	bars := Colorize(series, Volumes(series), core.Dark)

	assert.Equal(t, core.ColorDown, bars[1].Tag)
	assert.Equal(t, core.ColorUp, bars[2].Tag)
	assert.Zero(t, bars[2].Value)
}

func TestColor_ThemeOnlyChangesAlpha(t *testing.T) {
	assert.Equal(t, "#00C80555", Color(core.ColorUp, core.Dark))
	assert.Equal(t, "#00C80544", Color(core.ColorUp, core.Light))
	assert.Equal(t, "#FF3B3055", Color(core.ColorDown, core.Dark))
	assert.Equal(t, "#FF3B3044", Color(core.ColorDown, core.Light))
}

func TestColorize_Empty(t *testing.T) {
	assert.Empty(t, Colorize(core.Series{}, nil, core.Dark))
}
