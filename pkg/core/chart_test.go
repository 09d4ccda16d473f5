package core

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseChartKind(t *testing.T) {
	for name, want := range map[string]ChartKind{
		"candlestick": Candlestick,
		"Candle":      Candlestick,
		"":            Candlestick,
		"line":        Line,
		" AREA ":      Area,
	} {
		got, err := ParseChartKind(name)
		require.NoError(t, err, name)
		assert.Equal(t, want, got, name)
	}

	_, err := ParseChartKind("bar")
	assert.ErrorIs(t, err, ErrUnknownChartKind)
}

func TestParseTheme(t *testing.T) {
	theme, err := ParseTheme("Light")
	require.NoError(t, err)
	assert.Equal(t, Light, theme)

	theme, err = ParseTheme("")
	require.NoError(t, err)
	assert.Equal(t, Dark, theme)

	_, err = ParseTheme("sepia")
	assert.ErrorIs(t, err, ErrUnknownTheme)
}

func TestTimeRange_Window(t *testing.T) {
	day := 24 * time.Hour

	tests := []struct {
		r    TimeRange
		want time.Duration
	}{
		{Range1D, 3650 * day},
		{Range5D, 7 * day},
		{Range1M, 30 * day},
		{Range6M, 180 * day},
		{Range1Y, 365 * day},
		{Range2Y, 730 * day},
		{TimeRange("3W"), 30 * day},
	}

	for _, tt := range tests {
		t.Run(string(tt.r), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.r.Window())
		})
	}

	r, err := ParseTimeRange("6m")
	require.NoError(t, err)
	assert.Equal(t, Range6M, r)

	_, err = ParseTimeRange("3W")
	assert.ErrorIs(t, err, ErrUnknownTimeRange)
}

func TestChartConfiguration_Validate(t *testing.T) {
	require.NoError(t, DefaultChartConfiguration().Validate())

	tests := []struct {
		name   string
		mutate func(*ChartConfiguration)
		err    error
	}{
		{"unknown kind", func(c *ChartConfiguration) { c.ChartKind = 7 }, ErrUnknownChartKind},
		{"unknown range", func(c *ChartConfiguration) { c.TimeRange = "3W" }, ErrUnknownTimeRange},
		{"zero height", func(c *ChartConfiguration) { c.HeightPx = 0 }, ErrInvalidConfig},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultChartConfiguration()
			tt.mutate(&cfg)
			assert.ErrorIs(t, cfg.Validate(), tt.err)
		})
	}
}

func TestChartConfiguration_JSON(t *testing.T) {
	cfg := DefaultChartConfiguration()
	require.NoError(t, json.Unmarshal([]byte(`{"chartKind":"area","theme":"light"}`), &cfg))

	assert.Equal(t, Area, cfg.ChartKind)
	assert.Equal(t, Light, cfg.Theme)
	assert.Equal(t, Range1M, cfg.TimeRange)
	assert.Equal(t, 500, cfg.HeightPx)

	out, err := json.Marshal(cfg)
	require.NoError(t, err)
	assert.JSONEq(t, `{"chartKind":"area","timeRange":"1M","theme":"light","height":500}`, string(out))

	assert.Error(t, json.Unmarshal([]byte(`{"chartKind":"pie"}`), &cfg))
}
