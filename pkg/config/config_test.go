package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/raykavin/pricechart/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "pricechart.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, core.DefaultChartConfiguration(), cfg.Chart)
	assert.Equal(t, "127.0.0.1:8080", cfg.Address())
	assert.Equal(t, "buntdb", cfg.Store.Driver)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoad_File(t *testing.T) {
	path := writeFile(t, `
chart:
  chart_kind: area
  time_range: 6M
  theme: light
  height: 420
server:
  port: 9090
store:
  driver: sqlite
  path: /tmp/charts.db
log:
  level: debug
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, core.ChartConfiguration{
		ChartKind: core.Area,
		TimeRange: core.Range6M,
		Theme:     core.Light,
		HeightPx:  420,
	}, cfg.Chart)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, "/tmp/charts.db", cfg.Store.Path)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoad_EnvOverrides(t *testing.T) {
	path := writeFile(t, "chart:\n  chart_kind: area\n")

	t.Setenv("PRICECHART_CHART_KIND", "line")
	t.Setenv("PRICECHART_TIME_RANGE", "1y")
	t.Setenv("PRICECHART_THEME", "light")
	t.Setenv("PRICECHART_HEIGHT", "300")
	t.Setenv("PRICECHART_PORT", "7000")
	t.Setenv("PRICECHART_LOG_JSON", "true")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, core.Line, cfg.Chart.ChartKind)
	assert.Equal(t, core.Range1Y, cfg.Chart.TimeRange)
	assert.Equal(t, core.Light, cfg.Chart.Theme)
	assert.Equal(t, 300, cfg.Chart.HeightPx)
	assert.Equal(t, 7000, cfg.Server.Port)
	assert.True(t, cfg.Log.JSON)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
		env     map[string]string
		target  error
	}{
		{name: "bad yaml", content: "chart: [", target: nil},
		{name: "unknown kind", content: "chart:\n  chart_kind: pie\n", target: core.ErrUnknownChartKind},
		{name: "negative height", content: "chart:\n  height: -5\n", target: core.ErrInvalidConfig},
		{name: "unknown driver", content: "store:\n  driver: redis\n", target: core.ErrInvalidConfig},
		{name: "bad port env", env: map[string]string{"PRICECHART_PORT": "http"}},
		{name: "port out of range", env: map[string]string{"PRICECHART_PORT": "70000"}, target: core.ErrInvalidConfig},
		{name: "unknown range env", env: map[string]string{"PRICECHART_TIME_RANGE": "3W"}, target: core.ErrUnknownTimeRange},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			for k, v := range tc.env {
				t.Setenv(k, v)
			}

			_, err := Load(writeFile(t, tc.content))
			require.Error(t, err)
			if tc.target != nil {
				assert.ErrorIs(t, err, tc.target)
			}
		})
	}
}
