package core

import (
	"fmt"
	"strings"
	"time"

	"github.com/xhit/go-str2duration/v2"
)

// ChartKind selects how the primary series is drawn
type ChartKind int8

const (
	Candlestick ChartKind = iota
	Line
	Area
)

func (k ChartKind) String() string {
	switch k {
	case Candlestick:
		return "candlestick"
	case Line:
		return "line"
	case Area:
		return "area"
	default:
		return "unknown"
	}
}

// ParseChartKind converts a name into a ChartKind
func ParseChartKind(name string) (ChartKind, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "candlestick", "candle", "":
		return Candlestick, nil
	case "line":
		return Line, nil
	case "area":
		return Area, nil
	default:
		return Candlestick, fmt.Errorf("%w: %q", ErrUnknownChartKind, name)
	}
}

// RequiredFields returns the fields a primary point must carry for this kind
func (k ChartKind) RequiredFields() Field {
	switch k {
	case Candlestick:
		return FieldsOHLC
	case Line, Area:
		return FieldValue
	default:
		return FieldsOHLC
	}
}

// MarshalText implements encoding.TextMarshaler
func (k ChartKind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler
func (k *ChartKind) UnmarshalText(text []byte) error {
	kind, err := ParseChartKind(string(text))
	if err != nil {
		return err
	}
	*k = kind
	return nil
}

// Theme is the color scheme of the chart
type Theme int8

const (
	Dark Theme = iota
	Light
)

func (t Theme) String() string {
	if t == Light {
		return "light"
	}
	return "dark"
}

// ParseTheme converts a name into a Theme
func ParseTheme(name string) (Theme, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "dark", "":
		return Dark, nil
	case "light":
		return Light, nil
	default:
		return Dark, fmt.Errorf("%w: %q", ErrUnknownTheme, name)
	}
}

// MarshalText implements encoding.TextMarshaler
func (t Theme) MarshalText() ([]byte, error) { return []byte(t.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler
func (t *Theme) UnmarshalText(text []byte) error {
	theme, err := ParseTheme(string(text))
	if err != nil {
		return err
	}
	*t = theme
	return nil
}

// TimeRange is the history window shown on the chart
type TimeRange string

const (
	Range1D TimeRange = "1D"
	Range5D TimeRange = "5D"
	Range1M TimeRange = "1M"
	Range6M TimeRange = "6M"
	Range1Y TimeRange = "1Y"
	Range2Y TimeRange = "2Y"
)

// 1D shows the whole daily history, there is no intraday data
var rangeWindows = map[TimeRange]string{
	Range1D: "3650d",
	Range5D: "7d",
	Range1M: "30d",
	Range6M: "180d",
	Range1Y: "365d",
	Range2Y: "730d",
}

// ParseTimeRange validates a range name
func ParseTimeRange(name string) (TimeRange, error) {
	r := TimeRange(strings.ToUpper(strings.TrimSpace(name)))
	if r == "" {
		return Range1M, nil
	}
	if _, ok := rangeWindows[r]; !ok {
		return Range1M, fmt.Errorf("%w: %q", ErrUnknownTimeRange, name)
	}
	return r, nil
}

// Window returns how far back the range reaches, unknown ranges fall back to 30 days
func (r TimeRange) Window() time.Duration {
	spec, ok := rangeWindows[r]
	if !ok {
		spec = rangeWindows[Range1M]
	}

	window, err := str2duration.ParseDuration(spec)
	if err != nil {
		return 30 * 24 * time.Hour
	}
	return window
}

// ChartConfiguration is immutable per render cycle, any change forces a rebuild
type ChartConfiguration struct {
	ChartKind ChartKind `json:"chartKind" yaml:"chart_kind"`
	TimeRange TimeRange `json:"timeRange" yaml:"time_range"`
	Theme     Theme     `json:"theme" yaml:"theme"`
	HeightPx  int       `json:"height" yaml:"height"`
}

// DefaultChartConfiguration mirrors the stock detail page defaults
func DefaultChartConfiguration() ChartConfiguration {
	return ChartConfiguration{
		ChartKind: Candlestick,
		TimeRange: Range1M,
		Theme:     Dark,
		HeightPx:  500,
	}
}

// Validate checks the configuration values
func (c ChartConfiguration) Validate() error {
	switch c.ChartKind {
	case Candlestick, Line, Area:
	default:
		return fmt.Errorf("%w: %d", ErrUnknownChartKind, c.ChartKind)
	}

	if _, ok := rangeWindows[c.TimeRange]; !ok {
		return fmt.Errorf("%w: %q", ErrUnknownTimeRange, c.TimeRange)
	}

	if c.HeightPx <= 0 {
		return fmt.Errorf("%w: height must be positive, got %d", ErrInvalidConfig, c.HeightPx)
	}

	return nil
}
