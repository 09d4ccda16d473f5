package core

// SurfaceOptions configures a rendering surface at construction time
type SurfaceOptions struct {
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	Theme       Theme  `json:"theme"`
	Background  string `json:"background"`
	TextColor   string `json:"textColor"`
	GridColor   string `json:"gridColor"`
	BorderColor string `json:"borderColor"`
	Watermark   string `json:"watermark"`
}

// SeriesStyle carries the visual options of one plotted series
type SeriesStyle struct {
	Color       string  `json:"color,omitempty"`
	UpColor     string  `json:"upColor,omitempty"`
	DownColor   string  `json:"downColor,omitempty"`
	TopColor    string  `json:"topColor,omitempty"`
	BottomColor string  `json:"bottomColor,omitempty"`
	LineWidth   float64 `json:"lineWidth,omitempty"`
	Dashed      bool    `json:"dashed,omitempty"`
	Title       string  `json:"title,omitempty"`
	Precision   int     `json:"precision,omitempty"`
}

// SeriesSpec is a series assignment command for the surface
type SeriesSpec struct {
	Kind   SeriesKind  `json:"-"`
	Chart  ChartKind   `json:"chart"`
	Style  SeriesStyle `json:"style"`
	Points []TimePoint `json:"points"`
}

// ColorTag is the direction class of a volume bar
type ColorTag int8

const (
	ColorUp ColorTag = iota
	ColorDown
)

func (c ColorTag) String() string {
	if c == ColorDown {
		return "down"
	}
	return "up"
}

// VolumeBar is one histogram bar of the volume overlay
type VolumeBar struct {
	Time  int64    `json:"time"`
	Value float64  `json:"value"`
	Tag   ColorTag `json:"-"`
	Color string   `json:"color"`
}

// PriceLine is a labeled horizontal marker on the primary series
type PriceLine struct {
	Price            float64 `json:"price"`
	Color            string  `json:"color"`
	LineWidth        int     `json:"lineWidth"`
	Dashed           bool    `json:"dashed"`
	AxisLabelVisible bool    `json:"axisLabelVisible"`
	Title            string  `json:"title"`
}

// CrosshairEvent is a pointer position reported by the surface
type CrosshairEvent struct {
	Time    int64
	HasTime bool
	InPlot  bool
}

// PointerAt builds an event for a pointer resolved to t inside the plot
func PointerAt(t int64) CrosshairEvent {
	return CrosshairEvent{Time: t, HasTime: true, InPlot: true}
}

// PointerLeft builds an event for a pointer outside the plotted region
func PointerLeft() CrosshairEvent {
	return CrosshairEvent{}
}

// Surface is the rendering surface owned by a viewport controller
type Surface interface {
	SetSeries(spec SeriesSpec) error
	SetVolume(bars []VolumeBar) error
	CreatePriceLine(line PriceLine) error
	FitContent()
	SubscribeCrosshairMove(handler func(CrosshairEvent)) (unsubscribe func())
	ApplyWidth(width int)
	Remove()
}

// SurfaceFactory constructs a surface, errors and panics are construction failures
type SurfaceFactory func(opts SurfaceOptions) (Surface, error)

// Container is the element hosting the surface, it reports width changes
type Container interface {
	Width() int
	OnResize(listener func(width int)) (cancel func())
}
