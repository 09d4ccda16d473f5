package plot

import (
	"encoding/json"

	"github.com/raykavin/pricechart/pkg/core"
)

// Message types sent to the browser
const (
	MessageSurfaceCreate   = "surface.create"
	MessageSeriesSet       = "series.set"
	MessagePriceLineCreate = "priceline.create"
	MessageFit             = "fit"
	MessageSurfaceResize   = "surface.resize"
	MessageSurfaceRemove   = "surface.remove"
	MessageLegend          = "legend"
	MessageError           = "error"
)

// Message types received from the browser
const (
	MessageConfig    = "config"
	MessageCrosshair = "crosshair"
	MessageResize    = "resize"
)

// WebSocketMessage is the envelope of every websocket frame
type WebSocketMessage struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

// inboundMessage keeps the payload raw until the type is known
type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type surfacePayload struct {
	Surface string               `json:"surface"`
	Options *core.SurfaceOptions `json:"options,omitempty"`
	Width   int                  `json:"width,omitempty"`
}

type seriesPayload struct {
	Surface string           `json:"surface"`
	Kind    string           `json:"kind"`
	Chart   core.ChartKind   `json:"chart"`
	Style   core.SeriesStyle `json:"style"`
	Points  []core.TimePoint `json:"points,omitempty"`
	Bars    []core.VolumeBar `json:"bars,omitempty"`
}

type priceLinePayload struct {
	Surface string `json:"surface"`
	core.PriceLine
}

type legendPayload struct {
	Symbol string               `json:"symbol"`
	Legend *core.LegendSnapshot `json:"legend"`
}

type errorPayload struct {
	Message string `json:"message"`
}

// crosshairPayload is a pointer move reported by the page, a null time means
// the pointer is outside the plotted data
type crosshairPayload struct {
	Surface string `json:"surface"`
	Time    *int64 `json:"time"`
	InPlot  bool   `json:"inPlot"`
}

func (p crosshairPayload) event() core.CrosshairEvent {
	if p.Time == nil {
		return core.CrosshairEvent{InPlot: p.InPlot}
	}
	return core.CrosshairEvent{Time: *p.Time, HasTime: true, InPlot: p.InPlot}
}

type resizePayload struct {
	Width int `json:"width"`
}
