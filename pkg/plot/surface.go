package plot

import (
	"sync"

	"github.com/raykavin/pricechart/pkg/core"
)

// remoteSurface is a chart drawn by the browser. Every surface command is
// forwarded to the page, pointer moves come back through dispatch.
type remoteSurface struct {
	sync.Mutex

	id       string
	send     func(WebSocketMessage)
	removed  bool
	handlers map[int]func(core.CrosshairEvent)
	nextID   int
}

func newRemoteSurface(id string, send func(WebSocketMessage)) *remoteSurface {
	return &remoteSurface{
		id:       id,
		send:     send,
		handlers: make(map[int]func(core.CrosshairEvent)),
	}
}

func (r *remoteSurface) emit(kind string, payload any) error {
	r.Lock()
	removed := r.removed
	r.Unlock()

	if removed {
		return core.ErrSurfaceRemoved
	}
	r.send(WebSocketMessage{Type: kind, Payload: payload})
	return nil
}

// SetSeries implements core.Surface
func (r *remoteSurface) SetSeries(spec core.SeriesSpec) error {
	return r.emit(MessageSeriesSet, seriesPayload{
		Surface: r.id,
		Kind:    spec.Kind.String(),
		Chart:   spec.Chart,
		Style:   spec.Style,
		Points:  spec.Points,
	})
}

// SetVolume implements core.Surface
func (r *remoteSurface) SetVolume(bars []core.VolumeBar) error {
	return r.emit(MessageSeriesSet, seriesPayload{
		Surface: r.id,
		Kind:    core.SeriesVolume.String(),
		Bars:    bars,
	})
}

// CreatePriceLine implements core.Surface
func (r *remoteSurface) CreatePriceLine(line core.PriceLine) error {
	return r.emit(MessagePriceLineCreate, priceLinePayload{Surface: r.id, PriceLine: line})
}

// FitContent implements core.Surface
func (r *remoteSurface) FitContent() {
	_ = r.emit(MessageFit, surfacePayload{Surface: r.id})
}

// SubscribeCrosshairMove implements core.Surface
func (r *remoteSurface) SubscribeCrosshairMove(handler func(core.CrosshairEvent)) func() {
	r.Lock()
	defer r.Unlock()

	id := r.nextID
	r.nextID++
	r.handlers[id] = handler

	return func() {
		r.Lock()
		defer r.Unlock()
		delete(r.handlers, id)
	}
}

// ApplyWidth implements core.Surface
func (r *remoteSurface) ApplyWidth(width int) {
	_ = r.emit(MessageSurfaceResize, surfacePayload{Surface: r.id, Width: width})
}

// Remove implements core.Surface
func (r *remoteSurface) Remove() {
	r.Lock()
	if r.removed {
		r.Unlock()
		return
	}
	r.removed = true
	r.handlers = map[int]func(core.CrosshairEvent){}
	r.Unlock()

	r.send(WebSocketMessage{Type: MessageSurfaceRemove, Payload: surfacePayload{Surface: r.id}})
}

// dispatch delivers a pointer move to the subscribers outside the lock
func (r *remoteSurface) dispatch(ev core.CrosshairEvent) {
	r.Lock()
	handlers := make([]func(core.CrosshairEvent), 0, len(r.handlers))
	for _, h := range r.handlers {
		handlers = append(handlers, h)
	}
	r.Unlock()

	for _, h := range handlers {
		h(ev)
	}
}
