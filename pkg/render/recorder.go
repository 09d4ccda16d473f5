package render

import (
	"fmt"
	"sync"

	"github.com/raykavin/pricechart/pkg/core"
)

// Recorder is a surface that keeps every command it receives. The CLI uses
// it for dry runs, tests use it to assert command order.
type Recorder struct {
	mu sync.Mutex

	Options    core.SurfaceOptions
	Commands   []string
	Series     []core.SeriesSpec
	Volume     []core.VolumeBar
	PriceLines []core.PriceLine
	Width      int
	Fits       int
	Removed    int

	handlers map[int]func(core.CrosshairEvent)
	nextID   int
}

// NewRecorder creates a recording surface
func NewRecorder(opts core.SurfaceOptions) *Recorder {
	return &Recorder{
		Options:  opts,
		Width:    opts.Width,
		handlers: make(map[int]func(core.CrosshairEvent)),
	}
}

// RecorderFactory returns a factory that appends every surface it builds to created
func RecorderFactory(created *[]*Recorder) core.SurfaceFactory {
	return func(opts core.SurfaceOptions) (core.Surface, error) {
		r := NewRecorder(opts)
		*created = append(*created, r)
		return r, nil
	}
}

func (r *Recorder) record(format string, args ...any) {
	r.Commands = append(r.Commands, fmt.Sprintf(format, args...))
}

// SetSeries implements core.Surface
func (r *Recorder) SetSeries(spec core.SeriesSpec) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.Removed > 0 {
		return core.ErrSurfaceRemoved
	}
	r.Series = append(r.Series, spec)
	r.record("series %s %s %d", spec.Kind, spec.Chart, len(spec.Points))
	return nil
}

// SetVolume implements core.Surface
func (r *Recorder) SetVolume(bars []core.VolumeBar) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.Removed > 0 {
		return core.ErrSurfaceRemoved
	}
	r.Volume = bars
	r.record("volume %d", len(bars))
	return nil
}

// CreatePriceLine implements core.Surface
func (r *Recorder) CreatePriceLine(line core.PriceLine) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.Removed > 0 {
		return core.ErrSurfaceRemoved
	}
	r.PriceLines = append(r.PriceLines, line)
	r.record("priceline %s %.2f", line.Title, line.Price)
	return nil
}

// FitContent implements core.Surface
func (r *Recorder) FitContent() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.Fits++
	r.record("fit")
}

// SubscribeCrosshairMove implements core.Surface
func (r *Recorder) SubscribeCrosshairMove(handler func(core.CrosshairEvent)) func() {
	r.mu.Lock()
	defer r.mu.Unlock()

	id := r.nextID
	r.nextID++
	r.handlers[id] = handler
	r.record("crosshair.subscribe")

	return func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		delete(r.handlers, id)
	}
}

// ApplyWidth implements core.Surface
func (r *Recorder) ApplyWidth(width int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.Width = width
	r.record("width %d", width)
}

// Remove implements core.Surface
func (r *Recorder) Remove() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.Removed++
	r.record("remove")
}

// Move delivers a crosshair event to every subscriber
func (r *Recorder) Move(ev core.CrosshairEvent) {
	r.mu.Lock()
	handlers := make([]func(core.CrosshairEvent), 0, len(r.handlers))
	for _, h := range r.handlers {
		handlers = append(handlers, h)
	}
	r.mu.Unlock()

	for _, h := range handlers {
		h(ev)
	}
}

// Subscribers returns the number of live crosshair subscriptions
func (r *Recorder) Subscribers() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.handlers)
}
