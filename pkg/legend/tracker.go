package legend

import (
	"github.com/raykavin/pricechart/pkg/core"
	"github.com/samber/lo"
)

// State of the tracker
type State int8

const (
	Idle State = iota
	Hovering
)

func (s State) String() string {
	if s == Hovering {
		return "hovering"
	}
	return "idle"
}

// Sources are the series a tracker resolves hovered times against
type Sources struct {
	Primary    core.Series
	Prediction core.Series

	// Input is the normalized input batch, volume is read from it even
	// when the plotted primary series has no volume column
	Input core.Series
}

// Tracker maps crosshair positions to legend snapshots
type Tracker struct {
	kind       core.ChartKind
	primary    core.Series
	prediction core.Series
	volumes    map[int64]float64

	state    State
	snapshot *core.LegendSnapshot
	onChange func(*core.LegendSnapshot)
}

// Option configures a Tracker
type Option func(*Tracker)

// WithOnChange registers a callback invoked whenever the snapshot changes,
// it receives nil when the legend is cleared
func WithOnChange(fn func(*core.LegendSnapshot)) Option {
	return func(t *Tracker) {
		t.onChange = fn
	}
}

// New creates an idle tracker for the given chart kind
func New(kind core.ChartKind, sources Sources, options ...Option) *Tracker {
	input := sources.Input
	if input.IsEmpty() {
		input = sources.Primary
	}

	tracker := &Tracker{
		kind:       kind,
		primary:    sources.Primary,
		prediction: sources.Prediction,
		volumes: lo.SliceToMap(input.Points, func(p core.TimePoint) (int64, float64) {
			return p.Time, p.Volume
		}),
	}

	for _, option := range options {
		option(tracker)
	}

	return tracker
}

// Lookup resolves the legend at t without changing state. Only exact
// timestamps match, there is no interpolation.
func (t *Tracker) Lookup(at int64) (core.LegendSnapshot, bool) {
	snap := core.LegendSnapshot{Time: at, Kind: t.kind}
	found := false

	if p, ok := t.primary.At(at); ok {
		found = true

		switch t.kind {
		case core.Candlestick:
			snap.Open = lo.ToPtr(p.Open)
			snap.High = lo.ToPtr(p.High)
			snap.Low = lo.ToPtr(p.Low)
			snap.Close = lo.ToPtr(p.Close)
		case core.Line, core.Area:
			snap.Value = lo.ToPtr(p.Value)
		}

		snap.Volume = lo.ToPtr(t.volumes[at])
	}

	// Prediction only fills its own field, primary data is never replaced
	if p, ok := t.prediction.At(at); ok {
		found = true
		snap.PredictionValue = lo.ToPtr(p.Value)
	}

	return snap, found
}

// OnCrosshairMove handles a pointer event reported by the surface
func (t *Tracker) OnCrosshairMove(ev core.CrosshairEvent) {
	if !ev.InPlot || !ev.HasTime {
		t.toIdle()
		return
	}

	snap, ok := t.Lookup(ev.Time)
	if !ok {
		t.toIdle()
		return
	}

	t.state = Hovering
	t.snapshot = &snap
	t.notify()
}

// Reset forces the tracker back to idle
func (t *Tracker) Reset() {
	t.toIdle()
}

func (t *Tracker) toIdle() {
	wasHovering := t.state == Hovering
	t.state = Idle
	t.snapshot = nil

	if wasHovering {
		t.notify()
	}
}

func (t *Tracker) notify() {
	if t.onChange != nil {
		t.onChange(t.Snapshot())
	}
}

// State returns the current state
func (t *Tracker) State() State { return t.state }

// Snapshot returns a copy of the current legend, nil when idle
func (t *Tracker) Snapshot() *core.LegendSnapshot {
	if t.snapshot == nil {
		return nil
	}
	snap := *t.snapshot
	return &snap
}
