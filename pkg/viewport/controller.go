package viewport

import (
	"fmt"
	"sync"

	"github.com/raykavin/pricechart/pkg/coordinator"
	"github.com/raykavin/pricechart/pkg/core"
	"github.com/raykavin/pricechart/pkg/legend"
	"github.com/raykavin/pricechart/pkg/logger"
	"github.com/raykavin/pricechart/pkg/normalize"
)

// State of the viewport
type State int8

const (
	StateEmpty State = iota
	StateReady
	StateError
)

func (s State) String() string {
	switch s {
	case StateReady:
		return "ready"
	case StateError:
		return "error"
	default:
		return "empty"
	}
}

// Input is the raw data of one render cycle
type Input struct {
	Primary    []core.RawRecord
	Prediction []core.PredictionRecord
}

// Controller owns the rendering surface. Every Render disposes the previous
// surface before building the next one, and callbacks registered by an older
// generation are ignored.
type Controller struct {
	sync.Mutex

	log         logger.Logger
	factory     core.SurfaceFactory
	container   core.Container
	normalizer  *normalize.Normalizer
	coordinator *coordinator.Coordinator
	onLegend    func(*core.LegendSnapshot)

	generation uint64
	state      State
	err        error
	mounted    *mount
	tracker    *legend.Tracker
	plan       *coordinator.RenderPlan
}

// Option configures a Controller
type Option func(*Controller)

// WithLegendListener receives every legend change. It runs while the
// controller lock is held and must not call back into the controller.
func WithLegendListener(fn func(*core.LegendSnapshot)) Option {
	return func(c *Controller) {
		c.onLegend = fn
	}
}

// NewController creates an empty viewport
func NewController(log logger.Logger, factory core.SurfaceFactory, container core.Container, options ...Option) *Controller {
	c := &Controller{
		log:         log,
		factory:     factory,
		container:   container,
		normalizer:  normalize.New(log),
		coordinator: coordinator.New(log),
	}

	for _, option := range options {
		option(c)
	}

	return c
}

// Render rebuilds the chart for new data or configuration
func (c *Controller) Render(input Input, cfg core.ChartConfiguration) error {
	c.Lock()
	defer c.Unlock()

	c.teardown()
	c.generation++
	gen := c.generation

	log := c.log.WithFields(map[string]any{
		"generation": gen,
		"kind":       cfg.ChartKind.String(),
		"range":      string(cfg.TimeRange),
	})

	if err := cfg.Validate(); err != nil {
		return c.fail(log, err)
	}

	if len(input.Primary) == 0 {
		log.Debug("no data provided to chart")
		return nil
	}

	primary, _ := c.normalizer.Primary(input.Primary, cfg.ChartKind)
	if primary.IsEmpty() {
		log.Debug("no valid records after normalization")
		return nil
	}
	prediction, _ := c.normalizer.Prediction(input.Prediction)

	plan, err := c.coordinator.Build(coordinator.Input{
		Primary:      primary,
		Prediction:   prediction,
		RawHasVolume: input.Primary[0].HasVolume(),
	}, cfg)
	if err != nil {
		return c.fail(log, err)
	}

	trackerOptions := []legend.Option{}
	if c.onLegend != nil {
		trackerOptions = append(trackerOptions, legend.WithOnChange(c.onLegend))
	}
	c.tracker = legend.New(cfg.ChartKind, legend.Sources{
		Primary:    primary,
		Prediction: prediction,
		Input:      primary,
	}, trackerOptions...)

	m, err := c.construct(gen, plan)
	if err != nil {
		c.tracker = nil
		return c.fail(log, err)
	}

	c.mounted = m
	c.plan = &plan
	c.state = StateReady

	log.WithFields(map[string]any{
		"points":     primary.Length(),
		"prediction": prediction.Length(),
		"volume":     plan.HasVolume(),
	}).Info("chart created")

	return nil
}

// construct acquires the surface and its listeners, anything acquired is
// released again when a step fails or panics
func (c *Controller) construct(gen uint64, plan coordinator.RenderPlan) (m *mount, err error) {
	m = &mount{generation: gen, log: c.log}

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", core.ErrConstruction, r)
		}
		if err != nil {
			m.dispose()
			m = nil
		}
	}()

	surface, err := c.factory(coordinator.SurfaceOptions(plan.Config, c.container.Width()))
	if err != nil {
		return m, fmt.Errorf("%w: %w", core.ErrConstruction, err)
	}
	m.surface = surface

	if err := c.coordinator.Apply(plan, surface); err != nil {
		return m, fmt.Errorf("%w: %w", core.ErrConstruction, err)
	}

	m.unsubscribe = surface.SubscribeCrosshairMove(func(ev core.CrosshairEvent) {
		c.onCrosshair(gen, ev)
	})
	m.cancelResize = c.container.OnResize(func(width int) {
		c.onResize(gen, width)
	})

	return m, nil
}

func (c *Controller) fail(log logger.Logger, err error) error {
	c.state = StateError
	c.err = err
	log.WithError(err).Error("error creating chart")
	return err
}

// teardown disposes the mounted surface and returns to Empty
func (c *Controller) teardown() {
	if c.mounted != nil {
		c.mounted.dispose()
		c.mounted = nil
	}

	if c.tracker != nil {
		c.tracker.Reset()
		c.tracker = nil
	}

	c.plan = nil
	c.err = nil
	c.state = StateEmpty
}

func (c *Controller) onCrosshair(gen uint64, ev core.CrosshairEvent) {
	c.Lock()
	defer c.Unlock()

	if gen != c.generation || c.tracker == nil {
		return
	}
	c.tracker.OnCrosshairMove(ev)
}

func (c *Controller) onResize(gen uint64, width int) {
	c.Lock()
	defer c.Unlock()

	if gen != c.generation || c.mounted == nil {
		return
	}
	c.mounted.surface.ApplyWidth(width)
}

// Close unmounts the chart, later callbacks from the disposed surface are ignored
func (c *Controller) Close() {
	c.Lock()
	defer c.Unlock()

	c.teardown()
	c.generation++
}

// State returns the current viewport state
func (c *Controller) State() State {
	c.Lock()
	defer c.Unlock()
	return c.state
}

// Err returns the construction failure of the current generation
func (c *Controller) Err() error {
	c.Lock()
	defer c.Unlock()
	return c.err
}

// Generation returns the id of the latest rebuild
func (c *Controller) Generation() uint64 {
	c.Lock()
	defer c.Unlock()
	return c.generation
}

// Legend returns the current legend snapshot, nil when idle
func (c *Controller) Legend() *core.LegendSnapshot {
	c.Lock()
	defer c.Unlock()

	if c.tracker == nil {
		return nil
	}
	return c.tracker.Snapshot()
}

// Lookup resolves the legend at t against the mounted series
func (c *Controller) Lookup(t int64) (core.LegendSnapshot, bool) {
	c.Lock()
	defer c.Unlock()

	if c.tracker == nil {
		return core.LegendSnapshot{}, false
	}
	return c.tracker.Lookup(t)
}

// Plan returns the render plan of the mounted surface
func (c *Controller) Plan() (coordinator.RenderPlan, bool) {
	c.Lock()
	defer c.Unlock()

	if c.plan == nil {
		return coordinator.RenderPlan{}, false
	}
	return *c.plan, true
}

// Surface returns the mounted surface, nil when nothing is mounted
func (c *Controller) Surface() core.Surface {
	c.Lock()
	defer c.Unlock()

	if c.mounted == nil {
		return nil
	}
	return c.mounted.surface
}
