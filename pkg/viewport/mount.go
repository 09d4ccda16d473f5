package viewport

import (
	"sync"

	"github.com/raykavin/pricechart/pkg/core"
	"github.com/raykavin/pricechart/pkg/logger"
)

// mount is one generation's surface together with its listeners
type mount struct {
	generation   uint64
	log          logger.Logger
	surface      core.Surface
	unsubscribe  func()
	cancelResize func()
	once         sync.Once
}

// dispose releases listeners first, then the surface, exactly once
func (m *mount) dispose() {
	m.once.Do(func() {
		if m.cancelResize != nil {
			m.cancelResize()
		}
		if m.unsubscribe != nil {
			m.unsubscribe()
		}
		if m.surface != nil {
			m.remove()
		}
		m.log.WithField("generation", m.generation).Debug("surface disposed")
	})
}

func (m *mount) remove() {
	defer func() {
		if r := recover(); r != nil {
			m.log.WithField("generation", m.generation).Errorf("surface removal panicked: %v", r)
		}
	}()
	m.surface.Remove()
}
