package viewport

import (
	"sync"

	"github.com/StudioSol/set"
)

// Window is an in-process container that broadcasts width changes to
// listeners in registration order
type Window struct {
	mu        sync.Mutex
	width     int
	nextID    int64
	ids       *set.LinkedHashSetINT64
	listeners map[int64]func(int)
}

// NewWindow creates a container with an initial width
func NewWindow(width int) *Window {
	return &Window{
		width:     width,
		ids:       set.NewLinkedHashSetINT64(),
		listeners: make(map[int64]func(int)),
	}
}

// Width implements core.Container
func (w *Window) Width() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.width
}

// OnResize implements core.Container, the returned cancel is idempotent
func (w *Window) OnResize(listener func(width int)) func() {
	w.mu.Lock()
	w.nextID++
	id := w.nextID
	w.ids.Add(id)
	w.listeners[id] = listener
	w.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			w.mu.Lock()
			defer w.mu.Unlock()
			w.ids.Remove(id)
			delete(w.listeners, id)
		})
	}
}

// Resize sets the width and notifies every listener
func (w *Window) Resize(width int) {
	w.mu.Lock()
	w.width = width
	listeners := make([]func(int), 0, len(w.listeners))
	for id := range w.ids.Iter() {
		if l, ok := w.listeners[id]; ok {
			listeners = append(listeners, l)
		}
	}
	w.mu.Unlock()

	for _, l := range listeners {
		l(width)
	}
}

// Listeners returns the number of registered resize listeners
func (w *Window) Listeners() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.ids.Length()
}
