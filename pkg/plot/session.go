package plot

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/raykavin/pricechart/pkg/core"
	"github.com/raykavin/pricechart/pkg/feed"
	"github.com/raykavin/pricechart/pkg/logger"
	"github.com/raykavin/pricechart/pkg/viewport"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = 54 * time.Second
	outboundBuffer = 512
	maxMessageSize = 64 * 1024
)

// session is one websocket client. The page is the rendering surface and
// its chart container, the session owns the viewport driving it.
type session struct {
	id     string
	symbol string
	log    logger.Logger
	conn   *websocket.Conn
	batch  feed.Batch
	config core.ChartConfiguration

	window     *viewport.Window
	controller *viewport.Controller

	mu       sync.Mutex
	outbound chan WebSocketMessage
	current  *remoteSurface
	closed   bool
}

func newSession(log logger.Logger, conn *websocket.Conn, batch feed.Batch, cfg core.ChartConfiguration, width int) *session {
	s := &session{
		id:       uuid.NewString(),
		symbol:   batch.Symbol,
		conn:     conn,
		batch:    batch,
		config:   cfg,
		window:   viewport.NewWindow(width),
		outbound: make(chan WebSocketMessage, outboundBuffer),
	}
	s.log = log.WithFields(map[string]any{"session": s.id, "symbol": s.symbol})
	s.controller = viewport.NewController(s.log, s.newSurface, s.window,
		viewport.WithLegendListener(s.pushLegend))

	return s
}

// newSurface is the surface factory of the session viewport
func (s *session) newSurface(opts core.SurfaceOptions) (core.Surface, error) {
	surface := newRemoteSurface(uuid.NewString(), s.enqueue)

	s.mu.Lock()
	s.current = surface
	s.mu.Unlock()

	s.enqueue(WebSocketMessage{
		Type:    MessageSurfaceCreate,
		Payload: surfacePayload{Surface: surface.id, Options: &opts},
	})
	return surface, nil
}

func (s *session) enqueue(msg WebSocketMessage) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}

	select {
	case s.outbound <- msg:
	default:
		s.log.WithField("type", msg.Type).Warn("outbound queue full, message dropped")
	}
}

func (s *session) pushLegend(snapshot *core.LegendSnapshot) {
	s.enqueue(WebSocketMessage{
		Type:    MessageLegend,
		Payload: legendPayload{Symbol: s.symbol, Legend: snapshot},
	})
}

func (s *session) pushError(err error) {
	s.enqueue(WebSocketMessage{Type: MessageError, Payload: errorPayload{Message: err.Error()}})
}

// render rebuilds the chart for the current configuration
func (s *session) render() {
	input := viewport.Input{
		Primary:    feed.Window(s.batch, s.config.TimeRange).Primary,
		Prediction: s.batch.Prediction,
	}

	if err := s.controller.Render(input, s.config); err != nil {
		s.pushError(err)
	}
}

func (s *session) handle(msg inboundMessage) {
	switch msg.Type {
	case MessageConfig:
		cfg := s.config
		if err := json.Unmarshal(msg.Payload, &cfg); err != nil {
			s.log.WithError(err).Warn("invalid chart configuration")
			s.pushError(err)
			return
		}
		if cfg == s.config && s.controller.State() == viewport.StateReady {
			return
		}
		s.config = cfg
		s.render()

	case MessageCrosshair:
		var payload crosshairPayload
		if err := json.Unmarshal(msg.Payload, &payload); err != nil {
			s.log.WithError(err).Debug("invalid crosshair message")
			return
		}

		s.mu.Lock()
		surface := s.current
		s.mu.Unlock()

		// moves reported by a surface that was already replaced are dropped
		if surface == nil || surface.id != payload.Surface {
			return
		}
		surface.dispatch(payload.event())

	case MessageResize:
		var payload resizePayload
		if err := json.Unmarshal(msg.Payload, &payload); err != nil || payload.Width <= 0 {
			s.log.Debug("invalid resize message")
			return
		}
		s.window.Resize(payload.Width)

	default:
		s.log.WithField("type", msg.Type).Debug("unknown message type")
	}
}

// readPump processes browser messages until the connection closes
func (s *session) readPump() {
	s.conn.SetReadLimit(maxMessageSize)
	_ = s.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var msg inboundMessage
		if err := s.conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.log.WithError(err).Warn("websocket read error")
			}
			return
		}
		s.handle(msg)
	}
}

// writePump is the only writer of the connection
func (s *session) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = s.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-s.outbound:
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = s.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := s.conn.WriteJSON(msg); err != nil {
				s.log.WithError(err).Warn("websocket write error")
				return
			}

		case <-ticker.C:
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// close releases the viewport and stops the writer
func (s *session) close() {
	s.controller.Close()

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	s.closed = true
	s.current = nil
	close(s.outbound)
}
