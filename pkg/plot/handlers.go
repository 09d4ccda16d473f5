package plot

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/raykavin/pricechart/pkg/storage"
)

// handleHealth reports whether the store can be read
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	status := http.StatusOK
	body := map[string]any{
		"status":   "ok",
		"sessions": s.Sessions(),
		"uptime":   time.Since(s.started).Round(time.Second).String(),
	}

	if _, err := s.store.Symbols(); err != nil {
		s.log.WithError(err).Error("health check failed")
		status = http.StatusServiceUnavailable
		body["status"] = "unavailable"
	}

	s.writeJSON(w, status, body)
}

// handleSymbols lists the stored symbols
func (s *Server) handleSymbols(w http.ResponseWriter, _ *http.Request) {
	symbols, err := s.store.Symbols()
	if err != nil {
		s.log.WithError(err).Error("failed to list symbols")
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	s.writeJSON(w, http.StatusOK, symbols)
}

// handleScript serves the transpiled page script
func (s *Server) handleScript(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/javascript")
	fmt.Fprint(w, s.scriptContent)
}

// handleIndex handles the main page request
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	symbols, err := s.store.Symbols()
	if err != nil {
		s.log.WithError(err).Error("failed to list symbols")
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	// Get requested symbol or redirect to first available symbol
	symbol := r.URL.Query().Get("symbol")
	if symbol == "" && len(symbols) > 0 {
		http.Redirect(w, r, "/?symbol="+url.QueryEscape(symbols[0]), http.StatusFound)
		return
	}

	w.Header().Set("Content-Type", "text/html")
	err = s.indexHTML.Execute(w, map[string]any{
		"symbol":    symbol,
		"symbols":   symbols,
		"chartKind": s.chart.ChartKind.String(),
		"timeRange": string(s.chart.TimeRange),
		"theme":     s.chart.Theme.String(),
		"height":    s.chart.HeightPx,
	})

	if err != nil {
		s.log.WithError(err).Error("template execution failed")
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}

// handleWebSocket opens a chart session for one symbol
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	symbol := r.URL.Query().Get("symbol")
	if symbol == "" {
		http.Error(w, "Missing symbol parameter", http.StatusBadRequest)
		return
	}

	batch, err := s.store.Batch(symbol)
	if errors.Is(err, storage.ErrNotFound) {
		http.Error(w, "Unknown symbol", http.StatusNotFound)
		return
	}
	if err != nil {
		s.log.WithError(err).Error("failed to load batch")
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	width := s.width
	if v, err := strconv.Atoi(r.URL.Query().Get("width")); err == nil && v > 0 {
		width = v
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.WithError(err).Error("failed to upgrade connection to websocket")
		return
	}

	sess := newSession(s.log, conn, batch, s.chart, width)
	s.register(sess)
	go sess.writePump()

	sess.render()
	sess.readPump()

	sess.close()
	s.unregister(sess)
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.log.WithError(err).Error("failed to write response")
	}
}

// requestLogger logs every request once it completes
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.log.WithFields(map[string]any{
			"method":      r.Method,
			"path":        r.URL.Path,
			"status":      ww.Status(),
			"bytes":       ww.BytesWritten(),
			"duration_ms": time.Since(start).Milliseconds(),
			"request_id":  middleware.GetReqID(r.Context()),
		}).Debug("http request")
	})
}
