package plot

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"sync"
	"time"

	"github.com/evanw/esbuild/pkg/api"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"github.com/raykavin/pricechart/pkg/core"
	"github.com/raykavin/pricechart/pkg/logger"
	"github.com/raykavin/pricechart/pkg/storage"
)

// Static assets embedded in the binary
var (
	//go:embed assets
	staticFiles embed.FS
)

// Server serves the chart page and one websocket session per open chart
type Server struct {
	sync.Mutex

	log           logger.Logger
	store         storage.Store
	chart         core.ChartConfiguration
	width         int
	debug         bool
	scriptContent string
	indexHTML     *template.Template
	upgrader      websocket.Upgrader
	sessions      map[string]*session
	started       time.Time
}

// Option defines a function type for configuring a Server instance
type Option func(*Server)

// WithChartDefaults sets the configuration of new sessions
func WithChartDefaults(cfg core.ChartConfiguration) Option {
	return func(s *Server) {
		s.chart = cfg
	}
}

// WithWidth sets the container width assumed until the page reports its own
func WithWidth(width int) Option {
	return func(s *Server) {
		s.width = width
	}
}

// WithDebug enables debug mode (disables minification)
func WithDebug() Option {
	return func(s *Server) {
		s.debug = true
	}
}

// NewServer creates a chart server reading batches from the store
func NewServer(log logger.Logger, store storage.Store, options ...Option) (*Server, error) {
	s := &Server{
		log:      log,
		store:    store,
		chart:    core.DefaultChartConfiguration(),
		width:    960,
		sessions: make(map[string]*session),
		started:  time.Now(),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
	}

	for _, option := range options {
		option(s)
	}

	var err error
	s.indexHTML, err = template.ParseFS(staticFiles, "assets/chart.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse chart template: %w", err)
	}

	chartJS, err := staticFiles.ReadFile("assets/chart.js")
	if err != nil {
		return nil, fmt.Errorf("failed to read chart.js: %w", err)
	}

	transpileChartJS := api.Transform(string(chartJS), api.TransformOptions{
		Loader:            api.LoaderJS,
		Target:            api.ES2015,
		MinifySyntax:      !s.debug,
		MinifyIdentifiers: !s.debug,
		MinifyWhitespace:  !s.debug,
	})

	if len(transpileChartJS.Errors) > 0 {
		return nil, fmt.Errorf("chart script failed with: %v", transpileChartJS.Errors)
	}

	s.scriptContent = string(transpileChartJS.Code)

	return s, nil
}

// Router returns the HTTP handler of the server
func (s *Server) Router() http.Handler {
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(s.requestLogger)
	router.Use(middleware.Recoverer)

	router.Get("/", s.handleIndex)
	router.Get("/assets/chart.js", s.handleScript)
	router.Get("/health", s.handleHealth)
	router.Get("/symbols", s.handleSymbols)
	router.Get("/ws", s.handleWebSocket)

	return router
}

// Start serves on addr until the context is cancelled
func (s *Server) Start(ctx context.Context, addr string) error {
	server := &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Infof("Chart available at http://%s", addr)
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	s.closeSessions()
	return server.Shutdown(shutdownCtx)
}

// Sessions returns the number of open websocket sessions
func (s *Server) Sessions() int {
	s.Lock()
	defer s.Unlock()
	return len(s.sessions)
}

func (s *Server) register(sess *session) {
	s.Lock()
	s.sessions[sess.id] = sess
	count := len(s.sessions)
	s.Unlock()

	sess.log.WithField("sessions", count).Info("websocket client connected")
}

func (s *Server) unregister(sess *session) {
	s.Lock()
	delete(s.sessions, sess.id)
	count := len(s.sessions)
	s.Unlock()

	sess.log.WithField("sessions", count).Info("websocket client disconnected")
}

func (s *Server) closeSessions() {
	s.Lock()
	sessions := make([]*session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		sessions = append(sessions, sess)
	}
	s.Unlock()

	for _, sess := range sessions {
		sess.close()
	}
}
