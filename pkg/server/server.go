package server

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/vango-dev/eventroutes/pkg/history"
	"github.com/vango-dev/eventroutes/pkg/middleware"
	"github.com/vango-dev/eventroutes/pkg/router"
	"github.com/vango-dev/eventroutes/pkg/views"
)

// Server hosts the route table over HTTP: the JSON API, the SPA shell for
// every other path and WebSocket navigation sessions.
type Server struct {
	table  *router.Table
	views  *views.Registry
	config *ServerConfig

	// Navigation middleware installed on every session's Navigator.
	navMiddleware []router.Middleware

	// Metrics; nil disables recording and the /metrics endpoint.
	metrics  *middleware.Metrics
	gatherer prometheus.Gatherer

	upgrader websocket.Upgrader
	mux      chi.Router

	mu         sync.Mutex
	sessions   map[string]*Session
	httpServer *http.Server

	logger *slog.Logger
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithMetrics records navigations and resolutions in m and serves gatherer
// on /metrics.
func WithMetrics(m *middleware.Metrics, gatherer prometheus.Gatherer) Option {
	return func(s *Server) {
		s.metrics = m
		s.gatherer = gatherer
	}
}

// WithNavigationMiddleware adds middleware to every session's Navigator.
func WithNavigationMiddleware(mw ...router.Middleware) Option {
	return func(s *Server) {
		s.navMiddleware = append(s.navMiddleware, mw...)
	}
}

// New creates a server for table. registry supplies view titles and
// components; it may be nil.
func New(table *router.Table, registry *views.Registry, config *ServerConfig, opts ...Option) *Server {
	config = config.withDefaults()

	s := &Server{
		table:    table,
		views:    registry,
		config:   config,
		sessions: make(map[string]*Session),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  config.ReadBufferSize,
			WriteBufferSize: config.WriteBufferSize,
			CheckOrigin:     config.CheckOrigin,
		},
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	s.logger = s.logger.With("component", "server")
	s.mux = s.routes()
	return s
}

// routes builds the HTTP routing tree.
func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.Recoverer)

	r.Get("/healthz", s.handleHealth)
	if s.gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api", func(r chi.Router) {
		r.Get("/routes", s.handleRoutes)
		r.Get("/resolve", s.handleResolve)
		r.Get("/url", s.handleURL)
	})

	r.Get("/ws", s.HandleWebSocket)
	r.Get("/*", s.handleShell)
	r.Head("/*", s.handleShell)

	return r
}

// Handler returns the server's http.Handler for mounting in another router.
func (s *Server) Handler() http.Handler {
	return s.mux
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// Table returns the route table.
func (s *Server) Table() *router.Table {
	return s.table
}

// Config returns the server configuration.
func (s *Server) Config() *ServerConfig {
	return s.config
}

// Logger returns the server logger.
func (s *Server) Logger() *slog.Logger {
	return s.logger
}

// Sessions returns the number of open navigation sessions.
func (s *Server) Sessions() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// Run serves on the configured address until ctx is cancelled, then shuts
// down gracefully.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.config.Address)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve is like Run with an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	if err := s.config.Validate(); err != nil {
		ln.Close()
		return err
	}

	httpServer := &http.Server{
		Handler:           s.mux,
		ReadHeaderTimeout: s.config.ReadHeaderTimeout,
		ReadTimeout:       s.config.ReadTimeout,
		WriteTimeout:      s.config.WriteTimeout,
		IdleTimeout:       s.config.IdleTimeout,
	}
	s.mu.Lock()
	s.httpServer = httpServer
	s.mu.Unlock()

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server starting", "address", ln.Addr().String(), "base", s.table.Base())
		errCh <- httpServer.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		s.logger.Info("shutting down...")
		return s.Shutdown(context.Background())
	}
}

// Shutdown closes every session and gracefully stops the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.config.ShutdownTimeout)
	defer cancel()

	s.mu.Lock()
	sessions := make([]*Session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		sessions = append(sessions, sess)
	}
	httpServer := s.httpServer
	s.mu.Unlock()

	for _, sess := range sessions {
		sess.Close()
	}

	if httpServer != nil {
		if err := httpServer.Shutdown(ctx); err != nil {
			s.logger.Error("shutdown error", "error", err)
			return err
		}
	}

	s.logger.Info("server shutdown complete")
	return nil
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// newNavigator creates the Navigator for one session.
func (s *Server) newNavigator(logger *slog.Logger) *router.Navigator {
	mw := make([]router.Middleware, 0, len(s.navMiddleware)+1)
	if s.metrics != nil {
		mw = append(mw, s.metrics.Middleware())
	}
	mw = append(mw, s.navMiddleware...)

	return router.NewNavigator(s.table,
		router.WithHistory(history.New(s.config.SessionConfig.HistoryLimit)),
		router.WithMiddleware(mw...),
		router.WithLogger(logger),
	)
}

func (s *Server) addSession(sess *Session) {
	s.mu.Lock()
	s.sessions[sess.ID] = sess
	s.mu.Unlock()
	s.metrics.SessionOpened()
}

func (s *Server) removeSession(sess *Session) {
	s.mu.Lock()
	_, ok := s.sessions[sess.ID]
	delete(s.sessions, sess.ID)
	s.mu.Unlock()
	if ok {
		s.metrics.SessionClosed()
	}
}
