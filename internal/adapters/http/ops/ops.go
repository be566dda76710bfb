// Package ops serves the operational endpoints of the engine: health with
// circuit breaker states, Prometheus metrics and runtime stats.
package ops

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"runtime"
	"sort"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/okian/eventrec/pkg/logger"
	"github.com/okian/eventrec/pkg/metrics"
)

// HTTP server timeouts.
const (
	readTimeout       = 10 * time.Second
	writeTimeout      = 10 * time.Second
	idleTimeout       = 60 * time.Second
	readHeaderTimeout = 5 * time.Second
	shutdownTimeout   = 30 * time.Second
)

const (
	statusOK       = "ok"
	statusDegraded = "degraded"
	breakerClosed  = "closed"
)

// Check reports the circuit state of one guarded collaborator.
type Check interface {
	Name() string
	State() string
}

// StatsProvider exposes service statistics.
type StatsProvider interface {
	GetStats() map[string]interface{}
}

// Health is the /healthz body.
type Health struct {
	Status   string            `json:"status"`
	Breakers map[string]string `json:"breakers,omitempty"`
}

// Server wires the ops routes.
type Server struct {
	checks         []Check
	stats          StatsProvider
	logger         logger.Logger
	systemInterval time.Duration
}

// Option configures a Server.
type Option func(*Server)

// WithCheck adds a breaker to the health report.
func WithCheck(c Check) Option {
	return func(s *Server) {
		if c != nil {
			s.checks = append(s.checks, c)
		}
	}
}

// WithStats sets the provider served on /stats.
func WithStats(p StatsProvider) Option {
	return func(s *Server) { s.stats = p }
}

// WithLogger sets the server logger.
func WithLogger(l logger.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithSystemMetricsInterval sets how often process metrics are sampled while
// running. Zero disables sampling.
func WithSystemMetricsInterval(d time.Duration) Option {
	return func(s *Server) {
		if d >= 0 {
			s.systemInterval = d
		}
	}
}

// New creates an ops server.
func New(opts ...Option) *Server {
	s := &Server{
		logger:         logger.Nop(),
		systemInterval: 10 * time.Second,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register attaches the ops routes to mux.
func (s *Server) Register(mux *http.ServeMux) {
	mux.HandleFunc("/healthz", MetricsMiddleware(s.HandleHealth, "healthz"))
	mux.HandleFunc("/stats", MetricsMiddleware(s.HandleStats, "stats"))
	mux.Handle("/metrics", promhttp.HandlerFor(metrics.GetRegistry(), promhttp.HandlerOpts{}))
}

// Handler returns a mux with every ops route.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	s.Register(mux)
	return mux
}

// Health evaluates every registered check. Any breaker that is not closed
// degrades the service.
func (s *Server) Health() Health {
	h := Health{Status: statusOK}
	if len(s.checks) == 0 {
		return h
	}
	h.Breakers = make(map[string]string, len(s.checks))
	for _, c := range s.checks {
		state := c.State()
		h.Breakers[c.Name()] = state
		if state != breakerClosed {
			h.Status = statusDegraded
		}
	}
	return h
}

// HandleHealth handles GET /healthz.
func (s *Server) HandleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	h := s.Health()
	code := http.StatusOK
	if h.Status != statusOK {
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, h)
}

// HandleStats handles GET /stats.
func (s *Server) HandleStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	stats := map[string]interface{}{}
	if s.stats != nil {
		stats = s.stats.GetStats()
	}
	names := make([]string, 0, len(s.checks))
	for _, c := range s.checks {
		names = append(names, c.Name())
	}
	sort.Strings(names)
	stats["collaborators"] = names
	stats["goroutines"] = runtime.NumGoroutine()
	writeJSON(w, http.StatusOK, stats)
}

// Run serves the ops routes on addr until ctx is done, then shuts down
// gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve is Run over an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.Handler(),
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	if s.systemInterval > 0 {
		go s.updateSystemMetrics(ctx)
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info(ctx, "starting ops server", logger.String("addr", ln.Addr().String()))
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.logger.Info(ctx, "shutting down ops server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		s.logger.Error(ctx, "ops server shutdown failed", logger.Error(err))
		return err
	}
	s.logger.Info(ctx, "ops server stopped")
	return nil
}

func (s *Server) updateSystemMetrics(ctx context.Context) {
	ticker := time.NewTicker(s.systemInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			var m runtime.MemStats
			runtime.ReadMemStats(&m)
			metrics.UpdateSystemMemoryUsage(m.Alloc)
			metrics.UpdateSystemGoroutineCount(runtime.NumGoroutine())
		}
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
