// Package server exposes project evaluation over HTTP.
package server

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/chazu/upfit/internal/logging"
	"github.com/chazu/upfit/internal/observability"
	"github.com/chazu/upfit/pkg/catalog"
	"github.com/chazu/upfit/pkg/engine"
	"github.com/chazu/upfit/pkg/evaluate"
)

// defaultMaxBody caps request bodies.
const defaultMaxBody = 4 << 20

// Options configures a Server. Zero values are usable.
type Options struct {
	Logger          logging.Logger
	Metrics         *observability.Collector
	EvaluateOptions []evaluate.Option
	ScriptTimeout   time.Duration
	MaxBodyBytes    int64
}

// Server serves the evaluation API.
type Server struct {
	catalog *catalog.Catalog
	log     logging.Logger
	metrics *observability.Collector
	tracer  trace.Tracer
	evalOpt []evaluate.Option
	timeout time.Duration
	maxBody int64
}

// New builds a server over cat.
func New(cat *catalog.Catalog, opts Options) *Server {
	s := &Server{
		catalog: cat,
		log:     opts.Logger,
		metrics: opts.Metrics,
		tracer:  otel.Tracer(observability.TracerName),
		evalOpt: opts.EvaluateOptions,
		timeout: opts.ScriptTimeout,
		maxBody: opts.MaxBodyBytes,
	}
	if s.log == nil {
		s.log = logging.Noop()
	}
	if s.timeout <= 0 {
		s.timeout = engine.EvalTimeout
	}
	if s.maxBody <= 0 {
		s.maxBody = defaultMaxBody
	}
	return s
}

// Handler returns the routed API.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(s.requestContext)

	r.Get("/healthz", s.handleHealth)
	r.Route("/v1", func(r chi.Router) {
		r.Get("/catalog/modules", s.handleModules)
		r.Get("/catalog/vehicles", s.handleVehicles)
		r.Post("/evaluate", s.handleEvaluate)
		r.Post("/exports/{format}", s.handleExport)
		r.Post("/scripts/evaluate", s.handleScript)
	})
	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics.Handler())
	}
	return r
}

// requestContext tags every request with an id, echoed in X-Request-ID, and
// a logger carrying it.
func (s *Server) requestContext(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if id := r.Header.Get("X-Request-ID"); id != "" {
			ctx = logging.ContextWithRequestID(ctx, id)
		}
		ctx, log := logging.WithRequestLogger(ctx, s.log)
		w.Header().Set("X-Request-ID", logging.RequestIDFromContext(ctx))

		start := time.Now()
		next.ServeHTTP(w, r.WithContext(logging.ContextWithLogger(ctx, log)))
		log.Debug(ctx, "request served",
			logging.String("method", r.Method),
			logging.String("path", r.URL.Path),
			logging.Duration("duration", time.Since(start)))
	})
}
