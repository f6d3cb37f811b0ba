package http

import (
	"context"
	"html/template"
	"io/fs"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"billbook/internal/auth"
	"billbook/internal/chart"
	"billbook/internal/core"
	applog "billbook/internal/log"
	"billbook/internal/metrics"
	"billbook/internal/middleware/ratelimit"
	"billbook/internal/middleware/security"
	"billbook/internal/middleware/trace"
	"billbook/internal/services"
	"billbook/internal/storage"
	appweb "billbook/web"
)

// Deps are the collaborators the server routes to. Store is used for
// readiness only; all reads and writes go through the services.
type Deps struct {
	Store   storage.Store
	Bills   *services.BillService
	Clients *services.ClientService
	Reports *services.ReportService
	Auth    *auth.Authenticator

	Metrics  *metrics.Metrics
	Gatherer prometheus.Gatherer
	Logger   *applog.Logger

	Formatter          *core.Formatter
	PublicURL          string
	CORSAllowedOrigins []string
	RateLimitPerMinute int
}

type Server struct {
	http.Server
	deps      Deps
	templates *template.Template
	limiter   *ratelimit.Limiter
	detector  *security.Detector
	started   time.Time
	now       func() time.Time

	shutdownOnce sync.Once
}

// NewServer configures routes and templates, returning a ready-to-run server.
func NewServer(addr string, deps Deps) *Server {
	if deps.Logger == nil {
		deps.Logger = applog.New(applog.DefaultConfig()).WithComponent(applog.ComponentHTTP)
	}
	if deps.Formatter == nil {
		deps.Formatter = core.NewFormatter("en")
	}
	if deps.Gatherer == nil {
		deps.Gatherer = prometheus.DefaultGatherer
	}

	limitCfg := ratelimit.DefaultConfig()
	if deps.RateLimitPerMinute > 0 {
		limitCfg.RequestsPerMinute = deps.RateLimitPerMinute
	}

	s := &Server{
		deps:     deps,
		limiter:  ratelimit.NewLimiter(limitCfg),
		detector: security.NewDetector(),
		started:  time.Now(),
		now:      time.Now,
	}

	t, err := template.New("").Funcs(s.templateFuncs()).ParseFS(appweb.TemplatesFS, "templates/*.html")
	if err != nil {
		deps.Logger.Error("Failed parsing templates",
			applog.FieldError, err,
			applog.FieldErrorType, applog.ErrorTypeConfiguration)
	} else {
		s.templates = t
	}

	s.Server = http.Server{
		Addr:              addr,
		Handler:           s.routes(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s
}

func (s *Server) templateFuncs() template.FuncMap {
	f := s.deps.Formatter
	return template.FuncMap{
		"money":   f.Amount,
		"percent": f.Percent,
		"date":    func(d core.Date) string { return d.Format("2 Jan 2006") },
		"chart": func(title string, points []core.PeriodPoint) template.HTML {
			return chart.ProfitLossBars(points, chart.Opts{Title: title})
		},
	}
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()

	r.Use(trace.NewMiddleware(s.deps.Logger, s.detector.ExtractClientIP).Middleware)
	r.Use(s.deps.Metrics.Middleware)
	r.Use(security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware)
	r.Use(s.detector.Middleware)
	if len(s.deps.CORSAllowedOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   s.deps.CORSAllowedOrigins,
			AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodOptions},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", trace.HeaderRequestID},
			ExposedHeaders:   []string{trace.HeaderRequestID, "HX-Trigger"},
			AllowCredentials: true,
			MaxAge:           300,
		}))
	}
	r.Use(s.limiter.Middleware(s.detector.ExtractClientIP, s.onRateLimited))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		NotFoundError("no such route").Write(w)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		MethodNotAllowedError().Write(w)
	})

	r.Get("/healthz", s.handleHealth)
	r.Get("/readyz", s.handleReady)
	r.Handle("/metrics", promhttp.HandlerFor(s.deps.Gatherer, promhttp.HandlerOpts{}))

	if sub, err := fs.Sub(appweb.StaticFS, "static"); err == nil {
		static := http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
		r.With(security.StaticAssetMiddleware(3600)).Handle("/static/*", static)
	}

	r.Group(func(authed chi.Router) {
		authed.Use(s.deps.Auth.Middleware(s.onAuthError))

		authed.Route("/api", func(api chi.Router) {
			api.Route("/bills", func(b chi.Router) {
				b.Get("/", s.handleListBills)
				b.Post("/", s.handleCreateBill)
				b.Post("/preview", s.handlePreviewBill)
				b.Route("/{id}", func(one chi.Router) {
					one.Get("/", s.handleGetBill)
					one.Delete("/", s.handleDeleteBill)
					one.Patch("/status", s.handleUpdateStatus)
					one.Get("/csv", s.handleBillCSV)
				})
			})
			api.Route("/clients", func(c chi.Router) {
				c.Get("/", s.handleListClients)
				c.Post("/", s.handleSaveClient)
				c.Delete("/{id}", s.handleDeleteClient)
			})
			api.Get("/reports/profit-loss", s.handleProfitLoss)
			api.Get("/reports/profit-loss.csv", s.handleProfitLossCSV)
		})

		authed.Get("/", s.handleIndexPage)
		authed.Get("/bills/{id}", s.handleBillPage)
		authed.Get("/reports/profit-loss", s.handleProfitLossPage)
	})

	return r
}

func (s *Server) onRateLimited(w http.ResponseWriter, r *http.Request) {
	s.deps.Metrics.RateLimitHit()
	applog.FromContext(r.Context()).WithComponent(applog.ComponentRateLimit).WarnContext(r.Context(), "Rate limit exceeded",
		applog.FieldClientIP, s.detector.ExtractClientIP(r),
		applog.FieldMethod, r.Method,
		applog.FieldPath, r.URL.Path)
	ErrorResponse(http.StatusTooManyRequests, CodeRateLimited, "rate limit exceeded, try again later", nil).Write(w)
}

func (s *Server) onAuthError(w http.ResponseWriter, r *http.Request, err error) {
	applog.FromContext(r.Context()).WithComponent(applog.ComponentAuth).WarnContext(r.Context(), "Unauthenticated request",
		applog.FieldPath, r.URL.Path,
		applog.FieldError, err,
		applog.FieldErrorType, applog.ErrorTypeAuth)
	if !strings.HasPrefix(r.URL.Path, "/api/") && wantsHTML(r) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`<!doctype html><title>Sign in required</title><p>Sign in required.</p>`))
		return
	}
	UnauthorizedError("authentication required").Write(w)
}

// Shutdown stops the rate limiter and drains the HTTP server. Safe to call more than once.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.limiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}
