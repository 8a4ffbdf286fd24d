package main

import (
	"crypto/subtle"
	"net/http"
	"net/http/pprof"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/noah-isme/netcost/internal/calculator"
	"github.com/noah-isme/netcost/internal/common"
	"github.com/noah-isme/netcost/internal/config"
	"github.com/noah-isme/netcost/internal/health"
	"github.com/noah-isme/netcost/internal/obs"
	"github.com/noah-isme/netcost/internal/ratelimit"
	"github.com/noah-isme/netcost/internal/security"
	"github.com/noah-isme/netcost/internal/taxcredit"
	"github.com/noah-isme/netcost/internal/web"
)

type routerDeps struct {
	Config   *config.Config
	Logger   zerolog.Logger
	Registry *prometheus.Registry
	Limiter  ratelimit.Allower
	Health   health.Handler
	Tracing  bool
}

func newRouter(deps routerDeps) http.Handler {
	cfg := deps.Config
	logger := deps.Logger

	var (
		httpMetrics   *obs.HTTPMetrics
		domainMetrics *obs.DomainMetrics
	)
	if cfg.Obs.MetricsEnabled && deps.Registry != nil {
		buckets := obs.ParseBucketsCSV(cfg.Obs.MetricsBuckets)
		httpMetrics = obs.NewHTTPMetrics(cfg.Obs.MetricsNamespace, buckets, deps.Registry)
		domainMetrics = obs.NewDomainMetrics(cfg.Obs.MetricsNamespace, deps.Registry)
	}

	service := calculator.NewService(calculator.ServiceConfig{
		LegacyRegimeFallback: cfg.RegimeLegacyFallback,
		Metrics:              domainMetrics,
	})
	apiHandler := calculator.NewHandler(calculator.HandlerConfig{Service: service})

	csrf := security.CSRF{
		Cookie:   cfg.CSRFCookieName,
		Secure:   cfg.CSRFCookieSecure,
		SameSite: cfg.CookieSameSite,
	}
	page := web.NewPage(web.PageConfig{
		Title:         cfg.PageTitle,
		Footer:        cfg.PageFooter,
		DefaultRegime: taxcredit.NonCumulative,
	}, service, csrf)

	limit := ratelimit.Handler{
		Limiter: deps.Limiter,
		Config: ratelimit.Config{
			Key:    ratelimit.ByClientIP(cfg.TrustProxyHeaders),
			Window: cfg.RateLimitWindow,
			Max:    cfg.RateLimitMax,
		},
		OnError: func(err error) {
			logger.Warn().Err(err).Msg("rate limiter unavailable")
		},
		OnRejected: func(*http.Request) {
			domainMetrics.ObserveRateLimited()
		},
	}.Middleware

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	if cfg.TrustProxyHeaders {
		r.Use(proxiedRemoteAddr)
	}
	r.Use(middleware.Recoverer)
	r.Use(obs.RoutePatternMiddleware)
	if deps.Tracing {
		r.Use(obs.TracingMiddleware)
	}
	if httpMetrics != nil {
		r.Use(obs.HTTPObs{Metrics: httpMetrics}.Middleware)
	}
	r.Use(obs.RequestLogger{Logger: logger}.Middleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: allowedOrigins(cfg),
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-CSRF-Token"},
		MaxAge:         300,
	}))
	r.Use(security.Headers{Enable: cfg.SecurityHeaders, EnableHSTS: cfg.SecurityHSTS}.Middleware)
	r.Use(security.BodyLimit{Max: cfg.BodyLimitBytes}.Middleware)

	if httpMetrics != nil {
		r.Handle("/metrics", promhttp.HandlerFor(deps.Registry, promhttp.HandlerOpts{Registry: deps.Registry}))
	}
	if cfg.Obs.PprofEnabled {
		r.Mount("/debug/pprof", protectPprof(newPprofMux(), cfg.Obs.PprofUser, cfg.Obs.PprofPass))
	}

	r.Get("/health/live", deps.Health.Live)
	r.Get("/health/ready", deps.Health.Ready)

	r.Route("/api/v1", func(v chi.Router) {
		v.Get("/regimes", apiHandler.Regimes)
		v.Group(func(g chi.Router) {
			g.Use(limit)
			g.Post("/calculations", apiHandler.Create)
			g.Get("/calculations", apiHandler.Query)
		})
	})

	r.Group(func(p chi.Router) {
		p.Use(csrf.Middleware)
		p.Get("/", page.Show)
		p.With(limit).Post("/", page.Submit)
	})

	return r
}

// proxiedRemoteAddr replaces RemoteAddr with the hop recorded by the trusted
// proxy so logs and rate limiting agree on the caller.
func proxiedRemoteAddr(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if ip := common.ClientIP(r, true); ip != "" {
			r.RemoteAddr = ip
		}
		next.ServeHTTP(w, r)
	})
}

func allowedOrigins(cfg *config.Config) []string {
	if len(cfg.CORSAllowedOrigins) == 0 {
		return []string{"*"}
	}
	return cfg.CORSAllowedOrigins
}

func newPprofMux() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", pprof.Index)
	mux.HandleFunc("/cmdline", pprof.Cmdline)
	mux.HandleFunc("/profile", pprof.Profile)
	mux.HandleFunc("/symbol", pprof.Symbol)
	mux.HandleFunc("/trace", pprof.Trace)
	for _, name := range []string{"allocs", "block", "goroutine", "heap", "mutex", "threadcreate"} {
		mux.Handle("/"+name, pprof.Handler(name))
	}
	return mux
}

func protectPprof(handler http.Handler, user, pass string) http.Handler {
	user = strings.TrimSpace(user)
	pass = strings.TrimSpace(pass)
	if user == "" {
		return handler
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u, p, ok := r.BasicAuth()
		if !ok || subtle.ConstantTimeCompare([]byte(u), []byte(user)) != 1 || subtle.ConstantTimeCompare([]byte(p), []byte(pass)) != 1 {
			w.Header().Set("WWW-Authenticate", "Basic realm=restricted")
			http.Error(w, "unauthorised", http.StatusUnauthorized)
			return
		}
		handler.ServeHTTP(w, r)
	})
}
