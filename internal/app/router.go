package app

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/tempizhere/shortlink/internal/middleware"
)

// RouterConfig задаёт параметры маршрутизации
type RouterConfig struct {
	// APIPrefix задаёт общий префикс маршрутов API, например "/api/v1"
	APIPrefix string
	// RequestTimeout ограничивает время обработки запроса; 0 отключает ограничение
	RequestTimeout time.Duration
	// TrustedSubnet задаёт подсеть, которой доступен /metrics
	TrustedSubnet string
	// AllowedOrigins для CORS; пустой список разрешает все источники
	AllowedOrigins []string
}

// NewRouter собирает маршрутизатор со всеми middleware
func NewRouter(a *App, cfg RouterConfig) http.Handler {
	origins := cfg.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(middleware.LoggingMiddleware(a.logger))
	r.Use(chimw.Recoverer)
	if a.metrics != nil {
		r.Use(middleware.MetricsMiddleware(a.metrics))
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "Content-Encoding"},
		ExposedHeaders: []string{"Location"},
		MaxAge:         300,
	}))
	r.Use(middleware.GzipMiddleware)
	if cfg.RequestTimeout > 0 {
		r.Use(chimw.Timeout(cfg.RequestTimeout))
	}

	if cfg.APIPrefix == "" {
		a.mountAPI(r)
	} else {
		r.Route(cfg.APIPrefix, a.mountAPI)
	}

	if a.metrics != nil {
		r.With(middleware.TrustedSubnetMiddleware(cfg.TrustedSubnet, a.logger)).
			Handle("/metrics", a.metrics.Handler())
	}

	return r
}

// mountAPI регистрирует маршруты API. Статические пути имеют приоритет над /{id}.
func (a *App) mountAPI(r chi.Router) {
	r.Get("/ping", a.HandlePing)
	r.Post("/user/signup", a.HandleSignup)
	r.Post("/user/login", a.HandleLogin)

	r.Get("/", a.HandleMissingCode)
	r.Get("/{id}", a.HandleRedirect)

	r.Group(func(r chi.Router) {
		r.Use(middleware.AuthMiddleware(a.issuer, a.logger))
		r.Post("/shorten", a.HandleShorten)
		r.Get("/codes", a.HandleListCodes)
		r.Delete("/", a.HandleMissingID)
		r.Delete("/{id}", a.HandleDelete)
	})
}
