package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/hitoshi/mesto/internal/metrics"
	"github.com/hitoshi/mesto/internal/middleware"
	"github.com/hitoshi/mesto/internal/model"
)

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	TokenVerifier      middleware.TokenVerifier
	CORSAllowedOrigins []string
	RateLimiter        *middleware.RateLimiter
	Logger             *slog.Logger

	// 観測
	Metrics         *metrics.Collector
	MetricsGatherer prometheus.Gatherer
	HealthChecker   HealthChecker

	// サービス
	AuthService AuthServiceInterface
	UserService UserServiceInterface
	CardService CardServiceInterface
}

// NewRouter は全APIエンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	RequestID → RealIP → Logging → Recovery → Metrics → SecurityHeaders → CORS → RateLimit
//
// /signup, /signin, /health, /metrics は認証不要。それ以外のAPIはBearerトークンが必要。
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.NewLoggingMiddleware(logger))
	r.Use(middleware.NewRecoveryMiddleware())
	if deps.Metrics != nil {
		r.Use(deps.Metrics.Middleware())
	}
	r.Use(middleware.NewSecurityHeadersMiddleware())
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigins))
	if deps.RateLimiter != nil {
		r.Use(deps.RateLimiter.Middleware())
	}

	r.NotFound(notFound)
	r.MethodNotAllowed(notFound)

	authHandler := NewAuthHandler(deps.AuthService)
	userHandler := NewUserHandler(deps.UserService)
	cardHandler := NewCardHandler(deps.CardService)

	// --- 認証不要のルート ---
	r.Get("/health", NewHealthHandler(deps.HealthChecker))
	if deps.MetricsGatherer != nil {
		r.Method(http.MethodGet, "/metrics", metrics.Handler(deps.MetricsGatherer))
	}
	r.Post("/signup", authHandler.SignUp)
	r.Post("/signin", authHandler.SignIn)

	// --- 認証が必要なルート ---
	var recorder middleware.AuthFailureRecorder
	if deps.Metrics != nil {
		recorder = deps.Metrics
	}

	r.Group(func(r chi.Router) {
		r.Use(middleware.NewAuthMiddleware(deps.TokenVerifier, recorder))

		// ユーザー管理
		r.Route("/users", func(r chi.Router) {
			r.Get("/", userHandler.List)
			r.Get("/me", userHandler.Me)
			r.Patch("/me", userHandler.UpdateProfile)
			r.Patch("/me/avatar", userHandler.UpdateAvatar)
			r.Get("/{userId}", userHandler.Get)
		})

		// カード管理
		r.Route("/cards", func(r chi.Router) {
			r.Get("/", cardHandler.List)
			r.Post("/", cardHandler.Create)

			r.Route("/{cardId}", func(r chi.Router) {
				r.Delete("/", cardHandler.Delete)
				r.Put("/likes", cardHandler.Like)
				r.Delete("/likes", cardHandler.Dislike)
			})
		})
	})

	return r
}

// notFound は未定義ルートと未対応メソッドの両方に404を返す。
func notFound(w http.ResponseWriter, _ *http.Request) {
	middleware.WriteError(w, model.NewNotFoundError(model.MsgPageNotFound))
}
