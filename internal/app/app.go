// Package app はmestoの起動処理（依存関係のワイヤリングとサブコマンド）を提供する。
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/hitoshi/mesto/internal/auth"
	"github.com/hitoshi/mesto/internal/card"
	"github.com/hitoshi/mesto/internal/client"
	"github.com/hitoshi/mesto/internal/config"
	"github.com/hitoshi/mesto/internal/database"
	"github.com/hitoshi/mesto/internal/handler"
	"github.com/hitoshi/mesto/internal/logger"
	"github.com/hitoshi/mesto/internal/metrics"
	"github.com/hitoshi/mesto/internal/middleware"
	"github.com/hitoshi/mesto/internal/repository"
	"github.com/hitoshi/mesto/internal/security"
	"github.com/hitoshi/mesto/internal/user"
	"github.com/hitoshi/mesto/internal/validation"
)

const (
	dbPingTimeout          = 5 * time.Second
	dbPingAttempts         = 5
	shutdownTimeout        = 30 * time.Second
	healthcheckTimeout     = 5 * time.Second
	defaultHealthcheckPort = "3000"
)

// Init はアプリケーションの初期化を行う。
// 環境変数からConfigを読み込み、LOG_LEVELに従ってJSON構造化ログをセットアップする。
// writerが指定された場合はログ出力先としてそのwriterを使用する。
func Init(w io.Writer) (*config.Config, error) {
	// 1. ログの初期化（設定読み込み前にログを使えるようにする）
	logger.SetupDefault(w, slog.LevelInfo)

	// 2. 環境変数から設定を読み込む
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	// 3. 設定されたログレベルで再設定する
	logger.SetupDefault(w, logger.ParseLevel(cfg.LogLevel))

	return cfg, nil
}

// stores はストアドライバごとのリポジトリ実装と後処理をまとめたもの。
type stores struct {
	users  repository.UserRepository
	cards  repository.CardRepository
	health handler.HealthChecker
	close  func() error
}

// openStores はSTORE_DRIVERに応じてリポジトリを初期化する。
// postgresの場合は接続確認まで行う。
func openStores(ctx context.Context, cfg *config.Config) (*stores, error) {
	if cfg.StoreDriver == config.StoreDriverMemory {
		slog.Warn("using in-memory store, data is lost on restart")
		users := repository.NewMemoryUserRepo()
		return &stores{
			users: users,
			cards: repository.NewMemoryCardRepo(users),
			close: func() error { return nil },
		}, nil
	}

	db, err := database.Open(cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	if err := database.PingWithRetry(ctx, db, dbPingAttempts, dbPingTimeout); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	slog.Info("database connection established",
		slog.String("database_url", maskDatabaseURL(cfg.DatabaseURL)),
	)

	return &stores{
		users:  repository.NewPostgresUserRepo(db),
		cards:  repository.NewPostgresCardRepo(db),
		health: db,
		close:  db.Close,
	}, nil
}

// newHandler は設定とストアから全依存関係をワイヤリングしたHTTPハンドラーを返す。
func newHandler(cfg *config.Config, st *stores, reg *prometheus.Registry) (http.Handler, error) {
	// 1. 認証
	tokens, err := auth.NewTokenService(auth.TokenConfig{
		Secret: []byte(cfg.SecretKey),
		TTL:    cfg.TokenTTL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create token service: %w", err)
	}
	hasher := auth.NewPasswordHasher(cfg.BcryptCost)

	// 2. 入力検証
	validator := validation.New(security.NewTextSanitizer(), security.NewURLGuard())

	// 3. ドメインサービス
	userService := user.NewService(st.users, hasher, tokens, validator)
	cardService := card.NewService(st.cards, validator)

	// 4. メトリクスとレート制限
	collector := metrics.NewCollector(reg)
	limiter := middleware.NewRateLimiter(middleware.RateLimiterConfig{
		Max:    cfg.RateLimitMax,
		Window: cfg.RateLimitWindow,
	})
	if err := collector.TrackRateLimiterEntries(limiter.LimiterCount); err != nil {
		return nil, fmt.Errorf("failed to register rate limiter gauge: %w", err)
	}

	// 5. ルーター
	deps := &handler.RouterDeps{
		TokenVerifier:      tokens,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		RateLimiter:        limiter,
		Logger:             slog.Default(),
		Metrics:            collector,
		MetricsGatherer: reg,
		HealthChecker:   st.health,
		AuthService:     userService,
		UserService:     userService,
		CardService:     cardService,
	}

	return handler.NewRouter(deps), nil
}

// newRegistry はプロセス・ランタイムのコレクタを登録したレジストリを返す。
func newRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

// runServe はAPIサーバーを起動する。
// ctxがキャンセルされるとグレースフルシャットダウンを行う。
func runServe(ctx context.Context, cfg *config.Config) error {
	st, err := openStores(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := st.close(); err != nil {
			slog.Error("failed to close store", slog.String("error", err.Error()))
		}
	}()

	router, err := newHandler(cfg, st, newRegistry())
	if err != nil {
		return err
	}

	server := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("API server starting",
			slog.String("addr", server.Addr),
			slog.String("store_driver", cfg.StoreDriver),
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server listen error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	slog.Info("shutting down API server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	slog.Info("API server stopped gracefully")
	return nil
}

// runMigrate はデータベースマイグレーションを指定方向に実行する。
// upは未適用分をすべて適用し、downはすべて巻き戻す。
func runMigrate(cfg *config.Config, direction database.Direction) error {
	if cfg.StoreDriver == config.StoreDriverMemory {
		slog.Info("in-memory store selected, nothing to migrate")
		return nil
	}

	slog.Info("running database migrations",
		slog.String("direction", string(direction)),
		slog.String("database_url", maskDatabaseURL(cfg.DatabaseURL)),
	)

	if err := database.Migrate(cfg.DatabaseURL, direction); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	slog.Info("database migrations completed successfully")
	return nil
}

// runHealthcheck はヘルスチェックを実行する。
// distroless環境でのDockerヘルスチェック用サブコマンド。
// /health エンドポイントにHTTPリクエストを送り、結果を返す。
func runHealthcheck(ctx context.Context, baseURL string) error {
	ctx, cancel := context.WithTimeout(ctx, healthcheckTimeout)
	defer cancel()

	c := client.New(baseURL, &http.Client{Timeout: healthcheckTimeout})
	if err := c.Health(ctx); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	return nil
}

// maskDatabaseURL はデータベースURLのパスワードをマスクする。
func maskDatabaseURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return "***"
	}
	return u.Redacted()
}
