package middleware

import (
	"log/slog"
	"math"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"
)

// MsgTooManyRequests はレート制限超過時のメッセージ。
const MsgTooManyRequests = "too many requests, please try again later"

// RateLimiterConfig はレート制限の設定を保持する。
type RateLimiterConfig struct {
	Max    int           // Window内に許可するリクエスト数
	Window time.Duration // 制限の時間枠
}

// DefaultRateLimiterConfig はデフォルトのレート制限設定を返す。
// クライアントIPごとに15分あたり100リクエスト。
func DefaultRateLimiterConfig() RateLimiterConfig {
	return RateLimiterConfig{
		Max:    100,
		Window: 15 * time.Minute,
	}
}

// RateLimiter はクライアントIPごとのレート制限を管理する。
// トークンバケットはWindowでMax個が補充され、バーストはMaxまで許可する。
// 最終アクセスからWindowが経過したエントリはバケットが満杯に戻っているため、
// go-cacheの有効期限で破棄する。
type RateLimiter struct {
	config   RateLimiterConfig
	limit    rate.Limit
	limiters *cache.Cache
}

// NewRateLimiter は新しいRateLimiterを生成する。
func NewRateLimiter(config RateLimiterConfig) *RateLimiter {
	if config.Max <= 0 || config.Window <= 0 {
		config = DefaultRateLimiterConfig()
	}
	return &RateLimiter{
		config:   config,
		limit:    rate.Limit(float64(config.Max) / config.Window.Seconds()),
		limiters: cache.New(config.Window, config.Window),
	}
}

// Middleware はクライアントIPごとのレート制限ミドルウェアを返す。
// chiのRealIPミドルウェアの後に配置し、RemoteAddrをクライアントIPにしておくこと。
func (rl *RateLimiter) Middleware() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := clientIP(r)

			if !rl.limiterFor(ip).Allow() {
				slog.Warn("rate limit exceeded",
					slog.String("client_ip", ip),
					slog.String("path", r.URL.Path),
				)
				rl.writeRateLimitResponse(w)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// LimiterCount は現在管理されているリミッターのエントリ数を返す。
// metrics.Collectorのゲージから参照される。
func (rl *RateLimiter) LimiterCount() int {
	return rl.limiters.ItemCount()
}

// limiterFor はIPのリミッターを取得または作成し、有効期限を延長する。
func (rl *RateLimiter) limiterFor(ip string) *rate.Limiter {
	if v, ok := rl.limiters.Get(ip); ok {
		limiter := v.(*rate.Limiter)
		rl.limiters.Set(ip, limiter, cache.DefaultExpiration)
		return limiter
	}

	limiter := rate.NewLimiter(rl.limit, rl.config.Max)
	if err := rl.limiters.Add(ip, limiter, cache.DefaultExpiration); err != nil {
		// 同時に作成された場合は先に登録されたものを使う
		if v, ok := rl.limiters.Get(ip); ok {
			return v.(*rate.Limiter)
		}
	}
	return limiter
}

// writeRateLimitResponse は429 Too Many Requestsレスポンスを書き込む。
// Retry-Afterヘッダーには1トークンが補充されるまでの秒数を設定する。
func (rl *RateLimiter) writeRateLimitResponse(w http.ResponseWriter) {
	retryAfterSec := int(math.Ceil(1.0 / float64(rl.limit)))
	if retryAfterSec < 1 {
		retryAfterSec = 1
	}

	w.Header().Set("Retry-After", strconv.Itoa(retryAfterSec))
	WriteJSON(w, http.StatusTooManyRequests, ErrorResponseBody{Message: MsgTooManyRequests})
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
