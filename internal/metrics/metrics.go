// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// ルートが一致しなかったリクエストのrouteラベル値
const unmatchedRoute = "unmatched"

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	reg          prometheus.Registerer
	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec
	authFailures *prometheus.CounterVec
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		reg:          reg,
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "mesto_http_requests_total",
			Help: "メソッド、ルート、ステータスコード別のHTTPリクエスト数",
		}, []string{"method", "route", "status_code"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "mesto_http_request_duration_seconds",
			Help:    "HTTPリクエストの処理時間（秒）",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
		authFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "mesto_auth_failures_total",
			Help: "認証ミドルウェアで拒否されたリクエスト数",
		}, []string{"reason"}),
	}

	reg.MustRegister(
		c.httpRequests,
		c.httpDuration,
		c.authFailures,
	)

	return c
}

// RecordHTTPRequest はHTTPリクエストの結果と処理時間を記録する。
func (c *Collector) RecordHTTPRequest(method, route string, statusCode int, duration time.Duration) {
	c.httpRequests.WithLabelValues(method, route, strconv.Itoa(statusCode)).Inc()
	c.httpDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// RecordAuthFailure は認証失敗を記録する。
func (c *Collector) RecordAuthFailure(reason string) {
	c.authFailures.WithLabelValues(reason).Inc()
}

// TrackRateLimiterEntries はレートリミッターが保持しているクライアント数をゲージとして公開する。
// countはスクレイプのたびに呼ばれる。
func (c *Collector) TrackRateLimiterEntries(count func() int) error {
	return c.reg.Register(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "mesto_rate_limiter_clients",
		Help: "レート制限の対象として追跡中のクライアントIP数",
	}, func() float64 { return float64(count()) }))
}

// Middleware はリクエストごとにメトリクスを記録するミドルウェアを返す。
// routeラベルにはchiのルートパターンを使い、IDを含むパスでもカーディナリティが増えないようにする。
func (c *Collector) Middleware() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			c.RecordHTTPRequest(r.Method, routePattern(r), status, time.Since(start))
		})
	}
}

func routePattern(r *http.Request) string {
	rctx := chi.RouteContext(r.Context())
	if rctx == nil {
		return unmatchedRoute
	}
	if pattern := rctx.RoutePattern(); pattern != "" {
		return pattern
	}
	return unmatchedRoute
}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
