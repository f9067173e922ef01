// Package middleware はHTTPミドルウェアを提供する。
package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/hitoshi/mesto/internal/model"
)

// contextKey はコンテキストに値を格納するための型安全なキー。
type contextKey string

// userIDContextKey はリクエストコンテキストにユーザーIDを格納するためのキー。
var userIDContextKey = contextKey("user_id")

// TokenVerifier は認証トークンの検証に必要なインターフェース。
// 成功時はトークンの主体（ユーザーID）を返す。
type TokenVerifier interface {
	Verify(token string) (string, error)
}

// AuthFailureRecorder は認証失敗を記録するインターフェース。
type AuthFailureRecorder interface {
	RecordAuthFailure(reason string)
}

// 認証失敗の理由（メトリクスのラベル値）
const (
	authFailureMissingHeader = "missing_header"
	authFailureInvalidToken  = "invalid_token"
)

// NewAuthMiddleware はAuthorizationヘッダーのBearerトークンを検証するミドルウェアを返す。
// 検証に成功した場合はユーザーIDをリクエストコンテキストに注入する。
// ヘッダーがない、形式が不正、トークンが無効の場合は401を返し、後続のハンドラは呼ばない。
//
// ユーザーの存在はここでは確認しない。トークン発行後に削除されたユーザーの
// トークンは有効期限まで通過する。
func NewAuthMiddleware(verifier TokenVerifier, recorder AuthFailureRecorder) func(next http.Handler) http.Handler {
	reject := func(w http.ResponseWriter, r *http.Request, reason string) {
		if recorder != nil {
			recorder.RecordAuthFailure(reason)
		}
		slog.Debug("authorization rejected",
			slog.String("reason", reason),
			slog.String("path", r.URL.Path),
		)
		WriteError(w, model.NewUnauthorizedError(model.MsgAuthRequired))
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r.Header.Get("Authorization"))
			if !ok {
				reject(w, r, authFailureMissingHeader)
				return
			}

			userID, err := verifier.Verify(token)
			if err != nil {
				reject(w, r, authFailureInvalidToken)
				return
			}

			setRequestUserID(r.Context(), userID)
			next.ServeHTTP(w, r.WithContext(ContextWithUserID(r.Context(), userID)))
		})
	}
}

// bearerToken は"Bearer <token>"形式のヘッダー値からトークンを取り出す。
// スキームは大文字小文字を区別しない。トークンは空でない1語でなければならない。
func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	if token == "" || strings.ContainsAny(token, " \t") {
		return "", false
	}
	return token, true
}

// UserIDFromContext はリクエストコンテキストからユーザーIDを取得する。
// 認証ミドルウェアを通過したリクエストでのみ有効。
func UserIDFromContext(ctx context.Context) (string, error) {
	userID, ok := ctx.Value(userIDContextKey).(string)
	if !ok || userID == "" {
		return "", fmt.Errorf("user ID not found in context")
	}
	return userID, nil
}

// ContextWithUserID はコンテキストにユーザーIDを注入する。
// テストやミドルウェア以外のコンテキスト生成で使用する。
func ContextWithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDContextKey, userID)
}
