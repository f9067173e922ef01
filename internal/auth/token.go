package auth

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// DefaultTokenTTL はアクセストークンの既定の有効期間（7日）。
const DefaultTokenTTL = 7 * 24 * time.Hour

// ErrInvalidToken はトークン検証失敗を表す唯一のエラー。
// 形式不正、署名不一致、期限切れのいずれであっても同じ値を返す。
var ErrInvalidToken = errors.New("invalid token")

// TokenConfig はTokenServiceの設定。
type TokenConfig struct {
	Secret []byte
	TTL    time.Duration
	// Now は現在時刻を返す。nilの場合はtime.Nowを使用する。
	Now func() time.Time
}

// TokenService は署名付きの有効期限付きトークンを発行・検証する。
// サーバー側にセッション状態は持たず、失効リストも存在しない。
type TokenService struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenService はTokenServiceを生成する。
// 署名鍵が空の場合はエラーを返す。
func NewTokenService(cfg TokenConfig) (*TokenService, error) {
	if len(cfg.Secret) == 0 {
		return nil, errors.New("token secret must not be empty")
	}
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultTokenTTL
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &TokenService{
		secret: cfg.Secret,
		ttl:    cfg.TTL,
		now:    cfg.Now,
	}, nil
}

// Issue は指定ユーザーIDを主体とするトークンを発行する。
// iat=現在時刻、exp=現在時刻+TTL。
func (s *TokenService) Issue(subjectID string) (string, error) {
	if subjectID == "" {
		return "", errors.New("subject id must not be empty")
	}
	now := s.now()
	claims := jwt.RegisteredClaims{
		Subject:   subjectID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return token, nil
}

// Verify はトークンを検証し、主体のユーザーIDを返す。
// 失敗理由はデバッグログにのみ記録し、呼び出し元には常にErrInvalidTokenを返す。
func (s *TokenService) Verify(token string) (string, error) {
	claims := &jwt.RegisteredClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		slog.Debug("token verification failed", slog.String("reason", err.Error()))
		return "", ErrInvalidToken
	}
	if !parsed.Valid || claims.Subject == "" {
		slog.Debug("token verification failed", slog.String("reason", "empty subject"))
		return "", ErrInvalidToken
	}

	return claims.Subject, nil
}
