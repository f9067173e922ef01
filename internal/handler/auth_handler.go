package handler

import (
	"context"
	"net/http"

	"github.com/hitoshi/mesto/internal/middleware"
	"github.com/hitoshi/mesto/internal/model"
	"github.com/hitoshi/mesto/internal/validation"
)

// AuthServiceInterface は認証ハンドラーが必要とするサービスインターフェース。
type AuthServiceInterface interface {
	// SignUp はユーザーを登録する。
	SignUp(ctx context.Context, in validation.SignUpInput) (*model.User, error)
	// SignIn は資格情報を照合して認証トークンを返す。
	SignIn(ctx context.Context, email, password string) (string, error)
}

// AuthHandler はサインアップとサインインのHTTPハンドラー。
type AuthHandler struct {
	service AuthServiceInterface
}

// NewAuthHandler はAuthHandlerを生成する。
func NewAuthHandler(service AuthServiceInterface) *AuthHandler {
	return &AuthHandler{service: service}
}

type signUpRequest struct {
	Name     string `json:"name"`
	About    string `json:"about"`
	Avatar   string `json:"avatar"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type signInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type tokenResponse struct {
	Token string `json:"token"`
}

// SignUp はユーザーを登録し、公開情報を返す。
// POST /signup
func (h *AuthHandler) SignUp(w http.ResponseWriter, r *http.Request) {
	var req signUpRequest
	if err := decodeJSON(w, r, &req); err != nil {
		middleware.WriteError(w, err)
		return
	}

	u, err := h.service.SignUp(r.Context(), validation.SignUpInput{
		Name:     req.Name,
		About:    req.About,
		Avatar:   req.Avatar,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		middleware.WriteError(w, err)
		return
	}

	middleware.WriteJSON(w, http.StatusCreated, u.Public())
}

// SignIn は資格情報を照合し、認証トークンを返す。
// POST /signin
func (h *AuthHandler) SignIn(w http.ResponseWriter, r *http.Request) {
	var req signInRequest
	if err := decodeJSON(w, r, &req); err != nil {
		middleware.WriteError(w, err)
		return
	}

	token, err := h.service.SignIn(r.Context(), req.Email, req.Password)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}

	middleware.WriteJSON(w, http.StatusOK, tokenResponse{Token: token})
}
