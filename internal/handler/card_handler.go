package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/mesto/internal/middleware"
	"github.com/hitoshi/mesto/internal/model"
)

// CardServiceInterface はカードハンドラーが必要とするサービスインターフェース。
type CardServiceInterface interface {
	List(ctx context.Context) ([]*model.Card, error)
	Create(ctx context.Context, ownerID, name, link string) (*model.Card, error)
	Delete(ctx context.Context, requesterID, cardID string) error
	Like(ctx context.Context, userID, cardID string) (*model.Card, error)
	Dislike(ctx context.Context, userID, cardID string) (*model.Card, error)
}

// CardHandler はカード管理のHTTPハンドラー。
type CardHandler struct {
	service CardServiceInterface
}

// NewCardHandler はCardHandlerを生成する。
func NewCardHandler(service CardServiceInterface) *CardHandler {
	return &CardHandler{service: service}
}

type cardRequest struct {
	Name string `json:"name"`
	Link string `json:"link"`
}

// List は全カードを返す。
// GET /cards
func (h *CardHandler) List(w http.ResponseWriter, r *http.Request) {
	cards, err := h.service.List(r.Context())
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, cardResponses(cards))
}

// Create はカードを作成する。
// POST /cards
func (h *CardHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	var req cardRequest
	if err := decodeJSON(w, r, &req); err != nil {
		middleware.WriteError(w, err)
		return
	}

	c, err := h.service.Create(r.Context(), userID, req.Name, req.Link)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	middleware.WriteJSON(w, http.StatusCreated, c.Response())
}

// Delete は自分のカードを削除する。
// DELETE /cards/{cardId}
func (h *CardHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	if err := h.service.Delete(r.Context(), userID, chi.URLParam(r, "cardId")); err != nil {
		middleware.WriteError(w, err)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, messageResponse{Message: model.MsgCardDeleted})
}

// Like はカードにいいねする。
// PUT /cards/{cardId}/likes
func (h *CardHandler) Like(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	c, err := h.service.Like(r.Context(), userID, chi.URLParam(r, "cardId"))
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, c.Response())
}

// Dislike はいいねを取り消す。
// DELETE /cards/{cardId}/likes
func (h *CardHandler) Dislike(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	c, err := h.service.Dislike(r.Context(), userID, chi.URLParam(r, "cardId"))
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, c.Response())
}
