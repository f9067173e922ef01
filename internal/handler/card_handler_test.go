package handler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/hitoshi/mesto/internal/model"
)

// --- モック定義 ---

// mockCardService はCardServiceInterfaceのモック実装。
type mockCardService struct {
	listFn    func(ctx context.Context) ([]*model.Card, error)
	createFn  func(ctx context.Context, ownerID, name, link string) (*model.Card, error)
	deleteFn  func(ctx context.Context, requesterID, cardID string) error
	likeFn    func(ctx context.Context, userID, cardID string) (*model.Card, error)
	dislikeFn func(ctx context.Context, userID, cardID string) (*model.Card, error)
}

func (m *mockCardService) List(ctx context.Context) ([]*model.Card, error) {
	if m.listFn != nil {
		return m.listFn(ctx)
	}
	return []*model.Card{}, nil
}

func (m *mockCardService) Create(ctx context.Context, ownerID, name, link string) (*model.Card, error) {
	if m.createFn != nil {
		return m.createFn(ctx, ownerID, name, link)
	}
	return nil, nil
}

func (m *mockCardService) Delete(ctx context.Context, requesterID, cardID string) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, requesterID, cardID)
	}
	return nil
}

func (m *mockCardService) Like(ctx context.Context, userID, cardID string) (*model.Card, error) {
	if m.likeFn != nil {
		return m.likeFn(ctx, userID, cardID)
	}
	return nil, nil
}

func (m *mockCardService) Dislike(ctx context.Context, userID, cardID string) (*model.Card, error) {
	if m.dislikeFn != nil {
		return m.dislikeFn(ctx, userID, cardID)
	}
	return nil, nil
}

func sampleCard(likers ...string) *model.Card {
	owner := &model.User{ID: "u-owner", Name: "Owner", PasswordHash: "hash"}
	c := &model.Card{
		ID:        "c-1",
		Name:      "Baikal",
		Link:      "https://example.com/baikal.jpg",
		OwnerID:   owner.ID,
		Owner:     owner,
		Likes:     []*model.User{},
		CreatedAt: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
	}
	for _, id := range likers {
		c.Likes = append(c.Likes, &model.User{ID: id})
	}
	return c
}

// --- GET /cards テスト ---

func TestCardHandler_List_PopulatesOwnerAndLikes(t *testing.T) {
	svc := &mockCardService{
		listFn: func(ctx context.Context) ([]*model.Card, error) {
			return []*model.Card{sampleCard("u-2")}, nil
		},
	}
	h := NewCardHandler(svc)

	w := httptest.NewRecorder()
	h.List(w, withUserID(httptest.NewRequest(http.MethodGet, "/cards", nil), "u-2"))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	var got []model.CardResponse
	decodeBody(t, w, &got)
	if len(got) != 1 {
		t.Fatalf("len = %d, want 1", len(got))
	}
	if got[0].Owner.ID != "u-owner" || got[0].Owner.Name != "Owner" {
		t.Errorf("owner = %+v", got[0].Owner)
	}
	if len(got[0].Likes) != 1 || got[0].Likes[0].ID != "u-2" {
		t.Errorf("likes = %+v", got[0].Likes)
	}
}

// --- POST /cards テスト ---

func TestCardHandler_Create_Success(t *testing.T) {
	svc := &mockCardService{
		createFn: func(ctx context.Context, ownerID, name, link string) (*model.Card, error) {
			if ownerID != "u-owner" || name != "Baikal" || link != "https://example.com/baikal.jpg" {
				t.Errorf("args = %q %q %q", ownerID, name, link)
			}
			return sampleCard(), nil
		},
	}
	h := NewCardHandler(svc)

	req := withUserID(jsonRequest(http.MethodPost, "/cards", `{"name":"Baikal","link":"https://example.com/baikal.jpg"}`), "u-owner")
	w := httptest.NewRecorder()
	h.Create(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusCreated)
	}
	var got model.CardResponse
	decodeBody(t, w, &got)
	if got.ID != "c-1" || got.Likes == nil || len(got.Likes) != 0 {
		t.Errorf("unexpected body: %+v", got)
	}
}

func TestCardHandler_Create_NoUserID_ReturnsUnauthorized(t *testing.T) {
	h := NewCardHandler(&mockCardService{})

	w := httptest.NewRecorder()
	h.Create(w, jsonRequest(http.MethodPost, "/cards", `{}`))

	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", w.Code, http.StatusUnauthorized)
	}
}

// --- DELETE /cards/{cardId} テスト ---

func TestCardHandler_Delete_Success(t *testing.T) {
	svc := &mockCardService{
		deleteFn: func(ctx context.Context, requesterID, cardID string) error {
			if requesterID != "u-owner" || cardID != "c-1" {
				t.Errorf("args = %q %q", requesterID, cardID)
			}
			return nil
		},
	}
	h := NewCardHandler(svc)

	req := httptest.NewRequest(http.MethodDelete, "/cards/c-1", nil)
	req = withChiURLParam(withUserID(req, "u-owner"), "cardId", "c-1")
	w := httptest.NewRecorder()
	h.Delete(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	if msg := parseAPIErrorResponse(t, w)["message"]; msg != model.MsgCardDeleted {
		t.Errorf("message = %q, want %q", msg, model.MsgCardDeleted)
	}
}

func TestCardHandler_Delete_ErrorKinds(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{"malformed id", model.NewBadRequestError(model.MsgInvalidCardID), http.StatusBadRequest},
		{"not owner", model.NewForbiddenError(model.MsgCardNotOwned), http.StatusForbidden},
		{"not found", model.NewNotFoundError(model.MsgCardNotFound), http.StatusNotFound},
		{"unexpected", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &mockCardService{
				deleteFn: func(ctx context.Context, requesterID, cardID string) error {
					return tt.err
				},
			}
			h := NewCardHandler(svc)

			req := httptest.NewRequest(http.MethodDelete, "/cards/c-1", nil)
			req = withChiURLParam(withUserID(req, "u-2"), "cardId", "c-1")
			w := httptest.NewRecorder()
			h.Delete(w, req)

			if w.Code != tt.status {
				t.Errorf("status = %d, want %d", w.Code, tt.status)
			}
			if msg := parseAPIErrorResponse(t, w)["message"]; msg == "" {
				t.Error("error body must carry a message")
			}
		})
	}
}

// --- PUT/DELETE /cards/{cardId}/likes テスト ---

func TestCardHandler_LikeAndDislike(t *testing.T) {
	svc := &mockCardService{
		likeFn: func(ctx context.Context, userID, cardID string) (*model.Card, error) {
			return sampleCard(userID), nil
		},
		dislikeFn: func(ctx context.Context, userID, cardID string) (*model.Card, error) {
			return sampleCard(), nil
		},
	}
	h := NewCardHandler(svc)

	req := httptest.NewRequest(http.MethodPut, "/cards/c-1/likes", nil)
	req = withChiURLParam(withUserID(req, "u-2"), "cardId", "c-1")
	w := httptest.NewRecorder()
	h.Like(w, req)

	var liked model.CardResponse
	decodeBody(t, w, &liked)
	if len(liked.Likes) != 1 || liked.Likes[0].ID != "u-2" {
		t.Errorf("likes after like = %+v", liked.Likes)
	}

	req = httptest.NewRequest(http.MethodDelete, "/cards/c-1/likes", nil)
	req = withChiURLParam(withUserID(req, "u-2"), "cardId", "c-1")
	w = httptest.NewRecorder()
	h.Dislike(w, req)

	var disliked model.CardResponse
	decodeBody(t, w, &disliked)
	if len(disliked.Likes) != 0 {
		t.Errorf("likes after dislike = %+v", disliked.Likes)
	}
}

func TestCardHandler_Like_NotFound(t *testing.T) {
	svc := &mockCardService{
		likeFn: func(ctx context.Context, userID, cardID string) (*model.Card, error) {
			return nil, model.NewNotFoundError(model.MsgCardNotFound)
		},
	}
	h := NewCardHandler(svc)

	req := httptest.NewRequest(http.MethodPut, "/cards/c-9/likes", nil)
	req = withChiURLParam(withUserID(req, "u-2"), "cardId", "c-9")
	w := httptest.NewRecorder()
	h.Like(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want %d", w.Code, http.StatusNotFound)
	}
}
