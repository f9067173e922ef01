package middleware

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/hitoshi/mesto/internal/model"
)

func decodeMessage(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]any
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response body: %v", err)
	}
	if len(body) != 1 {
		t.Errorf("error body must only contain message, got %v", body)
	}
	msg, _ := body["message"].(string)
	return msg
}

// TestWriteError_APIError は種別に応じたステータスとメッセージが書き込まれることを検証する。
func TestWriteError_APIError(t *testing.T) {
	tests := []struct {
		err        error
		wantStatus int
		wantMsg    string
	}{
		{model.NewBadRequestError("name is required"), http.StatusBadRequest, "name is required"},
		{model.NewUnauthorizedError(model.MsgAuthRequired), http.StatusUnauthorized, model.MsgAuthRequired},
		{model.NewForbiddenError(model.MsgCardNotOwned), http.StatusForbidden, model.MsgCardNotOwned},
		{model.NewNotFoundError(model.MsgCardNotFound), http.StatusNotFound, model.MsgCardNotFound},
		{model.NewConflictError(model.MsgEmailAlreadyTaken), http.StatusConflict, model.MsgEmailAlreadyTaken},
	}

	for _, tt := range tests {
		t.Run(tt.wantMsg, func(t *testing.T) {
			w := httptest.NewRecorder()
			WriteError(w, tt.err)

			if w.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", w.Code, tt.wantStatus)
			}
			if ct := w.Header().Get("Content-Type"); ct != "application/json" {
				t.Errorf("Content-Type = %q", ct)
			}
			if got := decodeMessage(t, w); got != tt.wantMsg {
				t.Errorf("message = %q, want %q", got, tt.wantMsg)
			}
		})
	}
}

// ラップされたAPIErrorは再分類されない
func TestWriteError_WrappedAPIErrorKeepsKind(t *testing.T) {
	w := httptest.NewRecorder()
	WriteError(w, fmt.Errorf("delete card: %w", model.NewForbiddenError(model.MsgCardNotOwned)))

	if w.Code != http.StatusForbidden {
		t.Errorf("status = %d, want %d", w.Code, http.StatusForbidden)
	}
}

// 分類されていないエラーは詳細を隠して500になる
func TestWriteError_UnknownErrorIsInternal(t *testing.T) {
	w := httptest.NewRecorder()
	WriteError(w, errors.New("pq: connection refused to 10.0.0.5"))

	if w.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want %d", w.Code, http.StatusInternalServerError)
	}
	msg := decodeMessage(t, w)
	if msg != model.MsgInternal {
		t.Errorf("message = %q, want %q", msg, model.MsgInternal)
	}
	if strings.Contains(msg, "10.0.0.5") {
		t.Error("internal detail leaked into the response")
	}
}

func TestWriteInternalServerError(t *testing.T) {
	w := httptest.NewRecorder()
	WriteInternalServerError(w)

	if w.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want %d", w.Code, http.StatusInternalServerError)
	}
	if got := decodeMessage(t, w); got != model.MsgInternal {
		t.Errorf("message = %q", got)
	}
}

func TestRecoveryMiddleware_PanicBecomesJSON500(t *testing.T) {
	handler := NewRecoveryMiddleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/cards", nil))

	if w.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want %d", w.Code, http.StatusInternalServerError)
	}
	if got := decodeMessage(t, w); got != model.MsgInternal {
		t.Errorf("message = %q", got)
	}
}
