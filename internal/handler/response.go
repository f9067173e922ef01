package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/hitoshi/mesto/internal/middleware"
	"github.com/hitoshi/mesto/internal/model"
)

// maxRequestBodyBytes はJSONリクエストボディの上限。
const maxRequestBodyBytes = 100 << 10

// messageResponse はメッセージのみのレスポンス。
type messageResponse struct {
	Message string `json:"message"`
}

// decodeJSON はリクエストボディをJSONオブジェクトとしてvに読み込む。
// 解析に失敗した場合はBadRequestを返す。
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodyBytes)

	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(v); err != nil {
		return model.NewBadRequestError(model.MsgInvalidBody)
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return model.NewBadRequestError(model.MsgInvalidBody)
	}
	return nil
}

// requireUserID は認証ミドルウェアが注入したユーザーIDを取り出す。
// 取り出せない場合は401を書き込みfalseを返す。
func requireUserID(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		middleware.WriteError(w, model.NewUnauthorizedError(model.MsgAuthRequired))
		return "", false
	}
	return userID, true
}

func publicUsers(users []*model.User) []model.PublicUser {
	out := make([]model.PublicUser, len(users))
	for i, u := range users {
		out[i] = u.Public()
	}
	return out
}

func cardResponses(cards []*model.Card) []model.CardResponse {
	out := make([]model.CardResponse, len(cards))
	for i, c := range cards {
		out[i] = c.Response()
	}
	return out
}
