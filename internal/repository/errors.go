package repository

import (
	"errors"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/hitoshi/mesto/internal/model"
)

// PostgreSQLのエラーコード
const (
	pqUniqueViolation     pq.ErrorCode = "23505"
	pqForeignKeyViolation pq.ErrorCode = "23503"
)

// card_likesの外部キー制約名（PostgreSQLの既定の命名規則）
const constraintCardLikesUser = "card_likes_user_id_fkey"

// parseID はUUID形式のIDを検証し、正規化した文字列を返す。
// 不正な場合はmessageを持つBadRequestを返す。
func parseID(id, message string) (string, error) {
	parsed, err := uuid.Parse(id)
	if err != nil {
		return "", model.NewBadRequestError(message)
	}
	return parsed.String(), nil
}

// pqErrorCode はドライバのエラーからPostgreSQLのエラーコードと制約名を取り出す。
func pqErrorCode(err error) (pq.ErrorCode, string, bool) {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return "", "", false
	}
	return pqErr.Code, pqErr.Constraint, true
}
