// Package model はドメインモデルを定義する。
package model

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorKind はAPIエラーの分類を表す。
// 値は閉じた集合で、HTTPステータスコードと1対1に対応する。
type ErrorKind int

// 定義済みエラー種別
const (
	KindInternal ErrorKind = iota
	KindBadRequest
	KindUnauthorized
	KindForbidden
	KindNotFound
	KindConflict
)

// String はエラー種別の名前を返す。ログ出力用。
func (k ErrorKind) String() string {
	switch k {
	case KindBadRequest:
		return "bad_request"
	case KindUnauthorized:
		return "unauthorized"
	case KindForbidden:
		return "forbidden"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	default:
		return "internal"
	}
}

// StatusCode はエラー種別に対応するHTTPステータスコードを返す。
// ステータスコードの決定はこのメソッドのみで行う。
func (k ErrorKind) StatusCode() int {
	switch k {
	case KindBadRequest:
		return http.StatusBadRequest
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// APIError はクライアントに返すことのできる唯一のエラー型。
// 発生箇所に最も近い層で一度だけ生成され、以降は再分類されない。
type APIError struct {
	Kind    ErrorKind
	Message string // ユーザー向けメッセージ
	Err     error  // 原因。ログ用でレスポンスには含めない
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Kind, e.Message)
}

// Unwrap は原因エラーを返す。
func (e *APIError) Unwrap() error {
	return e.Err
}

// StatusCode はHTTPステータスコードを返す。
func (e *APIError) StatusCode() int {
	return e.Kind.StatusCode()
}

// IsKind はerrのチェーンに指定種別のAPIErrorが含まれるかを返す。
func IsKind(err error, kind ErrorKind) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Kind == kind
}

// NewBadRequestError は入力不正エラーを生成する。
func NewBadRequestError(message string) *APIError {
	return &APIError{Kind: KindBadRequest, Message: message}
}

// NewUnauthorizedError は認証エラーを生成する。
func NewUnauthorizedError(message string) *APIError {
	return &APIError{Kind: KindUnauthorized, Message: message}
}

// NewForbiddenError は権限エラーを生成する。
func NewForbiddenError(message string) *APIError {
	return &APIError{Kind: KindForbidden, Message: message}
}

// NewNotFoundError はリソース未検出エラーを生成する。
func NewNotFoundError(message string) *APIError {
	return &APIError{Kind: KindNotFound, Message: message}
}

// NewConflictError は一意性制約違反エラーを生成する。
func NewConflictError(message string) *APIError {
	return &APIError{Kind: KindConflict, Message: message}
}

// NewInternalError は内部エラーを生成する。
// メッセージは固定で、原因はErrにのみ保持する。
func NewInternalError(cause error) *APIError {
	return &APIError{Kind: KindInternal, Message: MsgInternal, Err: cause}
}

// ユーザー向けメッセージ
const (
	MsgInternal          = "internal server error"
	MsgAuthRequired      = "authorization required"
	MsgBadCredentials    = "incorrect email or password"
	MsgPageNotFound      = "page not found"
	MsgInvalidBody       = "request body must be a valid JSON object"
	MsgInvalidUserID     = "invalid user id"
	MsgInvalidCardID     = "invalid card id"
	MsgUserNotFound      = "user with the given id was not found"
	MsgCardNotFound      = "card with the given id was not found"
	MsgCardNotOwned      = "cannot delete another user's card"
	MsgCardDeleted       = "card deleted"
	MsgEmailAlreadyTaken = "user with this email is already registered"
)
