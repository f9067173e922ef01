// Package validation はリクエスト入力の形式検証を提供する。
// 検証失敗はすべてBadRequest種別のmodel.APIErrorとして返す。
package validation

import (
	"fmt"
	"net/mail"
	"strings"
	"unicode/utf8"

	"github.com/hitoshi/mesto/internal/model"
	"github.com/hitoshi/mesto/internal/security"
)

// 文字数制限（ルーン数）
const (
	MinTextLength = 1
	MaxTextLength = 30

	// MaxPasswordBytes はハッシュ計算コストの上限を抑えるためのパスワード長の上限。
	MaxPasswordBytes = 256
	MaxEmailBytes    = 254
	MaxURLBytes      = 2048
)

// SignUpInput はサインアップの入力。空文字列の項目は未指定として扱う。
type SignUpInput struct {
	Name     string
	About    string
	Avatar   string
	Email    string
	Password string
}

// Validator は入力のサニタイズと検証を行う。
type Validator struct {
	sanitizer *security.TextSanitizer
	urls      *security.URLGuard
}

// New はValidatorを生成する。
func New(sanitizer *security.TextSanitizer, urls *security.URLGuard) *Validator {
	return &Validator{
		sanitizer: sanitizer,
		urls:      urls,
	}
}

// SignUp はサインアップ入力を検証し、正規化済みの入力を返す。
// 名前、自己紹介、アバターは任意項目。
func (v *Validator) SignUp(in SignUpInput) (SignUpInput, error) {
	out := SignUpInput{Password: in.Password}

	email, err := v.email(in.Email)
	if err != nil {
		return SignUpInput{}, err
	}
	out.Email = email

	if err := v.password(in.Password); err != nil {
		return SignUpInput{}, err
	}

	if strings.TrimSpace(in.Name) != "" {
		if out.Name, err = v.text("name", in.Name); err != nil {
			return SignUpInput{}, err
		}
	}
	if strings.TrimSpace(in.About) != "" {
		if out.About, err = v.text("about", in.About); err != nil {
			return SignUpInput{}, err
		}
	}
	if strings.TrimSpace(in.Avatar) != "" {
		if out.Avatar, err = v.url("avatar", in.Avatar); err != nil {
			return SignUpInput{}, err
		}
	}

	return out, nil
}

// SignIn はサインイン入力を検証し、正規化済みのメールアドレスを返す。
func (v *Validator) SignIn(email, password string) (string, error) {
	normalized, err := v.email(email)
	if err != nil {
		return "", err
	}
	if err := v.password(password); err != nil {
		return "", err
	}
	return normalized, nil
}

// Profile はプロフィール更新の名前と自己紹介を検証する。
// nilの項目は変更しない。両方nilの場合はBadRequestを返す。
func (v *Validator) Profile(name, about *string) (model.ProfileUpdate, error) {
	var update model.ProfileUpdate
	if name == nil && about == nil {
		return update, model.NewBadRequestError("name or about is required")
	}
	if name != nil {
		n, err := v.text("name", *name)
		if err != nil {
			return update, err
		}
		update.Name = &n
	}
	if about != nil {
		a, err := v.text("about", *about)
		if err != nil {
			return update, err
		}
		update.About = &a
	}
	return update, nil
}

// Avatar はアバターURLを検証する。
func (v *Validator) Avatar(avatar string) (string, error) {
	return v.url("avatar", avatar)
}

// Card はカード作成の入力を検証する。
func (v *Validator) Card(name, link string) (string, string, error) {
	n, err := v.text("name", name)
	if err != nil {
		return "", "", err
	}
	l, err := v.url("link", link)
	if err != nil {
		return "", "", err
	}
	return n, l, nil
}

// text はHTMLを除去した上で文字数を検証する。
func (v *Validator) text(field, raw string) (string, error) {
	cleaned := v.sanitizer.Sanitize(raw)
	if cleaned == "" {
		return "", fieldError(field, "is required")
	}
	n := utf8.RuneCountInString(cleaned)
	if n < MinTextLength || n > MaxTextLength {
		return "", fieldError(field, fmt.Sprintf("must be between %d and %d characters", MinTextLength, MaxTextLength))
	}
	return cleaned, nil
}

func (v *Validator) url(field, raw string) (string, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", fieldError(field, "is required")
	}
	if len(trimmed) > MaxURLBytes {
		return "", fieldError(field, "is too long")
	}
	if err := v.urls.ValidateURL(trimmed); err != nil {
		return "", fieldError(field, "must be a public http(s) URL")
	}
	return trimmed, nil
}

// email はアドレス形式を検証し、小文字に正規化して返す。
// 表示名付きの形式（"Name <a@b.c>"）は受け付けない。
func (v *Validator) email(raw string) (string, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", fieldError("email", "is required")
	}
	if len(trimmed) > MaxEmailBytes {
		return "", fieldError("email", "is too long")
	}
	addr, err := mail.ParseAddress(trimmed)
	if err != nil || addr.Address != trimmed || !strings.Contains(addr.Address[strings.LastIndex(addr.Address, "@"):], ".") {
		return "", fieldError("email", "must be a valid email address")
	}
	return strings.ToLower(trimmed), nil
}

func (v *Validator) password(raw string) error {
	if raw == "" {
		return fieldError("password", "is required")
	}
	if len(raw) > MaxPasswordBytes {
		return fieldError("password", "is too long")
	}
	return nil
}

func fieldError(field, problem string) *model.APIError {
	return model.NewBadRequestError(fmt.Sprintf("%s %s", field, problem))
}
