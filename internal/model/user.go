// Package model はドメインモデルを定義する。
package model

import "time"

// サインアップ時に省略されたプロフィール項目の既定値。
const (
	DefaultUserName   = "Жак-Ив Кусто"
	DefaultUserAbout  = "Исследователь"
	DefaultUserAvatar = "https://pictures.s3.yandex.net/resources/jacques-cousteau_1604399756.png"
)

// User はサービス利用ユーザーを表す。
// PasswordHashはレスポンスに含めてはならない。
type User struct {
	ID           string
	Email        string
	PasswordHash string
	Name         string
	About        string
	Avatar       string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// PublicUser はAPIレスポンスに含めてよいユーザー情報。
// JSONのフィールド名はブラウザクライアントとの互換性を保つ。
type PublicUser struct {
	ID     string `json:"_id"`
	Name   string `json:"name"`
	About  string `json:"about"`
	Avatar string `json:"avatar"`
	Email  string `json:"email"`
}

// Public はパスワードダイジェストを除いた公開用の表現を返す。
func (u *User) Public() PublicUser {
	return PublicUser{
		ID:     u.ID,
		Name:   u.Name,
		About:  u.About,
		Avatar: u.Avatar,
		Email:  u.Email,
	}
}

// ProfileUpdate はプロフィール更新の入力を表す。
// nilのフィールドは変更しない。
type ProfileUpdate struct {
	Name   *string
	About  *string
	Avatar *string
}
