// Package auth はパスワードハッシュとアクセストークンの発行・検証を提供する。
package auth

import (
	"crypto/sha256"
	"encoding/base64"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// bcryptMaxInput はbcryptが扱える入力の最大バイト数。
const bcryptMaxInput = 72

// PasswordHasher はパスワードのハッシュ化と照合を行う。
// 状態を持たず、複数のgoroutineから同時に利用できる。
type PasswordHasher struct {
	cost int
}

// NewPasswordHasher はPasswordHasherを生成する。
// costが範囲外の場合はbcrypt.DefaultCostを使用する。
func NewPasswordHasher(cost int) *PasswordHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &PasswordHasher{cost: cost}
}

// Hash はソルト付きの一方向ハッシュを返す。
// 空文字列や72バイトを超える入力も受け付ける。
// 失敗はハッシュ処理自体の内部エラーのみ。
func (h *PasswordHasher) Hash(plain string) (string, error) {
	digest, err := bcrypt.GenerateFromPassword(prepare(plain), h.cost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(digest), nil
}

// Verify は平文とダイジェストを照合する。
// ダイジェストが不正な形式の場合もエラーではなくfalseを返す。
func (h *PasswordHasher) Verify(plain, digest string) bool {
	if digest == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(digest), prepare(plain)) == nil
}

// prepare はbcryptの入力長制限を超える平文をSHA-256で事前に縮約する。
// 73バイト目以降が黙って切り捨てられることを防ぐ。
func prepare(plain string) []byte {
	if len(plain) <= bcryptMaxInput {
		return []byte(plain)
	}
	sum := sha256.Sum256([]byte(plain))
	return []byte(base64.StdEncoding.EncodeToString(sum[:]))
}
