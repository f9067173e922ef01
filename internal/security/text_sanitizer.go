package security

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// TextSanitizer はユーザー入力のプレーンテキスト項目からHTMLを取り除く。
// 名前、自己紹介、カード名など、HTMLとして解釈されるべきでない項目に使用する。
// bluemondayのポリシーはスレッドセーフで、同時に利用できる。
type TextSanitizer struct {
	policy *bluemonday.Policy
}

// NewTextSanitizer はTextSanitizerを生成する。
// StrictPolicyは全てのタグと属性を除去し、テキストのみを残す。
func NewTextSanitizer() *TextSanitizer {
	return &TextSanitizer{
		policy: bluemonday.StrictPolicy(),
	}
}

// Sanitize はHTMLタグを除去し、前後の空白を取り除いたテキストを返す。
// bluemondayがエスケープした文字実体参照は元の文字に戻す。
// JSONレスポンスとして返すため、表示側でのエスケープはクライアントが行う。
func (s *TextSanitizer) Sanitize(raw string) string {
	cleaned := s.policy.Sanitize(raw)
	return strings.TrimSpace(html.UnescapeString(cleaned))
}
