// Package client はmesto REST APIのGoクライアントを提供する。
// ブラウザクライアントと同じエンドポイントと認証方式（Bearerトークン）を使用する。
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// maxErrorBodyBytes はエラーレスポンスとして読み取るボディの上限。
const maxErrorBodyBytes = 64 << 10

// Error はAPIが2xx以外のステータスを返したことを表す。
type Error struct {
	StatusCode int
	Message    string
}

func (e *Error) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("mesto api: status %d", e.StatusCode)
	}
	return fmt.Sprintf("mesto api: status %d: %s", e.StatusCode, e.Message)
}

// User はAPIが返すユーザーの公開情報。
type User struct {
	ID     string `json:"_id"`
	Name   string `json:"name"`
	About  string `json:"about"`
	Avatar string `json:"avatar"`
	Email  string `json:"email"`
}

// Card はAPIが返すカード。ownerとlikesは展開済み。
type Card struct {
	ID        string    `json:"_id"`
	Name      string    `json:"name"`
	Link      string    `json:"link"`
	Owner     User      `json:"owner"`
	Likes     []User    `json:"likes"`
	CreatedAt time.Time `json:"createdAt"`
}

// SignUpRequest はサインアップの入力。空の項目はサーバー側の既定値になる。
type SignUpRequest struct {
	Name     string `json:"name,omitempty"`
	About    string `json:"about,omitempty"`
	Avatar   string `json:"avatar,omitempty"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Client はmesto APIのクライアント。
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New はClientを生成する。httpClientがnilの場合はhttp.DefaultClientを使用する。
func New(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
	}
}

// SignUp はユーザーを登録する。
func (c *Client) SignUp(ctx context.Context, in SignUpRequest) (*User, error) {
	var u User
	if err := c.do(ctx, http.MethodPost, "/signup", "", in, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

// SignIn は資格情報を送信し、認証トークンを返す。
func (c *Client) SignIn(ctx context.Context, email, password string) (string, error) {
	body := map[string]string{"email": email, "password": password}
	var resp struct {
		Token string `json:"token"`
	}
	if err := c.do(ctx, http.MethodPost, "/signin", "", body, &resp); err != nil {
		return "", err
	}
	return resp.Token, nil
}

// GetInfo は認証済みユーザー自身の情報を返す。
func (c *Client) GetInfo(ctx context.Context, token string) (*User, error) {
	var u User
	if err := c.do(ctx, http.MethodGet, "/users/me", token, nil, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

// GetCards は全カードを新しい順に返す。
func (c *Client) GetCards(ctx context.Context, token string) ([]Card, error) {
	var cards []Card
	if err := c.do(ctx, http.MethodGet, "/cards", token, nil, &cards); err != nil {
		return nil, err
	}
	return cards, nil
}

// SetUserInfo は名前と自己紹介を更新する。
func (c *Client) SetUserInfo(ctx context.Context, token, name, about string) (*User, error) {
	body := map[string]string{"name": name, "about": about}
	var u User
	if err := c.do(ctx, http.MethodPatch, "/users/me", token, body, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

// SetNewAvatar はアバターを更新する。
func (c *Client) SetNewAvatar(ctx context.Context, token, avatar string) (*User, error) {
	body := map[string]string{"avatar": avatar}
	var u User
	if err := c.do(ctx, http.MethodPatch, "/users/me/avatar", token, body, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

// AddNewCard はカードを作成する。
func (c *Client) AddNewCard(ctx context.Context, token, name, link string) (*Card, error) {
	body := map[string]string{"name": name, "link": link}
	var card Card
	if err := c.do(ctx, http.MethodPost, "/cards", token, body, &card); err != nil {
		return nil, err
	}
	return &card, nil
}

// AddLike はカードにいいねする。
func (c *Client) AddLike(ctx context.Context, token, cardID string) (*Card, error) {
	var card Card
	if err := c.do(ctx, http.MethodPut, cardPath(cardID)+"/likes", token, nil, &card); err != nil {
		return nil, err
	}
	return &card, nil
}

// DeleteLike はいいねを取り消す。
func (c *Client) DeleteLike(ctx context.Context, token, cardID string) (*Card, error) {
	var card Card
	if err := c.do(ctx, http.MethodDelete, cardPath(cardID)+"/likes", token, nil, &card); err != nil {
		return nil, err
	}
	return &card, nil
}

// DeleteCard は自分のカードを削除する。
func (c *Client) DeleteCard(ctx context.Context, token, cardID string) error {
	return c.do(ctx, http.MethodDelete, cardPath(cardID), token, nil, nil)
}

// Health はサーバーのヘルスチェックエンドポイントを呼び出す。
func (c *Client) Health(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/health", "", nil, nil)
}

func cardPath(cardID string) string {
	return "/cards/" + url.PathEscape(cardID)
}

// do はリクエストを送信し、2xxの場合はレスポンスをoutにデコードする。
// 2xx以外は*Errorを返す。
func (c *Client) do(ctx context.Context, method, path, token string, in, out any) error {
	var body io.Reader
	if in != nil {
		buf, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		body = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to create HTTP request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeError(resp)
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to parse response JSON: %w", err)
	}
	return nil
}

func decodeError(resp *http.Response) error {
	apiErr := &Error{StatusCode: resp.StatusCode}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))
	if err != nil {
		return apiErr
	}
	var payload struct {
		Message string `json:"message"`
	}
	if json.Unmarshal(raw, &payload) == nil && payload.Message != "" {
		apiErr.Message = payload.Message
	} else {
		apiErr.Message = strings.TrimSpace(string(raw))
	}
	return apiErr
}
