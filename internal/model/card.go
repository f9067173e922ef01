package model

import "time"

// Card はユーザーが投稿したカードを表す。
// OwnerIDは作成後に変更されない。Likesは同じユーザーを重複して持たない。
type Card struct {
	ID        string
	Name      string
	Link      string
	OwnerID   string
	Owner     *User
	Likes     []*User
	CreatedAt time.Time
}

// IsOwnedBy はカードが指定ユーザーの所有物かどうかを返す。
func (c *Card) IsOwnedBy(userID string) bool {
	return c.OwnerID == userID
}

// CardResponse はカードのAPIレスポンス。
// ownerとlikesは公開ユーザー情報で展開する。
type CardResponse struct {
	ID        string       `json:"_id"`
	Name      string       `json:"name"`
	Link      string       `json:"link"`
	Owner     PublicUser   `json:"owner"`
	Likes     []PublicUser `json:"likes"`
	CreatedAt time.Time    `json:"createdAt"`
}

// Response はカードをAPIレスポンス形式に変換する。
func (c *Card) Response() CardResponse {
	resp := CardResponse{
		ID:        c.ID,
		Name:      c.Name,
		Link:      c.Link,
		Owner:     PublicUser{ID: c.OwnerID},
		Likes:     make([]PublicUser, 0, len(c.Likes)),
		CreatedAt: c.CreatedAt,
	}
	if c.Owner != nil {
		resp.Owner = c.Owner.Public()
	}
	for _, u := range c.Likes {
		resp.Likes = append(resp.Likes, u.Public())
	}
	return resp
}
