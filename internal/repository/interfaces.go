// Package repository はデータ永続化のインターフェースと実装を提供する。
// 実装はPostgreSQL版とインメモリ版の2種類。
// 見つからない、IDが不正、一意制約違反はmodel.APIErrorとしてここで分類する。
package repository

import (
	"context"

	"github.com/hitoshi/mesto/internal/model"
)

// UserRepository はユーザーデータの永続化インターフェース。
type UserRepository interface {
	// Create はユーザーを作成する。メールアドレスが重複する場合はConflictを返す。
	Create(ctx context.Context, user *model.User) error

	// FindByID は指定IDのユーザーを取得する。
	// IDの形式が不正な場合はBadRequest、見つからない場合はNotFoundを返す。
	FindByID(ctx context.Context, id string) (*model.User, error)

	// FindByEmail はメールアドレスでユーザーを取得する。見つからない場合はNotFoundを返す。
	FindByEmail(ctx context.Context, email string) (*model.User, error)

	// List は全ユーザーを作成日時の昇順で返す。
	List(ctx context.Context) ([]*model.User, error)

	// Update はプロフィールを部分更新し、更新後のユーザーを返す。
	// nilのフィールドは既存の値を維持する。
	Update(ctx context.Context, id string, update model.ProfileUpdate) (*model.User, error)
}

// CardRepository はカードデータの永続化インターフェース。
// 取得系のメソッドはownerとlikesを展開済みのカードを返す。
type CardRepository interface {
	// List は全カードを作成日時の降順で返す。
	List(ctx context.Context) ([]*model.Card, error)

	// FindByID は指定IDのカードを取得する。
	FindByID(ctx context.Context, id string) (*model.Card, error)

	// Create はカードを作成する。IDと作成日時は呼び出し側で設定する。
	Create(ctx context.Context, card *model.Card) error

	// Delete は指定IDのカードを削除する。いいねも合わせて削除される。
	Delete(ctx context.Context, id string) error

	// AddLike はいいねを追加する。既にいいね済みの場合は何もしない。
	AddLike(ctx context.Context, cardID, userID string) error

	// RemoveLike はいいねを取り消す。いいねしていない場合は何もしない。
	RemoveLike(ctx context.Context, cardID, userID string) error
}
