package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/hitoshi/mesto/internal/model"
)

const cardSelect = `SELECT c.id, c.name, c.link, c.owner_id, c.created_at,
		u.email, u.name, u.about, u.avatar
	FROM cards c
	JOIN users u ON u.id = c.owner_id`

const likeSelect = `SELECT l.card_id, u.id, u.email, u.name, u.about, u.avatar
	FROM card_likes l
	JOIN users u ON u.id = l.user_id`

// PostgresCardRepo はPostgreSQLを使用したカードリポジトリ。
// いいねはcard_likesテーブルの行として保持し、追加と削除をそれぞれ1文で行う。
type PostgresCardRepo struct {
	db *sql.DB
}

// NewPostgresCardRepo はPostgresCardRepoを生成する。
func NewPostgresCardRepo(db *sql.DB) *PostgresCardRepo {
	return &PostgresCardRepo{db: db}
}

// List は全カードを作成日時の降順で返す。
func (r *PostgresCardRepo) List(ctx context.Context) ([]*model.Card, error) {
	rows, err := r.db.QueryContext(ctx, cardSelect+` ORDER BY c.created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list cards: %w", err)
	}
	defer rows.Close()

	cards := make([]*model.Card, 0)
	byID := make(map[string]*model.Card)
	for rows.Next() {
		card, err := scanCard(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan card: %w", err)
		}
		cards = append(cards, card)
		byID[card.ID] = card
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate cards: %w", err)
	}

	if len(cards) == 0 {
		return cards, nil
	}
	if err := r.loadLikes(ctx, byID, likeSelect+` ORDER BY l.created_at ASC`); err != nil {
		return nil, err
	}
	return cards, nil
}

// FindByID は指定IDのカードを取得する。
func (r *PostgresCardRepo) FindByID(ctx context.Context, id string) (*model.Card, error) {
	cid, err := parseID(id, model.MsgInvalidCardID)
	if err != nil {
		return nil, err
	}

	card, err := scanCard(r.db.QueryRowContext(ctx, cardSelect+` WHERE c.id = $1`, cid))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.NewNotFoundError(model.MsgCardNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find card by ID: %w", err)
	}

	byID := map[string]*model.Card{card.ID: card}
	if err := r.loadLikes(ctx, byID, likeSelect+` WHERE l.card_id = $1 ORDER BY l.created_at ASC`, cid); err != nil {
		return nil, err
	}
	return card, nil
}

// Create はカードを作成する。所有者が存在しない場合はNotFoundを返す。
func (r *PostgresCardRepo) Create(ctx context.Context, card *model.Card) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO cards (id, name, link, owner_id, created_at) VALUES ($1, $2, $3, $4, $5)`,
		card.ID, card.Name, card.Link, card.OwnerID, card.CreatedAt,
	)
	if err != nil {
		if code, _, ok := pqErrorCode(err); ok && code == pqForeignKeyViolation {
			return model.NewNotFoundError(model.MsgUserNotFound)
		}
		return fmt.Errorf("failed to insert card: %w", err)
	}
	return nil
}

// Delete は指定IDのカードを削除する。
func (r *PostgresCardRepo) Delete(ctx context.Context, id string) error {
	cid, err := parseID(id, model.MsgInvalidCardID)
	if err != nil {
		return err
	}

	result, err := r.db.ExecContext(ctx, `DELETE FROM cards WHERE id = $1`, cid)
	if err != nil {
		return fmt.Errorf("failed to delete card: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return model.NewNotFoundError(model.MsgCardNotFound)
	}
	return nil
}

// AddLike はいいねを追加する。
// カードまたはユーザーが存在しない場合は外部キー制約違反となり、NotFoundを返す。
func (r *PostgresCardRepo) AddLike(ctx context.Context, cardID, userID string) error {
	cid, err := parseID(cardID, model.MsgInvalidCardID)
	if err != nil {
		return err
	}
	uid, err := parseID(userID, model.MsgInvalidUserID)
	if err != nil {
		return err
	}

	_, err = r.db.ExecContext(ctx,
		`INSERT INTO card_likes (card_id, user_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
		cid, uid,
	)
	if err != nil {
		if code, constraint, ok := pqErrorCode(err); ok && code == pqForeignKeyViolation {
			if constraint == constraintCardLikesUser {
				return model.NewNotFoundError(model.MsgUserNotFound)
			}
			return model.NewNotFoundError(model.MsgCardNotFound)
		}
		return fmt.Errorf("failed to add like: %w", err)
	}
	return nil
}

// RemoveLike はいいねを取り消す。
func (r *PostgresCardRepo) RemoveLike(ctx context.Context, cardID, userID string) error {
	cid, err := parseID(cardID, model.MsgInvalidCardID)
	if err != nil {
		return err
	}
	uid, err := parseID(userID, model.MsgInvalidUserID)
	if err != nil {
		return err
	}

	if _, err := r.db.ExecContext(ctx,
		`DELETE FROM card_likes WHERE card_id = $1 AND user_id = $2`,
		cid, uid,
	); err != nil {
		return fmt.Errorf("failed to remove like: %w", err)
	}
	return nil
}

// loadLikes はいいねしたユーザーを取得し、対応するカードに設定する。
func (r *PostgresCardRepo) loadLikes(ctx context.Context, byID map[string]*model.Card, query string, args ...any) error {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to load likes: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var cardID string
		user := &model.User{}
		if err := rows.Scan(&cardID, &user.ID, &user.Email, &user.Name, &user.About, &user.Avatar); err != nil {
			return fmt.Errorf("failed to scan like: %w", err)
		}
		if card, ok := byID[cardID]; ok {
			card.Likes = append(card.Likes, user)
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("failed to iterate likes: %w", err)
	}
	return nil
}

func scanCard(row rowScanner) (*model.Card, error) {
	card := &model.Card{Owner: &model.User{}, Likes: make([]*model.User, 0)}
	err := row.Scan(
		&card.ID, &card.Name, &card.Link, &card.OwnerID, &card.CreatedAt,
		&card.Owner.Email, &card.Owner.Name, &card.Owner.About, &card.Owner.Avatar,
	)
	if err != nil {
		return nil, err
	}
	card.Owner.ID = card.OwnerID
	return card, nil
}

// compile-time interface check
var _ CardRepository = (*PostgresCardRepo)(nil)
