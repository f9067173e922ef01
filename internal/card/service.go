// Package card はカードの投稿、削除、いいねのドメインロジックを提供する。
package card

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/mesto/internal/model"
	"github.com/hitoshi/mesto/internal/repository"
	"github.com/hitoshi/mesto/internal/validation"
)

// Service はカード管理のサービス層。
type Service struct {
	cards     repository.CardRepository
	validator *validation.Validator
	now       func() time.Time
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(cards repository.CardRepository, validator *validation.Validator) *Service {
	return &Service{
		cards:     cards,
		validator: validator,
		now:       time.Now,
	}
}

// List は全カードを新しい順に返す。
func (s *Service) List(ctx context.Context) ([]*model.Card, error) {
	return s.cards.List(ctx)
}

// Create は入力を検証してカードを作成し、owner展開済みのカードを返す。
func (s *Service) Create(ctx context.Context, ownerID, name, link string) (*model.Card, error) {
	name, link, err := s.validator.Card(name, link)
	if err != nil {
		return nil, err
	}

	c := &model.Card{
		ID:        uuid.NewString(),
		Name:      name,
		Link:      link,
		OwnerID:   ownerID,
		CreatedAt: s.now(),
	}
	if err := s.cards.Create(ctx, c); err != nil {
		return nil, err
	}
	return s.cards.FindByID(ctx, c.ID)
}

// Delete はカードを削除する。
// 所有者の確認は削除の前に行い、他人のカードの場合は何も変更せずForbiddenを返す。
func (s *Service) Delete(ctx context.Context, requesterID, cardID string) error {
	c, err := s.cards.FindByID(ctx, cardID)
	if err != nil {
		return err
	}
	if !c.IsOwnedBy(requesterID) {
		slog.Warn("refused to delete card owned by another user",
			slog.String("user_id", requesterID),
			slog.String("card_id", c.ID),
		)
		return model.NewForbiddenError(model.MsgCardNotOwned)
	}

	if err := s.cards.Delete(ctx, c.ID); err != nil {
		return err
	}

	slog.Info("card deleted",
		slog.String("user_id", requesterID),
		slog.String("card_id", c.ID),
	)
	return nil
}

// Like はカードにいいねし、更新後のカードを返す。何度呼んでもいいねは1件のまま。
func (s *Service) Like(ctx context.Context, userID, cardID string) (*model.Card, error) {
	if err := s.cards.AddLike(ctx, cardID, userID); err != nil {
		return nil, err
	}
	return s.cards.FindByID(ctx, cardID)
}

// Dislike はいいねを取り消し、更新後のカードを返す。いいねしていない場合も成功する。
func (s *Service) Dislike(ctx context.Context, userID, cardID string) (*model.Card, error) {
	if err := s.cards.RemoveLike(ctx, cardID, userID); err != nil {
		return nil, err
	}
	return s.cards.FindByID(ctx, cardID)
}
