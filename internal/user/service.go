// Package user はユーザー登録、認証、プロフィール管理のドメインロジックを提供する。
package user

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/mesto/internal/model"
	"github.com/hitoshi/mesto/internal/repository"
	"github.com/hitoshi/mesto/internal/validation"
)

// PasswordHasher はパスワードのハッシュ化と照合のインターフェース。
type PasswordHasher interface {
	Hash(plain string) (string, error)
	Verify(plain, digest string) bool
}

// TokenIssuer は認証トークンの発行インターフェース。
type TokenIssuer interface {
	Issue(subjectID string) (string, error)
}

// Service はユーザー管理のサービス層。
type Service struct {
	users     repository.UserRepository
	hasher    PasswordHasher
	tokens    TokenIssuer
	validator *validation.Validator
	now       func() time.Time
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(
	users repository.UserRepository,
	hasher PasswordHasher,
	tokens TokenIssuer,
	validator *validation.Validator,
) *Service {
	return &Service{
		users:     users,
		hasher:    hasher,
		tokens:    tokens,
		validator: validator,
		now:       time.Now,
	}
}

// SignUp は入力を検証してユーザーを登録する。
// 省略されたプロフィール項目には既定値を設定する。
// メールアドレスが登録済みの場合はConflictを返す。
func (s *Service) SignUp(ctx context.Context, in validation.SignUpInput) (*model.User, error) {
	in, err := s.validator.SignUp(in)
	if err != nil {
		return nil, err
	}

	digest, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, model.NewInternalError(fmt.Errorf("failed to hash password: %w", err))
	}

	now := s.now()
	u := &model.User{
		ID:           uuid.NewString(),
		Email:        in.Email,
		PasswordHash: digest,
		Name:         orDefault(in.Name, model.DefaultUserName),
		About:        orDefault(in.About, model.DefaultUserAbout),
		Avatar:       orDefault(in.Avatar, model.DefaultUserAvatar),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.users.Create(ctx, u); err != nil {
		return nil, err
	}

	slog.Info("user signed up", slog.String("user_id", u.ID))
	return u, nil
}

// SignIn はメールアドレスとパスワードを照合し、認証トークンを発行する。
// ユーザーが存在しない場合とパスワード不一致の場合は同じUnauthorizedを返す。
func (s *Service) SignIn(ctx context.Context, email, password string) (string, error) {
	email, err := s.validator.SignIn(email, password)
	if err != nil {
		return "", err
	}

	u, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if model.IsKind(err, model.KindNotFound) {
			return "", model.NewUnauthorizedError(model.MsgBadCredentials)
		}
		return "", err
	}

	if !s.hasher.Verify(password, u.PasswordHash) {
		return "", model.NewUnauthorizedError(model.MsgBadCredentials)
	}

	token, err := s.tokens.Issue(u.ID)
	if err != nil {
		return "", model.NewInternalError(fmt.Errorf("failed to issue token: %w", err))
	}
	return token, nil
}

// List は全ユーザーを返す。
func (s *Service) List(ctx context.Context) ([]*model.User, error) {
	return s.users.List(ctx)
}

// Get は指定IDのユーザーを返す。
func (s *Service) Get(ctx context.Context, id string) (*model.User, error) {
	return s.users.FindByID(ctx, id)
}

// Me は認証済みユーザー自身の情報を返す。
// トークン発行後に削除されたユーザーの場合はNotFoundになる。
func (s *Service) Me(ctx context.Context, userID string) (*model.User, error) {
	return s.users.FindByID(ctx, userID)
}

// UpdateProfile は名前と自己紹介を更新する。nilの項目は変更しない。
func (s *Service) UpdateProfile(ctx context.Context, userID string, name, about *string) (*model.User, error) {
	update, err := s.validator.Profile(name, about)
	if err != nil {
		return nil, err
	}
	return s.users.Update(ctx, userID, update)
}

// UpdateAvatar はアバターURLを更新する。
func (s *Service) UpdateAvatar(ctx context.Context, userID, avatar string) (*model.User, error) {
	avatar, err := s.validator.Avatar(avatar)
	if err != nil {
		return nil, err
	}
	return s.users.Update(ctx, userID, model.ProfileUpdate{Avatar: &avatar})
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
