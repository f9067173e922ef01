package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/hitoshi/mesto/internal/model"
)

// MemoryUserRepo はプロセス内のマップにユーザーを保持するリポジトリ。
// データベースなしでのローカル実行とテストに使用する。
type MemoryUserRepo struct {
	mu      sync.RWMutex
	users   map[string]*model.User
	byEmail map[string]string
	order   []string
}

// NewMemoryUserRepo はMemoryUserRepoを生成する。
func NewMemoryUserRepo() *MemoryUserRepo {
	return &MemoryUserRepo{
		users:   make(map[string]*model.User),
		byEmail: make(map[string]string),
	}
}

// Create はユーザーを作成する。
func (r *MemoryUserRepo) Create(_ context.Context, user *model.User) error {
	uid, err := parseID(user.ID, model.MsgInvalidUserID)
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byEmail[user.Email]; ok {
		return model.NewConflictError(model.MsgEmailAlreadyTaken)
	}
	stored := *user
	stored.ID = uid
	r.users[uid] = &stored
	r.byEmail[user.Email] = uid
	r.order = append(r.order, uid)
	return nil
}

// FindByID は指定IDのユーザーを取得する。
func (r *MemoryUserRepo) FindByID(_ context.Context, id string) (*model.User, error) {
	uid, err := parseID(id, model.MsgInvalidUserID)
	if err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.get(uid)
}

// FindByEmail はメールアドレスでユーザーを取得する。
func (r *MemoryUserRepo) FindByEmail(_ context.Context, email string) (*model.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	uid, ok := r.byEmail[email]
	if !ok {
		return nil, model.NewNotFoundError(model.MsgUserNotFound)
	}
	return r.get(uid)
}

// List は全ユーザーを作成順に返す。
func (r *MemoryUserRepo) List(_ context.Context) ([]*model.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	users := make([]*model.User, 0, len(r.order))
	for _, id := range r.order {
		u := *r.users[id]
		users = append(users, &u)
	}
	return users, nil
}

// Update はプロフィールを部分更新する。
func (r *MemoryUserRepo) Update(_ context.Context, id string, update model.ProfileUpdate) (*model.User, error) {
	uid, err := parseID(id, model.MsgInvalidUserID)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.users[uid]
	if !ok {
		return nil, model.NewNotFoundError(model.MsgUserNotFound)
	}
	if update.Name != nil {
		u.Name = *update.Name
	}
	if update.About != nil {
		u.About = *update.About
	}
	if update.Avatar != nil {
		u.Avatar = *update.Avatar
	}
	u.UpdatedAt = time.Now()

	out := *u
	return &out, nil
}

// get はロック取得済みの状態で呼び出す。
func (r *MemoryUserRepo) get(uid string) (*model.User, error) {
	u, ok := r.users[uid]
	if !ok {
		return nil, model.NewNotFoundError(model.MsgUserNotFound)
	}
	out := *u
	return &out, nil
}

// MemoryCardRepo はプロセス内にカードを保持するリポジトリ。
// ownerとlikesの展開にはMemoryUserRepoを参照する。
type MemoryCardRepo struct {
	users *MemoryUserRepo

	mu    sync.RWMutex
	cards map[string]*memoryCard
	seq   int64
}

type memoryCard struct {
	card  model.Card
	likes []string
	seq   int64
}

// NewMemoryCardRepo はMemoryCardRepoを生成する。
func NewMemoryCardRepo(users *MemoryUserRepo) *MemoryCardRepo {
	return &MemoryCardRepo{
		users: users,
		cards: make(map[string]*memoryCard),
	}
}

// List は全カードを作成日時の降順で返す。
func (r *MemoryCardRepo) List(ctx context.Context) ([]*model.Card, error) {
	r.mu.RLock()
	entries := make([]*memoryCard, 0, len(r.cards))
	for _, e := range r.cards {
		entries = append(entries, e)
	}
	r.mu.RUnlock()

	sort.Slice(entries, func(i, j int) bool {
		if !entries[i].card.CreatedAt.Equal(entries[j].card.CreatedAt) {
			return entries[i].card.CreatedAt.After(entries[j].card.CreatedAt)
		}
		return entries[i].seq > entries[j].seq
	})

	cards := make([]*model.Card, 0, len(entries))
	for _, e := range entries {
		card, err := r.populate(ctx, e)
		if err != nil {
			return nil, err
		}
		cards = append(cards, card)
	}
	return cards, nil
}

// FindByID は指定IDのカードを取得する。
func (r *MemoryCardRepo) FindByID(ctx context.Context, id string) (*model.Card, error) {
	cid, err := parseID(id, model.MsgInvalidCardID)
	if err != nil {
		return nil, err
	}

	r.mu.RLock()
	e, ok := r.cards[cid]
	r.mu.RUnlock()
	if !ok {
		return nil, model.NewNotFoundError(model.MsgCardNotFound)
	}
	return r.populate(ctx, e)
}

// Create はカードを作成する。所有者が存在しない場合はNotFoundを返す。
func (r *MemoryCardRepo) Create(ctx context.Context, card *model.Card) error {
	cid, err := parseID(card.ID, model.MsgInvalidCardID)
	if err != nil {
		return err
	}
	if _, err := r.users.FindByID(ctx, card.OwnerID); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.seq++
	stored := model.Card{
		ID:        cid,
		Name:      card.Name,
		Link:      card.Link,
		OwnerID:   card.OwnerID,
		CreatedAt: card.CreatedAt,
	}
	r.cards[cid] = &memoryCard{card: stored, seq: r.seq}
	return nil
}

// Delete は指定IDのカードを削除する。
func (r *MemoryCardRepo) Delete(_ context.Context, id string) error {
	cid, err := parseID(id, model.MsgInvalidCardID)
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.cards[cid]; !ok {
		return model.NewNotFoundError(model.MsgCardNotFound)
	}
	delete(r.cards, cid)
	return nil
}

// AddLike はいいねを追加する。既にいいね済みの場合は何もしない。
func (r *MemoryCardRepo) AddLike(ctx context.Context, cardID, userID string) error {
	cid, err := parseID(cardID, model.MsgInvalidCardID)
	if err != nil {
		return err
	}
	uid, err := parseID(userID, model.MsgInvalidUserID)
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.cards[cid]
	if !ok {
		return model.NewNotFoundError(model.MsgCardNotFound)
	}
	if _, err := r.users.FindByID(ctx, uid); err != nil {
		return err
	}
	for _, id := range e.likes {
		if id == uid {
			return nil
		}
	}
	e.likes = append(e.likes, uid)
	return nil
}

// RemoveLike はいいねを取り消す。
func (r *MemoryCardRepo) RemoveLike(_ context.Context, cardID, userID string) error {
	cid, err := parseID(cardID, model.MsgInvalidCardID)
	if err != nil {
		return err
	}
	uid, err := parseID(userID, model.MsgInvalidUserID)
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.cards[cid]
	if !ok {
		return nil
	}
	for i, id := range e.likes {
		if id == uid {
			e.likes = append(e.likes[:i:i], e.likes[i+1:]...)
			break
		}
	}
	return nil
}

// populate はカードのコピーにownerとlikesを展開する。
// 削除済みユーザーのいいねは結果から除外する。
func (r *MemoryCardRepo) populate(ctx context.Context, e *memoryCard) (*model.Card, error) {
	r.mu.RLock()
	card := e.card
	likes := append([]string(nil), e.likes...)
	r.mu.RUnlock()

	owner, err := r.users.FindByID(ctx, card.OwnerID)
	if err != nil {
		return nil, err
	}
	card.Owner = owner
	card.Likes = make([]*model.User, 0, len(likes))
	for _, id := range likes {
		u, err := r.users.FindByID(ctx, id)
		if err != nil {
			continue
		}
		card.Likes = append(card.Likes, u)
	}
	return &card, nil
}

// compile-time interface checks
var (
	_ UserRepository = (*MemoryUserRepo)(nil)
	_ CardRepository = (*MemoryCardRepo)(nil)
)
