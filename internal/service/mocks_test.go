package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"hackmate/internal/cache"
	"hackmate/internal/model"
	"hackmate/internal/queue"
)

// =============================================================================
// MOCK REPOSITORIES
// =============================================================================
//
// Services depend on repository INTERFACES, so tests swap in mocks whose
// behavior each test sets through the xxxFn fields.

type mockUserRepository struct {
	createFn          func(ctx context.Context, user *model.User) error
	getByIDFn         func(ctx context.Context, id string) (*model.User, error)
	getByEmailFn      func(ctx context.Context, email string) (*model.User, error)
	existsByEmailFn   func(ctx context.Context, email string) (bool, error)
	updateFn          func(ctx context.Context, user *model.User) error
	updatePasswordFn  func(ctx context.Context, id, passwordHashed string) error
	countFn           func(ctx context.Context) (int, error)
	deleteFn          func(ctx context.Context, id string) error
	createCalls       []*model.User
	deletedIDs        []string
	updateCalls       []*model.User
	updatePasswordIDs []string
}

func (m *mockUserRepository) Create(ctx context.Context, user *model.User) error {
	m.createCalls = append(m.createCalls, user)
	if m.createFn != nil {
		return m.createFn(ctx, user)
	}
	return nil
}

func (m *mockUserRepository) GetByID(ctx context.Context, id string) (*model.User, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, id)
	}
	return nil, model.ErrUserNotFound
}

func (m *mockUserRepository) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	if m.getByEmailFn != nil {
		return m.getByEmailFn(ctx, email)
	}
	return nil, model.ErrUserNotFound
}

func (m *mockUserRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	if m.existsByEmailFn != nil {
		return m.existsByEmailFn(ctx, email)
	}
	return false, nil
}

func (m *mockUserRepository) Update(ctx context.Context, user *model.User) error {
	m.updateCalls = append(m.updateCalls, user)
	if m.updateFn != nil {
		return m.updateFn(ctx, user)
	}
	return nil
}

func (m *mockUserRepository) UpdatePassword(ctx context.Context, id, passwordHashed string) error {
	m.updatePasswordIDs = append(m.updatePasswordIDs, id)
	if m.updatePasswordFn != nil {
		return m.updatePasswordFn(ctx, id, passwordHashed)
	}
	return nil
}

func (m *mockUserRepository) Count(ctx context.Context) (int, error) {
	if m.countFn != nil {
		return m.countFn(ctx)
	}
	return 0, nil
}

func (m *mockUserRepository) Delete(ctx context.Context, id string) error {
	m.deletedIDs = append(m.deletedIDs, id)
	if m.deleteFn != nil {
		return m.deleteFn(ctx, id)
	}
	return nil
}

// usersByID returns a getByIDFn backed by a fixed set of users.
func usersByID(users ...*model.User) func(ctx context.Context, id string) (*model.User, error) {
	return func(ctx context.Context, id string) (*model.User, error) {
		for _, u := range users {
			if u.ID == id {
				copied := *u
				return &copied, nil
			}
		}
		return nil, model.ErrUserNotFound
	}
}

// memRefreshTokenRepository keeps tokens in memory so rotation can be tested
// end to end. Like the SQL table, it rejects empty and duplicate ids.
type memRefreshTokenRepository struct {
	mu       sync.Mutex
	tokens   map[string]*model.RefreshToken
	createFn func(ctx context.Context, token *model.RefreshToken) error
}

func newMemRefreshTokenRepository() *memRefreshTokenRepository {
	return &memRefreshTokenRepository{tokens: make(map[string]*model.RefreshToken)}
}

func (m *memRefreshTokenRepository) Create(ctx context.Context, token *model.RefreshToken) error {
	if m.createFn != nil {
		if err := m.createFn(ctx, token); err != nil {
			return err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if token.ID == "" {
		return fmt.Errorf("refresh token without id")
	}
	if _, ok := m.tokens[token.ID]; ok {
		return fmt.Errorf("duplicate refresh token id %q", token.ID)
	}
	copied := *token
	m.tokens[token.ID] = &copied
	return nil
}

func (m *memRefreshTokenRepository) FindByTokenHash(ctx context.Context, tokenHash string) (*model.RefreshToken, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range m.tokens {
		if t.TokenHash == tokenHash {
			copied := *t
			return &copied, nil
		}
	}
	return nil, model.ErrRefreshTokenNotFound
}

func (m *memRefreshTokenRepository) Revoke(ctx context.Context, id string, replacedBy *string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tokens[id]
	if !ok {
		return model.ErrRefreshTokenNotFound
	}
	now := time.Now().UTC()
	t.RevokedAt = &now
	t.ReplacedBy = replacedBy
	return nil
}

func (m *memRefreshTokenRepository) RevokeAllForUser(ctx context.Context, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now().UTC()
	for _, t := range m.tokens {
		if t.UserID == userID && t.RevokedAt == nil {
			t.RevokedAt = &now
		}
	}
	return nil
}

func (m *memRefreshTokenRepository) DeleteExpired(ctx context.Context, before time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for id, t := range m.tokens {
		if t.ExpiresAt.Before(before) {
			delete(m.tokens, id)
			n++
		}
	}
	return n, nil
}

func (m *memRefreshTokenRepository) activeFor(userID string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, t := range m.tokens {
		if t.UserID == userID && t.RevokedAt == nil {
			n++
		}
	}
	return n
}

type mockPostRepository struct {
	createFn            func(ctx context.Context, post *model.Post) error
	getByIDFn           func(ctx context.Context, id string) (*model.Post, error)
	getByIDsFn          func(ctx context.Context, ids []string) ([]model.Post, error)
	listFn              func(ctx context.Context) ([]model.Post, error)
	listByAuthorFn      func(ctx context.Context, authorID string) ([]model.Post, error)
	listTimelineFn      func(ctx context.Context) ([]cache.PostScore, error)
	incrementViewsFn    func(ctx context.Context, id string) error
	incrementReactionFn func(ctx context.Context, id string, kind model.ReactionKind) error
	createCalls         []*model.Post
	listCalls           int
}

func (m *mockPostRepository) Create(ctx context.Context, post *model.Post) error {
	m.createCalls = append(m.createCalls, post)
	if m.createFn != nil {
		return m.createFn(ctx, post)
	}
	return nil
}

func (m *mockPostRepository) GetByID(ctx context.Context, id string) (*model.Post, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, id)
	}
	return nil, model.ErrPostNotFound
}

func (m *mockPostRepository) GetByIDs(ctx context.Context, ids []string) ([]model.Post, error) {
	if m.getByIDsFn != nil {
		return m.getByIDsFn(ctx, ids)
	}
	return []model.Post{}, nil
}

func (m *mockPostRepository) List(ctx context.Context) ([]model.Post, error) {
	m.listCalls++
	if m.listFn != nil {
		return m.listFn(ctx)
	}
	return []model.Post{}, nil
}

func (m *mockPostRepository) ListByAuthor(ctx context.Context, authorID string) ([]model.Post, error) {
	if m.listByAuthorFn != nil {
		return m.listByAuthorFn(ctx, authorID)
	}
	return []model.Post{}, nil
}

func (m *mockPostRepository) ListTimeline(ctx context.Context) ([]cache.PostScore, error) {
	if m.listTimelineFn != nil {
		return m.listTimelineFn(ctx)
	}
	return nil, nil
}

func (m *mockPostRepository) IncrementViews(ctx context.Context, id string) error {
	if m.incrementViewsFn != nil {
		return m.incrementViewsFn(ctx, id)
	}
	return nil
}

func (m *mockPostRepository) IncrementReaction(ctx context.Context, id string, kind model.ReactionKind) error {
	if m.incrementReactionFn != nil {
		return m.incrementReactionFn(ctx, id, kind)
	}
	return nil
}

type mockSavedPostRepository struct {
	saved map[string][]string
}

func (m *mockSavedPostRepository) Save(ctx context.Context, userID, postID string) error {
	if m.saved == nil {
		m.saved = make(map[string][]string)
	}
	for _, id := range m.saved[userID] {
		if id == postID {
			return nil
		}
	}
	m.saved[userID] = append(m.saved[userID], postID)
	return nil
}

func (m *mockSavedPostRepository) Remove(ctx context.Context, userID, postID string) error {
	ids := m.saved[userID]
	for i, id := range ids {
		if id == postID {
			m.saved[userID] = append(ids[:i], ids[i+1:]...)
			return nil
		}
	}
	return nil
}

func (m *mockSavedPostRepository) ListPostIDs(ctx context.Context, userID string) ([]string, error) {
	return append([]string(nil), m.saved[userID]...), nil
}

type mockConversationRepository struct {
	createFn        func(ctx context.Context, conv *model.Conversation) error
	getByIDFn       func(ctx context.Context, id string) (*model.Conversation, error)
	findByPairFn    func(ctx context.Context, a, b string) (*model.Conversation, error)
	listForUserFn   func(ctx context.Context, userID string) ([]model.Conversation, error)
	updatePreviewFn func(ctx context.Context, id, preview string, at time.Time) error
	createCalls     []*model.Conversation
	previews        []string
}

func (m *mockConversationRepository) Create(ctx context.Context, conv *model.Conversation) error {
	m.createCalls = append(m.createCalls, conv)
	if m.createFn != nil {
		return m.createFn(ctx, conv)
	}
	return nil
}

func (m *mockConversationRepository) GetByID(ctx context.Context, id string) (*model.Conversation, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, id)
	}
	return nil, model.ErrConversationNotFound
}

func (m *mockConversationRepository) FindByPair(ctx context.Context, a, b string) (*model.Conversation, error) {
	if m.findByPairFn != nil {
		return m.findByPairFn(ctx, a, b)
	}
	return nil, model.ErrConversationNotFound
}

func (m *mockConversationRepository) ListForUser(ctx context.Context, userID string) ([]model.Conversation, error) {
	if m.listForUserFn != nil {
		return m.listForUserFn(ctx, userID)
	}
	return []model.Conversation{}, nil
}

func (m *mockConversationRepository) UpdatePreview(ctx context.Context, id, preview string, at time.Time) error {
	m.previews = append(m.previews, preview)
	if m.updatePreviewFn != nil {
		return m.updatePreviewFn(ctx, id, preview, at)
	}
	return nil
}

// memMessageRepository is an ordered in-memory log.
type memMessageRepository struct {
	messages  []model.Message
	listCalls int
	createFn  func(ctx context.Context, msg *model.Message) error
}

func (m *memMessageRepository) Create(ctx context.Context, msg *model.Message) error {
	if m.createFn != nil {
		if err := m.createFn(ctx, msg); err != nil {
			return err
		}
	}
	m.messages = append(m.messages, *msg)
	return nil
}

func (m *memMessageRepository) ListAfter(ctx context.Context, conversationID string, after *model.MessageCursor, limit int) ([]model.Message, error) {
	m.listCalls++
	out := []model.Message{}
	for _, msg := range m.messages {
		if msg.ConversationID != conversationID {
			continue
		}
		if after != nil {
			if msg.CreatedAt.Before(after.CreatedAt) ||
				(msg.CreatedAt.Equal(after.CreatedAt) && msg.ID <= after.ID) {
				continue
			}
		}
		out = append(out, msg)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

type mockDeviceTokenRepository struct {
	tokens  map[string]model.DeviceToken
	deleted []string
}

func (m *mockDeviceTokenRepository) Upsert(ctx context.Context, userID, token, platform string) error {
	if m.tokens == nil {
		m.tokens = make(map[string]model.DeviceToken)
	}
	m.tokens[token] = model.DeviceToken{UserID: userID, Token: token, Platform: platform}
	return nil
}

func (m *mockDeviceTokenRepository) GetByUserID(ctx context.Context, userID string) ([]model.DeviceToken, error) {
	var out []model.DeviceToken
	for _, t := range m.tokens {
		if t.UserID == userID {
			out = append(out, t)
		}
	}
	return out, nil
}

func (m *mockDeviceTokenRepository) Delete(ctx context.Context, token string) error {
	m.deleted = append(m.deleted, token)
	delete(m.tokens, token)
	return nil
}

// =============================================================================
// MOCK COLLABORATORS
// =============================================================================

type mockPublisher struct {
	events []queue.Event
	err    error
}

func (m *mockPublisher) Publish(ctx context.Context, stream string, event queue.Event) (string, error) {
	m.events = append(m.events, event)
	return "1-0", m.err
}

type mockTimelineCache struct {
	ids       []string
	exists    bool
	addErr    error
	getErr    error
	warmed    []cache.PostScore
	added     []string
	invalided int
}

func (m *mockTimelineCache) AddPost(ctx context.Context, postID string, timestamp int64) error {
	m.added = append(m.added, postID)
	return m.addErr
}

func (m *mockTimelineCache) GetTimeline(ctx context.Context) ([]string, error) {
	return m.ids, m.getErr
}

func (m *mockTimelineCache) WarmCache(ctx context.Context, posts []cache.PostScore) error {
	m.warmed = posts
	m.exists = true
	return nil
}

func (m *mockTimelineCache) Exists(ctx context.Context) (bool, error) {
	return m.exists, nil
}

func (m *mockTimelineCache) Invalidate(ctx context.Context) error {
	m.invalided++
	m.exists = false
	return nil
}

type mockPusher struct {
	stale  []string
	tokens []string
	title  string
	body   string
}

func (m *mockPusher) SendToTokens(ctx context.Context, tokens []string, title, body string, data map[string]string) ([]string, error) {
	m.tokens = tokens
	m.title = title
	m.body = body
	return m.stale, nil
}
