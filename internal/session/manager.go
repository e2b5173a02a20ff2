package session

import (
	"context"
	"log"
	"sync"

	"hackmate/internal/model"
)

// Authenticator opens and closes sessions. service.AuthService implements it.
type Authenticator interface {
	Login(ctx context.Context, req *model.LoginRequest) (*model.Session, error)
	Register(ctx context.Context, req *model.RegisterRequest) (*model.Session, error)
	Logout(ctx context.Context, refreshToken string) error
}

// Manager holds the current session of one client and reports every
// transition to its subscribers.
type Manager struct {
	auth Authenticator

	mu      sync.RWMutex
	current *model.Session
	subs    map[chan *model.Session]struct{}
}

func NewManager(auth Authenticator) *Manager {
	return &Manager{
		auth: auth,
		subs: make(map[chan *model.Session]struct{}),
	}
}

// Login replaces the current session on success and leaves it untouched on
// failure.
func (m *Manager) Login(ctx context.Context, email, secret string) (*model.Session, error) {
	s, err := m.auth.Login(ctx, &model.LoginRequest{Email: email, Password: secret})
	if err != nil {
		return nil, err
	}
	m.set(s)
	return s, nil
}

// Register creates the account and makes it the current session.
func (m *Manager) Register(ctx context.Context, draft *model.RegisterRequest) (*model.Session, error) {
	s, err := m.auth.Register(ctx, draft)
	if err != nil {
		return nil, err
	}
	m.set(s)
	return s, nil
}

// Logout clears the current session unconditionally. Revoking the refresh
// token server side is best-effort.
func (m *Manager) Logout(ctx context.Context) {
	m.mu.RLock()
	prev := m.current
	m.mu.RUnlock()

	if prev != nil && prev.RefreshToken != "" {
		if err := m.auth.Logout(ctx, prev.RefreshToken); err != nil {
			log.Printf("[Session] Logout revoke FAILED: user=%s err=%v", prev.UserID, err)
		}
	}
	m.set(nil)
}

// Current returns the current session, nil when signed out.
func (m *Manager) Current() *model.Session {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current
}

// Subscribe delivers the current session immediately and then every
// transition. Only the latest value is kept for a slow reader. The channel
// is closed when ctx ends.
func (m *Manager) Subscribe(ctx context.Context) <-chan *model.Session {
	ch := make(chan *model.Session, 1)

	m.mu.Lock()
	ch <- m.current
	m.subs[ch] = struct{}{}
	m.mu.Unlock()

	go func() {
		<-ctx.Done()
		m.mu.Lock()
		delete(m.subs, ch)
		close(ch)
		m.mu.Unlock()
	}()
	return ch
}

func (m *Manager) set(s *model.Session) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.current == nil && s == nil {
		return
	}
	m.current = s
	for ch := range m.subs {
		select {
		case <-ch:
		default:
		}
		ch <- s
	}
}
