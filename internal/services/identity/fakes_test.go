package identity

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/openchatd/identity/internal/auth"
	"github.com/openchatd/identity/internal/domain/event"
	"github.com/openchatd/identity/internal/domain/user"
)

// memStore is an in-memory user.Store for tests, with the same uniqueness
// semantics as the postgres adapter.
type memStore struct {
	mu   sync.Mutex
	byID map[string]*user.User
}

func newMemStore() *memStore {
	return &memStore{byID: make(map[string]*user.User)}
}

func (s *memStore) Create(_ context.Context, u *user.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.byID {
		if strings.EqualFold(existing.Email, u.Email) || strings.EqualFold(existing.Username, u.Username) {
			return user.ErrDuplicate
		}
	}
	cp := *u
	s.byID[u.ID] = &cp
	return nil
}

func (s *memStore) GetByID(_ context.Context, id string) (*user.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u, ok := s.byID[id]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, user.ErrNotFound
}

func (s *memStore) GetByEmail(_ context.Context, email string) (*user.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.byID {
		if strings.EqualFold(u.Email, email) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, user.ErrNotFound
}

func (s *memStore) GetByUsername(_ context.Context, username string) (*user.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.byID {
		if strings.EqualFold(u.Username, username) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, user.ErrNotFound
}

func (s *memStore) UpdatePassword(_ context.Context, id, hash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.byID[id]
	if !ok {
		return user.ErrNotFound
	}
	u.Password = hash
	u.UpdatedAt = time.Now().UTC()
	return nil
}

func (s *memStore) UpdatePresence(_ context.Context, id string, isOnline bool, lastSeen *time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.byID[id]
	if !ok {
		return user.ErrNotFound
	}
	u.IsOnline = isOnline
	u.LastSeen = lastSeen
	u.UpdatedAt = time.Now().UTC()
	return nil
}

func (s *memStore) setRole(id, role string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u, ok := s.byID[id]; ok {
		u.Role = role
	}
}

func (s *memStore) delete(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.byID, id)
}

// hookStore lets a test interleave work between a credential read and the
// write that follows it.
type hookStore struct {
	*memStore
	afterGetByEmail func()
}

func (s *hookStore) GetByEmail(ctx context.Context, email string) (*user.User, error) {
	u, err := s.memStore.GetByEmail(ctx, email)
	if err == nil && s.afterGetByEmail != nil {
		s.afterGetByEmail()
	}
	return u, err
}

// memPublisher records published events.
type memPublisher struct {
	mu     sync.Mutex
	events []event.Event
}

func (p *memPublisher) Publish(_ context.Context, e event.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return nil
}

func (p *memPublisher) all() []event.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]event.Event(nil), p.events...)
}

func testTokenService() *auth.TokenService {
	return auth.NewTokenService(auth.TokenConfig{
		AccessSecret:  []byte("test-access-secret"),
		RefreshSecret: []byte("test-refresh-secret"),
		AccessTTL:     time.Hour,
		RefreshTTL:    24 * time.Hour,
	})
}

func testUsecase() (*Usecase, *memStore, *memPublisher) {
	store := newMemStore()
	pub := &memPublisher{}
	uc := NewUsecase(nil, store, auth.NewHasher(4), testTokenService(), pub)
	return uc, store, pub
}
