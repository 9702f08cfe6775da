package service

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/treelinux/leafregistry/internal/domain"
)

// fakeUserRepo is an in-memory stand-in for the postgres repository.
type fakeUserRepo struct {
	mu     sync.Mutex
	nextID int64
	users  map[int64]*domain.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[int64]*domain.User)}
}

func (f *fakeUserRepo) Create(ctx context.Context, user *domain.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	user.ID = f.nextID
	u := *user
	f.users[u.ID] = &u
	return nil
}

func (f *fakeUserRepo) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Username == username {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakeUserRepo) GetByHandle(ctx context.Context, handle uuid.UUID) (*domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Handle == handle {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakeUserRepo) SearchByUsername(ctx context.Context, query string, limit int) ([]domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.User
	q := strings.ToLower(query)
	for _, u := range f.users {
		if strings.Contains(strings.ToLower(u.Username), q) && len(out) < limit {
			out = append(out, *u)
		}
	}
	return out, nil
}

func (f *fakeUserRepo) UpdateBio(ctx context.Context, id int64, bio *string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if u, ok := f.users[id]; ok {
		u.Bio = bio
	}
	return nil
}

func (f *fakeUserRepo) UpdateAvatar(ctx context.Context, id int64, avatar *string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if u, ok := f.users[id]; ok {
		u.Avatar = avatar
	}
	return nil
}

func (f *fakeUserRepo) UpdateRole(ctx context.Context, id int64, role domain.Role) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if u, ok := f.users[id]; ok {
		u.Role = role
	}
	return nil
}

func (f *fakeUserRepo) UpdateBan(ctx context.Context, id int64, permanent bool, until *time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if u, ok := f.users[id]; ok {
		u.BanPermanent = permanent
		u.BanUntil = until
	}
	return nil
}

func (f *fakeUserRepo) UpdateUsername(ctx context.Context, id int64, username string, changedAt time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if u, ok := f.users[id]; ok {
		u.Username = username
		t := changedAt
		u.LastRename = &t
	}
	return nil
}

func (f *fakeUserRepo) add(user domain.User) *domain.User {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	user.ID = f.nextID
	if user.Handle == uuid.Nil {
		user.Handle = uuid.New()
	}
	f.users[user.ID] = &user
	cp := user
	return &cp
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
