package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/treelinux/leafregistry/internal/domain"
)

type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
	GetByHandle(ctx context.Context, handle uuid.UUID) (*domain.User, error)
	SearchByUsername(ctx context.Context, query string, limit int) ([]domain.User, error)
	UpdateBio(ctx context.Context, id int64, bio *string) error
	UpdateAvatar(ctx context.Context, id int64, avatar *string) error
	UpdateRole(ctx context.Context, id int64, role domain.Role) error
	UpdateBan(ctx context.Context, id int64, permanent bool, until *time.Time) error
	UpdateUsername(ctx context.Context, id int64, username string, changedAt time.Time) error
}
