package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/treelinux/leafregistry/internal/domain"
)

const userColumns = "id, username, handle, password_hash, bio, avatar, role, ban_permanent, ban_until, last_rename, created_at"

type UserRepo struct {
	pool *pgxpool.Pool
}

func NewUserRepo(pool *pgxpool.Pool) *UserRepo {
	return &UserRepo{pool: pool}
}

func (r *UserRepo) Create(ctx context.Context, user *domain.User) error {
	query := `
		INSERT INTO users (username, handle, password_hash, role, created_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`

	return r.pool.QueryRow(ctx, query,
		user.Username, user.Handle, user.PasswordHash, user.Role, user.CreatedAt,
	).Scan(&user.ID)
}

func (r *UserRepo) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	return r.scanUser(ctx, "SELECT "+userColumns+" FROM users WHERE username = $1", username)
}

func (r *UserRepo) GetByHandle(ctx context.Context, handle uuid.UUID) (*domain.User, error) {
	return r.scanUser(ctx, "SELECT "+userColumns+" FROM users WHERE handle = $1", handle)
}

func (r *UserRepo) SearchByUsername(ctx context.Context, query string, limit int) ([]domain.User, error) {
	rows, err := r.pool.Query(ctx,
		"SELECT "+userColumns+" FROM users WHERE username ILIKE '%' || $1 || '%' ORDER BY username LIMIT $2",
		query, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []domain.User
	for rows.Next() {
		var u domain.User
		if err := scanInto(rows, &u); err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

func (r *UserRepo) UpdateBio(ctx context.Context, id int64, bio *string) error {
	_, err := r.pool.Exec(ctx, "UPDATE users SET bio = $1 WHERE id = $2", bio, id)
	return err
}

func (r *UserRepo) UpdateAvatar(ctx context.Context, id int64, avatar *string) error {
	_, err := r.pool.Exec(ctx, "UPDATE users SET avatar = $1 WHERE id = $2", avatar, id)
	return err
}

func (r *UserRepo) UpdateRole(ctx context.Context, id int64, role domain.Role) error {
	_, err := r.pool.Exec(ctx, "UPDATE users SET role = $1 WHERE id = $2", role, id)
	return err
}

func (r *UserRepo) UpdateBan(ctx context.Context, id int64, permanent bool, until *time.Time) error {
	_, err := r.pool.Exec(ctx, "UPDATE users SET ban_permanent = $1, ban_until = $2 WHERE id = $3", permanent, until, id)
	return err
}

func (r *UserRepo) UpdateUsername(ctx context.Context, id int64, username string, changedAt time.Time) error {
	_, err := r.pool.Exec(ctx, "UPDATE users SET username = $1, last_rename = $2 WHERE id = $3", username, changedAt, id)
	return err
}

func (r *UserRepo) scanUser(ctx context.Context, query string, arg any) (*domain.User, error) {
	var u domain.User
	err := scanInto(r.pool.QueryRow(ctx, query, arg), &u)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func scanInto(row pgx.Row, u *domain.User) error {
	return row.Scan(
		&u.ID, &u.Username, &u.Handle, &u.PasswordHash,
		&u.Bio, &u.Avatar, &u.Role,
		&u.BanPermanent, &u.BanUntil, &u.LastRename, &u.CreatedAt,
	)
}
