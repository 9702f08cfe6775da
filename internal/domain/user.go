package domain

import (
	"time"

	"github.com/google/uuid"
)

type Role string

const (
	RoleMember Role = "member"
	RoleAdmin  Role = "admin"
	RoleOwner  Role = "owner"
)

// Privileged reports whether the role may moderate submissions and act on
// other users' files.
func (r Role) Privileged() bool {
	return r == RoleAdmin || r == RoleOwner
}

type User struct {
	ID           int64      `json:"id"`
	Username     string     `json:"username"`
	Handle       uuid.UUID  `json:"handle"`
	PasswordHash string     `json:"-"`
	Bio          *string    `json:"bio,omitempty"`
	Avatar       *string    `json:"avatar,omitempty"`
	Role         Role       `json:"role"`
	BanPermanent bool       `json:"ban_permanent"`
	BanUntil     *time.Time `json:"ban_until,omitempty"`
	LastRename   *time.Time `json:"last_rename,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
}

// Banned reports whether the user is banned at the given instant.
func (u *User) Banned(now time.Time) bool {
	if u.BanPermanent {
		return true
	}
	return u.BanUntil != nil && u.BanUntil.After(now)
}
