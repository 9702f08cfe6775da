package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/treelinux/leafregistry/internal/domain"
	"github.com/treelinux/leafregistry/internal/repository"
	"github.com/treelinux/leafregistry/internal/storage"
)

// RenameCooldown is how long a non-privileged user must wait between
// username changes.
const RenameCooldown = 7 * 24 * time.Hour

var (
	ErrUserNotFound          = errors.New("user not found")
	ErrRenameCooldown        = errors.New("username was changed too recently")
	ErrRenamePartial         = errors.New("rename finished with errors")
	ErrSelfBan               = errors.New("cannot ban yourself")
	ErrCannotBanOwner        = errors.New("cannot ban owner")
	ErrAdminBanRequiresOwner = errors.New("only owner may ban admins")
	ErrOwnerOnly             = errors.New("only owner may change roles")
	ErrBadAvatarType         = errors.New("unsupported avatar image type")
)

var avatarExtensions = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".gif":  true,
	".webp": true,
}

// AccountService covers self-service profile edits and account
// administration (bans, roles, the rename cascade).
type AccountService struct {
	userRepo repository.UserRepository
	store    *storage.Store
	log      *slog.Logger
}

func NewAccountService(userRepo repository.UserRepository, store *storage.Store, log *slog.Logger) *AccountService {
	return &AccountService{userRepo: userRepo, store: store, log: log}
}

func (s *AccountService) SetBio(ctx context.Context, actor *domain.User, bio string) error {
	var value *string
	if bio != "" {
		value = &bio
	}
	if err := s.userRepo.UpdateBio(ctx, actor.ID, value); err != nil {
		return fmt.Errorf("updating bio: %w", err)
	}
	actor.Bio = value
	return nil
}

// SetAvatar stores the image under the actor's username and records the
// filename on the account.
func (s *AccountService) SetAvatar(ctx context.Context, actor *domain.User, filename string, content []byte) error {
	ext := strings.ToLower(filepath.Ext(filename))
	if !avatarExtensions[ext] {
		return ErrBadAvatarType
	}

	stored := actor.Username + ext
	if err := s.store.WriteAvatar(stored, content); err != nil {
		return err
	}
	if err := s.userRepo.UpdateAvatar(ctx, actor.ID, &stored); err != nil {
		return fmt.Errorf("updating avatar: %w", err)
	}
	actor.Avatar = &stored
	return nil
}

// Rename changes the actor's username and relocates their files. The
// identity record is updated first; the filesystem steps that follow are
// best-effort. A step failure is logged and reported as ErrRenamePartial —
// never rolled back, so callers must treat the rename as non-transactional.
func (s *AccountService) Rename(ctx context.Context, actor *domain.User, newName string) error {
	now := time.Now()
	if !actor.Role.Privileged() && actor.LastRename != nil && now.Sub(*actor.LastRename) < RenameCooldown {
		return ErrRenameCooldown
	}

	existing, err := s.userRepo.GetByUsername(ctx, newName)
	if err != nil {
		return err
	}
	if existing != nil {
		return ErrUsernameTaken
	}

	oldName := actor.Username
	if err := s.userRepo.UpdateUsername(ctx, actor.ID, newName, now); err != nil {
		return fmt.Errorf("updating username: %w", err)
	}
	actor.Username = newName
	actor.LastRename = &now

	partial := false
	for _, loc := range []domain.Location{domain.LocationPending, domain.LocationPublic} {
		if err := s.store.RenameOwner(loc, oldName, newName); err != nil {
			s.log.Warn("rename cascade: namespace move failed",
				"location", loc, "old", oldName, "new", newName, "error", err)
			partial = true
		}
	}

	if actor.Avatar != nil {
		newAvatar := newName + filepath.Ext(*actor.Avatar)
		if err := s.store.RenameAvatar(*actor.Avatar, newAvatar); err != nil {
			s.log.Warn("rename cascade: avatar move failed",
				"old", *actor.Avatar, "new", newAvatar, "error", err)
			partial = true
		} else if err := s.userRepo.UpdateAvatar(ctx, actor.ID, &newAvatar); err != nil {
			s.log.Warn("rename cascade: avatar record update failed", "error", err)
			partial = true
		} else {
			actor.Avatar = &newAvatar
		}
	}

	if partial {
		return ErrRenamePartial
	}
	return nil
}

// Ban blocks a user. A zero duration means permanent. An admin can ban
// members; only the owner can ban admins; the owner can never be banned.
func (s *AccountService) Ban(ctx context.Context, actor *domain.User, targetUsername string, duration time.Duration) error {
	if !actor.Role.Privileged() {
		return ErrForbidden
	}
	if actor.Username == targetUsername {
		return ErrSelfBan
	}

	target, err := s.userRepo.GetByUsername(ctx, targetUsername)
	if err != nil {
		return err
	}
	if target == nil {
		return ErrUserNotFound
	}
	if target.Role == domain.RoleOwner {
		return ErrCannotBanOwner
	}
	if target.Role == domain.RoleAdmin && actor.Role != domain.RoleOwner {
		return ErrAdminBanRequiresOwner
	}

	permanent := duration <= 0
	var until *time.Time
	if !permanent {
		t := time.Now().Add(duration)
		until = &t
	}
	if err := s.userRepo.UpdateBan(ctx, target.ID, permanent, until); err != nil {
		return fmt.Errorf("updating ban: %w", err)
	}
	s.log.Info("user banned", "target", targetUsername, "actor", actor.Username, "permanent", permanent)
	return nil
}

// Unban lifts any ban on the target.
func (s *AccountService) Unban(ctx context.Context, actor *domain.User, targetUsername string) error {
	if !actor.Role.Privileged() {
		return ErrForbidden
	}
	target, err := s.userRepo.GetByUsername(ctx, targetUsername)
	if err != nil {
		return err
	}
	if target == nil {
		return ErrUserNotFound
	}
	if err := s.userRepo.UpdateBan(ctx, target.ID, false, nil); err != nil {
		return fmt.Errorf("updating ban: %w", err)
	}
	return nil
}

// SetRole promotes or demotes a user. Role transitions happen only through
// this explicit owner action; the owner's own role never changes.
func (s *AccountService) SetRole(ctx context.Context, actor *domain.User, targetUsername string, role domain.Role) error {
	if actor.Role != domain.RoleOwner {
		return ErrOwnerOnly
	}
	if role != domain.RoleMember && role != domain.RoleAdmin {
		return fmt.Errorf("cannot assign role %q", role)
	}

	target, err := s.userRepo.GetByUsername(ctx, targetUsername)
	if err != nil {
		return err
	}
	if target == nil {
		return ErrUserNotFound
	}
	if target.Role == domain.RoleOwner {
		return ErrOwnerOnly
	}

	if err := s.userRepo.UpdateRole(ctx, target.ID, role); err != nil {
		return fmt.Errorf("updating role: %w", err)
	}
	s.log.Info("role changed", "target", targetUsername, "role", role, "actor", actor.Username)
	return nil
}
