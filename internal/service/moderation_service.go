package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/treelinux/leafregistry/internal/domain"
	"github.com/treelinux/leafregistry/internal/leaf"
	"github.com/treelinux/leafregistry/internal/storage"
)

var ErrForbidden = errors.New("operation requires admin or owner role")

// Notifier receives moderation lifecycle events. The WebSocket feed
// implements it; a nil notifier disables notifications.
type Notifier interface {
	SubmissionReceived(owner, filename string)
	SubmissionPublished(owner, filename, actor string)
	SubmissionDenied(owner, filename, actor string)
	SubmissionRemoved(owner, filename, actor string)
}

// ModerationService drives the Pending -> Public -> Absent state machine.
// All filesystem races resolve through the store: if two reviewers act on
// the same file, the second sees not-found.
type ModerationService struct {
	store    *storage.Store
	notifier Notifier
	log      *slog.Logger
}

func NewModerationService(store *storage.Store, notifier Notifier, log *slog.Logger) *ModerationService {
	return &ModerationService{store: store, notifier: notifier, log: log}
}

// Upload stores an actor's own file. Privileged uploads land directly in the
// public namespace; everyone else goes through the pending queue. Returns
// where the file ended up.
func (s *ModerationService) Upload(ctx context.Context, actor *domain.User, filename string, content []byte) (domain.Location, error) {
	name, err := storage.SanitizeFilename(filename)
	if err != nil {
		return "", err
	}

	loc := domain.LocationPending
	if actor.Role.Privileged() {
		loc = domain.LocationPublic
	}

	if err := s.store.Write(loc, actor.Username, name, content); err != nil {
		return "", err
	}

	// A direct-to-public upload supersedes any pending copy of the same
	// file; the states are exclusive per (user, filename).
	if loc == domain.LocationPublic {
		if err := s.store.Delete(domain.LocationPending, actor.Username, name); err != nil && !errors.Is(err, storage.ErrNotFound) {
			return "", err
		}
	}

	s.log.Info("submission uploaded",
		"owner", actor.Username, "filename", name, "location", loc)

	if s.notifier != nil {
		if loc == domain.LocationPending {
			s.notifier.SubmissionReceived(actor.Username, name)
		} else {
			s.notifier.SubmissionPublished(actor.Username, name, actor.Username)
		}
	}
	return loc, nil
}

// Accept publishes a pending submission. The pending copy no longer exists
// after a successful accept.
func (s *ModerationService) Accept(ctx context.Context, actor *domain.User, owner, filename string) error {
	if !actor.Role.Privileged() {
		return ErrForbidden
	}
	if err := s.store.Move(domain.LocationPending, domain.LocationPublic, owner, filename); err != nil {
		return err
	}
	s.log.Info("submission accepted", "owner", owner, "filename", filename, "actor", actor.Username)
	if s.notifier != nil {
		s.notifier.SubmissionPublished(owner, filename, actor.Username)
	}
	return nil
}

// Deny discards a pending submission.
func (s *ModerationService) Deny(ctx context.Context, actor *domain.User, owner, filename string) error {
	if !actor.Role.Privileged() {
		return ErrForbidden
	}
	if err := s.store.Delete(domain.LocationPending, owner, filename); err != nil {
		return err
	}
	s.log.Info("submission denied", "owner", owner, "filename", filename, "actor", actor.Username)
	if s.notifier != nil {
		s.notifier.SubmissionDenied(owner, filename, actor.Username)
	}
	return nil
}

// DeletePublished removes a file from the public namespace.
func (s *ModerationService) DeletePublished(ctx context.Context, actor *domain.User, owner, filename string) error {
	if !actor.Role.Privileged() {
		return ErrForbidden
	}
	if err := s.store.Delete(domain.LocationPublic, owner, filename); err != nil {
		return err
	}
	s.log.Info("published file deleted", "owner", owner, "filename", filename, "actor", actor.Username)
	if s.notifier != nil {
		s.notifier.SubmissionRemoved(owner, filename, actor.Username)
	}
	return nil
}

// ListPending returns the whole review queue.
func (s *ModerationService) ListPending(ctx context.Context, actor *domain.User) ([]domain.Submission, error) {
	if !actor.Role.Privileged() {
		return nil, ErrForbidden
	}
	return s.store.ListAll(domain.LocationPending)
}

// ListOwnPending returns the actor's own pending submissions.
func (s *ModerationService) ListOwnPending(ctx context.Context, actor *domain.User) ([]domain.Submission, error) {
	return s.store.List(domain.LocationPending, actor.Username)
}

// PendingManifest parses a pending submission for display. A pending file
// is visible to reviewers and to its uploader, nobody else.
func (s *ModerationService) PendingManifest(ctx context.Context, actor *domain.User, owner, filename string) (*domain.Manifest, error) {
	if !actor.Role.Privileged() && actor.Username != owner {
		return nil, ErrForbidden
	}
	content, err := s.store.Read(domain.LocationPending, owner, filename)
	if err != nil {
		return nil, err
	}
	m := leaf.Parse(content)
	return &m, nil
}
