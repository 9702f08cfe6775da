package service

import (
	"context"
	"sort"
	"strings"

	"github.com/treelinux/leafregistry/internal/domain"
	"github.com/treelinux/leafregistry/internal/leaf"
	"github.com/treelinux/leafregistry/internal/repository"
	"github.com/treelinux/leafregistry/internal/storage"
)

// SearchLimit caps search results.
const SearchLimit = 50

// RegistryService is the read side of the public namespace: browsing,
// searching and downloading published files. No persisted index — listings
// come from filesystem metadata at request time.
type RegistryService struct {
	store    *storage.Store
	userRepo repository.UserRepository
}

func NewRegistryService(store *storage.Store, userRepo repository.UserRepository) *RegistryService {
	return &RegistryService{store: store, userRepo: userRepo}
}

// ListPublic returns one user's published files, sorted by name.
func (s *RegistryService) ListPublic(ctx context.Context, owner string) ([]domain.Submission, error) {
	subs, err := s.store.List(domain.LocationPublic, owner)
	if err != nil {
		return nil, err
	}
	sortSubmissions(subs, "name", true)
	return subs, nil
}

// ListAllPublic returns every published file, ordered by the given sort key
// ("name", "date" or "size") and direction.
func (s *RegistryService) ListAllPublic(ctx context.Context, sortKey string, ascending bool) ([]domain.Submission, error) {
	subs, err := s.store.ListAll(domain.LocationPublic)
	if err != nil {
		return nil, err
	}
	sortSubmissions(subs, sortKey, ascending)
	return subs, nil
}

// SearchPackages matches published filenames by case-insensitive substring.
func (s *RegistryService) SearchPackages(ctx context.Context, query string) ([]domain.Submission, error) {
	subs, err := s.store.ListAll(domain.LocationPublic)
	if err != nil {
		return nil, err
	}
	q := strings.ToLower(query)
	var matched []domain.Submission
	for _, sub := range subs {
		if strings.Contains(strings.ToLower(sub.Filename), q) {
			matched = append(matched, sub)
			if len(matched) == SearchLimit {
				break
			}
		}
	}
	sortSubmissions(matched, "name", true)
	return matched, nil
}

// SearchUsers matches usernames by case-insensitive substring.
func (s *RegistryService) SearchUsers(ctx context.Context, query string) ([]domain.User, error) {
	return s.userRepo.SearchByUsername(ctx, query, SearchLimit)
}

// DownloadPath resolves the on-disk path of a published file for streaming.
func (s *RegistryService) DownloadPath(ctx context.Context, owner, filename string) (string, error) {
	return s.store.Path(domain.LocationPublic, owner, filename)
}

// Manifest parses a published file's metadata for display.
func (s *RegistryService) Manifest(ctx context.Context, owner, filename string) (*domain.Manifest, error) {
	content, err := s.store.Read(domain.LocationPublic, owner, filename)
	if err != nil {
		return nil, err
	}
	m := leaf.Parse(content)
	return &m, nil
}

func sortSubmissions(subs []domain.Submission, key string, ascending bool) {
	less := func(a, b domain.Submission) bool {
		switch key {
		case "date":
			return a.UploadedAt.Before(b.UploadedAt)
		case "size":
			return a.Size < b.Size
		default:
			return strings.ToLower(a.Filename) < strings.ToLower(b.Filename)
		}
	}
	sort.SliceStable(subs, func(i, j int) bool {
		if ascending {
			return less(subs[i], subs[j])
		}
		return less(subs[j], subs[i])
	})
}
