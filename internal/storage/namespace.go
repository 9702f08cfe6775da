// Package storage manages the on-disk namespaces of the registry: a pending
// tree for submissions under review, a public tree for published files, and
// an avatar directory. Files only move between trees through these methods,
// and every path composed from user input is verified to stay inside its
// namespace before the filesystem is touched.
package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/treelinux/leafregistry/internal/domain"
)

// Extension is the only file extension the registry accepts for submissions.
const Extension = ".leaf"

var (
	ErrNotFound     = errors.New("file not found")
	ErrBadExtension = errors.New("only " + Extension + " files are allowed")
	ErrPathEscapes  = errors.New("path escapes namespace directory")
)

type Store struct {
	root string
}

// New creates the pending/public/avatar trees under root if needed.
func New(root string) (*Store, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolving storage root: %w", err)
	}
	for _, sub := range []string{string(domain.LocationPending), string(domain.LocationPublic), "avatars"} {
		if err := os.MkdirAll(filepath.Join(abs, sub), 0o755); err != nil {
			return nil, fmt.Errorf("creating %s tree: %w", sub, err)
		}
	}
	return &Store{root: abs}, nil
}

// SanitizeFilename strips any directory content from a submitted filename
// and enforces the required extension (case-insensitive).
func SanitizeFilename(name string) (string, error) {
	name = strings.ReplaceAll(name, "\\", "/")
	name = filepath.Base(filepath.Clean("/" + name))
	name = strings.ReplaceAll(name, "..", "")
	if name == "" || name == "." || name == "/" {
		return "", ErrBadExtension
	}
	if !strings.EqualFold(filepath.Ext(name), Extension) {
		return "", ErrBadExtension
	}
	return name, nil
}

// securePath joins elems under base and verifies the result stays strictly
// inside base. Rejection happens before any filesystem access.
func securePath(base string, elems ...string) (string, error) {
	p := filepath.Join(append([]string{base}, elems...)...)
	abs, err := filepath.Abs(p)
	if err != nil {
		return "", ErrPathEscapes
	}
	if !strings.HasPrefix(abs, base+string(filepath.Separator)) {
		return "", ErrPathEscapes
	}
	return abs, nil
}

func (s *Store) tree(loc domain.Location) string {
	return filepath.Join(s.root, string(loc))
}

func (s *Store) filePath(loc domain.Location, owner, filename string) (string, error) {
	name, err := SanitizeFilename(filename)
	if err != nil {
		return "", err
	}
	return securePath(s.tree(loc), owner, name)
}

// Write stores content at (loc, owner, filename), overwriting any previous
// file with the same name.
func (s *Store) Write(loc domain.Location, owner, filename string, content []byte) error {
	path, err := s.filePath(loc, owner, filename)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating namespace dir: %w", err)
	}
	if err := os.WriteFile(path, content, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", filename, err)
	}
	return nil
}

func (s *Store) Read(loc domain.Location, owner, filename string) ([]byte, error) {
	path, err := s.filePath(loc, owner, filename)
	if err != nil {
		return nil, err
	}
	content, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", filename, err)
	}
	return content, nil
}

// Path resolves the on-disk location of an existing file so the transport
// layer can stream it. Returns ErrNotFound if the file does not exist.
func (s *Store) Path(loc domain.Location, owner, filename string) (string, error) {
	path, err := s.filePath(loc, owner, filename)
	if err != nil {
		return "", err
	}
	info, err := os.Stat(path)
	if errors.Is(err, os.ErrNotExist) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("stat %s: %w", filename, err)
	}
	if info.IsDir() {
		return "", ErrNotFound
	}
	return path, nil
}

// Move relocates a file between trees. The source no longer exists after a
// successful move. A vanished source reports ErrNotFound so racing actors
// see a clean failure.
func (s *Store) Move(from, to domain.Location, owner, filename string) error {
	src, err := s.filePath(from, owner, filename)
	if err != nil {
		return err
	}
	dst, err := s.filePath(to, owner, filename)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return fmt.Errorf("creating namespace dir: %w", err)
	}
	if err := os.Rename(src, dst); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return ErrNotFound
		}
		return fmt.Errorf("moving %s: %w", filename, err)
	}
	return nil
}

func (s *Store) Delete(loc domain.Location, owner, filename string) error {
	path, err := s.filePath(loc, owner, filename)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return ErrNotFound
		}
		return fmt.Errorf("deleting %s: %w", filename, err)
	}
	return nil
}

// List returns the submissions in one user's namespace, unsorted.
func (s *Store) List(loc domain.Location, owner string) ([]domain.Submission, error) {
	dir, err := securePath(s.tree(loc), owner)
	if err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(dir)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("listing %s namespace: %w", loc, err)
	}
	var subs []domain.Submission
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		subs = append(subs, domain.Submission{
			Owner:      owner,
			Filename:   e.Name(),
			Size:       info.Size(),
			UploadedAt: info.ModTime(),
			Location:   loc,
		})
	}
	return subs, nil
}

// ListAll walks every user namespace in a tree.
func (s *Store) ListAll(loc domain.Location) ([]domain.Submission, error) {
	users, err := os.ReadDir(s.tree(loc))
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("listing %s tree: %w", loc, err)
	}
	var subs []domain.Submission
	for _, u := range users {
		if !u.IsDir() {
			continue
		}
		userSubs, err := s.List(loc, u.Name())
		if err != nil {
			continue
		}
		subs = append(subs, userSubs...)
	}
	return subs, nil
}

// RenameOwner moves one tree's namespace directory from the old username to
// the new one. A missing source directory is not an error: the user may
// simply have no files there yet.
func (s *Store) RenameOwner(loc domain.Location, oldName, newName string) error {
	src, err := securePath(s.tree(loc), oldName)
	if err != nil {
		return err
	}
	dst, err := securePath(s.tree(loc), newName)
	if err != nil {
		return err
	}
	if err := os.Rename(src, dst); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("renaming %s namespace: %w", loc, err)
	}
	return nil
}

// WriteAvatar stores a user's avatar image, keyed by username.
func (s *Store) WriteAvatar(filename string, content []byte) error {
	path, err := securePath(filepath.Join(s.root, "avatars"), filename)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, content, 0o644); err != nil {
		return fmt.Errorf("writing avatar: %w", err)
	}
	return nil
}

func (s *Store) AvatarPath(filename string) (string, error) {
	path, err := securePath(filepath.Join(s.root, "avatars"), filename)
	if err != nil {
		return "", err
	}
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return "", ErrNotFound
	} else if err != nil {
		return "", fmt.Errorf("stat avatar: %w", err)
	}
	return path, nil
}

// RenameAvatar moves an avatar file to a new name. Missing source is not an
// error, matching RenameOwner.
func (s *Store) RenameAvatar(oldName, newName string) error {
	src, err := securePath(filepath.Join(s.root, "avatars"), oldName)
	if err != nil {
		return err
	}
	dst, err := securePath(filepath.Join(s.root, "avatars"), newName)
	if err != nil {
		return err
	}
	if err := os.Rename(src, dst); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("renaming avatar: %w", err)
	}
	return nil
}
