package storage

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/treelinux/leafregistry/internal/domain"
)

func newStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(t.TempDir())
	require.NoError(t, err)
	return s
}

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"pkg.leaf", "pkg.leaf", false},
		{"PKG.LEAF", "PKG.LEAF", false},
		{"dir/pkg.leaf", "pkg.leaf", false},
		{"..\\..\\pkg.leaf", "pkg.leaf", false},
		{"../../etc/passwd", "", true},
		{"/etc/passwd", "", true},
		{"pkg.txt", "", true},
		{"pkg", "", true},
		{"", "", true},
		{"..", "", true},
		{".leaf", ".leaf", false},
	}
	for _, tt := range tests {
		got, err := SanitizeFilename(tt.in)
		if tt.wantErr {
			assert.ErrorIs(t, err, ErrBadExtension, "input %q", tt.in)
		} else {
			require.NoError(t, err, "input %q", tt.in)
			assert.Equal(t, tt.want, got)
		}
	}
}

func TestWriteReadRoundTrip(t *testing.T) {
	s := newStore(t)
	content := []byte("name: pkg\nversion: 1.0\n")

	require.NoError(t, s.Write(domain.LocationPending, "alice", "pkg.leaf", content))

	got, err := s.Read(domain.LocationPending, "alice", "pkg.leaf")
	require.NoError(t, err)
	assert.Equal(t, content, got)
}

func TestWriteOverwrites(t *testing.T) {
	s := newStore(t)
	require.NoError(t, s.Write(domain.LocationPending, "alice", "pkg.leaf", []byte("v1")))
	require.NoError(t, s.Write(domain.LocationPending, "alice", "pkg.leaf", []byte("v2")))

	got, err := s.Read(domain.LocationPending, "alice", "pkg.leaf")
	require.NoError(t, err)
	assert.Equal(t, []byte("v2"), got)

	subs, err := s.List(domain.LocationPending, "alice")
	require.NoError(t, err)
	require.Len(t, subs, 1)
}

func TestTraversalRejectedBeforeFilesystem(t *testing.T) {
	s := newStore(t)

	err := s.Write(domain.LocationPending, "alice", "../../etc/passwd", []byte("x"))
	assert.Error(t, err)

	// Traversal content is stripped, never honored: the write lands inside
	// the namespace under the base name.
	require.NoError(t, s.Write(domain.LocationPending, "alice", "../../escape.leaf", []byte("x")))
	_, err = s.Read(domain.LocationPending, "alice", "escape.leaf")
	require.NoError(t, err)

	// A traversal username must not escape either.
	err = s.Write(domain.LocationPending, "../../outside", "pkg.leaf", []byte("x"))
	assert.ErrorIs(t, err, ErrPathEscapes)

	_, err = s.List(domain.LocationPending, "..")
	assert.ErrorIs(t, err, ErrPathEscapes)
}

func TestMoveRemovesSource(t *testing.T) {
	s := newStore(t)
	require.NoError(t, s.Write(domain.LocationPending, "alice", "pkg.leaf", []byte("x")))

	require.NoError(t, s.Move(domain.LocationPending, domain.LocationPublic, "alice", "pkg.leaf"))

	_, err := s.Read(domain.LocationPending, "alice", "pkg.leaf")
	assert.ErrorIs(t, err, ErrNotFound)

	got, err := s.Read(domain.LocationPublic, "alice", "pkg.leaf")
	require.NoError(t, err)
	assert.Equal(t, []byte("x"), got)
}

func TestMoveMissingIsNotFound(t *testing.T) {
	s := newStore(t)
	err := s.Move(domain.LocationPending, domain.LocationPublic, "alice", "ghost.leaf")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDeleteIdempotentNotFound(t *testing.T) {
	s := newStore(t)
	require.NoError(t, s.Write(domain.LocationPublic, "alice", "pkg.leaf", []byte("x")))

	require.NoError(t, s.Delete(domain.LocationPublic, "alice", "pkg.leaf"))
	assert.ErrorIs(t, s.Delete(domain.LocationPublic, "alice", "pkg.leaf"), ErrNotFound)
	assert.ErrorIs(t, s.Delete(domain.LocationPublic, "alice", "pkg.leaf"), ErrNotFound)
}

func TestListAll(t *testing.T) {
	s := newStore(t)
	require.NoError(t, s.Write(domain.LocationPending, "alice", "a.leaf", []byte("a")))
	require.NoError(t, s.Write(domain.LocationPending, "bob", "b.leaf", []byte("b")))

	subs, err := s.ListAll(domain.LocationPending)
	require.NoError(t, err)
	require.Len(t, subs, 2)

	owners := []string{subs[0].Owner, subs[1].Owner}
	assert.Contains(t, owners, "alice")
	assert.Contains(t, owners, "bob")
}

func TestListEmptyNamespace(t *testing.T) {
	s := newStore(t)
	subs, err := s.List(domain.LocationPublic, "nobody")
	require.NoError(t, err)
	assert.Empty(t, subs)
}

func TestRenameOwner(t *testing.T) {
	s := newStore(t)
	require.NoError(t, s.Write(domain.LocationPublic, "alice", "pkg.leaf", []byte("x")))

	require.NoError(t, s.RenameOwner(domain.LocationPublic, "alice", "alicia"))

	_, err := s.Read(domain.LocationPublic, "alice", "pkg.leaf")
	assert.ErrorIs(t, err, ErrNotFound)
	got, err := s.Read(domain.LocationPublic, "alicia", "pkg.leaf")
	require.NoError(t, err)
	assert.Equal(t, []byte("x"), got)

	// No pending dir existed: rename is still a success.
	require.NoError(t, s.RenameOwner(domain.LocationPending, "alice", "alicia"))
}

func TestAvatarRoundTrip(t *testing.T) {
	s := newStore(t)
	require.NoError(t, s.WriteAvatar("alice.png", []byte("img")))

	path, err := s.AvatarPath("alice.png")
	require.NoError(t, err)
	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, []byte("img"), content)

	require.NoError(t, s.RenameAvatar("alice.png", "alicia.png"))
	_, err = s.AvatarPath("alice.png")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = s.AvatarPath("alicia.png")
	require.NoError(t, err)
}

func TestPathStaysInsideRoot(t *testing.T) {
	root := t.TempDir()
	s, err := New(root)
	require.NoError(t, err)
	require.NoError(t, s.Write(domain.LocationPublic, "alice", "pkg.leaf", []byte("x")))

	path, err := s.Path(domain.LocationPublic, "alice", "pkg.leaf")
	require.NoError(t, err)
	abs, err := filepath.Abs(root)
	require.NoError(t, err)
	assert.True(t, filepath.IsAbs(path))
	assert.Contains(t, path, abs)
}
