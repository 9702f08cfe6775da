package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/treelinux/leafregistry/internal/domain"
)

func newAuthService(repo *fakeUserRepo) *AuthService {
	return NewAuthService(repo, "test-secret", "root")
}

func TestRegisterAndLogin(t *testing.T) {
	repo := newFakeUserRepo()
	s := newAuthService(repo)
	ctx := context.Background()

	resp, err := s.Register(ctx, RegisterInput{Username: "alice", Password: "hunter2hunter2"})
	require.NoError(t, err)
	assert.Equal(t, domain.RoleMember, resp.User.Role)
	assert.NotEmpty(t, resp.AccessToken)
	assert.NotZero(t, resp.User.Handle)

	login, err := s.Login(ctx, LoginInput{Username: "alice", Password: "hunter2hunter2"})
	require.NoError(t, err)
	assert.Equal(t, resp.User.Handle, login.User.Handle)
}

func TestRegisterUsernameTaken(t *testing.T) {
	repo := newFakeUserRepo()
	s := newAuthService(repo)
	ctx := context.Background()

	_, err := s.Register(ctx, RegisterInput{Username: "alice", Password: "hunter2hunter2"})
	require.NoError(t, err)

	_, err = s.Register(ctx, RegisterInput{Username: "alice", Password: "otherpass123"})
	assert.ErrorIs(t, err, ErrUsernameTaken)
}

func TestRegisterOwnerBootstrap(t *testing.T) {
	repo := newFakeUserRepo()
	s := newAuthService(repo)

	resp, err := s.Register(context.Background(), RegisterInput{Username: "root", Password: "hunter2hunter2"})
	require.NoError(t, err)
	assert.Equal(t, domain.RoleOwner, resp.User.Role)
}

func TestLoginInvalidCredentials(t *testing.T) {
	repo := newFakeUserRepo()
	s := newAuthService(repo)
	ctx := context.Background()

	_, err := s.Login(ctx, LoginInput{Username: "ghost", Password: "whatever123"})
	assert.ErrorIs(t, err, ErrInvalidCreds)

	_, err = s.Register(ctx, RegisterInput{Username: "alice", Password: "hunter2hunter2"})
	require.NoError(t, err)
	_, err = s.Login(ctx, LoginInput{Username: "alice", Password: "wrongpassword"})
	assert.ErrorIs(t, err, ErrInvalidCreds)
}

func TestLoginTimeBoundedBan(t *testing.T) {
	repo := newFakeUserRepo()
	s := newAuthService(repo)
	ctx := context.Background()

	resp, err := s.Register(ctx, RegisterInput{Username: "alice", Password: "hunter2hunter2"})
	require.NoError(t, err)

	until := time.Now().Add(time.Hour)
	require.NoError(t, repo.UpdateBan(ctx, resp.User.ID, false, &until))

	_, err = s.Login(ctx, LoginInput{Username: "alice", Password: "hunter2hunter2"})
	var banned *BannedError
	require.ErrorAs(t, err, &banned)
	assert.False(t, banned.Permanent)
	assert.WithinDuration(t, until, banned.Until, time.Second)
}

func TestLoginExpiredBanSucceeds(t *testing.T) {
	repo := newFakeUserRepo()
	s := newAuthService(repo)
	ctx := context.Background()

	resp, err := s.Register(ctx, RegisterInput{Username: "alice", Password: "hunter2hunter2"})
	require.NoError(t, err)

	past := time.Now().Add(-time.Minute)
	require.NoError(t, repo.UpdateBan(ctx, resp.User.ID, false, &past))

	_, err = s.Login(ctx, LoginInput{Username: "alice", Password: "hunter2hunter2"})
	require.NoError(t, err)
}

func TestLoginPermanentBan(t *testing.T) {
	repo := newFakeUserRepo()
	s := newAuthService(repo)
	ctx := context.Background()

	resp, err := s.Register(ctx, RegisterInput{Username: "alice", Password: "hunter2hunter2"})
	require.NoError(t, err)
	require.NoError(t, repo.UpdateBan(ctx, resp.User.ID, true, nil))

	_, err = s.Login(ctx, LoginInput{Username: "alice", Password: "hunter2hunter2"})
	var banned *BannedError
	require.ErrorAs(t, err, &banned)
	assert.True(t, banned.Permanent)
	assert.Contains(t, banned.Error(), "permanently")
}

func TestPasswordHashRoundTrip(t *testing.T) {
	hash, err := hashPassword("s3cret-passw0rd")
	require.NoError(t, err)
	assert.True(t, verifyPassword("s3cret-passw0rd", hash))
	assert.False(t, verifyPassword("not-the-password", hash))
	assert.False(t, verifyPassword("s3cret-passw0rd", "garbage"))
}
