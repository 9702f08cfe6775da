package service

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/argon2"

	"github.com/treelinux/leafregistry/internal/domain"
	"github.com/treelinux/leafregistry/internal/repository"
)

var (
	ErrUsernameTaken = errors.New("username already taken")
	ErrInvalidCreds  = errors.New("invalid username or password")
)

// BannedError carries the ban details back to the transport layer so login
// can tell a permanent ban apart from a time-bounded one.
type BannedError struct {
	Permanent bool
	Until     time.Time
}

func (e *BannedError) Error() string {
	if e.Permanent {
		return "account is permanently banned"
	}
	return fmt.Sprintf("account is banned until %s", e.Until.Format(time.RFC3339))
}

type AuthService struct {
	userRepo      repository.UserRepository
	jwtSecret     []byte
	ownerUsername string
}

func NewAuthService(userRepo repository.UserRepository, jwtSecret, ownerUsername string) *AuthService {
	return &AuthService{
		userRepo:      userRepo,
		jwtSecret:     []byte(jwtSecret),
		ownerUsername: ownerUsername,
	}
}

type RegisterInput struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginInput struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type AuthResponse struct {
	User        *domain.User `json:"user"`
	AccessToken string       `json:"access_token"`
}

func (s *AuthService) Register(ctx context.Context, input RegisterInput) (*AuthResponse, error) {
	existing, err := s.userRepo.GetByUsername(ctx, input.Username)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrUsernameTaken
	}

	hash, err := hashPassword(input.Password)
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}

	// The distinguished bootstrap name becomes the owner account.
	role := domain.RoleMember
	if input.Username == s.ownerUsername {
		role = domain.RoleOwner
	}

	user := &domain.User{
		Username:     input.Username,
		Handle:       uuid.New(),
		PasswordHash: hash,
		Role:         role,
		CreatedAt:    time.Now(),
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("creating user: %w", err)
	}

	token, err := s.generateToken(user.Handle)
	if err != nil {
		return nil, fmt.Errorf("generating token: %w", err)
	}

	return &AuthResponse{User: user, AccessToken: token}, nil
}

func (s *AuthService) Login(ctx context.Context, input LoginInput) (*AuthResponse, error) {
	user, err := s.userRepo.GetByUsername(ctx, input.Username)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrInvalidCreds
	}

	if !verifyPassword(input.Password, user.PasswordHash) {
		return nil, ErrInvalidCreds
	}

	// Ban state is checked at credential-verification time, not just by the
	// middleware, so a banned user gets the specific refusal on login.
	if user.Banned(time.Now()) {
		be := &BannedError{Permanent: user.BanPermanent}
		if !user.BanPermanent {
			be.Until = *user.BanUntil
		}
		return nil, be
	}

	token, err := s.generateToken(user.Handle)
	if err != nil {
		return nil, fmt.Errorf("generating token: %w", err)
	}

	return &AuthResponse{User: user, AccessToken: token}, nil
}

// generateToken signs a session token anchored on the immutable handle, so
// renames never invalidate sessions.
func (s *AuthService) generateToken(handle uuid.UUID) (string, error) {
	claims := jwt.MapClaims{
		"sub": handle.String(),
		"exp": time.Now().Add(24 * time.Hour).Unix(),
		"iat": time.Now().Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.jwtSecret)
}

func hashPassword(password string) (string, error) {
	salt := make([]byte, 16)
	if _, err := rand.Read(salt); err != nil {
		return "", err
	}

	hash := argon2.IDKey([]byte(password), salt, 1, 64*1024, 4, 32)

	return fmt.Sprintf("%s:%s",
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(hash),
	), nil
}

func verifyPassword(password, encoded string) bool {
	saltB64, hashB64, ok := strings.Cut(encoded, ":")
	if !ok {
		return false
	}

	salt, err := base64.RawStdEncoding.DecodeString(saltB64)
	if err != nil {
		return false
	}

	expectedHash, err := base64.RawStdEncoding.DecodeString(hashB64)
	if err != nil {
		return false
	}

	hash := argon2.IDKey([]byte(password), salt, 1, 64*1024, 4, 32)
	return subtle.ConstantTimeCompare(hash, expectedHash) == 1
}
