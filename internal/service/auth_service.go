package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"bookstore/api/internal/ids"
	"bookstore/api/internal/models"
	"bookstore/api/internal/repository"
	"bookstore/api/internal/security"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserInactive       = errors.New("user inactive")
	// ErrTokenNotRecognized covers absent ledger rows, owner mismatches and
	// replay of an already-rotated token.
	ErrTokenNotRecognized = errors.New("token not recognized or already used")
)

type UserStore interface {
	Create(ctx context.Context, user models.User) error
	FindByEmail(ctx context.Context, email string) (models.User, error)
	GetByID(ctx context.Context, id string) (models.User, error)
}

type TokenStore interface {
	Create(ctx context.Context, token models.RefreshToken) error
	FindByHash(ctx context.Context, tokenHash string) (models.RefreshToken, error)
	DeleteByID(ctx context.Context, id string) error
	DeleteByHash(ctx context.Context, tokenHash string) error
	DeleteByUser(ctx context.Context, userID string) error
}

type AuthService struct {
	users  UserStore
	tokens TokenStore
	issuer *security.TokenIssuer
	log    zerolog.Logger
}

func NewAuthService(users UserStore, tokens TokenStore, issuer *security.TokenIssuer, log zerolog.Logger) *AuthService {
	return &AuthService{
		users:  users,
		tokens: tokens,
		issuer: issuer,
		log:    log,
	}
}

type RegisterInput struct {
	Email       string
	Password    string
	DisplayName string
	ClientAgent string
	ClientAddr  string
}

type LoginInput struct {
	Email       string
	Password    string
	ClientAgent string
	ClientAddr  string
}

type RefreshInput struct {
	RefreshToken string
	ClientAgent  string
	ClientAddr   string
}

type AuthResult struct {
	AccessToken  string
	RefreshToken string
	User         models.User
}

func (s *AuthService) Register(ctx context.Context, input RegisterInput) (AuthResult, error) {
	input.Email = strings.TrimSpace(strings.ToLower(input.Email))

	passwordHash, err := security.HashPassword(input.Password)
	if err != nil {
		return AuthResult{}, err
	}

	user := models.User{
		ID:           ids.New(),
		Email:        input.Email,
		PasswordHash: passwordHash,
		DisplayName:  input.DisplayName,
		Role:         models.UserRoleUser,
		Status:       models.UserStatusActive,
	}

	if err := s.users.Create(ctx, user); err != nil {
		return AuthResult{}, err
	}

	return s.issuePair(ctx, user, input.ClientAgent, input.ClientAddr)
}

func (s *AuthService) Login(ctx context.Context, input LoginInput) (AuthResult, error) {
	input.Email = strings.TrimSpace(strings.ToLower(input.Email))

	user, err := s.users.FindByEmail(ctx, input.Email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return AuthResult{}, ErrInvalidCredentials
		}
		return AuthResult{}, err
	}

	ok, err := security.VerifyPassword(input.Password, user.PasswordHash)
	if err != nil || !ok {
		return AuthResult{}, ErrInvalidCredentials
	}

	if user.Status != models.UserStatusActive {
		return AuthResult{}, ErrUserInactive
	}

	return s.issuePair(ctx, user, input.ClientAgent, input.ClientAddr)
}

// Refresh redeems a refresh token for a new pair. Rotation is one-shot: the
// old ledger row is deleted by primary key before the new pair is issued, so
// of two concurrent redemptions only the one whose delete lands wins.
func (s *AuthService) Refresh(ctx context.Context, input RefreshInput) (AuthResult, error) {
	claims, err := s.issuer.Verify(input.RefreshToken, security.TokenTypeRefresh)
	if err != nil {
		return AuthResult{}, err
	}
	subject := strings.TrimSpace(claims.Subject)
	if subject == "" {
		return AuthResult{}, security.ErrTokenInvalid
	}

	row, err := s.tokens.FindByHash(ctx, security.HashToken(input.RefreshToken))
	if err != nil {
		if errors.Is(err, repository.ErrTokenNotFound) {
			return AuthResult{}, ErrTokenNotRecognized
		}
		return AuthResult{}, err
	}
	if row.UserID != subject {
		return AuthResult{}, ErrTokenNotRecognized
	}

	// The JWT already carries its own expiry; the row check is defense in
	// depth and lazily cleans up stale rows.
	if row.ExpiresAt.Before(time.Now()) {
		_ = s.tokens.DeleteByID(ctx, row.ID)
		return AuthResult{}, security.ErrTokenExpired
	}

	user, err := s.users.GetByID(ctx, row.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			_ = s.tokens.DeleteByID(ctx, row.ID)
		}
		return AuthResult{}, err
	}

	// Transient condition: the row stays so a reactivated user can resume.
	if user.Status != models.UserStatusActive {
		return AuthResult{}, ErrUserInactive
	}

	if err := s.tokens.DeleteByID(ctx, row.ID); err != nil {
		if errors.Is(err, repository.ErrTokenNotFound) {
			return AuthResult{}, ErrTokenNotRecognized
		}
		return AuthResult{}, err
	}

	return s.issuePair(ctx, user, input.ClientAgent, input.ClientAddr)
}

// Logout requires only that the token is structurally a refresh token, then
// deletes its ledger row unconditionally. Repeated calls succeed.
func (s *AuthService) Logout(ctx context.Context, refreshToken string) error {
	if _, err := s.issuer.Verify(refreshToken, security.TokenTypeRefresh); err != nil {
		return err
	}
	return s.tokens.DeleteByHash(ctx, security.HashToken(refreshToken))
}

// RevokeAll removes every ledger row for a user, ending all their refresh
// chains. Used when an admin deactivates an account.
func (s *AuthService) RevokeAll(ctx context.Context, userID string) error {
	return s.tokens.DeleteByUser(ctx, userID)
}

func (s *AuthService) issuePair(ctx context.Context, user models.User, clientAgent, clientAddr string) (AuthResult, error) {
	accessToken, err := s.issuer.IssueAccessToken(user.ID, string(user.Role))
	if err != nil {
		return AuthResult{}, err
	}

	refreshToken, err := s.issuer.IssueRefreshToken(user.ID, string(user.Role))
	if err != nil {
		return AuthResult{}, err
	}

	// Ledger expiry mirrors the token's own exp claim; fall back to the
	// configured TTL if the claim cannot be read back.
	expiresAt := time.Now().Add(s.issuer.RefreshTTL())
	if claims, err := s.issuer.Verify(refreshToken, security.TokenTypeRefresh); err == nil && claims.ExpiresAt != nil {
		expiresAt = claims.ExpiresAt.Time
	}

	row := models.RefreshToken{
		ID:            ids.New(),
		UserID:        user.ID,
		TokenHash:     security.HashToken(refreshToken),
		ClientAgent:   clientAgent,
		ClientAddress: clientAddr,
		ExpiresAt:     expiresAt,
	}

	if err := s.tokens.Create(ctx, row); err != nil {
		return AuthResult{}, err
	}

	return AuthResult{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		User:         user,
	}, nil
}
