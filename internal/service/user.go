package service

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"ridehail/internal/auth"
	"ridehail/internal/domain"
	"ridehail/internal/repository"
)

// TokenIssuer issues bearer tokens for authenticated users.
type TokenIssuer interface {
	GenerateToken(userID string, role domain.Role) (string, time.Time, error)
}

// UserService handles signup and login.
type UserService struct {
	users  repository.UserRepository
	tokens TokenIssuer
	now    func() time.Time
}

// NewUserService creates a new UserService.
func NewUserService(users repository.UserRepository, tokens TokenIssuer) *UserService {
	return &UserService{
		users:  users,
		tokens: tokens,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// RegisterInput contains the parameters for a signup.
type RegisterInput struct {
	Name     string
	Email    string
	Phone    string
	Password string
	Role     domain.Role
}

// Session is the result of a successful login.
type Session struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expiresAt"`
	User      *domain.User `json:"-"`
}

// Register creates a RIDER or DRIVER account. Administrators are provisioned
// out of band.
func (s *UserService) Register(ctx context.Context, in RegisterInput) (*domain.User, error) {
	if in.Role != domain.RoleRider && in.Role != domain.RoleDriver {
		return nil, ErrInvalidRole
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, err
	}

	user := &domain.User{
		ID:           uuid.New().String(),
		Name:         strings.TrimSpace(in.Name),
		Email:        strings.ToLower(strings.TrimSpace(in.Email)),
		Phone:        strings.TrimSpace(in.Phone),
		Role:         in.Role,
		PasswordHash: hash,
		CreatedAt:    s.now(),
	}

	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, ErrEmailTaken
		}
		return nil, err
	}

	log.Printf("[USER] registered id=%s role=%s", user.ID, user.Role)
	return user, nil
}

// Login checks credentials and issues a token.
func (s *UserService) Login(ctx context.Context, email, password string) (*Session, error) {
	user, err := s.users.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if err := auth.CheckPassword(user.PasswordHash, password); err != nil {
		return nil, ErrInvalidCredentials
	}

	token, expiresAt, err := s.tokens.GenerateToken(user.ID, user.Role)
	if err != nil {
		return nil, err
	}

	return &Session{Token: token, ExpiresAt: expiresAt, User: user}, nil
}

// GetUser returns a user by ID.
func (s *UserService) GetUser(ctx context.Context, id string) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}
