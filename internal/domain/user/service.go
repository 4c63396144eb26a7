// internal/domain/user/service.go
package user

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/your-org/pharmacy-storefront/internal/pkg/auth"
)

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidCredentials = errors.New("invalid phone/email or password")
	ErrPhoneTaken         = errors.New("an account with this phone already exists")
	ErrEmailTaken         = errors.New("an account with this email already exists")
	ErrPasswordMismatch   = errors.New("passwords do not match")
	ErrWeakPassword       = errors.New("password rejected")
)

// Service handles user business logic
type Service struct {
	repo            Repository
	passwordManager *auth.PasswordManager
	jwtManager      *auth.JWTManager
	denylist        auth.Denylist
}

// NewService creates a new user service
func NewService(repo Repository, passwords *auth.PasswordManager, tokens *auth.JWTManager, denylist auth.Denylist) *Service {
	return &Service{
		repo:            repo,
		passwordManager: passwords,
		jwtManager:      tokens,
		denylist:        denylist,
	}
}

// RegisterRequest represents user registration data
type RegisterRequest struct {
	Name                 string `json:"name" binding:"required"`
	Phone                string `json:"phone" binding:"required"`
	Email                string `json:"email"`
	Password             string `json:"password" binding:"required"`
	PasswordConfirmation string `json:"password_confirmation" binding:"required"`
}

// LoginRequest authenticates by phone or email
type LoginRequest struct {
	Login    string `json:"login" binding:"required"`
	Password string `json:"password" binding:"required"`
	Remember bool   `json:"remember"`
}

// AuthResponse represents authentication response
type AuthResponse struct {
	Token     string  `json:"token"`
	User      Profile `json:"user"`
	ExpiresIn int64   `json:"expires_in"`
}

// Register creates a new customer account and signs it in
func (s *Service) Register(ctx context.Context, req *RegisterRequest) (*AuthResponse, error) {
	if req.Password != req.PasswordConfirmation {
		return nil, ErrPasswordMismatch
	}
	if err := s.passwordManager.ValidatePassword(req.Password); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrWeakPassword, err)
	}

	phone := NormalizePhone(req.Phone)
	if _, err := s.repo.FindByPhone(ctx, phone); err == nil {
		return nil, ErrPhoneTaken
	} else if !errors.Is(err, ErrUserNotFound) {
		return nil, err
	}

	var email *string
	if e := strings.ToLower(strings.TrimSpace(req.Email)); e != "" {
		if _, err := s.repo.FindByEmail(ctx, e); err == nil {
			return nil, ErrEmailTaken
		} else if !errors.Is(err, ErrUserNotFound) {
			return nil, err
		}
		email = &e
	}

	hashedPassword, err := s.passwordManager.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	u := User{
		Name:     strings.TrimSpace(req.Name),
		Phone:    phone,
		Email:    email,
		Password: hashedPassword,
		IsActive: true,
	}
	if err := s.repo.Create(ctx, &u); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return s.issue(ctx, &u)
}

// Login authenticates a user by phone or email
func (s *Service) Login(ctx context.Context, req *LoginRequest) (*AuthResponse, error) {
	login := strings.TrimSpace(req.Login)

	var (
		u   *User
		err error
	)
	if strings.Contains(login, "@") {
		u, err = s.repo.FindByEmail(ctx, strings.ToLower(login))
	} else {
		u, err = s.repo.FindByPhone(ctx, NormalizePhone(login))
	}
	if errors.Is(err, ErrUserNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if !u.IsActive {
		return nil, ErrInvalidCredentials
	}

	if err := s.passwordManager.VerifyPassword(req.Password, u.Password); err != nil {
		return nil, ErrInvalidCredentials
	}

	return s.issue(ctx, u)
}

func (s *Service) issue(ctx context.Context, u *User) (*AuthResponse, error) {
	token, err := s.jwtManager.GenerateAccessToken(u.ID, u.Phone)
	if err != nil {
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}

	now := time.Now().UTC()
	u.LastLoginAt = &now
	if err := s.repo.Update(ctx, u); err != nil {
		return nil, fmt.Errorf("failed to record login: %w", err)
	}

	return &AuthResponse{
		Token:     token,
		User:      u.Profile(),
		ExpiresIn: int64(s.jwtManager.Expiry().Seconds()),
	}, nil
}

// Logout revokes the token the request was made with
func (s *Service) Logout(ctx context.Context, claims *auth.Claims) error {
	if claims == nil || claims.ID == "" || claims.ExpiresAt == nil {
		return nil
	}
	return s.denylist.Revoke(ctx, claims.ID, claims.ExpiresAt.Time)
}

// Authenticate validates a bearer token and checks it was not revoked
func (s *Service) Authenticate(ctx context.Context, token string) (*auth.Claims, error) {
	claims, err := s.jwtManager.ValidateToken(token)
	if err != nil {
		return nil, err
	}
	revoked, err := s.denylist.Revoked(ctx, claims.ID)
	if err != nil {
		return nil, fmt.Errorf("check token revocation: %w", err)
	}
	if revoked {
		return nil, fmt.Errorf("token has been revoked")
	}
	return claims, nil
}

// GetProfile gets a user's profile
func (s *Service) GetProfile(ctx context.Context, userID uint) (*User, error) {
	return s.repo.FindByID(ctx, userID)
}

// SaveDefaultAddress stores the delivery address used at checkout on the profile
func (s *Service) SaveDefaultAddress(ctx context.Context, userID uint, address, province, district string) error {
	u, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		return err
	}
	u.Address = strings.TrimSpace(address)
	u.Province = strings.TrimSpace(province)
	u.District = strings.TrimSpace(district)
	return s.repo.Update(ctx, u)
}
