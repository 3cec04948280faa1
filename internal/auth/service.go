// Package auth handles account signup, login, and JWT issuing.
package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/artfolio/service/internal/config"
	"github.com/artfolio/service/internal/record"
	"github.com/artfolio/service/internal/user"
)

// ErrEmailTaken is returned when the email is already registered.
var ErrEmailTaken = errors.New("email is already registered")

// ErrBadCredentials is returned when the email/password pair does not match
// an active account. Deliberately does not reveal which half was wrong.
var ErrBadCredentials = errors.New("incorrect email or password")

// Service contains the business logic for email/password authentication.
type Service struct {
	userSvc *user.Service
	cfg     *config.Config
}

// NewService creates a new auth Service.
func NewService(userSvc *user.Service, cfg *config.Config) *Service {
	return &Service{userSvc: userSvc, cfg: cfg}
}

// Signup registers a new account and issues a JWT. New accounts always get
// the `user` role; roles are only changed by an admin afterwards.
func (s *Service) Signup(ctx context.Context, firstName, lastName, email, password string) (string, *user.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", nil, fmt.Errorf("hash password: %w", err)
	}

	u, err := s.userSvc.Create(ctx, firstName, lastName, email, string(hash))
	if err != nil {
		if record.IsUniqueViolation(err) {
			return "", nil, ErrEmailTaken
		}
		return "", nil, fmt.Errorf("create account: %w", err)
	}

	token, err := s.issueToken(u)
	if err != nil {
		return "", nil, fmt.Errorf("issue token: %w", err)
	}
	return token, u, nil
}

// Login verifies credentials and issues a JWT for an active account.
func (s *Service) Login(ctx context.Context, email, password string) (string, *user.User, error) {
	u, err := s.userSvc.GetByEmail(ctx, email)
	if err != nil {
		return "", nil, ErrBadCredentials
	}
	if !u.Active {
		return "", nil, ErrBadCredentials
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		return "", nil, ErrBadCredentials
	}

	token, err := s.issueToken(u)
	if err != nil {
		return "", nil, fmt.Errorf("issue token: %w", err)
	}
	return token, u, nil
}

// issueToken creates a signed JWT carrying the principal's id and role.
func (s *Service) issueToken(u *user.User) (string, error) {
	claims := jwt.MapClaims{
		"sub":  u.ID,
		"role": u.Role,
		"iat":  time.Now().Unix(),
		"exp":  time.Now().Add(time.Duration(s.cfg.JWTTTLHours) * time.Hour).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.cfg.JWTSecret))
}
