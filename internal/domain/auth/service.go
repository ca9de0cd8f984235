package auth

import (
	"context"
	"errors"
	"log/slog"
	"time"
)

var ErrInvalidCredentials = errors.New("invalid credentials")

type Service struct {
	Store     *Store
	JWTSecret string
	TokenTTL  time.Duration
}

func NewService(store *Store, jwtSecret string, tokenTTL time.Duration) *Service {
	return &Service{Store: store, JWTSecret: jwtSecret, TokenTTL: tokenTTL}
}

// Login checks the credentials and issues a signed token. Lookup and
// password failures collapse into ErrInvalidCredentials so the
// response does not reveal which part failed.
func (s *Service) Login(ctx context.Context, email, password string) (string, AuthUser, error) {
	user, err := s.Store.FindActiveUserByEmail(ctx, email)
	if err != nil {
		return "", AuthUser{}, ErrInvalidCredentials
	}
	if err := CheckPassword(user.PasswordHash, password); err != nil {
		return "", AuthUser{}, ErrInvalidCredentials
	}

	claims := Claims{UserID: user.ID, Role: user.Role}
	if user.EmployeeID != nil {
		claims.EmployeeID = *user.EmployeeID
	}
	token, err := GenerateToken(s.JWTSecret, claims, s.TokenTTL)
	if err != nil {
		return "", AuthUser{}, err
	}

	if err := s.Store.UpdateLastLogin(ctx, user.ID); err != nil {
		slog.Warn("last login update failed", "userId", user.ID, "err", err)
	}
	return token, user, nil
}
