// Package auth проверяет логин администратора и выпускает JWT сессии консоли.
package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/magabrotheeeer/gym-console/internal/backend"
	"github.com/magabrotheeeer/gym-console/internal/config"
	"github.com/magabrotheeeer/gym-console/internal/lib/jwt"
	"github.com/magabrotheeeer/gym-console/internal/lib/password"
)

// RoleAdmin единственная роль консоли.
const RoleAdmin = "admin"

// ErrInvalidCredentials неверное имя пользователя или пароль.
var ErrInvalidCredentials = errors.New("invalid username or password")

// BackendLogin проверка учётных данных на стороне backend'а.
type BackendLogin interface {
	Login(ctx context.Context, username, password string) (string, error)
}

// Service аутентифицирует администратора одним из двух способов.
type Service struct {
	mode     string
	backend  BackendLogin
	username string
	hash     string
	jwtMaker jwt.Maker
}

// NewService создает новый экземпляр Service.
func NewService(cfg config.Auth, b BackendLogin, jwtMaker jwt.Maker) *Service {
	return &Service{
		mode:     cfg.Mode,
		backend:  b,
		username: cfg.Username,
		hash:     cfg.PasswordHash,
		jwtMaker: jwtMaker,
	}
}

// Login проверяет пароль и возвращает подписанный токен.
func (s *Service) Login(ctx context.Context, username, rawPassword string) (string, error) {
	const op = "auth.Login"
	switch s.mode {
	case config.AuthModeLocal:
		if username != s.username {
			return "", fmt.Errorf("%s: %w", op, ErrInvalidCredentials)
		}
		if err := password.CompareHash(s.hash, rawPassword); err != nil {
			return "", fmt.Errorf("%s: %w", op, ErrInvalidCredentials)
		}
	default:
		if _, err := s.backend.Login(ctx, username, rawPassword); err != nil {
			if errors.Is(err, backend.ErrUnauthorized) {
				return "", fmt.Errorf("%s: %w", op, ErrInvalidCredentials)
			}
			return "", fmt.Errorf("%s: %w", op, err)
		}
	}

	token, err := s.jwtMaker.GenerateToken(username, RoleAdmin)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return token, nil
}

// ValidateToken проверяет токен и возвращает имя администратора.
func (s *Service) ValidateToken(token string) (string, error) {
	claims, err := s.jwtMaker.ParseToken(token)
	if err != nil {
		return "", err
	}
	if claims.Role != RoleAdmin {
		return "", jwt.ErrInvalidToken
	}
	return claims.Username, nil
}
