// Package auth verifies credentials and issues HS256 JWTs. It sits outside
// the ledger core: the engine only ever sees the owner id this package
// resolves from a verified token.
package auth

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/selimk/teller/pkg/config"
	"github.com/selimk/teller/pkg/domain/user"
	"github.com/selimk/teller/pkg/repository"
)

// Service authenticates users and mints tokens.
type Service struct {
	uow    repository.UnitOfWork
	cfg    *config.Jwt
	logger *slog.Logger
}

// New creates an auth Service.
func New(uow repository.UnitOfWork, cfg *config.Jwt, logger *slog.Logger) *Service {
	return &Service{uow: uow, cfg: cfg, logger: logger}
}

// Login verifies email and password against the stored bcrypt hash.
// Lookup failure and a bad password collapse into the same error so the
// response does not leak which emails exist.
func (s *Service) Login(ctx context.Context, email, password string) (*user.User, error) {
	log := s.logger.With("email", email)
	var u *user.User
	err := s.uow.Do(ctx, func(uow repository.UnitOfWork) error {
		users, err := uow.UserRepository()
		if err != nil {
			return err
		}
		u, err = users.GetByEmail(ctx, email)
		return err
	})
	if err != nil {
		if errors.Is(err, user.ErrUserNotFound) {
			log.Warn("login failed: unknown email")
			return nil, user.ErrInvalidCredentials
		}
		return nil, err
	}
	if !u.CheckPassword(password) {
		log.Warn("login failed: bad password", "user_id", u.ID)
		return nil, user.ErrInvalidCredentials
	}
	log.Info("login successful", "user_id", u.ID)
	return u, nil
}

// GenerateToken mints an HS256 token for the user.
func (s *Service) GenerateToken(u *user.User) (string, error) {
	token := jwt.New(jwt.SigningMethodHS256)
	claims := token.Claims.(jwt.MapClaims)
	claims["user_id"] = u.ID.String()
	claims["email"] = u.Email
	claims["exp"] = time.Now().Add(s.cfg.Expiry).Unix()
	signed, err := token.SignedString([]byte(s.cfg.Secret))
	if err != nil {
		s.logger.Error("token signing failed", "user_id", u.ID, "error", err)
		return "", err
	}
	return signed, nil
}

// CurrentUserID extracts the owner id from a verified token.
func (s *Service) CurrentUserID(token *jwt.Token) (uuid.UUID, error) {
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return uuid.Nil, errors.New("unexpected claims type")
	}
	raw, ok := claims["user_id"].(string)
	if !ok {
		return uuid.Nil, errors.New("token missing user_id claim")
	}
	return uuid.Parse(raw)
}
