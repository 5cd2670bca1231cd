package service

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/crypto/bcrypt"

	"github.com/bookden/library-service/library/config"
	"github.com/bookden/library-service/library/internal/errs"
	"github.com/bookden/library-service/library/internal/model"
	"github.com/bookden/library-service/pkg/auth"
	"go.uber.org/zap"
)

const tokenTTL = 24 * time.Hour

type demoUser struct {
	hash []byte
	role string
}

// AuthService issues bearer tokens for the demo accounts from config.
// Demo-grade on purpose: real identity is an external collaborator.
type AuthService struct {
	log   *zap.Logger
	users map[string]demoUser
}

func NewAuthService(cfg config.Auth, log *zap.Logger) (*AuthService, error) {
	users := make(map[string]demoUser, 2)
	for _, account := range []struct {
		name, password, role string
	}{
		{cfg.AdminUser, cfg.AdminPassword, auth.RoleAdmin},
		{cfg.ReaderUser, cfg.ReaderPassword, auth.RoleReader},
	} {
		if account.name == "" {
			continue
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(account.password), bcrypt.DefaultCost)
		if err != nil {
			return nil, errors.Wrap(err, "hash demo password")
		}
		users[account.name] = demoUser{hash: hash, role: account.role}
	}
	return &AuthService{
		log:   log,
		users: users,
	}, nil
}

func (s *AuthService) Login(_ context.Context, username, password string) (model.LoginResponse, error) {
	u, ok := s.users[username]
	if !ok {
		return model.LoginResponse{}, errs.ErrBadCredentials
	}
	if err := bcrypt.CompareHashAndPassword(u.hash, []byte(password)); err != nil {
		return model.LoginResponse{}, errs.ErrBadCredentials
	}
	token, err := auth.NewToken(username, u.role, tokenTTL)
	if err != nil {
		return model.LoginResponse{}, errors.Wrap(err, "issue token")
	}
	s.log.Debug("login", zap.String("username", username), zap.String("role", u.role))
	return model.LoginResponse{Token: token, Role: u.role}, nil
}
