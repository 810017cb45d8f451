// Package services contains server-side business logic. This file implements
// UserService: login (credential check and token issuance), user creation and
// password changes.
package services

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/familyrecipe/internal/common"
	"github.com/dmitrijs2005/familyrecipe/internal/cryptox"
	"github.com/dmitrijs2005/familyrecipe/internal/logging"
	"github.com/dmitrijs2005/familyrecipe/internal/server/auth"
	"github.com/dmitrijs2005/familyrecipe/internal/server/models"
	"github.com/dmitrijs2005/familyrecipe/internal/server/repositories/repomanager"
)

// SigningKeyProvider hands out the active private key and its key id.
type SigningKeyProvider interface {
	SigningKey(ctx context.Context) (*ecdsa.PrivateKey, string, error)
}

// LoginRecorder counts login outcomes.
type LoginRecorder interface {
	LoginAttempt(outcome string)
}

// UserService provides authentication-related operations.
type UserService struct {
	repomanager repomanager.RepositoryManager
	keys        SigningKeyProvider
	log         logging.Logger
	metrics     LoginRecorder
	now         func() time.Time
}

// NewUserService constructs a UserService. metrics may be nil.
func NewUserService(m repomanager.RepositoryManager, keys SigningKeyProvider, log logging.Logger, metrics LoginRecorder) *UserService {
	return &UserService{
		repomanager: m,
		keys:        keys,
		log:         log.With("module", "users"),
		metrics:     metrics,
		now:         time.Now,
	}
}

func (s *UserService) record(outcome string) {
	if s.metrics != nil {
		s.metrics.LoginAttempt(outcome)
	}
}

// Login checks username and password and returns a signed token.
//
// Errors: common.ErrMissingCredentials before any store access when either
// field is empty; common.ErrorUnauthorized for an unknown user or a wrong
// password (indistinguishable); common.ErrSigningKeyUnavailable when no key
// was provisioned; common.ErrorInternal otherwise.
func (s *UserService) Login(ctx context.Context, username, password string) (string, error) {
	if username == "" || password == "" {
		s.record("missing_credentials")
		return "", common.ErrMissingCredentials
	}
	username = models.NormalizeUsername(username)

	repo := s.repomanager.Users()
	user, err := repo.GetUserByLogin(ctx, username)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			s.log.Warn(ctx, "login failed", "username", username, "reason", "unknown user")
			s.record("invalid_credentials")
			return "", common.ErrorUnauthorized
		}
		s.log.Error(ctx, "login failed", "username", username, "error", err)
		s.record("error")
		return "", common.ErrorInternal
	}

	if !cryptox.VerifyCredential(password, user.Password) {
		s.log.Warn(ctx, "login failed", "username", username, "reason", "password mismatch")
		s.record("invalid_credentials")
		return "", common.ErrorUnauthorized
	}

	if err := repo.TouchLastLogin(ctx, username, s.now()); err != nil {
		s.log.Warn(ctx, "last login update failed", "username", username, "error", err)
	}

	key, kid, err := s.keys.SigningKey(ctx)
	if err != nil {
		s.log.Error(ctx, "login failed", "username", username, "error", err)
		s.record("error")
		if errors.Is(err, common.ErrSigningKeyUnavailable) {
			return "", err
		}
		return "", common.ErrorInternal
	}

	token, err := auth.GenerateToken(auth.Identity{
		Username:   user.Username,
		FamilyID:   user.FamilyID,
		FamilyName: user.FamilyName,
	}, key, kid, auth.TokenValidity)
	if err != nil {
		s.log.Error(ctx, "token signing failed", "username", username, "error", err)
		s.record("error")
		return "", common.ErrorInternal
	}

	s.log.Info(ctx, "login succeeded", "username", username)
	s.record("success")
	return token, nil
}

// CreateUser registers username in an existing family. The family name is
// copied onto the user record.
func (s *UserService) CreateUser(ctx context.Context, username, password, familyID string) (*models.User, error) {
	username = models.NormalizeUsername(username)
	switch {
	case username == "":
		return nil, fmt.Errorf("%w: username is required", common.ErrValidation)
	case password == "":
		return nil, fmt.Errorf("%w: password is required", common.ErrValidation)
	case familyID == "":
		return nil, fmt.Errorf("%w: family id is required", common.ErrValidation)
	}

	family, err := s.repomanager.Families().Get(ctx, familyID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, fmt.Errorf("%w: family %s does not exist", common.ErrValidation, familyID)
		}
		return nil, fmt.Errorf("error loading family: %w", err)
	}

	credential, err := cryptox.NewCredential(password)
	if err != nil {
		return nil, fmt.Errorf("error hashing password: %w", err)
	}

	u, err := s.repomanager.Users().Create(ctx, &models.User{
		Username:   username,
		FamilyID:   family.ID,
		FamilyName: family.Name,
		Password:   credential,
	})
	if err != nil {
		return nil, fmt.Errorf("error creating user: %w", err)
	}

	s.log.Info(ctx, "user created", "username", u.Username, "familyId", u.FamilyID)
	return u, nil
}

// ChangePassword replaces the user's credential; no other field is written.
func (s *UserService) ChangePassword(ctx context.Context, username, newPassword string) error {
	if newPassword == "" {
		return fmt.Errorf("%w: new password is required", common.ErrValidation)
	}

	credential, err := cryptox.NewCredential(newPassword)
	if err != nil {
		return fmt.Errorf("error hashing password: %w", err)
	}

	if err := s.repomanager.Users().UpdatePassword(ctx, username, credential); err != nil {
		return fmt.Errorf("error updating password: %w", err)
	}

	s.log.Info(ctx, "password changed", "username", models.NormalizeUsername(username))
	return nil
}
