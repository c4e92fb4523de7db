package services

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"golang.org/x/crypto/bcrypt"

	"github.com/dmitrijs2005/feedbackhub/internal/common"
	"github.com/dmitrijs2005/feedbackhub/internal/dbx"
	"github.com/dmitrijs2005/feedbackhub/internal/logging"
	"github.com/dmitrijs2005/feedbackhub/internal/server/models"
	"github.com/dmitrijs2005/feedbackhub/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/feedbackhub/internal/server/validation"
)

// bcryptCost is lowered in tests.
var bcryptCost = bcrypt.DefaultCost

// dummyHash is compared against when the username is unknown so both paths
// cost one bcrypt comparison.
var dummyHash, _ = bcrypt.GenerateFromPassword([]byte("feedbackhub-dummy-password"), bcrypt.DefaultCost)

// AdminService manages admin accounts and the secret view passphrase.
type AdminService struct {
	db          *sqlx.DB
	repomanager repomanager.RepositoryManager
	logger      logging.Logger
}

func NewAdminService(db *sqlx.DB, m repomanager.RepositoryManager, logger logging.Logger) *AdminService {
	return &AdminService{db: db, repomanager: m, logger: logger.With("module", "admins")}
}

type credentialsForm struct {
	Username string `json:"username" validate:"notblank,max=255"`
	Password string `json:"password" validate:"required,maxbytes=72"`
}

type changePasswordForm struct {
	OldPassword     string `json:"old_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required,min=8,maxbytes=72"`
	ConfirmPassword string `json:"confirm_password" validate:"required,eqfield=NewPassword"`
}

func hashPassword(password string) (string, error) {
	h, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(h), nil
}

// AddAdmin creates an account. An existing username is left untouched and
// reported as created == false.
func (s *AdminService) AddAdmin(ctx context.Context, username, password string) (bool, error) {
	form := credentialsForm{Username: strings.TrimSpace(username), Password: password}
	if err := validation.Validate.Struct(form); err != nil {
		return false, rejectInvalid(err)
	}

	hash, err := hashPassword(form.Password)
	if err != nil {
		return false, err
	}

	created, err := s.repomanager.Admins(s.db).Create(ctx, &models.Admin{Username: form.Username, PasswordHash: hash})
	if err != nil {
		return false, err
	}
	if created {
		s.logger.Info(ctx, "admin added", "admin", form.Username)
	}
	return created, nil
}

// VerifyAdmin reports whether the credentials match. Unknown usernames are
// not an error; they verify as false after the same amount of work.
func (s *AdminService) VerifyAdmin(ctx context.Context, username, password string) (bool, error) {
	admin, err := s.repomanager.Admins(s.db).GetByUsername(ctx, username)
	if errors.Is(err, common.ErrorNotFound) {
		_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return bcrypt.CompareHashAndPassword([]byte(admin.PasswordHash), []byte(password)) == nil, nil
}

// ChangePassword is the self-service rotation: the old password must verify
// and the new one must be entered twice.
func (s *AdminService) ChangePassword(ctx context.Context, username, oldPassword, newPassword, confirmPassword string) error {
	form := changePasswordForm{OldPassword: oldPassword, NewPassword: newPassword, ConfirmPassword: confirmPassword}
	if err := validation.Validate.Struct(form); err != nil {
		return rejectInvalid(err)
	}

	ok, err := s.VerifyAdmin(ctx, username, oldPassword)
	if err != nil {
		return err
	}
	if !ok {
		return reject("old password is incorrect", map[string]string{"old_password": "old password is incorrect"})
	}

	if _, err := s.UpdatePassword(ctx, username, newPassword); err != nil {
		return err
	}
	return nil
}

// UpdatePassword overwrites the password of an existing account; updated is
// false when there is no such username.
func (s *AdminService) UpdatePassword(ctx context.Context, username, newPassword string) (bool, error) {
	form := credentialsForm{Username: username, Password: newPassword}
	if err := validation.Validate.Struct(form); err != nil {
		return false, rejectInvalid(err)
	}

	hash, err := hashPassword(newPassword)
	if err != nil {
		return false, err
	}

	updated, err := s.repomanager.Admins(s.db).UpdatePasswordHash(ctx, username, hash)
	if err != nil {
		return false, err
	}
	if updated {
		s.logger.Info(ctx, "admin password changed", "admin", username)
	}
	return updated, nil
}

type passphraseForm struct {
	Passphrase string `json:"passphrase" validate:"notblank,max=255"`
}

// SetSecretPassphrase replaces the installation wide passphrase.
func (s *AdminService) SetSecretPassphrase(ctx context.Context, passphrase string) error {
	if err := validation.Validate.Struct(passphraseForm{Passphrase: passphrase}); err != nil {
		return rejectInvalid(err)
	}
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		return s.repomanager.Secrets(tx).SetPassphrase(ctx, passphrase)
	})
	if err != nil {
		return err
	}
	s.logger.Info(ctx, "secret passphrase rotated")
	return nil
}

func (s *AdminService) GetSecretPassphrase(ctx context.Context) (string, error) {
	return s.repomanager.Secrets(s.db).GetPassphrase(ctx)
}

// CheckSecretPassphrase compares candidate with the stored passphrase in
// constant time. With no passphrase set every candidate fails.
func (s *AdminService) CheckSecretPassphrase(ctx context.Context, candidate string) (bool, error) {
	stored, err := s.GetSecretPassphrase(ctx)
	if errors.Is(err, common.ErrorNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	a := sha256.Sum256([]byte(stored))
	b := sha256.Sum256([]byte(candidate))
	return subtle.ConstantTimeCompare(a[:], b[:]) == 1, nil
}
