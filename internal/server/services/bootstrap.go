package services

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/dmitrijs2005/feedbackhub/internal/common"
	"github.com/dmitrijs2005/feedbackhub/internal/dbx"
	"github.com/dmitrijs2005/feedbackhub/internal/filex"
	"github.com/dmitrijs2005/feedbackhub/internal/logging"
	"github.com/dmitrijs2005/feedbackhub/internal/server/models"
	"github.com/dmitrijs2005/feedbackhub/internal/server/repositories/repomanager"
)

const (
	// BootstrapFlag marks a store whose first-run credentials were issued.
	BootstrapFlag = "bootstrap"

	generatedSecretLength = 24
)

// Credentials are disclosed once after the first start. Empty Password or
// Passphrase means the value already existed and was left alone.
type Credentials struct {
	Username   string
	Password   string
	Passphrase string
}

// Discloser hands first-run credentials to the operator. Retract withdraws a
// disclosure whose transaction did not commit.
type Discloser interface {
	Disclose(ctx context.Context, c Credentials) error
	Retract(ctx context.Context) error
}

// FileDiscloser writes the credentials to a file only the owner can read.
type FileDiscloser struct {
	Path string
}

func (d FileDiscloser) Disclose(_ context.Context, c Credentials) error {
	var b strings.Builder
	fmt.Fprintf(&b, "Admin username: %s\n", c.Username)
	fmt.Fprintf(&b, "Admin password: %s\n", orUnchanged(c.Password))
	fmt.Fprintf(&b, "Secret view passphrase: %s\n", orUnchanged(c.Passphrase))
	b.WriteString("Please delete this file after first login and/or change password in web interface!\n")

	if err := filex.WritePrivateFile(d.Path, []byte(b.String())); err != nil {
		return fmt.Errorf("write disclosure file: %w", err)
	}
	return nil
}

func (d FileDiscloser) Retract(context.Context) error {
	if err := os.Remove(d.Path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove disclosure file: %w", err)
	}
	return nil
}

func orUnchanged(v string) string {
	if v == "" {
		return "(already set, unchanged)"
	}
	return v
}

// Bootstrapper issues the first admin account and the secret passphrase
// exactly once per store.
type Bootstrapper struct {
	db          *sqlx.DB
	repomanager repomanager.RepositoryManager
	discloser   Discloser
	username    string
	logger      logging.Logger
}

func NewBootstrapper(db *sqlx.DB, m repomanager.RepositoryManager, d Discloser, username string, logger logging.Logger) *Bootstrapper {
	return &Bootstrapper{
		db:          db,
		repomanager: m,
		discloser:   d,
		username:    username,
		logger:      logger.With("module", "bootstrap"),
	}
}

var errBootstrapped = errors.New("already bootstrapped")

// Run does nothing when the bootstrap flag is present. Otherwise, in one
// transaction, it creates the admin account and the passphrase (each only if
// missing), sets the flag and discloses the generated values. Any failure,
// including a failed disclosure, rolls everything back. A disclosure made
// before a failed commit is retracted.
func (b *Bootstrapper) Run(ctx context.Context) (bool, error) {
	disclosed := false
	err := dbx.WithTx(ctx, b.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		flags := b.repomanager.Flags(tx)

		done, err := flags.Has(ctx, BootstrapFlag)
		if err != nil {
			return err
		}
		if done {
			return errBootstrapped
		}

		creds := Credentials{Username: b.username}

		password, err := common.RandomString(generatedSecretLength, common.Alnum)
		if err != nil {
			return err
		}
		hash, err := hashPassword(password)
		if err != nil {
			return err
		}
		created, err := b.repomanager.Admins(tx).Create(ctx, &models.Admin{Username: b.username, PasswordHash: hash})
		if err != nil {
			return err
		}
		if created {
			creds.Password = password
		}

		secrets := b.repomanager.Secrets(tx)
		if _, err := secrets.GetPassphrase(ctx); errors.Is(err, common.ErrorNotFound) {
			passphrase, err := common.RandomString(generatedSecretLength, common.Alnum)
			if err != nil {
				return err
			}
			if err := secrets.SetPassphrase(ctx, passphrase); err != nil {
				return err
			}
			creds.Passphrase = passphrase
		} else if err != nil {
			return err
		}

		if err := flags.Set(ctx, BootstrapFlag); err != nil {
			if errors.Is(err, common.ErrorAlreadyExists) {
				return errBootstrapped
			}
			return err
		}

		if err := b.discloser.Disclose(ctx, creds); err != nil {
			return err
		}
		disclosed = true
		return nil
	})

	if err != nil && disclosed {
		if rerr := b.discloser.Retract(context.WithoutCancel(ctx)); rerr != nil {
			b.logger.Error(ctx, "retract disclosure", "error", rerr)
		}
	}

	if errors.Is(err, errBootstrapped) {
		b.logger.Debug(ctx, "bootstrap already done")
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("bootstrap: %w", err)
	}

	b.logger.Info(ctx, "first-run credentials issued", "admin", b.username)
	return true, nil
}
