package secrets

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/feedbackhub/internal/common"
	"github.com/dmitrijs2005/feedbackhub/internal/dbx"
)

// singletonID is the only row id admin_secrets ever holds.
const singletonID = 1

type SQLRepository struct {
	db dbx.DBTX
}

func NewSQLRepository(db dbx.DBTX) *SQLRepository {
	return &SQLRepository{db: db}
}

// SetPassphrase upserts the singleton row, so concurrent readers always see
// either the old or the new passphrase, then drops any stray rows.
func (r *SQLRepository) SetPassphrase(ctx context.Context, passphrase string) error {
	query := r.db.Rebind(`INSERT INTO admin_secrets (id, secret_view_password) VALUES (?, ?)
		ON CONFLICT (id) DO UPDATE SET secret_view_password = excluded.secret_view_password`)
	if _, err := r.db.ExecContext(ctx, query, singletonID, passphrase); err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	query = r.db.Rebind(`DELETE FROM admin_secrets WHERE id <> ?`)
	if _, err := r.db.ExecContext(ctx, query, singletonID); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *SQLRepository) GetPassphrase(ctx context.Context) (string, error) {
	var passphrase string
	query := r.db.Rebind(`SELECT secret_view_password FROM admin_secrets WHERE id = ?`)
	if err := r.db.GetContext(ctx, &passphrase, query, singletonID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", common.ErrorNotFound
		}
		return "", fmt.Errorf("db error: %w", err)
	}
	return passphrase, nil
}
