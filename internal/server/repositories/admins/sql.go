package admins

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/feedbackhub/internal/common"
	"github.com/dmitrijs2005/feedbackhub/internal/dbx"
	"github.com/dmitrijs2005/feedbackhub/internal/server/models"
)

type SQLRepository struct {
	db dbx.DBTX
}

func NewSQLRepository(db dbx.DBTX) *SQLRepository {
	return &SQLRepository{db: db}
}

func (r *SQLRepository) Create(ctx context.Context, admin *models.Admin) (bool, error) {
	query := r.db.Rebind(
		`INSERT INTO admins (username, password_hash)
		 VALUES (?, ?)
		 ON CONFLICT (username) DO NOTHING`)

	res, err := r.db.ExecContext(ctx, query, admin.Username, admin.PasswordHash)
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected error: %w", err)
	}
	return n == 1, nil
}

func (r *SQLRepository) GetByUsername(ctx context.Context, username string) (*models.Admin, error) {
	query := r.db.Rebind(
		`SELECT id, username, password_hash FROM admins
		 WHERE username = ?`)

	admin := &models.Admin{}
	if err := r.db.GetContext(ctx, admin, query, username); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return admin, nil
}

func (r *SQLRepository) UpdatePasswordHash(ctx context.Context, username, hash string) (bool, error) {
	query := r.db.Rebind(`UPDATE admins SET password_hash = ? WHERE username = ?`)

	res, err := r.db.ExecContext(ctx, query, hash, username)
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected error: %w", err)
	}
	return n > 0, nil
}
