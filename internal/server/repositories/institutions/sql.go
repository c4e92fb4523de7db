package institutions

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/feedbackhub/internal/common"
	"github.com/dmitrijs2005/feedbackhub/internal/dbx"
	"github.com/dmitrijs2005/feedbackhub/internal/server/models"
)

// SQLRepository works on both PostgreSQL and SQLite through dbx.DBTX.
type SQLRepository struct {
	db dbx.DBTX
}

func NewSQLRepository(db dbx.DBTX) *SQLRepository {
	return &SQLRepository{db: db}
}

// Create inserts inst and fills its ID. A taken code yields
// common.ErrorAlreadyExists so callers can retry with a fresh one.
func (r *SQLRepository) Create(ctx context.Context, inst *models.Institution) (*models.Institution, error) {
	query := r.db.Rebind(
		`INSERT INTO institutions (official_name, code)
		 VALUES (?, ?)
		 RETURNING id`)

	err := r.db.QueryRowxContext(ctx, query, inst.OfficialName, inst.Code).Scan(&inst.ID)
	if err != nil {
		if dbx.IsUniqueViolation(err) {
			return nil, common.ErrorAlreadyExists
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return inst, nil
}

func (r *SQLRepository) GetByCode(ctx context.Context, code string) (*models.Institution, error) {
	query := r.db.Rebind(
		`SELECT id, official_name, code FROM institutions
		 WHERE code = ?`)

	inst := &models.Institution{}
	if err := r.db.GetContext(ctx, inst, query, code); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return inst, nil
}

func (r *SQLRepository) List(ctx context.Context) ([]*models.Institution, error) {
	var items []*models.Institution
	err := r.db.SelectContext(ctx, &items,
		`SELECT id, official_name, code FROM institutions ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return items, nil
}

// ListWithStats is List plus the number of feedback rows per institution.
func (r *SQLRepository) ListWithStats(ctx context.Context) ([]*models.InstitutionStats, error) {
	var items []*models.InstitutionStats
	err := r.db.SelectContext(ctx, &items,
		`SELECT i.id, i.official_name, i.code, COUNT(f.id) AS feedback_count
		 FROM institutions i
		 LEFT JOIN feedbacks f ON f.institution_code = i.code
		 GROUP BY i.id, i.official_name, i.code
		 ORDER BY i.id`)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return items, nil
}
