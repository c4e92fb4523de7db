package attachments

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

// CreateBatch inserts all items and fills their IDs. Run it inside a
// transaction so the batch lands all-or-nothing.
func (r *SQLRepository) CreateBatch(ctx context.Context, items []*models.Attachment) error {
	query := r.db.Rebind(
		`INSERT INTO attachments (feedback_id, filename, stored_path, content_type, size)
		 VALUES (?, ?, ?, ?, ?)
		 RETURNING id`)

	for _, a := range items {
		err := r.db.QueryRowxContext(ctx, query, a.FeedbackID, a.Filename, a.StoredPath, a.ContentType, a.Size).Scan(&a.ID)
		if err != nil {
			return fmt.Errorf("db error: %w", err)
		}
	}
	return nil
}

// ListByFeedback returns the attachments of a feedback owned by the
// institution with the given code.
func (r *SQLRepository) ListByFeedback(ctx context.Context, feedbackID int64, code string) ([]*models.Attachment, error) {
	query := r.db.Rebind(
		`SELECT a.id, a.feedback_id, a.filename, a.stored_path, a.content_type, a.size
		 FROM attachments a
		 JOIN feedbacks f ON f.id = a.feedback_id
		 WHERE a.feedback_id = ? AND f.institution_code = ?
		 ORDER BY a.id`)

	items := []*models.Attachment{}
	if err := r.db.SelectContext(ctx, &items, query, feedbackID, code); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return items, nil
}

func (r *SQLRepository) GetScoped(ctx context.Context, id int64, code string) (*models.Attachment, error) {
	query := r.db.Rebind(
		`SELECT a.id, a.feedback_id, a.filename, a.stored_path, a.content_type, a.size
		 FROM attachments a
		 JOIN feedbacks f ON f.id = a.feedback_id
		 WHERE a.id = ? AND f.institution_code = ?`)

	a := &models.Attachment{}
	if err := r.db.GetContext(ctx, a, query, id, code); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return a, nil
}
