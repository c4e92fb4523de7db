// Package attachments stores metadata of files uploaded with feedback.
package attachments

import (
	"context"

	"github.com/dmitrijs2005/feedbackhub/internal/server/models"
)

type Repository interface {
	CreateBatch(ctx context.Context, items []*models.Attachment) error
	ListByFeedback(ctx context.Context, feedbackID int64, code string) ([]*models.Attachment, error)
	GetScoped(ctx context.Context, id int64, code string) (*models.Attachment, error)
}
