// Package feedbacks stores classified submissions in a single table keyed
// by institution_code. Every read is scoped to one institution.
package feedbacks

import (
	"context"

	"github.com/dmitrijs2005/feedbackhub/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, fb *models.Feedback) (*models.Feedback, error)
	Query(ctx context.Context, code string, filter models.FeedbackFilter) ([]*models.Feedback, error)
	GetScoped(ctx context.Context, id int64, code string) (*models.Feedback, error)
}
