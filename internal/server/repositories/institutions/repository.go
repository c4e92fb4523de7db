// Package institutions stores tenants and their codes.
package institutions

import (
	"context"

	"github.com/dmitrijs2005/feedbackhub/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, inst *models.Institution) (*models.Institution, error)
	GetByCode(ctx context.Context, code string) (*models.Institution, error)
	List(ctx context.Context) ([]*models.Institution, error)
	ListWithStats(ctx context.Context) ([]*models.InstitutionStats, error)
}
