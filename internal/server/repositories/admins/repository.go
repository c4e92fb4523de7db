// Package admins stores admin panel accounts.
package admins

import (
	"context"

	"github.com/dmitrijs2005/feedbackhub/internal/server/models"
)

type Repository interface {
	// Create inserts the account unless the username is taken; created
	// reports which case happened.
	Create(ctx context.Context, admin *models.Admin) (created bool, err error)
	GetByUsername(ctx context.Context, username string) (*models.Admin, error)
	// UpdatePasswordHash reports false when no such username exists.
	UpdatePasswordHash(ctx context.Context, username, hash string) (bool, error)
}
