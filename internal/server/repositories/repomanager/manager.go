// Package repomanager vends repositories bound to a dbx.DBTX and owns
// opening the database and running its migrations.
package repomanager

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/dmitrijs2005/feedbackhub/internal/dbx"
	"github.com/dmitrijs2005/feedbackhub/internal/server/repositories/admins"
	"github.com/dmitrijs2005/feedbackhub/internal/server/repositories/attachments"
	"github.com/dmitrijs2005/feedbackhub/internal/server/repositories/feedbacks"
	"github.com/dmitrijs2005/feedbackhub/internal/server/repositories/institutions"
	"github.com/dmitrijs2005/feedbackhub/internal/server/repositories/secrets"
	"github.com/dmitrijs2005/feedbackhub/internal/server/repositories/systemflags"
)

type RepositoryManager interface {
	RunMigrations(ctx context.Context, db *sqlx.DB) error
	Institutions(db dbx.DBTX) institutions.Repository
	Feedbacks(db dbx.DBTX) feedbacks.Repository
	Attachments(db dbx.DBTX) attachments.Repository
	Admins(db dbx.DBTX) admins.Repository
	Secrets(db dbx.DBTX) secrets.Repository
	Flags(db dbx.DBTX) systemflags.Repository
}
