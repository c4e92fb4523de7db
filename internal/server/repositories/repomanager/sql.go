package repomanager

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"

	"github.com/dmitrijs2005/feedbackhub/internal/dbx"
	"github.com/dmitrijs2005/feedbackhub/internal/server/migrations"
	"github.com/dmitrijs2005/feedbackhub/internal/server/repositories/admins"
	"github.com/dmitrijs2005/feedbackhub/internal/server/repositories/attachments"
	"github.com/dmitrijs2005/feedbackhub/internal/server/repositories/feedbacks"
	"github.com/dmitrijs2005/feedbackhub/internal/server/repositories/institutions"
	"github.com/dmitrijs2005/feedbackhub/internal/server/repositories/secrets"
	"github.com/dmitrijs2005/feedbackhub/internal/server/repositories/systemflags"
)

// Dialect names a supported storage backend.
type Dialect string

const (
	Postgres Dialect = "postgres"
	SQLite   Dialect = "sqlite"
)

// DefaultSQLiteDSN is used when no DSN is configured.
const DefaultSQLiteDSN = "feedback.db"

const sqlitePragmas = "_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"

func init() {
	// modernc registers as "sqlite", which sqlx does not know by name.
	sqlx.BindDriver("sqlite", sqlx.QUESTION)
}

// DialectFromDSN picks PostgreSQL for postgres:// URLs and SQLite for
// anything else, including an empty DSN.
func DialectFromDSN(dsn string) Dialect {
	lower := strings.ToLower(strings.TrimSpace(dsn))
	if strings.HasPrefix(lower, "postgres://") || strings.HasPrefix(lower, "postgresql://") {
		return Postgres
	}
	return SQLite
}

// sqliteDSN strips a scheme prefix and appends the pragmas every
// connection needs.
func sqliteDSN(dsn string) string {
	dsn = strings.TrimSpace(dsn)
	dsn = strings.TrimPrefix(dsn, "sqlite://")
	dsn = strings.TrimPrefix(dsn, "sqlite:")
	if dsn == "" {
		dsn = DefaultSQLiteDSN
	}
	if strings.Contains(dsn, "_pragma=") {
		return dsn
	}
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + sqlitePragmas
}

// sqlxOpen is a seam for tests.
var sqlxOpen = sqlx.Open

// Open connects to the backend selected by dsn and pings it.
// SQLite handles are limited to one connection.
func Open(ctx context.Context, dsn string) (*sqlx.DB, *SQLRepositoryManager, error) {
	dialect := DialectFromDSN(dsn)

	var (
		db  *sqlx.DB
		err error
	)
	switch dialect {
	case Postgres:
		db, err = sqlxOpen("pgx", dsn)
	default:
		db, err = sqlxOpen("sqlite", sqliteDSN(dsn))
	}
	if err != nil {
		return nil, nil, fmt.Errorf("open %s: %w", dialect, err)
	}

	if dialect == SQLite {
		db.SetMaxOpenConns(1)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("ping %s: %w", dialect, err)
	}

	return db, NewSQLRepositoryManager(dialect), nil
}

// SQLRepositoryManager vends the sqlx-backed repositories. The same
// implementations serve both dialects; only migrations differ.
type SQLRepositoryManager struct {
	dialect Dialect
}

func NewSQLRepositoryManager(dialect Dialect) *SQLRepositoryManager {
	return &SQLRepositoryManager{dialect: dialect}
}

func (m *SQLRepositoryManager) Dialect() Dialect {
	return m.dialect
}

func (m *SQLRepositoryManager) Institutions(db dbx.DBTX) institutions.Repository {
	return institutions.NewSQLRepository(db)
}

func (m *SQLRepositoryManager) Feedbacks(db dbx.DBTX) feedbacks.Repository {
	return feedbacks.NewSQLRepository(db)
}

func (m *SQLRepositoryManager) Attachments(db dbx.DBTX) attachments.Repository {
	return attachments.NewSQLRepository(db)
}

func (m *SQLRepositoryManager) Admins(db dbx.DBTX) admins.Repository {
	return admins.NewSQLRepository(db)
}

func (m *SQLRepositoryManager) Secrets(db dbx.DBTX) secrets.Repository {
	return secrets.NewSQLRepository(db)
}

func (m *SQLRepositoryManager) Flags(db dbx.DBTX) systemflags.Repository {
	return systemflags.NewSQLRepository(db)
}

// gooseUpContext is a seam for testing goose.UpContext.
var gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
	return goose.UpContext(ctx, db, dir, opts...)
}

// RunMigrations applies the embedded migrations for the manager's dialect.
func (m *SQLRepositoryManager) RunMigrations(ctx context.Context, db *sqlx.DB) error {
	gooseDialect := "postgres"
	if m.dialect == SQLite {
		gooseDialect = "sqlite3"
	}

	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect(gooseDialect); err != nil {
		return err
	}
	return gooseUpContext(ctx, db.DB, string(m.dialect))
}
