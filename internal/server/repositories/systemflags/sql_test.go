package systemflags

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/feedbackhub/internal/common"
)

func newRepoWithMock(t *testing.T) (*SQLRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewSQLRepository(sqlx.NewDb(db, "pgx")), mock
}

func TestHas(t *testing.T) {
	for _, n := range []int{0, 1} {
		repo, mock := newRepoWithMock(t)
		mock.ExpectQuery(`SELECT\s+COUNT\(\*\)\s+FROM\s+system_flags\s+WHERE\s+name\s*=\s*\$1`).
			WithArgs("bootstrap").
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(n))

		got, err := repo.Has(context.Background(), "bootstrap")
		require.NoError(t, err)
		assert.Equal(t, n == 1, got)
	}
}

func TestSet(t *testing.T) {
	q := `INSERT\s+INTO\s+system_flags\s*\(name\)\s*VALUES\s*\(\$1\)`

	t.Run("new", func(t *testing.T) {
		repo, mock := newRepoWithMock(t)
		mock.ExpectExec(q).WithArgs("bootstrap").WillReturnResult(sqlmock.NewResult(0, 1))
		assert.NoError(t, repo.Set(context.Background(), "bootstrap"))
	})

	t.Run("already set", func(t *testing.T) {
		repo, mock := newRepoWithMock(t)
		mock.ExpectExec(q).WithArgs("bootstrap").WillReturnError(&pgconn.PgError{Code: "23505"})
		assert.ErrorIs(t, repo.Set(context.Background(), "bootstrap"), common.ErrorAlreadyExists)
	})
}
