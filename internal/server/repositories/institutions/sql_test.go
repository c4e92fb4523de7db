package institutions

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/feedbackhub/internal/common"
	"github.com/dmitrijs2005/feedbackhub/internal/server/models"
)

func newRepoWithMock(t *testing.T) (*SQLRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewSQLRepository(sqlx.NewDb(db, "pgx")), mock
}

const insertQ = `(?s)^INSERT\s+INTO\s+institutions\s*\(official_name,\s*code\)\s*VALUES\s*\(\$1,\s*\$2\)\s*RETURNING\s+id$`

func TestCreate_Success(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(insertQ).
		WithArgs("Acme Univ", "abcd1234").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(7)))

	got, err := repo.Create(context.Background(), &models.Institution{OfficialName: "Acme Univ", Code: "abcd1234"})
	require.NoError(t, err)
	assert.Equal(t, int64(7), got.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreate_CodeTaken(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(insertQ).
		WithArgs("Acme Univ", "abcd1234").
		WillReturnError(&pgconn.PgError{Code: "23505"})

	_, err := repo.Create(context.Background(), &models.Institution{OfficialName: "Acme Univ", Code: "abcd1234"})
	assert.ErrorIs(t, err, common.ErrorAlreadyExists)
}

func TestCreate_DBError(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(insertQ).WillReturnError(errors.New("db down"))

	_, err := repo.Create(context.Background(), &models.Institution{OfficialName: "x", Code: "abcd1234"})
	require.Error(t, err)
	assert.Regexp(t, `db error: .*db down`, err.Error())
}

func TestGetByCode(t *testing.T) {
	q := `(?s)^SELECT\s+id,\s*official_name,\s*code\s+FROM\s+institutions\s+WHERE\s+code\s*=\s*\$1$`

	t.Run("found", func(t *testing.T) {
		repo, mock := newRepoWithMock(t)
		mock.ExpectQuery(q).WithArgs("abcd1234").
			WillReturnRows(sqlmock.NewRows([]string{"id", "official_name", "code"}).AddRow(int64(1), "Acme Univ", "abcd1234"))

		got, err := repo.GetByCode(context.Background(), "abcd1234")
		require.NoError(t, err)
		assert.Equal(t, &models.Institution{ID: 1, OfficialName: "Acme Univ", Code: "abcd1234"}, got)
	})

	t.Run("not found", func(t *testing.T) {
		repo, mock := newRepoWithMock(t)
		mock.ExpectQuery(q).WithArgs("zzzzzzzz").WillReturnError(sql.ErrNoRows)

		_, err := repo.GetByCode(context.Background(), "zzzzzzzz")
		assert.ErrorIs(t, err, common.ErrorNotFound)
	})

	t.Run("db error", func(t *testing.T) {
		repo, mock := newRepoWithMock(t)
		mock.ExpectQuery(q).WillReturnError(errors.New("db err"))

		_, err := repo.GetByCode(context.Background(), "abcd1234")
		require.Error(t, err)
		assert.NotErrorIs(t, err, common.ErrorNotFound)
	})
}

func TestList_OrderedByID(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(`(?s)^SELECT\s+id,\s*official_name,\s*code\s+FROM\s+institutions\s+ORDER\s+BY\s+id$`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "official_name", "code"}).
			AddRow(int64(1), "A", "aaaaaaaa").
			AddRow(int64(2), "B", "bbbbbbbb"))

	got, err := repo.List(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "aaaaaaaa", got[0].Code)
	assert.Equal(t, "bbbbbbbb", got[1].Code)
}

func TestListWithStats(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(`(?s)^SELECT\s+i\.id.*COUNT\(f\.id\)\s+AS\s+feedback_count.*LEFT\s+JOIN\s+feedbacks.*ORDER\s+BY\s+i\.id$`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "official_name", "code", "feedback_count"}).
			AddRow(int64(1), "A", "aaaaaaaa", int64(3)))

	got, err := repo.ListWithStats(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, int64(3), got[0].FeedbackCount)
	assert.Equal(t, "A", got[0].OfficialName)
}
