package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hamidrezasoltanian/recruitment-dashboard/internal/models"
)

func newStageMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestStageRepositoryListOrdersByPosition(t *testing.T) {
	db, mock, cleanup := newStageMock(t)
	defer cleanup()
	repo := NewStageRepository(db)

	rows := sqlmock.NewRows([]string{"id", "title", "is_core", "position", "created_at", "updated_at"}).
		AddRow("new", "New", true, 1, time.Now(), time.Now()).
		AddRow("review", "Review", false, 2, time.Now(), time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, title, is_core, position, created_at, updated_at FROM stages ORDER BY position ASC")).
		WillReturnRows(rows)

	stages, err := repo.List(context.Background())
	require.NoError(t, err)
	require.Len(t, stages, 2)
	assert.Equal(t, "new", stages[0].ID)
	assert.True(t, stages[0].IsCore)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStageRepositoryExistsTitleCaseInsensitive(t *testing.T) {
	db, mock, cleanup := newStageMock(t)
	defer cleanup()
	repo := NewStageRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT 1 FROM stages WHERE LOWER(title) = LOWER($1) LIMIT 1")).
		WithArgs("review").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(1))

	exists, err := repo.ExistsTitle(context.Background(), "review", "")
	require.NoError(t, err)
	assert.True(t, exists)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStageRepositoryCreateAppendsAtEnd(t *testing.T) {
	db, mock, cleanup := newStageMock(t)
	defer cleanup()
	repo := NewStageRepository(db)

	mock.ExpectExec("INSERT INTO stages").
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	err := repo.Create(context.Background(), &models.Stage{ID: "tech-review", Title: "Tech Review"})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStageRepositoryReorder(t *testing.T) {
	db, mock, cleanup := newStageMock(t)
	defer cleanup()
	repo := NewStageRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE stages SET position").WithArgs("review", 1, sqlmock.AnyArg()).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE stages SET position").WithArgs("interview-1", 2, sqlmock.AnyArg()).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, repo.Reorder(context.Background(), []string{"review", "interview-1"}))
	assert.NoError(t, mock.ExpectationsWereMet())
}
