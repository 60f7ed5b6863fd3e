package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hamidrezasoltanian/recruitment-dashboard/internal/models"
)

func newTemplateMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func templateRows() *sqlmock.Rows {
	stageID := "interview-1"
	return sqlmock.NewRows([]string{"id", "name", "content", "type", "stage_id", "created_at", "updated_at"}).
		AddRow("t1", "Interview invite", "Hi {{candidateName}}", "email", stageID, time.Now(), time.Now())
}

func TestTemplateRepositoryFindForStageFirstMatch(t *testing.T) {
	db, mock, cleanup := newTemplateMock(t)
	defer cleanup()
	repo := NewTemplateRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("WHERE stage_id = $1 AND type = $2 ORDER BY id ASC LIMIT 1")).
		WithArgs("interview-1", models.TemplateTypeEmail).
		WillReturnRows(templateRows())

	tmpl, err := repo.FindForStage(context.Background(), "interview-1", models.TemplateTypeEmail)
	require.NoError(t, err)
	assert.Equal(t, "t1", tmpl.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTemplateRepositoryFindForStageMiss(t *testing.T) {
	db, mock, cleanup := newTemplateMock(t)
	defer cleanup()
	repo := NewTemplateRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("WHERE stage_id = $1 AND type = $2 ORDER BY id ASC LIMIT 1")).
		WithArgs("review", models.TemplateTypeWhatsApp).
		WillReturnError(sql.ErrNoRows)

	_, err := repo.FindForStage(context.Background(), "review", models.TemplateTypeWhatsApp)
	require.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTemplateRepositoryListFilters(t *testing.T) {
	db, mock, cleanup := newTemplateMock(t)
	defer cleanup()
	repo := NewTemplateRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("AND stage_id = $1 AND type = $2 ORDER BY id ASC")).
		WithArgs("interview-1", models.TemplateTypeEmail).
		WillReturnRows(templateRows())

	templates, err := repo.List(context.Background(), models.TemplateFilter{StageID: "interview-1", Type: models.TemplateTypeEmail})
	require.NoError(t, err)
	assert.Len(t, templates, 1)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTemplateRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newTemplateMock(t)
	defer cleanup()
	repo := NewTemplateRepository(db)

	mock.ExpectExec("INSERT INTO templates").
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	tmpl := &models.Template{Name: "Offer", Content: "Dear {{candidateName}}", Type: models.TemplateTypeEmail}
	require.NoError(t, repo.Create(context.Background(), tmpl))
	assert.NotEmpty(t, tmpl.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}
