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

func newCandidateMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func candidateRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "full_name", "email", "phone", "position", "stage_id", "source", "rating", "interview_date", "interview_time", "interviewer_id", "resume_path", "portal_token", "created_at", "updated_at"}).
		AddRow("c1", "Ali Rezaei", "ali@example.com", "09121234567", "Backend Engineer", "review", "linkedin", 4, nil, nil, nil, nil, nil, time.Now(), time.Now())
}

func TestCandidateRepositoryList(t *testing.T) {
	db, mock, cleanup := newCandidateMock(t)
	defer cleanup()
	repo := NewCandidateRepository(db)

	mock.ExpectQuery("SELECT id, full_name, email, phone, position, stage_id, source, rating, interview_date, interview_time, interviewer_id, resume_path, portal_token, created_at, updated_at FROM candidates WHERE 1=1 ORDER BY created_at DESC LIMIT 20 OFFSET 0").
		WillReturnRows(candidateRows())
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM candidates WHERE 1=1")).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	candidates, total, err := repo.List(context.Background(), models.CandidateFilter{})
	require.NoError(t, err)
	assert.Len(t, candidates, 1)
	assert.Equal(t, 1, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCandidateRepositoryListFiltersByStage(t *testing.T) {
	db, mock, cleanup := newCandidateMock(t)
	defer cleanup()
	repo := NewCandidateRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("AND stage_id = $1")).
		WithArgs("review").
		WillReturnRows(candidateRows())
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM candidates WHERE 1=1 AND stage_id = $1")).
		WithArgs("review").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	_, total, err := repo.List(context.Background(), models.CandidateFilter{StageID: "review"})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCandidateRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newCandidateMock(t)
	defer cleanup()
	repo := NewCandidateRepository(db)

	mock.ExpectExec("INSERT INTO candidates").
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	candidate := &models.Candidate{FullName: "Ali Rezaei", Email: "ali@example.com", Phone: "09121234567", Position: "Backend Engineer", StageID: models.StageIDNew, Source: "linkedin"}
	err := repo.Create(context.Background(), candidate)
	require.NoError(t, err)
	assert.NotEmpty(t, candidate.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCandidateRepositoryAppendHistory(t *testing.T) {
	db, mock, cleanup := newCandidateMock(t)
	defer cleanup()
	repo := NewCandidateRepository(db)

	mock.ExpectExec("INSERT INTO candidate_history").
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	entry := &models.HistoryEntry{CandidateID: "c1", Actor: "admin", Action: "stage changed to Interview 1"}
	err := repo.AppendHistory(context.Background(), entry)
	require.NoError(t, err)
	assert.NotEmpty(t, entry.ID)
	assert.False(t, entry.CreatedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCandidateRepositorySetPortalTokenIsStable(t *testing.T) {
	db, mock, cleanup := newCandidateMock(t)
	defer cleanup()
	repo := NewCandidateRepository(db)

	// Row already holds a token; the guarded update touches nothing and the
	// original token is returned.
	mock.ExpectExec(regexp.QuoteMeta("UPDATE candidates SET portal_token = $2, updated_at = $3 WHERE id = $1 AND portal_token IS NULL")).
		WithArgs("c1", "fresh-token", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT portal_token FROM candidates WHERE id = $1")).
		WithArgs("c1").
		WillReturnRows(sqlmock.NewRows([]string{"portal_token"}).AddRow("existing-token"))

	token, err := repo.SetPortalToken(context.Background(), "c1", "fresh-token")
	require.NoError(t, err)
	assert.Equal(t, "existing-token", token)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCandidateRepositoryDeleteCascades(t *testing.T) {
	db, mock, cleanup := newCandidateMock(t)
	defer cleanup()
	repo := NewCandidateRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM candidate_test_results").WithArgs("c1").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("DELETE FROM candidate_comments").WithArgs("c1").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("DELETE FROM candidate_history").WithArgs("c1").WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec("DELETE FROM candidates").WithArgs("c1").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, repo.Delete(context.Background(), "c1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCandidateRepositoryStageCounts(t *testing.T) {
	db, mock, cleanup := newCandidateMock(t)
	defer cleanup()
	repo := NewCandidateRepository(db)

	mock.ExpectQuery("SELECT stage_id, COUNT").
		WillReturnRows(sqlmock.NewRows([]string{"stage_id", "total"}).AddRow("new", 3).AddRow("review", 2))

	counts, err := repo.StageCounts(context.Background())
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"new": 3, "review": 2}, counts)
	assert.NoError(t, mock.ExpectationsWereMet())
}
