package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/hamidrezasoltanian/recruitment-dashboard/internal/models"
)

// CandidateRepository manages persistence for candidate records and their
// append-only history, comments and test results.
type CandidateRepository struct {
	db *sqlx.DB
}

// NewCandidateRepository constructs a CandidateRepository.
func NewCandidateRepository(db *sqlx.DB) *CandidateRepository {
	return &CandidateRepository{db: db}
}

const candidateColumns = `id, full_name, email, phone, position, stage_id, source, rating, interview_date, interview_time, interviewer_id, resume_path, portal_token, created_at, updated_at`

// List returns candidates matching the provided filters.
func (r *CandidateRepository) List(ctx context.Context, filter models.CandidateFilter) ([]models.Candidate, int, error) {
	base := "FROM candidates WHERE 1=1"
	var args []interface{}

	if filter.StageID != "" {
		base += fmt.Sprintf(" AND stage_id = $%d", len(args)+1)
		args = append(args, filter.StageID)
	}
	if filter.Source != "" {
		base += fmt.Sprintf(" AND source = $%d", len(args)+1)
		args = append(args, filter.Source)
	}
	if filter.Position != "" {
		base += fmt.Sprintf(" AND LOWER(position) = $%d", len(args)+1)
		args = append(args, strings.ToLower(filter.Position))
	}
	if filter.MinRating != nil {
		base += fmt.Sprintf(" AND rating >= $%d", len(args)+1)
		args = append(args, *filter.MinRating)
	}
	if filter.Search != "" {
		base += fmt.Sprintf(" AND (LOWER(full_name) LIKE $%d OR LOWER(email) LIKE $%d OR phone LIKE $%d)", len(args)+1, len(args)+1, len(args)+1)
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
	}

	sortBy := filter.SortBy
	allowedSorts := map[string]bool{
		"full_name":  true,
		"rating":     true,
		"created_at": true,
		"updated_at": true,
	}
	if !allowedSorts[sortBy] {
		sortBy = "created_at"
	}
	order := strings.ToUpper(filter.SortOrder)
	if order != "ASC" && order != "DESC" {
		order = "DESC"
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf("SELECT %s %s ORDER BY %s %s LIMIT %d OFFSET %d", candidateColumns, base, sortBy, order, size, offset)

	var candidates []models.Candidate
	if err := r.db.SelectContext(ctx, &candidates, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list candidates: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count candidates: %w", err)
	}
	return candidates, total, nil
}

// FindByID fetches a candidate by ID.
func (r *CandidateRepository) FindByID(ctx context.Context, id string) (*models.Candidate, error) {
	query := fmt.Sprintf("SELECT %s FROM candidates WHERE id = $1 LIMIT 1", candidateColumns)
	var candidate models.Candidate
	if err := r.db.GetContext(ctx, &candidate, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find candidate: %w", err)
	}
	return &candidate, nil
}

// CountByStage reports how many candidates currently occupy the given stage.
func (r *CandidateRepository) CountByStage(ctx context.Context, stageID string) (int, error) {
	var count int
	if err := r.db.GetContext(ctx, &count, "SELECT COUNT(*) FROM candidates WHERE stage_id = $1", stageID); err != nil {
		return 0, fmt.Errorf("count candidates by stage: %w", err)
	}
	return count, nil
}

// Create inserts a new candidate record.
func (r *CandidateRepository) Create(ctx context.Context, candidate *models.Candidate) error {
	if candidate.ID == "" {
		candidate.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if candidate.CreatedAt.IsZero() {
		candidate.CreatedAt = now
	}
	candidate.UpdatedAt = now
	const query = `INSERT INTO candidates (id, full_name, email, phone, position, stage_id, source, rating, interview_date, interview_time, interviewer_id, resume_path, portal_token, created_at, updated_at)
        VALUES (:id, :full_name, :email, :phone, :position, :stage_id, :source, :rating, :interview_date, :interview_time, :interviewer_id, :resume_path, :portal_token, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, candidate); err != nil {
		return fmt.Errorf("create candidate: %w", err)
	}
	return nil
}

// Update replaces the mutable fields of a candidate (whole-record merge).
// The stage column is included here because the stage-change workflow is the
// only caller that modifies it.
func (r *CandidateRepository) Update(ctx context.Context, candidate *models.Candidate) error {
	candidate.UpdatedAt = time.Now().UTC()
	const query = `UPDATE candidates SET full_name = :full_name, email = :email, phone = :phone, position = :position, stage_id = :stage_id, source = :source, rating = :rating, interview_date = :interview_date, interview_time = :interview_time, interviewer_id = :interviewer_id, resume_path = :resume_path, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, candidate); err != nil {
		return fmt.Errorf("update candidate: %w", err)
	}
	return nil
}

// Delete removes a candidate and cascades to history, comments and results.
func (r *CandidateRepository) Delete(ctx context.Context, id string) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete candidate: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	for _, stmt := range []string{
		"DELETE FROM candidate_test_results WHERE candidate_id = $1",
		"DELETE FROM candidate_comments WHERE candidate_id = $1",
		"DELETE FROM candidate_history WHERE candidate_id = $1",
		"DELETE FROM candidates WHERE id = $1",
	} {
		if _, err := tx.ExecContext(ctx, stmt, id); err != nil {
			return fmt.Errorf("delete candidate: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit delete candidate: %w", err)
	}
	return nil
}

// AppendHistory inserts an append-only history entry. There is deliberately
// no update or delete counterpart.
func (r *CandidateRepository) AppendHistory(ctx context.Context, entry *models.HistoryEntry) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO candidate_history (id, candidate_id, actor, action, details, created_at) VALUES (:id, :candidate_id, :actor, :action, :details, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, entry); err != nil {
		return fmt.Errorf("append candidate history: %w", err)
	}
	return nil
}

// ListHistory returns history entries oldest first.
func (r *CandidateRepository) ListHistory(ctx context.Context, candidateID string) ([]models.HistoryEntry, error) {
	const query = `SELECT id, candidate_id, actor, action, details, created_at FROM candidate_history WHERE candidate_id = $1 ORDER BY created_at ASC, id ASC`
	var entries []models.HistoryEntry
	if err := r.db.SelectContext(ctx, &entries, query, candidateID); err != nil {
		return nil, fmt.Errorf("list candidate history: %w", err)
	}
	return entries, nil
}

// AddComment stores a comment on the candidate.
func (r *CandidateRepository) AddComment(ctx context.Context, comment *models.Comment) error {
	if comment.ID == "" {
		comment.ID = uuid.NewString()
	}
	if comment.CreatedAt.IsZero() {
		comment.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO candidate_comments (id, candidate_id, author, body, created_at) VALUES (:id, :candidate_id, :author, :body, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, comment); err != nil {
		return fmt.Errorf("add candidate comment: %w", err)
	}
	return nil
}

// ListComments returns comments oldest first.
func (r *CandidateRepository) ListComments(ctx context.Context, candidateID string) ([]models.Comment, error) {
	const query = `SELECT id, candidate_id, author, body, created_at FROM candidate_comments WHERE candidate_id = $1 ORDER BY created_at ASC, id ASC`
	var comments []models.Comment
	if err := r.db.SelectContext(ctx, &comments, query, candidateID); err != nil {
		return nil, fmt.Errorf("list candidate comments: %w", err)
	}
	return comments, nil
}

// AddTestResult stores a new test assignment for a candidate.
func (r *CandidateRepository) AddTestResult(ctx context.Context, result *models.TestResult) error {
	if result.ID == "" {
		result.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if result.CreatedAt.IsZero() {
		result.CreatedAt = now
	}
	result.UpdatedAt = now
	const query = `INSERT INTO candidate_test_results (id, candidate_id, test_id, status, score, notes, file_path, result_url, created_at, updated_at)
        VALUES (:id, :candidate_id, :test_id, :status, :score, :notes, :file_path, :result_url, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, result); err != nil {
		return fmt.Errorf("add test result: %w", err)
	}
	return nil
}

// UpdateTestResult replaces the mutable fields of a test result.
func (r *CandidateRepository) UpdateTestResult(ctx context.Context, result *models.TestResult) error {
	result.UpdatedAt = time.Now().UTC()
	const query = `UPDATE candidate_test_results SET status = :status, score = :score, notes = :notes, file_path = :file_path, result_url = :result_url, updated_at = :updated_at WHERE id = :id AND candidate_id = :candidate_id`
	if _, err := r.db.NamedExecContext(ctx, query, result); err != nil {
		return fmt.Errorf("update test result: %w", err)
	}
	return nil
}

// FindTestResult loads one test result scoped to its candidate.
func (r *CandidateRepository) FindTestResult(ctx context.Context, candidateID, resultID string) (*models.TestResult, error) {
	const query = `SELECT id, candidate_id, test_id, status, score, notes, file_path, result_url, created_at, updated_at FROM candidate_test_results WHERE id = $1 AND candidate_id = $2 LIMIT 1`
	var result models.TestResult
	if err := r.db.GetContext(ctx, &result, query, resultID, candidateID); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find test result: %w", err)
	}
	return &result, nil
}

// ListTestResults returns a candidate's test results oldest first.
func (r *CandidateRepository) ListTestResults(ctx context.Context, candidateID string) ([]models.TestResult, error) {
	const query = `SELECT id, candidate_id, test_id, status, score, notes, file_path, result_url, created_at, updated_at FROM candidate_test_results WHERE candidate_id = $1 ORDER BY created_at ASC, id ASC`
	var results []models.TestResult
	if err := r.db.SelectContext(ctx, &results, query, candidateID); err != nil {
		return nil, fmt.Errorf("list test results: %w", err)
	}
	return results, nil
}

// SetPortalToken stores the token only when none exists yet, making repeated
// generation a no-op. It returns the token now on record.
func (r *CandidateRepository) SetPortalToken(ctx context.Context, id, token string) (string, error) {
	const update = `UPDATE candidates SET portal_token = $2, updated_at = $3 WHERE id = $1 AND portal_token IS NULL`
	if _, err := r.db.ExecContext(ctx, update, id, token, time.Now().UTC()); err != nil {
		return "", fmt.Errorf("set portal token: %w", err)
	}
	var stored sql.NullString
	if err := r.db.GetContext(ctx, &stored, "SELECT portal_token FROM candidates WHERE id = $1", id); err != nil {
		if err == sql.ErrNoRows {
			return "", err
		}
		return "", fmt.Errorf("read portal token: %w", err)
	}
	if !stored.Valid {
		return "", fmt.Errorf("portal token not stored for candidate %s", id)
	}
	return stored.String, nil
}

// FindByPortalToken resolves the candidate granted by a (id, token) pair.
func (r *CandidateRepository) FindByPortalToken(ctx context.Context, id, token string) (*models.Candidate, error) {
	query := fmt.Sprintf("SELECT %s FROM candidates WHERE id = $1 AND portal_token = $2 LIMIT 1", candidateColumns)
	var candidate models.Candidate
	if err := r.db.GetContext(ctx, &candidate, query, id, token); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find candidate by portal token: %w", err)
	}
	return &candidate, nil
}

// StageCounts returns candidate occupancy per stage for the board summary.
func (r *CandidateRepository) StageCounts(ctx context.Context) (map[string]int, error) {
	rows, err := r.db.QueryxContext(ctx, "SELECT stage_id, COUNT(*) AS total FROM candidates GROUP BY stage_id")
	if err != nil {
		return nil, fmt.Errorf("stage counts: %w", err)
	}
	defer rows.Close() //nolint:errcheck

	counts := make(map[string]int)
	for rows.Next() {
		var stageID string
		var total int
		if err := rows.Scan(&stageID, &total); err != nil {
			return nil, fmt.Errorf("scan stage count: %w", err)
		}
		counts[stageID] = total
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate stage counts: %w", err)
	}
	return counts, nil
}

// UpcomingInterviews lists candidates in interview stages with a schedule set.
func (r *CandidateRepository) UpcomingInterviews(ctx context.Context, limit int) ([]models.Candidate, error) {
	if limit <= 0 {
		limit = 10
	}
	query := fmt.Sprintf(`SELECT %s FROM candidates WHERE stage_id LIKE 'interview%%' AND interview_date IS NOT NULL ORDER BY interview_date ASC, interview_time ASC LIMIT %d`, candidateColumns, limit)
	var candidates []models.Candidate
	if err := r.db.SelectContext(ctx, &candidates, query); err != nil {
		return nil, fmt.Errorf("list upcoming interviews: %w", err)
	}
	return candidates, nil
}

// Recent returns the most recently created candidates.
func (r *CandidateRepository) Recent(ctx context.Context, limit int) ([]models.Candidate, error) {
	if limit <= 0 {
		limit = 5
	}
	query := fmt.Sprintf("SELECT %s FROM candidates ORDER BY created_at DESC LIMIT %d", candidateColumns, limit)
	var candidates []models.Candidate
	if err := r.db.SelectContext(ctx, &candidates, query); err != nil {
		return nil, fmt.Errorf("list recent candidates: %w", err)
	}
	return candidates, nil
}
