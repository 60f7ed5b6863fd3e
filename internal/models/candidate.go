package models

import "time"

// Candidate represents an applicant moving through the hiring pipeline.
type Candidate struct {
	ID            string     `db:"id" json:"id"`
	FullName      string     `db:"full_name" json:"full_name"`
	Email         string     `db:"email" json:"email"`
	Phone         string     `db:"phone" json:"phone"`
	Position      string     `db:"position" json:"position"`
	StageID       string     `db:"stage_id" json:"stage_id"`
	Source        string     `db:"source" json:"source"`
	Rating        int        `db:"rating" json:"rating"`
	InterviewDate *string    `db:"interview_date" json:"interview_date,omitempty"`
	InterviewTime *string    `db:"interview_time" json:"interview_time,omitempty"`
	InterviewerID *string    `db:"interviewer_id" json:"interviewer_id,omitempty"`
	ResumePath    *string    `db:"resume_path" json:"resume_path,omitempty"`
	PortalToken   *string    `db:"portal_token" json:"-"`
	CreatedAt     time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time  `db:"updated_at" json:"updated_at"`
}

// HistoryEntry is one append-only audit record on a candidate.
// Entries are never mutated or deleted.
type HistoryEntry struct {
	ID          string    `db:"id" json:"id"`
	CandidateID string    `db:"candidate_id" json:"candidate_id"`
	Actor       string    `db:"actor" json:"actor"`
	Action      string    `db:"action" json:"action"`
	Details     *string   `db:"details" json:"details,omitempty"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// Comment is a free-form note left on a candidate by a user.
type Comment struct {
	ID          string    `db:"id" json:"id"`
	CandidateID string    `db:"candidate_id" json:"candidate_id"`
	Author      string    `db:"author" json:"author"`
	Body        string    `db:"body" json:"body"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// TestResult tracks an assigned test and its outcome for a candidate.
type TestResult struct {
	ID          string    `db:"id" json:"id"`
	CandidateID string    `db:"candidate_id" json:"candidate_id"`
	TestID      string    `db:"test_id" json:"test_id"`
	Status      string    `db:"status" json:"status"`
	Score       *float64  `db:"score" json:"score,omitempty"`
	Notes       *string   `db:"notes" json:"notes,omitempty"`
	FilePath    *string   `db:"file_path" json:"file_path,omitempty"`
	ResultURL   *string   `db:"result_url" json:"result_url,omitempty"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// Test assignment status values.
const (
	TestStatusAssigned  = "assigned"
	TestStatusSubmitted = "submitted"
	TestStatusPassed    = "passed"
	TestStatusFailed    = "failed"
)

// CandidateFilter encapsulates allowed search parameters for listing candidates.
type CandidateFilter struct {
	Search    string
	StageID   string
	Source    string
	Position  string
	MinRating *int
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}

// CandidateDetail contains candidate information with its child collections.
type CandidateDetail struct {
	Candidate
	History     []HistoryEntry `json:"history"`
	Comments    []Comment      `json:"comments"`
	TestResults []TestResult   `json:"test_results"`
}
