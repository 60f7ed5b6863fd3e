package models

import (
	"strings"
	"time"
)

// Core stage ids. Core stages cannot be deleted or reordered out of the
// live pipeline.
const (
	StageIDNew      = "new"
	StageIDHired    = "hired"
	StageIDRejected = "rejected"
)

// InterviewStagePrefix marks interview-class stages (interview-1, interview-2, ...).
// Transitions into these stages require a scheduled date and time.
const InterviewStagePrefix = "interview"

// Stage is a named step in the hiring pipeline.
type Stage struct {
	ID        string    `db:"id" json:"id"`
	Title     string    `db:"title" json:"title"`
	IsCore    bool      `db:"is_core" json:"is_core"`
	Position  int       `db:"position" json:"position"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// IsInterview reports whether the stage requires interview scheduling.
func (s Stage) IsInterview() bool {
	return strings.HasPrefix(s.ID, InterviewStagePrefix)
}
