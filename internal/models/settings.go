package models

import "time"

// CompanyProfile holds the employer identity substituted into templates.
type CompanyProfile struct {
	Name    string `json:"name"`
	Address string `json:"address"`
	Website string `json:"website"`
}

// Source is a configured recruitment channel (job board, referral, ...).
type Source struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// TestDefinition is one entry in the reusable test library.
type TestDefinition struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Link        string `json:"link,omitempty"`
}

// Settings is the single-document configuration read and replaced as a whole.
// Stages live in their own table because the registry enforces ordering and
// core-stage rules.
type Settings struct {
	Sources        []Source         `json:"sources"`
	CompanyProfile CompanyProfile   `json:"company_profile"`
	TestLibrary    []TestDefinition `json:"test_library"`
	UpdatedBy      *string          `json:"updated_by,omitempty"`
	UpdatedAt      time.Time        `json:"updated_at"`
}

// Snapshot bundles settings, stages and templates for backup/restore.
type Snapshot struct {
	Settings  Settings   `json:"settings"`
	Stages    []Stage    `json:"stages"`
	Templates []Template `json:"templates"`
	TakenAt   time.Time  `json:"taken_at"`
}
