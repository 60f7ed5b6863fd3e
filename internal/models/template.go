package models

import "time"

// TemplateType identifies the delivery channel a template renders for.
type TemplateType string

const (
	TemplateTypeEmail    TemplateType = "email"
	TemplateTypeWhatsApp TemplateType = "whatsapp"
)

// Template is a reusable message skeleton with {{placeholder}} tokens,
// optionally bound to one stage.
type Template struct {
	ID        string       `db:"id" json:"id"`
	Name      string       `db:"name" json:"name"`
	Content   string       `db:"content" json:"content"`
	Type      TemplateType `db:"type" json:"type"`
	StageID   *string      `db:"stage_id" json:"stage_id,omitempty"`
	CreatedAt time.Time    `db:"created_at" json:"created_at"`
	UpdatedAt time.Time    `db:"updated_at" json:"updated_at"`
}

// TemplateFilter captures filtering criteria for listing templates.
type TemplateFilter struct {
	StageID string
	Type    TemplateType
}
