// Command seed bootstraps the database schema and inserts the core pipeline
// stages, a default settings document and an initial admin user. It is
// idempotent and safe to re-run.
package main

import (
	"context"
	"flag"
	"log"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/hamidrezasoltanian/recruitment-dashboard/pkg/config"
	"github.com/hamidrezasoltanian/recruitment-dashboard/pkg/database"
)

const schema = `
CREATE TABLE IF NOT EXISTS stages (
    id          TEXT PRIMARY KEY,
    title       TEXT NOT NULL,
    is_core     BOOLEAN NOT NULL DEFAULT FALSE,
    position    INTEGER NOT NULL,
    created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS candidates (
    id             TEXT PRIMARY KEY,
    full_name      TEXT NOT NULL,
    email          TEXT NOT NULL,
    phone          TEXT NOT NULL,
    position       TEXT NOT NULL,
    stage_id       TEXT NOT NULL REFERENCES stages(id),
    source         TEXT NOT NULL DEFAULT '',
    rating         INTEGER NOT NULL DEFAULT 0,
    interview_date TEXT,
    interview_time TEXT,
    interviewer_id TEXT,
    resume_path    TEXT,
    portal_token   TEXT,
    created_at     TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at     TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_candidates_stage ON candidates(stage_id);

CREATE TABLE IF NOT EXISTS candidate_history (
    id           TEXT PRIMARY KEY,
    candidate_id TEXT NOT NULL REFERENCES candidates(id) ON DELETE CASCADE,
    actor        TEXT NOT NULL,
    action       TEXT NOT NULL,
    details      TEXT,
    created_at   TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS candidate_comments (
    id           TEXT PRIMARY KEY,
    candidate_id TEXT NOT NULL REFERENCES candidates(id) ON DELETE CASCADE,
    author       TEXT NOT NULL,
    body         TEXT NOT NULL,
    created_at   TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS candidate_test_results (
    id           TEXT PRIMARY KEY,
    candidate_id TEXT NOT NULL REFERENCES candidates(id) ON DELETE CASCADE,
    test_id      TEXT NOT NULL,
    status       TEXT NOT NULL,
    score        DOUBLE PRECISION,
    notes        TEXT,
    file_path    TEXT,
    result_url   TEXT,
    created_at   TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at   TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS templates (
    id         TEXT PRIMARY KEY,
    name       TEXT NOT NULL,
    content    TEXT NOT NULL,
    type       TEXT NOT NULL,
    stage_id   TEXT REFERENCES stages(id) ON DELETE SET NULL,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS settings (
    id         INTEGER PRIMARY KEY,
    document   JSONB NOT NULL,
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS users (
    id            TEXT PRIMARY KEY,
    email         TEXT NOT NULL UNIQUE,
    password_hash TEXT NOT NULL,
    full_name     TEXT NOT NULL,
    role          TEXT NOT NULL,
    active        BOOLEAN NOT NULL DEFAULT TRUE,
    last_login_at TIMESTAMPTZ,
    created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS refresh_tokens (
    id         TEXT PRIMARY KEY,
    user_id    TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
    token      TEXT NOT NULL UNIQUE,
    expires_at TIMESTAMPTZ NOT NULL,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    revoked    BOOLEAN NOT NULL DEFAULT FALSE,
    revoked_at TIMESTAMPTZ,
    ip_address TEXT NOT NULL DEFAULT '',
    user_agent TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS audit_logs (
    id          TEXT PRIMARY KEY,
    user_id     TEXT,
    action      TEXT NOT NULL,
    resource    TEXT NOT NULL,
    resource_id TEXT,
    old_values  JSONB,
    new_values  JSONB,
    ip_address  TEXT NOT NULL DEFAULT '',
    user_agent  TEXT NOT NULL DEFAULT '',
    created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
`

type seedStage struct {
	id     string
	title  string
	isCore bool
}

var defaultStages = []seedStage{
	{"new", "New", true},
	{"review", "Resume Review", false},
	{"interview-1", "First Interview", false},
	{"interview-2", "Technical Interview", false},
	{"hired", "Hired", true},
	{"rejected", "Rejected", true},
}

func main() {
	adminEmail := flag.String("admin-email", "admin@example.com", "initial admin email")
	adminPassword := flag.String("admin-password", "", "initial admin password (required on first run)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		log.Fatalf("connect postgres: %v", err)
	}
	defer db.Close() //nolint:errcheck

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if _, err := db.ExecContext(ctx, schema); err != nil {
		log.Fatalf("apply schema: %v", err)
	}
	log.Println("schema applied")

	for i, stage := range defaultStages {
		const query = `INSERT INTO stages (id, title, is_core, position) VALUES ($1, $2, $3, $4) ON CONFLICT (id) DO NOTHING`
		if _, err := db.ExecContext(ctx, query, stage.id, stage.title, stage.isCore, i+1); err != nil {
			log.Fatalf("seed stage %s: %v", stage.id, err)
		}
	}
	log.Println("core stages seeded")

	const settingsQuery = `INSERT INTO settings (id, document, updated_at) VALUES (1, $1, NOW()) ON CONFLICT (id) DO NOTHING`
	defaultDocument := `{"sources":[{"id":"linkedin","title":"LinkedIn"},{"id":"jobinja","title":"Jobinja"},{"id":"referral","title":"Referral"}],"company_profile":{"name":"","address":"","website":""},"test_library":[]}`
	if _, err := db.ExecContext(ctx, settingsQuery, defaultDocument); err != nil {
		log.Fatalf("seed settings: %v", err)
	}

	var userCount int
	if err := db.GetContext(ctx, &userCount, `SELECT COUNT(*) FROM users`); err != nil {
		log.Fatalf("count users: %v", err)
	}
	if userCount == 0 {
		if *adminPassword == "" {
			log.Fatal("no users exist; provide -admin-password to create the initial admin")
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(*adminPassword), bcrypt.DefaultCost)
		if err != nil {
			log.Fatalf("hash admin password: %v", err)
		}
		const userQuery = `INSERT INTO users (id, email, password_hash, full_name, role, active) VALUES ($1, $2, $3, 'Administrator', 'ADMIN', TRUE)`
		if _, err := db.ExecContext(ctx, userQuery, uuid.NewString(), *adminEmail, string(hash)); err != nil {
			log.Fatalf("create admin user: %v", err)
		}
		log.Printf("admin user %s created", *adminEmail)
	}

	log.Println("seed complete")
}
