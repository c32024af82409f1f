package repository

import (
	"context"
	"log/slog"
	"strings"

	"entgo.io/ent/dialect"
)

// Migration is one idempotent schema step.
type Migration struct {
	Name string
	SQL  string
}

// column types that differ between dialects
type columnTypes struct {
	ID        string
	Timestamp string
}

func typesFor(d string) columnTypes {
	if d == dialect.Postgres {
		return columnTypes{ID: "UUID", Timestamp: "TIMESTAMPTZ"}
	}
	return columnTypes{ID: "TEXT", Timestamp: "TIMESTAMP"}
}

func migrations(d string) []Migration {
	t := typesFor(d)
	r := strings.NewReplacer("{{id}}", t.ID, "{{ts}}", t.Timestamp)
	return []Migration{
		{
			Name: "create_jobs",
			SQL: r.Replace(`
CREATE TABLE IF NOT EXISTS jobs (
	id         {{id}} PRIMARY KEY,
	company    TEXT NOT NULL,
	role       TEXT NOT NULL,
	job_id     TEXT NULL,
	link       TEXT NULL,
	deadline   DATE NULL,
	status     TEXT NOT NULL DEFAULT 'active' CHECK (status IN ('active', 'applied', 'closed')),
	created_at {{ts}} NOT NULL,
	updated_at {{ts}} NOT NULL
)`),
		},
		{Name: "index_jobs_company", SQL: `CREATE INDEX IF NOT EXISTS idx_jobs_company ON jobs (company)`},
		{Name: "index_jobs_status", SQL: `CREATE INDEX IF NOT EXISTS idx_jobs_status ON jobs (status)`},
		{Name: "index_jobs_job_id", SQL: `CREATE INDEX IF NOT EXISTS idx_jobs_job_id ON jobs (job_id)`},
		{
			Name: "create_connections",
			SQL: r.Replace(`
CREATE TABLE IF NOT EXISTS connections (
	id               {{id}} PRIMARY KEY,
	name             TEXT NOT NULL,
	company_guess    TEXT NULL,
	source           TEXT NOT NULL DEFAULT 'linkedin_email',
	email_message_id TEXT NULL UNIQUE,
	raw_subject      TEXT NULL,
	raw_snippet      TEXT NULL,
	accepted_at      {{ts}} NOT NULL,
	status           TEXT NOT NULL DEFAULT 'new' CHECK (status IN ('new', 'processed'))
)`),
		},
		{Name: "index_connections_name", SQL: `CREATE INDEX IF NOT EXISTS idx_connections_name ON connections (name)`},
		{Name: "index_connections_company_guess", SQL: `CREATE INDEX IF NOT EXISTS idx_connections_company_guess ON connections (company_guess)`},
		{Name: "index_connections_accepted_at", SQL: `CREATE INDEX IF NOT EXISTS idx_connections_accepted_at ON connections (accepted_at)`},
		{
			Name: "create_referral_opportunities",
			SQL: r.Replace(`
CREATE TABLE IF NOT EXISTS referral_opportunities (
	id            {{id}} PRIMARY KEY,
	job_id        {{id}} NOT NULL REFERENCES jobs (id) ON DELETE CASCADE,
	connection_id {{id}} NOT NULL REFERENCES connections (id) ON DELETE CASCADE,
	created_at    {{ts}} NOT NULL,
	status        TEXT NOT NULL DEFAULT 'new' CHECK (status IN ('new', 'contacted', 'done', 'ignored')),
	note          TEXT NULL
)`),
		},
		{Name: "index_referrals_job_id", SQL: `CREATE INDEX IF NOT EXISTS idx_referrals_job_id ON referral_opportunities (job_id)`},
		{Name: "index_referrals_connection_id", SQL: `CREATE INDEX IF NOT EXISTS idx_referrals_connection_id ON referral_opportunities (connection_id)`},
		{Name: "index_referrals_created_at", SQL: `CREATE INDEX IF NOT EXISTS idx_referrals_created_at ON referral_opportunities (created_at)`},
	}
}

// Migrate creates the schema if it does not exist yet. Safe to run on every start.
func (d *DB) Migrate(ctx context.Context, logger *slog.Logger) error {
	logger.Info("starting database migrations", "dialect", d.Dialect())
	for _, m := range migrations(d.Dialect()) {
		if _, err := d.SQL().ExecContext(ctx, m.SQL); err != nil {
			logger.Error("migration failed", "name", m.Name, "error", err)
			return storageErr("migrate "+m.Name, err)
		}
		logger.Debug("migration completed", "name", m.Name)
	}
	logger.Info("all migrations completed successfully")
	return nil
}
