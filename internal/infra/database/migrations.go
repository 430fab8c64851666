package database

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/rotisserie/eris"
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS leads (
	id            BIGSERIAL PRIMARY KEY,
	source        TEXT NOT NULL CHECK (source IN ('instagram', 'google', 'website', 'other')),
	source_id     TEXT,
	name          TEXT,
	email         TEXT,
	phone         TEXT,
	message       TEXT,
	page_url      TEXT,
	campaign_id   TEXT,
	campaign_name TEXT,
	status        TEXT NOT NULL DEFAULT 'new' CHECK (status IN ('new', 'contacted', 'qualified', 'closed')),
	assigned_to   TEXT,
	meta          TEXT,
	created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at    TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	CHECK (updated_at >= created_at)
);

CREATE INDEX IF NOT EXISTS idx_leads_status ON leads(status);
CREATE INDEX IF NOT EXISTS idx_leads_source ON leads(source);
CREATE INDEX IF NOT EXISTS idx_leads_created_at ON leads(created_at);
`

// AUTOINCREMENT keeps ids of deleted rows from being handed out again.
const sqliteSchema = `
CREATE TABLE IF NOT EXISTS leads (
	id            INTEGER PRIMARY KEY AUTOINCREMENT,
	source        TEXT NOT NULL CHECK (source IN ('instagram', 'google', 'website', 'other')),
	source_id     TEXT,
	name          TEXT,
	email         TEXT,
	phone         TEXT,
	message       TEXT,
	page_url      TEXT,
	campaign_id   TEXT,
	campaign_name TEXT,
	status        TEXT NOT NULL DEFAULT 'new' CHECK (status IN ('new', 'contacted', 'qualified', 'closed')),
	assigned_to   TEXT,
	meta          TEXT,
	created_at    DATETIME NOT NULL,
	updated_at    DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_leads_status ON leads(status);
CREATE INDEX IF NOT EXISTS idx_leads_source ON leads(source);
CREATE INDEX IF NOT EXISTS idx_leads_created_at ON leads(created_at);
`

// Migrate creates the leads table for the connection's dialect.
func Migrate(ctx context.Context, db *sqlx.DB) error {
	schema := postgresSchema
	if db.DriverName() == DriverSQLite {
		schema = sqliteSchema
	}
	_, err := db.ExecContext(ctx, schema)
	return eris.Wrap(err, "database: migrate")
}
