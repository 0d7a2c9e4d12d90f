package sqlite

// Schema defines the SQLite database schema
const Schema = `
-- SLA records, one per monitored request
CREATE TABLE IF NOT EXISTS sla_records (
	request_id TEXT PRIMARY KEY,
	category TEXT NOT NULL,
	target_hours REAL NOT NULL,
	target_date TIMESTAMP NOT NULL,
	priority TEXT NOT NULL,
	status TEXT NOT NULL DEFAULT 'active',
	completed_at TIMESTAMP,
	violated_at TIMESTAMP,
	created_at TIMESTAMP NOT NULL,
	inserted_at TIMESTAMP NOT NULL,
	updated_at TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_sla_records_status ON sla_records(status);
CREATE INDEX IF NOT EXISTS idx_sla_records_category_created ON sla_records(category, created_at);

-- Escalations, append-only
CREATE TABLE IF NOT EXISTS sla_escalations (
	id TEXT PRIMARY KEY,
	request_id TEXT NOT NULL,
	escalation_level REAL NOT NULL,
	triggered_at TIMESTAMP NOT NULL,
	UNIQUE (request_id, escalation_level),
	FOREIGN KEY (request_id) REFERENCES sla_records(request_id)
);

-- Rolling statistics (one row per category and window)
CREATE TABLE IF NOT EXISTS sla_statistics (
	category TEXT NOT NULL,
	period TEXT NOT NULL,
	period_start TIMESTAMP NOT NULL,
	period_end TIMESTAMP NOT NULL,
	total INTEGER NOT NULL,
	met INTEGER NOT NULL,
	violated INTEGER NOT NULL,
	active INTEGER NOT NULL,
	compliance_rate REAL,
	computed_at TIMESTAMP NOT NULL,
	PRIMARY KEY (category, period)
);
`
