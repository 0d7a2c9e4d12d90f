package db

// Schema defines the PostgreSQL tables for SLA tracking.
const Schema = `
CREATE TABLE IF NOT EXISTS sla_records (
	request_id   TEXT PRIMARY KEY,
	category     TEXT NOT NULL,
	target_hours DOUBLE PRECISION NOT NULL,
	target_date  TIMESTAMPTZ NOT NULL,
	priority     TEXT NOT NULL,
	status       TEXT NOT NULL DEFAULT 'active',
	completed_at TIMESTAMPTZ,
	violated_at  TIMESTAMPTZ,
	created_at   TIMESTAMPTZ NOT NULL,
	inserted_at  TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at   TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_sla_records_status ON sla_records(status);
CREATE INDEX IF NOT EXISTS idx_sla_records_category_created ON sla_records(category, created_at);

CREATE TABLE IF NOT EXISTS sla_escalations (
	id               UUID PRIMARY KEY,
	request_id       TEXT NOT NULL REFERENCES sla_records(request_id),
	escalation_level DOUBLE PRECISION NOT NULL,
	triggered_at     TIMESTAMPTZ NOT NULL,
	UNIQUE (request_id, escalation_level)
);

CREATE TABLE IF NOT EXISTS sla_statistics (
	category        TEXT NOT NULL,
	period          TEXT NOT NULL,
	period_start    TIMESTAMPTZ NOT NULL,
	period_end      TIMESTAMPTZ NOT NULL,
	total           INTEGER NOT NULL,
	met             INTEGER NOT NULL,
	violated        INTEGER NOT NULL,
	active          INTEGER NOT NULL,
	compliance_rate DOUBLE PRECISION,
	computed_at     TIMESTAMPTZ NOT NULL,
	PRIMARY KEY (category, period)
);
`
