package database

// schema is applied in order by Migrate.
// A portfolio row with a NULL trading_date is a draft: it was copied at the
// start of a run and becomes visible only when the run commits it.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS config (
		id           UUID PRIMARY KEY,
		exp_name     TEXT NOT NULL UNIQUE,
		updated_at   TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		tickers      JSONB NOT NULL,
		has_planner  BOOLEAN NOT NULL DEFAULT FALSE,
		llm_model    TEXT NOT NULL,
		llm_provider TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS portfolio (
		id           UUID PRIMARY KEY,
		config_id    UUID NOT NULL REFERENCES config(id),
		updated_at   TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		trading_date DATE,
		cashflow     NUMERIC(20, 2) NOT NULL,
		total_assets NUMERIC(20, 2) NOT NULL,
		positions    JSONB NOT NULL DEFAULT '{}'::jsonb
	)`,
	`CREATE INDEX IF NOT EXISTS idx_portfolio_config_date
		ON portfolio (config_id, trading_date DESC, updated_at DESC)`,
	`CREATE TABLE IF NOT EXISTS decision (
		id            UUID PRIMARY KEY,
		portfolio_id  UUID NOT NULL REFERENCES portfolio(id),
		updated_at    TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		trading_date  DATE NOT NULL,
		ticker        TEXT NOT NULL,
		llm_prompt    TEXT NOT NULL,
		action        TEXT NOT NULL,
		shares        BIGINT NOT NULL,
		price         NUMERIC(20, 2) NOT NULL,
		justification TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_decision_portfolio_ticker
		ON decision (portfolio_id, ticker)`,
	`CREATE TABLE IF NOT EXISTS signal (
		id            UUID PRIMARY KEY,
		portfolio_id  UUID NOT NULL REFERENCES portfolio(id),
		updated_at    TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		ticker        TEXT NOT NULL,
		llm_prompt    TEXT NOT NULL,
		analyst       TEXT NOT NULL,
		signal        TEXT NOT NULL,
		justification TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_signal_portfolio_ticker
		ON signal (portfolio_id, ticker)`,
}
