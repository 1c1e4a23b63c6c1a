// Package postgres implements contracts.Store on the experiment schema
// created by database.Migrate.
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/wonny/deepfund/internal/contracts"
	"github.com/wonny/deepfund/pkg/logger"
)

// Store handles experiment persistence
// ⭐ SSOT: config, portfolio, decision and signal rows are written only here
type Store struct {
	pool   *pgxpool.Pool
	logger *logger.Logger
}

var _ contracts.Store = (*Store)(nil)

// New creates a new Postgres store
func New(pool *pgxpool.Pool, log *logger.Logger) *Store {
	return &Store{pool: pool, logger: log}
}

func (s *Store) GetConfigIDByName(ctx context.Context, expName string) (string, error) {
	var id uuid.UUID
	err := s.pool.QueryRow(ctx, `SELECT id FROM config WHERE exp_name = $1`, expName).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", fmt.Errorf("config %q: %w", expName, contracts.ErrNotFound)
	}
	if err != nil {
		return "", fmt.Errorf("failed to get config id: %w", err)
	}
	return id.String(), nil
}

func (s *Store) CreateConfig(ctx context.Context, rec contracts.ExperimentRecord) (string, error) {
	tickersJSON, err := json.Marshal(rec.Tickers)
	if err != nil {
		return "", fmt.Errorf("failed to marshal tickers: %w", err)
	}

	id := uuid.New()
	query := `
		INSERT INTO config (id, exp_name, tickers, has_planner, llm_model, llm_provider)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err = s.pool.Exec(ctx, query,
		id, rec.ExpName, tickersJSON, rec.PlannerMode, rec.Model.Model, rec.Model.Provider,
	)
	if err != nil {
		return "", fmt.Errorf("failed to create config: %w", err)
	}

	s.logger.WithFields(map[string]interface{}{
		"config_id": id.String(),
		"exp_name":  rec.ExpName,
	}).Info("Config registered")

	return id.String(), nil
}

func (s *Store) GetLatestTradingDate(ctx context.Context, configID string) (time.Time, bool, error) {
	var date *time.Time
	query := `SELECT MAX(trading_date) FROM portfolio WHERE config_id = $1`
	if err := s.pool.QueryRow(ctx, query, configID).Scan(&date); err != nil {
		return time.Time{}, false, fmt.Errorf("failed to get latest trading date: %w", err)
	}
	if date == nil {
		return time.Time{}, false, nil
	}
	return *date, true, nil
}

func (s *Store) GetLatestPortfolio(ctx context.Context, configID string) (contracts.Portfolio, error) {
	query := `
		SELECT id, cashflow::text, total_assets::text, positions
		FROM portfolio
		WHERE config_id = $1 AND trading_date IS NOT NULL
		ORDER BY trading_date DESC, updated_at DESC
		LIMIT 1
	`
	p, err := scanPortfolio(s.pool.QueryRow(ctx, query, configID))
	if errors.Is(err, pgx.ErrNoRows) {
		return contracts.Portfolio{}, fmt.Errorf("portfolio for config %s: %w", configID, contracts.ErrNotFound)
	}
	if err != nil {
		return contracts.Portfolio{}, fmt.Errorf("failed to get latest portfolio: %w", err)
	}
	return p, nil
}

func (s *Store) CreatePortfolio(ctx context.Context, configID string, cashflow decimal.Decimal) (contracts.Portfolio, error) {
	return s.insertDraft(ctx, configID, contracts.NewPortfolio("", cashflow))
}

func (s *Store) CopyPortfolio(ctx context.Context, configID string, p contracts.Portfolio) (contracts.Portfolio, error) {
	return s.insertDraft(ctx, configID, p.Clone())
}

func (s *Store) insertDraft(ctx context.Context, configID string, p contracts.Portfolio) (contracts.Portfolio, error) {
	positionsJSON, err := json.Marshal(p.Positions)
	if err != nil {
		return contracts.Portfolio{}, fmt.Errorf("failed to marshal positions: %w", err)
	}

	p.ID = uuid.NewString()
	p.RecomputeTotal()

	query := `
		INSERT INTO portfolio (id, config_id, cashflow, total_assets, positions)
		VALUES ($1, $2, $3::text::numeric, $4::text::numeric, $5)
	`
	_, err = s.pool.Exec(ctx, query,
		p.ID, configID, p.Cashflow.StringFixed(2), p.TotalAssets.StringFixed(2), positionsJSON,
	)
	if err != nil {
		return contracts.Portfolio{}, fmt.Errorf("failed to insert portfolio: %w", err)
	}
	return p, nil
}

func (s *Store) UpdatePortfolio(ctx context.Context, configID string, p contracts.Portfolio, tradingDate time.Time) error {
	p = p.Clone()
	p.RecomputeTotal()

	positionsJSON, err := json.Marshal(p.Positions)
	if err != nil {
		return fmt.Errorf("failed to marshal positions: %w", err)
	}

	query := `
		UPDATE portfolio SET
			cashflow = $3::text::numeric,
			total_assets = $4::text::numeric,
			positions = $5,
			trading_date = $6,
			updated_at = NOW()
		WHERE id = $1 AND config_id = $2
	`
	tag, err := s.pool.Exec(ctx, query,
		p.ID, configID, p.Cashflow.StringFixed(2), p.TotalAssets.StringFixed(2), positionsJSON,
		dateOnly(tradingDate),
	)
	if err != nil {
		return fmt.Errorf("failed to update portfolio: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("portfolio %s: %w", p.ID, contracts.ErrNotFound)
	}
	return nil
}

func (s *Store) SaveDecision(ctx context.Context, rec contracts.DecisionRecord) error {
	d := rec.Decision
	query := `
		INSERT INTO decision (
			id, portfolio_id, trading_date, ticker, llm_prompt, action, shares, price, justification
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8::text::numeric, $9)
	`
	_, err := s.pool.Exec(ctx, query,
		uuid.New(), rec.PortfolioID, dateOnly(rec.TradingDate), d.Ticker,
		rec.Prompt, string(d.Action), d.Shares, d.Price.StringFixed(2), d.Justification,
	)
	if err != nil {
		return fmt.Errorf("failed to save decision: %w", err)
	}
	return nil
}

func (s *Store) SaveSignal(ctx context.Context, rec contracts.SignalRecord) error {
	sig := rec.Signal
	query := `
		INSERT INTO signal (id, portfolio_id, ticker, llm_prompt, analyst, signal, justification)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := s.pool.Exec(ctx, query,
		uuid.New(), rec.PortfolioID, sig.Ticker, rec.Prompt, sig.Analyst, string(sig.Signal), sig.Justification,
	)
	if err != nil {
		return fmt.Errorf("failed to save signal: %w", err)
	}
	return nil
}

func (s *Store) GetDecisionMemory(ctx context.Context, configID, ticker string, limit int) ([]contracts.DecisionRecord, error) {
	query := `
		WITH recent AS (
			SELECT id, trading_date, updated_at
			FROM portfolio
			WHERE config_id = $1 AND trading_date IS NOT NULL
			ORDER BY trading_date DESC, updated_at DESC
			LIMIT $3
		)
		SELECT d.portfolio_id, r.trading_date, d.llm_prompt, d.ticker, d.action, d.shares,
		       d.price::text, d.justification, d.updated_at
		FROM decision d
		JOIN recent r ON r.id = d.portfolio_id
		WHERE d.ticker = $2
		ORDER BY r.trading_date DESC, r.updated_at DESC, d.updated_at DESC
	`
	rows, err := s.pool.Query(ctx, query, configID, ticker, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query decision memory: %w", err)
	}
	defer rows.Close()

	return collectDecisions(rows)
}

func (s *Store) GetDecisionsForPeriod(ctx context.Context, configID, ticker string, start, end time.Time) ([]contracts.DecisionRecord, error) {
	query := `
		SELECT d.portfolio_id, p.trading_date, d.llm_prompt, d.ticker, d.action, d.shares,
		       d.price::text, d.justification, d.updated_at
		FROM decision d
		JOIN portfolio p ON p.id = d.portfolio_id
		WHERE p.config_id = $1 AND d.ticker = $2
		  AND p.trading_date BETWEEN $3 AND $4
		ORDER BY p.trading_date, d.updated_at
	`
	rows, err := s.pool.Query(ctx, query, configID, ticker,
		dateOnly(start), dateOnly(end))
	if err != nil {
		return nil, fmt.Errorf("failed to query decisions: %w", err)
	}
	defer rows.Close()

	return collectDecisions(rows)
}

func (s *Store) GetSignalsForPeriod(ctx context.Context, configID, ticker string, start, end time.Time) ([]contracts.SignalRecord, error) {
	query := `
		SELECT s.portfolio_id, p.trading_date, s.llm_prompt, s.analyst, s.ticker, s.signal,
		       s.justification, s.updated_at
		FROM signal s
		JOIN portfolio p ON p.id = s.portfolio_id
		WHERE p.config_id = $1 AND s.ticker = $2
		  AND p.trading_date BETWEEN $3 AND $4
		ORDER BY p.trading_date, s.updated_at
	`
	rows, err := s.pool.Query(ctx, query, configID, ticker,
		dateOnly(start), dateOnly(end))
	if err != nil {
		return nil, fmt.Errorf("failed to query signals: %w", err)
	}
	defer rows.Close()

	var records []contracts.SignalRecord
	for rows.Next() {
		var (
			rec         contracts.SignalRecord
			portfolioID uuid.UUID
			signal      string
		)
		err := rows.Scan(&portfolioID, &rec.TradingDate, &rec.Prompt, &rec.Signal.Analyst,
			&rec.Signal.Ticker, &signal, &rec.Signal.Justification, &rec.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan signal: %w", err)
		}
		rec.PortfolioID = portfolioID.String()
		rec.Signal.Signal = contracts.Signal(signal)
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating signals: %w", err)
	}
	return records, nil
}

func collectDecisions(rows pgx.Rows) ([]contracts.DecisionRecord, error) {
	var records []contracts.DecisionRecord
	for rows.Next() {
		var (
			rec         contracts.DecisionRecord
			portfolioID uuid.UUID
			action      string
			price       string
		)
		err := rows.Scan(&portfolioID, &rec.TradingDate, &rec.Prompt, &rec.Decision.Ticker,
			&action, &rec.Decision.Shares, &price, &rec.Decision.Justification, &rec.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan decision: %w", err)
		}
		rec.PortfolioID = portfolioID.String()
		rec.Decision.Action = contracts.Action(action)
		if rec.Decision.Price, err = decimal.NewFromString(price); err != nil {
			return nil, fmt.Errorf("invalid decision price %q: %w", price, err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating decisions: %w", err)
	}
	return records, nil
}

func scanPortfolio(row pgx.Row) (contracts.Portfolio, error) {
	var (
		id            uuid.UUID
		cashflow      string
		totalAssets   string
		positionsJSON []byte
	)
	if err := row.Scan(&id, &cashflow, &totalAssets, &positionsJSON); err != nil {
		return contracts.Portfolio{}, err
	}

	p := contracts.Portfolio{ID: id.String(), Positions: make(map[string]contracts.Position)}
	var err error
	if p.Cashflow, err = decimal.NewFromString(cashflow); err != nil {
		return contracts.Portfolio{}, fmt.Errorf("invalid cashflow %q: %w", cashflow, err)
	}
	if p.TotalAssets, err = decimal.NewFromString(totalAssets); err != nil {
		return contracts.Portfolio{}, fmt.Errorf("invalid total assets %q: %w", totalAssets, err)
	}
	if err := json.Unmarshal(positionsJSON, &p.Positions); err != nil {
		return contracts.Portfolio{}, fmt.Errorf("failed to unmarshal positions: %w", err)
	}
	if p.Positions == nil {
		p.Positions = make(map[string]contracts.Position)
	}
	return p, nil
}

func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
