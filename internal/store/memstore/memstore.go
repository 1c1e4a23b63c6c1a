// Package memstore is an in-memory contracts.Store with the same draft and
// commit semantics as the Postgres store. Used by tests and dry runs.
package memstore

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/wonny/deepfund/internal/contracts"
)

type configRow struct {
	id     string
	record contracts.ExperimentRecord
}

type portfolioRow struct {
	configID    string
	portfolio   contracts.Portfolio
	tradingDate *time.Time // nil while draft
	updatedAt   time.Time
	seq         int
}

// Store keeps everything in maps guarded by one mutex
type Store struct {
	mu         sync.RWMutex
	configs    map[string]configRow // by exp name
	portfolios map[string]*portfolioRow
	decisions  []contracts.DecisionRecord
	signals    []contracts.SignalRecord
	seq        int
	now        func() time.Time
}

var _ contracts.Store = (*Store)(nil)

// New returns an empty store
func New() *Store {
	return &Store{
		configs:    make(map[string]configRow),
		portfolios: make(map[string]*portfolioRow),
		now:        time.Now,
	}
}

func (s *Store) GetConfigIDByName(_ context.Context, expName string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row, ok := s.configs[expName]
	if !ok {
		return "", fmt.Errorf("config %q: %w", expName, contracts.ErrNotFound)
	}
	return row.id, nil
}

func (s *Store) CreateConfig(_ context.Context, rec contracts.ExperimentRecord) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.configs[rec.ExpName]; ok {
		return "", fmt.Errorf("config %q already exists", rec.ExpName)
	}
	rec.Tickers = append([]string(nil), rec.Tickers...)
	id := uuid.NewString()
	s.configs[rec.ExpName] = configRow{id: id, record: rec}
	return id, nil
}

// latest returns the newest committed snapshot for configID
func (s *Store) latest(configID string) *portfolioRow {
	var best *portfolioRow
	for _, row := range s.portfolios {
		if row.configID != configID || row.tradingDate == nil {
			continue
		}
		if best == nil || row.tradingDate.After(*best.tradingDate) ||
			(row.tradingDate.Equal(*best.tradingDate) && row.seq > best.seq) {
			best = row
		}
	}
	return best
}

func (s *Store) GetLatestTradingDate(_ context.Context, configID string) (time.Time, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.latest(configID)
	if row == nil {
		return time.Time{}, false, nil
	}
	return *row.tradingDate, true, nil
}

func (s *Store) GetLatestPortfolio(_ context.Context, configID string) (contracts.Portfolio, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.latest(configID)
	if row == nil {
		return contracts.Portfolio{}, fmt.Errorf("portfolio for config %s: %w", configID, contracts.ErrNotFound)
	}
	return row.portfolio.Clone(), nil
}

func (s *Store) insertDraft(configID string, p contracts.Portfolio) contracts.Portfolio {
	s.seq++
	p = p.Clone()
	p.ID = uuid.NewString()
	p.RecomputeTotal()
	s.portfolios[p.ID] = &portfolioRow{
		configID:  configID,
		portfolio: p,
		updatedAt: s.now(),
		seq:       s.seq,
	}
	return p.Clone()
}

func (s *Store) CreatePortfolio(_ context.Context, configID string, cashflow decimal.Decimal) (contracts.Portfolio, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.insertDraft(configID, contracts.NewPortfolio("", cashflow)), nil
}

func (s *Store) CopyPortfolio(_ context.Context, configID string, p contracts.Portfolio) (contracts.Portfolio, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.insertDraft(configID, p), nil
}

func (s *Store) UpdatePortfolio(_ context.Context, configID string, p contracts.Portfolio, tradingDate time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	row, ok := s.portfolios[p.ID]
	if !ok || row.configID != configID {
		return fmt.Errorf("portfolio %s: %w", p.ID, contracts.ErrNotFound)
	}
	date := truncateDay(tradingDate)
	row.portfolio = p.Clone()
	row.portfolio.RecomputeTotal()
	row.tradingDate = &date
	row.updatedAt = s.now()
	return nil
}

func (s *Store) SaveDecision(_ context.Context, rec contracts.DecisionRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.portfolios[rec.PortfolioID]; !ok {
		return fmt.Errorf("portfolio %s: %w", rec.PortfolioID, contracts.ErrNotFound)
	}
	rec.TradingDate = truncateDay(rec.TradingDate)
	rec.UpdatedAt = s.now()
	s.decisions = append(s.decisions, rec)
	return nil
}

func (s *Store) SaveSignal(_ context.Context, rec contracts.SignalRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.portfolios[rec.PortfolioID]; !ok {
		return fmt.Errorf("portfolio %s: %w", rec.PortfolioID, contracts.ErrNotFound)
	}
	rec.TradingDate = truncateDay(rec.TradingDate)
	rec.UpdatedAt = s.now()
	s.signals = append(s.signals, rec)
	return nil
}

// committedDate reports the trading date of a committed snapshot in configID
func (s *Store) committedDate(configID, portfolioID string) (time.Time, bool) {
	row, ok := s.portfolios[portfolioID]
	if !ok || row.configID != configID || row.tradingDate == nil {
		return time.Time{}, false
	}
	return *row.tradingDate, true
}

func (s *Store) GetDecisionMemory(_ context.Context, configID, ticker string, limit int) ([]contracts.DecisionRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var rows []*portfolioRow
	for _, row := range s.portfolios {
		if row.configID == configID && row.tradingDate != nil {
			rows = append(rows, row)
		}
	}
	sort.Slice(rows, func(i, j int) bool {
		if !rows[i].tradingDate.Equal(*rows[j].tradingDate) {
			return rows[i].tradingDate.After(*rows[j].tradingDate)
		}
		return rows[i].seq > rows[j].seq
	})
	if limit > 0 && len(rows) > limit {
		rows = rows[:limit]
	}

	var out []contracts.DecisionRecord
	for _, row := range rows {
		for _, rec := range s.decisions {
			if rec.PortfolioID == row.portfolio.ID && rec.Decision.Ticker == ticker {
				rec.TradingDate = *row.tradingDate
				out = append(out, rec)
			}
		}
	}
	return out, nil
}

func (s *Store) GetSignalsForPeriod(_ context.Context, configID, ticker string, start, end time.Time) ([]contracts.SignalRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []contracts.SignalRecord
	for _, rec := range s.signals {
		date, ok := s.committedDate(configID, rec.PortfolioID)
		if !ok || rec.Signal.Ticker != ticker || !inRange(date, start, end) {
			continue
		}
		rec.TradingDate = date
		out = append(out, rec)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].TradingDate.Before(out[j].TradingDate) })
	return out, nil
}

func (s *Store) GetDecisionsForPeriod(_ context.Context, configID, ticker string, start, end time.Time) ([]contracts.DecisionRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []contracts.DecisionRecord
	for _, rec := range s.decisions {
		date, ok := s.committedDate(configID, rec.PortfolioID)
		if !ok || rec.Decision.Ticker != ticker || !inRange(date, start, end) {
			continue
		}
		rec.TradingDate = date
		out = append(out, rec)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].TradingDate.Before(out[j].TradingDate) })
	return out, nil
}

// Snapshots returns every snapshot of configID, drafts included, oldest first
func (s *Store) Snapshots(configID string) []contracts.Portfolio {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var rows []*portfolioRow
	for _, row := range s.portfolios {
		if row.configID == configID {
			rows = append(rows, row)
		}
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].seq < rows[j].seq })

	out := make([]contracts.Portfolio, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.portfolio.Clone())
	}
	return out
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func inRange(date, start, end time.Time) bool {
	return !date.Before(truncateDay(start)) && !date.After(truncateDay(end))
}
