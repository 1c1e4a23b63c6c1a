package contracts

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// ModelConfig selects the language model backing analysts and the decision node
type ModelConfig struct {
	Provider string `json:"provider" yaml:"provider"`
	Model    string `json:"model" yaml:"model"`
}

// ExperimentRecord is the persisted identity of an experiment
type ExperimentRecord struct {
	ExpName     string
	Tickers     []string
	PlannerMode bool
	Model       ModelConfig
}

// DecisionRecord is a persisted decision with its prompt and run context
type DecisionRecord struct {
	PortfolioID string
	TradingDate time.Time
	Prompt      string
	Decision    Decision
	UpdatedAt   time.Time
}

// SignalRecord is a persisted analyst signal with its prompt and run context
type SignalRecord struct {
	PortfolioID string
	TradingDate time.Time
	Prompt      string
	Signal      AnalystSignal
	UpdatedAt   time.Time
}

// ConfigStore persists experiment identities
type ConfigStore interface {
	// GetConfigIDByName returns ErrNotFound for an unknown experiment
	GetConfigIDByName(ctx context.Context, expName string) (string, error)
	CreateConfig(ctx context.Context, rec ExperimentRecord) (string, error)
}

// PortfolioStore persists the append-only chain of portfolio snapshots.
// CreatePortfolio and CopyPortfolio write drafts; only UpdatePortfolio
// commits a snapshot under a trading date, and only committed snapshots
// are returned by the Latest queries.
type PortfolioStore interface {
	// GetLatestTradingDate reports false when nothing was committed yet
	GetLatestTradingDate(ctx context.Context, configID string) (time.Time, bool, error)
	// GetLatestPortfolio returns ErrNotFound when nothing was committed yet
	GetLatestPortfolio(ctx context.Context, configID string) (Portfolio, error)
	CreatePortfolio(ctx context.Context, configID string, cashflow decimal.Decimal) (Portfolio, error)
	CopyPortfolio(ctx context.Context, configID string, p Portfolio) (Portfolio, error)
	UpdatePortfolio(ctx context.Context, configID string, p Portfolio, tradingDate time.Time) error
}

// RecordStore appends and queries decision and signal records
type RecordStore interface {
	SaveDecision(ctx context.Context, rec DecisionRecord) error
	SaveSignal(ctx context.Context, rec SignalRecord) error
	// GetDecisionMemory returns the ticker's decisions from the last limit committed snapshots, newest first
	GetDecisionMemory(ctx context.Context, configID, ticker string, limit int) ([]DecisionRecord, error)
	GetSignalsForPeriod(ctx context.Context, configID, ticker string, start, end time.Time) ([]SignalRecord, error)
	GetDecisionsForPeriod(ctx context.Context, configID, ticker string, start, end time.Time) ([]DecisionRecord, error)
}

// Store is the full persistence contract
type Store interface {
	ConfigStore
	PortfolioStore
	RecordStore
}
