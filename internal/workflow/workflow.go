// Package workflow runs one experiment over one trading date: every ticker
// in order through its own graph, then one committed portfolio snapshot.
package workflow

import (
	"context"
	"errors"
	"fmt"

	"github.com/wonny/deepfund/internal/analysts"
	"github.com/wonny/deepfund/internal/contracts"
	"github.com/wonny/deepfund/internal/expconfig"
	"github.com/wonny/deepfund/internal/graph"
	"github.com/wonny/deepfund/internal/metrics"
	"github.com/wonny/deepfund/internal/portfolio"
	"github.com/wonny/deepfund/pkg/logger"
)

// ErrPlannerUnavailable is returned when planner mode is on but no planner is wired
var ErrPlannerUnavailable = errors.New("planner mode enabled without a planner")

// Deps are the collaborators shared by every run
type Deps struct {
	Store    contracts.Store
	Registry *analysts.Registry
	Planner  analysts.Planner // consulted only in planner mode
	Decider  graph.Decider
	Metrics  *metrics.Recorder
	Logger   *logger.Logger
}

// Workflow owns the draft portfolio of a single run
type Workflow struct {
	cfg       *expconfig.Config
	configID  string
	deps      Deps
	selector  *analysts.Selector
	ledger    *portfolio.Ledger
	portfolio contracts.Portfolio
}

func newSelector(cfg *expconfig.Config, deps Deps) (*analysts.Selector, error) {
	var planner analysts.Planner
	if cfg.PlannerMode {
		if deps.Planner == nil {
			return nil, ErrPlannerUnavailable
		}
		planner = deps.Planner
	}
	return analysts.NewSelector(cfg.WorkflowAnalysts, planner, deps.Logger)
}

// New validates the analyst configuration, then loads the latest committed
// snapshot (or creates one with the starting cash) and copies it into a
// fresh draft for this run. Nothing is written when validation fails.
func New(ctx context.Context, cfg *expconfig.Config, configID string, deps Deps) (*Workflow, error) {
	selector, err := newSelector(cfg, deps)
	if err != nil {
		return nil, fmt.Errorf("invalid analyst configuration: %w", err)
	}

	base, err := deps.Store.GetLatestPortfolio(ctx, configID)
	switch {
	case errors.Is(err, contracts.ErrNotFound):
		deps.Logger.WithFields(map[string]interface{}{
			"experiment": cfg.ExpName,
			"cashflow":   cfg.Cashflow.StringFixed(2),
		}).Info("No portfolio yet, starting with cash")
		base, err = deps.Store.CreatePortfolio(ctx, configID, cfg.Cashflow)
		if err != nil {
			return nil, fmt.Errorf("failed to create portfolio: %w", err)
		}
	case err != nil:
		return nil, fmt.Errorf("failed to load latest portfolio: %w", err)
	}

	draft, err := deps.Store.CopyPortfolio(ctx, configID, base)
	if err != nil {
		return nil, fmt.Errorf("failed to copy portfolio: %w", err)
	}

	return &Workflow{
		cfg:       cfg,
		configID:  configID,
		deps:      deps,
		selector:  selector,
		ledger:    portfolio.NewLedger(deps.Store, deps.Logger),
		portfolio: draft,
	}, nil
}

// Portfolio returns a copy of the current draft
func (w *Workflow) Portfolio() contracts.Portfolio {
	return w.portfolio.Clone()
}

// Run processes tickers sequentially and commits the final snapshot.
// Any ticker failure aborts the run and leaves the draft uncommitted.
func (w *Workflow) Run(ctx context.Context) (contracts.Portfolio, error) {
	for _, ticker := range w.cfg.Tickers {
		if err := w.runTicker(ctx, ticker); err != nil {
			return contracts.Portfolio{}, err
		}
	}

	final, err := w.ledger.Commit(ctx, w.configID, w.portfolio, w.cfg.TradingDate)
	if err != nil {
		return contracts.Portfolio{}, err
	}
	w.portfolio = final
	return final.Clone(), nil
}

func (w *Workflow) runTicker(ctx context.Context, ticker string) error {
	log := w.deps.Logger.ForTicker(w.cfg.ExpName, ticker, w.cfg.TradingDate)

	keys, err := w.selector.Select(ctx, ticker, w.cfg.LLM)
	if err != nil {
		return fmt.Errorf("select analysts for %s: %w", ticker, err)
	}
	log.WithField("analysts", keys).Info("Processing ticker")

	g, err := graph.Build(w.deps.Registry, keys, w.deps.Decider, w.deps.Store, w.deps.Metrics, log)
	if err != nil {
		return err
	}

	out, err := g.Run(ctx, graph.State{
		ConfigID:    w.configID,
		Ticker:      ticker,
		TradingDate: w.cfg.TradingDate,
		Portfolio:   w.portfolio.Clone(),
		Model:       w.cfg.LLM,
		NumTickers:  len(w.cfg.Tickers),
	})
	if err != nil {
		return fmt.Errorf("ticker %s: %w", ticker, err)
	}

	w.portfolio = w.ledger.Apply(w.portfolio, ticker, out.Decision)
	return nil
}
