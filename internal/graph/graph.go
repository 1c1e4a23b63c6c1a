// Package graph runs the per-ticker pipeline: analyst nodes fan out
// concurrently, join at a barrier, and feed one decision node.
package graph

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/wonny/deepfund/internal/analysts"
	"github.com/wonny/deepfund/internal/contracts"
	"github.com/wonny/deepfund/internal/metrics"
	"github.com/wonny/deepfund/internal/portfolio"
	"github.com/wonny/deepfund/pkg/logger"
)

// ErrNoSignals is returned when every analyst failed or was skipped
var ErrNoSignals = errors.New("no analyst produced a signal")

// Decider is the decision node
type Decider interface {
	Decide(ctx context.Context, in portfolio.DecisionInput) (contracts.Decision, string, error)
}

// State is the input shared by every node of one ticker run
type State struct {
	ConfigID    string
	Ticker      string
	TradingDate time.Time
	Portfolio   contracts.Portfolio
	Model       contracts.ModelConfig
	NumTickers  int
}

// Outcome is what one ticker run produced
type Outcome struct {
	Results  []analysts.Result // one per analyst node, in node order
	Signals  []contracts.AnalystSignal
	Decision contracts.Decision
}

type node struct {
	key     analysts.Key
	analyst analysts.Analyst
}

// Graph is built for a single ticker and discarded after Run
type Graph struct {
	nodes   []node
	decider Decider
	records contracts.RecordStore
	metrics *metrics.Recorder
	logger  *logger.Logger
}

// Build resolves keys against the registry and wires the nodes
func Build(
	registry *analysts.Registry,
	keys []analysts.Key,
	decider Decider,
	records contracts.RecordStore,
	rec *metrics.Recorder,
	log *logger.Logger,
) (*Graph, error) {
	if len(keys) == 0 {
		return nil, fmt.Errorf("build graph: %w", analysts.ErrNoValidAnalysts)
	}

	nodes := make([]node, 0, len(keys))
	for _, k := range keys {
		a, err := registry.Lookup(k)
		if err != nil {
			return nil, fmt.Errorf("build graph: %w", err)
		}
		if a == nil {
			return nil, fmt.Errorf("build graph: %w: %s has no implementation", analysts.ErrUnregisteredAnalyst, k)
		}
		nodes = append(nodes, node{key: k, analyst: a})
	}

	return &Graph{
		nodes:   nodes,
		decider: decider,
		records: records,
		metrics: rec,
		logger:  log,
	}, nil
}

// Run executes start → analysts → join → decision → end.
// The state's portfolio is never modified.
func (g *Graph) Run(ctx context.Context, st State) (Outcome, error) {
	results := g.fanOut(ctx, st)
	if err := ctx.Err(); err != nil {
		return Outcome{Results: results}, err
	}

	out := Outcome{Results: results}
	for _, r := range results {
		if r.Outcome != analysts.OutcomeOK {
			g.metrics.RecordAnalystFailure(string(r.Analyst), r.Outcome.String())
			g.logger.WithFields(map[string]interface{}{
				"ticker":  st.Ticker,
				"analyst": string(r.Analyst),
				"outcome": r.Outcome.String(),
			}).WithError(r.Err).Warn("Analyst produced no signal")
			continue
		}
		out.Signals = append(out.Signals, r.Signal)
		g.metrics.RecordSignal(string(r.Analyst), string(r.Signal.Signal))
		g.saveSignal(ctx, st, r)
	}

	if len(out.Signals) == 0 {
		return out, fmt.Errorf("%w for %s", ErrNoSignals, st.Ticker)
	}

	decision, prompt, err := g.decider.Decide(ctx, portfolio.DecisionInput{
		ConfigID:    st.ConfigID,
		Ticker:      st.Ticker,
		TradingDate: st.TradingDate,
		Portfolio:   st.Portfolio.Clone(),
		Model:       st.Model,
		NumTickers:  st.NumTickers,
		Signals:     out.Signals,
	})
	if err != nil {
		return out, fmt.Errorf("decision node for %s: %w", st.Ticker, err)
	}
	out.Decision = decision
	g.metrics.RecordDecision(string(decision.Action))
	g.saveDecision(ctx, st, decision, prompt)

	g.logger.WithFields(map[string]interface{}{
		"ticker":  st.Ticker,
		"signals": len(out.Signals),
		"action":  string(decision.Action),
		"shares":  decision.Shares,
		"price":   decision.Price.StringFixed(2),
	}).Info("Decision made")

	return out, nil
}

// fanOut runs every analyst node on its own portfolio clone and waits for all
func (g *Graph) fanOut(ctx context.Context, st State) []analysts.Result {
	results := make([]analysts.Result, len(g.nodes))

	var eg errgroup.Group
	for i, n := range g.nodes {
		in := analysts.Input{
			Ticker:      st.Ticker,
			TradingDate: st.TradingDate,
			Portfolio:   st.Portfolio.Clone(),
			Model:       st.Model,
		}
		eg.Go(func() error {
			// A panicking analyst fails alone
			defer func() {
				if p := recover(); p != nil {
					results[i] = analysts.Failed(n.key, "", fmt.Errorf("analyst panicked: %v", p))
				}
			}()
			r := n.analyst.Analyze(ctx, in)
			r.Analyst = n.key
			results[i] = r
			return nil
		})
	}
	_ = eg.Wait()

	return results
}

func (g *Graph) saveSignal(ctx context.Context, st State, r analysts.Result) {
	if g.records == nil {
		return
	}
	err := g.records.SaveSignal(ctx, contracts.SignalRecord{
		PortfolioID: st.Portfolio.ID,
		TradingDate: st.TradingDate,
		Prompt:      r.Prompt,
		Signal:      r.Signal,
	})
	if err != nil {
		g.logger.WithError(err).WithFields(map[string]interface{}{
			"ticker":  st.Ticker,
			"analyst": string(r.Analyst),
		}).Error("Failed to save signal")
	}
}

func (g *Graph) saveDecision(ctx context.Context, st State, d contracts.Decision, prompt string) {
	if g.records == nil {
		return
	}
	err := g.records.SaveDecision(ctx, contracts.DecisionRecord{
		PortfolioID: st.Portfolio.ID,
		TradingDate: st.TradingDate,
		Prompt:      prompt,
		Decision:    d,
	})
	if err != nil {
		g.logger.WithError(err).WithField("ticker", st.Ticker).Error("Failed to save decision")
	}
}
