package analysts

import (
	"context"
	"errors"
	"fmt"

	"github.com/wonny/deepfund/internal/contracts"
	"github.com/wonny/deepfund/pkg/logger"
)

var (
	// ErrNoValidAnalysts is returned when validation leaves no analyst
	ErrNoValidAnalysts = errors.New("no valid analysts remaining after validation")
	// ErrEmptyPlan is returned when planning yields no usable analyst
	ErrEmptyPlan = errors.New("no analysts selected by planner")
)

// Planner chooses a subset of candidates for one ticker
type Planner interface {
	Plan(ctx context.Context, ticker string, model contracts.ModelConfig, candidates []Key) ([]Key, error)
}

// Selector decides the active analysts per ticker
type Selector struct {
	configured []Key
	planner    Planner
	logger     *logger.Logger
}

// NewSelector validates the configured names once. Unknown names are
// dropped with a warning. A nil planner selects static mode.
func NewSelector(names []string, planner Planner, log *logger.Logger) (*Selector, error) {
	seen := make(map[Key]bool, len(names))
	var valid []Key
	var invalid []string

	for _, name := range names {
		k, err := ParseKey(name)
		if err != nil {
			invalid = append(invalid, name)
			continue
		}
		if seen[k] {
			continue
		}
		seen[k] = true
		valid = append(valid, k)
	}

	if len(invalid) > 0 {
		log.WithField("invalid", invalid).Warn("Invalid analyst keys removed")
	}
	if len(valid) == 0 {
		return nil, ErrNoValidAnalysts
	}

	return &Selector{configured: valid, planner: planner, logger: log}, nil
}

// Configured returns the validated analyst list
func (s *Selector) Configured() []Key {
	out := make([]Key, len(s.configured))
	copy(out, s.configured)
	return out
}

// PlannerMode reports whether selection is delegated to a planner
func (s *Selector) PlannerMode() bool {
	return s.planner != nil
}

// Select returns the active analysts for ticker
func (s *Selector) Select(ctx context.Context, ticker string, model contracts.ModelConfig) ([]Key, error) {
	if s.planner == nil {
		return s.Configured(), nil
	}

	planned, err := s.planner.Plan(ctx, ticker, model, s.Configured())
	if err != nil {
		return nil, fmt.Errorf("planning analysts for %s: %w", ticker, err)
	}

	allowed := make(map[Key]bool, len(s.configured))
	for _, k := range s.configured {
		allowed[k] = true
	}

	var active []Key
	for _, k := range planned {
		if !allowed[k] {
			s.logger.WithFields(map[string]interface{}{
				"ticker":  ticker,
				"analyst": string(k),
			}).Warn("Planner chose an analyst outside the configured list")
			continue
		}
		allowed[k] = false
		active = append(active, k)
	}

	if len(active) == 0 {
		return nil, fmt.Errorf("%w for %s", ErrEmptyPlan, ticker)
	}
	return active, nil
}
