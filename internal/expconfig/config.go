// Package expconfig loads the per-experiment YAML that drives a daily run
package expconfig

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/wonny/deepfund/internal/contracts"
)

// Config is one experiment on one trading date. Immutable after Load.
type Config struct {
	ExpName          string                `yaml:"exp_name" json:"exp_name"`
	Tickers          []string              `yaml:"tickers" json:"tickers"`
	Cashflow         decimal.Decimal       `yaml:"-" json:"cashflow"`
	WorkflowAnalysts []string              `yaml:"workflow_analysts" json:"workflow_analysts"`
	PlannerMode      bool                  `yaml:"planner_mode" json:"planner_mode"`
	LLM              contracts.ModelConfig `yaml:"llm" json:"llm"`

	// TradingDate comes from the command line, never from the file
	TradingDate time.Time `yaml:"-" json:"trading_date"`

	// NameDerived is set when exp_name was absent and the name embeds TradingDate
	NameDerived bool `yaml:"-" json:"-"`
}

// fileConfig is the YAML shape; cashflow is read as text to keep cents exact
type fileConfig struct {
	ExpName          string                `yaml:"exp_name"`
	Tickers          []string              `yaml:"tickers"`
	Cashflow         string                `yaml:"cashflow"`
	WorkflowAnalysts []string              `yaml:"workflow_analysts"`
	PlannerMode      *bool                 `yaml:"planner_mode"`
	LLM              contracts.ModelConfig `yaml:"llm"`
}

// Record is the persisted experiment identity for this config
func (c *Config) Record() contracts.ExperimentRecord {
	return contracts.ExperimentRecord{
		ExpName:     c.ExpName,
		Tickers:     append([]string(nil), c.Tickers...),
		PlannerMode: c.PlannerMode,
		Model:       c.LLM,
	}
}

// WithTradingDate returns a copy of c for another trading date.
// The experiment name is kept so every date lands in the same experiment.
func (c *Config) WithTradingDate(date time.Time) *Config {
	next := *c
	next.Tickers = append([]string(nil), c.Tickers...)
	next.WorkflowAnalysts = append([]string(nil), c.WorkflowAnalysts...)
	next.TradingDate = date
	return &next
}
