package expconfig

import (
	"fmt"
	"strings"
)

// ValidationError is a config problem that stops the run
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Validate checks required fields. Analyst names are checked later by the
// selector, which drops unknown ones with a warning.
func Validate(cfg *Config) error {
	if cfg.ExpName == "" {
		return ValidationError{"exp_name", "required"}
	}
	if len(cfg.Tickers) == 0 {
		return ValidationError{"tickers", "at least one ticker required"}
	}
	seen := make(map[string]bool, len(cfg.Tickers))
	for i, t := range cfg.Tickers {
		t = strings.TrimSpace(t)
		if t == "" {
			return ValidationError{fmt.Sprintf("tickers[%d]", i), "empty ticker"}
		}
		if seen[t] {
			return ValidationError{fmt.Sprintf("tickers[%d]", i), fmt.Sprintf("duplicate ticker %s", t)}
		}
		seen[t] = true
		cfg.Tickers[i] = t
	}

	if !cfg.Cashflow.IsPositive() {
		return ValidationError{"cashflow", "must be > 0"}
	}
	if len(cfg.WorkflowAnalysts) == 0 {
		return ValidationError{"workflow_analysts", "at least one analyst required"}
	}
	if cfg.LLM.Provider == "" {
		return ValidationError{"llm.provider", "required"}
	}
	if cfg.LLM.Model == "" {
		return ValidationError{"llm.model", "required"}
	}
	if cfg.TradingDate.IsZero() {
		return ValidationError{"trading_date", "required"}
	}
	return nil
}
