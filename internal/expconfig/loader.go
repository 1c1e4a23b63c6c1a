package expconfig

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/wonny/deepfund/internal/contracts"
)

// Load reads the experiment YAML at path for the trading date tradingDate (YYYY-MM-DD).
// Unknown fields fail immediately.
func Load(path, tradingDate string) (*Config, error) {
	date, err := time.Parse(contracts.DateLayout, tradingDate)
	if err != nil {
		return nil, ValidationError{"trading_date", fmt.Sprintf("invalid date %q, expected YYYY-MM-DD", tradingDate)}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	return Parse(data, baseName(path), date)
}

// Parse decodes YAML data; base names the experiment when exp_name is absent
func Parse(data []byte, base string, tradingDate time.Time) (*Config, error) {
	var raw fileConfig
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg := &Config{
		ExpName:          strings.TrimSpace(raw.ExpName),
		Tickers:          raw.Tickers,
		WorkflowAnalysts: raw.WorkflowAnalysts,
		LLM:              raw.LLM,
		TradingDate:      tradingDate,
	}
	if raw.PlannerMode != nil {
		cfg.PlannerMode = *raw.PlannerMode
	}
	if cfg.ExpName == "" {
		cfg.ExpName = fmt.Sprintf("exp_%s_%s", base, tradingDate.Format(contracts.DateLayout))
		cfg.NameDerived = true
	}

	if strings.TrimSpace(raw.Cashflow) == "" {
		return nil, ValidationError{"cashflow", "required"}
	}
	cash, err := decimal.NewFromString(strings.TrimSpace(raw.Cashflow))
	if err != nil {
		return nil, ValidationError{"cashflow", fmt.Sprintf("invalid amount %q", raw.Cashflow)}
	}
	cfg.Cashflow = cash.Round(2)

	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Hash fingerprints the config (canonical JSON, fixed field order)
func Hash(cfg *Config) (string, error) {
	jsonBytes, err := json.Marshal(cfg)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(jsonBytes)
	return hex.EncodeToString(sum[:]), nil
}

// baseName is the file name up to its first dot
func baseName(path string) string {
	name := filepath.Base(path)
	if i := strings.Index(name, "."); i >= 0 {
		name = name[:i]
	}
	return name
}
