package analysts

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/wonny/deepfund/internal/contracts"
)

// Key identifies an analyst. The set is closed.
type Key string

const (
	Technical     Key = "technical"
	Fundamental   Key = "fundamental"
	Insider       Key = "insider"
	CompanyNews   Key = "company_news"
	Macroeconomic Key = "macroeconomic"
	Policy        Key = "policy"
)

// ErrUnregisteredAnalyst is returned for identifiers outside the closed set
var ErrUnregisteredAnalyst = errors.New("unregistered analyst")

// Keys returns every analyst key in registry order
func Keys() []Key {
	return []Key{Technical, Fundamental, Insider, CompanyNews, Macroeconomic, Policy}
}

// ParseKey maps a configured name onto the closed set
func ParseKey(s string) (Key, error) {
	k := Key(strings.ToLower(strings.TrimSpace(s)))
	switch k {
	case Technical, Fundamental, Insider, CompanyNews, Macroeconomic, Policy:
		return k, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnregisteredAnalyst, s)
	}
}

// Input is the read-only snapshot every analyst node of one ticker observes
type Input struct {
	Ticker      string
	TradingDate time.Time
	Portfolio   contracts.Portfolio
	Model       contracts.ModelConfig
}

// Analyst produces at most one signal for one ticker
type Analyst interface {
	Analyze(ctx context.Context, in Input) Result
}

// AnalystFunc adapts a function to Analyst
type AnalystFunc func(ctx context.Context, in Input) Result

func (f AnalystFunc) Analyze(ctx context.Context, in Input) Result { return f(ctx, in) }

// Registry maps every Key to its Analyst. Each key has its own constructor
// slot, so a registry cannot be built with an analyst missing.
type Registry struct {
	technical     Analyst
	fundamental   Analyst
	insider       Analyst
	companyNews   Analyst
	macroeconomic Analyst
	policy        Analyst
}

// NewRegistry creates a registry with one analyst per key
func NewRegistry(technical, fundamental, insider, companyNews, macroeconomic, policy Analyst) *Registry {
	return &Registry{
		technical:     technical,
		fundamental:   fundamental,
		insider:       insider,
		companyNews:   companyNews,
		macroeconomic: macroeconomic,
		policy:        policy,
	}
}

// Lookup returns the analyst for k
func (r *Registry) Lookup(k Key) (Analyst, error) {
	switch k {
	case Technical:
		return r.technical, nil
	case Fundamental:
		return r.fundamental, nil
	case Insider:
		return r.insider, nil
	case CompanyNews:
		return r.companyNews, nil
	case Macroeconomic:
		return r.macroeconomic, nil
	case Policy:
		return r.policy, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnregisteredAnalyst, k)
	}
}
