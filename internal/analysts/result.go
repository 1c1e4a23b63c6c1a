package analysts

import "github.com/wonny/deepfund/internal/contracts"

// Outcome classifies an analyst node's result
type Outcome int

const (
	// OutcomeOK carries a signal
	OutcomeOK Outcome = iota
	// OutcomeSkipped means the analyst opted out, e.g. no data coverage
	OutcomeSkipped
	// OutcomeFailed means data retrieval or synthesis failed
	OutcomeFailed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeOK:
		return "ok"
	case OutcomeSkipped:
		return "skipped"
	case OutcomeFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Result is the explicit output of one analyst node
type Result struct {
	Analyst Key
	Outcome Outcome
	Signal  contracts.AnalystSignal
	Prompt  string
	Err     error
}

// OK builds a successful result
func OK(key Key, signal contracts.AnalystSignal, prompt string) Result {
	return Result{Analyst: key, Outcome: OutcomeOK, Signal: signal, Prompt: prompt}
}

// Skipped builds an opt-out result
func Skipped(key Key, reason error) Result {
	return Result{Analyst: key, Outcome: OutcomeSkipped, Err: reason}
}

// Failed builds a failure result
func Failed(key Key, prompt string, err error) Result {
	return Result{Analyst: key, Outcome: OutcomeFailed, Prompt: prompt, Err: err}
}
