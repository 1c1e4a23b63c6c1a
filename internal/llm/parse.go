package llm

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/wonny/deepfund/internal/contracts"
)

// ErrMalformedReply is returned when a reply holds no usable JSON object
var ErrMalformedReply = errors.New("malformed llm reply")

// extractJSON returns the outermost JSON object in s, ignoring code fences and prose
func extractJSON(s string) (string, error) {
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start < 0 || end <= start {
		return "", fmt.Errorf("%w: no JSON object found", ErrMalformedReply)
	}
	return s[start : end+1], nil
}

type signalReply struct {
	Signal        string `json:"signal"`
	Justification string `json:"justification"`
}

// ParseSignal decodes a synthesis reply
func ParseSignal(reply string) (contracts.SignalVerdict, error) {
	raw, err := extractJSON(reply)
	if err != nil {
		return contracts.SignalVerdict{}, err
	}
	var r signalReply
	if err := json.Unmarshal([]byte(raw), &r); err != nil {
		return contracts.SignalVerdict{}, fmt.Errorf("%w: %v", ErrMalformedReply, err)
	}
	sig, err := contracts.ParseSignal(r.Signal)
	if err != nil {
		return contracts.SignalVerdict{}, fmt.Errorf("%w: %v", ErrMalformedReply, err)
	}
	return contracts.SignalVerdict{Signal: sig, Justification: strings.TrimSpace(r.Justification)}, nil
}

type tradeReply struct {
	Action        string  `json:"action"`
	Shares        float64 `json:"shares"`
	Justification string  `json:"justification"`
}

// ParseTrade decodes a decision reply. Fractional shares are truncated and
// negative counts become zero; limits are enforced by the caller.
func ParseTrade(reply string) (contracts.TradeVerdict, error) {
	raw, err := extractJSON(reply)
	if err != nil {
		return contracts.TradeVerdict{}, err
	}
	var r tradeReply
	if err := json.Unmarshal([]byte(raw), &r); err != nil {
		return contracts.TradeVerdict{}, fmt.Errorf("%w: %v", ErrMalformedReply, err)
	}
	action, err := contracts.ParseAction(r.Action)
	if err != nil {
		return contracts.TradeVerdict{}, fmt.Errorf("%w: %v", ErrMalformedReply, err)
	}
	return contracts.TradeVerdict{Action: action, Shares: wholeShares(r.Shares), Justification: strings.TrimSpace(r.Justification)}, nil
}

// wholeShares truncates to an int64, saturating values beyond its range
func wholeShares(f float64) int64 {
	switch {
	case f <= 0:
		return 0
	case f >= math.MaxInt64:
		return math.MaxInt64
	default:
		return int64(f)
	}
}

type choiceReply struct {
	Analysts []string `json:"analysts"`
}

// ParseChoice decodes a planner reply into analyst names
func ParseChoice(reply string) ([]string, error) {
	raw, err := extractJSON(reply)
	if err != nil {
		return nil, err
	}
	var r choiceReply
	if err := json.Unmarshal([]byte(raw), &r); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedReply, err)
	}
	out := make([]string, 0, len(r.Analysts))
	for _, a := range r.Analysts {
		if a = strings.TrimSpace(a); a != "" {
			out = append(out, a)
		}
	}
	return out, nil
}
