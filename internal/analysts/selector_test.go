package analysts

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/deepfund/internal/contracts"
	"github.com/wonny/deepfund/pkg/logger"
)

type fakePlanner struct {
	keys []Key
	err  error
	got  []Key
}

func (f *fakePlanner) Plan(ctx context.Context, ticker string, model contracts.ModelConfig, candidates []Key) ([]Key, error) {
	f.got = candidates
	return f.keys, f.err
}

type fakeChooser struct {
	names  []string
	err    error
	prompt string
}

func (f *fakeChooser) Choose(ctx context.Context, prompt string, model contracts.ModelConfig) ([]string, error) {
	f.prompt = prompt
	return f.names, f.err
}

var model = contracts.ModelConfig{Provider: "openai", Model: "gpt-4o"}

func TestNewSelector(t *testing.T) {
	t.Run("drops unknown and duplicate names", func(t *testing.T) {
		s, err := NewSelector([]string{"technical", "astrology", "policy", "technical"}, nil, logger.Nop())
		require.NoError(t, err)
		assert.Equal(t, []Key{Technical, Policy}, s.Configured())
		assert.False(t, s.PlannerMode())
	})

	t.Run("empty after validation is fatal", func(t *testing.T) {
		_, err := NewSelector([]string{"astrology", "tarot"}, nil, logger.Nop())
		assert.ErrorIs(t, err, ErrNoValidAnalysts)
	})

	t.Run("empty configuration is fatal", func(t *testing.T) {
		_, err := NewSelector(nil, nil, logger.Nop())
		assert.ErrorIs(t, err, ErrNoValidAnalysts)
	})
}

func TestSelector_StaticMode(t *testing.T) {
	s, err := NewSelector([]string{"technical", "insider"}, nil, logger.Nop())
	require.NoError(t, err)

	got, err := s.Select(context.Background(), "ACME", model)
	require.NoError(t, err)
	assert.Equal(t, []Key{Technical, Insider}, got)

	got[0] = Policy
	assert.Equal(t, []Key{Technical, Insider}, s.Configured())
}

func TestSelector_PlannerMode(t *testing.T) {
	t.Run("subset of configured", func(t *testing.T) {
		p := &fakePlanner{keys: []Key{Insider, Fundamental, Insider}}
		s, err := NewSelector([]string{"technical", "insider"}, p, logger.Nop())
		require.NoError(t, err)

		got, err := s.Select(context.Background(), "ACME", model)
		require.NoError(t, err)
		assert.Equal(t, []Key{Insider}, got)
		assert.Equal(t, []Key{Technical, Insider}, p.got)
	})

	t.Run("empty plan is fatal", func(t *testing.T) {
		s, err := NewSelector([]string{"technical"}, &fakePlanner{}, logger.Nop())
		require.NoError(t, err)

		_, err = s.Select(context.Background(), "ACME", model)
		assert.ErrorIs(t, err, ErrEmptyPlan)
	})

	t.Run("planner failure is fatal", func(t *testing.T) {
		boom := errors.New("model down")
		s, err := NewSelector([]string{"technical"}, &fakePlanner{err: boom}, logger.Nop())
		require.NoError(t, err)

		_, err = s.Select(context.Background(), "ACME", model)
		assert.ErrorIs(t, err, boom)
	})
}

func TestLLMPlanner(t *testing.T) {
	chooser := &fakeChooser{names: []string{"technical", "crystal_ball", "POLICY"}}
	p := NewLLMPlanner(chooser, logger.Nop())

	got, err := p.Plan(context.Background(), "ACME", model, []Key{Technical, Policy})
	require.NoError(t, err)
	assert.Equal(t, []Key{Technical, Policy}, got)
	assert.Contains(t, chooser.prompt, `"technical", "policy"`)
	assert.Contains(t, chooser.prompt, "Ticker: ACME")

	_, err = NewLLMPlanner(&fakeChooser{err: errors.New("timeout")}, logger.Nop()).Plan(context.Background(), "ACME", model, []Key{Technical})
	assert.Error(t, err)
}
