package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/cloudwego/eino-ext/components/model/deepseek"
	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"github.com/wonny/deepfund/internal/contracts"
	"github.com/wonny/deepfund/internal/metrics"
	"github.com/wonny/deepfund/pkg/config"
	"github.com/wonny/deepfund/pkg/logger"
)

// Supported providers
const (
	ProviderOpenAI   = "openai"
	ProviderDeepSeek = "deepseek"
)

const systemPrompt = "You are a member of an investment team. Reply with a single JSON object and nothing else."

// ErrUnsupportedProvider is returned for a provider without a chat model binding
var ErrUnsupportedProvider = errors.New("unsupported llm provider")

// ModelFactory builds a chat model for a model selection
type ModelFactory func(ctx context.Context, mc contracts.ModelConfig) (model.BaseChatModel, error)

// Client runs structured inference calls against eino chat models.
// Models are built lazily per provider/model pair and reused.
type Client struct {
	factory ModelFactory
	timeout time.Duration
	metrics *metrics.Recorder
	logger  *logger.Logger

	mu     sync.Mutex
	models map[contracts.ModelConfig]model.BaseChatModel
}

// New creates a client backed by the OpenAI and DeepSeek eino chat models
func New(cfg config.LLMConfig, rec *metrics.Recorder, log *logger.Logger) *Client {
	return NewWithFactory(EinoFactory(cfg), cfg.Timeout, rec, log)
}

// NewWithFactory creates a client with a custom model factory
func NewWithFactory(factory ModelFactory, timeout time.Duration, rec *metrics.Recorder, log *logger.Logger) *Client {
	return &Client{
		factory: factory,
		timeout: timeout,
		metrics: rec,
		logger:  log,
		models:  make(map[contracts.ModelConfig]model.BaseChatModel),
	}
}

// EinoFactory binds providers to eino-ext chat models
func EinoFactory(cfg config.LLMConfig) ModelFactory {
	return func(ctx context.Context, mc contracts.ModelConfig) (model.BaseChatModel, error) {
		switch strings.ToLower(mc.Provider) {
		case ProviderOpenAI:
			maxTokens := cfg.MaxTokens
			return openai.NewChatModel(ctx, &openai.ChatModelConfig{
				BaseURL:   cfg.OpenAIBaseURL,
				APIKey:    cfg.OpenAIKey,
				Model:     mc.Model,
				MaxTokens: &maxTokens,
			})
		case ProviderDeepSeek:
			return deepseek.NewChatModel(ctx, &deepseek.ChatModelConfig{
				APIKey:    cfg.DeepSeekKey,
				Model:     mc.Model,
				MaxTokens: cfg.MaxTokens,
			})
		default:
			return nil, fmt.Errorf("%w: %q", ErrUnsupportedProvider, mc.Provider)
		}
	}
}

func (c *Client) chatModel(ctx context.Context, mc contracts.ModelConfig) (model.BaseChatModel, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if m, ok := c.models[mc]; ok {
		return m, nil
	}
	m, err := c.factory(ctx, mc)
	if err != nil {
		return nil, fmt.Errorf("failed to create chat model %s/%s: %w", mc.Provider, mc.Model, err)
	}
	c.models[mc] = m
	return m, nil
}

// Complete sends prompt as the user message and returns the raw reply text
func (c *Client) Complete(ctx context.Context, prompt string, mc contracts.ModelConfig) (string, error) {
	m, err := c.chatModel(ctx, mc)
	if err != nil {
		return "", err
	}

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	start := time.Now()
	msg, err := m.Generate(ctx, []*schema.Message{
		schema.SystemMessage(systemPrompt),
		schema.UserMessage(prompt),
	})
	c.metrics.RecordLLMCall(mc.Provider, time.Since(start), err)
	if err != nil {
		return "", fmt.Errorf("llm call failed: %w", err)
	}

	c.logger.WithFields(map[string]interface{}{
		"provider": mc.Provider,
		"model":    mc.Model,
		"duration": time.Since(start),
	}).Debug("LLM call completed")

	return msg.Content, nil
}

// Signal asks for {signal, justification}
func (c *Client) Signal(ctx context.Context, prompt string, mc contracts.ModelConfig) (contracts.SignalVerdict, error) {
	reply, err := c.Complete(ctx, prompt, mc)
	if err != nil {
		return contracts.SignalVerdict{}, err
	}
	return ParseSignal(reply)
}

// Decide asks for {action, shares, justification}
func (c *Client) Decide(ctx context.Context, prompt string, mc contracts.ModelConfig) (contracts.TradeVerdict, error) {
	reply, err := c.Complete(ctx, prompt, mc)
	if err != nil {
		return contracts.TradeVerdict{}, err
	}
	return ParseTrade(reply)
}

// Choose asks for {analysts: [...]}
func (c *Client) Choose(ctx context.Context, prompt string, mc contracts.ModelConfig) ([]string, error) {
	reply, err := c.Complete(ctx, prompt, mc)
	if err != nil {
		return nil, err
	}
	return ParseChoice(reply)
}
