// Package client wraps the eino chat-model components behind the single
// text-in/text-out capability the pipeline consumes. The provider, model
// name, credential and token budget are all fixed at construction; the
// pipeline never reads ambient configuration.
package client

import (
	"context"
	"fmt"
	"strings"

	"github.com/cloudwego/eino-ext/components/model/claude"
	"github.com/cloudwego/eino-ext/components/model/gemini"
	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"google.golang.org/genai"
)

// Defaults mirror the per-call budget the service was designed around.
const (
	DefaultMaxTokens   = 4096
	defaultTemperature = float32(0)
)

// LLMClient is a provider-agnostic completion client. It satisfies the
// pipeline's Completer interface.
type LLMClient struct {
	chatModel   model.BaseChatModel
	providerID  string
	modelName   string
	maxTokens   int
	temperature float32
}

// Provider returns the provider identifier the client was built for.
func (c *LLMClient) Provider() string { return c.providerID }

// ModelName returns the backend model identifier.
func (c *LLMClient) ModelName() string { return c.modelName }

// Complete issues one blocking completion call and returns the assistant
// text.
func (c *LLMClient) Complete(ctx context.Context, system, prompt string) (string, error) {
	messages := []*schema.Message{
		schema.SystemMessage(system),
		schema.UserMessage(prompt),
	}
	resp, err := c.chatModel.Generate(ctx, messages,
		model.WithMaxTokens(c.maxTokens),
		model.WithTemperature(c.temperature),
	)
	if err != nil {
		return "", fmt.Errorf("%s completion failed: %w", c.providerID, err)
	}
	if resp == nil || strings.TrimSpace(resp.Content) == "" {
		return "", fmt.Errorf("%s returned an empty completion", c.providerID)
	}
	return resp.Content, nil
}

type ClaudeModelOptions struct {
	Model     string
	MaxTokens int
}

// NewClaudeClient builds a client backed by the Anthropic API.
func NewClaudeClient(ctx context.Context, apiKey string, opts ClaudeModelOptions) (*LLMClient, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("anthropic API key is required")
	}
	maxTokens := opts.MaxTokens
	if maxTokens <= 0 {
		maxTokens = DefaultMaxTokens
	}
	cm, err := claude.NewChatModel(ctx, &claude.Config{
		APIKey:    apiKey,
		Model:     opts.Model,
		MaxTokens: maxTokens,
	})
	if err != nil {
		return nil, fmt.Errorf("create anthropic chat model: %w", err)
	}
	return &LLMClient{
		chatModel:   cm,
		providerID:  "anthropic",
		modelName:   opts.Model,
		maxTokens:   maxTokens,
		temperature: defaultTemperature,
	}, nil
}

type OpenAIModelOptions struct {
	Model     string
	MaxTokens int
}

// NewOpenAIClient builds a client backed by the OpenAI API.
func NewOpenAIClient(ctx context.Context, apiKey string, opts OpenAIModelOptions) (*LLMClient, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("openai API key is required")
	}
	cm, err := openai.NewChatModel(ctx, &openai.ChatModelConfig{
		APIKey: apiKey,
		Model:  opts.Model,
	})
	if err != nil {
		return nil, fmt.Errorf("create openai chat model: %w", err)
	}
	maxTokens := opts.MaxTokens
	if maxTokens <= 0 {
		maxTokens = DefaultMaxTokens
	}
	return &LLMClient{
		chatModel:   cm,
		providerID:  "openai",
		modelName:   opts.Model,
		maxTokens:   maxTokens,
		temperature: defaultTemperature,
	}, nil
}

type GeminiModelOptions struct {
	Model     string
	MaxTokens int
}

// NewGeminiClient builds a client backed by the Gemini API.
func NewGeminiClient(ctx context.Context, apiKey string, opts GeminiModelOptions) (*LLMClient, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}
	gc, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	cm, err := gemini.NewChatModel(ctx, &gemini.Config{
		Client: gc,
		Model:  opts.Model,
	})
	if err != nil {
		return nil, fmt.Errorf("create gemini chat model: %w", err)
	}
	maxTokens := opts.MaxTokens
	if maxTokens <= 0 {
		maxTokens = DefaultMaxTokens
	}
	return &LLMClient{
		chatModel:   cm,
		providerID:  "gemini",
		modelName:   opts.Model,
		maxTokens:   maxTokens,
		temperature: defaultTemperature,
	}, nil
}
