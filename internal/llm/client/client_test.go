package client

import (
	"context"
	"fmt"
	"testing"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeChatModel struct {
	reply string
	err   error
	got   []*schema.Message
}

func (f *fakeChatModel) Generate(_ context.Context, input []*schema.Message, _ ...model.Option) (*schema.Message, error) {
	f.got = input
	if f.err != nil {
		return nil, f.err
	}
	return schema.AssistantMessage(f.reply, nil), nil
}

func (f *fakeChatModel) Stream(_ context.Context, _ []*schema.Message, _ ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	return nil, fmt.Errorf("streaming not supported")
}

func TestCompleteSendsSystemAndUserMessages(t *testing.T) {
	fake := &fakeChatModel{reply: "the answer"}
	c := &LLMClient{chatModel: fake, providerID: "anthropic", maxTokens: DefaultMaxTokens}

	got, err := c.Complete(context.Background(), "you are terse", "what changed?")
	require.NoError(t, err)
	assert.Equal(t, "the answer", got)

	require.Len(t, fake.got, 2)
	assert.Equal(t, schema.System, fake.got[0].Role)
	assert.Equal(t, "you are terse", fake.got[0].Content)
	assert.Equal(t, schema.User, fake.got[1].Role)
	assert.Equal(t, "what changed?", fake.got[1].Content)
}

func TestCompleteRejectsEmptyReply(t *testing.T) {
	c := &LLMClient{chatModel: &fakeChatModel{reply: "   "}, providerID: "openai"}
	_, err := c.Complete(context.Background(), "s", "p")
	assert.Error(t, err)
}

func TestCompleteWrapsBackendError(t *testing.T) {
	c := &LLMClient{chatModel: &fakeChatModel{err: fmt.Errorf("rate limited")}, providerID: "gemini"}
	_, err := c.Complete(context.Background(), "s", "p")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "gemini")
}

func TestConstructorsRequireAPIKey(t *testing.T) {
	ctx := context.Background()
	_, err := NewClaudeClient(ctx, "", ClaudeModelOptions{Model: "claude-sonnet-4-5"})
	assert.Error(t, err)
	_, err = NewOpenAIClient(ctx, "  ", OpenAIModelOptions{Model: "gpt-5"})
	assert.Error(t, err)
	_, err = NewGeminiClient(ctx, "", GeminiModelOptions{Model: "gemini-2.5-pro"})
	assert.Error(t, err)
}
