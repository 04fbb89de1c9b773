package ai

import (
	"context"
	"errors"
	"testing"

	"github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zhouzirui/lumi/backend/internal/model/chat"
)

type fakeCompleter struct {
	got  openai.ChatCompletionRequest
	resp openai.ChatCompletionResponse
	err  error
}

func (f *fakeCompleter) CreateChatCompletion(_ context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	f.got = req
	return f.resp, f.err
}

func TestOpenAIGatewayBuildsRequest(t *testing.T) {
	fake := &fakeCompleter{resp: openai.ChatCompletionResponse{
		Choices: []openai.ChatCompletionChoice{{Message: openai.ChatCompletionMessage{Content: "I hear you."}}},
	}}
	gw := newOpenAIGateway(fake, DefaultPrompt(), OpenAIOptions{Model: "gpt-test", HistoryLimit: 10})

	history := []chat.Message{
		chat.NewMessage(chat.RoleModel, "Hi there."),
		chat.NewMessage(chat.RoleUser, "hello"),
	}
	resp, err := gw.Send(context.Background(), "I feel anxious", history)
	require.NoError(t, err)

	assert.Equal(t, "I hear you.", resp.Text)
	assert.False(t, resp.CrisisTriggered)

	require.Len(t, fake.got.Messages, 4)
	assert.Equal(t, openai.ChatMessageRoleSystem, fake.got.Messages[0].Role)
	assert.Equal(t, openai.ChatMessageRoleAssistant, fake.got.Messages[1].Role)
	assert.Equal(t, openai.ChatMessageRoleUser, fake.got.Messages[3].Role)
	assert.Equal(t, "I feel anxious", fake.got.Messages[3].Content)
	require.Len(t, fake.got.Tools, 1)
	assert.Equal(t, crisisToolName, fake.got.Tools[0].Function.Name)
}

func TestOpenAIGatewayDetectsCrisisToolCall(t *testing.T) {
	fake := &fakeCompleter{resp: openai.ChatCompletionResponse{
		Choices: []openai.ChatCompletionChoice{{Message: openai.ChatCompletionMessage{
			ToolCalls: []openai.ToolCall{{
				Type:     openai.ToolTypeFunction,
				Function: openai.FunctionCall{Name: crisisToolName, Arguments: `{"reason":"self harm"}`},
			}},
		}}},
	}}
	gw := newOpenAIGateway(fake, DefaultPrompt(), OpenAIOptions{Model: "gpt-test"})

	resp, err := gw.Send(context.Background(), "...", nil)
	require.NoError(t, err)
	assert.True(t, resp.CrisisTriggered)
	assert.Equal(t, "self harm", resp.CrisisReason)
	assert.Equal(t, crisisFallbackReply, resp.Text)
}

func TestOpenAIGatewayWrapsFailures(t *testing.T) {
	gw := newOpenAIGateway(&fakeCompleter{err: errors.New("503")}, DefaultPrompt(), OpenAIOptions{})
	_, err := gw.Send(context.Background(), "hi", nil)
	assert.ErrorIs(t, err, ErrGatewayFailed)

	gw = newOpenAIGateway(&fakeCompleter{}, DefaultPrompt(), OpenAIOptions{})
	_, err = gw.Send(context.Background(), "hi", nil)
	assert.ErrorIs(t, err, ErrGatewayFailed)
}
