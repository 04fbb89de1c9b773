package ai

import (
	"context"

	"github.com/pkg/errors"
	"github.com/sashabaranov/go-openai"

	"github.com/zhouzirui/lumi/backend/internal/model/chat"
)

// chatCompleter is the part of openai.Client the gateway uses.
type chatCompleter interface {
	CreateChatCompletion(ctx context.Context, request openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// OpenAIOptions tunes the chat completion request.
type OpenAIOptions struct {
	BaseURL      string
	Model        string
	Temperature  *float64
	TopP         *float64
	MaxTokens    *int
	HistoryLimit int
}

// OpenAIGateway talks to any OpenAI-compatible chat completion endpoint.
type OpenAIGateway struct {
	client       chatCompleter
	opts         OpenAIOptions
	systemPrompt string
}

// NewOpenAIGateway creates a client for apiKey and opts.BaseURL.
func NewOpenAIGateway(apiKey string, tmpl PromptTemplate, opts OpenAIOptions) (*OpenAIGateway, error) {
	if apiKey == "" {
		return nil, errors.New("openai api key is required")
	}

	config := openai.DefaultConfig(apiKey)
	if opts.BaseURL != "" {
		config.BaseURL = opts.BaseURL
	}
	return newOpenAIGateway(openai.NewClientWithConfig(config), tmpl, opts), nil
}

func newOpenAIGateway(client chatCompleter, tmpl PromptTemplate, opts OpenAIOptions) *OpenAIGateway {
	return &OpenAIGateway{client: client, opts: opts, systemPrompt: tmpl.Build()}
}

// Send implements Gateway.
func (g *OpenAIGateway) Send(ctx context.Context, text string, history []chat.Message) (Response, error) {
	window := historyWindow(history, g.opts.HistoryLimit)

	messages := make([]openai.ChatCompletionMessage, 0, len(window)+2)
	messages = append(messages, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleSystem, Content: g.systemPrompt})
	for _, msg := range window {
		role := openai.ChatMessageRoleUser
		if msg.Role == chat.RoleModel {
			role = openai.ChatMessageRoleAssistant
		}
		messages = append(messages, openai.ChatCompletionMessage{Role: role, Content: msg.Content})
	}
	messages = append(messages, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: text})

	req := openai.ChatCompletionRequest{
		Model:    g.opts.Model,
		Messages: messages,
		Tools: []openai.Tool{{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        crisisToolName,
				Description: crisisToolDescription,
				Parameters:  crisisToolParameters(),
			},
		}},
		ToolChoice: "auto",
	}
	if g.opts.Temperature != nil {
		req.Temperature = float32(*g.opts.Temperature)
	}
	if g.opts.TopP != nil {
		req.TopP = float32(*g.opts.TopP)
	}
	if g.opts.MaxTokens != nil {
		req.MaxTokens = *g.opts.MaxTokens
	}

	resp, err := g.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return Response{}, failure("openai", err)
	}
	if len(resp.Choices) == 0 {
		return Response{}, failure("openai", errors.New("no choices returned"))
	}

	choice := resp.Choices[0].Message
	crisis, reason := false, ""
	for _, call := range choice.ToolCalls {
		if call.Function.Name == crisisToolName {
			crisis = true
			reason = parseCrisisReason(call.Function.Arguments)
		}
	}

	return finalize(choice.Content, crisis, reason), nil
}
