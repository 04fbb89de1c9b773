package ai

import (
	"context"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/zhouzirui/lumi/backend/internal/model/chat"
)

// ArkGateway runs each turn through an eino chain: system prompt, history,
// user text, then the chat model with the crisis tool bound.
type ArkGateway struct {
	chain        compose.Runnable[map[string]any, *schema.Message]
	systemPrompt string
	historyLimit int
}

// NewArkGateway binds the crisis tool to chatModel and compiles the chain.
// chatModel should not be shared with other chains after binding.
func NewArkGateway(ctx context.Context, chatModel model.ChatModel, tmpl PromptTemplate, historyLimit int) (*ArkGateway, error) {
	if chatModel == nil {
		return nil, errors.New("chat model is required")
	}

	if err := chatModel.BindTools([]*schema.ToolInfo{crisisToolInfo()}); err != nil {
		return nil, errors.Wrap(err, "bind crisis tool")
	}

	promptTemplate := prompt.FromMessages(
		schema.FString,
		schema.SystemMessage("{system}"),
		schema.MessagesPlaceholder("history", true),
		schema.UserMessage("{query}"),
	)

	chain := compose.NewChain[map[string]any, *schema.Message]()
	chain.AppendChatTemplate(promptTemplate)
	chain.AppendChatModel(chatModel)

	runnable, err := chain.Compile(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "compile chat chain")
	}

	return &ArkGateway{
		chain:        runnable,
		systemPrompt: tmpl.Build(),
		historyLimit: historyLimit,
	}, nil
}

// Send implements Gateway.
func (g *ArkGateway) Send(ctx context.Context, text string, history []chat.Message) (Response, error) {
	input := map[string]any{
		"system":  g.systemPrompt,
		"history": buildSchemaHistory(historyWindow(history, g.historyLimit)),
		"query":   text,
	}

	msg, err := g.chain.Invoke(ctx, input)
	if err != nil {
		return Response{}, failure("ark", err)
	}
	if msg == nil {
		return Response{}, failure("ark", errors.New("empty model message"))
	}

	crisis, reason := false, ""
	for _, call := range msg.ToolCalls {
		if call.Function.Name == crisisToolName {
			crisis = true
			reason = parseCrisisReason(call.Function.Arguments)
		}
	}

	log.Debug().
		Str("component", "ai").
		Str("provider", "ark").
		Int("length", len(msg.Content)).
		Bool("crisis", crisis).
		Msg("generated response")

	return finalize(msg.Content, crisis, reason), nil
}

func crisisToolInfo() *schema.ToolInfo {
	return &schema.ToolInfo{
		Name: crisisToolName,
		Desc: crisisToolDescription,
		ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
			crisisReasonParam: {
				Type:     schema.String,
				Desc:     crisisReasonDesc,
				Required: true,
			},
		}),
	}
}

func buildSchemaHistory(messages []chat.Message) []*schema.Message {
	if len(messages) == 0 {
		return nil
	}

	history := make([]*schema.Message, 0, len(messages))
	for _, msg := range messages {
		switch msg.Role {
		case chat.RoleUser:
			history = append(history, schema.UserMessage(msg.Content))
		case chat.RoleModel:
			history = append(history, schema.AssistantMessage(msg.Content, nil))
		}
	}
	return history
}
