package ai

import (
	"context"
	"strings"

	"github.com/pkg/errors"
	"google.golang.org/genai"

	"github.com/zhouzirui/lumi/backend/internal/model/chat"
)

// contentGenerator is the part of genai.Models the gateway uses.
type contentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// GeminiOptions tunes the Gemini request.
type GeminiOptions struct {
	Model        string
	Temperature  *float64
	TopP         *float64
	MaxTokens    *int
	HistoryLimit int
}

// GeminiGateway sends turns to the Gemini API with function calling enabled.
type GeminiGateway struct {
	models       contentGenerator
	model        string
	config       *genai.GenerateContentConfig
	historyLimit int
}

// NewGeminiGateway creates a Gemini API client for apiKey.
func NewGeminiGateway(ctx context.Context, apiKey string, tmpl PromptTemplate, opts GeminiOptions) (*GeminiGateway, error) {
	if apiKey == "" {
		return nil, errors.New("gemini api key is required")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, errors.Wrap(err, "create genai client")
	}

	return newGeminiGateway(client.Models, tmpl, opts), nil
}

func newGeminiGateway(models contentGenerator, tmpl PromptTemplate, opts GeminiOptions) *GeminiGateway {
	cfg := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(tmpl.Build(), genai.RoleUser),
		Tools: []*genai.Tool{{
			FunctionDeclarations: []*genai.FunctionDeclaration{{
				Name:        crisisToolName,
				Description: crisisToolDescription,
				Parameters: &genai.Schema{
					Type: genai.TypeObject,
					Properties: map[string]*genai.Schema{
						crisisReasonParam: {Type: genai.TypeString, Description: crisisReasonDesc},
					},
					Required: []string{crisisReasonParam},
				},
			}},
		}},
	}
	if opts.Temperature != nil {
		cfg.Temperature = genai.Ptr(float32(*opts.Temperature))
	}
	if opts.TopP != nil {
		cfg.TopP = genai.Ptr(float32(*opts.TopP))
	}
	if opts.MaxTokens != nil {
		cfg.MaxOutputTokens = int32(*opts.MaxTokens)
	}

	return &GeminiGateway{
		models:       models,
		model:        opts.Model,
		config:       cfg,
		historyLimit: opts.HistoryLimit,
	}
}

// Send implements Gateway.
func (g *GeminiGateway) Send(ctx context.Context, text string, history []chat.Message) (Response, error) {
	window := historyWindow(history, g.historyLimit)
	contents := make([]*genai.Content, 0, len(window)+1)
	for _, msg := range window {
		var role genai.Role = genai.RoleUser
		if msg.Role == chat.RoleModel {
			role = genai.RoleModel
		}
		contents = append(contents, genai.NewContentFromText(msg.Content, role))
	}
	contents = append(contents, genai.NewContentFromText(text, genai.RoleUser))

	resp, err := g.models.GenerateContent(ctx, g.model, contents, g.config)
	if err != nil {
		return Response{}, failure("gemini", err)
	}
	if resp == nil || len(resp.Candidates) == 0 {
		return Response{}, failure("gemini", errors.New("no candidates returned"))
	}

	var textParts []string
	crisis, reason := false, ""
	candidate := resp.Candidates[0]
	if candidate.Content != nil {
		for _, part := range candidate.Content.Parts {
			if part == nil {
				continue
			}
			if part.FunctionCall != nil && part.FunctionCall.Name == crisisToolName {
				crisis = true
				if r, ok := part.FunctionCall.Args[crisisReasonParam].(string); ok {
					reason = r
				}
				continue
			}
			if part.Text != "" && !part.Thought {
				textParts = append(textParts, part.Text)
			}
		}
	}

	return finalize(strings.Join(textParts, ""), crisis, reason), nil
}
