package ai

import (
	"context"
	"fmt"
	"strings"

	"github.com/pkg/errors"

	"github.com/zhouzirui/lumi/backend/internal/model/chat"
)

// ErrGatewayFailed marks any failure of the outbound inference call.
var ErrGatewayFailed = errors.New("inference gateway failed")

// Response is the result of one gateway call.
type Response struct {
	Text            string `json:"text"`
	CrisisTriggered bool   `json:"crisisTriggered"`
	CrisisReason    string `json:"crisisReason,omitempty"`
}

// Gateway issues one inference request per user turn. history holds the
// transcript before text was submitted.
type Gateway interface {
	Send(ctx context.Context, text string, history []chat.Message) (Response, error)
}

// GatewayFunc adapts a function to the Gateway interface.
type GatewayFunc func(ctx context.Context, text string, history []chat.Message) (Response, error)

// Send calls f.
func (f GatewayFunc) Send(ctx context.Context, text string, history []chat.Message) (Response, error) {
	return f(ctx, text, history)
}

// Error wraps a provider failure so callers can match ErrGatewayFailed.
type Error struct {
	Provider string
	Err      error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s gateway: %v", e.Provider, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches ErrGatewayFailed.
func (e *Error) Is(target error) bool { return target == ErrGatewayFailed }

func failure(provider string, err error) error {
	return &Error{Provider: provider, Err: err}
}

const (
	crisisToolName        = "trigger_crisis_protocol"
	crisisToolDescription = "Call this when the user expresses intent to harm themselves or others, suicidal thoughts, or is in immediate danger. It opens a panel with crisis lines and human therapists."
	crisisReasonParam     = "reason"
	crisisReasonDesc      = "Short description of what the user said that indicates risk."
)

// crisisFallbackReply is used when the model calls the crisis tool without
// any accompanying text.
const crisisFallbackReply = "I'm really glad you told me. What you're feeling matters, and you deserve support from someone who can be there with you right now. I've opened a list of people you can reach immediately. If you are in danger, please contact emergency services."

// finalize applies the shared rules for a raw provider result.
func finalize(text string, crisis bool, reason string) Response {
	text = strings.TrimSpace(text)
	if crisis && text == "" {
		text = crisisFallbackReply
	}
	return Response{Text: text, CrisisTriggered: crisis, CrisisReason: strings.TrimSpace(reason)}
}

// historyWindow keeps the last limit user/model entries, skipping system and
// error notices.
func historyWindow(messages []chat.Message, limit int) []chat.Message {
	filtered := make([]chat.Message, 0, len(messages))
	for _, msg := range messages {
		if msg.IsError || msg.Role == chat.RoleSystem || strings.TrimSpace(msg.Content) == "" {
			continue
		}
		filtered = append(filtered, msg)
	}

	if limit <= 0 {
		return nil
	}
	if len(filtered) > limit {
		filtered = filtered[len(filtered)-limit:]
	}
	return filtered
}
