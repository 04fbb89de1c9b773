package ai

import (
	"context"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/zhouzirui/lumi/backend/internal/analysis/crisis"
	"github.com/zhouzirui/lumi/backend/internal/model/chat"
)

// ScreenedGateway raises the crisis flag when the user's own text matches
// the high-risk phrase list, whatever the provider decided.
type ScreenedGateway struct {
	next   Gateway
	screen func(text string) crisis.Assessment
}

// NewScreenedGateway wraps next with the keyword screen.
func NewScreenedGateway(next Gateway) *ScreenedGateway {
	return &ScreenedGateway{next: next, screen: crisis.Screen}
}

// Send implements Gateway.
func (g *ScreenedGateway) Send(ctx context.Context, text string, history []chat.Message) (Response, error) {
	resp, err := g.next.Send(ctx, text, history)
	if err != nil {
		return resp, err
	}
	if resp.CrisisTriggered {
		return resp, nil
	}

	assessment := g.screen(text)
	if !assessment.Flagged() {
		return resp, nil
	}

	log.Info().
		Str("component", "ai").
		Strs("matches", assessment.Matches).
		Msg("keyword screen raised crisis flag")

	return finalize(resp.Text, true, "keyword screen: "+strings.Join(assessment.Matches, ", ")), nil
}
