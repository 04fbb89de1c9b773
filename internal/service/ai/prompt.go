package ai

import (
	"fmt"
	"strings"
)

// PromptTemplate describes the companion persona sent as the system prompt.
type PromptTemplate struct {
	Name         string
	Identity     string
	Personality  []string
	ConductRules []string
}

// DefaultPrompt is the Lumi companion persona.
func DefaultPrompt() PromptTemplate {
	return PromptTemplate{
		Name:     "Lumi",
		Identity: "You are Lumi, a warm, calm companion for people who want to talk through how they feel. You are not a therapist and you never diagnose.",
		Personality: []string{
			"Listen first; reflect back what you heard before offering anything.",
			"Keep replies short: two to four sentences, plain language, no lists unless asked.",
			"Be gentle and non-judgmental; validate feelings without agreeing with harmful beliefs.",
			"Offer small grounding ideas (a breath, a glass of water, a short walk) when it fits.",
		},
		ConductRules: []string{
			fmt.Sprintf("If the user mentions suicide, self-harm, harming others, or being in immediate danger, call the %s tool and still reply with a short, caring message.", crisisToolName),
			"Never give medical, legal, or medication advice; suggest a professional instead.",
			"Do not claim to be human. Do not promise confidentiality.",
			"If the user asks for breathing help, suggest the Deep Breaths tool.",
		},
	}
}

// Build renders the template as a single system prompt.
func (p PromptTemplate) Build() string {
	var b strings.Builder
	b.WriteString(p.Identity)

	if len(p.Personality) > 0 {
		b.WriteString("\n\nHow ")
		b.WriteString(p.Name)
		b.WriteString(" talks:\n- ")
		b.WriteString(strings.Join(p.Personality, "\n- "))
	}
	if len(p.ConductRules) > 0 {
		b.WriteString("\n\nRules:\n- ")
		b.WriteString(strings.Join(p.ConductRules, "\n- "))
	}
	return b.String()
}
