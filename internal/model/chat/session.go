package chat

import (
	"time"

	"github.com/zhouzirui/lumi/backend/internal/model/state"
)

// Surfaces tracks which auxiliary panels are open over the chat.
type Surfaces struct {
	Breathing BreathingState `json:"breathing"`
	Referral  bool           `json:"referral"`
}

// BreathingState mirrors the breathing widget toggle.
type BreathingState struct {
	IsActive bool `json:"isActive"`
}

// Session is a point-in-time view of an anonymous conversation.
type Session struct {
	ID        string         `json:"id"`
	State     state.AppState `json:"state"`
	Typing    bool           `json:"typing"`
	Surfaces  Surfaces       `json:"surfaces"`
	Messages  []Message      `json:"messages"`
	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
}
