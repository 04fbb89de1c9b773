package chat

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/zhouzirui/lumi/backend/internal/config"
	"github.com/zhouzirui/lumi/backend/internal/model/chat"
	"github.com/zhouzirui/lumi/backend/internal/model/state"
	"github.com/zhouzirui/lumi/backend/internal/service/ai"
	"github.com/zhouzirui/lumi/backend/internal/service/events"
)

var (
	ErrSessionNotFound    = errors.New("session not found")
	ErrEmptyMessage       = errors.New("message content is required")
	ErrInvalidRole        = errors.New("message role is invalid")
	ErrNotReady           = errors.New("session is still onboarding")
	ErrGatewayUnavailable = errors.New("inference gateway unavailable")
)

// Greeting opens every conversation.
const Greeting = "Hi there. I'm Lumi. I know life can feel overwhelming sometimes. I'm here to listen without judgment. How are you feeling today?"

const deliveryFailedNotice = "Sorry, I couldn't respond just now. Please try sending that again in a moment."

// Options tunes session behaviour.
type Options struct {
	OnboardingDelay      time.Duration
	GatewayTimeout       time.Duration
	SurfaceGatewayErrors bool
	// Now overrides the clock, mainly for tests.
	Now func() time.Time
}

// OptionsFromConfig maps the service configuration onto Options.
func OptionsFromConfig(sessionCfg config.SessionConfig, aiCfg config.AIConfig) Options {
	return Options{
		OnboardingDelay:      sessionCfg.OnboardingDelay,
		GatewayTimeout:       aiCfg.Timeout,
		SurfaceGatewayErrors: sessionCfg.SurfaceGatewayError,
	}
}

// TurnResult describes the outcome of one submitted message.
type TurnResult struct {
	User            chat.Message  `json:"user"`
	Reply           *chat.Message `json:"reply,omitempty"`
	Notice          *chat.Message `json:"notice,omitempty"`
	CrisisTriggered bool          `json:"crisisTriggered"`
	Delivered       bool          `json:"delivered"`
	Session         chat.Session  `json:"session"`
}

// Service owns every live session: transcript, state machine, typing
// indicator and auxiliary surfaces.
type Service struct {
	mu       sync.RWMutex
	sessions map[string]*session

	gateway ai.Gateway
	events  events.Publisher
	opts    Options
	now     func() time.Time
}

// NewService builds the in-memory session service. gateway may be nil, in
// which case submissions fail with ErrGatewayUnavailable; publisher may be nil.
func NewService(gateway ai.Gateway, publisher events.Publisher, opts Options) *Service {
	now := opts.Now
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}

	return &Service{
		sessions: make(map[string]*session),
		gateway:  gateway,
		events:   publisher,
		opts:     opts,
		now:      now,
	}
}

// GatewayAvailable reports whether submissions can reach a model.
func (s *Service) GatewayAvailable() bool {
	return s.gateway != nil
}

// CreateSession starts an anonymous session in Onboarding with the greeting
// already in its transcript. Onboarding ends after the configured delay.
func (s *Service) CreateSession(_ context.Context) (chat.Session, error) {
	sess := newSession(uuid.NewString(), s.now())
	if err := sess.transcript.Append(chat.NewMessage(chat.RoleModel, Greeting)); err != nil {
		return chat.Session{}, err
	}

	s.mu.Lock()
	s.sessions[sess.id] = sess
	s.mu.Unlock()

	sess.mu.Lock()
	sess.onboarding = time.AfterFunc(s.opts.OnboardingDelay, func() {
		s.completeOnboarding(sess)
	})
	sess.mu.Unlock()

	log.Info().Str("component", "chat").Str("session", sess.id).Msg("session created")
	return sess.view(), nil
}

// GetSession returns the current view of a session.
func (s *Service) GetSession(_ context.Context, sessionID string) (chat.Session, error) {
	sess, err := s.lookup(sessionID)
	if err != nil {
		return chat.Session{}, err
	}
	return sess.view(), nil
}

// LoadTranscript returns the ordered messages of a session.
func (s *Service) LoadTranscript(_ context.Context, sessionID string) ([]chat.Message, error) {
	sess, err := s.lookup(sessionID)
	if err != nil {
		return nil, err
	}
	return sess.transcript.List(), nil
}

// Submit runs one user turn: append the user message, call the gateway,
// append the reply and apply the crisis flag. Turns of one session run one
// at a time. Gateway failures are logged and reported through
// TurnResult.Delivered rather than as an error.
func (s *Service) Submit(ctx context.Context, sessionID, text string) (TurnResult, error) {
	sess, err := s.lookup(sessionID)
	if err != nil {
		return TurnResult{}, err
	}
	if strings.TrimSpace(text) == "" {
		return TurnResult{}, ErrEmptyMessage
	}
	if s.gateway == nil {
		return TurnResult{}, ErrGatewayUnavailable
	}
	if sess.machine.Current() == state.Onboarding {
		return TurnResult{}, ErrNotReady
	}

	// The turn outlives the request that started it.
	turnCtx := context.WithoutCancel(ctx)

	if sess.beginTurn() {
		s.publish(turnCtx, events.TypingChanged, sess.id, events.TypingData{Typing: true})
	}
	result, err := s.runTurn(turnCtx, sess, text)
	if sess.endTurn() {
		s.publish(turnCtx, events.TypingChanged, sess.id, events.TypingData{Typing: false})
	}
	if err != nil {
		return TurnResult{}, err
	}

	result.Session = sess.view()
	return result, nil
}

func (s *Service) runTurn(ctx context.Context, sess *session, text string) (TurnResult, error) {
	sess.turnMu.Lock()
	defer sess.turnMu.Unlock()

	history := sess.transcript.List()
	userMsg := chat.NewMessage(chat.RoleUser, text)
	if err := sess.transcript.Append(userMsg); err != nil {
		return TurnResult{}, err
	}
	sess.touch(s.now())
	s.publish(ctx, events.MessageAppended, sess.id, userMsg)

	result := TurnResult{User: userMsg}

	callCtx := ctx
	if s.opts.GatewayTimeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, s.opts.GatewayTimeout)
		defer cancel()
	}

	started := time.Now()
	resp, err := s.gateway.Send(callCtx, text, history)
	sess.touch(s.now())
	if err != nil {
		log.Error().
			Err(err).
			Str("component", "chat").
			Str("session", sess.id).
			Dur("elapsed", time.Since(started)).
			Msg("gateway call failed")

		if s.opts.SurfaceGatewayErrors {
			notice := chat.NewErrorMessage(deliveryFailedNotice)
			if appendErr := sess.transcript.Append(notice); appendErr == nil {
				result.Notice = &notice
				s.publish(ctx, events.MessageAppended, sess.id, notice)
			}
		}
		return result, nil
	}

	result.Delivered = true
	if resp.CrisisTriggered {
		result.CrisisTriggered = true
		s.raiseCrisis(ctx, sess, resp.CrisisReason)
	}
	if resp.Text != "" {
		reply := chat.NewMessage(chat.RoleModel, resp.Text)
		if appendErr := sess.transcript.Append(reply); appendErr == nil {
			result.Reply = &reply
			s.publish(ctx, events.MessageAppended, sess.id, reply)
		}
	}
	return result, nil
}

// OpenBreathing shows the breathing widget.
func (s *Service) OpenBreathing(ctx context.Context, sessionID string) (chat.Session, error) {
	return s.updateSurfaces(ctx, sessionID, func(sf *chat.Surfaces) { sf.Breathing.IsActive = true })
}

// CloseBreathing hides the breathing widget.
func (s *Service) CloseBreathing(ctx context.Context, sessionID string) (chat.Session, error) {
	return s.updateSurfaces(ctx, sessionID, func(sf *chat.Surfaces) { sf.Breathing.IsActive = false })
}

// OpenReferral shows the referral surface on user request. The application
// state is left alone.
func (s *Service) OpenReferral(ctx context.Context, sessionID string) (chat.Session, error) {
	return s.updateSurfaces(ctx, sessionID, func(sf *chat.Surfaces) { sf.Referral = true })
}

// DismissReferral hides the referral surface and returns the session to Chat.
// A session still in Onboarding stays there until its delay elapses.
func (s *Service) DismissReferral(ctx context.Context, sessionID string) (chat.Session, error) {
	sess, err := s.lookup(sessionID)
	if err != nil {
		return chat.Session{}, err
	}

	if surfaces, changed := sess.setSurface(func(sf *chat.Surfaces) { sf.Referral = false }); changed {
		s.publish(ctx, events.SurfaceChanged, sess.id, surfaces)
	}
	s.fire(ctx, sess, state.CrisisDismissed)
	sess.touch(s.now())
	return sess.view(), nil
}

// CloseSession drops a session and stops its timers.
func (s *Service) CloseSession(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	sess, ok := s.sessions[sessionID]
	if ok {
		delete(s.sessions, sessionID)
	}
	s.mu.Unlock()

	if !ok {
		return ErrSessionNotFound
	}
	sess.stopTimers()
	s.publish(ctx, events.SessionClosed, sessionID, nil)
	return nil
}

// SweepIdle closes sessions without activity for longer than ttl and with no
// turn in flight. It returns how many were closed.
func (s *Service) SweepIdle(ctx context.Context, ttl time.Duration) int {
	now := s.now()

	s.mu.RLock()
	expired := make([]string, 0)
	for id, sess := range s.sessions {
		idle, busy := sess.idleSince(now)
		if !busy && idle > ttl {
			expired = append(expired, id)
		}
	}
	s.mu.RUnlock()

	closed := 0
	for _, id := range expired {
		if err := s.CloseSession(ctx, id); err == nil {
			closed++
		}
	}
	return closed
}

// Count returns the number of live sessions.
func (s *Service) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

func (s *Service) lookup(sessionID string) (*session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, ok := s.sessions[sessionID]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return sess, nil
}

func (s *Service) completeOnboarding(sess *session) {
	s.fire(context.Background(), sess, state.OnboardingElapsed)
}

func (s *Service) raiseCrisis(ctx context.Context, sess *session, reason string) {
	log.Warn().
		Str("component", "chat").
		Str("session", sess.id).
		Str("reason", reason).
		Msg("crisis flag raised")

	s.fire(ctx, sess, state.CrisisFlagged)
	if surfaces, changed := sess.setSurface(func(sf *chat.Surfaces) { sf.Referral = true }); changed {
		s.publish(ctx, events.SurfaceChanged, sess.id, surfaces)
	}
}

func (s *Service) fire(ctx context.Context, sess *session, event state.Event) {
	from, to, changed := sess.machine.Fire(event)
	if !changed {
		return
	}

	log.Debug().
		Str("component", "chat").
		Str("session", sess.id).
		Str("from", string(from)).
		Str("to", string(to)).
		Msg("state changed")

	s.publish(ctx, events.StateChanged, sess.id, events.StateData{From: string(from), To: string(to)})
}

func (s *Service) updateSurfaces(ctx context.Context, sessionID string, fn func(*chat.Surfaces)) (chat.Session, error) {
	sess, err := s.lookup(sessionID)
	if err != nil {
		return chat.Session{}, err
	}

	if surfaces, changed := sess.setSurface(fn); changed {
		s.publish(ctx, events.SurfaceChanged, sess.id, surfaces)
	}
	sess.touch(s.now())
	return sess.view(), nil
}

func (s *Service) publish(ctx context.Context, t events.Type, sessionID string, data any) {
	if s.events == nil {
		return
	}

	ev, err := events.New(t, sessionID, data)
	if err == nil {
		err = s.events.Publish(ctx, ev)
	}
	if err != nil {
		log.Warn().Err(err).Str("component", "chat").Str("session", sessionID).Str("event", string(t)).Msg("failed to publish event")
	}
}
