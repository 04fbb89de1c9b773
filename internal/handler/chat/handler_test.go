package chat

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zhouzirui/lumi/backend/internal/model/chat"
	"github.com/zhouzirui/lumi/backend/internal/model/state"
	"github.com/zhouzirui/lumi/backend/internal/service/ai"
	chatservice "github.com/zhouzirui/lumi/backend/internal/service/chat"
)

func setupRouter(gw ai.Gateway, delay time.Duration) (*chi.Mux, *chatservice.Service) {
	chatSvc := chatservice.NewService(gw, nil, chatservice.Options{OnboardingDelay: delay})
	handler := New(chatSvc)

	r := chi.NewRouter()
	handler.RegisterRoutes(r)
	return r, chatSvc
}

func echoGateway() ai.Gateway {
	return ai.GatewayFunc(func(_ context.Context, text string, _ []chat.Message) (ai.Response, error) {
		if text == "I feel anxious" {
			return ai.Response{Text: "I hear you."}, nil
		}
		return ai.Response{Text: "ok"}, nil
	})
}

func do(t *testing.T, r http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	return resp
}

func createSession(t *testing.T, r http.Handler) chat.Session {
	t.Helper()
	resp := do(t, r, http.MethodPost, "/session", nil)
	require.Equal(t, http.StatusCreated, resp.Code)

	var session chat.Session
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &session))
	return session
}

func waitForChat(t *testing.T, svc *chatservice.Service, id string) {
	t.Helper()
	require.Eventually(t, func() bool {
		s, err := svc.GetSession(context.Background(), id)
		return err == nil && s.State == state.Chat
	}, 2*time.Second, 5*time.Millisecond)
}

func TestCreateSession(t *testing.T) {
	r, _ := setupRouter(echoGateway(), time.Hour)

	session := createSession(t, r)
	assert.NotEmpty(t, session.ID)
	assert.Equal(t, state.Onboarding, session.State)
	require.Len(t, session.Messages, 1)
	assert.Equal(t, chatservice.Greeting, session.Messages[0].Content)
}

func TestSubmitDuringOnboardingConflicts(t *testing.T) {
	r, _ := setupRouter(echoGateway(), time.Hour)
	session := createSession(t, r)

	resp := do(t, r, http.MethodPost, "/session/"+session.ID+"/messages", map[string]string{"text": "hello"})
	assert.Equal(t, http.StatusConflict, resp.Code)
}

func TestSubmitRoundTrip(t *testing.T) {
	r, svc := setupRouter(echoGateway(), 0)
	session := createSession(t, r)
	waitForChat(t, svc, session.ID)

	resp := do(t, r, http.MethodPost, "/session/"+session.ID+"/messages", map[string]string{"text": "I feel anxious"})
	require.Equal(t, http.StatusOK, resp.Code)

	var result chatservice.TurnResult
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &result))
	assert.True(t, result.Delivered)
	require.NotNil(t, result.Reply)
	assert.Equal(t, "I hear you.", result.Reply.Content)

	resp = do(t, r, http.MethodGet, "/session/"+session.ID+"/messages", nil)
	require.Equal(t, http.StatusOK, resp.Code)

	var messages []chat.Message
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &messages))
	require.Len(t, messages, 3)
	assert.Equal(t, chat.RoleUser, messages[1].Role)
	assert.Equal(t, chat.RoleModel, messages[2].Role)
}

func TestSubmitValidation(t *testing.T) {
	r, svc := setupRouter(echoGateway(), 0)
	session := createSession(t, r)
	waitForChat(t, svc, session.ID)

	resp := do(t, r, http.MethodPost, "/session/"+session.ID+"/messages", map[string]string{"text": "  "})
	assert.Equal(t, http.StatusBadRequest, resp.Code)

	resp = do(t, r, http.MethodPost, "/session/"+session.ID+"/messages", nil)
	assert.Equal(t, http.StatusBadRequest, resp.Code)

	resp = do(t, r, http.MethodPost, "/session/missing/messages", map[string]string{"text": "hi"})
	assert.Equal(t, http.StatusNotFound, resp.Code)
}

func TestSubmitWithoutGateway(t *testing.T) {
	r, svc := setupRouter(nil, 0)
	session := createSession(t, r)
	waitForChat(t, svc, session.ID)

	resp := do(t, r, http.MethodPost, "/session/"+session.ID+"/messages", map[string]string{"text": "hi"})
	assert.Equal(t, http.StatusServiceUnavailable, resp.Code)
}

func TestSurfaceRoutes(t *testing.T) {
	r, svc := setupRouter(echoGateway(), 0)
	session := createSession(t, r)
	waitForChat(t, svc, session.ID)
	base := "/session/" + session.ID

	resp := do(t, r, http.MethodPost, base+"/breathing", nil)
	require.Equal(t, http.StatusOK, resp.Code)
	var view chat.Session
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &view))
	assert.True(t, view.Surfaces.Breathing.IsActive)

	resp = do(t, r, http.MethodDelete, base+"/breathing", nil)
	require.Equal(t, http.StatusOK, resp.Code)
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &view))
	assert.False(t, view.Surfaces.Breathing.IsActive)

	resp = do(t, r, http.MethodPost, base+"/referral", nil)
	require.Equal(t, http.StatusOK, resp.Code)
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &view))
	assert.True(t, view.Surfaces.Referral)

	resp = do(t, r, http.MethodDelete, base+"/referral", nil)
	require.Equal(t, http.StatusOK, resp.Code)
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &view))
	assert.False(t, view.Surfaces.Referral)
	assert.Equal(t, state.Chat, view.State)
}

func TestCloseSession(t *testing.T) {
	r, _ := setupRouter(echoGateway(), time.Hour)
	session := createSession(t, r)

	resp := do(t, r, http.MethodDelete, "/session/"+session.ID, nil)
	assert.Equal(t, http.StatusNoContent, resp.Code)

	resp = do(t, r, http.MethodGet, "/session/"+session.ID, nil)
	assert.Equal(t, http.StatusNotFound, resp.Code)
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, http.StatusNotFound, StatusFor(chatservice.ErrSessionNotFound))
	assert.Equal(t, http.StatusBadRequest, StatusFor(chatservice.ErrEmptyMessage))
	assert.Equal(t, http.StatusConflict, StatusFor(chatservice.ErrNotReady))
	assert.Equal(t, http.StatusServiceUnavailable, StatusFor(chatservice.ErrGatewayUnavailable))
	assert.Equal(t, http.StatusInternalServerError, StatusFor(errors.New("boom")))
}
