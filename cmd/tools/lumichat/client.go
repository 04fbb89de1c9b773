package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/zhouzirui/lumi/backend/internal/model/chat"
	"github.com/zhouzirui/lumi/backend/internal/model/referral"
	"github.com/zhouzirui/lumi/backend/internal/model/state"
	chatService "github.com/zhouzirui/lumi/backend/internal/service/chat"
)

// apiClient talks to the Lumi HTTP API.
type apiClient struct {
	baseURL string
	http    *http.Client
}

func newAPIClient(baseURL string, timeout time.Duration) *apiClient {
	return &apiClient{
		baseURL: strings.TrimRight(baseURL, "/") + "/api",
		http:    &http.Client{Timeout: timeout},
	}
}

func (c *apiClient) createSession(ctx context.Context) (chat.Session, error) {
	var session chat.Session
	err := c.do(ctx, http.MethodPost, "/session", nil, &session)
	return session, err
}

func (c *apiClient) getSession(ctx context.Context, id string) (chat.Session, error) {
	var session chat.Session
	err := c.do(ctx, http.MethodGet, "/session/"+id, nil, &session)
	return session, err
}

// waitForChat polls until onboarding is over.
func (c *apiClient) waitForChat(ctx context.Context, id string) error {
	ticker := time.NewTicker(200 * time.Millisecond)
	defer ticker.Stop()

	for {
		session, err := c.getSession(ctx, id)
		if err != nil {
			return err
		}
		if session.State != state.Onboarding {
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func (c *apiClient) submit(ctx context.Context, id, text string) (chatService.TurnResult, error) {
	var result chatService.TurnResult
	err := c.do(ctx, http.MethodPost, "/session/"+id+"/messages", map[string]string{"text": text}, &result)
	return result, err
}

func (c *apiClient) setBreathing(ctx context.Context, id string, open bool) (chat.Session, error) {
	method := http.MethodDelete
	if open {
		method = http.MethodPost
	}
	var session chat.Session
	err := c.do(ctx, method, "/session/"+id+"/breathing", nil, &session)
	return session, err
}

func (c *apiClient) dismissReferral(ctx context.Context, id string) (chat.Session, error) {
	var session chat.Session
	err := c.do(ctx, http.MethodDelete, "/session/"+id+"/referral", nil, &session)
	return session, err
}

func (c *apiClient) directory(ctx context.Context) (referral.Directory, error) {
	var dir referral.Directory
	err := c.do(ctx, http.MethodGet, "/therapists", nil, &dir)
	return dir, err
}

func (c *apiClient) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return errors.Wrap(err, "encode request")
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return errors.Wrap(err, "build request")
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return errors.Wrapf(err, "%s %s", method, path)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		var apiErr struct {
			Error string `json:"error"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&apiErr)
		if apiErr.Error == "" {
			apiErr.Error = resp.Status
		}
		return fmt.Errorf("%s %s: %s", method, path, apiErr.Error)
	}

	if out == nil {
		return nil
	}
	return errors.Wrap(json.NewDecoder(resp.Body).Decode(out), "decode response")
}
