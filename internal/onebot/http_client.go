package onebot

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"groupreview-bot/internal/domain"
	"groupreview-bot/internal/logger"
)

const httpServiceName = "onebot-http"

// HTTPClient calls the OneBot HTTP API (NapCat, go-cqhttp) with typed payloads
type HTTPClient struct {
	baseURL     string
	accessToken string
	httpClient  *http.Client
}

// NewHTTPClient creates a client for the given API base URL. A zero timeout
// leaves outbound calls unbounded.
func NewHTTPClient(baseURL, accessToken string, timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		baseURL:     strings.TrimRight(baseURL, "/"),
		accessToken: accessToken,
		httpClient:  &http.Client{Timeout: timeout},
	}
}

// SetGroupAddRequest approves or rejects a join request
func (c *HTTPClient) SetGroupAddRequest(ctx context.Context, params domain.GroupAddRequestParams) error {
	logger.ExternalServiceCall(httpServiceName, domain.ActionSetGroupAddRequest, "flag", params.Flag, "approve", params.Approve)
	_, err := c.call(ctx, domain.ActionSetGroupAddRequest, params)
	logger.ExternalServiceResult(httpServiceName, domain.ActionSetGroupAddRequest, err, "flag", params.Flag)
	return err
}

// GetStatus queries get_status
func (c *HTTPClient) GetStatus(ctx context.Context) (*domain.BotStatus, error) {
	logger.ExternalServiceCall(httpServiceName, "get_status")
	env, err := c.call(ctx, "get_status", struct{}{})
	logger.ExternalServiceResult(httpServiceName, "get_status", err)
	if err != nil {
		return nil, err
	}
	return statusFromData(env.Data), nil
}

// Close is a no-op; the HTTP transport is shared
func (c *HTTPClient) Close() error {
	return nil
}

func (c *HTTPClient) call(ctx context.Context, action string, payload any) (*envelope, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s payload: %w", action, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/"+action, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build %s request: %w", action, err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.accessToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.accessToken)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to call %s: %w", action, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("%w: %s: http %d: %s", ErrActionFailed, action, resp.StatusCode, strings.TrimSpace(string(snippet)))
	}

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return nil, fmt.Errorf("failed to decode %s response: %w", action, err)
	}
	if err := env.err(action); err != nil {
		return nil, err
	}
	return &env, nil
}
