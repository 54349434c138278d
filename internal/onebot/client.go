// Package onebot holds the outbound clients that answer join requests on a
// OneBot v11 backend. Each supported platform binding gets one client; all
// of them satisfy Responder.
package onebot

import (
	"context"
	"errors"
	"fmt"
	"time"

	"groupreview-bot/internal/config"
	"groupreview-bot/internal/domain"
)

var (
	// ErrActionFailed is returned when the backend answers with a non-ok envelope
	ErrActionFailed = errors.New("onebot action failed")
	// ErrUnsupportedPlatform is returned for bindings without an action client
	ErrUnsupportedPlatform = errors.New("unsupported onebot platform")
)

// Responder answers group join requests
type Responder interface {
	SetGroupAddRequest(ctx context.Context, params domain.GroupAddRequestParams) error
}

// StatusChecker reports the health of the bot backend
type StatusChecker interface {
	GetStatus(ctx context.Context) (*domain.BotStatus, error)
}

// Client is a Responder that can also report status
type Client interface {
	Responder
	StatusChecker
	Close() error
}

// envelope is the OneBot v11 action response
type envelope struct {
	Status  string         `json:"status"`
	RetCode int64          `json:"retcode"`
	Message string         `json:"message,omitempty"`
	Wording string         `json:"wording,omitempty"`
	Data    map[string]any `json:"data,omitempty"`
}

func (e envelope) err(action string) error {
	if e.Status == "ok" && e.RetCode == 0 {
		return nil
	}
	msg := e.Wording
	if msg == "" {
		msg = e.Message
	}
	return fmt.Errorf("%w: %s: status=%s retcode=%d %s", ErrActionFailed, action, e.Status, e.RetCode, msg)
}

func statusFromData(data map[string]any) *domain.BotStatus {
	st := &domain.BotStatus{}
	if v, ok := data["online"].(bool); ok {
		st.Online = v
	}
	if v, ok := data["good"].(bool); ok {
		st.Good = v
	}
	return st
}

// NewClient builds the client for the configured platform binding. The
// "none" binding yields a nil client and no error.
func NewClient(cfg config.OneBotConfig) (Client, error) {
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	switch cfg.Platform {
	case config.PlatformAiocqhttp:
		return NewHTTPClient(cfg.APIURL, cfg.AccessToken, timeout), nil
	case config.PlatformGRPC:
		bridge, err := DialGRPCBridge(cfg.GRPCTarget, cfg.AccessToken)
		if err != nil {
			return nil, err
		}
		return bridge, nil
	case config.PlatformNone, "":
		return nil, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedPlatform, cfg.Platform)
	}
}
