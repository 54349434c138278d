package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"groupreview-bot/internal/config"
	"groupreview-bot/internal/domain"
	"groupreview-bot/internal/logger"
)

type requestDecider struct {
	cfg       config.ReviewConfig
	responder GroupRequestResponder
	log       *slog.Logger

	// base context for submitted events, cancelled by Close
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	// guards closed and wg.Add against a concurrent Close
	mu     sync.Mutex
	closed bool

	// sleep is replaced in tests
	sleep func(ctx context.Context, d time.Duration) error
}

// NewRequestDecider builds the reviewer from an already merged config.
// A nil responder means no bot client is bound; every dispatch then fails.
func NewRequestDecider(cfg config.ReviewConfig, responder GroupRequestResponder) ReviewService {
	ctx, cancel := context.WithCancel(context.Background())
	d := &requestDecider{
		cfg:       cfg,
		responder: responder,
		log:       logger.WithService("review"),
		ctx:       ctx,
		cancel:    cancel,
		sleep:     sleepContext,
	}
	d.log.Info("Join request reviewer configured",
		"accept_keywords", cfg.AcceptKeywords,
		"reject_keywords", cfg.RejectKeywords,
		"auto_accept", cfg.AutoAccept,
		"auto_reject", cfg.AutoReject,
		"reject_reason", cfg.RejectReason,
		"delay_seconds", cfg.DelaySeconds,
		"client_bound", responder != nil)
	return d
}

// Handle processes one event synchronously. Non-matching and malformed
// events are ignored without logging a decision.
func (d *requestDecider) Handle(ctx context.Context, event domain.Event) {
	req, ok := domain.ParseJoinRequest(event.Raw)
	if !ok {
		return
	}
	d.log.Info("Received group join request",
		"event_id", event.ID,
		"user_id", req.UserID,
		"group_id", req.GroupID,
		"session_id", req.SessionID,
		"comment", req.Comment)
	d.DecideAndDispatch(ctx, req)
}

// Submit handles the event on its own goroutine so a delay only holds up
// that one request. Events submitted after Close are dropped.
func (d *requestDecider) Submit(event domain.Event) {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		d.log.Warn("Dropped join request event after shutdown", "event_id", event.ID)
		return
	}
	d.wg.Add(1)
	d.mu.Unlock()

	go func() {
		defer d.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				d.log.Error("Join request handler panicked", "event_id", event.ID, "panic", r)
			}
		}()
		d.Handle(d.ctx, event)
	}()
}

// DecideAndDispatch applies the policy, waits the configured delay and
// answers the request. It reports false when the request is deferred.
func (d *requestDecider) DecideAndDispatch(ctx context.Context, req domain.JoinRequest) (domain.Decision, bool) {
	decision, ok := Decide(req, d.cfg)
	if !ok {
		d.log.Info("Join request matched no keyword, awaiting manual review",
			"user_id", req.UserID,
			"group_id", req.GroupID)
		return domain.Decision{}, false
	}

	if delay := d.delay(); delay > 0 {
		d.log.Info("Delaying join request decision",
			"user_id", req.UserID,
			"group_id", req.GroupID,
			"approve", decision.Approve,
			"delay", delay)
		if err := d.sleep(ctx, delay); err != nil {
			// the request stays pending on the bot side
			d.log.Warn("Join request decision abandoned during delay",
				"user_id", req.UserID,
				"group_id", req.GroupID,
				"error", err)
			return decision, true
		}
	}

	if d.Dispatch(ctx, req, decision) {
		d.log.Info("Join request answered",
			"user_id", req.UserID,
			"group_id", req.GroupID,
			"approve", decision.Approve,
			"rule", decision.Rule,
			"keyword", decision.Keyword)
	}
	return decision, true
}

// Dispatch issues set_group_add_request exactly once. Failures are logged
// and reported as false, never returned or raised.
func (d *requestDecider) Dispatch(ctx context.Context, req domain.JoinRequest, decision domain.Decision) (ok bool) {
	if d.responder == nil {
		d.log.Error("No bot client can answer join requests", "flag", req.Flag, "group_id", req.GroupID)
		return false
	}

	defer func() {
		if r := recover(); r != nil {
			d.log.Error("Failed to answer join request", "flag", req.Flag, "error", fmt.Errorf("panic: %v", r))
			ok = false
		}
	}()

	params := domain.NewGroupAddRequestParams(req, decision)
	if err := d.responder.SetGroupAddRequest(ctx, params); err != nil {
		d.log.Error("Failed to answer join request",
			"flag", req.Flag,
			"user_id", req.UserID,
			"group_id", req.GroupID,
			"error", err)
		return false
	}
	return true
}

// Close cancels pending delays, waits for in-flight requests and stops.
func (d *requestDecider) Close() {
	d.mu.Lock()
	d.closed = true
	d.mu.Unlock()

	d.cancel()
	d.wg.Wait()
	d.log.Info("Join request reviewer stopped")
}

func (d *requestDecider) delay() time.Duration {
	return time.Duration(d.cfg.DelaySeconds * float64(time.Second))
}

// Decide evaluates the review policy in order; the first matching rule
// wins. It reports false when no rule matches.
func Decide(req domain.JoinRequest, cfg config.ReviewConfig) (domain.Decision, bool) {
	if cfg.AutoAccept {
		return domain.Decision{Approve: true, Rule: domain.RuleAutoAccept}, true
	}
	if cfg.AutoReject {
		return domain.Decision{Approve: false, Reason: cfg.RejectReason, Rule: domain.RuleAutoReject}, true
	}

	comment := strings.ToLower(req.Comment)
	// reject keywords take precedence over accept keywords
	if kw, ok := matchKeyword(comment, cfg.RejectKeywords); ok {
		return domain.Decision{Approve: false, Reason: cfg.RejectReason, Rule: domain.RuleRejectKeyword, Keyword: kw}, true
	}
	if kw, ok := matchKeyword(comment, cfg.AcceptKeywords); ok {
		return domain.Decision{Approve: true, Rule: domain.RuleAcceptKeyword, Keyword: kw}, true
	}
	return domain.Decision{}, false
}

// matchKeyword returns the first keyword contained in the lowercased text
func matchKeyword(lowerText string, keywords []string) (string, bool) {
	for _, kw := range keywords {
		if kw == "" {
			continue
		}
		if strings.Contains(lowerText, strings.ToLower(kw)) {
			return kw, true
		}
	}
	return "", false
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
